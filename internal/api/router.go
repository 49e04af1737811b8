package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/concilia/concilia/internal/config"
	"github.com/concilia/concilia/internal/reconciliation"
	"github.com/concilia/concilia/internal/storage"
)

// Server represents the API server
type Server struct {
	config   *config.Config
	router   chi.Router
	handlers *Handlers
}

// NewServer creates a new API server. agent may be nil when the LLM strategy
// is disabled.
func NewServer(cfg *config.Config, service *reconciliation.Service, agent reconciliation.Reconciler, store *storage.Store) *Server {
	s := &Server{
		config:   cfg,
		router:   chi.NewRouter(),
		handlers: NewHandlers(cfg, service, agent, store),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handlers.HealthCheck)

	s.router.Route("/api/v1/concilia", func(r chi.Router) {
		// Companies
		r.Route("/companies", func(r chi.Router) {
			r.Get("/", s.handlers.ListCompanies)
			r.Post("/", s.handlers.CreateCompany)
			r.Get("/{id}", s.handlers.GetCompany)
			r.Put("/{id}", s.handlers.UpdateCompany)
			r.Delete("/{id}", s.handlers.DeleteCompany)
			r.Get("/{id}/accounts", s.handlers.ListAccounts)
			r.Post("/{id}/accounts", s.handlers.UpsertAccount)
		})

		// Reconciliations
		r.Route("/reconciliations", func(r chi.Router) {
			r.Get("/", s.handlers.ListReconciliations)
			r.Post("/", s.handlers.RunReconciliation)
			r.Post("/upload", s.handlers.RunReconciliationUpload)
			r.Get("/{id}", s.handlers.GetReconciliation)
			r.Get("/{id}/export", s.handlers.ExportReconciliation)
			r.Post("/{id}/finalize", s.handlers.FinalizeReconciliation)
		})

		// Agent
		r.Get("/agent/status", s.handlers.AgentStatus)
	})
}

// Router returns the chi router
func (s *Server) Router() http.Handler {
	return s.router
}
