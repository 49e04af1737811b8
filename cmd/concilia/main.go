package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/concilia/concilia/internal/agent"
	"github.com/concilia/concilia/internal/api"
	"github.com/concilia/concilia/internal/config"
	"github.com/concilia/concilia/internal/reconciliation"
	"github.com/concilia/concilia/internal/storage"
)

func main() {
	log.Println("Starting Concilia...")

	// Load configuration
	cfg := loadConfig()

	// Open embedded storage
	store, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		log.Fatalf("Failed to open storage at %s: %v", cfg.Storage.Path, err)
	}

	// Deterministic pipeline
	service := reconciliation.NewService(cfg)

	// Optional LLM strategy
	var llm reconciliation.Reconciler
	if cfg.Agent.Enabled {
		llm = agent.New(&cfg.Agent)
		log.Printf("Agent strategy enabled (model %s)", cfg.Agent.Model)
	}

	// Create API server
	server := api.NewServer(cfg, service, llm, store)

	// Start HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Concilia API listening on port %d", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down Concilia...")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	if err := store.Close(); err != nil {
		log.Printf("Storage close error: %v", err)
	}

	log.Println("Concilia stopped")
}

func loadConfig() *config.Config {
	configPath := os.Getenv("CONCILIA_CONFIG")
	if configPath != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			log.Printf("Failed to load config from %s: %v, using defaults", configPath, err)
			return config.LoadFromEnv()
		}
		return cfg
	}
	return config.LoadFromEnv()
}
