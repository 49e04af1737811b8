package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/concilia/concilia/internal/config"
	"github.com/concilia/concilia/internal/ingest"
	"github.com/concilia/concilia/internal/normalize"
	"github.com/concilia/concilia/internal/reconciliation"
	"github.com/concilia/concilia/internal/reporting"
	"github.com/concilia/concilia/internal/storage"
	"github.com/concilia/concilia/pkg/models"
)

const maxUploadBytes = 32 << 20

// Handlers contains all HTTP handlers
type Handlers struct {
	config  *config.Config
	service *reconciliation.Service
	agent   reconciliation.Reconciler
	store   *storage.Store
}

// NewHandlers creates new handlers
func NewHandlers(cfg *config.Config, service *reconciliation.Service, agent reconciliation.Reconciler, store *storage.Store) *Handlers {
	return &Handlers{
		config:  cfg,
		service: service,
		agent:   agent,
		store:   store,
	}
}

// HealthCheck handles health check requests
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "concilia",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Company handlers

// ListCompanies lists all registered companies
func (h *Handlers) ListCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := h.store.ListCompanies()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if companies == nil {
		companies = []models.Company{}
	}
	respond(w, http.StatusOK, companies)
}

// CreateCompany registers a company
func (h *Handlers) CreateCompany(w http.ResponseWriter, r *http.Request) {
	var c models.Company
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if c.Nome == "" || c.CNPJ == "" {
		respondError(w, http.StatusBadRequest, "nome and cnpj are required")
		return
	}

	if err := h.store.CreateCompany(&c); err != nil {
		if errors.Is(err, storage.ErrDuplicateCNPJ) {
			respondError(w, http.StatusConflict, "CNPJ já cadastrado")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respond(w, http.StatusCreated, c)
}

// GetCompany gets a company by ID
func (h *Handlers) GetCompany(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid company ID")
		return
	}

	c, err := h.store.GetCompany(id)
	if errors.Is(err, storage.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Company not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respond(w, http.StatusOK, c)
}

// UpdateCompany updates a company
func (h *Handlers) UpdateCompany(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid company ID")
		return
	}

	var c models.Company
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	c.ID = id

	if err := h.store.UpdateCompany(&c); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Company not found")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respond(w, http.StatusOK, c)
}

// DeleteCompany removes a company
func (h *Handlers) DeleteCompany(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid company ID")
		return
	}

	if err := h.store.DeleteCompany(id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Company not found")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListAccounts returns a company's chart of accounts
func (h *Handlers) ListAccounts(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid company ID")
		return
	}

	accounts, err := h.store.ListAccounts(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if accounts == nil {
		accounts = []models.LedgerAccount{}
	}
	respond(w, http.StatusOK, accounts)
}

// UpsertAccount adds or updates a chart-of-accounts entry
func (h *Handlers) UpsertAccount(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid company ID")
		return
	}

	var a models.LedgerAccount
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	a.EmpresaID = id

	if err := h.store.UpsertAccount(&a); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respond(w, http.StatusCreated, a)
}

// Reconciliation handlers

// RunReconciliation runs the deterministic pipeline over JSON row
// collections and stores the result.
func (h *Handlers) RunReconciliation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		models.ReconciliationRequest
		EmpresaID int64 `json:"empresa_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	report, err := h.service.Reconcile(r.Context(), &req.ReconciliationRequest)
	if err != nil {
		respondPipelineError(w, err)
		return
	}

	rec := h.storeRun(w, req.EmpresaID, &req.ReconciliationRequest, report)
	if rec == nil {
		return
	}
	respondRun(w, rec, report)
}

// RunReconciliationUpload accepts the three xlsx exports as multipart files,
// converts them into row collections and runs the selected strategy.
// ?strategy=agent selects the LLM path.
func (h *Handlers) RunReconciliationUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	origem, err := readUpload(r, "arquivo_origem")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	contabil, err := readUpload(r, "arquivo_contabil")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	lancamentos, err := readUpload(r, "arquivo_geral_contabilidade")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	empresaID, _ := strconv.ParseInt(r.FormValue("empresa_id"), 10, 64)
	req := &models.ReconciliationRequest{
		BaseOrigem: models.RecordSet{Registros: origem},
		BaseContabilFiltrada: models.FilteredLedgerSet{
			Registros:     contabil,
			ContaContabil: r.FormValue("conta_contabil"),
		},
		BaseContabilGeral: models.RecordSet{Registros: lancamentos},
		Parametros: map[string]string{
			"data_base": r.FormValue("data_base"),
		},
	}

	strategy := h.selectStrategy(r.URL.Query().Get("strategy"))
	if strategy == nil {
		respondError(w, http.StatusServiceUnavailable, "Agent strategy is not configured")
		return
	}

	report, err := strategy.Reconcile(r.Context(), req)
	if err != nil {
		respondPipelineError(w, err)
		return
	}

	rec := h.storeRun(w, empresaID, req, report)
	if rec == nil {
		return
	}
	respondRun(w, rec, report)
}

func (h *Handlers) selectStrategy(name string) reconciliation.Reconciler {
	if name == "agent" {
		return h.agent
	}
	return h.service
}

func (h *Handlers) storeRun(w http.ResponseWriter, empresaID int64, req *models.ReconciliationRequest, report *models.ReconciliationReport) *models.StoredReconciliation {
	rec := &models.StoredReconciliation{
		ID:            uuid.NewString(),
		EmpresaID:     empresaID,
		ContaContabil: req.BaseContabilFiltrada.ContaContabil,
		DataBase:      req.Parametros["data_base"],
		Situacao:      report.Resumo.Situacao,
		Report:        report,
	}
	if err := h.store.SaveReconciliation(rec); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return nil
	}
	return rec
}

func respondRun(w http.ResponseWriter, rec *models.StoredReconciliation, report *models.ReconciliationReport) {
	total := len(report.DiferencasOrigemMaior) + len(report.DiferencasContabilidadeMaior)
	respond(w, http.StatusOK, map[string]any{
		"id":                             rec.ID,
		"resumo":                         report.Resumo,
		"diferencas_origem_maior":        report.DiferencasOrigemMaior,
		"diferencas_contabilidade_maior": report.DiferencasContabilidadeMaior,
		"observacoes":                    report.Observacoes,
		"alertas":                        report.Alertas,
		"diferencas_encontradas":         total > 0,
		"total_diferencas":               total,
	})
}

// ListReconciliations lists stored runs, optionally filtered by company
func (h *Handlers) ListReconciliations(w http.ResponseWriter, r *http.Request) {
	var empresaID int64
	if v := r.URL.Query().Get("empresa_id"); v != "" {
		empresaID, _ = strconv.ParseInt(v, 10, 64)
	}

	recs, err := h.store.ListReconciliations(empresaID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if recs == nil {
		recs = []models.StoredReconciliation{}
	}
	respond(w, http.StatusOK, recs)
}

// GetReconciliation returns one stored run with its report
func (h *Handlers) GetReconciliation(w http.ResponseWriter, r *http.Request) {
	rec, err := h.store.GetReconciliation(chi.URLParam(r, "id"))
	if errors.Is(err, storage.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Reconciliation not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respond(w, http.StatusOK, rec)
}

// ExportReconciliation renders a stored run as an xlsx workbook
func (h *Handlers) ExportReconciliation(w http.ResponseWriter, r *http.Request) {
	rec, err := h.store.GetReconciliation(chi.URLParam(r, "id"))
	if errors.Is(err, storage.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Reconciliation not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	data, err := reporting.BuildReportXLSX(rec)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=conciliacao-%s.xlsx", rec.ID))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// FinalizeReconciliation marks a run as finalized. Runs with outstanding
// differences cannot be finalized.
func (h *Handlers) FinalizeReconciliation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := h.store.GetReconciliation(id)
	if errors.Is(err, storage.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Reconciliation not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if rec.Report == nil {
		respondError(w, http.StatusInternalServerError, "reconciliation has no stored report")
		return
	}

	total := len(rec.Report.DiferencasOrigemMaior) + len(rec.Report.DiferencasContabilidadeMaior)
	if total > 0 {
		respondError(w, http.StatusBadRequest, "Não é possível efetivar: existem diferenças no relatório")
		return
	}

	if err := h.store.FinalizeReconciliation(id); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respond(w, http.StatusOK, map[string]any{
		"success":        true,
		"message":        "Conciliação efetivada com sucesso",
		"conta_contabil": rec.ContaContabil,
		"data_base":      rec.DataBase,
	})
}

// AgentStatus reports whether the LLM strategy is configured
func (h *Handlers) AgentStatus(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]any{
		"agent_ready": h.agent != nil,
		"model":       h.config.Agent.Model,
	})
}

// Helper functions

func readUpload(r *http.Request, field string) ([]models.RawRecord, error) {
	file, _, err := r.FormFile(field)
	if err != nil {
		return nil, fmt.Errorf("missing file %q", field)
	}
	defer file.Close()

	records, err := ingest.ReadWorkbook(file)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %v", field, err)
	}
	return records, nil
}

// respondPipelineError maps pipeline errors to client-facing statuses:
// missing inputs are a bad request, unresolvable columns an unprocessable
// upload, anything else a server error.
func respondPipelineError(w http.ResponseWriter, err error) {
	var validationErr *reconciliation.ValidationError
	if errors.As(err, &validationErr) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var schemaErr *normalize.SchemaError
	if errors.As(err, &schemaErr) {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	respondError(w, http.StatusInternalServerError, err.Error())
}

func respond(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respond(w, status, map[string]string{"error": message})
}
