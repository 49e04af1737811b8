package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawRecord is one row of an uploaded export, keyed by its original column
// header. Values arrive as strings when parsed from a spreadsheet and as
// arbitrary JSON scalars when posted directly.
type RawRecord map[string]any

// RecordSet groups the raw rows of one export.
type RecordSet struct {
	Registros []RawRecord `json:"registros"`
}

// FilteredLedgerSet carries the accounting rows already filtered to a single
// ledger account, together with that account's code.
type FilteredLedgerSet struct {
	Registros     []RawRecord `json:"registros"`
	ContaContabil string      `json:"conta_contabil"`
}

// ReconciliationRequest is the input contract of a reconciliation run.
// BaseContabilGeral holds the full ledger detail; the deterministic pipeline
// never reads it, only the agent strategy does.
type ReconciliationRequest struct {
	BaseOrigem           RecordSet         `json:"base_origem"`
	BaseContabilFiltrada FilteredLedgerSet `json:"base_contabil_filtrada"`
	BaseContabilGeral    RecordSet         `json:"base_contabil_geral"`
	Parametros           map[string]string `json:"parametros"`
}

// Term labels for the financial normalizer's age-based classification.
const (
	TermShort = "CURTO PRAZO"
	TermLong  = "LONGO PRAZO"
)

// EntityRecord is one normalized, aggregated row per canonical code. Both
// normalizers produce this shape.
type EntityRecord struct {
	Code    string          `json:"codigo"`
	Label   string          `json:"cliente"`
	Amount  decimal.Decimal `json:"valor"`
	AgeDays *int            `json:"dias_vencidos,omitempty"`
	Term    string          `json:"tipo,omitempty"`
}

// Classification identifies which side of a reconciliation row is larger.
type Classification string

const (
	ClassFinancialGreater  Classification = "Financeiro > Contabilidade"
	ClassAccountingGreater Classification = "Contabilidade > Financeiro"
	ClassMatched           Classification = "Conciliado"
)

// ReconciliationRow is one joined, classified row comparing a code's
// financial and accounting amounts.
type ReconciliationRow struct {
	Code             string          `json:"codigo"`
	Label            string          `json:"cliente"`
	FinancialAmount  decimal.Decimal `json:"valor_financeiro"`
	AccountingAmount decimal.Decimal `json:"valor_contabilidade"`
	Difference       decimal.Decimal `json:"diferenca"`
	Classification   Classification  `json:"tipo_diferenca"`
}

// Summary situation labels.
const (
	SituacaoConciliado = "CONCILIADO"
	SituacaoDivergente = "DIVERGENTE"
)

// Summary holds the report totals. Monetary values are rounded to two
// decimal places at assembly time.
type Summary struct {
	TotalOrigem                decimal.Decimal `json:"total_origem"`
	TotalDestino               decimal.Decimal `json:"total_destino"`
	Diferenca                  decimal.Decimal `json:"diferenca"`
	Situacao                   string          `json:"situacao"`
	PercentualDivergencia      decimal.Decimal `json:"percentual_divergencia"`
	QuantidadeRegistrosOrigem  int             `json:"quantidade_registros_origem"`
	QuantidadeRegistrosDestino int             `json:"quantidade_registros_destino"`
	DataProcessamento          string          `json:"data_processamento"`
}

// FinancialGreaterRecord is the external shape of a row where the financial
// side exceeds the accounting side.
type FinancialGreaterRecord struct {
	Identificador string          `json:"identificador"`
	Cliente       string          `json:"cliente"`
	ValorOrigem   decimal.Decimal `json:"valor_origem"`
	ValorContabil decimal.Decimal `json:"valor_contabil"`
	Diferenca     decimal.Decimal `json:"diferenca"`
	Prazo         string          `json:"prazo"`
	TipoDiferenca string          `json:"tipo_diferenca"`
}

// AccountingGreaterRecord is the external shape of a row where the accounting
// side exceeds the financial side. ContaContabil comes from the request, not
// from the row.
type AccountingGreaterRecord struct {
	Identificador string          `json:"identificador"`
	Valor         decimal.Decimal `json:"valor"`
	ContaContabil string          `json:"conta_contabil"`
	Historico     string          `json:"historico"`
}

// ReconciliationReport is the terminal artifact of a run. It is assembled
// once and never mutated.
type ReconciliationReport struct {
	Resumo                       Summary                   `json:"resumo"`
	DiferencasOrigemMaior        []FinancialGreaterRecord  `json:"diferencas_origem_maior"`
	DiferencasContabilidadeMaior []AccountingGreaterRecord `json:"diferencas_contabilidade_maior"`
	Observacoes                  []string                  `json:"observacoes"`
	Alertas                      []string                  `json:"alertas"`
}

// Diagnostic records one per-field conversion fallback. Fallbacks never abort
// a batch; they are collected so callers can inspect data quality.
type Diagnostic struct {
	Stage  string `json:"stage"`
	Row    int    `json:"row"`
	Field  string `json:"field"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

// Company is a registered company whose accounts are reconciled.
type Company struct {
	ID        int64     `json:"id"`
	Nome      string    `json:"nome"`
	CNPJ      string    `json:"cnpj"`
	Status    bool      `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LedgerAccount is one entry of a company's chart of accounts.
type LedgerAccount struct {
	ID            int64  `json:"id"`
	EmpresaID     int64  `json:"empresa_id"`
	ContaContabil string `json:"conta_contabil"`
	Descricao     string `json:"descricao"`
	Tipo          string `json:"tipo"` // Analítica or Sintética
	Conciliavel   bool   `json:"conciliavel"`
}

// StoredReconciliation is a persisted reconciliation run.
type StoredReconciliation struct {
	ID            string                `json:"id"`
	EmpresaID     int64                 `json:"empresa_id"`
	ContaContabil string                `json:"conta_contabil"`
	DataBase      string                `json:"data_base"`
	Situacao      string                `json:"situacao"`
	Finalized     bool                  `json:"finalized"`
	Report        *ReconciliationReport `json:"report,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
}
