package reconciliation

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/concilia/concilia/internal/config"
	"github.com/concilia/concilia/internal/normalize"
	"github.com/concilia/concilia/pkg/models"
	"github.com/shopspring/decimal"
)

// Reconciler is the capability shared by every reconciliation strategy: the
// deterministic pipeline below and the LLM agent are alternative
// implementations of this one contract.
type Reconciler interface {
	Reconcile(ctx context.Context, req *models.ReconciliationRequest) (*models.ReconciliationReport, error)
}

// ValidationError reports a missing or empty required input. It is raised
// before any normalization work starts.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "cannot reconcile: " + e.Reason
}

// Service orchestrates the deterministic pipeline: normalize both exports,
// diff, map the non-matched buckets and assemble the report.
type Service struct {
	financial  *normalize.FinancialNormalizer
	accounting *normalize.AccountingNormalizer
	engine     *Engine
	mapper     *Mapper

	alertThreshold decimal.Decimal

	// Now is the reference clock for the age computation and the report
	// timestamp. Tests pin it for reproducible output.
	Now func() time.Time
}

// NewService wires the pipeline from configuration
func NewService(cfg *config.Config) *Service {
	return &Service{
		financial:      normalize.NewFinancialNormalizer(cfg.Normalizer.Financial, cfg.Reconciliation.LongTermAgeDays),
		accounting:     normalize.NewAccountingNormalizer(cfg.Normalizer.Accounting),
		engine:         NewEngine(&cfg.Reconciliation),
		mapper:         NewMapper(CodeLengthClassifier(cfg.Reconciliation.ShortCodeLength)),
		alertThreshold: decimal.NewFromFloat(cfg.Reconciliation.AlertThreshold),
		Now:            time.Now,
	}
}

// Reconcile runs the pipeline end to end. SchemaError and ValidationError
// abort the run; conversion fallbacks and mapping failures degrade the
// report and are logged.
func (s *Service) Reconcile(ctx context.Context, req *models.ReconciliationRequest) (*models.ReconciliationReport, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	asOf := s.Now()

	finResult, err := s.financial.Normalize(req.BaseOrigem.Registros, asOf)
	if err != nil {
		return nil, err
	}
	logDiagnostics("financial", finResult)

	accResult, err := s.accounting.Normalize(req.BaseContabilFiltrada.Registros)
	if err != nil {
		return nil, err
	}
	logDiagnostics("accounting", accResult)

	diff := s.engine.Diff(finResult.Records, accResult.Records)

	origemMaior := make([]models.FinancialGreaterRecord, 0)
	for _, row := range RowsByClassification(diff.Rows, models.ClassFinancialGreater) {
		mapped, err := s.mapper.FinancialGreater(row)
		if err != nil {
			log.Printf("reconciliation: skipping financial-greater row %q: %v", row.Code, err)
			continue
		}
		origemMaior = append(origemMaior, mapped)
	}

	contabilMaior := make([]models.AccountingGreaterRecord, 0)
	for _, row := range RowsByClassification(diff.Rows, models.ClassAccountingGreater) {
		mapped, err := s.mapper.AccountingGreater(row, req.BaseContabilFiltrada.ContaContabil)
		if err != nil {
			log.Printf("reconciliation: skipping accounting-greater row %q: %v", row.Code, err)
			continue
		}
		contabilMaior = append(contabilMaior, mapped)
	}

	percent := diff.PercentDivergent.Round(2)

	report := &models.ReconciliationReport{
		Resumo: models.Summary{
			TotalOrigem:                diff.TotalFinancial.Round(2),
			TotalDestino:               diff.TotalAccounting.Round(2),
			Diferenca:                  diff.TotalDifference.Round(2),
			Situacao:                   diff.Situation,
			PercentualDivergencia:      percent,
			QuantidadeRegistrosOrigem:  len(finResult.Records),
			QuantidadeRegistrosDestino: len(accResult.Records),
			DataProcessamento:          asOf.UTC().Format(time.RFC3339),
		},
		DiferencasOrigemMaior:        origemMaior,
		DiferencasContabilidadeMaior: contabilMaior,
		Observacoes: []string{
			fmt.Sprintf("Total de %d registros onde origem > contabilidade", len(origemMaior)),
			fmt.Sprintf("Total de %d registros onde contabilidade > origem", len(contabilMaior)),
			fmt.Sprintf("Percentual de divergência: %s%%", percent.StringFixed(2)),
		},
		Alertas: []string{s.alert(diff.TotalDifference)},
	}

	return report, nil
}

func (s *Service) alert(totalDifference decimal.Decimal) string {
	if totalDifference.Abs().GreaterThan(s.alertThreshold) {
		return "Verificar diferenças significativas"
	}
	return "Diferenças dentro do esperado"
}

func validate(req *models.ReconciliationRequest) error {
	if req == nil || len(req.BaseOrigem.Registros) == 0 {
		return &ValidationError{Reason: "base de origem vazia"}
	}
	if len(req.BaseContabilFiltrada.Registros) == 0 {
		return &ValidationError{Reason: "base contábil filtrada vazia"}
	}
	if len(req.BaseContabilGeral.Registros) == 0 {
		return &ValidationError{Reason: "base geral da contabilidade vazia"}
	}
	if req.Parametros["data_base"] == "" {
		return &ValidationError{Reason: "data-base não informada"}
	}
	return nil
}

func logDiagnostics(stage string, result *normalize.Result) {
	if len(result.Diagnostics) == 0 && result.DroppedRows == 0 {
		return
	}
	log.Printf("reconciliation: %s normalization: %d fallback(s), %d row(s) dropped",
		stage, len(result.Diagnostics), result.DroppedRows)
	for _, d := range result.Diagnostics {
		log.Printf("reconciliation: %s row %d field %q value %q: %s", d.Stage, d.Row, d.Field, d.Value, d.Reason)
	}
}
