package reconciliation

import (
	"sort"

	"github.com/concilia/concilia/internal/config"
	"github.com/concilia/concilia/pkg/models"
	"github.com/shopspring/decimal"
)

// Engine joins the two canonical entity tables and classifies every
// discrepancy. It is pure: given identical inputs it produces identical
// output.
type Engine struct {
	tolerance decimal.Decimal
}

// NewEngine creates a diff engine
func NewEngine(cfg *config.ReconciliationConfig) *Engine {
	return &Engine{
		tolerance: decimal.NewFromFloat(cfg.MatchTolerance),
	}
}

// DiffResult holds the joined rows and the summary totals over all of them.
type DiffResult struct {
	Rows             []models.ReconciliationRow
	TotalFinancial   decimal.Decimal
	TotalAccounting  decimal.Decimal
	TotalDifference  decimal.Decimal
	PercentDivergent decimal.Decimal
	Situation        string
}

// Diff performs a full outer join of the two tables on code. Absent sides
// count as zero. Each row classifies by the sign of its difference against
// the tolerance; the overall situation applies the same tolerance to the
// grand total, independently of the per-row results.
func (e *Engine) Diff(financial, accounting []models.EntityRecord) *DiffResult {
	finByCode := make(map[string]models.EntityRecord, len(financial))
	accByCode := make(map[string]models.EntityRecord, len(accounting))
	codes := make([]string, 0, len(financial)+len(accounting))
	seen := make(map[string]bool)

	for _, rec := range financial {
		finByCode[rec.Code] = rec
		if !seen[rec.Code] {
			seen[rec.Code] = true
			codes = append(codes, rec.Code)
		}
	}
	for _, rec := range accounting {
		accByCode[rec.Code] = rec
		if !seen[rec.Code] {
			seen[rec.Code] = true
			codes = append(codes, rec.Code)
		}
	}
	sort.Strings(codes)

	result := &DiffResult{
		Rows: make([]models.ReconciliationRow, 0, len(codes)),
	}

	for _, code := range codes {
		fin, hasFin := finByCode[code]
		acc, hasAcc := accByCode[code]

		finAmount := decimal.Zero
		accAmount := decimal.Zero
		label := ""
		if hasFin {
			finAmount = fin.Amount
			label = fin.Label
		}
		if hasAcc {
			accAmount = acc.Amount
			if label == "" {
				label = acc.Label
			}
		}

		difference := finAmount.Sub(accAmount)
		result.Rows = append(result.Rows, models.ReconciliationRow{
			Code:             code,
			Label:            label,
			FinancialAmount:  finAmount,
			AccountingAmount: accAmount,
			Difference:       difference,
			Classification:   e.classify(difference),
		})

		result.TotalFinancial = result.TotalFinancial.Add(finAmount)
		result.TotalAccounting = result.TotalAccounting.Add(accAmount)
	}

	result.TotalDifference = result.TotalFinancial.Sub(result.TotalAccounting)
	if !result.TotalFinancial.IsZero() {
		result.PercentDivergent = result.TotalDifference.Abs().
			Div(result.TotalFinancial).
			Mul(decimal.NewFromInt(100))
	}
	if result.TotalDifference.Abs().LessThan(e.tolerance) {
		result.Situation = models.SituacaoConciliado
	} else {
		result.Situation = models.SituacaoDivergente
	}

	return result
}

// classify is a pure function of the difference's sign and the tolerance. A
// code lands in exactly one bucket.
func (e *Engine) classify(difference decimal.Decimal) models.Classification {
	if difference.Abs().LessThan(e.tolerance) {
		return models.ClassMatched
	}
	if difference.IsPositive() {
		return models.ClassFinancialGreater
	}
	return models.ClassAccountingGreater
}

// RowsByClassification filters rows into the requested bucket.
func RowsByClassification(rows []models.ReconciliationRow, class models.Classification) []models.ReconciliationRow {
	var out []models.ReconciliationRow
	for _, row := range rows {
		if row.Classification == class {
			out = append(out, row)
		}
	}
	return out
}
