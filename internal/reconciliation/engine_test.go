package reconciliation

import (
	"testing"

	"github.com/concilia/concilia/internal/config"
	"github.com/concilia/concilia/pkg/models"
	"github.com/shopspring/decimal"
)

func testEngine() *Engine {
	return NewEngine(&config.ReconciliationConfig{MatchTolerance: 0.01})
}

func entity(code string, amount float64) models.EntityRecord {
	return models.EntityRecord{Code: code, Label: "cliente " + code, Amount: decimal.NewFromFloat(amount)}
}

func TestEngine_UnmatchedFinancialSide(t *testing.T) {
	engine := testEngine()

	result := engine.Diff(
		[]models.EntityRecord{entity("C00000101", 1000.00)},
		nil,
	)

	if len(result.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(result.Rows))
	}
	row := result.Rows[0]
	if !row.Difference.Equal(decimal.NewFromFloat(1000.00)) {
		t.Errorf("expected difference 1000.00, got %s", row.Difference)
	}
	if row.Classification != models.ClassFinancialGreater {
		t.Errorf("expected %s, got %s", models.ClassFinancialGreater, row.Classification)
	}
	if !row.AccountingAmount.IsZero() {
		t.Errorf("expected zero accounting amount, got %s", row.AccountingAmount)
	}
}

func TestEngine_UnmatchedAccountingSide(t *testing.T) {
	engine := testEngine()

	result := engine.Diff(
		nil,
		[]models.EntityRecord{entity("C00000101", 750.00)},
	)

	row := result.Rows[0]
	if !row.Difference.Equal(decimal.NewFromFloat(-750.00)) {
		t.Errorf("expected difference -750.00, got %s", row.Difference)
	}
	if row.Classification != models.ClassAccountingGreater {
		t.Errorf("expected %s, got %s", models.ClassAccountingGreater, row.Classification)
	}
}

func TestEngine_EmptyInputsAreConciliated(t *testing.T) {
	engine := testEngine()

	result := engine.Diff(nil, nil)

	if len(result.Rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(result.Rows))
	}
	if !result.TotalDifference.IsZero() {
		t.Errorf("expected zero total difference, got %s", result.TotalDifference)
	}
	if result.Situation != models.SituacaoConciliado {
		t.Errorf("expected %s, got %s", models.SituacaoConciliado, result.Situation)
	}
	if !result.PercentDivergent.IsZero() {
		t.Errorf("expected zero percent, got %s", result.PercentDivergent)
	}
}

func TestEngine_ToleranceBoundary(t *testing.T) {
	engine := testEngine()

	result := engine.Diff(
		[]models.EntityRecord{entity("A", 100.009999), entity("B", 100.01)},
		[]models.EntityRecord{entity("A", 100.00), entity("B", 100.00)},
	)

	if result.Rows[0].Classification != models.ClassMatched {
		t.Errorf("difference below tolerance should match, got %s", result.Rows[0].Classification)
	}
	if result.Rows[1].Classification != models.ClassFinancialGreater {
		t.Errorf("difference at tolerance should not match, got %s", result.Rows[1].Classification)
	}
}

func TestEngine_ClassificationPartition(t *testing.T) {
	engine := testEngine()

	result := engine.Diff(
		[]models.EntityRecord{entity("A", 100), entity("B", 50), entity("C", 75)},
		[]models.EntityRecord{entity("A", 100), entity("B", 80), entity("D", 10)},
	)

	counts := map[models.Classification]int{}
	for _, row := range result.Rows {
		counts[row.Classification]++
	}
	total := counts[models.ClassMatched] + counts[models.ClassFinancialGreater] + counts[models.ClassAccountingGreater]
	if total != len(result.Rows) {
		t.Errorf("every row must land in exactly one bucket: %v", counts)
	}
	if counts[models.ClassMatched] != 1 || counts[models.ClassFinancialGreater] != 1 || counts[models.ClassAccountingGreater] != 2 {
		t.Errorf("unexpected bucket counts: %v", counts)
	}
}

func TestEngine_TotalsAndPercent(t *testing.T) {
	engine := testEngine()

	result := engine.Diff(
		[]models.EntityRecord{entity("A", 200), entity("B", 300)},
		[]models.EntityRecord{entity("A", 150), entity("B", 300)},
	)

	if !result.TotalFinancial.Equal(decimal.NewFromInt(500)) {
		t.Errorf("expected total financial 500, got %s", result.TotalFinancial)
	}
	if !result.TotalAccounting.Equal(decimal.NewFromInt(450)) {
		t.Errorf("expected total accounting 450, got %s", result.TotalAccounting)
	}
	if !result.TotalDifference.Equal(decimal.NewFromInt(50)) {
		t.Errorf("expected total difference 50, got %s", result.TotalDifference)
	}
	if !result.PercentDivergent.Equal(decimal.NewFromInt(10)) {
		t.Errorf("expected 10 percent, got %s", result.PercentDivergent)
	}
	if result.Situation != models.SituacaoDivergente {
		t.Errorf("expected %s, got %s", models.SituacaoDivergente, result.Situation)
	}
}

func TestEngine_PercentGuardsZeroFinancialTotal(t *testing.T) {
	engine := testEngine()

	result := engine.Diff(
		nil,
		[]models.EntityRecord{entity("A", 100)},
	)

	if !result.PercentDivergent.IsZero() {
		t.Errorf("expected zero percent when financial total is zero, got %s", result.PercentDivergent)
	}
}

func TestEngine_RowsSortedByCode(t *testing.T) {
	engine := testEngine()

	result := engine.Diff(
		[]models.EntityRecord{entity("C", 1), entity("A", 1)},
		[]models.EntityRecord{entity("B", 1)},
	)

	codes := []string{result.Rows[0].Code, result.Rows[1].Code, result.Rows[2].Code}
	if codes[0] != "A" || codes[1] != "B" || codes[2] != "C" {
		t.Errorf("expected sorted codes, got %v", codes)
	}
}

func TestEngine_LabelPrefersFinancialSide(t *testing.T) {
	engine := testEngine()

	fin := models.EntityRecord{Code: "A", Label: "FINANCEIRO", Amount: decimal.NewFromInt(1)}
	acc := models.EntityRecord{Code: "A", Label: "CONTABIL", Amount: decimal.NewFromInt(1)}

	result := engine.Diff([]models.EntityRecord{fin}, []models.EntityRecord{acc})
	if result.Rows[0].Label != "FINANCEIRO" {
		t.Errorf("expected financial label, got %q", result.Rows[0].Label)
	}
}
