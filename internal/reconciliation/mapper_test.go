package reconciliation

import (
	"testing"

	"github.com/concilia/concilia/pkg/models"
	"github.com/shopspring/decimal"
)

func TestCodeLengthClassifier(t *testing.T) {
	classify := CodeLengthClassifier(11)

	tests := map[string]string{
		"":             "Não Classificado",
		"C00067201":    "Curto",
		"C0006720100":  "Longo",
		"C00067201001": "Longo",
	}
	for code, want := range tests {
		if got := classify(code); got != want {
			t.Errorf("classify(%q): expected %s, got %s", code, want, got)
		}
	}
}

func TestMapper_FinancialGreater(t *testing.T) {
	m := NewMapper(CodeLengthClassifier(11))

	row := models.ReconciliationRow{
		Code:             "C00067201",
		Label:            "A A DANTAS RIBEIRO",
		FinancialAmount:  decimal.NewFromFloat(1234.567),
		AccountingAmount: decimal.NewFromFloat(1000.0),
		Difference:       decimal.NewFromFloat(234.567),
		Classification:   models.ClassFinancialGreater,
	}

	rec, err := m.FinancialGreater(row)
	if err != nil {
		t.Fatalf("FinancialGreater returned error: %v", err)
	}
	if rec.Identificador != "C00067201" {
		t.Errorf("expected identifier C00067201, got %s", rec.Identificador)
	}
	if rec.Cliente != "A A DANTAS RIBEIRO" {
		t.Errorf("unexpected client %q", rec.Cliente)
	}
	if !rec.ValorOrigem.Equal(decimal.NewFromFloat(1234.57)) {
		t.Errorf("expected rounded 1234.57, got %s", rec.ValorOrigem)
	}
	if !rec.Diferenca.Equal(decimal.NewFromFloat(234.57)) {
		t.Errorf("expected rounded 234.57, got %s", rec.Diferenca)
	}
	if rec.Prazo != "Curto" {
		t.Errorf("expected Curto, got %s", rec.Prazo)
	}
	if rec.TipoDiferenca != string(models.ClassFinancialGreater) {
		t.Errorf("unexpected difference type %q", rec.TipoDiferenca)
	}
}

func TestMapper_FinancialGreaterEmptyCode(t *testing.T) {
	m := NewMapper(CodeLengthClassifier(11))

	if _, err := m.FinancialGreater(models.ReconciliationRow{}); err == nil {
		t.Error("expected error for empty code")
	}
}

func TestMapper_AccountingGreater(t *testing.T) {
	m := NewMapper(CodeLengthClassifier(11))

	row := models.ReconciliationRow{
		Code:       "C00067201",
		Difference: decimal.NewFromFloat(-99.999),
	}

	rec, err := m.AccountingGreater(row, "1.1.2.01.001")
	if err != nil {
		t.Fatalf("AccountingGreater returned error: %v", err)
	}
	if !rec.Valor.Equal(decimal.NewFromFloat(-100.00)) {
		t.Errorf("expected rounded -100.00, got %s", rec.Valor)
	}
	if rec.ContaContabil != "1.1.2.01.001" {
		t.Errorf("expected account from request, got %s", rec.ContaContabil)
	}
	if rec.Historico == "" {
		t.Error("expected a history description")
	}
}

func TestMapper_AccountingGreaterEmptyCode(t *testing.T) {
	m := NewMapper(CodeLengthClassifier(11))

	if _, err := m.AccountingGreater(models.ReconciliationRow{}, "1.1"); err == nil {
		t.Error("expected error for empty code")
	}
}
