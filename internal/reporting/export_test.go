package reporting

import (
	"bytes"
	"testing"

	"github.com/concilia/concilia/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func testRecord() *models.StoredReconciliation {
	return &models.StoredReconciliation{
		ID:            "run-1",
		ContaContabil: "1.1.2.01.001",
		DataBase:      "2025-06-30",
		Report: &models.ReconciliationReport{
			Resumo: models.Summary{
				TotalOrigem:  decimal.NewFromFloat(2734.56),
				TotalDestino: decimal.NewFromFloat(2034.56),
				Diferenca:    decimal.NewFromFloat(700.00),
				Situacao:     models.SituacaoDivergente,
			},
			DiferencasOrigemMaior: []models.FinancialGreaterRecord{
				{
					Identificador: "C00070002",
					Cliente:       "CLIENTE SEM CONTRAPARTIDA",
					ValorOrigem:   decimal.NewFromFloat(1500.00),
					ValorContabil: decimal.Zero,
					Diferenca:     decimal.NewFromFloat(1500.00),
					Prazo:         "Curto",
				},
			},
			DiferencasContabilidadeMaior: []models.AccountingGreaterRecord{
				{
					Identificador: "C00099901",
					Valor:         decimal.NewFromFloat(-800.00),
					ContaContabil: "1.1.2.01.001",
					Historico:     "Valor maior na Contabilidade",
				},
			},
		},
	}
}

func TestBuildReportXLSX(t *testing.T) {
	data, err := BuildReportXLSX(testRecord())
	if err != nil {
		t.Fatalf("BuildReportXLSX returned error: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a valid workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 3 {
		t.Fatalf("expected 3 sheets, got %v", sheets)
	}

	situacao, err := f.GetCellValue("resumo", "B5")
	if err != nil {
		t.Fatal(err)
	}
	if situacao != models.SituacaoDivergente {
		t.Errorf("expected situacao %s, got %q", models.SituacaoDivergente, situacao)
	}

	id, err := f.GetCellValue("origem_maior", "A2")
	if err != nil {
		t.Fatal(err)
	}
	if id != "C00070002" {
		t.Errorf("expected identifier C00070002, got %q", id)
	}

	hist, err := f.GetCellValue("contabilidade_maior", "D2")
	if err != nil {
		t.Fatal(err)
	}
	if hist != "Valor maior na Contabilidade" {
		t.Errorf("unexpected history %q", hist)
	}
}

func TestBuildReportXLSX_MissingReport(t *testing.T) {
	if _, err := BuildReportXLSX(&models.StoredReconciliation{ID: "x"}); err == nil {
		t.Error("expected error for record without report")
	}
}
