package reporting

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/concilia/concilia/pkg/models"
)

const currencyFormat = `R$ #,##0.00;[RED]-R$ #,##0.00`

// BuildReportXLSX renders a stored reconciliation as an xlsx workbook: a
// summary sheet plus one sheet per difference bucket, with the amount
// columns in Brazilian currency format.
func BuildReportXLSX(rec *models.StoredReconciliation) ([]byte, error) {
	if rec.Report == nil {
		return nil, fmt.Errorf("reconciliation %s has no report", rec.ID)
	}
	report := rec.Report

	f := excelize.NewFile()
	defer f.Close()

	summarySheet := "resumo"
	origemSheet := "origem_maior"
	contabilSheet := "contabilidade_maior"
	f.SetSheetName("Sheet1", summarySheet)
	if _, err := f.NewSheet(origemSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(contabilSheet); err != nil {
		return nil, err
	}

	currency, err := f.NewStyle(&excelize.Style{CustomNumFmt: ptr(currencyFormat)})
	if err != nil {
		return nil, err
	}

	// Summary
	_ = f.SetCellValue(summarySheet, "A1", "Conciliação")
	_ = f.SetCellValue(summarySheet, "A3", "Conta contábil")
	_ = f.SetCellValue(summarySheet, "B3", rec.ContaContabil)
	_ = f.SetCellValue(summarySheet, "A4", "Data base")
	_ = f.SetCellValue(summarySheet, "B4", rec.DataBase)
	_ = f.SetCellValue(summarySheet, "A5", "Situação")
	_ = f.SetCellValue(summarySheet, "B5", report.Resumo.Situacao)
	_ = f.SetCellValue(summarySheet, "A6", "Total origem")
	_ = f.SetCellValue(summarySheet, "B6", report.Resumo.TotalOrigem.InexactFloat64())
	_ = f.SetCellValue(summarySheet, "A7", "Total destino")
	_ = f.SetCellValue(summarySheet, "B7", report.Resumo.TotalDestino.InexactFloat64())
	_ = f.SetCellValue(summarySheet, "A8", "Diferença")
	_ = f.SetCellValue(summarySheet, "B8", report.Resumo.Diferenca.InexactFloat64())
	_ = f.SetCellValue(summarySheet, "A9", "Divergência (%)")
	_ = f.SetCellValue(summarySheet, "B9", report.Resumo.PercentualDivergencia.InexactFloat64())
	_ = f.SetCellValue(summarySheet, "A10", "Processado em")
	_ = f.SetCellValue(summarySheet, "B10", report.Resumo.DataProcessamento)
	_ = f.SetCellStyle(summarySheet, "B6", "B8", currency)
	_ = f.SetColWidth(summarySheet, "A", "A", 18)
	_ = f.SetColWidth(summarySheet, "B", "B", 25)

	// Financial-greater bucket
	headers := []string{"identificador", "cliente", "valor_origem", "valor_contabil", "diferenca", "prazo"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(origemSheet, cell, h)
	}
	for i, row := range report.DiferencasOrigemMaior {
		_ = f.SetCellValue(origemSheet, cellAt(1, i+2), row.Identificador)
		_ = f.SetCellValue(origemSheet, cellAt(2, i+2), row.Cliente)
		_ = f.SetCellValue(origemSheet, cellAt(3, i+2), row.ValorOrigem.InexactFloat64())
		_ = f.SetCellValue(origemSheet, cellAt(4, i+2), row.ValorContabil.InexactFloat64())
		_ = f.SetCellValue(origemSheet, cellAt(5, i+2), row.Diferenca.InexactFloat64())
		_ = f.SetCellValue(origemSheet, cellAt(6, i+2), row.Prazo)
	}
	if n := len(report.DiferencasOrigemMaior); n > 0 {
		_ = f.SetCellStyle(origemSheet, "C2", cellAt(5, n+1), currency)
	}
	_ = f.SetColWidth(origemSheet, "A", "A", 12)
	_ = f.SetColWidth(origemSheet, "B", "B", 25)
	_ = f.SetColWidth(origemSheet, "C", "E", 18)

	// Accounting-greater bucket
	headers = []string{"identificador", "valor", "conta_contabil", "historico"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(contabilSheet, cell, h)
	}
	for i, row := range report.DiferencasContabilidadeMaior {
		_ = f.SetCellValue(contabilSheet, cellAt(1, i+2), row.Identificador)
		_ = f.SetCellValue(contabilSheet, cellAt(2, i+2), row.Valor.InexactFloat64())
		_ = f.SetCellValue(contabilSheet, cellAt(3, i+2), row.ContaContabil)
		_ = f.SetCellValue(contabilSheet, cellAt(4, i+2), row.Historico)
	}
	if n := len(report.DiferencasContabilidadeMaior); n > 0 {
		_ = f.SetCellStyle(contabilSheet, "B2", cellAt(2, n+1), currency)
	}
	_ = f.SetColWidth(contabilSheet, "A", "A", 12)
	_ = f.SetColWidth(contabilSheet, "B", "B", 18)
	_ = f.SetColWidth(contabilSheet, "C", "D", 25)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func cellAt(col, row int) string {
	cell, _ := excelize.CoordinatesToCellName(col, row)
	return cell
}

func ptr(s string) *string {
	return &s
}
