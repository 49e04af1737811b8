package ingest

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/concilia/concilia/pkg/models"
)

// ReadWorkbook converts the first sheet of an xlsx workbook into raw records
// keyed by the header row. Cells come back as strings, which is what the
// normalizers expect from spreadsheet input; blank cells stay absent so the
// missing-value rules apply.
func ReadWorkbook(r io.Reader) ([]models.RawRecord, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheets[0])
	}

	headers := rows[0]
	records := make([]models.RawRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		record := make(models.RawRecord, len(headers))
		for i, header := range headers {
			if strings.TrimSpace(header) == "" {
				continue
			}
			if i < len(row) && strings.TrimSpace(row[i]) != "" {
				record[header] = row[i]
			}
		}
		records = append(records, record)
	}

	return records, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
