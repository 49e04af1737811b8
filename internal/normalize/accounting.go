package normalize

import (
	"sort"
	"strings"

	"github.com/concilia/concilia/internal/config"
	"github.com/concilia/concilia/pkg/models"
	"github.com/shopspring/decimal"
)

// AccountingNormalizer converts the general-ledger balance export into one
// aggregated row per account code.
type AccountingNormalizer struct {
	columns config.AccountingColumns
}

// NewAccountingNormalizer creates an accounting normalizer
func NewAccountingNormalizer(columns config.AccountingColumns) *AccountingNormalizer {
	return &AccountingNormalizer{columns: columns}
}

type accountingGroup struct {
	label  string
	amount decimal.Decimal
}

// Normalize derives the canonical entity table from raw accounting rows.
// The balance value may carry a trailing debit/credit marker, stripped before
// parsing. Rows without a code are dropped; unparsable balances fall back to
// zero with a diagnostic. Aggregation is by code alone so the table lines up
// with the diff engine's join key; the label keeps the first observed value.
func (n *AccountingNormalizer) Normalize(rows []models.RawRecord) (*Result, error) {
	index := headerIndex(rows)

	codeCol, err := resolveColumnByPrefix(index, "code", n.columns.CodePrefix)
	if err != nil {
		return nil, err
	}
	balanceCol, err := resolveColumn(index, "balance", n.columns.Balance)
	if err != nil {
		return nil, err
	}
	// The description column is optional.
	descCol, descErr := resolveColumnByPrefix(index, "description", n.columns.DescriptionPrefix)

	result := &Result{}
	groups := make(map[string]*accountingGroup)
	var order []string

	for i, row := range rows {
		if isMissing(row[codeCol]) {
			result.DroppedRows++
			continue
		}
		code := strings.TrimSpace(rawString(row[codeCol]))

		var label string
		if descErr == nil && !isMissing(row[descCol]) {
			label = strings.TrimSpace(rawString(row[descCol]))
		}

		amount, ok := parseAmount(row[balanceCol])
		if !ok {
			amount = decimal.Zero
			result.Diagnostics = append(result.Diagnostics, models.Diagnostic{
				Stage:  "accounting",
				Row:    i,
				Field:  balanceCol,
				Value:  rawString(row[balanceCol]),
				Reason: "balance unparsable, defaulted to zero",
			})
		}

		group, exists := groups[code]
		if !exists {
			group = &accountingGroup{label: label}
			groups[code] = group
			order = append(order, code)
		}
		group.amount = group.amount.Add(amount)
	}

	sort.Strings(order)
	result.Records = make([]models.EntityRecord, 0, len(order))
	for _, code := range order {
		group := groups[code]
		result.Records = append(result.Records, models.EntityRecord{
			Code:   code,
			Label:  group.label,
			Amount: group.amount,
		})
	}

	return result, nil
}
