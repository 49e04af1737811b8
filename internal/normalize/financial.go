package normalize

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/concilia/concilia/internal/config"
	"github.com/concilia/concilia/pkg/models"
	"github.com/shopspring/decimal"
)

// Result is the output of one normalization pass: the canonical table plus
// the conversion fallbacks encountered while building it.
type Result struct {
	Records     []models.EntityRecord
	Diagnostics []models.Diagnostic
	DroppedRows int
}

// FinancialNormalizer converts the accounts-receivable export into one
// aggregated row per canonical code.
type FinancialNormalizer struct {
	columns         config.FinancialColumns
	longTermAgeDays int
}

// NewFinancialNormalizer creates a financial normalizer
func NewFinancialNormalizer(columns config.FinancialColumns, longTermAgeDays int) *FinancialNormalizer {
	return &FinancialNormalizer{
		columns:         columns,
		longTermAgeDays: longTermAgeDays,
	}
}

type financialGroup struct {
	label   string
	amount  decimal.Decimal
	ageDays *int
}

// Normalize derives the canonical entity table from raw financial rows.
// asOf is the reference instant for the age-in-days computation; threading
// it explicitly keeps the pass reproducible.
//
// Rows whose amount cell is absent are dropped. Amounts that are present but
// unparsable fall back to zero with a diagnostic; unparsable due dates yield
// a null age. Duplicate codes aggregate: first label, summed amount, maximum
// age.
func (n *FinancialNormalizer) Normalize(rows []models.RawRecord, asOf time.Time) (*Result, error) {
	index := headerIndex(rows)

	identityCol, err := resolveColumn(index, "identity", n.columns.Identity)
	if err != nil {
		return nil, err
	}
	amountCol, err := resolveColumn(index, "amount", n.columns.Amount)
	if err != nil {
		return nil, err
	}
	dueDateCol, err := resolveColumn(index, "due_date", n.columns.DueDate)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	groups := make(map[string]*financialGroup)
	var order []string

	for i, row := range rows {
		rawAmount := row[amountCol]
		if isMissing(rawAmount) {
			result.DroppedRows++
			result.Diagnostics = append(result.Diagnostics, models.Diagnostic{
				Stage:  "financial",
				Row:    i,
				Field:  amountCol,
				Value:  rawString(rawAmount),
				Reason: "amount missing, row dropped",
			})
			continue
		}

		identity := ""
		if !isMissing(row[identityCol]) {
			identity = rawString(row[identityCol])
		}
		code, label := splitIdentity(identity)

		amount, ok := parseAmount(rawAmount)
		if !ok {
			amount = decimal.Zero
			result.Diagnostics = append(result.Diagnostics, models.Diagnostic{
				Stage:  "financial",
				Row:    i,
				Field:  amountCol,
				Value:  rawString(rawAmount),
				Reason: "amount unparsable, defaulted to zero",
			})
		}

		var ageDays *int
		if due, ok := parseDate(row[dueDateCol]); ok {
			// Floor, not truncate: a due date later today is already -1 days old.
			days := int(math.Floor(asOf.Sub(due).Hours() / 24))
			ageDays = &days
		} else if !isMissing(row[dueDateCol]) {
			result.Diagnostics = append(result.Diagnostics, models.Diagnostic{
				Stage:  "financial",
				Row:    i,
				Field:  dueDateCol,
				Value:  rawString(row[dueDateCol]),
				Reason: "due date unparsable, age left null",
			})
		}

		group, ok := groups[code]
		if !ok {
			group = &financialGroup{label: label}
			groups[code] = group
			order = append(order, code)
		}
		group.amount = group.amount.Add(amount)
		if ageDays != nil && (group.ageDays == nil || *ageDays > *group.ageDays) {
			group.ageDays = ageDays
		}
	}

	sort.Strings(order)
	result.Records = make([]models.EntityRecord, 0, len(order))
	for _, code := range order {
		group := groups[code]
		term := models.TermShort
		if group.ageDays != nil && *group.ageDays > n.longTermAgeDays {
			term = models.TermLong
		}
		result.Records = append(result.Records, models.EntityRecord{
			Code:    code,
			Label:   group.label,
			Amount:  group.amount,
			AgeDays: group.ageDays,
			Term:    term,
		})
	}

	return result, nil
}

// splitIdentity decomposes "000672-01-A A DANTAS RIBEIRO" into the canonical
// code and the entity name. The base code pads to six digits and the branch
// to two; the body is always exactly eight characters, so overlong inputs
// truncate before the "C" prefix is applied.
func splitIdentity(identity string) (code, label string) {
	parts := strings.SplitN(identity, "-", 3)
	base := strings.TrimSpace(parts[0])
	branch := ""
	if len(parts) > 1 {
		branch = strings.TrimSpace(parts[1])
	}
	if len(parts) > 2 {
		label = strings.TrimSpace(parts[2])
	}
	body := padLeft(base, 6) + padLeft(branch, 2)
	if len(body) > 8 {
		body = body[:8]
	}
	return "C" + body, label
}
