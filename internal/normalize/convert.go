package normalize

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// debitCreditSuffix matches the trailing debit/credit marker some balance
// exports append, e.g. "500,00 D".
var debitCreditSuffix = regexp.MustCompile(`\s*[DC]$`)

// dateLayouts are tried in order when parsing due dates.
var dateLayouts = []string{
	"02/01/2006",
	"2006-01-02",
	"02-01-2006",
	"02/01/2006 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// isMissing reports whether a raw cell value counts as absent: nil, or a
// blank string. Spreadsheet readers surface empty cells as "".
func isMissing(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// parseAmount converts a raw cell into a decimal amount. Localized strings
// use "." as thousands separator and "," as decimal separator; values that
// are already numeric pass through. The second return is false when the
// value could not be parsed, in which case the caller falls back to zero.
func parseAmount(v any) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case nil:
		return decimal.Zero, false
	case float64:
		return decimal.NewFromFloat(t), true
	case float32:
		return decimal.NewFromFloat32(t), true
	case int:
		return decimal.NewFromInt(int64(t)), true
	case int64:
		return decimal.NewFromInt(t), true
	case decimal.Decimal:
		return t, true
	case string:
		return parseLocalizedAmount(t)
	default:
		return parseLocalizedAmount(fmt.Sprintf("%v", v))
	}
}

func parseLocalizedAmount(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	s = debitCreditSuffix.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// parseDate converts a raw cell into a date. The second return is false when
// the value is missing or unparsable.
func parseDate(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

// padLeft left-pads s with zeros to the given width. Longer values are kept
// as they are.
func padLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

// rawString renders a raw cell for diagnostics.
func rawString(v any) string {
	if v == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%v", v)
}
