package normalize

import (
	"fmt"
	"sort"
	"strings"

	"github.com/concilia/concilia/pkg/models"
)

// SchemaError reports that a required column could not be resolved in an
// export. It is fatal to the normalizer call that raised it.
type SchemaError struct {
	Field string
	Tried []string
	Found []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("column for %q not found: tried %v, headers present %v", e.Field, e.Tried, e.Found)
}

// normalizeHeader collapses the spelling variants of a column header: case,
// surrounding whitespace, spaces and dashes all fold to one form.
func normalizeHeader(h string) string {
	s := strings.ToLower(strings.TrimSpace(h))
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	return s
}

// headerIndex maps normalized header names to the original keys present in
// the rows. Rows may be ragged, so the union of all keys is indexed; the
// first spelling observed for a normalized name wins.
func headerIndex(rows []models.RawRecord) map[string]string {
	index := make(map[string]string)
	for _, row := range rows {
		for key := range row {
			norm := normalizeHeader(key)
			if _, ok := index[norm]; !ok {
				index[norm] = key
			}
		}
	}
	return index
}

// resolveColumn returns the original key of the first alias present in the
// index, or a SchemaError naming the field that could not be resolved.
func resolveColumn(index map[string]string, field string, aliases []string) (string, error) {
	for _, alias := range aliases {
		if key, ok := index[normalizeHeader(alias)]; ok {
			return key, nil
		}
	}
	return "", &SchemaError{Field: field, Tried: aliases, Found: sortedKeys(index)}
}

// resolveColumnByPrefix returns the original key of the lexically first
// normalized header carrying the prefix. Deterministic tie-breaking matters
// here: exports often have both "codigo" and "codigo_1" style duplicates.
func resolveColumnByPrefix(index map[string]string, field, prefix string) (string, error) {
	norm := normalizeHeader(prefix)
	var matches []string
	for name := range index {
		if strings.HasPrefix(name, norm) {
			matches = append(matches, name)
		}
	}
	if len(matches) == 0 {
		return "", &SchemaError{Field: field, Tried: []string{prefix + "*"}, Found: sortedKeys(index)}
	}
	sort.Strings(matches)
	return index[matches[0]], nil
}

func sortedKeys(index map[string]string) []string {
	keys := make([]string, 0, len(index))
	for k := range index {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
