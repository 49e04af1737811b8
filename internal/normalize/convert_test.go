package normalize

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount_LocalizedStrings(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1.234,56", 1234.56},
		{"1234,56", 1234.56},
		{"0,01", 0.01},
		{"-1.000,00", -1000.00},
		{"500,00 D", 500.00},
		{"250,00 C", 250.00},
		{"1.000.000,99", 1000000.99},
	}

	for _, tt := range tests {
		got, ok := parseAmount(tt.in)
		if !ok {
			t.Errorf("parseAmount(%q) failed", tt.in)
			continue
		}
		if !got.Equal(decimal.NewFromFloat(tt.want)) {
			t.Errorf("parseAmount(%q): expected %v, got %s", tt.in, tt.want, got)
		}
	}
}

func TestParseAmount_NumericPassthrough(t *testing.T) {
	got, ok := parseAmount(float64(12.5))
	if !ok || !got.Equal(decimal.NewFromFloat(12.5)) {
		t.Errorf("expected 12.5, got %s (ok=%v)", got, ok)
	}

	got, ok = parseAmount(42)
	if !ok || !got.Equal(decimal.NewFromInt(42)) {
		t.Errorf("expected 42, got %s (ok=%v)", got, ok)
	}
}

func TestParseAmount_Invalid(t *testing.T) {
	for _, in := range []any{nil, "", "   ", "abc", "12,34,56"} {
		if _, ok := parseAmount(in); ok {
			t.Errorf("parseAmount(%v): expected failure", in)
		}
	}
}

func TestParseDate_Layouts(t *testing.T) {
	for _, in := range []string{"15/03/2025", "2025-03-15", "15-03-2025"} {
		d, ok := parseDate(in)
		if !ok {
			t.Errorf("parseDate(%q) failed", in)
			continue
		}
		if d.Year() != 2025 || int(d.Month()) != 3 || d.Day() != 15 {
			t.Errorf("parseDate(%q): got %v", in, d)
		}
	}
}

func TestParseDate_Invalid(t *testing.T) {
	for _, in := range []any{nil, "", "sem data", 123} {
		if _, ok := parseDate(in); ok {
			t.Errorf("parseDate(%v): expected failure", in)
		}
	}
}

func TestNormalizeHeader(t *testing.T) {
	tests := map[string]string{
		"Codigo-Lj-Nome do Cliente":      "codigo_lj_nome_do_cliente",
		"  TIT VENCIDOS VALOR CORRIGIDO": "tit_vencidos_valor_corrigido",
		"saldo_atual":                    "saldo_atual",
	}
	for in, want := range tests {
		if got := normalizeHeader(in); got != want {
			t.Errorf("normalizeHeader(%q): expected %q, got %q", in, want, got)
		}
	}
}
