package reconciliation

import (
	"fmt"

	"github.com/concilia/concilia/pkg/models"
)

// TermClassifier decides the short/long term label of a mapped row from its
// code. The rule is a policy, not business-validated logic, so callers can
// replace it.
type TermClassifier func(code string) string

// CodeLengthClassifier is the default term policy: codes shorter than
// shortLen classify as "Curto", everything else as "Longo".
func CodeLengthClassifier(shortLen int) TermClassifier {
	return func(code string) string {
		if code == "" {
			return "Não Classificado"
		}
		if len(code) < shortLen {
			return "Curto"
		}
		return "Longo"
	}
}

// Mapper converts reconciliation rows into the report's external record
// shapes. Monetary values round to two places here, at the report boundary.
type Mapper struct {
	classify TermClassifier
}

// NewMapper creates a mapper with the given term policy
func NewMapper(classify TermClassifier) *Mapper {
	return &Mapper{classify: classify}
}

// FinancialGreater maps one row of the financial-greater bucket.
func (m *Mapper) FinancialGreater(row models.ReconciliationRow) (models.FinancialGreaterRecord, error) {
	if row.Code == "" {
		return models.FinancialGreaterRecord{}, fmt.Errorf("map financial-greater row: empty code")
	}
	return models.FinancialGreaterRecord{
		Identificador: row.Code,
		Cliente:       row.Label,
		ValorOrigem:   row.FinancialAmount.Round(2),
		ValorContabil: row.AccountingAmount.Round(2),
		Diferenca:     row.Difference.Round(2),
		Prazo:         m.classify(row.Code),
		TipoDiferenca: string(row.Classification),
	}, nil
}

// AccountingGreater maps one row of the accounting-greater bucket. The ledger
// account code comes from the request, not from the row.
func (m *Mapper) AccountingGreater(row models.ReconciliationRow, contaContabil string) (models.AccountingGreaterRecord, error) {
	if row.Code == "" {
		return models.AccountingGreaterRecord{}, fmt.Errorf("map accounting-greater row: empty code")
	}
	return models.AccountingGreaterRecord{
		Identificador: row.Code,
		Valor:         row.Difference.Round(2),
		ContaContabil: contaContabil,
		Historico:     "Valor maior na Contabilidade",
	}, nil
}
