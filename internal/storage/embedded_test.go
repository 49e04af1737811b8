package storage

import (
	"errors"
	"testing"

	"github.com/concilia/concilia/pkg/models"
	"github.com/shopspring/decimal"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_CompanyLifecycle(t *testing.T) {
	s := testStore(t)

	c := &models.Company{Nome: "Empresa Teste", CNPJ: "12.345.678/0001-90", Status: true}
	if err := s.CreateCompany(c); err != nil {
		t.Fatalf("CreateCompany returned error: %v", err)
	}
	if c.ID == 0 {
		t.Fatal("expected assigned ID")
	}

	got, err := s.GetCompany(c.ID)
	if err != nil {
		t.Fatalf("GetCompany returned error: %v", err)
	}
	if got.Nome != "Empresa Teste" || got.CNPJ != "12.345.678/0001-90" {
		t.Errorf("unexpected company %+v", got)
	}

	got.Nome = "Empresa Renomeada"
	if err := s.UpdateCompany(got); err != nil {
		t.Fatalf("UpdateCompany returned error: %v", err)
	}
	updated, err := s.GetCompany(c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Nome != "Empresa Renomeada" {
		t.Errorf("expected renamed company, got %q", updated.Nome)
	}

	list, err := s.ListCompanies()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Errorf("expected 1 company, got %d", len(list))
	}

	if err := s.DeleteCompany(c.ID); err != nil {
		t.Fatalf("DeleteCompany returned error: %v", err)
	}
	if _, err := s.GetCompany(c.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestStore_DuplicateCNPJ(t *testing.T) {
	s := testStore(t)

	first := &models.Company{Nome: "Primeira", CNPJ: "11.111.111/0001-11"}
	if err := s.CreateCompany(first); err != nil {
		t.Fatal(err)
	}
	second := &models.Company{Nome: "Segunda", CNPJ: "11.111.111/0001-11"}
	if err := s.CreateCompany(second); !errors.Is(err, ErrDuplicateCNPJ) {
		t.Errorf("expected ErrDuplicateCNPJ, got %v", err)
	}
}

func TestStore_UpdateMissingCompany(t *testing.T) {
	s := testStore(t)

	err := s.UpdateCompany(&models.Company{ID: 999, Nome: "Fantasma"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_ChartOfAccounts(t *testing.T) {
	s := testStore(t)

	c := &models.Company{Nome: "Empresa", CNPJ: "22.222.222/0001-22"}
	if err := s.CreateCompany(c); err != nil {
		t.Fatal(err)
	}

	a := &models.LedgerAccount{
		EmpresaID:     c.ID,
		ContaContabil: "1.1.2.01.001",
		Descricao:     "Clientes",
		Tipo:          "Analítica",
		Conciliavel:   true,
	}
	if err := s.UpsertAccount(a); err != nil {
		t.Fatalf("UpsertAccount returned error: %v", err)
	}
	if a.ID == 0 {
		t.Fatal("expected assigned account ID")
	}
	firstID := a.ID

	// An unrelated insert in between must not leak its rowid into the upsert.
	other := &models.Company{Nome: "Outra", CNPJ: "33.333.333/0001-33"}
	if err := s.CreateCompany(other); err != nil {
		t.Fatal(err)
	}

	// Same account upserts in place and keeps its ID.
	a.Descricao = "Clientes Nacionais"
	if err := s.UpsertAccount(a); err != nil {
		t.Fatal(err)
	}
	if a.ID != firstID {
		t.Errorf("expected stable ID %d across upserts, got %d", firstID, a.ID)
	}

	accounts, err := s.ListAccounts(c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(accounts) != 1 {
		t.Fatalf("expected 1 account, got %d", len(accounts))
	}
	if accounts[0].Descricao != "Clientes Nacionais" {
		t.Errorf("expected updated description, got %q", accounts[0].Descricao)
	}
	if accounts[0].ID != firstID {
		t.Errorf("expected listed ID %d, got %d", firstID, accounts[0].ID)
	}
}

func TestStore_RejectsUnknownAccountType(t *testing.T) {
	s := testStore(t)

	err := s.UpsertAccount(&models.LedgerAccount{
		EmpresaID:     1,
		ContaContabil: "1.1",
		Tipo:          "Invalida",
	})
	if err == nil {
		t.Error("expected error for unknown account type")
	}
}

func TestStore_ReconciliationLifecycle(t *testing.T) {
	s := testStore(t)

	report := &models.ReconciliationReport{
		Resumo: models.Summary{
			TotalOrigem:  decimal.NewFromFloat(100.50),
			TotalDestino: decimal.NewFromFloat(100.50),
			Situacao:     models.SituacaoConciliado,
		},
		DiferencasOrigemMaior:        []models.FinancialGreaterRecord{},
		DiferencasContabilidadeMaior: []models.AccountingGreaterRecord{},
	}
	rec := &models.StoredReconciliation{
		ID:            "run-1",
		EmpresaID:     1,
		ContaContabil: "1.1.2.01.001",
		DataBase:      "2025-06-30",
		Situacao:      models.SituacaoConciliado,
		Report:        report,
	}

	if err := s.SaveReconciliation(rec); err != nil {
		t.Fatalf("SaveReconciliation returned error: %v", err)
	}

	got, err := s.GetReconciliation("run-1")
	if err != nil {
		t.Fatalf("GetReconciliation returned error: %v", err)
	}
	if got.Report == nil {
		t.Fatal("expected stored report")
	}
	if !got.Report.Resumo.TotalOrigem.Equal(decimal.NewFromFloat(100.50)) {
		t.Errorf("report did not round-trip: %s", got.Report.Resumo.TotalOrigem)
	}
	if got.Finalized {
		t.Error("new run should not be finalized")
	}

	if err := s.FinalizeReconciliation("run-1"); err != nil {
		t.Fatalf("FinalizeReconciliation returned error: %v", err)
	}
	got, err = s.GetReconciliation("run-1")
	if err != nil {
		t.Fatal(err)
	}
	if !got.Finalized {
		t.Error("expected finalized run")
	}
}

func TestStore_ListReconciliationsFilters(t *testing.T) {
	s := testStore(t)

	for i, empresa := range []int64{1, 1, 2} {
		rec := &models.StoredReconciliation{
			ID:            "run-" + string(rune('a'+i)),
			EmpresaID:     empresa,
			ContaContabil: "1.1",
			DataBase:      "2025-06-30",
			Situacao:      models.SituacaoConciliado,
			Report:        &models.ReconciliationReport{},
		}
		if err := s.SaveReconciliation(rec); err != nil {
			t.Fatal(err)
		}
	}

	all, err := s.ListReconciliations(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 runs, got %d", len(all))
	}

	filtered, err := s.ListReconciliations(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(filtered) != 2 {
		t.Errorf("expected 2 runs for empresa 1, got %d", len(filtered))
	}
}

func TestStore_GetMissingReconciliation(t *testing.T) {
	s := testStore(t)

	if _, err := s.GetReconciliation("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := s.FinalizeReconciliation("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
