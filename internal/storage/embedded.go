package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/concilia/concilia/pkg/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("storage: not found")

// ErrDuplicateCNPJ is returned when creating a company with a CNPJ that is
// already registered.
var ErrDuplicateCNPJ = errors.New("storage: cnpj already registered")

// Store is the SQLite-backed embedded store for companies, chart of accounts
// and reconciliation history.
type Store struct {
	db *sql.DB
}

// Open creates the data directory if needed and opens the embedded database
func Open(dataPath string) (*Store, error) {
	if err := os.MkdirAll(dataPath, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	dbPath := filepath.Join(dataPath, "concilia.db")
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS companies (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		nome TEXT NOT NULL,
		cnpj TEXT NOT NULL UNIQUE,
		status INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS chart_of_accounts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		empresa_id INTEGER NOT NULL REFERENCES companies(id),
		conta_contabil TEXT NOT NULL,
		descricao TEXT NOT NULL DEFAULT '',
		tipo TEXT NOT NULL,
		conciliavel INTEGER NOT NULL DEFAULT 0,
		UNIQUE(empresa_id, conta_contabil)
	);

	CREATE TABLE IF NOT EXISTS reconciliations (
		id TEXT PRIMARY KEY,
		empresa_id INTEGER NOT NULL,
		conta_contabil TEXT NOT NULL,
		data_base TEXT NOT NULL,
		situacao TEXT NOT NULL,
		finalized INTEGER NOT NULL DEFAULT 0,
		report TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_reconciliations_empresa
		ON reconciliations(empresa_id, created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Company operations

// CreateCompany registers a company. The CNPJ must be unique.
func (s *Store) CreateCompany(c *models.Company) error {
	var exists int
	err := s.db.QueryRow(`SELECT COUNT(1) FROM companies WHERE cnpj = ?`, c.CNPJ).Scan(&exists)
	if err != nil {
		return err
	}
	if exists > 0 {
		return ErrDuplicateCNPJ
	}

	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	res, err := s.db.Exec(
		`INSERT INTO companies (nome, cnpj, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		c.Nome, c.CNPJ, c.Status, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return err
	}
	c.ID, err = res.LastInsertId()
	return err
}

// ListCompanies returns all registered companies
func (s *Store) ListCompanies() ([]models.Company, error) {
	rows, err := s.db.Query(
		`SELECT id, nome, cnpj, status, created_at, updated_at FROM companies ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var companies []models.Company
	for rows.Next() {
		var c models.Company
		if err := rows.Scan(&c.ID, &c.Nome, &c.CNPJ, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

// GetCompany returns one company by ID
func (s *Store) GetCompany(id int64) (*models.Company, error) {
	var c models.Company
	err := s.db.QueryRow(
		`SELECT id, nome, cnpj, status, created_at, updated_at FROM companies WHERE id = ?`, id,
	).Scan(&c.ID, &c.Nome, &c.CNPJ, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateCompany updates a company's name and status
func (s *Store) UpdateCompany(c *models.Company) error {
	c.UpdatedAt = time.Now().UTC()
	res, err := s.db.Exec(
		`UPDATE companies SET nome = ?, status = ?, updated_at = ? WHERE id = ?`,
		c.Nome, c.Status, c.UpdatedAt, c.ID,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCompany removes a company and its chart of accounts
func (s *Store) DeleteCompany(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM chart_of_accounts WHERE empresa_id = ?`, id); err != nil {
		return err
	}
	res, err := s.db.Exec(`DELETE FROM companies WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Chart of accounts operations

// UpsertAccount inserts or replaces one chart-of-accounts entry
func (s *Store) UpsertAccount(a *models.LedgerAccount) error {
	if a.Tipo != "Analítica" && a.Tipo != "Sintética" {
		return fmt.Errorf("storage: tipo must be Analítica or Sintética, got %q", a.Tipo)
	}
	_, err := s.db.Exec(
		`INSERT INTO chart_of_accounts (empresa_id, conta_contabil, descricao, tipo, conciliavel)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(empresa_id, conta_contabil)
		 DO UPDATE SET descricao = excluded.descricao, tipo = excluded.tipo, conciliavel = excluded.conciliavel`,
		a.EmpresaID, a.ContaContabil, a.Descricao, a.Tipo, a.Conciliavel,
	)
	if err != nil {
		return err
	}
	// last_insert_rowid is stale on the update path, so look the id up.
	return s.db.QueryRow(
		`SELECT id FROM chart_of_accounts WHERE empresa_id = ? AND conta_contabil = ?`,
		a.EmpresaID, a.ContaContabil,
	).Scan(&a.ID)
}

// ListAccounts returns the chart of accounts for a company
func (s *Store) ListAccounts(empresaID int64) ([]models.LedgerAccount, error) {
	rows, err := s.db.Query(
		`SELECT id, empresa_id, conta_contabil, descricao, tipo, conciliavel
		 FROM chart_of_accounts WHERE empresa_id = ? ORDER BY conta_contabil`, empresaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []models.LedgerAccount
	for rows.Next() {
		var a models.LedgerAccount
		if err := rows.Scan(&a.ID, &a.EmpresaID, &a.ContaContabil, &a.Descricao, &a.Tipo, &a.Conciliavel); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// Reconciliation operations

// SaveReconciliation persists one finished run with its report
func (s *Store) SaveReconciliation(rec *models.StoredReconciliation) error {
	report, err := json.Marshal(rec.Report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err = s.db.Exec(
		`INSERT INTO reconciliations (id, empresa_id, conta_contabil, data_base, situacao, finalized, report, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.EmpresaID, rec.ContaContabil, rec.DataBase, rec.Situacao, rec.Finalized, string(report), rec.CreatedAt,
	)
	return err
}

// ListReconciliations returns runs, newest first, optionally filtered by
// company. Reports are omitted from listings.
func (s *Store) ListReconciliations(empresaID int64) ([]models.StoredReconciliation, error) {
	query := `SELECT id, empresa_id, conta_contabil, data_base, situacao, finalized, created_at
		 FROM reconciliations`
	args := []any{}
	if empresaID > 0 {
		query += ` WHERE empresa_id = ?`
		args = append(args, empresaID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []models.StoredReconciliation
	for rows.Next() {
		var rec models.StoredReconciliation
		if err := rows.Scan(&rec.ID, &rec.EmpresaID, &rec.ContaContabil, &rec.DataBase,
			&rec.Situacao, &rec.Finalized, &rec.CreatedAt); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// GetReconciliation returns one run with its full report
func (s *Store) GetReconciliation(id string) (*models.StoredReconciliation, error) {
	var rec models.StoredReconciliation
	var report string
	err := s.db.QueryRow(
		`SELECT id, empresa_id, conta_contabil, data_base, situacao, finalized, report, created_at
		 FROM reconciliations WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.EmpresaID, &rec.ContaContabil, &rec.DataBase,
		&rec.Situacao, &rec.Finalized, &report, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(report), &rec.Report); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}
	return &rec, nil
}

// FinalizeReconciliation marks a run as finalized
func (s *Store) FinalizeReconciliation(id string) error {
	res, err := s.db.Exec(`UPDATE reconciliations SET finalized = 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
