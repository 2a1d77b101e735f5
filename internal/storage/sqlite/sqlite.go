// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	msqlite "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/hisaabdost/backend/internal/models"
	"github.com/hisaabdost/backend/internal/scope"
	"github.com/hisaabdost/backend/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB

	expenses *recordStore[models.Expense]
	budgets  *recordStore[models.Budget]
	income   *recordStore[models.Income]
	goals    *recordStore[models.Goal]
	loans    *recordStore[models.Loan]
	wallet   *recordStore[models.WalletEntry]
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Pragmas go in the DSN so that every pooled connection gets them.
	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{
		db:       db,
		expenses: &recordStore[models.Expense]{db: db, t: expensesTable},
		budgets:  &recordStore[models.Budget]{db: db, t: budgetsTable},
		income:   &recordStore[models.Income]{db: db, t: incomeTable},
		goals:    &recordStore[models.Goal]{db: db, t: goalsTable},
		loans:    &recordStore[models.Loan]{db: db, t: loansTable},
		wallet:   &recordStore[models.WalletEntry]{db: db, t: walletTable},
	}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Expenses() storage.RecordStore[models.Expense]  { return s.expenses }
func (s *SQLiteStore) Budgets() storage.RecordStore[models.Budget]    { return s.budgets }
func (s *SQLiteStore) Income() storage.RecordStore[models.Income]     { return s.income }
func (s *SQLiteStore) Goals() storage.RecordStore[models.Goal]        { return s.goals }
func (s *SQLiteStore) Loans() storage.RecordStore[models.Loan]        { return s.loans }
func (s *SQLiteStore) Wallet() storage.RecordStore[models.WalletEntry] { return s.wallet }

// wrap adds context to a driver error and marks busy/locked errors as transient.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var serr *msqlite.Error
	if errors.As(err, &serr) {
		switch serr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return fmt.Errorf("failed to %s: %w: %w", op, scope.ErrTransient, err)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("failed to %s: %w: %w", op, scope.ErrTransient, err)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

// nullable maps "" to NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
