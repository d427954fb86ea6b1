// Package storage implements the Record Store on SQL databases. SQLite
// (modernc.org/sqlite) and PostgreSQL (pgx stdlib) share the same queries;
// placeholders are rebound for the target dialect.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"financas/internal/store"
)

// Dialect selects SQL flavour details.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// Repository owns the database handle behind a SQL Record Store.
type Repository struct {
	db      *sql.DB
	dialect Dialect
	logger  *slog.Logger
}

// sqliteDSN enables foreign keys, waits on locks and round-trips timestamps.
func sqliteDSN(dbPath string) string {
	return dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_time_format=sqlite"
}

func NewSQLiteRepository(dbPath string, logger *slog.Logger) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", sqliteDSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection serializes writers and keeps per-connection pragmas.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(SQLite, sqliteDSN(dbPath)); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return newRepository(db, SQLite, logger), nil
}

func NewPostgresRepository(ctx context.Context, databaseURL string, logger *slog.Logger) (*Repository, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}
	db.SetMaxOpenConns(10)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(Postgres, databaseURL); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return newRepository(db, Postgres, logger), nil
}

func newRepository(db *sql.DB, dialect Dialect, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{db: db, dialect: dialect, logger: logger}
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Store exposes the repository through the Record Store ports.
func (r *Repository) Store() *store.Store {
	return &store.Store{
		Households:           &households{repo: r},
		Categories:           newTable(r, categories),
		Transactions:         newTable(r, transactions),
		FixedExpenses:        newTable(r, fixedExpenses),
		FixedExpensePayments: newTable(r, fixedExpensePayments),
		FixedIncomes:         newTable(r, fixedIncomes),
		FixedIncomeReceipts:  newTable(r, fixedIncomeReceipts),
		Reserves:             newTable(r, reserves),
		ReserveTransactions:  newTable(r, reserveTransactions),
		Goals:                newTable(r, goals),
		GoalTransactions:     newTable(r, goalTransactions),
		Settlements:          newTable(r, settlements),
		Snapshots:            &snapshots{repo: r},
		Ping:                 r.Ping,
	}
}

// rebind rewrites ? placeholders into $n for PostgreSQL.
func (r *Repository) rebind(query string) string {
	if r.dialect != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

// forUpdate locks the selected row inside a transaction where supported.
func (r *Repository) forUpdate() string {
	if r.dialect == Postgres {
		return " FOR UPDATE"
	}
	return ""
}

func (r *Repository) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			r.logger.WarnContext(ctx, "Rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
