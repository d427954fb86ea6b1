package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"financas/internal/core"
	"financas/internal/store"
)

// tableSpec maps an entity onto a table. fields returns pointers to the
// mapped fields in column order; they serve as scan targets and as query
// arguments alike. The identity columns are handled by table.
type tableSpec[T any] struct {
	name    string
	kind    string
	columns []string
	fields  func(*T) []any
}

var baseColumns = []string{"id", "household_id", "created_at", "updated_at"}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// table is a generic SQL Collection.
type table[T any, P core.Entity[T]] struct {
	repo      *Repository
	spec      tableSpec[T]
	selectSQL string
	insertSQL string
	updateSQL string
	now       func() time.Time
}

func newTable[T any, P core.Entity[T]](repo *Repository, spec tableSpec[T]) *table[T, P] {
	all := append(append([]string{}, baseColumns...), spec.columns...)
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(all)), ", ")
	sets := make([]string, 0, len(spec.columns)+1)
	sets = append(sets, "updated_at = ?")
	for _, c := range spec.columns {
		sets = append(sets, c+" = ?")
	}
	return &table[T, P]{
		repo:      repo,
		spec:      spec,
		selectSQL: fmt.Sprintf("SELECT %s FROM %s", strings.Join(all, ", "), spec.name),
		insertSQL: fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", spec.name, strings.Join(all, ", "), placeholders),
		updateSQL: fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", spec.name, strings.Join(sets, ", ")),
		now:       func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

func (t *table[T, P]) targets(rec *T) []any {
	m := P(rec).Meta()
	return append([]any{&m.ID, &m.HouseholdID, &m.CreatedAt, &m.UpdatedAt}, t.spec.fields(rec)...)
}

func (t *table[T, P]) scan(row interface{ Scan(...any) error }) (T, error) {
	var rec T
	if err := row.Scan(t.targets(&rec)...); err != nil {
		return rec, err
	}
	m := P(&rec).Meta()
	m.CreatedAt, m.UpdatedAt = m.CreatedAt.UTC(), m.UpdatedAt.UTC()
	return rec, nil
}

func (t *table[T, P]) FetchAll(ctx context.Context, householdID uuid.UUID) ([]T, error) {
	q := t.repo.rebind(t.selectSQL + " WHERE household_id = ? ORDER BY created_at, id")
	rows, err := t.repo.db.QueryContext(ctx, q, householdID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", t.spec.name, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		rec, err := t.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", t.spec.kind, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", t.spec.name, err)
	}
	return out, nil
}

func (t *table[T, P]) Get(ctx context.Context, id uuid.UUID) (T, error) {
	return t.get(ctx, t.repo.db, id, "")
}

func (t *table[T, P]) get(ctx context.Context, q queryer, id uuid.UUID, suffix string) (T, error) {
	rec, err := t.scan(q.QueryRowContext(ctx, t.repo.rebind(t.selectSQL+" WHERE id = ?"+suffix), id))
	if errors.Is(err, sql.ErrNoRows) {
		return rec, fmt.Errorf("%s %s: %w", t.spec.kind, id, store.ErrNotFound)
	}
	if err != nil {
		return rec, fmt.Errorf("get %s %s: %w", t.spec.kind, id, err)
	}
	return rec, nil
}

func (t *table[T, P]) Create(ctx context.Context, rec T) (T, error) {
	m := P(&rec).Meta()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	now := t.now()
	m.CreatedAt, m.UpdatedAt = now, now

	err := t.repo.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, t.repo.rebind("SELECT 1 FROM "+t.spec.name+" WHERE id = ?"), m.ID).Scan(&exists)
		switch {
		case err == nil:
			return fmt.Errorf("%s %s: %w", t.spec.kind, m.ID, store.ErrConflict)
		case !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("check %s %s: %w", t.spec.kind, m.ID, err)
		}
		if _, err := tx.ExecContext(ctx, t.repo.rebind(t.insertSQL), t.targets(&rec)...); err != nil {
			return fmt.Errorf("insert %s: %w", t.spec.kind, err)
		}
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return rec, nil
}

func (t *table[T, P]) Update(ctx context.Context, id uuid.UUID, mutate func(*T) error) (T, error) {
	var out T
	err := t.repo.withTx(ctx, func(tx *sql.Tx) error {
		current, err := t.get(ctx, tx, id, t.repo.forUpdate())
		if err != nil {
			return err
		}
		next := current
		if err := mutate(&next); err != nil {
			return err
		}
		meta := *P(&current).Meta()
		meta.UpdatedAt = t.now()
		*P(&next).Meta() = meta

		args := append([]any{meta.UpdatedAt}, t.spec.fields(&next)...)
		args = append(args, id)
		if _, err := tx.ExecContext(ctx, t.repo.rebind(t.updateSQL), args...); err != nil {
			return fmt.Errorf("update %s %s: %w", t.spec.kind, id, err)
		}
		out = next
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

func (t *table[T, P]) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := t.repo.db.ExecContext(ctx, t.repo.rebind("DELETE FROM "+t.spec.name+" WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", t.spec.kind, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", t.spec.kind, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", t.spec.kind, id, store.ErrNotFound)
	}
	return nil
}
