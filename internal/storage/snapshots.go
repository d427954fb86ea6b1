package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"financas/internal/core"
	"financas/internal/store"
)

// snapshots stores summaries as JSON documents keyed by household and month.
type snapshots struct {
	repo *Repository
}

func (s *snapshots) Save(ctx context.Context, snap store.MonthSnapshot) error {
	body, err := json.Marshal(snap.Summary)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	computed := snap.ComputedAt
	if computed.IsZero() {
		computed = time.Now()
	}
	_, err = s.repo.db.ExecContext(ctx, s.repo.rebind(`
		INSERT INTO month_snapshots (household_id, period, summary, computed_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (household_id, period) DO UPDATE SET
			summary = excluded.summary,
			computed_at = excluded.computed_at`),
		snap.HouseholdID, snap.Period, string(body), computed.UTC().Truncate(time.Microsecond))
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", snap.Period, err)
	}
	return nil
}

func (s *snapshots) Get(ctx context.Context, householdID uuid.UUID, p core.Period) (store.MonthSnapshot, error) {
	row := s.repo.db.QueryRowContext(ctx, s.repo.rebind(`
		SELECT household_id, period, summary, computed_at
		FROM month_snapshots WHERE household_id = ? AND period = ?`), householdID, p)
	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return snap, fmt.Errorf("snapshot %s: %w", p, store.ErrNotFound)
	}
	if err != nil {
		return snap, fmt.Errorf("get snapshot %s: %w", p, err)
	}
	return snap, nil
}

func (s *snapshots) List(ctx context.Context, householdID uuid.UUID, from, to core.Period) ([]store.MonthSnapshot, error) {
	rows, err := s.repo.db.QueryContext(ctx, s.repo.rebind(`
		SELECT household_id, period, summary, computed_at
		FROM month_snapshots
		WHERE household_id = ? AND period >= ? AND period <= ?
		ORDER BY period`), householdID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []store.MonthSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

func scanSnapshot(row interface{ Scan(...any) error }) (store.MonthSnapshot, error) {
	var (
		snap store.MonthSnapshot
		body string
	)
	if err := row.Scan(&snap.HouseholdID, &snap.Period, &body, &snap.ComputedAt); err != nil {
		return snap, err
	}
	if err := json.Unmarshal([]byte(body), &snap.Summary); err != nil {
		return snap, fmt.Errorf("decode snapshot: %w", err)
	}
	snap.ComputedAt = snap.ComputedAt.UTC()
	return snap, nil
}
