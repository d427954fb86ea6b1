package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"financas/internal/core"
	"financas/internal/store"
)

type households struct {
	repo *Repository
}

func (h *households) Get(ctx context.Context, id uuid.UUID) (core.Household, error) {
	var v core.Household
	err := h.repo.db.QueryRowContext(ctx, h.repo.rebind(`
		SELECT id, person_a_id, person_b_id, person_a_name, person_b_name, currency, closing_day
		FROM households WHERE id = ?`), id).
		Scan(&v.ID, &v.PersonAID, &v.PersonBID, &v.PersonAName, &v.PersonBName, &v.Currency, &v.ClosingDay)
	if errors.Is(err, sql.ErrNoRows) {
		return v, fmt.Errorf("household %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return v, fmt.Errorf("get household %s: %w", id, err)
	}
	return v, nil
}

func (h *households) Upsert(ctx context.Context, v core.Household) error {
	_, err := h.repo.db.ExecContext(ctx, h.repo.rebind(`
		INSERT INTO households (id, person_a_id, person_b_id, person_a_name, person_b_name, currency, closing_day)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			person_a_id = excluded.person_a_id,
			person_b_id = excluded.person_b_id,
			person_a_name = excluded.person_a_name,
			person_b_name = excluded.person_b_name,
			currency = excluded.currency,
			closing_day = excluded.closing_day`),
		v.ID, v.PersonAID, v.PersonBID, v.PersonAName, v.PersonBName, v.Currency, v.ClosingDay)
	if err != nil {
		return fmt.Errorf("upsert household %s: %w", v.ID, err)
	}
	return nil
}
