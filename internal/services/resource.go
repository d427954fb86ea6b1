package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"financas/internal/core"
	"financas/internal/log"
	"financas/internal/store"
)

// Entity names used in events, logs and metrics.
const (
	EntityCategory            = "category"
	EntityTransaction         = "transaction"
	EntityFixedExpense        = "fixed_expense"
	EntityFixedExpensePayment = "fixed_expense_payment"
	EntityFixedIncome         = "fixed_income"
	EntityFixedIncomeReceipt  = "fixed_income_receipt"
	EntityReserve             = "reserve"
	EntityReserveTransaction  = "reserve_transaction"
	EntityGoal                = "goal"
	EntityGoalTransaction     = "goal_transaction"
	EntitySettlement          = "settlement"
)

// AffectsSummary reports whether changes to entity can alter month summaries
// or dashboards.
func AffectsSummary(entity string) bool {
	switch entity {
	case EntityCategory, EntityTransaction, EntityFixedExpense, EntityFixedIncome:
		return true
	}
	return false
}

// Resource is the validated write path of one top-level entity kind.
type Resource[T any, P core.Entity[T]] struct {
	svc    *LedgerService
	entity string
	coll   store.Collection[T]

	// months returns the periods a record contributes to. Nil means the
	// record is not tied to specific months.
	months func(*T) []core.Period
	// check runs lookups that need the store, outside any store transaction.
	check func(ctx context.Context, householdID uuid.UUID, rec *T) error
	// cascade removes dependent records after a delete.
	cascade func(ctx context.Context, householdID, id uuid.UUID) error
}

// List returns every record of the household.
func (r *Resource[T, P]) List(ctx context.Context, householdID uuid.UUID) ([]T, error) {
	recs, err := r.coll.FetchAll(ctx, householdID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", r.entity, err)
	}
	return recs, nil
}

// Get returns one record, hiding records of other households as not found.
func (r *Resource[T, P]) Get(ctx context.Context, householdID, id uuid.UUID) (T, error) {
	rec, err := r.coll.Get(ctx, id)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("get %s: %w", r.entity, err)
	}
	if P(&rec).Meta().HouseholdID != householdID {
		var zero T
		return zero, fmt.Errorf("get %s %s: %w", r.entity, id, store.ErrNotFound)
	}
	return rec, nil
}

// Create validates rec and stores it under the household.
func (r *Resource[T, P]) Create(ctx context.Context, householdID uuid.UUID, rec T) (T, error) {
	var zero T
	meta := P(&rec).Meta()
	*meta = core.Record{HouseholdID: householdID}

	if err := r.validate(ctx, householdID, &rec); err != nil {
		return zero, err
	}

	created, err := r.coll.Create(ctx, rec)
	if err != nil {
		return zero, fmt.Errorf("create %s: %w", r.entity, err)
	}

	r.svc.changed(ctx, householdID, r.entity, P(&created).Meta().ID, log.OpCreate, r.periodsOf(&created)...)
	return created, nil
}

// Update merges the JSON object patch into the stored record. Fields absent
// from patch keep their values; identity fields cannot be changed.
func (r *Resource[T, P]) Update(ctx context.Context, householdID, id uuid.UUID, patch []byte) (T, error) {
	var zero T
	if err := checkPatch(patch); err != nil {
		return zero, err
	}

	// Store-backed checks run on a preview so the update transaction below
	// never issues nested queries.
	preview, err := r.Get(ctx, householdID, id)
	if err != nil {
		return zero, err
	}
	if err := applyPatch[T, P](&preview, patch); err != nil {
		return zero, err
	}
	if err := r.validate(ctx, householdID, &preview); err != nil {
		return zero, err
	}

	var before []core.Period
	updated, err := r.coll.Update(ctx, id, func(cur *T) error {
		if P(cur).Meta().HouseholdID != householdID {
			return fmt.Errorf("%s %s: %w", r.entity, id, store.ErrNotFound)
		}
		before = r.periodsOf(cur)
		if err := applyPatch[T, P](cur, patch); err != nil {
			return err
		}
		return P(cur).Validate()
	})
	if err != nil {
		return zero, fmt.Errorf("update %s: %w", r.entity, err)
	}

	r.svc.changed(ctx, householdID, r.entity, id, log.OpUpdate, append(before, r.periodsOf(&updated)...)...)
	return updated, nil
}

// Delete removes a record and its dependents.
func (r *Resource[T, P]) Delete(ctx context.Context, householdID, id uuid.UUID) error {
	rec, err := r.Get(ctx, householdID, id)
	if err != nil {
		return err
	}
	if err := r.coll.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete %s: %w", r.entity, err)
	}
	if r.cascade != nil {
		if err := r.cascade(ctx, householdID, id); err != nil {
			return fmt.Errorf("delete %s dependents: %w", r.entity, err)
		}
	}

	r.svc.changed(ctx, householdID, r.entity, id, log.OpDelete, r.periodsOf(&rec)...)
	return nil
}

func (r *Resource[T, P]) validate(ctx context.Context, householdID uuid.UUID, rec *T) error {
	if err := P(rec).Validate(); err != nil {
		return err
	}
	if r.check != nil {
		return r.check(ctx, householdID, rec)
	}
	return nil
}

func (r *Resource[T, P]) periodsOf(rec *T) []core.Period {
	if r.months == nil {
		return nil
	}
	return r.months(rec)
}

func checkPatch(patch []byte) error {
	trimmed := bytes.TrimSpace(patch)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return core.Invalid("body", errors.New("expected a JSON object"))
	}
	return nil
}

// applyPatch decodes patch over rec and restores the identity fields.
func applyPatch[T any, P core.Entity[T]](rec *T, patch []byte) error {
	meta := *P(rec).Meta()
	dec := json.NewDecoder(bytes.NewReader(patch))
	dec.DisallowUnknownFields()
	if err := dec.Decode(rec); err != nil {
		return core.Invalid("body", err)
	}
	*P(rec).Meta() = meta
	return nil
}

// deleteChildren deletes every record of coll whose parent matches id.
func deleteChildren[T any, P core.Entity[T]](ctx context.Context, coll store.Collection[T], householdID uuid.UUID, parent func(*T) uuid.UUID, id uuid.UUID) error {
	children, err := coll.FetchAll(ctx, householdID)
	if err != nil {
		return err
	}
	for i := range children {
		if parent(&children[i]) != id {
			continue
		}
		err := coll.Delete(ctx, P(&children[i]).Meta().ID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
	}
	return nil
}
