// Package store declares the Record Store ports shared by every backend.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"financas/internal/core"
	"financas/internal/summary"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
)

// Ports for storage adapters.
type (
	// Collection is the CRUD surface of one entity type.
	Collection[T any] interface {
		// FetchAll returns every record of the household, oldest first.
		FetchAll(ctx context.Context, householdID uuid.UUID) ([]T, error)
		Get(ctx context.Context, id uuid.UUID) (T, error)
		// Create assigns ID (when unset) and timestamps, and returns the stored record.
		Create(ctx context.Context, rec T) (T, error)
		// Update loads the record, lets mutate change it and persists the
		// result atomically. A mutate error aborts the update unchanged.
		Update(ctx context.Context, id uuid.UUID, mutate func(*T) error) (T, error)
		Delete(ctx context.Context, id uuid.UUID) error
	}

	Households interface {
		Get(ctx context.Context, id uuid.UUID) (core.Household, error)
		Upsert(ctx context.Context, h core.Household) error
	}

	// Snapshots persists month summaries computed by the worker.
	Snapshots interface {
		Save(ctx context.Context, s MonthSnapshot) error
		Get(ctx context.Context, householdID uuid.UUID, p core.Period) (MonthSnapshot, error)
		// List returns the snapshots between from and to inclusive, oldest first.
		List(ctx context.Context, householdID uuid.UUID, from, to core.Period) ([]MonthSnapshot, error)
	}
)

// MonthSnapshot is a stored month summary.
type MonthSnapshot struct {
	HouseholdID uuid.UUID            `json:"householdId"`
	Period      core.Period          `json:"period"`
	Summary     summary.MonthSummary `json:"summary"`
	ComputedAt  time.Time            `json:"computedAt"`
}

// Store groups the collections of one backend.
type Store struct {
	Households           Households
	Categories           Collection[core.Category]
	Transactions         Collection[core.Transaction]
	FixedExpenses        Collection[core.FixedExpense]
	FixedExpensePayments Collection[core.FixedExpensePayment]
	FixedIncomes         Collection[core.FixedIncome]
	FixedIncomeReceipts  Collection[core.FixedIncomeReceipt]
	Reserves             Collection[core.Reserve]
	ReserveTransactions  Collection[core.ReserveTransaction]
	Goals                Collection[core.FinancialGoal]
	GoalTransactions     Collection[core.GoalTransaction]
	Settlements          Collection[core.DebtSettlement]
	Snapshots            Snapshots

	// Ping checks backend reachability. Nil means always ready.
	Ping func(ctx context.Context) error
}

// Ready reports whether the backend can serve requests.
func (s *Store) Ready(ctx context.Context) error {
	if s.Ping == nil {
		return nil
	}
	return s.Ping(ctx)
}
