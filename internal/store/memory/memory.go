// Package memory is an in-process Record Store. It backs the memory data
// backend and serves as the test double for the service layer.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"financas/internal/core"
	"financas/internal/store"
)

// New returns an empty store with every collection wired.
func New() *store.Store {
	return NewWithClock(time.Now)
}

// NewWithClock is New with a custom time source for CreatedAt/UpdatedAt.
func NewWithClock(now func() time.Time) *store.Store {
	return &store.Store{
		Households:           &households{items: map[uuid.UUID]core.Household{}},
		Categories:           newCollection[core.Category]("category", now),
		Transactions:         newCollection[core.Transaction]("transaction", now),
		FixedExpenses:        newCollection[core.FixedExpense]("fixed expense", now),
		FixedExpensePayments: newCollection[core.FixedExpensePayment]("fixed expense payment", now),
		FixedIncomes:         newCollection[core.FixedIncome]("fixed income", now),
		FixedIncomeReceipts:  newCollection[core.FixedIncomeReceipt]("fixed income receipt", now),
		Reserves:             newCollection[core.Reserve]("reserve", now),
		ReserveTransactions:  newCollection[core.ReserveTransaction]("reserve transaction", now),
		Goals:                newCollection[core.FinancialGoal]("goal", now),
		GoalTransactions:     newCollection[core.GoalTransaction]("goal transaction", now),
		Settlements:          newCollection[core.DebtSettlement]("settlement", now),
		Snapshots:            &snapshots{items: map[snapshotKey]store.MonthSnapshot{}},
	}
}

type collection[T any, P core.Entity[T]] struct {
	mu    sync.RWMutex
	kind  string
	now   func() time.Time
	order []uuid.UUID
	items map[uuid.UUID]T
}

func newCollection[T any, P core.Entity[T]](kind string, now func() time.Time) *collection[T, P] {
	return &collection[T, P]{kind: kind, now: now, items: map[uuid.UUID]T{}}
}

func (c *collection[T, P]) FetchAll(_ context.Context, householdID uuid.UUID) ([]T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, 0, len(c.order))
	for _, id := range c.order {
		rec := c.items[id]
		if P(&rec).Meta().HouseholdID == householdID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (c *collection[T, P]) Get(_ context.Context, id uuid.UUID) (T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.items[id]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%s %s: %w", c.kind, id, store.ErrNotFound)
	}
	return rec, nil
}

func (c *collection[T, P]) Create(_ context.Context, rec T) (T, error) {
	meta := P(&rec).Meta()
	if meta.ID == uuid.Nil {
		meta.ID = uuid.New()
	}
	now := c.now().UTC()
	meta.CreatedAt, meta.UpdatedAt = now, now

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.items[meta.ID]; exists {
		var zero T
		return zero, fmt.Errorf("%s %s: %w", c.kind, meta.ID, store.ErrConflict)
	}
	c.items[meta.ID] = rec
	c.order = append(c.order, meta.ID)
	return rec, nil
}

func (c *collection[T, P]) Update(_ context.Context, id uuid.UUID, mutate func(*T) error) (T, error) {
	var zero T
	c.mu.Lock()
	defer c.mu.Unlock()
	current, ok := c.items[id]
	if !ok {
		return zero, fmt.Errorf("%s %s: %w", c.kind, id, store.ErrNotFound)
	}
	next := current
	if err := mutate(&next); err != nil {
		return zero, err
	}
	meta := *P(&current).Meta()
	meta.UpdatedAt = c.now().UTC()
	*P(&next).Meta() = meta
	c.items[id] = next
	return next, nil
}

func (c *collection[T, P]) Delete(_ context.Context, id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[id]; !ok {
		return fmt.Errorf("%s %s: %w", c.kind, id, store.ErrNotFound)
	}
	delete(c.items, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

type households struct {
	mu    sync.RWMutex
	items map[uuid.UUID]core.Household
}

func (h *households) Get(_ context.Context, id uuid.UUID) (core.Household, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	v, ok := h.items[id]
	if !ok {
		return core.Household{}, fmt.Errorf("household %s: %w", id, store.ErrNotFound)
	}
	return v, nil
}

func (h *households) Upsert(_ context.Context, v core.Household) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.items[v.ID] = v
	return nil
}

type snapshotKey struct {
	household uuid.UUID
	period    core.Period
}

type snapshots struct {
	mu    sync.RWMutex
	items map[snapshotKey]store.MonthSnapshot
}

func (s *snapshots) Save(_ context.Context, snap store.MonthSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[snapshotKey{snap.HouseholdID, snap.Period}] = snap
	return nil
}

func (s *snapshots) Get(_ context.Context, householdID uuid.UUID, p core.Period) (store.MonthSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[snapshotKey{householdID, p}]
	if !ok {
		return store.MonthSnapshot{}, fmt.Errorf("snapshot %s: %w", p, store.ErrNotFound)
	}
	return v, nil
}

func (s *snapshots) List(_ context.Context, householdID uuid.UUID, from, to core.Period) ([]store.MonthSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []store.MonthSnapshot
	for k, v := range s.items {
		if k.household == householdID && !k.period.Before(from) && !k.period.After(to) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period.Before(out[j].Period) })
	return out, nil
}
