package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financas/internal/core"
	"financas/internal/store"
	"financas/internal/summary"
)

func fixedClock() func() time.Time {
	t := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func TestCollectionCRUD(t *testing.T) {
	ctx := context.Background()
	s := NewWithClock(fixedClock())
	hh := uuid.New()

	created, err := s.Transactions.Create(ctx, core.Transaction{
		Record: core.Record{HouseholdID: hh},
		Type:   core.Expense,
		Amount: decimal.NewFromInt(42),
		Owner:  core.PersonA,
		Date:   core.NewDate(2025, time.March, 3),
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := s.Transactions.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	updated, err := s.Transactions.Update(ctx, created.ID, func(tx *core.Transaction) error {
		tx.Description = "coffee"
		tx.ID = uuid.New()
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "coffee", updated.Description)
	assert.Equal(t, created.ID, updated.ID, "identity fields are kept")
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	require.NoError(t, s.Transactions.Delete(ctx, created.ID))
	_, err = s.Transactions.Get(ctx, created.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.Transactions.Delete(ctx, created.ID), store.ErrNotFound)
}

func TestUpdateAbortsOnMutateError(t *testing.T) {
	ctx := context.Background()
	s := New()
	r, err := s.Reserves.Create(ctx, core.Reserve{Name: "Emergency", CurrentAmount: decimal.NewFromInt(10)})
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = s.Reserves.Update(ctx, r.ID, func(r *core.Reserve) error {
		r.CurrentAmount = decimal.NewFromInt(99)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.Reserves.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.True(t, got.CurrentAmount.Equal(decimal.NewFromInt(10)))

	_, err = s.Reserves.Update(ctx, uuid.New(), func(*core.Reserve) error { return nil })
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestFetchAllScopesByHouseholdInOrder(t *testing.T) {
	ctx := context.Background()
	s := New()
	mine, other := uuid.New(), uuid.New()
	for _, name := range []string{"b", "a", "c"} {
		_, err := s.Categories.Create(ctx, core.Category{Record: core.Record{HouseholdID: mine}, Name: name, Type: core.Expense})
		require.NoError(t, err)
	}
	_, err := s.Categories.Create(ctx, core.Category{Record: core.Record{HouseholdID: other}, Name: "x", Type: core.Expense})
	require.NoError(t, err)

	got, err := s.Categories.FetchAll(ctx, mine)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"b", "a", "c"}, []string{got[0].Name, got[1].Name, got[2].Name})
}

func TestCreateRejectsDuplicateID(t *testing.T) {
	ctx := context.Background()
	s := New()
	id := uuid.New()
	_, err := s.Categories.Create(ctx, core.Category{Record: core.Record{ID: id}, Name: "a"})
	require.NoError(t, err)
	_, err = s.Categories.Create(ctx, core.Category{Record: core.Record{ID: id}, Name: "b"})
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	s := New()
	h := core.Household{ID: uuid.New(), PersonAName: "Ana", PersonBName: "Bruno", Currency: "BRL", ClosingDay: 1}

	n, err := store.Seed(ctx, s, h)
	require.NoError(t, err)
	assert.Equal(t, len(core.DefaultCategories(h.ID)), n)

	n, err = store.Seed(ctx, s, h)
	require.NoError(t, err)
	assert.Zero(t, n, "seeding twice adds nothing")

	got, err := s.Households.Get(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.PersonAName)

	_, err = store.Seed(ctx, s, core.Household{ID: uuid.New()})
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestSnapshots(t *testing.T) {
	ctx := context.Background()
	s := New()
	hh := uuid.New()
	for _, m := range []time.Month{time.March, time.January, time.February, time.May} {
		require.NoError(t, s.Snapshots.Save(ctx, store.MonthSnapshot{
			HouseholdID: hh,
			Period:      core.NewPeriod(2025, m),
			Summary:     summary.MonthSummary{Income: decimal.NewFromInt(int64(m))},
		}))
	}

	list, err := s.Snapshots.List(ctx, hh, core.NewPeriod(2025, time.January), core.NewPeriod(2025, time.March))
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, time.January, list[0].Period.Month)
	assert.Equal(t, time.March, list[2].Period.Month)

	_, err = s.Snapshots.Get(ctx, hh, core.NewPeriod(2025, time.April))
	assert.ErrorIs(t, err, store.ErrNotFound)
}
