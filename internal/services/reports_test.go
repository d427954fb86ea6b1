package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financas/internal/core"
	"financas/internal/store"
	"financas/internal/summary"
)

// failingCollection fails every FetchAll.
type failingCollection[T any] struct {
	store.Collection[T]
	err error
}

func (c failingCollection[T]) FetchAll(context.Context, uuid.UUID) ([]T, error) {
	return nil, c.err
}

func TestDashboardCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	march := core.NewPeriod(2025, time.March)
	f.expense(t, "80", march.Day(2))

	first, err := f.svc.Dashboard(ctx, f.household.ID, march)
	require.NoError(t, err)
	second, err := f.svc.Dashboard(ctx, f.household.ID, march)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.obs.misses)
	assert.Equal(t, 1, f.obs.hits)

	require.Len(t, first.Categories, 1)
	assert.Equal(t, "Groceries", first.Categories[0].Name)

	f.expense(t, "20", march.Day(4))
	third, err := f.svc.Dashboard(ctx, f.household.ID, march)
	require.NoError(t, err)
	assert.True(t, d("100").Equal(third.Summary.Expense))
	assert.Equal(t, 2, f.obs.misses)
}

func TestDashboardFailedFetch(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("connection reset")
	f.st.FixedIncomes = failingCollection[core.FixedIncome]{Collection: f.st.FixedIncomes, err: boom}

	_, err := f.svc.Dashboard(context.Background(), f.household.ID, core.NewPeriod(2025, time.March))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "fetch fixed incomes")
}

func TestDashboardIntegrityFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	// Written around the service, as an old import might have.
	_, err := f.st.Transactions.Create(ctx, core.Transaction{
		Record: core.Record{HouseholdID: f.household.ID},
		Type:   core.Expense, Amount: d("10"), Owner: core.Both,
	})
	require.NoError(t, err)

	_, err = f.svc.Dashboard(ctx, f.household.ID, core.NewPeriod(2025, time.March))
	assert.ErrorIs(t, err, core.ErrDataIntegrity)
	assert.Contains(t, f.logs.String(), "Stored records cannot be aggregated")
}

func TestMonthReport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	march := core.NewPeriod(2025, time.March)
	f.expense(t, "80", march.Day(2))
	f.rent(t)
	_, err := f.svc.Transactions.Create(ctx, f.household.ID, core.Transaction{
		Type: core.Income, Amount: d("3000"), Date: march.Day(1), Owner: core.PersonB,
		Description: "salary", CategoryID: f.salary.ID,
	})
	require.NoError(t, err)

	rep, err := f.svc.MonthReport(ctx, f.household, march, summary.ItemFilter{})
	require.NoError(t, err)
	assert.Equal(t, f.household, rep.Household)
	assert.True(t, d("1580").Equal(rep.Summary.Expense))
	assert.True(t, d("3000").Equal(rep.Summary.Income))
	assert.Len(t, rep.Items, 3)

	expenses, err := f.svc.MonthItems(ctx, f.household.ID, march, summary.ItemFilter{Type: core.Expense})
	require.NoError(t, err)
	assert.Len(t, expenses, 2)
}

func TestComparison(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	march := core.NewPeriod(2025, time.March)
	f.expense(t, "100", march.Prev().Day(10))
	f.expense(t, "150", march.Day(10))

	cmp, err := f.svc.Comparison(ctx, f.household.ID, march)
	require.NoError(t, err)
	assert.True(t, d("50").Equal(cmp.ExpenseChange), cmp.ExpenseChange.String())
	assert.True(t, d("100").Equal(cmp.Previous.Expense))
}

func TestTrendFollowsWritesWithoutSnapshotRefresh(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	jan, feb, march := core.NewPeriod(2025, time.January), core.NewPeriod(2025, time.February), core.NewPeriod(2025, time.March)
	f.expense(t, "40", feb.Day(5))
	f.expense(t, "60", march.Day(5))

	_, err := f.svc.RefreshSnapshot(ctx, f.household.ID, feb)
	require.NoError(t, err)
	require.NoError(t, f.st.Snapshots.Save(ctx, store.MonthSnapshot{
		HouseholdID: f.household.ID, Period: jan,
		Summary: summary.MonthSummary{Expense: d("999")},
	}))

	// The change event is lost, so no worker refreshes February.
	f.pub.err = errors.New("broker down")
	f.expense(t, "60", feb.Day(6))

	trend, err := f.svc.Trend(ctx, f.household.ID, march, 3)
	require.NoError(t, err)
	require.Len(t, trend, 3)
	assert.Equal(t, []core.Period{jan, feb, march}, []core.Period{trend[0].Period, trend[1].Period, trend[2].Period})
	assert.True(t, trend[0].Summary.Expense.IsZero())
	assert.True(t, d("60").Equal(trend[2].Summary.Expense))

	dash, err := f.svc.Dashboard(ctx, f.household.ID, feb)
	require.NoError(t, err)
	assert.True(t, d("100").Equal(dash.Summary.Expense))
	assert.True(t, dash.Summary.Expense.Equal(trend[1].Summary.Expense), trend[1].Summary.Expense.String())
}

func TestTrendClampsMonths(t *testing.T) {
	f := newFixture(t)
	march := core.NewPeriod(2025, time.March)

	trend, err := f.svc.Trend(context.Background(), f.household.ID, march, 100)
	require.NoError(t, err)
	assert.Len(t, trend, MaxTrendMonths)
	assert.Equal(t, march, trend[len(trend)-1].Period)

	trend, err = f.svc.Trend(context.Background(), f.household.ID, march, 0)
	require.NoError(t, err)
	assert.Len(t, trend, 1)
}

func TestRefreshSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	feb := core.NewPeriod(2025, time.February)
	f.expense(t, "25", feb.Day(14))

	ms, err := f.svc.RefreshSnapshot(ctx, f.household.ID, feb)
	require.NoError(t, err)
	assert.Equal(t, fixedNow, ms.ComputedAt)

	stored, err := f.st.Snapshots.Get(ctx, f.household.ID, feb)
	require.NoError(t, err)
	assert.True(t, d("25").Equal(stored.Summary.Expense))
}

func TestSettlementTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	create := func(owner core.Owner, original, settled string, date core.Date) {
		_, err := f.svc.Settlements.Create(ctx, f.household.ID, core.DebtSettlement{
			ReferenceType: core.RefOther, Name: "card", Owner: owner,
			OriginalAmount: d(original), SettledAmount: d(settled), SettlementDate: date,
		})
		require.NoError(t, err)
	}
	create(core.PersonA, "1000", "800", core.NewDate(2025, time.February, 1))
	create(core.PersonB, "500", "450", core.NewDate(2025, time.March, 1))
	create(core.PersonA, "300", "100", core.NewDate(2024, time.December, 1))

	all, err := f.svc.SettlementTotals(ctx, f.household.ID, 2025, "")
	require.NoError(t, err)
	assert.Equal(t, 2, all.Count)
	assert.True(t, d("1500").Equal(all.Original))
	assert.True(t, d("250").Equal(all.Saved))

	personA, err := f.svc.SettlementTotals(ctx, f.household.ID, 2025, core.PersonA)
	require.NoError(t, err)
	assert.Equal(t, 1, personA.Count)
	assert.True(t, d("200").Equal(personA.Saved))

	_, err = f.svc.SettlementTotals(ctx, f.household.ID, 2025, core.Proportional)
	assert.ErrorIs(t, err, core.ErrValidation)
}
