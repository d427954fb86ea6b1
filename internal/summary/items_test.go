package summary

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financas/internal/core"
)

func itemsSnapshot() (Snapshot, core.Category) {
	housing := category("Housing")
	salary := tx(core.Income, "4000", core.PersonB, 5)
	salary.Description = "Salary"
	lunch := tx(core.Expense, "35", core.Both, 10)
	lunch.Description = "Lunch"
	lunch.CategoryID = housing.ID
	feb := tx(core.Expense, "1", core.PersonA, 10)
	feb.Date = core.NewDate(2025, time.February, 10)

	return Snapshot{
		Transactions: []core.Transaction{lunch, salary, feb},
		FixedExpenses: []core.FixedExpense{
			{Record: core.Record{ID: uuid.New()}, Name: "Rent", Amount: dec("1500"), DueDay: 10, IsActive: true, CategoryID: housing.ID, Owner: core.Both},
			{Record: core.Record{ID: uuid.New()}, Name: "Gym", Amount: dec("90"), DueDay: 31, IsActive: true, Owner: core.PersonA},
			{Name: "Old", Amount: dec("5"), DueDay: 1},
		},
		FixedIncomes: []core.FixedIncome{
			{Record: core.Record{ID: uuid.New()}, Name: "Pension", Amount: dec("800"), ReceiptDay: 1, IsActive: true, Owner: core.PersonA},
		},
		Categories: []core.Category{housing},
	}, housing
}

func TestMonthItemsMergesAndSorts(t *testing.T) {
	snap, housing := itemsSnapshot()
	items, err := New(nil).MonthItems(march2025, snap, ItemFilter{})
	require.NoError(t, err)
	require.Len(t, items, 5)

	assert.Equal(t, "Pension", items[0].Description)
	assert.Equal(t, OriginFixedIncome, items[0].Origin)
	assert.Equal(t, "Salary", items[1].Description)
	assert.Equal(t, "Lunch", items[2].Description, "transactions precede fixed items on the same day")
	assert.Equal(t, "Housing", items[2].CategoryName)
	assert.Equal(t, "Rent", items[3].Description)
	assert.Equal(t, housing.ID, items[3].CategoryID)
	assert.Equal(t, "Gym", items[4].Description)
	assert.Equal(t, "2025-03-31", items[4].Date.String())
}

func TestMonthItemsClampsDueDay(t *testing.T) {
	snap, _ := itemsSnapshot()
	feb := core.NewPeriod(2025, time.February)
	items, err := New(nil).MonthItems(feb, snap, ItemFilter{Origin: OriginFixedExpense})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "2025-02-28", items[1].Date.String())
}

func TestMonthItemsFilters(t *testing.T) {
	snap, housing := itemsSnapshot()
	agg := New(nil)

	expenses, err := agg.MonthItems(march2025, snap, ItemFilter{Type: core.Expense})
	require.NoError(t, err)
	assert.Len(t, expenses, 3)

	personA, err := agg.MonthItems(march2025, snap, ItemFilter{Owner: core.PersonA})
	require.NoError(t, err)
	assert.Len(t, personA, 2)

	byCategory, err := agg.MonthItems(march2025, snap, ItemFilter{CategoryID: housing.ID})
	require.NoError(t, err)
	assert.Len(t, byCategory, 2)

	txOnly, err := agg.MonthItems(march2025, snap, ItemFilter{Origin: OriginTransaction})
	require.NoError(t, err)
	assert.Len(t, txOnly, 2)
}

func TestOriginLabel(t *testing.T) {
	assert.Equal(t, "Fixed expense", OriginFixedExpense.Label())
	assert.True(t, OriginFixedIncome.Valid())
	assert.False(t, Origin("other").Valid())
}
