package summary

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financas/internal/core"
)

func category(name string) core.Category {
	return core.Category{Record: core.Record{ID: uuid.New()}, Name: name, Type: core.Expense}
}

func expenseIn(c core.Category, amount string) core.Transaction {
	t := tx(core.Expense, amount, core.PersonA, 15)
	t.CategoryID = c.ID
	return t
}

func TestBreakdownLimitsToSevenSortedDescending(t *testing.T) {
	var cats []core.Category
	var txs []core.Transaction
	for i := 1; i <= 10; i++ {
		c := category(fmt.Sprintf("cat-%d", i))
		cats = append(cats, c)
		txs = append(txs, expenseIn(c, fmt.Sprintf("%d", i*10)))
	}

	got, err := New(nil).CategoryBreakdown(march2025, txs, cats)
	require.NoError(t, err)
	require.Len(t, got, MaxCategories)
	assert.Equal(t, "cat-10", got[0].Name)
	assert.Equal(t, "cat-4", got[6].Name)
	for i := 1; i < len(got); i++ {
		assert.False(t, got[i].Value.GreaterThan(got[i-1].Value))
	}
}

func TestBreakdownGroupsAndKeepsTieOrder(t *testing.T) {
	food := category("Food")
	fuel := category("Fuel")
	rent := category("Rent")
	txs := []core.Transaction{
		expenseIn(fuel, "30"),
		expenseIn(food, "20"),
		expenseIn(rent, "50"),
		expenseIn(food, "10"),
	}

	got, err := New(nil).CategoryBreakdown(march2025, txs, []core.Category{food, fuel, rent})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Rent", got[0].Name)
	assert.Equal(t, "Fuel", got[1].Name, "ties keep first-seen order")
	assert.Equal(t, "Food", got[2].Name)
	assertDec(t, "30", got[2].Value, "food")
}

func TestBreakdownSkipsIncomeAndUnknownCategories(t *testing.T) {
	food := category("Food")
	income := tx(core.Income, "1000", core.PersonA, 1)
	income.CategoryID = food.ID
	orphan := tx(core.Expense, "40", core.PersonA, 1)
	orphan.CategoryID = uuid.New()
	uncategorized := tx(core.Expense, "5", core.PersonA, 1)

	got, err := New(nil).CategoryBreakdown(march2025,
		[]core.Transaction{income, orphan, uncategorized, expenseIn(food, "12")},
		[]core.Category{food})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assertDec(t, "12", got[0].Value, "food")
}

func TestBreakdownValuesNeverExceedExpense(t *testing.T) {
	food := category("Food")
	fuel := category("Fuel")
	txs := []core.Transaction{expenseIn(food, "10"), expenseIn(fuel, "25.50"), expenseIn(food, "4.50")}
	agg := New(nil)

	s, err := agg.MonthSummary(march2025, txs, nil, nil)
	require.NoError(t, err)
	got, err := agg.CategoryBreakdown(march2025, txs, []core.Category{food, fuel})
	require.NoError(t, err)

	total := got[0].Value
	for _, c := range got[1:] {
		total = total.Add(c.Value)
	}
	assert.False(t, total.GreaterThan(s.Expense))
}

func TestBreakdownOutsideMonthIsEmpty(t *testing.T) {
	food := category("Food")
	e := expenseIn(food, "10")
	e.Date = core.NewDate(2025, time.April, 1)
	got, err := New(nil).CategoryBreakdown(march2025, []core.Transaction{e}, []core.Category{food})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWithPercentages(t *testing.T) {
	food := category("Food")
	food.MonthlyBudget = pct("200")
	fuel := category("Fuel")
	breakdown := []CategoryExpense{
		{CategoryID: food.ID, Name: food.Name, Value: dec("50"), Budget: food.MonthlyBudget},
		{CategoryID: fuel.ID, Name: fuel.Name, Value: dec("25")},
	}

	got := WithPercentages(breakdown, dec("100"))
	assertDec(t, "50", got[0].Percentage, "food share")
	require.True(t, got[0].BudgetUsage.Valid)
	assertDec(t, "25", got[0].BudgetUsage.Decimal, "food budget usage")
	assertDec(t, "25", got[1].Percentage, "fuel share")
	assert.False(t, got[1].BudgetUsage.Valid)
	assert.True(t, breakdown[0].Percentage.IsZero(), "input is not modified")

	zero := WithPercentages(breakdown, dec("0"))
	assert.True(t, zero[0].Percentage.IsZero())
}

func TestDashboardUsesTotalExpenseForShares(t *testing.T) {
	food := category("Food")
	fes := []core.FixedExpense{{Amount: dec("60"), IsActive: true}}
	d, err := New(nil).Dashboard(march2025, Snapshot{
		Transactions:  []core.Transaction{expenseIn(food, "40")},
		FixedExpenses: fes,
		Categories:    []core.Category{food},
	})
	require.NoError(t, err)
	assertDec(t, "100", d.Summary.Expense, "expense")
	require.Len(t, d.Categories, 1)
	assertDec(t, "40", d.Categories[0].Percentage, "share")
	assert.Equal(t, march2025, d.Period)
}
