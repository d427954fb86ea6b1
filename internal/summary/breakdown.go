package summary

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"financas/internal/core"
)

// MaxCategories bounds the category breakdown.
const MaxCategories = 7

// CategoryExpense is the month's spending in one category.
type CategoryExpense struct {
	CategoryID  uuid.UUID           `json:"categoryId"`
	Name        string              `json:"name"`
	Icon        string              `json:"icon"`
	Value       decimal.Decimal     `json:"value"`
	Percentage  decimal.Decimal     `json:"percentage"`
	Budget      decimal.NullDecimal `json:"budget"`
	BudgetUsage decimal.NullDecimal `json:"budgetUsage"`
}

// CategoryBreakdown groups the month's expense transactions by category,
// sorted by descending value and truncated to MaxCategories. Transactions
// whose category is unknown are left out. Equal values keep the order in
// which their categories were first seen.
func (a *Aggregator) CategoryBreakdown(p core.Period, txs []core.Transaction, categories []core.Category) ([]CategoryExpense, error) {
	month, err := MonthTransactions(p, txs)
	if err != nil {
		return nil, err
	}

	lookup := make(map[uuid.UUID]core.Category, len(categories))
	for _, c := range categories {
		if _, seen := lookup[c.ID]; !seen {
			lookup[c.ID] = c
		}
	}

	trace := a.tracing()
	index := make(map[uuid.UUID]int)
	var groups []CategoryExpense
	for _, t := range month {
		if t.Type != core.Expense {
			continue
		}
		cat, ok := lookup[t.CategoryID]
		if !ok {
			if trace {
				a.logger.Debug("Expense without known category skipped",
					"period", p.String(), "id", t.ID, "category_id", t.CategoryID)
			}
			continue
		}
		i, ok := index[t.CategoryID]
		if !ok {
			i = len(groups)
			index[t.CategoryID] = i
			groups = append(groups, CategoryExpense{
				CategoryID: cat.ID,
				Name:       cat.Name,
				Icon:       cat.Icon,
				Budget:     cat.MonthlyBudget,
			})
		}
		groups[i].Value = groups[i].Value.Add(t.Amount)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Value.GreaterThan(groups[j].Value)
	})
	if len(groups) > MaxCategories {
		groups = groups[:MaxCategories]
	}
	return groups, nil
}

// WithPercentages returns a copy of breakdown with each entry's share of
// totalExpense and, when a monthly budget is set, the budget usage.
func WithPercentages(breakdown []CategoryExpense, totalExpense decimal.Decimal) []CategoryExpense {
	out := make([]CategoryExpense, len(breakdown))
	for i, c := range breakdown {
		c.Percentage = core.Percent(c.Value, totalExpense)
		if c.Budget.Valid && c.Budget.Decimal.IsPositive() {
			c.BudgetUsage = decimal.NewNullDecimal(core.Percent(c.Value, c.Budget.Decimal))
		} else {
			c.BudgetUsage = decimal.NullDecimal{}
		}
		out[i] = c
	}
	return out
}
