package summary

import (
	"github.com/shopspring/decimal"

	"financas/internal/core"
)

// MonthComparison relates a month to the one before it.
// IncomeChange and ExpenseChange are percentage changes; SavingsChange is
// the difference of savings rates in percentage points.
type MonthComparison struct {
	Current       MonthSummary    `json:"current"`
	Previous      MonthSummary    `json:"previous"`
	IncomeChange  decimal.Decimal `json:"incomeChange"`
	ExpenseChange decimal.Decimal `json:"expenseChange"`
	SavingsChange decimal.Decimal `json:"savingsChange"`
}

// PeriodSummary pairs a summary with the month it describes.
type PeriodSummary struct {
	Period  core.Period  `json:"period"`
	Summary MonthSummary `json:"summary"`
}

func change(prev, cur decimal.Decimal) decimal.Decimal {
	return core.Percent(cur.Sub(prev), prev.Abs())
}

// Compare builds the comparison of current against previous.
func Compare(current, previous MonthSummary) MonthComparison {
	return MonthComparison{
		Current:       current,
		Previous:      previous,
		IncomeChange:  change(previous.Income, current.Income),
		ExpenseChange: change(previous.Expense, current.Expense),
		SavingsChange: current.SavingsRate.Sub(previous.SavingsRate),
	}
}

// Comparison computes p and the month before it from one snapshot.
func (a *Aggregator) Comparison(p core.Period, snap Snapshot) (MonthComparison, error) {
	cur, err := a.MonthSummary(p, snap.Transactions, snap.FixedExpenses, snap.FixedIncomes)
	if err != nil {
		return MonthComparison{}, err
	}
	prev, err := a.MonthSummary(p.Prev(), snap.Transactions, snap.FixedExpenses, snap.FixedIncomes)
	if err != nil {
		return MonthComparison{}, err
	}
	return Compare(cur, prev), nil
}

// Trend returns the summaries of months consecutive months ending at end,
// oldest first.
func (a *Aggregator) Trend(end core.Period, months int, snap Snapshot) ([]PeriodSummary, error) {
	if months < 1 {
		months = 1
	}
	out := make([]PeriodSummary, 0, months)
	for i := months - 1; i >= 0; i-- {
		p := end.AddMonths(-i)
		s, err := a.MonthSummary(p, snap.Transactions, snap.FixedExpenses, snap.FixedIncomes)
		if err != nil {
			return nil, err
		}
		out = append(out, PeriodSummary{Period: p, Summary: s})
	}
	return out, nil
}

// Dashboard is the summary and ranked categories of one month.
type Dashboard struct {
	Period     core.Period       `json:"period"`
	Summary    MonthSummary      `json:"summary"`
	Categories []CategoryExpense `json:"categories"`
}

// Dashboard computes the month summary and the breakdown with percentages
// of the month's total expense, fixed expenses included.
func (a *Aggregator) Dashboard(p core.Period, snap Snapshot) (Dashboard, error) {
	s, err := a.MonthSummary(p, snap.Transactions, snap.FixedExpenses, snap.FixedIncomes)
	if err != nil {
		return Dashboard{}, err
	}
	breakdown, err := a.CategoryBreakdown(p, snap.Transactions, snap.Categories)
	if err != nil {
		return Dashboard{}, err
	}
	return Dashboard{
		Period:     p,
		Summary:    s,
		Categories: WithPercentages(breakdown, s.Expense),
	}, nil
}
