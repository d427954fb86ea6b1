// Package summary computes monthly aggregates over household records.
//
// Every function here works on already-fetched snapshots: nothing performs
// I/O or mutates its inputs, so an Aggregator can be shared by concurrent
// callers.
package summary

import (
	"context"
	"io"
	"log/slog"

	"github.com/shopspring/decimal"

	"financas/internal/core"
)

var (
	two     = decimal.NewFromInt(2)
	hundred = decimal.NewFromInt(100)
)

// MonthSummary holds the totals of one calendar month.
type MonthSummary struct {
	Income         decimal.Decimal `json:"income"`
	Expense        decimal.Decimal `json:"expense"`
	Balance        decimal.Decimal `json:"balance"`
	SavingsRate    decimal.Decimal `json:"savingsRate"`
	PersonAIncome  decimal.Decimal `json:"personAIncome"`
	PersonBIncome  decimal.Decimal `json:"personBIncome"`
	PersonAExpense decimal.Decimal `json:"personAExpense"`
	PersonBExpense decimal.Decimal `json:"personBExpense"`
}

// Snapshot is the set of collections one aggregation reads.
type Snapshot struct {
	Transactions  []core.Transaction
	FixedExpenses []core.FixedExpense
	FixedIncomes  []core.FixedIncome
	Categories    []core.Category
}

// Aggregator computes month summaries, breakdowns and item lists.
type Aggregator struct {
	logger *slog.Logger
}

// New returns an Aggregator that traces per-item decisions at debug level.
// A nil logger disables tracing.
func New(logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Aggregator{logger: logger}
}

func (a *Aggregator) tracing() bool {
	return a.logger.Enabled(context.Background(), slog.LevelDebug)
}

// FixedExpenseActive reports whether a fixed expense counts toward period.
// Only installments are bounded by their end date.
func FixedExpenseActive(fe core.FixedExpense, p core.Period) bool {
	if !fe.IsActive {
		return false
	}
	if fe.IsInstallment && !fe.EndDate.IsEmpty() && fe.EndDate.Period().Before(p) {
		return false
	}
	return true
}

// FixedIncomeActive reports whether a fixed income counts toward period.
func FixedIncomeActive(fi core.FixedIncome, p core.Period) bool {
	if !fi.IsActive {
		return false
	}
	if !fi.StartDate.IsEmpty() && fi.StartDate.Period().After(p) {
		return false
	}
	if !fi.EndDate.IsEmpty() && fi.EndDate.Period().Before(p) {
		return false
	}
	return true
}

// SplitTransaction returns the shares of person A and person B.
// Both halves the amount; proportional uses the resolved percentages.
func SplitTransaction(t core.Transaction) (decimal.Decimal, decimal.Decimal) {
	switch t.Owner {
	case core.PersonA:
		return t.Amount, decimal.Zero
	case core.PersonB:
		return decimal.Zero, t.Amount
	case core.Both:
		h := t.Amount.Div(two)
		return h, h
	case core.Proportional:
		pa, pb := core.ResolveProportions(t.ProportionA, t.ProportionB)
		return t.Amount.Mul(pa).Div(hundred), t.Amount.Mul(pb).Div(hundred)
	}
	return decimal.Zero, decimal.Zero
}

// MonthTransactions returns the transactions dated within p, after checking
// every transaction for integrity.
func MonthTransactions(p core.Period, txs []core.Transaction) ([]core.Transaction, error) {
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if err := t.CheckIntegrity(); err != nil {
			return nil, err
		}
		if p.Contains(t.Date) {
			out = append(out, t)
		}
	}
	return out, nil
}

// MonthSummary totals income and expense for p. Transactions are split per
// owner; active fixed items add to the totals without being split.
func (a *Aggregator) MonthSummary(p core.Period, txs []core.Transaction, fixedExpenses []core.FixedExpense, fixedIncomes []core.FixedIncome) (MonthSummary, error) {
	month, err := MonthTransactions(p, txs)
	if err != nil {
		return MonthSummary{}, err
	}
	trace := a.tracing()

	var s MonthSummary
	for _, t := range month {
		shareA, shareB := SplitTransaction(t)
		switch t.Type {
		case core.Income:
			s.Income = s.Income.Add(t.Amount)
			s.PersonAIncome = s.PersonAIncome.Add(shareA)
			s.PersonBIncome = s.PersonBIncome.Add(shareB)
		case core.Expense:
			s.Expense = s.Expense.Add(t.Amount)
			s.PersonAExpense = s.PersonAExpense.Add(shareA)
			s.PersonBExpense = s.PersonBExpense.Add(shareB)
		}
	}

	for _, fi := range fixedIncomes {
		if err := fi.CheckIntegrity(); err != nil {
			return MonthSummary{}, err
		}
		active := FixedIncomeActive(fi, p)
		if trace {
			a.logger.Debug("Fixed income evaluated",
				"period", p.String(), "id", fi.ID, "name", fi.Name,
				"active", active, "start_date", fi.StartDate.String(), "end_date", fi.EndDate.String())
		}
		if active {
			s.Income = s.Income.Add(fi.Amount)
		}
	}

	for _, fe := range fixedExpenses {
		if err := fe.CheckIntegrity(); err != nil {
			return MonthSummary{}, err
		}
		active := FixedExpenseActive(fe, p)
		if trace {
			a.logger.Debug("Fixed expense evaluated",
				"period", p.String(), "id", fe.ID, "name", fe.Name,
				"active", active, "installment", fe.IsInstallment, "end_date", fe.EndDate.String())
		}
		if active {
			s.Expense = s.Expense.Add(fe.Amount)
		}
	}

	s.Balance = s.Income.Sub(s.Expense)
	s.SavingsRate = core.Percent(s.Balance, s.Income)

	if trace {
		a.logger.Debug("Month summary computed",
			"period", p.String(), "transactions", len(month),
			"income", s.Income.String(), "expense", s.Expense.String(),
			"savings_rate", s.SavingsRate.StringFixed(2))
	}
	return s, nil
}
