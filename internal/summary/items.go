package summary

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"financas/internal/core"
)

// Origin tells which collection a month item comes from.
type Origin string

const (
	OriginTransaction  Origin = "transaction"
	OriginFixedExpense Origin = "fixed_expense"
	OriginFixedIncome  Origin = "fixed_income"
)

func (o Origin) rank() int {
	switch o {
	case OriginTransaction:
		return 0
	case OriginFixedExpense:
		return 1
	}
	return 2
}

func (o Origin) Valid() bool {
	return o == OriginTransaction || o == OriginFixedExpense || o == OriginFixedIncome
}

// Label is the human readable origin used in exports.
func (o Origin) Label() string {
	switch o {
	case OriginTransaction:
		return "Transaction"
	case OriginFixedExpense:
		return "Fixed expense"
	case OriginFixedIncome:
		return "Fixed income"
	}
	return string(o)
}

// MonthItem is one line of the merged month statement.
type MonthItem struct {
	Date         core.Date            `json:"date"`
	Description  string               `json:"description"`
	CategoryID   uuid.UUID            `json:"categoryId"`
	CategoryName string               `json:"categoryName"`
	CategoryIcon string               `json:"categoryIcon"`
	Type         core.TransactionType `json:"type"`
	Amount       decimal.Decimal      `json:"amount"`
	Owner        core.Owner           `json:"owner"`
	ProportionA  decimal.NullDecimal  `json:"proportionA"`
	ProportionB  decimal.NullDecimal  `json:"proportionB"`
	Origin       Origin               `json:"origin"`
	SourceID     uuid.UUID            `json:"sourceId"`
}

// ItemFilter narrows the merged list. Zero fields match everything.
type ItemFilter struct {
	Type       core.TransactionType
	Owner      core.Owner
	CategoryID uuid.UUID
	Origin     Origin
}

func (f ItemFilter) match(it MonthItem) bool {
	if f.Type != "" && it.Type != f.Type {
		return false
	}
	if f.Owner != "" && it.Owner != f.Owner {
		return false
	}
	if f.CategoryID != uuid.Nil && it.CategoryID != f.CategoryID {
		return false
	}
	if f.Origin != "" && it.Origin != f.Origin {
		return false
	}
	return true
}

// MonthItems merges the month's transactions with its active fixed expenses
// and incomes, applies filter and sorts by date. Fixed items are dated on
// their due or receipt day, clamped to the month's length. Items on the same
// day are ordered by origin, then description.
func (a *Aggregator) MonthItems(p core.Period, snap Snapshot, filter ItemFilter) ([]MonthItem, error) {
	month, err := MonthTransactions(p, snap.Transactions)
	if err != nil {
		return nil, err
	}

	cats := make(map[uuid.UUID]core.Category, len(snap.Categories))
	for _, c := range snap.Categories {
		if _, seen := cats[c.ID]; !seen {
			cats[c.ID] = c
		}
	}
	withCategory := func(it MonthItem) MonthItem {
		if c, ok := cats[it.CategoryID]; ok {
			it.CategoryName = c.Name
			it.CategoryIcon = c.Icon
		}
		return it
	}

	items := make([]MonthItem, 0, len(month)+len(snap.FixedExpenses)+len(snap.FixedIncomes))
	add := func(it MonthItem) {
		it = withCategory(it)
		if filter.match(it) {
			items = append(items, it)
		}
	}

	for _, t := range month {
		add(MonthItem{
			Date:        t.Date,
			Description: t.Description,
			CategoryID:  t.CategoryID,
			Type:        t.Type,
			Amount:      t.Amount,
			Owner:       t.Owner,
			ProportionA: t.ProportionA,
			ProportionB: t.ProportionB,
			Origin:      OriginTransaction,
			SourceID:    t.ID,
		})
	}
	for _, fe := range snap.FixedExpenses {
		if err := fe.CheckIntegrity(); err != nil {
			return nil, err
		}
		if !FixedExpenseActive(fe, p) {
			continue
		}
		add(MonthItem{
			Date:        p.Day(fe.DueDay),
			Description: fe.Name,
			CategoryID:  fe.CategoryID,
			Type:        core.Expense,
			Amount:      fe.Amount,
			Owner:       fe.Owner,
			ProportionA: fe.ProportionA,
			ProportionB: fe.ProportionB,
			Origin:      OriginFixedExpense,
			SourceID:    fe.ID,
		})
	}
	for _, fi := range snap.FixedIncomes {
		if err := fi.CheckIntegrity(); err != nil {
			return nil, err
		}
		if !FixedIncomeActive(fi, p) {
			continue
		}
		add(MonthItem{
			Date:        p.Day(fi.ReceiptDay),
			Description: fi.Name,
			CategoryID:  fi.CategoryID,
			Type:        core.Income,
			Amount:      fi.Amount,
			Owner:       fi.Owner,
			Origin:      OriginFixedIncome,
			SourceID:    fi.ID,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.Date.Equal(b.Date.Time) {
			return a.Date.Before(b.Date.Time)
		}
		if a.Origin.rank() != b.Origin.rank() {
			return a.Origin.rank() < b.Origin.rank()
		}
		return strings.ToLower(a.Description) < strings.ToLower(b.Description)
	})
	return items, nil
}
