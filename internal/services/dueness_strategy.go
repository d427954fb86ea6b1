// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for the due status of fixed
// items. Each item kind (fixed expense, fixed income) has its own checker
// that names the settled state and decides when an open item is late.

package services

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"financas/internal/core"
	"financas/internal/summary"
)

// DueStatus is the state of a fixed item in one month.
type DueStatus string

const (
	StatusPaid     DueStatus = "paid"
	StatusReceived DueStatus = "received"
	StatusPending  DueStatus = "pending"
	StatusOverdue  DueStatus = "overdue"
)

// ItemKind selects the checker for a fixed item.
type ItemKind string

const (
	KindFixedExpense ItemKind = "fixed_expense"
	KindFixedIncome  ItemKind = "fixed_income"
)

// DuenessChecker is the strategy interface for the due status of a fixed item.
type DuenessChecker interface {
	// Status returns the state of an item due on dueDate as seen on today.
	Status(settled bool, dueDate, today core.Date) DueStatus
}

// ExpenseChecker implements DuenessChecker for fixed expenses.
type ExpenseChecker struct{}

// Status is paid once a payment exists and overdue after the due date.
func (ExpenseChecker) Status(settled bool, dueDate, today core.Date) DueStatus {
	if settled {
		return StatusPaid
	}
	if today.After(dueDate.Time) {
		return StatusOverdue
	}
	return StatusPending
}

// IncomeChecker implements DuenessChecker for fixed incomes.
type IncomeChecker struct{}

// Status is received once a receipt exists and overdue after the receipt day.
func (IncomeChecker) Status(settled bool, dueDate, today core.Date) DueStatus {
	if settled {
		return StatusReceived
	}
	if today.After(dueDate.Time) {
		return StatusOverdue
	}
	return StatusPending
}

// duenessStrategies maps item kinds to their checkers.
var duenessStrategies = map[ItemKind]DuenessChecker{
	KindFixedExpense: ExpenseChecker{},
	KindFixedIncome:  IncomeChecker{},
}

// GetDuenessChecker returns the checker for an item kind.
func GetDuenessChecker(kind ItemKind) (DuenessChecker, error) {
	checker, ok := duenessStrategies[kind]
	if !ok {
		return nil, fmt.Errorf("unknown item kind: %s", kind)
	}
	return checker, nil
}

// RegisterDuenessChecker replaces or adds the checker of an item kind.
func RegisterDuenessChecker(kind ItemKind, checker DuenessChecker) {
	duenessStrategies[kind] = checker
}

// FixedItemStatus is the due state of one active fixed item in a month.
type FixedItemStatus struct {
	Kind    ItemKind        `json:"kind"`
	ID      uuid.UUID       `json:"id"`
	Name    string          `json:"name"`
	Amount  decimal.Decimal `json:"amount"`
	Owner   core.Owner      `json:"owner"`
	DueDate core.Date       `json:"dueDate"`
	Status  DueStatus       `json:"status"`
	// Settlement is the payment or receipt of the month, if any.
	Settlement *Settlement `json:"settlement,omitempty"`
}

// Settlement summarizes the payment or receipt of a fixed item.
type Settlement struct {
	ID     uuid.UUID       `json:"id"`
	Date   core.Date       `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

func sortByDueDate(items []FixedItemStatus) {
	slices.SortStableFunc(items, func(a, b FixedItemStatus) int {
		if c := a.DueDate.Compare(b.DueDate.Time); c != 0 {
			return c
		}
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
}

// DueStatus lists the active fixed expenses and incomes of a month with
// their payment state, expenses first, each ordered by due date.
func (s *LedgerService) DueStatus(ctx context.Context, householdID uuid.UUID, p core.Period) ([]FixedItemStatus, error) {
	snap, err := s.LoadSnapshot(ctx, householdID)
	if err != nil {
		return nil, err
	}
	payments, err := s.store.FixedExpensePayments.FetchAll(ctx, householdID)
	if err != nil {
		return nil, fmt.Errorf("fetch payments: %w", err)
	}
	receipts, err := s.store.FixedIncomeReceipts.FetchAll(ctx, householdID)
	if err != nil {
		return nil, fmt.Errorf("fetch receipts: %w", err)
	}

	expenseChecker, err := GetDuenessChecker(KindFixedExpense)
	if err != nil {
		return nil, err
	}
	incomeChecker, err := GetDuenessChecker(KindFixedIncome)
	if err != nil {
		return nil, err
	}
	today := s.today()

	paid := make(map[uuid.UUID]core.FixedExpensePayment)
	for _, pm := range payments {
		if pm.ReferenceMonth == p {
			paid[pm.FixedExpenseID] = pm
		}
	}
	received := make(map[uuid.UUID]core.FixedIncomeReceipt)
	for _, rc := range receipts {
		if rc.ReferenceMonth == p {
			received[rc.FixedIncomeID] = rc
		}
	}

	var expenses, incomes []FixedItemStatus
	for _, fe := range snap.FixedExpenses {
		if !summary.FixedExpenseActive(fe, p) {
			continue
		}
		st := FixedItemStatus{
			Kind: KindFixedExpense, ID: fe.ID, Name: fe.Name, Amount: fe.Amount,
			Owner: fe.Owner, DueDate: p.Day(fe.DueDay),
		}
		pm, ok := paid[fe.ID]
		if ok {
			st.Settlement = &Settlement{ID: pm.ID, Date: pm.PaidDate, Amount: pm.PaidAmount}
		}
		st.Status = expenseChecker.Status(ok, st.DueDate, today)
		expenses = append(expenses, st)
	}
	for _, fi := range snap.FixedIncomes {
		if !summary.FixedIncomeActive(fi, p) {
			continue
		}
		st := FixedItemStatus{
			Kind: KindFixedIncome, ID: fi.ID, Name: fi.Name, Amount: fi.Amount,
			Owner: fi.Owner, DueDate: p.Day(fi.ReceiptDay),
		}
		rc, ok := received[fi.ID]
		if ok {
			st.Settlement = &Settlement{ID: rc.ID, Date: rc.ReceivedDate, Amount: rc.ReceivedAmount}
		}
		st.Status = incomeChecker.Status(ok, st.DueDate, today)
		incomes = append(incomes, st)
	}

	sortByDueDate(expenses)
	sortByDueDate(incomes)
	return append(expenses, incomes...), nil
}
