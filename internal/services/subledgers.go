package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"financas/internal/core"
	"financas/internal/log"
	"financas/internal/store"
)

// ErrAlreadySettled is returned when a fixed item already has a payment or
// receipt for the reference month.
var ErrAlreadySettled = errors.New("already settled for this month")

// RecordFixedExpensePayment registers the payment of a fixed expense for
// one reference month. Amount and method default to the expense's own.
func (s *LedgerService) RecordFixedExpensePayment(ctx context.Context, householdID, fixedExpenseID uuid.UUID, p core.FixedExpensePayment) (core.FixedExpensePayment, error) {
	fe, err := s.FixedExpenses.Get(ctx, householdID, fixedExpenseID)
	if err != nil {
		return core.FixedExpensePayment{}, err
	}

	p.Record = core.Record{HouseholdID: householdID}
	p.FixedExpenseID = fe.ID
	if p.ReferenceMonth.IsZero() && !p.PaidDate.IsEmpty() {
		p.ReferenceMonth = p.PaidDate.Period()
	}
	if p.PaidAmount.IsZero() {
		p.PaidAmount = fe.Amount
	}
	if p.PaymentMethod == "" {
		p.PaymentMethod = fe.PaymentMethod
	}
	if err := p.Validate(); err != nil {
		return core.FixedExpensePayment{}, err
	}

	existing, err := s.FixedExpensePayments(ctx, householdID, fixedExpenseID)
	if err != nil {
		return core.FixedExpensePayment{}, err
	}
	for _, e := range existing {
		if e.ReferenceMonth == p.ReferenceMonth {
			return core.FixedExpensePayment{}, core.Invalid("referenceMonth", ErrAlreadySettled)
		}
	}

	created, err := s.store.FixedExpensePayments.Create(ctx, p)
	if err != nil {
		return core.FixedExpensePayment{}, fmt.Errorf("record payment: %w", err)
	}
	s.changed(ctx, householdID, EntityFixedExpensePayment, created.ID, log.OpRecord, created.ReferenceMonth)
	return created, nil
}

// FixedExpensePayments lists the payments of one fixed expense.
func (s *LedgerService) FixedExpensePayments(ctx context.Context, householdID, fixedExpenseID uuid.UUID) ([]core.FixedExpensePayment, error) {
	if _, err := s.FixedExpenses.Get(ctx, householdID, fixedExpenseID); err != nil {
		return nil, err
	}
	all, err := s.store.FixedExpensePayments.FetchAll(ctx, householdID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	out := make([]core.FixedExpensePayment, 0, len(all))
	for _, p := range all {
		if p.FixedExpenseID == fixedExpenseID {
			out = append(out, p)
		}
	}
	return out, nil
}

// RecordFixedIncomeReceipt registers the receipt of a fixed income for one
// reference month. The amount defaults to the income's own.
func (s *LedgerService) RecordFixedIncomeReceipt(ctx context.Context, householdID, fixedIncomeID uuid.UUID, r core.FixedIncomeReceipt) (core.FixedIncomeReceipt, error) {
	fi, err := s.FixedIncomes.Get(ctx, householdID, fixedIncomeID)
	if err != nil {
		return core.FixedIncomeReceipt{}, err
	}

	r.Record = core.Record{HouseholdID: householdID}
	r.FixedIncomeID = fi.ID
	if r.ReferenceMonth.IsZero() && !r.ReceivedDate.IsEmpty() {
		r.ReferenceMonth = r.ReceivedDate.Period()
	}
	if r.ReceivedAmount.IsZero() {
		r.ReceivedAmount = fi.Amount
	}
	if err := r.Validate(); err != nil {
		return core.FixedIncomeReceipt{}, err
	}

	existing, err := s.FixedIncomeReceipts(ctx, householdID, fixedIncomeID)
	if err != nil {
		return core.FixedIncomeReceipt{}, err
	}
	for _, e := range existing {
		if e.ReferenceMonth == r.ReferenceMonth {
			return core.FixedIncomeReceipt{}, core.Invalid("referenceMonth", ErrAlreadySettled)
		}
	}

	created, err := s.store.FixedIncomeReceipts.Create(ctx, r)
	if err != nil {
		return core.FixedIncomeReceipt{}, fmt.Errorf("record receipt: %w", err)
	}
	s.changed(ctx, householdID, EntityFixedIncomeReceipt, created.ID, log.OpRecord, created.ReferenceMonth)
	return created, nil
}

// FixedIncomeReceipts lists the receipts of one fixed income.
func (s *LedgerService) FixedIncomeReceipts(ctx context.Context, householdID, fixedIncomeID uuid.UUID) ([]core.FixedIncomeReceipt, error) {
	if _, err := s.FixedIncomes.Get(ctx, householdID, fixedIncomeID); err != nil {
		return nil, err
	}
	all, err := s.store.FixedIncomeReceipts.FetchAll(ctx, householdID)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	out := make([]core.FixedIncomeReceipt, 0, len(all))
	for _, r := range all {
		if r.FixedIncomeID == fixedIncomeID {
			out = append(out, r)
		}
	}
	return out, nil
}

// applyMovement returns the balance after m, rejecting overdrafts.
func applyMovement(current decimal.Decimal, m core.Movement) (decimal.Decimal, error) {
	next := current.Add(m.Signed())
	if next.IsNegative() {
		return current, core.Invalid("amount", core.ErrInsufficientFunds)
	}
	return next, nil
}

// RecordReserveMovement deposits into or withdraws from a reserve and
// returns the movement with the updated reserve.
func (s *LedgerService) RecordReserveMovement(ctx context.Context, householdID, reserveID uuid.UUID, m core.Movement) (core.ReserveTransaction, core.Reserve, error) {
	rt := core.ReserveTransaction{
		Record:    core.Record{HouseholdID: householdID},
		ReserveID: reserveID,
		Movement:  m,
	}
	if err := rt.Validate(); err != nil {
		return core.ReserveTransaction{}, core.Reserve{}, err
	}

	// The balance moves first; the movement row is written outside that
	// transaction and the balance is restored if the write fails.
	reserve, err := s.store.Reserves.Update(ctx, reserveID, func(r *core.Reserve) error {
		if r.HouseholdID != householdID {
			return fmt.Errorf("reserve %s: %w", reserveID, store.ErrNotFound)
		}
		next, err := applyMovement(r.CurrentAmount, m)
		if err != nil {
			return err
		}
		r.CurrentAmount = next
		return nil
	})
	if err != nil {
		return core.ReserveTransaction{}, core.Reserve{}, fmt.Errorf("update reserve: %w", err)
	}

	created, err := s.store.ReserveTransactions.Create(ctx, rt)
	if err != nil {
		if _, rerr := s.store.Reserves.Update(ctx, reserveID, func(r *core.Reserve) error {
			r.CurrentAmount = r.CurrentAmount.Sub(m.Signed())
			return nil
		}); rerr != nil {
			s.structured.LogError(ctx, "Failed to restore reserve balance", rerr, log.ComponentLedger, log.OpRecord,
				log.NewFields().WithRecord(householdID.String(), EntityReserve, reserveID.String()))
		}
		return core.ReserveTransaction{}, core.Reserve{}, fmt.Errorf("record reserve movement: %w", err)
	}

	s.changed(ctx, householdID, EntityReserveTransaction, created.ID, log.OpRecord)
	return created, reserve, nil
}

// ReserveMovements lists the movements of one reserve.
func (s *LedgerService) ReserveMovements(ctx context.Context, householdID, reserveID uuid.UUID) ([]core.ReserveTransaction, error) {
	if _, err := s.Reserves.Get(ctx, householdID, reserveID); err != nil {
		return nil, err
	}
	all, err := s.store.ReserveTransactions.FetchAll(ctx, householdID)
	if err != nil {
		return nil, fmt.Errorf("list reserve movements: %w", err)
	}
	out := make([]core.ReserveTransaction, 0, len(all))
	for _, t := range all {
		if t.ReserveID == reserveID {
			out = append(out, t)
		}
	}
	return out, nil
}

// RecordGoalMovement deposits into or withdraws from a goal. Reaching the
// target marks the goal completed; falling below it reopens the goal.
func (s *LedgerService) RecordGoalMovement(ctx context.Context, householdID, goalID uuid.UUID, m core.Movement) (core.GoalTransaction, core.FinancialGoal, error) {
	gt := core.GoalTransaction{
		Record:   core.Record{HouseholdID: householdID},
		GoalID:   goalID,
		Movement: m,
	}
	if err := gt.Validate(); err != nil {
		return core.GoalTransaction{}, core.FinancialGoal{}, err
	}

	var wasCompleted bool
	var completedDate core.Date
	goal, err := s.store.Goals.Update(ctx, goalID, func(g *core.FinancialGoal) error {
		if g.HouseholdID != householdID {
			return fmt.Errorf("goal %s: %w", goalID, store.ErrNotFound)
		}
		next, err := applyMovement(g.CurrentAmount, m)
		if err != nil {
			return err
		}
		wasCompleted, completedDate = g.IsCompleted, g.CompletedDate
		g.CurrentAmount = next
		switch {
		case next.GreaterThanOrEqual(g.TargetAmount) && !g.IsCompleted:
			g.IsCompleted = true
			g.CompletedDate = m.Date
		case next.LessThan(g.TargetAmount) && g.IsCompleted:
			g.IsCompleted = false
			g.CompletedDate = core.Date{}
		}
		return nil
	})
	if err != nil {
		return core.GoalTransaction{}, core.FinancialGoal{}, fmt.Errorf("update goal: %w", err)
	}

	created, err := s.store.GoalTransactions.Create(ctx, gt)
	if err != nil {
		if _, rerr := s.store.Goals.Update(ctx, goalID, func(g *core.FinancialGoal) error {
			g.CurrentAmount = g.CurrentAmount.Sub(m.Signed())
			g.IsCompleted, g.CompletedDate = wasCompleted, completedDate
			return nil
		}); rerr != nil {
			s.structured.LogError(ctx, "Failed to restore goal balance", rerr, log.ComponentLedger, log.OpRecord,
				log.NewFields().WithRecord(householdID.String(), EntityGoal, goalID.String()))
		}
		return core.GoalTransaction{}, core.FinancialGoal{}, fmt.Errorf("record goal movement: %w", err)
	}

	s.changed(ctx, householdID, EntityGoalTransaction, created.ID, log.OpRecord)
	return created, goal, nil
}

// GoalMovements lists the movements of one goal.
func (s *LedgerService) GoalMovements(ctx context.Context, householdID, goalID uuid.UUID) ([]core.GoalTransaction, error) {
	if _, err := s.Goals.Get(ctx, householdID, goalID); err != nil {
		return nil, err
	}
	all, err := s.store.GoalTransactions.FetchAll(ctx, householdID)
	if err != nil {
		return nil, fmt.Errorf("list goal movements: %w", err)
	}
	out := make([]core.GoalTransaction, 0, len(all))
	for _, t := range all {
		if t.GoalID == goalID {
			out = append(out, t)
		}
	}
	return out, nil
}
