package storage

import "financas/internal/core"

var categories = tableSpec[core.Category]{
	name:    "categories",
	kind:    "category",
	columns: []string{"name", "icon", "color", "type", "is_default", "monthly_budget"},
	fields: func(c *core.Category) []any {
		return []any{&c.Name, &c.Icon, &c.Color, &c.Type, &c.IsDefault, &c.MonthlyBudget}
	},
}

var transactions = tableSpec[core.Transaction]{
	name: "transactions",
	kind: "transaction",
	columns: []string{
		"type", "amount", "description", "date", "category_id", "owner",
		"proportion_a", "proportion_b", "payment_method", "recurrence", "notes",
	},
	fields: func(t *core.Transaction) []any {
		return []any{
			&t.Type, &t.Amount, &t.Description, &t.Date, &t.CategoryID, &t.Owner,
			&t.ProportionA, &t.ProportionB, &t.PaymentMethod, &t.Recurrence, &t.Notes,
		}
	},
}

var fixedExpenses = tableSpec[core.FixedExpense]{
	name: "fixed_expenses",
	kind: "fixed expense",
	columns: []string{
		"name", "description", "amount", "category_id", "owner", "proportion_a", "proportion_b",
		"due_day", "payment_method", "is_installment", "installment_number", "total_installments",
		"start_date", "end_date", "is_active", "notes",
	},
	fields: func(f *core.FixedExpense) []any {
		return []any{
			&f.Name, &f.Description, &f.Amount, &f.CategoryID, &f.Owner, &f.ProportionA, &f.ProportionB,
			&f.DueDay, &f.PaymentMethod, &f.IsInstallment, &f.InstallmentNumber, &f.TotalInstallments,
			&f.StartDate, &f.EndDate, &f.IsActive, &f.Notes,
		}
	},
}

var fixedExpensePayments = tableSpec[core.FixedExpensePayment]{
	name:    "fixed_expense_payments",
	kind:    "fixed expense payment",
	columns: []string{"fixed_expense_id", "reference_month", "paid_date", "paid_amount", "payment_method", "paid_by"},
	fields: func(p *core.FixedExpensePayment) []any {
		return []any{&p.FixedExpenseID, &p.ReferenceMonth, &p.PaidDate, &p.PaidAmount, &p.PaymentMethod, &p.PaidBy}
	},
}

var fixedIncomes = tableSpec[core.FixedIncome]{
	name: "fixed_incomes",
	kind: "fixed income",
	columns: []string{
		"name", "description", "amount", "category_id", "owner", "receipt_day",
		"is_indefinite", "start_date", "end_date", "is_active", "notes",
	},
	fields: func(f *core.FixedIncome) []any {
		return []any{
			&f.Name, &f.Description, &f.Amount, &f.CategoryID, &f.Owner, &f.ReceiptDay,
			&f.IsIndefinite, &f.StartDate, &f.EndDate, &f.IsActive, &f.Notes,
		}
	},
}

var fixedIncomeReceipts = tableSpec[core.FixedIncomeReceipt]{
	name:    "fixed_income_receipts",
	kind:    "fixed income receipt",
	columns: []string{"fixed_income_id", "reference_month", "received_date", "received_amount", "received_by"},
	fields: func(r *core.FixedIncomeReceipt) []any {
		return []any{&r.FixedIncomeID, &r.ReferenceMonth, &r.ReceivedDate, &r.ReceivedAmount, &r.ReceivedBy}
	},
}

var reserves = tableSpec[core.Reserve]{
	name:    "reserves",
	kind:    "reserve",
	columns: []string{"name", "description", "target_amount", "current_amount", "target_date", "is_emergency", "color"},
	fields: func(r *core.Reserve) []any {
		return []any{&r.Name, &r.Description, &r.TargetAmount, &r.CurrentAmount, &r.TargetDate, &r.IsEmergency, &r.Color}
	},
}

var reserveTransactions = tableSpec[core.ReserveTransaction]{
	name:    "reserve_transactions",
	kind:    "reserve transaction",
	columns: []string{"reserve_id", "type", "amount", "description", "date"},
	fields: func(t *core.ReserveTransaction) []any {
		return []any{&t.ReserveID, &t.Type, &t.Amount, &t.Description, &t.Date}
	},
}

var goals = tableSpec[core.FinancialGoal]{
	name: "financial_goals",
	kind: "goal",
	columns: []string{
		"name", "description", "target_amount", "current_amount", "time_frame", "start_date",
		"target_date", "priority", "icon", "is_completed", "completed_date", "is_active",
	},
	fields: func(g *core.FinancialGoal) []any {
		return []any{
			&g.Name, &g.Description, &g.TargetAmount, &g.CurrentAmount, &g.TimeFrame, &g.StartDate,
			&g.TargetDate, &g.Priority, &g.Icon, &g.IsCompleted, &g.CompletedDate, &g.IsActive,
		}
	},
}

var goalTransactions = tableSpec[core.GoalTransaction]{
	name:    "goal_transactions",
	kind:    "goal transaction",
	columns: []string{"goal_id", "type", "amount", "description", "date"},
	fields: func(t *core.GoalTransaction) []any {
		return []any{&t.GoalID, &t.Type, &t.Amount, &t.Description, &t.Date}
	},
}

var settlements = tableSpec[core.DebtSettlement]{
	name: "debt_settlements",
	kind: "settlement",
	columns: []string{
		"reference_type", "reference_id", "name", "original_amount", "settled_amount",
		"owner", "settlement_date", "original_due_date", "notes",
	},
	fields: func(s *core.DebtSettlement) []any {
		return []any{
			&s.ReferenceType, &s.ReferenceID, &s.Name, &s.OriginalAmount, &s.SettledAmount,
			&s.Owner, &s.SettlementDate, &s.OriginalDueDate, &s.Notes,
		}
	},
}
