package services

import (
	"context"
	"testing"
	"time"

	"financas/internal/core"
)

func TestExpenseChecker_Status(t *testing.T) {
	checker := ExpenseChecker{}
	due := core.NewDate(2025, time.March, 10)

	tests := []struct {
		name    string
		settled bool
		today   core.Date
		want    DueStatus
	}{
		{"paid before due", true, core.NewDate(2025, time.March, 5), StatusPaid},
		{"paid after due", true, core.NewDate(2025, time.March, 20), StatusPaid},
		{"open before due", false, core.NewDate(2025, time.March, 5), StatusPending},
		{"open on due day", false, due, StatusPending},
		{"open after due", false, core.NewDate(2025, time.March, 11), StatusOverdue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checker.Status(tt.settled, due, tt.today)
			if got != tt.want {
				t.Errorf("ExpenseChecker.Status() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIncomeChecker_Status(t *testing.T) {
	checker := IncomeChecker{}
	due := core.NewDate(2025, time.March, 5)

	if got := checker.Status(true, due, core.NewDate(2025, time.March, 1)); got != StatusReceived {
		t.Errorf("IncomeChecker.Status() = %v, want %v", got, StatusReceived)
	}
	if got := checker.Status(false, due, core.NewDate(2025, time.March, 6)); got != StatusOverdue {
		t.Errorf("IncomeChecker.Status() = %v, want %v", got, StatusOverdue)
	}
	if got := checker.Status(false, due, due); got != StatusPending {
		t.Errorf("IncomeChecker.Status() = %v, want %v", got, StatusPending)
	}
}

func TestGetDuenessChecker(t *testing.T) {
	tests := []struct {
		kind    ItemKind
		wantErr bool
	}{
		{KindFixedExpense, false},
		{KindFixedIncome, false},
		{ItemKind("installment"), true},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			checker, err := GetDuenessChecker(tt.kind)
			if (err != nil) != tt.wantErr {
				t.Errorf("GetDuenessChecker() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && checker == nil {
				t.Error("GetDuenessChecker() returned nil checker")
			}
		})
	}
}

func TestLedgerService_DueStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	march := core.NewPeriod(2025, time.March)

	rent := f.rent(t)
	internet, err := f.svc.FixedExpenses.Create(ctx, f.household.ID, core.FixedExpense{
		Name: "Internet", Amount: d("120"), DueDay: 3, Owner: core.PersonB, IsActive: true,
	})
	if err != nil {
		t.Fatalf("create fixed expense: %v", err)
	}
	gym, err := f.svc.FixedExpenses.Create(ctx, f.household.ID, core.FixedExpense{
		Name: "Gym", Amount: d("90"), DueDay: 20, Owner: core.PersonA, IsActive: true,
	})
	if err != nil {
		t.Fatalf("create fixed expense: %v", err)
	}
	if _, err := f.svc.FixedExpenses.Create(ctx, f.household.ID, core.FixedExpense{
		Name: "Old plan", Amount: d("50"), DueDay: 1, Owner: core.PersonA, IsActive: false,
	}); err != nil {
		t.Fatalf("create fixed expense: %v", err)
	}
	salary, err := f.svc.FixedIncomes.Create(ctx, f.household.ID, core.FixedIncome{
		Name: "Salary", Amount: d("5000"), ReceiptDay: 5, Owner: core.PersonA,
		StartDate: core.NewDate(2024, time.January, 1), IsIndefinite: true, IsActive: true,
	})
	if err != nil {
		t.Fatalf("create fixed income: %v", err)
	}

	if _, err := f.svc.RecordFixedExpensePayment(ctx, f.household.ID, rent.ID, core.FixedExpensePayment{
		PaidDate: core.NewDate(2025, time.March, 8),
	}); err != nil {
		t.Fatalf("record payment: %v", err)
	}

	items, err := f.svc.DueStatus(ctx, f.household.ID, march)
	if err != nil {
		t.Fatalf("DueStatus() error = %v", err)
	}

	want := []struct {
		name   string
		status DueStatus
	}{
		{internet.Name, StatusOverdue},
		{rent.Name, StatusPaid},
		{gym.Name, StatusPending},
		{salary.Name, StatusOverdue},
	}
	if len(items) != len(want) {
		t.Fatalf("DueStatus() returned %d items, want %d", len(items), len(want))
	}
	for i, w := range want {
		if items[i].Name != w.name || items[i].Status != w.status {
			t.Errorf("item %d = %s/%s, want %s/%s", i, items[i].Name, items[i].Status, w.name, w.status)
		}
	}
	if items[1].Settlement == nil || !items[1].Settlement.Amount.Equal(d("1500")) {
		t.Errorf("rent settlement = %+v, want paid amount 1500", items[1].Settlement)
	}
	if items[3].Kind != KindFixedIncome {
		t.Errorf("last item kind = %s, want %s", items[3].Kind, KindFixedIncome)
	}
}
