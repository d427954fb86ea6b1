package core

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	PersonA      Owner = "person_a"
	PersonB      Owner = "person_b"
	Both         Owner = "both"
	Proportional Owner = "proportional"
)

const (
	Cash     PaymentMethod = "cash"
	Debit    PaymentMethod = "debit"
	Credit   PaymentMethod = "credit"
	Pix      PaymentMethod = "pix"
	BankSlip PaymentMethod = "bank_slip"
)

const (
	Once    Recurrence = "once"
	Daily   Recurrence = "daily"
	Weekly  Recurrence = "weekly"
	Monthly Recurrence = "monthly"
	Yearly  Recurrence = "yearly"
)

const (
	Deposit    MovementType = "deposit"
	Withdrawal MovementType = "withdrawal"
)

const (
	ShortTerm  TimeFrame = "short"
	MediumTerm TimeFrame = "medium"
	LongTerm   TimeFrame = "long"
)

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

const (
	RefFixedExpense SettlementReference = "fixed_expense"
	RefInstallment  SettlementReference = "installment"
	RefTransaction  SettlementReference = "transaction"
	RefOther        SettlementReference = "other"
)

type (
	TransactionType     string
	Owner               string
	PaymentMethod       string
	Recurrence          string
	MovementType        string
	TimeFrame           string
	Priority            string
	SettlementReference string

	// Record holds the identity fields the store assigns on create.
	Record struct {
		ID          uuid.UUID `json:"id"`
		HouseholdID uuid.UUID `json:"householdId"`
		CreatedAt   time.Time `json:"createdAt"`
		UpdatedAt   time.Time `json:"updatedAt"`
	}

	Household struct {
		ID          uuid.UUID `json:"id"`
		PersonAID   uuid.UUID `json:"personAId"`
		PersonBID   uuid.UUID `json:"personBId"`
		PersonAName string    `json:"personAName"`
		PersonBName string    `json:"personBName"`
		Currency    string    `json:"currency"`
		// ClosingDay is informational: month membership uses calendar months.
		ClosingDay int `json:"closingDay"`
	}

	Category struct {
		Record
		Name          string              `json:"name"`
		Icon          string              `json:"icon"`
		Color         string              `json:"color"`
		Type          TransactionType     `json:"type"`
		IsDefault     bool                `json:"isDefault"`
		MonthlyBudget decimal.NullDecimal `json:"monthlyBudget"`
	}

	Transaction struct {
		Record
		Type          TransactionType     `json:"type"`
		Amount        decimal.Decimal     `json:"amount"`
		Description   string              `json:"description"`
		Date          Date                `json:"date"`
		CategoryID    uuid.UUID           `json:"categoryId"`
		Owner         Owner               `json:"owner"`
		ProportionA   decimal.NullDecimal `json:"proportionA"`
		ProportionB   decimal.NullDecimal `json:"proportionB"`
		PaymentMethod PaymentMethod       `json:"paymentMethod"`
		Recurrence    Recurrence          `json:"recurrence"`
		Notes         string              `json:"notes"`
	}

	FixedExpense struct {
		Record
		Name              string              `json:"name"`
		Description       string              `json:"description"`
		Amount            decimal.Decimal     `json:"amount"`
		CategoryID        uuid.UUID           `json:"categoryId"`
		Owner             Owner               `json:"owner"`
		ProportionA       decimal.NullDecimal `json:"proportionA"`
		ProportionB       decimal.NullDecimal `json:"proportionB"`
		DueDay            int                 `json:"dueDay"`
		PaymentMethod     PaymentMethod       `json:"paymentMethod"`
		IsInstallment     bool                `json:"isInstallment"`
		InstallmentNumber int                 `json:"installmentNumber"`
		TotalInstallments int                 `json:"totalInstallments"`
		StartDate         Date                `json:"startDate"`
		EndDate           Date                `json:"endDate"`
		IsActive          bool                `json:"isActive"`
		Notes             string              `json:"notes"`
	}

	FixedExpensePayment struct {
		Record
		FixedExpenseID uuid.UUID       `json:"fixedExpenseId"`
		ReferenceMonth Period          `json:"referenceMonth"`
		PaidDate       Date            `json:"paidDate"`
		PaidAmount     decimal.Decimal `json:"paidAmount"`
		PaymentMethod  PaymentMethod   `json:"paymentMethod"`
		PaidBy         Owner           `json:"paidBy"`
	}

	FixedIncome struct {
		Record
		Name         string          `json:"name"`
		Description  string          `json:"description"`
		Amount       decimal.Decimal `json:"amount"`
		CategoryID   uuid.UUID       `json:"categoryId"`
		Owner        Owner           `json:"owner"`
		ReceiptDay   int             `json:"receiptDay"`
		IsIndefinite bool            `json:"isIndefinite"`
		StartDate    Date            `json:"startDate"`
		EndDate      Date            `json:"endDate"`
		IsActive     bool            `json:"isActive"`
		Notes        string          `json:"notes"`
	}

	FixedIncomeReceipt struct {
		Record
		FixedIncomeID  uuid.UUID       `json:"fixedIncomeId"`
		ReferenceMonth Period          `json:"referenceMonth"`
		ReceivedDate   Date            `json:"receivedDate"`
		ReceivedAmount decimal.Decimal `json:"receivedAmount"`
		ReceivedBy     Owner           `json:"receivedBy"`
	}

	Reserve struct {
		Record
		Name          string              `json:"name"`
		Description   string              `json:"description"`
		TargetAmount  decimal.NullDecimal `json:"targetAmount"`
		CurrentAmount decimal.Decimal     `json:"currentAmount"`
		TargetDate    Date                `json:"targetDate"`
		IsEmergency   bool                `json:"isEmergency"`
		Color         string              `json:"color"`
	}

	// Movement is a deposit into or withdrawal from a reserve or goal.
	Movement struct {
		Type        MovementType    `json:"type"`
		Amount      decimal.Decimal `json:"amount"`
		Description string          `json:"description"`
		Date        Date            `json:"date"`
	}

	ReserveTransaction struct {
		Record
		ReserveID uuid.UUID `json:"reserveId"`
		Movement
	}

	FinancialGoal struct {
		Record
		Name          string          `json:"name"`
		Description   string          `json:"description"`
		TargetAmount  decimal.Decimal `json:"targetAmount"`
		CurrentAmount decimal.Decimal `json:"currentAmount"`
		TimeFrame     TimeFrame       `json:"timeFrame"`
		StartDate     Date            `json:"startDate"`
		TargetDate    Date            `json:"targetDate"`
		Priority      Priority        `json:"priority"`
		Icon          string          `json:"icon"`
		IsCompleted   bool            `json:"isCompleted"`
		CompletedDate Date            `json:"completedDate"`
		IsActive      bool            `json:"isActive"`
	}

	GoalTransaction struct {
		Record
		GoalID uuid.UUID `json:"goalId"`
		Movement
	}

	DebtSettlement struct {
		Record
		ReferenceType   SettlementReference `json:"referenceType"`
		ReferenceID     uuid.UUID           `json:"referenceId"`
		Name            string              `json:"name"`
		OriginalAmount  decimal.Decimal     `json:"originalAmount"`
		SettledAmount   decimal.Decimal     `json:"settledAmount"`
		Owner           Owner               `json:"owner"`
		SettlementDate  Date                `json:"settlementDate"`
		OriginalDueDate Date                `json:"originalDueDate"`
		Notes           string              `json:"notes"`
	}
)

// Meta exposes the identity fields so generic stores can assign them.
func (r *Record) Meta() *Record { return r }

// Entity is satisfied by pointers to every persisted record type.
type Entity[T any] interface {
	*T
	Meta() *Record
	Validate() error
}

func (t TransactionType) Valid() bool { return t == Income || t == Expense }

func (o Owner) Valid() bool {
	switch o {
	case PersonA, PersonB, Both, Proportional:
		return true
	}
	return false
}

// ValidIncomeOwner reports whether o can own a fixed income or a settlement.
func (o Owner) ValidIncomeOwner() bool { return o == PersonA || o == PersonB || o == Both }

func (m PaymentMethod) Valid() bool {
	switch m {
	case Cash, Debit, Credit, Pix, BankSlip:
		return true
	}
	return false
}

func (r Recurrence) Valid() bool {
	switch r {
	case Once, Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

func (m MovementType) Valid() bool { return m == Deposit || m == Withdrawal }

func (f TimeFrame) Valid() bool {
	return f == ShortTerm || f == MediumTerm || f == LongTerm
}

func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

func (s SettlementReference) Valid() bool {
	switch s {
	case RefFixedExpense, RefInstallment, RefTransaction, RefOther:
		return true
	}
	return false
}

// Signed returns the movement amount with withdrawals negated.
func (m Movement) Signed() decimal.Decimal {
	if m.Type == Withdrawal {
		return m.Amount.Neg()
	}
	return m.Amount
}

// Progress is the goal completion percentage, capped at 100.
func (g FinancialGoal) Progress() decimal.Decimal {
	if !g.TargetAmount.IsPositive() {
		return decimal.Zero
	}
	p := g.CurrentAmount.Div(g.TargetAmount).Mul(hundred)
	if p.GreaterThan(hundred) {
		return hundred
	}
	return p
}

// Saved is the amount spared by settling below the original amount.
func (s DebtSettlement) Saved() decimal.Decimal {
	return s.OriginalAmount.Sub(s.SettledAmount)
}

// OwnerLabel resolves an owner to the display name used in reports.
func (h Household) OwnerLabel(o Owner) string {
	switch o {
	case PersonA:
		return h.PersonAName
	case PersonB:
		return h.PersonBName
	case Both:
		return "Both"
	case Proportional:
		return "Proportional"
	}
	return string(o)
}
