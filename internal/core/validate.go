package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrValidation marks write-side input errors.
	ErrValidation = errors.New("validation failed")
	// ErrDataIntegrity marks stored records missing required fields.
	ErrDataIntegrity = errors.New("data integrity violation")

	ErrInvalidDay           = errors.New("invalid day")
	ErrInvalidMonth         = errors.New("invalid month")
	ErrInvalidYear          = errors.New("invalid year")
	ErrInvalidDate          = errors.New("invalid date")
	ErrMissingDate          = errors.New("date is required")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrEmptyName            = errors.New("empty name")
	ErrTooLong              = errors.New("text too long")
	ErrInvalidType          = errors.New("invalid type")
	ErrInvalidOwner         = errors.New("invalid owner")
	ErrInvalidProportion    = errors.New("proportions must be between 0 and 100 and sum to 100")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrInvalidRecurrence    = errors.New("invalid recurrence")
	ErrInvalidInstallment   = errors.New("invalid installment")
	ErrDateOrder            = errors.New("end date must not be before start date")
	ErrMissingReference     = errors.New("missing parent reference")
	ErrInsufficientFunds    = errors.New("withdrawal exceeds current amount")
	ErrInvalidCurrency      = errors.New("invalid currency")
)

const (
	maxNameLen        = 100
	maxDescriptionLen = 200
	maxNotesLen       = 1000
)

// FieldError reports an invalid field. It matches both ErrValidation and
// the underlying cause with errors.Is.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Err.Error() }

func (e *FieldError) Unwrap() []error { return []error{ErrValidation, e.Err} }

func invalid(field string, err error) error {
	return &FieldError{Field: field, Err: err}
}

// Invalid wraps err as a validation failure of field.
func Invalid(field string, err error) error { return invalid(field, err) }

// IntegrityError builds a data-integrity error naming the offending record.
func IntegrityError(kind string, id uuid.UUID, problem string) error {
	return fmt.Errorf("%w: %s %s: %s", ErrDataIntegrity, kind, id, problem)
}

func validateName(field, name string, max int) error {
	if strings.TrimSpace(name) == "" {
		return invalid(field, ErrEmptyName)
	}
	if len(name) > max {
		return invalid(field, fmt.Errorf("%w (max %d characters)", ErrTooLong, max))
	}
	return nil
}

func validateText(field, text string, max int) error {
	if len(text) > max {
		return invalid(field, fmt.Errorf("%w (max %d characters)", ErrTooLong, max))
	}
	return nil
}

func validatePositive(field string, d decimal.Decimal) error {
	if !d.IsPositive() {
		return invalid(field, ErrInvalidAmount)
	}
	return nil
}

func validateNonNegative(field string, d decimal.Decimal) error {
	if d.IsNegative() {
		return invalid(field, ErrInvalidAmount)
	}
	return nil
}

func validateDay(field string, day int) error {
	if day < 1 || day > 31 {
		return invalid(field, ErrInvalidDay)
	}
	return nil
}

func validateRange(start, end Date) error {
	if !start.IsEmpty() && !end.IsEmpty() && end.Before(start.Time) {
		return invalid("endDate", ErrDateOrder)
	}
	return nil
}

func validateOptionalPaymentMethod(m PaymentMethod) error {
	if m != "" && !m.Valid() {
		return invalid("paymentMethod", ErrInvalidPaymentMethod)
	}
	return nil
}

// validateSplit checks the owner and, for proportional splits, that the
// resolved percentages are within range and sum to 100.
func validateSplit(owner Owner, a, b decimal.NullDecimal) error {
	if !owner.Valid() {
		return invalid("owner", ErrInvalidOwner)
	}
	if owner != Proportional {
		return nil
	}
	pa, pb := ResolveProportions(a, b)
	if pa.IsNegative() || pb.IsNegative() || pa.GreaterThan(hundred) || pb.GreaterThan(hundred) {
		return invalid("proportionA", ErrInvalidProportion)
	}
	if !pa.Add(pb).Equal(hundred) {
		return invalid("proportionA", ErrInvalidProportion)
	}
	return nil
}

func (h Household) Validate() error {
	if err := validateName("personAName", h.PersonAName, maxNameLen); err != nil {
		return err
	}
	if err := validateName("personBName", h.PersonBName, maxNameLen); err != nil {
		return err
	}
	if len(h.Currency) != 3 {
		return invalid("currency", ErrInvalidCurrency)
	}
	return validateDay("closingDay", h.ClosingDay)
}

func (c Category) Validate() error {
	if err := validateName("name", c.Name, 50); err != nil {
		return err
	}
	if !c.Type.Valid() {
		return invalid("type", ErrInvalidType)
	}
	if c.MonthlyBudget.Valid {
		return validateNonNegative("monthlyBudget", c.MonthlyBudget.Decimal)
	}
	return nil
}

func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return invalid("type", ErrInvalidType)
	}
	if err := validatePositive("amount", t.Amount); err != nil {
		return err
	}
	if err := t.Date.Validate(); err != nil {
		return invalid("date", err)
	}
	if err := validateText("description", t.Description, maxDescriptionLen); err != nil {
		return err
	}
	if err := validateSplit(t.Owner, t.ProportionA, t.ProportionB); err != nil {
		return err
	}
	if err := validateOptionalPaymentMethod(t.PaymentMethod); err != nil {
		return err
	}
	if t.Recurrence != "" && !t.Recurrence.Valid() {
		return invalid("recurrence", ErrInvalidRecurrence)
	}
	return validateText("notes", t.Notes, maxNotesLen)
}

// CheckIntegrity reports stored transactions that cannot be aggregated.
func (t Transaction) CheckIntegrity() error {
	switch {
	case t.Date.IsEmpty():
		return IntegrityError("transaction", t.ID, "missing date")
	case t.Type == "":
		return IntegrityError("transaction", t.ID, "missing type")
	case !t.Type.Valid():
		return IntegrityError("transaction", t.ID, fmt.Sprintf("unknown type %q", t.Type))
	case t.Amount.IsNegative():
		return IntegrityError("transaction", t.ID, "negative amount")
	}
	return nil
}

func (fe FixedExpense) Validate() error {
	if err := validateName("name", fe.Name, maxNameLen); err != nil {
		return err
	}
	if err := validateText("description", fe.Description, maxDescriptionLen); err != nil {
		return err
	}
	if err := validatePositive("amount", fe.Amount); err != nil {
		return err
	}
	if err := validateDay("dueDay", fe.DueDay); err != nil {
		return err
	}
	if err := validateSplit(fe.Owner, fe.ProportionA, fe.ProportionB); err != nil {
		return err
	}
	if err := validateOptionalPaymentMethod(fe.PaymentMethod); err != nil {
		return err
	}
	if fe.IsInstallment {
		if fe.TotalInstallments < 1 {
			return invalid("totalInstallments", ErrInvalidInstallment)
		}
		if fe.InstallmentNumber < 1 || fe.InstallmentNumber > fe.TotalInstallments {
			return invalid("installmentNumber", ErrInvalidInstallment)
		}
	}
	if err := validateRange(fe.StartDate, fe.EndDate); err != nil {
		return err
	}
	return validateText("notes", fe.Notes, maxNotesLen)
}

func (fe FixedExpense) CheckIntegrity() error {
	if fe.Amount.IsNegative() {
		return IntegrityError("fixed expense", fe.ID, "negative amount")
	}
	return nil
}

func (p FixedExpensePayment) Validate() error {
	if p.FixedExpenseID == uuid.Nil {
		return invalid("fixedExpenseId", ErrMissingReference)
	}
	if err := p.ReferenceMonth.Validate(); err != nil {
		return invalid("referenceMonth", err)
	}
	if err := p.PaidDate.Validate(); err != nil {
		return invalid("paidDate", err)
	}
	if err := validatePositive("paidAmount", p.PaidAmount); err != nil {
		return err
	}
	if p.PaidBy != "" && !p.PaidBy.ValidIncomeOwner() {
		return invalid("paidBy", ErrInvalidOwner)
	}
	return validateOptionalPaymentMethod(p.PaymentMethod)
}

func (fi FixedIncome) Validate() error {
	if err := validateName("name", fi.Name, maxNameLen); err != nil {
		return err
	}
	if err := validateText("description", fi.Description, maxDescriptionLen); err != nil {
		return err
	}
	if err := validatePositive("amount", fi.Amount); err != nil {
		return err
	}
	if err := validateDay("receiptDay", fi.ReceiptDay); err != nil {
		return err
	}
	if !fi.Owner.ValidIncomeOwner() {
		return invalid("owner", ErrInvalidOwner)
	}
	if err := fi.StartDate.Validate(); err != nil {
		return invalid("startDate", err)
	}
	if fi.IsIndefinite && !fi.EndDate.IsEmpty() {
		return invalid("endDate", errors.New("indefinite income cannot have an end date"))
	}
	if err := validateRange(fi.StartDate, fi.EndDate); err != nil {
		return err
	}
	return validateText("notes", fi.Notes, maxNotesLen)
}

func (fi FixedIncome) CheckIntegrity() error {
	if fi.Amount.IsNegative() {
		return IntegrityError("fixed income", fi.ID, "negative amount")
	}
	return nil
}

func (r FixedIncomeReceipt) Validate() error {
	if r.FixedIncomeID == uuid.Nil {
		return invalid("fixedIncomeId", ErrMissingReference)
	}
	if err := r.ReferenceMonth.Validate(); err != nil {
		return invalid("referenceMonth", err)
	}
	if err := r.ReceivedDate.Validate(); err != nil {
		return invalid("receivedDate", err)
	}
	if err := validatePositive("receivedAmount", r.ReceivedAmount); err != nil {
		return err
	}
	if r.ReceivedBy != "" && !r.ReceivedBy.ValidIncomeOwner() {
		return invalid("receivedBy", ErrInvalidOwner)
	}
	return nil
}

func (r Reserve) Validate() error {
	if err := validateName("name", r.Name, maxNameLen); err != nil {
		return err
	}
	if err := validateText("description", r.Description, maxDescriptionLen); err != nil {
		return err
	}
	if r.TargetAmount.Valid {
		if err := validatePositive("targetAmount", r.TargetAmount.Decimal); err != nil {
			return err
		}
	}
	return validateNonNegative("currentAmount", r.CurrentAmount)
}

func (m Movement) Validate() error {
	if !m.Type.Valid() {
		return invalid("type", ErrInvalidType)
	}
	if err := validatePositive("amount", m.Amount); err != nil {
		return err
	}
	if err := m.Date.Validate(); err != nil {
		return invalid("date", err)
	}
	return validateText("description", m.Description, maxDescriptionLen)
}

func (t ReserveTransaction) Validate() error {
	if t.ReserveID == uuid.Nil {
		return invalid("reserveId", ErrMissingReference)
	}
	return t.Movement.Validate()
}

func (g FinancialGoal) Validate() error {
	if err := validateName("name", g.Name, maxNameLen); err != nil {
		return err
	}
	if err := validateText("description", g.Description, maxDescriptionLen); err != nil {
		return err
	}
	if err := validatePositive("targetAmount", g.TargetAmount); err != nil {
		return err
	}
	if err := validateNonNegative("currentAmount", g.CurrentAmount); err != nil {
		return err
	}
	if !g.TimeFrame.Valid() {
		return invalid("timeFrame", ErrInvalidType)
	}
	if !g.Priority.Valid() {
		return invalid("priority", ErrInvalidType)
	}
	if err := g.StartDate.Validate(); err != nil {
		return invalid("startDate", err)
	}
	if !g.TargetDate.IsEmpty() && g.TargetDate.Before(g.StartDate.Time) {
		return invalid("targetDate", ErrDateOrder)
	}
	return nil
}

func (t GoalTransaction) Validate() error {
	if t.GoalID == uuid.Nil {
		return invalid("goalId", ErrMissingReference)
	}
	return t.Movement.Validate()
}

func (s DebtSettlement) Validate() error {
	if err := validateName("name", s.Name, maxNameLen); err != nil {
		return err
	}
	if !s.ReferenceType.Valid() {
		return invalid("referenceType", ErrInvalidType)
	}
	if err := validatePositive("originalAmount", s.OriginalAmount); err != nil {
		return err
	}
	if err := validateNonNegative("settledAmount", s.SettledAmount); err != nil {
		return err
	}
	if !s.Owner.ValidIncomeOwner() {
		return invalid("owner", ErrInvalidOwner)
	}
	if err := s.SettlementDate.Validate(); err != nil {
		return invalid("settlementDate", err)
	}
	return validateText("notes", s.Notes, maxNotesLen)
}
