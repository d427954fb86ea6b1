package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTransaction() Transaction {
	return Transaction{
		Type:   Expense,
		Amount: decimal.NewFromInt(90),
		Date:   NewDate(2025, time.March, 10),
		Owner:  PersonA,
	}
}

func TestTransactionValidate(t *testing.T) {
	require.NoError(t, validTransaction().Validate())

	cases := []struct {
		name   string
		mutate func(*Transaction)
		cause  error
	}{
		{"zero amount", func(tx *Transaction) { tx.Amount = decimal.Zero }, ErrInvalidAmount},
		{"missing date", func(tx *Transaction) { tx.Date = Date{} }, ErrMissingDate},
		{"bad type", func(tx *Transaction) { tx.Type = "transfer" }, ErrInvalidType},
		{"bad owner", func(tx *Transaction) { tx.Owner = "neighbour" }, ErrInvalidOwner},
		{"bad payment method", func(tx *Transaction) { tx.PaymentMethod = "cheque" }, ErrInvalidPaymentMethod},
		{"proportions not summing to 100", func(tx *Transaction) {
			tx.Owner = Proportional
			tx.ProportionA = decimal.NewNullDecimal(decimal.NewFromInt(30))
			tx.ProportionB = decimal.NewNullDecimal(decimal.NewFromInt(60))
		}, ErrInvalidProportion},
		{"proportion out of range", func(tx *Transaction) {
			tx.Owner = Proportional
			tx.ProportionA = decimal.NewNullDecimal(decimal.NewFromInt(120))
		}, ErrInvalidProportion},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tx := validTransaction()
			tc.mutate(&tx)
			err := tx.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
			assert.ErrorIs(t, err, tc.cause)
		})
	}
}

func TestTransactionValidateProportionalDefaults(t *testing.T) {
	tx := validTransaction()
	tx.Owner = Proportional
	assert.NoError(t, tx.Validate(), "absent proportions default to 50/50")

	tx.ProportionA = decimal.NewNullDecimal(decimal.NewFromInt(70))
	assert.NoError(t, tx.Validate(), "absent proportionB complements proportionA")
}

func TestTransactionCheckIntegrity(t *testing.T) {
	tx := validTransaction()
	tx.ID = uuid.New()
	require.NoError(t, tx.CheckIntegrity())

	tx.Date = Date{}
	err := tx.CheckIntegrity()
	assert.ErrorIs(t, err, ErrDataIntegrity)
	assert.Contains(t, err.Error(), tx.ID.String())

	tx = validTransaction()
	tx.Type = ""
	assert.ErrorIs(t, tx.CheckIntegrity(), ErrDataIntegrity)

	tx = validTransaction()
	tx.Amount = decimal.NewFromInt(-1)
	assert.ErrorIs(t, tx.CheckIntegrity(), ErrDataIntegrity)
}

func TestFixedExpenseValidate(t *testing.T) {
	fe := FixedExpense{
		Name:   "Rent",
		Amount: decimal.NewFromInt(1500),
		DueDay: 5,
		Owner:  Both,
	}
	require.NoError(t, fe.Validate())

	fe.DueDay = 32
	assert.ErrorIs(t, fe.Validate(), ErrInvalidDay)

	fe.DueDay = 5
	fe.IsInstallment = true
	assert.ErrorIs(t, fe.Validate(), ErrInvalidInstallment)

	fe.TotalInstallments = 10
	fe.InstallmentNumber = 3
	assert.NoError(t, fe.Validate())

	fe.StartDate = NewDate(2025, time.May, 1)
	fe.EndDate = NewDate(2025, time.January, 1)
	assert.ErrorIs(t, fe.Validate(), ErrDateOrder)
}

func TestFixedIncomeValidate(t *testing.T) {
	fi := FixedIncome{
		Name:       "Salary",
		Amount:     decimal.NewFromInt(5000),
		ReceiptDay: 5,
		Owner:      PersonB,
		StartDate:  NewDate(2025, time.January, 1),
	}
	require.NoError(t, fi.Validate())

	fi.Owner = Proportional
	assert.ErrorIs(t, fi.Validate(), ErrInvalidOwner)

	fi.Owner = PersonB
	fi.IsIndefinite = true
	fi.EndDate = NewDate(2025, time.June, 1)
	assert.ErrorIs(t, fi.Validate(), ErrValidation)
}

func TestMovementAndGoal(t *testing.T) {
	m := Movement{Type: Withdrawal, Amount: decimal.NewFromInt(20), Date: NewDate(2025, 1, 2)}
	require.NoError(t, m.Validate())
	assert.Equal(t, "-20", m.Signed().String())

	g := FinancialGoal{TargetAmount: decimal.NewFromInt(200), CurrentAmount: decimal.NewFromInt(50)}
	assert.Equal(t, "25", g.Progress().String())
	g.CurrentAmount = decimal.NewFromInt(500)
	assert.Equal(t, "100", g.Progress().String())
}

func TestDateJSON(t *testing.T) {
	var tx Transaction
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2025-03-10","endDate":null}`), &tx))
	assert.Equal(t, NewDate(2025, time.March, 10), tx.Date)

	require.NoError(t, json.Unmarshal([]byte(`{"date":"2025-03-10T15:04:05Z"}`), &tx))
	assert.Equal(t, "2025-03-10", tx.Date.String())

	out, err := json.Marshal(FixedIncome{StartDate: NewDate(2025, 1, 1)})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"startDate":"2025-01-01"`)
	assert.Contains(t, string(out), `"endDate":null`)
}

func TestDateScan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan("2025-02-28"))
	assert.Equal(t, NewDate(2025, time.February, 28), d)
	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsEmpty())
	require.NoError(t, d.Scan(time.Date(2025, 4, 1, 13, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2025-04-01", d.String())

	v, err := Date{}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}
