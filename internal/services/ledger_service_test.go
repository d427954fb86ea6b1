package services

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financas/internal/amqp"
	"financas/internal/cache"
	"financas/internal/core"
	"financas/internal/log"
	"financas/internal/store"
	"financas/internal/store/memory"
	"financas/internal/summary"
)

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []*amqp.LedgerChangedMessage
	err  error
}

func (p *recordingPublisher) PublishLedgerChanged(_ context.Context, msg *amqp.LedgerChangedMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

func (p *recordingPublisher) last(t *testing.T) *amqp.LedgerChangedMessage {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	require.NotEmpty(t, p.msgs)
	return p.msgs[len(p.msgs)-1]
}

type countingObserver struct {
	mu           sync.Mutex
	writes       map[string]int
	hits, misses int
}

func (o *countingObserver) LedgerWrite(entity, op string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.writes == nil {
		o.writes = make(map[string]int)
	}
	o.writes[entity+"/"+op]++
}

func (o *countingObserver) CacheLookup(hit bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if hit {
		o.hits++
	} else {
		o.misses++
	}
}

type fixture struct {
	svc       *LedgerService
	st        *store.Store
	household core.Household
	pub       *recordingPublisher
	obs       *countingObserver
	groceries core.Category
	salary    core.Category
	logs      *bytes.Buffer
}

// fixedNow is 2025-03-15, mid-month.
var fixedNow = time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC)

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	ctx := context.Background()
	st := memory.New()
	h := core.Household{
		ID:          uuid.New(),
		PersonAID:   uuid.New(),
		PersonBID:   uuid.New(),
		PersonAName: "Ana",
		PersonBName: "Bruno",
		Currency:    "BRL",
		ClosingDay:  1,
	}
	_, err := store.Seed(ctx, st, h)
	require.NoError(t, err)

	dashboards, err := cache.NewMonthCache[summary.Dashboard](100, time.Minute)
	require.NoError(t, err)
	t.Cleanup(dashboards.Close)

	var logs bytes.Buffer
	logger := log.New(log.Config{Format: "json", Output: &logs})
	pub := &recordingPublisher{}
	obs := &countingObserver{}
	all := append([]Option{
		WithPublisher(pub),
		WithDashboardCache(dashboards),
		WithObserver(obs),
		WithClock(func() time.Time { return fixedNow }),
	}, opts...)
	svc := NewLedgerService(st, logger, all...)

	f := &fixture{svc: svc, st: st, household: h, pub: pub, obs: obs, logs: &logs}
	cats, err := svc.Categories.List(ctx, h.ID)
	require.NoError(t, err)
	for _, c := range cats {
		switch c.Name {
		case "Groceries":
			f.groceries = c
		case "Salary":
			f.salary = c
		}
	}
	require.NotEqual(t, uuid.Nil, f.groceries.ID)
	require.NotEqual(t, uuid.Nil, f.salary.ID)
	return f
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func (f *fixture) expense(t *testing.T, amount string, date core.Date) core.Transaction {
	t.Helper()
	tx, err := f.svc.Transactions.Create(context.Background(), f.household.ID, core.Transaction{
		Type:        core.Expense,
		Amount:      d(amount),
		Description: "market",
		Date:        date,
		CategoryID:  f.groceries.ID,
		Owner:       core.Both,
	})
	require.NoError(t, err)
	return tx
}

func TestCreateTransaction(t *testing.T) {
	f := newFixture(t)
	tx := f.expense(t, "42.50", core.NewDate(2025, time.March, 3))

	assert.NotEqual(t, uuid.Nil, tx.ID)
	assert.Equal(t, f.household.ID, tx.HouseholdID)

	msg := f.pub.last(t)
	assert.Equal(t, EntityTransaction, msg.Entity)
	assert.Equal(t, amqp.OpCreate, msg.Op)
	assert.Equal(t, tx.ID, msg.EntityID)
	assert.Equal(t, []core.Period{core.NewPeriod(2025, time.March)}, msg.Periods)
	assert.Equal(t, 1, f.obs.writes["transaction/create"])
	assert.Contains(t, f.logs.String(), `"entity":"transaction"`)
}

func TestCreateIgnoresClientIdentity(t *testing.T) {
	f := newFixture(t)
	forged := uuid.New()
	tx, err := f.svc.Transactions.Create(context.Background(), f.household.ID, core.Transaction{
		Record: core.Record{ID: forged, HouseholdID: uuid.New()},
		Type:   core.Income, Amount: d("10"), Date: core.NewDate(2025, time.March, 1), Owner: core.PersonA,
	})
	require.NoError(t, err)
	assert.NotEqual(t, forged, tx.ID)
	assert.Equal(t, f.household.ID, tx.HouseholdID)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	march := core.NewDate(2025, time.March, 3)

	cases := map[string]core.Transaction{
		"zero amount":   {Type: core.Expense, Amount: d("0"), Date: march, Owner: core.Both},
		"missing date":  {Type: core.Expense, Amount: d("1"), Owner: core.Both},
		"bad split":     {Type: core.Expense, Amount: d("1"), Date: march, Owner: core.Proportional, ProportionA: decimal.NewNullDecimal(d("70")), ProportionB: decimal.NewNullDecimal(d("20"))},
		"unknown cat":   {Type: core.Expense, Amount: d("1"), Date: march, Owner: core.Both, CategoryID: uuid.New()},
		"category type": {Type: core.Expense, Amount: d("1"), Date: march, Owner: core.Both, CategoryID: f.salary.ID},
	}
	for name, tx := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Transactions.Create(ctx, f.household.ID, tx)
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrValidation)
		})
	}
	assert.Len(t, f.pub.msgs, 0)
}

func TestGetHidesOtherHouseholds(t *testing.T) {
	f := newFixture(t)
	tx := f.expense(t, "10", core.NewDate(2025, time.March, 3))

	_, err := f.svc.Transactions.Get(context.Background(), uuid.New(), tx.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = f.svc.Transactions.Update(context.Background(), uuid.New(), tx.ID, []byte(`{"amount":"1"}`))
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.ErrorIs(t, f.svc.Transactions.Delete(context.Background(), uuid.New(), tx.ID), store.ErrNotFound)
}

func TestUpdateMergesSuppliedFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tx := f.expense(t, "10", core.NewDate(2025, time.March, 3))

	updated, err := f.svc.Transactions.Update(ctx, f.household.ID, tx.ID,
		[]byte(`{"description":"bakery","id":"`+uuid.NewString()+`"}`))
	require.NoError(t, err)
	assert.Equal(t, "bakery", updated.Description)
	assert.True(t, d("10").Equal(updated.Amount))
	assert.Equal(t, tx.ID, updated.ID)
	assert.Equal(t, tx.CreatedAt, updated.CreatedAt)

	_, err = f.svc.Transactions.Update(ctx, f.household.ID, tx.ID, []byte(`{"amount":"-5"}`))
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = f.svc.Transactions.Update(ctx, f.household.ID, tx.ID, []byte(`{"colour":"red"}`))
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = f.svc.Transactions.Update(ctx, f.household.ID, tx.ID, []byte(`[1]`))
	assert.ErrorIs(t, err, core.ErrValidation)

	stored, err := f.svc.Transactions.Get(ctx, f.household.ID, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, "bakery", stored.Description)
	assert.True(t, d("10").Equal(stored.Amount))
}

func TestUpdateAcrossMonthsInvalidatesBoth(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	march, april := core.NewPeriod(2025, time.March), core.NewPeriod(2025, time.April)
	tx := f.expense(t, "10", march.Day(3))

	_, err := f.svc.Dashboard(ctx, f.household.ID, march)
	require.NoError(t, err)
	_, err = f.svc.Dashboard(ctx, f.household.ID, april)
	require.NoError(t, err)

	_, err = f.svc.Transactions.Update(ctx, f.household.ID, tx.ID, []byte(`{"date":"2025-04-02"}`))
	require.NoError(t, err)

	msg := f.pub.last(t)
	assert.Equal(t, amqp.OpUpdate, msg.Op)
	assert.Equal(t, []core.Period{march, april}, msg.Periods)

	dm, err := f.svc.Dashboard(ctx, f.household.ID, march)
	require.NoError(t, err)
	assert.True(t, dm.Summary.Expense.IsZero())

	da, err := f.svc.Dashboard(ctx, f.household.ID, april)
	require.NoError(t, err)
	assert.True(t, d("10").Equal(da.Summary.Expense))
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	f := newFixture(t)
	f.pub.err = errors.New("broker down")

	tx := f.expense(t, "10", core.NewDate(2025, time.March, 3))
	_, err := f.svc.Transactions.Get(context.Background(), f.household.ID, tx.ID)
	require.NoError(t, err)
	assert.Contains(t, f.logs.String(), "Failed to publish ledger change")
}

func TestWithoutPublisher(t *testing.T) {
	st := memory.New()
	svc := NewLedgerService(st, nil)
	h := uuid.New()
	_, err := svc.Reserves.Create(context.Background(), h, core.Reserve{Name: "Trip"})
	require.NoError(t, err)
}

func TestDeleteCascadesToPayments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fe, err := f.svc.FixedExpenses.Create(ctx, f.household.ID, core.FixedExpense{
		Name: "Rent", Amount: d("1500"), DueDay: 5, Owner: core.Both, IsActive: true,
	})
	require.NoError(t, err)
	_, err = f.svc.RecordFixedExpensePayment(ctx, f.household.ID, fe.ID, core.FixedExpensePayment{
		PaidDate: core.NewDate(2025, time.March, 5),
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.FixedExpenses.Delete(ctx, f.household.ID, fe.ID))

	payments, err := f.st.FixedExpensePayments.FetchAll(ctx, f.household.ID)
	require.NoError(t, err)
	assert.Empty(t, payments)
	assert.Equal(t, amqp.OpDelete, f.pub.last(t).Op)
}

func TestAffectsSummary(t *testing.T) {
	assert.True(t, AffectsSummary(EntityTransaction))
	assert.True(t, AffectsSummary(EntityCategory))
	assert.False(t, AffectsSummary(EntityReserve))
	assert.False(t, AffectsSummary(EntityFixedExpensePayment))
}
