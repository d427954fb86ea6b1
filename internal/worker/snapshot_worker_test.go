package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financas/internal/amqp"
	"financas/internal/core"
	"financas/internal/log"
	"financas/internal/services"
	sheetsmem "financas/internal/sheets/memory"
	"financas/internal/store"
	"financas/internal/store/memory"
)

var fixedNow = time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC)

var march = core.NewPeriod(2025, time.March)

type countingObserver struct {
	ok, failed int
}

func (o *countingObserver) SnapshotRefreshed(err error) {
	if err != nil {
		o.failed++
		return
	}
	o.ok++
}

type fixture struct {
	worker    *SnapshotWorker
	svc       *services.LedgerService
	st        *store.Store
	household core.Household
	groceries uuid.UUID
	exporter  *sheetsmem.Exporter
	observer  *countingObserver
}

func newFixture(t *testing.T) *fixture {
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

	logger := log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
	clock := func() time.Time { return fixedNow }
	svc := services.NewLedgerService(st, logger, services.WithClock(clock))

	f := &fixture{svc: svc, st: st, household: h, exporter: sheetsmem.New(), observer: &countingObserver{}}
	f.worker = NewSnapshotWorker(svc, logger, []core.Household{h},
		WithExporter(f.exporter), WithObserver(f.observer), WithClock(clock))

	cats, err := svc.Categories.List(ctx, h.ID)
	require.NoError(t, err)
	for _, c := range cats {
		if c.Name == "Groceries" {
			f.groceries = c.ID
		}
	}
	require.NotEqual(t, uuid.Nil, f.groceries)
	return f
}

func (f *fixture) expense(t *testing.T, amount string, date core.Date) core.Transaction {
	t.Helper()
	tx, err := f.svc.Transactions.Create(context.Background(), f.household.ID, core.Transaction{
		Type:        core.Expense,
		Amount:      decimal.RequireFromString(amount),
		Description: "market",
		Date:        date,
		CategoryID:  f.groceries,
		Owner:       core.Both,
	})
	require.NoError(t, err)
	return tx
}

func (f *fixture) snapshot(t *testing.T, p core.Period) (store.MonthSnapshot, error) {
	t.Helper()
	return f.st.Snapshots.Get(context.Background(), f.household.ID, p)
}

func TestHandleLedgerChangedRefreshesPeriods(t *testing.T) {
	f := newFixture(t)
	tx := f.expense(t, "90", march.Day(5))

	msg := amqp.NewLedgerChangedMessage(f.household.ID, services.EntityTransaction, tx.ID, amqp.OpCreate, march)
	require.NoError(t, f.worker.HandleLedgerChanged(context.Background(), msg))

	snap, err := f.snapshot(t, march)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("90").Equal(snap.Summary.Expense))
	assert.Equal(t, fixedNow, snap.ComputedAt)

	exported, ok := f.exporter.Month(f.household.ID, march)
	require.True(t, ok)
	assert.Len(t, exported.Items, 1)
	assert.True(t, snap.Summary.Expense.Equal(exported.Summary.Expense))
	assert.Equal(t, 1, f.observer.ok)
}

func TestHandleLedgerChangedSkipsUnrelatedEntities(t *testing.T) {
	f := newFixture(t)

	msg := amqp.NewLedgerChangedMessage(f.household.ID, services.EntityReserve, uuid.New(), amqp.OpUpdate)
	require.NoError(t, f.worker.HandleLedgerChanged(context.Background(), msg))

	_, err := f.snapshot(t, march)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Empty(t, f.exporter.Periods(f.household.ID))
	assert.Zero(t, f.observer.ok)
}

func TestHandleLedgerChangedWithoutPeriods(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	january := core.NewPeriod(2025, time.January)
	f.expense(t, "40", january.Day(10))
	_, err := f.svc.RefreshSnapshot(ctx, f.household.ID, january)
	require.NoError(t, err)
	f.expense(t, "25", january.Day(11))

	// An explicit refresh runs even for entities outside the summary.
	msg := amqp.NewLedgerChangedMessage(f.household.ID, services.EntityReserve, uuid.Nil, amqp.OpRefresh)
	require.NoError(t, f.worker.HandleLedgerChanged(ctx, msg))

	jan, err := f.snapshot(t, january)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("65").Equal(jan.Summary.Expense))

	_, err = f.snapshot(t, march)
	require.NoError(t, err)

	assert.ElementsMatch(t, []core.Period{january, march}, f.exporter.Periods(f.household.ID))
	exported, ok := f.exporter.Month(f.household.ID, january)
	require.True(t, ok)
	assert.Len(t, exported.Items, 2)
}

func TestHandleLedgerChangedUnknownHousehold(t *testing.T) {
	f := newFixture(t)

	msg := amqp.NewLedgerChangedMessage(uuid.New(), services.EntityTransaction, uuid.New(), amqp.OpCreate, march)
	require.NoError(t, f.worker.HandleLedgerChanged(context.Background(), msg))
	assert.Empty(t, f.exporter.Periods(msg.HouseholdID))
	assert.Zero(t, f.observer.ok+f.observer.failed)
}

func TestHandleLedgerChangedExportFailureRequeues(t *testing.T) {
	f := newFixture(t)
	f.exporter.FailWith(errors.New("quota exceeded"))

	msg := amqp.NewLedgerChangedMessage(f.household.ID, services.EntityTransaction, uuid.New(), amqp.OpDelete, march)
	err := f.worker.HandleLedgerChanged(context.Background(), msg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Equal(t, 1, f.observer.failed)

	// The snapshot itself was stored before the export failed.
	_, err = f.snapshot(t, march)
	assert.NoError(t, err)
}

func TestHandleLedgerChangedDropsIntegrityFailures(t *testing.T) {
	f := newFixture(t)
	// Written around the service with no date.
	_, err := f.st.Transactions.Create(context.Background(), core.Transaction{
		Record: core.Record{HouseholdID: f.household.ID},
		Type:   core.Expense, Amount: decimal.NewFromInt(10), Owner: core.Both,
	})
	require.NoError(t, err)

	msg := amqp.NewLedgerChangedMessage(f.household.ID, services.EntityTransaction, uuid.New(), amqp.OpCreate, march)
	assert.NoError(t, f.worker.HandleLedgerChanged(context.Background(), msg))
	assert.Equal(t, 1, f.observer.failed)
	assert.Empty(t, f.exporter.Periods(f.household.ID))
}

func TestRefreshCurrent(t *testing.T) {
	f := newFixture(t)
	f.expense(t, "12.50", march.Day(1))

	require.NoError(t, f.worker.RefreshCurrent(context.Background()))

	snap, err := f.snapshot(t, march)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("12.50").Equal(snap.Summary.Expense))
	assert.Equal(t, 1, f.observer.ok)
}

func TestRefreshCurrentReportsFailures(t *testing.T) {
	f := newFixture(t)
	f.st.Snapshots = nil

	err := f.worker.RefreshCurrent(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), f.household.ID.String())
	assert.Equal(t, 1, f.observer.failed)
}
