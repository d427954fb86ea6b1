package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"financas/internal/amqp"
	"financas/internal/core"
	"financas/internal/log"
	"financas/internal/services"
	"financas/internal/sheets"
	"financas/internal/store"
	"financas/internal/summary"
)

// backfillMonths is how far back an unscoped change looks for stored
// snapshots to recompute.
const backfillMonths = services.MaxTrendMonths

// Observer is notified of every snapshot refresh.
type Observer interface {
	SnapshotRefreshed(err error)
}

type nopObserver struct{}

func (nopObserver) SnapshotRefreshed(error) {}

// SnapshotWorker keeps the stored month summaries in step with ledger
// changes announced over AMQP.
type SnapshotWorker struct {
	svc        *services.LedgerService
	households map[uuid.UUID]core.Household
	exporter   sheets.MonthExporter
	observer   Observer
	logger     *log.Logger
	now        func() time.Time
}

// Option configures a SnapshotWorker.
type Option func(*SnapshotWorker)

// WithExporter mirrors every refreshed month through e.
func WithExporter(e sheets.MonthExporter) Option {
	return func(w *SnapshotWorker) { w.exporter = e }
}

// WithObserver reports refresh outcomes to o.
func WithObserver(o Observer) Option {
	return func(w *SnapshotWorker) { w.observer = o }
}

// WithClock overrides time.Now for picking the current month.
func WithClock(now func() time.Time) Option {
	return func(w *SnapshotWorker) { w.now = now }
}

// NewSnapshotWorker creates a worker refreshing the given households on
// every periodic run. Messages for other households are resolved through
// the store.
func NewSnapshotWorker(svc *services.LedgerService, logger *log.Logger, households []core.Household, opts ...Option) *SnapshotWorker {
	w := &SnapshotWorker{
		svc:        svc,
		households: make(map[uuid.UUID]core.Household, len(households)),
		observer:   nopObserver{},
		logger:     logger.WithComponent(log.ComponentWorker),
		now:        time.Now,
	}
	for _, h := range households {
		w.households[h.ID] = h
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// HandleLedgerChanged recomputes the months a ledger change may have
// altered. A returned error makes the consumer requeue the message, so
// failures that a retry cannot fix are logged and swallowed.
func (w *SnapshotWorker) HandleLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
	w.logger.InfoContext(ctx, "Processing ledger change",
		log.FieldHouseholdID, msg.HouseholdID,
		log.FieldEntity, msg.Entity,
		log.FieldEntityID, msg.EntityID,
		log.FieldOperation, msg.Op)

	if msg.Op != amqp.OpRefresh && !services.AffectsSummary(msg.Entity) {
		w.logger.DebugContext(ctx, "Change does not affect month summaries", log.FieldEntity, msg.Entity)
		return nil
	}

	h, err := w.household(ctx, msg.HouseholdID)
	if errors.Is(err, store.ErrNotFound) {
		w.logger.WarnContext(ctx, "Dropping change for unknown household", log.FieldHouseholdID, msg.HouseholdID)
		return nil
	}
	if err != nil {
		return err
	}

	periods := msg.Periods
	if len(periods) == 0 {
		if periods, err = w.storedPeriods(ctx, h.ID); err != nil {
			return err
		}
	}

	for _, p := range periods {
		err := w.refresh(ctx, h, p)
		if errors.Is(err, core.ErrDataIntegrity) {
			// The ledger itself is broken; requeueing would loop forever.
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// RefreshCurrent recomputes the current month of every configured
// household. It is the fallback for messages lost while the worker or the
// broker was down.
func (w *SnapshotWorker) RefreshCurrent(ctx context.Context) error {
	current := core.PeriodOf(w.now())
	var errs []error
	for _, h := range w.households {
		if err := w.refresh(ctx, h, current); err != nil {
			errs = append(errs, fmt.Errorf("household %s: %w", h.ID, err))
		}
	}
	return errors.Join(errs...)
}

func (w *SnapshotWorker) household(ctx context.Context, id uuid.UUID) (core.Household, error) {
	if h, ok := w.households[id]; ok {
		return h, nil
	}
	h, err := w.svc.Store().Households.Get(ctx, id)
	if err != nil {
		return core.Household{}, fmt.Errorf("load household %s: %w", id, err)
	}
	return h, nil
}

// storedPeriods returns the current month plus every recent month that
// already has a snapshot.
func (w *SnapshotWorker) storedPeriods(ctx context.Context, householdID uuid.UUID) ([]core.Period, error) {
	current := core.PeriodOf(w.now())
	stored, err := w.svc.Store().Snapshots.List(ctx, householdID, current.AddMonths(-backfillMonths), current)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	periods := make([]core.Period, 0, len(stored)+1)
	for _, s := range stored {
		if s.Period != current {
			periods = append(periods, s.Period)
		}
	}
	return append(periods, current), nil
}

func (w *SnapshotWorker) refresh(ctx context.Context, h core.Household, p core.Period) (err error) {
	defer func() { w.observer.SnapshotRefreshed(err) }()

	snap, err := w.svc.RefreshSnapshot(ctx, h.ID, p)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to refresh month snapshot",
			log.FieldHouseholdID, h.ID,
			log.FieldPeriod, p.String(),
			log.FieldError, err)
		return fmt.Errorf("refresh %s: %w", p, err)
	}
	w.logger.InfoContext(ctx, "Month snapshot refreshed",
		log.FieldHouseholdID, h.ID,
		log.FieldPeriod, p.String(),
		"balance", snap.Summary.Balance.StringFixed(2))

	if w.exporter == nil {
		return nil
	}
	rep, err := w.svc.MonthReport(ctx, h, p, summary.ItemFilter{})
	if err != nil {
		return fmt.Errorf("month report %s: %w", p, err)
	}
	if err := w.exporter.ExportMonth(ctx, p, h, rep.Items, rep.Summary); err != nil {
		w.logger.ErrorContext(ctx, "Failed to export month",
			log.FieldHouseholdID, h.ID,
			log.FieldPeriod, p.String(),
			log.FieldError, err)
		return fmt.Errorf("export %s: %w", p, err)
	}
	w.logger.InfoContext(ctx, "Month exported",
		log.FieldHouseholdID, h.ID,
		log.FieldPeriod, p.String(),
		"items", len(rep.Items))
	return nil
}
