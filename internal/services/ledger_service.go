// Package services orchestrates ledger writes and month reports over the
// Record Store.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"financas/internal/amqp"
	"financas/internal/cache"
	"financas/internal/core"
	"financas/internal/log"
	"financas/internal/store"
	"financas/internal/summary"
)

// Publisher announces ledger changes to the snapshot worker.
type Publisher interface {
	PublishLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error
}

// Observer receives counters about service activity.
type Observer interface {
	LedgerWrite(entity, op string)
	CacheLookup(hit bool)
}

type nopObserver struct{}

func (nopObserver) LedgerWrite(string, string) {}
func (nopObserver) CacheLookup(bool)           {}

// LedgerService validates and writes household records, keeps the month
// cache coherent and publishes change events.
type LedgerService struct {
	store      *store.Store
	agg        *summary.Aggregator
	publisher  Publisher
	dashboards *cache.MonthCache[summary.Dashboard]
	observer   Observer
	logger     *log.Logger
	structured *log.StructuredLogger
	now        func() time.Time

	Categories    *Resource[core.Category, *core.Category]
	Transactions  *Resource[core.Transaction, *core.Transaction]
	FixedExpenses *Resource[core.FixedExpense, *core.FixedExpense]
	FixedIncomes  *Resource[core.FixedIncome, *core.FixedIncome]
	Reserves      *Resource[core.Reserve, *core.Reserve]
	Goals         *Resource[core.FinancialGoal, *core.FinancialGoal]
	Settlements   *Resource[core.DebtSettlement, *core.DebtSettlement]
}

// Option configures a LedgerService.
type Option func(*LedgerService)

// WithPublisher enables change events. Without one, writes are local only.
func WithPublisher(p Publisher) Option {
	return func(s *LedgerService) { s.publisher = p }
}

// WithDashboardCache caches dashboards per household and month.
func WithDashboardCache(c *cache.MonthCache[summary.Dashboard]) Option {
	return func(s *LedgerService) { s.dashboards = c }
}

// WithObserver reports writes and cache lookups, typically to metrics.
func WithObserver(o Observer) Option {
	return func(s *LedgerService) { s.observer = o }
}

// WithClock overrides the time source used for due status and trends.
func WithClock(now func() time.Time) Option {
	return func(s *LedgerService) { s.now = now }
}

// NewLedgerService wires the per-entity resources over st.
func NewLedgerService(st *store.Store, logger *log.Logger, opts ...Option) *LedgerService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentLedger)

	s := &LedgerService{
		store:      st,
		agg:        summary.New(logger.WithComponent(log.ComponentSummary).Slog()),
		observer:   nopObserver{},
		logger:     logger,
		structured: log.NewStructuredLogger(logger),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.Categories = &Resource[core.Category, *core.Category]{
		svc: s, entity: EntityCategory, coll: st.Categories,
	}
	s.Transactions = &Resource[core.Transaction, *core.Transaction]{
		svc: s, entity: EntityTransaction, coll: st.Transactions,
		months: func(t *core.Transaction) []core.Period {
			if t.Date.IsEmpty() {
				return nil
			}
			return []core.Period{t.Date.Period()}
		},
		check: func(ctx context.Context, h uuid.UUID, t *core.Transaction) error {
			return s.checkCategory(ctx, h, t.CategoryID, t.Type)
		},
	}
	s.FixedExpenses = &Resource[core.FixedExpense, *core.FixedExpense]{
		svc: s, entity: EntityFixedExpense, coll: st.FixedExpenses,
		check: func(ctx context.Context, h uuid.UUID, fe *core.FixedExpense) error {
			return s.checkCategory(ctx, h, fe.CategoryID, core.Expense)
		},
		cascade: func(ctx context.Context, h, id uuid.UUID) error {
			return deleteChildren[core.FixedExpensePayment](ctx, st.FixedExpensePayments, h,
				func(p *core.FixedExpensePayment) uuid.UUID { return p.FixedExpenseID }, id)
		},
	}
	s.FixedIncomes = &Resource[core.FixedIncome, *core.FixedIncome]{
		svc: s, entity: EntityFixedIncome, coll: st.FixedIncomes,
		check: func(ctx context.Context, h uuid.UUID, fi *core.FixedIncome) error {
			return s.checkCategory(ctx, h, fi.CategoryID, core.Income)
		},
		cascade: func(ctx context.Context, h, id uuid.UUID) error {
			return deleteChildren[core.FixedIncomeReceipt](ctx, st.FixedIncomeReceipts, h,
				func(r *core.FixedIncomeReceipt) uuid.UUID { return r.FixedIncomeID }, id)
		},
	}
	s.Reserves = &Resource[core.Reserve, *core.Reserve]{
		svc: s, entity: EntityReserve, coll: st.Reserves,
		cascade: func(ctx context.Context, h, id uuid.UUID) error {
			return deleteChildren[core.ReserveTransaction](ctx, st.ReserveTransactions, h,
				func(t *core.ReserveTransaction) uuid.UUID { return t.ReserveID }, id)
		},
	}
	s.Goals = &Resource[core.FinancialGoal, *core.FinancialGoal]{
		svc: s, entity: EntityGoal, coll: st.Goals,
		cascade: func(ctx context.Context, h, id uuid.UUID) error {
			return deleteChildren[core.GoalTransaction](ctx, st.GoalTransactions, h,
				func(t *core.GoalTransaction) uuid.UUID { return t.GoalID }, id)
		},
	}
	s.Settlements = &Resource[core.DebtSettlement, *core.DebtSettlement]{
		svc: s, entity: EntitySettlement, coll: st.Settlements,
	}
	return s
}

// Store exposes the underlying Record Store.
func (s *LedgerService) Store() *store.Store { return s.store }

// Aggregator exposes the aggregator used for reports.
func (s *LedgerService) Aggregator() *summary.Aggregator { return s.agg }

// checkCategory rejects references to categories of another household or of
// the wrong type. A nil ID means uncategorized.
func (s *LedgerService) checkCategory(ctx context.Context, householdID, id uuid.UUID, typ core.TransactionType) error {
	if id == uuid.Nil {
		return nil
	}
	c, err := s.Categories.Get(ctx, householdID, id)
	if errors.Is(err, store.ErrNotFound) {
		return core.Invalid("categoryId", fmt.Errorf("unknown category %s", id))
	}
	if err != nil {
		return err
	}
	if typ != "" && c.Type != typ {
		return core.Invalid("categoryId", fmt.Errorf("category %q is for %s", c.Name, c.Type))
	}
	return nil
}

// changed runs after every successful write: it drops cached months and
// publishes the change. Publishing is best effort.
func (s *LedgerService) changed(ctx context.Context, householdID uuid.UUID, entity string, id uuid.UUID, op string, periods ...core.Period) {
	s.observer.LedgerWrite(entity, op)
	s.structured.LogLedgerChange(ctx, householdID.String(), entity, id.String(), op)

	if AffectsSummary(entity) {
		if len(periods) > 0 {
			s.dashboards.Invalidate(householdID, periods...)
		} else {
			s.dashboards.Invalidate(householdID)
		}
	}

	if s.publisher == nil {
		return
	}
	msg := amqp.NewLedgerChangedMessage(householdID, entity, id, op, periods...)
	if err := s.publisher.PublishLedgerChanged(ctx, msg); err != nil {
		s.structured.LogError(ctx, "Failed to publish ledger change", err, log.ComponentAMQP, log.OpPublish,
			log.NewFields().WithRecord(householdID.String(), entity, id.String()))
	}
}
