package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"financas/internal/cache"
	"financas/internal/core"
	"financas/internal/log"
	"financas/internal/store"
	"financas/internal/summary"
)

// MaxTrendMonths bounds the trend report.
const MaxTrendMonths = 24

// LoadSnapshot fetches the collections the aggregator reads, concurrently.
// Any failed fetch cancels the others and fails the load.
func (s *LedgerService) LoadSnapshot(ctx context.Context, householdID uuid.UUID) (summary.Snapshot, error) {
	var snap summary.Snapshot
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		txs, err := s.store.Transactions.FetchAll(ctx, householdID)
		if err != nil {
			return fmt.Errorf("fetch transactions: %w", err)
		}
		snap.Transactions = txs
		return nil
	})
	g.Go(func() error {
		fes, err := s.store.FixedExpenses.FetchAll(ctx, householdID)
		if err != nil {
			return fmt.Errorf("fetch fixed expenses: %w", err)
		}
		snap.FixedExpenses = fes
		return nil
	})
	g.Go(func() error {
		fis, err := s.store.FixedIncomes.FetchAll(ctx, householdID)
		if err != nil {
			return fmt.Errorf("fetch fixed incomes: %w", err)
		}
		snap.FixedIncomes = fis
		return nil
	})
	g.Go(func() error {
		cats, err := s.store.Categories.FetchAll(ctx, householdID)
		if err != nil {
			return fmt.Errorf("fetch categories: %w", err)
		}
		snap.Categories = cats
		return nil
	})

	if err := g.Wait(); err != nil {
		return summary.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}
	return snap, nil
}

// Dashboard returns the month summary and ranked categories, served from
// the month cache when possible.
func (s *LedgerService) Dashboard(ctx context.Context, householdID uuid.UUID, p core.Period) (summary.Dashboard, error) {
	key := cache.Key{Household: householdID, Period: p}
	if d, ok := s.dashboards.Get(key); ok {
		s.observer.CacheLookup(true)
		return d, nil
	}
	if s.dashboards.Enabled() {
		s.observer.CacheLookup(false)
	}

	gen := s.dashboards.Generation(householdID)
	snap, err := s.LoadSnapshot(ctx, householdID)
	if err != nil {
		return summary.Dashboard{}, err
	}
	d, err := s.agg.Dashboard(p, snap)
	if err != nil {
		return summary.Dashboard{}, s.integrityFailure(ctx, householdID, p, err)
	}
	s.dashboards.Set(key, d, gen)
	return d, nil
}

// MonthItems returns the merged, filtered item list of a month.
func (s *LedgerService) MonthItems(ctx context.Context, householdID uuid.UUID, p core.Period, filter summary.ItemFilter) ([]summary.MonthItem, error) {
	snap, err := s.LoadSnapshot(ctx, householdID)
	if err != nil {
		return nil, err
	}
	items, err := s.agg.MonthItems(p, snap, filter)
	if err != nil {
		return nil, s.integrityFailure(ctx, householdID, p, err)
	}
	return items, nil
}

// MonthReport is everything a month export needs.
type MonthReport struct {
	Household core.Household       `json:"household"`
	Period    core.Period          `json:"period"`
	Summary   summary.MonthSummary `json:"summary"`
	Items     []summary.MonthItem  `json:"items"`
}

// MonthReport computes the summary and the filtered item list of a month
// from a single snapshot.
func (s *LedgerService) MonthReport(ctx context.Context, h core.Household, p core.Period, filter summary.ItemFilter) (MonthReport, error) {
	snap, err := s.LoadSnapshot(ctx, h.ID)
	if err != nil {
		return MonthReport{}, err
	}
	sum, err := s.agg.MonthSummary(p, snap.Transactions, snap.FixedExpenses, snap.FixedIncomes)
	if err != nil {
		return MonthReport{}, s.integrityFailure(ctx, h.ID, p, err)
	}
	items, err := s.agg.MonthItems(p, snap, filter)
	if err != nil {
		return MonthReport{}, s.integrityFailure(ctx, h.ID, p, err)
	}
	return MonthReport{Household: h, Period: p, Summary: sum, Items: items}, nil
}

// Comparison relates a month to the previous one.
func (s *LedgerService) Comparison(ctx context.Context, householdID uuid.UUID, p core.Period) (summary.MonthComparison, error) {
	snap, err := s.LoadSnapshot(ctx, householdID)
	if err != nil {
		return summary.MonthComparison{}, err
	}
	cmp, err := s.agg.Comparison(p, snap)
	if err != nil {
		return summary.MonthComparison{}, s.integrityFailure(ctx, householdID, p, err)
	}
	return cmp, nil
}

// Trend returns the summaries of the months ending at end, oldest first,
// computed from the current records.
func (s *LedgerService) Trend(ctx context.Context, householdID uuid.UUID, end core.Period, months int) ([]summary.PeriodSummary, error) {
	if months > MaxTrendMonths {
		months = MaxTrendMonths
	}
	snap, err := s.LoadSnapshot(ctx, householdID)
	if err != nil {
		return nil, err
	}
	trend, err := s.agg.Trend(end, months, snap)
	if err != nil {
		return nil, s.integrityFailure(ctx, householdID, end, err)
	}
	return trend, nil
}

// RefreshSnapshot recomputes and stores the summary of one month.
func (s *LedgerService) RefreshSnapshot(ctx context.Context, householdID uuid.UUID, p core.Period) (store.MonthSnapshot, error) {
	if s.store.Snapshots == nil {
		return store.MonthSnapshot{}, errors.New("backend does not store snapshots")
	}
	snap, err := s.LoadSnapshot(ctx, householdID)
	if err != nil {
		return store.MonthSnapshot{}, err
	}
	sum, err := s.agg.MonthSummary(p, snap.Transactions, snap.FixedExpenses, snap.FixedIncomes)
	if err != nil {
		return store.MonthSnapshot{}, s.integrityFailure(ctx, householdID, p, err)
	}
	ms := store.MonthSnapshot{
		HouseholdID: householdID,
		Period:      p,
		Summary:     sum,
		ComputedAt:  s.now().UTC(),
	}
	if err := s.store.Snapshots.Save(ctx, ms); err != nil {
		return store.MonthSnapshot{}, fmt.Errorf("save snapshot %s: %w", p, err)
	}
	return ms, nil
}

// SettlementTotals sums the debt settlements of a year.
type SettlementTotals struct {
	Year     int             `json:"year"`
	Owner    core.Owner      `json:"owner,omitempty"`
	Count    int             `json:"count"`
	Original decimal.Decimal `json:"original"`
	Settled  decimal.Decimal `json:"settled"`
	Saved    decimal.Decimal `json:"saved"`
}

// SettlementTotals totals the settlements dated in year. An empty owner
// includes every owner.
func (s *LedgerService) SettlementTotals(ctx context.Context, householdID uuid.UUID, year int, owner core.Owner) (SettlementTotals, error) {
	if owner != "" && !owner.ValidIncomeOwner() {
		return SettlementTotals{}, core.Invalid("owner", core.ErrInvalidOwner)
	}
	all, err := s.Settlements.List(ctx, householdID)
	if err != nil {
		return SettlementTotals{}, err
	}

	totals := SettlementTotals{Year: year, Owner: owner}
	for _, st := range all {
		if st.SettlementDate.Year() != year {
			continue
		}
		if owner != "" && st.Owner != owner {
			continue
		}
		totals.Count++
		totals.Original = totals.Original.Add(st.OriginalAmount)
		totals.Settled = totals.Settled.Add(st.SettledAmount)
		totals.Saved = totals.Saved.Add(st.Saved())
	}
	return totals, nil
}

// integrityFailure logs aggregation failures caused by stored data.
func (s *LedgerService) integrityFailure(ctx context.Context, householdID uuid.UUID, p core.Period, err error) error {
	if errors.Is(err, core.ErrDataIntegrity) {
		fields := log.NewFields()
		fields[log.FieldHouseholdID] = householdID.String()
		fields[log.FieldPeriod] = p.String()
		s.structured.LogError(ctx, "Stored records cannot be aggregated", err, log.ComponentSummary, log.OpRead, fields)
	}
	return fmt.Errorf("aggregate %s: %w", p, err)
}

// today is the calendar date of the service clock.
func (s *LedgerService) today() core.Date {
	t := s.now()
	return core.NewDate(t.Year(), t.Month(), t.Day())
}
