package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"financas/internal/core"
	"financas/internal/sheets"
	"financas/internal/summary"
)

var _ sheets.MonthExporter = (*Exporter)(nil)

// Month is one exported month.
type Month struct {
	Items   []summary.MonthItem
	Summary summary.MonthSummary
	// Writes counts how many times the month was exported.
	Writes int
}

type key struct {
	household uuid.UUID
	period    core.Period
}

// Exporter keeps exported months in memory.
type Exporter struct {
	mu     sync.Mutex
	months map[key]Month
	err    error
}

func New() *Exporter {
	return &Exporter{months: make(map[key]Month)}
}

// FailWith makes every following export return err; nil restores success.
func (e *Exporter) FailWith(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.err = err
}

// ExportMonth replaces the stored copy of the month.
func (e *Exporter) ExportMonth(_ context.Context, p core.Period, h core.Household, items []summary.MonthItem, sum summary.MonthSummary) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return fmt.Errorf("export %s: %w", p, e.err)
	}
	k := key{h.ID, p}
	prev := e.months[k]
	e.months[k] = Month{
		Items:   append([]summary.MonthItem(nil), items...),
		Summary: sum,
		Writes:  prev.Writes + 1,
	}
	return nil
}

// Month returns the last export of a month.
func (e *Exporter) Month(householdID uuid.UUID, p core.Period) (Month, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, ok := e.months[key{householdID, p}]
	return m, ok
}

// Periods lists the exported months of a household in no particular order.
func (e *Exporter) Periods(householdID uuid.UUID) []core.Period {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []core.Period
	for k := range e.months {
		if k.household == householdID {
			out = append(out, k.period)
		}
	}
	return out
}
