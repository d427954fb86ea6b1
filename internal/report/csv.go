// Package report renders month statements for download.
package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"financas/internal/core"
	"financas/internal/summary"
)

// Column positions of the exported CSV.
const (
	Date = iota
	Description
	Category
	Type
	Amount
	Owner
	Origin
)

// Header is the first line of every export.
var Header = []string{"date", "description", "category", "type", "amount", "owner", "origin"}

// OwnerLabel names an owner with the household's person names. Proportional
// items also show their split, e.g. "Proportional 70/30".
func OwnerLabel(h core.Household, it summary.MonthItem) string {
	if it.Owner != core.Proportional {
		return h.OwnerLabel(it.Owner)
	}
	a, b := core.ResolveProportions(it.ProportionA, it.ProportionB)
	return fmt.Sprintf("Proportional %s/%s", a.String(), b.String())
}

func typeLabel(t core.TransactionType) string {
	switch t {
	case core.Income:
		return "Income"
	case core.Expense:
		return "Expense"
	}
	return string(t)
}

// Record converts one item into a CSV row.
func Record(h core.Household, it summary.MonthItem) []string {
	rec := make([]string, len(Header))
	rec[Date] = it.Date.String()
	rec[Description] = it.Description
	rec[Category] = it.CategoryName
	rec[Type] = typeLabel(it.Type)
	rec[Amount] = it.Amount.StringFixed(2)
	rec[Owner] = OwnerLabel(h, it)
	rec[Origin] = it.Origin.Label()
	return rec
}

// WriteCSV writes the header and one row per item, in the given order.
func WriteCSV(w io.Writer, h core.Household, items []summary.MonthItem) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i, it := range items {
		if err := cw.Write(Record(h, it)); err != nil {
			return fmt.Errorf("write csv line %d: %w", i+2, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// Filename is the suggested download name for a month export.
func Filename(p core.Period) string {
	return fmt.Sprintf("financas-%s.csv", p)
}
