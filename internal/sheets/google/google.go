package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"financas/internal/core"
	"financas/internal/log"
	"financas/internal/report"
	"financas/internal/sheets"
	"financas/internal/summary"
)

// valueInput lets the sheet parse dates and amounts. Free text goes through
// plainText so it is never read as a formula.
const valueInput = "USER_ENTERED"

var _ sheets.MonthExporter = (*Exporter)(nil)

// Config selects the spreadsheet and the service account used to write it.
// ServiceAccountJSON wins over ServiceAccountFile.
type Config struct {
	SpreadsheetID      string
	ServiceAccountJSON string
	ServiceAccountFile string
}

// Exporter mirrors month reports into one tab per month.
type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	logger        *log.Logger
}

// New creates an Exporter authenticated with service account credentials.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Exporter, error) {
	creds, err := credentials(cfg)
	if err != nil {
		return nil, err
	}
	return NewWithOptions(ctx, cfg.SpreadsheetID, logger,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
}

// NewWithOptions creates an Exporter with explicit client options.
func NewWithOptions(ctx context.Context, spreadsheetID string, logger *log.Logger, opts ...goption.ClientOption) (*Exporter, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Exporter{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		logger:        logger.WithComponent(log.ComponentSheets),
	}, nil
}

func credentials(cfg Config) ([]byte, error) {
	if js := strings.TrimSpace(cfg.ServiceAccountJSON); js != "" {
		return []byte(js), nil
	}
	path := strings.TrimSpace(cfg.ServiceAccountFile)
	if path == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return b, nil
}

// SheetTitle names the tab of a month.
func SheetTitle(p core.Period) string { return p.String() }

// ExportMonth replaces the tab of p with the month's items followed by its
// totals. The tab is created when missing.
func (e *Exporter) ExportMonth(ctx context.Context, p core.Period, h core.Household, items []summary.MonthItem, sum summary.MonthSummary) error {
	title := SheetTitle(p)
	if err := e.ensureSheet(ctx, title); err != nil {
		return err
	}

	all := fmt.Sprintf("'%s'!A:Z", title)
	if _, err := e.svc.Spreadsheets.Values.Clear(e.spreadsheetID, all, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", title, err)
	}

	values := MonthValues(h, items, sum)
	vr := &gsheet.ValueRange{Values: values}
	if _, err := e.svc.Spreadsheets.Values.Update(e.spreadsheetID, fmt.Sprintf("'%s'!A1", title), vr).
		ValueInputOption(valueInput).Context(ctx).Do(); err != nil {
		return fmt.Errorf("write %s: %w", title, err)
	}

	e.logger.InfoContext(ctx, "Month written to spreadsheet",
		log.FieldHouseholdID, h.ID,
		log.FieldPeriod, title,
		"rows", len(values))
	return nil
}

func (e *Exporter) ensureSheet(ctx context.Context, title string) error {
	ss, err := e.svc.Spreadsheets.Get(e.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == title {
			return nil
		}
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: title}},
	}}}
	if _, err := e.svc.Spreadsheets.BatchUpdate(e.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", title, err)
	}
	e.logger.InfoContext(ctx, "Created month sheet", log.FieldPeriod, title)
	return nil
}

// MonthValues lays out a month tab: the CSV columns, one row per item, a
// blank row and the totals.
func MonthValues(h core.Household, items []summary.MonthItem, sum summary.MonthSummary) [][]any {
	rows := make([][]any, 0, len(items)+9)
	rows = append(rows, cells(report.Header))
	for _, it := range items {
		rows = append(rows, recordCells(report.Record(h, it)))
	}
	rows = append(rows,
		[]any{},
		total("Income", sum.Income),
		total("Expense", sum.Expense),
		total("Balance", sum.Balance),
		total("Savings rate %", sum.SavingsRate),
		total(h.PersonAName+" income", sum.PersonAIncome),
		total(h.PersonBName+" income", sum.PersonBIncome),
		total(h.PersonAName+" expense", sum.PersonAExpense),
		total(h.PersonBName+" expense", sum.PersonBExpense),
	)
	return rows
}

func cells(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = plainText(s)
	}
	return out
}

func recordCells(rec []string) []any {
	out := cells(rec)
	out[report.Amount] = rec[report.Amount]
	return out
}

func total(label string, v decimal.Decimal) []any {
	return []any{plainText(label), v.StringFixed(2)}
}

// plainText quotes text that the sheet would otherwise evaluate.
func plainText(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}
