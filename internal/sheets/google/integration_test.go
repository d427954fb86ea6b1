//go:build integration

package google

import (
	"context"
	"os"
	"testing"
	"time"

	"financas/internal/core"
	"financas/internal/log"
)

// Integration tests require real Google Sheets credentials
// Run with: go test -tags=integration ./internal/sheets/google

func TestIntegration_ExportMonth(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	cfg := Config{
		SpreadsheetID:      os.Getenv("GOOGLE_SPREADSHEET_ID"),
		ServiceAccountJSON: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		ServiceAccountFile: os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"),
	}
	if cfg.SpreadsheetID == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}
	if cfg.ServiceAccountJSON == "" && cfg.ServiceAccountFile == "" {
		t.Skip("service account credentials not configured, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	e, err := New(ctx, cfg, log.New(log.DefaultConfig()))
	if err != nil {
		t.Fatalf("Failed to create exporter: %v", err)
	}

	items, sum := sampleMonth()
	p := core.PeriodOf(time.Now())
	if err := e.ExportMonth(ctx, p, household, items, sum); err != nil {
		t.Fatalf("Failed to export %s: %v", p, err)
	}
	t.Logf("Exported %d items to tab %s", len(items), SheetTitle(p))
}
