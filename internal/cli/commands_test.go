package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"financas/internal/backend"
	"financas/internal/config"
	"financas/internal/core"
	"financas/internal/log"
	"financas/internal/services"
	"financas/internal/store"
	"financas/internal/store/memory"
	"financas/internal/summary"
)

var fixedNow = time.Date(2025, time.March, 15, 9, 0, 0, 0, time.UTC)

func newTestApp(t *testing.T) (*App, *store.Store) {
	t.Helper()
	st := memory.New()
	cfg := &config.Config{
		DataBackend: "memory",
		HouseholdID: config.DefaultHouseholdID,
		PersonAName: "Ana",
		PersonBName: "Bruno",
		Currency:    "BRL",
		ClosingDay:  1,
	}
	app := &App{
		Config: cfg,
		Logger: log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)}),
		Open: func(context.Context) (*backend.BackendResult, error) {
			return &backend.BackendResult{Store: st}, nil
		},
		Migrate: migrate,
		Now:     func() time.Time { return fixedNow },
		Stdin:   strings.NewReader(""),
	}
	return app, st
}

func run(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCommand(app)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// seedExpense stores the household and one March expense through the service.
func seedExpense(t *testing.T, app *App, st *store.Store) {
	t.Helper()
	ctx := context.Background()
	h, err := app.Config.Household()
	require.NoError(t, err)
	_, err = store.Seed(ctx, st, h)
	require.NoError(t, err)

	svc := services.NewLedgerService(st, app.Logger)
	cats, err := svc.Categories.List(ctx, h.ID)
	require.NoError(t, err)
	var groceries core.Category
	for _, c := range cats {
		if c.Name == "Groceries" {
			groceries = c
		}
	}
	_, err = svc.Transactions.Create(ctx, h.ID, core.Transaction{
		Type:        core.Expense,
		Amount:      decimal.RequireFromString("90"),
		Description: "Market",
		Date:        core.NewDate(2025, time.March, 5),
		CategoryID:  groceries.ID,
		Owner:       core.Both,
	})
	require.NoError(t, err)
}

func TestHashPassword(t *testing.T) {
	app, _ := newTestApp(t)

	out, err := run(t, app, "hash-password", "s3cret")
	require.NoError(t, err)
	hash := strings.TrimSpace(out)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")))

	app.Stdin = strings.NewReader("from stdin\n")
	out, err = run(t, app, "hash-password")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(strings.TrimSpace(out)), []byte("from stdin")))

	app.Stdin = strings.NewReader("")
	_, err = run(t, app, "hash-password")
	assert.Error(t, err)
}

func TestSeed(t *testing.T) {
	app, st := newTestApp(t)

	out, err := run(t, app, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, config.DefaultHouseholdID)
	assert.NotContains(t, out, " 0 categories created")

	cats, err := st.Categories.FetchAll(context.Background(), uuid.MustParse(config.DefaultHouseholdID))
	require.NoError(t, err)
	assert.NotEmpty(t, cats)

	out, err = run(t, app, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, " 0 categories created")
}

func TestSummary(t *testing.T) {
	app, st := newTestApp(t)
	seedExpense(t, app, st)

	out, err := run(t, app, "summary")
	require.NoError(t, err)
	assert.Contains(t, out, "2025-03")
	assert.Contains(t, out, "90.00")
	assert.Contains(t, out, "Groceries")
	assert.Contains(t, out, "Ana")

	out, err = run(t, app, "summary", "--month", "2025-03", "--json")
	require.NoError(t, err)
	var dash summary.Dashboard
	require.NoError(t, json.Unmarshal([]byte(out), &dash))
	assert.True(t, decimal.RequireFromString("90").Equal(dash.Summary.Expense))

	out, err = run(t, app, "summary", "--month", "2025-02")
	require.NoError(t, err)
	assert.NotContains(t, out, "Groceries")

	_, err = run(t, app, "summary", "--month", "March")
	assert.ErrorIs(t, err, core.ErrInvalidMonth)
}

func TestExport(t *testing.T) {
	app, st := newTestApp(t)
	seedExpense(t, app, st)

	out, err := run(t, app, "export", "--out", "-")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "2025-03-05,Market,Groceries,Expense,90.00,Both,Transaction", lines[1])

	path := filepath.Join(t.TempDir(), "march.csv")
	_, err = run(t, app, "export", "--month", "2025-03", "--out", path)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, out, string(data))
}

func TestMigrate(t *testing.T) {
	app, _ := newTestApp(t)

	_, err := run(t, app, "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no schema to migrate")

	var migrated string
	app.Migrate = func(cfg *config.Config) error {
		migrated = cfg.DataBackend
		return nil
	}
	app.Config.DataBackend = "sqlite"
	out, err := run(t, app, "migrate")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", migrated)
	assert.Contains(t, out, "sqlite backend")
}
