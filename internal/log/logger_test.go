package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNewJSONCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: "json", Output: &buf}).WithComponent(ComponentLedger)

	logger.Debug("hidden")
	logger.Info("visible", FieldEntity, "transaction")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "visible", line["msg"])
	assert.Equal(t, ComponentLedger, line[FieldComponent])
	assert.Equal(t, "transaction", line[FieldEntity])
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Format: "json", Output: &buf})

	var got *Logger
	h := Middleware(base.WithComponent(ComponentHTTP))(RequestIDMiddleware(func(*http.Request) string { return "req-1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = FromContext(r.Context())
			got.InfoContext(r.Context(), "inside")
		})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotNil(t, got)
	assert.Equal(t, ComponentHTTP, got.Component())
	assert.Contains(t, buf.String(), `"request_id":"req-1"`)

	buf.Reset()
	bare := Middleware(base)(RequestIDMiddleware(func(*http.Request) string { return "" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).InfoContext(r.Context(), "no id")
		})))
	bare.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotContains(t, buf.String(), "request_id")

	assert.Equal(t, "unknown", FromContext(context.Background()).Component())
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Format: "json", Output: &buf}))

	sl.LogLedgerChange(context.Background(), "h1", "reserve", "r1", OpCreate)
	assert.Contains(t, buf.String(), `"entity":"reserve"`)
	assert.Contains(t, buf.String(), `"operation":"create"`)

	buf.Reset()
	sl.LogError(context.Background(), "boom", errors.New("disk"), ComponentStorage, OpRead, nil)
	assert.Contains(t, buf.String(), `"error":"disk"`)
	assert.Contains(t, buf.String(), `"level":"ERROR"`)
}
