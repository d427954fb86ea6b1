// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating query and path
// parameters. Every parse failure is a validation error.

package http

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"financas/internal/core"
	"financas/internal/summary"
)

// Trend defaults.
const defaultTrendMonths = 6

// ParsePeriodParam reads a YYYY-MM query parameter, defaulting to the
// month of now.
func ParsePeriodParam(query url.Values, key string, now time.Time) (core.Period, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return core.PeriodOf(now), nil
	}
	p, err := core.ParsePeriod(v)
	if err != nil {
		return core.Period{}, core.Invalid(key, err)
	}
	return p, nil
}

// ParseIntParam reads an integer query parameter within [min, max].
func ParseIntParam(query url.Values, key string, def, min, max int) (int, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, core.Invalid(key, fmt.Errorf("not a number: %q", v))
	}
	if n < min || n > max {
		return 0, core.Invalid(key, fmt.Errorf("must be between %d and %d", min, max))
	}
	return n, nil
}

// ParseItemFilter reads the month item filters. Empty parameters match
// everything.
func ParseItemFilter(query url.Values) (summary.ItemFilter, error) {
	var f summary.ItemFilter

	if v := strings.TrimSpace(query.Get("type")); v != "" {
		f.Type = core.TransactionType(v)
		if !f.Type.Valid() {
			return f, core.Invalid("type", core.ErrInvalidType)
		}
	}
	if v := strings.TrimSpace(query.Get("owner")); v != "" {
		f.Owner = core.Owner(v)
		if !f.Owner.Valid() {
			return f, core.Invalid("owner", core.ErrInvalidOwner)
		}
	}
	if v := strings.TrimSpace(query.Get("category")); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return f, core.Invalid("category", err)
		}
		f.CategoryID = id
	}
	if v := strings.TrimSpace(query.Get("origin")); v != "" {
		f.Origin = summary.Origin(v)
		if !f.Origin.Valid() {
			return f, core.Invalid("origin", fmt.Errorf("unknown origin %q", v))
		}
	}
	return f, nil
}

// ParseOwnerParam reads an optional owner. Validity for the operation is
// left to the service.
func ParseOwnerParam(query url.Values) core.Owner {
	return core.Owner(strings.TrimSpace(query.Get("owner")))
}

// parseID reads the {id} path parameter.
func parseID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, core.Invalid("id", fmt.Errorf("not a valid ID: %q", raw))
	}
	return id, nil
}
