package session

import (
	"context"
	"net/http"
	"strings"

	"financas/internal/core"
)

type contextKey int

const (
	householdKey contextKey = iota
	tokenKey
)

// BearerToken extracts the token of an "Authorization: Bearer" header.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

// NewContext returns ctx carrying the authenticated household and token.
func NewContext(ctx context.Context, h core.Household, token string) context.Context {
	ctx = context.WithValue(ctx, householdKey, h)
	return context.WithValue(ctx, tokenKey, token)
}

// HouseholdFromContext returns the household set by Middleware.
func HouseholdFromContext(ctx context.Context) (core.Household, bool) {
	h, ok := ctx.Value(householdKey).(core.Household)
	return h, ok
}

// TokenFromContext returns the raw token set by Middleware.
func TokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(tokenKey).(string)
	return t
}

// Middleware rejects requests without a valid token through deny and
// otherwise stores the household in the request context.
func (g *Gate) Middleware(deny func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			h, err := g.Authenticate(token)
			if err != nil {
				deny(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), h, token)))
		})
	}
}
