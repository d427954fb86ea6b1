package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"financas/internal/core"
	"financas/internal/log"
	"financas/internal/services"
	"financas/internal/session"
	"financas/internal/store"
)

// maxBodyBytes bounds every request body.
const maxBodyBytes = 1 << 20

// Error codes returned in the "code" field of error bodies.
const (
	CodeValidation         = "validation_failed"
	CodeNotFound           = "not_found"
	CodeUnauthenticated    = "unauthenticated"
	CodeInvalidCredentials = "invalid_credentials"
	CodeConflict           = "conflict"
	CodeAlreadySettled     = "already_settled"
	CodeRateLimited        = "rate_limited"
	CodeDataIntegrity      = "data_integrity"
	CodeTimeout            = "timeout"
	CodeInternal           = "internal_error"
	CodeMethodNotAllowed   = "method_not_allowed"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorCode(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorBody{Error: ErrorDetail{Code: code, Message: message}})
}

// classify maps an error to its status and code. Unknown errors are
// internal and their message is not exposed.
func classify(err error) (status int, code string, expose bool) {
	switch {
	case errors.Is(err, services.ErrAlreadySettled):
		return http.StatusConflict, CodeAlreadySettled, true
	case errors.Is(err, core.ErrValidation):
		return http.StatusUnprocessableEntity, CodeValidation, true
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, CodeNotFound, true
	case errors.Is(err, session.ErrInvalidCredentials):
		return http.StatusUnauthorized, CodeInvalidCredentials, true
	case errors.Is(err, session.ErrUnauthenticated):
		return http.StatusUnauthorized, CodeUnauthenticated, true
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict, CodeConflict, true
	case errors.Is(err, core.ErrDataIntegrity):
		return http.StatusInternalServerError, CodeDataIntegrity, false
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, CodeTimeout, false
	}
	return http.StatusInternalServerError, CodeInternal, false
}

// writeError writes the response for err. Server-side failures are logged
// with the request-scoped logger.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, expose := classify(err)
	message := err.Error()
	if !expose {
		message = http.StatusText(status)
		log.FromContext(r.Context()).WithComponent(log.ComponentHTTP).ErrorContext(r.Context(), "Request failed",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, status,
			log.FieldError, err)
	}
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="financas"`)
	}
	writeErrorCode(w, status, code, message)
}

// decodeJSON decodes a single JSON object into v, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return core.Invalid("body", err)
	}
	if dec.More() {
		return core.Invalid("body", errors.New("unexpected data after JSON object"))
	}
	return nil
}

// readBody returns the raw request body, bounded by maxBodyBytes.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, core.Invalid("body", err)
	}
	return body, nil
}

// household returns the household stored by the session middleware.
func household(r *http.Request) (core.Household, error) {
	h, ok := session.HouseholdFromContext(r.Context())
	if !ok {
		return core.Household{}, session.ErrUnauthenticated
	}
	return h, nil
}

// nonNil keeps empty lists encoded as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
