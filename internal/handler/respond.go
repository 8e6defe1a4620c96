package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gameia/engine/internal/ctxkeys"
	"github.com/gameia/engine/internal/model"
	"github.com/gameia/engine/internal/repository"
	"github.com/gameia/engine/internal/service"
	"github.com/gameia/engine/internal/validation"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeError maps engine errors to HTTP statuses. Unexpected errors are
// logged and hidden from the caller.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "validation failed", Fields: verr.Fields})
	case errors.Is(err, service.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrInvalidTransition):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrInsufficientBalance):
		writeJSON(w, http.StatusPaymentRequired, errorResponse{Error: err.Error()})
	case errors.Is(err, repository.ErrGoalNotFound),
		errors.Is(err, repository.ErrInsigniaNotFound),
		errors.Is(err, repository.ErrSettlementNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrConcurrencyConflict):
		w.Header().Set("Retry-After", "1")
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "goal is busy, retry shortly"})
	default:
		slog.Error("request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", ctxkeys.RequestID(r.Context()),
		)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// decodeJSON reads a JSON body into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if errors.Is(err, io.EOF) {
		return validation.Field("body", "is required")
	}
	if err != nil {
		return validation.Field("body", err.Error())
	}
	return nil
}

// actor returns the caller set by the auth middleware. Routes that call it are
// wrapped in RequireAuth.
func actor(r *http.Request) model.Actor {
	a, _ := ctxkeys.Actor(r.Context())
	return a
}
