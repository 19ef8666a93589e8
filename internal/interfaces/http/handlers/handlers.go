package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/setuplab/internal/application"
	"github.com/sawpanic/setuplab/internal/domain/grouping"
	"github.com/sawpanic/setuplab/internal/domain/setup"
	httpContracts "github.com/sawpanic/setuplab/internal/http"
	"github.com/sawpanic/setuplab/internal/persistence"
)

// Reviewer is the read side of the review service
type Reviewer interface {
	Scenarios(ctx context.Context) ([]string, error)
	Classify(ctx context.Context, scenario string) (grouping.Result, error)
	History(ctx context.Context, scenario string, limit int) ([]persistence.GroupSnapshot, error)
}

// CircuitState reports the state of a named circuit breaker
type CircuitState interface {
	Name() string
	State() string
}

// Handlers manages all HTTP endpoint handlers
type Handlers struct {
	reviewer  Reviewer
	database  persistence.RepositoryHealth
	circuits  []CircuitState
	version   string
	startTime time.Time

	historyLimit int
}

// Option configures Handlers
type Option func(*Handlers)

// WithDatabase reports database health on /health
func WithDatabase(h persistence.RepositoryHealth) Option {
	return func(hs *Handlers) { hs.database = h }
}

// WithCircuits reports breaker states on /health
func WithCircuits(c ...CircuitState) Option {
	return func(hs *Handlers) { hs.circuits = append(hs.circuits, c...) }
}

// WithVersion sets the version reported on /health
func WithVersion(v string) Option {
	return func(hs *Handlers) { hs.version = v }
}

// WithHistoryLimit sets the default page size of /history. Values outside
// 1..1000 are ignored.
func WithHistoryLimit(n int) Option {
	return func(hs *Handlers) {
		if n > 0 && n <= maxHistoryLimit {
			hs.historyLimit = n
		}
	}
}

// NewHandlers creates a new handlers instance
func NewHandlers(reviewer Reviewer, opts ...Option) *Handlers {
	h := &Handlers{
		reviewer:  reviewer,
		version:   "dev",
		startTime: time.Now(),

		historyLimit: 50,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type ctxKey string

const requestIDKey ctxKey = "request_id"

// WithRequestID stores the request id in ctx
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the request id stored in ctx, or "unknown"
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return "unknown"
}

// writeJSON encodes data before committing the status so an encoding
// failure still reaches the client as a 500 error envelope
func (h *Handlers) writeJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		log.Error().Err(err).Str("request_id", RequestID(r.Context())).Str("path", r.URL.Path).Msg("Failed to encode response")
		if _, isError := data.(httpContracts.ErrorResponse); isError {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		h.writeError(w, r, http.StatusInternalServerError, "encoding_failed", "The response could not be encoded")
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Debug().Err(err).Str("request_id", RequestID(r.Context())).Msg("Failed to write response")
	}
}

// writeError writes standardized error response
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	errorResp := httpContracts.ErrorResponse{
		Error:     http.StatusText(status),
		Message:   message,
		Code:      code,
		RequestID: RequestID(r.Context()),
		Timestamp: time.Now().UTC(),
	}

	h.writeJSON(w, r, status, errorResp)
}

// writeServiceError maps review errors onto status codes
func (h *Handlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, application.ErrUnknownScenario):
		h.writeError(w, r, http.StatusNotFound, "scenario_not_found", err.Error())
	case errors.Is(err, application.ErrPersistenceDisabled):
		h.writeError(w, r, http.StatusServiceUnavailable, "persistence_disabled", err.Error())
	case errors.Is(err, setup.ErrNonFinite):
		h.writeError(w, r, http.StatusUnprocessableEntity, "invalid_scenario_data", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		h.writeError(w, r, http.StatusGatewayTimeout, "timeout", "The request timed out")
	default:
		log.Error().Err(err).Str("request_id", RequestID(r.Context())).Str("path", r.URL.Path).Msg("Request failed")
		h.writeError(w, r, http.StatusInternalServerError, "internal_error", "The request could not be completed")
	}
}

// NotFound handles 404 responses
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	h.writeError(w, r, http.StatusNotFound, "endpoint_not_found",
		"The requested endpoint does not exist")
}

// MethodNotAllowed handles 405 responses
func (h *Handlers) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	h.writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed",
		"The API is read-only")
}
