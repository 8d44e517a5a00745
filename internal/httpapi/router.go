// Package httpapi exposes the planner's operation surface as a JSON HTTP
// API. It is a thin adapter: every handler decodes a request, calls the
// scheduler or workout service, and renders the result - all policy lives in
// the services.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/LookRain/betabreak/internal/plan"
	"github.com/LookRain/betabreak/internal/scheduler"
	"github.com/LookRain/betabreak/internal/workout"
)

// NewRouter creates the chi router with all planner routes.
func NewRouter(sched *scheduler.Service, exec *workout.Service, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(requestLogger(logger))

	h := &handler{sched: sched, exec: exec}

	r.Get("/health", h.health)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.addSession)
		r.Post("/impromptu", h.startImpromptu)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Patch("/", h.updateSession)
			r.Delete("/", h.removeSession)
			r.Patch("/notes", h.backfillNotes)
			r.Post("/complete", h.completeSession)
			r.Post("/executions", h.startExecution)
		})
	})

	r.Route("/rules", func(r chi.Router) {
		r.Post("/", h.addSeries)
		r.Route("/{ruleID}", func(r chi.Router) {
			r.Post("/materialize", h.materialize)
			r.Post("/cancel", h.cancelOccurrence)
			r.Patch("/future", h.updateFuture)
			r.Delete("/future", h.removeFuture)
		})
	})

	r.Route("/executions/{logID}", func(r chi.Router) {
		r.Post("/steps", h.appendStep)
		r.Post("/finish", h.finishExecution)
	})

	r.Get("/calendar", h.calendar)

	return r
}

// requestLogger logs one line per request.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			logger.Debug("request", "method", r.Method, "path", r.URL.Path)
		})
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a planner error code onto an HTTP status.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch plan.CodeOf(err) {
	case plan.ErrCodeUnauthorized:
		status = http.StatusUnauthorized
	case plan.ErrCodeForbidden, plan.ErrCodePolicyViolation:
		status = http.StatusForbidden
	case plan.ErrCodeNotFound:
		status = http.StatusNotFound
	case plan.ErrCodeImmutableState:
		status = http.StatusConflict
	case plan.ErrCodeInvalidRecurrence:
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"code":  string(plan.CodeOf(err)),
	})
}

func writeBadRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
}
