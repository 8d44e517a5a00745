package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/LookRain/betabreak/internal/plan"
	"github.com/LookRain/betabreak/internal/scheduler"
	"github.com/LookRain/betabreak/internal/workout"
)

type handler struct {
	sched *scheduler.Service
	exec  *workout.Service
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type recurrenceBody struct {
	Frequency  string  `json:"frequency"`
	Interval   int     `json:"interval"`
	ByWeekdays []int   `json:"byWeekdays,omitempty"`
	Until      *string `json:"until,omitempty"`
}

func (b recurrenceBody) toRecurrence() (plan.Recurrence, error) {
	rec := plan.Recurrence{
		Frequency: plan.Frequency(b.Frequency),
		Interval:  b.Interval,
	}
	for _, d := range b.ByWeekdays {
		rec.ByWeekdays = append(rec.ByWeekdays, time.Weekday(d))
	}
	if b.Until != nil {
		until, err := plan.ParseDate(*b.Until)
		if err != nil {
			return plan.Recurrence{}, err
		}
		rec.Until = &until
	}
	return rec, nil
}

func (h *handler) addSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ExerciseID string         `json:"exerciseId"`
		Date       string         `json:"date"`
		Overrides  plan.Variables `json:"overrides,omitempty"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeBadRequest(w, err)
		return
	}
	date, err := plan.ParseDate(body.Date)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	sess, err := h.sched.AddSession(r.Context(), body.ExerciseID, date, body.Overrides)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionJSON(sess))
}

func (h *handler) startImpromptu(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ExerciseID string         `json:"exerciseId"`
		Overrides  plan.Variables `json:"overrides,omitempty"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeBadRequest(w, err)
		return
	}
	sess, err := h.sched.StartImpromptuSession(r.Context(), body.ExerciseID, body.Overrides)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionJSON(sess))
}

func (h *handler) addSeries(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ExerciseID string         `json:"exerciseId"`
		StartDate  string         `json:"startDate"`
		Recurrence recurrenceBody `json:"recurrence"`
		Overrides  plan.Variables `json:"overrides,omitempty"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeBadRequest(w, err)
		return
	}
	start, err := plan.ParseDate(body.StartDate)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	rec, err := body.Recurrence.toRecurrence()
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	rule, err := h.sched.AddRecurringSeries(r.Context(), body.ExerciseID, start, rec, body.Overrides)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ruleJSON(rule))
}

func (h *handler) materialize(w http.ResponseWriter, r *http.Request) {
	date, ok := dateBody(w, r)
	if !ok {
		return
	}
	sess, err := h.sched.Materialize(r.Context(), chi.URLParam(r, "ruleID"), date)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionJSON(sess))
}

func (h *handler) cancelOccurrence(w http.ResponseWriter, r *http.Request) {
	date, ok := dateBody(w, r)
	if !ok {
		return
	}
	if err := h.sched.CancelOccurrence(r.Context(), chi.URLParam(r, "ruleID"), date); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"canceled": true})
}

func (h *handler) updateSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Date      *string        `json:"date,omitempty"`
		Overrides plan.Variables `json:"overrides,omitempty"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeBadRequest(w, err)
		return
	}
	patch := scheduler.SessionPatch{Overrides: body.Overrides}
	if body.Date != nil {
		date, err := plan.ParseDate(*body.Date)
		if err != nil {
			writeBadRequest(w, err)
			return
		}
		patch.Date = &date
	}
	sess, err := h.sched.UpdateOccurrence(r.Context(), chi.URLParam(r, "sessionID"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionJSON(sess))
}

func (h *handler) removeSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sched.RemoveUpcomingSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"removed": true})
}

func (h *handler) backfillNotes(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Notes string `json:"notes"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeBadRequest(w, err)
		return
	}
	sess, err := h.sched.BackfillNotes(r.Context(), chi.URLParam(r, "sessionID"), body.Notes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionJSON(sess))
}

func (h *handler) completeSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sched.CompleteSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionJSON(sess))
}

func (h *handler) updateFuture(w http.ResponseWriter, r *http.Request) {
	var body struct {
		EffectiveFrom string         `json:"effectiveFrom"`
		Overrides     plan.Variables `json:"overrides,omitempty"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeBadRequest(w, err)
		return
	}
	from, err := plan.ParseDate(body.EffectiveFrom)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	rule, err := h.sched.UpdateRuleFromDate(r.Context(), chi.URLParam(r, "ruleID"), from, body.Overrides)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ruleJSON(rule))
}

func (h *handler) removeFuture(w http.ResponseWriter, r *http.Request) {
	from, err := plan.ParseDate(r.URL.Query().Get("from"))
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	res, err := h.sched.RemoveRuleFromDate(r.Context(), chi.URLParam(r, "ruleID"), from)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"removedCount": res.RemovedCount,
		"active":       res.Active,
	})
}

func (h *handler) calendar(w http.ResponseWriter, r *http.Request) {
	from, err := plan.ParseDate(r.URL.Query().Get("from"))
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	to, err := plan.ParseDate(r.URL.Query().Get("to"))
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	view, err := h.sched.ListSessions(r.Context(), from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, calendarJSON(view))
}

func (h *handler) startExecution(w http.ResponseWriter, r *http.Request) {
	log, err := h.exec.StartSessionExecution(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, logJSON(log))
}

func (h *handler) appendStep(w http.ResponseWriter, r *http.Request) {
	var step plan.Step
	if err := decodeJSON(r, &step); err != nil {
		writeBadRequest(w, err)
		return
	}
	log, err := h.exec.AppendStep(r.Context(), chi.URLParam(r, "logID"), step)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, logJSON(log))
}

func (h *handler) finishExecution(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Outcome string `json:"outcome"`
		Notes   string `json:"notes,omitempty"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeBadRequest(w, err)
		return
	}
	log, err := h.exec.FinishExecution(r.Context(), chi.URLParam(r, "logID"), plan.LogStatus(body.Outcome), body.Notes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, logJSON(log))
}

// dateBody decodes the common single-date request body.
func dateBody(w http.ResponseWriter, r *http.Request) (plan.Date, bool) {
	var body struct {
		Date string `json:"date"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeBadRequest(w, err)
		return plan.Date{}, false
	}
	date, err := plan.ParseDate(body.Date)
	if err != nil {
		writeBadRequest(w, err)
		return plan.Date{}, false
	}
	return date, true
}
