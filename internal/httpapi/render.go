package httpapi

import (
	"time"

	"github.com/LookRain/betabreak/internal/plan"
	"github.com/LookRain/betabreak/internal/scheduler"
)

// Wire shapes. Dates render as "2006-01-02", timestamps as RFC 3339.

type sessionView struct {
	ID           string         `json:"id"`
	ExerciseID   string         `json:"exerciseId"`
	Title        string         `json:"title"`
	ScheduledFor string         `json:"scheduledFor"`
	RuleID       string         `json:"ruleId,omitempty"`
	Overrides    plan.Variables `json:"overrides,omitempty"`
	Notes        string         `json:"notes,omitempty"`
	CompletedAt  *time.Time     `json:"completedAt,omitempty"`
	CanceledAt   *time.Time     `json:"canceledAt,omitempty"`
}

func sessionJSON(s *plan.ScheduledSession) sessionView {
	return sessionView{
		ID:           s.ID,
		ExerciseID:   s.ExerciseID,
		Title:        s.Snapshot.Title,
		ScheduledFor: s.ScheduledFor.String(),
		RuleID:       s.RuleID,
		Overrides:    s.Overrides,
		Notes:        s.Notes,
		CompletedAt:  s.CompletedAt,
		CanceledAt:   s.CanceledAt,
	}
}

type ruleView struct {
	ID         string          `json:"id"`
	ExerciseID string          `json:"exerciseId"`
	Title      string          `json:"title"`
	StartDate  string          `json:"startDate"`
	Recurrence plan.Recurrence `json:"recurrence"`
	Overrides  plan.Variables  `json:"overrides,omitempty"`
	Active     bool            `json:"active"`
}

func ruleJSON(r *plan.RecurrenceRule) ruleView {
	return ruleView{
		ID:         r.ID,
		ExerciseID: r.ExerciseID,
		Title:      r.Snapshot.Title,
		StartDate:  r.StartDate.String(),
		Recurrence: r.Recurrence,
		Overrides:  r.DefaultOverrides,
		Active:     r.Active,
	}
}

type calendarEntry struct {
	Kind         string         `json:"kind"` // concrete | virtual
	ID           string         `json:"id"`
	RuleID       string         `json:"ruleId,omitempty"`
	ExerciseID   string         `json:"exerciseId"`
	Title        string         `json:"title"`
	ScheduledFor string         `json:"scheduledFor"`
	Overrides    plan.Variables `json:"overrides,omitempty"`
	Completed    bool           `json:"completed,omitempty"`
}

type calendarView struct {
	Sessions []calendarEntry `json:"sessions"`
	Today    string          `json:"today"`
}

func calendarJSON(view *scheduler.CalendarView) calendarView {
	entries := make([]calendarEntry, 0, len(view.Sessions))
	for _, sess := range view.Sessions {
		switch s := sess.(type) {
		case plan.Concrete:
			entries = append(entries, calendarEntry{
				Kind:         "concrete",
				ID:           s.ID,
				RuleID:       s.RuleID,
				ExerciseID:   s.ExerciseID,
				Title:        s.Snapshot.Title,
				ScheduledFor: s.ScheduledFor.String(),
				Overrides:    s.Overrides,
				Completed:    s.Completed(),
			})
		case plan.VirtualOccurrence:
			entries = append(entries, calendarEntry{
				Kind:         "virtual",
				ID:           s.SessionID(),
				RuleID:       s.RuleID,
				ExerciseID:   s.ExerciseID,
				Title:        s.Snapshot.Title,
				ScheduledFor: s.Date.String(),
				Overrides:    s.Overrides,
			})
		}
	}
	return calendarView{Sessions: entries, Today: view.Today.String()}
}

type logView struct {
	ID        string          `json:"id"`
	SessionID string          `json:"sessionId"`
	Status    plan.LogStatus  `json:"status"`
	Planned   plan.PlanParams `json:"planned"`
	Steps     []plan.Step     `json:"steps"`
	Summary   plan.Summary    `json:"summary"`
	Notes     string          `json:"notes,omitempty"`
}

func logJSON(l *plan.ExecutionLog) logView {
	steps := l.Steps
	if steps == nil {
		steps = []plan.Step{}
	}
	return logView{
		ID:        l.ID,
		SessionID: l.SessionID,
		Status:    l.Status,
		Planned:   l.Planned,
		Steps:     steps,
		Summary:   l.Summary(),
		Notes:     l.Notes,
	}
}
