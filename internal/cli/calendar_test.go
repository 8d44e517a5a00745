package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"

	"github.com/LookRain/betabreak/internal/plan"
	"github.com/LookRain/betabreak/internal/scheduler"
)

func TestRenderCalendar(t *testing.T) {
	done := time.Date(2027, 2, 1, 18, 30, 0, 0, time.UTC)
	view := &scheduler.CalendarView{
		Today: plan.NewDate(2027, 2, 4),
		Sessions: []plan.Session{
			plan.Concrete{ScheduledSession: &plan.ScheduledSession{
				ID:           "sess-0001",
				ScheduledFor: plan.NewDate(2027, 2, 1),
				Snapshot:     plan.Snapshot{Title: "Campus board ladders"},
				CompletedAt:  &done,
			}},
			plan.VirtualOccurrence{
				RuleID:   "rule-0001",
				Date:     plan.NewDate(2027, 2, 4),
				Snapshot: plan.Snapshot{Title: "Hangboard repeaters"},
			},
			plan.Concrete{ScheduledSession: &plan.ScheduledSession{
				ID:           "sess-0002",
				ScheduledFor: plan.NewDate(2027, 2, 8),
				Snapshot:     plan.Snapshot{Title: "Campus board ladders"},
			}},
		},
	}

	var buf bytes.Buffer
	renderCalendar(&buf, view)

	g := goldie.New(t)
	g.Assert(t, "calendar", buf.Bytes())
}

func TestRenderCalendar_Empty(t *testing.T) {
	var buf bytes.Buffer
	renderCalendar(&buf, &scheduler.CalendarView{Today: plan.NewDate(2027, 2, 4)})

	g := goldie.New(t)
	g.Assert(t, "calendar_empty", buf.Bytes())
}
