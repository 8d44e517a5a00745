package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/LookRain/betabreak/internal/plan"
)

// parseOverrides turns repeated --override k=v flags into a variable map.
func parseOverrides(pairs []string) (plan.Variables, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	vars := make(plan.Variables, len(pairs))
	for _, pair := range pairs {
		key, val, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid override %q: expected key=value", pair)
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			return nil, fmt.Errorf("invalid override %q: value must be an integer", pair)
		}
		vars[key] = n
	}
	return vars, nil
}

// parseWeekdays parses a comma list of 0-6 (Sunday=0).
func parseWeekdays(csv string) ([]int, error) {
	if csv == "" {
		return nil, nil
	}
	parts := strings.Split(csv, ",")
	days := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 || n > 6 {
			return nil, fmt.Errorf("invalid weekday %q: expected 0-6", p)
		}
		days = append(days, n)
	}
	return days, nil
}

// displayTitle normalizes user-supplied titles to NFC so visually identical
// titles render and align identically regardless of how they were typed.
func displayTitle(title string) string {
	return norm.NFC.String(title)
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printSession renders one session line.
func printSession(w io.Writer, s *plan.ScheduledSession) {
	status := ""
	switch {
	case s.Completed():
		status = "  [completed]"
	case s.Canceled():
		status = "  [canceled]"
	}
	fmt.Fprintf(w, "%s  %s  %s%s\n", s.ScheduledFor, s.ID, displayTitle(s.Snapshot.Title), status)
}

// printRule renders one rule line.
func printRule(w io.Writer, r *plan.RecurrenceRule) {
	until := "open-ended"
	if r.Recurrence.Until != nil {
		until = "until " + r.Recurrence.Until.String()
	}
	active := "active"
	if !r.Active {
		active = "inactive"
	}
	fmt.Fprintf(w, "%s  %s  every %d %s from %s, %s (%s)\n",
		r.ID, displayTitle(r.Snapshot.Title), r.Recurrence.Interval,
		r.Recurrence.Frequency, r.StartDate, until, active)
}
