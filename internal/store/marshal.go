package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/LookRain/betabreak/internal/plan"
)

// Column encodings shared by the rule/session/log readers and writers.
// Dates travel as YYYY-MM-DD text, timestamps as RFC 3339 text, snapshots and
// overrides as JSON, weekday sets as csv of 0-6.

func marshalSnapshot(s plan.Snapshot) (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	return string(b), nil
}

func unmarshalSnapshot(raw string) (plan.Snapshot, error) {
	var s plan.Snapshot
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return plan.Snapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return s, nil
}

func marshalVariables(v plan.Variables) (string, error) {
	if v == nil {
		return "{}", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal variables: %w", err)
	}
	return string(b), nil
}

func unmarshalVariables(raw string) (plan.Variables, error) {
	var v plan.Variables
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("unmarshal variables: %w", err)
	}
	return v, nil
}

func marshalWeekdays(days []time.Weekday) string {
	if len(days) == 0 {
		return ""
	}
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(int(d))
	}
	return strings.Join(parts, ",")
}

func unmarshalWeekdays(raw string) ([]time.Weekday, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	days := make([]time.Weekday, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("unmarshal weekdays %q: %w", raw, err)
		}
		days = append(days, time.Weekday(n))
	}
	return days, nil
}

func encodeTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func decodeTime(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("decode time %q: %w", raw, err)
	}
	return t, nil
}

func encodeTimePtr(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: encodeTime(*t), Valid: true}
}

func decodeTimePtr(raw sql.NullString) (*time.Time, error) {
	if !raw.Valid {
		return nil, nil
	}
	t, err := decodeTime(raw.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func encodeDatePtr(d *plan.Date) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func decodeDatePtr(raw sql.NullString) (*plan.Date, error) {
	if !raw.Valid {
		return nil, nil
	}
	d, err := plan.ParseDate(raw.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
