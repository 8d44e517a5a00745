package plan

import "time"

// Clock is the ambient time source. Every operation derives "now" and
// "today" from an injected Clock rather than calling time.Now directly, so
// tests can fix time deterministically.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// TodayOf is the day the clock currently falls on.
func TodayOf(c Clock) Date { return DateOf(c.Now()) }
