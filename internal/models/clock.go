package models

import (
	"fmt"
	"time"
)

// ParseClock parses a wall-clock "HH:MM" string into its hour and minute
// parts. Template departure and arrival times are stored in this format.
func ParseClock(s string) (hour, minute int, err error) {
	// time.Parse tolerates one-digit hours; stored clocks must be the
	// canonical fixed-width form.
	if len(s) != len("15:04") {
		return 0, 0, fmt.Errorf("invalid clock time %q: must be HH:MM", s)
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}

// CombineClockUTC combines the UTC calendar date of the given day with a
// wall-clock hour and minute, producing a concrete UTC instant.
func CombineClockUTC(date time.Time, hour, minute int) time.Time {
	d := date.UTC()
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, time.UTC)
}
