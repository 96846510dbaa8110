package domain

import (
	"fmt"
	"time"
)

// MonthRange is the inclusive calendar bound of one reporting month in the
// fleet's operating timezone.
type MonthRange struct {
	Start time.Time
	End   time.Time
}

// ParseMonth expands a "YYYY-MM" token into the first and last instant of
// that month in loc. A nil loc means UTC.
func ParseMonth(token string, loc *time.Location) (MonthRange, error) {
	t, err := time.Parse("2006-01", token)
	if err != nil {
		return MonthRange{}, fmt.Errorf("%w: %q", ErrInvalidMonth, token)
	}

	if loc == nil {
		loc = time.UTC
	}

	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)

	return MonthRange{Start: start, End: end}, nil
}

// Contains reports whether ts falls within the month, bounds inclusive.
func (r MonthRange) Contains(ts time.Time) bool {
	return !ts.Before(r.Start) && !ts.After(r.End)
}
