// utils/time_utils.go
package utils

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Period is a closed settlement window. Both ends are inclusive calendar days.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// LoadLocation resolves an IANA zone name, falling back to UTC.
func LoadLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	if loc, err := time.LoadLocation(name); err == nil {
		return loc
	}
	return time.UTC
}

// StartOfDay returns 00:00:00 of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59 of t's calendar day in t's location.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, t.Location())
}

// LastWeekPeriod returns Monday 00:00:00 through Sunday 23:59:59 of the week
// before the one containing now. Weeks start on Monday.
func LastWeekPeriod(now time.Time) Period {
	today := StartOfDay(now)
	sinceMonday := (int(today.Weekday()) + 6) % 7
	thisMonday := today.AddDate(0, 0, -sinceMonday)

	return Period{
		Start: thisMonday.AddDate(0, 0, -7),
		End:   EndOfDay(thisMonday.AddDate(0, 0, -1)),
	}
}

// ValidatePeriod rejects zero bounds and inverted ranges.
func ValidatePeriod(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return fmt.Errorf("%w: start and end are required", ErrInvalidPeriod)
	}
	if start.After(end) {
		return fmt.Errorf("%w: start %s is after end %s", ErrInvalidPeriod,
			start.Format(dateLayout), end.Format(dateLayout))
	}
	return nil
}

// ParsePeriodDate accepts YYYY-MM-DD (interpreted in loc) or RFC3339.
func ParsePeriodDate(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: empty date", ErrInvalidPeriod)
	}
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.ParseInLocation(dateLayout, raw, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.In(loc), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q is not a valid date", ErrInvalidPeriod, raw)
}

// CalendarDate drops the clock and zone, keeping t's calendar day at UTC midnight.
// This is the form stored in date columns.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayNumber counts calendar days since the Unix epoch for t's calendar day.
func DayNumber(t time.Time) int64 {
	return CalendarDate(t).Unix() / 86400
}

// FormatDate renders t's calendar day as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}
