package utils

import (
	"fmt"
	"time"

	"github.com/julianstephens/goalkeeper/internal/constants"
)

// ParseDate parses a YYYY-MM-DD string as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(constants.DateFormat, s)
}

// FormatDate formats t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(constants.DateFormat)
}

// Day truncates t to its calendar day in t's location and returns it as
// midnight UTC, so days from different zones compare by date alone.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar day for now.
func Today(now time.Time) string {
	return FormatDate(Day(now))
}

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return loc, nil
}

// MaxDay returns the later of two days.
func MaxDay(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

// MinDay returns the earlier of two days.
func MinDay(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

// EachDay calls fn for every day in [from, to]. It does nothing when to is
// before from.
func EachDay(from, to time.Time, fn func(day time.Time)) {
	for d := Day(from); !d.After(Day(to)); d = d.AddDate(0, 0, 1) {
		fn(d)
	}
}

// ParseRange parses two YYYY-MM-DD bounds. ok is false when either bound is
// malformed or the range is inverted.
func ParseRange(from, to string) (start, end time.Time, ok bool) {
	start, err := ParseDate(from)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	end, err = ParseDate(to)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}
