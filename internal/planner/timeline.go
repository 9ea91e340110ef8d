package planner

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/goalkeeper/internal/constants"
	"github.com/julianstephens/goalkeeper/internal/utils"
)

// ErrTimeline is returned when a timeline answer names no recognisable date.
var ErrTimeline = errors.New("could not understand the timeline; try \"6 months\", \"next year\" or \"15th of March 2026\"")

var (
	monthsPattern = regexp.MustCompile(`(\d+)?\s*months?\b`)
	datePattern   = regexp.MustCompile(`(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?([a-z]+)(?:\s+(\d{4}|\d{2}))?`)
)

var months = map[string]time.Month{}

func init() {
	for m := time.January; m <= time.December; m++ {
		name := strings.ToLower(m.String())
		months[name] = m
		months[name[:3]] = m
	}
	months["sept"] = time.September
}

// ParseTimeline turns a free-text timeline into a target day. It accepts
// ISO dates, "next year", "N month(s)" (N defaults to 3) and day-month-year
// phrases such as "15th of March 2026". A phrase without a year uses now's.
func ParseTimeline(text string, now time.Time) (time.Time, error) {
	input := strings.ToLower(strings.TrimSpace(text))
	today := utils.Day(now)

	if d, err := utils.ParseDate(input); err == nil {
		return d, nil
	}
	if strings.Contains(input, "next year") {
		return today.AddDate(1, 0, 0), nil
	}
	if m := monthsPattern.FindStringSubmatch(input); m != nil {
		n := constants.DefaultTimelineMonths
		if m[1] != "" {
			if v, err := strconv.Atoi(m[1]); err == nil && v > 0 {
				n = v
			}
		}
		return today.AddDate(0, n, 0), nil
	}
	if m := datePattern.FindStringSubmatch(input); m != nil {
		month, ok := months[m[2]]
		if !ok {
			return time.Time{}, ErrTimeline
		}
		day, _ := strconv.Atoi(m[1])
		year := today.Year()
		if m[3] != "" {
			year, _ = strconv.Atoi(m[3])
			if year < 100 {
				year += 2000
			}
		}
		d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		if d.Day() != day {
			return time.Time{}, fmt.Errorf("%w: %s %d has no day %d", ErrTimeline, month, year, day)
		}
		return d, nil
	}
	return time.Time{}, ErrTimeline
}
