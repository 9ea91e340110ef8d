package utils

import (
	"testing"
	"time"
)

func TestDayDropsClockAndZone(t *testing.T) {
	loc := time.FixedZone("UTC-8", -8*3600)
	late := time.Date(2025, 3, 9, 23, 30, 0, 0, loc)

	got := Day(late)
	want := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Day() = %v, want %v", got, want)
	}
	if Today(late) != "2025-03-09" {
		t.Errorf("Today() = %q, want %q", Today(late), "2025-03-09")
	}
}

func TestEachDay(t *testing.T) {
	from, _ := ParseDate("2025-02-27")
	to, _ := ParseDate("2025-03-02")

	var days []string
	EachDay(from, to, func(d time.Time) { days = append(days, FormatDate(d)) })

	want := []string{"2025-02-27", "2025-02-28", "2025-03-01", "2025-03-02"}
	if len(days) != len(want) {
		t.Fatalf("EachDay visited %v, want %v", days, want)
	}
	for i := range want {
		if days[i] != want[i] {
			t.Errorf("day %d = %s, want %s", i, days[i], want[i])
		}
	}

	count := 0
	EachDay(to, from, func(time.Time) { count++ })
	if count != 0 {
		t.Errorf("EachDay on an inverted range visited %d days, want 0", count)
	}
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		name   string
		from   string
		to     string
		wantOK bool
	}{
		{"valid", "2025-01-01", "2025-01-31", true},
		{"single day", "2025-01-01", "2025-01-01", true},
		{"inverted", "2025-02-01", "2025-01-01", false},
		{"malformed from", "2025-13-01", "2025-01-31", false},
		{"malformed to", "2025-01-01", "not-a-date", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, ok := ParseRange(tt.from, tt.to)
			if ok != tt.wantOK {
				t.Errorf("ParseRange(%q, %q) ok = %v, want %v", tt.from, tt.to, ok, tt.wantOK)
			}
		})
	}
}

func TestLoadLocation(t *testing.T) {
	if loc, err := LoadLocation(""); err != nil || loc != time.Local {
		t.Errorf("LoadLocation(\"\") = %v, %v; want Local", loc, err)
	}
	if _, err := LoadLocation("Not/AZone"); err == nil {
		t.Error("expected an error for an unknown timezone")
	}
}
