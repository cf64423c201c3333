package present

import (
	"testing"
	"time"

	"github.com/yegors/infotavla/internal/source"
)

func TestIsDay(t *testing.T) {
	for hour := 0; hour < 24; hour++ {
		want := hour >= 6 && hour < 20
		if got := IsDay(hour); got != want {
			t.Errorf("IsDay(%d) = %v, want %v", hour, got, want)
		}
	}

	boundaries := map[int]bool{5: false, 6: true, 19: true, 20: false}
	for hour, want := range boundaries {
		if got := IsDay(hour); got != want {
			t.Errorf("boundary IsDay(%d) = %v, want %v", hour, got, want)
		}
	}
}

func TestFormatTimeAndDate(t *testing.T) {
	now := time.Date(2024, time.January, 5, 7, 3, 9, 0, time.UTC)
	if got := FormatTime(now); got != "07:03:09" {
		t.Errorf("FormatTime = %q", got)
	}
	if got := FormatDate(now); got != "2024-01-05" {
		t.Errorf("FormatDate = %q", got)
	}

	dec := time.Date(2023, time.December, 31, 23, 59, 59, 0, time.UTC)
	if got := FormatDate(dec); got != "2023-12-31" {
		t.Errorf("FormatDate(december) = %q", got)
	}
}

func TestClock(t *testing.T) {
	now := time.Date(2024, time.January, 10, 10, 0, 1, 0, time.UTC)
	view := Clock(now, source.ClockSnapshot{CurrentDay: "Onsdag", WeekNumber: 2})

	if view.DayLabel != "Onsdag 2024-01-10 ─ Vecka: 2" {
		t.Errorf("DayLabel = %q", view.DayLabel)
	}
	if view.Time != "10:00:01" {
		t.Errorf("Time = %q", view.Time)
	}
}

func TestFormatTemp(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{-2.3, "-2.3"},
		{1.04, "1.0"},
		{1.05, "1.1"}, // 1.05 is stored slightly above the half
		{0.25, "0.2"}, // exact half goes to even
		{0, "0.0"},
		{12, "12.0"},
		{-0.04, "-0.0"},
	}
	for _, tt := range tests {
		if got := FormatTemp(tt.in); got != tt.want {
			t.Errorf("FormatTemp(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsDelayed(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"Huvudsta - Kista | Avgår om 4 min | Delayed", true},
		{"Tåget är Försenad", true},
		{"DELAYED", true},
		{"FÖRSENAD 5 min", true},
		{"Huvudsta - KTH | Avgår nu", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsDelayed(tt.line); got != tt.want {
			t.Errorf("IsDelayed(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestDepartures(t *testing.T) {
	groups := []source.DepartureGroup{
		{Name: "Huvudsta - Kista", Departures: []string{}},
		{Name: "Huvudsta - KTH"},
		{Name: "Huvudsta - T-Centralen", Departures: []string{
			"Huvudsta - T-Centralen | Avgår om 3 min",
			"Huvudsta - T-Centralen | Avgår om 9 min | Delayed",
		}},
	}

	entries := Departures(groups)
	want := []DepartureEntry{
		{Kind: EntryTitle, Text: "Huvudsta - T-Centralen"},
		{Kind: EntrySeparator},
		{Kind: EntryLine, Text: "Huvudsta - T-Centralen | Avgår om 3 min"},
		{Kind: EntryLine, Text: "Huvudsta - T-Centralen | Avgår om 9 min | Delayed", Delayed: true},
	}
	if len(entries) != len(want) {
		t.Fatalf("got %d entries, want %d: %+v", len(entries), len(want), entries)
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, entries[i], want[i])
		}
	}
}

func TestDeparturesEmptyGroupsOnly(t *testing.T) {
	entries := Departures([]source.DepartureGroup{{Name: "a"}, {Name: "b", Departures: []string{}}})
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %+v", entries)
	}
}
