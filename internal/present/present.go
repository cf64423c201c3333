// Package present turns decoded source payloads into display-ready values.
// Every function is pure: the current time is always passed in.
package present

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yegors/infotavla/internal/source"
)

// Daytime is the half-open local hour range [DayStartHour, DayEndHour)
const (
	DayStartHour = 6
	DayEndHour   = 20
)

// IsDay reports whether the local hour counts as daytime
func IsDay(hour int) bool {
	return hour >= DayStartHour && hour < DayEndHour
}

// FormatTemp renders a temperature or wind speed with exactly one decimal.
// strconv rounds the exact binary value, so ties only occur on exactly
// representable halves and those go to even.
func FormatTemp(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// FormatTime returns HH:MM:SS in now's location
func FormatTime(now time.Time) string {
	return now.Format("15:04:05")
}

// FormatDate returns YYYY-MM-DD. time.Month is 1-based so no adjustment is needed.
func FormatDate(now time.Time) string {
	return fmt.Sprintf("%04d-%02d-%02d", now.Year(), int(now.Month()), now.Day())
}

// ClockView is the display state of the clock pipeline
type ClockView struct {
	DayLabel string
	Time     string
}

// DayLabel combines the clock snapshot with the local date
func DayLabel(now time.Time, snap source.ClockSnapshot) string {
	return fmt.Sprintf("%s %s ─ Vecka: %d", snap.CurrentDay, FormatDate(now), snap.WeekNumber)
}

// Clock maps a clock snapshot and the local time to display state
func Clock(now time.Time, snap source.ClockSnapshot) ClockView {
	return ClockView{
		DayLabel: DayLabel(now, snap),
		Time:     FormatTime(now),
	}
}

// delayMarkers are lowercase and matched anywhere in the lowercased line
var delayMarkers = []string{"försenad", "delayed"}

// IsDelayed reports whether a departure line carries a delay marker
func IsDelayed(line string) bool {
	lower := strings.ToLower(line)
	for _, m := range delayMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
