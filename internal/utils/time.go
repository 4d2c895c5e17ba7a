package utils

import (
	"fmt"
	"time"
)

// FormatDuration renders a duration as a compact h/m/s string
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}

// DayKey returns the calendar-day key used by day-scoped counters
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
