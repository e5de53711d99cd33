package utils

import "time"

const DefaultDateFormat = "2006-01-02"

// DateOnly strips the time-of-day component. Trade dates are calendar dates,
// not timestamps.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// FormatDate formats a date using the default format.
func FormatDate(t time.Time) string {
	return t.Format(DefaultDateFormat)
}
