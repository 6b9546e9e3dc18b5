package utils

import (
	"fmt"
	"time"
)

// DateFormat is the calendar-day format used throughout ledger exports and
// price feeds.
const DateFormat = "2006-01-02"

// ParseDate parses a YYYY-MM-DD day, tolerating a trailing time component.
func ParseDate(dateStr string) (time.Time, error) {
	if len(dateStr) > 10 {
		dateStr = dateStr[:10]
	}
	t, err := time.Parse(DateFormat, dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", dateStr, err)
	}
	return t, nil
}

// LastBusinessDayBefore walks back from t to the most recent weekday.
// Central-bank rate series publish Monday through Friday only.
func LastBusinessDayBefore(t time.Time) time.Time {
	for t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		t = t.AddDate(0, 0, -1)
	}
	return t
}
