package track

import (
	"math"
	"time"
)

// Accepted timestamp formats for manual entries. Anything else is a
// validation failure; timestamps are never interpolated into queries.
var timestampFormats = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// DateFormat is the calendar-date format used by report and list
// filters.
const DateFormat = "2006-01-02"

// ParseTimestamp parses a manual-entry timestamp. The result is UTC at
// second precision.
func ParseTimestamp(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range timestampFormats {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC().Truncate(time.Second), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// ParseDate parses a calendar date (YYYY-MM-DD) as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// Hours derives the logged hours for a closed interval: whole minutes
// divided by 60, rounded to two decimals.
func Hours(start, end time.Time) float64 {
	minutes := int64(end.Sub(start) / time.Minute)
	return Round2(float64(minutes) / 60)
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// DayBounds returns the half-open [00:00:00, next midnight) bounds of
// t's calendar date in UTC.
func DayBounds(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}
