// Package calculator derives budget status, savings, goal progress, loan
// summaries and alerts from the records of one context.
package calculator

import (
	"fmt"
	"time"
)

// MonthLayout is the format of month keys ("2026-10").
const MonthLayout = "2006-01"

// ParseMonth validates a month key and returns its first instant in UTC.
func ParseMonth(month string) (time.Time, error) {
	t, err := time.Parse(MonthLayout, month)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q, want YYYY-MM", month)
	}
	return t.UTC(), nil
}

// MonthOf returns the month key of a unix timestamp.
func MonthOf(unix int64) string {
	return time.Unix(unix, 0).UTC().Format(MonthLayout)
}
