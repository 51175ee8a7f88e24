// Package timeutil parses and compares the timestamp strings returned by the
// GitHub API. Timestamps stay as strings throughout the pipeline; parsing
// happens only where a duration or calendar bucket is needed.
package timeutil

import (
	"fmt"
	"strings"
	"time"
)

// Accepted layouts, tried in order. GitHub delivers RFC3339 with a trailing
// "Z"; the Z is stripped before matching so the same layouts also cover
// timestamps that were already naive.
var layouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses a timestamp string into a UTC time.
func ParseTimestamp(ts string) (time.Time, error) {
	s := strings.TrimSuffix(ts, "Z")
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", ts)
}

// DateOnly returns the YYYY-MM-DD prefix of a timestamp string, or the whole
// string if it is shorter than a date.
func DateOnly(ts string) string {
	if len(ts) >= 10 {
		return ts[:10]
	}
	return ts
}

// WithinRange reports whether the date part of ts falls inside the inclusive
// [start, end] date range. Comparison is lexicographic on ISO date strings,
// which orders the same as calendar dates.
func WithinRange(ts, start, end string) bool {
	if ts == "" {
		return false
	}
	d := DateOnly(ts)
	return d >= start && d <= end
}

// HoursBetween returns the signed duration from a to b in hours.
func HoursBetween(a, b time.Time) float64 {
	return b.Sub(a).Hours()
}
