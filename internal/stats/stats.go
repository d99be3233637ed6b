// Package stats reduces already-fetched records into the figures shown on
// the dashboard. Every function is pure: the current time is a parameter and
// empty input yields a zeroed result.
package stats

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// PercentChange returns (current-previous)/previous*100 rounded to a whole
// percent. A zero previous value yields 0.
func PercentChange(current, previous float64) float64 {
	if previous == 0 {
		return 0
	}
	change := (current - previous) / previous * 100
	if math.IsNaN(change) || math.IsInf(change, 0) {
		return 0
	}
	return math.Round(change)
}

func percentChangeDecimal(current, previous decimal.Decimal) float64 {
	c, _ := current.Float64()
	p, _ := previous.Float64()
	return PercentChange(c, p)
}

// monthStart returns midnight on the first day of t's month, in t's location.
func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// inMonth reports whether t falls in the calendar month that starts at start.
func inMonth(t, start time.Time) bool {
	end := start.AddDate(0, 1, 0)
	t = t.In(start.Location())
	return !t.Before(start) && t.Before(end)
}
