package domain

import (
	"time"
)

// Business calendar.
//
// A business day is Monday to Friday. No exchange holiday calendar is modelled: both data sources
// that consume the resolver rely on the same weekday-only convention, so adding holidays on one side
// only would reintroduce the drift this package exists to remove.
//
// All dates are calendar dates represented as time.Time at midnight UTC. Every function normalizes
// its inputs with DateOf, so callers may pass timestamps with a time-of-day or another location.

// Date returns the calendar date y-m-d at midnight UTC.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf truncates t to its calendar date (midnight UTC), keeping t's own year, month and day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return Date(y, m, d)
}

// DateInRange checks if a date lies between two boundaries (inclusive).
func DateInRange(date, start, end time.Time) bool {
	date, start, end = DateOf(date), DateOf(start), DateOf(end)
	return !date.Before(start) && !date.After(end)
}

// IsBusinessDay reports whether d falls on Monday to Friday.
func IsBusinessDay(d time.Time) bool {
	wd := d.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// LastBusinessDayOf returns the last business day of period p. Starting from the period's last
// calendar day it steps backward until a weekday is found; every period contains at least one.
//
// Example:
//
//	q2, _ := NewAbsolutePeriod(QuarterlyPeriod, 2025, 2)
//	LastBusinessDayOf(q2) // 2025-06-30 (Monday)
func LastBusinessDayOf(p AbsolutePeriod) time.Time {
	d := p.EndDate()
	for !IsBusinessDay(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// FirstBusinessDayOf returns the first business day of period p.
func FirstBusinessDayOf(p AbsolutePeriod) time.Time {
	d := p.StartDate()
	for !IsBusinessDay(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// StepBusinessDays moves d by n business days, forward for n > 0 and backward for n < 0.
// Non-business days are skipped entirely, so one business day forward from a Friday is the
// following Monday. n == 0 returns d unchanged even on a weekend; there is no snapping.
func StepBusinessDays(d time.Time, n int) time.Time {
	d = DateOf(d)
	step := 1
	if n < 0 {
		step, n = -1, -n
	}
	for n > 0 {
		d = d.AddDate(0, 0, step)
		if IsBusinessDay(d) {
			n--
		}
	}
	return d
}

// NextBusinessDay returns the first business day strictly after d.
func NextBusinessDay(d time.Time) time.Time {
	return StepBusinessDays(d, 1)
}

// PreviousBusinessDay returns the last business day strictly before d.
func PreviousBusinessDay(d time.Time) time.Time {
	return StepBusinessDays(d, -1)
}

// CountBusinessDaysBetween returns the number of business days in the closed interval
// [start, end]; both ends are counted. It returns 0 when start is after end.
//
// Example:
//
//	CountBusinessDaysBetween(Date(2025, 6, 26), Date(2025, 6, 30)) // 3: Thu 26, Fri 27, Mon 30
func CountBusinessDaysBetween(start, end time.Time) int {
	start, end = DateOf(start), DateOf(end)
	if start.After(end) {
		return 0
	}

	// Dates are UTC midnights, so every day is exactly 24h long.
	days := int(end.Sub(start)/(24*time.Hour)) + 1
	count := (days / 7) * 5

	// The remaining partial week starts on the same weekday as start.
	wd := start.Weekday()
	for i := 0; i < days%7; i++ {
		if wd != time.Saturday && wd != time.Sunday {
			count++
		}
		wd = (wd + 1) % 7
	}
	return count
}
