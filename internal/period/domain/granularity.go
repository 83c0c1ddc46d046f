package domain

import (
	"fmt"
	"strings"
)

// PeriodGranularity identifies the logical resolution of a Period: the tenor a futures contract is
// traded in. A contract is either a month, a quarter or a calendar year of delivery.
type PeriodGranularity string

const (
	// MonthlyPeriod represents a single calendar month, e.g. January 2026.
	MonthlyPeriod PeriodGranularity = "MONTHLY"

	// QuarterlyPeriod represents a three-month quarter, e.g. Q1 2026.
	QuarterlyPeriod PeriodGranularity = "QUARTERLY"

	// CalendarYearPeriod represents a full calendar year, e.g. Calendar 2026.
	CalendarYearPeriod PeriodGranularity = "CALENDAR"
)

// Granularities lists every supported granularity from finest to coarsest.
var Granularities = []PeriodGranularity{MonthlyPeriod, QuarterlyPeriod, CalendarYearPeriod}

// Valid reports whether g is one of the supported granularities.
func (g PeriodGranularity) Valid() bool {
	switch g {
	case MonthlyPeriod, QuarterlyPeriod, CalendarYearPeriod:
		return true
	}
	return false
}

// PeriodsPerYear returns how many periods of granularity g fit in one calendar year
// (12, 4 or 1). Unknown granularities return 0.
func (g PeriodGranularity) PeriodsPerYear() int {
	switch g {
	case MonthlyPeriod:
		return 12
	case QuarterlyPeriod:
		return 4
	case CalendarYearPeriod:
		return 1
	}
	return 0
}

// MonthsPerPeriod returns the length of one period in calendar months.
func (g PeriodGranularity) MonthsPerPeriod() int {
	if n := g.PeriodsPerYear(); n > 0 {
		return 12 / n
	}
	return 0
}

// Rank
// Purpose:
//
//	Maps granularity enums to numeric ranks to allow
//	consistent comparisons such as:
//
//	     MONTHLY (1) < QUARTERLY (2) < CALENDAR (3)
//
// Used by hierarchy validation.
func (g PeriodGranularity) Rank() int {
	switch g {
	case MonthlyPeriod:
		return 1
	case QuarterlyPeriod:
		return 2
	case CalendarYearPeriod:
		return 3
	default:
		return 99 // any unknown granularity is considered invalid
	}
}

// Letter returns the single character used for g in contract codes and relative labels
// ("m", "q" or "y").
func (g PeriodGranularity) Letter() string {
	switch g {
	case MonthlyPeriod:
		return "m"
	case QuarterlyPeriod:
		return "q"
	case CalendarYearPeriod:
		return "y"
	}
	return ""
}

// ParseGranularity accepts the canonical names (MONTHLY, QUARTERLY, CALENDAR), the plain
// words (month, quarter, year) and the single letters used in contract codes.
//
// Example:
//
//	g, _ := ParseGranularity("q") // QuarterlyPeriod
func ParseGranularity(s string) (PeriodGranularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "month", "monthly":
		return MonthlyPeriod, nil
	case "q", "quarter", "quarterly":
		return QuarterlyPeriod, nil
	case "y", "year", "yearly", "cal", "calendar":
		return CalendarYearPeriod, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidGranularity, s)
}
