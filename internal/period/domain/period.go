package domain

import (
	"fmt"
	"strings"
	"time"
)

// AbsolutePeriod identifies one specific delivery period: a granularity, a year and a 1-based index
// within that year (month 1–12, quarter 1–4, always 1 for calendar years).
//
// Periods form a strict parent-child hierarchy:
//
//	2026 (Year)
//	  ├── 2026-Q1 (Quarter)
//	  │     ├── 2026-JAN (Month)
//	  │     ├── 2026-FEB (Month)
//	  │     └── 2026-MAR (Month)
//	  ├── 2026-Q2
//	  ├── 2026-Q3
//	  └── 2026-Q4
//
// The index is always normalized into range by carrying into (or borrowing from) the year, so
// quarter 5 of 2025 is quarter 1 of 2026. Two periods of the same granularity are totally ordered
// through LinearIndex.
type AbsolutePeriod struct {
	Granularity PeriodGranularity `json:"granularity"`
	Year        int               `json:"year"`
	Index       int               `json:"index"`
}

// NewAbsolutePeriod builds a normalized period.
//
// Example:
//
//	p, _ := NewAbsolutePeriod(QuarterlyPeriod, 2025, 5)
//	p.ID() // "2026-Q1"
func NewAbsolutePeriod(g PeriodGranularity, year, index int) (AbsolutePeriod, error) {
	if !g.Valid() {
		return AbsolutePeriod{}, fmt.Errorf("%w: %q", ErrInvalidGranularity, g)
	}
	return periodFromLinear(g, year*g.PeriodsPerYear()+index-1), nil
}

// PeriodContaining returns the period of granularity g that contains date.
//
// Example:
//
//	PeriodContaining(Date(2025, 6, 26), QuarterlyPeriod) // 2025-Q2
func PeriodContaining(date time.Time, g PeriodGranularity) (AbsolutePeriod, error) {
	if !g.Valid() {
		return AbsolutePeriod{}, fmt.Errorf("%w: %q", ErrInvalidGranularity, g)
	}
	y, m, _ := date.Date()
	return AbsolutePeriod{
		Granularity: g,
		Year:        y,
		Index:       (int(m)-1)/g.MonthsPerPeriod() + 1,
	}, nil
}

// periodFromLinear is the inverse of LinearIndex. g must be valid.
func periodFromLinear(g PeriodGranularity, linear int) AbsolutePeriod {
	n := g.PeriodsPerYear()
	year, rem := linear/n, linear%n
	if rem < 0 {
		year, rem = year-1, rem+n
	}
	return AbsolutePeriod{Granularity: g, Year: year, Index: rem + 1}
}

// LinearIndex flattens the period to year*periods_per_year + (index-1). Differences of linear
// indexes give signed period offsets across any number of year boundaries.
func (p AbsolutePeriod) LinearIndex() int {
	return p.Year*p.Granularity.PeriodsPerYear() + p.Index - 1
}

// Add returns the period n periods after p (before p for negative n).
func (p AbsolutePeriod) Add(n int) AbsolutePeriod {
	return periodFromLinear(p.Granularity, p.LinearIndex()+n)
}

// Successor returns the next period: Q4 → Q1 of the next year, December → January, Y → Y+1.
func (p AbsolutePeriod) Successor() AbsolutePeriod {
	return p.Add(1)
}

// Predecessor returns the previous period.
func (p AbsolutePeriod) Predecessor() AbsolutePeriod {
	return p.Add(-1)
}

// Compare returns -1, 0 or +1 when p is before, equal to or after other. Both periods must share a
// granularity.
func (p AbsolutePeriod) Compare(other AbsolutePeriod) (int, error) {
	if p.Granularity != other.Granularity {
		return 0, &GranularityMismatchError{Reference: p.Granularity, Target: other.Granularity}
	}
	a, b := p.LinearIndex(), other.LinearIndex()
	switch {
	case a < b:
		return -1, nil
	case a > b:
		return 1, nil
	}
	return 0, nil
}

// StartDate returns the first calendar day of the period.
func (p AbsolutePeriod) StartDate() time.Time {
	month := (p.Index-1)*p.Granularity.MonthsPerPeriod() + 1
	return Date(p.Year, time.Month(month), 1)
}

// EndDate returns the last calendar day of the period (inclusive).
func (p AbsolutePeriod) EndDate() time.Time {
	return p.StartDate().AddDate(0, p.Granularity.MonthsPerPeriod(), -1)
}

// Contains reports whether date falls inside the period.
func (p AbsolutePeriod) Contains(date time.Time) bool {
	return DateInRange(date, p.StartDate(), p.EndDate())
}

// ID returns the unique period identifier: "2026-JAN", "2026-Q1" or "2026".
func (p AbsolutePeriod) ID() string {
	switch p.Granularity {
	case MonthlyPeriod:
		return strings.ToUpper(p.StartDate().Format("2006-Jan"))
	case QuarterlyPeriod:
		return fmt.Sprintf("%d-Q%d", p.Year, p.Index)
	case CalendarYearPeriod:
		return fmt.Sprintf("%d", p.Year)
	}
	return ""
}

// Name returns a human-readable label: "January 2026", "Q1 2026" or "2026".
func (p AbsolutePeriod) Name() string {
	switch p.Granularity {
	case MonthlyPeriod:
		return p.StartDate().Format("January 2006")
	case QuarterlyPeriod:
		return fmt.Sprintf("Q%d %d", p.Index, p.Year)
	case CalendarYearPeriod:
		return fmt.Sprintf("%d", p.Year)
	}
	return ""
}

func (p AbsolutePeriod) String() string {
	return p.ID()
}

// IsZero reports whether p is the zero value.
func (p AbsolutePeriod) IsZero() bool {
	return p == AbsolutePeriod{}
}
