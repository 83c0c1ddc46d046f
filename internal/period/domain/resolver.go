package domain

import (
	"fmt"
	"time"
)

// TransitionWindow defines how many business days before a period's end the reference period rolls
// forward to the next period. Market participants start trading the next delivery period's
// instruments during the final days of the current one.
//
// The window is configuration, never derived state, and it is always passed explicitly.
type TransitionWindow struct {
	Granularity PeriodGranularity `json:"granularity" yaml:"granularity"`
	Size        int               `json:"size" yaml:"size"` // business days, >= 1
}

// Validate checks the window for consistency and returns an error if invalid.
func (w TransitionWindow) Validate() error {
	if !w.Granularity.Valid() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidWindow, ErrInvalidGranularity, w.Granularity)
	}
	if w.Size < 1 {
		return fmt.Errorf("%w: size %d must be at least 1 business day", ErrInvalidWindow, w.Size)
	}
	return nil
}

// ReferencePeriodResult is the resolver's answer for one calendar date.
//
// NominalPeriod is the period whose calendar span contains Date. ReferencePeriod is the effective
// period relative offsets are measured from: NominalPeriod itself, or its successor when
// InTransition is true.
type ReferencePeriodResult struct {
	Date                  time.Time      `json:"date"`
	NominalPeriod         AbsolutePeriod `json:"nominal_period"`
	ReferencePeriod       AbsolutePeriod `json:"reference_period"`
	InTransition          bool           `json:"in_transition"`
	RemainingBusinessDays int            `json:"remaining_business_days"` // business days in [Date, last business day of NominalPeriod]
}

// ResolveReferencePeriod determines which period date logically belongs to.
//
// Steps:
//
//  1. nominal = the period of granularity g containing date
//  2. last = last business day of nominal
//  3. remaining = business days in [date, last], date included
//  4. in transition iff remaining <= window.Size
//  5. the effective reference period is nominal's successor while in transition
//
// Example (window of 3 business days):
//
//	ResolveReferencePeriod(Date(2025, 6, 26), QuarterlyPeriod, w) // Q3 2025, in transition (Thu, Fri, Mon = 3)
//	ResolveReferencePeriod(Date(2025, 6, 23), QuarterlyPeriod, w) // Q2 2025 (6 business days left)
func ResolveReferencePeriod(date time.Time, g PeriodGranularity, window TransitionWindow) (ReferencePeriodResult, error) {
	if err := checkWindow(g, window); err != nil {
		return ReferencePeriodResult{}, err
	}

	date = DateOf(date)
	nominal, _ := PeriodContaining(date, g)
	remaining := CountBusinessDaysBetween(date, LastBusinessDayOf(nominal))
	inTransition := remaining <= window.Size

	ref := nominal
	if inTransition {
		ref = nominal.Successor()
	}

	return ReferencePeriodResult{
		Date:                  date,
		NominalPeriod:         nominal,
		ReferencePeriod:       ref,
		InTransition:          inTransition,
		RemainingBusinessDays: remaining,
	}, nil
}

// RelativeOffset returns the signed number of periods from reference to target, computed on
// flattened indexes so that it is exact across any number of year boundaries.
//
// Example:
//
//	RelativeOffset(Q3 2025, Q1 2026) // (2026*4+0) - (2025*4+2) = 2
func RelativeOffset(reference, target AbsolutePeriod) (int, error) {
	if reference.Granularity != target.Granularity {
		return 0, &GranularityMismatchError{Reference: reference.Granularity, Target: target.Granularity}
	}
	if !reference.Granularity.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidGranularity, reference.Granularity)
	}
	return target.LinearIndex() - reference.LinearIndex(), nil
}

// TransitionStart returns the first calendar date of p whose effective reference period is
// p's successor.
//
// This is the day after the last business day that still has more than window.Size business days
// remaining, so the weekend directly in front of the first in-window business day is already in
// transition. The result never precedes p's first calendar day.
func TransitionStart(p AbsolutePeriod, window TransitionWindow) (time.Time, error) {
	if err := checkWindow(p.Granularity, window); err != nil {
		return time.Time{}, err
	}

	firstInWindow := StepBusinessDays(LastBusinessDayOf(p), -(window.Size - 1))
	start := PreviousBusinessDay(firstInWindow).AddDate(0, 0, 1)
	if start.Before(p.StartDate()) {
		start = p.StartDate()
	}
	return start, nil
}

// NextReferenceChange returns the first date strictly after date on which the effective reference
// period differs from the one in force on date. Mappers use it to jump from boundary to boundary
// instead of scanning day by day.
func NextReferenceChange(date time.Time, g PeriodGranularity, window TransitionWindow) (time.Time, error) {
	if err := checkWindow(g, window); err != nil {
		return time.Time{}, err
	}

	date = DateOf(date)
	nominal, _ := PeriodContaining(date, g)

	start, _ := TransitionStart(nominal, window)
	if date.Before(start) {
		return start, nil
	}
	return TransitionStart(nominal.Successor(), window)
}

func checkWindow(g PeriodGranularity, window TransitionWindow) error {
	if !g.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidGranularity, g)
	}
	if err := window.Validate(); err != nil {
		return err
	}
	if window.Granularity != g {
		return &GranularityMismatchError{Reference: g, Target: window.Granularity}
	}
	return nil
}
