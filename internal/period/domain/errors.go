package domain

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors, use with errors.Is().
var (
	// ErrGranularityMismatch is returned when two periods (or a period and a transition window)
	// of different granularities are combined. This is a programming error at the call site.
	ErrGranularityMismatch = errors.New("granularity mismatch")

	// ErrInvalidRange is returned when a date range starts after it ends.
	ErrInvalidRange = errors.New("invalid range: start after end")

	// ErrInvalidWindow is returned for a transition window with a size below one business day.
	ErrInvalidWindow = errors.New("invalid transition window")

	// ErrInvalidGranularity is returned for granularities other than MONTHLY, QUARTERLY and CALENDAR.
	ErrInvalidGranularity = errors.New("invalid granularity")
)

// GranularityMismatchError carries the two granularities that were mixed.
type GranularityMismatchError struct {
	Reference PeriodGranularity
	Target    PeriodGranularity
}

func (e *GranularityMismatchError) Error() string {
	return fmt.Sprintf("granularity mismatch: %s vs %s", e.Reference, e.Target)
}

func (e *GranularityMismatchError) Unwrap() error {
	return ErrGranularityMismatch
}

// InvalidRangeError carries the offending range boundaries.
type InvalidRangeError struct {
	Start time.Time
	End   time.Time
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range: start %s is after end %s", fmtDate(e.Start), fmtDate(e.End))
}

func (e *InvalidRangeError) Unwrap() error {
	return ErrInvalidRange
}

// IsClientError returns true if the error is caused by invalid caller input rather than a
// failure inside the calculation.
func IsClientError(err error) bool {
	return errors.Is(err, ErrGranularityMismatch) ||
		errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrInvalidWindow) ||
		errors.Is(err, ErrInvalidGranularity)
}

// Utility to format dates for nicer error messages
func fmtDate(t time.Time) string {
	return t.Format("2006-01-02")
}
