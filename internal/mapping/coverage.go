package mapping

import (
	"fmt"
	"time"

	"github.com/nholding/tenor/internal/period/domain"
)

// ValidateCoverage
// checks that mappings form the minimal exact cover of [start, end].
//
// RULES:
//   - The first interval starts at start and the last ends at end
//   - Every interval has Start <= End
//   - Each interval starts the calendar day after the previous one ends (no gap, no overlap)
//   - Adjacent intervals carry different offsets (otherwise they should have been merged)
//
// EXPECTED OUTPUT (if a gap exists):
//
//	"gap between q_2 ending 2025-06-25 and q_1 starting 2025-06-27"
func ValidateCoverage(mappings []RelativePeriodMapping, start, end time.Time) []error {
	start, end = domain.DateOf(start), domain.DateOf(end)
	if len(mappings) == 0 {
		return []error{fmt.Errorf("no mappings cover %s → %s", fmtDate(start), fmtDate(end))}
	}

	var errs []error
	if first := mappings[0]; !first.Start.Equal(start) {
		errs = append(errs, fmt.Errorf("coverage starts at %s, expected %s", fmtDate(first.Start), fmtDate(start)))
	}
	if last := mappings[len(mappings)-1]; !last.End.Equal(end) {
		errs = append(errs, fmt.Errorf("coverage ends at %s, expected %s", fmtDate(last.End), fmtDate(end)))
	}

	for i, m := range mappings {
		if m.Start.After(m.End) {
			errs = append(errs, fmt.Errorf("interval %s starts %s after it ends %s", m.Label, fmtDate(m.Start), fmtDate(m.End)))
		}
		if i == 0 {
			continue
		}

		prev := mappings[i-1]
		want := prev.End.AddDate(0, 0, 1)
		switch {
		case m.Start.After(want):
			errs = append(errs, fmt.Errorf("gap between %s ending %s and %s starting %s",
				prev.Label, fmtDate(prev.End), m.Label, fmtDate(m.Start)))
		case m.Start.Before(want):
			errs = append(errs, fmt.Errorf("overlap between %s ending %s and %s starting %s",
				prev.Label, fmtDate(prev.End), m.Label, fmtDate(m.Start)))
		}
		if prev.Offset == m.Offset {
			errs = append(errs, fmt.Errorf("adjacent intervals starting %s and %s share offset %d",
				fmtDate(prev.Start), fmtDate(m.Start), m.Offset))
		}
	}
	return errs
}

func fmtDate(t time.Time) string {
	return t.Format("2006-01-02")
}
