package domain

import (
	"fmt"
	"sort"
)

// DetectOverlaps
// validates that no two catalogued periods of the same granularity overlap.
//
// HOW IT WORKS:
//   - Group periods by granularity (CALENDAR, QUARTERLY, MONTHLY)
//   - For each group:
//   - Sort by StartDate
//   - Compare each period with the next one
//   - If StartDate <= previous.EndDate → OVERLAP
//
// EXPECTED OUTPUT (if an overlap exists):
//
//	"overlap detected (MONTHLY): 2026-MAR (2026-03-01 → 2026-03-31) overlaps with 2026-APR (...)"
func DetectOverlaps(periods []*Period) []error {
	grouped := map[PeriodGranularity][]*Period{}
	for _, p := range periods {
		if p == nil {
			continue
		}
		grouped[p.Granularity] = append(grouped[p.Granularity], p)
	}

	var errs []error
	for _, g := range Granularities {
		list := grouped[g]
		sort.Slice(list, func(i, j int) bool {
			return list[i].StartDate.Before(list[j].StartDate)
		})

		for i := 1; i < len(list); i++ {
			prev, curr := list[i-1], list[i]
			if !curr.StartDate.After(prev.EndDate) {
				errs = append(errs, fmt.Errorf(
					"overlap detected (%s): %s (%s → %s) overlaps with %s (%s → %s)",
					g,
					prev.ID, fmtDate(prev.StartDate), fmtDate(prev.EndDate),
					curr.ID, fmtDate(curr.StartDate), fmtDate(curr.EndDate),
				))
			}
		}
	}
	return errs
}

// ValidateHierarchy
//
// PURPOSE:
//
//	Performs strict structural validation of the catalogue before anything is
//	resolved against it. If it returns ANY errors the service must not start.
//
// RULES:
//
//   - Calendar years are roots and have no parent
//   - Every other period has an existing parent of a strictly larger granularity
//   - Parents fully contain their children by date
//   - Every child listed by a parent exists and points back at that parent
//   - No two periods of the same granularity overlap
func (ps *PeriodStore) ValidateHierarchy() []error {
	var errs []error

	for _, list := range [][]*Period{ps.Years, ps.Quarters, ps.Months} {
		for _, p := range list {
			if p.Granularity == CalendarYearPeriod {
				if p.ParentPeriodID != nil {
					errs = append(errs, fmt.Errorf("year %s must not have a parent", p.ID))
				}
			} else if err := ps.validateParent(p); err != nil {
				errs = append(errs, err)
			}

			for _, childID := range p.ChildPeriodIDs {
				child := ps.FindByID(childID)
				if child == nil {
					errs = append(errs, fmt.Errorf("period %s references missing child %s", p.ID, childID))
					continue
				}
				if child.ParentPeriodID == nil || *child.ParentPeriodID != p.ID {
					errs = append(errs, fmt.Errorf("child %s does not point back at parent %s", childID, p.ID))
				}
			}
		}
	}

	all := make([]*Period, 0, len(ps.Periods))
	for _, p := range ps.Periods {
		all = append(all, p)
	}
	return append(errs, DetectOverlaps(all)...)
}

func (ps *PeriodStore) validateParent(p *Period) error {
	if p.ParentPeriodID == nil {
		return fmt.Errorf("period %s (%s) has no parent but is not a year", p.ID, p.Granularity)
	}

	parent := ps.FindByID(*p.ParentPeriodID)
	if parent == nil {
		return fmt.Errorf("child %s references missing parent %s", p.ID, *p.ParentPeriodID)
	}

	if parent.Granularity.Rank() <= p.Granularity.Rank() {
		return fmt.Errorf("period %s (%s) has parent %s (%s) which is not a larger granularity",
			p.ID, p.Granularity, parent.ID, parent.Granularity)
	}

	if parent.StartDate.After(p.StartDate) || parent.EndDate.Before(p.EndDate) {
		return fmt.Errorf("child %s is not fully contained in parent %s", p.ID, parent.ID)
	}
	return nil
}
