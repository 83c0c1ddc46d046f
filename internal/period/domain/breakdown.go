package domain

// BreakDownPeriodRange
// Takes a range of catalogued periods (a single period, a strip of quarters, or several
// calendar years) and returns the IDs of all delivery months the range spans.
//
// A month is included IFF it is fully contained in the range:
//
//	month.Start >= start.Start AND month.End <= end.End
//
// Example:
//
//	months := ps.BreakDownPeriodRange("2026-Q1", "2026-Q2")
//
// Output: [ "2026-JAN", "2026-FEB", "2026-MAR", "2026-APR", "2026-MAY", "2026-JUN" ]
//
// Unknown IDs and reversed ranges return nil.
func (ps *PeriodStore) BreakDownPeriodRange(startID, endID string) []string {
	startPeriod := ps.FindByID(startID)
	endPeriod := ps.FindByID(endID)
	if startPeriod == nil || endPeriod == nil {
		return nil
	}

	// Guard against reversed ranges (start after end)
	if startPeriod.StartDate.After(endPeriod.EndDate) {
		return nil
	}

	var monthIDs []string
	for _, m := range ps.Months {
		if !m.StartDate.Before(startPeriod.StartDate) && !m.EndDate.After(endPeriod.EndDate) {
			monthIDs = append(monthIDs, m.ID)
		}
	}
	return monthIDs
}
