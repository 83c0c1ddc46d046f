package domain

// This file contains ONLY utilities related to walking or building the
// PERIOD HIERARCHY (Year → Quarter → Month).

// Parent returns the period one level up (Month → Quarter, Quarter → Year). Calendar years are
// roots and return false.
//
// Example:
//
//	m, _ := NewAbsolutePeriod(MonthlyPeriod, 2026, 5)
//	q, _ := m.Parent() // 2026-Q2
func (p AbsolutePeriod) Parent() (AbsolutePeriod, bool) {
	switch p.Granularity {
	case MonthlyPeriod:
		q, _ := PeriodContaining(p.StartDate(), QuarterlyPeriod)
		return q, true
	case QuarterlyPeriod:
		return AbsolutePeriod{Granularity: CalendarYearPeriod, Year: p.Year, Index: 1}, true
	}
	return AbsolutePeriod{}, false
}

// Children returns the periods one level down, in chronological order. Months have no children.
func (p AbsolutePeriod) Children() []AbsolutePeriod {
	var child PeriodGranularity
	switch p.Granularity {
	case CalendarYearPeriod:
		child = QuarterlyPeriod
	case QuarterlyPeriod:
		child = MonthlyPeriod
	default:
		return nil
	}

	first, _ := PeriodContaining(p.StartDate(), child)
	n := child.PeriodsPerYear() / p.Granularity.PeriodsPerYear()
	children := make([]AbsolutePeriod, 0, n)
	for i := 0; i < n; i++ {
		children = append(children, first.Add(i))
	}
	return children
}

// Months breaks the period down into its delivery months.
//
// Examples:
//
//	// YEAR
//	y.Months() → [2026-JAN ... 2026-DEC]
//
//	// QUARTER
//	q3.Months() → [2026-JUL, 2026-AUG, 2026-SEP]
//
//	// MONTH (identity)
//	feb.Months() → [2026-FEB]
func (p AbsolutePeriod) Months() []AbsolutePeriod {
	if p.Granularity == MonthlyPeriod {
		return []AbsolutePeriod{p}
	}
	var months []AbsolutePeriod
	for _, c := range p.Children() {
		months = append(months, c.Months()...)
	}
	return months
}

// AddChild
// Adds a child period ID to a catalogued parent Period. Prevents duplicates.
// This is used while generating periods (GeneratePeriods(startYear, endYear)).
//
// Example:
//
//	year := Period{ID: "2026", Granularity: CalendarYearPeriod}
//	AddChild(&year, "2026-Q1")
//
// Result:
//
//	year.ChildPeriodIDs == ["2026-Q1"]
func AddChild(parent *Period, childID string) {
	if contains(parent.ChildPeriodIDs, childID) {
		return // Prevent duplicates
	}
	parent.ChildPeriodIDs = append(parent.ChildPeriodIDs, childID)
}

// contains
// Simple helper to check if a slice contains a string.
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
