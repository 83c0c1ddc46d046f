package domain

import (
	"sort"
	"time"

	"github.com/nholding/tenor/internal/audit"
)

// Period is one row of the period catalogue: an AbsolutePeriod plus its identifiers and its
// links in the Year → Quarter → Month hierarchy.
type Period struct {
	ID             string            `json:"id"`                         // Unique period identifier (e.g., "2026-Q1")
	Name           string            `json:"name"`                       // Human-readable label (e.g., "Q1 2026")
	Granularity    PeriodGranularity `json:"granularity"`                // Monthly, quarterly or calendar
	ParentPeriodID *string           `json:"parent_period_id,omitempty"` // Quarter → Year, Month → Quarter
	ChildPeriodIDs []string          `json:"child_period_ids,omitempty"` // Year has quarters, quarter has months
	StartDate      time.Time         `json:"start_date"`                 // Period start (UTC, inclusive)
	EndDate        time.Time         `json:"end_date"`                   // Period end (UTC, inclusive)
	Absolute       AbsolutePeriod    `json:"absolute"`
	AuditInfo      *audit.AuditInfo  `json:"audit_info,omitempty"` // set once persisted
}

// NewPeriod builds the catalogue row for p, without hierarchy links.
func NewPeriod(p AbsolutePeriod) *Period {
	return &Period{
		ID:             p.ID(),
		Name:           p.Name(),
		Granularity:    p.Granularity,
		ChildPeriodIDs: []string{},
		StartDate:      p.StartDate(),
		EndDate:        p.EndDate(),
		Absolute:       p,
	}
}

// GeneratePeriods creates years, quarters, and months for a range of years.
//
// Example:
//
//	periods := GeneratePeriods(2026, 2026)
//
//	// Outcome (IDs):
//	// "2026" -> year
//	// "2026-Q1", "2026-Q2", "2026-Q3", "2026-Q4" -> quarters
//	// "2026-JAN", "2026-FEB", "2026-MAR", ... -> months
func GeneratePeriods(startYear, endYear int) []*Period {
	var periods []*Period

	for y := startYear; y <= endYear; y++ {
		year := NewPeriod(AbsolutePeriod{Granularity: CalendarYearPeriod, Year: y, Index: 1})
		periods = append(periods, year)

		for _, q := range year.Absolute.Children() {
			quarter := NewPeriod(q)
			quarter.ParentPeriodID = &year.ID
			AddChild(year, quarter.ID)
			periods = append(periods, quarter)

			for _, m := range q.Children() {
				month := NewPeriod(m)
				month.ParentPeriodID = &quarter.ID
				AddChild(quarter, month.ID)
				periods = append(periods, month)
			}
		}
	}
	return periods
}

// PeriodStore stores all catalogued periods in memory for fast lookups and breakdowns.
// It is built once at start-up and only read afterwards, so it is safe for concurrent use.
//
// Example usage:
//
//	ps := NewPeriodStore(GeneratePeriods(2025, 2030))
//	jan2026 := ps.FindByID("2026-JAN")
//	fmt.Println(jan2026.Name) // → "January 2026"
type PeriodStore struct {
	Periods  map[string]*Period // Lookup by ID
	Months   []*Period          // Chronologically sorted months
	Quarters []*Period          // Chronologically sorted quarters
	Years    []*Period          // Chronologically sorted years
}

// NewPeriodStore initializes a PeriodStore from a slice of Periods.
// It builds both a lookup map and chronologically sorted slices per granularity.
func NewPeriodStore(periods []*Period) *PeriodStore {
	store := &PeriodStore{
		Periods: make(map[string]*Period),
	}

	for _, p := range periods {
		if p == nil {
			continue
		}
		store.Periods[p.ID] = p

		switch p.Granularity {
		case MonthlyPeriod:
			store.Months = append(store.Months, p)
		case QuarterlyPeriod:
			store.Quarters = append(store.Quarters, p)
		case CalendarYearPeriod:
			store.Years = append(store.Years, p)
		}
	}

	store.SortAll()
	return store
}

// SortAll sorts Months, Quarters and Years chronologically by StartDate.
// Sorting Months is critical for correct behavior of BreakDownPeriodRange.
func (ps *PeriodStore) SortAll() {
	for _, list := range [][]*Period{ps.Months, ps.Quarters, ps.Years} {
		sort.Slice(list, func(i, j int) bool {
			return list[i].StartDate.Before(list[j].StartDate)
		})
	}
}

// FindByID retrieves a period pointer by ID, nil when the ID is not catalogued.
//
// Example:
//
//	p := store.FindByID("2026-JAN")
//	fmt.Println(p.Name) // → "January 2026"
func (ps *PeriodStore) FindByID(id string) *Period {
	if p, ok := ps.Periods[id]; ok {
		return p
	}
	return nil
}

// Find returns the catalogue row for an absolute period.
func (ps *PeriodStore) Find(p AbsolutePeriod) *Period {
	return ps.FindByID(p.ID())
}
