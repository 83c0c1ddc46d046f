package mapping

import (
	"fmt"
	"time"

	"github.com/nholding/tenor/internal/contract"
	"github.com/nholding/tenor/internal/period/domain"
)

// RelativePeriodMapping says that on every calendar date in [Start, End] the contract sat Offset
// periods after the effective reference period.
type RelativePeriodMapping struct {
	Offset          int                   `json:"offset"`
	Start           time.Time             `json:"start"`
	End             time.Time             `json:"end"`
	ReferencePeriod domain.AbsolutePeriod `json:"reference_period"`
	Label           Label                 `json:"label"`
}

func (m RelativePeriodMapping) String() string {
	return fmt.Sprintf("%s [%s, %s] ref %s", m.Label, m.Start.Format("2006-01-02"), m.End.Format("2006-01-02"), m.ReferencePeriod)
}

// MapContract returns the minimal ordered list of sub-intervals of [start, end] over which the
// contract's relative offset is constant.
//
// The walk jumps from one reference change to the next rather than stepping day by day, so
// the cost grows with the number of periods crossed and not with the number of days. Adjacent
// intervals always carry different offsets, and together they cover every calendar date of the
// range exactly once.
//
// Example (quarter window of 3, contract Q4 2025):
//
//	MapContract(c, Date(2025, 6, 24), Date(2025, 7, 1), w)
//	// [2025-06-24, 2025-06-25] q_2 (reference Q2 2025)
//	// [2025-06-26, 2025-07-01] q_1 (reference Q3 2025)
func MapContract(c contract.ContractSpec, start, end time.Time, window domain.TransitionWindow) ([]RelativePeriodMapping, error) {
	start, end = domain.DateOf(start), domain.DateOf(end)
	if start.After(end) {
		return nil, &domain.InvalidRangeError{Start: start, End: end}
	}

	g := c.Period.Granularity
	var out []RelativePeriodMapping

	for cur := start; !cur.After(end); {
		res, err := domain.ResolveReferencePeriod(cur, g, window)
		if err != nil {
			return nil, err
		}
		offset, err := domain.RelativeOffset(res.ReferencePeriod, c.Period)
		if err != nil {
			return nil, err
		}
		next, err := domain.NextReferenceChange(cur, g, window)
		if err != nil {
			return nil, err
		}

		segEnd := next.AddDate(0, 0, -1)
		if segEnd.After(end) {
			segEnd = end
		}

		if n := len(out); n > 0 && out[n-1].Offset == offset {
			out[n-1].End = segEnd
		} else {
			out = append(out, RelativePeriodMapping{
				Offset:          offset,
				Start:           cur,
				End:             segEnd,
				ReferencePeriod: res.ReferencePeriod,
				Label:           Label{Granularity: g, Offset: offset},
			})
		}
		cur = next
	}
	return out, nil
}

// OffsetOn returns the contract's offset from the effective reference period on a single date.
func OffsetOn(c contract.ContractSpec, date time.Time, window domain.TransitionWindow) (int, error) {
	res, err := domain.ResolveReferencePeriod(date, c.Period.Granularity, window)
	if err != nil {
		return 0, err
	}
	return domain.RelativeOffset(res.ReferencePeriod, c.Period)
}
