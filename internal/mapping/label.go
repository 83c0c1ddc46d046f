package mapping

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nholding/tenor/internal/period/domain"
)

// ErrInvalidLabel is returned for relative labels that do not match "<m|q|y>_<offset>".
var ErrInvalidLabel = errors.New("invalid relative label")

// Label names a contract relative to the effective reference period, the way the relative data
// source keys its series: "q_1" is the next quarter, "m_0" the current month, "y_-1" last year.
type Label struct {
	Granularity domain.PeriodGranularity `json:"granularity"`
	Offset      int                      `json:"offset"`
}

func (l Label) String() string {
	return FormatLabel(l)
}

// FormatLabel renders l as "<letter>_<offset>".
func FormatLabel(l Label) string {
	return l.Granularity.Letter() + "_" + strconv.Itoa(l.Offset)
}

// ParseLabel decodes a relative label. Input is case-insensitive.
//
// Example:
//
//	l, _ := ParseLabel("q_2") // Label{QuarterlyPeriod, 2}
func ParseLabel(s string) (Label, error) {
	letter, num, found := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "_")
	if !found || len(letter) != 1 {
		return Label{}, fmt.Errorf("%w: %q", ErrInvalidLabel, s)
	}

	g, err := domain.ParseGranularity(letter)
	if err != nil {
		return Label{}, fmt.Errorf("%w: %q", ErrInvalidLabel, s)
	}

	offset, err := strconv.Atoi(num)
	if err != nil || strings.HasPrefix(num, "+") {
		return Label{}, fmt.Errorf("%w: %q: bad offset", ErrInvalidLabel, s)
	}
	return Label{Granularity: g, Offset: offset}, nil
}

// ResolveLabel turns a relative label back into the absolute period it denotes on date: the
// effective reference period moved by the label's offset.
//
// Example (quarter window of 3):
//
//	ResolveLabel(Label{QuarterlyPeriod, 1}, Date(2025, 6, 26), w) // Q4 2025 (reference is already Q3)
func ResolveLabel(l Label, date time.Time, window domain.TransitionWindow) (domain.AbsolutePeriod, error) {
	res, err := domain.ResolveReferencePeriod(date, l.Granularity, window)
	if err != nil {
		return domain.AbsolutePeriod{}, err
	}
	return res.ReferencePeriod.Add(l.Offset), nil
}
