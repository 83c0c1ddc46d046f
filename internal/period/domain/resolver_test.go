package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nholding/tenor/internal/period/domain"
)

var quarterWindow = domain.TransitionWindow{Granularity: domain.QuarterlyPeriod, Size: 3}

func TestResolveReferencePeriod_InsideWindow(t *testing.T) {
	// GIVEN: Thursday 2025-06-26, Q2 ends Monday 2025-06-30
	// WHEN: three business days remain (Thu, Fri, Mon) and the window is 3
	// THEN: the date is in transition and Q3 2025 is the reference
	res, err := domain.ResolveReferencePeriod(domain.Date(2025, 6, 26), domain.QuarterlyPeriod, quarterWindow)
	require.NoError(t, err)

	assert.True(t, res.InTransition)
	assert.Equal(t, 3, res.RemainingBusinessDays)
	assert.Equal(t, "2025-Q2", res.NominalPeriod.ID())
	assert.Equal(t, "2025-Q3", res.ReferencePeriod.ID())
}

func TestResolveReferencePeriod_OutsideWindow(t *testing.T) {
	res, err := domain.ResolveReferencePeriod(domain.Date(2025, 6, 23), domain.QuarterlyPeriod, quarterWindow)
	require.NoError(t, err)

	assert.False(t, res.InTransition)
	assert.Equal(t, 6, res.RemainingBusinessDays)
	assert.Equal(t, "2025-Q2", res.ReferencePeriod.ID())
}

func TestResolveReferencePeriod_WeekendAfterLastBusinessDay(t *testing.T) {
	// May 2025 ends on a Saturday; the last business day is Friday the 30th.
	w := domain.TransitionWindow{Granularity: domain.MonthlyPeriod, Size: 1}
	res, err := domain.ResolveReferencePeriod(domain.Date(2025, 5, 31), domain.MonthlyPeriod, w)
	require.NoError(t, err)

	assert.Equal(t, 0, res.RemainingBusinessDays)
	assert.True(t, res.InTransition)
	assert.Equal(t, "2025-JUN", res.ReferencePeriod.ID())
}

func TestResolveReferencePeriod_YearWraparound(t *testing.T) {
	w := domain.TransitionWindow{Granularity: domain.QuarterlyPeriod, Size: 2}
	res, err := domain.ResolveReferencePeriod(domain.Date(2025, 12, 30), domain.QuarterlyPeriod, w)
	require.NoError(t, err)
	assert.Equal(t, "2026-Q1", res.ReferencePeriod.ID())

	yw := domain.TransitionWindow{Granularity: domain.CalendarYearPeriod, Size: 2}
	res, err = domain.ResolveReferencePeriod(domain.Date(2025, 12, 30), domain.CalendarYearPeriod, yw)
	require.NoError(t, err)
	assert.Equal(t, "2026", res.ReferencePeriod.ID())
}

func TestResolveReferencePeriod_Errors(t *testing.T) {
	_, err := domain.ResolveReferencePeriod(domain.Date(2025, 6, 26), domain.MonthlyPeriod, quarterWindow)
	assert.ErrorIs(t, err, domain.ErrGranularityMismatch)

	_, err = domain.ResolveReferencePeriod(domain.Date(2025, 6, 26), domain.QuarterlyPeriod,
		domain.TransitionWindow{Granularity: domain.QuarterlyPeriod, Size: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidWindow)
	assert.True(t, domain.IsClientError(err))
}

func TestResolveReferencePeriod_SingleFlipPerPeriod(t *testing.T) {
	// Walking Q2 2025 one business day at a time, in_transition flips exactly once and
	// only where remaining business days drop to the window size.
	q2 := mustPeriod(t, domain.QuarterlyPeriod, 2025, 2)
	last := domain.LastBusinessDayOf(q2)

	flips := 0
	prev := false
	for d := domain.FirstBusinessDayOf(q2); !d.After(last); d = domain.NextBusinessDay(d) {
		res, err := domain.ResolveReferencePeriod(d, domain.QuarterlyPeriod, quarterWindow)
		require.NoError(t, err)

		assert.Equal(t, res.RemainingBusinessDays <= quarterWindow.Size, res.InTransition, d.Format("2006-01-02"))
		if res.InTransition != prev {
			flips++
		}
		prev = res.InTransition
	}
	assert.Equal(t, 1, flips)
}

func TestRelativeOffset(t *testing.T) {
	q3 := mustPeriod(t, domain.QuarterlyPeriod, 2025, 3)

	off, err := domain.RelativeOffset(q3, mustPeriod(t, domain.QuarterlyPeriod, 2025, 4))
	require.NoError(t, err)
	assert.Equal(t, 1, off)

	off, err = domain.RelativeOffset(q3, mustPeriod(t, domain.QuarterlyPeriod, 2026, 1))
	require.NoError(t, err)
	assert.Equal(t, 2, off)

	off, err = domain.RelativeOffset(q3, mustPeriod(t, domain.QuarterlyPeriod, 2023, 4))
	require.NoError(t, err)
	assert.Equal(t, -7, off)

	_, err = domain.RelativeOffset(q3, mustPeriod(t, domain.MonthlyPeriod, 2025, 9))
	var mismatch *domain.GranularityMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, domain.QuarterlyPeriod, mismatch.Reference)
	assert.Equal(t, domain.MonthlyPeriod, mismatch.Target)
}

func TestRelativeOffset_AntisymmetricAndAdditive(t *testing.T) {
	for _, g := range domain.Granularities {
		var periods []domain.AbsolutePeriod
		for i := -14; i <= 14; i += 3 {
			periods = append(periods, mustPeriod(t, g, 2025, 1).Add(i))
		}

		for _, a := range periods {
			for _, b := range periods {
				ab, err := domain.RelativeOffset(a, b)
				require.NoError(t, err)
				ba, err := domain.RelativeOffset(b, a)
				require.NoError(t, err)
				assert.Equal(t, -ab, ba)

				for _, c := range periods {
					bc, _ := domain.RelativeOffset(b, c)
					ac, _ := domain.RelativeOffset(a, c)
					assert.Equal(t, ac, ab+bc)
				}
			}
		}
	}
}

func TestTransitionStart(t *testing.T) {
	tests := []struct {
		name   string
		period domain.AbsolutePeriod
		window domain.TransitionWindow
		want   time.Time
	}{
		{"q2 2025, window 3", mustPeriod(t, domain.QuarterlyPeriod, 2025, 2), quarterWindow, domain.Date(2025, 6, 26)},
		{"q3 2025, window 3", mustPeriod(t, domain.QuarterlyPeriod, 2025, 3), quarterWindow, domain.Date(2025, 9, 26)},
		{
			// March 2025 ends on Monday the 31st; the weekend before it is already in transition.
			"weekend in front of the window",
			mustPeriod(t, domain.MonthlyPeriod, 2025, 3),
			domain.TransitionWindow{Granularity: domain.MonthlyPeriod, Size: 1},
			domain.Date(2025, 3, 29),
		},
		{
			"window longer than the period",
			mustPeriod(t, domain.MonthlyPeriod, 2025, 6),
			domain.TransitionWindow{Granularity: domain.MonthlyPeriod, Size: 40},
			domain.Date(2025, 6, 1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := domain.TransitionStart(tt.period, tt.window)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTransitionStart_AgreesWithResolver(t *testing.T) {
	for _, g := range domain.Granularities {
		for size := 1; size <= 5; size++ {
			w := domain.TransitionWindow{Granularity: g, Size: size}
			p := mustPeriod(t, g, 2024, 1)

			for i := 0; i < 4; i++ {
				start, err := domain.TransitionStart(p, w)
				require.NoError(t, err)

				for d := p.StartDate(); !d.After(p.EndDate()); d = d.AddDate(0, 0, 1) {
					res, err := domain.ResolveReferencePeriod(d, g, w)
					require.NoError(t, err)
					require.Equal(t, !d.Before(start), res.InTransition, "%s size %d on %s", p, size, d.Format("2006-01-02"))
				}
				p = p.Successor()
			}
		}
	}
}

func TestNextReferenceChange(t *testing.T) {
	next, err := domain.NextReferenceChange(domain.Date(2025, 6, 24), domain.QuarterlyPeriod, quarterWindow)
	require.NoError(t, err)
	assert.Equal(t, domain.Date(2025, 6, 26), next)

	next, err = domain.NextReferenceChange(domain.Date(2025, 6, 26), domain.QuarterlyPeriod, quarterWindow)
	require.NoError(t, err)
	assert.Equal(t, domain.Date(2025, 9, 26), next)

	_, err = domain.NextReferenceChange(domain.Date(2025, 6, 26), domain.MonthlyPeriod, quarterWindow)
	assert.ErrorIs(t, err, domain.ErrGranularityMismatch)
}
