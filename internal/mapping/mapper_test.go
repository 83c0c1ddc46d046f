package mapping_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nholding/tenor/internal/contract"
	"github.com/nholding/tenor/internal/mapping"
	"github.com/nholding/tenor/internal/period/domain"
)

var quarterWindow = domain.TransitionWindow{Granularity: domain.QuarterlyPeriod, Size: 3}

func mustContract(t *testing.T, code string) contract.ContractSpec {
	t.Helper()
	c, err := contract.Parse(code)
	require.NoError(t, err)
	return c
}

func TestMapContract_SplitsAtTransition(t *testing.T) {
	// GIVEN: the Q4 2025 contract and a range straddling the Q2 → Q3 roll
	// WHEN: the range is mapped with a window of 3 business days
	// THEN: offset 2 runs until the day before the roll and offset 1 from the roll on
	c := mustContract(t, "debq4_25")
	start, end := domain.Date(2025, 6, 24), domain.Date(2025, 7, 1)

	got, err := mapping.MapContract(c, start, end, quarterWindow)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, 2, got[0].Offset)
	assert.Equal(t, domain.Date(2025, 6, 24), got[0].Start)
	assert.Equal(t, domain.Date(2025, 6, 25), got[0].End)
	assert.Equal(t, "2025-Q2", got[0].ReferencePeriod.ID())
	assert.Equal(t, "q_2", got[0].Label.String())

	assert.Equal(t, 1, got[1].Offset)
	assert.Equal(t, domain.Date(2025, 6, 26), got[1].Start)
	assert.Equal(t, domain.Date(2025, 7, 1), got[1].End)
	assert.Equal(t, "2025-Q3", got[1].ReferencePeriod.ID())

	assert.Empty(t, mapping.ValidateCoverage(got, start, end))
}

func TestMapContract_SingleDay(t *testing.T) {
	c := mustContract(t, "debq4_25")
	d := domain.Date(2025, 6, 28)

	got, err := mapping.MapContract(c, d, d, quarterWindow)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, d, got[0].Start)
	assert.Equal(t, d, got[0].End)
	assert.Equal(t, 1, got[0].Offset)
}

func TestMapContract_ContractAlreadyDelivering(t *testing.T) {
	// Offsets may reach zero and go negative once the contract's own period becomes the reference.
	c := mustContract(t, "debq3_25")
	got, err := mapping.MapContract(c, domain.Date(2025, 9, 1), domain.Date(2025, 10, 31), quarterWindow)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, 0, got[0].Offset)
	assert.Equal(t, domain.Date(2025, 9, 25), got[0].End)
	assert.Equal(t, -1, got[1].Offset)
	assert.Equal(t, "q_-1", got[1].Label.String())
}

func TestMapContract_AcrossSeveralYears(t *testing.T) {
	c := mustContract(t, "frpm11_2026")
	w := domain.TransitionWindow{Granularity: domain.MonthlyPeriod, Size: 2}
	start, end := domain.Date(2024, 1, 1), domain.Date(2026, 12, 31)

	got, err := mapping.MapContract(c, start, end, w)
	require.NoError(t, err)
	assert.Empty(t, mapping.ValidateCoverage(got, start, end))

	// Each month roll decrements the offset by one.
	for i := 1; i < len(got); i++ {
		assert.Equal(t, got[i-1].Offset-1, got[i].Offset)
	}
	// 2024-01 is still the reference on Jan 1st, so the first offset counts to Nov 2026.
	assert.Equal(t, 34, got[0].Offset)
}

func TestMapContract_EveryDateMatchesResolver(t *testing.T) {
	for _, tc := range []struct {
		code   string
		window domain.TransitionWindow
	}{
		{"debq1_26", quarterWindow},
		{"nlpm3_26", domain.TransitionWindow{Granularity: domain.MonthlyPeriod, Size: 1}},
		{"atby_27", domain.TransitionWindow{Granularity: domain.CalendarYearPeriod, Size: 5}},
	} {
		c := mustContract(t, tc.code)
		start, end := domain.Date(2025, 2, 14), domain.Date(2026, 4, 3)

		got, err := mapping.MapContract(c, start, end, tc.window)
		require.NoError(t, err, tc.code)
		require.Empty(t, mapping.ValidateCoverage(got, start, end), tc.code)

		for _, m := range got {
			for d := m.Start; !d.After(m.End); d = d.AddDate(0, 0, 1) {
				off, err := mapping.OffsetOn(c, d, tc.window)
				require.NoError(t, err)
				require.Equal(t, m.Offset, off, "%s on %s", tc.code, d.Format("2006-01-02"))
			}
		}
	}
}

func TestMapContract_SubIntervalIsConsistent(t *testing.T) {
	c := mustContract(t, "debq4_25")
	full, err := mapping.MapContract(c, domain.Date(2025, 1, 1), domain.Date(2025, 12, 31), quarterWindow)
	require.NoError(t, err)

	subStart, subEnd := domain.Date(2025, 6, 20), domain.Date(2025, 10, 2)
	sub, err := mapping.MapContract(c, subStart, subEnd, quarterWindow)
	require.NoError(t, err)

	for _, m := range sub {
		for _, f := range full {
			if m.Start.After(f.End) || m.End.Before(f.Start) {
				continue
			}
			assert.Equal(t, f.Offset, m.Offset)
		}
	}
}

func TestMapContract_Errors(t *testing.T) {
	c := mustContract(t, "debq4_25")

	_, err := mapping.MapContract(c, domain.Date(2025, 7, 1), domain.Date(2025, 6, 24), quarterWindow)
	assert.ErrorIs(t, err, domain.ErrInvalidRange)
	var rangeErr *domain.InvalidRangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, domain.Date(2025, 7, 1), rangeErr.Start)

	_, err = mapping.MapContract(c, domain.Date(2025, 6, 24), domain.Date(2025, 7, 1),
		domain.TransitionWindow{Granularity: domain.MonthlyPeriod, Size: 3})
	assert.ErrorIs(t, err, domain.ErrGranularityMismatch)

	_, err = mapping.MapContract(c, domain.Date(2025, 6, 24), domain.Date(2025, 7, 1),
		domain.TransitionWindow{Granularity: domain.QuarterlyPeriod})
	assert.ErrorIs(t, err, domain.ErrInvalidWindow)
}

func TestValidateCoverage_ReportsDefects(t *testing.T) {
	start, end := domain.Date(2025, 6, 24), domain.Date(2025, 7, 1)
	at := func(offset int, from, to time.Time) mapping.RelativePeriodMapping {
		return mapping.RelativePeriodMapping{
			Offset: offset, Start: from, End: to,
			Label: mapping.Label{Granularity: domain.QuarterlyPeriod, Offset: offset},
		}
	}

	tests := []struct {
		name     string
		mappings []mapping.RelativePeriodMapping
		want     string
	}{
		{"empty", nil, "no mappings cover"},
		{"late start", []mapping.RelativePeriodMapping{at(1, domain.Date(2025, 6, 25), end)}, "coverage starts at 2025-06-25"},
		{"early end", []mapping.RelativePeriodMapping{at(1, start, domain.Date(2025, 6, 30))}, "coverage ends at 2025-06-30"},
		{"gap", []mapping.RelativePeriodMapping{
			at(2, start, domain.Date(2025, 6, 25)),
			at(1, domain.Date(2025, 6, 27), end),
		}, "gap between q_2 ending 2025-06-25 and q_1 starting 2025-06-27"},
		{"overlap", []mapping.RelativePeriodMapping{
			at(2, start, domain.Date(2025, 6, 26)),
			at(1, domain.Date(2025, 6, 26), end),
		}, "overlap between"},
		{"unmerged", []mapping.RelativePeriodMapping{
			at(1, start, domain.Date(2025, 6, 25)),
			at(1, domain.Date(2025, 6, 26), end),
		}, "share offset 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := mapping.ValidateCoverage(tt.mappings, start, end)
			require.NotEmpty(t, errs)

			var msgs []string
			for _, err := range errs {
				msgs = append(msgs, err.Error())
			}
			assert.Contains(t, joinMessages(msgs), tt.want)
		})
	}
}

func joinMessages(msgs []string) string {
	var s string
	for _, m := range msgs {
		s += m + "\n"
	}
	return s
}
