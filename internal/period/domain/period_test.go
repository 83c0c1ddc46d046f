package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nholding/tenor/internal/period/domain"
)

func TestNewAbsolutePeriod_Normalizes(t *testing.T) {
	tests := []struct {
		name   string
		g      domain.PeriodGranularity
		year   int
		index  int
		wantID string
	}{
		{"quarter carry", domain.QuarterlyPeriod, 2025, 5, "2026-Q1"},
		{"quarter borrow", domain.QuarterlyPeriod, 2025, 0, "2024-Q4"},
		{"month carry", domain.MonthlyPeriod, 2025, 13, "2026-JAN"},
		{"month deep borrow", domain.MonthlyPeriod, 2025, -11, "2024-JAN"},
		{"year", domain.CalendarYearPeriod, 2025, 1, "2025"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := domain.NewAbsolutePeriod(tt.g, tt.year, tt.index)
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, p.ID())
		})
	}
}

func TestNewAbsolutePeriod_RejectsUnknownGranularity(t *testing.T) {
	_, err := domain.NewAbsolutePeriod("WEEKLY", 2025, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidGranularity)
}

func TestPeriodContaining(t *testing.T) {
	d := domain.Date(2025, 11, 14)

	m, err := domain.PeriodContaining(d, domain.MonthlyPeriod)
	require.NoError(t, err)
	assert.Equal(t, "2025-NOV", m.ID())

	q, err := domain.PeriodContaining(d, domain.QuarterlyPeriod)
	require.NoError(t, err)
	assert.Equal(t, "2025-Q4", q.ID())

	y, err := domain.PeriodContaining(d, domain.CalendarYearPeriod)
	require.NoError(t, err)
	assert.Equal(t, "2025", y.ID())
}

func TestAbsolutePeriod_Successor(t *testing.T) {
	assert.Equal(t, mustPeriod(t, domain.QuarterlyPeriod, 2026, 1), mustPeriod(t, domain.QuarterlyPeriod, 2025, 4).Successor())
	assert.Equal(t, mustPeriod(t, domain.MonthlyPeriod, 2026, 1), mustPeriod(t, domain.MonthlyPeriod, 2025, 12).Successor())
	assert.Equal(t, mustPeriod(t, domain.CalendarYearPeriod, 2026, 1), mustPeriod(t, domain.CalendarYearPeriod, 2025, 1).Successor())
	assert.Equal(t, mustPeriod(t, domain.QuarterlyPeriod, 2025, 4), mustPeriod(t, domain.QuarterlyPeriod, 2026, 1).Predecessor())
}

func TestAbsolutePeriod_Dates(t *testing.T) {
	q4 := mustPeriod(t, domain.QuarterlyPeriod, 2025, 4)
	assert.Equal(t, domain.Date(2025, 10, 1), q4.StartDate())
	assert.Equal(t, domain.Date(2025, 12, 31), q4.EndDate())
	assert.True(t, q4.Contains(domain.Date(2025, 11, 30)))
	assert.False(t, q4.Contains(domain.Date(2026, 1, 1)))

	feb := mustPeriod(t, domain.MonthlyPeriod, 2024, 2)
	assert.Equal(t, domain.Date(2024, 2, 29), feb.EndDate())
	assert.Equal(t, "February 2024", feb.Name())
	assert.Equal(t, "Q4 2025", q4.Name())
}

func TestAbsolutePeriod_Compare(t *testing.T) {
	a := mustPeriod(t, domain.MonthlyPeriod, 2025, 12)
	b := mustPeriod(t, domain.MonthlyPeriod, 2026, 1)

	c, err := a.Compare(b)
	require.NoError(t, err)
	assert.Equal(t, -1, c)

	c, err = b.Compare(a)
	require.NoError(t, err)
	assert.Equal(t, 1, c)

	_, err = a.Compare(mustPeriod(t, domain.QuarterlyPeriod, 2025, 4))
	assert.ErrorIs(t, err, domain.ErrGranularityMismatch)
}

func TestAbsolutePeriod_Hierarchy(t *testing.T) {
	may := mustPeriod(t, domain.MonthlyPeriod, 2026, 5)
	q, ok := may.Parent()
	require.True(t, ok)
	assert.Equal(t, "2026-Q2", q.ID())

	y, ok := q.Parent()
	require.True(t, ok)
	assert.Equal(t, "2026", y.ID())

	_, ok = y.Parent()
	assert.False(t, ok)

	var ids []string
	for _, m := range mustPeriod(t, domain.QuarterlyPeriod, 2026, 3).Months() {
		ids = append(ids, m.ID())
	}
	assert.Equal(t, []string{"2026-JUL", "2026-AUG", "2026-SEP"}, ids)
	assert.Len(t, y.Months(), 12)
	assert.Len(t, y.Children(), 4)
	assert.Nil(t, may.Children())
}

func TestParseGranularity(t *testing.T) {
	for in, want := range map[string]domain.PeriodGranularity{
		"m":         domain.MonthlyPeriod,
		"QUARTERLY": domain.QuarterlyPeriod,
		"quarter":   domain.QuarterlyPeriod,
		"CALENDAR":  domain.CalendarYearPeriod,
		" y ":       domain.CalendarYearPeriod,
	} {
		got, err := domain.ParseGranularity(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := domain.ParseGranularity("week")
	assert.ErrorIs(t, err, domain.ErrInvalidGranularity)
}
