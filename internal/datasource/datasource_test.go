package datasource_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nholding/tenor/internal/contract"
	"github.com/nholding/tenor/internal/datasource"
	"github.com/nholding/tenor/internal/period/domain"
	"github.com/nholding/tenor/internal/period/service"
)

func newService(t *testing.T) *service.PeriodService {
	t.Helper()
	svc, err := service.NewPeriodService([]domain.TransitionWindow{
		{Granularity: domain.MonthlyPeriod, Size: 2},
		{Granularity: domain.QuarterlyPeriod, Size: 3},
		{Granularity: domain.CalendarYearPeriod, Size: 5},
	})
	require.NoError(t, err)
	return svc
}

var (
	from = domain.Date(2025, 6, 24)
	to   = domain.Date(2025, 7, 1)
)

func TestPlanner_DeliveryQuery(t *testing.T) {
	p := datasource.NewPlanner(newService(t))

	q, err := p.DeliveryQuery("DEBQ4_2025", from, to)
	require.NoError(t, err)
	assert.Equal(t, "debq4_25", q.Contract)
	assert.Equal(t, "de", q.Market)
	assert.Equal(t, contract.Base, q.Product)
	assert.Equal(t, []string{"2025-OCT", "2025-NOV", "2025-DEC"}, q.MonthIDs)
	assert.Equal(t, from, q.From)
	assert.Equal(t, to, q.To)

	_, err = p.DeliveryQuery("debq5_25", from, to)
	assert.ErrorIs(t, err, contract.ErrParse)
}

func TestPlanner_LabelQueries(t *testing.T) {
	p := datasource.NewPlanner(newService(t))

	qs, err := p.LabelQueries("debq4_25", from, to)
	require.NoError(t, err)
	require.Len(t, qs, 2)

	assert.Equal(t, "q_2", qs[0].Label)
	assert.Equal(t, "2025-Q2", qs[0].ReferencePeriodID)
	assert.Equal(t, domain.Date(2025, 6, 24), qs[0].From)
	assert.Equal(t, domain.Date(2025, 6, 25), qs[0].To)

	assert.Equal(t, "q_1", qs[1].Label)
	assert.Equal(t, "2025-Q3", qs[1].ReferencePeriodID)
	assert.Equal(t, domain.Date(2025, 6, 26), qs[1].From)
	assert.Equal(t, domain.Date(2025, 7, 1), qs[1].To)
}

func TestPlanner_ReconcileConsistent(t *testing.T) {
	p := datasource.NewPlanner(newService(t))

	for _, code := range []string{"debq4_25", "frpm8_25", "nlby_26", "debq1_25"} {
		mismatches, err := p.Reconcile(code, domain.Date(2025, 1, 1), domain.Date(2025, 12, 31))
		require.NoError(t, err, code)
		assert.Empty(t, mismatches, code)
	}
}

// skewedResolver answers label lookups with a wider window than the mapper used.
type skewedResolver struct {
	*service.PeriodService
	labels *service.PeriodService
}

func (r skewedResolver) ContractForLabel(market string, product contract.Product, label string, date time.Time) (contract.ContractSpec, error) {
	return r.labels.ContractForLabel(market, product, label, date)
}

func TestPlanner_ReconcileReportsDrift(t *testing.T) {
	wide, err := service.NewPeriodService([]domain.TransitionWindow{
		{Granularity: domain.MonthlyPeriod, Size: 2},
		{Granularity: domain.QuarterlyPeriod, Size: 5},
		{Granularity: domain.CalendarYearPeriod, Size: 5},
	})
	require.NoError(t, err)

	p := datasource.NewPlanner(skewedResolver{PeriodService: newService(t), labels: wide})

	mismatches, err := p.Reconcile("debq4_25", from, to)
	require.NoError(t, err)
	require.Len(t, mismatches, 2)

	// with a window of 5, 06-24 is already in transition so q_2 means Q1 2026
	assert.Equal(t, "q_2", mismatches[0].Query.Label)
	assert.Equal(t, domain.Date(2025, 6, 24), mismatches[0].Date)
	assert.Equal(t, domain.Date(2025, 6, 25), mismatches[1].Date)
	assert.Equal(t, "debq1_26", mismatches[0].Got)
	assert.Equal(t, "q_2 on 2025-06-24 resolves to debq1_26, expected debq4_25", mismatches[0].String())
}

type fakeTrades struct {
	byFrom map[time.Time][]datasource.Trade
	err    error
	seen   []datasource.DeliveryQuery
}

func (f *fakeTrades) FetchTrades(_ context.Context, q datasource.DeliveryQuery) ([]datasource.Trade, error) {
	f.seen = append(f.seen, q)
	return f.byFrom[q.From], f.err
}

type fakeLabels map[string][]datasource.Trade

func (f fakeLabels) FetchLabelTrades(_ context.Context, q datasource.LabelQuery) ([]datasource.Trade, error) {
	return f[q.Label], nil
}

func trade(price, volume int64) datasource.Trade {
	return datasource.Trade{Price: decimal.NewFromInt(price), Volume: decimal.NewFromInt(volume)}
}

func TestVWAP(t *testing.T) {
	vwap, n := datasource.VWAP([]datasource.Trade{trade(80, 10), trade(90, 10), trade(1000, 0)})
	assert.Equal(t, 2, n)
	assert.True(t, vwap.Equal(decimal.NewFromInt(85)), vwap.String())

	vwap, n = datasource.VWAP(nil)
	assert.Zero(t, n)
	assert.True(t, vwap.IsZero())
}

func TestComparator_Compare(t *testing.T) {
	svc := newService(t)
	trades := &fakeTrades{byFrom: map[time.Time][]datasource.Trade{
		domain.Date(2025, 6, 24): {trade(80, 10), trade(90, 10)},
		domain.Date(2025, 6, 26): {trade(100, 5)},
	}}
	labels := fakeLabels{
		"q_2": {trade(85, 3)},
		"q_1": {trade(80, 1)},
	}

	cmp := datasource.NewComparator(datasource.NewPlanner(svc), trades, labels, decimal.NewFromInt(5))
	got, err := cmp.Compare(context.Background(), "debq4_25", from, to)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.True(t, got[0].Complete())
	assert.True(t, got[0].Diff.IsZero())
	assert.False(t, got[0].Drift)

	assert.True(t, got[1].Diff.Equal(decimal.NewFromInt(20)))
	assert.True(t, got[1].DeviationPct.Equal(decimal.NewFromInt(20)))
	assert.True(t, got[1].Drift)

	require.Len(t, trades.seen, 2)
	assert.Equal(t, domain.Date(2025, 6, 26), trades.seen[1].From)
	assert.Equal(t, domain.Date(2025, 7, 1), trades.seen[1].To)
}

func TestComparator_MissingSide(t *testing.T) {
	cmp := datasource.NewComparator(datasource.NewPlanner(newService(t)), &fakeTrades{}, fakeLabels{"q_1": {trade(80, 1)}}, decimal.NewFromInt(5))

	got, err := cmp.Compare(context.Background(), "debq4_25", from, to)
	require.NoError(t, err)
	for _, c := range got {
		assert.False(t, c.Complete())
		assert.False(t, c.Drift)
	}
}

func TestComparator_FetchError(t *testing.T) {
	trades := &fakeTrades{err: errors.New("timeout")}
	cmp := datasource.NewComparator(datasource.NewPlanner(newService(t)), trades, fakeLabels{}, decimal.Zero)

	_, err := cmp.Compare(context.Background(), "debq4_25", from, to)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch trades of debq4_25")
}

func TestDeliveryHours(t *testing.T) {
	oct1, oct31 := domain.Date(2025, 10, 1), domain.Date(2025, 10, 31)
	assert.Equal(t, 744, datasource.DeliveryHours(contract.Base, oct1, oct31))
	// 23 business days in October 2025
	assert.Equal(t, 276, datasource.DeliveryHours(contract.Peak, oct1, oct31))
	assert.Zero(t, datasource.DeliveryHours(contract.Base, oct31, oct1))
}

func TestPlanner_BreakDown(t *testing.T) {
	p := datasource.NewPlanner(newService(t))

	legs, err := p.BreakDown("DEBQ4_2025", []datasource.Trade{trade(80, 10)}, "alice")
	require.NoError(t, err)
	require.Len(t, legs, 3)

	assert.Equal(t, "2025-OCT", legs[0].PeriodID)
	assert.Equal(t, domain.Date(2025, 10, 1), legs[0].StartDate)
	assert.Equal(t, domain.Date(2025, 10, 31), legs[0].EndDate)
	assert.Equal(t, 744, legs[0].Hours)
	assert.True(t, legs[0].EnergyMWh.Equal(decimal.NewFromInt(7440)))
	assert.True(t, legs[0].Value.Equal(decimal.NewFromInt(595200)))
	assert.Equal(t, "debq4_25", legs[0].Contract)
	assert.Equal(t, "alice", legs[0].AuditInfo.CreatedBy)
	assert.NotEqual(t, legs[0].ID, legs[1].ID)
	assert.NotEqual(t, legs[0].BusinessKey, legs[1].BusinessKey)

	total := decimal.Zero
	for _, l := range legs {
		total = total.Add(l.Value)
	}
	assert.True(t, total.Equal(decimal.NewFromInt(1766400)), total.String())

	_, err = p.BreakDown("debq5_25", nil, "alice")
	assert.ErrorIs(t, err, contract.ErrParse)
}
