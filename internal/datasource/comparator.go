package datasource

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Trade is one fill as reported by either data path.
type Trade struct {
	TradedAt time.Time       `json:"traded_at"`
	Price    decimal.Decimal `json:"price"`  // EUR/MWh
	Volume   decimal.Decimal `json:"volume"` // MW
}

// TradeStore is the absolute data path, keyed by contract and delivery months.
type TradeStore interface {
	FetchTrades(ctx context.Context, q DeliveryQuery) ([]Trade, error)
}

// LabelSource is the relative data path, keyed by relative labels.
type LabelSource interface {
	FetchLabelTrades(ctx context.Context, q LabelQuery) ([]Trade, error)
}

// IntervalComparison holds both paths' view of one label interval.
type IntervalComparison struct {
	Query         LabelQuery      `json:"query"`
	AbsoluteVWAP  decimal.Decimal `json:"absolute_vwap"`
	RelativeVWAP  decimal.Decimal `json:"relative_vwap"`
	Diff          decimal.Decimal `json:"diff"`          // absolute - relative
	DeviationPct  decimal.Decimal `json:"deviation_pct"` // Diff relative to AbsoluteVWAP, in percent
	AbsoluteCount int             `json:"absolute_count"`
	RelativeCount int             `json:"relative_count"`
	Drift         bool            `json:"drift"`
}

// Complete reports whether both paths had volume in the interval.
func (c IntervalComparison) Complete() bool {
	return c.AbsoluteCount > 0 && c.RelativeCount > 0
}

// Comparator fetches a contract from both data paths and compares per-interval VWAPs. A large
// deviation means the two paths disagree about which contract a label denoted.
type Comparator struct {
	planner      *Planner
	trades       TradeStore
	labels       LabelSource
	thresholdPct decimal.Decimal
}

// NewComparator flags intervals whose VWAPs deviate by more than thresholdPct percent.
func NewComparator(planner *Planner, trades TradeStore, labels LabelSource, thresholdPct decimal.Decimal) *Comparator {
	return &Comparator{
		planner:      planner,
		trades:       trades,
		labels:       labels,
		thresholdPct: thresholdPct.Abs(),
	}
}

// Compare runs the comparison of code over trade dates [from, to], one entry per label interval.
func (c *Comparator) Compare(ctx context.Context, code string, from, to time.Time) ([]IntervalComparison, error) {
	qs, err := c.planner.LabelQueries(code, from, to)
	if err != nil {
		return nil, err
	}

	out := make([]IntervalComparison, 0, len(qs))
	for _, q := range qs {
		dq, err := c.planner.DeliveryQuery(code, q.From, q.To)
		if err != nil {
			return nil, err
		}

		absolute, err := c.trades.FetchTrades(ctx, dq)
		if err != nil {
			return nil, fmt.Errorf("fetch trades of %s: %w", code, err)
		}
		relative, err := c.labels.FetchLabelTrades(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("fetch %s trades: %w", q.Label, err)
		}

		out = append(out, c.compare(q, absolute, relative))
	}
	return out, nil
}

func (c *Comparator) compare(q LabelQuery, absolute, relative []Trade) IntervalComparison {
	absVWAP, absN := VWAP(absolute)
	relVWAP, relN := VWAP(relative)

	cmp := IntervalComparison{
		Query:         q,
		AbsoluteVWAP:  absVWAP,
		RelativeVWAP:  relVWAP,
		AbsoluteCount: absN,
		RelativeCount: relN,
	}
	if !cmp.Complete() {
		return cmp
	}

	cmp.Diff = absVWAP.Sub(relVWAP)
	if !absVWAP.IsZero() {
		cmp.DeviationPct = cmp.Diff.Div(absVWAP).Mul(decimal.NewFromInt(100)).Round(4)
	}
	cmp.Drift = cmp.DeviationPct.Abs().GreaterThan(c.thresholdPct)
	return cmp
}

// VWAP returns the volume-weighted average price and the number of trades with positive volume.
// With no volume the price is zero.
func VWAP(trades []Trade) (decimal.Decimal, int) {
	notional, volume := decimal.Zero, decimal.Zero
	n := 0
	for _, t := range trades {
		if !t.Volume.IsPositive() {
			continue
		}
		notional = notional.Add(t.Price.Mul(t.Volume))
		volume = volume.Add(t.Volume)
		n++
	}
	if n == 0 {
		return decimal.Zero, 0
	}
	return notional.Div(volume), n
}
