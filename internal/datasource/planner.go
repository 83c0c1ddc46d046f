// Package datasource plans fetches against the two external data paths and compares their answers.
//
// The absolute path (a trade or order store) is keyed by contract and delivery months. The
// relative path is keyed by labels such as "q_1" that change meaning as the reference period
// rolls. Both plans are derived from the same PeriodService, so a label query always covers
// exactly the dates on which the label denotes the contract.
package datasource

import (
	"fmt"
	"time"

	"github.com/nholding/tenor/internal/contract"
	"github.com/nholding/tenor/internal/mapping"
	"github.com/nholding/tenor/internal/period/domain"
)

// Resolver is the part of the period service the planner needs.
type Resolver interface {
	ParseContract(code string) (contract.ContractSpec, error)
	MapContract(code string, from, to time.Time) (contract.ContractSpec, []mapping.RelativePeriodMapping, error)
	ContractForLabel(market string, product contract.Product, label string, date time.Time) (contract.ContractSpec, error)
	DeliveryMonths(c contract.ContractSpec) []string
}

// DeliveryQuery selects a contract's trades on the absolute path.
type DeliveryQuery struct {
	Contract string           `json:"contract"`
	Market   string           `json:"market"`
	Product  contract.Product `json:"product"`
	MonthIDs []string         `json:"month_ids"` // delivery months, chronological
	From     time.Time        `json:"from"`      // trade dates, inclusive
	To       time.Time        `json:"to"`
}

// LabelQuery selects one label's series on the relative path for the dates it denotes the contract.
type LabelQuery struct {
	Contract          string           `json:"contract"`
	Market            string           `json:"market"`
	Product           contract.Product `json:"product"`
	Label             string           `json:"label"`
	Offset            int              `json:"offset"`
	ReferencePeriodID string           `json:"reference_period_id"`
	From              time.Time        `json:"from"`
	To                time.Time        `json:"to"`
}

// Mismatch is a label sub-interval whose label does not resolve back to the planned contract.
type Mismatch struct {
	Query LabelQuery `json:"query"`
	Date  time.Time  `json:"date"`
	Got   string     `json:"got"`
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s on %s resolves to %s, expected %s",
		m.Query.Label, m.Date.Format("2006-01-02"), m.Got, m.Query.Contract)
}

type Planner struct {
	resolver Resolver
}

func NewPlanner(r Resolver) *Planner {
	return &Planner{resolver: r}
}

// DeliveryQuery plans the absolute-path fetch of code traded within [from, to].
func (p *Planner) DeliveryQuery(code string, from, to time.Time) (DeliveryQuery, error) {
	c, _, err := p.resolver.MapContract(code, from, to)
	if err != nil {
		return DeliveryQuery{}, err
	}
	return p.deliveryQuery(c, from, to), nil
}

func (p *Planner) deliveryQuery(c contract.ContractSpec, from, to time.Time) DeliveryQuery {
	return DeliveryQuery{
		Contract: c.Code,
		Market:   c.Market,
		Product:  c.Product,
		MonthIDs: p.resolver.DeliveryMonths(c),
		From:     domain.DateOf(from),
		To:       domain.DateOf(to),
	}
}

// LabelQueries plans the relative-path fetches of code within [from, to], one per mapping.
//
// Example (quarter window of 3):
//
//	qs, _ := planner.LabelQueries("debq4_25", Date(2025, 6, 24), Date(2025, 7, 1))
//	// q_2 for 06-24 → 06-25, q_1 for 06-26 → 07-01
func (p *Planner) LabelQueries(code string, from, to time.Time) ([]LabelQuery, error) {
	c, ms, err := p.resolver.MapContract(code, from, to)
	if err != nil {
		return nil, err
	}
	return labelQueries(c, ms), nil
}

func labelQueries(c contract.ContractSpec, ms []mapping.RelativePeriodMapping) []LabelQuery {
	qs := make([]LabelQuery, len(ms))
	for i, m := range ms {
		qs[i] = LabelQuery{
			Contract:          c.Code,
			Market:            c.Market,
			Product:           c.Product,
			Label:             m.Label.String(),
			Offset:            m.Offset,
			ReferencePeriodID: m.ReferencePeriod.ID(),
			From:              m.Start,
			To:                m.End,
		}
	}
	return qs
}

// Reconcile checks both ends of every planned label interval: the label must resolve back to the
// contract on each. Labels are piecewise constant between reference changes, so the two ends
// cover the whole interval. It returns nil when both paths agree.
func (p *Planner) Reconcile(code string, from, to time.Time) ([]Mismatch, error) {
	qs, err := p.LabelQueries(code, from, to)
	if err != nil {
		return nil, err
	}

	var mismatches []Mismatch
	for _, q := range qs {
		for _, d := range []time.Time{q.From, q.To} {
			c, err := p.resolver.ContractForLabel(q.Market, q.Product, q.Label, d)
			if err != nil {
				return nil, fmt.Errorf("resolve %s on %s: %w", q.Label, d.Format("2006-01-02"), err)
			}
			if c.Code != q.Contract {
				mismatches = append(mismatches, Mismatch{Query: q, Date: d, Got: c.Code})
			}
			if q.From.Equal(q.To) {
				break
			}
		}
	}
	return mismatches, nil
}
