package datasource

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nholding/tenor/internal/audit"
	"github.com/nholding/tenor/internal/contract"
	"github.com/nholding/tenor/internal/period/domain"
	"github.com/nholding/tenor/internal/utils"
)

// Peak hours are 08:00 to 20:00 on business days.
const peakHoursPerDay = 12

// DeliveryLeg is a single month slice of a multi-month trade.
// For example, a trade in debq4_25 has 3 legs: October, November and December 2025.
//
// Each leg is valued independently (Energy * Price).
type DeliveryLeg struct {
	ID          string          `json:"id"`
	BusinessKey string          `json:"business_key"`
	Contract    string          `json:"contract"`
	PeriodID    string          `json:"period_id"`
	StartDate   time.Time       `json:"start_date"`
	EndDate     time.Time       `json:"end_date"`
	Hours       int             `json:"hours"`
	VolumeMW    decimal.Decimal `json:"volume_mw"`
	EnergyMWh   decimal.Decimal `json:"energy_mwh"`
	Price       decimal.Decimal `json:"price"`
	Value       decimal.Decimal `json:"value"`
	AuditInfo   audit.AuditInfo `json:"audit"`
}

// DeliveryHours returns the delivery hours of product in [start, end]. Clock changes are ignored.
func DeliveryHours(product contract.Product, start, end time.Time) int {
	if product == contract.Peak {
		return domain.CountBusinessDaysBetween(start, end) * peakHoursPerDay
	}
	start, end = domain.DateOf(start), domain.DateOf(end)
	if start.After(end) {
		return 0
	}
	return (int(end.Sub(start)/(24*time.Hour)) + 1) * 24
}

// BreakDownTrade splits t into one leg per delivery month of c.
//
// Example:
//
//	legs := BreakDownTrade(debq4_25, Trade{Price: 80, Volume: 10}, "alice")
//	// 3 legs: 2025-OCT (744h), 2025-NOV (720h), 2025-DEC (744h)
func BreakDownTrade(c contract.ContractSpec, t Trade, createdBy string) []DeliveryLeg {
	months := c.Period.Months()
	legs := make([]DeliveryLeg, 0, len(months))

	for _, m := range months {
		start, end := m.StartDate(), m.EndDate()
		hours := DeliveryHours(c.Product, start, end)
		energy := t.Volume.Mul(decimal.NewFromInt(int64(hours)))

		legs = append(legs, DeliveryLeg{
			ID: utils.GenerateStableID(),
			BusinessKey: utils.GenerateBusinessKey("l1", map[string]string{
				"contract":  c.Code,
				"period":    m.ID(),
				"traded_at": t.TradedAt.UTC().Format(time.RFC3339Nano),
			}),
			Contract:  c.Code,
			PeriodID:  m.ID(),
			StartDate: start,
			EndDate:   end,
			Hours:     hours,
			VolumeMW:  t.Volume,
			EnergyMWh: energy,
			Price:     t.Price,
			Value:     energy.Mul(t.Price),
			AuditInfo: *audit.NewAuditInfo(createdBy),
		})
	}
	return legs
}

// BreakDown decodes code and splits every trade into monthly legs.
func (p *Planner) BreakDown(code string, trades []Trade, createdBy string) ([]DeliveryLeg, error) {
	c, err := p.resolver.ParseContract(code)
	if err != nil {
		return nil, err
	}

	var legs []DeliveryLeg
	for _, t := range trades {
		legs = append(legs, BreakDownTrade(c, t, createdBy)...)
	}
	return legs, nil
}
