package contract

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nholding/tenor/internal/period/domain"
	"github.com/nholding/tenor/internal/utils"
)

// Product is the load profile of a power future.
type Product string

const (
	// Base delivers the same volume in every hour of the delivery period.
	Base Product = "BASE"

	// Peak delivers only in the weekday peak hours.
	Peak Product = "PEAK"
)

// Letter returns the product character used in contract codes.
func (p Product) Letter() string {
	switch p {
	case Base:
		return "b"
	case Peak:
		return "p"
	}
	return ""
}

// ParseProduct accepts "base", "peak" or their code letters, case-insensitive.
func ParseProduct(s string) (Product, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "base", "b":
		return Base, nil
	case "peak", "p":
		return Peak, nil
	}
	return "", fmt.Errorf("%w: unknown product %q", ErrParse, s)
}

func productFromLetter(c byte) (Product, bool) {
	switch c {
	case 'b':
		return Base, true
	case 'p':
		return Peak, true
	}
	return "", false
}

// businessKeyVersion versions the hashed contract identity. Bump it when the key fields change.
const businessKeyVersion = "c1"

// ContractSpec is a fully decoded futures contract: who trades it, what load profile it delivers
// and the absolute delivery period.
//
// Code is always the canonical form produced by Format, never the raw input, so two specs decoded
// from "DEBQ4_2025" and "debq4_25" compare equal.
type ContractSpec struct {
	Code          string                   `json:"code"`
	Market        string                   `json:"market"`
	Product       Product                  `json:"product"`
	Granularity   domain.PeriodGranularity `json:"granularity"`
	Period        domain.AbsolutePeriod    `json:"period"`
	DeliveryStart time.Time                `json:"delivery_start"`
	DeliveryEnd   time.Time                `json:"delivery_end"`
}

// New builds a spec from its parts and fills in the derived fields.
func New(market string, product Product, period domain.AbsolutePeriod) ContractSpec {
	c := ContractSpec{
		Market:        strings.ToLower(market),
		Product:       product,
		Granularity:   period.Granularity,
		Period:        period,
		DeliveryStart: period.StartDate(),
		DeliveryEnd:   period.EndDate(),
	}
	c.Code = Format(c)
	return c
}

// WithPeriod returns the same market and product delivered in p.
func (c ContractSpec) WithPeriod(p domain.AbsolutePeriod) ContractSpec {
	return New(c.Market, c.Product, p)
}

// BusinessKey returns a deterministic hash identifying the contract independent of code spelling.
func (c ContractSpec) BusinessKey() string {
	return utils.GenerateBusinessKey(businessKeyVersion, map[string]string{
		"market":  c.Market,
		"product": string(c.Product),
		"period":  c.Period.ID(),
	})
}

func (c ContractSpec) String() string {
	return c.Code
}

// Format renders the canonical contract code.
//
// Years 1950–2049 are written with two digits, every other year with four, so parsing the
// result always yields the same year back.
//
// Example:
//
//	Format(c) // "debq4_25", "frpm11_26", "nlby_27"
func Format(c ContractSpec) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(c.Market))
	b.WriteString(c.Product.Letter())
	b.WriteString(c.Period.Granularity.Letter())
	if c.Period.Granularity != domain.CalendarYearPeriod {
		b.WriteString(strconv.Itoa(c.Period.Index))
	}
	b.WriteByte('_')
	if y := c.Period.Year; y >= 1950 && y <= 2049 {
		fmt.Fprintf(&b, "%02d", y%100)
	} else {
		fmt.Fprintf(&b, "%04d", y)
	}
	return b.String()
}
