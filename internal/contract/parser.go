package contract

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/nholding/tenor/internal/period/domain"
)

// DefaultMarkets are the market prefixes recognized by DefaultParser.
var DefaultMarkets = []string{"de", "fr", "nl", "be", "at", "ch", "it", "es", "gb", "nd", "pl", "cz", "hu"}

// Parser decodes contract codes of the form
//
//	<market:2><product:1><granularity:1><period>_<year>
//
// where product is b or p, granularity is m, q or y, period is 1–2 digits (empty for calendar
// years) and year has 2 or 4 digits. Two-digit years below 50 are 20xx, the rest 19xx.
//
// A Parser is immutable after construction and safe for concurrent use.
type Parser struct {
	markets map[string]struct{}
}

// NewParser returns a parser that accepts only the given market prefixes.
func NewParser(markets ...string) *Parser {
	p := &Parser{markets: make(map[string]struct{}, len(markets))}
	for _, m := range markets {
		p.markets[strings.ToLower(strings.TrimSpace(m))] = struct{}{}
	}
	return p
}

// DefaultParser returns a parser for DefaultMarkets.
func DefaultParser() *Parser {
	return defaultParser
}

var defaultParser = NewParser(DefaultMarkets...)

// Parse decodes code with the default market set.
func Parse(code string) (ContractSpec, error) {
	return defaultParser.Parse(code)
}

// Markets lists the recognized market prefixes in sorted order.
func (p *Parser) Markets() []string {
	out := make([]string, 0, len(p.markets))
	for m := range p.markets {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// Parse decodes one contract code. Input is case-insensitive and surrounding whitespace is ignored.
//
// Example:
//
//	c, _ := p.Parse("debq4_25")
//	// c.Market == "de", c.Product == Base, c.Period == Q4 2025
//	// c.DeliveryStart == 2025-10-01, c.DeliveryEnd == 2025-12-31
func (p *Parser) Parse(code string) (ContractSpec, error) {
	s := strings.ToLower(strings.TrimSpace(code))
	if len(s) < 6 {
		return ContractSpec{}, parseErr(code, "too short")
	}

	market := s[:2]
	if _, ok := p.markets[market]; !ok {
		return ContractSpec{}, parseErr(code, "unknown market %q", market)
	}

	product, ok := productFromLetter(s[2])
	if !ok {
		return ContractSpec{}, parseErr(code, "unknown product %q", s[2:3])
	}

	g, err := granularityFromLetter(s[3])
	if err != nil {
		return ContractSpec{}, parseErr(code, "unknown tenor %q", s[3:4])
	}

	periodPart, yearPart, found := strings.Cut(s[4:], "_")
	if !found {
		return ContractSpec{}, parseErr(code, "missing '_' between period and year")
	}

	index, err := parseIndex(g, periodPart)
	if err != nil {
		return ContractSpec{}, parseErr(code, "%v", err)
	}

	year, err := parseYear(yearPart)
	if err != nil {
		return ContractSpec{}, parseErr(code, "%v", err)
	}

	period, err := domain.NewAbsolutePeriod(g, year, index)
	if err != nil {
		return ContractSpec{}, parseErr(code, "%v", err)
	}
	return New(market, product, period), nil
}

func granularityFromLetter(c byte) (domain.PeriodGranularity, error) {
	switch c {
	case 'm', 'q', 'y':
		return domain.ParseGranularity(string(c))
	}
	return "", domain.ErrInvalidGranularity
}

func parseIndex(g domain.PeriodGranularity, s string) (int, error) {
	if g == domain.CalendarYearPeriod {
		if s != "" {
			return 0, errors.New("calendar year contracts take no period number")
		}
		return 1, nil
	}

	if len(s) < 1 || len(s) > 2 || !allDigits(s) {
		return 0, errors.New("period must be 1 or 2 digits")
	}
	n, _ := strconv.Atoi(s)
	if n < 1 || n > g.PeriodsPerYear() {
		return 0, fmt.Errorf("period %s out of range 1-%d", s, g.PeriodsPerYear())
	}
	return n, nil
}

func parseYear(s string) (int, error) {
	if (len(s) != 2 && len(s) != 4) || !allDigits(s) {
		return 0, errors.New("year must be 2 or 4 digits")
	}
	y, _ := strconv.Atoi(s)
	if len(s) == 2 {
		if y < 50 {
			return 2000 + y, nil
		}
		return 1900 + y, nil
	}
	return y, nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
