package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nholding/tenor/internal/contract"
	"github.com/nholding/tenor/internal/logger"
	"github.com/nholding/tenor/internal/mapping"
	mappingrepo "github.com/nholding/tenor/internal/mapping/repository"
	"github.com/nholding/tenor/internal/period/domain"
	"github.com/nholding/tenor/internal/period/repository"
)

var (
	// ErrWindowNotConfigured is returned when no transition window exists for a granularity.
	ErrWindowNotConfigured = errors.New("transition window not configured")

	// ErrStoreNotInitialized is returned by catalogue lookups before InitializePeriods ran.
	ErrStoreNotInitialized = errors.New("period store not initialised")

	// ErrPeriodNotFound is returned for period IDs missing from the catalogue.
	ErrPeriodNotFound = errors.New("period not found")

	// ErrCoverage is returned when mapper output fails the coverage check and is not persisted.
	ErrCoverage = errors.New("mapping coverage check failed")
)

// PeriodService is the one shared entry point for both data paths. Every caller that resolves a
// contract, maps it to relative labels or turns a label back into a contract goes through the same
// instance, so both sides always see the same windows, markets and catalogue.
type PeriodService struct {
	windows     map[domain.PeriodGranularity]domain.TransitionWindow
	parser      *contract.Parser
	store       *domain.PeriodStore
	periodRepo  repository.PeriodRepository
	mappingRepo mappingrepo.MappingRepository
	log         *logger.Logger
}

// Option customizes a PeriodService.
type Option func(*PeriodService)

// WithParser replaces the default contract parser, e.g. to restrict the accepted markets.
func WithParser(p *contract.Parser) Option {
	return func(s *PeriodService) { s.parser = p }
}

// WithPeriodRepository persists the period catalogue.
func WithPeriodRepository(r repository.PeriodRepository) Option {
	return func(s *PeriodService) { s.periodRepo = r }
}

// WithMappingRepository persists recorded mappings.
func WithMappingRepository(r mappingrepo.MappingRepository) Option {
	return func(s *PeriodService) { s.mappingRepo = r }
}

func WithLogger(l *logger.Logger) Option {
	return func(s *PeriodService) { s.log = l }
}

// NewPeriodService
//
// PURPOSE:
//
//	Builds the service from the configured transition windows. A window is REQUIRED for every
//	granularity: there is no default window, so a missing or invalid one fails here rather than
//	on the first resolution.
//
// EXAMPLE USAGE:
//
//	svc, err := NewPeriodService(cfg.TransitionWindows(),
//	    WithMappingRepository(repo),
//	    WithLogger(log),
//	)
func NewPeriodService(windows []domain.TransitionWindow, opts ...Option) (*PeriodService, error) {
	s := &PeriodService{
		windows:     make(map[domain.PeriodGranularity]domain.TransitionWindow, len(windows)),
		parser:      contract.DefaultParser(),
		mappingRepo: mappingrepo.NewNoopMappingRepository(),
		log:         logger.Nop(),
	}

	for _, w := range windows {
		if err := w.Validate(); err != nil {
			return nil, err
		}
		if _, dup := s.windows[w.Granularity]; dup {
			return nil, fmt.Errorf("%w: duplicate window for %s", domain.ErrInvalidWindow, w.Granularity)
		}
		s.windows[w.Granularity] = w
	}

	var errs []error
	for _, g := range domain.Granularities {
		if _, ok := s.windows[g]; !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrWindowNotConfigured, g))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Window returns the transition window configured for g.
func (s *PeriodService) Window(g domain.PeriodGranularity) (domain.TransitionWindow, error) {
	w, ok := s.windows[g]
	if !ok {
		return domain.TransitionWindow{}, fmt.Errorf("%w: %s", ErrWindowNotConfigured, g)
	}
	return w, nil
}

// Windows returns the configured windows ordered month, quarter, year.
func (s *PeriodService) Windows() []domain.TransitionWindow {
	out := make([]domain.TransitionWindow, 0, len(s.windows))
	for _, g := range domain.Granularities {
		if w, ok := s.windows[g]; ok {
			out = append(out, w)
		}
	}
	return out
}

// Markets lists the market codes the parser accepts.
func (s *PeriodService) Markets() []string {
	return s.parser.Markets()
}

func (s *PeriodService) ParseContract(code string) (contract.ContractSpec, error) {
	return s.parser.Parse(code)
}

// ResolveReference returns the reference period of granularity g on date.
func (s *PeriodService) ResolveReference(date time.Time, g domain.PeriodGranularity) (domain.ReferencePeriodResult, error) {
	w, err := s.Window(g)
	if err != nil {
		return domain.ReferencePeriodResult{}, err
	}
	return domain.ResolveReferencePeriod(date, g, w)
}

// NextReferenceChange returns the first date after date on which the reference period of g moves.
func (s *PeriodService) NextReferenceChange(date time.Time, g domain.PeriodGranularity) (time.Time, error) {
	w, err := s.Window(g)
	if err != nil {
		return time.Time{}, err
	}
	return domain.NextReferenceChange(date, g, w)
}

// MapContract parses code and maps it over [from, to] with the window of its granularity.
//
// Example:
//
//	c, ms, _ := svc.MapContract("debq4_25", Date(2025, 6, 24), Date(2025, 7, 1))
//	// ms: [2025-06-24 → 2025-06-25] q_2, [2025-06-26 → 2025-07-01] q_1
func (s *PeriodService) MapContract(code string, from, to time.Time) (contract.ContractSpec, []mapping.RelativePeriodMapping, error) {
	c, err := s.parser.Parse(code)
	if err != nil {
		return contract.ContractSpec{}, nil, err
	}
	w, err := s.Window(c.Granularity)
	if err != nil {
		return c, nil, err
	}
	ms, err := mapping.MapContract(c, from, to, w)
	if err != nil {
		return c, nil, err
	}
	return c, ms, nil
}

// OffsetOn returns the relative offset of the contract on a single date.
func (s *PeriodService) OffsetOn(c contract.ContractSpec, date time.Time) (int, error) {
	w, err := s.Window(c.Granularity)
	if err != nil {
		return 0, err
	}
	return mapping.OffsetOn(c, date, w)
}

// ResolveLabel returns the absolute period a relative label denotes on date.
func (s *PeriodService) ResolveLabel(label string, date time.Time) (domain.AbsolutePeriod, error) {
	l, err := mapping.ParseLabel(label)
	if err != nil {
		return domain.AbsolutePeriod{}, err
	}
	w, err := s.Window(l.Granularity)
	if err != nil {
		return domain.AbsolutePeriod{}, err
	}
	return mapping.ResolveLabel(l, date, w)
}

// ContractForLabel returns the contract of market and product that label denotes on date.
//
// Example:
//
//	c, _ := svc.ContractForLabel("de", contract.Base, "q_1", Date(2025, 6, 26))
//	// c.Code == "debq4_25"
func (s *PeriodService) ContractForLabel(market string, product contract.Product, label string, date time.Time) (contract.ContractSpec, error) {
	p, err := s.ResolveLabel(label, date)
	if err != nil {
		return contract.ContractSpec{}, err
	}
	if product.Letter() == "" {
		return contract.ContractSpec{}, fmt.Errorf("%w: unknown product %q", contract.ErrParse, product)
	}
	// round trip through the parser so unknown markets are rejected the same way codes are
	return s.parser.Parse(contract.New(market, product, p).Code)
}

// RecordMappings
//
// PURPOSE:
//
//	Maps the contract over [from, to], checks the coverage guarantee and persists the result
//	through the mapping repository. Mappings already stored under the same business key are
//	skipped, so re-running a day is a no-op.
//
// FAIL-FAST BEHAVIOR:
//
//	If the mapper output fails ValidateCoverage nothing is written and ErrCoverage is returned
//	with every defect joined in.
//
// RETURNS:
//
//	the mappings and how many of them were newly stored
func (s *PeriodService) RecordMappings(ctx context.Context, code string, from, to time.Time, user string) ([]mapping.RelativePeriodMapping, int, error) {
	c, ms, err := s.MapContract(code, from, to)
	if err != nil {
		return nil, 0, err
	}

	if errs := mapping.ValidateCoverage(ms, domain.DateOf(from), domain.DateOf(to)); len(errs) > 0 {
		return nil, 0, fmt.Errorf("%w for %s: %w", ErrCoverage, c.Code, errors.Join(errs...))
	}

	w, _ := s.Window(c.Granularity)
	records := mappingrepo.NewMappingRecords(c, ms, w, user)

	inserted, err := s.mappingRepo.SaveMappings(ctx, records)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to save mappings for %s: %w", c.Code, err)
	}

	s.log.WithFields(map[string]interface{}{
		"contract": c.Code,
		"from":     from.Format("2006-01-02"),
		"to":       to.Format("2006-01-02"),
		"mappings": len(ms),
		"inserted": inserted,
		"user":     user,
	}).Info("Recorded contract mappings")

	return ms, inserted, nil
}

// StoredMappings returns the persisted mapping records of a contract overlapping [from, to].
func (s *PeriodService) StoredMappings(ctx context.Context, code string, from, to time.Time) ([]*mappingrepo.MappingRecord, error) {
	c, err := s.parser.Parse(code)
	if err != nil {
		return nil, err
	}
	return s.mappingRepo.FindByContract(ctx, c.Code, domain.DateOf(from), domain.DateOf(to))
}

// InitializePeriods
//
// PURPOSE:
//
//	Performs COMPLETE initialization of the period catalogue.
//
//	If this function returns nil:
//	   - All Year → Quarter → Month periods are present
//	   - The hierarchy is structurally valid
//	   - No two periods of a granularity overlap
//
//	If this function returns an error:
//	   - The application MUST NOT start
//
// RESPONSIBILITIES (IN ORDER):
//
//  1. Load all existing periods from persistent storage
//  2. Generate calendar periods if none exist
//  3. Persist generated periods
//  4. Initialize the in-memory PeriodStore
//  5. Validate hierarchy and overlaps
//
// WHEN TO CALL:
//
//   - EXACTLY ONCE at application startup
//   - BEFORE the API or the scheduler starts
//
// Without a period repository the catalogue is generated in memory only.
func (s *PeriodService) InitializePeriods(ctx context.Context, startYear, endYear int) error {
	if startYear > endYear {
		return fmt.Errorf("invalid period range: startYear %d is after endYear %d", startYear, endYear)
	}

	var periods []*domain.Period
	if s.periodRepo != nil {
		loaded, err := s.periodRepo.GetAllPeriods(ctx)
		if err != nil {
			return fmt.Errorf("failed to load periods from DB: %w", err)
		}
		periods = loaded
	}

	if len(periods) == 0 {
		periods = domain.GeneratePeriods(startYear, endYear)

		if s.periodRepo != nil {
			if err := s.periodRepo.SavePeriods(ctx, periods); err != nil {
				return fmt.Errorf("failed to persist generated calendar periods: %w", err)
			}
		}
		s.log.WithFields(map[string]interface{}{
			"start_year": startYear,
			"end_year":   endYear,
			"periods":    len(periods),
		}).Info("Generated period catalogue")
	}

	s.store = domain.NewPeriodStore(periods)

	errs := s.ValidateHierarchy()
	errs = append(errs, s.ValidateOverlaps()...)
	if len(errs) > 0 {
		for _, err := range errs {
			s.log.WithError(err).Error("Period catalogue validation error")
		}
		return fmt.Errorf("period hierarchy validation failed: %w", errors.Join(errs...))
	}
	return nil
}

// ValidateHierarchy checks the parent/child links of the catalogue.
//
// EXAMPLE INVALID OUTPUTS:
//
//   - "child 2026-FEB references missing parent 2026-QQ"
//   - "period 2026-Q1 has parent 2026-MAR which is not a larger granularity"
func (s *PeriodService) ValidateHierarchy() []error {
	if s.store == nil {
		return []error{ErrStoreNotInitialized}
	}
	return s.store.ValidateHierarchy()
}

// ValidateOverlaps checks that no two catalogued periods of the same granularity overlap.
func (s *PeriodService) ValidateOverlaps() []error {
	if s.store == nil {
		return []error{ErrStoreNotInitialized}
	}

	periodList := make([]*domain.Period, 0, len(s.store.Periods))
	for _, p := range s.store.Periods {
		periodList = append(periodList, p)
	}
	return domain.DetectOverlaps(periodList)
}

// Store returns the in-memory catalogue, nil before InitializePeriods.
func (s *PeriodService) Store() *domain.PeriodStore {
	return s.store
}

// Period looks up a catalogued period by ID.
func (s *PeriodService) Period(id string) (*domain.Period, error) {
	if s.store == nil {
		return nil, ErrStoreNotInitialized
	}
	p := s.store.FindByID(id)
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrPeriodNotFound, id)
	}
	return p, nil
}

// DeliveryMonths returns the IDs of the months the contract delivers in, chronologically.
//
// The catalogue is used when the contract's period is catalogued; periods outside the
// catalogue's years fall back to the calendar.
//
// Example:
//
//	svc.DeliveryMonths(debq4_25) // ["2025-OCT", "2025-NOV", "2025-DEC"]
func (s *PeriodService) DeliveryMonths(c contract.ContractSpec) []string {
	id := c.Period.ID()
	if s.store != nil && s.store.FindByID(id) != nil {
		return s.store.BreakDownPeriodRange(id, id)
	}

	months := c.Period.Months()
	ids := make([]string, len(months))
	for i, m := range months {
		ids[i] = m.ID()
	}
	return ids
}
