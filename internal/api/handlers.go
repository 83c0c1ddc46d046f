package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nholding/tenor/internal/cache"
	"github.com/nholding/tenor/internal/contract"
	"github.com/nholding/tenor/internal/logger"
	"github.com/nholding/tenor/internal/mapping"
	"github.com/nholding/tenor/internal/period/domain"
	"github.com/nholding/tenor/internal/period/service"
)

const dateLayout = "2006-01-02"

// errBadRequest marks malformed query parameters.
var errBadRequest = errors.New("bad request")

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	svc   *service.PeriodService
	cache *cache.Client
	log   *logger.Logger
	now   func() time.Time
}

// NewHandler creates a handler. A nil cache disables caching.
func NewHandler(svc *service.PeriodService, c *cache.Client, log *logger.Logger) *Handler {
	if c == nil {
		c = cache.Disabled()
	}
	return &Handler{svc: svc, cache: c, log: log, now: time.Now}
}

// Health reports the configured markets, windows and the catalogue size.
// GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	windows := make(map[string]int)
	for _, win := range h.svc.Windows() {
		windows[string(win.Granularity)] = win.Size
	}

	periods := 0
	if store := h.svc.Store(); store != nil {
		periods = len(store.Periods)
	}

	writeJSON(w, http.StatusOK, HealthDTO{
		Status:  "ok",
		Markets: h.svc.Markets(),
		Windows: windows,
		Periods: periods,
	})
}

// GetContract decodes a contract code.
// GET /api/contracts/{code}
func (h *Handler) GetContract(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.ParseContract(chi.URLParam(r, "code"))
	if err != nil {
		h.fail(w, "Invalid contract code", err)
		return
	}
	writeJSON(w, http.StatusOK, h.contractDTO(c))
}

// GetMappings maps a contract to relative labels over [from, to]. Both default to today.
// GET /api/contracts/{code}/mappings?from=&to=
func (h *Handler) GetMappings(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	from, to, err := h.rangeParams(r)
	if err != nil {
		h.fail(w, "Invalid date range", err)
		return
	}

	c, err := h.svc.ParseContract(code)
	if err != nil {
		h.fail(w, "Invalid contract code", err)
		return
	}
	win, err := h.svc.Window(c.Granularity)
	if err != nil {
		h.fail(w, "Failed to map contract", err)
		return
	}

	key := h.cache.Key("mappings", c.Code, from.Format(dateLayout), to.Format(dateLayout), fmt.Sprint(win.Size))
	resp, err := cache.GetOrSet(r.Context(), h.cache, key, func() (MappingsResponse, error) {
		_, ms, err := h.svc.MapContract(c.Code, from, to)
		if err != nil {
			return MappingsResponse{}, err
		}
		return mappingsResponse(c, win.Size, from, to, ms), nil
	})
	if err != nil {
		h.fail(w, "Failed to map contract", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// RecordMappings maps a contract and persists the result. The X-User header names the author.
// POST /api/contracts/{code}/mappings?from=&to=
func (h *Handler) RecordMappings(w http.ResponseWriter, r *http.Request) {
	from, to, err := h.rangeParams(r)
	if err != nil {
		h.fail(w, "Invalid date range", err)
		return
	}
	user := strings.TrimSpace(r.Header.Get("X-User"))
	if user == "" {
		user = "api"
	}

	ms, inserted, err := h.svc.RecordMappings(r.Context(), chi.URLParam(r, "code"), from, to, user)
	if err != nil {
		h.fail(w, "Failed to record mappings", err)
		return
	}

	c, _ := h.svc.ParseContract(chi.URLParam(r, "code"))
	win, _ := h.svc.Window(c.Granularity)
	writeJSON(w, http.StatusCreated, RecordMappingsResponse{
		MappingsResponse: mappingsResponse(c, win.Size, from, to, ms),
		Inserted:         inserted,
		User:             user,
	})
}

// GetReference resolves the reference period on a date.
// GET /api/reference?date=&granularity=
func (h *Handler) GetReference(w http.ResponseWriter, r *http.Request) {
	date, err := h.dateParam(r, "date")
	if err != nil {
		h.fail(w, "Invalid date", err)
		return
	}
	g, err := domain.ParseGranularity(r.URL.Query().Get("granularity"))
	if err != nil {
		h.fail(w, "Invalid granularity", err)
		return
	}

	res, err := h.svc.ResolveReference(date, g)
	if err != nil {
		h.fail(w, "Failed to resolve reference period", err)
		return
	}
	next, err := h.svc.NextReferenceChange(date, g)
	if err != nil {
		h.fail(w, "Failed to resolve reference period", err)
		return
	}
	win, _ := h.svc.Window(g)

	writeJSON(w, http.StatusOK, ReferenceDTO{
		Date:                  res.Date.Format(dateLayout),
		Granularity:           string(g),
		NominalPeriodID:       res.NominalPeriod.ID(),
		ReferencePeriodID:     res.ReferencePeriod.ID(),
		InTransition:          res.InTransition,
		RemainingBusinessDays: res.RemainingBusinessDays,
		WindowSize:            win.Size,
		NextChange:            next.Format(dateLayout),
	})
}

// GetLabel resolves a relative label on a date, and to a contract when market is given.
// GET /api/labels/{label}?date=&market=&product=
func (h *Handler) GetLabel(w http.ResponseWriter, r *http.Request) {
	date, err := h.dateParam(r, "date")
	if err != nil {
		h.fail(w, "Invalid date", err)
		return
	}

	l, err := mapping.ParseLabel(chi.URLParam(r, "label"))
	if err != nil {
		h.fail(w, "Invalid label", err)
		return
	}
	ref, err := h.svc.ResolveReference(date, l.Granularity)
	if err != nil {
		h.fail(w, "Failed to resolve label", err)
		return
	}
	p := ref.ReferencePeriod.Add(l.Offset)

	dto := LabelDTO{
		Label:             l.String(),
		Date:              ref.Date.Format(dateLayout),
		ReferencePeriodID: ref.ReferencePeriod.ID(),
		PeriodID:          p.ID(),
		PeriodName:        p.Name(),
	}

	if market := r.URL.Query().Get("market"); market != "" {
		product := contract.Base
		if s := r.URL.Query().Get("product"); s != "" {
			if product, err = contract.ParseProduct(s); err != nil {
				h.fail(w, "Invalid product", err)
				return
			}
		}
		c, err := h.svc.ContractForLabel(market, product, l.String(), date)
		if err != nil {
			h.fail(w, "Failed to resolve label", err)
			return
		}
		cd := h.contractDTO(c)
		dto.Contract = &cd
	}

	writeJSON(w, http.StatusOK, dto)
}

// GetPeriod returns a catalogued period.
// GET /api/periods/{id}
func (h *Handler) GetPeriod(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Period(strings.ToUpper(chi.URLParam(r, "id")))
	if err != nil {
		h.fail(w, "Period not found", err)
		return
	}

	dto := PeriodDTO{
		ID:          p.ID,
		Name:        p.Name,
		Granularity: string(p.Granularity),
		ChildIDs:    p.ChildPeriodIDs,
		StartDate:   p.StartDate.Format(dateLayout),
		EndDate:     p.EndDate.Format(dateLayout),
	}
	if p.ParentPeriodID != nil {
		dto.ParentID = *p.ParentPeriodID
	}
	writeJSON(w, http.StatusOK, dto)
}

func (h *Handler) contractDTO(c contract.ContractSpec) ContractDTO {
	return ContractDTO{
		Code:           c.Code,
		Market:         c.Market,
		Product:        string(c.Product),
		Granularity:    string(c.Granularity),
		PeriodID:       c.Period.ID(),
		PeriodName:     c.Period.Name(),
		DeliveryStart:  c.DeliveryStart.Format(dateLayout),
		DeliveryEnd:    c.DeliveryEnd.Format(dateLayout),
		DeliveryMonths: h.svc.DeliveryMonths(c),
		BusinessKey:    c.BusinessKey(),
	}
}

func mappingsResponse(c contract.ContractSpec, windowSize int, from, to time.Time, ms []mapping.RelativePeriodMapping) MappingsResponse {
	dtos := make([]MappingDTO, len(ms))
	for i, m := range ms {
		dtos[i] = MappingDTO{
			Label:             m.Label.String(),
			Offset:            m.Offset,
			ReferencePeriodID: m.ReferencePeriod.ID(),
			Start:             m.Start.Format(dateLayout),
			End:               m.End.Format(dateLayout),
		}
	}
	return MappingsResponse{
		Contract:   c.Code,
		From:       from.Format(dateLayout),
		To:         to.Format(dateLayout),
		WindowSize: windowSize,
		Mappings:   dtos,
	}
}

// dateParam parses a YYYY-MM-DD query parameter, today when absent.
func (h *Handler) dateParam(r *http.Request, name string) (time.Time, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return domain.DateOf(h.now()), nil
	}
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be YYYY-MM-DD, got %q", errBadRequest, name, s)
	}
	return d, nil
}

func (h *Handler) rangeParams(r *http.Request) (time.Time, time.Time, error) {
	from, err := h.dateParam(r, "from")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to := from
	if r.URL.Query().Get("to") != "" {
		if to, err = h.dateParam(r, "to"); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	return from, to, nil
}

// fail maps err to a status and writes it. Only server errors are logged.
func (h *Handler) fail(w http.ResponseWriter, message string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.WithError(err).Error(message)
	}
	writeError(w, status, message, err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrPeriodNotFound):
		return http.StatusNotFound
	case errors.Is(err, errBadRequest),
		errors.Is(err, contract.ErrParse),
		errors.Is(err, mapping.ErrInvalidLabel),
		domain.IsClientError(err):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrStoreNotInitialized):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
