package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/nholding/tenor/internal/audit"
	"github.com/nholding/tenor/internal/contract"
	"github.com/nholding/tenor/internal/mapping"
	"github.com/nholding/tenor/internal/period/domain"
	"github.com/nholding/tenor/internal/utils"
)

const businessKeyVersion = "m1"

// MappingRecord is one persisted RelativePeriodMapping of a contract.
//
// The business key covers the contract, the interval, the offset and the window size, so
// recording the same mapping twice is a no-op while a re-run with another window is kept.
type MappingRecord struct {
	ID                string                   `json:"id"`
	BusinessKey       string                   `json:"business_key"`
	ContractCode      string                   `json:"contract_code"`
	Granularity       domain.PeriodGranularity `json:"granularity"`
	Label             string                   `json:"label"`
	Offset            int                      `json:"offset"`
	ReferencePeriodID string                   `json:"reference_period_id"`
	StartDate         time.Time                `json:"start_date"`
	EndDate           time.Time                `json:"end_date"`
	WindowSize        int                      `json:"window_size"`
	AuditInfo         *audit.AuditInfo         `json:"audit_info"`
}

// NewMappingRecords turns mapper output into records created by user.
func NewMappingRecords(c contract.ContractSpec, mappings []mapping.RelativePeriodMapping, window domain.TransitionWindow, user string) []*MappingRecord {
	records := make([]*MappingRecord, 0, len(mappings))
	for _, m := range mappings {
		records = append(records, &MappingRecord{
			ID: utils.GenerateStableID(),
			BusinessKey: utils.GenerateBusinessKey(businessKeyVersion, map[string]string{
				"contract": c.BusinessKey(),
				"start":    fmtDate(m.Start),
				"end":      fmtDate(m.End),
				"offset":   strconv.Itoa(m.Offset),
				"window":   strconv.Itoa(window.Size),
			}),
			ContractCode:      c.Code,
			Granularity:       c.Granularity,
			Label:             m.Label.String(),
			Offset:            m.Offset,
			ReferencePeriodID: m.ReferencePeriod.ID(),
			StartDate:         m.Start,
			EndDate:           m.End,
			WindowSize:        window.Size,
			AuditInfo:         audit.NewAuditInfo(user),
		})
	}
	return records
}

// MappingRepository persists mapping records.
type MappingRepository interface {
	// SaveMappings inserts records and returns how many were new. Records whose business key
	// already exists are skipped.
	SaveMappings(ctx context.Context, records []*MappingRecord) (int, error)

	// FindByContract returns the records of a contract whose interval overlaps [from, to],
	// ordered by start date.
	FindByContract(ctx context.Context, code string, from, to time.Time) ([]*MappingRecord, error)
}

// NoopMappingRepository is used when no database is configured.
type NoopMappingRepository struct{}

func NewNoopMappingRepository() *NoopMappingRepository { return &NoopMappingRepository{} }

func (NoopMappingRepository) SaveMappings(_ context.Context, _ []*MappingRecord) (int, error) {
	return 0, nil
}

func (NoopMappingRepository) FindByContract(_ context.Context, _ string, _, _ time.Time) ([]*MappingRecord, error) {
	return nil, nil
}

const dateLayout = "2006-01-02"

func fmtDate(t time.Time) string {
	return t.Format(dateLayout)
}
