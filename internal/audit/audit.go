package audit

import (
	"time"
)

// SystemUser is recorded when no creator is given.
const SystemUser = "system"

type AuditInfo struct {
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedBy string    `json:"updated_by,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// NewAuditInfo returns an AuditInfo with the current timestamp and creator.
func NewAuditInfo(creator string) *AuditInfo {
	if creator == "" {
		creator = SystemUser
	}

	return &AuditInfo{
		CreatedBy: creator,
		CreatedAt: time.Now().UTC(),
	}
}
