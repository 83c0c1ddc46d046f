package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/nholding/tenor/internal/audit"
	"github.com/nholding/tenor/internal/period/domain"
	clients "github.com/nholding/tenor/internal/repository"
)

// SQLMappingRepository stores mapping records in PostgreSQL (RDS) or SQLite. All queries are
// written with $n placeholders and rebound for the dialect.
type SQLMappingRepository struct {
	db      *sql.DB
	dialect clients.Dialect
	mu      sync.Mutex // serializes writers, SQLite allows only one
}

// NewRdsMappingRepository wraps a PostgreSQL connection, e.g. RDSClient.Client.
func NewRdsMappingRepository(db *sql.DB) *SQLMappingRepository {
	return &SQLMappingRepository{db: db, dialect: clients.Postgres}
}

// NewSQLiteMappingRepository wraps a SQLite connection opened with clients.OpenSQLite.
func NewSQLiteMappingRepository(db *sql.DB) *SQLMappingRepository {
	return &SQLMappingRepository{db: db, dialect: clients.SQLite}
}

// NewSQLMappingRepository picks the implementation for dialect.
func NewSQLMappingRepository(db *sql.DB, dialect clients.Dialect) *SQLMappingRepository {
	return &SQLMappingRepository{db: db, dialect: dialect}
}

// Migrate creates the mappings table if it does not exist. The DDL is valid for both dialects.
func (r *SQLMappingRepository) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS relative_period_mappings (
			id                  TEXT PRIMARY KEY,
			business_key        TEXT NOT NULL UNIQUE,
			contract_code       TEXT NOT NULL,
			granularity         TEXT NOT NULL,
			label               TEXT NOT NULL,
			period_offset       INTEGER NOT NULL,
			reference_period_id TEXT NOT NULL,
			start_date          TEXT NOT NULL,
			end_date            TEXT NOT NULL,
			window_size         INTEGER NOT NULL,
			audit_created_by    TEXT NOT NULL,
			audit_created_at    TEXT NOT NULL,
			audit_updated_by    TEXT NOT NULL DEFAULT '',
			audit_updated_at    TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_mappings_contract ON relative_period_mappings(contract_code, start_date)`,
	}

	for _, s := range stmts {
		if _, err := r.db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// SaveMappings inserts records in one transaction. Existing business keys are left untouched.
//
// Example:
//
//	n, err := repo.SaveMappings(ctx, NewMappingRecords(c, mappings, window, "alice"))
func (r *SQLMappingRepository) SaveMappings(ctx context.Context, records []*MappingRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, r.dialect.Rebind(`
		INSERT INTO relative_period_mappings (
			id, business_key, contract_code, granularity, label, period_offset, reference_period_id,
			start_date, end_date, window_size,
			audit_created_by, audit_created_at, audit_updated_by, audit_updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		ON CONFLICT (business_key) DO NOTHING
	`))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, rec := range records {
		if rec == nil {
			continue
		}
		info := rec.AuditInfo
		if info == nil {
			info = audit.NewAuditInfo("")
		}

		res, err := stmt.ExecContext(ctx,
			rec.ID,
			rec.BusinessKey,
			rec.ContractCode,
			string(rec.Granularity),
			rec.Label,
			rec.Offset,
			rec.ReferencePeriodID,
			fmtDate(rec.StartDate),
			fmtDate(rec.EndDate),
			rec.WindowSize,
			info.CreatedBy,
			fmtTimestamp(info.CreatedAt),
			info.UpdatedBy,
			fmtTimestamp(info.UpdatedAt),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert mapping %s for %s: %w", rec.Label, rec.ContractCode, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return inserted, nil
}

// FindByContract retrieves the records of one contract overlapping [from, to].
func (r *SQLMappingRepository) FindByContract(ctx context.Context, code string, from, to time.Time) ([]*MappingRecord, error) {
	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(`
		SELECT id, business_key, contract_code, granularity, label, period_offset, reference_period_id,
		       start_date, end_date, window_size,
		       audit_created_by, audit_created_at, audit_updated_by, audit_updated_at
		FROM relative_period_mappings
		WHERE contract_code = $1 AND start_date <= $2 AND end_date >= $3
		ORDER BY start_date, window_size
	`), code, fmtDate(to), fmtDate(from))
	if err != nil {
		return nil, fmt.Errorf("failed to query mappings: %w", err)
	}
	defer rows.Close()

	var records []*MappingRecord
	for rows.Next() {
		rec := &MappingRecord{AuditInfo: &audit.AuditInfo{}}
		var granularity, start, end, createdAt, updatedAt string
		if err := rows.Scan(
			&rec.ID, &rec.BusinessKey, &rec.ContractCode, &granularity, &rec.Label, &rec.Offset,
			&rec.ReferencePeriodID, &start, &end, &rec.WindowSize,
			&rec.AuditInfo.CreatedBy, &createdAt, &rec.AuditInfo.UpdatedBy, &updatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan mapping row: %w", err)
		}

		rec.Granularity = domain.PeriodGranularity(granularity)
		if rec.StartDate, err = time.Parse(dateLayout, start); err != nil {
			return nil, fmt.Errorf("mapping %s: bad start_date: %w", rec.ID, err)
		}
		if rec.EndDate, err = time.Parse(dateLayout, end); err != nil {
			return nil, fmt.Errorf("mapping %s: bad end_date: %w", rec.ID, err)
		}
		rec.AuditInfo.CreatedAt = parseTimestamp(createdAt)
		rec.AuditInfo.UpdatedAt = parseTimestamp(updatedAt)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read mapping rows: %w", err)
	}
	return records, nil
}

func fmtTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTimestamp(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

var (
	_ MappingRepository = (*SQLMappingRepository)(nil)
	_ MappingRepository = NoopMappingRepository{}
)
