package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nholding/tenor/internal/audit"
	"github.com/nholding/tenor/internal/period/domain"
	clients "github.com/nholding/tenor/internal/repository"
)

// PeriodRepository defines the interface for storing and retrieving Periods from a persistence layer
type PeriodRepository interface {
	// SavePeriods persists Periods. NOTE: ChildPeriodIDs are NOT stored in the DB.
	SavePeriods(ctx context.Context, periods []*domain.Period) error

	// GetAllPeriods retrieves all Periods from the DB with their child links rebuilt.
	GetAllPeriods(ctx context.Context) ([]*domain.Period, error)

	FindByID(ctx context.Context, id string) (*domain.Period, error)
}

type SQLPeriodRepository struct {
	db      *sql.DB
	dialect clients.Dialect
}

// NewRdsPeriodRepository wraps a PostgreSQL connection, e.g. RDSClient.Client.
func NewRdsPeriodRepository(db *sql.DB) *SQLPeriodRepository {
	return &SQLPeriodRepository{db: db, dialect: clients.Postgres}
}

// NewSQLPeriodRepository wraps db using dialect's placeholders.
func NewSQLPeriodRepository(db *sql.DB, dialect clients.Dialect) *SQLPeriodRepository {
	return &SQLPeriodRepository{db: db, dialect: dialect}
}

// Migrate creates the periods table if it does not exist.
func (r *SQLPeriodRepository) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS periods (
			id               TEXT PRIMARY KEY,
			name             TEXT NOT NULL,
			granularity      TEXT NOT NULL,
			year             INTEGER NOT NULL,
			period_index     INTEGER NOT NULL,
			parent_period_id TEXT,
			start_date       TEXT NOT NULL,
			end_date         TEXT NOT NULL,
			audit_created_by TEXT NOT NULL,
			audit_created_at TEXT NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("create periods table: %w", err)
	}
	return nil
}

// SavePeriods Inserts a slice of Periods into the database.
// Will fail if a period with the same ID already exists. This method does NOT touch existing records.
// It assumes the Periods do NOT exist yet in the DB!
//
// Example:
//
//	ctx := context.TODO()
//	err := repo.SavePeriods(ctx, []*domain.Period{period1, period2})
func (r *SQLPeriodRepository) SavePeriods(ctx context.Context, periods []*domain.Period) error {
	if len(periods) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, r.dialect.Rebind(`
		INSERT INTO periods (
			id, name, granularity, year, period_index, parent_period_id, start_date, end_date,
			audit_created_by, audit_created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`))
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, p := range periods {
		if p == nil {
			continue
		}
		if !p.Granularity.Valid() {
			return fmt.Errorf("period %s validation failed: %w: %q", p.ID, domain.ErrInvalidGranularity, p.Granularity)
		}
		if p.AuditInfo == nil {
			p.AuditInfo = audit.NewAuditInfo("")
		}

		_, err := stmt.ExecContext(ctx,
			p.ID,
			p.Name,
			string(p.Granularity),
			p.Absolute.Year,
			p.Absolute.Index,
			p.ParentPeriodID,
			p.StartDate.Format("2006-01-02"),
			p.EndDate.Format("2006-01-02"),
			p.AuditInfo.CreatedBy,
			p.AuditInfo.CreatedAt.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("failed to insert period %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

const selectPeriods = `SELECT granularity, year, period_index, parent_period_id, audit_created_by, audit_created_at FROM periods`

// GetAllPeriods retrieves all periods from the DB.
// This is called at startup to populate the in-memory PeriodStore.
func (r *SQLPeriodRepository) GetAllPeriods(ctx context.Context) ([]*domain.Period, error) {
	rows, err := r.db.QueryContext(ctx, selectPeriods+` ORDER BY start_date`)
	if err != nil {
		return nil, fmt.Errorf("failed to query periods: %w", err)
	}
	defer rows.Close()

	var periods []*domain.Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read period rows: %w", err)
	}

	linkChildren(periods)
	return periods, nil
}

// FindByID retrieves a single period by ID, nil when it does not exist.
func (r *SQLPeriodRepository) FindByID(ctx context.Context, id string) (*domain.Period, error) {
	row := r.db.QueryRowContext(ctx, r.dialect.Rebind(selectPeriods+` WHERE id=$1`), id)

	p, err := scanPeriod(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // Not found
	}
	return p, err
}

type scanner interface {
	Scan(dest ...any) error
}

// scanPeriod rebuilds the period from its absolute coordinates, so IDs, names and dates always
// match what the domain package derives.
func scanPeriod(row scanner) (*domain.Period, error) {
	var (
		granularity string
		year, index int
		parentID    sql.NullString
		createdBy   string
		createdAt   string
	)
	if err := row.Scan(&granularity, &year, &index, &parentID, &createdBy, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan period row: %w", err)
	}

	abs, err := domain.NewAbsolutePeriod(domain.PeriodGranularity(granularity), year, index)
	if err != nil {
		return nil, fmt.Errorf("stored period %s/%d/%d: %w", granularity, year, index, err)
	}

	p := domain.NewPeriod(abs)
	if parentID.Valid {
		parent := parentID.String
		p.ParentPeriodID = &parent
	}
	ts, _ := time.Parse(time.RFC3339Nano, createdAt)
	p.AuditInfo = &audit.AuditInfo{CreatedBy: createdBy, CreatedAt: ts}
	return p, nil
}

func linkChildren(periods []*domain.Period) {
	byID := make(map[string]*domain.Period, len(periods))
	for _, p := range periods {
		byID[p.ID] = p
	}
	for _, p := range periods {
		if p.ParentPeriodID == nil {
			continue
		}
		if parent, ok := byID[*p.ParentPeriodID]; ok {
			domain.AddChild(parent, p.ID)
		}
	}
}

var _ PeriodRepository = (*SQLPeriodRepository)(nil)
