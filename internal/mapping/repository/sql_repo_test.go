package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nholding/tenor/internal/contract"
	"github.com/nholding/tenor/internal/mapping"
	"github.com/nholding/tenor/internal/period/domain"
	clients "github.com/nholding/tenor/internal/repository"
)

var quarterWindow = domain.TransitionWindow{Granularity: domain.QuarterlyPeriod, Size: 3}

func newTestRepo(t *testing.T) *SQLMappingRepository {
	t.Helper()
	db, err := clients.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := NewSQLiteMappingRepository(db)
	require.NoError(t, repo.Migrate(context.Background()))
	return repo
}

func scenarioRecords(t *testing.T, user string) []*MappingRecord {
	t.Helper()
	c, err := contract.Parse("debq4_25")
	require.NoError(t, err)

	mappings, err := mapping.MapContract(c, domain.Date(2025, 6, 24), domain.Date(2025, 7, 1), quarterWindow)
	require.NoError(t, err)
	return NewMappingRecords(c, mappings, quarterWindow, user)
}

func TestNewMappingRecords(t *testing.T) {
	records := scenarioRecords(t, "alice")
	require.Len(t, records, 2)

	assert.Equal(t, "debq4_25", records[0].ContractCode)
	assert.Equal(t, "q_2", records[0].Label)
	assert.Equal(t, "2025-Q2", records[0].ReferencePeriodID)
	assert.Equal(t, 3, records[0].WindowSize)
	assert.Equal(t, "alice", records[0].AuditInfo.CreatedBy)
	assert.NotEqual(t, records[0].ID, records[1].ID)
	assert.NotEqual(t, records[0].BusinessKey, records[1].BusinessKey)

	// Same mapping recorded again gets a new ID but the same business key.
	again := scenarioRecords(t, "bob")
	assert.NotEqual(t, records[0].ID, again[0].ID)
	assert.Equal(t, records[0].BusinessKey, again[0].BusinessKey)
}

func TestSQLMappingRepository_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	n, err := repo.SaveMappings(ctx, scenarioRecords(t, "alice"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := repo.FindByContract(ctx, "debq4_25", domain.Date(2025, 6, 1), domain.Date(2025, 12, 31))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "q_2", got[0].Label)
	assert.Equal(t, 2, got[0].Offset)
	assert.Equal(t, domain.Date(2025, 6, 24), got[0].StartDate)
	assert.Equal(t, domain.Date(2025, 6, 25), got[0].EndDate)
	assert.Equal(t, domain.QuarterlyPeriod, got[0].Granularity)
	assert.Equal(t, "alice", got[0].AuditInfo.CreatedBy)
	assert.False(t, got[0].AuditInfo.CreatedAt.IsZero())
	assert.Equal(t, "q_1", got[1].Label)
}

func TestSQLMappingRepository_SkipsDuplicates(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	_, err := repo.SaveMappings(ctx, scenarioRecords(t, "alice"))
	require.NoError(t, err)

	n, err := repo.SaveMappings(ctx, scenarioRecords(t, "bob"))
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	got, err := repo.FindByContract(ctx, "debq4_25", domain.Date(2025, 1, 1), domain.Date(2025, 12, 31))
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSQLMappingRepository_FindFiltersByOverlap(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	_, err := repo.SaveMappings(ctx, scenarioRecords(t, "alice"))
	require.NoError(t, err)

	got, err := repo.FindByContract(ctx, "debq4_25", domain.Date(2025, 6, 30), domain.Date(2025, 7, 15))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "q_1", got[0].Label)

	got, err = repo.FindByContract(ctx, "debq1_26", domain.Date(2025, 1, 1), domain.Date(2025, 12, 31))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLMappingRepository_EmptySave(t *testing.T) {
	n, err := newTestRepo(t).SaveMappings(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNoopMappingRepository(t *testing.T) {
	var repo MappingRepository = NewNoopMappingRepository()

	n, err := repo.SaveMappings(context.Background(), scenarioRecords(t, "alice"))
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err := repo.FindByContract(context.Background(), "debq4_25", domain.Date(2025, 1, 1), domain.Date(2025, 12, 31))
	require.NoError(t, err)
	assert.Nil(t, got)
}
