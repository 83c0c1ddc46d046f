package scheduler

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nholding/tenor/internal/config"
	"github.com/nholding/tenor/internal/logger"
	mappingrepo "github.com/nholding/tenor/internal/mapping/repository"
	"github.com/nholding/tenor/internal/period/domain"
	"github.com/nholding/tenor/internal/period/service"
	clients "github.com/nholding/tenor/internal/repository"
)

func newScheduler(t *testing.T, watch ...string) (*Scheduler, *mappingrepo.SQLMappingRepository, *bytes.Buffer) {
	t.Helper()
	db, err := clients.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := mappingrepo.NewSQLiteMappingRepository(db)
	require.NoError(t, repo.Migrate(context.Background()))

	var buf bytes.Buffer
	log := logger.NewWithWriter(&config.Config{Log: config.LogConfig{Level: "debug", Format: "json"}}, &buf)

	svc, err := service.NewPeriodService([]domain.TransitionWindow{
		{Granularity: domain.MonthlyPeriod, Size: 2},
		{Granularity: domain.QuarterlyPeriod, Size: 3},
		{Granularity: domain.CalendarYearPeriod, Size: 5},
	}, service.WithMappingRepository(repo), service.WithLogger(log))
	require.NoError(t, err)

	return New(context.Background(), svc, log, watch, "scheduler"), repo, &buf
}

func TestRunRoll_LabelChange(t *testing.T) {
	s, repo, buf := newScheduler(t, "debq4_25", "frpm8_25")

	// Thursday 2025-06-26: the quarter reference moved to Q3 today
	results, err := s.RunRoll(context.Background(), domain.Date(2025, 6, 26))
	require.NoError(t, err)
	require.Len(t, results, 2)

	q := results[0]
	assert.Equal(t, "debq4_25", q.Contract)
	assert.Equal(t, "q_1", q.Label)
	assert.Equal(t, "q_2", q.PreviousLabel)
	assert.True(t, q.Changed)
	assert.Equal(t, 1, q.Inserted)
	assert.Equal(t, domain.Date(2025, 9, 26), q.NextChange)

	m := results[1]
	assert.Equal(t, "m_2", m.Label)
	assert.False(t, m.Changed)

	assert.Contains(t, buf.String(), "Contract label changed")

	stored, err := repo.FindByContract(context.Background(), "debq4_25", domain.Date(2025, 6, 26), domain.Date(2025, 6, 26))
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "scheduler", stored[0].AuditInfo.CreatedBy)
}

func TestRunRoll_Idempotent(t *testing.T) {
	s, _, _ := newScheduler(t, "debq4_25")

	_, err := s.RunRoll(context.Background(), domain.Date(2025, 6, 24))
	require.NoError(t, err)

	results, err := s.RunRoll(context.Background(), domain.Date(2025, 6, 24))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Zero(t, results[0].Inserted)
	assert.Equal(t, "q_2", results[0].Label)
	assert.False(t, results[0].Changed)
}

func TestRunRoll_ContinuesAfterFailure(t *testing.T) {
	s, _, _ := newScheduler(t, "bogus", "nlby_26")

	results, err := s.RunRoll(context.Background(), domain.Date(2025, 6, 26))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus")
	require.Len(t, results, 1)
	assert.Equal(t, "nlby_26", results[0].Contract)
	assert.Equal(t, "y_1", results[0].Label)
}

func TestRegister(t *testing.T) {
	s, _, _ := newScheduler(t)
	assert.NoError(t, s.Register("0 30 6 * * 1-5"))
	assert.Error(t, s.Register("not a cron"))
}
