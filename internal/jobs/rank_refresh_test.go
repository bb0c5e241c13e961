package jobs

import (
	"context"
	"testing"

	"reactivate/api/internal/models"
	"reactivate/api/internal/ranking"
	"reactivate/api/internal/repositories/sqlstore"
	"reactivate/api/internal/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func seededStore(t *testing.T) *sqlstore.Store {
	t.Helper()
	s, err := sqlstore.New(testhelpers.SetupTestDB(t))
	require.NoError(t, err)
	ctx := context.Background()
	for id, score := range map[string]int{"u1": 100, "u2": 110, "u3": 40} {
		require.NoError(t, s.Users().Create(ctx, &models.User{UserID: id, Score: score, Rank: 9}))
	}
	return s
}

func TestRankRefreshJob_Run(t *testing.T) {
	s := seededStore(t)
	job := NewRankRefreshJob(s.Users(), nil, RankRefreshConfig{}, zap.NewNop())

	n, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	for id, want := range map[string]int{"u2": 1, "u1": 2, "u3": 3} {
		u, err := s.Users().GetByUserID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, want, u.Rank, id)
	}
}

func TestRankRefreshJob_RebuildsRedis(t *testing.T) {
	s := seededStore(t)
	mr, rdb := testhelpers.SetupRedis(t)
	rr := ranking.NewRedisRanker(rdb, "scores")
	job := NewRankRefreshJob(s.Users(), rr, RankRefreshConfig{}, zap.NewNop())

	_, err := job.Run(context.Background())
	require.NoError(t, err)

	members, err := mr.ZMembers("scores")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"u1", "u2", "u3"}, members)
	score, err := mr.ZScore("scores", "u2")
	require.NoError(t, err)
	assert.Equal(t, 110.0, score)
}

func TestRankRefreshJob_StartDisabled(t *testing.T) {
	job := NewRankRefreshJob(nil, nil, RankRefreshConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, job.Start())
	job.Stop()
}

func TestRankRefreshJob_StartInvalidSchedule(t *testing.T) {
	job := NewRankRefreshJob(nil, nil, RankRefreshConfig{Enabled: true, Schedule: "not a schedule"}, zap.NewNop())
	assert.Error(t, job.Start())
}

func TestRankRefreshJob_StartAndStop(t *testing.T) {
	s := seededStore(t)
	job := NewRankRefreshJob(s.Users(), nil, RankRefreshConfig{Enabled: true, Schedule: "@every 1h"}, zap.NewNop())
	require.NoError(t, job.Start())
	job.Stop()
}

func TestRankRefreshJob_SkipsOverlappingRun(t *testing.T) {
	job := NewRankRefreshJob(nil, nil, RankRefreshConfig{}, zap.NewNop())
	job.running = true

	n, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestRankRefreshJob_StoreError(t *testing.T) {
	s := seededStore(t)
	require.NoError(t, s.Close(context.Background()))
	job := NewRankRefreshJob(s.Users(), nil, RankRefreshConfig{}, zap.NewNop())

	_, err := job.Run(context.Background())
	assert.Error(t, err)
}
