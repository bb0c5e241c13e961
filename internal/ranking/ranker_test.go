package ranking

import (
	"context"
	"testing"

	"reactivate/api/internal/models"
	"reactivate/api/internal/repositories/sqlstore"
	"reactivate/api/internal/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUsers(t *testing.T, scores map[string]int) *sqlstore.Store {
	t.Helper()
	s, err := sqlstore.New(testhelpers.SetupTestDB(t))
	require.NoError(t, err)
	for id, score := range scores {
		require.NoError(t, s.Users().Create(context.Background(), &models.User{UserID: id, Score: score}))
	}
	return s
}

func TestStoreRanker_Rank(t *testing.T) {
	s := newUsers(t, map[string]int{"a": 100, "b": 100, "c": 50})
	r := NewStoreRanker(s.Users())
	ctx := context.Background()

	cases := []struct {
		score int
		want  int
	}{
		{150, 1},
		{100, 1},
		{50, 3},
		{0, 4},
	}
	for _, tc := range cases {
		got, err := r.Rank(ctx, "x", tc.score)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "score %d", tc.score)
	}
	assert.NoError(t, r.Record(ctx, "x", 1))
	assert.Equal(t, "store", r.Name())
}

func TestRedisRanker(t *testing.T) {
	_, rdb := testhelpers.SetupRedis(t)
	r := NewRedisRanker(rdb, "")
	ctx := context.Background()

	require.NoError(t, r.Record(ctx, "a", 100))
	require.NoError(t, r.Record(ctx, "b", 100))
	require.NoError(t, r.Record(ctx, "c", 50))

	rank, err := r.Rank(ctx, "c", 50)
	require.NoError(t, err)
	assert.Equal(t, 3, rank)

	rank, err = r.Rank(ctx, "a", 100)
	require.NoError(t, err)
	assert.Equal(t, 1, rank, "ties share a rank")

	// a new score overwrites the old one
	require.NoError(t, r.Record(ctx, "c", 110))
	rank, err = r.Rank(ctx, "c", 110)
	require.NoError(t, err)
	assert.Equal(t, 1, rank)

	n, err := r.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestRedisRanker_Rebuild(t *testing.T) {
	mr, rdb := testhelpers.SetupRedis(t)
	r := NewRedisRanker(rdb, "scores")
	ctx := context.Background()

	require.NoError(t, r.Record(ctx, "stale", 999))
	require.NoError(t, r.Rebuild(ctx, []models.User{
		{UserID: "u1", Score: 100},
		{UserID: "u2", Score: 50},
	}))

	members, err := mr.ZMembers("scores")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"u1", "u2"}, members)

	require.NoError(t, r.Rebuild(ctx, nil))
	assert.False(t, mr.Exists("scores"))
}

func TestRedisRanker_Error(t *testing.T) {
	mr, rdb := testhelpers.SetupRedis(t)
	r := NewRedisRanker(rdb, "")
	mr.Close()

	_, err := r.Rank(context.Background(), "u1", 10)
	assert.Error(t, err)
}

func TestCompetitionRanks(t *testing.T) {
	users := []models.User{
		{UserID: "a", Score: 100},
		{UserID: "b", Score: 100},
		{UserID: "c", Score: 80},
		{UserID: "d", Score: 80},
		{UserID: "e", Score: 10},
	}
	assert.Equal(t, []int{1, 1, 3, 3, 5}, CompetitionRanks(users))
	assert.Empty(t, CompetitionRanks(nil))
}

func TestRecomputeAll(t *testing.T) {
	s := newUsers(t, map[string]int{"u1": 100, "u2": 110, "u3": 100})
	ctx := context.Background()

	n, err := RecomputeAll(ctx, s.Users())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	want := map[string]int{"u2": 1, "u1": 2, "u3": 2}
	for id, rank := range want {
		u, err := s.Users().GetByUserID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, rank, u.Rank, id)
	}
}
