package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"reactivate/api/internal/events"
	"reactivate/api/internal/models"
	"reactivate/api/internal/ranking"
	"reactivate/api/internal/repositories"
	"reactivate/api/internal/repositories/sqlstore"
	"reactivate/api/internal/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	store       *sqlstore.Store
	bus         *events.LocalBus
	users       *UserService
	challenges  *ChallengeService
	completions *CompletionService
	leaderboard *LeaderboardService
}

func newFixture(t *testing.T, ranker func(repositories.UserRepository) ranking.Ranker) *fixture {
	t.Helper()
	store, err := sqlstore.New(testhelpers.SetupTestDB(t))
	require.NoError(t, err)

	if ranker == nil {
		ranker = func(u repositories.UserRepository) ranking.Ranker { return ranking.NewStoreRanker(u) }
	}
	r := ranker(store.Users())
	logger := zap.NewNop()
	bus := events.NewLocalBus(logger)

	return &fixture{
		store:       store,
		bus:         bus,
		users:       NewUserService(store.Users(), r, logger),
		challenges:  NewChallengeService(store.Challenges()),
		completions: NewCompletionService(store.Users(), store.Challenges(), r, bus, logger),
		leaderboard: NewLeaderboardService(store.Users(), false),
	}
}

func (f *fixture) addChallenge(t *testing.T, id string, d models.Difficulty) {
	t.Helper()
	require.NoError(t, f.store.Challenges().Create(context.Background(), &models.Challenge{
		ID:          id,
		Title:       "Challenge " + id,
		Description: "desc",
		Difficulty:  d,
		StarterCode: "def solve():\n    pass",
		TestCases: []models.TestCase{
			{Input: map[string]any{"n": 1.0}, ExpectedOutput: 1.0, Description: "one"},
		},
	}))
}

func (f *fixture) addUser(t *testing.T, id string, score int) {
	t.Helper()
	require.NoError(t, f.store.Users().Create(context.Background(), &models.User{UserID: id, Score: score}))
}

func points(n int) *int { return &n }

func kindOf(t *testing.T, err error, kind error, msg string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, kind), "expected %v, got %v", kind, err)
	var svcErr *Error
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, msg, svcErr.Message)
}

func TestCreateUser(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	u, err := f.users.CreateUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.UserView{UserID: "u1", CompletedChallenges: []string{}}, u.View())

	_, err = f.users.CreateUser(ctx, "u1")
	kindOf(t, err, ErrConflict, "User already exists")

	_, err = f.users.CreateUser(ctx, "   ")
	kindOf(t, err, ErrValidation, "userId is required")

	_, err = f.users.CreateUser(ctx, strings.Repeat("x", models.MaxUserIDLength+1))
	kindOf(t, err, ErrValidation, "userId must be at most 100 characters")
}

func TestGetUser(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.addUser(t, "u1", 0)

	u, err := f.users.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.UserID)

	_, err = f.users.GetUser(ctx, "missing")
	kindOf(t, err, ErrNotFound, "User not found")
}

func TestGetUserTrimsLikeCreate(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	created, err := f.users.CreateUser(ctx, " u1 ")
	require.NoError(t, err)
	assert.Equal(t, "u1", created.UserID)

	u, err := f.users.GetUser(ctx, " u1 ")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.UserID)
}

func TestGetUserStoreError(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.store.Close(context.Background()))

	_, err := f.users.GetUser(context.Background(), "u1")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
	var svcErr *Error
	assert.False(t, errors.As(err, &svcErr), "store failures carry no client kind")
}

func TestChallenges(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.addChallenge(t, "c1", models.Easy)
	f.addChallenge(t, "c2", models.Hard)

	list, err := f.challenges.ListChallenges(ctx, "")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "c1", list[0].ID)

	hard, err := f.challenges.ListChallenges(ctx, "HARD")
	require.NoError(t, err)
	require.Len(t, hard, 1)
	assert.Equal(t, "c2", hard[0].ID)

	_, err = f.challenges.ListChallenges(ctx, "impossible")
	kindOf(t, err, ErrValidation, "difficulty must be one of easy, medium, hard")

	c, err := f.challenges.GetChallenge(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, c.TestCases, 1)

	_, err = f.challenges.GetChallenge(ctx, "nope")
	kindOf(t, err, ErrNotFound, "Challenge not found")
}

func TestCompleteChallenge_FirstCompletion(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, err := f.users.CreateUser(ctx, "u1")
	require.NoError(t, err)
	f.addChallenge(t, "c1", models.Easy)

	u, err := f.completions.CompleteChallenge(ctx, "u1", "c1", points(50))
	require.NoError(t, err)
	assert.Equal(t, models.UserView{
		UserID:              "u1",
		Score:               50,
		Rank:                1,
		CompletedChallenges: []string{"c1"},
	}, u.View())

	_, err = f.completions.CompleteChallenge(ctx, "u1", "c1", points(50))
	kindOf(t, err, ErrConflict, "Challenge already completed")

	stored, err := f.users.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 50, stored.Score, "rejected repeat must not change the score")
	assert.Equal(t, []string{"c1"}, stored.CompletedChallenges)
}

func TestCompleteChallenge_Overtake(t *testing.T) {
	for name, newRanker := range map[string]func(repositories.UserRepository) ranking.Ranker{
		"store": nil,
		"redis": func(repositories.UserRepository) ranking.Ranker {
			_, rdb := testhelpers.SetupRedis(t)
			return ranking.NewRedisRanker(rdb, "")
		},
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, newRanker)
			ctx := context.Background()
			f.addChallenge(t, "c1", models.Medium)
			f.addChallenge(t, "c2", models.Easy)
			_, err := f.users.CreateUser(ctx, "u1")
			require.NoError(t, err)
			_, err = f.users.CreateUser(ctx, "u2")
			require.NoError(t, err)

			_, err = f.completions.CompleteChallenge(ctx, "u1", "c1", points(100))
			require.NoError(t, err)
			u2, err := f.completions.CompleteChallenge(ctx, "u2", "c2", points(50))
			require.NoError(t, err)
			assert.Equal(t, 2, u2.Rank)

			u2, err = f.completions.CompleteChallenge(ctx, "u2", "c1", points(60))
			require.NoError(t, err)
			assert.Equal(t, 110, u2.Score)
			assert.Equal(t, 1, u2.Rank)

			board, err := f.leaderboard.GetLeaderboard(ctx, false)
			require.NoError(t, err)
			require.Len(t, board, 2)
			assert.Equal(t, "u2", board[0].UserID)
			assert.Equal(t, "u1", board[1].UserID)
			// only the acting user's rank is rewritten
			assert.Equal(t, 1, board[1].Rank)

			live, err := f.leaderboard.GetLeaderboard(ctx, true)
			require.NoError(t, err)
			assert.Equal(t, 2, live[1].Rank)
		})
	}
}

func TestCompleteChallenge_Validation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.addUser(t, "u1", 0)
	f.addChallenge(t, "c1", models.Easy)

	_, err := f.completions.CompleteChallenge(ctx, "", "c1", points(5))
	kindOf(t, err, ErrValidation, "userId and score are required")

	_, err = f.completions.CompleteChallenge(ctx, "u1", "c1", nil)
	kindOf(t, err, ErrValidation, "userId and score are required")

	_, err = f.completions.CompleteChallenge(ctx, "u1", "c1", points(-1))
	kindOf(t, err, ErrValidation, "score must not be negative")

	_, err = f.completions.CompleteChallenge(ctx, "ghost", "c1", points(5))
	kindOf(t, err, ErrNotFound, "User not found")

	_, err = f.completions.CompleteChallenge(ctx, "u1", "nope", points(5))
	kindOf(t, err, ErrNotFound, "Challenge not found")

	// zero points is a valid completion
	u, err := f.completions.CompleteChallenge(ctx, "u1", "c1", points(0))
	require.NoError(t, err)
	assert.Equal(t, 0, u.Score)
	assert.Equal(t, []string{"c1"}, u.CompletedChallenges)
}

func TestCompleteChallenge_ConcurrentDuplicates(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.addUser(t, "u1", 0)
	f.addChallenge(t, "c1", models.Easy)

	const n = 10
	var wg sync.WaitGroup
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.completions.CompleteChallenge(ctx, "u1", "c1", points(30))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	ok, conflicts := 0, 0
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, conflicts)

	u, err := f.users.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 30, u.Score)
}

func TestCompleteChallenge_PublishesEvent(t *testing.T) {
	f := newFixture(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.addUser(t, "u1", 0)
	f.addChallenge(t, "c1", models.Hard)

	got := make(chan models.CompletionEvent, 1)
	go func() { _ = f.bus.Subscribe(ctx, func(ev models.CompletionEvent) { got <- ev }) }()
	require.Eventually(t, func() bool { return f.bus.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	_, err := f.completions.CompleteChallenge(ctx, "u1", "c1", points(70))
	require.NoError(t, err)

	select {
	case ev := <-got:
		assert.Equal(t, models.CompletionEvent{
			UserID: "u1", ChallengeID: "c1", Difficulty: models.Hard, Points: 70, Score: 70, Rank: 1,
		}, ev)
	case <-time.After(time.Second):
		t.Fatal("no completion event")
	}
}

func TestLeaderboard(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	empty, err := f.leaderboard.GetLeaderboard(ctx, false)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	for i := 0; i < models.LeaderboardLimit+5; i++ {
		f.addUser(t, fmt.Sprintf("user%03d", i), i%7)
	}
	board, err := f.leaderboard.GetLeaderboard(ctx, true)
	require.NoError(t, err)
	assert.Len(t, board, models.LeaderboardLimit)
	for i := 1; i < len(board); i++ {
		prev, cur := board[i-1], board[i]
		require.GreaterOrEqual(t, prev.Score, cur.Score)
		if prev.Score == cur.Score {
			assert.Less(t, prev.UserID, cur.UserID, "ties ordered by userId")
			assert.Equal(t, prev.Rank, cur.Rank, "ties share a live rank")
		}
	}
	assert.Equal(t, 1, board[0].Rank)
}

func TestLeaderboard_LiveByDefault(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.addUser(t, "a", 10)
	f.addUser(t, "b", 20)

	svc := NewLeaderboardService(f.store.Users(), true)
	board, err := svc.GetLeaderboard(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, []models.LeaderboardEntry{
		{UserID: "b", Score: 20, Rank: 1},
		{UserID: "a", Score: 10, Rank: 2},
	}, board)
}
