package ranking

import (
	"context"
	"fmt"

	"reactivate/api/internal/models"
	"reactivate/api/internal/repositories"
)

// Ranker answers "what rank does this score have right now". Rank is
// 1 + the number of users with a strictly greater score, so tied users share
// a rank.
type Ranker interface {
	Name() string
	Rank(ctx context.Context, userID string, score int) (int, error)
	// Record tells the ranker about a user's latest score.
	Record(ctx context.Context, userID string, score int) error
}

// StoreRanker counts directly in the user store.
type StoreRanker struct {
	users repositories.UserRepository
}

func NewStoreRanker(users repositories.UserRepository) *StoreRanker {
	return &StoreRanker{users: users}
}

func (r *StoreRanker) Name() string { return "store" }

func (r *StoreRanker) Rank(ctx context.Context, _ string, score int) (int, error) {
	above, err := r.users.CountScoreAbove(ctx, score)
	if err != nil {
		return 0, fmt.Errorf("count scores above %d: %w", score, err)
	}
	return int(above) + 1, nil
}

// Record is a no-op; the store already holds the score.
func (r *StoreRanker) Record(context.Context, string, int) error { return nil }

// CompetitionRanks assigns 1224-style ranks to users already sorted by score
// descending.
func CompetitionRanks(users []models.User) []int {
	ranks := make([]int, len(users))
	for i := range users {
		if i > 0 && users[i].Score == users[i-1].Score {
			ranks[i] = ranks[i-1]
			continue
		}
		ranks[i] = i + 1
	}
	return ranks
}

// RecomputeAll rewrites the stored rank of every user and returns how many
// were ranked.
func RecomputeAll(ctx context.Context, users repositories.UserRepository) (int, error) {
	all, err := users.TopByScore(ctx, 0)
	if err != nil {
		return 0, fmt.Errorf("load users: %w", err)
	}
	ranks := CompetitionRanks(all)
	byUser := make(map[string]int, len(all))
	for i, u := range all {
		byUser[u.UserID] = ranks[i]
	}
	if err := users.SetRanks(ctx, byUser); err != nil {
		return 0, fmt.Errorf("write ranks: %w", err)
	}
	return len(all), nil
}
