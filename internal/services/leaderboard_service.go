package services

import (
	"context"

	"reactivate/api/internal/models"
	"reactivate/api/internal/ranking"
	"reactivate/api/internal/repositories"
)

type LeaderboardService struct {
	users repositories.UserRepository
	// liveByDefault makes every query compute ranks instead of reading them
	liveByDefault bool
}

func NewLeaderboardService(users repositories.UserRepository, liveByDefault bool) *LeaderboardService {
	return &LeaderboardService{users: users, liveByDefault: liveByDefault}
}

// GetLeaderboard returns up to models.LeaderboardLimit users by score
// descending, ties by userId. By default each row carries the rank stored on
// the user, which may be stale. With live set, ranks are computed from the
// returned scores (tied scores share a rank).
func (s *LeaderboardService) GetLeaderboard(ctx context.Context, live bool) ([]models.LeaderboardEntry, error) {
	users, err := s.users.TopByScore(ctx, models.LeaderboardLimit)
	if err != nil {
		return nil, storeError("load leaderboard", err)
	}

	var ranks []int
	if live || s.liveByDefault {
		ranks = ranking.CompetitionRanks(users)
	}

	out := make([]models.LeaderboardEntry, len(users))
	for i, u := range users {
		rank := u.Rank
		if ranks != nil {
			rank = ranks[i]
		}
		out[i] = models.LeaderboardEntry{UserID: u.UserID, Score: u.Score, Rank: rank}
	}
	return out, nil
}
