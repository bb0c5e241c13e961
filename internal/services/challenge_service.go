package services

import (
	"context"
	"errors"

	"reactivate/api/internal/models"
	"reactivate/api/internal/repositories"
)

type ChallengeService struct {
	challenges repositories.ChallengeRepository
}

func NewChallengeService(challenges repositories.ChallengeRepository) *ChallengeService {
	return &ChallengeService{challenges: challenges}
}

// ListChallenges returns the public view of every challenge, optionally only
// one difficulty. An empty difficulty means all.
func (s *ChallengeService) ListChallenges(ctx context.Context, difficulty string) ([]models.ChallengeSummary, error) {
	var filter models.Difficulty
	if difficulty != "" {
		d, ok := models.ParseDifficulty(difficulty)
		if !ok {
			return nil, validation(msgInvalidDifficulty)
		}
		filter = d
	}

	list, err := s.challenges.List(ctx, filter)
	if err != nil {
		return nil, storeError("list challenges", err)
	}
	out := make([]models.ChallengeSummary, 0, len(list))
	for i := range list {
		out = append(out, list[i].Summary())
	}
	return out, nil
}

func (s *ChallengeService) GetChallenge(ctx context.Context, id string) (*models.Challenge, error) {
	c, err := s.challenges.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, notFound(msgChallengeNotFound)
		}
		return nil, storeError("get challenge", err)
	}
	detail := c.Detail()
	return &detail, nil
}
