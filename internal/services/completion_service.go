package services

import (
	"context"
	"errors"
	"strings"

	"reactivate/api/internal/events"
	"reactivate/api/internal/metrics"
	"reactivate/api/internal/models"
	"reactivate/api/internal/ranking"
	"reactivate/api/internal/repositories"

	"go.uber.org/zap"
)

// CompletionService applies a challenge completion to a user's score and rank.
type CompletionService struct {
	users      repositories.UserRepository
	challenges repositories.ChallengeRepository
	ranker     ranking.Ranker
	bus        events.Bus
	logger     *zap.Logger
}

func NewCompletionService(
	users repositories.UserRepository,
	challenges repositories.ChallengeRepository,
	ranker ranking.Ranker,
	bus events.Bus,
	logger *zap.Logger,
) *CompletionService {
	return &CompletionService{
		users:      users,
		challenges: challenges,
		ranker:     ranker,
		bus:        bus,
		logger:     logger,
	}
}

// CompleteChallenge credits score points to userID for challengeID.
//
// The duplicate check and the score/list update happen in one conditional
// write, so two identical requests can never both be applied. The rank is
// 1 + the number of users with a strictly higher score at the time of the
// call and is stored on the acting user only. Steps that already succeeded
// are not rolled back if a later step fails.
func (s *CompletionService) CompleteChallenge(ctx context.Context, userID, challengeID string, score *int) (*models.User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" || score == nil {
		return nil, validation(msgCompletionFields)
	}
	if *score < 0 {
		return nil, validation(msgNegativeScore)
	}

	if _, err := s.users.GetByUserID(ctx, userID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, notFound(msgUserNotFound)
		}
		return nil, storeError("get user", err)
	}
	challenge, err := s.challenges.GetByID(ctx, challengeID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, notFound(msgChallengeNotFound)
		}
		return nil, storeError("get challenge", err)
	}

	user, err := s.users.RecordCompletion(ctx, userID, challengeID, *score)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrDuplicate):
			metrics.CompletionConflict()
			return nil, conflict(msgChallengeCompleted)
		case errors.Is(err, repositories.ErrNotFound):
			// deleted between the lookup and the write (seed reset)
			return nil, notFound(msgUserNotFound)
		default:
			return nil, storeError("record completion", err)
		}
	}

	if err := s.ranker.Record(ctx, user.UserID, user.Score); err != nil {
		return nil, storeError("record score in ranker", err)
	}
	rank, err := s.ranker.Rank(ctx, user.UserID, user.Score)
	if err != nil {
		return nil, storeError("compute rank", err)
	}
	if err := s.users.SetRank(ctx, user.UserID, rank); err != nil {
		return nil, storeError("save rank", err)
	}
	user.Rank = rank

	metrics.ChallengeCompleted(string(challenge.Difficulty))
	s.logger.Info("challenge completed",
		zap.String("userId", user.UserID),
		zap.String("challengeId", challengeID),
		zap.Int("points", *score),
		zap.Int("score", user.Score),
		zap.Int("rank", user.Rank))

	event := models.CompletionEvent{
		UserID:      user.UserID,
		ChallengeID: challengeID,
		Difficulty:  challenge.Difficulty,
		Points:      *score,
		Score:       user.Score,
		Rank:        user.Rank,
	}
	if s.bus != nil {
		if err := s.bus.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish completion event", zap.Error(err))
		}
	}
	return user, nil
}
