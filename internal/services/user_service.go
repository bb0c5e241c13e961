package services

import (
	"context"
	"errors"
	"strings"

	"reactivate/api/internal/metrics"
	"reactivate/api/internal/models"
	"reactivate/api/internal/ranking"
	"reactivate/api/internal/repositories"

	"go.uber.org/zap"
)

type UserService struct {
	users  repositories.UserRepository
	ranker ranking.Ranker
	logger *zap.Logger
}

func NewUserService(users repositories.UserRepository, ranker ranking.Ranker, logger *zap.Logger) *UserService {
	return &UserService{users: users, ranker: ranker, logger: logger}
}

// CreateUser registers userID with a zero score, zero rank and no completions.
func (s *UserService) CreateUser(ctx context.Context, userID string) (*models.User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, validation(msgUserIDRequired)
	}
	if len(userID) > models.MaxUserIDLength {
		return nil, validation(msgUserIDTooLong)
	}

	user := &models.User{UserID: userID, CompletedChallenges: []string{}}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, conflict(msgUserExists)
		}
		return nil, storeError("create user", err)
	}
	metrics.UserCreated()

	// keep the sorted set in step with the store
	if err := s.ranker.Record(ctx, user.UserID, user.Score); err != nil {
		s.logger.Warn("failed to record new user in ranker",
			zap.String("userId", user.UserID), zap.String("ranker", s.ranker.Name()), zap.Error(err))
	}

	s.logger.Info("user created", zap.String("userId", user.UserID))
	return user, nil
}

// GetUser looks userID up with the same trimming CreateUser applies.
func (s *UserService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetByUserID(ctx, strings.TrimSpace(userID))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, notFound(msgUserNotFound)
		}
		return nil, storeError("get user", err)
	}
	return user, nil
}
