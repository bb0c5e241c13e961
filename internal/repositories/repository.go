package repositories

import (
	"context"
	"errors"

	"reactivate/api/internal/models"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write would break a uniqueness constraint,
	// including completing a challenge that is already in the user's list.
	ErrDuplicate = errors.New("duplicate record")
)

// UserRepository is the persistence contract for the users collection.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByUserID(ctx context.Context, userID string) (*models.User, error)
	// RecordCompletion adds points and appends challengeID in a single atomic
	// step, only when challengeID is not yet completed. It returns
	// ErrDuplicate when it already is and ErrNotFound when the user is gone.
	RecordCompletion(ctx context.Context, userID, challengeID string, points int) (*models.User, error)
	SetRank(ctx context.Context, userID string, rank int) error
	SetRanks(ctx context.Context, ranks map[string]int) error
	// CountScoreAbove counts users with a score strictly greater than score.
	CountScoreAbove(ctx context.Context, score int) (int64, error)
	// TopByScore returns users by score descending, ties by userId.
	// A limit <= 0 returns everyone.
	TopByScore(ctx context.Context, limit int) ([]models.User, error)
	Count(ctx context.Context) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// ChallengeRepository is the persistence contract for the challenges collection.
type ChallengeRepository interface {
	Create(ctx context.Context, challenge *models.Challenge) error
	GetByID(ctx context.Context, id string) (*models.Challenge, error)
	// List returns every challenge, or only those of one difficulty when
	// difficulty is non-empty.
	List(ctx context.Context, difficulty models.Difficulty) ([]models.Challenge, error)
	Count(ctx context.Context) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// Store bundles both collections behind one connection lifecycle.
type Store interface {
	Users() UserRepository
	Challenges() ChallengeRepository
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
