package sqlstore

import (
	"time"

	"reactivate/api/internal/models"
)

// userRow keeps Seq as the surrogate key so user_id stays a plain unique column.
type userRow struct {
	Seq       uint   `gorm:"primaryKey;autoIncrement"`
	UserID    string `gorm:"size:100;not null;uniqueIndex"`
	Score     int    `gorm:"not null;default:0;index:idx_users_score,sort:desc"`
	Rank      int    `gorm:"not null;default:0"`
	CreatedAt time.Time
}

func (userRow) TableName() string { return "users" }

// completionRow is one entry of a user's completed list. The composite unique
// index is what makes a second completion of the same challenge fail.
type completionRow struct {
	ID          uint   `gorm:"primaryKey"`
	UserID      string `gorm:"size:100;not null;uniqueIndex:idx_user_challenge"`
	ChallengeID string `gorm:"size:100;not null;uniqueIndex:idx_user_challenge"`
	CreatedAt   time.Time
}

func (completionRow) TableName() string { return "user_completions" }

type challengeRow struct {
	Seq         uint              `gorm:"primaryKey;autoIncrement"`
	ChallengeID string            `gorm:"size:100;not null;uniqueIndex"`
	Title       string            `gorm:"size:200;not null"`
	Description string            `gorm:"type:text;not null"`
	Difficulty  string            `gorm:"size:10;not null;index"`
	StarterCode string            `gorm:"type:text;not null"`
	TestCases   []models.TestCase `gorm:"type:text;serializer:json"`
}

func (challengeRow) TableName() string { return "challenges" }

func (r *userRow) toModel(completed []string) *models.User {
	if completed == nil {
		completed = []string{}
	}
	return &models.User{
		UserID:              r.UserID,
		Score:               r.Score,
		Rank:                r.Rank,
		CompletedChallenges: completed,
	}
}

func challengeRowFrom(c *models.Challenge) *challengeRow {
	tcs := c.TestCases
	if tcs == nil {
		tcs = []models.TestCase{}
	}
	return &challengeRow{
		ChallengeID: c.ID,
		Title:       c.Title,
		Description: c.Description,
		Difficulty:  string(c.Difficulty),
		StarterCode: c.StarterCode,
		TestCases:   tcs,
	}
}

func (r *challengeRow) toModel() models.Challenge {
	tcs := r.TestCases
	if tcs == nil {
		tcs = []models.TestCase{}
	}
	return models.Challenge{
		ID:          r.ChallengeID,
		Title:       r.Title,
		Description: r.Description,
		Difficulty:  models.Difficulty(r.Difficulty),
		StarterCode: r.StarterCode,
		TestCases:   tcs,
	}
}
