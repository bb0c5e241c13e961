package sqlstore

import (
	"context"
	"errors"

	"reactivate/api/internal/models"
	"reactivate/api/internal/repositories"

	"gorm.io/gorm"
)

type ChallengeRepo struct {
	DB *gorm.DB
}

var _ repositories.ChallengeRepository = (*ChallengeRepo)(nil)

func (r *ChallengeRepo) Create(ctx context.Context, challenge *models.Challenge) error {
	if err := r.DB.WithContext(ctx).Create(challengeRowFrom(challenge)).Error; err != nil {
		return translate(err)
	}
	if challenge.TestCases == nil {
		challenge.TestCases = []models.TestCase{}
	}
	return nil
}

func (r *ChallengeRepo) GetByID(ctx context.Context, id string) (*models.Challenge, error) {
	var row challengeRow
	if err := r.DB.WithContext(ctx).Where("challenge_id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	c := row.toModel()
	return &c, nil
}

// List keeps insertion order.
func (r *ChallengeRepo) List(ctx context.Context, difficulty models.Difficulty) ([]models.Challenge, error) {
	q := r.DB.WithContext(ctx).Order("seq ASC")
	if difficulty != "" {
		q = q.Where("difficulty = ?", string(difficulty))
	}
	var rows []challengeRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.Challenge, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toModel())
	}
	return out, nil
}

func (r *ChallengeRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&challengeRow{}).Count(&n).Error
	return n, err
}

func (r *ChallengeRepo) DeleteAll(ctx context.Context) (int64, error) {
	res := r.DB.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&challengeRow{})
	return res.RowsAffected, res.Error
}
