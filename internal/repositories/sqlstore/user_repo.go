package sqlstore

import (
	"context"
	"errors"

	"reactivate/api/internal/models"
	"reactivate/api/internal/repositories"

	"gorm.io/gorm"
)

type UserRepo struct {
	DB *gorm.DB
}

var _ repositories.UserRepository = (*UserRepo)(nil)

func (r *UserRepo) Create(ctx context.Context, user *models.User) error {
	row := &userRow{UserID: user.UserID, Score: user.Score, Rank: user.Rank}
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(row).Error; err != nil {
			return translate(err)
		}
		for _, id := range user.CompletedChallenges {
			if err := tx.Create(&completionRow{UserID: user.UserID, ChallengeID: id}).Error; err != nil {
				return translate(err)
			}
		}
		if user.CompletedChallenges == nil {
			user.CompletedChallenges = []string{}
		}
		return nil
	})
}

func (r *UserRepo) GetByUserID(ctx context.Context, userID string) (*models.User, error) {
	return r.load(r.DB.WithContext(ctx), userID)
}

// RecordCompletion inserts the completion row first; the unique index rejects
// a repeat before the score is touched.
func (r *UserRepo) RecordCompletion(ctx context.Context, userID, challengeID string, points int) (*models.User, error) {
	var out *models.User
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&userRow{}).Where("user_id = ?", userID).Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return repositories.ErrNotFound
		}

		if err := tx.Create(&completionRow{UserID: userID, ChallengeID: challengeID}).Error; err != nil {
			return translate(err)
		}
		res := tx.Model(&userRow{}).
			Where("user_id = ?", userID).
			Update("score", gorm.Expr("score + ?", points))
		if res.Error != nil {
			return res.Error
		}

		u, err := r.load(tx, userID)
		if err != nil {
			return err
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *UserRepo) SetRank(ctx context.Context, userID string, rank int) error {
	res := r.DB.WithContext(ctx).Model(&userRow{}).Where("user_id = ?", userID).Update("rank", rank)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *UserRepo) SetRanks(ctx context.Context, ranks map[string]int) error {
	if len(ranks) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for userID, rank := range ranks {
			if err := tx.Model(&userRow{}).Where("user_id = ?", userID).Update("rank", rank).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *UserRepo) CountScoreAbove(ctx context.Context, score int) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&userRow{}).Where("score > ?", score).Count(&n).Error
	return n, err
}

func (r *UserRepo) TopByScore(ctx context.Context, limit int) ([]models.User, error) {
	db := r.DB.WithContext(ctx)
	q := db.Order("score DESC").Order("user_id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []userRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []models.User{}, nil
	}

	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.UserID
	}
	completed, err := completionsFor(db, ids...)
	if err != nil {
		return nil, err
	}

	out := make([]models.User, len(rows))
	for i := range rows {
		out[i] = *rows[i].toModel(completed[rows[i].UserID])
	}
	return out, nil
}

func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&userRow{}).Count(&n).Error
	return n, err
}

// DeleteAll clears users and their completion rows, returning the user count.
func (r *UserRepo) DeleteAll(ctx context.Context) (int64, error) {
	var deleted int64
	err := r.DB.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&completionRow{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&userRow{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return nil
	})
	return deleted, err
}

func (r *UserRepo) load(db *gorm.DB, userID string) (*models.User, error) {
	var row userRow
	if err := db.Where("user_id = ?", userID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	completed, err := completionsFor(db, userID)
	if err != nil {
		return nil, err
	}
	return row.toModel(completed[userID]), nil
}

// completionsFor groups completed challenge ids per user in insertion order.
func completionsFor(db *gorm.DB, userIDs ...string) (map[string][]string, error) {
	var rows []completionRow
	if err := db.Where("user_id IN ?", userIDs).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string][]string, len(userIDs))
	for _, row := range rows {
		out[row.UserID] = append(out[row.UserID], row.ChallengeID)
	}
	return out, nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return repositories.ErrDuplicate
	}
	return err
}
