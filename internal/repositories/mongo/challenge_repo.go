package mongo

import (
	"context"
	"errors"

	"reactivate/api/internal/models"
	"reactivate/api/internal/repositories"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const challengesCollection = "challenges"

// ChallengeRepo wraps the challenges collection. The challenge id is the _id.
type ChallengeRepo struct{ col *mongo.Collection }

var _ repositories.ChallengeRepository = (*ChallengeRepo)(nil)

func NewChallengeRepo(db *mongo.Database) *ChallengeRepo {
	return &ChallengeRepo{col: db.Collection(challengesCollection)}
}

func (r *ChallengeRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "difficulty", Value: 1}},
	})
	return err
}

func (r *ChallengeRepo) Create(ctx context.Context, c *models.Challenge) error {
	if c.TestCases == nil {
		c.TestCases = []models.TestCase{}
	}
	if _, err := r.col.InsertOne(ctx, c); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repositories.ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *ChallengeRepo) GetByID(ctx context.Context, id string) (*models.Challenge, error) {
	var c models.Challenge
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *ChallengeRepo) List(ctx context.Context, difficulty models.Difficulty) ([]models.Challenge, error) {
	filter := bson.M{}
	if difficulty != "" {
		filter["difficulty"] = difficulty
	}
	cur, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Challenge{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ChallengeRepo) Count(ctx context.Context) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{})
}

func (r *ChallengeRepo) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.col.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
