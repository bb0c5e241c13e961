package mongo

import (
	"context"
	"errors"

	"reactivate/api/internal/models"
	"reactivate/api/internal/repositories"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const usersCollection = "users"

// UserRepo wraps the users collection
type UserRepo struct{ col *mongo.Collection }

var _ repositories.UserRepository = (*UserRepo)(nil)

func NewUserRepo(db *mongo.Database) *UserRepo {
	return &UserRepo{col: db.Collection(usersCollection)}
}

// EnsureIndexes adds the unique userId index and the score index used by
// leaderboard sorting and rank counting.
func (r *UserRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "score", Value: -1}, {Key: "userId", Value: 1}},
		},
	})
	return err
}

// Create inserts a new user
func (r *UserRepo) Create(ctx context.Context, u *models.User) error {
	if u.CompletedChallenges == nil {
		// $push needs an array, never null
		u.CompletedChallenges = []string{}
	}
	if _, err := r.col.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repositories.ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *UserRepo) GetByUserID(ctx context.Context, userID string) (*models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, bson.M{"userId": userID}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// RecordCompletion matches the user only while challengeID is absent from the
// list, so the check and the append are one server-side operation.
func (r *UserRepo) RecordCompletion(ctx context.Context, userID, challengeID string, points int) (*models.User, error) {
	filter := bson.M{
		"userId":              userID,
		"completedChallenges": bson.M{"$ne": challengeID},
	}
	update := bson.M{
		"$inc":  bson.M{"score": points},
		"$push": bson.M{"completedChallenges": challengeID},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.User
	err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err == nil {
		return &updated, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	// nothing matched: either the user is gone or the challenge was already there
	n, err := r.col.CountDocuments(ctx, bson.M{"userId": userID})
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, repositories.ErrNotFound
	}
	return nil, repositories.ErrDuplicate
}

func (r *UserRepo) SetRank(ctx context.Context, userID string, rank int) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"userId": userID}, bson.M{"$set": bson.M{"rank": rank}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// SetRanks writes many ranks in one unordered bulk write.
func (r *UserRepo) SetRanks(ctx context.Context, ranks map[string]int) error {
	if len(ranks) == 0 {
		return nil
	}
	writes := make([]mongo.WriteModel, 0, len(ranks))
	for userID, rank := range ranks {
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"userId": userID}).
			SetUpdate(bson.M{"$set": bson.M{"rank": rank}}))
	}
	_, err := r.col.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	return err
}

func (r *UserRepo) CountScoreAbove(ctx context.Context, score int) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{"score": bson.M{"$gt": score}})
}

func (r *UserRepo) TopByScore(ctx context.Context, limit int) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "score", Value: -1}, {Key: "userId", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.User{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{})
}

func (r *UserRepo) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.col.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
