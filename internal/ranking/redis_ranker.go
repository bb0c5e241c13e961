package ranking

import (
	"context"
	"fmt"
	"strconv"

	"reactivate/api/internal/models"

	"github.com/redis/go-redis/v9"
)

const DefaultScoresKey = "reactivate:leaderboard:scores"

// RedisRanker mirrors user scores in a sorted set so a rank is a single ZCOUNT.
type RedisRanker struct {
	rdb *redis.Client
	key string
}

func NewRedisRanker(rdb *redis.Client, key string) *RedisRanker {
	if key == "" {
		key = DefaultScoresKey
	}
	return &RedisRanker{rdb: rdb, key: key}
}

func (r *RedisRanker) Name() string { return "redis" }

func (r *RedisRanker) Record(ctx context.Context, userID string, score int) error {
	return r.rdb.ZAdd(ctx, r.key, redis.Z{Score: float64(score), Member: userID}).Err()
}

func (r *RedisRanker) Rank(ctx context.Context, _ string, score int) (int, error) {
	// "(" makes the lower bound exclusive: strictly greater scores only
	above, err := r.rdb.ZCount(ctx, r.key, "("+strconv.Itoa(score), "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("zcount %s: %w", r.key, err)
	}
	return int(above) + 1, nil
}

// Rebuild replaces the sorted set with the given users in one MULTI/EXEC.
func (r *RedisRanker) Rebuild(ctx context.Context, users []models.User) error {
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.key)
		if len(users) == 0 {
			return nil
		}
		members := make([]redis.Z, len(users))
		for i, u := range users {
			members[i] = redis.Z{Score: float64(u.Score), Member: u.UserID}
		}
		pipe.ZAdd(ctx, r.key, members...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("rebuild %s: %w", r.key, err)
	}
	return nil
}

// Size is the number of users in the sorted set.
func (r *RedisRanker) Size(ctx context.Context) (int64, error) {
	return r.rdb.ZCard(ctx, r.key).Result()
}
