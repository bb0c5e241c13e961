package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"reactivate/api/internal/metrics"
	"reactivate/api/internal/ranking"
	"reactivate/api/internal/repositories"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// RankRefreshConfig controls the periodic rank rebuild.
type RankRefreshConfig struct {
	Enabled  bool
	Schedule string        // cron spec or descriptor, e.g. "@every 5m"
	Timeout  time.Duration // per run; zero means one minute
}

// RankRefreshJob rewrites every user's stored rank so leaderboard ranks
// catch up with scores changed by other users. When a Redis ranker is
// configured its sorted set is rebuilt in the same run.
type RankRefreshJob struct {
	users  repositories.UserRepository
	redis  *ranking.RedisRanker
	config RankRefreshConfig
	logger *zap.Logger
	cron   *cron.Cron

	mu      sync.Mutex
	running bool
}

func NewRankRefreshJob(users repositories.UserRepository, redis *ranking.RedisRanker, config RankRefreshConfig, logger *zap.Logger) *RankRefreshJob {
	if config.Timeout <= 0 {
		config.Timeout = time.Minute
	}
	return &RankRefreshJob{
		users:  users,
		redis:  redis,
		config: config,
		logger: logger,
		cron:   cron.New(),
	}
}

// Start schedules the job. It is a no-op when disabled.
func (j *RankRefreshJob) Start() error {
	if !j.config.Enabled {
		j.logger.Info("rank refresh disabled, skipping scheduler")
		return nil
	}

	_, err := j.cron.AddFunc(j.config.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), j.config.Timeout)
		defer cancel()
		if _, err := j.Run(ctx); err != nil {
			j.logger.Error("rank refresh failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule rank refresh: %w", err)
	}

	j.cron.Start()
	j.logger.Info("rank refresh scheduled", zap.String("schedule", j.config.Schedule))
	return nil
}

// Stop waits for a running refresh to finish.
func (j *RankRefreshJob) Stop() {
	if j.cron != nil {
		<-j.cron.Stop().Done()
		j.logger.Info("rank refresh stopped")
	}
}

// Run performs one refresh and returns the number of users ranked. Overlapping
// runs are skipped.
func (j *RankRefreshJob) Run(ctx context.Context) (int, error) {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		metrics.RankRefreshRun("skipped")
		return 0, nil
	}
	j.running = true
	j.mu.Unlock()
	defer func() {
		j.mu.Lock()
		j.running = false
		j.mu.Unlock()
	}()

	runID := uuid.NewString()
	start := time.Now()
	log := j.logger.With(zap.String("runId", runID))

	n, err := ranking.RecomputeAll(ctx, j.users)
	if err != nil {
		metrics.RankRefreshRun("error")
		return 0, err
	}

	// a completion that lands between the snapshot and the rebuild keeps its
	// stale score in the sorted set until the next run
	if j.redis != nil {
		all, err := j.users.TopByScore(ctx, 0)
		if err != nil {
			metrics.RankRefreshRun("error")
			return n, fmt.Errorf("load users for redis rebuild: %w", err)
		}
		if err := j.redis.Rebuild(ctx, all); err != nil {
			metrics.RankRefreshRun("error")
			return n, err
		}
	}

	metrics.RankRefreshRun("ok")
	log.Info("rank refresh complete", zap.Int("users", n), zap.Duration("took", time.Since(start)))
	return n, nil
}
