package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reactivate/api/internal/bootstrap"
	"reactivate/api/internal/config"
	"reactivate/api/internal/events"
	"reactivate/api/internal/handlers"
	"reactivate/api/internal/jobs"
	"reactivate/api/internal/metrics"
	"reactivate/api/internal/ranking"
	"reactivate/api/internal/repositories"
	"reactivate/api/internal/routers"
	"reactivate/api/internal/services"
	"reactivate/api/internal/stream"
	"reactivate/api/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

var (
	loadConfig     = config.LoadConfig
	newLogger      = utils.NewLogger
	openStore      = bootstrap.OpenStore
	connectRedis   = bootstrap.ConnectRedis
	listenAndServe = func(server *http.Server) error { return server.ListenAndServe() }
	shutdownSignal = func() <-chan os.Signal {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		return ch
	}
)

// app holds everything the server owns between startup and shutdown.
type app struct {
	router  http.Handler
	store   repositories.Store
	rdb     *redis.Client
	bus     events.Bus
	hub     *stream.Hub
	rankJob *jobs.RankRefreshJob
	logger  *zap.Logger
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	rdb, err := connectRedis(ctx, cfg)
	if err != nil {
		_ = store.Close(ctx)
		return nil, err
	}
	a := &app{store: store, rdb: rdb, logger: logger}

	var ranker ranking.Ranker = ranking.NewStoreRanker(store.Users())
	var redisRanker *ranking.RedisRanker
	if cfg.RankBackend == config.RankBackendRedis {
		if rdb == nil {
			a.close(ctx)
			return nil, errors.New("redis rank backend needs REDIS_ADDR")
		}
		redisRanker = ranking.NewRedisRanker(rdb, ranking.DefaultScoresKey)
		if err := rebuildRanks(ctx, store.Users(), redisRanker); err != nil {
			a.close(ctx)
			return nil, err
		}
		ranker = redisRanker
	}
	logger.Info("rank backend selected", zap.String("backend", ranker.Name()))

	if rdb != nil {
		a.bus = events.NewRedisBus(rdb, logger)
	} else {
		a.bus = events.NewLocalBus(logger)
	}

	userService := services.NewUserService(store.Users(), ranker, logger)
	challengeService := services.NewChallengeService(store.Challenges())
	completionService := services.NewCompletionService(store.Users(), store.Challenges(), ranker, a.bus, logger)
	leaderboardService := services.NewLeaderboardService(store.Users(), cfg.LiveLeaderboardRank)

	a.hub = stream.NewHub(leaderboardService, logger)
	a.rankJob = jobs.NewRankRefreshJob(store.Users(), redisRanker, jobs.RankRefreshConfig{
		Enabled:  cfg.RankRefreshEnabled,
		Schedule: cfg.RankRefreshSchedule,
	}, logger)

	var redisPing handlers.Pinger
	if rdb != nil {
		redisPing = handlers.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}

	a.router = newRouter(cfg,
		handlers.NewUserHandler(userService, logger),
		handlers.NewChallengeHandler(challengeService, completionService, logger),
		handlers.NewLeaderboardHandler(leaderboardService, logger),
		handlers.NewHealthHandler(store, redisPing, uuid.New().String()),
		a.hub,
	)
	return a, nil
}

func rebuildRanks(ctx context.Context, users repositories.UserRepository, r *ranking.RedisRanker) error {
	all, err := users.TopByScore(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to load users for rank index: %w", err)
	}
	if err := r.Rebuild(ctx, all); err != nil {
		return fmt.Errorf("failed to rebuild rank index: %w", err)
	}
	return nil
}

func newRouter(
	cfg *config.Config,
	userHandler *handlers.UserHandler,
	challengeHandler *handlers.ChallengeHandler,
	leaderboardHandler *handlers.LeaderboardHandler,
	healthHandler *handlers.HealthHandler,
	hub *stream.Hub,
) *chi.Mux {
	router := chi.NewRouter()

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	router.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer, metrics.Middleware)

	// the websocket outlives any request timeout
	routers.StreamRoutes(router, hub)

	router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		routers.HealthRoutes(r, healthHandler)
		routers.MetricsRoutes(r)
		routers.UserRoutes(r, userHandler)
		routers.ChallengeRoutes(r, challengeHandler)
		routers.LeaderboardRoutes(r, leaderboardHandler)
	})
	return router
}

// start launches the background consumers. They stop when ctx is done.
func (a *app) start(ctx context.Context) error {
	go func() {
		if err := a.hub.Run(ctx, a.bus); err != nil {
			a.logger.Error("leaderboard stream stopped", zap.Error(err))
		}
	}()
	if err := a.rankJob.Start(); err != nil {
		return fmt.Errorf("failed to start rank refresh job: %w", err)
	}
	return nil
}

func (a *app) close(ctx context.Context) {
	if a.rankJob != nil {
		a.rankJob.Stop()
	}
	if a.hub != nil {
		a.hub.Close()
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
	if err := a.store.Close(ctx); err != nil {
		a.logger.Warn("failed to close store", zap.Error(err))
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger, err := newLogger(cfg.Debug)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	if err := a.start(ctx); err != nil {
		return err
	}

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      a.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Reactivate API starting", zap.String("addr", server.Addr), zap.String("store", cfg.StoreDriver))
		if err := listenAndServe(server); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("failed to start server: %w", err)
	case sig := <-shutdownSignal():
		logger.Info("Reactivate API shutting down", zap.String("signal", sig.String()))
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Reactivate API exited")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
