// Package bootstrap turns a loaded config into live store and redis
// connections for the server and seed commands.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"reactivate/api/internal/config"
	"reactivate/api/internal/repositories"
	"reactivate/api/internal/repositories/mongo"
	"reactivate/api/internal/repositories/sqlstore"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisPingTimeout = 5 * time.Second

var (
	connectMongo = func(ctx context.Context, uri, database string) (repositories.Store, error) {
		return mongo.NewClient(ctx, uri, database)
	}
	openSQL = func(driver, dsn string) (repositories.Store, error) {
		return sqlstore.Open(driver, dsn)
	}
)

// OpenStore connects to the backend named by cfg.StoreDriver.
func OpenStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repositories.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		store, err := connectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		logger.Info("connected to mongo", zap.String("database", cfg.MongoDatabase))
		return store, nil
	case config.DriverPostgres, config.DriverSQLite:
		store, err := openSQL(cfg.StoreDriver, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		logger.Info("connected to sql store", zap.String("driver", cfg.StoreDriver))
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}

// ConnectRedis returns nil when redis is not configured.
func ConnectRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	if !cfg.RedisEnabled() {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.RedisAddr, err)
	}
	return rdb, nil
}
