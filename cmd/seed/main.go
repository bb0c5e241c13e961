// Command seed resets the store to the bundled sample challenges and users,
// or with -check only reports whether the store is reachable.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"reactivate/api/internal/bootstrap"
	"reactivate/api/internal/config"
	"reactivate/api/internal/ranking"
	"reactivate/api/internal/repositories"
	"reactivate/api/internal/seed"
	"reactivate/api/internal/utils"

	"go.uber.org/zap"
)

var (
	loadConfig   = config.LoadConfig
	newLogger    = utils.NewLogger
	openStore    = bootstrap.OpenStore
	connectRedis = bootstrap.ConnectRedis
)

type options struct {
	check  bool
	rerank bool
}

func parseFlags(args []string, output io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.BoolVar(&opts.check, "check", false, "only test the connection and print document counts")
	fs.BoolVar(&opts.rerank, "rerank", false, "recompute stored ranks from scores after loading")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	return opts, nil
}

func run(args []string, out io.Writer) error {
	opts, err := parseFlags(args, out)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger, err := newLogger(cfg.Debug)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close(context.Background())

	seeder := seed.NewSeeder(store, logger)
	if opts.check {
		counts, err := seeder.Check(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "connection ok: %d users, %d challenges\n", counts.Users, counts.Challenges)
		return nil
	}

	data, err := seed.Load()
	if err != nil {
		return err
	}
	res, err := seeder.Reset(ctx, data)
	if err != nil {
		return err
	}
	logger.Info("seed reset complete",
		zap.Int64("deletedUsers", res.DeletedUsers),
		zap.Int64("deletedChallenges", res.DeletedChallenges),
		zap.Int64("users", res.Created.Users),
		zap.Int64("challenges", res.Created.Challenges))
	fmt.Fprintf(out, "cleared %d users and %d challenges\n", res.DeletedUsers, res.DeletedChallenges)
	fmt.Fprintf(out, "created %d users and %d challenges\n", res.Created.Users, res.Created.Challenges)

	if opts.rerank {
		n, err := ranking.RecomputeAll(ctx, store.Users())
		if err != nil {
			return fmt.Errorf("failed to recompute ranks: %w", err)
		}
		fmt.Fprintf(out, "recomputed ranks for %d users\n", n)
	}

	if cfg.RankBackend == config.RankBackendRedis {
		if err := rebuildRankIndex(ctx, cfg, store.Users(), logger); err != nil {
			return err
		}
		fmt.Fprintln(out, "rebuilt redis rank index")
	}
	return nil
}

// rebuildRankIndex replaces the redis sorted set so users removed by the
// reset no longer count towards anyone's rank.
func rebuildRankIndex(ctx context.Context, cfg *config.Config, users repositories.UserRepository, logger *zap.Logger) error {
	rdb, err := connectRedis(ctx, cfg)
	if err != nil {
		return err
	}
	if rdb == nil {
		return errors.New("redis rank backend needs REDIS_ADDR")
	}
	defer rdb.Close()

	all, err := users.TopByScore(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to load users for rank index: %w", err)
	}
	if err := ranking.NewRedisRanker(rdb, ranking.DefaultScoresKey).Rebuild(ctx, all); err != nil {
		return fmt.Errorf("failed to rebuild rank index: %w", err)
	}
	logger.Info("rebuilt redis rank index", zap.Int("users", len(all)))
	return nil
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatal(err)
	}
}
