package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/famolydrive/drivequiz/internal/budget"
	"github.com/famolydrive/drivequiz/internal/config"
	"github.com/famolydrive/drivequiz/internal/database"
	"github.com/famolydrive/drivequiz/internal/handler/health"
	"github.com/famolydrive/drivequiz/internal/ledger"
	"github.com/famolydrive/drivequiz/internal/migrations"
	"github.com/famolydrive/drivequiz/internal/openai"
	"github.com/famolydrive/drivequiz/internal/quiz"
	"github.com/famolydrive/drivequiz/internal/server"
	"github.com/famolydrive/drivequiz/internal/store"
	"github.com/famolydrive/drivequiz/internal/trip"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- SQLite ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	applied, err := migrations.Run(ctx, db)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	version, err := migrations.Version(ctx, db)
	if err != nil {
		return err
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath, "schema_version", version, "applied", applied)

	checks := map[string]health.Checker{"sqlite": dbChecker{db}}

	// --- Redis (optional) ---
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()
		checks["redis"] = health.Optional(redisChecker{rdb})
		logger.Info("connected to redis")
	}

	// --- Quiz composition ---
	qcfg := quiz.Config{Timeout: cfg.ProviderTimeout, Logger: logger}
	if cfg.Generative() {
		qcfg.Generator = openai.New(cfg.OpenAIAPIKey, openai.Options{
			Model:       cfg.OpenAIModel,
			MaxTokens:   cfg.OpenAIMaxTokens,
			Temperature: cfg.OpenAITemperature,
		})
		qcfg.Budget = budget.NewDaily(rdb, cfg.OpenAIDailyTokenBudget, logger)
		logger.Info("generative quizzes enabled", "model", cfg.OpenAIModel, "daily_token_budget", cfg.OpenAIDailyTokenBudget)
	}
	composer := quiz.New(qcfg)

	// --- Route search ---
	planner, err := trip.NewFromConfig(cfg, logger)
	if err != nil {
		return err
	}

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, server.Deps{
		Store:    store.NewSQLiteStore(db),
		Ledger:   ledger.New(db),
		Planner:  planner,
		Composer: composer,
		Broker:   server.NewBroker(),
		Checks:   checks,
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}

// dbChecker adapts *sql.DB to health.Checker.
type dbChecker struct{ db *sql.DB }

func (d dbChecker) Check(ctx context.Context) error { return d.db.PingContext(ctx) }

// redisChecker adapts *redis.Client to health.Checker.
type redisChecker struct{ client *redis.Client }

func (r redisChecker) Check(ctx context.Context) error { return r.client.Ping(ctx).Err() }
