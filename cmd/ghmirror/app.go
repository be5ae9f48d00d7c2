// cmd/ghmirror/app.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github-repo-mirror/internal/config"
	"github-repo-mirror/internal/github"
	"github-repo-mirror/internal/query"
	"github-repo-mirror/internal/store"
	"github-repo-mirror/internal/syncer"
)

// app bundles the wired-up dependencies for a single command invocation.
// The pool is opened once here and injected everywhere, never re-opened per
// call.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	pool    *pgxpool.Pool
	store   *store.Postgres
	syncer  *syncer.Syncer
	queries *query.Engine
}

// newApp loads configuration, connects to the database, applies migrations
// and constructs the application components. Close must be called on every
// exit path.
func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logLevel := new(slog.LevelVar)
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	setLogLevel(cfg.LogLevel, logLevel)
	if verbose, _ := cmd.InheritedFlags().GetBool("verbose"); verbose {
		logLevel.Set(slog.LevelDebug)
	}

	pool, err := pgxpool.New(ctx, cfg.DBURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := store.RunMigrations(cfg.DBURL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	st := store.NewPostgres(pool, logger)
	ghClient := github.NewClient(cfg.GithubToken, logger)

	return &app{
		cfg:     cfg,
		logger:  logger,
		pool:    pool,
		store:   st,
		syncer:  syncer.NewSyncer(st, ghClient, logger),
		queries: query.NewEngine(st, logger),
	}, nil
}

func (a *app) Close() {
	a.pool.Close()
}

func setLogLevel(level string, v *slog.LevelVar) {
	switch level {
	case "debug":
		v.Set(slog.LevelDebug)
	case "warn":
		v.Set(slog.LevelWarn)
	case "error":
		v.Set(slog.LevelError)
	default:
		v.Set(slog.LevelInfo)
	}
}
