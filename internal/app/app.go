// Package app wires the services shared by the server and the batch
// commands.
package app

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
	"gorm.io/gorm"

	"github.com/Murdock022X/BankingWebsite/internal/config"
	"github.com/Murdock022X/BankingWebsite/internal/database"
	"github.com/Murdock022X/BankingWebsite/internal/ledger"
	"github.com/Murdock022X/BankingWebsite/internal/redis"
	"github.com/Murdock022X/BankingWebsite/internal/statement"
	"github.com/Murdock022X/BankingWebsite/internal/term"
)

type App struct {
	DB         *gorm.DB
	Ledger     *ledger.Ledger
	Store      statement.Store
	Statements *statement.Maker
	Cycle      *term.Cycle
	Redis      *redis.Client // nil when REDIS_ADDR is unset

	closers []func() error
}

// New connects to postgres, and to redis and GCS when configured.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	db, err := database.Connect(cfg, log)
	if err != nil {
		return nil, err
	}
	a := &App{DB: db}

	runner := database.NewRunner(db, cfg.TxOptions(), cfg.DBMaxRetries)
	a.Ledger = ledger.New(runner, log.With().Str("component", "ledger").Logger(),
		ledger.WithClosingDebit(cfg.RecordClosingDebit))

	store, err := a.statementStore(ctx, cfg, log)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Store = store
	a.Statements = statement.NewMaker(runner, store, statement.Renderer{Author: "Murdock Banking"},
		log.With().Str("component", "statements").Logger())

	var locker term.Locker
	if cfg.RedisAddr != "" {
		client, err := redis.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.Redis = client
		a.closers = append(a.closers, client.Close)
		locker = redis.NewLocker(client.Client)
		log.Info().Str("addr", cfg.RedisAddr).Msg("connected to redis")
	}
	a.Cycle = term.NewCycle(a.Ledger, a.Statements, locker, cfg.TermLockTTL,
		log.With().Str("component", "term").Logger())

	return a, nil
}

func (a *App) statementStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (statement.Store, error) {
	if cfg.StatementBucket == "" {
		log.Info().Str("dir", cfg.StatementDir).Msg("statements stored on local disk")
		return statement.LocalStore{Root: cfg.StatementDir}, nil
	}

	var opts []option.ClientOption
	if cfg.GCSCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.GCSCredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	a.closers = append(a.closers, client.Close)
	log.Info().Str("bucket", cfg.StatementBucket).Msg("statements stored in GCS")
	return statement.NewGCSStore(client, cfg.StatementBucket), nil
}

// HistoryCache returns nil without redis; a nil cache always misses.
func (a *App) HistoryCache(cfg *config.Config, log zerolog.Logger) *redis.ViewCache[ledger.History] {
	if a.Redis == nil {
		return nil
	}
	return redis.NewViewCache[ledger.History](a.Redis.Client, cfg.HistoryCacheTTL, log)
}

func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
