package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/Murdock022X/BankingWebsite/internal/app"
	"github.com/Murdock022X/BankingWebsite/internal/config"
	"github.com/Murdock022X/BankingWebsite/internal/database"
	httpserver "github.com/Murdock022X/BankingWebsite/internal/http"
	"github.com/Murdock022X/BankingWebsite/internal/jobs"
	"github.com/Murdock022X/BankingWebsite/internal/logger"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	ctx := context.Background()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
	defer a.Close()

	if err := database.Migrate(a.DB); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	if cfg.EnableScheduler {
		c := cron.New()
		j := jobs.New(a.DB, a.Cycle, log.With().Str("component", "jobs").Logger())
		if err := j.Register(c, cfg.DailySchedule, cfg.TermSchedule); err != nil {
			log.Fatal().Err(err).Msg("scheduler setup failed")
		}
		c.Start()
		defer c.Stop()
	}

	r, err := httpserver.NewServer(cfg, httpserver.Deps{
		DB:         a.DB,
		Ledger:     a.Ledger,
		Cycle:      a.Cycle,
		Statements: a.Store,
		History:    a.HistoryCache(cfg, log),
		Log:        log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("server setup failed")
	}

	log.Info().Str("port", cfg.Port).Msg("listening")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
