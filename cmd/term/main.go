// Command term runs one term cycle and exits. It is meant for an external
// scheduler; the server can run the same job itself with ENABLE_SCHEDULER.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Murdock022X/BankingWebsite/internal/app"
	"github.com/Murdock022X/BankingWebsite/internal/config"
	"github.com/Murdock022X/BankingWebsite/internal/jobs"
	"github.com/Murdock022X/BankingWebsite/internal/logger"
	"github.com/Murdock022X/BankingWebsite/internal/term"
)

func main() {
	daily := flag.Bool("daily", false, "run the daily balance snapshot instead of the term cycle")
	flag.Parse()

	_ = godotenv.Load(".env")
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
	defer a.Close()

	if *daily {
		if _, err := jobs.New(a.DB, a.Cycle, log).Daily(ctx); err != nil {
			log.Error().Err(err).Msg("daily snapshot failed")
			os.Exit(1)
		}
		return
	}

	rep, err := a.Cycle.Run(ctx)
	if errors.Is(err, term.ErrLocked) {
		log.Warn().Msg("term cycle already running elsewhere")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("term cycle failed")
		os.Exit(1)
	}
	log.Info().Uint("term", rep.Term).Uint("next_term", rep.NextTerm).Msg("done")
}
