// Command setup migrates the schema and seeds the bank settings, the term
// counter and the admin user. It is safe to run repeatedly.
package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/Murdock022X/BankingWebsite/internal/config"
	"github.com/Murdock022X/BankingWebsite/internal/database"
	"github.com/Murdock022X/BankingWebsite/internal/logger"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Connect(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("connect failed")
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	if err := database.Seed(db, cfg); err != nil {
		log.Error().Err(err).Msg("seed failed")
		os.Exit(1)
	}
	if cfg.AdminPassword == "" {
		log.Warn().Msg("ADMIN_PASSWORD unset, admin user not created")
	}
	log.Info().Msg("database ready")
}
