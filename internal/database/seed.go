package database

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Murdock022X/BankingWebsite/internal/config"
	"github.com/Murdock022X/BankingWebsite/internal/models"
)

// Seed creates the singleton rows and the admin user. Existing rows are
// left untouched so running it twice is harmless.
func Seed(db *gorm.DB, cfg *config.Config) error {
	settings, err := defaultSettings(cfg)
	if err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(models.BankSettings{ID: 1}).FirstOrCreate(&settings).Error; err != nil {
			return fmt.Errorf("seed bank settings: %w", err)
		}

		term := models.CurrTerm{ID: 1, Term: 0}
		if err := tx.Where(models.CurrTerm{ID: 1}).FirstOrCreate(&term).Error; err != nil {
			return fmt.Errorf("seed current term: %w", err)
		}

		if cfg.AdminPassword == "" {
			return nil
		}
		var admin models.User
		err := tx.Where("username = ?", cfg.AdminUsername).First(&admin).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("lookup admin: %w", err)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash admin password: %w", err)
		}
		admin = models.User{
			Username: cfg.AdminUsername,
			Password: string(hash),
			Name:     cfg.AdminName,
			IsAdmin:  true,
		}
		if err := tx.Create(&admin).Error; err != nil {
			return fmt.Errorf("create admin: %w", err)
		}
		return nil
	})
}

func defaultSettings(cfg *config.Config) (models.BankSettings, error) {
	values := map[string]string{
		"SAVINGS_APY":   cfg.SavingsAPY,
		"SAVINGS_MIN":   cfg.SavingsMin,
		"CHECKINGS_APY": cfg.CheckingsAPY,
		"CHECKINGS_MIN": cfg.CheckingsMin,
	}
	parsed := make(map[string]decimal.Decimal, len(values))
	for key, raw := range values {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return models.BankSettings{}, fmt.Errorf("%s: %w", key, err)
		}
		parsed[key] = d
	}
	return models.BankSettings{
		ID:           1,
		SavingsAPY:   parsed["SAVINGS_APY"],
		SavingsMin:   parsed["SAVINGS_MIN"],
		CheckingsAPY: parsed["CHECKINGS_APY"],
		CheckingsMin: parsed["CHECKINGS_MIN"],
	}, nil
}
