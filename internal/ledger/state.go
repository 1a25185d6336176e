package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Murdock022X/BankingWebsite/internal/models"
)

// CurrentTerm reads the active term. Callers pass it explicitly into the
// operations that stamp transactions.
func (l *Ledger) CurrentTerm(ctx context.Context) (uint, error) {
	return currentTerm(l.runner.DB().WithContext(ctx))
}

func currentTerm(db *gorm.DB) (uint, error) {
	var ct models.CurrTerm
	if err := db.First(&ct, 1).Error; err != nil {
		return 0, fmt.Errorf("load current term: %w", err)
	}
	return ct.Term, nil
}

func (l *Ledger) Settings(ctx context.Context) (models.BankSettings, error) {
	return loadSettings(l.runner.DB().WithContext(ctx))
}

func loadSettings(db *gorm.DB) (models.BankSettings, error) {
	var s models.BankSettings
	if err := db.First(&s, 1).Error; err != nil {
		return s, fmt.Errorf("load bank settings: %w", err)
	}
	return s, nil
}

// SettingsChange is a partial update; nil fields are left as they are.
type SettingsChange struct {
	SavingsAPY   *decimal.Decimal
	CheckingsAPY *decimal.Decimal
	SavingsMin   *decimal.Decimal
	CheckingsMin *decimal.Decimal
}

func (c SettingsChange) validate() error {
	for name, v := range map[string]*decimal.Decimal{
		"savings_apy":   c.SavingsAPY,
		"checkings_apy": c.CheckingsAPY,
		"savings_min":   c.SavingsMin,
		"checkings_min": c.CheckingsMin,
	} {
		if v != nil && v.IsNegative() {
			return validationf("%s must not be negative", name)
		}
	}
	for name, v := range map[string]*decimal.Decimal{
		"savings_min":   c.SavingsMin,
		"checkings_min": c.CheckingsMin,
	} {
		if v != nil && !v.Equal(v.Round(2)) {
			return validationf("%s must have at most two decimal places", name)
		}
	}
	return nil
}

// UpdateSettings applies change. Existing accounts keep the APY and minimum
// they were opened with.
func (l *Ledger) UpdateSettings(ctx context.Context, change SettingsChange) (models.BankSettings, error) {
	if err := change.validate(); err != nil {
		return models.BankSettings{}, err
	}

	var out models.BankSettings
	err := l.runner.Run(ctx, func(tx *gorm.DB) error {
		var s models.BankSettings
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&s, 1).Error; err != nil {
			return fmt.Errorf("load bank settings: %w", err)
		}
		if change.SavingsAPY != nil {
			s.SavingsAPY = *change.SavingsAPY
		}
		if change.CheckingsAPY != nil {
			s.CheckingsAPY = *change.CheckingsAPY
		}
		if change.SavingsMin != nil {
			s.SavingsMin = *change.SavingsMin
		}
		if change.CheckingsMin != nil {
			s.CheckingsMin = *change.CheckingsMin
		}
		if err := tx.Save(&s).Error; err != nil {
			return fmt.Errorf("save bank settings: %w", err)
		}
		out = s
		return nil
	})
	if err != nil {
		return models.BankSettings{}, err
	}

	l.logger(ctx).Info().
		Str("savings_apy", out.SavingsAPY.String()).
		Str("checkings_apy", out.CheckingsAPY.String()).
		Str("savings_min", out.SavingsMin.String()).
		Str("checkings_min", out.CheckingsMin.String()).
		Msg("bank settings updated")
	return out, nil
}

type CreateAccountRequest struct {
	Username string
	AccType  models.AccountType
	Opening  decimal.Decimal
}

// CreateAccount opens an account with the current rates for its type and
// records its starting balance for the current term.
func (l *Ledger) CreateAccount(ctx context.Context, req CreateAccountRequest) (*models.Account, error) {
	if req.Username == "" {
		return nil, validationf("username is required")
	}
	if !req.AccType.Valid() {
		return nil, validationf("unknown account type %d", req.AccType)
	}
	if req.Opening.IsNegative() || !req.Opening.Equal(req.Opening.Round(2)) {
		return nil, validationf("opening balance must be a non-negative amount with at most two decimal places")
	}

	var acc *models.Account
	err := l.runner.Run(ctx, func(tx *gorm.DB) error {
		settings, err := loadSettings(tx)
		if err != nil {
			return err
		}
		term, err := currentTerm(tx)
		if err != nil {
			return err
		}

		apy, minBal := settings.For(req.AccType)
		if req.Opening.LessThan(minBal) {
			return ErrBelowMinimumBalance
		}

		acc = &models.Account{
			Username: req.Username,
			AccType:  req.AccType,
			APY:      apy,
			Bal:      req.Opening,
			MinBal:   minBal,
			Status:   true,
		}
		if err := tx.Create(acc).Error; err != nil {
			return fmt.Errorf("create account: %w", err)
		}
		td := models.TermData{AccNo: acc.AccNo, Term: term, StartBal: req.Opening}
		if err := tx.Create(&td).Error; err != nil {
			return fmt.Errorf("create term data: %w", err)
		}
		return nil
	})
	if err != nil {
		l.reject(ctx, err, "create account")
		return nil, err
	}

	l.logger(ctx).Info().
		Uint("acc_no", acc.AccNo).
		Str("username", acc.Username).
		Str("acc_type", acc.AccType.String()).
		Str("opening", acc.Bal.StringFixed(2)).
		Msg("account created")
	return acc, nil
}

// reject logs a user-facing rejection at warn and anything else at error.
func (l *Ledger) reject(ctx context.Context, err error, op string) {
	log := l.logger(ctx)
	var le *Error
	if errors.As(err, &le) {
		log.Warn().Str("op", op).Str("code", string(le.Code)).Msg(le.Message)
		return
	}
	log.Error().Err(err).Str("op", op).Msg("ledger operation failed")
}
