package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Murdock022X/BankingWebsite/internal/models"
)

// TermsPerYear is the number of compounding periods; a term is one week.
const TermsPerYear = 52

const DividendDescription = "Dividend deposit."

var termsPerYear = decimal.NewFromInt(TermsPerYear)

// Dividend is one term's interest on bal, rounded to cents.
func Dividend(bal, apy decimal.Decimal) decimal.Decimal {
	return bal.Mul(apy).Div(termsPerYear).Round(2)
}

// Compound credits one term of interest to an open account. It returns a
// nil transaction when there is nothing to pay: the account is closed, the
// dividend rounds to zero, or the dividend for this term was already paid.
func (l *Ledger) Compound(ctx context.Context, accNo uint, term uint) (*models.Transaction, error) {
	var rec *models.Transaction
	err := l.runner.Run(ctx, func(tx *gorm.DB) error {
		rec = nil
		acc, err := lockAccount(tx, accNo)
		if err != nil {
			return err
		}
		if acc == nil {
			return ErrNotFound
		}
		if !acc.Open() {
			return nil
		}

		var paid int64
		if err := tx.Model(&models.Transaction{}).
			Where("acc_no = ? AND term = ? AND kind = ?", accNo, term, models.KindDividend).
			Count(&paid).Error; err != nil {
			return fmt.Errorf("check dividend of %d: %w", accNo, err)
		}
		if paid > 0 {
			return nil
		}

		div := Dividend(acc.Bal, acc.APY)
		if !div.IsPositive() {
			return nil
		}
		rec, err = l.post(tx, acc, entry{
			amount:      div,
			credit:      true,
			kind:        models.KindDividend,
			description: DividendDescription,
			term:        term,
		})
		return err
	})
	if err != nil {
		l.reject(ctx, err, "compound")
		return nil, err
	}

	if rec != nil {
		l.logger(ctx).Debug().
			Uint("acc_no", accNo).
			Uint("term", term).
			Str("dividend", rec.Amt.StringFixed(2)).
			Msg("dividend paid")
	}
	return rec, nil
}
