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

// DepositRequest credits AccNo. Owner, when set, must own the account.
// Term is the term the caller read; when it is no longer current the
// operation fails with ErrTermChanged and the caller reads it again. The
// same holds for the other request types.
type DepositRequest struct {
	AccNo       uint
	Amount      decimal.Decimal
	Description string
	Owner       string
	Term        uint
}

func (l *Ledger) Deposit(ctx context.Context, req DepositRequest) (*models.Transaction, error) {
	if err := checkAmount(req.Amount); err != nil {
		return nil, err
	}

	var rec *models.Transaction
	err := l.runner.Run(ctx, func(tx *gorm.DB) error {
		if err := checkTerm(tx, req.Term); err != nil {
			return err
		}
		acc, err := lockAccount(tx, req.AccNo)
		if err != nil {
			return err
		}
		if acc == nil {
			return ErrNotFound
		}
		if err := checkOwner(acc, req.Owner); err != nil {
			return err
		}
		if !acc.Open() {
			return ErrAccountClosed
		}
		rec, err = l.post(tx, acc, entry{
			amount:      req.Amount,
			credit:      true,
			kind:        models.KindDeposit,
			description: req.Description,
			term:        req.Term,
		})
		return err
	})
	if err != nil {
		l.reject(ctx, err, "deposit")
		return nil, err
	}

	l.logger(ctx).Info().
		Uint("acc_no", rec.AccNo).
		Str("amt", rec.Amt.StringFixed(2)).
		Str("end_bal", rec.EndBal.StringFixed(2)).
		Msg("deposit")
	return rec, nil
}

// WithdrawRequest debits AccNo. The balance may not drop below the
// account's minimum.
type WithdrawRequest struct {
	AccNo       uint
	Amount      decimal.Decimal
	Description string
	Owner       string
	Term        uint
}

func (l *Ledger) Withdraw(ctx context.Context, req WithdrawRequest) (*models.Transaction, error) {
	if err := checkAmount(req.Amount); err != nil {
		return nil, err
	}

	var rec *models.Transaction
	err := l.runner.Run(ctx, func(tx *gorm.DB) error {
		if err := checkTerm(tx, req.Term); err != nil {
			return err
		}
		acc, err := lockAccount(tx, req.AccNo)
		if err != nil {
			return err
		}
		if acc == nil {
			return ErrNotFound
		}
		if err := checkOwner(acc, req.Owner); err != nil {
			return err
		}
		if !acc.Open() {
			return ErrAccountClosed
		}
		if acc.Bal.Sub(req.Amount).LessThan(acc.MinBal) {
			return ErrBelowMinimumBalance
		}
		rec, err = l.post(tx, acc, entry{
			amount:      req.Amount,
			credit:      false,
			kind:        models.KindWithdrawal,
			description: req.Description,
			term:        req.Term,
		})
		return err
	})
	if err != nil {
		l.reject(ctx, err, "withdraw")
		return nil, err
	}

	l.logger(ctx).Info().
		Uint("acc_no", rec.AccNo).
		Str("amt", rec.Amt.StringFixed(2)).
		Str("end_bal", rec.EndBal.StringFixed(2)).
		Msg("withdrawal")
	return rec, nil
}

// TransferRequest moves Amount from From to To. With Deletion set the
// whole source balance moves, Amount is ignored and the source minimum is
// not enforced.
type TransferRequest struct {
	From        uint
	To          uint
	Amount      decimal.Decimal
	Description string
	Owner       string
	Term        uint
	Deletion    bool
}

// TransferResult holds the records written. Debit is nil when no source
// record was written.
type TransferResult struct {
	Amount decimal.Decimal     `json:"amount"`
	Debit  *models.Transaction `json:"debit,omitempty"`
	Credit *models.Transaction `json:"credit,omitempty"`
}

func (l *Ledger) Transfer(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	var res *TransferResult
	err := l.runner.Run(ctx, func(tx *gorm.DB) error {
		if err := checkTerm(tx, req.Term); err != nil {
			return err
		}
		var err error
		res, err = l.transfer(tx, req)
		return err
	})
	if err != nil {
		l.reject(ctx, err, "transfer")
		return nil, err
	}

	l.logger(ctx).Info().
		Uint("from", req.From).
		Uint("to", req.To).
		Str("amt", res.Amount.StringFixed(2)).
		Bool("deletion", req.Deletion).
		Msg("transfer")
	return res, nil
}

func (req TransferRequest) validate() error {
	if req.From == req.To {
		return validationf("cannot transfer an account to itself")
	}
	if req.Deletion {
		return nil
	}
	return checkAmount(req.Amount)
}

// transfer runs inside an open unit of work. Both rows are locked in
// account number order.
func (l *Ledger) transfer(tx *gorm.DB, req TransferRequest) (*TransferResult, error) {
	var accs []models.Account
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("acc_no IN ?", []uint{req.From, req.To}).
		Order("acc_no").
		Find(&accs).Error; err != nil {
		return nil, fmt.Errorf("load transfer accounts: %w", err)
	}
	var src, dst *models.Account
	for i := range accs {
		switch accs[i].AccNo {
		case req.From:
			src = &accs[i]
		case req.To:
			dst = &accs[i]
		}
	}

	if src == nil {
		return nil, ErrSourceNotFound
	}
	if err := checkOwner(src, req.Owner); err != nil {
		return nil, err
	}
	if !src.Open() {
		return nil, ErrAccountClosed
	}

	amt := req.Amount
	if req.Deletion {
		amt = src.Bal
	}

	if dst == nil {
		return nil, ErrDestinationNotFound
	}
	if !dst.Open() {
		return nil, ErrDestinationClosed
	}
	if src.Username != dst.Username {
		return nil, ErrOwnerMismatch
	}
	if !req.Deletion && src.Bal.Sub(amt).LessThan(src.MinBal) {
		return nil, ErrBelowMinimumBalance
	}

	res := &TransferResult{Amount: amt}
	if !amt.IsPositive() {
		return res, nil
	}

	if !req.Deletion || l.recordClosingDebit {
		debit, err := l.post(tx, src, entry{
			amount:      amt,
			credit:      false,
			kind:        models.KindTransfer,
			description: req.Description,
			term:        req.Term,
		})
		if err != nil {
			return nil, err
		}
		res.Debit = debit
	} else {
		if err := tx.Model(&models.Account{}).
			Where("acc_no = ?", src.AccNo).
			Update("bal", decimal.Zero).Error; err != nil {
			return nil, fmt.Errorf("empty account %d: %w", src.AccNo, err)
		}
		src.Bal = decimal.Zero
	}

	credit, err := l.post(tx, dst, entry{
		amount:      amt,
		credit:      true,
		kind:        models.KindTransfer,
		description: req.Description,
		term:        req.Term,
	})
	if err != nil {
		return nil, err
	}
	res.Credit = credit
	return res, nil
}

// CloseRequest closes AccNo. With TransferTo set, the remaining balance
// moves there first in the same unit of work.
type CloseRequest struct {
	AccNo      uint
	Owner      string
	TransferTo uint
	Term       uint
}

type CloseResult struct {
	Account  *models.Account
	Transfer *TransferResult
}

const ClosingDescription = "Account closure transfer."

func (l *Ledger) Close(ctx context.Context, req CloseRequest) (*CloseResult, error) {
	if req.TransferTo != 0 && req.TransferTo == req.AccNo {
		return nil, validationf("cannot transfer an account to itself")
	}

	res := &CloseResult{}
	err := l.runner.Run(ctx, func(tx *gorm.DB) error {
		res.Transfer = nil
		if err := checkTerm(tx, req.Term); err != nil {
			return err
		}
		if req.TransferTo != 0 {
			tr, err := l.transfer(tx, TransferRequest{
				From:        req.AccNo,
				To:          req.TransferTo,
				Description: ClosingDescription,
				Owner:       req.Owner,
				Term:        req.Term,
				Deletion:    true,
			})
			if err != nil {
				if errors.Is(err, ErrSourceNotFound) {
					return ErrNotFound
				}
				return err
			}
			res.Transfer = tr
		}

		acc, err := lockAccount(tx, req.AccNo)
		if err != nil {
			return err
		}
		if acc == nil {
			return ErrNotFound
		}
		if err := checkOwner(acc, req.Owner); err != nil {
			return err
		}
		if !acc.Open() {
			return ErrAccountClosed
		}
		if !acc.Bal.IsZero() {
			return ErrNonZeroBalance
		}
		if err := tx.Model(&models.Account{}).
			Where("acc_no = ?", acc.AccNo).
			Update("status", false).Error; err != nil {
			return fmt.Errorf("close account %d: %w", acc.AccNo, err)
		}
		acc.Status = false
		res.Account = acc
		return nil
	})
	if err != nil {
		l.reject(ctx, err, "close")
		return nil, err
	}

	ev := l.logger(ctx).Info().Uint("acc_no", req.AccNo)
	if res.Transfer != nil {
		ev = ev.Uint("transfer_to", req.TransferTo).Str("amt", res.Transfer.Amount.StringFixed(2))
	}
	ev.Msg("account closed")
	return res, nil
}
