// Package ledger owns every code path that changes an account balance.
// Each operation is a single unit of work: the balance updates and the
// transaction records it writes commit together or not at all.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Murdock022X/BankingWebsite/internal/database"
	"github.com/Murdock022X/BankingWebsite/internal/logger"
	"github.com/Murdock022X/BankingWebsite/internal/models"
)

type Ledger struct {
	runner             *database.Runner
	log                zerolog.Logger
	now                func() time.Time
	recordClosingDebit bool
}

type Option func(*Ledger)

// WithClock replaces time.Now for transaction timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithClosingDebit controls whether a full-balance transfer made while
// closing an account writes the debit record on the closed account.
func WithClosingDebit(record bool) Option {
	return func(l *Ledger) { l.recordClosingDebit = record }
}

func New(runner *database.Runner, log zerolog.Logger, opts ...Option) *Ledger {
	l := &Ledger{
		runner:             runner,
		log:                log,
		now:                time.Now,
		recordClosingDebit: true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Ledger) Runner() *database.Runner { return l.runner }

func (l *Ledger) logger(ctx context.Context) *zerolog.Logger {
	log := logger.FromContextOr(ctx, l.log)
	return &log
}

// lockAccount loads an account and holds its row lock until tx ends.
func lockAccount(tx *gorm.DB, accNo uint) (*models.Account, error) {
	var acc models.Account
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("acc_no = ?", accNo).
		First(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load account %d: %w", accNo, err)
	}
	return &acc, nil
}

// checkTerm holds a share lock on the term counter until tx ends, so
// IncrementTerm cannot advance it under a unit of work stamped with term.
// It must run before any account row is locked, matching the lock order of
// IncrementTerm.
func checkTerm(tx *gorm.DB, term uint) error {
	var ct models.CurrTerm
	if err := tx.Clauses(clause.Locking{Strength: "SHARE"}).First(&ct, 1).Error; err != nil {
		return fmt.Errorf("load current term: %w", err)
	}
	if ct.Term != term {
		return ErrTermChanged
	}
	return nil
}

func checkOwner(acc *models.Account, owner string) error {
	if owner != "" && acc.Username != owner {
		return ErrOwnerMismatch
	}
	return nil
}

type entry struct {
	amount      decimal.Decimal
	credit      bool
	kind        models.TransactionKind
	description string
	term        uint
}

// post applies one signed change to acc and appends its transaction.
func (l *Ledger) post(tx *gorm.DB, acc *models.Account, e entry) (*models.Transaction, error) {
	start := acc.Bal
	end := start.Sub(e.amount)
	if e.credit {
		end = start.Add(e.amount)
	}

	if err := tx.Model(&models.Account{}).
		Where("acc_no = ?", acc.AccNo).
		Update("bal", end).Error; err != nil {
		return nil, fmt.Errorf("update balance of %d: %w", acc.AccNo, err)
	}
	acc.Bal = end

	rec := &models.Transaction{
		Date:              l.now().UTC(),
		AccNo:             acc.AccNo,
		Amt:               e.amount,
		StartBal:          start,
		EndBal:            end,
		WithdrawalDeposit: e.credit,
		Description:       e.description,
		Kind:              e.kind,
		Term:              e.term,
	}
	if err := tx.Create(rec).Error; err != nil {
		return nil, fmt.Errorf("record transaction on %d: %w", acc.AccNo, err)
	}
	return rec, nil
}
