// Package term runs the weekly accounting cycle: pay dividends, capture
// statements for the closing term, then advance the term counter.
package term

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Murdock022X/BankingWebsite/internal/ledger"
	"github.com/Murdock022X/BankingWebsite/internal/models"
)

const lockKey = "lock:term_cycle"

// ErrLocked is returned by Run when another process holds the cycle lock.
var ErrLocked = errors.New("term cycle already running")

// Locker is satisfied by redis.Locker.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error)
}

// Statements assembles every user's statement for a term.
type Statements interface {
	AssembleAll(ctx context.Context, term uint) (int, error)
}

type Cycle struct {
	ledger     *ledger.Ledger
	statements Statements
	locker     Locker
	lockTTL    time.Duration
	log        zerolog.Logger
}

// NewCycle wires the cycle. locker may be nil when only one process ever
// runs the job.
func NewCycle(l *ledger.Ledger, statements Statements, locker Locker, lockTTL time.Duration, log zerolog.Logger) *Cycle {
	return &Cycle{
		ledger:     l,
		statements: statements,
		locker:     locker,
		lockTTL:    lockTTL,
		log:        log,
	}
}

type Report struct {
	Term       uint `json:"term"`
	NextTerm   uint `json:"next_term"`
	Compounded int  `json:"compounded"`
	Statements int  `json:"statements"`
}

// CompoundAll pays one dividend to every open account. Each account is its
// own unit of work; failures are collected and do not stop the batch.
// Accounts already paid this term are skipped, so a rerun resumes.
func (c *Cycle) CompoundAll(ctx context.Context, term uint) (int, error) {
	var accNos []uint
	if err := c.ledger.Runner().DB().WithContext(ctx).
		Model(&models.Account{}).
		Where("status = ?", true).
		Order("acc_no").
		Pluck("acc_no", &accNos).Error; err != nil {
		return 0, fmt.Errorf("list open accounts: %w", err)
	}

	paid := 0
	var errs []error
	for _, accNo := range accNos {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		rec, err := c.ledger.Compound(ctx, accNo, term)
		if err != nil {
			errs = append(errs, fmt.Errorf("compound %d: %w", accNo, err))
			continue
		}
		if rec != nil {
			paid++
		}
	}

	c.log.Info().Uint("term", term).Int("accounts", len(accNos)).Int("paid", paid).Msg("compounding finished")
	return paid, errors.Join(errs...)
}

// IncrementTerm advances the counter and snapshots every account's balance
// as the new term's starting balance, in one unit of work.
func (c *Cycle) IncrementTerm(ctx context.Context) (uint, error) {
	var next uint
	err := c.ledger.Runner().Run(ctx, func(tx *gorm.DB) error {
		var ct models.CurrTerm
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&ct, 1).Error; err != nil {
			return fmt.Errorf("load current term: %w", err)
		}
		next = ct.Term + 1
		if err := tx.Model(&ct).Update("term", next).Error; err != nil {
			return fmt.Errorf("advance term: %w", err)
		}

		var accs []models.Account
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Order("acc_no").Find(&accs).Error; err != nil {
			return fmt.Errorf("list accounts: %w", err)
		}
		if len(accs) == 0 {
			return nil
		}
		rows := make([]models.TermData, len(accs))
		for i, acc := range accs {
			rows[i] = models.TermData{AccNo: acc.AccNo, Term: next, StartBal: acc.Bal}
		}
		if err := tx.CreateInBatches(rows, 500).Error; err != nil {
			return fmt.Errorf("snapshot term %d: %w", next, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	c.log.Info().Uint("term", next).Msg("term incremented")
	return next, nil
}

// Run executes the whole cycle for the current term. The counter only
// advances when compounding and statements both succeeded.
func (c *Cycle) Run(ctx context.Context) (*Report, error) {
	if c.locker != nil {
		release, ok, err := c.locker.Acquire(ctx, lockKey, c.lockTTL)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrLocked
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				c.log.Warn().Err(err).Msg("release term lock")
			}
		}()
	}

	start := time.Now()
	term, err := c.ledger.CurrentTerm(ctx)
	if err != nil {
		return nil, err
	}
	rep := &Report{Term: term}
	log := c.log.With().Uint("term", term).Logger()
	log.Info().Msg("term cycle started")

	if rep.Compounded, err = c.CompoundAll(ctx, term); err != nil {
		log.Error().Err(err).Msg("term cycle stopped during compounding")
		return rep, err
	}

	if c.statements != nil {
		if rep.Statements, err = c.statements.AssembleAll(ctx, term); err != nil {
			log.Error().Err(err).Msg("term cycle stopped during statements")
			return rep, err
		}
	}

	if rep.NextTerm, err = c.IncrementTerm(ctx); err != nil {
		log.Error().Err(err).Msg("term cycle stopped during increment")
		return rep, err
	}

	log.Info().
		Int("compounded", rep.Compounded).
		Int("statements", rep.Statements).
		Dur("took", time.Since(start)).
		Msg("term cycle finished")
	return rep, nil
}
