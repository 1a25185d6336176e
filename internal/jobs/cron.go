package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Murdock022X/BankingWebsite/internal/models"
	"github.com/Murdock022X/BankingWebsite/internal/term"
)

// TermRunner is satisfied by term.Cycle.
type TermRunner interface {
	Run(ctx context.Context) (*term.Report, error)
}

type Jobs struct {
	db      *gorm.DB
	cycle   TermRunner
	log     zerolog.Logger
	timeout time.Duration
}

func New(db *gorm.DB, cycle TermRunner, log zerolog.Logger) *Jobs {
	return &Jobs{db: db, cycle: cycle, log: log, timeout: time.Hour}
}

type Snapshot struct {
	OpenAccounts int64           `json:"open_accounts"`
	TotalBalance decimal.Decimal `json:"total_balance"`
}

// Daily takes a read-only balance snapshot and logs it.
func (j *Jobs) Daily(ctx context.Context) (Snapshot, error) {
	var row struct {
		N     int64
		Total decimal.Decimal
	}
	err := j.db.WithContext(ctx).
		Model(&models.Account{}).
		Select("COUNT(*) AS n, COALESCE(SUM(bal), 0) AS total").
		Where("status = ?", true).
		Scan(&row).Error
	if err != nil {
		return Snapshot{}, fmt.Errorf("daily snapshot: %w", err)
	}

	snap := Snapshot{OpenAccounts: row.N, TotalBalance: row.Total}
	j.log.Info().
		Int64("open_accounts", snap.OpenAccounts).
		Str("total_balance", snap.TotalBalance.StringFixed(2)).
		Msg("daily balance snapshot")
	return snap, nil
}

// Term runs the term cycle. Losing the lock to another process is not an
// error.
func (j *Jobs) Term(ctx context.Context) error {
	_, err := j.cycle.Run(ctx)
	if errors.Is(err, term.ErrLocked) {
		j.log.Info().Msg("term cycle skipped, another process holds the lock")
		return nil
	}
	return err
}

// Register adds both jobs to c. The caller starts and stops c.
func (j *Jobs) Register(c *cron.Cron, dailySpec, termSpec string) error {
	if _, err := c.AddFunc(dailySpec, j.wrap("daily", func(ctx context.Context) error {
		_, err := j.Daily(ctx)
		return err
	})); err != nil {
		return fmt.Errorf("schedule daily job %q: %w", dailySpec, err)
	}
	if _, err := c.AddFunc(termSpec, j.wrap("term", j.Term)); err != nil {
		return fmt.Errorf("schedule term job %q: %w", termSpec, err)
	}
	j.log.Info().Str("daily", dailySpec).Str("term", termSpec).Msg("cron jobs registered")
	return nil
}

func (j *Jobs) wrap(name string, fn func(context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
		defer cancel()

		start := time.Now()
		if err := fn(ctx); err != nil {
			j.log.Error().Err(err).Str("job", name).Msg("job failed")
			return
		}
		j.log.Info().Str("job", name).Dur("took", time.Since(start)).Msg("job finished")
	}
}
