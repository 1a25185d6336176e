package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Runner opens every unit of work with the same isolation and retries the
// ones postgres aborts with a serialization failure or a deadlock.
type Runner struct {
	db      *gorm.DB
	opts    *sql.TxOptions
	retries int
}

func NewRunner(db *gorm.DB, opts *sql.TxOptions, retries int) *Runner {
	if retries < 0 {
		retries = 0
	}
	return &Runner{db: db, opts: opts, retries: retries}
}

func (r *Runner) DB() *gorm.DB { return r.db }

// Run commits when fn returns nil and rolls back otherwise. fn may be
// invoked more than once and must only touch the database through tx.
func (r *Runner) Run(ctx context.Context, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 0; attempt <= r.retries; attempt++ {
		err = r.db.WithContext(ctx).Transaction(fn, r.opts)
		if err == nil || !Retryable(err) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return fmt.Errorf("transaction retries exhausted: %w", err)
}

// Retryable reports whether err is a postgres serialization failure (40001)
// or deadlock (40P01).
func Retryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}
