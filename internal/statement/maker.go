// Package statement assembles per-user term statements, renders them as
// PDF and records where each one is stored.
package statement

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/Murdock022X/BankingWebsite/internal/database"
	"github.com/Murdock022X/BankingWebsite/internal/format"
	"github.com/Murdock022X/BankingWebsite/internal/models"
)

type Maker struct {
	runner   *database.Runner
	db       *gorm.DB
	store    Store
	renderer Renderer
	log      zerolog.Logger
	now      func() time.Time
}

// NewMaker reads statement data through runner, one unit of work per
// statement.
func NewMaker(runner *database.Runner, store Store, renderer Renderer, log zerolog.Logger) *Maker {
	return &Maker{
		runner:   runner,
		db:       runner.DB(),
		store:    store,
		renderer: renderer,
		log:      log,
		now:      time.Now,
	}
}

// WithClock replaces time.Now for the statement date.
func (m *Maker) WithClock(now func() time.Time) *Maker {
	m.now = now
	return m
}

// Make writes username's statement for term and upserts its row. A second
// run on the same day overwrites the artifact and keeps the row.
func (m *Maker) Make(ctx context.Context, username string, term uint) (*models.Statement, error) {
	today := m.now().UTC()
	db := m.db.WithContext(ctx)

	var data *Data
	err := m.runner.Run(ctx, func(tx *gorm.DB) error {
		var err error
		data, err = Assemble(tx, username, term, today)
		return err
	})
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := m.renderer.Render(data, &buf); err != nil {
		return nil, err
	}
	filename := format.StatementFilename(username, today)
	location, err := m.store.Save(ctx, username, filename, buf.Bytes())
	if err != nil {
		return nil, err
	}

	day := today.Format("2006-01-02")
	var row models.Statement
	err = db.Where("username = ? AND date = ?", username, day).First(&row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		row = models.Statement{Username: username, Date: day, Name: data.Name, Path: location, Term: term}
		if err := db.Create(&row).Error; err != nil {
			return nil, fmt.Errorf("record statement for %s: %w", username, err)
		}
	case err != nil:
		return nil, fmt.Errorf("lookup statement for %s: %w", username, err)
	default:
		row.Name, row.Path, row.Term = data.Name, location, term
		if err := db.Save(&row).Error; err != nil {
			return nil, fmt.Errorf("update statement for %s: %w", username, err)
		}
	}

	m.log.Debug().Str("username", username).Uint("term", term).Str("path", location).Msg("statement written")
	return &row, nil
}

// AssembleAll makes a statement for every user holding at least one
// account. Every user is attempted; failures are joined.
func (m *Maker) AssembleAll(ctx context.Context, term uint) (int, error) {
	var usernames []string
	if err := m.db.WithContext(ctx).
		Model(&models.User{}).
		Where("username IN (?)", m.db.Model(&models.Account{}).Select("username")).
		Order("username").
		Pluck("username", &usernames).Error; err != nil {
		return 0, fmt.Errorf("list statement users: %w", err)
	}

	made := 0
	var errs []error
	for _, username := range usernames {
		if _, err := m.Make(ctx, username, term); err != nil {
			errs = append(errs, fmt.Errorf("statement for %s: %w", username, err))
			continue
		}
		made++
	}

	m.log.Info().Uint("term", term).Int("statements", made).Int("failed", len(errs)).Msg("statements assembled")
	return made, errors.Join(errs...)
}
