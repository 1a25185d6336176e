package jobs

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Murdock022X/BankingWebsite/internal/database/databasetest"
	"github.com/Murdock022X/BankingWebsite/internal/ledger"
	"github.com/Murdock022X/BankingWebsite/internal/logger"
	"github.com/Murdock022X/BankingWebsite/internal/models"
	"github.com/Murdock022X/BankingWebsite/internal/term"
)

type stubCycle struct {
	err   error
	calls int
}

func (s *stubCycle) Run(context.Context) (*term.Report, error) {
	s.calls++
	return &term.Report{}, s.err
}

func TestDaily(t *testing.T) {
	db := databasetest.Open(t)
	l := ledger.New(databasetest.Runner(db), zerolog.Nop())
	ctx := context.Background()

	for _, bal := range []string{"10.25", "5.75"} {
		_, err := l.CreateAccount(ctx, ledger.CreateAccountRequest{Username: "alice1", AccType: models.Savings, Opening: decimal.RequireFromString(bal)})
		require.NoError(t, err)
	}
	closed, err := l.CreateAccount(ctx, ledger.CreateAccountRequest{Username: "alice1", AccType: models.Checkings, Opening: decimal.Zero})
	require.NoError(t, err)
	_, err = l.Close(ctx, ledger.CloseRequest{AccNo: closed.AccNo})
	require.NoError(t, err)

	var buf bytes.Buffer
	j := New(db, &stubCycle{}, logger.NewWithWriter(&buf))
	snap, err := j.Daily(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), snap.OpenAccounts)
	assert.Equal(t, "16.00", snap.TotalBalance.StringFixed(2))
	assert.Contains(t, buf.String(), `"open_accounts":2`)
}

func TestTermIgnoresLock(t *testing.T) {
	cycle := &stubCycle{err: term.ErrLocked}
	j := New(nil, cycle, zerolog.Nop())
	assert.NoError(t, j.Term(context.Background()))

	cycle.err = errors.New("boom")
	assert.EqualError(t, j.Term(context.Background()), "boom")
	assert.Equal(t, 2, cycle.calls)
}

func TestRegister(t *testing.T) {
	j := New(nil, &stubCycle{}, zerolog.Nop())

	c := cron.New()
	require.NoError(t, j.Register(c, "0 0 * * *", "0 0 * * 0"))
	assert.Len(t, c.Entries(), 2)

	err := j.Register(cron.New(), "not a spec", "0 0 * * 0")
	assert.Error(t, err)
}

func TestWrapRunsJob(t *testing.T) {
	cycle := &stubCycle{}
	j := New(nil, cycle, zerolog.Nop())

	j.wrap("term", j.Term)()
	assert.Equal(t, 1, cycle.calls)
}
