package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Murdock022X/BankingWebsite/internal/database/databasetest"
	"github.com/Murdock022X/BankingWebsite/internal/models"
)

var testNow = time.Date(2024, time.March, 4, 10, 30, 0, 0, time.UTC)

func newLedger(t *testing.T, opts ...Option) (*Ledger, *gorm.DB) {
	t.Helper()
	db := databasetest.Open(t)
	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	return New(databasetest.Runner(db), zerolog.Nop(), opts...), db
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Equal(t, want, got.StringFixed(2))
}

func openAccount(t *testing.T, l *Ledger, user string, typ models.AccountType, bal string) *models.Account {
	t.Helper()
	acc, err := l.CreateAccount(context.Background(), CreateAccountRequest{
		Username: user,
		AccType:  typ,
		Opening:  d(bal),
	})
	require.NoError(t, err)
	return acc
}

func reload(t *testing.T, db *gorm.DB, accNo uint) models.Account {
	t.Helper()
	var acc models.Account
	require.NoError(t, db.First(&acc, "acc_no = ?", accNo).Error)
	return acc
}

func transactions(t *testing.T, db *gorm.DB, accNo uint) []models.Transaction {
	t.Helper()
	var txs []models.Transaction
	require.NoError(t, db.Where("acc_no = ?", accNo).Order("transaction_no").Find(&txs).Error)
	return txs
}

func setTerm(t *testing.T, db *gorm.DB, term uint) {
	t.Helper()
	require.NoError(t, db.Model(&models.CurrTerm{ID: 1}).Update("term", term).Error)
}

func TestCreateAccount(t *testing.T) {
	l, db := newLedger(t)
	ctx := context.Background()

	acc := openAccount(t, l, "alice1", models.Savings, "10.00")

	assert.True(t, acc.Status)
	assert.Equal(t, "alice1", acc.Username)
	assertMoney(t, "5.00", acc.MinBal)
	assert.Equal(t, "0.26", acc.APY.String())

	var td models.TermData
	require.NoError(t, db.Where("acc_no = ?", acc.AccNo).First(&td).Error)
	assert.Equal(t, uint(0), td.Term)
	assertMoney(t, "10.00", td.StartBal)
	assert.Empty(t, transactions(t, db, acc.AccNo))

	_, err := l.CreateAccount(ctx, CreateAccountRequest{Username: "alice1", AccType: models.Savings, Opening: d("4.99")})
	assert.ErrorIs(t, err, ErrBelowMinimumBalance)

	chk, err := l.CreateAccount(ctx, CreateAccountRequest{Username: "alice1", AccType: models.Checkings, Opening: decimal.Zero})
	require.NoError(t, err)
	assertMoney(t, "0.00", chk.MinBal)

	_, err = l.CreateAccount(ctx, CreateAccountRequest{Username: "alice1", AccType: models.AccountType(7), Opening: d("10")})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDeposit(t *testing.T) {
	l, db := newLedger(t)
	acc := openAccount(t, l, "alice1", models.Savings, "10.00")
	setTerm(t, db, 3)

	rec, err := l.Deposit(context.Background(), DepositRequest{
		AccNo:       acc.AccNo,
		Amount:      d("2.50"),
		Description: "paycheck",
		Term:        3,
	})
	require.NoError(t, err)

	assertMoney(t, "12.50", reload(t, db, acc.AccNo).Bal)
	txs := transactions(t, db, acc.AccNo)
	require.Len(t, txs, 1)
	assert.True(t, txs[0].WithdrawalDeposit)
	assertMoney(t, "10.00", txs[0].StartBal)
	assertMoney(t, "12.50", txs[0].EndBal)
	assertMoney(t, "2.50", txs[0].EndBal.Sub(txs[0].StartBal))
	assert.Equal(t, uint(3), txs[0].Term)
	assert.Equal(t, "paycheck", txs[0].Description)
	assert.Equal(t, models.KindDeposit, txs[0].Kind)
	assert.Equal(t, rec.TransactionNo, txs[0].TransactionNo)
}

func TestDepositRejections(t *testing.T) {
	l, db := newLedger(t)
	ctx := context.Background()
	acc := openAccount(t, l, "alice1", models.Savings, "10.00")

	tests := []struct {
		name string
		req  DepositRequest
		want error
	}{
		{"missing account", DepositRequest{AccNo: 999, Amount: d("1")}, ErrNotFound},
		{"zero", DepositRequest{AccNo: acc.AccNo, Amount: decimal.Zero}, ErrValidation},
		{"negative", DepositRequest{AccNo: acc.AccNo, Amount: d("-1")}, ErrValidation},
		{"fractional cents", DepositRequest{AccNo: acc.AccNo, Amount: d("1.001")}, ErrValidation},
		{"other owner", DepositRequest{AccNo: acc.AccNo, Amount: d("1"), Owner: "mallory"}, ErrOwnerMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.Deposit(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	assertMoney(t, "10.00", reload(t, db, acc.AccNo).Bal)
	assert.Empty(t, transactions(t, db, acc.AccNo))
}

func TestWithdrawScenario(t *testing.T) {
	l, db := newLedger(t)
	ctx := context.Background()
	acc := openAccount(t, l, "alice1", models.Savings, "10.00")

	_, err := l.Withdraw(ctx, WithdrawRequest{AccNo: acc.AccNo, Amount: d("6.00")})
	assert.ErrorIs(t, err, ErrBelowMinimumBalance)
	assertMoney(t, "10.00", reload(t, db, acc.AccNo).Bal)
	assert.Empty(t, transactions(t, db, acc.AccNo))

	_, err = l.Withdraw(ctx, WithdrawRequest{AccNo: acc.AccNo, Amount: d("4.00")})
	require.NoError(t, err)
	assertMoney(t, "6.00", reload(t, db, acc.AccNo).Bal)

	txs := transactions(t, db, acc.AccNo)
	require.Len(t, txs, 1)
	assert.False(t, txs[0].WithdrawalDeposit)
	assertMoney(t, "10.00", txs[0].StartBal)
	assertMoney(t, "6.00", txs[0].EndBal)
	assertMoney(t, "4.00", txs[0].Amt)
}

func TestWithdrawExactlyToMinimum(t *testing.T) {
	l, db := newLedger(t)
	acc := openAccount(t, l, "alice1", models.Savings, "10.00")

	_, err := l.Withdraw(context.Background(), WithdrawRequest{AccNo: acc.AccNo, Amount: d("5.00")})
	require.NoError(t, err)
	assertMoney(t, "5.00", reload(t, db, acc.AccNo).Bal)
}

func TestWithdrawConcurrent(t *testing.T) {
	l, db := newLedger(t)
	acc := openAccount(t, l, "alice1", models.Savings, "10.00")

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		okN  int
		errN int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Withdraw(context.Background(), WithdrawRequest{AccNo: acc.AccNo, Amount: d("1.00")})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				okN++
			} else {
				assert.ErrorIs(t, err, ErrBelowMinimumBalance)
				errN++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, okN)
	assert.Equal(t, 5, errN)
	assertMoney(t, "5.00", reload(t, db, acc.AccNo).Bal)
	assert.Len(t, transactions(t, db, acc.AccNo), 5)
}

func TestClosedAccountRejectsMoneyMovement(t *testing.T) {
	l, db := newLedger(t)
	ctx := context.Background()
	acc := openAccount(t, l, "alice1", models.Checkings, "0")
	_, err := l.Close(ctx, CloseRequest{AccNo: acc.AccNo})
	require.NoError(t, err)

	_, err = l.Deposit(ctx, DepositRequest{AccNo: acc.AccNo, Amount: d("1")})
	assert.ErrorIs(t, err, ErrAccountClosed)
	_, err = l.Withdraw(ctx, WithdrawRequest{AccNo: acc.AccNo, Amount: d("1")})
	assert.ErrorIs(t, err, ErrAccountClosed)
	assert.Empty(t, transactions(t, db, acc.AccNo))
}

func TestTransferConservesBalance(t *testing.T) {
	l, db := newLedger(t)
	src := openAccount(t, l, "alice1", models.Savings, "100.00")
	dst := openAccount(t, l, "alice1", models.Checkings, "20.00")
	setTerm(t, db, 1)

	res, err := l.Transfer(context.Background(), TransferRequest{
		From:        src.AccNo,
		To:          dst.AccNo,
		Amount:      d("30.25"),
		Description: "rent",
		Owner:       "alice1",
		Term:        1,
	})
	require.NoError(t, err)
	require.NotNil(t, res.Debit)
	require.NotNil(t, res.Credit)

	a, b := reload(t, db, src.AccNo), reload(t, db, dst.AccNo)
	assertMoney(t, "69.75", a.Bal)
	assertMoney(t, "50.25", b.Bal)
	assertMoney(t, "120.00", a.Bal.Add(b.Bal))

	debit := transactions(t, db, src.AccNo)
	credit := transactions(t, db, dst.AccNo)
	require.Len(t, debit, 1)
	require.Len(t, credit, 1)
	assert.False(t, debit[0].WithdrawalDeposit)
	assert.True(t, credit[0].WithdrawalDeposit)
	assert.Equal(t, uint(1), debit[0].Term)
	assert.Equal(t, uint(1), credit[0].Term)
}

func TestTransferValidationOrder(t *testing.T) {
	l, db := newLedger(t)
	ctx := context.Background()

	src := openAccount(t, l, "alice1", models.Savings, "10.00")
	mine := openAccount(t, l, "alice1", models.Checkings, "0")
	theirs := openAccount(t, l, "bobby1", models.Checkings, "0")
	closed := openAccount(t, l, "alice1", models.Checkings, "0")
	_, err := l.Close(ctx, CloseRequest{AccNo: closed.AccNo})
	require.NoError(t, err)

	tests := []struct {
		name string
		req  TransferRequest
		want error
	}{
		{"same account", TransferRequest{From: src.AccNo, To: src.AccNo, Amount: d("1")}, ErrValidation},
		{"bad amount", TransferRequest{From: src.AccNo, To: mine.AccNo, Amount: d("0")}, ErrValidation},
		{"missing source", TransferRequest{From: 999, To: mine.AccNo, Amount: d("1")}, ErrSourceNotFound},
		{"missing destination", TransferRequest{From: src.AccNo, To: 999, Amount: d("1")}, ErrDestinationNotFound},
		{"closed destination", TransferRequest{From: src.AccNo, To: closed.AccNo, Amount: d("1")}, ErrDestinationClosed},
		{"different owners", TransferRequest{From: src.AccNo, To: theirs.AccNo, Amount: d("1")}, ErrOwnerMismatch},
		{"caller is not owner", TransferRequest{From: src.AccNo, To: mine.AccNo, Amount: d("1"), Owner: "bobby1"}, ErrOwnerMismatch},
		// source checks run before the destination lookup
		{"not owner beats missing destination", TransferRequest{From: src.AccNo, To: 999, Amount: d("1"), Owner: "bobby1"}, ErrOwnerMismatch},
		{"below minimum", TransferRequest{From: src.AccNo, To: mine.AccNo, Amount: d("5.01")}, ErrBelowMinimumBalance},
		// destination checks run before the minimum check
		{"closed beats minimum", TransferRequest{From: src.AccNo, To: closed.AccNo, Amount: d("50")}, ErrDestinationClosed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.Transfer(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	assertMoney(t, "10.00", reload(t, db, src.AccNo).Bal)
	assert.Empty(t, transactions(t, db, src.AccNo))
}

func TestStaleTermIsRejected(t *testing.T) {
	l, db := newLedger(t)
	ctx := context.Background()
	src := openAccount(t, l, "alice1", models.Savings, "100.00")
	dst := openAccount(t, l, "alice1", models.Checkings, "0")
	setTerm(t, db, 1)

	_, err := l.Deposit(ctx, DepositRequest{AccNo: src.AccNo, Amount: d("1"), Term: 0})
	assert.ErrorIs(t, err, ErrTermChanged)
	_, err = l.Withdraw(ctx, WithdrawRequest{AccNo: src.AccNo, Amount: d("1"), Term: 0})
	assert.ErrorIs(t, err, ErrTermChanged)
	_, err = l.Transfer(ctx, TransferRequest{From: src.AccNo, To: dst.AccNo, Amount: d("1"), Term: 0})
	assert.ErrorIs(t, err, ErrTermChanged)
	_, err = l.Close(ctx, CloseRequest{AccNo: src.AccNo, TransferTo: dst.AccNo, Term: 0})
	assert.ErrorIs(t, err, ErrTermChanged)

	assertMoney(t, "100.00", reload(t, db, src.AccNo).Bal)
	assert.True(t, reload(t, db, src.AccNo).Status)
	assert.Empty(t, transactions(t, db, src.AccNo))

	_, err = l.Deposit(ctx, DepositRequest{AccNo: src.AccNo, Amount: d("1"), Term: 1})
	require.NoError(t, err)
	assertMoney(t, "101.00", reload(t, db, src.AccNo).Bal)
}

func TestNotFoundMatchesVariants(t *testing.T) {
	assert.ErrorIs(t, ErrSourceNotFound, ErrNotFound)
	assert.ErrorIs(t, ErrDestinationNotFound, ErrNotFound)
	assert.NotErrorIs(t, ErrNotFound, ErrSourceNotFound)
	assert.NotErrorIs(t, ErrOwnerMismatch, ErrNotFound)
}

func TestDeletionTransferMovesFullBalance(t *testing.T) {
	l, db := newLedger(t)
	src := openAccount(t, l, "alice1", models.Savings, "10.00")
	dst := openAccount(t, l, "alice1", models.Checkings, "1.00")

	res, err := l.Transfer(context.Background(), TransferRequest{
		From:     src.AccNo,
		To:       dst.AccNo,
		Amount:   d("1"),
		Deletion: true,
	})
	require.NoError(t, err)
	assertMoney(t, "10.00", res.Amount)
	assertMoney(t, "0.00", reload(t, db, src.AccNo).Bal)
	assertMoney(t, "11.00", reload(t, db, dst.AccNo).Bal)
	assert.Len(t, transactions(t, db, src.AccNo), 1)
}

func TestDeletionTransferWithoutClosingDebit(t *testing.T) {
	l, db := newLedger(t, WithClosingDebit(false))
	src := openAccount(t, l, "alice1", models.Savings, "10.00")
	dst := openAccount(t, l, "alice1", models.Checkings, "0")

	res, err := l.Transfer(context.Background(), TransferRequest{From: src.AccNo, To: dst.AccNo, Deletion: true})
	require.NoError(t, err)
	assert.Nil(t, res.Debit)
	assert.NotNil(t, res.Credit)
	assertMoney(t, "0.00", reload(t, db, src.AccNo).Bal)
	assert.Empty(t, transactions(t, db, src.AccNo))
	assert.Len(t, transactions(t, db, dst.AccNo), 1)
}

func TestCloseRequiresZeroBalance(t *testing.T) {
	l, db := newLedger(t)
	ctx := context.Background()
	acc := openAccount(t, l, "alice1", models.Savings, "50.00")

	_, err := l.Close(ctx, CloseRequest{AccNo: acc.AccNo, Owner: "alice1"})
	assert.ErrorIs(t, err, ErrNonZeroBalance)
	assert.True(t, reload(t, db, acc.AccNo).Status)
}

func TestCloseWithTransferIsAtomic(t *testing.T) {
	l, db := newLedger(t)
	ctx := context.Background()
	acc := openAccount(t, l, "alice1", models.Savings, "50.00")
	dst := openAccount(t, l, "alice1", models.Checkings, "0")
	setTerm(t, db, 2)

	res, err := l.Close(ctx, CloseRequest{AccNo: acc.AccNo, Owner: "alice1", TransferTo: dst.AccNo, Term: 2})
	require.NoError(t, err)
	require.NotNil(t, res.Transfer)
	assert.False(t, res.Account.Status)

	closed := reload(t, db, acc.AccNo)
	assert.False(t, closed.Status)
	assertMoney(t, "0.00", closed.Bal)
	assertMoney(t, "50.00", reload(t, db, dst.AccNo).Bal)

	debit := transactions(t, db, acc.AccNo)
	require.Len(t, debit, 1)
	assert.Equal(t, ClosingDescription, debit[0].Description)
	assert.Equal(t, uint(2), debit[0].Term)
}

func TestCloseWithTransferRollsBack(t *testing.T) {
	l, db := newLedger(t)
	ctx := context.Background()
	acc := openAccount(t, l, "alice1", models.Savings, "50.00")
	theirs := openAccount(t, l, "bobby1", models.Checkings, "0")

	_, err := l.Close(ctx, CloseRequest{AccNo: acc.AccNo, TransferTo: theirs.AccNo})
	assert.ErrorIs(t, err, ErrOwnerMismatch)

	still := reload(t, db, acc.AccNo)
	assert.True(t, still.Status)
	assertMoney(t, "50.00", still.Bal)
	assert.Empty(t, transactions(t, db, acc.AccNo))
	assert.Empty(t, transactions(t, db, theirs.AccNo))
}

func TestCloseTwice(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()
	acc := openAccount(t, l, "alice1", models.Checkings, "0")

	_, err := l.Close(ctx, CloseRequest{AccNo: acc.AccNo})
	require.NoError(t, err)
	_, err = l.Close(ctx, CloseRequest{AccNo: acc.AccNo})
	assert.ErrorIs(t, err, ErrAccountClosed)

	_, err = l.Close(ctx, CloseRequest{AccNo: 999})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateSettings(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()
	before := openAccount(t, l, "alice1", models.Savings, "10.00")

	apy := d("0.10")
	min := d("20.00")
	s, err := l.UpdateSettings(ctx, SettingsChange{SavingsAPY: &apy, SavingsMin: &min})
	require.NoError(t, err)
	assert.Equal(t, "0.1", s.SavingsAPY.String())
	assertMoney(t, "0.00", s.CheckingsMin)

	_, err = l.CreateAccount(ctx, CreateAccountRequest{Username: "alice1", AccType: models.Savings, Opening: d("10")})
	assert.ErrorIs(t, err, ErrBelowMinimumBalance)

	after := openAccount(t, l, "alice1", models.Savings, "20.00")
	assert.Equal(t, "0.1", after.APY.String())
	assert.Equal(t, "0.26", before.APY.String())

	neg := d("-1")
	_, err = l.UpdateSettings(ctx, SettingsChange{CheckingsAPY: &neg})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"12.30", "12.30", false},
		{" 7 ", "7.00", false},
		{"", "", true},
		{"abc", "", true},
		{"1e3", "", true},
		{"0", "", true},
		{"-5", "", true},
		{"0.001", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
			assertMoney(t, tt.want, got)
		})
	}
}
