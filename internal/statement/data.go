package statement

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Murdock022X/BankingWebsite/internal/format"
	"github.com/Murdock022X/BankingWebsite/internal/models"
)

// Metrics summarises one account over a term.
type Metrics struct {
	Account      models.Account
	StartBal     decimal.Decimal
	Withdrawals  decimal.Decimal
	Deposits     decimal.Decimal
	EndBal       decimal.Decimal
	Transactions []models.Transaction
}

// Data is everything a statement shows.
type Data struct {
	Username       string
	Name           string
	Term           uint
	Date           time.Time
	SavingsTotal   decimal.Decimal
	CheckingsTotal decimal.Decimal
	Accounts       []Metrics
}

func (d *Data) Title() string {
	return "Statement For " + format.TitleDate(d.Date)
}

// Assemble reads the statement data of username for term. db should be a
// transaction at repeatable read or stricter so balances and transactions
// come from the same snapshot; Maker.Make opens one.
func Assemble(db *gorm.DB, username string, term uint, on time.Time) (*Data, error) {
	var user models.User
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, fmt.Errorf("load user %s: %w", username, err)
	}

	var accs []models.Account
	if err := db.Where("username = ?", username).Order("acc_no").Find(&accs).Error; err != nil {
		return nil, fmt.Errorf("load accounts of %s: %w", username, err)
	}

	data := &Data{
		Username:       username,
		Name:           user.Name,
		Term:           term,
		Date:           on,
		SavingsTotal:   decimal.Zero,
		CheckingsTotal: decimal.Zero,
		Accounts:       make([]Metrics, 0, len(accs)),
	}
	for _, acc := range accs {
		m, err := accountMetrics(db, acc, term)
		if err != nil {
			return nil, err
		}
		if acc.AccType == models.Savings {
			data.SavingsTotal = data.SavingsTotal.Add(acc.Bal)
		} else {
			data.CheckingsTotal = data.CheckingsTotal.Add(acc.Bal)
		}
		data.Accounts = append(data.Accounts, m)
	}
	return data, nil
}

func accountMetrics(db *gorm.DB, acc models.Account, term uint) (Metrics, error) {
	m := Metrics{
		Account:     acc,
		EndBal:      acc.Bal,
		Withdrawals: decimal.Zero,
		Deposits:    decimal.Zero,
	}

	if err := db.Where("acc_no = ? AND term = ?", acc.AccNo, term).
		Order("transaction_no").
		Find(&m.Transactions).Error; err != nil {
		return m, fmt.Errorf("load transactions of %d: %w", acc.AccNo, err)
	}
	for _, t := range m.Transactions {
		if t.Credit() {
			m.Deposits = m.Deposits.Add(t.Amt)
		} else {
			m.Withdrawals = m.Withdrawals.Add(t.Amt)
		}
	}

	var td models.TermData
	err := db.Where("acc_no = ? AND term = ?", acc.AccNo, term).First(&td).Error
	switch {
	case err == nil:
		m.StartBal = td.StartBal
	case errors.Is(err, gorm.ErrRecordNotFound):
		// no snapshot: derive it from the term's first transaction
		m.StartBal = acc.Bal
		if len(m.Transactions) > 0 {
			m.StartBal = m.Transactions[0].StartBal
		}
	default:
		return m, fmt.Errorf("load term data of %d: %w", acc.AccNo, err)
	}
	return m, nil
}
