package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountType int

const (
	Savings   AccountType = 0
	Checkings AccountType = 1
)

func (t AccountType) Valid() bool {
	return t == Savings || t == Checkings
}

func (t AccountType) String() string {
	if t == Savings {
		return "Savings"
	}
	return "Checkings"
}

// Account rows are never deleted; closing flips Status to false.
type Account struct {
	AccNo     uint            `gorm:"primaryKey;column:acc_no" json:"acc_no"`
	Username  string          `gorm:"index;size:100;not null" json:"username"`
	AccType   AccountType     `gorm:"not null" json:"acc_type"`
	APY       decimal.Decimal `gorm:"column:apy;type:decimal(10,6);not null" json:"apy"`
	Bal       decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"bal"`
	MinBal    decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"min_bal"`
	Status    bool            `gorm:"not null" json:"status"` // true = open
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (a *Account) Open() bool { return a.Status }
