package models

import "github.com/shopspring/decimal"

// BankSettings is a single-row table; rates are fractions (0.25 = 25% APY).
type BankSettings struct {
	ID           uint            `gorm:"primaryKey" json:"-"`
	SavingsAPY   decimal.Decimal `gorm:"column:savings_apy;type:decimal(10,6);not null" json:"savings_apy"`
	CheckingsAPY decimal.Decimal `gorm:"column:checkings_apy;type:decimal(10,6);not null" json:"checkings_apy"`
	SavingsMin   decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"savings_min"`
	CheckingsMin decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"checkings_min"`
}

func (BankSettings) TableName() string { return "bank_settings" }

// For returns the APY and minimum balance that apply to new accounts of t.
func (s BankSettings) For(t AccountType) (apy, minBal decimal.Decimal) {
	if t == Checkings {
		return s.CheckingsAPY, s.CheckingsMin
	}
	return s.SavingsAPY, s.SavingsMin
}
