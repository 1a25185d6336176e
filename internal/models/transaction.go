package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind says which operation wrote a transaction. It is set by
// the ledger only; descriptions are free text from the customer.
type TransactionKind string

const (
	KindDeposit    TransactionKind = "deposit"
	KindWithdrawal TransactionKind = "withdrawal"
	KindTransfer   TransactionKind = "transfer"
	KindDividend   TransactionKind = "dividend"
)

// Transaction is the immutable audit record of one balance mutation.
// Amt is always positive; WithdrawalDeposit carries the direction
// (true = credit, false = debit).
type Transaction struct {
	TransactionNo     uint            `gorm:"primaryKey;column:transaction_no" json:"transaction_no"`
	Date              time.Time       `gorm:"not null" json:"date"`
	AccNo             uint            `gorm:"index;not null" json:"acc_no"`
	Amt               decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amt"`
	StartBal          decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"start_bal"`
	EndBal            decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"end_bal"`
	WithdrawalDeposit bool            `gorm:"not null" json:"withdrawal_deposit"`
	Description       string          `gorm:"size:1000" json:"description"`
	Kind              TransactionKind `gorm:"size:20;index;not null;default:deposit" json:"kind"`
	Term              uint            `gorm:"index;not null" json:"term"`
}

func (t *Transaction) Credit() bool { return t.WithdrawalDeposit }

// Signed returns the effect of the transaction on the account balance.
func (t *Transaction) Signed() decimal.Decimal {
	if t.WithdrawalDeposit {
		return t.Amt
	}
	return t.Amt.Neg()
}
