package models

import "github.com/shopspring/decimal"

// TermData records an account's balance at the start of a term.
type TermData struct {
	ID       uint            `gorm:"primaryKey" json:"id"`
	AccNo    uint            `gorm:"uniqueIndex:idx_term_data_acc_term;not null" json:"acc_no"`
	Term     uint            `gorm:"uniqueIndex:idx_term_data_acc_term;not null" json:"term"`
	StartBal decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"start_bal"`
}

func (TermData) TableName() string { return "term_data" }

// CurrTerm is a single-row table holding the active term counter.
type CurrTerm struct {
	ID   uint `gorm:"primaryKey" json:"id"`
	Term uint `gorm:"not null" json:"term"`
}

func (CurrTerm) TableName() string { return "curr_term" }
