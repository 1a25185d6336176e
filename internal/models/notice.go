package models

import "time"

// Alert is broadcast to every user.
type Alert struct {
	ID      uint      `gorm:"primaryKey" json:"id"`
	Date    time.Time `json:"date"`
	Content string    `gorm:"type:text" json:"content"`
}

// Message is addressed to a single user.
type Message struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	Username string    `gorm:"index;size:100;not null" json:"username"`
	Date     time.Time `json:"date"`
	Content  string    `gorm:"type:text" json:"content"`
}

// All lists every model managed by migrations.
func All() []any {
	return []any{
		&User{}, &Account{}, &Transaction{}, &TermData{}, &CurrTerm{},
		&BankSettings{}, &Statement{}, &Alert{}, &Message{},
	}
}
