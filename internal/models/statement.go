package models

// Statement points at a generated PDF; one row per (username, date).
type Statement struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Username string `gorm:"uniqueIndex:idx_statement_user_date;size:100;not null" json:"username"`
	Date     string `gorm:"uniqueIndex:idx_statement_user_date;size:10;not null" json:"date"` // 2006-01-02
	Name     string `gorm:"size:1000" json:"name"`
	Path     string `gorm:"size:1024;not null" json:"-"`
	Term     uint   `json:"term"`
}
