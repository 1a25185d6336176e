// Package format turns ledger values into the strings shown to customers,
// on statements and in chart data.
package format

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Murdock022X/BankingWebsite/internal/models"
)

const (
	layoutLong  = "Monday, January, 02, 2006 03:04:05 PM UTC"
	layoutChart = "01-02-2006"
	layoutTable = "01/02/2006"
	layoutFile  = "01_02_06"
)

var hundred = decimal.NewFromInt(100)

// Money renders $12.30 and -$12.30.
func Money(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Abs().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}

// Rate renders a fractional APY as a percentage: 0.26 -> 26.00%.
func Rate(d decimal.Decimal) string {
	return d.Mul(hundred).StringFixed(2) + "%"
}

func AccNo(n uint) string {
	return fmt.Sprintf("%08d", n)
}

func AccType(t models.AccountType) string {
	return t.String()
}

func Status(open bool) string {
	if open {
		return "Open"
	}
	return "Closed"
}

// LongDate is used for transaction timestamps; t is shown in UTC.
func LongDate(t time.Time) string {
	return t.UTC().Format(layoutLong)
}

// ChartDate labels points of the balance history.
func ChartDate(t time.Time) string {
	return t.Format(layoutChart)
}

// TableDate is used in statement ledger tables.
func TableDate(t time.Time) string {
	return t.Format(layoutTable)
}

// TitleDate renders "January 2nd, 2006".
func TitleDate(t time.Time) string {
	return fmt.Sprintf("%s %d%s, %d", t.Month(), t.Day(), ordinal(t.Day()), t.Year())
}

func ordinal(day int) string {
	if day%100 >= 11 && day%100 <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}

// StatementFilename is STATEMENT_<username>_<mm_dd_yy>.pdf.
func StatementFilename(username string, on time.Time) string {
	return "STATEMENT_" + username + "_" + on.Format(layoutFile) + ".pdf"
}

// Account is the display form of an account row.
type Account struct {
	AccNo   string `json:"acc_no"`
	AccInt  uint   `json:"acc_int"`
	AccType string `json:"acc_type"`
	APY     string `json:"apy"`
	Bal     string `json:"bal"`
	MinBal  string `json:"min_bal"`
	Status  string `json:"status"`
}

func FormatAccount(a models.Account) Account {
	return Account{
		AccNo:   AccNo(a.AccNo),
		AccInt:  a.AccNo,
		AccType: AccType(a.AccType),
		APY:     Rate(a.APY),
		Bal:     Money(a.Bal),
		MinBal:  Money(a.MinBal),
		Status:  Status(a.Status),
	}
}

// Settings is the display form of the bank settings.
type Settings struct {
	SavingsAPY   string `json:"savings_apy"`
	SavingsMin   string `json:"savings_min"`
	CheckingsAPY string `json:"checkings_apy"`
	CheckingsMin string `json:"checkings_min"`
}

func FormatSettings(s models.BankSettings) Settings {
	return Settings{
		SavingsAPY:   Rate(s.SavingsAPY),
		SavingsMin:   Money(s.SavingsMin),
		CheckingsAPY: Rate(s.CheckingsAPY),
		CheckingsMin: Money(s.CheckingsMin),
	}
}
