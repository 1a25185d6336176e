package format

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/Murdock022X/BankingWebsite/internal/models"
)

func TestMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"12.3", "$12.30"},
		{"0", "$0.00"},
		{"-12.3", "-$12.30"},
		{"1000000.005", "$1000000.01"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Money(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestRate(t *testing.T) {
	assert.Equal(t, "26.00%", Rate(decimal.RequireFromString("0.26")))
	assert.Equal(t, "0.00%", Rate(decimal.Zero))
	assert.Equal(t, "2.50%", Rate(decimal.RequireFromString("0.025")))
}

func TestAccNo(t *testing.T) {
	assert.Equal(t, "00000001", AccNo(1))
	assert.Equal(t, "12345678", AccNo(12345678))
}

func TestStatus(t *testing.T) {
	assert.Equal(t, "Open", Status(true))
	assert.Equal(t, "Closed", Status(false))
}

func TestDates(t *testing.T) {
	ts := time.Date(2023, time.March, 2, 13, 4, 5, 0, time.UTC)

	assert.Equal(t, "Thursday, March, 02, 2023 01:04:05 PM UTC", LongDate(ts))
	assert.Equal(t, "03-02-2023", ChartDate(ts))
	assert.Equal(t, "03/02/2023", TableDate(ts))
	assert.Equal(t, "March 2nd, 2023", TitleDate(ts))
}

func TestTitleDateOrdinals(t *testing.T) {
	tests := map[int]string{
		1: "st", 2: "nd", 3: "rd", 4: "th",
		11: "th", 12: "th", 13: "th",
		21: "st", 22: "nd", 23: "rd", 31: "st",
	}
	for day, suffix := range tests {
		ts := time.Date(2024, time.January, day, 0, 0, 0, 0, time.UTC)
		assert.Contains(t, TitleDate(ts), suffix+",", "day %d", day)
	}
}

func TestStatementFilename(t *testing.T) {
	on := time.Date(2024, time.July, 9, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "STATEMENT_alice_07_09_24.pdf", StatementFilename("alice", on))
}

func TestFormatAccount(t *testing.T) {
	got := FormatAccount(models.Account{
		AccNo:   42,
		AccType: models.Checkings,
		APY:     decimal.RequireFromString("0.01"),
		Bal:     decimal.RequireFromString("10"),
		MinBal:  decimal.Zero,
		Status:  false,
	})

	assert.Equal(t, Account{
		AccNo:   "00000042",
		AccInt:  42,
		AccType: "Checkings",
		APY:     "1.00%",
		Bal:     "$10.00",
		MinBal:  "$0.00",
		Status:  "Closed",
	}, got)
}
