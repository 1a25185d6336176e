package ledger

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount reads a user supplied amount. It must be a plain positive
// number with at most two decimal places.
func ParseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, validationf("amount is required")
	}
	if strings.ContainsAny(raw, "eE") {
		return decimal.Zero, validationf("amount %q is not a number", raw)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, validationf("amount %q is not a number", raw)
	}
	if err := checkAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

func checkAmount(d decimal.Decimal) error {
	if !d.IsPositive() {
		return validationf("amount must be greater than zero")
	}
	if !d.Equal(d.Round(2)) {
		return validationf("amount must have at most two decimal places")
	}
	return nil
}
