package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Murdock022X/BankingWebsite/internal/format"
	"github.com/Murdock022X/BankingWebsite/internal/models"
)

// Point is the balance of an account immediately before the transaction
// it is labelled with. The final point is the current balance.
type Point struct {
	Label string          `json:"label"`
	Value decimal.Decimal `json:"value"`
}

type History struct {
	AccNo  uint    `json:"acc_no"`
	LastTx uint    `json:"last_tx"`
	Points []Point `json:"points"`
}

// Chart is the {"labels": [...], "values": [...]} shape the balance
// graph consumes.
type Chart struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

func (h *History) Chart() Chart {
	c := Chart{
		Labels: make([]string, len(h.Points)),
		Values: make([]float64, len(h.Points)),
	}
	for i, p := range h.Points {
		c.Labels[i] = p.Label
		c.Values[i] = p.Value.InexactFloat64()
	}
	return c
}

// LastTransactionNo returns the newest transaction number on accNo, 0 when
// the account has none. It changes whenever History would.
func (l *Ledger) LastTransactionNo(ctx context.Context, accNo uint) (uint, error) {
	var last struct{ N uint }
	err := l.runner.DB().WithContext(ctx).
		Model(&models.Transaction{}).
		Select("COALESCE(MAX(transaction_no), 0) AS n").
		Where("acc_no = ?", accNo).
		Scan(&last).Error
	if err != nil {
		return 0, fmt.Errorf("last transaction of %d: %w", accNo, err)
	}
	return last.N, nil
}

// History rebuilds the balance series of accNo from its transaction log by
// undoing transactions newest first, starting from the current balance.
func (l *Ledger) History(ctx context.Context, accNo uint) (*History, error) {
	db := l.runner.DB().WithContext(ctx)

	var acc models.Account
	if err := db.Where("acc_no = ?", accNo).First(&acc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load account %d: %w", accNo, err)
	}

	var txs []models.Transaction
	if err := db.Where("acc_no = ?", accNo).
		Order("transaction_no DESC").
		Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("load transactions of %d: %w", accNo, err)
	}

	h := &History{AccNo: accNo, Points: make([]Point, 0, len(txs)+1)}
	bal := acc.Bal
	h.Points = append(h.Points, Point{Label: format.ChartDate(l.now()), Value: bal})
	for i := range txs {
		bal = bal.Sub(txs[i].Signed())
		h.Points = append(h.Points, Point{Label: format.ChartDate(txs[i].Date), Value: bal})
	}
	if len(txs) > 0 {
		h.LastTx = txs[0].TransactionNo
	}

	for i, j := 0, len(h.Points)-1; i < j; i, j = i+1, j-1 {
		h.Points[i], h.Points[j] = h.Points[j], h.Points[i]
	}
	return h, nil
}
