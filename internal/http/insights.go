package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/Murdock022X/BankingWebsite/internal/format"
	"github.com/Murdock022X/BankingWebsite/internal/models"
)

type TypeTotal struct {
	Type  string `json:"type"`
	Total string `json:"total"`
	Count int    `json:"count"`
}

type SummaryResponse struct {
	Name      string           `json:"name"`
	Savings   TypeTotal        `json:"savings"`
	Checkings TypeTotal        `json:"checkings"`
	Total     string           `json:"total"`
	Accounts  []format.Account `json:"accounts"`
	Term      uint             `json:"term"`
}

// GET /v1/summary lists every account of the user, closed ones included,
// with savings and checkings totals over the open accounts.
func (s *Server) getSummary(c *gin.Context) {
	user := currentUser(c)
	ctx := c.Request.Context()

	var accs []models.Account
	if err := s.db.WithContext(ctx).Where("username = ?", user.Username).Order("acc_no").Find(&accs).Error; err != nil {
		fail(c, err)
		return
	}
	termNo, err := s.ledger.CurrentTerm(ctx)
	if err != nil {
		fail(c, err)
		return
	}

	savings, checkings := decimal.Zero, decimal.Zero
	var nSavings, nCheckings int
	out := make([]format.Account, 0, len(accs))
	for _, a := range accs {
		out = append(out, format.FormatAccount(a))
		if !a.Open() {
			continue
		}
		if a.AccType == models.Savings {
			savings = savings.Add(a.Bal)
			nSavings++
		} else {
			checkings = checkings.Add(a.Bal)
			nCheckings++
		}
	}

	c.JSON(http.StatusOK, SummaryResponse{
		Name:      user.Name,
		Savings:   TypeTotal{Type: models.Savings.String(), Total: format.Money(savings), Count: nSavings},
		Checkings: TypeTotal{Type: models.Checkings.String(), Total: format.Money(checkings), Count: nCheckings},
		Total:     format.Money(savings.Add(checkings)),
		Accounts:  out,
		Term:      termNo,
	})
}
