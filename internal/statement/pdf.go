package statement

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"github.com/Murdock022X/BankingWebsite/internal/format"
	"github.com/Murdock022X/BankingWebsite/internal/models"
)

const (
	pageWidth   = 210.0
	summaryCol  = 36.0
	summaryStep = 38.5
	ledgerCol   = 23.75
	descCol     = 95.0
)

// Renderer lays a statement out on A4 pages.
type Renderer struct {
	Author   string
	Compress bool
}

func (r Renderer) Render(data *Data, w io.Writer) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(r.Compress)
	pdf.SetTitle(data.Title(), true)
	if r.Author != "" {
		pdf.SetAuthor(r.Author, true)
	}
	pdf.SetHeaderFunc(func() { header(pdf, data.Title()) })
	pdf.AddPage()

	overview(pdf, data)
	summary(pdf, data)
	transactionTables(pdf, data)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render statement for %s: %w", data.Username, err)
	}
	return nil
}

func header(pdf *fpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 20)
	w := pdf.GetStringWidth(title)
	pdf.SetY(pdf.GetY() + 5)
	pdf.SetX((pageWidth - w) / 2)
	pdf.CellFormat(w+6, 10, title, "B", 1, "C", false, 0, "")
}

func overview(pdf *fpdf.Fpdf, data *Data) {
	pdf.SetFont("Helvetica", "", 12)
	pdf.SetY(30)
	pdf.CellFormat(100, 5, "Name: "+data.Name, "", 1, "L", false, 0, "")
	pdf.CellFormat(100, 5, "Savings Total: "+format.Money(data.SavingsTotal), "", 1, "L", false, 0, "")
	pdf.CellFormat(100, 5, "Checkings Total: "+format.Money(data.CheckingsTotal), "", 0, "L", false, 0, "")
	pdf.Ln(15)
}

func accountLabel(acc models.Account) string {
	return format.AccType(acc.AccType) + " " + format.AccNo(acc.AccNo)
}

// summaryRow writes five centred columns; the third is drawn in red when
// highlight is set.
func summaryRow(pdf *fpdf.Fpdf, cols [5]string, border string, highlight bool) {
	x := 10.0
	for i, txt := range cols {
		pdf.SetX(x)
		if highlight && i == 2 {
			pdf.SetTextColor(255, 0, 0)
		}
		pdf.CellFormat(summaryCol, 5, txt, border, 0, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
		x += summaryStep
	}
	pdf.Ln(10)
}

func summary(pdf *fpdf.Fpdf, data *Data) {
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(190, 5, "Accounts Summary", "", 0, "C", false, 0, "")
	pdf.Ln(10)
	summaryRow(pdf, [5]string{"Account", "Starting Balance", "Withdrawals", "Deposits", "Ending Balance"}, "B", false)

	pdf.SetFont("Helvetica", "", 10)
	for _, m := range data.Accounts {
		summaryRow(pdf, [5]string{
			accountLabel(m.Account),
			format.Money(m.StartBal),
			format.Money(m.Withdrawals),
			format.Money(m.Deposits),
			format.Money(m.EndBal),
		}, "", true)
	}
	pdf.Ln(15)
}

func transactionTables(pdf *fpdf.Fpdf, data *Data) {
	pdf.SetFont("Helvetica", "", 12)
	pdf.SetFillColor(211, 211, 211)
	pdf.CellFormat(190, 10, "Account Transactions", "", 0, "C", false, 0, "")
	pdf.Ln(10)

	for _, m := range data.Accounts {
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(190, 5, accountLabel(m.Account), "TLRB", 1, "C", true, 0, "")
		for _, h := range []string{"Date", "Withdrawals", "Deposits", "Balance"} {
			pdf.CellFormat(ledgerCol, 5, h, "TBLR", 0, "C", true, 0, "")
		}
		pdf.CellFormat(descCol, 5, "Description", "TBLR", 1, "C", true, 0, "")

		pdf.SetFont("Helvetica", "", 8)
		for i, t := range m.Transactions {
			border := "LR"
			if i == len(m.Transactions)-1 {
				border = "BLR"
			}
			var withdrawal, deposit string
			if t.Credit() {
				deposit = format.Money(t.Amt)
			} else {
				withdrawal = format.Money(t.Amt)
			}
			pdf.CellFormat(ledgerCol, 5, format.TableDate(t.Date), border, 0, "C", true, 0, "")
			pdf.CellFormat(ledgerCol, 5, withdrawal, border, 0, "C", true, 0, "")
			pdf.CellFormat(ledgerCol, 5, deposit, border, 0, "C", true, 0, "")
			pdf.CellFormat(ledgerCol, 5, format.Money(t.EndBal), border, 0, "C", true, 0, "")
			pdf.CellFormat(descCol, 5, t.Description, border, 1, "C", true, 0, "")
		}
		pdf.Ln(5)
	}
}
