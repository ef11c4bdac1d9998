// Package export renders ledger reports as CSV and PDF tables.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf/v2"
	"github.com/shopspring/decimal"

	"sweetlive/backend/internal/domain"
)

type Report string

const (
	ReportClosings  Report = "closings"
	ReportSales     Report = "sales"
	ReportInventory Report = "inventory"
	ReportExpenses  Report = "expenses"
)

func (r Report) Valid() bool {
	switch r {
	case ReportClosings, ReportSales, ReportInventory, ReportExpenses:
		return true
	}
	return false
}

func (r Report) Title() string {
	switch r {
	case ReportClosings:
		return "Daily Closing History"
	case ReportSales:
		return "Sales Report"
	case ReportInventory:
		return "Inventory Report"
	case ReportExpenses:
		return "Expense Report"
	}
	return string(r)
}

type Table struct {
	Headers []string
	Rows    [][]string
}

func money(d decimal.Decimal) string { return d.StringFixed(2) }

func day(t time.Time) string { return t.Format(domain.DateLayout) }

func Closings(closings []domain.DailyClosing) Table {
	t := Table{Headers: []string{"Date", "Manager", "Sales", "Expenses", "Wastage", "Sys Balance", "Actual Cash", "Diff"}}
	for _, c := range closings {
		t.Rows = append(t.Rows, []string{
			c.Date,
			c.ClosedBy,
			money(c.TotalSales),
			money(c.TotalExpenses),
			money(c.TotalWastage),
			money(c.SystemBalance),
			money(c.ActualCash),
			money(c.Difference),
		})
	}
	return t
}

func Sales(sales []domain.Sale) Table {
	t := Table{Headers: []string{"Date", "Product", "Quantity", "Unit", "Total Price", "Paid", "Due", "Customer", "Payment Method"}}
	for _, s := range sales {
		customer := s.CustomerName
		if customer == "" {
			customer = "N/A"
		}
		t.Rows = append(t.Rows, []string{
			day(s.Date),
			s.ProductName,
			s.Quantity.String(),
			s.Unit,
			money(s.TotalPrice),
			money(s.AmountPaid),
			money(s.DueAmount),
			customer,
			string(s.PaymentMethod),
		})
	}
	return t
}

func Inventory(products []domain.Product) Table {
	t := Table{Headers: []string{"Product Name", "Category", "Price", "Current Stock", "Unit"}}
	for _, p := range products {
		t.Rows = append(t.Rows, []string{p.Name, p.Category, money(p.Price), p.Stock.String(), p.Unit})
	}
	return t
}

func Expenses(expenses []domain.Expense) Table {
	t := Table{Headers: []string{"Date", "Description", "Category", "Amount"}}
	for _, e := range expenses {
		t.Rows = append(t.Rows, []string{day(e.Date), e.Description, string(e.Category), money(e.Amount)})
	}
	return t
}

func WriteCSV(w io.Writer, table Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(table.Headers); err != nil {
		return err
	}
	if err := cw.WriteAll(table.Rows); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

// WritePDF lays the table out on A4, switching to landscape for wide
// tables.
func WritePDF(w io.Writer, title string, generated time.Time, table Table) error {
	orientation, width := "P", 190.0
	if len(table.Headers) > 6 {
		orientation, width = "L", 277.0
	}
	pdf := gofpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(width, 10, title, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(width, 6, fmt.Sprintf("Generated: %s", generated.Format("02-Jan-2006 03:04 PM")), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	if len(table.Headers) == 0 {
		return pdf.Output(w)
	}
	col := width / float64(len(table.Headers))

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(200, 200, 200)
	for i, h := range table.Headers {
		ln := 0
		if i == len(table.Headers)-1 {
			ln = 1
		}
		pdf.CellFormat(col, 7, h, "1", ln, "C", true, 0, "")
	}

	pdf.SetFont("Arial", "", 9)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	for _, row := range table.Rows {
		for i, cell := range row {
			ln := 0
			if i == len(row)-1 {
				ln = 1
			}
			pdf.CellFormat(col, 6, tr(clip(cell, col)), "1", ln, "L", false, 0, "")
		}
	}
	if len(table.Rows) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.CellFormat(width, 8, "No records", "1", 1, "C", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return fmt.Errorf("failed to render pdf: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// clip keeps a cell on one line; roughly 2mm per character at 9pt.
func clip(s string, width float64) string {
	limit := int(width / 2)
	if limit < 4 || len([]rune(s)) <= limit {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:limit-2])) + ".."
}
