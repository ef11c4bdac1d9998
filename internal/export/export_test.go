package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sweetlive/backend/internal/domain"
)

func TestSalesTableUsesNAForWalkIns(t *testing.T) {
	at := time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC)
	table := Sales([]domain.Sale{
		{ProductName: "Bun", Quantity: decimal.NewFromInt(2), Unit: "pcs", TotalPrice: decimal.NewFromInt(20), AmountPaid: decimal.NewFromInt(20), PaymentMethod: domain.PaymentCash, Date: at},
		{ProductName: "Cake", Quantity: decimal.NewFromInt(1), Unit: "pcs", TotalPrice: decimal.NewFromInt(650), AmountPaid: decimal.NewFromInt(600), DueAmount: decimal.NewFromInt(50), CustomerName: "Rahim", PaymentMethod: domain.PaymentMobile, Date: at},
	})

	require.Len(t, table.Rows, 2)
	assert.Equal(t, "N/A", table.Rows[0][7])
	assert.Equal(t, "Rahim", table.Rows[1][7])
	assert.Equal(t, "50.00", table.Rows[1][6])
	assert.Equal(t, "2026-03-14", table.Rows[0][0])
}

func TestWriteCSVQuotesCells(t *testing.T) {
	table := Expenses([]domain.Expense{{Description: "Flour, 2 sacks", Amount: decimal.NewFromInt(1200), Category: domain.CategoryRawMaterial}})

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, table))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"Date", "Description", "Category", "Amount"}, records[0])
	assert.Equal(t, "Flour, 2 sacks", records[1][1])
	assert.Equal(t, "1200.00", records[1][3])
}

func TestClosingsColumns(t *testing.T) {
	table := Closings([]domain.DailyClosing{{Date: "2026-03-14", ClosedBy: "manager", Difference: decimal.NewFromInt(-5)}})
	assert.Len(t, table.Headers, 8)
	assert.Equal(t, "-5.00", table.Rows[0][7])
}

func TestWritePDFProducesDocument(t *testing.T) {
	table := Inventory([]domain.Product{{Name: "Bun", Category: "Bread", Price: decimal.NewFromInt(10), Stock: decimal.NewFromInt(3), Unit: "pcs"}})

	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, ReportInventory.Title(), time.Now(), table))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestReportValid(t *testing.T) {
	assert.True(t, ReportSales.Valid())
	assert.False(t, Report("payroll").Valid())
}
