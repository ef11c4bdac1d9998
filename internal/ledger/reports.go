package ledger

import (
	"github.com/shopspring/decimal"

	"sweetlive/backend/internal/domain"
)

// MonthlyStats totals the calendar month containing the ledger clock's
// current time, regardless of closings.
func (l *Ledger) MonthlyStats() domain.MonthlyStats {
	now := l.now()
	stats := domain.MonthlyStats{
		Month:         now.Format("January 2006"),
		SalesVolume:   decimal.Zero,
		CashCollected: decimal.Zero,
		Expenses:      decimal.Zero,
		WastageLoss:   decimal.Zero,
	}
	for _, s := range l.sales.items {
		if sameMonth(now, s.Date) {
			stats.SalesVolume = stats.SalesVolume.Add(s.TotalPrice)
			stats.CashCollected = stats.CashCollected.Add(s.AmountPaid)
		}
	}
	for _, e := range l.expenses.items {
		if sameMonth(now, e.Date) {
			stats.Expenses = stats.Expenses.Add(e.Amount)
		}
	}
	for _, w := range l.wastage.items {
		if sameMonth(now, w.Date) {
			stats.WastageLoss = stats.WastageLoss.Add(w.LossValue)
		}
	}
	stats.Balance = stats.CashCollected.Sub(stats.Expenses)
	return stats
}

// SalesTrend returns daily sales volume for the last days, oldest first,
// ending today.
func (l *Ledger) SalesTrend(days int) []domain.TrendPoint {
	if days < 1 {
		days = 7
	}
	now := l.now()
	loc := now.Location()
	index := make(map[string]int, days)
	points := make([]domain.TrendPoint, days)
	for i := 0; i < days; i++ {
		day := now.AddDate(0, 0, -(days - 1 - i)).Format(domain.DateLayout)
		points[i] = domain.TrendPoint{Date: day, Sales: decimal.Zero}
		index[day] = i
	}
	for _, s := range l.sales.items {
		if i, ok := index[s.Date.In(loc).Format(domain.DateLayout)]; ok {
			points[i].Sales = points[i].Sales.Add(s.TotalPrice)
		}
	}
	return points
}

func (l *Ledger) Dashboard() domain.Dashboard {
	return domain.Dashboard{
		Month:            l.MonthlyStats(),
		Active:           l.ActiveStats(),
		Stock:            l.StockSummary(),
		TotalOutstanding: l.TotalOutstanding(),
		Trend:            l.SalesTrend(7),
		RecentSales:      l.ActiveSales(10),
	}
}
