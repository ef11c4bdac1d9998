package ledger

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"sweetlive/backend/internal/domain"
)

// LastClosingTimestamp is the latest closing timestamp, or the zero time
// when the workspace has never been closed.
func (l *Ledger) LastClosingTimestamp() time.Time {
	var last time.Time
	for _, c := range l.closings.items {
		if c.Timestamp.After(last) {
			last = c.Timestamp
		}
	}
	return last
}

// ActiveStats totals every sale, expense and wastage entry dated strictly
// after the last closing. Wastage is reported but does not reduce the
// balance.
func (l *Ledger) ActiveStats() domain.ActiveStats {
	cutoff := l.LastClosingTimestamp()
	stats := domain.ActiveStats{
		Since:         cutoff,
		Sales:         decimal.Zero,
		CashCollected: decimal.Zero,
		Expenses:      decimal.Zero,
		Wastage:       decimal.Zero,
	}
	for _, s := range l.sales.items {
		if s.Date.After(cutoff) {
			stats.Sales = stats.Sales.Add(s.TotalPrice)
			stats.CashCollected = stats.CashCollected.Add(s.AmountPaid)
			stats.Count++
		}
	}
	for _, e := range l.expenses.items {
		if e.Date.After(cutoff) {
			stats.Expenses = stats.Expenses.Add(e.Amount)
			stats.Count++
		}
	}
	for _, w := range l.wastage.items {
		if w.Date.After(cutoff) {
			stats.Wastage = stats.Wastage.Add(w.LossValue)
			stats.Count++
		}
	}
	stats.Balance = stats.CashCollected.Sub(stats.Expenses)
	return stats
}

// CloseDay settles the active session against the cash counted by the
// manager. A session with no activity still produces a closing record.
func (l *Ledger) CloseDay(actualCash decimal.Decimal, closedBy string) (domain.DailyClosing, error) {
	if actualCash.IsNegative() {
		return domain.DailyClosing{}, fmt.Errorf("%w: actual cash must not be negative", ErrValidation)
	}
	stats := l.ActiveStats()
	now := l.now()
	closing := domain.DailyClosing{
		ID:                 l.newID("cls"),
		Date:               now.Format(domain.DateLayout),
		TotalSales:         stats.Sales,
		TotalCashCollected: stats.CashCollected,
		TotalExpenses:      stats.Expenses,
		TotalWastage:       stats.Wastage,
		SystemBalance:      stats.Balance,
		ActualCash:         actualCash,
		Difference:         actualCash.Sub(stats.Balance),
		ClosedBy:           strings.TrimSpace(closedBy),
		Timestamp:          now,
	}
	l.closings.add(closing)
	return closing, nil
}

// UndoClosing deletes a closing. Entries from its window become active
// again because the cutoff is recomputed from the remaining closings.
func (l *Ledger) UndoClosing(id string) (domain.DailyClosing, error) {
	closing, ok := l.closings.remove(id)
	if !ok {
		return domain.DailyClosing{}, fmt.Errorf("closing %s: %w", id, ErrNotFound)
	}
	return closing, nil
}

// UndoLastClosing deletes the closing with the latest timestamp.
func (l *Ledger) UndoLastClosing() (domain.DailyClosing, error) {
	latest, ok := l.LatestClosing()
	if !ok {
		return domain.DailyClosing{}, fmt.Errorf("closing: %w", ErrNotFound)
	}
	return l.UndoClosing(latest.ID)
}

func (l *Ledger) LatestClosing() (domain.DailyClosing, bool) {
	if l.closings.len() == 0 {
		return domain.DailyClosing{}, false
	}
	latest := l.closings.items[0]
	for _, c := range l.closings.items[1:] {
		if c.Timestamp.After(latest.Timestamp) {
			latest = c
		}
	}
	return latest, true
}

// ClosingHistory lists closings newest first.
func (l *Ledger) ClosingHistory() []domain.DailyClosing {
	history := l.closings.all()
	slices.SortStableFunc(history, func(a, b domain.DailyClosing) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	return history
}

// ActiveSales returns up to n sales from the open session, newest first.
func (l *Ledger) ActiveSales(n int) []domain.Sale {
	cutoff := l.LastClosingTimestamp()
	active := l.sales.where(func(s domain.Sale) bool { return s.Date.After(cutoff) })
	slices.Reverse(active)
	if n > 0 && len(active) > n {
		active = active[:n]
	}
	return active
}
