package ledger

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"sweetlive/backend/internal/domain"
)

// CollectPayment spreads amount over the customer's unpaid sales, oldest
// first, and returns the sales it touched. A payment larger than the
// customer's total due is rejected without changing anything.
func (l *Ledger) CollectPayment(customerKey string, amount decimal.Decimal) ([]domain.Sale, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: collection amount must be greater than zero", ErrValidation)
	}

	owed := l.sales.where(func(s domain.Sale) bool {
		return s.DueAmount.IsPositive() && s.CustomerKey() == customerKey
	})
	if len(owed) == 0 {
		return nil, fmt.Errorf("customer %s: %w", customerKey, ErrNotFound)
	}
	slices.SortStableFunc(owed, func(a, b domain.Sale) int {
		return a.Date.Compare(b.Date)
	})

	totalDue := decimal.Zero
	for _, s := range owed {
		totalDue = totalDue.Add(s.DueAmount)
	}
	if amount.GreaterThan(totalDue) {
		return nil, fmt.Errorf("%w: collection %s exceeds total due %s", ErrValidation, amount, totalDue)
	}

	remaining := amount
	touched := make([]domain.Sale, 0, len(owed))
	for _, s := range owed {
		if !remaining.IsPositive() {
			break
		}
		applied := decimal.Min(s.DueAmount, remaining)
		s.AmountPaid = s.AmountPaid.Add(applied)
		s.DueAmount = s.DueAmount.Sub(applied)
		remaining = remaining.Sub(applied)
		touched = append(touched, s)
	}

	l.UpdateSales(touched)
	return touched, nil
}

// DueCustomers groups outstanding sales by customer, largest debt first.
// A non-empty search keeps groups whose name contains it (case-insensitive)
// or whose phone contains it.
func (l *Ledger) DueCustomers(search string) []domain.DueCustomer {
	groups := map[string]*domain.DueCustomer{}
	order := make([]string, 0)
	for _, s := range l.sales.items {
		if !s.DueAmount.IsPositive() {
			continue
		}
		key := s.CustomerKey()
		group, ok := groups[key]
		if !ok {
			name, phone := s.CustomerName, s.CustomerPhone
			if name == "" {
				name = "Unknown"
			}
			if phone == "" {
				phone = "None"
			}
			group = &domain.DueCustomer{Key: key, Name: name, Phone: phone, TotalDue: decimal.Zero}
			groups[key] = group
			order = append(order, key)
		}
		group.TotalDue = group.TotalDue.Add(s.DueAmount)
		group.Sales = append(group.Sales, s)
	}

	needle := strings.ToLower(strings.TrimSpace(search))
	out := make([]domain.DueCustomer, 0, len(groups))
	for _, key := range order {
		group := groups[key]
		if needle != "" && !strings.Contains(strings.ToLower(group.Name), needle) && !strings.Contains(group.Phone, needle) {
			continue
		}
		slices.SortStableFunc(group.Sales, func(a, b domain.Sale) int {
			return a.Date.Compare(b.Date)
		})
		out = append(out, *group)
	}
	slices.SortStableFunc(out, func(a, b domain.DueCustomer) int {
		return b.TotalDue.Cmp(a.TotalDue)
	})
	return out
}

func (l *Ledger) TotalOutstanding() decimal.Decimal {
	total := decimal.Zero
	for _, s := range l.sales.items {
		if s.DueAmount.IsPositive() {
			total = total.Add(s.DueAmount)
		}
	}
	return total
}
