package ledger

import (
	"fmt"
	"strings"

	"sweetlive/backend/internal/domain"
)

// AddExpense records a manual expense dated now.
func (l *Ledger) AddExpense(in domain.ExpenseInput) (domain.Expense, error) {
	description := strings.TrimSpace(in.Description)
	if description == "" {
		return domain.Expense{}, fmt.Errorf("%w: expense description is required", ErrValidation)
	}
	if in.Amount.IsNegative() {
		return domain.Expense{}, fmt.Errorf("%w: expense amount must not be negative", ErrValidation)
	}
	category := in.Category
	if category == "" {
		category = domain.CategoryOther
	}
	if !category.Valid() {
		return domain.Expense{}, fmt.Errorf("%w: unknown expense category %q", ErrValidation, category)
	}
	expense := domain.Expense{
		ID:          l.newID("exp"),
		Description: description,
		Amount:      in.Amount,
		Category:    category,
		Date:        l.now(),
	}
	l.expenses.add(expense)
	return expense, nil
}
