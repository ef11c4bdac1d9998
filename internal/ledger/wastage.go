package ledger

import (
	"fmt"
	"strings"

	"sweetlive/backend/internal/domain"
)

// PrepareWastage prices a write-off at the product's current price. The
// quantity may not exceed what is on the shelf.
func (l *Ledger) PrepareWastage(in domain.WastageInput) (domain.Wastage, error) {
	product, ok := l.products.find(in.ProductID)
	if !ok {
		return domain.Wastage{}, fmt.Errorf("product %s: %w", in.ProductID, ErrNotFound)
	}
	if !in.Quantity.IsPositive() {
		return domain.Wastage{}, fmt.Errorf("%w: quantity must be greater than zero", ErrValidation)
	}
	if in.Quantity.GreaterThan(product.Stock) {
		return domain.Wastage{}, fmt.Errorf("%w: wastage of %s exceeds stock %s", ErrValidation, in.Quantity, product.Stock)
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		reason = domain.WastageReasons[0]
	}
	return domain.Wastage{
		ID:          l.newID("wst"),
		ProductID:   product.ID,
		ProductName: product.Name,
		Quantity:    in.Quantity,
		Unit:        product.Unit,
		LossValue:   in.Quantity.Mul(product.Price),
		Reason:      reason,
		Date:        l.now(),
	}, nil
}

func (l *Ledger) AddWastage(entry domain.Wastage) domain.Wastage {
	if entry.ID == "" {
		entry.ID = l.newID("wst")
	}
	if entry.Date.IsZero() {
		entry.Date = l.now()
	}
	l.wastage.add(entry)
	l.adjustStock(entry.ProductID, entry.Quantity.Neg(), "wastage")
	return entry
}

// DeleteWastage removes the entry and restores its quantity to stock.
func (l *Ledger) DeleteWastage(id string) (domain.Wastage, error) {
	entry, ok := l.wastage.remove(id)
	if !ok {
		return domain.Wastage{}, fmt.Errorf("wastage %s: %w", id, ErrNotFound)
	}
	l.adjustStock(entry.ProductID, entry.Quantity, "wastage-undo")
	return entry, nil
}
