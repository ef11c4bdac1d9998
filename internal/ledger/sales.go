package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"sweetlive/backend/internal/domain"
)

// dueTolerance is the smallest outstanding amount that makes a sale a
// credit sale requiring a customer name.
var dueTolerance = decimal.RequireFromString("0.01")

// PrepareSale builds a sale from counter input against the current product
// record. It performs the checks the counter enforces before a sale is
// recorded; AddSale itself does not repeat them.
func (l *Ledger) PrepareSale(in domain.SaleInput) (domain.Sale, error) {
	product, ok := l.products.find(in.ProductID)
	if !ok {
		return domain.Sale{}, fmt.Errorf("product %s: %w", in.ProductID, ErrNotFound)
	}
	if !in.Quantity.IsPositive() {
		return domain.Sale{}, fmt.Errorf("%w: quantity must be greater than zero", ErrValidation)
	}
	if in.Quantity.GreaterThan(product.Stock) {
		return domain.Sale{}, fmt.Errorf("%w: not enough stock for %s (have %s, want %s)",
			ErrValidation, product.Name, product.Stock, in.Quantity)
	}

	method := in.PaymentMethod
	if method == "" {
		method = domain.PaymentCash
	}
	if !method.Valid() {
		return domain.Sale{}, fmt.Errorf("%w: unknown payment method %q", ErrValidation, method)
	}

	total := in.Quantity.Mul(product.Price)
	paid := total
	if in.AmountPaid != nil {
		paid = *in.AmountPaid
	}
	if paid.IsNegative() {
		return domain.Sale{}, fmt.Errorf("%w: amount paid must not be negative", ErrValidation)
	}
	if paid.GreaterThan(total) {
		return domain.Sale{}, fmt.Errorf("%w: amount paid exceeds total price %s", ErrValidation, total)
	}
	due := total.Sub(paid)

	unit := product.Unit
	if unit == "" {
		unit = domain.DefaultUnit
	}
	sale := domain.Sale{
		ID:            l.newID("sale"),
		ProductID:     product.ID,
		ProductName:   product.Name,
		Quantity:      in.Quantity,
		Unit:          unit,
		TotalPrice:    total,
		AmountPaid:    paid,
		DueAmount:     due,
		PaymentMethod: method,
		Date:          l.now(),
	}
	if due.GreaterThan(dueTolerance) {
		name := strings.TrimSpace(in.CustomerName)
		if name == "" {
			return domain.Sale{}, fmt.Errorf("%w: customer name is required for due sales", ErrValidation)
		}
		sale.CustomerName = name
		sale.CustomerPhone = strings.TrimSpace(in.CustomerPhone)
	}
	return sale, nil
}

// AddSale records the sale and takes its quantity out of stock.
func (l *Ledger) AddSale(sale domain.Sale) domain.Sale {
	if sale.ID == "" {
		sale.ID = l.newID("sale")
	}
	if sale.Date.IsZero() {
		sale.Date = l.now()
	}
	if sale.Unit == "" {
		sale.Unit = domain.DefaultUnit
	}
	l.sales.add(sale)
	l.adjustStock(sale.ProductID, sale.Quantity.Neg(), "sale")
	return sale
}

// CancelSale deletes the sale and puts its full quantity back into stock,
// whatever has been collected against it since.
func (l *Ledger) CancelSale(id string) (domain.Sale, error) {
	sale, ok := l.sales.remove(id)
	if !ok {
		return domain.Sale{}, fmt.Errorf("sale %s: %w", id, ErrNotFound)
	}
	l.adjustStock(sale.ProductID, sale.Quantity, "cancel")
	return sale, nil
}

func (l *Ledger) UpdateSale(sale domain.Sale) error {
	if !l.sales.replace(sale) {
		return fmt.Errorf("sale %s: %w", sale.ID, ErrNotFound)
	}
	return nil
}

// UpdateSales replaces each given sale by id. Unknown ids are skipped.
func (l *Ledger) UpdateSales(sales []domain.Sale) int {
	updated := 0
	for _, sale := range sales {
		if l.sales.replace(sale) {
			updated++
		}
	}
	return updated
}
