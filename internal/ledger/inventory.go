package ledger

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"sweetlive/backend/internal/domain"
)

// LowStockThreshold is the stock level under which a product is flagged.
var LowStockThreshold = decimal.NewFromInt(10)

func (l *Ledger) AddProduct(in domain.ProductInput) (domain.Product, error) {
	product := domain.Product{
		ID:       l.newID("prd"),
		Name:     strings.TrimSpace(in.Name),
		Category: strings.TrimSpace(in.Category),
		Price:    in.Price,
		Stock:    in.Stock,
		Unit:     strings.TrimSpace(in.Unit),
	}
	if product.Unit == "" {
		product.Unit = domain.DefaultUnit
	}
	if err := validateProduct(product); err != nil {
		return domain.Product{}, err
	}
	l.products.add(product)
	return product, nil
}

// UpdateProduct replaces the stored product with the same id. Historical
// sales and wastage keep their own copies of name, unit and price.
func (l *Ledger) UpdateProduct(product domain.Product) (domain.Product, error) {
	product.Name = strings.TrimSpace(product.Name)
	product.Category = strings.TrimSpace(product.Category)
	if product.Unit == "" {
		product.Unit = domain.DefaultUnit
	}
	if err := validateProduct(product); err != nil {
		return domain.Product{}, err
	}
	if !l.products.replace(product) {
		return domain.Product{}, fmt.Errorf("product %s: %w", product.ID, ErrNotFound)
	}
	return product, nil
}

func (l *Ledger) DeleteProduct(id string) (domain.Product, error) {
	product, ok := l.products.remove(id)
	if !ok {
		return domain.Product{}, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return product, nil
}

func (l *Ledger) Products() []domain.Product {
	return l.products.all()
}

func (l *Ledger) Product(id string) (domain.Product, bool) {
	return l.products.find(id)
}

func (l *Ledger) LowStock() []domain.Product {
	return l.products.where(func(p domain.Product) bool {
		return p.Stock.LessThan(LowStockThreshold)
	})
}

func (l *Ledger) StockSummary() domain.StockSummary {
	summary := domain.StockSummary{
		TotalValue:    decimal.Zero,
		TotalQuantity: decimal.Zero,
		TotalItems:    l.products.len(),
	}
	for _, p := range l.products.items {
		summary.TotalValue = summary.TotalValue.Add(p.Price.Mul(p.Stock))
		summary.TotalQuantity = summary.TotalQuantity.Add(p.Stock)
		if p.Stock.LessThan(LowStockThreshold) {
			summary.LowStockCount++
		}
	}
	return summary
}

// SortProducts orders a product list by one of name_asc, name_desc,
// price_asc or price_desc. Unknown orders leave the list untouched.
func SortProducts(products []domain.Product, order string) {
	switch order {
	case "name_asc":
		slices.SortStableFunc(products, func(a, b domain.Product) int {
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		})
	case "name_desc":
		slices.SortStableFunc(products, func(a, b domain.Product) int {
			return strings.Compare(strings.ToLower(b.Name), strings.ToLower(a.Name))
		})
	case "price_asc":
		slices.SortStableFunc(products, func(a, b domain.Product) int {
			return a.Price.Cmp(b.Price)
		})
	case "price_desc":
		slices.SortStableFunc(products, func(a, b domain.Product) int {
			return b.Price.Cmp(a.Price)
		})
	}
}

// adjustStock moves a product's stock by delta and clamps the result at
// zero. Missing products are ignored so that history referring to a deleted
// product can still be reversed.
func (l *Ledger) adjustStock(productID string, delta decimal.Decimal, source string) {
	l.products.update(productID, func(p *domain.Product) {
		next := p.Stock.Add(delta)
		if next.IsNegative() {
			if l.onOverdraw != nil {
				l.onOverdraw(domain.Overdraw{
					ProductID:   p.ID,
					ProductName: p.Name,
					Stock:       p.Stock,
					Withdrawn:   delta.Neg(),
					Source:      source,
				})
			}
			next = decimal.Zero
		}
		p.Stock = next
	})
}

func validateProduct(p domain.Product) error {
	if p.ID == "" {
		return fmt.Errorf("%w: product id is required", ErrValidation)
	}
	if p.Name == "" {
		return fmt.Errorf("%w: product name is required", ErrValidation)
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	if p.Stock.IsNegative() {
		return fmt.Errorf("%w: stock must not be negative", ErrValidation)
	}
	return nil
}
