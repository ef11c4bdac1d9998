package service

import (
	"context"

	"go.uber.org/zap"

	"sweetlive/backend/internal/domain"
	"sweetlive/backend/internal/ledger"
)

func (s *Service) ListProducts(ctx context.Context, order string) ([]domain.Product, error) {
	var products []domain.Product
	err := s.read(ctx, func(l *ledger.Ledger) {
		products = l.Products()
	})
	if err != nil {
		return nil, err
	}
	ledger.SortProducts(products, order)
	return products, nil
}

func (s *Service) LowStock(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	err := s.read(ctx, func(l *ledger.Ledger) {
		products = l.LowStock()
	})
	return products, err
}

func (s *Service) StockSummary(ctx context.Context) (domain.StockSummary, error) {
	var summary domain.StockSummary
	err := s.read(ctx, func(l *ledger.Ledger) {
		summary = l.StockSummary()
	})
	return summary, err
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductInput) (domain.Product, error) {
	var created domain.Product
	err := s.mutate(ctx, "product_create", func(l *ledger.Ledger) error {
		var err error
		created, err = l.AddProduct(req)
		return err
	})
	if err != nil {
		return domain.Product{}, err
	}
	s.logger.Info("product created", zap.String("product_id", created.ID), zap.String("name", created.Name))
	return created, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductInput) (domain.Product, error) {
	var updated domain.Product
	err := s.mutate(ctx, "product_update", func(l *ledger.Ledger) error {
		var err error
		updated, err = l.UpdateProduct(domain.Product{
			ID:       id,
			Name:     req.Name,
			Category: req.Category,
			Price:    req.Price,
			Stock:    req.Stock,
			Unit:     req.Unit,
		})
		return err
	})
	return updated, err
}

func (s *Service) DeleteProduct(ctx context.Context, id string, confirm domain.Confirmation) (domain.Product, error) {
	if err := requireConfirmation(confirm); err != nil {
		return domain.Product{}, err
	}
	var deleted domain.Product
	err := s.mutate(ctx, "product_delete", func(l *ledger.Ledger) error {
		var err error
		deleted, err = l.DeleteProduct(id)
		return err
	})
	if err != nil {
		return domain.Product{}, err
	}
	s.logger.Info("product deleted", zap.String("product_id", deleted.ID), zap.String("name", deleted.Name))
	return deleted, nil
}

func (s *Service) ListWastage(ctx context.Context) ([]domain.Wastage, error) {
	var entries []domain.Wastage
	err := s.read(ctx, func(l *ledger.Ledger) {
		entries = l.Wastage()
	})
	return entries, err
}

func (s *Service) RecordWastage(ctx context.Context, req domain.WastageInput) (domain.Wastage, error) {
	var recorded domain.Wastage
	err := s.mutate(ctx, "wastage_record", func(l *ledger.Ledger) error {
		entry, err := l.PrepareWastage(req)
		if err != nil {
			return err
		}
		recorded = l.AddWastage(entry)
		return nil
	})
	return recorded, err
}

func (s *Service) DeleteWastage(ctx context.Context, id string, confirm domain.Confirmation) (domain.Wastage, error) {
	if err := requireConfirmation(confirm); err != nil {
		return domain.Wastage{}, err
	}
	var deleted domain.Wastage
	err := s.mutate(ctx, "wastage_delete", func(l *ledger.Ledger) error {
		var err error
		deleted, err = l.DeleteWastage(id)
		return err
	})
	return deleted, err
}
