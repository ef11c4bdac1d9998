package service

import (
	"context"
	"slices"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"sweetlive/backend/internal/domain"
	"sweetlive/backend/internal/ledger"
)

// ListSales returns sales newest first. A positive limit truncates the list.
func (s *Service) ListSales(ctx context.Context, limit int) ([]domain.Sale, error) {
	var sales []domain.Sale
	err := s.read(ctx, func(l *ledger.Ledger) {
		sales = l.Sales()
	})
	if err != nil {
		return nil, err
	}
	slices.Reverse(sales)
	if limit > 0 && len(sales) > limit {
		sales = sales[:limit]
	}
	return sales, nil
}

func (s *Service) RecordSale(ctx context.Context, req domain.SaleInput) (domain.Sale, error) {
	var recorded domain.Sale
	err := s.mutate(ctx, "sale_record", func(l *ledger.Ledger) error {
		sale, err := l.PrepareSale(req)
		if err != nil {
			return err
		}
		recorded = l.AddSale(sale)
		return nil
	})
	if err != nil {
		return domain.Sale{}, err
	}
	if recorded.DueAmount.IsPositive() {
		s.logger.Info("credit sale recorded",
			zap.String("sale_id", recorded.ID),
			zap.String("customer", recorded.CustomerKey()),
			zap.String("due", recorded.DueAmount.String()),
		)
	}
	return recorded, nil
}

func (s *Service) CancelSale(ctx context.Context, id string, confirm domain.Confirmation) (domain.Sale, error) {
	if err := requireConfirmation(confirm); err != nil {
		return domain.Sale{}, err
	}
	var cancelled domain.Sale
	err := s.mutate(ctx, "sale_cancel", func(l *ledger.Ledger) error {
		var err error
		cancelled, err = l.CancelSale(id)
		return err
	})
	if err != nil {
		return domain.Sale{}, err
	}
	s.logger.Info("sale cancelled", zap.String("sale_id", cancelled.ID), zap.String("quantity", cancelled.Quantity.String()))
	return cancelled, nil
}

func (s *Service) DueCustomers(ctx context.Context, search string) ([]domain.DueCustomer, decimal.Decimal, error) {
	var (
		groups []domain.DueCustomer
		total  decimal.Decimal
	)
	err := s.read(ctx, func(l *ledger.Ledger) {
		groups = l.DueCustomers(search)
		total = l.TotalOutstanding()
	})
	return groups, total, err
}

// CollectPayment settles a customer's dues oldest sale first and returns
// the sales it touched.
func (s *Service) CollectPayment(ctx context.Context, req domain.CollectPaymentRequest) ([]domain.Sale, error) {
	var touched []domain.Sale
	err := s.mutate(ctx, "due_collect", func(l *ledger.Ledger) error {
		var err error
		touched, err = l.CollectPayment(req.CustomerKey, req.Amount)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("due payment collected",
		zap.String("customer", req.CustomerKey),
		zap.String("amount", req.Amount.String()),
		zap.Int("sales", len(touched)),
	)
	return touched, nil
}
