package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"sweetlive/backend/internal/domain"
	"sweetlive/backend/internal/export"
	"sweetlive/backend/internal/ledger"
)

// ActiveSession is the running window since the last closing.
type ActiveSession struct {
	Stats domain.ActiveStats `json:"stats"`
	Sales []domain.Sale      `json:"sales"`
}

func (s *Service) ActiveSession(ctx context.Context, limit int) (ActiveSession, error) {
	var out ActiveSession
	err := s.read(ctx, func(l *ledger.Ledger) {
		out.Stats = l.ActiveStats()
		out.Sales = l.ActiveSales(limit)
	})
	return out, err
}

func (s *Service) ListClosings(ctx context.Context) ([]domain.DailyClosing, error) {
	var closings []domain.DailyClosing
	err := s.read(ctx, func(l *ledger.Ledger) {
		closings = l.ClosingHistory()
	})
	return closings, err
}

// CloseDay settles the active window and archives the resulting snapshot.
// Archive failures are logged and do not undo the closing.
func (s *Service) CloseDay(ctx context.Context, req domain.ClosingInput) (domain.DailyClosing, error) {
	closedBy, err := workspaceFromContext(ctx)
	if err != nil {
		return domain.DailyClosing{}, err
	}
	var (
		closing  domain.DailyClosing
		snapshot domain.Snapshot
	)
	err = s.mutate(ctx, "day_close", func(l *ledger.Ledger) error {
		var err error
		closing, err = l.CloseDay(req.ActualCash, closedBy)
		if err != nil {
			return err
		}
		snapshot = l.Snapshot()
		return nil
	})
	if err != nil {
		return domain.DailyClosing{}, err
	}

	workspace := closing.ClosedBy
	s.logger.Info("day closed",
		zap.String("workspace", workspace),
		zap.String("closing_id", closing.ID),
		zap.String("system_balance", closing.SystemBalance.String()),
		zap.String("difference", closing.Difference.String()),
	)
	if err := s.archiver.Archive(ctx, workspace, snapshot, closing.Timestamp); err != nil {
		s.logger.Error("failed to archive closing snapshot", zap.String("workspace", workspace), zap.Error(err))
	}
	return closing, nil
}

func (s *Service) UndoClosing(ctx context.Context, id string, confirm domain.Confirmation) (domain.DailyClosing, error) {
	if err := requireConfirmation(confirm); err != nil {
		return domain.DailyClosing{}, err
	}
	var undone domain.DailyClosing
	err := s.mutate(ctx, "day_reopen", func(l *ledger.Ledger) error {
		var err error
		undone, err = l.UndoClosing(id)
		return err
	})
	if err != nil {
		return domain.DailyClosing{}, err
	}
	s.logger.Warn("closing undone", zap.String("closing_id", undone.ID), zap.String("date", undone.Date))
	return undone, nil
}

// UndoLastClosing reopens the most recent closing.
func (s *Service) UndoLastClosing(ctx context.Context, confirm domain.Confirmation) (domain.DailyClosing, error) {
	if err := requireConfirmation(confirm); err != nil {
		return domain.DailyClosing{}, err
	}
	var undone domain.DailyClosing
	err := s.mutate(ctx, "day_reopen", func(l *ledger.Ledger) error {
		var err error
		undone, err = l.UndoLastClosing()
		return err
	})
	if err != nil {
		return domain.DailyClosing{}, err
	}
	s.logger.Warn("closing undone", zap.String("closing_id", undone.ID), zap.String("date", undone.Date))
	return undone, nil
}

func (s *Service) Dashboard(ctx context.Context) (domain.Dashboard, error) {
	var dashboard domain.Dashboard
	err := s.read(ctx, func(l *ledger.Ledger) {
		dashboard = l.Dashboard()
	})
	return dashboard, err
}

// Export builds the table for a report from the current ledger.
func (s *Service) Export(ctx context.Context, report export.Report) (export.Table, error) {
	if !report.Valid() {
		return export.Table{}, fmt.Errorf("%w: unknown report %q", ledger.ErrValidation, report)
	}
	var table export.Table
	err := s.read(ctx, func(l *ledger.Ledger) {
		switch report {
		case export.ReportClosings:
			table = export.Closings(l.ClosingHistory())
		case export.ReportSales:
			table = export.Sales(l.Sales())
		case export.ReportInventory:
			table = export.Inventory(l.Products())
		case export.ReportExpenses:
			table = export.Expenses(l.Expenses())
		}
	})
	return table, err
}

// Insights asks the advisor about a copy of the workspace data. The
// session lock is released before the generator is called.
func (s *Service) Insights(ctx context.Context) (domain.InsightResponse, error) {
	workspace, err := workspaceFromContext(ctx)
	if err != nil {
		return domain.InsightResponse{}, err
	}
	var snapshot domain.Snapshot
	if err := s.read(ctx, func(l *ledger.Ledger) {
		snapshot = l.Snapshot()
	}); err != nil {
		return domain.InsightResponse{}, err
	}
	return s.advisor.Insights(ctx, workspace, snapshot.Products, snapshot.Sales, snapshot.Expenses), nil
}
