package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"sweetlive/backend/internal/domain"
	"sweetlive/backend/internal/ledger"
)

func (s *Service) ListExpenses(ctx context.Context) ([]domain.Expense, error) {
	var expenses []domain.Expense
	err := s.read(ctx, func(l *ledger.Ledger) {
		expenses = l.Expenses()
	})
	return expenses, err
}

func (s *Service) RecordExpense(ctx context.Context, req domain.ExpenseInput) (domain.Expense, error) {
	var recorded domain.Expense
	err := s.mutate(ctx, "expense_record", func(l *ledger.Ledger) error {
		var err error
		recorded, err = l.AddExpense(req)
		return err
	})
	return recorded, err
}

func (s *Service) ListStaff(ctx context.Context) ([]domain.Staff, error) {
	var staff []domain.Staff
	err := s.read(ctx, func(l *ledger.Ledger) {
		staff = l.Staff()
	})
	return staff, err
}

func (s *Service) CreateStaff(ctx context.Context, req domain.StaffInput) (domain.Staff, error) {
	var created domain.Staff
	err := s.mutate(ctx, "staff_create", func(l *ledger.Ledger) error {
		var err error
		created, err = l.AddStaff(req)
		return err
	})
	return created, err
}

// ListAttendance returns the most recent records, newest first.
func (s *Service) ListAttendance(ctx context.Context, limit int) ([]domain.Attendance, error) {
	var records []domain.Attendance
	err := s.read(ctx, func(l *ledger.Ledger) {
		records = l.RecentAttendance(limit)
	})
	return records, err
}

func (s *Service) MarkAttendance(ctx context.Context, req domain.AttendanceInput) (domain.Attendance, error) {
	var marked domain.Attendance
	err := s.mutate(ctx, "attendance_mark", func(l *ledger.Ledger) error {
		var err error
		marked, err = l.UpsertAttendance(domain.Attendance{
			StaffID: req.StaffID,
			Date:    req.Date,
			Status:  req.Status,
		})
		return err
	})
	return marked, err
}

func (s *Service) AddDeduction(ctx context.Context, staffID string, req domain.DeductionInput) (domain.Deduction, error) {
	var added domain.Deduction
	err := s.mutate(ctx, "deduction_add", func(l *ledger.Ledger) error {
		var err error
		added, err = l.AddDeduction(staffID, req)
		return err
	})
	return added, err
}

func (s *Service) PayrollSummary(ctx context.Context, staffID string) (domain.PayrollSummary, error) {
	var (
		summary domain.PayrollSummary
		err     error
	)
	readErr := s.read(ctx, func(l *ledger.Ledger) {
		summary, err = l.PayrollSummary(staffID)
	})
	if readErr != nil {
		return domain.PayrollSummary{}, readErr
	}
	return summary, err
}

// PaySalary books a salary expense. A zero amount pays the current net
// payable. A second payment in the same month is refused.
func (s *Service) PaySalary(ctx context.Context, staffID string, req domain.SalaryPaymentRequest) (domain.Expense, error) {
	var paid domain.Expense
	err := s.mutate(ctx, "salary_pay", func(l *ledger.Ledger) error {
		if _, ok := l.StaffMember(staffID); !ok {
			return fmt.Errorf("staff %s: %w", staffID, ledger.ErrNotFound)
		}
		if l.SalaryPaidThisMonth(staffID) {
			return fmt.Errorf("%w: salary already paid this month", ledger.ErrValidation)
		}
		amount := req.Amount
		if amount.IsZero() {
			net, err := l.NetPayable(staffID)
			if err != nil {
				return err
			}
			amount = net
		}
		var err error
		paid, err = l.PaySalary(staffID, amount)
		return err
	})
	if err != nil {
		return domain.Expense{}, err
	}
	s.logger.Info("salary paid", zap.String("staff_id", staffID), zap.String("amount", paid.Amount.String()))
	return paid, nil
}
