package ledger

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"sweetlive/backend/internal/domain"
)

func (l *Ledger) AddStaff(in domain.StaffInput) (domain.Staff, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Staff{}, fmt.Errorf("%w: staff name is required", ErrValidation)
	}
	if in.MonthlySalary.IsNegative() {
		return domain.Staff{}, fmt.Errorf("%w: monthly salary must not be negative", ErrValidation)
	}
	joined := l.now()
	if in.JoinDate != nil && !in.JoinDate.IsZero() {
		joined = *in.JoinDate
	}
	member := domain.Staff{
		ID:            l.newID("stf"),
		Name:          name,
		Designation:   strings.TrimSpace(in.Designation),
		MonthlySalary: in.MonthlySalary,
		JoinDate:      joined,
	}
	l.staff.add(member)
	return member, nil
}

// UpsertAttendance drops any record for the same staff member and day and
// appends the new one.
func (l *Ledger) UpsertAttendance(record domain.Attendance) (domain.Attendance, error) {
	if _, ok := l.staff.find(record.StaffID); !ok {
		return domain.Attendance{}, fmt.Errorf("staff %s: %w", record.StaffID, ErrNotFound)
	}
	if !record.Status.Valid() {
		return domain.Attendance{}, fmt.Errorf("%w: unknown attendance status %q", ErrValidation, record.Status)
	}
	if _, err := time.Parse(domain.DateLayout, record.Date); err != nil {
		return domain.Attendance{}, fmt.Errorf("%w: attendance date must be YYYY-MM-DD", ErrValidation)
	}
	if record.ID == "" {
		record.ID = l.newID("att")
	}
	l.attendance.removeWhere(func(a domain.Attendance) bool {
		return a.StaffID == record.StaffID && a.Date == record.Date
	})
	l.attendance.add(record)
	return record, nil
}

// AttendanceStatus reports the status recorded for a day, or "Not Marked".
func (l *Ledger) AttendanceStatus(staffID, date string) domain.AttendanceStatus {
	for _, a := range l.attendance.items {
		if a.StaffID == staffID && a.Date == date {
			return a.Status
		}
	}
	return domain.StatusNotMarked
}

// RecentAttendance returns up to n records, latest day first. Records for
// the same day keep newest-recorded first.
func (l *Ledger) RecentAttendance(n int) []domain.Attendance {
	all := l.attendance.all()
	slices.Reverse(all)
	slices.SortStableFunc(all, func(a, b domain.Attendance) int {
		return strings.Compare(b.Date, a.Date)
	})
	if n > 0 && len(all) > n {
		all = all[:n]
	}
	return all
}

func (l *Ledger) AddDeduction(staffID string, in domain.DeductionInput) (domain.Deduction, error) {
	if _, ok := l.staff.find(staffID); !ok {
		return domain.Deduction{}, fmt.Errorf("staff %s: %w", staffID, ErrNotFound)
	}
	if !in.Amount.IsPositive() {
		return domain.Deduction{}, fmt.Errorf("%w: deduction amount must be greater than zero", ErrValidation)
	}
	deduction := domain.Deduction{
		ID:      l.newID("ded"),
		StaffID: staffID,
		Amount:  in.Amount,
		Reason:  strings.TrimSpace(in.Reason),
		Date:    l.now(),
	}
	l.deductions.add(deduction)
	return deduction, nil
}

// CurrentMonthDeductions lists this month's deductions for a staff member,
// newest first.
func (l *Ledger) CurrentMonthDeductions(staffID string) []domain.Deduction {
	now := l.now()
	out := l.deductions.where(func(d domain.Deduction) bool {
		return d.StaffID == staffID && sameMonth(now, d.Date)
	})
	slices.SortStableFunc(out, func(a, b domain.Deduction) int {
		return b.Date.Compare(a.Date)
	})
	return out
}

// NetPayable is the monthly salary less this month's deductions.
func (l *Ledger) NetPayable(staffID string) (decimal.Decimal, error) {
	member, ok := l.staff.find(staffID)
	if !ok {
		return decimal.Zero, fmt.Errorf("staff %s: %w", staffID, ErrNotFound)
	}
	net := member.MonthlySalary
	for _, d := range l.CurrentMonthDeductions(staffID) {
		net = net.Sub(d.Amount)
	}
	return net, nil
}

// SalaryDescription is the text written on a salary expense. Payroll
// history is recovered by matching on it.
func SalaryDescription(name string, at time.Time) string {
	return fmt.Sprintf("Salary Payment: %s (%s %d)", name, at.Month().String(), at.Year())
}

// SalaryHistory lists Salary expenses whose description mentions the staff
// member's name, case-insensitively, newest first. Staff sharing a name
// fragment see each other's payments.
func (l *Ledger) SalaryHistory(staffID string) []domain.Expense {
	member, ok := l.staff.find(staffID)
	if !ok {
		return []domain.Expense{}
	}
	name := strings.ToLower(member.Name)
	out := l.expenses.where(func(e domain.Expense) bool {
		return e.Category == domain.CategorySalary && strings.Contains(strings.ToLower(e.Description), name)
	})
	slices.SortStableFunc(out, func(a, b domain.Expense) int {
		return b.Date.Compare(a.Date)
	})
	return out
}

// SalaryPaidThisMonth reports whether any matched salary expense mentions
// the current month name and year.
func (l *Ledger) SalaryPaidThisMonth(staffID string) bool {
	now := l.now()
	month := now.Month().String()
	year := strconv.Itoa(now.Year())
	for _, e := range l.SalaryHistory(staffID) {
		if strings.Contains(e.Description, month) && strings.Contains(e.Description, year) {
			return true
		}
	}
	return false
}

func (l *Ledger) TotalSalaryPaid(staffID string) decimal.Decimal {
	total := decimal.Zero
	for _, e := range l.SalaryHistory(staffID) {
		total = total.Add(e.Amount)
	}
	return total
}

// PaySalary books the payment as a Salary expense and clears the staff
// member's deductions for the current month. Guarding against a second
// payment is left to the caller.
func (l *Ledger) PaySalary(staffID string, amount decimal.Decimal) (domain.Expense, error) {
	member, ok := l.staff.find(staffID)
	if !ok {
		return domain.Expense{}, fmt.Errorf("staff %s: %w", staffID, ErrNotFound)
	}
	if amount.IsNegative() {
		return domain.Expense{}, fmt.Errorf("%w: salary amount must not be negative", ErrValidation)
	}
	now := l.now()
	expense := domain.Expense{
		ID:          l.newID("exp"),
		Description: SalaryDescription(member.Name, now),
		Amount:      amount,
		Category:    domain.CategorySalary,
		Date:        now,
	}
	l.expenses.add(expense)
	l.deductions.removeWhere(func(d domain.Deduction) bool {
		return d.StaffID == staffID && sameMonth(now, d.Date)
	})
	return expense, nil
}

func (l *Ledger) PayrollSummary(staffID string) (domain.PayrollSummary, error) {
	member, ok := l.staff.find(staffID)
	if !ok {
		return domain.PayrollSummary{}, fmt.Errorf("staff %s: %w", staffID, ErrNotFound)
	}
	deductions := l.CurrentMonthDeductions(staffID)
	total := decimal.Zero
	for _, d := range deductions {
		total = total.Add(d.Amount)
	}
	return domain.PayrollSummary{
		Staff:             member,
		CurrentDeductions: total,
		NetPayable:        member.MonthlySalary.Sub(total),
		PaidThisMonth:     l.SalaryPaidThisMonth(staffID),
		TotalPaid:         l.TotalSalaryPaid(staffID),
		TodayAttendance:   l.AttendanceStatus(staffID, l.now().Format(domain.DateLayout)),
		Deductions:        deductions,
		History:           l.SalaryHistory(staffID),
	}, nil
}
