// Package ledger holds the books of one bakery workspace: inventory, sales
// and dues, wastage, payroll and the daily closing cutoff. A Ledger is not
// safe for concurrent use; the service layer serialises access per
// workspace.
package ledger

import (
	"time"

	"sweetlive/backend/internal/domain"
	"sweetlive/backend/internal/xid"
)

type Ledger struct {
	products   collection[domain.Product]
	sales      collection[domain.Sale]
	expenses   collection[domain.Expense]
	wastage    collection[domain.Wastage]
	staff      collection[domain.Staff]
	attendance collection[domain.Attendance]
	deductions collection[domain.Deduction]
	closings   collection[domain.DailyClosing]

	now        func() time.Time
	newID      func(prefix string) string
	onOverdraw func(domain.Overdraw)
}

type Option func(*Ledger)

// WithClock replaces time.Now. Month and day boundaries follow the
// location of the returned times.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

func WithIDGenerator(newID func(prefix string) string) Option {
	return func(l *Ledger) {
		if newID != nil {
			l.newID = newID
		}
	}
}

// WithOverdrawHook registers a callback fired whenever a stock withdrawal
// is clamped at zero.
func WithOverdrawHook(fn func(domain.Overdraw)) Option {
	return func(l *Ledger) {
		l.onOverdraw = fn
	}
}

func New(snapshot domain.Snapshot, opts ...Option) *Ledger {
	l := &Ledger{
		products:   newCollection(snapshot.Products),
		sales:      newCollection(snapshot.Sales),
		expenses:   newCollection(snapshot.Expenses),
		wastage:    newCollection(snapshot.Wastage),
		staff:      newCollection(snapshot.Staff),
		attendance: newCollection(snapshot.Attendance),
		deductions: newCollection(snapshot.Deductions),
		closings:   newCollection(snapshot.Closings),
		now:        time.Now,
		newID:      xid.New,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Clone returns an independent copy sharing clock, id generator and hook.
// Options given here apply to the copy only.
func (l *Ledger) Clone(opts ...Option) *Ledger {
	c := &Ledger{
		products:   newCollection(l.products.items),
		sales:      newCollection(l.sales.items),
		expenses:   newCollection(l.expenses.items),
		wastage:    newCollection(l.wastage.items),
		staff:      newCollection(l.staff.items),
		attendance: newCollection(l.attendance.items),
		deductions: newCollection(l.deductions.items),
		closings:   newCollection(l.closings.items),
		now:        l.now,
		newID:      l.newID,
		onOverdraw: l.onOverdraw,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (l *Ledger) Snapshot() domain.Snapshot {
	return domain.Snapshot{
		Products:   l.products.all(),
		Sales:      l.sales.all(),
		Expenses:   l.expenses.all(),
		Wastage:    l.wastage.all(),
		Staff:      l.staff.all(),
		Attendance: l.attendance.all(),
		Closings:   l.closings.all(),
		Deductions: l.deductions.all(),
	}
}

// Now exposes the ledger clock so callers stamp entries consistently.
func (l *Ledger) Now() time.Time {
	return l.now()
}

func (l *Ledger) Sales() []domain.Sale {
	return l.sales.all()
}

func (l *Ledger) Sale(id string) (domain.Sale, bool) {
	return l.sales.find(id)
}

func (l *Ledger) SalesWhere(match func(domain.Sale) bool) []domain.Sale {
	return l.sales.where(match)
}

func (l *Ledger) Expenses() []domain.Expense {
	return l.expenses.all()
}

func (l *Ledger) ExpensesWhere(match func(domain.Expense) bool) []domain.Expense {
	return l.expenses.where(match)
}

func (l *Ledger) Wastage() []domain.Wastage {
	return l.wastage.all()
}

func (l *Ledger) Staff() []domain.Staff {
	return l.staff.all()
}

func (l *Ledger) StaffMember(id string) (domain.Staff, bool) {
	return l.staff.find(id)
}

func (l *Ledger) Attendance() []domain.Attendance {
	return l.attendance.all()
}

func (l *Ledger) Deductions() []domain.Deduction {
	return l.deductions.all()
}

func (l *Ledger) Closings() []domain.DailyClosing {
	return l.closings.all()
}

func sameMonth(a, b time.Time) bool {
	b = b.In(a.Location())
	return a.Year() == b.Year() && a.Month() == b.Month()
}
