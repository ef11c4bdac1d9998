package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "Cash"
	PaymentMobile PaymentMethod = "Mobile Payment"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCash || m == PaymentMobile
}

type ExpenseCategory string

const (
	CategoryRawMaterial ExpenseCategory = "Raw Material"
	CategoryUtilities   ExpenseCategory = "Utilities"
	CategoryRent        ExpenseCategory = "Rent"
	CategoryStaff       ExpenseCategory = "Staff"
	CategorySalary      ExpenseCategory = "Salary"
	CategoryOther       ExpenseCategory = "Other"
)

func (c ExpenseCategory) Valid() bool {
	switch c {
	case CategoryRawMaterial, CategoryUtilities, CategoryRent, CategoryStaff, CategorySalary, CategoryOther:
		return true
	}
	return false
}

type AttendanceStatus string

const (
	StatusPresent   AttendanceStatus = "Present"
	StatusLate      AttendanceStatus = "Late"
	StatusAbsent    AttendanceStatus = "Absent"
	StatusNotMarked AttendanceStatus = "Not Marked"
)

func (s AttendanceStatus) Valid() bool {
	return s == StatusPresent || s == StatusLate || s == StatusAbsent
}

// Units offered when creating a product. Anything else is accepted but
// these are what the counter screens show.
var Units = []string{"pcs", "kg", "gm", "pkt", "ltr"}

// WastageReasons mirrors the reasons offered on the wastage form; reason
// text itself is free-form.
var WastageReasons = []string{"Expired", "Damaged", "Burnt", "Other"}

const DefaultUnit = "pcs"

// DateLayout is the calendar-day format used by attendance and closings.
const DateLayout = "2006-01-02"

type Product struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
	Stock    decimal.Decimal `json:"stock"`
	Unit     string          `json:"unit"`
}

func (p Product) EntityID() string { return p.ID }

type ProductInput struct {
	Name     string          `json:"name" validate:"required,max=120"`
	Category string          `json:"category" validate:"max=80"`
	Price    decimal.Decimal `json:"price"`
	Stock    decimal.Decimal `json:"stock"`
	Unit     string          `json:"unit" validate:"max=16"`
}

type Sale struct {
	ID            string          `json:"id"`
	ProductID     string          `json:"productId"`
	ProductName   string          `json:"productName"`
	Quantity      decimal.Decimal `json:"quantity"`
	Unit          string          `json:"unit"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
	AmountPaid    decimal.Decimal `json:"amountPaid"`
	DueAmount     decimal.Decimal `json:"dueAmount"`
	CustomerName  string          `json:"customerName,omitempty"`
	CustomerPhone string          `json:"customerPhone,omitempty"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	Date          time.Time       `json:"date"`
}

func (s Sale) EntityID() string { return s.ID }

func (s Sale) CustomerKey() string {
	return CustomerKey(s.CustomerName, s.CustomerPhone)
}

// CustomerKey identifies a debtor by lower-cased name and phone. Sales
// without a name or phone fall into the "unknown"/"None" buckets.
func CustomerKey(name, phone string) string {
	if name == "" {
		name = "Unknown"
	}
	if phone == "" {
		phone = "None"
	}
	return strings.ToLower(name) + "|" + phone
}

type SaleInput struct {
	ProductID     string           `json:"productId" validate:"required"`
	Quantity      decimal.Decimal  `json:"quantity"`
	AmountPaid    *decimal.Decimal `json:"amountPaid,omitempty"`
	CustomerName  string           `json:"customerName,omitempty" validate:"max=120"`
	CustomerPhone string           `json:"customerPhone,omitempty" validate:"max=32"`
	PaymentMethod PaymentMethod    `json:"paymentMethod,omitempty"`
}

type Expense struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    ExpenseCategory `json:"category"`
	Date        time.Time       `json:"date"`
}

func (e Expense) EntityID() string { return e.ID }

type ExpenseInput struct {
	Description string          `json:"description" validate:"required,max=200"`
	Amount      decimal.Decimal `json:"amount"`
	Category    ExpenseCategory `json:"category" validate:"required"`
}

type Wastage struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
	LossValue   decimal.Decimal `json:"lossValue"`
	Reason      string          `json:"reason"`
	Date        time.Time       `json:"date"`
}

func (w Wastage) EntityID() string { return w.ID }

type WastageInput struct {
	ProductID string          `json:"productId" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
	Reason    string          `json:"reason" validate:"max=120"`
}

type Staff struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Designation   string          `json:"designation"`
	MonthlySalary decimal.Decimal `json:"monthlySalary"`
	JoinDate      time.Time       `json:"joinDate"`
}

func (s Staff) EntityID() string { return s.ID }

type StaffInput struct {
	Name          string          `json:"name" validate:"required,max=120"`
	Designation   string          `json:"designation" validate:"max=80"`
	MonthlySalary decimal.Decimal `json:"monthlySalary"`
	JoinDate      *time.Time      `json:"joinDate,omitempty"`
}

type Attendance struct {
	ID      string           `json:"id"`
	StaffID string           `json:"staffId"`
	Date    string           `json:"date"`
	Status  AttendanceStatus `json:"status"`
}

func (a Attendance) EntityID() string { return a.ID }

type AttendanceInput struct {
	StaffID string           `json:"staffId" validate:"required"`
	Date    string           `json:"date" validate:"required,datetime=2006-01-02"`
	Status  AttendanceStatus `json:"status" validate:"required"`
}

type Deduction struct {
	ID      string          `json:"id"`
	StaffID string          `json:"staffId"`
	Amount  decimal.Decimal `json:"amount"`
	Reason  string          `json:"reason"`
	Date    time.Time       `json:"date"`
}

func (d Deduction) EntityID() string { return d.ID }

type DeductionInput struct {
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason" validate:"max=200"`
}

type DailyClosing struct {
	ID                 string          `json:"id"`
	Date               string          `json:"date"`
	TotalSales         decimal.Decimal `json:"totalSales"`
	TotalCashCollected decimal.Decimal `json:"totalCashCollected"`
	TotalExpenses      decimal.Decimal `json:"totalExpenses"`
	TotalWastage       decimal.Decimal `json:"totalWastage"`
	SystemBalance      decimal.Decimal `json:"systemBalance"`
	ActualCash         decimal.Decimal `json:"actualCash"`
	Difference         decimal.Decimal `json:"difference"`
	ClosedBy           string          `json:"closedBy"`
	Timestamp          time.Time       `json:"timestamp"`
}

func (c DailyClosing) EntityID() string { return c.ID }

// ClosingInput carries the counted cash. The closing is attributed to the
// session's workspace.
type ClosingInput struct {
	ActualCash decimal.Decimal `json:"actualCash"`
}

type CollectPaymentRequest struct {
	CustomerKey string          `json:"customerKey" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
}

type SalaryPaymentRequest struct {
	// Amount is the net amount handed over. Zero means "pay the current
	// net payable".
	Amount decimal.Decimal `json:"amount"`
}

// Confirmation is the capability destructive operations require from the
// calling layer.
type Confirmation struct {
	Confirmed bool `json:"confirm"`
}

type ActiveStats struct {
	Since         time.Time       `json:"since"`
	Sales         decimal.Decimal `json:"sales"`
	CashCollected decimal.Decimal `json:"cashCollected"`
	Expenses      decimal.Decimal `json:"expenses"`
	Wastage       decimal.Decimal `json:"wastage"`
	Balance       decimal.Decimal `json:"balance"`
	Count         int             `json:"count"`
}

type MonthlyStats struct {
	Month         string          `json:"month"`
	SalesVolume   decimal.Decimal `json:"salesVolume"`
	CashCollected decimal.Decimal `json:"cashCollected"`
	Expenses      decimal.Decimal `json:"expenses"`
	WastageLoss   decimal.Decimal `json:"wastageLoss"`
	Balance       decimal.Decimal `json:"balance"`
}

type TrendPoint struct {
	Date  string          `json:"date"`
	Sales decimal.Decimal `json:"sales"`
}

type StockSummary struct {
	TotalValue    decimal.Decimal `json:"totalValue"`
	TotalItems    int             `json:"totalItems"`
	TotalQuantity decimal.Decimal `json:"totalQuantity"`
	LowStockCount int             `json:"lowStockCount"`
}

type DueCustomer struct {
	Key      string          `json:"key"`
	Name     string          `json:"name"`
	Phone    string          `json:"phone"`
	TotalDue decimal.Decimal `json:"totalDue"`
	Sales    []Sale          `json:"sales"`
}

type Dashboard struct {
	Month            MonthlyStats    `json:"month"`
	Active           ActiveStats     `json:"active"`
	Stock            StockSummary    `json:"stock"`
	TotalOutstanding decimal.Decimal `json:"totalOutstanding"`
	Trend            []TrendPoint    `json:"trend"`
	RecentSales      []Sale          `json:"recentSales"`
}

type PayrollSummary struct {
	Staff             Staff            `json:"staff"`
	CurrentDeductions decimal.Decimal  `json:"currentDeductions"`
	NetPayable        decimal.Decimal  `json:"netPayable"`
	PaidThisMonth     bool             `json:"paidThisMonth"`
	TotalPaid         decimal.Decimal  `json:"totalPaid"`
	TodayAttendance   AttendanceStatus `json:"todayAttendance"`
	Deductions        []Deduction      `json:"deductions"`
	History           []Expense        `json:"history"`
}

// Overdraw describes a stock withdrawal that exceeded the recorded stock and
// was clamped to zero.
type Overdraw struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Stock       decimal.Decimal `json:"stock"`
	Withdrawn   decimal.Decimal `json:"withdrawn"`
	Source      string          `json:"source"`
}

// Snapshot is the whole state of one workspace as handed to the
// persistence gateway.
type Snapshot struct {
	Products   []Product      `json:"products"`
	Sales      []Sale         `json:"sales"`
	Expenses   []Expense      `json:"expenses"`
	Wastage    []Wastage      `json:"wastage"`
	Staff      []Staff        `json:"staff"`
	Attendance []Attendance   `json:"attendance"`
	Closings   []DailyClosing `json:"closings"`
	Deductions []Deduction    `json:"deductions"`
}

// Normalize replaces absent collections with empty ones.
func (s Snapshot) Normalize() Snapshot {
	if s.Products == nil {
		s.Products = []Product{}
	}
	if s.Sales == nil {
		s.Sales = []Sale{}
	}
	if s.Expenses == nil {
		s.Expenses = []Expense{}
	}
	if s.Wastage == nil {
		s.Wastage = []Wastage{}
	}
	if s.Staff == nil {
		s.Staff = []Staff{}
	}
	if s.Attendance == nil {
		s.Attendance = []Attendance{}
	}
	if s.Closings == nil {
		s.Closings = []DailyClosing{}
	}
	if s.Deductions == nil {
		s.Deductions = []Deduction{}
	}
	return s
}

func (s Snapshot) Empty() bool {
	return len(s.Products) == 0 && len(s.Sales) == 0 && len(s.Expenses) == 0 &&
		len(s.Wastage) == 0 && len(s.Staff) == 0 && len(s.Attendance) == 0 &&
		len(s.Closings) == 0 && len(s.Deductions) == 0
}

type Actor struct {
	Workspace string `json:"workspace"`
}

type SessionRequest struct {
	Workspace string `json:"workspace" validate:"required,min=3,max=64"`
	PIN       string `json:"pin" validate:"required"`
}

type SessionResponse struct {
	AccessToken string `json:"access_token"`
	Workspace   string `json:"workspace"`
	ExpiresAt   string `json:"expires_at"`
}

type InsightResponse struct {
	Text        string    `json:"text"`
	GeneratedAt time.Time `json:"generated_at"`
	Cached      bool      `json:"cached"`
}
