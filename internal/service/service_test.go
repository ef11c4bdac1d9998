package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sweetlive/backend/internal/domain"
	"sweetlive/backend/internal/export"
	"sweetlive/backend/internal/insights"
	"sweetlive/backend/internal/ledger"
	"sweetlive/backend/internal/metrics"
	"sweetlive/backend/internal/store/memory"
)

var testNow = time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC)

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func decPtr(v string) *decimal.Decimal {
	d := dec(v)
	return &d
}

func sequentialIDs() func(string) string {
	n := 0
	return func(prefix string) string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

// flakyGateway wraps the memory store and can be told to fail.
type flakyGateway struct {
	*memory.Store
	failLoad bool
	failSave bool
	loads    int
}

func (g *flakyGateway) Load(ctx context.Context, ws string) (domain.Snapshot, error) {
	g.loads++
	if g.failLoad {
		return domain.Snapshot{}, errors.New("database unavailable")
	}
	return g.Store.Load(ctx, ws)
}

func (g *flakyGateway) Save(ctx context.Context, ws string, snap domain.Snapshot) error {
	if g.failSave {
		return errors.New("database unavailable")
	}
	return g.Store.Save(ctx, ws, snap)
}

type recordingArchiver struct {
	workspaces []string
	snapshots  []domain.Snapshot
}

func (a *recordingArchiver) Archive(_ context.Context, ws string, snap domain.Snapshot, _ time.Time) error {
	a.workspaces = append(a.workspaces, ws)
	a.snapshots = append(a.snapshots, snap)
	return nil
}

func newTestService(t *testing.T) (*Service, *flakyGateway, context.Context) {
	t.Helper()
	gw := &flakyGateway{Store: memory.New()}
	svc := New(gw, Options{
		Clock: func() time.Time { return testNow },
		NewID: sequentialIDs(),
	})
	ctx := WithActor(context.Background(), domain.Actor{Workspace: "shop"})
	return svc, gw, ctx
}

func mustProduct(t *testing.T, svc *Service, ctx context.Context, name, price, stock string) domain.Product {
	t.Helper()
	p, err := svc.CreateProduct(ctx, domain.ProductInput{Name: name, Price: dec(price), Stock: dec(stock)})
	require.NoError(t, err)
	return p
}

func TestOperationsRequireWorkspaceActor(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.ListProducts(context.Background(), "")
	require.ErrorIs(t, err, ErrUnauthenticated)
	_, err = svc.CreateProduct(context.Background(), domain.ProductInput{Name: "Bun"})
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestRecordSalePersistsAndCancelRestocks(t *testing.T) {
	svc, gw, ctx := newTestService(t)
	p := mustProduct(t, svc, ctx, "Bun", "10", "100")

	sale, err := svc.RecordSale(ctx, domain.SaleInput{ProductID: p.ID, Quantity: dec("5"), AmountPaid: decPtr("30"), CustomerName: "Rahim"})
	require.NoError(t, err)
	assert.True(t, sale.DueAmount.Equal(dec("20")))

	stored, err := gw.Store.Load(context.Background(), "shop")
	require.NoError(t, err)
	require.Len(t, stored.Sales, 1)
	assert.True(t, stored.Products[0].Stock.Equal(dec("95")))

	_, err = svc.CancelSale(ctx, sale.ID, domain.Confirmation{})
	require.ErrorIs(t, err, ErrConfirmationRequired)

	_, err = svc.CancelSale(ctx, sale.ID, domain.Confirmation{Confirmed: true})
	require.NoError(t, err)

	products, err := svc.ListProducts(ctx, "")
	require.NoError(t, err)
	assert.True(t, products[0].Stock.Equal(dec("100")))
	sales, err := svc.ListSales(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, sales)
}

func TestRejectedSaleLeavesNoTrace(t *testing.T) {
	svc, gw, ctx := newTestService(t)
	p := mustProduct(t, svc, ctx, "Bun", "10", "3")
	saves := gw.Saves()

	_, err := svc.RecordSale(ctx, domain.SaleInput{ProductID: p.ID, Quantity: dec("4")})
	require.ErrorIs(t, err, ledger.ErrValidation)
	_, err = svc.RecordSale(ctx, domain.SaleInput{ProductID: "missing", Quantity: dec("1")})
	require.ErrorIs(t, err, ledger.ErrNotFound)

	assert.Equal(t, saves, gw.Saves())
	products, err := svc.ListProducts(ctx, "")
	require.NoError(t, err)
	assert.True(t, products[0].Stock.Equal(dec("3")))
}

func TestFailedSaveKeepsPreviousState(t *testing.T) {
	svc, gw, ctx := newTestService(t)
	p := mustProduct(t, svc, ctx, "Bun", "10", "10")

	gw.failSave = true
	_, err := svc.RecordSale(ctx, domain.SaleInput{ProductID: p.ID, Quantity: dec("2")})
	require.Error(t, err)

	sales, err := svc.ListSales(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, sales)
	products, err := svc.ListProducts(ctx, "")
	require.NoError(t, err)
	assert.True(t, products[0].Stock.Equal(dec("10")))
}

func TestFailedLoadNeverSaves(t *testing.T) {
	svc, gw, ctx := newTestService(t)
	gw.failLoad = true

	_, err := svc.CreateProduct(ctx, domain.ProductInput{Name: "Bun", Price: dec("10"), Stock: dec("1")})
	require.Error(t, err)
	assert.Equal(t, 0, gw.Saves())
	assert.Empty(t, svc.Snapshots())

	gw.failLoad = false
	_, err = svc.CreateProduct(ctx, domain.ProductInput{Name: "Bun", Price: dec("10"), Stock: dec("1")})
	require.NoError(t, err)
	assert.Equal(t, 2, gw.loads)
}

func TestWorkspaceLoadedOnce(t *testing.T) {
	svc, gw, ctx := newTestService(t)
	require.NoError(t, svc.Open(context.Background(), "Shop"))
	_, err := svc.ListProducts(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, gw.loads)
	assert.Equal(t, []string{"shop"}, svc.Workspaces())
}

func TestCollectPaymentThroughService(t *testing.T) {
	svc, _, ctx := newTestService(t)
	p := mustProduct(t, svc, ctx, "Cake", "10", "100")
	sale, err := svc.RecordSale(ctx, domain.SaleInput{ProductID: p.ID, Quantity: dec("5"), AmountPaid: decPtr("0"), CustomerName: "Rahim", CustomerPhone: "0171"})
	require.NoError(t, err)

	groups, total, err := svc.DueCustomers(ctx, "")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.True(t, total.Equal(dec("50")))

	touched, err := svc.CollectPayment(ctx, domain.CollectPaymentRequest{CustomerKey: sale.CustomerKey(), Amount: dec("50")})
	require.NoError(t, err)
	require.Len(t, touched, 1)
	assert.True(t, touched[0].DueAmount.IsZero())

	groups, total, err = svc.DueCustomers(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, groups)
	assert.True(t, total.IsZero())
}

func TestPaySalaryDefaultsToNetAndRefusesSecondPayment(t *testing.T) {
	svc, _, ctx := newTestService(t)
	staff, err := svc.CreateStaff(ctx, domain.StaffInput{Name: "Jamal", MonthlySalary: dec("1000")})
	require.NoError(t, err)
	_, err = svc.AddDeduction(ctx, staff.ID, domain.DeductionInput{Amount: dec("200"), Reason: "Advance"})
	require.NoError(t, err)

	paid, err := svc.PaySalary(ctx, staff.ID, domain.SalaryPaymentRequest{})
	require.NoError(t, err)
	assert.True(t, paid.Amount.Equal(dec("800")))
	assert.Equal(t, "Salary Payment: Jamal (March 2026)", paid.Description)

	_, err = svc.PaySalary(ctx, staff.ID, domain.SalaryPaymentRequest{Amount: dec("100")})
	require.ErrorIs(t, err, ledger.ErrValidation)

	_, err = svc.PaySalary(ctx, "ghost", domain.SalaryPaymentRequest{})
	require.ErrorIs(t, err, ledger.ErrNotFound)

	summary, err := svc.PayrollSummary(ctx, staff.ID)
	require.NoError(t, err)
	assert.True(t, summary.PaidThisMonth)
	assert.True(t, summary.CurrentDeductions.IsZero())
}

func TestCloseDayArchivesSnapshot(t *testing.T) {
	gw := &flakyGateway{Store: memory.New()}
	arch := &recordingArchiver{}
	svc := New(gw, Options{Archiver: arch, Clock: func() time.Time { return testNow }, NewID: sequentialIDs()})
	ctx := WithActor(context.Background(), domain.Actor{Workspace: "shop"})

	p := mustProduct(t, svc, ctx, "Bun", "10", "100")
	_, err := svc.RecordSale(ctx, domain.SaleInput{ProductID: p.ID, Quantity: dec("3")})
	require.NoError(t, err)

	closing, err := svc.CloseDay(ctx, domain.ClosingInput{ActualCash: dec("30")})
	require.NoError(t, err)
	assert.Equal(t, "shop", closing.ClosedBy)
	assert.True(t, closing.Difference.IsZero())

	require.Equal(t, []string{"shop"}, arch.workspaces)
	require.Len(t, arch.snapshots[0].Closings, 1)

	_, err = svc.UndoLastClosing(ctx, domain.Confirmation{})
	require.ErrorIs(t, err, ErrConfirmationRequired)
	_, err = svc.UndoClosing(ctx, closing.ID, domain.Confirmation{Confirmed: true})
	require.NoError(t, err)

	active, err := svc.ActiveSession(ctx, 10)
	require.NoError(t, err)
	assert.True(t, active.Stats.Sales.Equal(dec("30")))
	assert.Len(t, active.Sales, 1)
}

func TestDeleteProductAndWastageNeedConfirmation(t *testing.T) {
	svc, _, ctx := newTestService(t)
	p := mustProduct(t, svc, ctx, "Bun", "10", "10")

	w, err := svc.RecordWastage(ctx, domain.WastageInput{ProductID: p.ID, Quantity: dec("2")})
	require.NoError(t, err)

	_, err = svc.DeleteWastage(ctx, w.ID, domain.Confirmation{})
	require.ErrorIs(t, err, ErrConfirmationRequired)
	_, err = svc.DeleteWastage(ctx, w.ID, domain.Confirmation{Confirmed: true})
	require.NoError(t, err)

	_, err = svc.DeleteProduct(ctx, p.ID, domain.Confirmation{})
	require.ErrorIs(t, err, ErrConfirmationRequired)
	_, err = svc.DeleteProduct(ctx, p.ID, domain.Confirmation{Confirmed: true})
	require.NoError(t, err)

	products, err := svc.ListProducts(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestOperationMetrics(t *testing.T) {
	m := metrics.New()
	svc := New(memory.New(), Options{Metrics: m, Clock: func() time.Time { return testNow }})
	ctx := WithActor(context.Background(), domain.Actor{Workspace: "shop"})

	_, err := svc.CreateProduct(ctx, domain.ProductInput{Name: "Bun", Price: dec("10"), Stock: dec("1")})
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, domain.ProductInput{Name: "", Price: dec("10")})
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("product_create", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("product_create", "rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SnapshotSaves.WithLabelValues("ok")))
}

func TestOverdrawReportedOnlyAfterSave(t *testing.T) {
	m := metrics.New()
	gw := &flakyGateway{Store: memory.New()}
	svc := New(gw, Options{Metrics: m, Clock: func() time.Time { return testNow }, NewID: sequentialIDs()})
	ctx := WithActor(context.Background(), domain.Actor{Workspace: "shop"})
	p := mustProduct(t, svc, ctx, "Bun", "10", "3")

	oversell := func(l *ledger.Ledger) error {
		l.AddSale(domain.Sale{ProductID: p.ID, ProductName: p.Name, Quantity: dec("5"), TotalPrice: dec("50"), AmountPaid: dec("50"), DueAmount: decimal.Zero})
		return nil
	}

	gw.failSave = true
	require.Error(t, svc.mutate(ctx, "sale_record", oversell))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Overdraws.WithLabelValues("sale")))

	gw.failSave = false
	require.NoError(t, svc.mutate(ctx, "sale_record", oversell))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Overdraws.WithLabelValues("sale")))

	products, err := svc.ListProducts(ctx, "")
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.True(t, products[0].Stock.IsZero())
}

func TestInsightsFallBackWithoutGenerator(t *testing.T) {
	svc, _, ctx := newTestService(t)
	resp, err := svc.Insights(ctx)
	require.NoError(t, err)
	assert.Equal(t, insights.FallbackText, resp.Text)
}

func TestExportTables(t *testing.T) {
	svc, _, ctx := newTestService(t)
	p := mustProduct(t, svc, ctx, "Bun", "10", "10")
	_, err := svc.RecordSale(ctx, domain.SaleInput{ProductID: p.ID, Quantity: dec("1")})
	require.NoError(t, err)

	table, err := svc.Export(ctx, export.ReportSales)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "N/A", table.Rows[0][7])

	_, err = svc.Export(ctx, export.Report("payroll"))
	require.ErrorIs(t, err, ledger.ErrValidation)
}
