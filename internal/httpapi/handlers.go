package httpapi

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"sweetlive/backend/internal/domain"
	"sweetlive/backend/internal/export"
)

// pathSegments splits what follows prefix into non-empty segments.
func pathSegments(r *http.Request, prefix string) []string {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}

func confirmation(r *http.Request) domain.Confirmation {
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	return domain.Confirmation{Confirmed: confirmed}
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	if !a.sessionLimiter.Allow(clientKey(r)) {
		writeError(w, http.StatusTooManyRequests, errors.New("too many session attempts"))
		return
	}

	var req domain.SessionRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	resp, err := a.auth.OpenSession(req)
	if err != nil {
		a.logger.Warn("session rejected", zap.String("workspace", req.Workspace), zap.String("client", clientKey(r)))
		writeError(w, http.StatusUnauthorized, err)
		return
	}
	if err := a.service.Open(r.Context(), resp.Workspace); err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleProducts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		var (
			products []domain.Product
			err      error
		)
		if r.URL.Query().Get("filter") == "low_stock" {
			products, err = a.service.LowStock(r.Context())
		} else {
			products, err = a.service.ListProducts(r.Context(), r.URL.Query().Get("sort"))
		}
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		summary, err := a.service.StockSummary(r.Context())
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"products": products, "summary": summary})
	case http.MethodPost:
		var req domain.ProductInput
		if err := a.decodeAndValidate(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		product, err := a.service.CreateProduct(r.Context(), req)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"product": product})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleProductActions(w http.ResponseWriter, r *http.Request) {
	parts := pathSegments(r, "/api/v1/products/")
	if len(parts) != 1 {
		writeError(w, http.StatusNotFound, errors.New("route not found"))
		return
	}
	id := parts[0]

	switch r.Method {
	case http.MethodPut:
		var req domain.ProductInput
		if err := a.decodeAndValidate(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		product, err := a.service.UpdateProduct(r.Context(), id, req)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"product": product})
	case http.MethodDelete:
		product, err := a.service.DeleteProduct(r.Context(), id, confirmation(r))
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"product": product})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleSales(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		limit := parsePositiveLimit(r.URL.Query().Get("limit"), 100, 1000)
		sales, err := a.service.ListSales(r.Context(), limit)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"sales": sales})
	case http.MethodPost:
		var req domain.SaleInput
		if err := a.decodeAndValidate(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		sale, err := a.service.RecordSale(r.Context(), req)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"sale": sale})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleSaleActions(w http.ResponseWriter, r *http.Request) {
	parts := pathSegments(r, "/api/v1/sales/")
	if len(parts) != 1 {
		writeError(w, http.StatusNotFound, errors.New("route not found"))
		return
	}
	if r.Method != http.MethodDelete {
		writeMethodNotAllowed(w)
		return
	}
	sale, err := a.service.CancelSale(r.Context(), parts[0], confirmation(r))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sale": sale})
}

func (a *API) handleDues(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	customers, total, err := a.service.DueCustomers(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"customers": customers, "total_outstanding": total})
}

func (a *API) handleCollectDue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	var req domain.CollectPaymentRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sales, err := a.service.CollectPayment(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sales": sales})
}

func (a *API) handleWastage(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		entries, err := a.service.ListWastage(r.Context())
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"wastage": entries, "reasons": domain.WastageReasons})
	case http.MethodPost:
		var req domain.WastageInput
		if err := a.decodeAndValidate(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		entry, err := a.service.RecordWastage(r.Context(), req)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"wastage": entry})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleWastageActions(w http.ResponseWriter, r *http.Request) {
	parts := pathSegments(r, "/api/v1/wastage/")
	if len(parts) != 1 {
		writeError(w, http.StatusNotFound, errors.New("route not found"))
		return
	}
	if r.Method != http.MethodDelete {
		writeMethodNotAllowed(w)
		return
	}
	entry, err := a.service.DeleteWastage(r.Context(), parts[0], confirmation(r))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"wastage": entry})
}

func (a *API) handleExpenses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		expenses, err := a.service.ListExpenses(r.Context())
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"expenses": expenses})
	case http.MethodPost:
		var req domain.ExpenseInput
		if err := a.decodeAndValidate(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		expense, err := a.service.RecordExpense(r.Context(), req)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"expense": expense})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleStaff(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		staff, err := a.service.ListStaff(r.Context())
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"staff": staff})
	case http.MethodPost:
		var req domain.StaffInput
		if err := a.decodeAndValidate(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		member, err := a.service.CreateStaff(r.Context(), req)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"staff": member})
	default:
		writeMethodNotAllowed(w)
	}
}

// handleStaffActions serves /api/v1/staff/{id}/salary and
// /api/v1/staff/{id}/deductions.
func (a *API) handleStaffActions(w http.ResponseWriter, r *http.Request) {
	parts := pathSegments(r, "/api/v1/staff/")
	if len(parts) != 2 {
		writeError(w, http.StatusNotFound, errors.New("route not found"))
		return
	}
	staffID := parts[0]

	switch {
	case parts[1] == "salary" && r.Method == http.MethodGet:
		summary, err := a.service.PayrollSummary(r.Context(), staffID)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"payroll": summary})
	case parts[1] == "salary" && r.Method == http.MethodPost:
		var req domain.SalaryPaymentRequest
		if err := a.decodeAndValidate(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		expense, err := a.service.PaySalary(r.Context(), staffID, req)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"expense": expense})
	case parts[1] == "deductions" && r.Method == http.MethodPost:
		var req domain.DeductionInput
		if err := a.decodeAndValidate(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		deduction, err := a.service.AddDeduction(r.Context(), staffID, req)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"deduction": deduction})
	case parts[1] == "salary" || parts[1] == "deductions":
		writeMethodNotAllowed(w)
	default:
		writeError(w, http.StatusNotFound, errors.New("route not found"))
	}
}

func (a *API) handleAttendance(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		limit := parsePositiveLimit(r.URL.Query().Get("limit"), 20, 500)
		records, err := a.service.ListAttendance(r.Context(), limit)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"attendance": records})
	case http.MethodPost:
		var req domain.AttendanceInput
		if err := a.decodeAndValidate(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		record, err := a.service.MarkAttendance(r.Context(), req)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"attendance": record})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleClosings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		closings, err := a.service.ListClosings(r.Context())
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"closings": closings})
	case http.MethodPost:
		var req domain.ClosingInput
		if err := a.decodeAndValidate(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		closing, err := a.service.CloseDay(r.Context(), req)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"closing": closing})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleActiveSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	limit := parsePositiveLimit(r.URL.Query().Get("limit"), 50, 500)
	active, err := a.service.ActiveSession(r.Context(), limit)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, active)
}

// handleClosingActions undoes a closing; "last" targets the newest one.
func (a *API) handleClosingActions(w http.ResponseWriter, r *http.Request) {
	parts := pathSegments(r, "/api/v1/closings/")
	if len(parts) != 1 {
		writeError(w, http.StatusNotFound, errors.New("route not found"))
		return
	}
	if r.Method != http.MethodDelete {
		writeMethodNotAllowed(w)
		return
	}

	var (
		closing domain.DailyClosing
		err     error
	)
	if parts[0] == "last" {
		closing, err = a.service.UndoLastClosing(r.Context(), confirmation(r))
	} else {
		closing, err = a.service.UndoClosing(r.Context(), parts[0], confirmation(r))
	}
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"closing": closing})
}

func (a *API) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	dashboard, err := a.service.Dashboard(r.Context())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}

func (a *API) handleInsights(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	insight, err := a.service.Insights(r.Context())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, insight)
}

// handleExport serves /api/v1/exports/{report}.csv and .pdf.
func (a *API) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	parts := pathSegments(r, "/api/v1/exports/")
	if len(parts) != 1 {
		writeError(w, http.StatusNotFound, errors.New("route not found"))
		return
	}
	format := strings.TrimPrefix(path.Ext(parts[0]), ".")
	report := export.Report(strings.TrimSuffix(parts[0], path.Ext(parts[0])))
	if format != "csv" && format != "pdf" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("unsupported export format %q", format))
		return
	}

	table, err := a.service.Export(r.Context(), report)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}

	now := time.Now()
	var buf bytes.Buffer
	contentType := "text/csv; charset=utf-8"
	if format == "pdf" {
		contentType = "application/pdf"
		err = export.WritePDF(&buf, report.Title(), now, table)
	} else {
		err = export.WriteCSV(&buf, table)
	}
	if err != nil {
		a.writeServiceError(w, err)
		return
	}

	filename := fmt.Sprintf("%s_%s.%s", report, now.Format(domain.DateLayout), format)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
