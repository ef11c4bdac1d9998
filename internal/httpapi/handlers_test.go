package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sweetlive/backend/internal/domain"
	"sweetlive/backend/internal/metrics"
	"sweetlive/backend/internal/service"
	"sweetlive/backend/internal/store/memory"
)

const testPIN = "482913"

// newTestAPI wires a real service over the memory store so handler tests
// exercise the complete request path.
func newTestAPI(t *testing.T) (http.Handler, *memory.Store) {
	t.Helper()
	repo := memory.NewSeeded("demo")
	svc := service.New(repo, service.Options{})
	auth := NewAuthManager("test-secret-key-with-length", time.Hour, testPIN)
	return New(svc, auth, Options{Metrics: metrics.New()}).Handler(), repo
}

func doJSON(t *testing.T, h http.Handler, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func openSession(t *testing.T, h http.Handler, workspace string) string {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/v1/auth/session", "", map[string]string{"workspace": workspace, "pin": testPIN})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp domain.SessionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.AccessToken
}

func TestHandleHealth(t *testing.T) {
	h, _ := newTestAPI(t)
	rec := doJSON(t, h, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	h, _ := newTestAPI(t)
	rec := doJSON(t, h, http.MethodGet, "/api/v1/products", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/v1/products", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionRejectsBadRequests(t *testing.T) {
	h, _ := newTestAPI(t)
	rec := doJSON(t, h, http.MethodPost, "/api/v1/auth/session", "", map[string]string{"workspace": "demo", "pin": "000000"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/v1/auth/session", "", map[string]string{"workspace": "ab", "pin": testPIN})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/v1/auth/session", "", map[string]any{"workspace": "demo", "pin": testPIN, "role": "admin"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSaleFlowOverHTTP(t *testing.T) {
	h, _ := newTestAPI(t)
	token := openSession(t, h, "demo")

	rec := doJSON(t, h, http.MethodGet, "/api/v1/products?sort=price_asc", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed struct {
		Products []domain.Product `json:"products"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&listed))
	require.NotEmpty(t, listed.Products)
	bun := listed.Products[0]
	assert.Equal(t, "Butter Bun", bun.Name)

	rec = doJSON(t, h, http.MethodPost, "/api/v1/sales", token, map[string]any{
		"productId":    bun.ID,
		"quantity":     2,
		"amountPaid":   5,
		"customerName": "Rahim",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		Sale domain.Sale `json:"sale"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.Equal(t, "15", created.Sale.DueAmount.String())

	rec = doJSON(t, h, http.MethodPost, "/api/v1/sales", token, map[string]any{"productId": bun.ID, "quantity": 100000})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/v1/sales", token, map[string]any{"productId": "missing", "quantity": 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/v1/dues", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "rahim|None")

	rec = doJSON(t, h, http.MethodPost, "/api/v1/dues/collect", token, map[string]any{"customerKey": "rahim|None", "amount": "15"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, h, http.MethodDelete, "/api/v1/sales/"+created.Sale.ID, token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = doJSON(t, h, http.MethodDelete, "/api/v1/sales/"+created.Sale.ID+"?confirm=true", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWorkspacesAreIsolated(t *testing.T) {
	h, _ := newTestAPI(t)
	demo := openSession(t, h, "demo")
	fresh := openSession(t, h, "fresh-shop")

	rec := doJSON(t, h, http.MethodGet, "/api/v1/products", fresh, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"products":[]`)

	rec = doJSON(t, h, http.MethodGet, "/api/v1/products", demo, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Butter Bun")
}

func TestClosingAndExport(t *testing.T) {
	h, _ := newTestAPI(t)
	token := openSession(t, h, "demo")

	rec := doJSON(t, h, http.MethodPost, "/api/v1/closings", token, map[string]any{"actualCash": "0"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, h, http.MethodGet, "/api/v1/closings/active", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/v1/exports/closings.csv", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "Date,Manager,Sales"))
	assert.Contains(t, rec.Body.String(), ",demo,")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "closings_")

	rec = doJSON(t, h, http.MethodGet, "/api/v1/exports/inventory.pdf", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))

	rec = doJSON(t, h, http.MethodGet, "/api/v1/exports/inventory.xlsx", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodDelete, "/api/v1/closings/last?confirm=true", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, h, http.MethodDelete, "/api/v1/closings/last?confirm=true", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStaffPayrollRoutes(t *testing.T) {
	h, _ := newTestAPI(t)
	token := openSession(t, h, "fresh-shop")

	rec := doJSON(t, h, http.MethodPost, "/api/v1/staff", token, map[string]any{"name": "Jamal", "designation": "Baker", "monthlySalary": 1000})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		Staff domain.Staff `json:"staff"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))

	rec = doJSON(t, h, http.MethodPost, "/api/v1/staff/"+created.Staff.ID+"/deductions", token, map[string]any{"amount": 200, "reason": "Advance"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, h, http.MethodPost, "/api/v1/attendance", token, map[string]any{"staffId": created.Staff.ID, "date": "2026-03-14", "status": "Present"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = doJSON(t, h, http.MethodPost, "/api/v1/attendance", token, map[string]any{"staffId": created.Staff.ID, "date": "14-03-2026", "status": "Present"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/v1/staff/"+created.Staff.ID+"/salary", token, map[string]any{})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"amount":"800"`)

	rec = doJSON(t, h, http.MethodGet, "/api/v1/staff/"+created.Staff.ID+"/salary", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"paidThisMonth":true`)

	rec = doJSON(t, h, http.MethodGet, "/api/v1/staff/ghost/salary", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInsightsFallBackWithoutGenerator(t *testing.T) {
	h, _ := newTestAPI(t)
	token := openSession(t, h, "demo")
	rec := doJSON(t, h, http.MethodGet, "/api/v1/insights", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Could not generate insights")
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := newTestAPI(t)
	doJSON(t, h, http.MethodGet, "/healthz", "", nil)
	rec := doJSON(t, h, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `sweetlive_http_requests_total{method="GET",route="/healthz",status="200"}`)
}
