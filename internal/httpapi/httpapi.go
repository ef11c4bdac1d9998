package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"sweetlive/backend/internal/ledger"
	"sweetlive/backend/internal/metrics"
	"sweetlive/backend/internal/service"
	"sweetlive/backend/internal/store"
)

type Options struct {
	AllowedOrigins []string
	Metrics        *metrics.Metrics
	Logger         *zap.Logger
}

type API struct {
	service        *service.Service
	auth           *AuthManager
	validate       *validator.Validate
	allowedOrigins []string
	metrics        *metrics.Metrics
	logger         *zap.Logger
	sessionLimiter *windowLimiter
}

func New(svc *service.Service, auth *AuthManager, opts Options) *API {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &API{
		service:        svc,
		auth:           auth,
		validate:       validator.New(validator.WithRequiredStructEnabled()),
		allowedOrigins: opts.AllowedOrigins,
		metrics:        opts.Metrics,
		logger:         opts.Logger,
		sessionLimiter: newWindowLimiter(5, time.Minute),
	}
}

func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	route := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, a.instrument(pattern, h))
	}

	route("/healthz", a.handleHealth)
	route("/api/v1/auth/session", a.handleSession)

	route("/api/v1/products", a.requireAuth(a.handleProducts))
	route("/api/v1/products/", a.requireAuth(a.handleProductActions))
	route("/api/v1/sales", a.requireAuth(a.handleSales))
	route("/api/v1/sales/", a.requireAuth(a.handleSaleActions))
	route("/api/v1/dues", a.requireAuth(a.handleDues))
	route("/api/v1/dues/collect", a.requireAuth(a.handleCollectDue))
	route("/api/v1/wastage", a.requireAuth(a.handleWastage))
	route("/api/v1/wastage/", a.requireAuth(a.handleWastageActions))
	route("/api/v1/expenses", a.requireAuth(a.handleExpenses))
	route("/api/v1/staff", a.requireAuth(a.handleStaff))
	route("/api/v1/staff/", a.requireAuth(a.handleStaffActions))
	route("/api/v1/attendance", a.requireAuth(a.handleAttendance))
	route("/api/v1/closings", a.requireAuth(a.handleClosings))
	route("/api/v1/closings/active", a.requireAuth(a.handleActiveSession))
	route("/api/v1/closings/", a.requireAuth(a.handleClosingActions))
	route("/api/v1/dashboard", a.requireAuth(a.handleDashboard))
	route("/api/v1/insights", a.requireAuth(a.handleInsights))
	route("/api/v1/exports/", a.requireAuth(a.handleExport))

	if a.metrics != nil {
		mux.Handle("/metrics", a.metrics.Handler())
	}

	return a.withMiddleware(mux)
}

func (a *API) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authorization := strings.TrimSpace(r.Header.Get("Authorization"))
		if !strings.HasPrefix(strings.ToLower(authorization), "bearer ") {
			writeError(w, http.StatusUnauthorized, errors.New("missing bearer token"))
			return
		}

		token := strings.TrimSpace(authorization[len("Bearer "):])
		actor, err := a.auth.ParseToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err)
			return
		}

		next(w, r.WithContext(service.WithActor(r.Context(), actor)))
	}
}

// decodeAndValidate decodes a JSON body strictly and runs struct tag
// validation on it.
func (a *API) decodeAndValidate(r *http.Request, dest any) error {
	if err := decodeJSON(r, dest); err != nil {
		return err
	}
	if err := a.validate.Struct(dest); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return errors.New(validationMessage(verrs[0]))
		}
		return err
	}
	return nil
}

func validationMessage(e validator.FieldError) string {
	field := e.Field()
	switch e.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return field + " must be at most " + e.Param() + " characters"
	case "min":
		return field + " must be at least " + e.Param() + " characters"
	case "datetime":
		return field + " must use the " + e.Param() + " format"
	}
	return field + " is invalid"
}

// writeServiceError maps service and ledger errors to HTTP statuses.
func (a *API) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, err)
	case errors.Is(err, service.ErrConfirmationRequired):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, ledger.ErrValidation), errors.Is(err, store.ErrInvalidWorkspace):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, ledger.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	default:
		a.logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err)
	}
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return err
	}
	return nil
}

func parsePositiveLimit(raw string, fallback int, max int) int {
	limit := fallback
	trimmed := strings.TrimSpace(raw)
	if trimmed != "" {
		if parsed, err := strconv.Atoi(trimmed); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if max > 0 && limit > max {
		return max
	}
	return limit
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

// writeError masks 5xx messages; 4xx messages are meant for the client.
func writeError(w http.ResponseWriter, status int, err error) {
	msg := err.Error()
	if status >= 500 {
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
