package reports

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/meridian-pos/meridian-pos/internal/platform/httpx"
)

// Handler wires HTTP endpoints for ledger reports.
type Handler struct {
	logger  *slog.Logger
	service *Service
	loc     *time.Location
}

// NewHandler constructs the reports handler. loc interprets date query
// parameters as business-day boundaries.
func NewHandler(logger *slog.Logger, service *Service, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{logger: logger, service: service, loc: loc}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Get("/dashboard", h.dashboard)
		r.Get("/sales-chart", h.salesChart)
		r.Get("/top-items", h.topItems)
		r.Get("/sales-by-kind", h.salesByKind)
		r.Get("/payment-methods", h.paymentMethods)
		r.Get("/mixed-payments", h.mixedPayments)
		r.Get("/vouchers", h.vouchers)
		r.Get("/daily-sales", h.dailySales)
		r.Get("/registers/{id}/reconciliation", h.registerReconciliation)
		r.Get("/low-stock", h.lowStock)
	})
}

// parseRange reads optional from/to query parameters (YYYY-MM-DD). The
// "to" day is inclusive: the window ends at the following midnight.
func (h *Handler) parseRange(r *http.Request) (DateRange, bool) {
	var dr DateRange
	q := r.URL.Query()
	if raw := q.Get("from"); raw != "" {
		day, err := time.ParseInLocation("2006-01-02", raw, h.loc)
		if err != nil {
			return dr, false
		}
		dr.From = day.UTC()
	}
	if raw := q.Get("to"); raw != "" {
		day, err := time.ParseInLocation("2006-01-02", raw, h.loc)
		if err != nil {
			return dr, false
		}
		dr.To = day.AddDate(0, 0, 1).UTC()
	}
	return dr, true
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	dr, ok := h.parseRange(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "from/to must be YYYY-MM-DD")
		return
	}
	stats, err := h.service.GetDashboardStats(r.Context(), dr)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}

func (h *Handler) salesChart(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "week"
	}
	points, err := h.service.GetSalesChart(r.Context(), period)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, points)
}

func (h *Handler) topItems(w http.ResponseWriter, r *http.Request) {
	dr, ok := h.parseRange(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "from/to must be YYYY-MM-DD")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	items, err := h.service.GetTopSellingItems(r.Context(), limit, dr)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) salesByKind(w http.ResponseWriter, r *http.Request) {
	dr, ok := h.parseRange(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "from/to must be YYYY-MM-DD")
		return
	}
	breakdown, err := h.service.GetSalesByKind(r.Context(), dr)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, breakdown)
}

func (h *Handler) paymentMethods(w http.ResponseWriter, r *http.Request) {
	dr, ok := h.parseRange(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "from/to must be YYYY-MM-DD")
		return
	}
	breakdown, err := h.service.GetSalesByPaymentMethod(r.Context(), dr)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, breakdown)
}

func (h *Handler) mixedPayments(w http.ResponseWriter, r *http.Request) {
	dr, ok := h.parseRange(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "from/to must be YYYY-MM-DD")
		return
	}
	sales, err := h.service.GetMixedPaymentSales(r.Context(), dr)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sales)
}

func (h *Handler) vouchers(w http.ResponseWriter, r *http.Request) {
	dr, ok := h.parseRange(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "from/to must be YYYY-MM-DD")
		return
	}
	entries, err := h.service.GetVouchers(r.Context(), dr)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entries)
}

func (h *Handler) dailySales(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("date")
	day := time.Now().In(h.loc)
	if raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, h.loc)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}
	summary, err := h.service.GetDailySales(r.Context(), day)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) registerReconciliation(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed id")
		return
	}
	rec, err := h.service.GetRegisterReconciliation(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.GetLowStockProducts(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, products)
}
