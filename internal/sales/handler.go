package sales

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridian-pos/meridian-pos/internal/platform/httpx"
	"github.com/meridian-pos/meridian-pos/internal/shared"
)

var validate = validator.New()

// Handler wires HTTP endpoints for the sales module.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the sales handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers sales routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/sales", func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Delete("/{id}", h.remove)
	})
}

type saleItemRequest struct {
	ItemType  string          `json:"item_type" validate:"omitempty,oneof=product service"`
	ProductID string          `json:"product_id" validate:"omitempty,uuid"`
	ServiceID string          `json:"service_id" validate:"omitempty,uuid"`
	Quantity  int             `json:"quantity" validate:"required,min=1"`
	Price     decimal.Decimal `json:"price"`
}

type salePaymentRequest struct {
	Method          string          `json:"method" validate:"required"`
	Amount          decimal.Decimal `json:"amount"`
	VoucherNumber   string          `json:"voucher_number"`
	ReferenceNumber string          `json:"reference_number"`
}

type createSaleRequest struct {
	CustomerID     string               `json:"customer_id" validate:"omitempty,uuid"`
	UserID         string               `json:"user_id" validate:"required,uuid"`
	CashRegisterID string               `json:"cash_register_id" validate:"omitempty,uuid"`
	InvoiceNumber  string               `json:"invoice_number"`
	TaxAmount      decimal.Decimal      `json:"tax_amount"`
	Discount       decimal.Decimal      `json:"discount"`
	Notes          string               `json:"notes"`
	Items          []saleItemRequest    `json:"items" validate:"required,min=1,dive"`
	Payments       []salePaymentRequest `json:"payments" validate:"required,min=1,dive"`
}

func (req createSaleRequest) toInput() (CreateSaleInput, error) {
	input := CreateSaleInput{
		InvoiceNumber: req.InvoiceNumber,
		TaxAmount:     req.TaxAmount,
		Discount:      req.Discount,
		Notes:         req.Notes,
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return input, fmt.Errorf("malformed user_id: %w", shared.ErrValidation)
	}
	input.UserID = userID

	if req.CustomerID != "" {
		id, err := uuid.Parse(req.CustomerID)
		if err != nil {
			return input, fmt.Errorf("malformed customer_id: %w", shared.ErrValidation)
		}
		input.CustomerID = &id
	}
	if req.CashRegisterID != "" {
		id, err := uuid.Parse(req.CashRegisterID)
		if err != nil {
			return input, fmt.Errorf("malformed cash_register_id: %w", shared.ErrValidation)
		}
		input.CashRegisterID = &id
	}

	for i, item := range req.Items {
		kind := ItemKind(item.ItemType)
		if kind == "" {
			kind = ItemKindProduct
		}
		rawID := item.ProductID
		if kind == ItemKindService {
			rawID = item.ServiceID
		}
		itemID, err := uuid.Parse(rawID)
		if err != nil {
			return input, fmt.Errorf("item %d: malformed %s id: %w", i, kind, shared.ErrValidation)
		}
		input.Items = append(input.Items, LineInput{
			Kind:      kind,
			ItemID:    itemID,
			Quantity:  item.Quantity,
			UnitPrice: item.Price,
		})
	}

	for _, payment := range req.Payments {
		input.Payments = append(input.Payments, PaymentInput{
			Method:          PaymentMethod(payment.Method),
			Amount:          payment.Amount,
			VoucherNumber:   payment.VoucherNumber,
			ReferenceNumber: payment.ReferenceNumber,
		})
	}
	return input, nil
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createSaleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	input, err := req.toInput()
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	sale, err := h.service.Create(r.Context(), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sale)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed id")
		return
	}
	sale, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{}
	if raw := q.Get("date"); raw != "" {
		day, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "date must be YYYY-MM-DD")
			return
		}
		filter.Day = day
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.PerPage, _ = strconv.Atoi(q.Get("limit"))

	sales, pagination, err := h.service.List(r.Context(), filter)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": sales, "meta": pagination})
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed id")
		return
	}
	if err := h.service.Remove(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
