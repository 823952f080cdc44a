package purchases

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridian-pos/meridian-pos/internal/platform/httpx"
	"github.com/meridian-pos/meridian-pos/internal/shared"
)

var validate = validator.New()

// Handler wires HTTP endpoints for the purchases module.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the purchases handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers purchase routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/purchases", func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Delete("/{id}", h.remove)
	})
}

type purchaseDetailRequest struct {
	ProductID string          `json:"product_id" validate:"required,uuid"`
	Quantity  int             `json:"quantity" validate:"required,min=1"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

type createPurchaseRequest struct {
	SupplierID    string                  `json:"supplier_id" validate:"required,uuid"`
	UserID        string                  `json:"user_id" validate:"required,uuid"`
	InvoiceNumber string                  `json:"invoice_number"`
	Notes         string                  `json:"notes"`
	Details       []purchaseDetailRequest `json:"details" validate:"required,min=1,dive"`
}

func (req createPurchaseRequest) toInput() (CreatePurchaseInput, error) {
	input := CreatePurchaseInput{
		InvoiceNumber: req.InvoiceNumber,
		Notes:         req.Notes,
	}

	supplierID, err := uuid.Parse(req.SupplierID)
	if err != nil {
		return input, fmt.Errorf("malformed supplier_id: %w", shared.ErrValidation)
	}
	input.SupplierID = supplierID

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return input, fmt.Errorf("malformed user_id: %w", shared.ErrValidation)
	}
	input.UserID = userID

	for i, d := range req.Details {
		productID, err := uuid.Parse(d.ProductID)
		if err != nil {
			return input, fmt.Errorf("detail %d: malformed product_id: %w", i, shared.ErrValidation)
		}
		input.Details = append(input.Details, DetailInput{
			ProductID: productID,
			Quantity:  d.Quantity,
			UnitCost:  d.UnitCost,
		})
	}
	return input, nil
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createPurchaseRequest
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
	purchase, err := h.service.Create(r.Context(), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, purchase)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed id")
		return
	}
	purchase, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, purchase)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("limit"))

	purchases, pagination, err := h.service.List(r.Context(), page, perPage)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": purchases, "meta": pagination})
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
