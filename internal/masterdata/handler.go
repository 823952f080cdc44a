package masterdata

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/meridian-pos/meridian-pos/internal/platform/httpx"
)

var validate = validator.New()

// Handler wires HTTP endpoints for customers, suppliers and users.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the masterdata handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers masterdata routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/customers", func(r chi.Router) {
		r.Post("/", h.createCustomer)
		r.Get("/", h.listCustomers)
		r.Get("/{id}", h.getCustomer)
		r.Put("/{id}", h.updateCustomer)
		r.Delete("/{id}", h.deactivateCustomer)
	})
	r.Route("/suppliers", func(r chi.Router) {
		r.Post("/", h.createSupplier)
		r.Get("/", h.listSuppliers)
		r.Get("/{id}", h.getSupplier)
		r.Put("/{id}", h.updateSupplier)
		r.Delete("/{id}", h.deactivateSupplier)
	})
	r.Route("/users", func(r chi.Router) {
		r.Post("/", h.createUser)
		r.Get("/", h.listUsers)
		r.Get("/{id}", h.getUser)
		r.Delete("/{id}", h.deactivateUser)
	})
}

func parseID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	return id, err == nil
}

type customerRequest struct {
	Name     string `json:"name" validate:"required"`
	Document string `json:"document"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

func (req customerRequest) toInput() CustomerInput {
	return CustomerInput{Name: req.Name, Document: req.Document, Email: req.Email, Phone: req.Phone, Address: req.Address}
}

type supplierRequest struct {
	Name        string `json:"name" validate:"required"`
	Document    string `json:"document"`
	ContactName string `json:"contact_name"`
	Email       string `json:"email" validate:"omitempty,email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
}

func (req supplierRequest) toInput() SupplierInput {
	return SupplierInput{Name: req.Name, Document: req.Document, ContactName: req.ContactName, Email: req.Email, Phone: req.Phone, Address: req.Address}
}

type userRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Role     string `json:"role" validate:"omitempty,oneof=admin cashier"`
	Password string `json:"password" validate:"required,min=8"`
}

func decodeValid(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := httpx.DecodeJSON(r, dest); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return false
	}
	if err := validate.Struct(dest); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return false
	}
	return true
}

func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if !decodeValid(w, r, &req) {
		return
	}
	customer, err := h.service.CreateCustomer(r.Context(), req.toInput())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, customer)
}

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.service.ListCustomers(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, customers)
}

func (h *Handler) getCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed id")
		return
	}
	customer, err := h.service.GetCustomer(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, customer)
}

func (h *Handler) updateCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed id")
		return
	}
	var req customerRequest
	if !decodeValid(w, r, &req) {
		return
	}
	customer, err := h.service.UpdateCustomer(r.Context(), id, req.toInput())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, customer)
}

func (h *Handler) deactivateCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed id")
		return
	}
	if err := h.service.DeactivateCustomer(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) createSupplier(w http.ResponseWriter, r *http.Request) {
	var req supplierRequest
	if !decodeValid(w, r, &req) {
		return
	}
	supplier, err := h.service.CreateSupplier(r.Context(), req.toInput())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, supplier)
}

func (h *Handler) listSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.service.ListSuppliers(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, suppliers)
}

func (h *Handler) getSupplier(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed id")
		return
	}
	supplier, err := h.service.GetSupplier(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, supplier)
}

func (h *Handler) updateSupplier(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed id")
		return
	}
	var req supplierRequest
	if !decodeValid(w, r, &req) {
		return
	}
	supplier, err := h.service.UpdateSupplier(r.Context(), id, req.toInput())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, supplier)
}

func (h *Handler) deactivateSupplier(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed id")
		return
	}
	if err := h.service.DeactivateSupplier(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if !decodeValid(w, r, &req) {
		return
	}
	user, err := h.service.CreateUser(r.Context(), UserInput{
		Name:     req.Name,
		Email:    req.Email,
		Role:     req.Role,
		Password: req.Password,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, user)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, users)
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed id")
		return
	}
	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) deactivateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed id")
		return
	}
	if err := h.service.DeactivateUser(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
