package cashregister

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridian-pos/meridian-pos/internal/platform/httpx"
)

var validate = validator.New()

// Handler wires HTTP endpoints for cash register sessions.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the cash register handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers cash register routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/cash-registers", func(r chi.Router) {
		r.Post("/", h.open)
		r.Get("/", h.list)
		r.Get("/open", h.getOpen)
		r.Get("/{id}", h.get)
		r.Post("/{id}/close", h.close)
		r.Delete("/{id}", h.remove)
	})
}

type openRegisterRequest struct {
	UserID        string          `json:"user_id" validate:"required,uuid"`
	OpeningAmount decimal.Decimal `json:"opening_amount"`
	Notes         string          `json:"notes"`
}

type closeRegisterRequest struct {
	ClosingAmount decimal.Decimal `json:"closing_amount"`
}

func (h *Handler) open(w http.ResponseWriter, r *http.Request) {
	var req openRegisterRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed user_id")
		return
	}
	reg, err := h.service.Open(r.Context(), userID, req.OpeningAmount, req.Notes)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, reg)
}

func (h *Handler) close(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed id")
		return
	}
	var req closeRegisterRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	reg, err := h.service.Close(r.Context(), id, req.ClosingAmount)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, reg)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed id")
		return
	}
	reg, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, reg)
}

func (h *Handler) getOpen(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.URL.Query().Get("user_id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "user_id query parameter is required")
		return
	}
	reg, err := h.service.GetOpenForUser(r.Context(), userID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, reg)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("limit"))

	registers, pagination, err := h.service.List(r.Context(), page, perPage)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": registers, "meta": pagination})
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
