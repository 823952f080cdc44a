package jobs

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	"github.com/meridian-pos/meridian-pos/internal/platform/httpx"
)

// Enqueuer submits maintenance jobs for immediate execution.
type Enqueuer interface {
	EnqueueLowStockScan(ctx context.Context, payload LowStockScanPayload) (*asynq.TaskInfo, error)
}

// Handler exposes admin endpoints for triggering jobs outside their
// cron schedule.
type Handler struct {
	logger   *slog.Logger
	enqueuer Enqueuer
}

// NewHandler constructs the jobs handler.
func NewHandler(logger *slog.Logger, enqueuer Enqueuer) *Handler {
	return &Handler{logger: logger, enqueuer: enqueuer}
}

// MountRoutes registers job trigger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/jobs", func(r chi.Router) {
		r.Post("/low-stock-scan", h.triggerLowStockScan)
	})
}

type enqueuedResponse struct {
	TaskID string `json:"task_id"`
	Queue  string `json:"queue"`
}

func (h *Handler) triggerLowStockScan(w http.ResponseWriter, r *http.Request) {
	if h.enqueuer == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "queue unavailable", "job queue is not configured")
		return
	}
	info, err := h.enqueuer.EnqueueLowStockScan(r.Context(), LowStockScanPayload{})
	if err != nil {
		h.logger.Error("enqueue low stock scan", slog.Any("error", err))
		httpx.Problem(w, http.StatusServiceUnavailable, "queue unavailable", "could not enqueue low stock scan")
		return
	}
	httpx.JSON(w, http.StatusAccepted, enqueuedResponse{TaskID: info.ID, Queue: info.Queue})
}
