package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/meridian-pos/meridian-pos/internal/reports"
	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// LowStockScanJob logs and audits every physical product at or below its
// minimum stock, so restocking is visible without anyone opening the
// dashboard. Read-only against the ledger.
type LowStockScanJob struct {
	Reports *reports.Service
	Audit   *shared.AuditLogger
	Logger  *slog.Logger
}

// NewLowStockScanJob initialises the low-stock scan handler.
func NewLowStockScanJob(reportsService *reports.Service, audit *shared.AuditLogger, logger *slog.Logger) *LowStockScanJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &LowStockScanJob{Reports: reportsService, Audit: audit, Logger: logger}
}

// Handle executes the low-stock scan.
func (j *LowStockScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Reports == nil {
		return errors.New("low stock scan: handler not configured")
	}
	var payload LowStockScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	products, err := j.Reports.GetLowStockProducts(ctx)
	if err != nil {
		j.Logger.Error("low stock scan failed", slog.Any("error", err))
		return err
	}
	if payload.Limit > 0 && len(products) > payload.Limit {
		products = products[:payload.Limit]
	}

	for _, p := range products {
		j.Logger.Warn("product below minimum stock",
			slog.String("product_id", p.ProductID.String()),
			slog.String("name", p.Name),
			slog.Int("stock", p.Stock),
			slog.Int("min_stock", p.MinStock),
		)
	}

	if j.Audit != nil && len(products) > 0 {
		err := j.Audit.Record(ctx, shared.AuditLog{
			ActorID:  "system",
			Action:   "stock.lowscan",
			Entity:   "product",
			EntityID: "low-stock",
			Meta:     map[string]any{"count": len(products)},
		})
		if err != nil {
			j.Logger.Warn("audit record failed", slog.Any("error", err))
		}
	}

	j.Logger.Info("low stock scan finished", slog.Int("flagged", len(products)))
	return nil
}
