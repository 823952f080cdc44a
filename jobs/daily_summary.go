package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridian-pos/meridian-pos/internal/reports"
	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// DailySummaryJob snapshots one business day's sales totals into the
// audit trail. Read-only against the ledger.
type DailySummaryJob struct {
	Reports *reports.Service
	Audit   *shared.AuditLogger
	Logger  *slog.Logger
	Loc     *time.Location
	clock   func() time.Time
}

// NewDailySummaryJob initialises the daily summary handler.
func NewDailySummaryJob(reportsService *reports.Service, audit *shared.AuditLogger, logger *slog.Logger, loc *time.Location) *DailySummaryJob {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &DailySummaryJob{
		Reports: reportsService,
		Audit:   audit,
		Logger:  logger,
		Loc:     loc,
		clock:   func() time.Time { return time.Now().UTC() },
	}
}

// Handle executes the daily summary.
func (j *DailySummaryJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Reports == nil {
		return errors.New("daily summary: handler not configured")
	}
	var payload DailySummaryPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	day := j.clock().In(j.Loc).AddDate(0, 0, -1)
	if payload.Date != "" {
		parsed, err := time.ParseInLocation("2006-01-02", payload.Date, j.Loc)
		if err != nil {
			j.Logger.Error("malformed date in payload", slog.String("date", payload.Date))
			return asynq.SkipRetry
		}
		day = parsed
	}

	summary, err := j.Reports.GetDailySales(ctx, day)
	if err != nil {
		j.Logger.Error("daily summary failed", slog.Any("error", err))
		return err
	}

	j.Logger.Info("daily sales summary",
		slog.String("date", summary.Date),
		slog.Int("sales", summary.TotalSales),
		slog.String("revenue", summary.TotalRevenue.String()),
	)

	if j.Audit != nil {
		byMethod := make(map[string]string, len(summary.ByMethod))
		for _, m := range summary.ByMethod {
			byMethod[m.Method] = m.Amount.String()
		}
		err := j.Audit.Record(ctx, shared.AuditLog{
			ActorID:  "system",
			Action:   "reports.daily",
			Entity:   "sales_summary",
			EntityID: summary.Date,
			Meta: map[string]any{
				"total_sales":   summary.TotalSales,
				"total_revenue": summary.TotalRevenue.String(),
				"by_method":     byMethod,
			},
		})
		if err != nil {
			j.Logger.Warn("audit record failed", slog.Any("error", err))
		}
	}
	return nil
}
