package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskStockLowScan flags products at or below their minimum stock.
	TaskStockLowScan = "stock:lowscan"
	// TaskReportsDaily precomputes the previous day's sales summary.
	TaskReportsDaily = "reports:daily"
)

// LowStockScanPayload configures a low-stock scan run.
type LowStockScanPayload struct {
	// Limit caps how many products are reported per run. Zero means all.
	Limit int `json:"limit"`
}

// NewLowStockScanTask constructs an Asynq task.
func NewLowStockScanTask(payload LowStockScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStockLowScan, data), nil
}

// DailySummaryPayload configures a daily summary run. An empty date means
// the previous business day.
type DailySummaryPayload struct {
	Date string `json:"date"`
}

// NewDailySummaryTask constructs an Asynq task.
func NewDailySummaryTask(payload DailySummaryPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportsDaily, data), nil
}
