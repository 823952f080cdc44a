package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	_ "github.com/meridian-pos/meridian-pos/internal/testing/guard"
)

type fakeEnqueuer struct {
	payload LowStockScanPayload
	calls   int
	err     error
}

func (f *fakeEnqueuer) EnqueueLowStockScan(_ context.Context, payload LowStockScanPayload) (*asynq.TaskInfo, error) {
	f.calls++
	f.payload = payload
	if f.err != nil {
		return nil, f.err
	}
	return &asynq.TaskInfo{ID: "task-1", Queue: QueueDefault}, nil
}

func newJobsRouter(enqueuer Enqueuer) chi.Router {
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), enqueuer)
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r
}

func TestTriggerLowStockScan(t *testing.T) {
	enq := &fakeEnqueuer{}
	router := newJobsRouter(enq)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs/low-stock-scan", nil))

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, 1, enq.calls)
	require.Contains(t, rec.Body.String(), "task-1")
}

func TestTriggerLowStockScanQueueDown(t *testing.T) {
	enq := &fakeEnqueuer{err: errors.New("dial tcp: connection refused")}
	router := newJobsRouter(enq)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs/low-stock-scan", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
