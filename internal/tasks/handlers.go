package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/holden/retroboard/internal/metrics"
	"github.com/holden/retroboard/internal/session"
	"gorm.io/gorm"
)

type Handler struct {
	logger  *slog.Logger
	cleanup *session.CleanupService
}

func NewHandler(db *gorm.DB, logger *slog.Logger, rec metrics.Recorder) *Handler {
	return &Handler{
		logger:  logger,
		cleanup: session.NewCleanupService(db, logger, rec),
	}
}

func (h *Handler) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeSessionCleanup, h.HandleSessionCleanup)
}

func (h *Handler) HandleSessionCleanup(ctx context.Context, t *asynq.Task) error {
	var payload SessionCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	threshold := time.Duration(payload.ThresholdMinutes) * time.Minute
	h.logger.Info("running session cleanup task", "threshold", threshold.String())

	return h.cleanup.PerformScheduledCleanup(ctx, threshold)
}

// CleanupEnqueuer satisfies session.Sweeper by handing the sweep to a
// worker through the task queue instead of running it in-process.
type CleanupEnqueuer struct {
	client *asynq.Client
	logger *slog.Logger
}

func NewCleanupEnqueuer(client *asynq.Client, logger *slog.Logger) *CleanupEnqueuer {
	return &CleanupEnqueuer{client: client, logger: logger}
}

func (e *CleanupEnqueuer) PerformScheduledCleanup(ctx context.Context, threshold time.Duration) error {
	task, err := NewSessionCleanupTask(SessionCleanupPayload{
		ThresholdMinutes: int(threshold / time.Minute),
	})
	if err != nil {
		return err
	}

	info, err := e.client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("enqueueing session cleanup: %w", err)
	}

	e.logger.Debug("enqueued session cleanup task", "task_id", info.ID, "queue", info.Queue)
	return nil
}

var _ session.Sweeper = (*CleanupEnqueuer)(nil)
