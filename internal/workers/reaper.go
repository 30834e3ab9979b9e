package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/rfaulk/flicklist/internal/database"
	"github.com/rfaulk/flicklist/internal/models"
	"go.uber.org/zap"
)

// DefaultReapInterval is how often the reaper sweeps for stale tasks.
const DefaultReapInterval = 15 * time.Minute

// Reaper periodically deletes uncompleted tasks that have passed their expiry
// window and cancels their pending alerts.
type Reaper struct {
	taskRepo database.TaskRepositoryInterface
	alerts   AlertScheduler
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewReaper creates a reaper sweeping at the given interval. A non-positive
// interval uses DefaultReapInterval.
func NewReaper(taskRepo database.TaskRepositoryInterface, alerts AlertScheduler, interval time.Duration, logger *zap.Logger) *Reaper {
	if interval <= 0 {
		interval = DefaultReapInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reaper{
		taskRepo: taskRepo,
		alerts:   alerts,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Start runs the reap loop until ctx is cancelled.
func (r *Reaper) Start(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.reap(ctx); err != nil {
				r.logger.Error("reap_failed", zap.Error(err))
			}
		}
	}
}

// reap deletes tasks created before the expiry cutoff and cancels their alerts.
func (r *Reaper) reap(ctx context.Context) error {
	cutoff := r.now().Add(-models.TaskExpiry)

	ids, err := r.taskRepo.DeleteExpired(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("delete expired tasks: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	for _, id := range ids {
		if r.alerts == nil {
			continue
		}
		if err := r.alerts.Cancel(ctx, id); err != nil {
			r.logger.Warn("alert_cancel_failed",
				zap.String("task_id", id.String()),
				zap.Error(err),
			)
		}
	}

	r.logger.Info("tasks_reaped",
		zap.Int("count", len(ids)),
		zap.Time("cutoff", cutoff),
	)
	return nil
}
