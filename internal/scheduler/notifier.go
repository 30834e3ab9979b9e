package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LogNotifier is the notifier used in server deployments, where no device
// notification subsystem exists. It fires alerts by emitting a structured log
// record at the trigger instant. Mobile builds swap in a platform notifier
// through the same interface.
type LogNotifier struct {
	logger *zap.Logger

	mu     sync.Mutex
	timers map[uuid.UUID]*time.Timer
}

var _ Notifier = (*LogNotifier)(nil)

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{
		logger: logger,
		timers: make(map[uuid.UUID]*time.Timer),
	}
}

// Register arms a timer that logs the notification at its trigger instant.
// A second registration for the same task id replaces the first.
func (n *LogNotifier) Register(ctx context.Context, notification *Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if t, ok := n.timers[notification.TaskID]; ok {
		t.Stop()
	}

	taskID := notification.TaskID
	title := notification.Title
	body := notification.Body
	n.timers[taskID] = time.AfterFunc(time.Until(notification.TriggerAt), func() {
		n.logger.Info("notification_fired",
			zap.String("task_id", taskID.String()),
			zap.String("title", title),
			zap.String("body", body),
		)
		n.mu.Lock()
		delete(n.timers, taskID)
		n.mu.Unlock()
	})

	n.logger.Debug("notification_registered",
		zap.String("task_id", taskID.String()),
		zap.Time("trigger_at", notification.TriggerAt),
	)
	return nil
}

// Cancel disarms any timer for the task id.
func (n *LogNotifier) Cancel(ctx context.Context, taskID uuid.UUID) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if t, ok := n.timers[taskID]; ok {
		t.Stop()
		delete(n.timers, taskID)
	}
	return nil
}

// Armed reports whether a timer is currently registered for the task id.
func (n *LogNotifier) Armed(taskID uuid.UUID) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, ok := n.timers[taskID]
	return ok
}
