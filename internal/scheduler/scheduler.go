// Package scheduler turns a timing recommendation into a concrete future
// device alert.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rfaulk/flicklist/internal/models"
	"go.uber.org/zap"
)

// MinimumLead is the shortest allowed interval between now and a scheduled
// alert. Anything closer would fire near-instantly and is refused instead.
const MinimumLead = 60 * time.Second

// ErrLeadTooShort is returned when the computed trigger instant is under
// MinimumLead away, even after rolling forward a day.
var ErrLeadTooShort = errors.New("notification lead time under minimum")

// ErrNoTiming is returned when the task carries no timing recommendation.
var ErrNoTiming = errors.New("task has no timing recommendation")

// Notification is the payload handed to the device notification subsystem.
type Notification struct {
	Title     string
	Body      string
	TaskID    uuid.UUID
	TriggerAt time.Time
}

// Notifier registers alerts with the host device's notification subsystem.
// Delivery is entirely the device's responsibility once registered.
type Notifier interface {
	Register(ctx context.Context, n *Notification) error
	Cancel(ctx context.Context, taskID uuid.UUID) error
}

// Scheduler computes trigger instants and keeps at most one pending alert per
// task id.
type Scheduler struct {
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time

	mu      sync.Mutex
	pending map[uuid.UUID]time.Time
}

// New creates a scheduler backed by the given notifier.
func New(notifier Notifier, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
		pending:  make(map[uuid.UUID]time.Time),
	}
}

// Schedule registers an alert for the task at its recommended time applied to
// its due date. An instant not strictly in the future rolls forward one day.
// Any prior pending alert for the same task id is cancelled first so a task
// never has duplicate alerts.
func (s *Scheduler) Schedule(ctx context.Context, task *models.Task) (time.Time, error) {
	if task.Timing == nil {
		return time.Time{}, ErrNoTiming
	}

	clock, err := time.Parse("15:04", task.Timing.RecommendedTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse recommended time %q: %w", task.Timing.RecommendedTime, err)
	}

	now := s.now()
	due := task.DueDate
	target := time.Date(due.Year(), due.Month(), due.Day(),
		clock.Hour(), clock.Minute(), 0, 0, due.Location())

	if !target.After(now) {
		target = target.AddDate(0, 0, 1)
	}
	if target.Sub(now) < MinimumLead {
		return time.Time{}, fmt.Errorf("%w: %v until trigger", ErrLeadTooShort, target.Sub(now))
	}

	s.mu.Lock()
	_, hadPending := s.pending[task.ID]
	s.mu.Unlock()

	if hadPending {
		if err := s.notifier.Cancel(ctx, task.ID); err != nil {
			return time.Time{}, fmt.Errorf("cancel prior alert: %w", err)
		}
	}

	body := task.ReminderText
	if body == "" {
		body = fmt.Sprintf("Don't forget: %s", task.Title)
	}

	n := &Notification{
		Title:     fmt.Sprintf("Task Reminder: %s", task.Title),
		Body:      body,
		TaskID:    task.ID,
		TriggerAt: target,
	}
	if err := s.notifier.Register(ctx, n); err != nil {
		return time.Time{}, fmt.Errorf("register alert: %w", err)
	}

	s.mu.Lock()
	s.pending[task.ID] = target
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Info("notification_scheduled",
			zap.String("task_id", task.ID.String()),
			zap.Time("trigger_at", target),
		)
	}
	return target, nil
}

// Cancel removes any pending alert for the task id. Cancelling a task with no
// pending alert is a no-op.
func (s *Scheduler) Cancel(ctx context.Context, taskID uuid.UUID) error {
	s.mu.Lock()
	_, ok := s.pending[taskID]
	delete(s.pending, taskID)
	s.mu.Unlock()

	if !ok {
		return nil
	}
	if err := s.notifier.Cancel(ctx, taskID); err != nil {
		return fmt.Errorf("cancel alert: %w", err)
	}
	return nil
}

// Pending reports whether the task currently has a registered alert and when
// it would fire.
func (s *Scheduler) Pending(taskID uuid.UUID) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	at, ok := s.pending[taskID]
	return at, ok
}
