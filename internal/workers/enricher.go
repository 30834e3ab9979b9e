package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rfaulk/flicklist/internal/database"
	"github.com/rfaulk/flicklist/internal/models"
	"github.com/rfaulk/flicklist/internal/queue"
	"github.com/rfaulk/flicklist/internal/scheduler"
	"github.com/rfaulk/flicklist/internal/services/ai"
	"go.uber.org/zap"
)

// AlertScheduler registers and cancels device alerts for tasks.
type AlertScheduler interface {
	Schedule(ctx context.Context, task *models.Task) (time.Time, error)
	Cancel(ctx context.Context, taskID uuid.UUID) error
}

var _ AlertScheduler = (*scheduler.Scheduler)(nil)

// AIProvider is the slice of the AI service the enricher needs.
type AIProvider interface {
	GenerateReminder(ctx context.Context, task *models.Task) (string, error)
	GenerateTiming(ctx context.Context, task *models.Task, prefs *models.SchedulePreferences) *models.TimingRecommendation
	GenerateTaskBreakdown(ctx context.Context, task *models.Task) []string
}

// Enricher processes task enrichment jobs: it generates reminder text, a
// timing recommendation, and a step breakdown for a task, persists them, and
// schedules the task's device alert.
type Enricher struct {
	aiProvider AIProvider
	taskRepo   database.TaskRepositoryInterface
	prefsRepo  database.PreferencesRepositoryInterface
	alerts     AlertScheduler
	jobQueue   queue.JobQueue // For re-enqueueing jobs with delays
	logger     *zap.Logger
}

// NewEnricher creates a new enricher
func NewEnricher(
	aiProvider AIProvider,
	taskRepo database.TaskRepositoryInterface,
	prefsRepo database.PreferencesRepositoryInterface,
	alerts AlertScheduler,
	jobQueue queue.JobQueue,
	logger *zap.Logger,
) *Enricher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enricher{
		aiProvider: aiProvider,
		taskRepo:   taskRepo,
		prefsRepo:  prefsRepo,
		alerts:     alerts,
		jobQueue:   jobQueue,
		logger:     logger,
	}
}

// ProcessEnrichmentJob enriches a single task. Reminder generation errors
// propagate so the job is retried; timing and breakdown generation degrade to
// defaults inside the provider and never fail the job.
func (e *Enricher) ProcessEnrichmentJob(ctx context.Context, job *queue.Job) error {
	task, err := e.taskRepo.GetByID(ctx, job.TaskID)
	if err != nil {
		if errors.Is(err, database.ErrTaskNotFound) {
			// Deleted before the worker got to it.
			e.logger.Info("enrichment_task_gone", zap.String("task_id", job.TaskID.String()))
			return nil
		}
		return fmt.Errorf("failed to get task: %w", err)
	}

	if task.Completed {
		e.logger.Info("enrichment_task_completed", zap.String("task_id", task.ID.String()))
		return nil
	}

	prefs, err := e.prefsRepo.Get(ctx)
	if err != nil {
		e.logger.Warn("preferences_load_failed", zap.Error(err))
		prefs = models.DefaultSchedulePreferences()
	}

	timing := e.aiProvider.GenerateTiming(ctx, task, prefs)

	reminder, err := e.aiProvider.GenerateReminder(ctx, task)
	if err != nil {
		return fmt.Errorf("failed to generate reminder: %w", err)
	}

	steps := e.aiProvider.GenerateTaskBreakdown(ctx, task)

	enrichment := &models.Enrichment{
		ReminderText: reminder,
		TaskList:     steps,
		Timing:       timing,
	}
	if err := e.taskRepo.ApplyEnrichment(ctx, task.ID, enrichment); err != nil {
		if errors.Is(err, database.ErrTaskNotFound) {
			// Deleted mid-enrichment; nothing to persist or schedule.
			return nil
		}
		return fmt.Errorf("failed to apply enrichment: %w", err)
	}

	task.ReminderText = reminder
	task.TaskList = steps
	task.Timing = timing

	// A refused alert (lead time too short) is not a job failure; the
	// enrichment itself is already persisted.
	if triggerAt, err := e.alerts.Schedule(ctx, task); err != nil {
		e.logger.Warn("alert_schedule_skipped",
			zap.String("task_id", task.ID.String()),
			zap.Error(err),
		)
	} else {
		e.logger.Info("task_enriched",
			zap.String("task_id", task.ID.String()),
			zap.Time("alert_at", triggerAt),
		)
	}

	return nil
}

// ProcessJob processes a job based on its type
func (e *Enricher) ProcessJob(ctx context.Context, msg queue.Message) error {
	job := msg.Job()

	// Respect NotBefore for drivers without delayed delivery.
	if !job.ShouldProcess() {
		if nackErr := msg.Nack(true); nackErr != nil {
			e.logger.Error("job_requeue_failed", zap.Error(nackErr))
		}
		return nil
	}

	switch job.Type {
	case queue.JobTypeTaskEnrichment:
		if err := e.ProcessEnrichmentJob(ctx, job); err != nil {
			return e.handleJobError(ctx, msg, job, err)
		}
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack job: %w", ackErr)
		}
		return nil

	default:
		if nackErr := msg.Nack(false); nackErr != nil { // Unknown job type, send to DLQ
			e.logger.Error("job_nack_failed", zap.Error(nackErr))
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

// handleJobError decides between delayed re-enqueue, immediate requeue, and
// dead-lettering for a failed enrichment job.
func (e *Enricher) handleJobError(ctx context.Context, msg queue.Message, job *queue.Job, err error) error {
	// Rate limits and quota exhaustion get a delayed retry via NotBefore so
	// the worker does not hammer the API.
	if apiErr := ai.ExtractAPIError(err); apiErr != nil && job.CanRetry() && e.jobQueue != nil {
		notBefore := time.Now().Add(ai.RequeueDelay(err))
		delayed := *job
		delayed.NotBefore = &notBefore
		delayed.RetryCount = job.RetryCount + 1

		if ackErr := msg.Ack(); ackErr != nil {
			e.logger.Error("job_ack_failed", zap.Error(ackErr))
		}
		if enqueueErr := e.jobQueue.Enqueue(ctx, &delayed); enqueueErr != nil {
			return fmt.Errorf("rate limited, failed to re-enqueue: %w", enqueueErr)
		}
		e.logger.Warn("job_delayed",
			zap.String("job_id", job.ID.String()),
			zap.Time("not_before", notBefore),
			zap.Bool("quota_exhausted", apiErr.IsPermanent),
		)
		return nil
	}

	if job.CanRetry() {
		job.IncrementRetry()
		e.logger.Warn("job_retry",
			zap.String("job_id", job.ID.String()),
			zap.Int("attempt", job.RetryCount),
			zap.Int("max_retries", job.MaxRetries),
			zap.Error(err),
		)
		if nackErr := msg.Nack(true); nackErr != nil {
			e.logger.Error("job_nack_failed", zap.Error(nackErr))
		}
		return fmt.Errorf("job failed (will retry): %w", err)
	}

	// Max retries exceeded, send to DLQ
	e.logger.Error("job_dead_lettered",
		zap.String("job_id", job.ID.String()),
		zap.Int("max_retries", job.MaxRetries),
		zap.Error(err),
	)
	if nackErr := msg.Nack(false); nackErr != nil {
		e.logger.Error("job_nack_failed", zap.Error(nackErr))
	}
	return fmt.Errorf("job failed (max retries): %w", err)
}
