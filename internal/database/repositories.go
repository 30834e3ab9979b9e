package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rfaulk/flicklist/internal/models"
)

// TaskRepositoryInterface defines the interface for task repository operations.
// This interface enables better testability by allowing mock implementations.
type TaskRepositoryInterface interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	List(ctx context.Context, completed *bool, tag *string) ([]*models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	ApplyEnrichment(ctx context.Context, id uuid.UUID, e *models.Enrichment) error
	Complete(ctx context.Context, id uuid.UUID, now time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteExpired(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error)
}

// PreferencesRepositoryInterface defines the interface for schedule preference operations
type PreferencesRepositoryInterface interface {
	Get(ctx context.Context) (*models.SchedulePreferences, error)
	Set(ctx context.Context, prefs *models.SchedulePreferences) error
}

// Ensure concrete types implement the interfaces
var (
	_ TaskRepositoryInterface        = (*TaskRepository)(nil)
	_ PreferencesRepositoryInterface = (*PreferencesRepository)(nil)
)
