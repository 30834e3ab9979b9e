package database

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rfaulk/flicklist/internal/models"
)

func newTestRepo(t *testing.T) *TaskRepository {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "tasks.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewTaskRepository(db)
}

func newTestTask() *models.Task {
	priority := models.PriorityHigh
	return &models.Task{
		ID:          uuid.New(),
		Title:       "write quarterly report",
		Description: "include revenue breakdown",
		DueDate:     time.Date(2024, 3, 20, 17, 0, 0, 0, time.UTC),
		Tags:        []string{"work", "reports"},
		Priority:    &priority,
		CreatedAt:   time.Date(2024, 3, 18, 9, 0, 0, 0, time.UTC),
	}
}

func TestTaskRepository_RoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	task := newTestTask()
	task.TaskList = []string{"draft outline", "fill in numbers", "proofread"}
	task.ReminderText = "Report won't write itself."
	task.Timing = &models.TimingRecommendation{
		RecommendedTime: "10:30",
		Reasoning:       "Mid-morning focus window",
		Confidence:      0.8,
	}

	if err := repo.Create(ctx, task); err != nil {
		t.Fatalf("Create: %v", err)
	}

	tasks, err := repo.List(ctx, nil, nil)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("List returned %d tasks, want 1", len(tasks))
	}

	got := tasks[0]
	if got.ID != task.ID {
		t.Errorf("ID = %v, want %v", got.ID, task.ID)
	}
	if got.Title != task.Title || got.Description != task.Description {
		t.Errorf("Title/Description = %q/%q, want %q/%q", got.Title, got.Description, task.Title, task.Description)
	}
	if !got.DueDate.Equal(task.DueDate) {
		t.Errorf("DueDate = %v, want %v", got.DueDate, task.DueDate)
	}
	if !got.CreatedAt.Equal(task.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, task.CreatedAt)
	}
	if got.Completed || got.CompletedAt != nil {
		t.Errorf("new task should not be completed, got %v/%v", got.Completed, got.CompletedAt)
	}
	if !reflect.DeepEqual(got.Tags, task.Tags) {
		t.Errorf("Tags = %v, want %v", got.Tags, task.Tags)
	}
	if got.Priority == nil || *got.Priority != *task.Priority {
		t.Errorf("Priority = %v, want %v", got.Priority, task.Priority)
	}
	if !reflect.DeepEqual(got.TaskList, task.TaskList) {
		t.Errorf("TaskList = %v, want %v", got.TaskList, task.TaskList)
	}
	if got.ReminderText != task.ReminderText {
		t.Errorf("ReminderText = %q, want %q", got.ReminderText, task.ReminderText)
	}
	if !reflect.DeepEqual(got.Timing, task.Timing) {
		t.Errorf("Timing = %+v, want %+v", got.Timing, task.Timing)
	}
}

func TestTaskRepository_OptionalFieldsAbsent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	task := &models.Task{
		ID:        uuid.New(),
		Title:     "buy milk",
		DueDate:   time.Now().UTC(),
		Tags:      []string{},
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.Create(ctx, task); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Description != "" || got.Priority != nil || got.Timing != nil || got.TaskList != nil || got.ReminderText != "" {
		t.Errorf("optional fields should be absent, got %+v", got)
	}
	if len(got.Tags) != 0 {
		t.Errorf("Tags = %v, want empty", got.Tags)
	}
}

func TestTaskRepository_CompleteIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	task := newTestTask()
	if err := repo.Create(ctx, task); err != nil {
		t.Fatalf("Create: %v", err)
	}

	first := time.Date(2024, 3, 19, 12, 0, 0, 0, time.UTC)
	if err := repo.Complete(ctx, task.ID, first); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	got, err := repo.GetByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !got.Completed || got.CompletedAt == nil || !got.CompletedAt.Equal(first) {
		t.Fatalf("after first complete: completed=%v completedAt=%v", got.Completed, got.CompletedAt)
	}

	// Second completion must not refresh the timestamp.
	second := first.Add(2 * time.Hour)
	if err := repo.Complete(ctx, task.ID, second); err != nil {
		t.Fatalf("Complete (second): %v", err)
	}

	got, err = repo.GetByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !got.CompletedAt.Equal(first) {
		t.Errorf("CompletedAt = %v, want original %v", got.CompletedAt, first)
	}
}

func TestTaskRepository_NotFound(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	missing := uuid.New()

	if _, err := repo.GetByID(ctx, missing); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("GetByID error = %v, want ErrTaskNotFound", err)
	}
	if err := repo.Update(ctx, &models.Task{ID: missing, Tags: []string{}, DueDate: time.Now(), CreatedAt: time.Now()}); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Update error = %v, want ErrTaskNotFound", err)
	}
	if err := repo.Complete(ctx, missing, time.Now()); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Complete error = %v, want ErrTaskNotFound", err)
	}
	if err := repo.Delete(ctx, missing); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Delete error = %v, want ErrTaskNotFound", err)
	}
	if err := repo.ApplyEnrichment(ctx, missing, &models.Enrichment{ReminderText: "x"}); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("ApplyEnrichment error = %v, want ErrTaskNotFound", err)
	}
}

func TestTaskRepository_ApplyEnrichment(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	task := newTestTask()
	if err := repo.Create(ctx, task); err != nil {
		t.Fatalf("Create: %v", err)
	}

	enrichment := &models.Enrichment{
		ReminderText: "Get the report done or else.",
		TaskList:     []string{"Start working on write quarterly report", "Review progress", "Complete and verify"},
		Timing: &models.TimingRecommendation{
			RecommendedTime: "09:00",
			Reasoning:       "Default morning reminder due to API error",
			Confidence:      0.5,
		},
	}
	if err := repo.ApplyEnrichment(ctx, task.ID, enrichment); err != nil {
		t.Fatalf("ApplyEnrichment: %v", err)
	}

	got, err := repo.GetByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.ReminderText != enrichment.ReminderText {
		t.Errorf("ReminderText = %q, want %q", got.ReminderText, enrichment.ReminderText)
	}
	if !reflect.DeepEqual(got.TaskList, enrichment.TaskList) {
		t.Errorf("TaskList = %v, want %v", got.TaskList, enrichment.TaskList)
	}
	if !reflect.DeepEqual(got.Timing, enrichment.Timing) {
		t.Errorf("Timing = %+v, want %+v", got.Timing, enrichment.Timing)
	}
	// User-owned fields stay untouched.
	if got.Title != task.Title || !got.DueDate.Equal(task.DueDate) {
		t.Errorf("enrichment must not modify user fields: %+v", got)
	}
}

func TestTaskRepository_ListFilters(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	done := newTestTask()
	done.Title = "done task"
	open := newTestTask()
	open.ID = uuid.New()
	open.Title = "open task"
	open.Tags = []string{"errands"}

	for _, task := range []*models.Task{done, open} {
		if err := repo.Create(ctx, task); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	if err := repo.Complete(ctx, done.ID, time.Now()); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	completed := true
	tasks, err := repo.List(ctx, &completed, nil)
	if err != nil {
		t.Fatalf("List completed: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != done.ID {
		t.Errorf("completed filter returned %v", tasks)
	}

	tag := "errands"
	tasks, err = repo.List(ctx, nil, &tag)
	if err != nil {
		t.Fatalf("List by tag: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != open.ID {
		t.Errorf("tag filter returned %v", tasks)
	}
}

func TestTaskRepository_DeleteExpired(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	now := time.Now().UTC()

	stale := newTestTask()
	stale.CreatedAt = now.Add(-25 * time.Hour)

	fresh := newTestTask()
	fresh.ID = uuid.New()
	fresh.CreatedAt = now.Add(-1 * time.Hour)

	staleDone := newTestTask()
	staleDone.ID = uuid.New()
	staleDone.CreatedAt = now.Add(-30 * time.Hour)

	for _, task := range []*models.Task{stale, fresh, staleDone} {
		if err := repo.Create(ctx, task); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	if err := repo.Complete(ctx, staleDone.ID, now); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	ids, err := repo.DeleteExpired(ctx, now.Add(-models.TaskExpiry))
	if err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}
	if len(ids) != 1 || ids[0] != stale.ID {
		t.Errorf("DeleteExpired ids = %v, want [%v]", ids, stale.ID)
	}

	remaining, err := repo.List(ctx, nil, nil)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(remaining) != 2 {
		t.Errorf("remaining tasks = %d, want 2 (fresh + completed)", len(remaining))
	}
}
