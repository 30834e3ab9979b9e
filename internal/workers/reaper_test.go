package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rfaulk/flicklist/internal/models"
)

func TestReaper_ReapCancelsAlerts(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	staleIDs := []uuid.UUID{uuid.New(), uuid.New()}

	var gotCutoff time.Time
	taskRepo := &mockTaskRepo{
		deleteExpiredFunc: func(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
			gotCutoff = cutoff
			return staleIDs, nil
		},
	}
	alerts := &mockAlerts{}

	reaper := NewReaper(taskRepo, alerts, time.Minute, nil)
	reaper.now = func() time.Time { return now }

	if err := reaper.reap(context.Background()); err != nil {
		t.Fatalf("reap: %v", err)
	}

	wantCutoff := now.Add(-models.TaskExpiry)
	if !gotCutoff.Equal(wantCutoff) {
		t.Errorf("cutoff = %v, want %v", gotCutoff, wantCutoff)
	}
	if len(alerts.cancelled) != len(staleIDs) {
		t.Fatalf("cancelled %d alerts, want %d", len(alerts.cancelled), len(staleIDs))
	}
	for i, id := range staleIDs {
		if alerts.cancelled[i] != id {
			t.Errorf("cancelled[%d] = %v, want %v", i, alerts.cancelled[i], id)
		}
	}
}

func TestReaper_NothingToReap(t *testing.T) {
	t.Parallel()

	alerts := &mockAlerts{}
	reaper := NewReaper(&mockTaskRepo{}, alerts, time.Minute, nil)

	if err := reaper.reap(context.Background()); err != nil {
		t.Fatalf("reap: %v", err)
	}
	if len(alerts.cancelled) != 0 {
		t.Errorf("cancelled = %v, want none", alerts.cancelled)
	}
}

func TestReaper_RepoErrorPropagates(t *testing.T) {
	t.Parallel()

	taskRepo := &mockTaskRepo{
		deleteExpiredFunc: func(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
			return nil, errors.New("disk full")
		},
	}
	reaper := NewReaper(taskRepo, &mockAlerts{}, time.Minute, nil)

	if err := reaper.reap(context.Background()); err == nil {
		t.Error("expected error from reap")
	}
}

func TestReaper_StartStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	reaper := NewReaper(&mockTaskRepo{}, &mockAlerts{}, 24*time.Hour, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := reaper.Start(ctx); err == nil {
		t.Error("expected context cancelled error")
	}
}
