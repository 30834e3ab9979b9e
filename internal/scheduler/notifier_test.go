package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestLogNotifier_RegisterAndCancel(t *testing.T) {
	t.Parallel()

	n := NewLogNotifier(nil)
	taskID := uuid.New()

	err := n.Register(context.Background(), &Notification{
		Title:     "Task Reminder: pay rent",
		Body:      "Don't forget: pay rent",
		TaskID:    taskID,
		TriggerAt: time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if !n.Armed(taskID) {
		t.Error("expected timer to be armed after Register")
	}

	if err := n.Cancel(context.Background(), taskID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if n.Armed(taskID) {
		t.Error("expected timer to be disarmed after Cancel")
	}
}

func TestLogNotifier_ReregisterReplacesTimer(t *testing.T) {
	t.Parallel()

	n := NewLogNotifier(nil)
	taskID := uuid.New()

	for i := 0; i < 2; i++ {
		err := n.Register(context.Background(), &Notification{
			TaskID:    taskID,
			TriggerAt: time.Now().Add(time.Duration(i+1) * time.Hour),
		})
		if err != nil {
			t.Fatalf("Register %d: %v", i, err)
		}
	}
	if !n.Armed(taskID) {
		t.Error("expected a single armed timer after re-registration")
	}

	if err := n.Cancel(context.Background(), taskID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if n.Armed(taskID) {
		t.Error("expected no timer after cancel")
	}
}

func TestLogNotifier_CancelUnknownIsNoOp(t *testing.T) {
	t.Parallel()

	n := NewLogNotifier(nil)
	if err := n.Cancel(context.Background(), uuid.New()); err != nil {
		t.Errorf("Cancel of unknown id should be a no-op, got %v", err)
	}
}
