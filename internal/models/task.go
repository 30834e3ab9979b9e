package models

import (
	"time"

	"github.com/google/uuid"
)

// Priority represents how urgent a task is
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// TaskExpiry is how long an uncompleted task lives before the reaper removes it.
// The mobile client showed both 18h and 24h countdowns; 24h is the canonical policy.
const TaskExpiry = 24 * time.Hour

// TimingRecommendation is the AI-suggested notification time for a task
type TimingRecommendation struct {
	RecommendedTime string  `json:"recommended_time"` // "HH:mm" local time
	Reasoning       string  `json:"reasoning"`
	Confidence      float64 `json:"confidence"` // 0..1
}

// Task represents a task item
type Task struct {
	ID           uuid.UUID             `json:"id"`
	Title        string                `json:"title"`
	Description  string                `json:"description,omitempty"`
	DueDate      time.Time             `json:"due_date"`
	Completed    bool                  `json:"completed"`
	CompletedAt  *time.Time            `json:"completed_at,omitempty"`
	Tags         []string              `json:"tags"`
	Priority     *Priority             `json:"priority,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
	TaskList     []string              `json:"task_list,omitempty"`     // generated checklist breakdown
	ReminderText string                `json:"reminder_text,omitempty"` // generated notification body
	Timing       *TimingRecommendation `json:"timing,omitempty"`
}

// Enrichment holds the AI-generated fields patched onto a task after creation.
type Enrichment struct {
	ReminderText string
	TaskList     []string
	Timing       *TimingRecommendation
}

// ExpiresAt returns the instant the task becomes eligible for automatic removal.
func (t *Task) ExpiresAt() time.Time {
	return t.CreatedAt.Add(TaskExpiry)
}

// Expired reports whether the task has passed its expiry window without being completed.
func (t *Task) Expired(now time.Time) bool {
	return !t.Completed && now.After(t.ExpiresAt())
}

// ValidPriority reports whether p is one of the known priority values.
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}
