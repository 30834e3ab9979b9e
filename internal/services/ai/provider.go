// Package ai generates task enrichment content (reminder text, checklists,
// timing recommendations) from a chat-completion provider.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/rfaulk/flicklist/internal/models"
)

// Provider is the interface for enrichment content generators.
//
// The three operations deliberately differ in failure behavior:
// GenerateReminder retries transient failures and propagates the error once
// retries are exhausted, while GenerateTiming and GenerateTaskBreakdown never
// fail; on any error they return a deterministic fallback so task creation
// is never blocked by them.
type Provider interface {
	// GenerateReminder returns a short motivational notification body for the
	// task. The ~70 character budget is a soft target, not enforced.
	GenerateReminder(ctx context.Context, task *models.Task) (string, error)

	// GenerateTiming returns a recommended notification time-of-day for the
	// task given the user's schedule preferences. It never returns an error;
	// failures yield the fixed morning fallback.
	GenerateTiming(ctx context.Context, task *models.Task, prefs *models.SchedulePreferences) *models.TimingRecommendation

	// GenerateTaskBreakdown returns a short actionable checklist for the task.
	// It never returns an error; failures yield a generic 3-step checklist
	// referencing the task title.
	GenerateTaskBreakdown(ctx context.Context, task *models.Task) []string
}

// Fallback values used when timing generation fails for any reason.
const (
	FallbackRecommendedTime  = "09:00"
	FallbackTimingReasoning  = "Default morning reminder due to API error"
	FallbackTimingConfidence = 0.5
)

// FallbackTiming returns the fixed timing recommendation used when the
// provider cannot produce one.
func FallbackTiming() *models.TimingRecommendation {
	return &models.TimingRecommendation{
		RecommendedTime: FallbackRecommendedTime,
		Reasoning:       FallbackTimingReasoning,
		Confidence:      FallbackTimingConfidence,
	}
}

// FallbackBreakdown returns the generic checklist used when breakdown
// generation fails or produces nothing usable.
func FallbackBreakdown(title string) []string {
	return []string{
		fmt.Sprintf("Start working on %s", title),
		"Review progress",
		"Complete and verify",
	}
}

// Retry policy for reminder generation.
const (
	// ReminderMaxAttempts is the total number of attempts before the error
	// propagates to the caller.
	ReminderMaxAttempts = 3
	// ReminderRetryDelay is the fixed delay between attempts.
	ReminderRetryDelay = 1 * time.Second
)
