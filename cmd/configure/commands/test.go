package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rfaulk/flicklist/internal/config"
	"github.com/rfaulk/flicklist/internal/logger"
	"github.com/rfaulk/flicklist/internal/models"
	"github.com/rfaulk/flicklist/internal/services/ai"
	"github.com/spf13/cobra"
)

// NewTestCmd creates the test command
func NewTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Test AI connectivity",
		Long:  "Test the configured OpenAI credentials by generating a reminder for a sample task",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			zapLogger, err := logger.NewDevelopmentLogger(false)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer func() {
				_ = logger.Sync(zapLogger)
			}()

			provider, err := ai.NewOpenAIProviderWithLogger(cfg.OpenAIKey, cfg.AIBaseURL, cfg.AIModel, zapLogger, false)
			if err != nil {
				return fmt.Errorf("failed to create AI provider: %w", err)
			}

			sample := &models.Task{
				ID:        uuid.New(),
				Title:     "water the plants",
				DueDate:   time.Now().AddDate(0, 0, 1),
				CreatedAt: time.Now(),
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			fmt.Printf("Testing reminder generation with model %q...\n", cfg.AIModel)
			reminder, err := provider.GenerateReminder(ctx, sample)
			if err != nil {
				return fmt.Errorf("reminder generation failed: %w", err)
			}
			fmt.Printf("✓ Reminder: %s\n", reminder)

			timing := provider.GenerateTiming(ctx, sample, models.DefaultSchedulePreferences())
			fmt.Printf("✓ Timing: %s (confidence %.2f)\n", timing.RecommendedTime, timing.Confidence)
			fmt.Printf("  Reasoning: %s\n", timing.Reasoning)

			fmt.Println("\n✓ AI connectivity test passed")
			return nil
		},
	}

	return cmd
}
