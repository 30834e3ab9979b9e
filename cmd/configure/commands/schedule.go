package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/rfaulk/flicklist/internal/config"
	"github.com/rfaulk/flicklist/internal/database"
	"github.com/rfaulk/flicklist/internal/models"
	"github.com/rfaulk/flicklist/internal/validation"
	"github.com/spf13/cobra"
)

// NewScheduleCmd creates the schedule command
func NewScheduleCmd() *cobra.Command {
	var wake, bed, workStart, workEnd string

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Set schedule preferences",
		Long:  "Set the wake, bed, and work-hour clock times used for timing recommendations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			db, err := database.New(cfg.DatabasePath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() {
				if err := db.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
				}
			}()

			prefsRepo := database.NewPreferencesRepository(db)
			ctx := context.Background()

			prefs, err := prefsRepo.Get(ctx)
			if err != nil {
				return fmt.Errorf("failed to load preferences: %w", err)
			}

			if wake != "" {
				prefs.WakeTime = wake
			}
			if bed != "" {
				prefs.BedTime = bed
			}
			if workStart != "" {
				prefs.WorkStart = workStart
			}
			if workEnd != "" {
				prefs.WorkEnd = workEnd
			}

			for name, value := range map[string]string{
				"wake":       prefs.WakeTime,
				"bed":        prefs.BedTime,
				"work-start": prefs.WorkStart,
				"work-end":   prefs.WorkEnd,
			} {
				if err := validation.ValidateClockTime(value); err != nil {
					return fmt.Errorf("invalid --%s value %q: %w", name, value, err)
				}
			}

			if err := prefsRepo.Set(ctx, prefs); err != nil {
				return fmt.Errorf("failed to save preferences: %w", err)
			}

			fmt.Println("Schedule preferences saved:")
			printPreferences(prefs)
			return nil
		},
	}

	cmd.Flags().StringVar(&wake, "wake", "", "Wake time (HH:mm)")
	cmd.Flags().StringVar(&bed, "bed", "", "Bed time (HH:mm)")
	cmd.Flags().StringVar(&workStart, "work-start", "", "Work start time (HH:mm)")
	cmd.Flags().StringVar(&workEnd, "work-end", "", "Work end time (HH:mm)")

	return cmd
}

func printPreferences(prefs *models.SchedulePreferences) {
	fmt.Printf("  Wake:       %s\n", prefs.WakeTime)
	fmt.Printf("  Bed:        %s\n", prefs.BedTime)
	fmt.Printf("  Work start: %s\n", prefs.WorkStart)
	fmt.Printf("  Work end:   %s\n", prefs.WorkEnd)
}
