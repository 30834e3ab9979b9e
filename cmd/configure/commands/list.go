package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/rfaulk/flicklist/internal/config"
	"github.com/rfaulk/flicklist/internal/database"
	"github.com/spf13/cobra"
)

// NewListCmd creates the list command
func NewListCmd() *cobra.Command {
	var showCompleted bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored tasks and preferences",
		Long:  "List the current schedule preferences and the tasks in the local store",
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

			ctx := context.Background()

			prefs, err := database.NewPreferencesRepository(db).Get(ctx)
			if err != nil {
				return fmt.Errorf("failed to load preferences: %w", err)
			}
			fmt.Println("Schedule preferences:")
			printPreferences(prefs)
			fmt.Println()

			var completed *bool
			if !showCompleted {
				f := false
				completed = &f
			}
			tasks, err := database.NewTaskRepository(db).List(ctx, completed, nil)
			if err != nil {
				return fmt.Errorf("failed to list tasks: %w", err)
			}

			if len(tasks) == 0 {
				fmt.Println("No tasks stored")
				return nil
			}

			fmt.Printf("Tasks (%d):\n", len(tasks))
			for _, task := range tasks {
				status := " "
				if task.Completed {
					status = "x"
				}
				fmt.Printf("  [%s] %s\n", status, task.Title)
				fmt.Printf("      ID: %s\n", task.ID)
				fmt.Printf("      Due: %s\n", task.DueDate.Format("2006-01-02"))
				if task.Priority != nil {
					fmt.Printf("      Priority: %s\n", *task.Priority)
				}
				if len(task.Tags) > 0 {
					fmt.Printf("      Tags: %v\n", task.Tags)
				}
				if task.Timing != nil {
					fmt.Printf("      Reminder at: %s\n", task.Timing.RecommendedTime)
				}
				fmt.Println()
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&showCompleted, "all", false, "Include completed tasks")

	return cmd
}
