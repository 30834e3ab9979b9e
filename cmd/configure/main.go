package main

import (
	"fmt"
	"os"

	"github.com/rfaulk/flicklist/cmd/configure/commands"
	"github.com/spf13/cobra"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "flicklist-configure",
		Short: "Configuration tool for the Flicklist API",
		Long:  "CLI tool for managing schedule preferences and checking AI connectivity",
	}

	rootCmd.AddCommand(commands.NewScheduleCmd())
	rootCmd.AddCommand(commands.NewListCmd())
	rootCmd.AddCommand(commands.NewTestCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
