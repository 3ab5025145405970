// cmd/evoguard/history.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	historyCheckpoint string
	historyLimit      int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded operation history",
	Long: `Show the operation history recorded in the index, newest first.

Examples:
  evoguard history
  evoguard history --checkpoint cp-1700000000000-a1b2c3d4 --limit 20`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historyCheckpoint, "checkpoint", "", "Filter by checkpoint id")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 50, "Maximum rows to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ops, err := app.index.Operations(historyCheckpoint, historyLimit)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(ops)
	}
	if len(ops) == 0 {
		fmt.Println("no operations recorded")
		return nil
	}
	for _, op := range ops {
		fmt.Printf("%s  %-20s %s\n",
			op.CreatedAt.Format("2006-01-02 15:04:05"), op.Operation, op.CheckpointID)
	}
	return nil
}
