// cmd/evoguard/prune.go
package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	pruneMaxAge time.Duration
	pruneKeep   int
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old checkpoints",
	Long: `Delete checkpoints older than the retention window.

Without flags the configured max age applies. --keep instead retains
only the newest N checkpoints regardless of age.

Examples:
  evoguard prune
  evoguard prune --max-age 72h
  evoguard prune --keep 10`,
	RunE: runPrune,
}

func init() {
	pruneCmd.Flags().DurationVar(&pruneMaxAge, "max-age", 0, "Delete checkpoints older than this (default from config)")
	pruneCmd.Flags().IntVar(&pruneKeep, "keep", 0, "Keep only the newest N checkpoints")
	rootCmd.AddCommand(pruneCmd)
}

func runPrune(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if cmd.Flags().Changed("keep") {
		result, err := app.manager.PruneToCount(pruneKeep)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(result)
		}
		fmt.Printf("deleted %d checkpoints\n", result.Deleted)
		return nil
	}

	maxAge := pruneMaxAge
	if maxAge == 0 {
		maxAge = app.cfg.MaxCheckpointAge
	}
	result, err := app.manager.PruneCheckpoints(maxAge)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(result)
	}
	fmt.Printf("deleted %d checkpoints\n", result.Deleted)
	return nil
}
