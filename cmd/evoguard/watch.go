// cmd/evoguard/watch.go
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"evoguard/internal/watcher"
)

var watchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Auto-checkpoint on file changes",
	Long: `Watch the project root and periodically checkpoint whatever
changed since the last snapshot. Old checkpoints beyond the configured
retention count are pruned after each snapshot.

Runs until interrupted.

Examples:
  evoguard watch
  evoguard watch --interval 30s`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", time.Minute, "Snapshot interval")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	tracker, err := watcher.New(app.cfg.RootDir, 500*time.Millisecond)
	if err != nil {
		return err
	}
	defer tracker.Close()
	if err := tracker.Start(); err != nil {
		return err
	}

	fmt.Printf("watching %s, snapshot every %s\n", app.cfg.RootDir, watchInterval)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := snapshotChanges(app, tracker); err != nil {
				fmt.Fprintf(os.Stderr, "snapshot failed: %v\n", err)
			}
		case <-sig:
			// Final snapshot before exit so the last edits are covered.
			if err := snapshotChanges(app, tracker); err != nil {
				fmt.Fprintf(os.Stderr, "snapshot failed: %v\n", err)
			}
			return nil
		}
	}
}

func snapshotChanges(app *app, tracker *watcher.Tracker) error {
	changed := tracker.Drain()
	if len(changed) == 0 {
		return nil
	}

	id, err := app.manager.CreateCheckpoint("auto", changed, map[string]string{
		"trigger": "watch",
	})
	if err != nil {
		return err
	}
	fmt.Printf("%s  %d files\n", id, len(changed))

	if app.cfg.MaxCheckpoints > 0 {
		if _, err := app.manager.PruneToCount(app.cfg.MaxCheckpoints); err != nil {
			return err
		}
	}
	return nil
}
