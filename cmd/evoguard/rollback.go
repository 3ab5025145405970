// cmd/evoguard/rollback.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rollbackFiles []string

var rollbackCmd = &cobra.Command{
	Use:   "rollback <checkpoint-id>",
	Short: "Restore files from a checkpoint",
	Long: `Restore the working tree from a checkpoint.

Without --file the whole checkpoint is restored. With one or more
--file flags only those files are restored; requested files the
checkpoint does not contain are reported as skipped.

Examples:
  evoguard rollback cp-1700000000000-a1b2c3d4
  evoguard rollback cp-1700000000000-a1b2c3d4 --file src/main.go`,
	Args: cobra.ExactArgs(1),
	RunE: runRollback,
}

func init() {
	rollbackCmd.Flags().StringArrayVar(&rollbackFiles, "file", nil, "Restore only this file (repeatable)")
	rootCmd.AddCommand(rollbackCmd)
}

func runRollback(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	id := args[0]

	if len(rollbackFiles) > 0 {
		result, err := app.manager.SelectiveRollback(id, rollbackFiles)
		if err != nil {
			return err
		}
		if result.NotFound {
			return fmt.Errorf("checkpoint %s not found", id)
		}
		if jsonOutput {
			return printJSON(result)
		}
		fmt.Printf("restored %d, skipped %d, failed %d\n",
			len(result.Restored), len(result.Skipped), len(result.Failed))
		for _, f := range result.Failed {
			fmt.Printf("  failed %s: %s\n", f.Path, f.Reason)
		}
		return nil
	}

	result, err := app.manager.Rollback(id)
	if err != nil {
		return err
	}
	if result.NotFound {
		return fmt.Errorf("checkpoint %s not found", id)
	}
	if jsonOutput {
		return printJSON(result)
	}
	fmt.Printf("restored %d, failed %d\n", len(result.Restored), len(result.Failed))
	for _, f := range result.Failed {
		fmt.Printf("  failed %s: %s\n", f.Path, f.Reason)
	}
	if !result.Success {
		return fmt.Errorf("rollback completed with failures")
	}
	return nil
}
