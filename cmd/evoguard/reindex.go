// cmd/evoguard/reindex.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the checkpoint index from storage",
	Long: `Rebuild the SQLite index from the checkpoint manifests on disk.
The manifests are authoritative; use this when the index file was lost
or drifted out of sync.`,
	RunE: runReindex,
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}

func runReindex(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	n, err := app.index.Rebuild(app.storage)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(map[string]int{"indexed": n})
	}
	fmt.Printf("indexed %d checkpoints\n", n)
	return nil
}
