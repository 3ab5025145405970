// cmd/evoguard/diff.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var diffCmd = &cobra.Command{
	Use:   "diff <from-id> <to-id>",
	Short: "Compare two checkpoints",
	Long: `Compare two checkpoints by the content hashes their manifests
recorded, without reading any backed-up content.`,
	Args: cobra.ExactArgs(2),
	RunE: runDiff,
}

func init() {
	rootCmd.AddCommand(diffCmd)
}

func runDiff(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	result, err := app.manager.Diff(args[0], args[1])
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(result)
	}
	for _, p := range result.Modified {
		fmt.Printf("M %s\n", p)
	}
	for _, p := range result.Added {
		fmt.Printf("A %s\n", p)
	}
	for _, p := range result.Removed {
		fmt.Printf("D %s\n", p)
	}
	return nil
}
