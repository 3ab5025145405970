// cmd/evoguard/delete.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <checkpoint-id>",
	Short: "Delete one checkpoint",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.manager.DeleteCheckpoint(args[0]); err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(map[string]string{"deleted": args[0]})
	}
	fmt.Printf("deleted %s\n", args[0])
	return nil
}
