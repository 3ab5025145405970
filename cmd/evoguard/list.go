// cmd/evoguard/list.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List checkpoints, newest first",
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	summaries, err := app.manager.ListCheckpoints()
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(summaries)
	}
	if len(summaries) == 0 {
		fmt.Println("no checkpoints")
		return nil
	}
	for _, s := range summaries {
		fmt.Printf("%s  %s  %d files  %s\n",
			s.ID, s.CreatedAt.Format("2006-01-02 15:04:05"), s.FileCount, s.Name)
	}
	return nil
}
