// cmd/evoguard/checkpoint.go
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"evoguard/internal/gitinfo"
)

var (
	checkpointName  string
	checkpointDirty bool
	checkpointMeta  []string
)

var checkpointCmd = &cobra.Command{
	Use:   "checkpoint [files...]",
	Short: "Snapshot files into a new checkpoint",
	Long: `Back up the given files into a new checkpoint.

Files are given relative to the project root. With --dirty the file
set is taken from git instead: every modified, staged or untracked
file in the repository.

Examples:
  evoguard checkpoint --name before-refactor src/main.go src/util.go
  evoguard checkpoint --dirty --name pre-evolution
  evoguard checkpoint a.txt --meta trigger=manual --meta task=cleanup`,
	RunE: runCheckpoint,
}

func init() {
	checkpointCmd.Flags().StringVarP(&checkpointName, "name", "n", "", "Checkpoint name")
	checkpointCmd.Flags().BoolVar(&checkpointDirty, "dirty", false, "Checkpoint every dirty file reported by git")
	checkpointCmd.Flags().StringArrayVar(&checkpointMeta, "meta", nil, "Metadata entry as key=value (repeatable)")
	rootCmd.AddCommand(checkpointCmd)
}

func runCheckpoint(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	files := args
	if checkpointDirty {
		dirty, err := gitinfo.DirtyFiles(app.cfg.RootDir)
		if err != nil {
			return err
		}
		files = append(files, dirty...)
	}
	if len(files) == 0 {
		return fmt.Errorf("no files to checkpoint; pass paths or --dirty")
	}

	metadata, err := parseMeta(checkpointMeta)
	if err != nil {
		return err
	}

	name := checkpointName
	if name == "" {
		name = "checkpoint"
	}

	id, err := app.manager.CreateCheckpoint(name, files, metadata)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(map[string]string{"checkpointId": id})
	}
	fmt.Println(id)
	return nil
}

func parseMeta(entries []string) (map[string]string, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	meta := make(map[string]string, len(entries))
	for _, entry := range entries {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --meta entry %q, want key=value", entry)
		}
		meta[key] = value
	}
	return meta, nil
}
