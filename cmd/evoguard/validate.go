// cmd/evoguard/validate.go
package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"evoguard/internal/validate"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Run defensive validations",
	Long: `Validate project artifacts before trusting them.

Subcommands:
  state    Check an evolution state file
  memory   Check a memory file for corruption
  path     Check that a path stays inside the project root

Each subcommand exits non-zero when validation fails.`,
}

var validateStateCmd = &cobra.Command{
	Use:   "state <file>",
	Short: "Check an evolution state file",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidateState,
}

var validateMemoryCmd = &cobra.Command{
	Use:   "memory <file>",
	Short: "Check a memory file for corruption",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidateMemory,
}

var validatePathCmd = &cobra.Command{
	Use:   "path <path>",
	Short: "Check that a path stays inside the project root",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidatePath,
}

func init() {
	validateCmd.AddCommand(validateStateCmd, validateMemoryCmd, validatePathCmd)
	rootCmd.AddCommand(validateCmd)
}

func runValidateState(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	result := validate.State(resolveArg(app, args[0]))
	return reportResult(result.Valid, result.Errors)
}

func runValidateMemory(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	result := validate.Memory(resolveArg(app, args[0]), validate.MemoryOptions{
		MaxSizeKB: app.cfg.MaxMemorySizeKB,
	})
	return reportResult(result.Valid, result.Errors)
}

func runValidatePath(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	result := validate.Path(args[0], app.cfg.RootDir)
	if result.Valid {
		return reportResult(true, nil)
	}
	return reportResult(false, []string{result.Reason})
}

func resolveArg(app *app, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(app.cfg.RootDir, p)
}

func reportResult(valid bool, errs []string) error {
	if jsonOutput {
		if err := printJSON(map[string]any{"valid": valid, "errors": errs}); err != nil {
			return err
		}
		if !valid {
			return fmt.Errorf("validation failed")
		}
		return nil
	}
	if valid {
		fmt.Println("valid")
		return nil
	}
	for _, e := range errs {
		fmt.Printf("invalid: %s\n", e)
	}
	return fmt.Errorf("validation failed")
}
