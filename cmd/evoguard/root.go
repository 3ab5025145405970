// cmd/evoguard/root.go
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"evoguard/internal/audit"
	"evoguard/internal/checkpoint"
	"evoguard/internal/config"
	"evoguard/internal/index"
)

var (
	// Global flags
	rootDir    string
	jsonOutput bool
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "evoguard",
	Short: "Checkpoint, rollback and validation for self-modifying project state",
	Long: `evoguard guards a project directory against bad automated edits.

It snapshots files into content-addressed checkpoints before risky
changes, rolls them back fully or selectively, and validates paths,
state files and memory files before they are trusted.

Core Commands:
  checkpoint   Snapshot files into a new checkpoint
  rollback     Restore files from a checkpoint
  list         List checkpoints, newest first
  diff         Compare two checkpoints
  prune        Delete old checkpoints
  validate     Run defensive validations
  watch        Auto-checkpoint on file changes`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root directory")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Emit JSON output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
}

// app bundles the wired components behind one constructor so every
// command builds them the same way.
type app struct {
	cfg     *config.Config
	storage *checkpoint.Storage
	audit   *audit.Log
	index   *index.DB
	manager *checkpoint.Manager
}

func newApp() (*app, error) {
	cfg, err := config.Load(rootDir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	storage, err := checkpoint.NewStorage(cfg.CheckpointDir, cfg.CompressionLevel)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint storage: %w", err)
	}
	auditLog, err := audit.New(cfg.AuditLogPath)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	idx, err := index.Open(cfg.IndexPath)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	manager := checkpoint.NewManager(storage, auditLog, checkpoint.Options{
		BaseDir:         cfg.RootDir,
		VerifyOnRestore: cfg.VerifyOnRestore,
		Recorder:        idx,
		Logger:          logger,
	})

	return &app{cfg: cfg, storage: storage, audit: auditLog, index: idx, manager: manager}, nil
}

func (a *app) Close() {
	a.index.Close()
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
