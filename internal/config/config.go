// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all engine configuration. It is built once and passed
// explicitly to each component; there are no process-wide singletons.
type Config struct {
	// RootDir is the project root that bounds every validated path.
	RootDir string
	// CheckpointDir is the checkpoint storage root.
	CheckpointDir string
	// AuditLogPath is the append-only JSONL audit log file.
	AuditLogPath string
	// IndexPath is the sqlite mirror of checkpoints and operations.
	IndexPath string
	// MaxCheckpointAge is the default pruning horizon.
	MaxCheckpointAge time.Duration
	// MaxCheckpoints caps how many checkpoints retention keeps.
	MaxCheckpoints int
	// MaxMemorySizeKB bounds memory-artifact files during validation.
	MaxMemorySizeKB int
	// CompressionLevel is the zstd level for backup payloads.
	CompressionLevel int
	// VerifyOnRestore re-hashes backup content against the manifest
	// before writing it back to the working tree.
	VerifyOnRestore bool
}

// fileConfig is the yaml overlay; pointers distinguish "absent" from
// zero values.
type fileConfig struct {
	CheckpointDir    *string `yaml:"checkpoint_dir"`
	AuditLog         *string `yaml:"audit_log"`
	IndexDB          *string `yaml:"index_db"`
	MaxCheckpointAge *string `yaml:"max_checkpoint_age"`
	MaxCheckpoints   *int    `yaml:"max_checkpoints"`
	MaxMemorySizeKB  *int    `yaml:"max_memory_size_kb"`
	CompressionLevel *int    `yaml:"compression_level"`
	VerifyOnRestore  *bool   `yaml:"verify_on_restore"`
}

// Default returns the configuration for a project root with every
// knob at its default.
func Default(rootDir string) *Config {
	stateDir := filepath.Join(rootDir, ".evoguard")
	return &Config{
		RootDir:          rootDir,
		CheckpointDir:    filepath.Join(stateDir, "checkpoints"),
		AuditLogPath:     filepath.Join(stateDir, "audit.log"),
		IndexPath:        filepath.Join(stateDir, "index.db"),
		MaxCheckpointAge: 7 * 24 * time.Hour,
		MaxCheckpoints:   50,
		MaxMemorySizeKB:  100,
		CompressionLevel: 3,
		VerifyOnRestore:  true,
	}
}

// Load builds the configuration for rootDir: defaults, then the
// optional .evoguard/config.yaml overlay, then EVOGUARD_* environment
// overrides. Required directories are created.
func Load(rootDir string) (*Config, error) {
	abs, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("resolve root dir: %w", err)
	}
	cfg := Default(abs)

	if err := cfg.applyFile(filepath.Join(abs, ".evoguard", "config.yaml")); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	for _, dir := range []string{cfg.CheckpointDir, filepath.Dir(cfg.AuditLogPath), filepath.Dir(cfg.IndexPath)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create config dir: %w", err)
		}
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.CheckpointDir != nil {
		c.CheckpointDir = c.resolve(*fc.CheckpointDir)
	}
	if fc.AuditLog != nil {
		c.AuditLogPath = c.resolve(*fc.AuditLog)
	}
	if fc.IndexDB != nil {
		c.IndexPath = c.resolve(*fc.IndexDB)
	}
	if fc.MaxCheckpointAge != nil {
		d, err := time.ParseDuration(*fc.MaxCheckpointAge)
		if err != nil {
			return fmt.Errorf("parse max_checkpoint_age: %w", err)
		}
		c.MaxCheckpointAge = d
	}
	if fc.MaxCheckpoints != nil {
		c.MaxCheckpoints = *fc.MaxCheckpoints
	}
	if fc.MaxMemorySizeKB != nil {
		c.MaxMemorySizeKB = *fc.MaxMemorySizeKB
	}
	if fc.CompressionLevel != nil {
		c.CompressionLevel = *fc.CompressionLevel
	}
	if fc.VerifyOnRestore != nil {
		c.VerifyOnRestore = *fc.VerifyOnRestore
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("EVOGUARD_CHECKPOINT_DIR"); v != "" {
		c.CheckpointDir = c.resolve(v)
	}
	if v := os.Getenv("EVOGUARD_AUDIT_LOG"); v != "" {
		c.AuditLogPath = c.resolve(v)
	}
	if v := os.Getenv("EVOGUARD_INDEX_DB"); v != "" {
		c.IndexPath = c.resolve(v)
	}
	if v := os.Getenv("EVOGUARD_MAX_CHECKPOINT_AGE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse EVOGUARD_MAX_CHECKPOINT_AGE: %w", err)
		}
		c.MaxCheckpointAge = d
	}
	if v := os.Getenv("EVOGUARD_MAX_MEMORY_SIZE_KB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse EVOGUARD_MAX_MEMORY_SIZE_KB: %w", err)
		}
		c.MaxMemorySizeKB = n
	}
	return nil
}

// resolve makes a configured path absolute relative to the root dir.
func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.RootDir, path)
}
