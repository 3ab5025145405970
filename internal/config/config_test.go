// internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	root := t.TempDir()
	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.RootDir != root {
		t.Errorf("RootDir = %s, want %s", cfg.RootDir, root)
	}
	if cfg.CheckpointDir != filepath.Join(root, ".evoguard", "checkpoints") {
		t.Errorf("unexpected CheckpointDir: %s", cfg.CheckpointDir)
	}
	if cfg.MaxCheckpointAge != 7*24*time.Hour {
		t.Errorf("unexpected MaxCheckpointAge: %v", cfg.MaxCheckpointAge)
	}
	if !cfg.VerifyOnRestore {
		t.Error("VerifyOnRestore should default to true")
	}

	// Load creates the storage directories.
	if _, err := os.Stat(cfg.CheckpointDir); os.IsNotExist(err) {
		t.Error("CheckpointDir should be created")
	}
}

func TestLoadYamlOverlay(t *testing.T) {
	root := t.TempDir()
	os.MkdirAll(filepath.Join(root, ".evoguard"), 0755)
	yamlContent := `
checkpoint_dir: snapshots
max_checkpoint_age: 48h
max_checkpoints: 10
verify_on_restore: false
`
	if err := os.WriteFile(filepath.Join(root, ".evoguard", "config.yaml"), []byte(yamlContent), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.CheckpointDir != filepath.Join(root, "snapshots") {
		t.Errorf("unexpected CheckpointDir: %s", cfg.CheckpointDir)
	}
	if cfg.MaxCheckpointAge != 48*time.Hour {
		t.Errorf("unexpected MaxCheckpointAge: %v", cfg.MaxCheckpointAge)
	}
	if cfg.MaxCheckpoints != 10 {
		t.Errorf("unexpected MaxCheckpoints: %d", cfg.MaxCheckpoints)
	}
	if cfg.VerifyOnRestore {
		t.Error("verify_on_restore: false should be honored")
	}
	// Unset knobs keep their defaults.
	if cfg.MaxMemorySizeKB != 100 {
		t.Errorf("unexpected MaxMemorySizeKB: %d", cfg.MaxMemorySizeKB)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	root := t.TempDir()
	t.Setenv("EVOGUARD_CHECKPOINT_DIR", "env-checkpoints")
	t.Setenv("EVOGUARD_MAX_CHECKPOINT_AGE", "1h")

	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.CheckpointDir != filepath.Join(root, "env-checkpoints") {
		t.Errorf("unexpected CheckpointDir: %s", cfg.CheckpointDir)
	}
	if cfg.MaxCheckpointAge != time.Hour {
		t.Errorf("unexpected MaxCheckpointAge: %v", cfg.MaxCheckpointAge)
	}
}

func TestLoadBadYaml(t *testing.T) {
	root := t.TempDir()
	os.MkdirAll(filepath.Join(root, ".evoguard"), 0755)
	os.WriteFile(filepath.Join(root, ".evoguard", "config.yaml"), []byte("max_checkpoint_age: [nope"), 0644)

	if _, err := Load(root); err == nil {
		t.Error("expected error for malformed yaml")
	}
}
