// internal/watcher/watcher_test.go
package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func startTracker(t *testing.T, root string) *Tracker {
	t.Helper()
	tr, err := New(root, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { tr.Close() })
	if err := tr.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	// Give the watcher time to start
	time.Sleep(100 * time.Millisecond)
	return tr
}

func waitForDirty(t *testing.T, tr *Tracker) []string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if paths := tr.Drain(); len(paths) > 0 {
			return paths
		}
		time.Sleep(25 * time.Millisecond)
	}
	t.Fatal("no changes tracked before deadline")
	return nil
}

func TestNewInvalidPath(t *testing.T) {
	_, err := New("/nonexistent/path/that/does/not/exist", 50*time.Millisecond)
	if err == nil {
		t.Fatal("New() should return error for invalid path")
	}
}

func TestTracksCreatedFile(t *testing.T) {
	root := t.TempDir()
	tr := startTracker(t, root)

	if err := os.WriteFile(filepath.Join(root, "test.txt"), []byte("test"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	paths := waitForDirty(t, tr)
	if len(paths) != 1 || paths[0] != "test.txt" {
		t.Errorf("expected [test.txt], got %v", paths)
	}
}

func TestDrainResetsSet(t *testing.T) {
	root := t.TempDir()
	tr := startTracker(t, root)

	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("a"), 0644); err != nil {
		t.Fatal(err)
	}
	waitForDirty(t, tr)

	if paths := tr.Drain(); paths != nil {
		t.Errorf("second drain should be empty, got %v", paths)
	}
}

func TestDebouncesRapidWrites(t *testing.T) {
	root := t.TempDir()
	tr, err := New(root, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer tr.Close()
	if err := tr.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	testFile := filepath.Join(root, "test.txt")
	for i := 0; i < 10; i++ {
		if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
			t.Fatalf("Failed to write test file: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	paths := waitForDirty(t, tr)
	// Ten writes to one file collapse into one tracked path.
	if len(paths) != 1 || paths[0] != "test.txt" {
		t.Errorf("expected [test.txt], got %v", paths)
	}
}

func TestIgnoresCheckpointStoreAndGit(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{".evoguard", ".git"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0755); err != nil {
			t.Fatal(err)
		}
	}
	tr := startTracker(t, root)

	if err := os.WriteFile(filepath.Join(root, ".evoguard", "audit.log"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, ".git", "HEAD"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "tracked.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	paths := waitForDirty(t, tr)
	if len(paths) != 1 || paths[0] != "tracked.txt" {
		t.Errorf("ignored directories leaked into %v", paths)
	}
}

func TestTracksFilesInNewSubdirectory(t *testing.T) {
	root := t.TempDir()
	tr := startTracker(t, root)

	sub := filepath.Join(root, "pkg")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	// Give the tracker time to register the new directory.
	time.Sleep(150 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(sub, "file.go"), []byte("package pkg"), 0644); err != nil {
		t.Fatal(err)
	}

	paths := waitForDirty(t, tr)
	found := false
	for _, p := range paths {
		if p == "pkg/file.go" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected pkg/file.go in %v", paths)
	}
}

func TestClose(t *testing.T) {
	root := t.TempDir()
	tr, err := New(root, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := tr.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := tr.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	// Calling Close again should not panic or error
	if err := tr.Close(); err != nil {
		t.Errorf("Second Close() error = %v", err)
	}
}
