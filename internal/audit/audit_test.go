// internal/audit/audit_test.go
package audit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAppendAndRead(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "audit.log")
	l, err := New(logPath)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	err = l.Append(OpCheckpointCreated, map[string]any{
		"checkpointId": "cp-1-abc",
		"name":         "before-change",
		"fileCount":    2,
		"skippedCount": 1,
	})
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := l.Append(OpRollbackCompleted, map[string]any{"checkpointId": "cp-1-abc", "restoredCount": 2, "failedCount": 0}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	entries, err := l.Entries()
	if err != nil {
		t.Fatalf("Entries failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0]["operation"] != OpCheckpointCreated {
		t.Errorf("unexpected operation: %v", entries[0]["operation"])
	}
	if entries[0]["timestamp"] == nil {
		t.Error("entry missing timestamp")
	}
	if entries[1]["restoredCount"].(float64) != 2 {
		t.Errorf("unexpected restoredCount: %v", entries[1]["restoredCount"])
	}
}

func TestAppendOnly(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "audit.log")
	l, err := New(logPath)
	if err != nil {
		t.Fatal(err)
	}

	l.Append(OpCheckpointPruned, map[string]any{"checkpointId": "cp-old", "ageMs": 9000})
	before, _ := os.ReadFile(logPath)

	l.Append(OpCheckpointPruned, map[string]any{"checkpointId": "cp-older", "ageMs": 10000})
	after, _ := os.ReadFile(logPath)

	if !strings.HasPrefix(string(after), string(before)) {
		t.Error("existing log content was rewritten")
	}
	if strings.Count(string(after), "\n") != 2 {
		t.Errorf("expected 2 lines, got %d", strings.Count(string(after), "\n"))
	}
}

func TestEntriesSkipsGarbageLines(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "audit.log")
	l, _ := New(logPath)
	l.Append(OpSelectiveRollback, map[string]any{"checkpointId": "cp-1"})

	f, _ := os.OpenFile(logPath, os.O_WRONLY|os.O_APPEND, 0644)
	f.WriteString("not json\n")
	f.Close()

	entries, err := l.Entries()
	if err != nil {
		t.Fatalf("Entries failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected garbage line to be skipped, got %d entries", len(entries))
	}
}

func TestEntriesMissingFile(t *testing.T) {
	l, _ := New(filepath.Join(t.TempDir(), "never-written.log"))
	entries, err := l.Entries()
	if err != nil {
		t.Fatalf("Entries failed: %v", err)
	}
	if entries != nil {
		t.Errorf("expected nil entries, got %v", entries)
	}
}
