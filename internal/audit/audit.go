// Package audit appends one JSON object per line to a write-only log
// file. The engine never rewrites or compacts the log; it is the
// durable trail callers use to attribute every checkpoint operation.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Operation tags recorded in the log.
const (
	OpCheckpointCreated = "checkpoint_created"
	OpRollbackCompleted = "rollback_completed"
	OpSelectiveRollback = "selective_rollback"
	OpCheckpointPruned  = "checkpoint_pruned"
	OpCheckpointDeleted = "checkpoint_deleted"
)

// Log writes append-only audit entries.
type Log struct {
	path string
	mu   sync.Mutex
}

// New creates a Log writing to path, creating parent directories.
func New(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create audit log dir: %w", err)
	}
	return &Log{path: path}, nil
}

// Path returns the log file path.
func (l *Log) Path() string {
	return l.path
}

// Append writes one entry. Every entry carries the operation tag and a
// timestamp; fields holds the operation-specific counts and identifiers.
func (l *Log) Append(operation string, fields map[string]any) error {
	entry := map[string]any{
		"operation": operation,
		"timestamp": time.Now().Format(time.RFC3339Nano),
	}
	for k, v := range fields {
		entry[k] = v
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write audit entry: %w", err)
	}
	return nil
}

// Entries reads the whole log back, skipping unparseable lines. Intended
// for inspection tooling and tests, not for the engine's own decisions.
func (l *Log) Entries() ([]map[string]any, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	var entries []map[string]any
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var entry map[string]any
		if json.Unmarshal(scanner.Bytes(), &entry) == nil {
			entries = append(entries, entry)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	return entries, nil
}
