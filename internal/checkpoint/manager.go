// internal/checkpoint/manager.go
package checkpoint

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"evoguard/internal/audit"
	"evoguard/internal/validate"
)

// Recorder receives checkpoint lifecycle notifications, e.g. the sqlite
// index mirror. Recorder failures must not fail the operation itself;
// the filesystem manifest stays the source of truth.
type Recorder interface {
	RecordCheckpoint(m *Manifest) error
	RecordOperation(operation, checkpointID string, counts map[string]int64) error
	RemoveCheckpoint(id string) error
}

// Options configures a Manager.
type Options struct {
	// BaseDir bounds every validated path; typically the project root.
	BaseDir string
	// VerifyOnRestore re-hashes backup content against the manifest
	// hash before writing it back.
	VerifyOnRestore bool
	// Recorder mirrors operations into a queryable index. Optional.
	Recorder Recorder
	// Logger receives operational logging. Optional.
	Logger *slog.Logger
}

// Manager performs checkpoint and rollback operations. It validates
// every path through the validate package before touching disk —
// including paths read back out of its own manifests, since a manifest
// on disk may have been tampered with since creation.
//
// Manager assumes single-writer use: callers embedding it in a
// concurrent host must serialize operations per storage root.
type Manager struct {
	storage  *Storage
	audit    *audit.Log
	recorder Recorder
	baseDir  string
	verify   bool
	log      *slog.Logger
}

// NewManager creates a Manager on top of existing storage and audit log.
func NewManager(storage *Storage, auditLog *audit.Log, opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Manager{
		storage:  storage,
		audit:    auditLog,
		recorder: opts.Recorder,
		baseDir:  opts.BaseDir,
		verify:   opts.VerifyOnRestore,
		log:      logger,
	}
}

// CreateCheckpoint backs up the given files under a new checkpoint and
// returns its id. Any path failing validation aborts the whole
// operation before anything is written; a half-made checkpoint must
// never become trustable. Files that validate but do not exist yet are
// skipped, not errors — checkpointing a file set where some files have
// not been created is a legitimate use.
func (m *Manager) CreateCheckpoint(name string, files []string, metadata map[string]string) (string, error) {
	for _, p := range files {
		if r := validate.Path(p, m.baseDir); !r.Valid {
			return "", fmt.Errorf("%w: %s: %s", ErrPathViolation, p, r.Reason)
		}
	}

	id := GenerateID()
	manifest := &Manifest{
		ID:        id,
		Name:      name,
		CreatedAt: time.Now(),
		Metadata:  metadata,
		Files:     []FileEntry{},
	}

	skipped := 0
	usedNames := make(map[string]int)
	for _, p := range files {
		resolved := m.resolve(p)
		content, err := os.ReadFile(resolved)
		if err != nil {
			if os.IsNotExist(err) {
				skipped++
				continue
			}
			// A single unreadable file must not block checkpointing
			// the rest.
			m.log.Warn("skipping unreadable file", "path", p, "error", err)
			skipped++
			continue
		}

		backupName := m.dedupeName(SanitizeBackupName(p), usedNames)
		if err := m.storage.WriteBackup(id, backupName, content); err != nil {
			m.log.Warn("skipping file, backup write failed", "path", p, "error", err)
			skipped++
			continue
		}
		manifest.Files = append(manifest.Files, FileEntry{
			Path:       p,
			BackupName: backupName,
			Hash:       HashContent(content),
		})
	}

	// The manifest is written last: its presence is what makes the
	// checkpoint real.
	if err := m.storage.WriteManifest(manifest); err != nil {
		return "", err
	}

	m.appendAudit(audit.OpCheckpointCreated, map[string]any{
		"checkpointId": id,
		"name":         name,
		"fileCount":    len(manifest.Files),
		"skippedCount": skipped,
	})
	if m.recorder != nil {
		if err := m.recorder.RecordCheckpoint(manifest); err != nil {
			m.log.Warn("index record failed", "checkpointId", id, "error", err)
		}
		m.recordOp(audit.OpCheckpointCreated, id, map[string]int64{
			"fileCount":    int64(len(manifest.Files)),
			"skippedCount": int64(skipped),
		})
	}

	m.log.Info("checkpoint created", "checkpointId", id, "name", name,
		"fileCount", len(manifest.Files), "skippedCount", skipped)
	return id, nil
}

// Rollback restores every file recorded in the checkpoint's manifest.
// Each manifest path is re-validated before any write; a validation
// failure aborts the whole rollback with a hard error because a
// manifest with escaping paths means tampering, and the risk here is
// writing to an unintended location. Missing or corrupt backups are
// per-file failures, not fatal to the rest.
func (m *Manager) Rollback(checkpointID string) (*RollbackResult, error) {
	if !ValidID(checkpointID) {
		return nil, fmt.Errorf("%w: %q", ErrBadCheckpointID, checkpointID)
	}

	manifest, err := m.storage.LoadManifest(checkpointID)
	if err != nil {
		if os.IsNotExist(err) {
			return &RollbackResult{Success: false, NotFound: true, Restored: []string{}, Failed: []FileFailure{}}, nil
		}
		return nil, err
	}

	if err := m.validateManifestPaths(manifest); err != nil {
		return nil, err
	}

	result := &RollbackResult{Restored: []string{}, Failed: []FileFailure{}}
	for _, entry := range manifest.Files {
		if reason := m.restoreEntry(checkpointID, entry); reason != "" {
			result.Failed = append(result.Failed, FileFailure{Path: entry.Path, Reason: reason})
		} else {
			result.Restored = append(result.Restored, entry.Path)
		}
	}
	result.Success = len(result.Failed) == 0

	m.appendAudit(audit.OpRollbackCompleted, map[string]any{
		"checkpointId":  checkpointID,
		"restoredCount": len(result.Restored),
		"failedCount":   len(result.Failed),
	})
	m.recordOp(audit.OpRollbackCompleted, checkpointID, map[string]int64{
		"restoredCount": int64(len(result.Restored)),
		"failedCount":   int64(len(result.Failed)),
	})

	m.log.Info("rollback completed", "checkpointId", checkpointID,
		"restored", len(result.Restored), "failed", len(result.Failed))
	return result, nil
}

// SelectiveRollback restores only the intersection of filesToRestore
// and the manifest. Requested paths absent from the manifest are
// skipped, not errors: a partial, explicitly scoped restore is the
// caller's intent. Path validation keeps the same hard-failure posture
// as Rollback, for requested and manifest paths alike.
func (m *Manager) SelectiveRollback(checkpointID string, filesToRestore []string) (*SelectiveResult, error) {
	if !ValidID(checkpointID) {
		return nil, fmt.Errorf("%w: %q", ErrBadCheckpointID, checkpointID)
	}

	for _, p := range filesToRestore {
		if r := validate.Path(p, m.baseDir); !r.Valid {
			return nil, fmt.Errorf("%w: %s: %s", ErrPathViolation, p, r.Reason)
		}
	}

	manifest, err := m.storage.LoadManifest(checkpointID)
	if err != nil {
		if os.IsNotExist(err) {
			return &SelectiveResult{Success: false, NotFound: true, Restored: []string{}, Skipped: []string{}}, nil
		}
		return nil, err
	}
	if err := m.validateManifestPaths(manifest); err != nil {
		return nil, err
	}

	byPath := make(map[string]FileEntry, len(manifest.Files))
	for _, entry := range manifest.Files {
		byPath[entry.Path] = entry
	}

	result := &SelectiveResult{Success: true, Restored: []string{}, Skipped: []string{}}
	for _, p := range filesToRestore {
		entry, ok := byPath[p]
		if !ok {
			result.Skipped = append(result.Skipped, p)
			continue
		}
		if reason := m.restoreEntry(checkpointID, entry); reason != "" {
			result.Failed = append(result.Failed, FileFailure{Path: p, Reason: reason})
		} else {
			result.Restored = append(result.Restored, p)
		}
	}

	m.appendAudit(audit.OpSelectiveRollback, map[string]any{
		"checkpointId":  checkpointID,
		"restoredCount": len(result.Restored),
		"skippedCount":  len(result.Skipped),
		"failedCount":   len(result.Failed),
	})
	m.recordOp(audit.OpSelectiveRollback, checkpointID, map[string]int64{
		"restoredCount": int64(len(result.Restored)),
		"skippedCount":  int64(len(result.Skipped)),
	})

	m.log.Info("selective rollback completed", "checkpointId", checkpointID,
		"restored", len(result.Restored), "skipped", len(result.Skipped))
	return result, nil
}

// ListCheckpoints returns checkpoint summaries, newest first.
func (m *Manager) ListCheckpoints() ([]Summary, error) {
	return m.storage.List()
}

// PruneCheckpoints deletes every checkpoint older than maxAge, one
// audit entry per deletion.
func (m *Manager) PruneCheckpoints(maxAge time.Duration) (*PruneResult, error) {
	summaries, err := m.storage.List()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	result := &PruneResult{}
	for _, s := range summaries {
		age := now.Sub(s.CreatedAt)
		if age <= maxAge {
			continue
		}
		if err := m.storage.Delete(s.ID); err != nil {
			return nil, err
		}
		result.Deleted++
		m.appendAudit(audit.OpCheckpointPruned, map[string]any{
			"checkpointId": s.ID,
			"name":         s.Name,
			"ageMs":        age.Milliseconds(),
		})
		if m.recorder != nil {
			if err := m.recorder.RemoveCheckpoint(s.ID); err != nil {
				m.log.Warn("index removal failed", "checkpointId", s.ID, "error", err)
			}
		}
		m.recordOp(audit.OpCheckpointPruned, s.ID, map[string]int64{"ageMs": age.Milliseconds()})
	}

	m.log.Info("prune completed", "deleted", result.Deleted, "maxAge", maxAge)
	return result, nil
}

// PruneToCount keeps the newest max checkpoints and deletes the rest.
func (m *Manager) PruneToCount(max int) (*PruneResult, error) {
	summaries, err := m.storage.List()
	if err != nil {
		return nil, err
	}
	result := &PruneResult{}
	if max < 0 || len(summaries) <= max {
		return result, nil
	}

	now := time.Now()
	for _, s := range summaries[max:] {
		if err := m.storage.Delete(s.ID); err != nil {
			return nil, err
		}
		result.Deleted++
		m.appendAudit(audit.OpCheckpointPruned, map[string]any{
			"checkpointId": s.ID,
			"name":         s.Name,
			"ageMs":        now.Sub(s.CreatedAt).Milliseconds(),
		})
		if m.recorder != nil {
			if err := m.recorder.RemoveCheckpoint(s.ID); err != nil {
				m.log.Warn("index removal failed", "checkpointId", s.ID, "error", err)
			}
		}
	}
	return result, nil
}

// DeleteCheckpoint removes one checkpoint explicitly.
func (m *Manager) DeleteCheckpoint(id string) error {
	if err := m.storage.Delete(id); err != nil {
		return err
	}
	m.appendAudit(audit.OpCheckpointDeleted, map[string]any{"checkpointId": id})
	if m.recorder != nil {
		if err := m.recorder.RemoveCheckpoint(id); err != nil {
			m.log.Warn("index removal failed", "checkpointId", id, "error", err)
		}
	}
	return nil
}

// Diff compares two checkpoints by the content hashes their manifests
// recorded. No file content is read.
func (m *Manager) Diff(fromID, toID string) (*DiffResult, error) {
	if !ValidID(fromID) {
		return nil, fmt.Errorf("%w: %q", ErrBadCheckpointID, fromID)
	}
	if !ValidID(toID) {
		return nil, fmt.Errorf("%w: %q", ErrBadCheckpointID, toID)
	}

	from, err := m.storage.LoadManifest(fromID)
	if err != nil {
		return nil, fmt.Errorf("load checkpoint %s: %w", fromID, err)
	}
	to, err := m.storage.LoadManifest(toID)
	if err != nil {
		return nil, fmt.Errorf("load checkpoint %s: %w", toID, err)
	}

	fromHashes := make(map[string]string, len(from.Files))
	for _, f := range from.Files {
		fromHashes[f.Path] = f.Hash
	}
	toHashes := make(map[string]string, len(to.Files))
	for _, f := range to.Files {
		toHashes[f.Path] = f.Hash
	}

	result := &DiffResult{From: fromID, To: toID}
	for _, f := range from.Files {
		if toHash, ok := toHashes[f.Path]; !ok {
			result.Removed = append(result.Removed, f.Path)
		} else if !HashEqual(f.Hash, toHash) {
			result.Modified = append(result.Modified, f.Path)
		}
	}
	for _, f := range to.Files {
		if _, ok := fromHashes[f.Path]; !ok {
			result.Added = append(result.Added, f.Path)
		}
	}
	return result, nil
}

// validateManifestPaths re-validates every path in a manifest. Called
// on every restore, never skipped: the manifest was produced by this
// component but lives as plain JSON on disk.
func (m *Manager) validateManifestPaths(manifest *Manifest) error {
	for _, entry := range manifest.Files {
		if r := validate.Path(entry.Path, m.baseDir); !r.Valid {
			return fmt.Errorf("%w: manifest path %s: %s", ErrPathViolation, entry.Path, r.Reason)
		}
	}
	return nil
}

// restoreEntry writes one backed-up file to the working tree and
// returns a failure reason, or "" on success.
func (m *Manager) restoreEntry(checkpointID string, entry FileEntry) string {
	content, err := m.storage.ReadBackup(checkpointID, entry.BackupName)
	if err != nil {
		return "backup content missing or unreadable"
	}
	if m.verify && !HashEqual(HashContent(content), entry.Hash) {
		return "hash mismatch"
	}

	target := m.resolve(entry.Path)
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Sprintf("create parent directory: %v", err)
	}
	if err := os.WriteFile(target, content, 0644); err != nil {
		return fmt.Sprintf("write file: %v", err)
	}
	return ""
}

// resolve maps a (validated) manifest or caller path to an absolute
// location under the base directory.
func (m *Manager) resolve(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(m.baseDir, p)
}

func (m *Manager) dedupeName(name string, used map[string]int) string {
	n, taken := used[name]
	used[name] = n + 1
	if !taken {
		return name
	}
	base := name[:len(name)-len(backupExt)]
	return fmt.Sprintf("%s-%d%s", base, n, backupExt)
}

func (m *Manager) appendAudit(operation string, fields map[string]any) {
	if m.audit == nil {
		return
	}
	if err := m.audit.Append(operation, fields); err != nil {
		m.log.Error("audit append failed", "operation", operation, "error", err)
	}
}

func (m *Manager) recordOp(operation, checkpointID string, counts map[string]int64) {
	if m.recorder == nil {
		return
	}
	if err := m.recorder.RecordOperation(operation, checkpointID, counts); err != nil {
		m.log.Warn("index operation record failed", "operation", operation, "error", err)
	}
}
