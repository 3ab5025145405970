// internal/checkpoint/models.go
package checkpoint

import "time"

// FileEntry describes one backed-up file inside a checkpoint manifest.
type FileEntry struct {
	// Path is the original path of the source file at backup time.
	Path string `json:"path"`
	// BackupName is the sanitized, collision-safe name of the stored copy.
	BackupName string `json:"backupName"`
	// Hash is the digest of the uncompressed content, tagged "sha256:".
	Hash string `json:"hash"`
}

// Manifest is the durable record describing a checkpoint. It is written
// once, after every backup succeeded, and never mutated.
type Manifest struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	CreatedAt time.Time         `json:"createdAt"`
	Files     []FileEntry       `json:"files"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Summary is the listing view of a checkpoint.
type Summary struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	CreatedAt time.Time         `json:"createdAt"`
	FileCount int               `json:"fileCount"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// FileFailure records why a single file could not be restored.
type FileFailure struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// RollbackResult reports a full rollback. Success is true only when no
// file failed. NotFound marks a missing checkpoint; that is an expected
// operational condition, not an error.
type RollbackResult struct {
	Success  bool          `json:"success"`
	NotFound bool          `json:"notFound,omitempty"`
	Restored []string      `json:"restored"`
	Failed   []FileFailure `json:"failed"`
}

// SelectiveResult reports a selective rollback. Paths requested but not
// present in the manifest land in Skipped; a partial, explicitly scoped
// restore is the caller's intent, so Success stays true unless the
// checkpoint itself was missing.
type SelectiveResult struct {
	Success  bool          `json:"success"`
	NotFound bool          `json:"notFound,omitempty"`
	Restored []string      `json:"restored"`
	Skipped  []string      `json:"skipped"`
	Failed   []FileFailure `json:"failed,omitempty"`
}

// PruneResult reports how many checkpoints a prune removed.
type PruneResult struct {
	Deleted int `json:"deleted"`
}

// DiffResult compares two manifests by recorded content hash.
type DiffResult struct {
	From     string   `json:"fromCheckpointId"`
	To       string   `json:"toCheckpointId"`
	Modified []string `json:"modifiedFiles"`
	Added    []string `json:"addedFiles"`
	Removed  []string `json:"removedFiles"`
}
