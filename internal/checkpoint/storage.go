// internal/checkpoint/storage.go
package checkpoint

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
)

const (
	manifestFile = "manifest.json"
	filesDir     = "files"
	backupExt    = ".backup"
	hashPrefix   = "sha256:"
)

// idPattern is the restricted character class for checkpoint ids. Ids
// are used to build filesystem paths, including the path handed to a
// recursive delete, so nothing outside this class is ever accepted.
var idPattern = regexp.MustCompile(`^[a-zA-Z0-9-]+$`)

// Storage owns the checkpoint directory tree:
//
//	<baseDir>/cp-<timestamp>-<random>/
//	  manifest.json
//	  files/<sanitized-path>.backup   (zstd frame)
type Storage struct {
	baseDir string
	encoder *zstd.Encoder
	decoder *zstd.Decoder
	mu      sync.RWMutex
}

// NewStorage creates checkpoint storage rooted at baseDir.
func NewStorage(baseDir string, compressionLevel int) (*Storage, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("create checkpoint root: %w", err)
	}
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(compressionLevel)))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &Storage{baseDir: baseDir, encoder: encoder, decoder: decoder}, nil
}

// BaseDir returns the checkpoint storage root.
func (s *Storage) BaseDir() string {
	return s.baseDir
}

// GenerateID returns a new checkpoint id: cp-<unix-millis>-<8 hex>.
// The format stays inside the restricted id character class.
func GenerateID() string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("cp-%d-%s", time.Now().UnixMilli(), suffix)
}

// ValidID reports whether id is inside the restricted character class.
func ValidID(id string) bool {
	return id != "" && idPattern.MatchString(id)
}

// HashContent returns the tagged sha256 digest of content.
func HashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return fmt.Sprintf("%s%x", hashPrefix, sum)
}

// HashEqual compares two tagged digests in constant time.
func HashEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// SanitizeBackupName flattens a source path into a single safe file
// name: separators and drive markers become underscores.
func SanitizeBackupName(path string) string {
	name := strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(path)
	name = strings.TrimLeft(name, "_")
	if name == "" {
		name = "_"
	}
	return name + backupExt
}

func (s *Storage) checkpointDir(id string) string {
	return filepath.Join(s.baseDir, id)
}

// WriteBackup stores one file's content, zstd-compressed, under the
// checkpoint's files directory.
func (s *Storage) WriteBackup(id, backupName string, content []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Join(s.checkpointDir(id), filesDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}
	compressed := s.encoder.EncodeAll(content, nil)
	if err := os.WriteFile(filepath.Join(dir, backupName), compressed, 0644); err != nil {
		return fmt.Errorf("write backup %s: %w", backupName, err)
	}
	return nil
}

// ReadBackup loads and decompresses one stored backup.
func (s *Storage) ReadBackup(id, backupName string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	compressed, err := os.ReadFile(filepath.Join(s.checkpointDir(id), filesDir, backupName))
	if err != nil {
		return nil, fmt.Errorf("read backup %s: %w", backupName, err)
	}
	content, err := s.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress backup %s: %w", backupName, err)
	}
	return content, nil
}

// WriteManifest persists the manifest. It is called only after every
// backup file has been written, so a crash mid-checkpoint leaves a
// directory without a manifest, which listing treats as not-a-checkpoint.
func (s *Storage) WriteManifest(m *Manifest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.checkpointDir(m.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}
	raw, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, manifestFile), raw, 0644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// LoadManifest reads the manifest for id. A missing or unreadable
// manifest surfaces as os.ErrNotExist so callers can branch on it.
func (s *Storage) LoadManifest(id string) (*Manifest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, err := os.ReadFile(filepath.Join(s.checkpointDir(id), manifestFile))
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest for %s: %w", id, err)
	}
	return &m, nil
}

// List scans the storage root for valid checkpoints, newest first.
// Directories without a loadable manifest are silently excluded.
func (s *Storage) List() ([]Summary, error) {
	s.mu.RLock()
	entries, err := os.ReadDir(s.baseDir)
	s.mu.RUnlock()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read checkpoint root: %w", err)
	}

	var summaries []Summary
	for _, entry := range entries {
		if !entry.IsDir() || !ValidID(entry.Name()) {
			continue
		}
		m, err := s.LoadManifest(entry.Name())
		if err != nil {
			continue
		}
		summaries = append(summaries, Summary{
			ID:        m.ID,
			Name:      m.Name,
			CreatedAt: m.CreatedAt,
			FileCount: len(m.Files),
			Metadata:  m.Metadata,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries, nil
}

// Delete removes a checkpoint's entire storage directory. The id is
// re-validated here because this is the one place an id reaches a
// recursive removal.
func (s *Storage) Delete(id string) error {
	if !ValidID(id) {
		return fmt.Errorf("%w: %q", ErrBadCheckpointID, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.RemoveAll(s.checkpointDir(id)); err != nil {
		return fmt.Errorf("delete checkpoint %s: %w", id, err)
	}
	return nil
}
