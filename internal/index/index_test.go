// internal/index/index_test.go
package index

import (
	"path/filepath"
	"testing"
	"time"

	"evoguard/internal/checkpoint"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecordAndGetCheckpoint(t *testing.T) {
	db := newTestDB(t)

	m := &checkpoint.Manifest{
		ID:        "cp-1700000000000-abcd1234",
		Name:      "before-evolution",
		CreatedAt: time.Now(),
		Files: []checkpoint.FileEntry{
			{Path: "a.txt", BackupName: "a.txt.backup", Hash: "sha256:x"},
			{Path: "b.txt", BackupName: "b.txt.backup", Hash: "sha256:y"},
		},
		Metadata: map[string]string{"trigger": "manual"},
	}
	if err := db.RecordCheckpoint(m); err != nil {
		t.Fatal(err)
	}

	got, err := db.GetCheckpoint(m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "before-evolution" || got.FileCount != 2 {
		t.Errorf("unexpected row: %+v", got)
	}
	if got.Metadata["trigger"] != "manual" {
		t.Errorf("metadata lost: %+v", got.Metadata)
	}
}

func TestRecordCheckpointIsUpsert(t *testing.T) {
	db := newTestDB(t)

	m := &checkpoint.Manifest{ID: "cp-1-aa", Name: "first", CreatedAt: time.Now()}
	if err := db.RecordCheckpoint(m); err != nil {
		t.Fatal(err)
	}
	m.Name = "renamed"
	if err := db.RecordCheckpoint(m); err != nil {
		t.Fatal(err)
	}

	rows, err := db.ListCheckpoints()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Name != "renamed" {
		t.Errorf("expected a single updated row, got %+v", rows)
	}
}

func TestListCheckpointsNewestFirst(t *testing.T) {
	db := newTestDB(t)

	base := time.Now()
	for i, id := range []string{"cp-1-aa", "cp-2-bb", "cp-3-cc"} {
		m := &checkpoint.Manifest{ID: id, Name: id, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := db.RecordCheckpoint(m); err != nil {
			t.Fatal(err)
		}
	}

	rows, err := db.ListCheckpoints()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 || rows[0].ID != "cp-3-cc" || rows[2].ID != "cp-1-aa" {
		t.Errorf("unexpected order: %+v", rows)
	}
}

func TestRemoveCheckpointKeepsOperations(t *testing.T) {
	db := newTestDB(t)

	m := &checkpoint.Manifest{ID: "cp-1-aa", Name: "cp", CreatedAt: time.Now()}
	if err := db.RecordCheckpoint(m); err != nil {
		t.Fatal(err)
	}
	if err := db.RecordOperation("checkpoint_created", m.ID, map[string]int64{"fileCount": 2}); err != nil {
		t.Fatal(err)
	}
	if err := db.RemoveCheckpoint(m.ID); err != nil {
		t.Fatal(err)
	}

	rows, _ := db.ListCheckpoints()
	if len(rows) != 0 {
		t.Errorf("checkpoint row should be gone, got %+v", rows)
	}

	ops, err := db.Operations(m.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(ops) != 1 || ops[0].Operation != "checkpoint_created" {
		t.Errorf("operation history should survive removal, got %+v", ops)
	}
	if ops[0].Counts["fileCount"] != 2 {
		t.Errorf("counts lost: %+v", ops[0].Counts)
	}
}

func TestOperationsFilterAndLimit(t *testing.T) {
	db := newTestDB(t)

	for i := 0; i < 3; i++ {
		if err := db.RecordOperation("rollback_completed", "cp-1-aa", nil); err != nil {
			t.Fatal(err)
		}
	}
	if err := db.RecordOperation("checkpoint_created", "cp-2-bb", nil); err != nil {
		t.Fatal(err)
	}

	ops, err := db.Operations("cp-1-aa", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(ops) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(ops))
	}
	for _, op := range ops {
		if op.CheckpointID != "cp-1-aa" {
			t.Errorf("filter leaked row for %s", op.CheckpointID)
		}
	}
}

func TestRebuildFromStorage(t *testing.T) {
	db := newTestDB(t)

	// One stale row that storage no longer knows about.
	stale := &checkpoint.Manifest{ID: "cp-0-stale", Name: "stale", CreatedAt: time.Now()}
	if err := db.RecordCheckpoint(stale); err != nil {
		t.Fatal(err)
	}

	storage, err := checkpoint.NewStorage(filepath.Join(t.TempDir(), "checkpoints"), 3)
	if err != nil {
		t.Fatal(err)
	}
	real := &checkpoint.Manifest{
		ID:        checkpoint.GenerateID(),
		Name:      "real",
		CreatedAt: time.Now(),
		Files:     []checkpoint.FileEntry{{Path: "a.txt", BackupName: "a.txt.backup", Hash: "sha256:x"}},
	}
	if err := storage.WriteManifest(real); err != nil {
		t.Fatal(err)
	}

	n, err := db.Rebuild(storage)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected 1 rebuilt row, got %d", n)
	}

	rows, _ := db.ListCheckpoints()
	if len(rows) != 1 || rows[0].ID != real.ID {
		t.Errorf("rebuild should replace stale rows, got %+v", rows)
	}
}
