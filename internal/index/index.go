// internal/index/index.go
package index

import (
	"database/sql"
	"encoding/json"
	"time"

	_ "modernc.org/sqlite"

	"evoguard/internal/checkpoint"
)

// DB mirrors checkpoint metadata into SQLite so checkpoints and their
// operation history can be queried without walking the storage
// directory. The filesystem manifests stay authoritative; the mirror
// can always be rebuilt from them.
type DB struct {
	db *sql.DB
}

// CheckpointRow is one mirrored checkpoint.
type CheckpointRow struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	CreatedAt time.Time         `json:"createdAt"`
	FileCount int               `json:"fileCount"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// OperationRow is one recorded operation.
type OperationRow struct {
	ID           int64            `json:"id"`
	Operation    string           `json:"operation"`
	CheckpointID string           `json:"checkpointId"`
	Counts       map[string]int64 `json:"counts,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
}

// Open creates or opens the index database at the given path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}

	d := &DB{db: db}
	if err := d.init(); err != nil {
		db.Close()
		return nil, err
	}

	return d, nil
}

// init creates the database schema
func (d *DB) init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS checkpoints (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		file_count INTEGER NOT NULL,
		metadata TEXT
	);

	CREATE TABLE IF NOT EXISTS operations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		operation TEXT NOT NULL,
		checkpoint_id TEXT NOT NULL,
		counts TEXT,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_checkpoints_created ON checkpoints(created_at);
	CREATE INDEX IF NOT EXISTS idx_operations_checkpoint ON operations(checkpoint_id);
	`

	_, err := d.db.Exec(schema)
	return err
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.db.Close()
}

// RecordCheckpoint saves or updates a checkpoint row from its manifest.
func (d *DB) RecordCheckpoint(m *checkpoint.Manifest) error {
	meta, err := marshalMap(m.Metadata)
	if err != nil {
		return err
	}
	_, err = d.db.Exec(`
		INSERT OR REPLACE INTO checkpoints (id, name, created_at, file_count, metadata)
		VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.Name, m.CreatedAt.UnixMilli(), len(m.Files), meta)
	return err
}

// RecordOperation appends one operation row.
func (d *DB) RecordOperation(operation, checkpointID string, counts map[string]int64) error {
	var countsJSON interface{}
	if len(counts) > 0 {
		data, err := json.Marshal(counts)
		if err != nil {
			return err
		}
		countsJSON = string(data)
	}
	_, err := d.db.Exec(`
		INSERT INTO operations (operation, checkpoint_id, counts, created_at)
		VALUES (?, ?, ?, ?)`,
		operation, checkpointID, countsJSON, time.Now().UnixMilli())
	return err
}

// RemoveCheckpoint deletes a checkpoint row. Operation history is kept.
func (d *DB) RemoveCheckpoint(id string) error {
	_, err := d.db.Exec("DELETE FROM checkpoints WHERE id = ?", id)
	return err
}

// ListCheckpoints retrieves all mirrored checkpoints, newest first.
func (d *DB) ListCheckpoints() ([]*CheckpointRow, error) {
	rows, err := d.db.Query(`
		SELECT id, name, created_at, file_count, metadata
		FROM checkpoints ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*CheckpointRow
	for rows.Next() {
		row, err := scanCheckpoint(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// GetCheckpoint retrieves one mirrored checkpoint by id.
func (d *DB) GetCheckpoint(id string) (*CheckpointRow, error) {
	row := d.db.QueryRow(`
		SELECT id, name, created_at, file_count, metadata
		FROM checkpoints WHERE id = ?`, id)

	cp := &CheckpointRow{}
	var createdAt int64
	var meta sql.NullString
	if err := row.Scan(&cp.ID, &cp.Name, &createdAt, &cp.FileCount, &meta); err != nil {
		return nil, err
	}
	cp.CreatedAt = time.UnixMilli(createdAt)
	if err := unmarshalMeta(meta, &cp.Metadata); err != nil {
		return nil, err
	}
	return cp, nil
}

// Operations retrieves operation history, newest first, optionally
// filtered by checkpoint id. Pass limit <= 0 for no limit.
func (d *DB) Operations(checkpointID string, limit int) ([]*OperationRow, error) {
	query := `SELECT id, operation, checkpoint_id, counts, created_at FROM operations`
	var args []interface{}
	if checkpointID != "" {
		query += " WHERE checkpoint_id = ?"
		args = append(args, checkpointID)
	}
	query += " ORDER BY created_at DESC, id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*OperationRow
	for rows.Next() {
		op := &OperationRow{}
		var createdAt int64
		var counts sql.NullString
		if err := rows.Scan(&op.ID, &op.Operation, &op.CheckpointID, &counts, &createdAt); err != nil {
			return nil, err
		}
		op.CreatedAt = time.UnixMilli(createdAt)
		if counts.Valid {
			if err := json.Unmarshal([]byte(counts.String), &op.Counts); err != nil {
				return nil, err
			}
		}
		result = append(result, op)
	}
	return result, rows.Err()
}

// Rebuild replaces the checkpoints table with what the storage
// directory actually contains. Used when the mirror drifted or the
// database file was lost.
func (d *DB) Rebuild(storage *checkpoint.Storage) (int, error) {
	summaries, err := storage.List()
	if err != nil {
		return 0, err
	}

	tx, err := d.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM checkpoints"); err != nil {
		return 0, err
	}
	for _, s := range summaries {
		meta, err := marshalMap(s.Metadata)
		if err != nil {
			return 0, err
		}
		_, err = tx.Exec(`
			INSERT INTO checkpoints (id, name, created_at, file_count, metadata)
			VALUES (?, ?, ?, ?, ?)`,
			s.ID, s.Name, s.CreatedAt.UnixMilli(), s.FileCount, meta)
		if err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(summaries), nil
}

// Helper functions

func marshalMap(m map[string]string) (interface{}, error) {
	if len(m) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func unmarshalMeta(s sql.NullString, dst *map[string]string) error {
	if !s.Valid {
		return nil
	}
	return json.Unmarshal([]byte(s.String), dst)
}

func scanCheckpoint(rows *sql.Rows) (*CheckpointRow, error) {
	cp := &CheckpointRow{}
	var createdAt int64
	var meta sql.NullString
	if err := rows.Scan(&cp.ID, &cp.Name, &createdAt, &cp.FileCount, &meta); err != nil {
		return nil, err
	}
	cp.CreatedAt = time.UnixMilli(createdAt)
	if err := unmarshalMeta(meta, &cp.Metadata); err != nil {
		return nil, err
	}
	return cp, nil
}
