package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"hookstate/internal/codec"
	"hookstate/internal/types"

	_ "modernc.org/sqlite"
)

// Store implements ports.SnapshotStore in a single SQLite table. Useful when many units
// share one host and one database file.
type Store struct {
	db *sql.DB
}

// NewStore opens the database at dbPath. Use ":memory:" for an in-memory database.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		key TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Load(ctx context.Context, key string) (map[string]any, bool, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT data FROM snapshots WHERE key = ?", key).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, types.Err(types.ErrSnapshotRead, err, "sqlite load %s", key)
	}
	snapshot, err := codec.Unmarshal(data)
	if err != nil {
		return nil, false, types.Err(types.ErrSnapshotRead, err, "sqlite decode %s", key)
	}
	return snapshot, true, nil
}

func (s *Store) Save(ctx context.Context, key string, snapshot map[string]any) error {
	data, err := codec.Marshal(snapshot)
	if err != nil {
		return types.Err(types.ErrSnapshotWrite, err, "encode %s", key)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (key, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		key, data, time.Now().Unix(),
	)
	if err != nil {
		return types.Err(types.ErrSnapshotWrite, err, "sqlite save %s", key)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM snapshots WHERE key = ?", key); err != nil {
		return types.Err(types.ErrSnapshotWrite, err, "sqlite delete %s", key)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
