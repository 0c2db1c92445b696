// Package file keeps each snapshot in its own JSON file; the key is the file path.
package file

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"hookstate/internal/codec"
	"hookstate/internal/types"
)

const (
	DirPerm  = 0o750
	FilePerm = 0o600
)

// Store implements ports.SnapshotStore on the local filesystem. Writes go to a temporary
// file in the target directory which is then renamed over the snapshot.
type Store struct{}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Load(_ context.Context, path string) (map[string]any, bool, error) {
	//nolint:gosec // path comes from the process environment, not from untrusted input
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, types.Err(types.ErrSnapshotRead, err, "read %s", path)
	}
	snapshot, err := codec.Unmarshal(data)
	if err != nil {
		return nil, false, types.Err(types.ErrSnapshotRead, err, "decode %s", path)
	}
	return snapshot, true, nil
}

func (s *Store) Save(_ context.Context, path string, snapshot map[string]any) error {
	data, err := codec.Marshal(snapshot)
	if err != nil {
		return types.Err(types.ErrSnapshotWrite, err, "encode %s", path)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, DirPerm); err != nil {
		return types.Err(types.ErrSnapshotWrite, err, "create directory %s", dir)
	}

	tmpFile, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return types.Err(types.ErrSnapshotWrite, err, "create temp file in %s", dir)
	}
	tmpName := tmpFile.Name()

	// Clean up temp file on error
	defer func() {
		if _, err := os.Stat(tmpName); err == nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return types.Err(types.ErrSnapshotWrite, err, "write %s", tmpName)
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return types.Err(types.ErrSnapshotWrite, err, "sync %s", tmpName)
	}
	if err := tmpFile.Close(); err != nil {
		return types.Err(types.ErrSnapshotWrite, err, "close %s", tmpName)
	}
	if err := os.Chmod(tmpName, FilePerm); err != nil {
		return types.Err(types.ErrSnapshotWrite, err, "chmod %s", tmpName)
	}

	// Atomic rename
	if err := os.Rename(tmpName, path); err != nil {
		return types.Err(types.ErrSnapshotWrite, err, "rename %s", path)
	}
	return nil
}

func (s *Store) Delete(_ context.Context, path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return types.Err(types.ErrSnapshotWrite, err, "remove %s", path)
	}
	return nil
}
