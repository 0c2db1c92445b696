package ports

import "context"

// SnapshotStore persists the configuration mapping as it stood after the last successful
// invocation.
type SnapshotStore interface {
	// Load returns the snapshot stored under key.
	// If no snapshot exists, (nil,false,nil) MUST be returned; an existing but empty
	// snapshot is (empty map,true,nil).
	Load(ctx context.Context, key string) (snapshot map[string]any, ok bool, err error)

	// Save replaces the whole snapshot under key. A crash mid-write MUST NOT leave a
	// snapshot that Load cannot read.
	Save(ctx context.Context, key string, snapshot map[string]any) error

	// Delete removes the snapshot under key. Deleting a missing snapshot is not an error.
	Delete(ctx context.Context, key string) error
}
