package redis

import (
	"context"
	"errors"
	"fmt"

	"hookstate/internal/codec"
	"hookstate/internal/types"

	"github.com/cespare/xxhash/v2"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	snapshotKeyNameTemplate = "_hookstate_snap_%016x"

	fieldPath = "path"
	fieldData = "data"
)

// Store implements ports.SnapshotStore with one Redis hash per snapshot. The hash holds the
// unhashed key and the zstd-compressed snapshot.
type Store struct {
	cli *redis.Client
}

func NewStore(cli *redis.Client) *Store {
	return &Store{cli: cli}
}

func (s *Store) Load(ctx context.Context, key string) (map[string]any, bool, error) {
	out := s.cli.HGetAll(ctx, getSnapshotKeyName(key))
	if out.Err() != nil {
		if errors.Is(out.Err(), redis.Nil) {
			return nil, false, nil
		}
		return nil, false, types.Err(types.ErrSnapshotRead, out.Err(), "redis load %s", key)
	}
	m := out.Val()
	if len(m) == 0 {
		return nil, false, nil
	}
	if m[fieldPath] != key {
		// xxhash collision; treat as absent rather than serve another unit's snapshot.
		log.WithFields(log.Fields{"key": key, "stored": m[fieldPath]}).Warn("Snapshot key collision")
		return nil, false, nil
	}
	snapshot, err := codec.Decode(m[fieldData])
	if err != nil {
		return nil, false, types.Err(types.ErrSnapshotRead, err, "redis decode %s", key)
	}
	return snapshot, true, nil
}

func (s *Store) Save(ctx context.Context, key string, snapshot map[string]any) error {
	data, err := codec.Encode(snapshot)
	if err != nil {
		return types.Err(types.ErrSnapshotWrite, err, "encode %s", key)
	}
	// HSET with both fields is a single command, so readers never see half a snapshot.
	out := s.cli.HSet(ctx, getSnapshotKeyName(key), fieldPath, key, fieldData, data)
	if out.Err() != nil {
		return types.Err(types.ErrSnapshotWrite, out.Err(), "redis save %s", key)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	out := s.cli.Del(ctx, getSnapshotKeyName(key))
	if out.Err() != nil {
		return types.Err(types.ErrSnapshotWrite, out.Err(), "redis delete %s", key)
	}
	return nil
}

// ClearAll removes every snapshot. Used in tests only.
func (s *Store) ClearAll(ctx context.Context) error {
	out := s.cli.Keys(ctx, "_hookstate_snap_*")
	if out.Err() != nil {
		return out.Err()
	}
	keys := out.Val()
	if len(keys) == 0 {
		return nil
	}
	return s.cli.Del(ctx, keys...).Err()
}

func getSnapshotKeyName(key string) string {
	return fmt.Sprintf(snapshotKeyNameTemplate, xxhash.Sum64String(key))
}
