package types

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidBackend = errors.New("invalid backend")

	ErrSnapshotRead    = errors.New("snapshot read error")
	ErrSnapshotWrite   = errors.New("snapshot write error")
	ErrSnapshotCorrupt = errors.New("snapshot is not a JSON object")

	ErrInvalidStatus    = errors.New("invalid workload state")
	ErrAlreadyCompleted = errors.New("invocation already completed")
	ErrCallbackFailed   = errors.New("deferred callback failed")
	ErrToolFailed       = errors.New("hook tool failed")

	ErrInvalidEvent = errors.New("invalid event")
)

func Err(typedError error, innerErr error, msgTemplate string, args ...any) error {
	if msgTemplate == "" {
		return errors.Join(typedError, innerErr)
	} else {
		return errors.Join(typedError, innerErr, fmt.Errorf(msgTemplate, args...))
	}
}
