package ports

import (
	"context"
	"hookstate/internal/types"
)

// StatusReporter publishes and reads back the unit's workload status.
type StatusReporter interface {
	// StatusSet returns false when the status could not be delivered; that is not an error.
	StatusSet(ctx context.Context, state types.WorkloadState, message string) (bool, error)

	StatusGet(ctx context.Context) (types.Status, error)
}
