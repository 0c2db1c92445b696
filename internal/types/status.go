package types

import "fmt"

// WorkloadState is the state a unit reports through status-set.
type WorkloadState string

const (
	StateMaintenance WorkloadState = "maintenance"
	StateBlocked     WorkloadState = "blocked"
	StateWaiting     WorkloadState = "waiting"
	StateActive      WorkloadState = "active"

	// StateUnknown is only ever reported back by StatusGet, never accepted by StatusSet.
	StateUnknown WorkloadState = "unknown"
)

var validStates = map[WorkloadState]struct{}{
	StateMaintenance: {},
	StateBlocked:     {},
	StateWaiting:     {},
	StateActive:      {},
}

func (s WorkloadState) Validate() error {
	if _, ok := validStates[s]; !ok {
		return Err(ErrInvalidStatus, nil, "%q is not a valid workload state", string(s))
	}
	return nil
}

// Status is the workload state plus its message, as returned by status-get.
type Status struct {
	State   WorkloadState `json:"status"`
	Message string        `json:"message"`
}

func (s Status) String() string {
	return fmt.Sprintf("%s: %s", s.State, s.Message)
}
