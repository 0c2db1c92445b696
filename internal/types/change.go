package types

// Change describes one key whose value differs from the previous invocation's snapshot.
// Previous is nil when the key did not exist (or no snapshot existed); Current is nil
// when the key was removed.
type Change struct {
	Key      string `json:"key"`
	Previous any    `json:"previous"`
	Current  any    `json:"current"`
}
