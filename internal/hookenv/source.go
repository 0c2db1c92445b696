package hookenv

import (
	"context"

	json "github.com/goccy/go-json"
)

// StaticSource serves configuration delivered with the triggering event rather than
// fetched from a tool. Scoped fetches return the value of that key, or "null".
type StaticSource struct {
	Raw []byte
}

func (s StaticSource) Fetch(_ context.Context, scope string) ([]byte, error) {
	if scope == "" {
		return s.Raw, nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(s.Raw, &m); err != nil {
		// Returned unchanged so that it fails to parse downstream.
		return s.Raw, nil
	}
	v, ok := m[scope]
	if !ok {
		return []byte("null"), nil
	}
	return v, nil
}
