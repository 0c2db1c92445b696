package ports

import "context"

// ConfigSource supplies the key/value configuration delivered for the current invocation.
// Fetch returns the raw bytes, expected to be JSON. An empty scope asks for the whole
// object; a non-empty scope asks for the value of that single key.
// Implementations return an error only when the source itself failed; content that does
// not parse is the caller's concern.
type ConfigSource interface {
	Fetch(ctx context.Context, scope string) ([]byte, error)
}
