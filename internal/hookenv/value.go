package hookenv

import (
	"hookstate/internal/codec"

	json "github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
)

// Serializable is what callers can do with a configuration value without knowing its shape.
type Serializable interface {
	// Lookup returns the value stored under key when the value is a JSON object.
	Lookup(key string) (any, bool)
	JSON() ([]byte, error)
	YAML() ([]byte, error)
}

var (
	_ Serializable = (*Config)(nil)
	_ Serializable = Value{}
)

// Value is a single decoded JSON value, as returned for a scoped config lookup.
type Value struct {
	raw any
}

func NewValue(raw any) Value {
	return Value{raw: raw}
}

// Raw returns the decoded value (string, float64, bool, nil, []any or map[string]any).
func (v Value) Raw() any {
	return v.raw
}

func (v Value) Lookup(key string) (any, bool) {
	m, ok := v.raw.(map[string]any)
	if !ok {
		return nil, false
	}
	e, ok := m[key]
	return codec.Clone(e), ok
}

func (v Value) JSON() ([]byte, error) {
	return json.Marshal(v.raw)
}

func (v Value) YAML() ([]byte, error) {
	return yaml.Marshal(v.raw)
}

// AsString returns the value when it is a JSON string.
func (v Value) AsString() (string, bool) {
	s, ok := v.raw.(string)
	return s, ok
}

func (v Value) MarshalJSON() ([]byte, error) {
	return v.JSON()
}
