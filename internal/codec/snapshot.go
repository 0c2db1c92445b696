// Package codec encodes configuration snapshots.
//
// Marshal/Unmarshal produce the flat JSON object stored in the snapshot file. Encode/Decode
// wrap that JSON in zstd and base64-url for remote backends, where snapshots share space
// with other keys.
package codec

import (
	"bytes"
	"encoding/base64"

	"hookstate/internal/types"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"
)

var enc, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
var dec, _ = zstd.NewReader(nil)

// Marshal encodes a snapshot as a JSON object with sorted keys. Equal snapshots always
// produce identical bytes.
func Marshal(snapshot map[string]any) ([]byte, error) {
	if snapshot == nil {
		snapshot = map[string]any{}
	}
	return json.Marshal(snapshot)
}

// Unmarshal decodes a JSON object. Anything other than an object is ErrSnapshotCorrupt.
func Unmarshal(b []byte) (map[string]any, error) {
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, types.Err(types.ErrSnapshotCorrupt, err, "")
	}
	if out == nil {
		// "null" decodes without error.
		return nil, types.Err(types.ErrSnapshotCorrupt, nil, "snapshot is null")
	}
	return out, nil
}

// Encode marshals, compresses and base64-url encodes a snapshot.
func Encode(snapshot map[string]any) (string, error) {
	s, err := Marshal(snapshot)
	if err != nil {
		return "", err
	}
	b := enc.EncodeAll(s, make([]byte, 0, len(s)))
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Decode reverses Encode.
func Decode(in string) (map[string]any, error) {
	b, err := base64.RawURLEncoding.DecodeString(in)
	if err != nil {
		return nil, types.Err(types.ErrSnapshotCorrupt, err, "")
	}
	out, err := dec.DecodeAll(b, nil)
	if err != nil {
		return nil, types.Err(types.ErrSnapshotCorrupt, err, "")
	}
	return Unmarshal(out)
}

// Clone returns a deep copy of a decoded JSON value.
func Clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = Clone(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Clone(e)
		}
		return out
	default:
		return v
	}
}

// Equal reports whether a and b encode to the same JSON. A missing value and JSON null
// are equal, and so are int 1 and float64 1.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ab, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bb, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}
