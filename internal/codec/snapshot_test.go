package codec

import (
	"testing"

	"hookstate/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalSortsKeys(t *testing.T) {
	a, err := Marshal(map[string]any{"b": 1, "a": "x", "c": map[string]any{"z": true, "y": nil}})
	require.NoError(t, err)
	assert.Equal(t, `{"a":"x","b":1,"c":{"y":null,"z":true}}`, string(a))

	b, err := Marshal(map[string]any{"c": map[string]any{"y": nil, "z": true}, "a": "x", "b": 1})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestMarshalNil(t *testing.T) {
	b, err := Marshal(nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(b))
}

func TestUnmarshalRejectsNonObjects(t *testing.T) {
	for _, in := range []string{"", "null", "[1,2]", `"foo"`, "{broken"} {
		_, err := Unmarshal([]byte(in))
		assert.ErrorIs(t, err, types.ErrSnapshotCorrupt, in)
	}
	m, err := Unmarshal([]byte("{}"))
	require.NoError(t, err)
	assert.Empty(t, m)
	assert.NotNil(t, m)
}

func TestEncodeDecode(t *testing.T) {
	in := map[string]any{"foo": "bar", "n": float64(3), "list": []any{"a", "b"}}
	s, err := Encode(in)
	require.NoError(t, err)
	assert.NotContains(t, s, "foo")

	out, err := Decode(s)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = Decode("!!not base64!!")
	assert.ErrorIs(t, err, types.ErrSnapshotCorrupt)
}

func TestClone(t *testing.T) {
	in := map[string]any{"nested": map[string]any{"k": "v"}, "list": []any{map[string]any{"x": 1}}}
	out := Clone(in).(map[string]any)
	out["nested"].(map[string]any)["k"] = "changed"
	out["list"].([]any)[0].(map[string]any)["x"] = 2
	assert.Equal(t, "v", in["nested"].(map[string]any)["k"])
	assert.Equal(t, 1, in["list"].([]any)[0].(map[string]any)["x"])
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(nil, nil))
	assert.True(t, Equal(1, float64(1)))
	assert.True(t, Equal(map[string]any{"a": 1, "b": 2}, map[string]any{"b": float64(2), "a": float64(1)}))
	assert.True(t, Equal([]any{"x"}, []string{"x"}))
	assert.False(t, Equal("bar", "baz"))
	assert.False(t, Equal(nil, "x"))
	assert.False(t, Equal(0, nil))
	assert.False(t, Equal(map[string]any{}, nil))
}
