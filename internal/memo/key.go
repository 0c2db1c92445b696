package memo

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"

	json "github.com/goccy/go-json"
)

// Key builds the memoization key for a call of the function identified by name with args.
// Arguments are JSON encoded with map keys sorted, so structurally equal arguments always
// produce the same key.
func Key(name string, args ...any) (string, error) {
	if args == nil {
		args = []any{}
	}
	b, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("memo: encode arguments of %s: %w", name, err)
	}
	var sb strings.Builder
	sb.Grow(len(name) + len(b) + 2)
	sb.WriteString(name)
	sb.WriteByte('(')
	sb.Write(b)
	sb.WriteByte(')')
	return sb.String(), nil
}

// FuncName returns the fully qualified name of fn as reported by the runtime.
// Distinct closures created at the same site share a name.
func FuncName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return fmt.Sprintf("%T", fn)
	}
	if f := runtime.FuncForPC(v.Pointer()); f != nil {
		return f.Name()
	}
	return fmt.Sprintf("%T@%x", fn, v.Pointer())
}
