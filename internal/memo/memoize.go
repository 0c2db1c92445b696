package memo

import "context"

// Func is the shape of a memoizable call: one argument plus a context that is not part of
// the key.
type Func[A, R any] func(ctx context.Context, arg A) (R, error)

// Memoize wraps fn so that repeated calls with structurally equal arguments return the
// stored result without calling fn again. An empty name falls back to FuncName(fn).
// Results are stored only when fn returns a nil error.
func Memoize[A, R any](c *Cache, name string, fn Func[A, R]) Func[A, R] {
	if name == "" {
		name = FuncName(fn)
	}
	return func(ctx context.Context, arg A) (R, error) {
		var zero R
		key, err := Key(name, arg)
		if err != nil {
			return zero, err
		}
		v, err := c.do(key, func() (any, error) {
			return fn(ctx, arg)
		})
		if err != nil {
			return zero, err
		}
		r, _ := v.(R)
		return r, nil
	}
}

// Do memoizes a single call of fn under name and args.
func Do[R any](c *Cache, name string, args []any, fn func() (R, error)) (R, error) {
	var zero R
	key, err := Key(name, args...)
	if err != nil {
		return zero, err
	}
	v, err := c.do(key, func() (any, error) {
		return fn()
	})
	if err != nil {
		return zero, err
	}
	r, _ := v.(R)
	return r, nil
}
