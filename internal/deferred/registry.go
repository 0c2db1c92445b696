// Package deferred collects callbacks that run once, in reverse registration order, when an
// invocation completes successfully.
package deferred

import (
	"context"
	"errors"
	"sync"

	"hookstate/internal/types"

	log "github.com/sirupsen/logrus"
)

// Callback is run at successful completion. Arguments are bound by closing over them.
type Callback func(ctx context.Context) error

type entry struct {
	name string
	fn   Callback
}

// Registry is an ordered list of callbacks drained exactly once.
type Registry struct {
	mu      sync.Mutex
	entries []entry
	done    bool
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends fn. Duplicates are legal and each runs independently.
// Callbacks registered after the registry was drained or discarded never run.
func (r *Registry) Register(name string, fn Callback) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		log.WithField("callback", name).Warn("deferred callback registered after completion; it will not run")
		return
	}
	r.entries = append(r.entries, entry{name: name, fn: fn})
}

// Len returns the number of pending callbacks.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// RunAll invokes every callback, last registered first. A failing callback does not stop
// the ones registered before it; all failures are returned joined with ErrCallbackFailed.
// A second call returns ErrAlreadyCompleted and runs nothing.
func (r *Registry) RunAll(ctx context.Context) error {
	r.mu.Lock()
	if r.done {
		r.mu.Unlock()
		return types.ErrAlreadyCompleted
	}
	r.done = true
	entries := r.entries
	r.entries = nil
	r.mu.Unlock()

	var errs []error
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if err := e.fn(ctx); err != nil {
			log.WithError(err).WithField("callback", e.name).Error("deferred callback failed")
			errs = append(errs, types.Err(types.ErrCallbackFailed, err, "callback %s", e.name))
		}
	}
	return errors.Join(errs...)
}

// Discard drops all pending callbacks without running them. Used on the failure path.
func (r *Registry) Discard() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.done = true
	r.entries = nil
}

// Reset empties the registry and makes it usable again.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.done = false
	r.entries = nil
}
