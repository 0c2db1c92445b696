// Package hookenv holds the per-invocation state of a hook: the configuration delivered for
// this run, the snapshot persisted by the previous run, a memoization cache and the
// callbacks that run when the hook completes successfully.
package hookenv

import (
	"context"
	"sync"

	"hookstate/internal/deferred"
	"hookstate/internal/memo"
	"hookstate/internal/ports"
	"hookstate/internal/types"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const configLoaderName = "hookenv.config"

// Invocation is one run of a hook. It owns the memoization cache and the deferred registry
// for that run; nothing is shared with other invocations unless passed in explicitly.
type Invocation struct {
	ID       string
	Unit     string
	Hook     string
	Cache    *memo.Cache
	Deferred *deferred.Registry

	source      ports.ConfigSource
	store       ports.SnapshotStore
	snapshotKey string
	loadConfig  memo.Func[string, any]

	mu       sync.Mutex
	finished bool
}

type InvocationOption func(*Invocation)

// WithCache shares a memoization cache instead of creating a fresh one.
func WithCache(c *memo.Cache) InvocationOption {
	return func(inv *Invocation) {
		inv.Cache = c
	}
}

func WithRegistry(r *deferred.Registry) InvocationOption {
	return func(inv *Invocation) {
		inv.Deferred = r
	}
}

func WithUnit(unit, hook string) InvocationOption {
	return func(inv *Invocation) {
		inv.Unit = unit
		inv.Hook = hook
	}
}

func WithID(id string) InvocationOption {
	return func(inv *Invocation) {
		inv.ID = id
	}
}

// NewInvocation starts an invocation reading configuration from source and keeping its
// snapshot in store under snapshotKey.
func NewInvocation(source ports.ConfigSource, store ports.SnapshotStore, snapshotKey string, opts ...InvocationOption) *Invocation {
	inv := &Invocation{
		source:      source,
		store:       store,
		snapshotKey: snapshotKey,
	}
	for _, o := range opts {
		o(inv)
	}
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	if inv.Cache == nil {
		inv.Cache = memo.New()
	}
	if inv.Deferred == nil {
		inv.Deferred = deferred.NewRegistry()
	}
	inv.loadConfig = memo.Memoize(inv.Cache, configLoaderName, inv.fetchConfig)
	return inv
}

// SnapshotKey is where this invocation's config is persisted.
func (inv *Invocation) SnapshotKey() string {
	return inv.snapshotKey
}

// Logger returns a logger carrying the invocation fields.
func (inv *Invocation) Logger() *log.Entry {
	return log.WithFields(log.Fields{
		"invocation": inv.ID,
		"unit":       inv.Unit,
		"hook":       inv.Hook,
	})
}

// Config returns the unit's configuration. Every call within one invocation returns the
// same instance. When the source returns content that is not a JSON object, as happens
// before any value was ever set, Config returns (nil,nil).
func (inv *Invocation) Config(ctx context.Context) (*Config, error) {
	v, err := inv.loadConfig(ctx, "")
	if err != nil {
		return nil, err
	}
	cfg, _ := v.(*Config)
	return cfg, nil
}

// ConfigValue returns the raw value of one configuration key, bypassing change tracking.
// Content that is not valid JSON yields (nil,nil).
func (inv *Invocation) ConfigValue(ctx context.Context, scope string) (*Value, error) {
	if scope == "" {
		cfg, err := inv.Config(ctx)
		if err != nil || cfg == nil {
			return nil, err
		}
		v := NewValue(cfg.Map())
		return &v, nil
	}
	v, err := inv.loadConfig(ctx, scope)
	if err != nil {
		return nil, err
	}
	val, _ := v.(*Value)
	return val, nil
}

func (inv *Invocation) fetchConfig(ctx context.Context, scope string) (any, error) {
	raw, err := inv.source.Fetch(ctx, scope)
	if err != nil {
		return nil, err
	}
	if scope != "" {
		var data any
		if err := json.Unmarshal(raw, &data); err != nil {
			inv.Logger().WithError(err).WithField("key", scope).Debug("Config value not available")
			return (*Value)(nil), nil
		}
		v := NewValue(data)
		return &v, nil
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil || data == nil {
		inv.Logger().WithError(err).Debug("Config not available")
		return (*Config)(nil), nil
	}
	return NewConfig(data, inv.store, inv.snapshotKey, inv.Deferred), nil
}

// Atexit schedules fn to run on successful completion. Callbacks run in the reverse order
// they were added.
func (inv *Invocation) Atexit(name string, fn deferred.Callback) {
	inv.Deferred.Register(name, fn)
}

// Flush drops every memoized call whose key contains substr.
func (inv *Invocation) Flush(substr string) int {
	return inv.Cache.Flush(substr)
}

// Complete signals success: every deferred callback runs, last added first. Persistence
// failures are returned.
func (inv *Invocation) Complete(ctx context.Context) error {
	if err := inv.finish(); err != nil {
		return err
	}
	if err := inv.Deferred.RunAll(ctx); err != nil {
		inv.Logger().WithError(err).Error("Invocation completed with failing callbacks")
		return err
	}
	inv.Logger().Debug("Invocation completed")
	return nil
}

// Abort ends the invocation without running any deferred callback, so nothing is persisted.
func (inv *Invocation) Abort(reason error) {
	if inv.finish() != nil {
		return
	}
	inv.Deferred.Discard()
	inv.Logger().WithError(reason).Warn("Invocation aborted; state not persisted")
}

func (inv *Invocation) finish() error {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if inv.finished {
		return types.ErrAlreadyCompleted
	}
	inv.finished = true
	return nil
}
