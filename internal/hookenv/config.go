package hookenv

import (
	"context"
	"sort"
	"sync"

	"hookstate/internal/codec"
	"hookstate/internal/deferred"
	"hookstate/internal/ports"
	"hookstate/internal/types"

	"github.com/goccy/go-yaml"
	"github.com/jmespath/go-jmespath"
	log "github.com/sirupsen/logrus"
)

// Config is the unit's configuration for the current invocation, with some extra features:
//
//   - see which values have changed since the previous invocation,
//   - for values that have changed, see what the previous value was,
//   - store arbitrary data for use in a later invocation.
//
// The previous snapshot is loaded lazily, once, on first access. Keys present only in the
// previous snapshot are copied into the current view at that point, so data stashed by an
// earlier invocation is visible again. A Config registers its own save with the deferred
// registry when constructed; use Invocation.Config rather than NewConfig so that there is
// one instance per invocation.
type Config struct {
	mu sync.Mutex

	current map[string]any
	prev    map[string]any
	loaded  bool
	loadErr error

	implicitSave bool
	key          string
	store        ports.SnapshotStore
}

// NewConfig wraps data (which it takes ownership of) and registers an implicit save of the
// result under key with reg.
func NewConfig(data map[string]any, store ports.SnapshotStore, key string, reg *deferred.Registry) *Config {
	if data == nil {
		data = map[string]any{}
	}
	c := &Config{
		current:      data,
		implicitSave: true,
		key:          key,
		store:        store,
	}
	if reg != nil {
		reg.Register("config.save", c.saveIfImplicit)
	}
	return c
}

// Path is the snapshot key resolved at construction.
func (c *Config) Path() string {
	return c.key
}

// ImplicitSave reports whether the config is saved automatically at successful completion.
func (c *Config) ImplicitSave() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.implicitSave
}

// SetImplicitSave turns the automatic save on or off.
func (c *Config) SetImplicitSave(v bool) {
	c.mu.Lock()
	c.implicitSave = v
	c.mu.Unlock()
}

// LoadPrevious loads the previous snapshot if that has not happened yet. A missing snapshot
// is not an error: the config then reports every key as changed.
func (c *Config) LoadPrevious(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ensureLoaded(ctx)
}

// ensureLoaded must be called with c.mu held.
func (c *Config) ensureLoaded(ctx context.Context) error {
	if c.loaded {
		return c.loadErr
	}
	c.loaded = true
	if c.store == nil {
		return nil
	}
	prev, ok, err := c.store.Load(ctx, c.key)
	if err != nil {
		c.loadErr = err
		log.WithError(err).WithField("key", c.key).Error("Failed to load previous config; treating it as absent")
		return err
	}
	if !ok {
		log.WithField("key", c.key).Debug("No previous config snapshot")
		return nil
	}
	c.prev = prev
	for k, v := range prev {
		if _, exists := c.current[k]; !exists {
			c.current[k] = codec.Clone(v)
		}
	}
	return nil
}

func (c *Config) lazyLoad() {
	_ = c.ensureLoaded(context.Background())
}

// Get returns the current value for key. A missing key yields (nil,false).
func (c *Config) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lazyLoad()
	v, ok := c.current[key]
	return v, ok
}

// Set stores value under key in the current view.
func (c *Config) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lazyLoad()
	c.current[key] = value
}

// Delete removes key from the current view.
func (c *Config) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lazyLoad()
	delete(c.current, key)
}

// Keys returns the current keys in sorted order.
func (c *Config) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lazyLoad()
	return sortedKeys(c.current)
}

// Map returns a deep copy of the current view.
func (c *Config) Map() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lazyLoad()
	return codec.Clone(c.current).(map[string]any)
}

// Lookup implements Serializable.
func (c *Config) Lookup(key string) (any, bool) {
	return c.Get(key)
}

// HasPrevious reports whether a previous snapshot exists.
func (c *Config) HasPrevious() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lazyLoad()
	return c.prev != nil
}

// Changed reports whether the current value for key differs from the previous one.
// Without a previous snapshot every key has changed.
func (c *Config) Changed(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lazyLoad()
	return c.changed(key)
}

func (c *Config) changed(key string) bool {
	if c.prev == nil {
		return true
	}
	return !codec.Equal(c.prev[key], c.current[key])
}

// Previous returns the value key had in the previous snapshot, or nil when there is no
// snapshot or the key was not in it.
func (c *Config) Previous(key string) any {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lazyLoad()
	if c.prev == nil {
		return nil
	}
	return codec.Clone(c.prev[key])
}

// ChangedKeys returns, sorted, every key in the current or previous view whose value changed.
func (c *Config) ChangedKeys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lazyLoad()
	return c.changedKeys()
}

func (c *Config) changedKeys() []string {
	union := make(map[string]any, len(c.current)+len(c.prev))
	for k := range c.current {
		union[k] = nil
	}
	for k := range c.prev {
		union[k] = nil
	}
	var out []string
	for _, k := range sortedKeys(union) {
		if c.changed(k) {
			out = append(out, k)
		}
	}
	return out
}

// Changes describes every changed key with its previous and current value.
func (c *Config) Changes() []types.Change {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lazyLoad()
	keys := c.changedKeys()
	out := make([]types.Change, 0, len(keys))
	for _, k := range keys {
		var prev any
		if c.prev != nil {
			prev = codec.Clone(c.prev[k])
		}
		out = append(out, types.Change{Key: k, Previous: prev, Current: codec.Clone(c.current[k])})
	}
	return out
}

// Search evaluates a JMESPath expression against the current view.
func (c *Config) Search(expression string) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lazyLoad()
	return search(expression, c.current)
}

// SearchPrevious evaluates a JMESPath expression against the previous snapshot. Without a
// snapshot the result is nil.
func (c *Config) SearchPrevious(expression string) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lazyLoad()
	if c.prev == nil {
		return nil, nil
	}
	return search(expression, c.prev)
}

func search(expression string, data map[string]any) (any, error) {
	v, err := jmespath.Search(expression, data)
	if err != nil {
		return nil, types.Err(types.ErrNotFound, err, "jmespath %q", expression)
	}
	return v, nil
}

// JSON implements Serializable.
func (c *Config) JSON() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lazyLoad()
	return codec.Marshal(c.current)
}

// YAML implements Serializable.
func (c *Config) YAML() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lazyLoad()
	return yaml.Marshal(c.current)
}

// MarshalJSON encodes the current view.
func (c *Config) MarshalJSON() ([]byte, error) {
	return c.JSON()
}

// Save writes the whole current view as the snapshot the next invocation compares against.
// Saving twice without a change in between writes identical content.
func (c *Config) Save(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureLoaded(ctx); err != nil {
		log.WithError(err).WithField("key", c.key).Warn("Overwriting unreadable config snapshot")
	}
	if c.store == nil {
		return types.Err(types.ErrSnapshotWrite, nil, "config %q has no snapshot store", c.key)
	}
	if err := c.store.Save(ctx, c.key, c.current); err != nil {
		return err
	}
	log.WithField("key", c.key).Debug("Saved config snapshot")
	return nil
}

func (c *Config) saveIfImplicit(ctx context.Context) error {
	if !c.ImplicitSave() {
		return nil
	}
	return c.Save(ctx)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
