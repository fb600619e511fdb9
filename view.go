// FILE: lixenwraith/nestconf/view.go
package nestconf

import (
	"fmt"
	"iter"
)

// DefaultSeparator is the path separator used when a view is constructed
// without an explicit one. There is no process-wide mutable default; the
// separator is a field of each view instance.
const DefaultSeparator = "."

// Config is an addressing view over a shared Nested Store. Two views over
// the same Store observe the same data; views never copy. The resolution
// strategy (literal-only or dotted-preferring) is fixed at construction.
type Config struct {
	store *Store
	sep   string
	res   resolver
}

// Option configures a view at construction time.
type Option func(*Config)

// WithSeparator sets the path separator for dotted resolution.
func WithSeparator(sep string) Option {
	return func(c *Config) {
		if sep != "" {
			c.sep = sep
		}
	}
}

// MakeStructured creates a literal-key view: a dotted string is just a
// string, no path splitting occurs. base may be nil, a *Store (shared, not
// copied), another *Config (sharing its store), a map, a sequence of pairs,
// or a []any of such values folded together with Update.
func MakeStructured(base any, opts ...Option) (*Config, error) {
	return makeView(base, literalResolver{}, opts...)
}

// MakeDotted creates a dotted-preferring view: every get/set/delete/contains
// routes candidate keys through path resolution before falling back to
// literal lookup. base accepts the same inputs as MakeStructured.
func MakeDotted(base any, opts ...Option) (*Config, error) {
	c, err := makeView(base, nil, opts...)
	if err != nil {
		return nil, err
	}
	c.res = dottedResolver{sep: c.sep}
	return c, nil
}

func makeView(base any, res resolver, opts ...Option) (*Config, error) {
	c := &Config{sep: DefaultSeparator, res: res}
	for _, opt := range opts {
		opt(c)
	}
	store, err := viewStore(base)
	if err != nil {
		return nil, fmt.Errorf("cannot make a configuration: %w", err)
	}
	c.store = store
	return c, nil
}

// viewStore resolves the accepted mapping-like inputs into a single store.
// A []any input folds each element into a fresh store, later elements
// winning. Constructors and view-level merges share this coercion.
func viewStore(base any) (*Store, error) {
	if seq, ok := base.([]any); ok {
		store := NewStore()
		for _, item := range seq {
			src, err := asStore(item)
			if err != nil {
				return nil, err
			}
			Merge(store, src)
		}
		return store, nil
	}
	return asStore(base)
}

// Store returns the underlying Nested Store shared by this view.
func (c *Config) Store() *Store {
	return c.store
}

// Separator returns this view's path separator.
func (c *Config) Separator() string {
	return c.sep
}

// Get retrieves the value for a candidate key. It returns ErrKeyNotFound
// when the key does not resolve, never a silent default.
func (c *Config) Get(key string) (any, error) {
	v, ok := c.res.get(c.store, key)
	if !ok {
		return nil, keyError(key)
	}
	return v, nil
}

// GetDefault retrieves the value for a candidate key, or returns def when
// the key does not resolve. This is the one explicitly requested default
// substitution; Get never substitutes.
func (c *Config) GetDefault(key string, def any) any {
	if v, ok := c.res.get(c.store, key); ok {
		return v
	}
	return def
}

// Sub returns a view of the same kind over the child Store at key. It fails
// with ErrKeyNotFound when key does not resolve to a Store.
func (c *Config) Sub(key string) (*Config, error) {
	v, ok := c.res.get(c.store, key)
	if !ok {
		return nil, keyError(key)
	}
	child, ok := v.(*Store)
	if !ok {
		return nil, keyError(key)
	}
	return &Config{store: child, sep: c.sep, res: c.res}, nil
}

// Set stores a value under a candidate key.
func (c *Config) Set(key string, value any) {
	c.res.set(c.store, key, value)
}

// Delete removes a candidate key, returning ErrKeyNotFound when absent.
func (c *Config) Delete(key string) error {
	if !c.res.del(c.store, key) {
		return keyError(key)
	}
	return nil
}

// Has reports whether a candidate key resolves.
func (c *Config) Has(key string) bool {
	return c.res.has(c.store, key)
}

// Len returns the number of top-level keys.
func (c *Config) Len() int {
	return c.store.Len()
}

// Keys returns the top-level keys in insertion order.
func (c *Config) Keys() iter.Seq[string] {
	return c.store.Keys()
}

// Items returns the top-level entries in insertion order.
func (c *Config) Items() iter.Seq2[string, any] {
	return c.store.Items()
}

// Update folds other into the view's store with a shallow top-level merge;
// later keys overwrite.
func (c *Config) Update(other any) error {
	return c.store.Update(other)
}

// Merge deep-merges other into this configuration, other winning at leaf
// conflicts. other accepts the same inputs as the constructors.
func (c *Config) Merge(other any) error {
	src, err := viewStore(other)
	if err != nil {
		return err
	}
	Merge(c.store, src)
	return nil
}

// InverseMerge deep-merges other into this configuration without clobbering
// existing values: only keys absent here are taken from other.
func (c *Config) InverseMerge(other any) error {
	src, err := viewStore(other)
	if err != nil {
		return err
	}
	InverseMerge(c.store, src)
	return nil
}

// Equal reports recursive structural equality of the underlying stores.
func (c *Config) Equal(other *Config) bool {
	if other == nil {
		return false
	}
	return c.store.Equal(other.store)
}

// Map exports the configuration as a plain nested map.
func (c *Config) Map() map[string]any {
	return c.store.Map()
}
