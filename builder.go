// FILE: lixenwraith/nestconf/builder.go
package nestconf

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// ValidatorFunc defines the signature for a function that can validate a
// built configuration. It receives the fully loaded *Config and should
// return an error if validation fails.
type ValidatorFunc func(c *Config) error

// Builder provides a fluent interface for building layered configurations.
type Builder struct {
	sep        string
	defaults   any
	files      []string
	discovery  *FileDiscoveryOptions
	codec      *Codec
	validators []ValidatorFunc
	err        error
}

// NewBuilder creates a new configuration builder.
func NewBuilder() *Builder {
	return &Builder{
		sep:        DefaultSeparator,
		validators: make([]ValidatorFunc, 0),
	}
}

// WithSeparator sets the path separator of the built view.
func (b *Builder) WithSeparator(sep string) *Builder {
	if sep == "" {
		b.err = errors.New("separator cannot be empty")
		return b
	}
	b.sep = sep
	return b
}

// WithDefaults sets the lowest-precedence values: a map, *Store, sequence of
// pairs, or a struct converted through `config` tags.
func (b *Builder) WithDefaults(defaults any) *Builder {
	b.defaults = defaults
	return b
}

// WithFiles appends configuration files, in ascending precedence order.
func (b *Builder) WithFiles(paths ...string) *Builder {
	b.files = append(b.files, paths...)
	return b
}

// WithDiscovery enables the candidate-file search; discovered files load
// before those given to WithFiles.
func (b *Builder) WithDiscovery(opts FileDiscoveryOptions) *Builder {
	b.discovery = &opts
	return b
}

// WithCodec sets the codec used for every file, carrying the side-document
// hooks.
func (b *Builder) WithCodec(codec *Codec) *Builder {
	b.codec = codec
	return b
}

// WithValidator adds a validation function that runs at the end of the build
// process. Multiple validators can be added and are executed in the order
// they are added.
func (b *Builder) WithValidator(fn ValidatorFunc) *Builder {
	if fn != nil {
		b.validators = append(b.validators, fn)
	}
	return b
}

// WithRequired adds a validator requiring every given key to resolve.
func (b *Builder) WithRequired(keys ...string) *Builder {
	return b.WithValidator(func(c *Config) error {
		var missing []string
		for _, key := range keys {
			if !c.Has(key) {
				missing = append(missing, key)
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
		}
		return nil
	})
}

// Build creates the configuration: defaults first, then every discovered and
// explicit file merged in ascending precedence order, then validation.
// Missing candidate files are reported through a non-fatal joined error,
// like the loader's.
func (b *Builder) Build() (*Config, error) {
	if b.err != nil {
		return nil, b.err
	}

	cfg, err := MakeDotted(nil, WithSeparator(b.sep))
	if err != nil {
		return nil, err
	}

	if b.defaults != nil {
		base, err := defaultsStore(b.defaults)
		if err != nil {
			return nil, fmt.Errorf("failed to register defaults: %w", err)
		}
		Merge(cfg.Store(), base)
	}

	var paths []string
	if b.discovery != nil {
		paths = append(paths, b.discovery.CandidatePaths()...)
	}
	paths = append(paths, b.files...)

	var loadErr error
	if len(paths) > 0 {
		loader := &Loader{Codec: b.codec}
		store, err := loader.LoadFiles(paths...)
		if store == nil {
			return nil, err
		}
		loadErr = err
		Merge(cfg.Store(), store)
	}

	for _, validator := range b.validators {
		if err := validator(cfg); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}
	}

	// Non-fatal load errors (missing candidates, side documents) or nil
	return cfg, loadErr
}

// MustBuild is like Build but panics on fatal error. Missing candidate
// files are not fatal; the application can proceed with defaults.
func (b *Builder) MustBuild() *Config {
	cfg, err := b.Build()
	if err != nil && cfg == nil {
		panic(fmt.Sprintf("config build failed: %v", err))
	}
	return cfg
}

// defaultsStore coerces the accepted defaults inputs into a Store, treating
// structs through the scan tag.
func defaultsStore(defaults any) (*Store, error) {
	switch defaults.(type) {
	case *Store, *Config, map[string]any, map[any]any, []Pair:
		return asStore(defaults)
	}

	v := reflect.ValueOf(defaults)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, errors.New("defaults struct pointer is nil")
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("defaults must be a mapping, pairs, or struct, got %T", defaults)
	}

	m, err := structToMap(defaults)
	if err != nil {
		return nil, err
	}
	return StoreFromMap(m), nil
}
