// FILE: lixenwraith/nestconf/store.go
package nestconf

import (
	"encoding/json"
	"fmt"
	"iter"
	"math"
	"reflect"
	"sort"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Store is the nested mapping primitive: an insertion-ordered mapping from
// string keys to scalar values, sequences, or child Stores. Every non-leaf
// value is itself a *Store; foreign mapping types (map[string]any,
// map[any]any) are recast into Stores one level at a time, at the point of
// insertion or retrieval, never through an eager deep walk.
//
// A Store exclusively owns its child Stores: inserting or merging a *Store
// value stores a deep clone, which also makes cycles impossible by
// construction.
//
// Store is not safe for concurrent mutation; callers needing concurrent
// access must serialize writes externally.
type Store struct {
	om *orderedmap.OrderedMap[string, any]
}

// Pair is a single key/value entry, used by the sequence-of-pairs
// constructors.
type Pair struct {
	Key   string
	Value any
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{om: orderedmap.New[string, any]()}
}

// StoreFromMap creates a Store from a plain nested map. Go map iteration
// order is unspecified, so top-level keys are inserted in sorted order to
// keep repeated constructions deterministic. Nested maps are recast lazily.
func StoreFromMap(m map[string]any) *Store {
	s := NewStore()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		s.Set(k, m[k])
	}
	return s
}

// StoreFromPairs creates a Store from an ordered sequence of key/value
// pairs, preserving the given order.
func StoreFromPairs(pairs []Pair) *Store {
	s := NewStore()
	for _, p := range pairs {
		s.Set(p.Key, p.Value)
	}
	return s
}

// Get retrieves the value stored under a literal key. The second return
// value reports whether the key exists. Mapping-shaped values are recast
// into *Store at this single level before being returned.
func (s *Store) Get(key string) (any, bool) {
	raw, ok := s.om.Get(key)
	if !ok {
		return nil, false
	}
	return s.recastAt(key, raw), true
}

// Set stores a value under a literal key. A *Store value is deep-cloned so
// the receiver keeps exclusive ownership; mapping values are recast into a
// Store at this level only, with their children left as-is until accessed.
func (s *Store) Set(key string, value any) {
	s.om.Set(key, normalizeValue(value))
}

// Delete removes a literal key. It returns ErrKeyNotFound when absent.
func (s *Store) Delete(key string) error {
	if _, ok := s.om.Delete(key); !ok {
		return keyError(key)
	}
	return nil
}

// Has reports whether a literal key exists at the top level.
func (s *Store) Has(key string) bool {
	_, ok := s.om.Get(key)
	return ok
}

// Len returns the number of top-level keys.
func (s *Store) Len() int {
	return s.om.Len()
}

// Keys returns a restartable sequence of top-level keys in insertion order.
func (s *Store) Keys() iter.Seq[string] {
	return func(yield func(string) bool) {
		for p := s.om.Oldest(); p != nil; p = p.Next() {
			if !yield(p.Key) {
				return
			}
		}
	}
}

// Values returns a restartable sequence of top-level values in insertion
// order, with mapping values recast as for Get.
func (s *Store) Values() iter.Seq[any] {
	return func(yield func(any) bool) {
		for p := s.om.Oldest(); p != nil; p = p.Next() {
			if !yield(s.recastAt(p.Key, p.Value)) {
				return
			}
		}
	}
}

// Items returns a restartable sequence of key/value entries in insertion
// order, with mapping values recast as for Get.
func (s *Store) Items() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for p := s.om.Oldest(); p != nil; p = p.Next() {
			if !yield(p.Key, s.recastAt(p.Key, p.Value)) {
				return
			}
		}
	}
}

// Update performs a shallow top-level merge: every entry of other is set on
// the receiver, later keys overwriting earlier ones. other may be a *Store,
// a map, or a sequence of pairs.
func (s *Store) Update(other any) error {
	src, err := asStore(other)
	if err != nil {
		return err
	}
	for p := src.om.Oldest(); p != nil; p = p.Next() {
		s.Set(p.Key, p.Value)
	}
	return nil
}

// Clone returns a deep copy sharing no child Stores, slices or maps with
// the receiver.
func (s *Store) Clone() *Store {
	out := NewStore()
	for p := s.om.Oldest(); p != nil; p = p.Next() {
		out.om.Set(p.Key, copyValue(p.Value))
	}
	return out
}

// Equal reports recursive structural equality: same keys at every level with
// equal values, independent of insertion order.
func (s *Store) Equal(other *Store) bool {
	if other == nil {
		return false
	}
	if s.om.Len() != other.om.Len() {
		return false
	}
	for p := s.om.Oldest(); p != nil; p = p.Next() {
		ov, ok := other.om.Get(p.Key)
		if !ok || !valueEqual(p.Value, ov) {
			return false
		}
	}
	return true
}

// Map exports the Store as a plain nested map[string]any, converting child
// Stores recursively. The export loses insertion order; it exists for
// interoperation with decoders and encoders that expect plain maps.
func (s *Store) Map() map[string]any {
	out := make(map[string]any, s.om.Len())
	for p := s.om.Oldest(); p != nil; p = p.Next() {
		out[p.Key] = exportValue(p.Value)
	}
	return out
}

func (s *Store) String() string {
	return fmt.Sprintf("%v", s.Map())
}

// recastAt converts a mapping-shaped raw value into a *Store (or recasts
// mapping elements of a slice), writing the converted value back so the
// conversion happens at most once per level.
func (s *Store) recastAt(key string, raw any) any {
	switch v := raw.(type) {
	case *Store:
		return v
	case map[string]any, map[any]any:
		st := castStore(v)
		s.om.Set(key, st)
		return st
	case []any:
		changed := false
		for i, el := range v {
			if isMapping(el) {
				v[i] = castStore(el)
				changed = true
			}
		}
		if changed {
			s.om.Set(key, v)
		}
		return v
	default:
		return raw
	}
}

// normalizeValue prepares a value for insertion: *Store values are cloned
// for exclusive ownership, mapping values become a Store at this level only.
func normalizeValue(value any) any {
	switch v := value.(type) {
	case *Store:
		return v.Clone()
	case map[string]any, map[any]any:
		return castStore(v)
	default:
		return value
	}
}

// castStore converts one mapping level into a Store. Children stay in their
// raw form and are recast on their own first access, except child *Store
// values which are cloned immediately to preserve exclusive ownership.
func castStore(m any) *Store {
	s := NewStore()
	switch mm := m.(type) {
	case *Store:
		return mm.Clone()
	case map[string]any:
		keys := make([]string, 0, len(mm))
		for k := range mm {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			s.om.Set(k, rawChild(mm[k]))
		}
	case map[any]any:
		keys := make([]string, 0, len(mm))
		lookup := make(map[string]any, len(mm))
		for k, v := range mm {
			ks := fmt.Sprintf("%v", k)
			keys = append(keys, ks)
			lookup[ks] = v
		}
		sort.Strings(keys)
		for _, k := range keys {
			s.om.Set(k, rawChild(lookup[k]))
		}
	}
	return s
}

// rawChild keeps child values unconverted apart from cloning nested *Store
// values, which must not be shared across Store instances.
func rawChild(v any) any {
	if st, ok := v.(*Store); ok {
		return st.Clone()
	}
	return v
}

// copyValue deep-copies a stored value.
func copyValue(v any) any {
	switch val := v.(type) {
	case *Store:
		return val.Clone()
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, vv := range val {
			out[k] = copyValue(vv)
		}
		return out
	case map[any]any:
		out := make(map[any]any, len(val))
		for k, vv := range val {
			out[k] = copyValue(vv)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, vv := range val {
			out[i] = copyValue(vv)
		}
		return out
	default:
		return v
	}
}

// exportValue converts a stored value into plain Go containers.
func exportValue(v any) any {
	switch val := v.(type) {
	case *Store:
		return val.Map()
	case map[string]any:
		return castStore(val).Map()
	case map[any]any:
		return castStore(val).Map()
	case []any:
		out := make([]any, len(val))
		for i, vv := range val {
			out[i] = exportValue(vv)
		}
		return out
	default:
		return v
	}
}

// isMapping reports whether a value is shaped like a mapping, by type rather
// than by deep inspection.
func isMapping(v any) bool {
	switch v.(type) {
	case *Store, map[string]any, map[any]any:
		return true
	default:
		return false
	}
}

// asStore coerces the accepted mapping-like inputs into a *Store without
// copying when the input already is one.
func asStore(v any) (*Store, error) {
	switch m := v.(type) {
	case nil:
		return NewStore(), nil
	case *Store:
		return m, nil
	case *Config:
		return m.store, nil
	case map[string]any:
		return StoreFromMap(m), nil
	case map[any]any:
		return castStore(m), nil
	case []Pair:
		return StoreFromPairs(m), nil
	default:
		return nil, fmt.Errorf("cannot build a store from %T", v)
	}
}

// valueEqual compares two stored values structurally. Numeric scalars are
// compared after widening so int and int64 representations from different
// decoders compare equal.
func valueEqual(a, b any) bool {
	if isMapping(a) || isMapping(b) {
		as, aok := a.(*Store)
		if !aok {
			if !isMapping(a) {
				return false
			}
			as = castStore(a)
		}
		bs, bok := b.(*Store)
		if !bok {
			if !isMapping(b) {
				return false
			}
			bs = castStore(b)
		}
		return as.Equal(bs)
	}
	if al, ok := a.([]any); ok {
		bl, ok := b.([]any)
		if !ok || len(al) != len(bl) {
			return false
		}
		for i := range al {
			if !valueEqual(al[i], bl[i]) {
				return false
			}
		}
		return true
	}
	if na, oka := normalizeScalar(a); oka {
		if nb, okb := normalizeScalar(b); okb {
			return na == nb
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

// normalizeScalar widens numeric scalars to a canonical representation.
func normalizeScalar(v any) (any, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		if uint64(n) > math.MaxInt64 {
			return uint64(n), true
		}
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		// Values above the int64 range keep their unsigned form rather
		// than wrap negative.
		if n > math.MaxInt64 {
			return n, true
		}
		return int64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		if f, err := n.Float64(); err == nil {
			return f, true
		}
		return n.String(), true
	default:
		return nil, false
	}
}
