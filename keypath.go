// FILE: lixenwraith/nestconf/keypath.go
package nestconf

import "strings"

// resolver is the resolution strategy shared by the view variants. A literal
// resolver treats every candidate key as a flat string; a dotted resolver
// routes candidates through path resolution first. The strategy is selected
// at view construction.
type resolver interface {
	get(s *Store, key string) (any, bool)
	set(s *Store, key string, value any)
	del(s *Store, key string) bool
	has(s *Store, key string) bool
}

// literalResolver matches candidates against top-level keys only; a dotted
// string is just a string.
type literalResolver struct{}

func (literalResolver) get(s *Store, key string) (any, bool) { return s.Get(key) }
func (literalResolver) set(s *Store, key string, value any)  { s.Set(key, value) }
func (literalResolver) has(s *Store, key string) bool        { return s.Has(key) }

func (literalResolver) del(s *Store, key string) bool {
	return s.Delete(key) == nil
}

// dottedResolver resolves candidates as hierarchical paths, with literal
// top-level keys always winning at the point of a direct match. Resolution
// is store-dependent: the same string can resolve differently depending on
// which literal keys currently exist.
type dottedResolver struct {
	sep string
}

// splitPath splits a candidate into path segments. An empty candidate, a
// candidate equal to the separator alone, and consecutive separators all
// yield no valid path: empty segments are "not found", not wildcards.
func (r dottedResolver) splitPath(key string) ([]string, bool) {
	if key == "" {
		return nil, false
	}
	parts := strings.Split(key, r.sep)
	for _, p := range parts {
		if p == "" {
			return nil, false
		}
	}
	return parts, true
}

func (r dottedResolver) get(s *Store, key string) (any, bool) {
	// Literal keys win over hierarchical interpretation.
	if v, ok := s.Get(key); ok {
		return v, true
	}
	parts, ok := r.splitPath(key)
	if !ok || len(parts) < 2 {
		return nil, false
	}
	cur := s
	for _, part := range parts[:len(parts)-1] {
		v, ok := cur.Get(part)
		if !ok {
			return nil, false
		}
		child, ok := v.(*Store)
		if !ok {
			// Intermediate segment resolved to a scalar.
			return nil, false
		}
		cur = child
	}
	return cur.Get(parts[len(parts)-1])
}

// set writes through a dotted path, auto-creating intermediate Stores when
// no literal collision exists. A scalar standing where an intermediate Store
// is needed is replaced by a fresh Store.
func (r dottedResolver) set(s *Store, key string, value any) {
	if s.Has(key) {
		s.Set(key, value)
		return
	}
	parts, ok := r.splitPath(key)
	if !ok || len(parts) < 2 {
		s.Set(key, value)
		return
	}
	cur := s
	for _, part := range parts[:len(parts)-1] {
		v, ok := cur.Get(part)
		if ok {
			if child, isStore := v.(*Store); isStore {
				cur = child
				continue
			}
		}
		child := NewStore()
		cur.om.Set(part, child)
		cur = child
	}
	cur.Set(parts[len(parts)-1], value)
}

func (r dottedResolver) del(s *Store, key string) bool {
	if s.Has(key) {
		return s.Delete(key) == nil
	}
	parts, ok := r.splitPath(key)
	if !ok || len(parts) < 2 {
		return false
	}
	cur := s
	for _, part := range parts[:len(parts)-1] {
		v, ok := cur.Get(part)
		if !ok {
			return false
		}
		child, ok := v.(*Store)
		if !ok {
			return false
		}
		cur = child
	}
	return cur.Delete(parts[len(parts)-1]) == nil
}

func (r dottedResolver) has(s *Store, key string) bool {
	if s.Has(key) {
		return true
	}
	parts, ok := r.splitPath(key)
	if !ok || len(parts) < 2 {
		return false
	}
	cur := s
	for _, part := range parts[:len(parts)-1] {
		v, ok := cur.Get(part)
		if !ok {
			return false
		}
		child, ok := v.(*Store)
		if !ok {
			return false
		}
		cur = child
	}
	return cur.Has(parts[len(parts)-1])
}
