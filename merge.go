// FILE: lixenwraith/nestconf/merge.go
package nestconf

// Merge deep-merges source into target in place, source winning at leaf
// conflicts: for each key of source, when both sides hold a Store the merge
// recurses, otherwise source's value overwrites target's. Stores taken from
// source are cloned before insertion, so target never ends up aliasing a
// component of source. The result does not depend on iteration order; only
// two-way key presence and type checks are used.
func Merge(target, source *Store) {
	deepMerge(target, source, false)
}

// InverseMerge deep-merges source into target in place with target winning
// at leaf conflicts: only keys absent from target are taken from source.
// Used to merge a lower-precedence base into an already-populated target
// without clobbering explicit overrides.
func InverseMerge(target, source *Store) {
	deepMerge(target, source, true)
}

func deepMerge(target, source *Store, invert bool) {
	if target == source || source == nil {
		// Merging a store into itself is a no-op.
		return
	}
	for p := source.om.Oldest(); p != nil; p = p.Next() {
		key := p.Key
		srcVal, _ := source.Get(key)

		srcStore, srcIsStore := srcVal.(*Store)
		if tgtVal, exists := target.Get(key); exists {
			tgtStore, tgtIsStore := tgtVal.(*Store)
			if srcIsStore && tgtIsStore {
				deepMerge(tgtStore, srcStore, invert)
				continue
			}
			if invert {
				// Target wins at leaf conflicts.
				continue
			}
		}
		// Key absent from target, or forward-merge leaf conflict: take the
		// source value. Set clones Store values.
		target.Set(key, srcVal)
	}
}
