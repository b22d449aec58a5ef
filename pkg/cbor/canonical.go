package cbor

import "sort"

// KeyLess reports whether a's encoded form sorts before b's under CBOR
// canonical map-key order: shorter encodings first, ties broken
// lexicographically by encoded bytes.
func KeyLess(a, b Item) bool {
	ea, eb := Encode(a), Encode(b)
	if len(ea) != len(eb) {
		return len(ea) < len(eb)
	}
	for i := range ea {
		if ea[i] != eb[i] {
			return ea[i] < eb[i]
		}
	}
	return false
}

// Canonicalize returns a copy of it with every Map's entries sorted
// into canonical key order. If recurse is true, nested maps reachable
// through array elements, map values, and tag payloads are canonicalized
// as well; otherwise only it's own top-level entries (if it is a Map)
// are sorted. Non-Map items are returned unchanged (recurse still
// applies to their descendants when recurse is true).
func (it Item) Canonicalize(recurse bool) Item {
	switch it.kind {
	case KindMap:
		entries := make([]MapEntry, len(it.m))
		copy(entries, it.m)
		if recurse {
			for i := range entries {
				entries[i].Key = entries[i].Key.Canonicalize(true)
				entries[i].Value = entries[i].Value.Canonicalize(true)
			}
		}
		sort.SliceStable(entries, func(i, j int) bool {
			return KeyLess(entries[i].Key, entries[j].Key)
		})
		return Item{kind: KindMap, m: entries, can: true}
	case KindArray:
		if !recurse {
			return it
		}
		children := make([]Item, len(it.arr))
		for i, c := range it.arr {
			children[i] = c.Canonicalize(true)
		}
		return Item{kind: KindArray, arr: children}
	case KindTag:
		if !recurse {
			return it
		}
		inner := it.tagVal.Canonicalize(true)
		return NewTag(it.tagNum, inner)
	default:
		return it
	}
}

// findEntry performs a linear scan for key among a canonical map's
// entries. Canonical order permits a future binary-search optimization
// without changing this signature; a linear scan is used now since map
// sizes in selective-disclosure credentials are small.
func findEntry(entries []MapEntry, key Item) (Item, bool) {
	for _, e := range entries {
		if e.Key.Equal(key) {
			return e.Value, true
		}
	}
	return Item{}, false
}
