// Package idset is a set of uint32 credential-revocation indices, the same
// shape as lib/stringset but keyed on the revocation index domain
// (RevocationRegistryInfo.used_ids) instead of strings.
package idset

import "sort"

// Set is a container in which every uint32 is present at most once.
type Set map[uint32]struct{}

// New builds a set with elements from a given slice.
func New(elems ...uint32) Set {
	set := NewWithCap(len(elems))
	set.Add(elems...)
	return set
}

// NewWithCap builds an empty set with a given capacity.
func NewWithCap(cap int) Set {
	return make(Set, cap)
}

// Add inserts ids into the set.
func (set Set) Add(ids ...uint32) {
	for _, id := range ids {
		set[id] = struct{}{}
	}
}

// Del removes an id from the set.
func (set Set) Del(id uint32) {
	delete(set, id)
}

// Len returns the set size.
func (set Set) Len() int {
	return len(set)
}

// Contains checks if the set includes a given id.
func (set Set) Contains(id uint32) bool {
	_, ok := set[id]
	return ok
}

// ToSlice returns the set contents sorted ascending, so that serialized
// used_ids are deterministic across writes.
func (set Set) ToSlice() []uint32 {
	out := make([]uint32, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Clone returns an independent copy of the set.
func (set Set) Clone() Set {
	out := NewWithCap(len(set))
	for id := range set {
		out[id] = struct{}{}
	}
	return out
}
