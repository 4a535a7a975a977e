package profile

import (
	"fmt"
	"sort"
)

// Descriptor is the ordered set of literal profiles for one language.
// Profiles are sorted by ascending priority at construction; ties keep
// declaration order. Lookup by node kind returns every candidate in that
// order, so a higher-priority profile with a predicate (factory wrapper
// match) can decline a node and let a lower-priority profile take it.
type Descriptor struct {
	profiles []Profile
	byKind   map[string][]Profile
}

// NewDescriptor builds a descriptor from the given profiles. Two profiles
// sharing both a node kind and a priority are rejected unless one of them
// carries a wrapper predicate that can decline the node.
func NewDescriptor(profiles ...Profile) (*Descriptor, error) {
	sorted := append([]Profile(nil), profiles...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].priority < sorted[j].priority
	})

	byKind := make(map[string][]Profile)
	for _, p := range sorted {
		for _, kind := range p.kinds {
			byKind[kind] = append(byKind[kind], p)
		}
	}
	for kind, candidates := range byKind {
		for i := 1; i < len(candidates); i++ {
			prev, cur := candidates[i-1], candidates[i]
			if prev.priority == cur.priority && prev.wrapper == nil {
				return nil, fmt.Errorf("descriptor: node kind %q: profiles %s and %s share priority %d and the first cannot decline",
					kind, prev.shape, cur.shape, cur.priority)
			}
		}
	}

	return &Descriptor{profiles: sorted, byKind: byKind}, nil
}

// MustDescriptor is NewDescriptor that panics on error. For package-level
// language definitions where profiles are compile-time constants.
func MustDescriptor(profiles ...Profile) *Descriptor {
	d, err := NewDescriptor(profiles...)
	if err != nil {
		panic(err)
	}
	return d
}

// Candidates returns the profiles matching the node kind, highest priority
// (lowest number) first. The returned slice is shared; callers must not
// mutate it.
func (d *Descriptor) Candidates(kind string) []Profile {
	return d.byKind[kind]
}

// Profiles returns every profile in priority order.
func (d *Descriptor) Profiles() []Profile {
	return d.profiles
}

// Kinds returns every node kind any profile matches, in no particular
// order.
func (d *Descriptor) Kinds() []string {
	kinds := make([]string, 0, len(d.byKind))
	for kind := range d.byKind {
		kinds = append(kinds, kind)
	}
	return kinds
}
