package canonical

import (
	"sort"
	"strings"
)

// Set is an unordered collection of canonical types. The zero value (nil)
// is an empty set meaning "no constraint observed yet"; callers that need
// to distinguish that from "no type fits" track observation counts
// separately.
type Set map[Type]struct{}

// NewSet builds a set from the given types.
func NewSet(types ...Type) Set {
	s := make(Set, len(types))
	for _, t := range types {
		s[t] = struct{}{}
	}
	return s
}

// Add inserts a type into the set.
func (s Set) Add(t Type) {
	s[t] = struct{}{}
}

// Contains reports whether t is in the set.
func (s Set) Contains(t Type) bool {
	_, ok := s[t]
	return ok
}

// ContainsAny reports whether any of the given types is in the set.
func (s Set) ContainsAny(types ...Type) bool {
	for _, t := range types {
		if s.Contains(t) {
			return true
		}
	}
	return false
}

// Len returns the number of types in the set.
func (s Set) Len() int {
	return len(s)
}

// Clone returns an independent copy of the set.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for t := range s {
		out[t] = struct{}{}
	}
	return out
}

// Intersect returns the types present in both sets. Intersection is
// commutative and associative, so partial results from parallel column
// shards can be merged in any order.
func (s Set) Intersect(other Set) Set {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	out := make(Set)
	for t := range small {
		if large.Contains(t) {
			out[t] = struct{}{}
		}
	}
	return out
}

// Intersects reports whether the two sets share at least one type.
func (s Set) Intersects(other Set) bool {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	for t := range small {
		if large.Contains(t) {
			return true
		}
	}
	return false
}

// Equal reports whether both sets contain exactly the same types.
func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for t := range s {
		if !other.Contains(t) {
			return false
		}
	}
	return true
}

// Slice returns the set's members in declaration order.
func (s Set) Slice() []Type {
	out := make([]Type, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s Set) String() string {
	parts := make([]string, 0, len(s))
	for _, t := range s.Slice() {
		parts = append(parts, t.String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
