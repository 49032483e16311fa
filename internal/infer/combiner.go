package infer

import "github.com/tabload/tabload/internal/canonical"

// ColumnState is the running per-column summary built while scanning sampled
// rows. It is owned by a single scanning loop; parallel shards each use their
// own state and combine with Merge afterwards.
type ColumnState struct {
	name       string
	opts       Options
	candidates canonical.Set
	modifier   canonical.Modifier
	observed   int // non-null observations
}

// NewColumnState creates an empty summary for the named column.
func NewColumnState(name string, opts Options) *ColumnState {
	return &ColumnState{name: name, opts: opts}
}

// Name returns the column name.
func (s *ColumnState) Name() string { return s.name }

// Candidates returns the current candidate type set. Empty means no non-null
// value has been observed yet.
func (s *ColumnState) Candidates() canonical.Set { return s.candidates }

// Modifier returns the accumulated per-column metrics.
func (s *ColumnState) Modifier() canonical.Modifier { return s.modifier }

// Observations returns the count of non-null cells observed.
func (s *ColumnState) Observations() int { return s.observed }

// Observe folds one raw cell into the summary. Null cells contribute no type
// constraint, only nullability. This never fails: an empty candidate
// intersection falls open to OpaqueTextType instead of erroring, trading
// precision for availability.
func (s *ColumnState) Observe(raw string) {
	if s.opts.IsNull(raw) {
		s.modifier.Nullable = true
		return
	}

	set, mod := probeValue(raw, s.opts)
	s.modifier.Grow(mod)

	if s.observed == 0 {
		s.candidates = set
	} else {
		merged := s.candidates.Intersect(set)
		if merged.Len() == 0 {
			merged = canonical.NewSet(OpaqueTextType)
		}
		s.candidates = merged
	}
	s.observed++
}

// Merge combines another shard's summary into this one using the same
// intersect-or-adopt rule as Observe. Because intersection is commutative
// and associative, shards may merge in any order.
func (s *ColumnState) Merge(other *ColumnState) {
	if other == nil {
		return
	}
	s.modifier.Grow(other.modifier)
	if other.observed == 0 {
		return
	}
	if s.observed == 0 {
		s.candidates = other.candidates.Clone()
	} else {
		merged := s.candidates.Intersect(other.candidates)
		if merged.Len() == 0 {
			merged = canonical.NewSet(OpaqueTextType)
		}
		s.candidates = merged
	}
	s.observed += other.observed
}
