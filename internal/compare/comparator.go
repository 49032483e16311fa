// Package compare decides whether a file-inferred schema can be loaded into
// an existing destination table. A registry of per-type-pair comparators is
// queried per column by the diff engine; the engine aggregates the verdicts.
package compare

import (
	"github.com/tabload/tabload/internal/canonical"
	"github.com/tabload/tabload/internal/schema"
)

// CompareColumnResult is the verdict for one column pairing. The fields are
// independently meaningful: a type mismatch can still be loadable.
type CompareColumnResult struct {
	// TypeMatched is true when the destination type is identical to the
	// source's resolved representation.
	TypeMatched bool

	// CanLoad is true when data of the source type can be stored in the
	// destination type without structural error, possibly with lossy
	// narrowing.
	CanLoad bool
}

// Comparator decides compatibility for one (source types × destination
// types) pairing. Implementations are stateless.
type Comparator interface {
	// SourceTypes is the set of resolved source types this comparator
	// handles. An empty set means any source type (family-level fallback).
	SourceTypes() canonical.Set

	// DestinationTypes is the set of destination types this comparator is
	// registered under.
	DestinationTypes() canonical.Set

	// MatchesCandidates reports whether the comparator may also be selected
	// when the source's resolved type is outside SourceTypes but its full
	// candidate set intersects it. Used when exact resolution is ambiguous.
	MatchesCandidates() bool

	// Compare produces the verdict for a file column against a table column.
	Compare(file, table schema.ColumnDefinition) CompareColumnResult
}

// Registry holds comparators keyed by destination type. It is plain data
// built once by the composition root; there is no global registration.
type Registry struct {
	byDest map[canonical.Type][]Comparator
}

// NewRegistry builds a registry from an ordered comparator list. Order is
// specificity: earlier comparators win when several could handle a pairing,
// so exact type-to-type comparators must be registered before family-level
// fallbacks.
func NewRegistry(comparators ...Comparator) *Registry {
	r := &Registry{byDest: make(map[canonical.Type][]Comparator)}
	for _, c := range comparators {
		for dest := range c.DestinationTypes() {
			r.byDest[dest] = append(r.byDest[dest], c)
		}
	}
	return r
}

// DefaultRegistry returns the stock comparator set covering every canonical
// destination type.
func DefaultRegistry() *Registry {
	return NewRegistry(
		&numericComparator{},
		&textComparator{},
		&timestampComparator{},
		&dateComparator{},
		&timeComparator{},
		&booleanComparator{},
		&binaryComparator{},
	)
}

// Find selects the comparator for a file column against a table column,
// preferring an exact resolved-type match and falling back to comparators
// that accept candidate-set intersection. Returns false when no registered
// comparator applies; callers treat that as non-loadable, not as a failure.
func (r *Registry) Find(file, table schema.ColumnDefinition) (Comparator, bool) {
	comparators := r.byDest[table.Type]

	for _, c := range comparators {
		src := c.SourceTypes()
		if src.Len() == 0 || src.Contains(file.Type) {
			return c, true
		}
	}
	for _, c := range comparators {
		if c.MatchesCandidates() && c.SourceTypes().Intersects(file.Candidates) {
			return c, true
		}
	}
	return nil, false
}
