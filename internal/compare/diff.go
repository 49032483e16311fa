package compare

import (
	"strings"

	"github.com/tabload/tabload/internal/schema"
)

// MatchPolicy controls how column and constraint names are matched between
// the file schema and the destination schema.
type MatchPolicy int

const (
	MatchCaseSensitive MatchPolicy = iota
	MatchCaseInsensitive
)

func (p MatchPolicy) normalize(name string) string {
	if p == MatchCaseInsensitive {
		return strings.ToLower(name)
	}
	return name
}

// Match reports whether two names are the same under the policy.
func (p MatchPolicy) Match(a, b string) bool {
	return p.normalize(a) == p.normalize(b)
}

// ColumnDiff is the per-column detail in a schema diff.
type ColumnDiff struct {
	// Name is the file column's name.
	Name string

	// Unmatched is true when no destination column has this name under the
	// matching policy.
	Unmatched bool

	// NoComparator is true when a destination column exists but no
	// registered comparator handles the pairing. Treated as non-loadable.
	NoComparator bool

	Result CompareColumnResult
}

// OK reports whether the pairing is both matched and loadable.
func (d *ColumnDiff) OK() bool {
	return !d.Unmatched && !d.NoComparator && d.Result.TypeMatched && d.Result.CanLoad
}

// Loadable reports whether the file column's data can be stored, identity
// aside.
func (d *ColumnDiff) Loadable() bool {
	return !d.Unmatched && !d.NoComparator && d.Result.CanLoad
}

// SchemaDiffResult aggregates the per-column verdicts for one load attempt.
type SchemaDiffResult struct {
	Columns          []ColumnDiff
	ConstraintsEqual bool

	// NoDifference is true only when every file column is matched, loadable
	// and type-matched, and the unique constraints are equal. Extra
	// destination columns do not break it; they simply receive no data.
	NoDifference bool
}

// CanLoadAll reports whether every file column found a loadable destination.
func (r *SchemaDiffResult) CanLoadAll() bool {
	for i := range r.Columns {
		if !r.Columns[i].Loadable() {
			return false
		}
	}
	return true
}

// DiffSchemas compares a file-inferred schema against an existing destination
// schema. It never fails: missing columns and missing comparators are
// reported in the result, and the caller decides what is fatal.
func DiffSchemas(file, table *schema.TableSchema, policy MatchPolicy, reg *Registry) SchemaDiffResult {
	index := make(map[string]*schema.ColumnDefinition, len(table.Columns))
	for i := range table.Columns {
		index[policy.normalize(table.Columns[i].Name)] = &table.Columns[i]
	}

	res := SchemaDiffResult{Columns: make([]ColumnDiff, 0, len(file.Columns))}
	allOK := true

	for _, fc := range file.Columns {
		diff := ColumnDiff{Name: fc.Name}
		tc, ok := index[policy.normalize(fc.Name)]
		if !ok {
			diff.Unmatched = true
		} else if cmp, found := reg.Find(fc, *tc); found {
			diff.Result = cmp.Compare(fc, *tc)
		} else {
			diff.NoComparator = true
		}
		if !diff.OK() {
			allOK = false
		}
		res.Columns = append(res.Columns, diff)
	}

	res.ConstraintsEqual = constraintsEqual(file, table, policy)
	res.NoDifference = allOK && res.ConstraintsEqual
	return res
}

// constraintsEqual compares the primary key and the named unique constraints
// of both schemas. Constraints match on normalized name and column set;
// column order within a constraint does not matter, but the name-to-columns
// mapping must be exact on both sides.
func constraintsEqual(file, table *schema.TableSchema, policy MatchPolicy) bool {
	if !constraintMatches(file.PrimaryKey, table.PrimaryKey, policy) {
		return false
	}
	if len(file.Uniques) != len(table.Uniques) {
		return false
	}

	byName := make(map[string]*schema.UniqueConstraint, len(table.Uniques))
	for i := range table.Uniques {
		byName[policy.normalize(table.Uniques[i].Name)] = &table.Uniques[i]
	}
	for i := range file.Uniques {
		other, ok := byName[policy.normalize(file.Uniques[i].Name)]
		if !ok || !constraintMatches(&file.Uniques[i], other, policy) {
			return false
		}
	}
	return true
}

func constraintMatches(a, b *schema.UniqueConstraint, policy MatchPolicy) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	as := a.ColumnSet(policy.normalize)
	bs := b.ColumnSet(policy.normalize)
	if len(as) != len(bs) {
		return false
	}
	for col := range as {
		if _, ok := bs[col]; !ok {
			return false
		}
	}
	return true
}
