// Package schema defines the column and table definitions exchanged between
// file inference, destination dialects, and the diff engine.
package schema

import (
	"fmt"
	"strings"

	"github.com/tabload/tabload/internal/canonical"
)

// ColumnDefinition describes one column. File-side columns carry the full
// candidate type set produced by inference alongside the resolved type;
// table-side columns carry only the resolved type plus the destination's
// native type name. Definitions are immutable once handed to the diff engine.
type ColumnDefinition struct {
	Name       string             `json:"name"`
	Type       canonical.Type     `json:"type"`
	Candidates canonical.Set      `json:"candidates,omitempty"` // file side only
	Modifier   canonical.Modifier `json:"modifier"`
	NativeType string             `json:"native_type,omitempty"` // table side only
}

// UniqueConstraint is a named set of column references that must hold unique
// value tuples. Column order within a constraint is not significant for
// comparison.
type UniqueConstraint struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
}

// ColumnSet returns the constraint's columns as a lookup set under the given
// name normalizer.
func (u *UniqueConstraint) ColumnSet(normalize func(string) string) map[string]struct{} {
	out := make(map[string]struct{}, len(u.Columns))
	for _, c := range u.Columns {
		out[normalize(c)] = struct{}{}
	}
	return out
}

// TableSchema is a set of column definitions plus an optional primary key
// and additional unique constraints. Column order is not significant.
type TableSchema struct {
	Name       string             `json:"name"`
	Columns    []ColumnDefinition `json:"columns"`
	PrimaryKey *UniqueConstraint  `json:"primary_key,omitempty"`
	Uniques    []UniqueConstraint `json:"uniques,omitempty"`
}

// Column returns the column with the given name, or nil.
func (t *TableSchema) Column(name string) *ColumnDefinition {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// ColumnNames returns the names of all columns in definition order.
func (t *TableSchema) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Validate checks structural invariants: unique column names and constraint
// references that resolve to columns present in the schema.
func (t *TableSchema) Validate() error {
	seen := make(map[string]struct{}, len(t.Columns))
	for _, c := range t.Columns {
		if c.Name == "" {
			return fmt.Errorf("table %q: column with empty name", t.Name)
		}
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("table %q: duplicate column %q", t.Name, c.Name)
		}
		seen[c.Name] = struct{}{}
	}

	check := func(u *UniqueConstraint) error {
		if len(u.Columns) == 0 {
			return fmt.Errorf("table %q: constraint %q has no columns", t.Name, u.Name)
		}
		for _, ref := range u.Columns {
			if _, ok := seen[ref]; !ok {
				return fmt.Errorf("table %q: constraint %q references unknown column %q",
					t.Name, u.Name, ref)
			}
		}
		return nil
	}

	if t.PrimaryKey != nil {
		if err := check(t.PrimaryKey); err != nil {
			return err
		}
	}
	for i := range t.Uniques {
		if err := check(&t.Uniques[i]); err != nil {
			return err
		}
	}
	return nil
}

func (t *TableSchema) String() string {
	parts := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		parts[i] = c.Name + " " + c.Type.String()
	}
	return t.Name + "(" + strings.Join(parts, ", ") + ")"
}
