// Package dialect provides pluggable destination database dialects. Each
// database (PostgreSQL, SQL Server, MySQL, SQLite) implements the Dialect
// interface: introspect an existing table into a canonical schema, create a
// table from an inferred schema, and batch-insert rows.
package dialect

import (
	"context"
	"fmt"
	"strings"

	"github.com/tabload/tabload/internal/schema"
)

// Dialect is one destination database binding. Implementations are created
// unconnected; Connect must run before any other call.
type Dialect interface {
	// Name returns the dialect name (e.g. "postgres").
	Name() string

	// Connect opens the connection pool and pings the server.
	Connect(ctx context.Context) error

	// Close releases the pool.
	Close() error

	// TableExists reports whether the destination table is present.
	TableExists(ctx context.Context, table string) (bool, error)

	// IntrospectTable reads the live table definition, mapping native column
	// types onto canonical types and collecting primary-key and unique
	// constraints.
	IntrospectTable(ctx context.Context, table string) (*schema.TableSchema, error)

	// CreateTable creates the table from an inferred schema.
	CreateTable(ctx context.Context, ts *schema.TableSchema) error

	// ClearTable removes all rows.
	ClearTable(ctx context.Context, table string) error

	// InsertBatch writes one batch of converted rows.
	InsertBatch(ctx context.Context, table string, cols []schema.ColumnDefinition, rows [][]any) error
}

// TypeNamer renders canonical column types as destination-native DDL types
// and quotes identifiers. Each dialect provides one; the shared CREATE TABLE
// builder uses it.
type TypeNamer interface {
	TypeName(col schema.ColumnDefinition) string
	QuoteIdent(name string) string
}

// BuildCreateTable renders a CREATE TABLE statement for the given schema.
// schemaName may be empty (SQLite, or default-schema destinations).
func BuildCreateTable(n TypeNamer, schemaName string, ts *schema.TableSchema) string {
	var sb strings.Builder
	sb.WriteString("CREATE TABLE ")
	sb.WriteString(qualify(n, schemaName, ts.Name))
	sb.WriteString(" (\n")

	for i, col := range ts.Columns {
		if i > 0 {
			sb.WriteString(",\n")
		}
		sb.WriteString("    ")
		sb.WriteString(n.QuoteIdent(col.Name))
		sb.WriteString(" ")
		sb.WriteString(n.TypeName(col))
		if !col.Modifier.Nullable {
			sb.WriteString(" NOT NULL")
		}
	}

	if ts.PrimaryKey != nil {
		sb.WriteString(",\n    PRIMARY KEY (")
		sb.WriteString(quoteAll(n, ts.PrimaryKey.Columns))
		sb.WriteString(")")
	}
	for _, u := range ts.Uniques {
		sb.WriteString(",\n    CONSTRAINT ")
		sb.WriteString(n.QuoteIdent(u.Name))
		sb.WriteString(" UNIQUE (")
		sb.WriteString(quoteAll(n, u.Columns))
		sb.WriteString(")")
	}

	sb.WriteString("\n)")
	return sb.String()
}

func qualify(n TypeNamer, schemaName, table string) string {
	if schemaName == "" {
		return n.QuoteIdent(table)
	}
	return n.QuoteIdent(schemaName) + "." + n.QuoteIdent(table)
}

func quoteAll(n TypeNamer, names []string) string {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = n.QuoteIdent(name)
	}
	return strings.Join(quoted, ", ")
}

// ValidateIdentifier rejects schema, table, and column names that could not
// have come from a sane source. Quoting handles the rest.
func ValidateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("identifier cannot be empty")
	}
	if len(name) > 128 {
		return fmt.Errorf("identifier too long: %d characters (max 128)", len(name))
	}
	for _, r := range name {
		if r == 0 || r == '"' || r == '`' || r == ']' || r == ';' || r == '\n' {
			return fmt.Errorf("identifier contains invalid character %q: %q", r, name)
		}
	}
	return nil
}
