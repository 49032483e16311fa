package schema

import (
	"strings"
	"testing"

	"github.com/tabload/tabload/internal/canonical"
)

func testSchema() *TableSchema {
	return &TableSchema{
		Name: "orders",
		Columns: []ColumnDefinition{
			{Name: "id", Type: canonical.BigInt},
			{Name: "customer", Type: canonical.VarChar},
			{Name: "placed_at", Type: canonical.TimestampTZ},
		},
		PrimaryKey: &UniqueConstraint{Name: "orders_pkey", Columns: []string{"id"}},
		Uniques: []UniqueConstraint{
			{Name: "orders_customer_key", Columns: []string{"customer", "placed_at"}},
		},
	}
}

func TestValidateOK(t *testing.T) {
	if err := testSchema().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*TableSchema)
		wantErr string
	}{
		{
			"duplicate column",
			func(s *TableSchema) { s.Columns = append(s.Columns, ColumnDefinition{Name: "id"}) },
			"duplicate column",
		},
		{
			"empty column name",
			func(s *TableSchema) { s.Columns[0].Name = "" },
			"empty name",
		},
		{
			"pk references missing column",
			func(s *TableSchema) { s.PrimaryKey.Columns = []string{"nope"} },
			"unknown column",
		},
		{
			"unique references missing column",
			func(s *TableSchema) { s.Uniques[0].Columns = []string{"customer", "ghost"} },
			"unknown column",
		},
		{
			"constraint with no columns",
			func(s *TableSchema) { s.Uniques[0].Columns = nil },
			"no columns",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testSchema()
			tt.mutate(s)
			err := s.Validate()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestColumnLookup(t *testing.T) {
	s := testSchema()
	if col := s.Column("customer"); col == nil || col.Type != canonical.VarChar {
		t.Errorf("Column(customer) = %+v", col)
	}
	if col := s.Column("missing"); col != nil {
		t.Errorf("expected nil for missing column, got %+v", col)
	}
	names := s.ColumnNames()
	if len(names) != 3 || names[0] != "id" {
		t.Errorf("ColumnNames() = %v", names)
	}
}
