package dialect

import (
	"strings"
	"testing"

	"github.com/tabload/tabload/internal/canonical"
	"github.com/tabload/tabload/internal/config"
	"github.com/tabload/tabload/internal/infer"
	"github.com/tabload/tabload/internal/schema"
)

func col(name string, typ canonical.Type, mod canonical.Modifier) schema.ColumnDefinition {
	return schema.ColumnDefinition{Name: name, Type: typ, Modifier: mod}
}

func TestPostgresTypeNames(t *testing.T) {
	tests := []struct {
		col  schema.ColumnDefinition
		want string
	}{
		{col("a", canonical.TinyInt, canonical.Modifier{}), "smallint"},
		{col("a", canonical.SmallInt, canonical.Modifier{}), "smallint"},
		{col("a", canonical.Integer, canonical.Modifier{}), "integer"},
		{col("a", canonical.BigInt, canonical.Modifier{}), "bigint"},
		{col("a", canonical.Float, canonical.Modifier{}), "real"},
		{col("a", canonical.Double, canonical.Modifier{}), "double precision"},
		{col("a", canonical.Decimal, canonical.Modifier{Precision: 12, Scale: 4}), "numeric(16,4)"},
		{col("a", canonical.Decimal, canonical.Modifier{Precision: 2, Scale: 1}), "numeric(3,1)"},
		{col("a", canonical.Decimal, canonical.Modifier{}), "numeric"},
		{col("a", canonical.Boolean, canonical.Modifier{}), "boolean"},
		{col("a", canonical.Date, canonical.Modifier{}), "date"},
		{col("a", canonical.Time, canonical.Modifier{}), "time"},
		{col("a", canonical.TimestampTZ, canonical.Modifier{}), "timestamptz"},
		{col("a", canonical.VarChar, canonical.Modifier{MaxLength: 40}), "varchar(40)"},
		{col("a", canonical.NVarChar, canonical.Modifier{MaxLength: 40}), "varchar(40)"},
		{col("a", canonical.NChar, canonical.Modifier{}), "char(1)"},
		{col("a", canonical.Clob, canonical.Modifier{}), "text"},
		{col("a", canonical.NClob, canonical.Modifier{}), "text"},
		{col("a", canonical.Binary, canonical.Modifier{}), "bytea"},
	}
	n := postgresNamer{}
	for _, tt := range tests {
		if got := n.TypeName(tt.col); got != tt.want {
			t.Errorf("TypeName(%s) = %q, want %q", tt.col.Type, got, tt.want)
		}
	}
}

func TestMSSQLTypeNames(t *testing.T) {
	tests := []struct {
		col  schema.ColumnDefinition
		want string
	}{
		{col("a", canonical.TinyInt, canonical.Modifier{}), "tinyint"},
		{col("a", canonical.Integer, canonical.Modifier{}), "int"},
		{col("a", canonical.Double, canonical.Modifier{}), "float"},
		{col("a", canonical.Decimal, canonical.Modifier{Precision: 20, Scale: 2}), "decimal(22,2)"},
		{col("a", canonical.Decimal, canonical.Modifier{Precision: 30, Scale: 10}), "decimal(38,10)"},
		{col("a", canonical.Boolean, canonical.Modifier{}), "bit"},
		{col("a", canonical.TimestampTZ, canonical.Modifier{}), "datetimeoffset"},
		{col("a", canonical.VarChar, canonical.Modifier{MaxLength: 16}), "varchar(16)"},
		{col("a", canonical.NVarChar, canonical.Modifier{MaxLength: 16}), "nvarchar(16)"},
		{col("a", canonical.Clob, canonical.Modifier{}), "varchar(max)"},
		{col("a", canonical.NClob, canonical.Modifier{}), "nvarchar(max)"},
		{col("a", canonical.Binary, canonical.Modifier{}), "varbinary(max)"},
	}
	n := mssqlNamer{}
	for _, tt := range tests {
		if got := n.TypeName(tt.col); got != tt.want {
			t.Errorf("TypeName(%s) = %q, want %q", tt.col.Type, got, tt.want)
		}
	}
}

func TestMySQLTypeNames(t *testing.T) {
	tests := []struct {
		col  schema.ColumnDefinition
		want string
	}{
		{col("a", canonical.TinyInt, canonical.Modifier{}), "tinyint"},
		{col("a", canonical.Boolean, canonical.Modifier{}), "tinyint(1)"},
		{col("a", canonical.Double, canonical.Modifier{}), "double"},
		{col("a", canonical.Decimal, canonical.Modifier{Precision: 70}), "decimal(65,10)"},
		{col("a", canonical.Decimal, canonical.Modifier{Precision: 8, Scale: 3}), "decimal(11,3)"},
		{col("a", canonical.TimestampTZ, canonical.Modifier{}), "datetime(6)"},
		{col("a", canonical.NVarChar, canonical.Modifier{MaxLength: 255}), "varchar(255)"},
		{col("a", canonical.NClob, canonical.Modifier{}), "longtext"},
		{col("a", canonical.Binary, canonical.Modifier{}), "longblob"},
	}
	n := mysqlNamer{}
	for _, tt := range tests {
		if got := n.TypeName(tt.col); got != tt.want {
			t.Errorf("TypeName(%s) = %q, want %q", tt.col.Type, got, tt.want)
		}
	}
}

func TestSQLiteTypeNames(t *testing.T) {
	tests := []struct {
		col  schema.ColumnDefinition
		want string
	}{
		{col("a", canonical.BigInt, canonical.Modifier{}), "INTEGER"},
		{col("a", canonical.Double, canonical.Modifier{}), "REAL"},
		{col("a", canonical.Decimal, canonical.Modifier{}), "NUMERIC"},
		{col("a", canonical.NVarChar, canonical.Modifier{MaxLength: 30}), "VARCHAR(30)"},
		{col("a", canonical.NClob, canonical.Modifier{}), "TEXT"},
		{col("a", canonical.Binary, canonical.Modifier{}), "BLOB"},
	}
	n := sqliteNamer{}
	for _, tt := range tests {
		if got := n.TypeName(tt.col); got != tt.want {
			t.Errorf("TypeName(%s) = %q, want %q", tt.col.Type, got, tt.want)
		}
	}
}

func TestPostgresCanonicalType(t *testing.T) {
	tests := []struct {
		native string
		want   canonical.Type
	}{
		{"smallint", canonical.SmallInt},
		{"integer", canonical.Integer},
		{"bigint", canonical.BigInt},
		{"real", canonical.Float},
		{"double precision", canonical.Double},
		{"numeric", canonical.Decimal},
		{"boolean", canonical.Boolean},
		{"date", canonical.Date},
		{"time without time zone", canonical.Time},
		{"timestamp with time zone", canonical.TimestampTZ},
		{"character varying", canonical.NVarChar},
		{"character", canonical.NChar},
		{"text", canonical.NClob},
		{"bytea", canonical.Binary},
		{"uuid", canonical.NVarChar},
	}
	for _, tt := range tests {
		if got := postgresCanonicalType(tt.native); got != tt.want {
			t.Errorf("postgresCanonicalType(%q) = %s, want %s", tt.native, got, tt.want)
		}
	}
}

func TestMSSQLCanonicalType(t *testing.T) {
	tests := []struct {
		native string
		length int
		want   canonical.Type
	}{
		{"tinyint", 0, canonical.TinyInt},
		{"int", 0, canonical.Integer},
		{"float", 0, canonical.Double},
		{"real", 0, canonical.Float},
		{"bit", 0, canonical.Boolean},
		{"datetime2", 0, canonical.TimestampTZ},
		{"varchar", 50, canonical.VarChar},
		{"varchar", -1, canonical.Clob},
		{"nvarchar", 50, canonical.NVarChar},
		{"nvarchar", -1, canonical.NClob},
		{"ntext", 0, canonical.NClob},
		{"varbinary", -1, canonical.Binary},
		{"uniqueidentifier", 36, canonical.VarChar},
	}
	for _, tt := range tests {
		if got := mssqlCanonicalType(tt.native, tt.length); got != tt.want {
			t.Errorf("mssqlCanonicalType(%q, %d) = %s, want %s", tt.native, tt.length, got, tt.want)
		}
	}
}

func TestSQLiteCanonicalType(t *testing.T) {
	tests := []struct {
		declared   string
		want       canonical.Type
		wantLength int
	}{
		{"INTEGER", canonical.Integer, 0},
		{"BIGINT", canonical.BigInt, 0},
		{"VARCHAR(30)", canonical.NVarChar, 30},
		{"NUMERIC(10,2)", canonical.Decimal, 0},
		{"TEXT", canonical.NClob, 0},
		{"", canonical.Binary, 0},
		{"DATETIME", canonical.TimestampTZ, 0},
	}
	for _, tt := range tests {
		got, length := sqliteCanonicalType(tt.declared)
		if got != tt.want || length != tt.wantLength {
			t.Errorf("sqliteCanonicalType(%q) = (%s, %d), want (%s, %d)",
				tt.declared, got, length, tt.want, tt.wantLength)
		}
	}
}

// A decimal column created from sampled values must be wide enough to store
// those same values: precision in the modifier counts integer digits only,
// so the rendered SQL precision has to add the scale back in.
func TestDecimalDDLFitsSampledValue(t *testing.T) {
	state := infer.NewColumnState("amount", infer.DefaultOptions())
	state.Observe("10.5")
	def := infer.Resolve(state, infer.WidestFit{})
	if def.Type != canonical.Decimal {
		t.Fatalf("resolved %s, want decimal", def.Type)
	}

	for name, namer := range map[string]TypeNamer{
		"postgres": postgresNamer{},
		"mssql":    mssqlNamer{},
		"mysql":    mysqlNamer{},
	} {
		got := namer.TypeName(def)
		if !strings.HasSuffix(got, "(3,1)") {
			t.Errorf("%s rendered %q for values like 10.5, want total precision 3 scale 1", name, got)
		}
	}
}

func TestBuildCreateTable(t *testing.T) {
	ts := &schema.TableSchema{
		Name: "orders",
		Columns: []schema.ColumnDefinition{
			{Name: "id", Type: canonical.BigInt},
			{Name: "note", Type: canonical.NVarChar,
				Modifier: canonical.Modifier{MaxLength: 80, Nullable: true}},
		},
		PrimaryKey: &schema.UniqueConstraint{Name: "pk_orders", Columns: []string{"id"}},
		Uniques: []schema.UniqueConstraint{
			{Name: "uq_orders_note", Columns: []string{"note"}},
		},
	}

	ddl := BuildCreateTable(postgresNamer{}, "public", ts)
	for _, want := range []string{
		`CREATE TABLE "public"."orders"`,
		`"id" bigint NOT NULL`,
		`"note" varchar(80)`,
		`PRIMARY KEY ("id")`,
		`CONSTRAINT "uq_orders_note" UNIQUE ("note")`,
	} {
		if !strings.Contains(ddl, want) {
			t.Errorf("DDL missing %q:\n%s", want, ddl)
		}
	}
	if strings.Contains(ddl, `"note" varchar(80) NOT NULL`) {
		t.Errorf("nullable column rendered NOT NULL:\n%s", ddl)
	}
}

func TestBuildCreateTableNoSchema(t *testing.T) {
	ts := &schema.TableSchema{
		Name:    "t",
		Columns: []schema.ColumnDefinition{{Name: "v", Type: canonical.Integer, Modifier: canonical.Modifier{Nullable: true}}},
	}
	ddl := BuildCreateTable(sqliteNamer{}, "", ts)
	if !strings.HasPrefix(ddl, `CREATE TABLE "t"`) {
		t.Errorf("unexpected DDL prefix: %s", ddl)
	}
}

func TestQuoteIdent(t *testing.T) {
	if got := (postgresNamer{}).QuoteIdent(`we"ird`); got != `"we""ird"` {
		t.Errorf("postgres quote = %s", got)
	}
	if got := (mssqlNamer{}).QuoteIdent("col]umn"); got != "[col]]umn]" {
		t.Errorf("mssql quote = %s", got)
	}
	if got := (mysqlNamer{}).QuoteIdent("a`b"); got != "`a``b`" {
		t.Errorf("mysql quote = %s", got)
	}
}

func TestValidateIdentifier(t *testing.T) {
	if err := ValidateIdentifier("order_items"); err != nil {
		t.Errorf("valid identifier rejected: %v", err)
	}
	for _, bad := range []string{"", "a;b", "a\"b", strings.Repeat("x", 129)} {
		if err := ValidateIdentifier(bad); err == nil {
			t.Errorf("ValidateIdentifier(%q) expected error", bad)
		}
	}
}

func TestNewDialect(t *testing.T) {
	for _, typ := range []string{"postgres", "mssql", "mysql", "sqlite"} {
		d, err := New(&config.DestinationConfig{Type: typ})
		if err != nil {
			t.Fatalf("New(%q): %v", typ, err)
		}
		if d.Name() != typ {
			t.Errorf("Name() = %q, want %q", d.Name(), typ)
		}
	}
	if _, err := New(&config.DestinationConfig{Type: "oracle"}); err == nil {
		t.Error("expected error for unknown destination type")
	}
}

func TestPostgresDSN(t *testing.T) {
	d := newPostgres(&config.DestinationConfig{
		Host: "db.example.com", Port: 5432, Database: "app",
		User: "loader", Password: "s3cret", SSLMode: "require",
	})
	dsn := d.dsn()
	for _, want := range []string{"postgres://", "db.example.com:5432", "/app", "sslmode=require"} {
		if !strings.Contains(dsn, want) {
			t.Errorf("dsn missing %q: %s", want, dsn)
		}
	}
}

func TestMSSQLDSN(t *testing.T) {
	d := newMSSQL(&config.DestinationConfig{
		Host: "sql01", Port: 1433, Database: "app",
		User: "sa", Password: "pw", TrustServerCert: true,
	})
	dsn := d.dsn()
	for _, want := range []string{"sqlserver://", "sql01:1433", "database=app", "TrustServerCertificate=true"} {
		if !strings.Contains(dsn, want) {
			t.Errorf("dsn missing %q: %s", want, dsn)
		}
	}
}

func TestMySQLDSN(t *testing.T) {
	d := newMySQL(&config.DestinationConfig{
		Host: "mysql01", Port: 3306, Database: "app",
		User: "loader", Password: "pw",
	})
	dsn := d.dsn()
	for _, want := range []string{"loader:pw@tcp(mysql01:3306)/app", "parseTime=true"} {
		if !strings.Contains(dsn, want) {
			t.Errorf("dsn missing %q: %s", want, dsn)
		}
	}
}
