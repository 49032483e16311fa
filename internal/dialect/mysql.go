package dialect

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/go-sql-driver/mysql"

	"github.com/tabload/tabload/internal/canonical"
	"github.com/tabload/tabload/internal/config"
	"github.com/tabload/tabload/internal/logging"
	"github.com/tabload/tabload/internal/schema"
)

type mysqlDialect struct {
	cfg *config.DestinationConfig
	db  *sql.DB
}

func newMySQL(cfg *config.DestinationConfig) *mysqlDialect {
	return &mysqlDialect{cfg: cfg}
}

func (d *mysqlDialect) Name() string { return "mysql" }

func (d *mysqlDialect) dsn() string {
	params := url.Values{}
	params.Set("parseTime", "true")
	params.Set("charset", "utf8mb4")
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		url.QueryEscape(d.cfg.User), url.QueryEscape(d.cfg.Password),
		d.cfg.Host, d.cfg.Port, d.cfg.Database, params.Encode())
}

func (d *mysqlDialect) Connect(ctx context.Context) error {
	db, err := sql.Open("mysql", d.dsn())
	if err != nil {
		return fmt.Errorf("opening connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("pinging database: %w", err)
	}
	d.db = db
	logging.Debug("Connected to MySQL: %s:%d/%s", d.cfg.Host, d.cfg.Port, d.cfg.Database)
	return nil
}

func (d *mysqlDialect) Close() error {
	if d.db != nil {
		err := d.db.Close()
		d.db = nil
		return err
	}
	return nil
}

func (d *mysqlDialect) TableExists(ctx context.Context, table string) (bool, error) {
	var n int
	err := d.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM information_schema.tables
		WHERE table_schema = DATABASE() AND table_name = ?
	`, table).Scan(&n)
	return n > 0, err
}

func (d *mysqlDialect) IntrospectTable(ctx context.Context, table string) (*schema.TableSchema, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT column_name, data_type, character_maximum_length,
		       numeric_precision, numeric_scale, is_nullable
		FROM information_schema.columns
		WHERE table_schema = DATABASE() AND table_name = ?
		ORDER BY ordinal_position
	`, table)
	if err != nil {
		return nil, fmt.Errorf("querying columns for %s: %w", table, err)
	}
	defer rows.Close()

	ts := &schema.TableSchema{Name: table}
	for rows.Next() {
		var name, dataType, nullable string
		var maxLen, precision, scale *int64
		if err := rows.Scan(&name, &dataType, &maxLen, &precision, &scale, &nullable); err != nil {
			return nil, fmt.Errorf("scanning column: %w", err)
		}
		col := schema.ColumnDefinition{
			Name:       name,
			Type:       mysqlCanonicalType(dataType),
			NativeType: dataType,
		}
		col.Modifier.Nullable = nullable != "NO"
		if maxLen != nil {
			col.Modifier.MaxLength = int(*maxLen)
		}
		if precision != nil {
			col.Modifier.Precision = int(*precision)
		}
		if scale != nil {
			col.Modifier.Scale = int(*scale)
		}
		ts.Columns = append(ts.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ts.Columns) == 0 {
		return nil, fmt.Errorf("table %s has no columns", table)
	}

	if err := d.introspectConstraints(ctx, table, ts); err != nil {
		return nil, err
	}
	return ts, nil
}

func (d *mysqlDialect) introspectConstraints(ctx context.Context, table string, ts *schema.TableSchema) error {
	rows, err := d.db.QueryContext(ctx, `
		SELECT tc.constraint_name, tc.constraint_type, kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON kcu.constraint_name = tc.constraint_name
		 AND kcu.table_schema = tc.table_schema
		 AND kcu.table_name = tc.table_name
		WHERE tc.table_schema = DATABASE() AND tc.table_name = ?
		  AND tc.constraint_type IN ('PRIMARY KEY', 'UNIQUE')
		ORDER BY tc.constraint_name, kcu.ordinal_position
	`, table)
	if err != nil {
		return fmt.Errorf("querying constraints for %s: %w", table, err)
	}
	defer rows.Close()

	grouped := map[string]*schema.UniqueConstraint{}
	kinds := map[string]string{}
	var order []string
	for rows.Next() {
		var name, kind, column string
		if err := rows.Scan(&name, &kind, &column); err != nil {
			return fmt.Errorf("scanning constraint: %w", err)
		}
		uc, ok := grouped[name]
		if !ok {
			uc = &schema.UniqueConstraint{Name: name}
			grouped[name] = uc
			kinds[name] = kind
			order = append(order, name)
		}
		uc.Columns = append(uc.Columns, column)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, name := range order {
		if kinds[name] == "PRIMARY KEY" {
			ts.PrimaryKey = grouped[name]
		} else {
			ts.Uniques = append(ts.Uniques, *grouped[name])
		}
	}
	return nil
}

func (d *mysqlDialect) CreateTable(ctx context.Context, ts *schema.TableSchema) error {
	// The database is fixed by the DSN; no schema prefix.
	ddl := BuildCreateTable(mysqlNamer{}, "", ts)
	logging.Debug("DDL for %s:\n%s", ts.Name, ddl)
	if _, err := d.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("creating table %s: %w", ts.Name, err)
	}
	return nil
}

func (d *mysqlDialect) ClearTable(ctx context.Context, table string) error {
	_, err := d.db.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE %s",
		mysqlNamer{}.QuoteIdent(table)))
	return err
}

// InsertBatch issues one multi-row INSERT per batch.
func (d *mysqlDialect) InsertBatch(ctx context.Context, table string, cols []schema.ColumnDefinition, batch [][]any) error {
	if len(batch) == 0 {
		return nil
	}
	namer := mysqlNamer{}
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = namer.QuoteIdent(c.Name)
	}

	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?,", len(cols)), ",") + ")"
	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(namer.QuoteIdent(table))
	sb.WriteString(" (")
	sb.WriteString(strings.Join(names, ", "))
	sb.WriteString(") VALUES ")

	args := make([]any, 0, len(batch)*len(cols))
	for i, row := range batch {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(placeholder)
		args = append(args, row...)
	}

	_, err := d.db.ExecContext(ctx, sb.String(), args...)
	return err
}

type mysqlNamer struct{}

func (mysqlNamer) QuoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (mysqlNamer) TypeName(col schema.ColumnDefinition) string {
	switch col.Type {
	case canonical.TinyInt:
		return "tinyint"
	case canonical.SmallInt:
		return "smallint"
	case canonical.Integer:
		return "int"
	case canonical.BigInt:
		return "bigint"
	case canonical.Float:
		return "float"
	case canonical.Double:
		return "double"
	case canonical.Decimal:
		// Modifier.Precision counts integer digits; SQL precision is total
		// digits.
		if total := col.Modifier.Precision + col.Modifier.Scale; total > 0 && total <= 65 {
			return fmt.Sprintf("decimal(%d,%d)", total, col.Modifier.Scale)
		}
		return "decimal(65,10)"
	case canonical.Boolean:
		return "tinyint(1)"
	case canonical.Date:
		return "date"
	case canonical.Time:
		return "time"
	case canonical.TimestampTZ:
		return "datetime(6)"
	case canonical.Char, canonical.NChar:
		return fmt.Sprintf("char(%d)", max(col.Modifier.MaxLength, 1))
	case canonical.VarChar, canonical.NVarChar:
		return fmt.Sprintf("varchar(%d)", max(col.Modifier.MaxLength, 1))
	case canonical.Clob, canonical.NClob:
		return "longtext"
	case canonical.Binary:
		return "longblob"
	}
	return "longtext"
}

// mysqlCanonicalType maps MySQL native type names onto canonical types.
// utf8mb4 makes every character type Unicode-capable, hence the national
// variants.
func mysqlCanonicalType(native string) canonical.Type {
	switch strings.ToLower(native) {
	case "tinyint":
		return canonical.TinyInt
	case "smallint", "year":
		return canonical.SmallInt
	case "int", "mediumint", "integer":
		return canonical.Integer
	case "bigint":
		return canonical.BigInt
	case "float":
		return canonical.Float
	case "double":
		return canonical.Double
	case "decimal", "numeric":
		return canonical.Decimal
	case "bit", "bool", "boolean":
		return canonical.Boolean
	case "date":
		return canonical.Date
	case "time":
		return canonical.Time
	case "datetime", "timestamp":
		return canonical.TimestampTZ
	case "char":
		return canonical.NChar
	case "varchar":
		return canonical.NVarChar
	case "tinytext", "text", "mediumtext", "longtext", "json":
		return canonical.NClob
	case "binary", "varbinary", "tinyblob", "blob", "mediumblob", "longblob":
		return canonical.Binary
	}
	return canonical.NVarChar
}
