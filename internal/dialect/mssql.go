package dialect

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	mssql "github.com/microsoft/go-mssqldb"

	"github.com/tabload/tabload/internal/canonical"
	"github.com/tabload/tabload/internal/config"
	"github.com/tabload/tabload/internal/logging"
	"github.com/tabload/tabload/internal/schema"
)

type mssqlDialect struct {
	cfg *config.DestinationConfig
	db  *sql.DB
}

func newMSSQL(cfg *config.DestinationConfig) *mssqlDialect {
	return &mssqlDialect{cfg: cfg}
}

func (d *mssqlDialect) Name() string { return "mssql" }

func (d *mssqlDialect) dsn() string {
	q := url.Values{}
	q.Set("database", d.cfg.Database)
	if d.cfg.TrustServerCert {
		q.Set("TrustServerCertificate", "true")
	}
	u := url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(d.cfg.User, d.cfg.Password),
		Host:     fmt.Sprintf("%s:%d", d.cfg.Host, d.cfg.Port),
		RawQuery: q.Encode(),
	}
	return u.String()
}

func (d *mssqlDialect) Connect(ctx context.Context) error {
	db, err := sql.Open("sqlserver", d.dsn())
	if err != nil {
		return fmt.Errorf("opening connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("pinging database: %w", err)
	}
	d.db = db
	logging.Debug("Connected to SQL Server: %s:%d/%s", d.cfg.Host, d.cfg.Port, d.cfg.Database)
	return nil
}

func (d *mssqlDialect) Close() error {
	if d.db != nil {
		err := d.db.Close()
		d.db = nil
		return err
	}
	return nil
}

func (d *mssqlDialect) TableExists(ctx context.Context, table string) (bool, error) {
	var n int
	err := d.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = @p1 AND TABLE_NAME = @p2
	`, d.cfg.Schema, table).Scan(&n)
	return n > 0, err
}

func (d *mssqlDialect) IntrospectTable(ctx context.Context, table string) (*schema.TableSchema, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT COLUMN_NAME, DATA_TYPE, CHARACTER_MAXIMUM_LENGTH,
		       NUMERIC_PRECISION, NUMERIC_SCALE, IS_NULLABLE
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = @p1 AND TABLE_NAME = @p2
		ORDER BY ORDINAL_POSITION
	`, d.cfg.Schema, table)
	if err != nil {
		return nil, fmt.Errorf("querying columns for %s.%s: %w", d.cfg.Schema, table, err)
	}
	defer rows.Close()

	ts := &schema.TableSchema{Name: table}
	for rows.Next() {
		var name, dataType, nullable string
		var maxLen, precision, scale *int64
		if err := rows.Scan(&name, &dataType, &maxLen, &precision, &scale, &nullable); err != nil {
			return nil, fmt.Errorf("scanning column: %w", err)
		}
		length := 0
		if maxLen != nil {
			length = int(*maxLen)
		}
		col := schema.ColumnDefinition{
			Name:       name,
			Type:       mssqlCanonicalType(dataType, length),
			NativeType: dataType,
		}
		col.Modifier.Nullable = nullable != "NO"
		if length > 0 {
			col.Modifier.MaxLength = length
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
		return nil, fmt.Errorf("table %s.%s has no columns", d.cfg.Schema, table)
	}

	if err := d.introspectConstraints(ctx, table, ts); err != nil {
		return nil, err
	}
	return ts, nil
}

func (d *mssqlDialect) introspectConstraints(ctx context.Context, table string, ts *schema.TableSchema) error {
	rows, err := d.db.QueryContext(ctx, `
		SELECT tc.CONSTRAINT_NAME, tc.CONSTRAINT_TYPE, kcu.COLUMN_NAME
		FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
		JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu
		  ON kcu.CONSTRAINT_NAME = tc.CONSTRAINT_NAME
		 AND kcu.TABLE_SCHEMA = tc.TABLE_SCHEMA
		 AND kcu.TABLE_NAME = tc.TABLE_NAME
		WHERE tc.TABLE_SCHEMA = @p1 AND tc.TABLE_NAME = @p2
		  AND tc.CONSTRAINT_TYPE IN ('PRIMARY KEY', 'UNIQUE')
		ORDER BY tc.CONSTRAINT_NAME, kcu.ORDINAL_POSITION
	`, d.cfg.Schema, table)
	if err != nil {
		return fmt.Errorf("querying constraints for %s.%s: %w", d.cfg.Schema, table, err)
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

func (d *mssqlDialect) CreateTable(ctx context.Context, ts *schema.TableSchema) error {
	ddl := BuildCreateTable(mssqlNamer{}, d.cfg.Schema, ts)
	logging.Debug("DDL for %s:\n%s", ts.Name, ddl)
	if _, err := d.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("creating table %s: %w", ts.Name, err)
	}
	return nil
}

func (d *mssqlDialect) ClearTable(ctx context.Context, table string) error {
	_, err := d.db.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE %s",
		qualify(mssqlNamer{}, d.cfg.Schema, table)))
	return err
}

// InsertBatch streams the batch over TDS bulk copy.
func (d *mssqlDialect) InsertBatch(ctx context.Context, table string, cols []schema.ColumnDefinition, batch [][]any) error {
	if len(batch) == 0 {
		return nil
	}
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	qualified := qualify(mssqlNamer{}, d.cfg.Schema, table)
	stmt, err := tx.PrepareContext(ctx, mssql.CopyIn(qualified, mssql.BulkOptions{Tablock: true}, names...))
	if err != nil {
		return fmt.Errorf("preparing bulk copy: %w", err)
	}
	for _, row := range batch {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			stmt.Close()
			return fmt.Errorf("adding row: %w", err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return fmt.Errorf("finalizing bulk copy: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return err
	}
	return tx.Commit()
}

type mssqlNamer struct{}

func (mssqlNamer) QuoteIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

func (mssqlNamer) TypeName(col schema.ColumnDefinition) string {
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
		return "real"
	case canonical.Double:
		return "float"
	case canonical.Decimal:
		// Modifier.Precision counts integer digits; SQL precision is total
		// digits.
		if total := col.Modifier.Precision + col.Modifier.Scale; total > 0 && total <= 38 {
			return fmt.Sprintf("decimal(%d,%d)", total, col.Modifier.Scale)
		}
		return "decimal(38,10)"
	case canonical.Boolean:
		return "bit"
	case canonical.Date:
		return "date"
	case canonical.Time:
		return "time"
	case canonical.TimestampTZ:
		return "datetimeoffset"
	case canonical.Char:
		return fmt.Sprintf("char(%d)", max(col.Modifier.MaxLength, 1))
	case canonical.VarChar:
		return fmt.Sprintf("varchar(%d)", max(col.Modifier.MaxLength, 1))
	case canonical.NChar:
		return fmt.Sprintf("nchar(%d)", max(col.Modifier.MaxLength, 1))
	case canonical.NVarChar:
		return fmt.Sprintf("nvarchar(%d)", max(col.Modifier.MaxLength, 1))
	case canonical.Clob:
		return "varchar(max)"
	case canonical.NClob:
		return "nvarchar(max)"
	case canonical.Binary:
		return "varbinary(max)"
	}
	return "nvarchar(max)"
}

// mssqlCanonicalType maps SQL Server native type names onto canonical types.
// length is CHARACTER_MAXIMUM_LENGTH; -1 marks the (max) variants.
func mssqlCanonicalType(native string, length int) canonical.Type {
	switch strings.ToLower(native) {
	case "tinyint":
		return canonical.TinyInt
	case "smallint":
		return canonical.SmallInt
	case "int":
		return canonical.Integer
	case "bigint":
		return canonical.BigInt
	case "real":
		return canonical.Float
	case "float":
		return canonical.Double
	case "decimal", "numeric", "money", "smallmoney":
		return canonical.Decimal
	case "bit":
		return canonical.Boolean
	case "date":
		return canonical.Date
	case "time":
		return canonical.Time
	case "datetime", "datetime2", "smalldatetime", "datetimeoffset":
		return canonical.TimestampTZ
	case "char":
		return canonical.Char
	case "varchar":
		if length < 0 {
			return canonical.Clob
		}
		return canonical.VarChar
	case "nchar":
		return canonical.NChar
	case "nvarchar":
		if length < 0 {
			return canonical.NClob
		}
		return canonical.NVarChar
	case "text":
		return canonical.Clob
	case "ntext", "xml":
		return canonical.NClob
	case "binary", "varbinary", "image", "rowversion", "timestamp":
		return canonical.Binary
	case "uniqueidentifier":
		return canonical.VarChar
	}
	return canonical.NVarChar
}
