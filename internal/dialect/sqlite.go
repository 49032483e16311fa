package dialect

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/tabload/tabload/internal/canonical"
	"github.com/tabload/tabload/internal/config"
	"github.com/tabload/tabload/internal/logging"
	"github.com/tabload/tabload/internal/schema"
)

type sqliteDialect struct {
	cfg *config.DestinationConfig
	db  *sql.DB
}

func newSQLite(cfg *config.DestinationConfig) *sqliteDialect {
	return &sqliteDialect{cfg: cfg}
}

func (d *sqliteDialect) Name() string { return "sqlite" }

func (d *sqliteDialect) Connect(ctx context.Context) error {
	db, err := sql.Open("sqlite", d.cfg.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("pinging database: %w", err)
	}
	d.db = db
	logging.Debug("Opened SQLite database: %s", d.cfg.Path)
	return nil
}

func (d *sqliteDialect) Close() error {
	if d.db != nil {
		err := d.db.Close()
		d.db = nil
		return err
	}
	return nil
}

func (d *sqliteDialect) TableExists(ctx context.Context, table string) (bool, error) {
	var n int
	err := d.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?
	`, table).Scan(&n)
	return n > 0, err
}

func (d *sqliteDialect) IntrospectTable(ctx context.Context, table string) (*schema.TableSchema, error) {
	rows, err := d.db.QueryContext(ctx,
		fmt.Sprintf("PRAGMA table_info(%s)", sqliteNamer{}.QuoteIdent(table)))
	if err != nil {
		return nil, fmt.Errorf("querying columns for %s: %w", table, err)
	}
	defer rows.Close()

	ts := &schema.TableSchema{Name: table}
	type pkCol struct {
		name string
		pos  int
	}
	var pkCols []pkCol
	for rows.Next() {
		var cid, notNull, pk int
		var name, declared string
		var dflt any
		if err := rows.Scan(&cid, &name, &declared, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scanning column: %w", err)
		}
		typ, length := sqliteCanonicalType(declared)
		col := schema.ColumnDefinition{
			Name:       name,
			Type:       typ,
			NativeType: declared,
		}
		col.Modifier.Nullable = notNull == 0
		col.Modifier.MaxLength = length
		ts.Columns = append(ts.Columns, col)
		if pk > 0 {
			pkCols = append(pkCols, pkCol{name: name, pos: pk})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ts.Columns) == 0 {
		return nil, fmt.Errorf("table %s has no columns", table)
	}

	if len(pkCols) > 0 {
		pk := &schema.UniqueConstraint{Name: "PRIMARY"}
		for want := 1; want <= len(pkCols); want++ {
			for _, c := range pkCols {
				if c.pos == want {
					pk.Columns = append(pk.Columns, c.name)
				}
			}
		}
		ts.PrimaryKey = pk
	}

	if err := d.introspectUniques(ctx, table, ts); err != nil {
		return nil, err
	}
	return ts, nil
}

func (d *sqliteDialect) introspectUniques(ctx context.Context, table string, ts *schema.TableSchema) error {
	rows, err := d.db.QueryContext(ctx,
		fmt.Sprintf("PRAGMA index_list(%s)", sqliteNamer{}.QuoteIdent(table)))
	if err != nil {
		return fmt.Errorf("querying indexes for %s: %w", table, err)
	}
	var names []string
	for rows.Next() {
		var seq, unique, partial int
		var name, origin string
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			rows.Close()
			return fmt.Errorf("scanning index: %w", err)
		}
		// origin "u" marks UNIQUE constraints; "pk" is already covered.
		if unique == 1 && origin == "u" {
			names = append(names, name)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, name := range names {
		uc := schema.UniqueConstraint{Name: name}
		idxRows, err := d.db.QueryContext(ctx,
			fmt.Sprintf("PRAGMA index_info(%s)", sqliteNamer{}.QuoteIdent(name)))
		if err != nil {
			return fmt.Errorf("querying index %s: %w", name, err)
		}
		for idxRows.Next() {
			var seqno, cid int
			var column string
			if err := idxRows.Scan(&seqno, &cid, &column); err != nil {
				idxRows.Close()
				return fmt.Errorf("scanning index column: %w", err)
			}
			uc.Columns = append(uc.Columns, column)
		}
		idxRows.Close()
		if err := idxRows.Err(); err != nil {
			return err
		}
		ts.Uniques = append(ts.Uniques, uc)
	}
	return nil
}

func (d *sqliteDialect) CreateTable(ctx context.Context, ts *schema.TableSchema) error {
	ddl := BuildCreateTable(sqliteNamer{}, "", ts)
	logging.Debug("DDL for %s:\n%s", ts.Name, ddl)
	if _, err := d.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("creating table %s: %w", ts.Name, err)
	}
	return nil
}

func (d *sqliteDialect) ClearTable(ctx context.Context, table string) error {
	_, err := d.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s",
		sqliteNamer{}.QuoteIdent(table)))
	return err
}

// InsertBatch wraps the batch in one transaction with a prepared statement
// reused per row; one implicit transaction per row would be far slower.
func (d *sqliteDialect) InsertBatch(ctx context.Context, table string, cols []schema.ColumnDefinition, batch [][]any) error {
	if len(batch) == 0 {
		return nil
	}
	namer := sqliteNamer{}
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = namer.QuoteIdent(c.Name)
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		namer.QuoteIdent(table),
		strings.Join(names, ", "),
		strings.TrimSuffix(strings.Repeat("?,", len(cols)), ","))

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range batch {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("inserting row: %w", err)
		}
	}
	return tx.Commit()
}

type sqliteNamer struct{}

func (sqliteNamer) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (sqliteNamer) TypeName(col schema.ColumnDefinition) string {
	switch col.Type {
	case canonical.TinyInt, canonical.SmallInt, canonical.Integer, canonical.BigInt:
		return "INTEGER"
	case canonical.Float, canonical.Double:
		return "REAL"
	case canonical.Decimal:
		return "NUMERIC"
	case canonical.Boolean:
		return "BOOLEAN"
	case canonical.Date:
		return "DATE"
	case canonical.Time:
		return "TIME"
	case canonical.TimestampTZ:
		return "TIMESTAMP"
	case canonical.Char, canonical.NChar:
		return fmt.Sprintf("CHAR(%d)", max(col.Modifier.MaxLength, 1))
	case canonical.VarChar, canonical.NVarChar:
		return fmt.Sprintf("VARCHAR(%d)", max(col.Modifier.MaxLength, 1))
	case canonical.Clob, canonical.NClob:
		return "TEXT"
	case canonical.Binary:
		return "BLOB"
	}
	return "TEXT"
}

// sqliteCanonicalType maps a declared column type onto a canonical type plus
// an optional declared length. SQLite stores whatever you give it; the
// declared type is the best signal available.
func sqliteCanonicalType(declared string) (canonical.Type, int) {
	base := strings.ToLower(strings.TrimSpace(declared))
	length := 0
	if i := strings.IndexByte(base, '('); i >= 0 {
		args := strings.TrimSuffix(base[i+1:], ")")
		if j := strings.IndexByte(args, ','); j >= 0 {
			args = args[:j]
		}
		if n, err := strconv.Atoi(strings.TrimSpace(args)); err == nil {
			length = n
		}
		base = strings.TrimSpace(base[:i])
	}

	switch base {
	case "tinyint":
		return canonical.TinyInt, 0
	case "smallint":
		return canonical.SmallInt, 0
	case "int", "integer", "mediumint":
		return canonical.Integer, 0
	case "bigint", "unsigned big int", "int8":
		return canonical.BigInt, 0
	case "real", "float":
		return canonical.Float, 0
	case "double", "double precision":
		return canonical.Double, 0
	case "numeric", "decimal":
		return canonical.Decimal, 0
	case "boolean", "bool":
		return canonical.Boolean, 0
	case "date":
		return canonical.Date, 0
	case "time":
		return canonical.Time, 0
	case "datetime", "timestamp":
		return canonical.TimestampTZ, 0
	case "char", "character", "nchar", "native character":
		return canonical.NChar, length
	case "varchar", "varying character", "nvarchar":
		return canonical.NVarChar, length
	case "text", "clob":
		return canonical.NClob, 0
	case "blob", "":
		return canonical.Binary, 0
	}
	return canonical.NVarChar, length
}
