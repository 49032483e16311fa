// Package orchestrator drives the load pipeline: sample the source file,
// infer a schema, reconcile it against the destination table, then stream
// the rows in.
package orchestrator

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tabload/tabload/internal/compare"
	"github.com/tabload/tabload/internal/config"
	"github.com/tabload/tabload/internal/dialect"
	"github.com/tabload/tabload/internal/filestore"
	"github.com/tabload/tabload/internal/infer"
	"github.com/tabload/tabload/internal/logging"
	"github.com/tabload/tabload/internal/progress"
	"github.com/tabload/tabload/internal/reader"
	"github.com/tabload/tabload/internal/schema"
)

const defaultBatchSize = 1000

// Orchestrator runs inference, comparison, and loads for one configuration.
type Orchestrator struct {
	cfg   *config.Config
	runID string
	quiet bool
}

// New creates an orchestrator with a fresh run ID.
func New(cfg *config.Config) *Orchestrator {
	return &Orchestrator{cfg: cfg, runID: uuid.New().String()}
}

// SetQuiet disables progress bars.
func (o *Orchestrator) SetQuiet(quiet bool) { o.quiet = quiet }

// RunID identifies this run in logs.
func (o *Orchestrator) RunID() string { return o.runID }

func (o *Orchestrator) source(ctx context.Context) (reader.Source, error) {
	s3 := o.cfg.Source.S3
	if s3 == nil {
		return reader.FileSource(o.cfg.Source.Path), nil
	}
	store, err := filestore.New(ctx, filestore.Config{
		Endpoint:  s3.Endpoint,
		AccessKey: s3.AccessKey,
		SecretKey: s3.SecretKey,
		Bucket:    s3.Bucket,
		UseSSL:    s3.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to object store: %w", err)
	}
	return store.Object(s3.Object), nil
}

func (o *Orchestrator) inferOptions() infer.Options {
	opts := infer.DefaultOptions()
	opts.NullLiterals = o.cfg.Inference.NullLiteralList()
	if lex := o.cfg.Inference.BoolLexiconList(); len(lex) > 0 {
		opts.BoolLexicon = lex
	}
	return opts
}

func (o *Orchestrator) readerOptions() reader.Options {
	opts := reader.Options{
		NoHeader:   o.cfg.Source.NoHeader,
		SampleRows: o.cfg.Inference.SampleRows,
	}
	if o.cfg.Source.Delimiter != "" {
		opts.Comma = []rune(o.cfg.Source.Delimiter)[0]
	}
	if opts.SampleRows < 0 {
		opts.SampleRows = 0
	}
	return opts
}

func (o *Orchestrator) matchPolicy() compare.MatchPolicy {
	if o.cfg.Inference.CaseSensitiveNames {
		return compare.MatchCaseSensitive
	}
	return compare.MatchCaseInsensitive
}

// Infer samples the source and resolves one canonical type per column. The
// returned schema carries the destination table name so it can feed directly
// into comparison or table creation.
func (o *Orchestrator) Infer(ctx context.Context) (*schema.TableSchema, *reader.Result, error) {
	strat, err := infer.StrategyByName(o.cfg.Inference.Strategy)
	if err != nil {
		return nil, nil, err
	}

	src, err := o.source(ctx)
	if err != nil {
		return nil, nil, err
	}
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer rc.Close()

	logging.Info("[%s] Sampling %s", o.runID, src.Name())
	result, err := reader.Sample(rc, o.readerOptions(), o.inferOptions())
	if err != nil {
		return nil, nil, fmt.Errorf("sampling %s: %w", src.Name(), err)
	}
	logging.Debug("[%s] Sampled %d rows (partial=%v)", o.runID, result.Rows, result.Partial)

	ts := &schema.TableSchema{Name: o.cfg.Destination.Table}
	for _, state := range result.Columns {
		ts.Columns = append(ts.Columns, infer.Resolve(state, strat))
	}
	if err := ts.Validate(); err != nil {
		return nil, nil, fmt.Errorf("inferred schema: %w", err)
	}
	return ts, result, nil
}

// Compare infers the file schema and diffs it against the live destination
// table. The destination table must exist.
func (o *Orchestrator) Compare(ctx context.Context) (*schema.TableSchema, *compare.SchemaDiffResult, error) {
	fileSchema, _, err := o.Infer(ctx)
	if err != nil {
		return nil, nil, err
	}

	db, err := dialect.New(&o.cfg.Destination)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Connect(ctx); err != nil {
		return nil, nil, err
	}
	defer db.Close()

	table := o.cfg.Destination.Table
	exists, err := db.TableExists(ctx, table)
	if err != nil {
		return nil, nil, fmt.Errorf("checking table %s: %w", table, err)
	}
	if !exists {
		return nil, nil, fmt.Errorf("table %s does not exist", table)
	}

	tableSchema, err := db.IntrospectTable(ctx, table)
	if err != nil {
		return nil, nil, err
	}
	diff := compare.DiffSchemas(fileSchema, tableSchema, o.matchPolicy(), compare.DefaultRegistry())
	return fileSchema, &diff, nil
}

// LoadResult summarizes one completed load.
type LoadResult struct {
	RunID        string
	Rows         int64
	TableCreated bool
	TableCleared bool
}

// Load runs the whole pipeline. When the destination table is missing and
// create_table is set, it is created from the inferred schema; otherwise a
// missing table aborts. An existing table is diffed first, and the load
// aborts unless every file column is loadable (and identical, unless
// allow_lossy is set).
func (o *Orchestrator) Load(ctx context.Context) (*LoadResult, error) {
	fileSchema, _, err := o.Infer(ctx)
	if err != nil {
		return nil, err
	}
	for _, col := range fileSchema.Columns {
		if err := dialect.ValidateIdentifier(col.Name); err != nil {
			return nil, fmt.Errorf("column name: %w", err)
		}
	}

	db, err := dialect.New(&o.cfg.Destination)
	if err != nil {
		return nil, err
	}
	if err := db.Connect(ctx); err != nil {
		return nil, err
	}
	defer db.Close()

	res := &LoadResult{RunID: o.runID}
	table := o.cfg.Destination.Table
	exists, err := db.TableExists(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("checking table %s: %w", table, err)
	}

	var destCols []schema.ColumnDefinition
	switch {
	case !exists && o.cfg.Load.CreateTable:
		logging.Info("[%s] Creating table %s", o.runID, table)
		if err := db.CreateTable(ctx, fileSchema); err != nil {
			return nil, err
		}
		res.TableCreated = true
		destCols = alignColumns(fileSchema, fileSchema, o.matchPolicy())

	case !exists:
		return nil, fmt.Errorf("table %s does not exist and create_table is off", table)

	default:
		tableSchema, err := db.IntrospectTable(ctx, table)
		if err != nil {
			return nil, err
		}
		diff := compare.DiffSchemas(fileSchema, tableSchema, o.matchPolicy(), compare.DefaultRegistry())
		ReportDiff(fileSchema, &diff)
		if !diff.CanLoadAll() {
			return nil, fmt.Errorf("schema mismatch: not every file column can be stored")
		}
		if !diff.NoDifference && !o.cfg.Load.AllowLossy {
			return nil, fmt.Errorf("schemas differ; set allow_lossy to load anyway")
		}
		if o.cfg.Load.ClearBefore {
			logging.Info("[%s] Clearing table %s", o.runID, table)
			if err := db.ClearTable(ctx, table); err != nil {
				return nil, fmt.Errorf("clearing table %s: %w", table, err)
			}
			res.TableCleared = true
		}
		destCols = alignColumns(fileSchema, tableSchema, o.matchPolicy())
	}

	rows, err := o.stream(ctx, db, table, destCols)
	if err != nil {
		return nil, err
	}
	res.Rows = rows
	logging.Info("[%s] Loaded %d rows into %s", o.runID, rows, table)
	return res, nil
}

// alignColumns returns the destination column definitions in file-column
// order, so converted record cells line up with insert targets. Destination
// types drive value conversion.
func alignColumns(file, table *schema.TableSchema, policy compare.MatchPolicy) []schema.ColumnDefinition {
	out := make([]schema.ColumnDefinition, len(file.Columns))
	for i, fc := range file.Columns {
		for _, tc := range table.Columns {
			if policy.Match(fc.Name, tc.Name) {
				out[i] = tc
				break
			}
		}
	}
	return out
}

func (o *Orchestrator) stream(ctx context.Context, db dialect.Dialect, table string, destCols []schema.ColumnDefinition) (int64, error) {
	src, err := o.source(ctx)
	if err != nil {
		return 0, err
	}
	rc, err := src.Open(ctx)
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	batchSize := o.cfg.Load.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	inferOpts := o.inferOptions()
	readOpts := o.readerOptions()
	readOpts.SampleRows = 0

	tracker := progress.New("Loading", -1, o.quiet)
	batch := make([][]any, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := db.InsertBatch(ctx, table, destCols, batch); err != nil {
			return fmt.Errorf("inserting batch: %w", err)
		}
		tracker.Add(int64(len(batch)))
		batch = batch[:0]
		return nil
	}

	err = reader.Stream(rc, readOpts, func(record []string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		row, err := dialect.ConvertRow(record, destCols, inferOpts.IsNull)
		if err != nil {
			return err
		}
		batch = append(batch, row)
		if len(batch) >= batchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return tracker.Current(), fmt.Errorf("streaming %s: %w", src.Name(), err)
	}
	if err := flush(); err != nil {
		return tracker.Current(), err
	}
	tracker.Finish("Loaded")
	return tracker.Current(), nil
}
