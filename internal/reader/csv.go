// Package reader feeds raw file cells into type inference. It owns no typing
// decisions: every cell is handed to the per-column summaries as text.
package reader

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/tabload/tabload/internal/infer"
)

// Source is anything a delimited file can be read from. Opening twice is
// allowed: once for sampling, once for the load pass.
type Source interface {
	Name() string
	Open(ctx context.Context) (io.ReadCloser, error)
}

// FileSource reads from the local filesystem.
type FileSource string

func (f FileSource) Name() string { return string(f) }

func (f FileSource) Open(ctx context.Context) (io.ReadCloser, error) {
	rc, err := os.Open(string(f))
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", string(f), err)
	}
	return rc, nil
}

// Options controls delimited-file parsing.
type Options struct {
	Comma    rune // default ','
	NoHeader bool // synthesize column_N names and treat row one as data

	// SampleRows caps how many data rows Sample scans; <= 0 scans all.
	SampleRows int
}

func (o Options) comma() rune {
	if o.Comma == 0 {
		return ','
	}
	return o.Comma
}

// Result is the outcome of the sampling pass: one running summary per column.
type Result struct {
	Columns []*infer.ColumnState
	Rows    int  // data rows scanned
	Partial bool // true when SampleRows cut the scan short
}

// Sample scans up to opts.SampleRows data rows, feeding every cell into a
// per-column summary. Cell-level probing never fails; only I/O and ragged
// records surface as errors.
func Sample(r io.Reader, opts Options, inferOpts infer.Options) (*Result, error) {
	cr := csv.NewReader(r)
	cr.Comma = opts.comma()

	names, firstData, err := readHeader(cr, opts)
	if err != nil {
		return nil, err
	}

	s := &Result{Columns: make([]*infer.ColumnState, len(names))}
	for i, name := range names {
		s.Columns[i] = infer.NewColumnState(name, inferOpts)
	}

	if firstData != nil {
		if err := s.observe(firstData); err != nil {
			return nil, err
		}
	}

	for {
		if opts.SampleRows > 0 && s.Rows >= opts.SampleRows {
			// Peek one record: a file with exactly SampleRows rows was
			// scanned in full and must not report as truncated.
			if _, err := cr.Read(); err != io.EOF {
				s.Partial = true
			}
			return s, nil
		}
		record, err := cr.Read()
		if err == io.EOF {
			return s, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", s.Rows+1, err)
		}
		if err := s.observe(record); err != nil {
			return nil, err
		}
	}
}

func (s *Result) observe(record []string) error {
	if len(record) != len(s.Columns) {
		return fmt.Errorf("row %d has %d fields, want %d", s.Rows+1, len(record), len(s.Columns))
	}
	for i, cell := range record {
		s.Columns[i].Observe(cell)
	}
	s.Rows++
	return nil
}

// Stream reads every data row and hands it to fn, for the load pass.
func Stream(r io.Reader, opts Options, fn func(record []string) error) error {
	cr := csv.NewReader(r)
	cr.Comma = opts.comma()

	_, firstData, err := readHeader(cr, opts)
	if err != nil {
		return err
	}
	row := 0
	if firstData != nil {
		if err := fn(firstData); err != nil {
			return err
		}
		row++
	}

	for {
		record, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading row %d: %w", row+1, err)
		}
		if err := fn(record); err != nil {
			return err
		}
		row++
	}
}

// readHeader returns the column names plus, for headerless files, the first
// record (which is data and must be replayed by the caller).
func readHeader(cr *csv.Reader, opts Options) (names, firstData []string, err error) {
	first, err := cr.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("file is empty")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("reading header: %w", err)
	}
	if !opts.NoHeader {
		return first, nil, nil
	}
	names = make([]string, len(first))
	for i := range first {
		names[i] = fmt.Sprintf("column_%d", i+1)
	}
	return names, first, nil
}
