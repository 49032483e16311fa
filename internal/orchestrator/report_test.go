package orchestrator

import (
	"bytes"
	"strings"
	"testing"

	"github.com/tabload/tabload/internal/canonical"
	"github.com/tabload/tabload/internal/compare"
	"github.com/tabload/tabload/internal/logging"
	"github.com/tabload/tabload/internal/schema"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logging.SetOutput(&buf)
	logging.SetFormat("text")
	logging.SetLevel(logging.LevelInfo)
	t.Cleanup(func() { logging.SetOutput(nil) })
	return &buf
}

func TestReportDiff(t *testing.T) {
	buf := captureLog(t)

	fileSchema := &schema.TableSchema{
		Name: "t",
		Columns: []schema.ColumnDefinition{
			{Name: "id", Type: canonical.Integer},
			{Name: "ghost", Type: canonical.NVarChar},
		},
	}
	diff := &compare.SchemaDiffResult{
		Columns: []compare.ColumnDiff{
			{Name: "id", Result: compare.CompareColumnResult{TypeMatched: true, CanLoad: true}},
			{Name: "ghost", Unmatched: true},
		},
		ConstraintsEqual: true,
	}
	ReportDiff(fileSchema, diff)

	out := buf.String()
	if !strings.Contains(out, "OK") {
		t.Errorf("matched column not reported OK:\n%s", out)
	}
	if !strings.Contains(out, "MISSING in destination") {
		t.Errorf("unmatched column not reported:\n%s", out)
	}
}

func TestReportDiffTruncatesLongNames(t *testing.T) {
	buf := captureLog(t)

	long := strings.Repeat("c", 40)
	fileSchema := &schema.TableSchema{
		Name:    "t",
		Columns: []schema.ColumnDefinition{{Name: long, Type: canonical.Integer}},
	}
	diff := &compare.SchemaDiffResult{
		Columns: []compare.ColumnDiff{
			{Name: long, Result: compare.CompareColumnResult{TypeMatched: true, CanLoad: true}},
		},
		ConstraintsEqual: true,
		NoDifference:     true,
	}
	ReportDiff(fileSchema, diff)

	out := buf.String()
	if strings.Contains(out, long) {
		t.Errorf("long column name not clipped:\n%s", out)
	}
	if !strings.Contains(out, strings.Repeat("c", 27)+"...") {
		t.Errorf("clipped name missing:\n%s", out)
	}
}
