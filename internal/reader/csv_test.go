package reader

import (
	"strings"
	"testing"

	"github.com/tabload/tabload/internal/canonical"
	"github.com/tabload/tabload/internal/infer"
)

const ordersCSV = `id,name,amount,ordered_on
1,widget,19.99,2024-06-01
2,gadget,5.00,2024-06-02
3,doohickey,120.50,2024-06-03
`

func TestSample(t *testing.T) {
	res, err := Sample(strings.NewReader(ordersCSV), Options{}, infer.DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Rows != 3 || res.Partial {
		t.Fatalf("rows = %d partial = %v, want 3 rows complete", res.Rows, res.Partial)
	}

	names := make([]string, len(res.Columns))
	for i, c := range res.Columns {
		names[i] = c.Name()
	}
	want := []string{"id", "name", "amount", "ordered_on"}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("column %d = %q, want %q", i, names[i], want[i])
		}
	}

	if !res.Columns[0].Candidates().Contains(canonical.TinyInt) {
		t.Errorf("id candidates = %v", res.Columns[0].Candidates())
	}
	if !res.Columns[2].Candidates().Contains(canonical.Decimal) {
		t.Errorf("amount candidates = %v", res.Columns[2].Candidates())
	}
	if !res.Columns[3].Candidates().Contains(canonical.Date) {
		t.Errorf("ordered_on candidates = %v", res.Columns[3].Candidates())
	}
}

func TestSampleRowLimit(t *testing.T) {
	res, err := Sample(strings.NewReader(ordersCSV), Options{SampleRows: 2}, infer.DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Rows != 2 || !res.Partial {
		t.Errorf("rows = %d partial = %v, want 2 rows partial", res.Rows, res.Partial)
	}
}

func TestSampleExactLimitNotPartial(t *testing.T) {
	res, err := Sample(strings.NewReader(ordersCSV), Options{SampleRows: 3}, infer.DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Rows != 3 || res.Partial {
		t.Errorf("rows = %d partial = %v, want 3 rows complete", res.Rows, res.Partial)
	}
}

func TestSampleNoHeader(t *testing.T) {
	res, err := Sample(strings.NewReader("1,alpha\n2,beta\n"), Options{NoHeader: true}, infer.DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Rows != 2 {
		t.Errorf("rows = %d, want 2 (first row is data)", res.Rows)
	}
	if res.Columns[0].Name() != "column_1" || res.Columns[1].Name() != "column_2" {
		t.Errorf("synthesized names wrong: %q %q", res.Columns[0].Name(), res.Columns[1].Name())
	}
	if !res.Columns[0].Candidates().Contains(canonical.TinyInt) {
		t.Errorf("column_1 candidates = %v", res.Columns[0].Candidates())
	}
}

func TestSampleCustomDelimiter(t *testing.T) {
	res, err := Sample(strings.NewReader("a;b\n1;2\n"), Options{Comma: ';'}, infer.DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Columns) != 2 || res.Rows != 1 {
		t.Errorf("columns = %d rows = %d", len(res.Columns), res.Rows)
	}
}

func TestSampleRaggedRow(t *testing.T) {
	if _, err := Sample(strings.NewReader("a,b\n1\n"), Options{}, infer.DefaultOptions()); err == nil {
		t.Fatal("expected error for ragged row")
	}
}

func TestSampleEmptyFile(t *testing.T) {
	if _, err := Sample(strings.NewReader(""), Options{}, infer.DefaultOptions()); err == nil {
		t.Fatal("expected error for empty file")
	}
}

func TestStream(t *testing.T) {
	var rows [][]string
	err := Stream(strings.NewReader(ordersCSV), Options{}, func(record []string) error {
		rows = append(rows, append([]string(nil), record...))
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 3 || rows[0][1] != "widget" {
		t.Errorf("streamed rows = %v", rows)
	}
}

func TestStreamNoHeaderReplaysFirstRow(t *testing.T) {
	var rows [][]string
	err := Stream(strings.NewReader("1,alpha\n2,beta\n"), Options{NoHeader: true}, func(record []string) error {
		rows = append(rows, append([]string(nil), record...))
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 || rows[0][0] != "1" {
		t.Errorf("streamed rows = %v", rows)
	}
}
