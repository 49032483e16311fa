package dialect

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tabload/tabload/internal/canonical"
	"github.com/tabload/tabload/internal/infer"
	"github.com/tabload/tabload/internal/schema"
)

var trueWords = map[string]struct{}{
	"true": {}, "t": {}, "yes": {}, "y": {}, "1": {}, "on": {},
}

var falseWords = map[string]struct{}{
	"false": {}, "f": {}, "no": {}, "n": {}, "0": {}, "off": {},
}

// ConvertRow turns one raw CSV record into driver-ready values following the
// resolved column types. isNull decides whether a raw cell represents NULL;
// nulls become untyped nils.
func ConvertRow(record []string, cols []schema.ColumnDefinition, isNull func(string) bool) ([]any, error) {
	if len(record) != len(cols) {
		return nil, fmt.Errorf("record has %d fields, schema has %d columns", len(record), len(cols))
	}
	out := make([]any, len(record))
	for i, raw := range record {
		if isNull(raw) {
			out[i] = nil
			continue
		}
		v, err := ConvertValue(raw, cols[i].Type)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", cols[i].Name, err)
		}
		out[i] = v
	}
	return out, nil
}

// ConvertValue parses one non-null raw cell into the Go value a database
// driver expects for the given canonical type.
func ConvertValue(raw string, typ canonical.Type) (any, error) {
	s := strings.TrimSpace(raw)
	switch typ {
	case canonical.TinyInt, canonical.SmallInt, canonical.Integer, canonical.BigInt:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse integer %q: %w", raw, err)
		}
		return n, nil

	case canonical.Float, canonical.Double:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("parse float %q: %w", raw, err)
		}
		return f, nil

	case canonical.Decimal:
		// Arbitrary precision survives the trip as text; every driver
		// accepts a string for NUMERIC parameters.
		return s, nil

	case canonical.Boolean:
		w := strings.ToLower(s)
		if _, ok := trueWords[w]; ok {
			return true, nil
		}
		if _, ok := falseWords[w]; ok {
			return false, nil
		}
		return nil, fmt.Errorf("parse boolean %q: unrecognized literal", raw)

	case canonical.Date:
		for _, layout := range infer.DateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return nil, fmt.Errorf("parse date %q: no layout matched", raw)

	case canonical.Time:
		for _, layout := range infer.TimeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.Format("15:04:05.999999999"), nil
			}
		}
		return nil, fmt.Errorf("parse time %q: no layout matched", raw)

	case canonical.TimestampTZ:
		for _, layout := range infer.TimestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return nil, fmt.Errorf("parse timestamp %q: no layout matched", raw)

	case canonical.Binary:
		return []byte(raw), nil

	case canonical.Char, canonical.VarChar, canonical.NChar, canonical.NVarChar,
		canonical.Clob, canonical.NClob:
		return raw, nil
	}
	return nil, fmt.Errorf("unsupported destination type %s", typ)
}
