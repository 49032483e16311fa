// Package infer turns sampled raw cell text into candidate canonical types,
// folds per-cell candidates into per-column summaries, and resolves each
// summary into a single canonical type under a selectable strategy.
package infer

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tabload/tabload/internal/canonical"
)

// OpaqueTextType is the designated fail-open type adopted when a column's
// observations are irreconcilable (empty candidate intersection). NClob can
// hold any value the file produced, so ingestion never aborts on mixed data.
// Fixed for now; a future knob could make this configurable.
const OpaqueTextType = canonical.NClob

// Options controls probing behavior. Lexicons are a caller concern: the
// defaults match common CSV conventions but callers may substitute their own.
type Options struct {
	// NullLiterals are trimmed values treated as null in addition to the
	// empty string. Comparison is case-insensitive.
	NullLiterals []string

	// BoolLexicon lists accepted boolean literals, case-insensitive.
	BoolLexicon []string
}

// DefaultOptions returns the stock probing options.
func DefaultOptions() Options {
	return Options{
		BoolLexicon: []string{"true", "false", "yes", "no", "1", "0"},
	}
}

// IsNull reports whether the raw cell carries no value under these options.
func (o Options) IsNull(raw string) bool {
	s := strings.TrimSpace(raw)
	if s == "" {
		return true
	}
	for _, lit := range o.NullLiterals {
		if strings.EqualFold(s, lit) {
			return true
		}
	}
	return false
}

func (o Options) isBool(s string) bool {
	for _, lit := range o.BoolLexicon {
		if strings.EqualFold(s, lit) {
			return true
		}
	}
	return false
}

// decimalPattern accepts plain and scientific decimal literals.
var decimalPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// Layout ladders for the temporal grammars. Each grammar is tested
// independently: a value may satisfy several. The typed-conversion layer
// parses with these same ladders, so any literal that earns a temporal
// candidate here is guaranteed to convert at load time.
var (
	DateLayouts = []string{
		"2006-01-02", "2006/01/02", "2006.01.02",
		"01/02/2006", "1/2/2006",
		"Jan 2, 2006", "2 Jan 2006", "02-Jan-2006",
	}
	TimeLayouts = []string{
		"15:04:05.999999999",
		"15:04:05",
		"15:04",
		"3:04:05 PM",
		"3:04 PM",
	}
	TimestampLayouts = []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.999999999Z07:00",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04:05 -0700",
		"2006/01/02 15:04:05",
	}
)

func matchesAny(layouts []string, s string) bool {
	for _, layout := range layouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 127 {
			return false
		}
	}
	return true
}

// Probe returns the set of canonical types the raw text is a valid literal
// for. The input is assumed non-null; null cells carry no constraint and
// must be filtered by the caller (ColumnState.Observe does this).
func Probe(raw string, opts Options) canonical.Set {
	set, _ := probeValue(raw, opts)
	return set
}

// probeValue computes the candidate set plus the per-value metrics that feed
// the column's running modifier.
func probeValue(raw string, opts Options) (canonical.Set, canonical.Modifier) {
	s := strings.TrimSpace(raw)
	ascii := isASCII(s)

	mod := canonical.Modifier{
		MaxLength:   utf8.RuneCountInString(s),
		HasNonASCII: !ascii,
	}

	// Any text is long text; the N-variants cover non-ASCII content. The
	// ASCII-only bounded variants apply only to pure ASCII values.
	set := canonical.NewSet(canonical.Clob, canonical.NClob, canonical.NChar, canonical.NVarChar)
	if ascii {
		set.Add(canonical.Char)
		set.Add(canonical.VarChar)
	}

	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		addIntegerLadder(set, v)
	}

	if decimalPattern.MatchString(s) {
		set.Add(canonical.Decimal)
		mod.Precision, mod.Scale = digitCounts(s)
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) {
			set.Add(canonical.Double)
			if f >= -math.MaxFloat32 && f <= math.MaxFloat32 {
				set.Add(canonical.Float)
			}
		}
	}

	if opts.isBool(s) {
		set.Add(canonical.Boolean)
	}

	if matchesAny(DateLayouts, s) {
		set.Add(canonical.Date)
	}
	if matchesAny(TimeLayouts, s) {
		set.Add(canonical.Time)
	}
	if matchesAny(TimestampLayouts, s) {
		set.Add(canonical.TimestampTZ)
	}

	return set, mod
}

// addIntegerLadder adds every integer width the value fits; a value that
// fits int8 also fits all wider widths. Integer values are decimals too.
func addIntegerLadder(set canonical.Set, v int64) {
	set.Add(canonical.BigInt)
	if v >= math.MinInt32 && v <= math.MaxInt32 {
		set.Add(canonical.Integer)
	}
	if v >= math.MinInt16 && v <= math.MaxInt16 {
		set.Add(canonical.SmallInt)
	}
	if v >= math.MinInt8 && v <= math.MaxInt8 {
		set.Add(canonical.TinyInt)
	}
}

// digitCounts returns the integer-part and fraction-part digit counts of a
// decimal literal's mantissa.
func digitCounts(s string) (precision, scale int) {
	s = strings.TrimLeft(s, "+-")
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		s = s[:i]
	}
	intPart, fracPart, _ := strings.Cut(s, ".")
	intPart = strings.TrimLeft(intPart, "0")
	return len(intPart), len(fracPart)
}
