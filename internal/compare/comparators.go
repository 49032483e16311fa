package compare

import (
	"strings"

	"github.com/tabload/tabload/internal/canonical"
	"github.com/tabload/tabload/internal/schema"
)

var numericTypes = canonical.NewSet(
	canonical.TinyInt, canonical.SmallInt, canonical.Integer, canonical.BigInt,
	canonical.Float, canonical.Double, canonical.Decimal,
)

var temporalTypes = canonical.NewSet(canonical.Date, canonical.Time, canonical.TimestampTZ)

var textTypes = canonical.NewSet(
	canonical.Char, canonical.VarChar, canonical.NChar, canonical.NVarChar,
	canonical.Clob, canonical.NClob,
)

// numericComparator handles numeric-to-numeric pairings. The destination is
// loadable whenever it is not strictly narrower than the source on the fixed
// widening ladder; equal rank is loadable, exact identity is a type match.
type numericComparator struct{}

func (*numericComparator) SourceTypes() canonical.Set      { return numericTypes }
func (*numericComparator) DestinationTypes() canonical.Set { return numericTypes }
func (*numericComparator) MatchesCandidates() bool         { return true }

func (*numericComparator) Compare(file, table schema.ColumnDefinition) CompareColumnResult {
	src := file.Type
	if canonical.NumericRank(src) == 0 {
		// Selected via candidate intersection: the column resolved to another
		// family but sampled numeric-shaped values. Hold the destination to
		// the widest numeric candidate observed.
		for t := range file.Candidates {
			if canonical.NumericRank(t) > canonical.NumericRank(src) {
				src = t
			}
		}
		if canonical.NumericRank(src) == 0 {
			return CompareColumnResult{}
		}
	}
	return CompareColumnResult{
		TypeMatched: file.Type == table.Type,
		CanLoad:     canonical.NumericRank(table.Type) >= canonical.NumericRank(src),
	}
}

// textComparator handles every source type against text destinations; any
// value renders as a text literal. Bounded destinations must be long enough
// and ASCII-only destinations reject columns that sampled non-ASCII text.
type textComparator struct{}

func (*textComparator) SourceTypes() canonical.Set      { return nil } // any
func (*textComparator) DestinationTypes() canonical.Set { return textTypes }
func (*textComparator) MatchesCandidates() bool         { return false }

func (*textComparator) Compare(file, table schema.ColumnDefinition) CompareColumnResult {
	res := CompareColumnResult{TypeMatched: file.Type == table.Type, CanLoad: true}
	if table.Type.ASCIIOnly() && file.Modifier.HasNonASCII {
		res.CanLoad = false
	}
	if table.Type.IsBounded() && table.Modifier.MaxLength > 0 &&
		file.Modifier.MaxLength > table.Modifier.MaxLength {
		res.CanLoad = false
	}
	return res
}

// timestampComparator handles any source against a timestamp destination.
// Temporal storage representations always differ from generic text/temporal
// input at the literal level, so a pairing only counts as type-matched when
// both sides carry the same destination-native type name. Loadability
// requires a temporal resolved type or at least one temporal candidate;
// everything else (numerics included) is rejected.
type timestampComparator struct{}

func (*timestampComparator) SourceTypes() canonical.Set { return nil } // any
func (*timestampComparator) DestinationTypes() canonical.Set {
	return canonical.NewSet(canonical.TimestampTZ)
}
func (*timestampComparator) MatchesCandidates() bool { return false }

func (*timestampComparator) Compare(file, table schema.ColumnDefinition) CompareColumnResult {
	return CompareColumnResult{
		TypeMatched: file.NativeType != "" && strings.EqualFold(file.NativeType, table.NativeType),
		CanLoad:     temporalTypes.Contains(file.Type) || file.Candidates.Intersects(temporalTypes),
	}
}

// dateComparator: type-matched only on exact date identity; loadable when the
// source resolved to date or saw date-shaped values.
type dateComparator struct{}

func (*dateComparator) SourceTypes() canonical.Set      { return nil } // any
func (*dateComparator) DestinationTypes() canonical.Set { return canonical.NewSet(canonical.Date) }
func (*dateComparator) MatchesCandidates() bool         { return false }

func (*dateComparator) Compare(file, table schema.ColumnDefinition) CompareColumnResult {
	return CompareColumnResult{
		TypeMatched: file.Type == canonical.Date && table.Type == canonical.Date,
		CanLoad:     file.Type == canonical.Date || file.Candidates.Contains(canonical.Date),
	}
}

// timeComparator: type-matched only on exact time identity; loadable when the
// source resolved to time, or time is among its candidates. The candidate
// clause covers columns narrowed to a different family that still saw some
// time-shaped values.
type timeComparator struct{}

func (*timeComparator) SourceTypes() canonical.Set      { return nil } // any
func (*timeComparator) DestinationTypes() canonical.Set { return canonical.NewSet(canonical.Time) }
func (*timeComparator) MatchesCandidates() bool         { return false }

func (*timeComparator) Compare(file, table schema.ColumnDefinition) CompareColumnResult {
	return CompareColumnResult{
		TypeMatched: file.Type == canonical.Time && table.Type == canonical.Time,
		CanLoad:     file.Type == canonical.Time || file.Candidates.Contains(canonical.Time),
	}
}

// booleanComparator: identity match; loadable when boolean was resolved or
// sampled.
type booleanComparator struct{}

func (*booleanComparator) SourceTypes() canonical.Set { return nil } // any
func (*booleanComparator) DestinationTypes() canonical.Set {
	return canonical.NewSet(canonical.Boolean)
}
func (*booleanComparator) MatchesCandidates() bool { return false }

func (*booleanComparator) Compare(file, table schema.ColumnDefinition) CompareColumnResult {
	return CompareColumnResult{
		TypeMatched: file.Type == canonical.Boolean && table.Type == canonical.Boolean,
		CanLoad:     file.Type == canonical.Boolean || file.Candidates.Contains(canonical.Boolean),
	}
}

// binaryComparator: binary destinations accept binary sources only.
type binaryComparator struct{}

func (*binaryComparator) SourceTypes() canonical.Set      { return nil } // any
func (*binaryComparator) DestinationTypes() canonical.Set { return canonical.NewSet(canonical.Binary) }
func (*binaryComparator) MatchesCandidates() bool         { return false }

func (*binaryComparator) Compare(file, table schema.ColumnDefinition) CompareColumnResult {
	return CompareColumnResult{
		TypeMatched: file.Type == canonical.Binary && table.Type == canonical.Binary,
		CanLoad:     file.Type == canonical.Binary || file.Candidates.Contains(canonical.Binary),
	}
}
