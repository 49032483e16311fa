// Package canonical defines the fixed family of column types that file
// inference and destination dialects share, plus the set and modifier
// structures built on top of them.
package canonical

import "fmt"

// Type is one member of the canonical column type family. Dialects map
// native type names onto these; inference produces them from raw text.
type Type int

const (
	Invalid Type = iota

	// Signed integers by width.
	TinyInt  // 8-bit
	SmallInt // 16-bit
	Integer  // 32-bit
	BigInt   // 64-bit

	// Floating point and exact numerics.
	Float   // single precision
	Double  // double precision
	Decimal // arbitrary precision

	Boolean

	// Temporal.
	Date
	Time
	TimestampTZ

	// Bounded text. Char/VarChar hold ASCII only; the N-variants hold any text.
	Char
	VarChar
	NChar
	NVarChar

	// Unbounded text. Clob holds ASCII only; NClob holds any text.
	Clob
	NClob

	Binary
)

var typeNames = map[Type]string{
	Invalid:     "invalid",
	TinyInt:     "tinyint",
	SmallInt:    "smallint",
	Integer:     "integer",
	BigInt:      "bigint",
	Float:       "float",
	Double:      "double",
	Decimal:     "decimal",
	Boolean:     "boolean",
	Date:        "date",
	Time:        "time",
	TimestampTZ: "timestamptz",
	Char:        "char",
	VarChar:     "varchar",
	NChar:       "nchar",
	NVarChar:    "nvarchar",
	Clob:        "clob",
	NClob:       "nclob",
	Binary:      "binary",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("type(%d)", int(t))
}

// Family groups canonical types for precedence and comparator dispatch.
type Family int

const (
	FamilyUnknown Family = iota
	FamilyNumeric
	FamilyBoolean
	FamilyTemporal
	FamilyText
	FamilyBinary
)

func (f Family) String() string {
	switch f {
	case FamilyNumeric:
		return "numeric"
	case FamilyBoolean:
		return "boolean"
	case FamilyTemporal:
		return "temporal"
	case FamilyText:
		return "text"
	case FamilyBinary:
		return "binary"
	}
	return "unknown"
}

// Family returns the family a type belongs to.
func (t Type) Family() Family {
	switch t {
	case TinyInt, SmallInt, Integer, BigInt, Float, Double, Decimal:
		return FamilyNumeric
	case Boolean:
		return FamilyBoolean
	case Date, Time, TimestampTZ:
		return FamilyTemporal
	case Char, VarChar, NChar, NVarChar, Clob, NClob:
		return FamilyText
	case Binary:
		return FamilyBinary
	}
	return FamilyUnknown
}

// IsInteger returns true for the fixed-width integer types.
func (t Type) IsInteger() bool {
	switch t {
	case TinyInt, SmallInt, Integer, BigInt:
		return true
	}
	return false
}

// IsText returns true for bounded and unbounded text types.
func (t Type) IsText() bool {
	return t.Family() == FamilyText
}

// IsBounded returns true for text types that carry a length limit.
func (t Type) IsBounded() bool {
	switch t {
	case Char, VarChar, NChar, NVarChar:
		return true
	}
	return false
}

// ASCIIOnly returns true for text types that cannot carry non-ASCII data.
func (t Type) ASCIIOnly() bool {
	switch t {
	case Char, VarChar, Clob:
		return true
	}
	return false
}

// numericRank orders numeric types by representable range/precision.
// A destination is "not strictly narrower" than a source when its rank
// is greater or equal.
var numericRank = map[Type]int{
	TinyInt:  1,
	SmallInt: 2,
	Integer:  3,
	BigInt:   4,
	Float:    5,
	Double:   6,
	Decimal:  7,
}

// NumericRank returns the widening rank of a numeric type, or 0 for
// non-numeric types.
func NumericRank(t Type) int {
	return numericRank[t]
}

// AllTypes lists every valid canonical type in declaration order.
func AllTypes() []Type {
	return []Type{
		TinyInt, SmallInt, Integer, BigInt,
		Float, Double, Decimal,
		Boolean,
		Date, Time, TimestampTZ,
		Char, VarChar, NChar, NVarChar,
		Clob, NClob,
		Binary,
	}
}
