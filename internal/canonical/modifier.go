package canonical

// Modifier carries per-column metrics accumulated while scanning values.
// Fields only ever grow: lengths and digit counts take the running maximum,
// flags are OR-ed. The zero value is a valid empty modifier.
type Modifier struct {
	MaxLength   int  // longest observed value, in runes
	Precision   int  // most integer-part digits observed on a numeric value
	Scale       int  // most fraction digits observed on a numeric value
	HasNonASCII bool // any observed value contained non-ASCII text
	Nullable    bool // any observed cell was null/empty
}

// Grow folds another modifier into this one, keeping maxima and OR-ing flags.
func (m *Modifier) Grow(other Modifier) {
	if other.MaxLength > m.MaxLength {
		m.MaxLength = other.MaxLength
	}
	if other.Precision > m.Precision {
		m.Precision = other.Precision
	}
	if other.Scale > m.Scale {
		m.Scale = other.Scale
	}
	m.HasNonASCII = m.HasNonASCII || other.HasNonASCII
	m.Nullable = m.Nullable || other.Nullable
}
