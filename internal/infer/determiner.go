package infer

import (
	"fmt"

	"github.com/tabload/tabload/internal/canonical"
	"github.com/tabload/tabload/internal/schema"
)

// Strategy resolves a finished candidate set plus modifier into exactly one
// canonical type. When multiple unrelated families remain candidates the
// precedence is always numeric, then boolean, then temporal, then text.
type Strategy interface {
	Name() string
	Pick(candidates canonical.Set, mod canonical.Modifier) canonical.Type
}

// StrategyByName returns the strategy for a config/CLI name.
func StrategyByName(name string) (Strategy, error) {
	switch name {
	case "widest", "widest-fit", "":
		return WidestFit{}, nil
	case "narrowest", "narrowest-fit":
		return NarrowestFit{}, nil
	}
	return nil, fmt.Errorf("unknown strategy %q (want widest or narrowest)", name)
}

// Resolve turns a column's finished summary into a file-side column
// definition carrying both the resolved type and the full candidate set.
func Resolve(state *ColumnState, strat Strategy) schema.ColumnDefinition {
	return schema.ColumnDefinition{
		Name:       state.Name(),
		Type:       strat.Pick(state.Candidates(), state.Modifier()),
		Candidates: state.Candidates().Clone(),
		Modifier:   state.Modifier(),
	}
}

// WidestFit prefers the candidate able to represent the largest range or
// precision, so no sampled value loses fidelity in storage.
type WidestFit struct{}

func (WidestFit) Name() string { return "widest" }

// Preference ladders, widest first.
var (
	widestNumeric = []canonical.Type{
		canonical.Decimal, canonical.Double, canonical.Float,
		canonical.BigInt, canonical.Integer, canonical.SmallInt, canonical.TinyInt,
	}
	widestTemporal = []canonical.Type{canonical.TimestampTZ, canonical.Date, canonical.Time}

	narrowestNumeric = []canonical.Type{
		canonical.TinyInt, canonical.SmallInt, canonical.Integer, canonical.BigInt,
		canonical.Float, canonical.Double, canonical.Decimal,
	}
	narrowestTemporal = []canonical.Type{canonical.Time, canonical.Date, canonical.TimestampTZ}
)

func firstPresent(order []canonical.Type, candidates canonical.Set) (canonical.Type, bool) {
	for _, t := range order {
		if candidates.Contains(t) {
			return t, true
		}
	}
	return canonical.Invalid, false
}

func (WidestFit) Pick(candidates canonical.Set, mod canonical.Modifier) canonical.Type {
	if t, ok := firstPresent(widestNumeric, candidates); ok {
		return t
	}
	if candidates.Contains(canonical.Boolean) {
		return canonical.Boolean
	}
	if t, ok := firstPresent(widestTemporal, candidates); ok {
		return t
	}
	if candidates.Contains(canonical.Binary) {
		return canonical.Binary
	}
	return unboundedText(candidates, mod)
}

// NarrowestFit chooses the smallest adequate width within each family,
// minimizing storage when the caller trusts the sample to be representative.
// The intersection rule already guarantees every remaining candidate can
// represent every sampled value, so picking the narrowest never truncates.
type NarrowestFit struct{}

func (NarrowestFit) Name() string { return "narrowest" }

func (NarrowestFit) Pick(candidates canonical.Set, mod canonical.Modifier) canonical.Type {
	if t, ok := firstPresent(narrowestNumeric, candidates); ok {
		return t
	}
	if candidates.Contains(canonical.Boolean) {
		return canonical.Boolean
	}
	if t, ok := firstPresent(narrowestTemporal, candidates); ok {
		return t
	}
	if candidates.Contains(canonical.Binary) {
		return canonical.Binary
	}

	// Bounded text beats unbounded where the sample allows it.
	var bounded []canonical.Type
	if mod.HasNonASCII {
		bounded = []canonical.Type{canonical.NVarChar, canonical.NChar}
	} else {
		bounded = []canonical.Type{canonical.VarChar, canonical.Char, canonical.NVarChar, canonical.NChar}
	}
	if t, ok := firstPresent(bounded, candidates); ok {
		return t
	}
	return unboundedText(candidates, mod)
}

// unboundedText is the shared text fallback: CLOB, or NCLOB when any sampled
// value carried non-ASCII. A column with zero non-null observations lands
// here too (flag false, so CLOB). When the candidate set survived a fail-open
// collapse it may hold only the opaque type; candidates win over the flag.
func unboundedText(candidates canonical.Set, mod canonical.Modifier) canonical.Type {
	if mod.HasNonASCII {
		return canonical.NClob
	}
	if candidates.Len() > 0 && !candidates.Contains(canonical.Clob) && candidates.Contains(canonical.NClob) {
		return canonical.NClob
	}
	return canonical.Clob
}
