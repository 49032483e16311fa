package infer

import (
	"math/rand"
	"testing"

	"github.com/tabload/tabload/internal/canonical"
)

func observeAll(s *ColumnState, values []string) {
	for _, v := range values {
		s.Observe(v)
	}
}

func TestObserveAdoptsFirstSet(t *testing.T) {
	s := NewColumnState("c", DefaultOptions())
	if s.Candidates().Len() != 0 || s.Observations() != 0 {
		t.Fatal("fresh state should be unconstrained")
	}

	s.Observe("42")
	if s.Observations() != 1 {
		t.Fatalf("observations = %d, want 1", s.Observations())
	}
	if !s.Candidates().Contains(canonical.TinyInt) {
		t.Errorf("candidates = %v, want integer ladder present", s.Candidates())
	}
}

func TestObserveNarrowsByIntersection(t *testing.T) {
	s := NewColumnState("c", DefaultOptions())
	s.Observe("42")  // fits int8
	s.Observe("300") // needs int16

	if s.Candidates().Contains(canonical.TinyInt) {
		t.Errorf("TinyInt should be dropped after observing 300: %v", s.Candidates())
	}
	if !s.Candidates().Contains(canonical.SmallInt) {
		t.Errorf("SmallInt should survive: %v", s.Candidates())
	}
}

func TestObserveNullIsNoOpinion(t *testing.T) {
	s := NewColumnState("c", DefaultOptions())
	s.Observe("")
	s.Observe("2024-06-01")
	s.Observe("   ")

	if !s.Modifier().Nullable {
		t.Error("null cells should set Nullable")
	}
	if s.Observations() != 1 {
		t.Errorf("observations = %d, want 1", s.Observations())
	}
	if !s.Candidates().Contains(canonical.Date) {
		t.Errorf("null cells must not erode constraints: %v", s.Candidates())
	}
}

func TestObserveFailOpen(t *testing.T) {
	// A date cell and a number cell still share the text candidates, so the
	// intersection survives without collapsing.
	s := NewColumnState("c", DefaultOptions())
	s.Observe("2024-06-01")
	s.Observe("42")
	if !s.Candidates().Contains(canonical.NClob) || s.Candidates().Contains(canonical.Date) {
		t.Errorf("mixed date/number should keep only text candidates: %v", s.Candidates())
	}

	// Force an empty intersection: a state narrowed to the date family alone
	// meeting a cell with no date-compatible candidates.
	s2 := NewColumnState("c2", DefaultOptions())
	s2.candidates = canonical.NewSet(canonical.Date)
	s2.observed = 1
	s2.Observe("not a date at all, just text")

	if !s2.Candidates().Equal(canonical.NewSet(OpaqueTextType)) {
		t.Errorf("empty intersection should fall open to %v, got %v", OpaqueTextType, s2.Candidates())
	}

	// Fail-open is sticky but never errors on further input.
	s2.Observe("2024-06-01")
	if !s2.Candidates().Contains(OpaqueTextType) {
		t.Errorf("opaque fallback should survive further rows: %v", s2.Candidates())
	}
}

func TestObserveNeverEmptyAfterNonNull(t *testing.T) {
	values := []string{"a", "42", "2024-01-02", "true", "3.14", "héllo"}
	s := NewColumnState("c", DefaultOptions())
	for _, v := range values {
		s.Observe(v)
		if s.Candidates().Len() == 0 {
			t.Fatalf("candidate set empty after observing %q", v)
		}
	}
}

func TestCombinationIsOrderInsensitive(t *testing.T) {
	values := []string{"1", "42", "-7", "300", "2.5", "", "100000", "9", "0"}
	strat := NarrowestFit{}

	base := NewColumnState("c", DefaultOptions())
	observeAll(base, values)
	want := Resolve(base, strat)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 25; i++ {
		shuffled := append([]string(nil), values...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		s := NewColumnState("c", DefaultOptions())
		observeAll(s, shuffled)
		got := Resolve(s, strat)

		if got.Type != want.Type || !got.Candidates.Equal(want.Candidates) {
			t.Fatalf("order %v resolved to %v %v, want %v %v",
				shuffled, got.Type, got.Candidates, want.Type, want.Candidates)
		}
	}
}

func TestMergeMatchesSequentialObserve(t *testing.T) {
	values := []string{"12", "900", "-4", "77", "32000", "5"}

	seq := NewColumnState("c", DefaultOptions())
	observeAll(seq, values)

	left := NewColumnState("c", DefaultOptions())
	right := NewColumnState("c", DefaultOptions())
	observeAll(left, values[:3])
	observeAll(right, values[3:])
	left.Merge(right)

	if !left.Candidates().Equal(seq.Candidates()) {
		t.Errorf("merged candidates %v != sequential %v", left.Candidates(), seq.Candidates())
	}
	if left.Observations() != seq.Observations() {
		t.Errorf("merged observations %d != sequential %d", left.Observations(), seq.Observations())
	}
	if left.Modifier() != seq.Modifier() {
		t.Errorf("merged modifier %+v != sequential %+v", left.Modifier(), seq.Modifier())
	}
}

func TestMergeWithUnobservedShard(t *testing.T) {
	a := NewColumnState("c", DefaultOptions())
	a.Observe("42")

	empty := NewColumnState("c", DefaultOptions())
	empty.Observe("") // nullable only

	a.Merge(empty)
	if !a.Candidates().Contains(canonical.TinyInt) {
		t.Errorf("merging an unobserved shard must not erode candidates: %v", a.Candidates())
	}
	if !a.Modifier().Nullable {
		t.Error("nullability should propagate through merge")
	}

	b := NewColumnState("c", DefaultOptions())
	b.Merge(a)
	if !b.Candidates().Equal(a.Candidates()) {
		t.Errorf("empty state should adopt the other shard: %v vs %v", b.Candidates(), a.Candidates())
	}
}
