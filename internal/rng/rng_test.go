package rng

import "testing"

func TestRNG_Deterministic(t *testing.T) {
	a := New(42)
	b := New(42)
	for i := 0; i < 20; i++ {
		if x, y := a.Float64(), b.Float64(); x != y {
			t.Fatalf("draw %d: got %f and %f from same seed", i, x, y)
		}
	}
}

func TestRNG_RangeBounds(t *testing.T) {
	r := New(7)
	for i := 0; i < 1000; i++ {
		v := r.Range(0.85, 1.15)
		if v < 0.85 || v >= 1.15 {
			t.Fatalf("value out of range: %f", v)
		}
	}
}

func TestRNG_RestoreMatchesPosition(t *testing.T) {
	orig := New(99)
	for i := 0; i < 17; i++ {
		orig.Float64()
	}
	restored := Restore(orig.Seed(), orig.Position())
	if restored.Position() != 17 {
		t.Fatalf("expected position 17, got %d", restored.Position())
	}
	for i := 0; i < 10; i++ {
		if x, y := orig.Float64(), restored.Float64(); x != y {
			t.Fatalf("draw %d after restore differs: %f vs %f", i, x, y)
		}
	}
}

func TestRNG_ChanceEdges(t *testing.T) {
	r := New(1)
	for i := 0; i < 100; i++ {
		if r.Chance(0) {
			t.Fatal("p=0 should never succeed")
		}
		if !r.Chance(1) {
			t.Fatal("p=1 should always succeed")
		}
	}
}
