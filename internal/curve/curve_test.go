package curve

import (
	"errors"
	"math"
	"testing"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestEvaluateInterpolates(t *testing.T) {
	c, err := New(Keyframe{0, 1}, Keyframe{0.5, 2}, Keyframe{1, 4})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	cases := []struct{ t, want float64 }{
		{0, 1}, {0.25, 1.5}, {0.5, 2}, {0.75, 3}, {1, 4},
		{-1, 1}, {2, 4},
	}
	for _, tc := range cases {
		if got := c.Evaluate(tc.t); !approx(got, tc.want) {
			t.Errorf("Evaluate(%v) = %v, want %v", tc.t, got, tc.want)
		}
	}
}

func TestNewSortsAndDedupes(t *testing.T) {
	c, err := New(Keyframe{1, 10}, Keyframe{0, 0}, Keyframe{1, 20})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	keys := c.Keys()
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(keys))
	}
	if keys[1].V != 20 {
		t.Fatalf("expected duplicate T to keep last value, got %v", keys[1].V)
	}
}

func TestMalformedFallsBackToIdentity(t *testing.T) {
	bad := [][]Keyframe{
		nil,
		{{math.NaN(), 1}},
		{{0, math.Inf(1)}},
		{{1.5, 1}},
	}
	for i, keys := range bad {
		c, err := New(keys...)
		if !errors.Is(err, ErrMalformed) {
			t.Errorf("case %d: expected ErrMalformed, got %v", i, err)
		}
		if got := c.Evaluate(0.3); !approx(got, 0.3) {
			t.Errorf("case %d: expected identity, got %v", i, got)
		}
	}
}

func TestZeroValueIsIdentity(t *testing.T) {
	var c Curve
	if got := c.Evaluate(0.7); !approx(got, 0.7) {
		t.Fatalf("zero curve should be identity, got %v", got)
	}
}

func TestHelpers(t *testing.T) {
	if Clamp01(math.NaN()) != 0 {
		t.Error("NaN should clamp to 0")
	}
	if MoveTowards(1.0, 0.9, 0.05) != 0.95 {
		t.Error("MoveTowards should step by 0.05")
	}
	if MoveTowards(1.0, 1.02, 0.05) != 1.02 {
		t.Error("MoveTowards should snap when within step")
	}
	if Constant(3).Evaluate(0.9) != 3 {
		t.Error("constant curve")
	}
	if !approx(Linear(2, 4).Evaluate(0.5), 3) {
		t.Error("linear curve")
	}
}
