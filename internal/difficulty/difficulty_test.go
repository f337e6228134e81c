package difficulty

import (
	"io"
	"log"
	"math"
	"math/rand"
	"testing"
	"time"
)

func newTestController(t *testing.T) *Controller {
	t.Helper()
	return New(DefaultConfig(), log.New(io.Discard, "", 0))
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestBaseCurveEndpoints(t *testing.T) {
	c := newTestController(t)
	if got := c.BaseCurve(0); !approx(got, 1) {
		t.Fatalf("BaseCurve(0) = %f, want 1", got)
	}
	if got := c.BaseCurve(100); !approx(got, 3) {
		t.Fatalf("BaseCurve(100) = %f, want 3", got)
	}
	if got := c.BaseCurve(250); !approx(got, 3) {
		t.Fatalf("BaseCurve should saturate past MaxDepth, got %f", got)
	}
	if got := c.BaseCurve(math.NaN()); !approx(got, 1) {
		t.Fatalf("NaN depth should clamp to 0, got %f", got)
	}
}

func TestDifficultyMonotonicInDepth(t *testing.T) {
	c := newTestController(t)
	c.Restore(0.9, 1.3)
	prev := c.DifficultyAtDepth(0)
	for d := 0.5; d <= 100; d += 0.5 {
		cur := c.DifficultyAtDepth(d)
		if cur < prev {
			t.Fatalf("difficulty decreased at depth %.1f: %f < %f", d, cur, prev)
		}
		prev = cur
	}
}

func TestHighDeathRateLowersTarget(t *testing.T) {
	c := newTestController(t)
	for i := 0; i < 10; i++ {
		if i < 8 {
			c.RecordDeath(90, CauseCombat)
		} else {
			c.RecordSuccess(700*time.Second, 90)
		}
	}
	prior := c.SkillFactor()
	ev := c.Evaluate()
	if !approx(ev.DeathRate, 0.8) {
		t.Fatalf("expected death rate 0.8, got %f", ev.DeathRate)
	}
	if !approx(ev.Target, prior-0.15) {
		t.Fatalf("expected target %f, got %f", prior-0.15, ev.Target)
	}
	if !(c.SkillFactor() < prior) {
		t.Fatalf("skill factor should decrease, got %f", c.SkillFactor())
	}
	// smoothing: one step of rate 0.1 toward 0.85
	if !approx(c.SkillFactor(), 0.985) {
		t.Fatalf("expected smoothed skill 0.985, got %f", c.SkillFactor())
	}
	for i := 0; i < 200; i++ {
		c.Evaluate()
	}
	if math.Abs(c.SkillFactor()-0.85) > 1e-6 {
		t.Fatalf("expected convergence to 0.85, got %f", c.SkillFactor())
	}
	if c.SkillFactor() < 0.8 {
		t.Fatal("skill factor below floor")
	}
}

func TestLowDeathRateAndFastCompletionRaiseTarget(t *testing.T) {
	c := newTestController(t)
	for i := 0; i < 10; i++ {
		c.RecordSuccess(200*time.Second, 40)
	}
	ev := c.Evaluate()
	if !approx(ev.Target, 1.15) {
		t.Fatalf("expected target 1.15, got %f", ev.Target)
	}
}

func TestTooFewSamplesKeepsNeutralTarget(t *testing.T) {
	c := newTestController(t)
	c.RecordDeath(10, CauseOxygen)
	c.RecordDeath(10, CauseOxygen)
	ev := c.Evaluate()
	if !approx(ev.Target, 1.0) {
		t.Fatalf("expected neutral target with 2 samples, got %f", ev.Target)
	}
}

func TestDynamicAdjustmentFollowsSkill(t *testing.T) {
	c := newTestController(t)
	c.Restore(0.85, 1.0)
	c.Evaluate() // no samples, target 1.0; skill 0.865 < 0.9
	if !approx(c.DynamicAdjustment(), 0.95) {
		t.Fatalf("expected dynamic 0.95, got %f", c.DynamicAdjustment())
	}
	c.Restore(1.0, 1.2)
	c.Evaluate()
	if !approx(c.DynamicAdjustment(), 1.15) {
		t.Fatalf("expected decay toward 1.0, got %f", c.DynamicAdjustment())
	}
}

func TestTickRunsOnInterval(t *testing.T) {
	c := newTestController(t)
	for i := 0; i < 299; i++ {
		if _, ran := c.Tick(time.Second); ran {
			t.Fatalf("evaluated early at %ds", i+1)
		}
	}
	if _, ran := c.Tick(time.Second); !ran {
		t.Fatal("expected evaluation at 300s")
	}
	if c.Snapshot(0).Evaluations != 1 {
		t.Fatal("expected one evaluation")
	}
}

func TestBoundsHoldUnderRandomSequences(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	c := newTestController(t)
	cfg := c.Config()
	for i := 0; i < 5000; i++ {
		switch r.Intn(4) {
		case 0:
			c.RecordDeath(r.Float64()*100, CauseCombat)
		case 1:
			c.RecordSuccess(time.Duration(r.Intn(1200))*time.Second, r.Float64()*100)
		case 2:
			c.Evaluate()
		case 3:
			c.ApplyRelief(r.Float64())
		}
		s, d := c.SkillFactor(), c.DynamicAdjustment()
		if s < cfg.SkillMin || s > cfg.SkillMax {
			t.Fatalf("skill out of bounds at step %d: %f", i, s)
		}
		if d < cfg.DynamicMin || d > cfg.DynamicMax {
			t.Fatalf("dynamic out of bounds at step %d: %f", i, d)
		}
	}
}

func TestApplyReliefBounded(t *testing.T) {
	c := newTestController(t)
	step := c.ApplyRelief(5)
	if !approx(step, 0.2) {
		t.Fatalf("expected relief capped at 0.2, got %f", step)
	}
	if !approx(c.DynamicAdjustment(), 0.8) {
		t.Fatalf("expected dynamic 0.8, got %f", c.DynamicAdjustment())
	}
}

func TestResetBumpsEpoch(t *testing.T) {
	c := newTestController(t)
	c.Restore(1.2, 1.4)
	e := c.Epoch()
	c.Reset()
	if c.Epoch() == e {
		t.Fatal("epoch should change on reset")
	}
	if c.SkillFactor() != 1 || c.DynamicAdjustment() != 1 {
		t.Fatal("reset should restore neutral factors")
	}
}

func TestLayers(t *testing.T) {
	c := newTestController(t)
	cases := []struct {
		depth float64
		want  Layer
	}{{0, LayerShallow}, {24.9, LayerShallow}, {25, LayerMid}, {60, LayerDeep}, {75, LayerAbyss}, {150, LayerAbyss}}
	for _, tc := range cases {
		if got := c.Layer(tc.depth); got != tc.want {
			t.Errorf("Layer(%v) = %v, want %v", tc.depth, got, tc.want)
		}
	}
	if c.LayerMultiplier(LayerAbyss) != 2.0 {
		t.Error("abyss multiplier should be 2.0")
	}
}

func TestInvalidConfigFallsBack(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxDepth = 0
	cfg.SkillMin = 2
	c := New(cfg, log.New(io.Discard, "", 0))
	if c.Config().MaxDepth != 100 {
		t.Fatalf("expected default max depth, got %f", c.Config().MaxDepth)
	}
	if c.Config().SkillMin != 0.8 {
		t.Fatalf("expected default skill min, got %f", c.Config().SkillMin)
	}
}
