package economy

import (
	"io"
	"log"
	"math"
	"testing"
	"time"
)

type stubRisk struct {
	rate float64
	ok   bool
}

func (s stubRisk) DeathRateAtDepth(float64) (float64, bool) { return s.rate, s.ok }

func quietLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func TestValueScenario(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MarketRange = 0
	v := NewValuator(cfg, nil, quietLogger())

	res := ResourceProfile{ID: "pearl", BaseValue: 100, Rarity: Rare}
	b := v.Breakdown(res, 80)
	if math.Abs(b.DepthBonus-2.0) > 1e-9 {
		t.Errorf("depth bonus = %f, want 2.0", b.DepthBonus)
	}
	if math.Abs(b.Risk-1.15) > 1e-9 {
		t.Errorf("risk = %f, want 1.15", b.Risk)
	}
	if b.Market != 1.0 {
		t.Errorf("market = %f, want 1.0", b.Market)
	}
	if b.Value != 575 {
		t.Fatalf("value = %d, want 575", b.Value)
	}
}

func TestRiskSourceOverridesFallback(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MarketRange = 0
	v := NewValuator(cfg, stubRisk{rate: 0.6, ok: true}, quietLogger())
	if got := v.RiskMultiplier(10); math.Abs(got-1.3) > 1e-9 {
		t.Fatalf("risk multiplier = %f, want 1.3", got)
	}
	v.SetRiskSource(stubRisk{ok: false})
	if got := v.RiskMultiplier(10); math.Abs(got-1.025) > 1e-9 {
		t.Fatalf("fallback risk multiplier = %f, want 1.025", got)
	}
}

func TestMarketFactorLazyAndStable(t *testing.T) {
	v := NewValuator(DefaultConfig(), nil, quietLogger())
	lo, hi := v.Bounds()
	f := v.MarketFactor("iron")
	if f < lo || f > hi {
		t.Fatalf("seeded factor %f outside [%f,%f]", f, lo, hi)
	}
	if v.MarketFactor("iron") != f {
		t.Fatal("factor should not change without a walk")
	}
}

func TestMarketFactorBoundedUnderWalks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MarketStep = 0.1 // aggressive steps to hit the bounds often
	v := NewValuator(cfg, nil, quietLogger())
	ids := []string{"iron", "gold", "pearl", "coral", "obsidian"}
	for _, id := range ids {
		v.MarketFactor(id)
	}
	lo, hi := v.Bounds()
	for i := 0; i < 10000; i++ {
		v.Walk()
		for _, id := range ids {
			f := v.MarketFactor(id)
			if f < lo || f > hi {
				t.Fatalf("walk %d: %s factor %f outside [%f,%f]", i, id, f, lo, hi)
			}
		}
	}
}

func TestTickWalksOnInterval(t *testing.T) {
	v := NewValuator(DefaultConfig(), nil, quietLogger())
	v.MarketFactor("iron")
	if v.Tick(119 * time.Second) {
		t.Fatal("walked early")
	}
	if !v.Tick(time.Second) {
		t.Fatal("expected walk at 120s")
	}
}

func TestEpochAndRestore(t *testing.T) {
	v := NewValuator(DefaultConfig(), nil, quietLogger())
	v.MarketFactor("iron")
	v.Walk()
	st := v.MarketState()

	other := NewValuator(DefaultConfig(), nil, quietLogger())
	other.RestoreMarket(st)
	if other.MarketFactor("iron") != v.MarketFactor("iron") {
		t.Fatal("restored factor differs")
	}
	v.Walk()
	other.Walk()
	if other.MarketFactor("iron") != v.MarketFactor("iron") {
		t.Fatal("restored rng should continue the same walk")
	}

	st.Factors["gold"] = 9
	other.RestoreMarket(st)
	if _, hi := other.Bounds(); other.MarketFactor("gold") != hi {
		t.Fatal("out-of-range factor should clamp on restore")
	}

	v.NewEpoch(7)
	if len(v.MarketState().Factors) != 0 {
		t.Fatal("new epoch should clear factors")
	}
	if v.MarketState().Epoch != 1 {
		t.Fatal("epoch should advance")
	}
}

func TestRestoreEmptyMarketKeepsConfiguredSeed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 42
	v := NewValuator(cfg, nil, quietLogger())
	v.RestoreMarket(MarketState{Epoch: 3})

	st := v.MarketState()
	if st.Seed != 42 || st.Position != 0 {
		t.Fatalf("market rng = seed %d position %d, want seed 42 untouched", st.Seed, st.Position)
	}
	if st.Epoch != 3 {
		t.Fatalf("epoch = %d, want 3", st.Epoch)
	}

	ref := NewValuator(cfg, nil, quietLogger())
	if v.MarketFactor("iron") != ref.MarketFactor("iron") {
		t.Fatal("first factor should come from the configured stream")
	}
}

func TestParseRarity(t *testing.T) {
	r, ok := ParseRarity("Legendary")
	if !ok || r != Legendary {
		t.Fatalf("got %v %v", r, ok)
	}
	if _, ok := ParseRarity("mythic"); ok {
		t.Fatal("unknown rarity should not parse")
	}
}
