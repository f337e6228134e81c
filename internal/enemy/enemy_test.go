package enemy

import (
	"io"
	"log"
	"math"
	"testing"
)

type fixedDifficulty float64

func (f fixedDifficulty) DifficultyAtDepth(float64) float64 { return float64(f) }

func quietLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

var crawler = BaseProfile{
	ID:              "crawler",
	BaseHealth:      100,
	BaseDamage:      10,
	BaseSpeed:       3,
	BaseAttackSpeed: 1,
	BaseXP:          20,
	BaseCredits:     5,
	BaseSpawnWeight: 1,
	MinSpawnDepth:   10,
}

func TestScaleStatsAppliesCurvesAndDifficulty(t *testing.T) {
	s := NewScaler(DefaultConfig(), fixedDifficulty(2), quietLogger())
	st := s.ScaleStats(crawler, 100)
	if !approx(st.Health, 100*2.5*2) {
		t.Errorf("health = %f, want 500", st.Health)
	}
	if !approx(st.Damage, 10*2.0*2) {
		t.Errorf("damage = %f, want 40", st.Damage)
	}
	if !approx(st.Speed, 3*1.3) {
		t.Errorf("speed should not carry difficulty, got %f", st.Speed)
	}
	if !approx(st.XP, 20*3*2) || !approx(st.Credits, 5*2.5*2) {
		t.Errorf("rewards = %f/%f", st.XP, st.Credits)
	}
	if st.PatrolRadius != 0 || st.AttackRange != 0 {
		t.Error("plain profile should not get patrol radius or range")
	}
}

func TestScaleStatsNilSource(t *testing.T) {
	s := NewScaler(DefaultConfig(), nil, quietLogger())
	st := s.ScaleStats(crawler, 0)
	if !approx(st.Health, 100) {
		t.Fatalf("expected base health at depth 0, got %f", st.Health)
	}
}

func TestCapabilityInterfaces(t *testing.T) {
	s := NewScaler(DefaultConfig(), nil, quietLogger())
	patrol := PatrolProfile{BaseProfile: crawler, Radius: 10}
	st := s.ScaleStats(patrol, 100)
	if !approx(st.PatrolRadius, 15) {
		t.Errorf("patrol radius = %f, want 15", st.PatrolRadius)
	}
	ranged := RangedProfile{BaseProfile: crawler, Range: 8}
	st = s.ScaleStats(ranged, 0)
	if !approx(st.AttackRange, 8) {
		t.Errorf("attack range = %f, want 8", st.AttackRange)
	}
}

func TestCanSpawn(t *testing.T) {
	s := NewScaler(DefaultConfig(), nil, quietLogger())
	if s.CanSpawn(crawler, 5) {
		t.Error("crawler should not spawn above min depth")
	}
	if !s.CanSpawn(crawler, 10) {
		t.Error("crawler should spawn at min depth")
	}
}

func TestEliteChanceAndTransform(t *testing.T) {
	s := NewScaler(DefaultConfig(), nil, quietLogger())
	if !approx(s.EliteChance(0), 0.05) || !approx(s.EliteChance(100), 0.30) {
		t.Fatalf("elite chance endpoints: %f %f", s.EliteChance(0), s.EliteChance(100))
	}
	if !approx(s.EliteChance(50), 0.175) {
		t.Fatalf("elite chance midpoint: %f", s.EliteChance(50))
	}
	base := s.ScaleStats(crawler, 0)
	e := s.ApplyElite(base)
	if !approx(e.Health, base.Health*2) || !approx(e.Damage, base.Damage*1.5) ||
		!approx(e.Speed, base.Speed*1.2) || !approx(e.AttackSpeed, base.AttackSpeed*1.3) ||
		!approx(e.XP, base.XP*2) || !approx(e.Credits, base.Credits*2) {
		t.Fatalf("unexpected elite stats: %+v", e)
	}
	if again := s.ApplyElite(e); again != e {
		t.Fatal("elite transform should not stack")
	}
}

func TestBossPhaseSelection(t *testing.T) {
	s := NewScaler(DefaultConfig(), nil, quietLogger())
	s.RegisterBoss("leviathan", []BossPhase{
		{Name: "enraged", Threshold: 0.3},
		{Name: "calm", Threshold: 1.0},
		{Name: "agitated", Threshold: 0.6},
		{Name: "dying", Threshold: 0},
	})
	cases := []struct {
		hf   float64
		want string
	}{{1.0, "calm"}, {0.8, "agitated"}, {0.6, "agitated"}, {0.45, "enraged"}, {0.1, "dying"}, {0, "dying"}}
	for _, tc := range cases {
		p, ok := s.CurrentBossPhase("leviathan", tc.hf)
		if !ok || p.Name != tc.want {
			t.Errorf("hf=%.2f: got %q (ok=%v), want %q", tc.hf, p.Name, ok, tc.want)
		}
	}
}

func TestBossMissingCatchAllIsAppended(t *testing.T) {
	s := NewScaler(DefaultConfig(), nil, quietLogger())
	s.RegisterBoss("warden", []BossPhase{
		{Name: "one", Threshold: 0.8},
		{Name: "two", Threshold: 0.4},
		{Name: "dup", Threshold: 0.4},
	})
	phases := s.BossPhases("warden")
	if len(phases) != 3 {
		t.Fatalf("expected 3 phases, got %d", len(phases))
	}
	for i := 1; i < len(phases); i++ {
		if !(phases[i].Threshold < phases[i-1].Threshold) {
			t.Fatalf("thresholds not strictly decreasing: %+v", phases)
		}
	}
	p, ok := s.CurrentBossPhase("warden", 0)
	if !ok || p.Threshold != 0 || p.Name != "two-final" {
		t.Fatalf("expected catch-all at health 0, got %+v", p)
	}
}

func TestBossEmptyPhasesStillDefined(t *testing.T) {
	s := NewScaler(DefaultConfig(), nil, quietLogger())
	s.RegisterBoss("empty", nil)
	if _, ok := s.CurrentBossPhase("empty", 0); !ok {
		t.Fatal("expected a defined phase at health 0")
	}
	if _, ok := s.CurrentBossPhase("unknown", 0); ok {
		t.Fatal("unknown boss should report ok=false")
	}
}
