package reward

import (
	"io"
	"log"
	"math"
	"testing"
	"time"
)

func newTestTimer() *Timer {
	return NewTimer(DefaultConfig(), log.New(io.Discard, "", 0))
}

func TestComboIncrementsInsideWindow(t *testing.T) {
	tm := newTestTimer()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	tm.RegisterEvent(base)
	tm.RegisterEvent(base.Add(2 * time.Second))
	st := tm.RegisterEvent(base.Add(7 * time.Second))
	if st.Count != 3 {
		t.Fatalf("expected combo 3, got %d", st.Count)
	}
	if got := tm.Multiplier(); math.Abs(got-1.3) > 1e-9 {
		t.Fatalf("multiplier = %f, want 1.3", got)
	}
	st = tm.RegisterEvent(base.Add(12*time.Second + time.Millisecond))
	if st.Count != 1 {
		t.Fatalf("gap over the window should reset to 1, got %d", st.Count)
	}
}

func TestComboMultiplierSaturates(t *testing.T) {
	tm := newTestTimer()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		tm.RegisterEvent(now.Add(time.Duration(i) * time.Second))
	}
	if got := tm.Multiplier(); got != 2 {
		t.Fatalf("multiplier should cap at 2, got %f", got)
	}
	tm.ResetCombo()
	if tm.Multiplier() != 1 {
		t.Fatal("reset combo should give multiplier 1")
	}
}

func TestMilestoneGrantedExactlyOnce(t *testing.T) {
	tm := newTestTimer()
	m, ok := tm.Achieve("first_blood")
	if !ok || m.Credits != 25 {
		t.Fatalf("first achieve should grant, got %+v %v", m, ok)
	}
	if _, ok := tm.Achieve("first_blood"); ok {
		t.Fatal("second achieve must not grant")
	}
	fired := tm.Check(Progress{KindEnemiesDefeated: 3})
	if len(fired) != 0 {
		t.Fatalf("already achieved milestone fired again: %+v", fired)
	}
}

func TestCheckFiresCrossedThresholds(t *testing.T) {
	tm := newTestTimer()
	fired := tm.Check(Progress{KindDepth: 95, KindEnemiesDefeated: 0})
	if len(fired) != 2 || fired[0].ID != "twilight_zone" || fired[1].ID != "abyss_walker" {
		t.Fatalf("unexpected milestones: %+v", fired)
	}
	if got := tm.AchievedIDs(); len(got) != 2 || got[0] != "abyss_walker" {
		t.Fatalf("achieved ids = %v", got)
	}
	if again := tm.Check(Progress{KindDepth: 99}); len(again) != 0 {
		t.Fatalf("re-check fired %+v", again)
	}
}

func TestRestoreKeepsUnknownIDs(t *testing.T) {
	tm := newTestTimer()
	tm.Restore([]string{"hunter", "retired_milestone", ""})
	if !tm.Achieved("hunter") || !tm.Achieved("retired_milestone") {
		t.Fatal("restored ids should be achieved")
	}
	if _, ok := tm.Achieve("hunter"); ok {
		t.Fatal("restored milestone must not grant again")
	}
	if tm.Define(Milestone{ID: "retired_milestone", Kind: KindDepth, Threshold: 1}) != true {
		t.Fatal("late definition should register")
	}
	if fired := tm.Check(Progress{KindDepth: 5}); len(fired) != 0 {
		t.Fatalf("restored id re-fired: %+v", fired)
	}
}

func TestDuplicateDefinitionIgnored(t *testing.T) {
	tm := newTestTimer()
	if tm.Define(Milestone{ID: "hunter", Kind: KindDepth, Threshold: 1}) {
		t.Fatal("duplicate id should be rejected")
	}
	if m, _ := tm.Milestone("hunter"); m.Kind != KindEnemiesDefeated {
		t.Fatal("original definition should win")
	}
}
