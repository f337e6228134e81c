package journey

import (
	"testing"
	"time"
)

var t0 = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

func TestAdvanceInOrder(t *testing.T) {
	tr := NewTracker(t0)
	if _, ok := tr.Advance(EventFirstDive, t0.Add(time.Minute)); !ok {
		t.Fatal("first dive should enter onboarding")
	}
	step, ok := tr.Advance(EventMissionCompleted, t0.Add(time.Hour))
	if !ok || step.From != Onboarding || step.To != Engagement {
		t.Fatalf("unexpected transition %+v", step)
	}
	if at, _ := tr.EnteredAt(Onboarding); !at.Equal(t0.Add(time.Minute)) {
		t.Fatalf("onboarding stamp = %v", at)
	}
}

func TestNeverRegresses(t *testing.T) {
	tr := NewTracker(t0)
	tr.Advance(EventMissionCompleted, t0.Add(time.Hour))
	if _, ok := tr.Advance(EventFirstDive, t0.Add(2*time.Hour)); ok {
		t.Fatal("first dive after engagement must not move the tracker")
	}
	if tr.Current() != Engagement {
		t.Fatalf("stage regressed to %s", tr.Current())
	}
	if _, ok := tr.Advance(EventMissionCompleted, t0.Add(3*time.Hour)); ok {
		t.Fatal("repeating the same event must not re-enter")
	}
	if at, _ := tr.EnteredAt(Engagement); !at.Equal(t0.Add(time.Hour)) {
		t.Fatal("entry stamp must be recorded once")
	}
}

func TestSkippedStagesStampedTogether(t *testing.T) {
	tr := NewTracker(t0)
	at := t0.Add(time.Hour)
	step, ok := tr.Advance(EventBossDefeated, at)
	if !ok || step.To != Mastery || len(step.Entered) != 4 {
		t.Fatalf("unexpected transition %+v", step)
	}
	for s := Onboarding; s <= Mastery; s++ {
		if got, ok := tr.EnteredAt(s); !ok || !got.Equal(at) {
			t.Fatalf("stage %s stamp = %v %v", s, got, ok)
		}
	}
	if _, ok := tr.EnteredAt(Champion); ok {
		t.Fatal("champion not reached yet")
	}
}

func TestRestoreDropsFutureStamps(t *testing.T) {
	tr := NewTracker(t0)
	tr.Restore(Engagement, map[Stage]time.Time{
		Discovery:  t0,
		Onboarding: t0.Add(time.Minute),
		Mastery:    t0.Add(time.Hour),
	})
	if tr.Current() != Engagement {
		t.Fatal("restored stage wrong")
	}
	if _, ok := tr.EnteredAt(Mastery); ok {
		t.Fatal("stamp beyond current stage should be dropped")
	}
	step, _ := tr.Advance(EventDeepReached, t0.Add(2*time.Hour))
	if len(step.Entered) != 1 || step.Entered[0] != Proficiency {
		t.Fatalf("entered = %v", step.Entered)
	}
}

func TestUnknownEvent(t *testing.T) {
	tr := NewTracker(t0)
	if _, ok := tr.Advance(Event("dance"), t0); ok {
		t.Fatal("unknown event should be ignored")
	}
	if s, ok := ParseStage("Champion"); !ok || s != Champion {
		t.Fatal("parse stage")
	}
}
