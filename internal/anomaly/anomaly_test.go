package anomaly

import (
	"io"
	"log"
	"testing"
	"time"
)

var t0 = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

func newTestDetector() *Detector {
	return NewDetector(DefaultDetectorConfig(), log.New(io.Discard, "", 0))
}

func TestFrequentDeathFiresWithinWindow(t *testing.T) {
	d := newTestDetector()
	if _, ok := d.RecordDeath(t0); ok {
		t.Fatal("one death should not fire")
	}
	d.RecordDeath(t0.Add(30 * time.Second))
	det, ok := d.RecordDeath(t0.Add(90 * time.Second))
	if !ok {
		t.Fatal("third death inside 120s should fire")
	}
	if det.PainPoint.Kind != KindFrequentDeath || det.PainPoint.Count != 3 {
		t.Fatalf("unexpected pain point %+v", det.PainPoint)
	}
	if det.Mitigation.Relief != 0.1 || det.Mitigation.Hint == "" {
		t.Fatalf("unexpected mitigation %+v", det.Mitigation)
	}
}

func TestFrequentDeathIgnoresSpreadDeaths(t *testing.T) {
	d := newTestDetector()
	d.RecordDeath(t0)
	d.RecordDeath(t0.Add(100 * time.Second))
	if _, ok := d.RecordDeath(t0.Add(200 * time.Second)); ok {
		t.Fatal("deaths spread beyond the window should not fire")
	}
	if n := d.DeathsInWindow(t0.Add(200 * time.Second)); n != 2 {
		t.Fatalf("expected 2 deaths in window, got %d", n)
	}
}

func TestFrequentDeathCooldown(t *testing.T) {
	d := newTestDetector()
	for i := 0; i < 3; i++ {
		d.RecordDeath(t0.Add(time.Duration(i) * 10 * time.Second))
	}
	if _, ok := d.RecordDeath(t0.Add(40 * time.Second)); ok {
		t.Fatal("should not fire again inside the cooldown")
	}
	at := t0.Add(20*time.Second + 300*time.Second)
	d.RecordDeath(at.Add(-20 * time.Second))
	d.RecordDeath(at.Add(-10 * time.Second))
	if _, ok := d.RecordDeath(at); !ok {
		t.Fatal("should fire again after the cooldown")
	}
}

func TestMissionStuckFiresOnceUntilSuccess(t *testing.T) {
	d := newTestDetector()
	d.RecordMissionFailure("salvage-7", t0)
	d.RecordMissionFailure("other", t0)
	d.RecordMissionFailure("salvage-7", t0)
	det, ok := d.RecordMissionFailure("salvage-7", t0)
	if !ok || det.PainPoint.MissionID != "salvage-7" || det.PainPoint.Count != 3 {
		t.Fatalf("expected stuck detection, got %+v %v", det, ok)
	}
	if _, ok := d.RecordMissionFailure("salvage-7", t0); ok {
		t.Fatal("stuck should fire once until success")
	}
	d.RecordMissionSuccess("salvage-7", t0)
	if d.Attempts("salvage-7") != 0 {
		t.Fatal("success should clear attempts")
	}
	for i := 0; i < 2; i++ {
		d.RecordMissionFailure("salvage-7", t0)
	}
	if _, ok := d.RecordMissionFailure("salvage-7", t0); !ok {
		t.Fatal("should re-arm after success")
	}
}

func TestNoProgress(t *testing.T) {
	d := newTestDetector()
	d.Tick(t0)
	if _, ok := d.Tick(t0.Add(599 * time.Second)); ok {
		t.Fatal("fired early")
	}
	det, ok := d.Tick(t0.Add(600 * time.Second))
	if !ok || det.PainPoint.Kind != KindNoProgress || det.Mitigation.EncounterNudge != 0.1 {
		t.Fatalf("expected no-progress detection, got %+v %v", det, ok)
	}
	if _, ok := d.Tick(t0.Add(1300 * time.Second)); ok {
		t.Fatal("should fire once until progress")
	}
	d.RecordProgress(t0.Add(1300 * time.Second))
	if _, ok := d.Tick(t0.Add(1900 * time.Second)); !ok {
		t.Fatal("should re-arm after progress")
	}
}
