package replay

import (
	"testing"
	"time"

	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/economy"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/engine"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/penalty"
)

// helper: engine with a ledger and a 100ms tick.
func newEngine(t *testing.T) (*engine.Engine, *Ledger) {
	t.Helper()
	f := &Fixture{PlayerID: "p1", Config: FixtureConfig{TickMS: 100, StageDelay: 1}}
	eng, ledger, err := f.Engine(quiet)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	return eng, ledger
}

// 1. The clock lands exactly on each event offset, even off the tick grid.
func TestReplay_ClockFollowsEvents(t *testing.T) {
	eng, _ := newEngine(t)
	events := []Event{
		{At: 250 * time.Millisecond, Kind: KindWait},
		{At: 1 * time.Second, Kind: KindWait},
	}
	if _, err := Replay(eng, events); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if eng.Elapsed() != time.Second {
		t.Fatalf("elapsed = %s", eng.Elapsed())
	}
}

// 2. Out-of-order events fail without applying the late one.
func TestReplay_RejectsUnsortedEvents(t *testing.T) {
	eng, _ := newEngine(t)
	events := []Event{
		{At: 2 * time.Second, Kind: KindWait},
		{At: time.Second, Kind: KindDeath, Depth: 10},
	}
	results, err := Replay(eng, events)
	if err == nil {
		t.Fatal("expected error for unsorted events")
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	if eng.Difficulty().Snapshot(0).Samples != 0 {
		t.Fatal("the late death should not have been recorded")
	}
}

// 3. Unknown kinds stop the replay.
func TestReplay_UnknownKind(t *testing.T) {
	eng, _ := newEngine(t)
	if _, err := Replay(eng, []Event{{Kind: "teleport"}}); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

// 4. The staged penalty lands in the ledger once its continuations are due.
func TestReplay_StagedPenaltyReachesLedger(t *testing.T) {
	eng, ledger := newEngine(t)
	events := []Event{
		{At: 0, Kind: KindDiveStart, ID: "d1"},
		{At: 0, Kind: KindDepth, Depth: 30},
		{At: time.Second, Kind: KindPenalty, Depth: 30, Cause: "combat"},
		{At: 2500 * time.Millisecond, Kind: KindWait},
		{At: 3500 * time.Millisecond, Kind: KindWait},
	}
	results, err := Replay(eng, events)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if results[2].Penalty == nil || !results[2].Penalty.Applied {
		t.Fatalf("penalty result = %+v", results[2].Penalty)
	}
	if ledger.Cues["death_flash"] != 1 || ledger.Cues["penalty_tally"] != 1 {
		t.Fatalf("cues = %v", ledger.Cues)
	}
	if len(ledger.Penalties) != 1 || ledger.Penalties[0].DiveID != "d1" {
		t.Fatalf("penalties = %+v", ledger.Penalties)
	}
}

// 5. A new dive drops the staged penalty of the previous one.
func TestReplay_NewDiveDropsPenalty(t *testing.T) {
	eng, ledger := newEngine(t)
	events := []Event{
		{At: 0, Kind: KindDiveStart, ID: "d1"},
		{At: time.Second, Kind: KindPenalty, Depth: 30},
		{At: 1500 * time.Millisecond, Kind: KindDiveStart, ID: "d2"},
		{At: 5 * time.Second, Kind: KindWait},
	}
	if _, err := Replay(eng, events); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if len(ledger.Penalties) != 0 || ledger.Cues["penalty_tally"] != 0 {
		t.Fatalf("stale penalty applied: %+v %v", ledger.Penalties, ledger.Cues)
	}
}

// 6. Insurance and resources pass through with their parsed values.
func TestReplay_ResourceAndInsurance(t *testing.T) {
	eng, _ := newEngine(t)
	events := []Event{
		{At: 0, Kind: KindDiveStart, ID: "d1"},
		{At: 0, Kind: KindInsurance, Insurance: penalty.InsurancePremium, ID: "d1"},
		{At: 0, Kind: KindResource, Depth: 0, Resource: economy.ResourceProfile{ID: "kelp", BaseValue: 10}},
	}
	results, err := Replay(eng, events)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if eng.Penalty().Insurance() != penalty.InsurancePremium {
		t.Fatalf("insurance = %s", eng.Penalty().Insurance())
	}
	if results[2].Value <= 0 || results[2].Combo != 1 {
		t.Fatalf("resource result = %+v", results[2])
	}
}

// 7. Summaries count what the ticks and events did.
func TestSummarize(t *testing.T) {
	eng, ledger := newEngine(t)
	events := []Event{
		{At: 0, Kind: KindDeath, Depth: 5},
		{At: 0, Kind: KindSuccess, Depth: 5, Duration: time.Minute},
		{At: 0, Kind: KindKill, ID: "eel", Credits: 10},
	}
	results, err := Replay(eng, events)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	s := Summarize(results, eng, ledger)
	if s.TotalEvents != 3 || s.Deaths != 1 || s.Successes != 1 {
		t.Fatalf("summary = %+v", s)
	}
	if len(s.Milestones) != 1 || s.Milestones[0] != "first_blood" {
		t.Fatalf("milestones = %v", s.Milestones)
	}
	if s.Credits != ledger.Credits || s.Credits == 0 {
		t.Fatalf("credits = %d", s.Credits)
	}
}
