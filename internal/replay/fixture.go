package replay

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"
	"slices"
	"time"

	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/difficulty"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/economy"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/engine"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/logging"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/pacing"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/penalty"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/state"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description     string                  `json:"description"`
	PlayerID        string                  `json:"player_id"`
	Start           time.Time               `json:"start"`
	Profile         *state.Profile          `json:"profile,omitempty"`
	Config          FixtureConfig           `json:"config"`
	Events          []FixtureEvent          `json:"events"`
	ExpectedResults []FixtureExpectedResult `json:"expected_results"`
}

// FixtureConfig overrides the engine defaults for a replay run.
type FixtureConfig struct {
	TickMS             int64   `json:"tick_ms,omitempty"`
	EvaluationInterval float64 `json:"evaluation_interval_s,omitempty"`
	StageDelay         float64 `json:"stage_delay_s,omitempty"`
	MarketSeed         int64   `json:"market_seed,omitempty"`
	PacingSeed         int64   `json:"pacing_seed,omitempty"`
	PenaltiesDisabled  bool    `json:"penalties_disabled,omitempty"`
}

// FixtureEvent is the JSON form of Event.
type FixtureEvent struct {
	AtMS      int64   `json:"at_ms"`
	Type      string  `json:"type"`
	Depth     float64 `json:"depth,omitempty"`
	Cause     string  `json:"cause,omitempty"`
	DurationS float64 `json:"duration_s,omitempty"`
	ID        string  `json:"id,omitempty"`
	BaseValue float64 `json:"base_value,omitempty"`
	MinDepth  float64 `json:"min_depth,omitempty"`
	Rarity    string  `json:"rarity,omitempty"`
	Credits   int     `json:"credits,omitempty"`
	XP        int     `json:"xp,omitempty"`
	Boss      bool    `json:"boss,omitempty"`
	Survived  bool    `json:"survived,omitempty"`
	Activity  string  `json:"activity,omitempty"`
	Tier      string  `json:"tier,omitempty"`
}

// FixtureExpectedResult lists the checks for one event. Unset fields are
// not checked.
type FixtureExpectedResult struct {
	Index      int      `json:"index"`
	Stage      string   `json:"journey_stage,omitempty"`
	Skill      *float64 `json:"skill_factor,omitempty"`
	Dynamic    *float64 `json:"dynamic_adjustment,omitempty"`
	Difficulty *float64 `json:"difficulty,omitempty"`
	Combo      *int     `json:"combo,omitempty"`
	Milestones []string `json:"milestones,omitempty"`
	Penalty    *bool    `json:"penalty_applied,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// WriteFixture writes f as indented JSON.
func WriteFixture(path string, f *Fixture) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("encode fixture: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write fixture %s: %w", path, err)
	}
	return nil
}

// EngineConfig applies the fixture overrides to base.
func (fc FixtureConfig) EngineConfig(base engine.Config) engine.Config {
	if fc.TickMS > 0 {
		base.TickRate = time.Duration(fc.TickMS) * time.Millisecond
	}
	if fc.EvaluationInterval > 0 {
		base.Difficulty.EvaluationInterval = seconds(fc.EvaluationInterval)
	}
	if fc.StageDelay > 0 {
		base.PenaltyStageDelay = seconds(fc.StageDelay)
	}
	if fc.MarketSeed != 0 {
		base.Economy.Seed = fc.MarketSeed
	}
	if fc.PacingSeed != 0 {
		base.Pacing.Seed = fc.PacingSeed
	}
	if fc.PenaltiesDisabled {
		base.Penalty.Enabled = false
	}
	return base
}

// ToEvent converts and validates a fixture event.
func (fe FixtureEvent) ToEvent() (Event, error) {
	ev := Event{
		At:       time.Duration(fe.AtMS) * time.Millisecond,
		Kind:     Kind(fe.Type),
		Depth:    fe.Depth,
		Cause:    difficulty.DeathCause(fe.Cause),
		Duration: seconds(fe.DurationS),
		ID:       fe.ID,
		Credits:  fe.Credits,
		XP:       fe.XP,
		Boss:     fe.Boss,
		Survived: fe.Survived,
	}
	if fe.AtMS < 0 {
		return ev, fmt.Errorf("%s: negative at_ms", fe.Type)
	}
	if ev.Cause == "" {
		ev.Cause = difficulty.CauseUnknown
	}
	switch ev.Kind {
	case KindResource:
		ev.Resource = economy.ResourceProfile{ID: fe.ID, BaseValue: fe.BaseValue, MinDepth: fe.MinDepth}
		if fe.Rarity != "" {
			r, ok := economy.ParseRarity(fe.Rarity)
			if !ok {
				return ev, fmt.Errorf("resource %s: unknown rarity %q", fe.ID, fe.Rarity)
			}
			ev.Resource.Rarity = r
		}
	case KindActivity:
		a, ok := pacing.ParseActivity(fe.Activity)
		if !ok {
			return ev, fmt.Errorf("unknown activity %q", fe.Activity)
		}
		ev.Activity = a
	case KindInsurance:
		tier, ok := penalty.ParseInsurance(fe.Tier)
		if !ok {
			return ev, fmt.Errorf("unknown insurance tier %q", fe.Tier)
		}
		ev.Insurance = tier
	}
	return ev, nil
}

// ToEvents converts every fixture event.
func (f *Fixture) ToEvents() ([]Event, error) {
	events := make([]Event, 0, len(f.Events))
	for i, fe := range f.Events {
		ev, err := fe.ToEvent()
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		events = append(events, ev)
	}
	return events, nil
}

// Engine builds the engine for a fixture run with a Ledger standing in for
// the collaborators.
func (f *Fixture) Engine(logger *log.Logger) (*engine.Engine, *Ledger, error) {
	player := f.PlayerID
	if player == "" {
		player = "replay"
	}
	start := f.Start
	if start.IsZero() {
		start = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	ledger := NewLedger()
	eng := engine.New(f.Config.EngineConfig(engine.DefaultConfig()), engine.Options{
		PlayerID: player,
		Start:    start,
		Logger:   logger,
		Collaborators: engine.Collaborators{
			Inventory: ledger,
			Notifier:  ledger,
			Unlocks:   ledger,
			Cues:      ledger,
			Analytics: ledger,
		},
	})
	if f.Profile != nil {
		p := *f.Profile
		p.PlayerID = player
		if err := eng.Restore(p); err != nil {
			return nil, nil, fmt.Errorf("restore fixture profile: %w", err)
		}
	}
	return eng, ledger, nil
}

// Run replays the fixture and returns the results with the summary.
func (f *Fixture) Run(logger *log.Logger) ([]Result, Summary, error) {
	events, err := f.ToEvents()
	if err != nil {
		return nil, Summary{}, err
	}
	eng, ledger, err := f.Engine(logger)
	if err != nil {
		return nil, Summary{}, err
	}
	results, err := Replay(eng, events)
	if err != nil {
		return results, Summary{}, err
	}
	return results, Summarize(results, eng, ledger), nil
}

// #endregion fixture-loader

// #region fixture-check

const tolerance = 1e-6

// Check compares results against the expectations and returns one line per
// mismatch.
func Check(results []Result, expected []FixtureExpectedResult) []string {
	var diffs []string
	for _, exp := range expected {
		if exp.Index < 0 || exp.Index >= len(results) {
			diffs = append(diffs, fmt.Sprintf("event %d: no result (%d events replayed)", exp.Index, len(results)))
			continue
		}
		r := results[exp.Index]
		bad := func(field string, want, got any) {
			diffs = append(diffs, fmt.Sprintf("event %d (%s): %s = %v, want %v", r.Index, r.Kind, field, got, want))
		}
		if exp.Stage != "" && exp.Stage != r.Stage {
			bad("journey_stage", exp.Stage, r.Stage)
		}
		if exp.Skill != nil && math.Abs(*exp.Skill-r.Skill) > tolerance {
			bad("skill_factor", *exp.Skill, r.Skill)
		}
		if exp.Dynamic != nil && math.Abs(*exp.Dynamic-r.Dynamic) > tolerance {
			bad("dynamic_adjustment", *exp.Dynamic, r.Dynamic)
		}
		if exp.Difficulty != nil && math.Abs(*exp.Difficulty-r.Difficulty) > tolerance {
			bad("difficulty", *exp.Difficulty, r.Difficulty)
		}
		if exp.Combo != nil && *exp.Combo != r.Combo {
			bad("combo", *exp.Combo, r.Combo)
		}
		if exp.Milestones != nil && !slices.Equal(exp.Milestones, r.Milestones) {
			bad("milestones", exp.Milestones, r.Milestones)
		}
		if exp.Penalty != nil {
			got := r.Penalty != nil && r.Penalty.Applied
			if *exp.Penalty != got {
				bad("penalty_applied", *exp.Penalty, got)
			}
		}
	}
	return diffs
}

// Expect records every result as an expectation, for seeding a fixture
// from a known-good run.
func Expect(results []Result) []FixtureExpectedResult {
	out := make([]FixtureExpectedResult, 0, len(results))
	for _, r := range results {
		skill, dynamic, diff, combo := r.Skill, r.Dynamic, r.Difficulty, r.Combo
		exp := FixtureExpectedResult{
			Index:      r.Index,
			Stage:      r.Stage,
			Skill:      &skill,
			Dynamic:    &dynamic,
			Difficulty: &diff,
			Combo:      &combo,
			Milestones: r.Milestones,
		}
		if r.Penalty != nil {
			applied := r.Penalty.Applied
			exp.Penalty = &applied
		}
		out = append(out, exp)
	}
	return out
}

// #endregion fixture-check

// #region fixture-export

// FromEntries rebuilds an event stream from analytics rows ordered by time.
// Offsets are relative to the first row. Rows that are engine output, such
// as evaluations and milestones, are skipped.
func FromEntries(entries []logging.Entry) []FixtureEvent {
	if len(entries) == 0 {
		return nil
	}
	origin := entries[0].CreatedAt
	var out []FixtureEvent
	session := ""
	depth := 0.0

	for _, e := range entries {
		at := e.CreatedAt.Sub(origin).Milliseconds()
		if at < 0 {
			at = 0
		}
		if e.SessionID != "" && e.SessionID != session {
			session = e.SessionID
			out = append(out, FixtureEvent{AtMS: at, Type: string(KindSessionStart), ID: session})
		}
		if e.Event != logging.EventDiveEnd && e.Depth > depth {
			depth = e.Depth
			out = append(out, FixtureEvent{AtMS: at, Type: string(KindDepth), Depth: depth})
		}

		ev := FixtureEvent{AtMS: at, Depth: e.Depth}
		switch e.Event {
		case logging.EventDiveStart:
			ev.Type = string(KindDiveStart)
			ev.ID = fieldString(e.Fields, "dive_id")
			depth = 0
		case logging.EventDiveEnd:
			ev.Type = string(KindDiveEnd)
			ev.Survived = fieldBool(e.Fields, "survived")
		case logging.EventDeath:
			ev.Type = string(KindDeath)
			ev.Cause = fieldString(e.Fields, "cause")
		case logging.EventSuccess:
			ev.Type = string(KindSuccess)
			ev.DurationS = fieldNumber(e.Fields, "duration_s")
		case logging.EventPenalty:
			ev.Type = string(KindPenalty)
			ev.Cause = fieldString(e.Fields, "cause")
		case logging.EventResource:
			ev.Type = string(KindResource)
			ev.ID = fieldString(e.Fields, "resource_id")
			ev.BaseValue = fieldNumber(e.Fields, "base_value")
			ev.MinDepth = fieldNumber(e.Fields, "min_depth")
			ev.Rarity = fieldString(e.Fields, "rarity")
		case logging.EventEnemy:
			ev.Type = string(KindKill)
			ev.ID = fieldString(e.Fields, "enemy_id")
			ev.Boss = fieldBool(e.Fields, "boss")
			ev.XP = int(fieldNumber(e.Fields, "xp"))
			// logged credits include the combo multiplier
			ev.Credits = int(fieldNumber(e.Fields, "credits"))
		case logging.EventMissionComplete:
			ev.Type = string(KindMissionComplete)
			ev.ID = fieldString(e.Fields, "mission_id")
			ev.DurationS = fieldNumber(e.Fields, "duration_s")
			ev.Credits = int(fieldNumber(e.Fields, "credits"))
			ev.XP = int(fieldNumber(e.Fields, "xp"))
		case logging.EventMissionFailed:
			ev.Type = string(KindMissionFail)
			ev.ID = fieldString(e.Fields, "mission_id")
		case logging.EventSessionEnd:
			ev.Type = string(KindSessionEnd)
			session = ""
		default:
			continue
		}
		out = append(out, ev)
	}
	return out
}

func fieldString(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return s
}

func fieldNumber(fields map[string]any, key string) float64 {
	f, _ := fields[key].(float64)
	return f
}

func fieldBool(fields map[string]any, key string) bool {
	b, _ := fields[key].(bool)
	return b
}

// #endregion fixture-export

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
