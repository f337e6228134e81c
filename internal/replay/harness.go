// Package replay drives an engine through a recorded event stream on a
// simulated clock. Fixtures built from analytics rows are the regression
// baseline for tuning changes.
package replay

import (
	"fmt"
	"time"

	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/difficulty"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/economy"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/engine"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/pacing"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/penalty"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/state"
)

// #region types

// Kind names an inbound engine call.
type Kind string

const (
	KindSessionStart    Kind = "session_start"
	KindSessionEnd      Kind = "session_end"
	KindDiveStart       Kind = "dive_start"
	KindDiveEnd         Kind = "dive_end"
	KindDepth           Kind = "depth"
	KindDeath           Kind = "death"
	KindSuccess         Kind = "success"
	KindPenalty         Kind = "penalty"
	KindResource        Kind = "resource"
	KindKill            Kind = "kill"
	KindMissionComplete Kind = "mission_complete"
	KindMissionFail     Kind = "mission_fail"
	KindActivity        Kind = "activity"
	KindCombatStart     Kind = "combat_start"
	KindCombatEnd       Kind = "combat_end"
	KindInsurance       Kind = "insurance"
	KindWait            Kind = "wait" // only advances the clock
)

// Event is one recorded inbound call at an offset from the replay start.
type Event struct {
	At        time.Duration
	Kind      Kind
	Depth     float64
	Cause     difficulty.DeathCause
	Duration  time.Duration
	ID        string // session, dive, mission, enemy or insurance dive id
	Resource  economy.ResourceProfile
	Credits   int
	XP        int
	Boss      bool
	Survived  bool
	Activity  pacing.Activity
	Insurance penalty.Insurance
}

// Result captures the engine state right after one event.
type Result struct {
	Index      int
	Kind       Kind
	At         time.Duration
	Difficulty float64 // at the current dive depth
	Skill      float64
	Dynamic    float64
	Stage      string
	Combo      int
	Value      int // resource value, resource events only
	Milestones []string
	Penalty    *penalty.Report

	// Work done by the ticks that led up to this event.
	Evaluations int
	Detections  int
	Spawns      int
}

// Summary provides aggregate stats from a replay run.
type Summary struct {
	TotalEvents int
	Deaths      int
	Successes   int
	Evaluations int
	Detections  int
	Spawns      int
	Milestones  []string
	FinalStage  string
	Credits     int
	XP          int
	Toasts      int
	Final       state.Profile
}

// #endregion types

// #region replay

// Replay applies events in order. Before each event the engine is ticked at
// its configured rate until its clock reaches the event offset; events must
// be sorted by At.
func Replay(eng *engine.Engine, events []Event) ([]Result, error) {
	step := eng.Config().TickRate
	if step <= 0 {
		step = engine.DefaultConfig().TickRate
	}
	results := make([]Result, 0, len(events))

	for i, ev := range events {
		if ev.At < eng.Elapsed() {
			return results, fmt.Errorf("event %d (%s) at %s is before the clock %s", i, ev.Kind, ev.At, eng.Elapsed())
		}
		res := Result{Index: i, Kind: ev.Kind, At: ev.At}
		for eng.Elapsed() < ev.At {
			dt := min(step, ev.At-eng.Elapsed())
			tr := eng.Tick(dt)
			if tr.Evaluation != nil {
				res.Evaluations++
			}
			if tr.Spawn {
				res.Spawns++
			}
			res.Detections += len(tr.Detections)
		}
		if err := apply(eng, ev, &res); err != nil {
			return results, fmt.Errorf("event %d: %w", i, err)
		}

		d := eng.Difficulty()
		res.Difficulty = eng.DifficultyAtDepth(eng.Depth())
		res.Skill = d.SkillFactor()
		res.Dynamic = d.DynamicAdjustment()
		res.Stage = eng.Journey().Current().String()
		res.Combo = eng.Rewards().Combo().Count
		results = append(results, res)
	}
	return results, nil
}

func apply(eng *engine.Engine, ev Event, res *Result) error {
	var rr *engine.RewardResult
	switch ev.Kind {
	case KindSessionStart:
		eng.StartSession(ev.ID)
	case KindSessionEnd:
		eng.EndSession()
	case KindDiveStart:
		eng.StartDive(ev.ID)
	case KindDiveEnd:
		eng.EndDive(ev.Survived)
	case KindDepth:
		eng.SetDepth(ev.Depth)
	case KindDeath:
		eng.RecordDeath(ev.Depth, ev.Cause)
	case KindSuccess:
		eng.RecordSuccess(ev.Duration, ev.Depth)
	case KindPenalty:
		r := eng.ApplyDeathPenalty(ev.Depth, ev.Cause)
		res.Penalty = &r
	case KindResource:
		v, r := eng.OnResourceCollected(ev.Resource, ev.Depth)
		res.Value = v
		rr = &r
	case KindKill:
		r := eng.OnEnemyDefeated(engine.Kill{
			EnemyID: ev.ID,
			Depth:   ev.Depth,
			Credits: ev.Credits,
			XP:      ev.XP,
			Boss:    ev.Boss,
		})
		rr = &r
	case KindMissionComplete:
		r := eng.OnMissionCompleted(engine.MissionReport{
			MissionID: ev.ID,
			Duration:  ev.Duration,
			Depth:     ev.Depth,
			Credits:   ev.Credits,
			XP:        ev.XP,
		})
		rr = &r
	case KindMissionFail:
		eng.OnMissionFailed(ev.ID, ev.Depth)
	case KindActivity:
		eng.SetActivity(ev.Activity)
	case KindCombatStart:
		eng.StartCombat()
	case KindCombatEnd:
		eng.EndCombat()
	case KindInsurance:
		eng.PurchaseInsurance(ev.Insurance, ev.ID)
	case KindWait:
	default:
		return fmt.Errorf("unknown event kind %q", ev.Kind)
	}
	if rr != nil {
		for _, m := range rr.Milestones {
			res.Milestones = append(res.Milestones, m.ID)
		}
	}
	return nil
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []Result, eng *engine.Engine, ledger *Ledger) Summary {
	s := Summary{
		TotalEvents: len(results),
		FinalStage:  eng.Journey().Current().String(),
		Final:       eng.Snapshot(),
	}
	for _, r := range results {
		switch r.Kind {
		case KindDeath:
			s.Deaths++
		case KindSuccess, KindMissionComplete:
			s.Successes++
		}
		s.Evaluations += r.Evaluations
		s.Detections += r.Detections
		s.Spawns += r.Spawns
		s.Milestones = append(s.Milestones, r.Milestones...)
	}
	if ledger != nil {
		s.Credits = ledger.Credits
		s.XP = ledger.XP
		s.Toasts = len(ledger.Toasts)
	}
	return s
}

// #endregion replay
