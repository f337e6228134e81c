package engine

import (
	"fmt"
	"time"

	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/economy"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/journey"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/reward"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/state"
)

// #region snapshot

// Snapshot returns the persisted form of the engine. Insurance, combo and
// pacing windows are per dive or session and are not carried; the spawn roll
// source is.
func (e *Engine) Snapshot() state.Profile {
	p := state.NewProfile(e.playerID)
	p.SkillFactor = e.difficulty.SkillFactor()
	p.DynamicAdjustment = e.difficulty.DynamicAdjustment()
	p.Milestones = e.rewards.AchievedIDs()
	for _, a := range e.experiments.Assignments(e.playerID) {
		p.Assignments[a.TestID] = string(a.Group)
	}
	p.JourneyStage = e.journey.Current().String()
	for s, at := range e.journey.Entries() {
		p.StageEntries[s.String()] = at
	}
	m := e.economy.MarketState()
	p.Market = state.Market{
		Epoch:    m.Epoch,
		Seed:     m.Seed,
		Position: m.Position,
		Factors:  m.Factors,
	}
	p.Spawn.Seed, p.Spawn.Position = e.pacing.Throttle().RNGState()
	for k, v := range e.progress {
		p.Counters[string(k)] = v
	}
	return p
}

// #endregion

// #region restore

// Restore loads a persisted profile. Out-of-range values are clamped by the
// owning controllers. A cohort that no longer matches the stored one is
// logged; assignment stays derived from the hash.
func (e *Engine) Restore(p state.Profile) error {
	if p.PlayerID != e.playerID {
		return fmt.Errorf("restore profile of %q into engine for %q", p.PlayerID, e.playerID)
	}
	e.difficulty.Restore(p.SkillFactor, p.DynamicAdjustment)
	e.rewards.Restore(p.Milestones)

	stage, ok := journey.ParseStage(p.JourneyStage)
	if !ok {
		e.logger.Printf("engine: unknown journey stage %q, using discovery", p.JourneyStage)
	}
	entries := make(map[journey.Stage]time.Time, len(p.StageEntries))
	for name, at := range p.StageEntries {
		if s, ok := journey.ParseStage(name); ok {
			entries[s] = at
		}
	}
	e.journey.Restore(stage, entries)

	e.economy.RestoreMarket(economy.MarketState{
		Epoch:    p.Market.Epoch,
		Seed:     p.Market.Seed,
		Position: p.Market.Position,
		Factors:  p.Market.Factors,
	})

	if p.Spawn != (state.RNG{}) {
		e.pacing.Throttle().RestoreRNG(p.Spawn.Seed, p.Spawn.Position)
	}

	e.progress = make(reward.Progress, len(p.Counters))
	for k, v := range p.Counters {
		e.progress[reward.Kind(k)] = v
	}

	for testID, stored := range p.Assignments {
		g, err := e.experiments.AssignGroup(e.playerID, testID)
		if err != nil {
			continue
		}
		if string(g) != stored {
			e.logger.Printf("engine: player %s moved from %s to %s in %s", e.playerID, stored, g, testID)
		}
	}
	return nil
}

// #endregion
