package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/difficulty"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/economy"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/enemy"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/experiment"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/journey"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/logging"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/pacing"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/penalty"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/reward"
	"github.com/google/uuid"
)

// #region outcomes

// RecordDeath feeds a death into the difficulty window and the frequent-death
// detector. The running combo ends.
func (e *Engine) RecordDeath(depth float64, cause difficulty.DeathCause) {
	depth = cleanDepth(depth)
	if cause == "" {
		cause = difficulty.CauseUnknown
	}
	e.difficulty.RecordDeath(depth, cause)
	e.rewards.ResetCombo()
	e.col.Analytics.Emit(logging.EventDeath, depth, map[string]any{
		"cause":   string(cause),
		"dive_id": e.diveID,
		"layer":   e.difficulty.Layer(depth).String(),
	})
	if det, ok := e.anomaly.RecordDeath(e.Now()); ok {
		e.mitigate(det)
	}
}

// RecordSuccess feeds a completion into the difficulty windows.
func (e *Engine) RecordSuccess(duration time.Duration, depth float64) {
	depth = cleanDepth(depth)
	if duration < 0 {
		duration = 0
	}
	e.difficulty.RecordSuccess(duration, depth)
	e.anomaly.RecordProgress(e.Now())
	e.col.Analytics.Emit(logging.EventSuccess, depth, map[string]any{
		"duration_s": duration.Seconds(),
		"layer":      e.difficulty.Layer(depth).String(),
	})
}

// ApplyDeathPenalty computes the penalty for a death at depth in the current
// dive. The report is returned at once; the death flash cue fires now, the
// tally cue and the inventory mutation follow as staged continuations that
// are dropped if a new dive starts or difficulty is reset first.
func (e *Engine) ApplyDeathPenalty(depth float64, cause difficulty.DeathCause) penalty.Report {
	depth = cleanDepth(depth)
	var session time.Duration
	if e.sessionID != "" {
		session = e.Now().Sub(e.sessionStart)
	}
	r := e.penalty.ApplyDeathPenalty(penalty.DeathContext{
		DiveID:          e.diveID,
		Depth:           depth,
		Cause:           cause,
		SessionDuration: session,
	})
	e.col.Analytics.Emit(logging.EventPenalty, depth, map[string]any{
		"report_id":     r.ID,
		"dive_id":       r.DiveID,
		"cause":         string(r.Cause),
		"insurance":     r.Insurance.String(),
		"applied":       r.Applied,
		"multiplier":    r.PenaltyMultiplier,
		"resource_loss": r.ResourceLossPct,
		"credit_loss":   r.CreditLossPct,
		"equipment":     r.EquipmentDamagePct,
		"xp_loss":       r.XPLossPct,
		"respawn_s":     r.RespawnDelay.Seconds(),
		"bonus":         r.SurvivalBonus,
	})
	if !r.Applied {
		return r
	}

	e.col.Cues.Cue("death_flash", map[string]any{"depth": depth, "cause": string(cause)})
	valid := allOf(e.sameDive(), e.sameDifficulty())
	delay := e.config.PenaltyStageDelay
	e.after("penalty_tally", delay, valid, func() {
		e.col.Cues.Cue("penalty_tally", map[string]any{
			"resource_loss": r.ResourceLossPct,
			"credit_loss":   r.CreditLossPct,
			"equipment":     r.EquipmentDamagePct,
		})
		e.after("penalty_apply", delay, valid, func() {
			e.col.Inventory.ApplyPenalty(r)
			if r.SurvivalBonus > 0 {
				e.col.Inventory.GrantCredits(r.SurvivalBonus, "survival_bonus")
			}
			e.col.Notifier.Toast(fmt.Sprintf("Lost %.0f%% of cargo. Respawn in %s.",
				r.ResourceLossPct*100, r.RespawnDelay.Round(time.Second)))
		})
	})
	return r
}

// #endregion

// #region pickups

// OnResourceCollected prices a pickup, extends the combo and grants the combo
// bonus in credits. Returns the resource value and the reward outcome.
func (e *Engine) OnResourceCollected(res economy.ResourceProfile, depth float64) (int, RewardResult) {
	depth = cleanDepth(depth)
	value := e.economy.Value(res, depth)
	rr := e.registerCombo()
	rr.Bonus = comboBonus(value, rr.Multiplier)
	if rr.Bonus > 0 {
		e.col.Inventory.GrantCredits(rr.Bonus, "combo_bonus")
	}

	e.pacing.OnResourceCollected()
	e.anomaly.RecordProgress(e.Now())
	e.progress[reward.KindResourcesCollected]++
	e.progress[reward.KindCreditsEarned] += float64(rr.Bonus)
	e.col.Analytics.Emit(logging.EventResource, depth, map[string]any{
		"resource_id": res.ID,
		"base_value":  res.BaseValue,
		"min_depth":   res.MinDepth,
		"rarity":      res.Rarity.String(),
		"value":       value,
		"combo":       rr.Combo,
		"bonus":       rr.Bonus,
	})
	rr.Milestones = e.checkMilestones()
	return value, rr
}

// OnEnemyDefeated grants the kill's credits scaled by the combo multiplier and
// its XP. A boss kill advances the journey.
func (e *Engine) OnEnemyDefeated(k Kill) RewardResult {
	k.Depth = cleanDepth(k.Depth)
	rr := e.registerCombo()
	credits := int(math.Round(float64(max(k.Credits, 0)) * rr.Multiplier))
	rr.Bonus = credits - max(k.Credits, 0)
	if credits > 0 {
		e.col.Inventory.GrantCredits(credits, "kill")
	}
	if k.XP > 0 {
		e.col.Inventory.GrantXP(k.XP, "kill")
	}

	e.pacing.OnEnemyDefeated()
	e.anomaly.RecordProgress(e.Now())
	e.progress[reward.KindEnemiesDefeated]++
	e.progress[reward.KindCreditsEarned] += float64(credits)
	e.col.Analytics.Emit(logging.EventEnemy, k.Depth, map[string]any{
		"enemy_id": k.EnemyID,
		"boss":     k.Boss,
		"credits":  credits,
		"xp":       k.XP,
		"combo":    rr.Combo,
	})
	if k.Boss {
		e.progress[reward.KindBossesDefeated]++
		e.advance(journey.EventBossDefeated)
	}
	rr.Milestones = e.checkMilestones()
	return rr
}

// OnMissionCompleted grants the mission rewards, records the completion time
// and clears the mission's failure count.
func (e *Engine) OnMissionCompleted(m MissionReport) RewardResult {
	m.Depth = cleanDepth(m.Depth)
	rr := e.registerCombo()
	if m.Credits > 0 {
		e.col.Inventory.GrantCredits(m.Credits, "mission:"+m.MissionID)
	}
	if m.XP > 0 {
		e.col.Inventory.GrantXP(m.XP, "mission:"+m.MissionID)
	}
	e.RecordSuccess(m.Duration, m.Depth)
	e.anomaly.RecordMissionSuccess(m.MissionID, e.Now())
	e.pacing.OnMissionCompleted()
	e.progress[reward.KindMissionsCompleted]++
	e.progress[reward.KindCreditsEarned] += float64(max(m.Credits, 0))
	e.col.Analytics.Emit(logging.EventMissionComplete, m.Depth, map[string]any{
		"mission_id": m.MissionID,
		"duration_s": m.Duration.Seconds(),
		"credits":    m.Credits,
		"xp":         m.XP,
	})
	e.advance(journey.EventMissionCompleted)
	rr.Milestones = e.checkMilestones()
	return rr
}

// OnMissionFailed counts a failed attempt. Repeated failures at one mission
// raise a stuck pain point.
func (e *Engine) OnMissionFailed(missionID string, depth float64) {
	depth = cleanDepth(depth)
	e.col.Analytics.Emit(logging.EventMissionFailed, depth, map[string]any{
		"mission_id": missionID,
		"attempts":   e.anomaly.Attempts(missionID) + 1,
	})
	if det, ok := e.anomaly.RecordMissionFailure(missionID, e.Now()); ok {
		e.mitigate(det)
	}
}

// registerCombo extends the combo at the engine clock.
func (e *Engine) registerCombo() RewardResult {
	st := e.rewards.RegisterEvent(e.Now())
	if float64(st.Count) > e.progress[reward.KindCombo] {
		e.progress[reward.KindCombo] = float64(st.Count)
	}
	return RewardResult{Combo: st.Count, Multiplier: e.rewards.Multiplier()}
}

func comboBonus(value int, multiplier float64) int {
	if value <= 0 || multiplier <= 1 {
		return 0
	}
	return int(math.Round(float64(value) * (multiplier - 1)))
}

// #endregion

// #region milestones

// checkMilestones grants every newly reached milestone once and schedules its
// celebration cue. The celebration is dropped when the session ends first.
func (e *Engine) checkMilestones() []reward.Milestone {
	fired := e.rewards.Check(e.progress)
	for _, m := range fired {
		if m.Credits > 0 {
			e.col.Inventory.GrantCredits(m.Credits, "milestone:"+m.ID)
		}
		if m.XP > 0 {
			e.col.Inventory.GrantXP(m.XP, "milestone:"+m.ID)
		}
		if m.Unlock != "" {
			e.col.Unlocks.Unlock(m.Unlock)
		}
		e.emit(logging.EventMilestone, map[string]any{
			"milestone_id": m.ID,
			"kind":         string(m.Kind),
			"credits":      m.Credits,
			"xp":           m.XP,
			"unlock":       m.Unlock,
		})
		e.after("celebrate:"+m.ID, e.rewards.Config().CelebrationDelay, e.sameSession(), func() {
			e.col.Cues.Cue("milestone_celebration", map[string]any{"milestone_id": m.ID})
			e.col.Notifier.Toast("Milestone reached: " + m.ID)
		})
	}
	return fired
}

// #endregion

// #region journey

// advance applies a journey event and reports the transition.
func (e *Engine) advance(ev journey.Event) {
	tr, ok := e.journey.Advance(ev, e.Now())
	if !ok {
		return
	}
	entered := make([]string, len(tr.Entered))
	for i, s := range tr.Entered {
		entered[i] = s.String()
	}
	e.emit(logging.EventJourney, map[string]any{
		"from":    tr.From.String(),
		"to":      tr.To.String(),
		"event":   string(ev),
		"entered": entered,
	})
	e.col.Cues.Cue("journey_stage", map[string]any{"stage": tr.To.String()})
}

// #endregion

// #region dives

// StartDive opens a dive. An empty id gets a generated one. Continuations
// scheduled during the previous dive are invalidated.
func (e *Engine) StartDive(diveID string) string {
	if diveID == "" {
		diveID = uuid.New().String()
	}
	e.diveSeq++
	e.diveID = diveID
	e.depth = 0
	e.diveMaxDepth = 0
	e.emit(logging.EventDiveStart, map[string]any{"dive_id": diveID})
	e.advance(journey.EventFirstDive)
	return diveID
}

// EndDive closes the current dive and clears insurance at the boundary.
// Surviving a dive that reached AbyssClearDepth clears the abyss.
func (e *Engine) EndDive(survived bool) {
	if e.diveID == "" {
		e.logger.Printf("engine: EndDive without an open dive")
		return
	}
	e.col.Analytics.Emit(logging.EventDiveEnd, e.diveMaxDepth, map[string]any{
		"dive_id":   e.diveID,
		"survived":  survived,
		"max_depth": e.diveMaxDepth,
		"insurance": e.penalty.Insurance().String(),
	})
	if survived && e.diveMaxDepth >= e.config.AbyssClearDepth {
		e.advance(journey.EventAbyssCleared)
	}
	e.penalty.ClearInsurance(e.diveID)
	e.diveID = ""
	e.depth = 0
}

// DiveID returns the open dive id, empty between dives.
func (e *Engine) DiveID() string { return e.diveID }

// SetDepth updates the player's current depth.
func (e *Engine) SetDepth(depth float64) {
	depth = cleanDepth(depth)
	e.depth = depth
	if depth > e.diveMaxDepth {
		e.diveMaxDepth = depth
	}
	if depth > e.progress[reward.KindDepth] {
		e.progress[reward.KindDepth] = depth
		e.checkMilestones()
	}
	if depth >= e.config.DeepDepth {
		e.advance(journey.EventDeepReached)
	}
}

// Depth returns the current depth.
func (e *Engine) Depth() float64 { return e.depth }

// PurchaseInsurance activates tier for diveID. An empty diveID covers the
// next dive that ends.
func (e *Engine) PurchaseInsurance(tier penalty.Insurance, diveID string) {
	e.penalty.Purchase(tier, diveID)
}

// #endregion

// #region sessions

// StartSession opens a pacing session. An empty id gets a generated one.
func (e *Engine) StartSession(sessionID string) string {
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	if e.sessionID != "" {
		e.EndSession()
	}
	e.sessionSeq++
	e.sessionID = sessionID
	e.sessionStart = e.Now()
	e.pacing.StartSession(sessionID, e.sessionStart)
	e.rewards.ResetCombo()
	if t, ok := e.col.Analytics.(sessionTagger); ok {
		t.SetSession(sessionID)
	}
	return sessionID
}

// EndSession finalizes the session pace record. Pending celebrations of the
// session are dropped.
func (e *Engine) EndSession() (pacing.SessionRecord, bool) {
	rec, ok := e.pacing.EndSession(e.Now())
	if !ok {
		return rec, false
	}
	e.emit(logging.EventSessionEnd, map[string]any{
		"session_id":          rec.ID,
		"duration_s":          rec.Total().Seconds(),
		"combat_ratio":        rec.CombatRatio,
		"exploration_ratio":   rec.ExplorationRatio,
		"rest_ratio":          rec.RestRatio,
		"pace_score":          rec.PaceScore,
		"combat_count":        rec.CombatCount,
		"enemies_defeated":    rec.EnemiesDefeated,
		"resources_collected": rec.ResourcesCollected,
		"missions_completed":  rec.MissionsCompleted,
	})
	e.lastSession = &rec
	e.sessionID = ""
	e.sessionSeq++
	if t, ok := e.col.Analytics.(sessionTagger); ok {
		t.SetSession("")
	}
	return rec, true
}

// SessionID returns the open session id.
func (e *Engine) SessionID() string { return e.sessionID }

// SetActivity switches the pacing bucket.
func (e *Engine) SetActivity(a pacing.Activity) { e.pacing.SetActivity(a) }

// StartCombat enters combat.
func (e *Engine) StartCombat() { e.pacing.StartCombat() }

// EndCombat leaves combat.
func (e *Engine) EndCombat() { e.pacing.EndCombat() }

// #endregion

// #region queries

// DifficultyAtDepth returns the challenge multiplier at depth.
func (e *Engine) DifficultyAtDepth(depth float64) float64 {
	return e.difficulty.DifficultyAtDepth(cleanDepth(depth))
}

// ScaleStats scales profile for depth.
func (e *Engine) ScaleStats(profile enemy.Profile, depth float64) enemy.ScaledStats {
	return e.enemies.ScaleStats(profile, cleanDepth(depth))
}

// Value prices resource at depth.
func (e *Engine) Value(res economy.ResourceProfile, depth float64) int {
	return e.economy.Value(res, cleanDepth(depth))
}

// ValueBreakdown prices resource at depth and returns each factor.
func (e *Engine) ValueBreakdown(res economy.ResourceProfile, depth float64) economy.Breakdown {
	return e.economy.Breakdown(res, cleanDepth(depth))
}

// AssignGroup returns this player's cohort in testID.
func (e *Engine) AssignGroup(testID string) (experiment.Group, error) {
	return e.experiments.AssignGroup(e.playerID, testID)
}

// ExperimentConfig returns the parameters of this player's cohort in testID.
func (e *Engine) ExperimentConfig(testID string) (map[string]float64, error) {
	return e.experiments.GroupConfig(e.playerID, testID)
}

// ResetDifficulty returns the difficulty controller and the pain point
// detectors to a fresh state. Staged continuations scheduled under the old
// difficulty epoch are dropped.
func (e *Engine) ResetDifficulty() {
	before := e.difficulty.Snapshot(e.depth)
	e.difficulty.Reset()
	e.anomaly.Reset()
	e.emit(logging.EventDifficultyReset, map[string]any{
		"epoch":          e.difficulty.Epoch(),
		"skill_before":   before.SkillFactor,
		"dynamic_before": before.DynamicAdjustment,
	})
}

// NewEconomyEpoch discards the market and reseeds its walk.
func (e *Engine) NewEconomyEpoch(seed int64) {
	e.economy.NewEpoch(seed)
	e.emit(logging.EventMarketEpoch, map[string]any{
		"epoch": e.economy.MarketState().Epoch,
		"seed":  seed,
	})
}

// Status returns a read-only view of the engine.
func (e *Engine) Status() Status {
	combo := e.rewards.Combo()
	st := Status{
		PlayerID:        e.playerID,
		Tick:            e.tick,
		Now:             e.Now(),
		Depth:           e.depth,
		Layer:           e.difficulty.Layer(e.depth),
		Difficulty:      e.difficulty.DifficultyAtDepth(e.depth),
		Snapshot:        e.difficulty.Snapshot(e.depth),
		EncounterRate:   e.pacing.Throttle().Rate(),
		Tension:         e.pacing.Throttle().Tension(),
		Activity:        e.pacing.Activity(),
		Combo:           combo.Count,
		ComboMultiplier: e.rewards.Multiplier(),
		Insurance:       e.penalty.Insurance(),
		DiveID:          e.diveID,
		SessionID:       e.sessionID,
		JourneyStage:    e.journey.Current().String(),
		Milestones:      e.rewards.AchievedIDs(),
		PendingTasks:    e.queue.Len(),
		LastEval:        e.lastEval,
	}
	if e.lastSession != nil {
		rec := *e.lastSession
		st.LastSession = &rec
	}
	return st
}

// #endregion
