package rpc

import (
	"time"

	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/engine"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/enemy"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/pacing"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/penalty"
)

// Response encoders. structpb only accepts plain values, so slices are
// []any and times are RFC 3339 strings.

func reportFields(r penalty.Report) map[string]any {
	return map[string]any{
		"id":                   r.ID,
		"dive_id":              r.DiveID,
		"depth":                r.Depth,
		"cause":                string(r.Cause),
		"insurance":            r.Insurance.String(),
		"applied":              r.Applied,
		"penalty_multiplier":   r.PenaltyMultiplier,
		"resource_loss_pct":    r.ResourceLossPct,
		"credit_loss_pct":      r.CreditLossPct,
		"equipment_damage_pct": r.EquipmentDamagePct,
		"xp_loss_pct":          r.XPLossPct,
		"respawn_delay_s":      r.RespawnDelay.Seconds(),
		"survival_bonus":       r.SurvivalBonus,
		"created_at":           r.CreatedAt.Format(time.RFC3339Nano),
	}
}

func rewardFields(r engine.RewardResult) map[string]any {
	ids := make([]any, 0, len(r.Milestones))
	for _, m := range r.Milestones {
		ids = append(ids, m.ID)
	}
	return map[string]any{
		"combo":      r.Combo,
		"multiplier": r.Multiplier,
		"bonus":      r.Bonus,
		"milestones": ids,
	}
}

func statsFields(s enemy.ScaledStats) map[string]any {
	return map[string]any{
		"id":            s.ProfileID,
		"depth":         s.Depth,
		"health":        s.Health,
		"damage":        s.Damage,
		"speed":         s.Speed,
		"attack_speed":  s.AttackSpeed,
		"xp":            s.XP,
		"credits":       s.Credits,
		"spawn_weight":  s.SpawnWeight,
		"patrol_radius": s.PatrolRadius,
		"attack_range":  s.AttackRange,
		"elite":         s.Elite,
	}
}

func sessionFields(r pacing.SessionRecord) map[string]any {
	return map[string]any{
		"id":                  r.ID,
		"started_at":          r.StartedAt.Format(time.RFC3339Nano),
		"ended_at":            r.EndedAt.Format(time.RFC3339Nano),
		"combat_s":            r.CombatTime.Seconds(),
		"exploration_s":       r.ExplorationTime.Seconds(),
		"rest_s":              r.RestTime.Seconds(),
		"combat_count":        r.CombatCount,
		"enemies_defeated":    r.EnemiesDefeated,
		"resources_collected": r.ResourcesCollected,
		"missions_completed":  r.MissionsCompleted,
		"combat_ratio":        r.CombatRatio,
		"exploration_ratio":   r.ExplorationRatio,
		"rest_ratio":          r.RestRatio,
		"pace_score":          r.PaceScore,
	}
}

func statusFields(st engine.Status) map[string]any {
	milestones := make([]any, 0, len(st.Milestones))
	for _, id := range st.Milestones {
		milestones = append(milestones, id)
	}
	out := map[string]any{
		"player_id":          st.PlayerID,
		"tick":               float64(st.Tick),
		"now":                st.Now.Format(time.RFC3339Nano),
		"depth":              st.Depth,
		"layer":              st.Layer.String(),
		"difficulty":         st.Difficulty,
		"skill_factor":       st.Snapshot.SkillFactor,
		"dynamic_adjustment": st.Snapshot.DynamicAdjustment,
		"death_rate":         st.Snapshot.DeathRate,
		"samples":            st.Snapshot.Samples,
		"encounter_rate":     st.EncounterRate,
		"tension":            st.Tension,
		"activity":           st.Activity.String(),
		"combo":              st.Combo,
		"combo_multiplier":   st.ComboMultiplier,
		"insurance":          st.Insurance.String(),
		"dive_id":            st.DiveID,
		"session_id":         st.SessionID,
		"journey_stage":      st.JourneyStage,
		"milestones":         milestones,
		"pending_tasks":      st.PendingTasks,
		"eval_passed":        st.LastEval.Passed,
		"eval_reason":        st.LastEval.Reason,
	}
	if st.LastSession != nil {
		out["last_session"] = sessionFields(*st.LastSession)
	}
	return out
}

func floatParams(params map[string]float64) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		out[k] = v
	}
	return out
}
