package rpc

import (
	"errors"
	"fmt"

	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/difficulty"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/engine"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/pacing"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/penalty"
)

var errNotFound = errors.New("not found")

// #region handlers

func handlers() map[string]handler {
	return map[string]handler{
		"RecordDeath":       recordDeath,
		"RecordSuccess":     recordSuccess,
		"ApplyDeathPenalty": applyDeathPenalty,
		"CollectResource":   collectResource,
		"DefeatEnemy":       defeatEnemy,
		"CompleteMission":   completeMission,
		"FailMission":       failMission,
		"StartDive":         startDive,
		"EndDive":           endDive,
		"SetDepth":          setDepth,
		"PurchaseInsurance": purchaseInsurance,
		"StartSession":      startSession,
		"EndSession":        endSession,
		"SetActivity":       setActivity,
		"StartCombat":       startCombat,
		"EndCombat":         endCombat,
		"DifficultyAtDepth": difficultyAtDepth,
		"ScaleStats":        scaleStats,
		"Value":             value,
		"BossPhase":         bossPhase,
		"AssignGroup":       assignGroup,
		"NewEconomyEpoch":   newEconomyEpoch,
		"ResetDifficulty":   resetDifficulty,
		"Status":            getStatus,
	}
}

func cause(a args) (difficulty.DeathCause, error) {
	s, err := a.str("cause")
	if err != nil || s == "" {
		return difficulty.CauseUnknown, err
	}
	return difficulty.DeathCause(s), nil
}

func recordDeath(a args) (op, error) {
	depth, err := a.number("depth")
	if err != nil {
		return nil, err
	}
	c, err := cause(a)
	if err != nil {
		return nil, err
	}
	return func(e *engine.Engine) (map[string]any, error) {
		e.RecordDeath(depth, c)
		return nil, nil
	}, nil
}

func recordSuccess(a args) (op, error) {
	d, err := a.seconds("duration_s")
	if err != nil {
		return nil, err
	}
	depth, err := a.number("depth")
	if err != nil {
		return nil, err
	}
	return func(e *engine.Engine) (map[string]any, error) {
		e.RecordSuccess(d, depth)
		return nil, nil
	}, nil
}

func applyDeathPenalty(a args) (op, error) {
	depth, err := a.number("depth")
	if err != nil {
		return nil, err
	}
	c, err := cause(a)
	if err != nil {
		return nil, err
	}
	return func(e *engine.Engine) (map[string]any, error) {
		return reportFields(e.ApplyDeathPenalty(depth, c)), nil
	}, nil
}

func collectResource(a args) (op, error) {
	res, err := a.resource()
	if err != nil {
		return nil, err
	}
	depth, err := a.number("depth")
	if err != nil {
		return nil, err
	}
	return func(e *engine.Engine) (map[string]any, error) {
		v, r := e.OnResourceCollected(res, depth)
		out := rewardFields(r)
		out["value"] = v
		return out, nil
	}, nil
}

func defeatEnemy(a args) (op, error) {
	var k engine.Kill
	var err error
	if k.EnemyID, err = a.requiredStr("enemy_id"); err != nil {
		return nil, err
	}
	if k.Depth, err = a.number("depth"); err != nil {
		return nil, err
	}
	credits, err := a.optNumber("credits", 0)
	if err != nil {
		return nil, err
	}
	xp, err := a.optNumber("xp", 0)
	if err != nil {
		return nil, err
	}
	k.Credits, k.XP = int(credits), int(xp)
	if k.Boss, err = a.flag("boss"); err != nil {
		return nil, err
	}
	return func(e *engine.Engine) (map[string]any, error) {
		return rewardFields(e.OnEnemyDefeated(k)), nil
	}, nil
}

func completeMission(a args) (op, error) {
	var m engine.MissionReport
	var err error
	if m.MissionID, err = a.requiredStr("mission_id"); err != nil {
		return nil, err
	}
	if m.Duration, err = a.seconds("duration_s"); err != nil {
		return nil, err
	}
	if m.Depth, err = a.number("depth"); err != nil {
		return nil, err
	}
	credits, err := a.optNumber("credits", 0)
	if err != nil {
		return nil, err
	}
	xp, err := a.optNumber("xp", 0)
	if err != nil {
		return nil, err
	}
	m.Credits, m.XP = int(credits), int(xp)
	return func(e *engine.Engine) (map[string]any, error) {
		return rewardFields(e.OnMissionCompleted(m)), nil
	}, nil
}

func failMission(a args) (op, error) {
	id, err := a.requiredStr("mission_id")
	if err != nil {
		return nil, err
	}
	depth, err := a.number("depth")
	if err != nil {
		return nil, err
	}
	return func(e *engine.Engine) (map[string]any, error) {
		e.OnMissionFailed(id, depth)
		return nil, nil
	}, nil
}

func startDive(a args) (op, error) {
	id, err := a.str("dive_id")
	if err != nil {
		return nil, err
	}
	return func(e *engine.Engine) (map[string]any, error) {
		return map[string]any{"dive_id": e.StartDive(id)}, nil
	}, nil
}

func endDive(a args) (op, error) {
	survived, err := a.flag("survived")
	if err != nil {
		return nil, err
	}
	return func(e *engine.Engine) (map[string]any, error) {
		e.EndDive(survived)
		return map[string]any{"journey_stage": e.Journey().Current().String()}, nil
	}, nil
}

func setDepth(a args) (op, error) {
	depth, err := a.number("depth")
	if err != nil {
		return nil, err
	}
	return func(e *engine.Engine) (map[string]any, error) {
		e.SetDepth(depth)
		return map[string]any{"depth": e.Depth()}, nil
	}, nil
}

func purchaseInsurance(a args) (op, error) {
	name, err := a.requiredStr("tier")
	if err != nil {
		return nil, err
	}
	tier, ok := penalty.ParseInsurance(name)
	if !ok {
		return nil, fmt.Errorf("unknown insurance tier %q", name)
	}
	dive, err := a.str("dive_id")
	if err != nil {
		return nil, err
	}
	return func(e *engine.Engine) (map[string]any, error) {
		e.PurchaseInsurance(tier, dive)
		return map[string]any{"insurance": e.Penalty().Insurance().String()}, nil
	}, nil
}

func startSession(a args) (op, error) {
	id, err := a.str("session_id")
	if err != nil {
		return nil, err
	}
	return func(e *engine.Engine) (map[string]any, error) {
		return map[string]any{"session_id": e.StartSession(id)}, nil
	}, nil
}

func endSession(args) (op, error) {
	return func(e *engine.Engine) (map[string]any, error) {
		rec, ok := e.EndSession()
		if !ok {
			return nil, fmt.Errorf("end session: no open session: %w", errNotFound)
		}
		return sessionFields(rec), nil
	}, nil
}

func setActivity(a args) (op, error) {
	name, err := a.requiredStr("activity")
	if err != nil {
		return nil, err
	}
	act, ok := pacing.ParseActivity(name)
	if !ok {
		return nil, fmt.Errorf("unknown activity %q", name)
	}
	return func(e *engine.Engine) (map[string]any, error) {
		e.SetActivity(act)
		return nil, nil
	}, nil
}

func startCombat(args) (op, error) {
	return func(e *engine.Engine) (map[string]any, error) {
		e.StartCombat()
		return nil, nil
	}, nil
}

func endCombat(args) (op, error) {
	return func(e *engine.Engine) (map[string]any, error) {
		e.EndCombat()
		return nil, nil
	}, nil
}

func difficultyAtDepth(a args) (op, error) {
	depth, err := a.number("depth")
	if err != nil {
		return nil, err
	}
	return func(e *engine.Engine) (map[string]any, error) {
		return map[string]any{
			"difficulty": e.DifficultyAtDepth(depth),
			"layer":      e.Difficulty().Layer(depth).String(),
		}, nil
	}, nil
}

func scaleStats(a args) (op, error) {
	p, err := a.enemyProfile()
	if err != nil {
		return nil, err
	}
	depth, err := a.number("depth")
	if err != nil {
		return nil, err
	}
	elite, err := a.flag("elite")
	if err != nil {
		return nil, err
	}
	return func(e *engine.Engine) (map[string]any, error) {
		stats := e.ScaleStats(p, depth)
		if elite {
			stats = e.Enemies().ApplyElite(stats)
		}
		out := statsFields(stats)
		out["can_spawn"] = e.Enemies().CanSpawn(p, depth)
		out["elite_chance"] = e.Enemies().EliteChance(depth)
		return out, nil
	}, nil
}

func value(a args) (op, error) {
	res, err := a.resource()
	if err != nil {
		return nil, err
	}
	depth, err := a.number("depth")
	if err != nil {
		return nil, err
	}
	return func(e *engine.Engine) (map[string]any, error) {
		b := e.ValueBreakdown(res, depth)
		return map[string]any{
			"value":       b.Value,
			"depth_bonus": b.DepthBonus,
			"rarity":      b.Rarity,
			"risk":        b.Risk,
			"market":      b.Market,
		}, nil
	}, nil
}

func bossPhase(a args) (op, error) {
	id, err := a.requiredStr("boss_id")
	if err != nil {
		return nil, err
	}
	health, err := a.number("health_fraction")
	if err != nil {
		return nil, err
	}
	return func(e *engine.Engine) (map[string]any, error) {
		ph, ok := e.Enemies().CurrentBossPhase(id, health)
		if !ok {
			return nil, fmt.Errorf("boss %q: %w", id, errNotFound)
		}
		return map[string]any{
			"name":              ph.Name,
			"threshold":         ph.Threshold,
			"damage_multiplier": ph.DamageMultiplier,
			"speed_multiplier":  ph.SpeedMultiplier,
			"spawns_adds":       ph.SpawnsAdds,
		}, nil
	}, nil
}

func assignGroup(a args) (op, error) {
	id, err := a.requiredStr("test_id")
	if err != nil {
		return nil, err
	}
	return func(e *engine.Engine) (map[string]any, error) {
		g, err := e.AssignGroup(id)
		if err != nil {
			return nil, err
		}
		params, err := e.ExperimentConfig(id)
		if err != nil {
			return nil, err
		}
		return map[string]any{"group": string(g), "params": floatParams(params)}, nil
	}, nil
}

func newEconomyEpoch(a args) (op, error) {
	seed, err := a.number("seed")
	if err != nil {
		return nil, err
	}
	return func(e *engine.Engine) (map[string]any, error) {
		e.NewEconomyEpoch(int64(seed))
		return map[string]any{"epoch": e.Economy().MarketState().Epoch}, nil
	}, nil
}

func resetDifficulty(args) (op, error) {
	return func(e *engine.Engine) (map[string]any, error) {
		e.ResetDifficulty()
		d := e.Difficulty()
		return map[string]any{
			"epoch":              float64(d.Epoch()),
			"skill_factor":       d.SkillFactor(),
			"dynamic_adjustment": d.DynamicAdjustment(),
		}, nil
	}, nil
}

func getStatus(args) (op, error) {
	return func(e *engine.Engine) (map[string]any, error) {
		return statusFields(e.Status()), nil
	}, nil
}

// #endregion handlers
