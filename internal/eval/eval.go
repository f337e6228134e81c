package eval

import (
	"fmt"
	"math"
	"sort"
)

// #region eval-harness
// EvalHarness checks controller outputs against their documented bounds. It
// runs after every difficulty evaluation and during replay.
type EvalHarness struct {
	config EvalConfig
}

// NewEvalHarness creates an eval harness with the given configuration.
func NewEvalHarness(config EvalConfig) *EvalHarness {
	if !(config.Epsilon >= 0) {
		config.Epsilon = DefaultEvalConfig().Epsilon
	}
	return &EvalHarness{config: config}
}

// Run validates one observation. A failing bound fails the run; the pace
// score check is informational.
func (h *EvalHarness) Run(in EvalInput) EvalResult {
	var metrics []EvalMetric
	var failReasons []string
	eps := h.config.Epsilon

	check := func(name string, v, lo, hi float64) {
		pass := !math.IsNaN(v) && v >= lo-eps && v <= hi+eps
		metrics = append(metrics, EvalMetric{Name: name, Value: v, Pass: pass})
		if !pass {
			failReasons = append(failReasons, fmt.Sprintf("%s %.4f outside [%.4f, %.4f]", name, v, lo, hi))
		}
	}

	s := in.Snapshot
	check("skill_factor", s.SkillFactor, h.config.SkillMin, h.config.SkillMax)
	check("dynamic_adjustment", s.DynamicAdjustment, h.config.DynamicMin, h.config.DynamicMax)
	check("depth_difficulty", s.DepthDifficulty, 1, math.MaxFloat64)
	check("encounter_rate", in.EncounterRate, h.config.RateMin, h.config.RateMax)
	check("tension", in.Tension, 0, 1)

	ids := make([]string, 0, len(in.Market))
	for id := range in.Market {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	lo, hi := 1-h.config.MarketRange, 1+h.config.MarketRange
	for _, id := range ids {
		check("market_"+id, in.Market[id], lo, hi)
	}

	if in.PaceScore >= 0 {
		metrics = append(metrics, EvalMetric{
			Name:  "pace_score",
			Value: in.PaceScore,
			Pass:  in.PaceScore >= h.config.PaceScoreFloor,
		})
	}

	passed := len(failReasons) == 0
	reason := "all checks passed"
	if !passed {
		reason = fmt.Sprintf("eval failed: %s", failReasons[0])
		if len(failReasons) > 1 {
			reason = fmt.Sprintf("eval failed: %d checks: %s", len(failReasons), failReasons[0])
		}
	}
	return EvalResult{
		Passed:  passed,
		Metrics: metrics,
		Reason:  reason,
	}
}

// #endregion eval-harness
