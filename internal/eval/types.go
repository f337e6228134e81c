package eval

import (
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/difficulty"
)

// #region eval-config
// EvalConfig holds the bounds every controller output must respect.
type EvalConfig struct {
	SkillMin, SkillMax     float64
	DynamicMin, DynamicMax float64
	MarketRange            float64 // factors must stay in [1-range, 1+range]
	RateMin, RateMax       float64 // encounter rate
	PaceScoreFloor         float64 // warn below this; informational only
	Epsilon                float64 // float tolerance on every bound
}

// DefaultEvalConfig returns the bounds matching the default controllers.
func DefaultEvalConfig() EvalConfig {
	return EvalConfig{
		SkillMin:       0.8,
		SkillMax:       1.2,
		DynamicMin:     0.5,
		DynamicMax:     1.5,
		MarketRange:    0.15,
		RateMin:        0.5,
		RateMax:        2.0,
		PaceScoreFloor: 0.6,
		Epsilon:        1e-9,
	}
}

// #endregion eval-config

// #region eval-input
// EvalInput is the observable engine state checked by one run.
type EvalInput struct {
	Snapshot      difficulty.Snapshot
	Market        map[string]float64
	EncounterRate float64
	Tension       float64
	PaceScore     float64 // negative when no session has been finalized
}

// #endregion eval-input

// #region eval-metric
// EvalMetric captures a single validation check result.
type EvalMetric struct {
	Name  string
	Value float64
	Pass  bool
}

// #endregion eval-metric

// #region eval-result
// EvalResult is the output of one validation run.
type EvalResult struct {
	Passed  bool
	Metrics []EvalMetric
	Reason  string
}

// #endregion eval-result
