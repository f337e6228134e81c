package difficulty

import "time"

// #region death-cause
// DeathCause classifies what killed the player.
type DeathCause string

const (
	CauseCombat      DeathCause = "combat"
	CauseEnvironment DeathCause = "environment"
	CauseOxygen      DeathCause = "oxygen"
	CausePressure    DeathCause = "pressure"
	CauseUnknown     DeathCause = "unknown"
)

// #endregion death-cause

// #region layer
// Layer is a coarse depth band used for display and analytics.
type Layer int

const (
	LayerShallow Layer = iota
	LayerMid
	LayerDeep
	LayerAbyss
)

func (l Layer) String() string {
	switch l {
	case LayerShallow:
		return "shallow"
	case LayerMid:
		return "mid"
	case LayerDeep:
		return "deep"
	case LayerAbyss:
		return "abyss"
	default:
		return "unknown"
	}
}

// #endregion layer

// #region snapshot
// Snapshot is the controller's observable state at one point in time.
type Snapshot struct {
	DepthDifficulty   float64 // BaseCurve at the queried depth (>= 1)
	SkillFactor       float64 // [SkillMin, SkillMax]
	SkillTarget       float64 // target the skill factor is smoothing toward
	DynamicAdjustment float64 // [DynamicMin, DynamicMax]
	DeathRate         float64
	MeanCompletion    time.Duration
	Samples           int
	Evaluations       int
}

// #endregion snapshot

// #region config
// Config holds the curve shape and smoothing parameters.
type Config struct {
	MaxDepth float64 // depth at which the base curve saturates (default 100)
	Exponent float64 // base curve exponent (default 1.5)
	MaxBonus float64 // base curve bonus at MaxDepth (default 2.0)

	WindowSize         int           // outcome/duration sample capacity (default 10)
	MinSamples         int           // outcomes needed before death-rate terms apply (default 3)
	EvaluationInterval time.Duration // default 300s

	HighDeathRate      float64       // above this the target drops (default 0.7)
	HighDeathPenalty   float64       // default 0.15
	LowDeathRate       float64       // below this the target rises (default 0.2)
	LowDeathBonus      float64       // default 0.10
	ExpectedCompletion time.Duration // default 600s
	FastRatio          float64       // mean completion below ExpectedCompletion*FastRatio is "fast" (default 0.8)
	FastBonus          float64       // default 0.05

	SkillMin      float64 // default 0.8
	SkillMax      float64 // default 1.2
	SmoothingRate float64 // lerp rate toward target per evaluation (default 0.1)

	LowSkillThreshold  float64 // default 0.9
	HighSkillThreshold float64 // default 1.1
	DynamicStep        float64 // default 0.05
	DynamicMin         float64 // default 0.5
	DynamicMax         float64 // default 1.5
	MaxRelief          float64 // largest single ApplyRelief step (default 0.2)

	LayerBreaks      [3]float64 // Shallow/Mid, Mid/Deep, Deep/Abyss (default 25, 50, 75)
	LayerMultipliers [4]float64 // display-only (default 1.0, 1.25, 1.5, 2.0)
}

// DefaultConfig returns the tuned defaults.
func DefaultConfig() Config {
	return Config{
		MaxDepth:           100,
		Exponent:           1.5,
		MaxBonus:           2.0,
		WindowSize:         10,
		MinSamples:         3,
		EvaluationInterval: 300 * time.Second,
		HighDeathRate:      0.7,
		HighDeathPenalty:   0.15,
		LowDeathRate:       0.2,
		LowDeathBonus:      0.10,
		ExpectedCompletion: 600 * time.Second,
		FastRatio:          0.8,
		FastBonus:          0.05,
		SkillMin:           0.8,
		SkillMax:           1.2,
		SmoothingRate:      0.1,
		LowSkillThreshold:  0.9,
		HighSkillThreshold: 1.1,
		DynamicStep:        0.05,
		DynamicMin:         0.5,
		DynamicMax:         1.5,
		MaxRelief:          0.2,
		LayerBreaks:        [3]float64{25, 50, 75},
		LayerMultipliers:   [4]float64{1.0, 1.25, 1.5, 2.0},
	}
}

// #endregion config
