package difficulty

import (
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/curve"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/statwindow"
)

// #region controller
// Controller is the single source of truth for the challenge multiplier at a
// given depth. It is owned by the tick thread and is not safe for concurrent use.
type Controller struct {
	config Config
	logger *log.Logger

	outcomes  *statwindow.Window[bool]    // true = death
	durations *statwindow.Window[float64] // completion seconds

	skill       float64
	target      float64
	dynamic     float64
	sinceEval   time.Duration
	evaluations int
	epoch       uint64
}

// New creates a controller. Invalid config fields fall back to defaults.
func New(config Config, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.Default()
	}
	config = sanitize(config, logger)
	return &Controller{
		config:    config,
		logger:    logger,
		outcomes:  statwindow.New[bool](config.WindowSize),
		durations: statwindow.New[float64](config.WindowSize),
		skill:     1.0,
		target:    1.0,
		dynamic:   1.0,
	}
}

// Config returns the active configuration.
func (c *Controller) Config() Config { return c.config }

// #endregion controller

// #region queries

// BaseCurve returns 1 + clamp01(depth/MaxDepth)^Exponent * MaxBonus.
func (c *Controller) BaseCurve(depth float64) float64 {
	norm := c.Normalize(depth)
	return 1 + math.Pow(norm, c.config.Exponent)*c.config.MaxBonus
}

// Normalize maps depth onto [0,1].
func (c *Controller) Normalize(depth float64) float64 {
	return curve.Clamp01(depth / c.config.MaxDepth)
}

// DifficultyAtDepth returns BaseCurve(depth) * skillFactor * dynamicAdjustment.
func (c *Controller) DifficultyAtDepth(depth float64) float64 {
	return c.BaseCurve(depth) * c.skill * c.dynamic
}

// SkillFactor returns the smoothed skill factor.
func (c *Controller) SkillFactor() float64 { return c.skill }

// DynamicAdjustment returns the bounded dynamic adjustment term.
func (c *Controller) DynamicAdjustment() float64 { return c.dynamic }

// Epoch changes on every Reset; continuations compare it before applying effects.
func (c *Controller) Epoch() uint64 { return c.epoch }

// Snapshot returns the observable state with DepthDifficulty evaluated at depth.
func (c *Controller) Snapshot(depth float64) Snapshot {
	return Snapshot{
		DepthDifficulty:   c.BaseCurve(depth),
		SkillFactor:       c.skill,
		SkillTarget:       c.target,
		DynamicAdjustment: c.dynamic,
		DeathRate:         statwindow.Rate(c.outcomes),
		MeanCompletion:    time.Duration(statwindow.Mean(c.durations) * float64(time.Second)),
		Samples:           c.outcomes.Len(),
		Evaluations:       c.evaluations,
	}
}

// Layer classifies depth into a display band.
func (c *Controller) Layer(depth float64) Layer {
	return LayerFor(depth, c.config.LayerBreaks)
}

// LayerMultiplier returns the display multiplier for a layer. It never feeds
// back into DifficultyAtDepth.
func (c *Controller) LayerMultiplier(l Layer) float64 {
	if l < LayerShallow || l > LayerAbyss {
		return 1
	}
	return c.config.LayerMultipliers[l]
}

// LayerFor classifies depth against the given breakpoints.
func LayerFor(depth float64, breaks [3]float64) Layer {
	switch {
	case math.IsNaN(depth) || depth < breaks[0]:
		return LayerShallow
	case depth < breaks[1]:
		return LayerMid
	case depth < breaks[2]:
		return LayerDeep
	default:
		return LayerAbyss
	}
}

// #endregion queries

// #region record

// RecordDeath pushes a death outcome. Depth and cause are accepted for
// symmetry with telemetry; only the outcome feeds the skill estimate.
func (c *Controller) RecordDeath(depth float64, cause DeathCause) {
	c.outcomes.Push(true)
}

// RecordSuccess pushes a success outcome and its completion duration.
func (c *Controller) RecordSuccess(duration time.Duration, depth float64) {
	c.outcomes.Push(false)
	secs := duration.Seconds()
	if secs < 0 || math.IsNaN(secs) {
		secs = 0
	}
	c.durations.Push(secs)
}

// #endregion record

// #region evaluate

// Evaluation describes one evaluation pass.
type Evaluation struct {
	DeathRate      float64
	MeanCompletion float64 // seconds
	Target         float64
	SkillBefore    float64
	SkillAfter     float64
	DynamicBefore  float64
	DynamicAfter   float64
	Reason         string
}

// Tick advances the evaluation timer and runs Evaluate when the interval
// elapses. Returns the evaluation and true when one ran.
func (c *Controller) Tick(dt time.Duration) (Evaluation, bool) {
	if dt <= 0 {
		return Evaluation{}, false
	}
	c.sinceEval += dt
	if c.sinceEval < c.config.EvaluationInterval {
		return Evaluation{}, false
	}
	c.sinceEval = 0
	return c.Evaluate(), true
}

// Evaluate recomputes the skill target from the rolling windows, smooths the
// skill factor toward it and steps the dynamic adjustment.
func (c *Controller) Evaluate() Evaluation {
	cfg := c.config
	ev := Evaluation{SkillBefore: c.skill, DynamicBefore: c.dynamic}
	var reasons []string

	target := 1.0
	if c.outcomes.Len() >= cfg.MinSamples {
		ev.DeathRate = statwindow.Rate(c.outcomes)
		switch {
		case ev.DeathRate > cfg.HighDeathRate:
			target -= cfg.HighDeathPenalty
			reasons = append(reasons, fmt.Sprintf("death rate %.2f > %.2f", ev.DeathRate, cfg.HighDeathRate))
		case ev.DeathRate < cfg.LowDeathRate:
			target += cfg.LowDeathBonus
			reasons = append(reasons, fmt.Sprintf("death rate %.2f < %.2f", ev.DeathRate, cfg.LowDeathRate))
		}
	}
	if c.durations.Len() > 0 {
		ev.MeanCompletion = statwindow.Mean(c.durations)
		if ev.MeanCompletion < cfg.ExpectedCompletion.Seconds()*cfg.FastRatio {
			target += cfg.FastBonus
			reasons = append(reasons, fmt.Sprintf("fast completion %.0fs", ev.MeanCompletion))
		}
	}
	target = curve.Clamp(target, cfg.SkillMin, cfg.SkillMax)
	c.target = target
	c.skill = curve.Clamp(curve.Lerp(c.skill, target, cfg.SmoothingRate), cfg.SkillMin, cfg.SkillMax)

	dynTarget := 1.0
	switch {
	case c.skill < cfg.LowSkillThreshold:
		dynTarget = cfg.LowSkillThreshold
	case c.skill > cfg.HighSkillThreshold:
		dynTarget = cfg.HighSkillThreshold
	}
	c.dynamic = curve.Clamp(curve.MoveTowards(c.dynamic, dynTarget, cfg.DynamicStep), cfg.DynamicMin, cfg.DynamicMax)

	c.evaluations++
	ev.Target = target
	ev.SkillAfter = c.skill
	ev.DynamicAfter = c.dynamic
	ev.Reason = "steady"
	if len(reasons) > 0 {
		ev.Reason = strings.Join(reasons, "; ")
	}
	return ev
}

// #endregion evaluate

// #region mitigation

// ApplyRelief lowers the dynamic adjustment by amount (capped at MaxRelief)
// and returns the applied step. Normal evaluation decays it back.
func (c *Controller) ApplyRelief(amount float64) float64 {
	amount = curve.Clamp(amount, 0, c.config.MaxRelief)
	before := c.dynamic
	c.dynamic = curve.Clamp(c.dynamic-amount, c.config.DynamicMin, c.config.DynamicMax)
	return before - c.dynamic
}

// Reset restores neutral factors, clears sample windows and bumps the epoch.
func (c *Controller) Reset() {
	c.outcomes.Reset()
	c.durations.Reset()
	c.skill = 1.0
	c.target = 1.0
	c.dynamic = 1.0
	c.sinceEval = 0
	c.epoch++
}

// Restore loads persisted factors, clamping them into bounds.
func (c *Controller) Restore(skill, dynamic float64) {
	if math.IsNaN(skill) {
		skill = 1
	}
	if math.IsNaN(dynamic) {
		dynamic = 1
	}
	c.skill = curve.Clamp(skill, c.config.SkillMin, c.config.SkillMax)
	c.target = c.skill
	c.dynamic = curve.Clamp(dynamic, c.config.DynamicMin, c.config.DynamicMax)
}

// #endregion mitigation

// #region sanitize
func sanitize(cfg Config, logger *log.Logger) Config {
	def := DefaultConfig()
	fix := func(name string, bad bool, apply func()) {
		if bad {
			logger.Printf("difficulty: invalid %s, using default", name)
			apply()
		}
	}
	fix("max_depth", !(cfg.MaxDepth > 0), func() { cfg.MaxDepth = def.MaxDepth })
	fix("exponent", !(cfg.Exponent > 0), func() { cfg.Exponent = def.Exponent })
	fix("max_bonus", !(cfg.MaxBonus >= 0), func() { cfg.MaxBonus = def.MaxBonus })
	fix("window_size", cfg.WindowSize < 1, func() { cfg.WindowSize = def.WindowSize })
	fix("min_samples", cfg.MinSamples < 1, func() { cfg.MinSamples = def.MinSamples })
	fix("evaluation_interval", cfg.EvaluationInterval <= 0, func() { cfg.EvaluationInterval = def.EvaluationInterval })
	fix("expected_completion", cfg.ExpectedCompletion <= 0, func() { cfg.ExpectedCompletion = def.ExpectedCompletion })
	fix("skill bounds", !(cfg.SkillMin > 0 && cfg.SkillMin <= 1 && cfg.SkillMax >= 1), func() {
		cfg.SkillMin, cfg.SkillMax = def.SkillMin, def.SkillMax
	})
	fix("dynamic bounds", !(cfg.DynamicMin > 0 && cfg.DynamicMin <= 1 && cfg.DynamicMax >= 1), func() {
		cfg.DynamicMin, cfg.DynamicMax = def.DynamicMin, def.DynamicMax
	})
	fix("smoothing_rate", !(cfg.SmoothingRate > 0 && cfg.SmoothingRate <= 1), func() { cfg.SmoothingRate = def.SmoothingRate })
	fix("dynamic_step", !(cfg.DynamicStep > 0), func() { cfg.DynamicStep = def.DynamicStep })
	fix("max_relief", !(cfg.MaxRelief >= 0), func() { cfg.MaxRelief = def.MaxRelief })
	fix("layer_breaks", !(cfg.LayerBreaks[0] < cfg.LayerBreaks[1] && cfg.LayerBreaks[1] < cfg.LayerBreaks[2]), func() {
		cfg.LayerBreaks = def.LayerBreaks
	})
	for i, m := range cfg.LayerMultipliers {
		fix(fmt.Sprintf("layer_multiplier[%d]", i), !(m > 0), func() { cfg.LayerMultipliers[i] = def.LayerMultipliers[i] })
	}
	return cfg
}

// #endregion sanitize
