package engine

import (
	"log"
	"math"
	"time"

	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/anomaly"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/difficulty"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/economy"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/enemy"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/eval"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/experiment"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/journey"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/logging"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/pacing"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/penalty"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/reward"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/schedule"
)

// #region engine-struct

// Engine is the context object for one player. It owns every controller and
// is driven from a single goroutine; it is not safe for concurrent use.
type Engine struct {
	config   Config
	logger   *log.Logger
	playerID string
	col      Collaborators

	start   time.Time
	elapsed time.Duration
	tick    uint64

	difficulty  *difficulty.Controller
	enemies     *enemy.Scaler
	economy     *economy.Valuator
	penalty     *penalty.Calculator
	pacing      *pacing.Controller
	rewards     *reward.Timer
	experiments *experiment.Assigner
	anomaly     *anomaly.Detector
	journey     *journey.Tracker
	harness     *eval.EvalHarness
	queue       schedule.Queue

	depth        float64
	diveID       string
	diveSeq      uint64
	diveMaxDepth float64
	sessionID    string
	sessionSeq   uint64
	sessionStart time.Time
	progress     reward.Progress
	lastEval     eval.EvalResult
	lastSession  *pacing.SessionRecord
}

// Options carries the per-instance inputs of New.
type Options struct {
	PlayerID      string
	Start         time.Time // engine clock origin (zero means now)
	Logger        *log.Logger
	Risk          economy.RiskSource // historical death rates, may be nil
	Collaborators Collaborators
}

// #endregion

// #region constructor

// New creates a fully wired engine. Bosses and experiments in config are
// registered; invalid entries are logged and skipped.
func New(config Config, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	if config.TickRate <= 0 {
		config.TickRate = DefaultConfig().TickRate
	}
	if config.PenaltyStageDelay < 0 {
		logger.Printf("engine: negative penalty_stage_delay, using default")
		config.PenaltyStageDelay = DefaultConfig().PenaltyStageDelay
	}
	config.Eval = evalBounds(config)
	start := opts.Start
	if start.IsZero() {
		start = time.Now().UTC()
	}

	e := &Engine{
		config:      config,
		logger:      logger,
		playerID:    opts.PlayerID,
		col:         opts.Collaborators.withDefaults(logger),
		start:       start,
		difficulty:  difficulty.New(config.Difficulty, logger),
		penalty:     penalty.NewCalculator(config.Penalty, logger),
		pacing:      pacing.NewController(config.Pacing, logger),
		rewards:     reward.NewTimer(config.Reward, logger),
		experiments: experiment.NewAssigner(logger),
		anomaly:     anomaly.NewDetector(config.Anomaly, logger),
		journey:     journey.NewTracker(start),
		harness:     eval.NewEvalHarness(config.Eval),
		progress:    reward.Progress{},
	}
	e.enemies = enemy.NewScaler(config.Enemy, e.difficulty, logger)
	e.economy = economy.NewValuator(config.Economy, opts.Risk, logger)
	e.penalty.SetClock(e.Now)

	for id, phases := range config.Bosses {
		e.enemies.RegisterBoss(id, phases)
	}
	for _, t := range config.Experiments {
		if err := e.experiments.Register(t); err != nil {
			logger.Printf("engine: experiment skipped: %v", err)
		}
	}
	return e
}

// evalBounds fills every eval bound left at its default from the controller
// that owns it, so tuning a controller moves its check with it.
func evalBounds(config Config) eval.EvalConfig {
	ev, def := config.Eval, eval.DefaultEvalConfig()
	derive := func(dst *float64, dflt, src float64) {
		if (*dst == 0 || *dst == dflt) && src != 0 {
			*dst = src
		}
	}
	derive(&ev.SkillMin, def.SkillMin, config.Difficulty.SkillMin)
	derive(&ev.SkillMax, def.SkillMax, config.Difficulty.SkillMax)
	derive(&ev.DynamicMin, def.DynamicMin, config.Difficulty.DynamicMin)
	derive(&ev.DynamicMax, def.DynamicMax, config.Difficulty.DynamicMax)
	derive(&ev.MarketRange, def.MarketRange, config.Economy.MarketRange)
	derive(&ev.RateMin, def.RateMin, config.Pacing.MinRate)
	derive(&ev.RateMax, def.RateMax, config.Pacing.MaxRate)
	return ev
}

// #endregion

// #region accessors

// PlayerID returns the player this engine serves.
func (e *Engine) PlayerID() string { return e.playerID }

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.config }

// Now returns the engine clock: the start time plus all ticked time.
func (e *Engine) Now() time.Time { return e.start.Add(e.elapsed) }

// Elapsed returns the total ticked time.
func (e *Engine) Elapsed() time.Duration { return e.elapsed }

// Difficulty returns the difficulty controller.
func (e *Engine) Difficulty() *difficulty.Controller { return e.difficulty }

// Enemies returns the enemy scaler.
func (e *Engine) Enemies() *enemy.Scaler { return e.enemies }

// Economy returns the resource valuator.
func (e *Engine) Economy() *economy.Valuator { return e.economy }

// Penalty returns the penalty calculator.
func (e *Engine) Penalty() *penalty.Calculator { return e.penalty }

// Pacing returns the pacing controller.
func (e *Engine) Pacing() *pacing.Controller { return e.pacing }

// Rewards returns the reward timer.
func (e *Engine) Rewards() *reward.Timer { return e.rewards }

// Experiments returns the experiment assigner.
func (e *Engine) Experiments() *experiment.Assigner { return e.experiments }

// Anomaly returns the pain-point detector.
func (e *Engine) Anomaly() *anomaly.Detector { return e.anomaly }

// Journey returns the journey tracker.
func (e *Engine) Journey() *journey.Tracker { return e.journey }

// Pending returns the number of scheduled continuations.
func (e *Engine) Pending() int { return e.queue.Len() }

// #endregion

// #region tick

// Tick advances the engine clock by dt. Due continuations run first, then
// the difficulty evaluation, the market walk, pacing and the no-progress check.
func (e *Engine) Tick(dt time.Duration) TickReport {
	var rep TickReport
	if dt <= 0 {
		return rep
	}
	e.elapsed += dt
	e.tick++
	rep.Tick = e.tick

	res := e.queue.Run(uint64(e.elapsed))
	rep.Ran, rep.Aborted = res.Ran, res.Aborted

	if ev, ok := e.difficulty.Tick(dt); ok {
		rep.Evaluation = &ev
		e.emit(logging.EventEvaluation, map[string]any{
			"death_rate":      ev.DeathRate,
			"mean_completion": ev.MeanCompletion,
			"target":          ev.Target,
			"skill_before":    ev.SkillBefore,
			"skill_after":     ev.SkillAfter,
			"dynamic_before":  ev.DynamicBefore,
			"dynamic_after":   ev.DynamicAfter,
			"reason":          ev.Reason,
		})
		result := e.runEval()
		rep.Eval = &result
	}

	e.economy.Tick(dt)

	pt := e.pacing.Tick(dt, e.depth)
	rep.Spawn = pt.Spawn
	rep.Pacing = pt.Adjustment
	if pt.Spawn {
		fields := map[string]any{
			"tension": e.pacing.Throttle().Tension(),
			"rate":    e.pacing.Throttle().Rate(),
			"layer":   e.difficulty.Layer(e.depth).String(),
		}
		e.col.Cues.Cue("encounter_spawn", fields)
		e.emit(logging.EventEncounter, fields)
	}
	if adj := pt.Adjustment; adj != nil && adj.RateAfter != adj.RateBefore {
		e.emit(logging.EventPacing, map[string]any{
			"combat_ratio": adj.CombatRatio,
			"rate_before":  adj.RateBefore,
			"rate_after":   adj.RateAfter,
		})
	}

	if det, ok := e.anomaly.Tick(e.Now()); ok {
		e.mitigate(det)
		rep.Detections = append(rep.Detections, det)
	}
	return rep
}

// runEval checks the controller outputs against their bounds. A failure is
// logged; the values themselves are already clamped.
func (e *Engine) runEval() eval.EvalResult {
	in := eval.EvalInput{
		Snapshot:      e.difficulty.Snapshot(e.depth),
		Market:        e.economy.MarketState().Factors,
		EncounterRate: e.pacing.Throttle().Rate(),
		Tension:       e.pacing.Throttle().Tension(),
		PaceScore:     -1,
	}
	if c, x, r := e.pacing.Ratios(); c+x+r > 0 {
		in.PaceScore = pacing.PaceScore(c, x, r, e.pacing.Config().Targets)
	}
	result := e.harness.Run(in)
	if !result.Passed {
		e.logger.Printf("engine: player %s %s", e.playerID, result.Reason)
	}
	e.lastEval = result
	return result
}

// #endregion

// #region scheduling

// after schedules fn delay from now. The continuation is dropped when valid
// reports false at its deadline.
func (e *Engine) after(name string, delay time.Duration, valid func() bool, fn func()) {
	if delay < 0 {
		delay = 0
	}
	e.queue.Schedule(schedule.Task{
		Name:  name,
		Due:   uint64(e.elapsed + delay),
		Valid: valid,
		Run:   fn,
	})
}

// sameDive guards a continuation on the dive that scheduled it.
func (e *Engine) sameDive() func() bool {
	seq := e.diveSeq
	return func() bool { return e.diveSeq == seq }
}

// sameSession guards a continuation on the session that scheduled it.
func (e *Engine) sameSession() func() bool {
	seq := e.sessionSeq
	return func() bool { return e.sessionSeq == seq }
}

// sameDifficulty guards a continuation on the difficulty epoch that
// scheduled it. ResetDifficulty advances the epoch.
func (e *Engine) sameDifficulty() func() bool {
	epoch := e.difficulty.Epoch()
	return func() bool { return e.difficulty.Epoch() == epoch }
}

func allOf(guards ...func() bool) func() bool {
	return func() bool {
		for _, g := range guards {
			if !g() {
				return false
			}
		}
		return true
	}
}

// #endregion

// #region mitigation

// mitigate applies the bounded response of one detection.
func (e *Engine) mitigate(det anomaly.Detection) {
	m := det.Mitigation
	applied := 0.0
	if m.Relief > 0 {
		applied = e.difficulty.ApplyRelief(m.Relief)
	}
	if m.EncounterNudge != 0 {
		e.pacing.Throttle().Nudge(m.EncounterNudge)
	}
	if m.Hint != "" {
		e.col.Notifier.Toast(m.Hint)
	}
	fields := map[string]any{
		"kind":   string(det.PainPoint.Kind),
		"count":  det.PainPoint.Count,
		"reason": det.PainPoint.Reason,
		"relief": applied,
		"nudge":  m.EncounterNudge,
	}
	if det.PainPoint.MissionID != "" {
		fields["mission_id"] = det.PainPoint.MissionID
	}
	e.emit(logging.EventPainPoint, fields)
	e.logger.Printf("engine: player %s pain point %s: %s", e.playerID, det.PainPoint.Kind, det.PainPoint.Reason)
}

// #endregion

// #region helpers

func (e *Engine) emit(event string, fields map[string]any) {
	e.col.Analytics.Emit(event, e.depth, fields)
}

// cleanDepth maps non-finite and negative depths to 0.
func cleanDepth(depth float64) float64 {
	if math.IsNaN(depth) || math.IsInf(depth, 0) || depth < 0 {
		return 0
	}
	return depth
}

// #endregion
