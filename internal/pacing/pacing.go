package pacing

import (
	"log"
	"math"
	"time"

	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/curve"
)

// #region controller
// Controller buckets session time by activity and nudges the encounter
// throttle toward the target ratios.
type Controller struct {
	config   Config
	logger   *log.Logger
	throttle *Throttle

	activity   Activity
	combat     time.Duration
	explore    time.Duration
	rest       time.Duration
	sinceCheck time.Duration

	session *SessionRecord
}

// Adjustment describes one ratio check.
type Adjustment struct {
	CombatRatio float64
	RateBefore  float64
	RateAfter   float64
}

// TickResult reports what one pacing tick did.
type TickResult struct {
	Spawn      bool
	Adjustment *Adjustment
}

// NewController creates a pacing controller. Invalid config fields fall back
// to defaults.
func NewController(config Config, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.Default()
	}
	config = sanitize(config, logger)
	return &Controller{
		config:   config,
		logger:   logger,
		throttle: newThrottle(config),
	}
}

// Config returns the active configuration.
func (c *Controller) Config() Config { return c.config }

// Throttle returns the encounter throttle owned by this controller.
func (c *Controller) Throttle() *Throttle { return c.throttle }

// #endregion controller

// #region activity

// SetActivity changes the bucket time accrues into. Combat is entered through
// StartCombat so combat counts stay accurate.
func (c *Controller) SetActivity(a Activity) {
	if a < Exploration || a > Rest {
		c.logger.Printf("pacing: unknown activity %d ignored", a)
		return
	}
	if a == Combat {
		c.StartCombat()
		return
	}
	if c.throttle.InCombat() {
		c.throttle.EndCombat()
	}
	c.activity = a
}

// Activity returns the current activity.
func (c *Controller) Activity() Activity { return c.activity }

// StartCombat enters combat and counts it into the session.
func (c *Controller) StartCombat() {
	if !c.throttle.StartCombat() {
		return
	}
	c.activity = Combat
	if c.session != nil {
		c.session.CombatCount++
	}
}

// EndCombat leaves combat and returns to exploration.
func (c *Controller) EndCombat() {
	if !c.throttle.EndCombat() {
		return
	}
	c.activity = Exploration
}

// #endregion activity

// #region tick

// Tick accrues dt into the active bucket, runs the ratio check when enough
// time has accumulated and rolls the throttle.
func (c *Controller) Tick(dt time.Duration, depth float64) TickResult {
	var res TickResult
	if dt <= 0 {
		return res
	}
	switch c.activity {
	case Combat:
		c.combat += dt
	case Rest:
		c.rest += dt
	default:
		c.explore += dt
	}
	if c.session != nil {
		switch c.activity {
		case Combat:
			c.session.CombatTime += dt
		case Rest:
			c.session.RestTime += dt
		default:
			c.session.ExplorationTime += dt
		}
	}

	c.sinceCheck += dt
	if c.sinceCheck >= c.config.CheckInterval {
		c.sinceCheck = 0
		res.Adjustment = c.check()
	}
	res.Spawn = c.throttle.Tick(dt, depth)
	return res
}

// check compares the combat share against its target and nudges the
// encounter rate by one step when it is outside the threshold.
func (c *Controller) check() *Adjustment {
	total := c.combat + c.explore + c.rest
	if total <= 0 {
		return nil
	}
	adj := &Adjustment{
		CombatRatio: float64(c.combat) / float64(total),
		RateBefore:  c.throttle.Rate(),
	}
	target := c.config.Targets.Combat
	switch {
	case adj.CombatRatio < target-c.config.Threshold:
		c.throttle.Nudge(c.config.RateStep)
	case adj.CombatRatio > target+c.config.Threshold:
		c.throttle.Nudge(-c.config.RateStep)
	}
	adj.RateAfter = c.throttle.Rate()
	return adj
}

// Ratios returns the combat, exploration and rest shares of accumulated time.
func (c *Controller) Ratios() (combat, exploration, rest float64) {
	total := float64(c.combat + c.explore + c.rest)
	if total <= 0 {
		return 0, 0, 0
	}
	return float64(c.combat) / total, float64(c.explore) / total, float64(c.rest) / total
}

// #endregion tick

// #region session

// StartSession opens a new session record and resets the ratio accumulators.
// An open session is finalized and discarded.
func (c *Controller) StartSession(id string, now time.Time) {
	if c.session != nil {
		c.logger.Printf("pacing: session %s still open, replacing with %s", c.session.ID, id)
	}
	c.session = &SessionRecord{ID: id, StartedAt: now}
	c.combat, c.explore, c.rest = 0, 0, 0
	c.sinceCheck = 0
}

// EndSession finalizes the open session and returns it. Returns false when no
// session was open.
func (c *Controller) EndSession(now time.Time) (SessionRecord, bool) {
	if c.session == nil {
		return SessionRecord{}, false
	}
	rec := *c.session
	c.session = nil
	rec.EndedAt = now
	if total := rec.Total(); total > 0 {
		rec.CombatRatio = float64(rec.CombatTime) / float64(total)
		rec.ExplorationRatio = float64(rec.ExplorationTime) / float64(total)
		rec.RestRatio = float64(rec.RestTime) / float64(total)
	}
	rec.PaceScore = PaceScore(rec.CombatRatio, rec.ExplorationRatio, rec.RestRatio, c.config.Targets)
	rec.Finalized = true
	return rec, true
}

// Session returns a copy of the open session.
func (c *Controller) Session() (SessionRecord, bool) {
	if c.session == nil {
		return SessionRecord{}, false
	}
	return *c.session, true
}

// OnEnemyDefeated counts a defeated enemy into the open session.
func (c *Controller) OnEnemyDefeated() {
	if c.session != nil {
		c.session.EnemiesDefeated++
	}
}

// OnResourceCollected counts a pickup into the open session.
func (c *Controller) OnResourceCollected() {
	if c.session != nil {
		c.session.ResourcesCollected++
	}
}

// OnMissionCompleted counts a completed mission into the open session.
func (c *Controller) OnMissionCompleted() {
	if c.session != nil {
		c.session.MissionsCompleted++
	}
}

// PaceScore returns 1 - sum(|actual-target|)/2, in [0,1].
func PaceScore(combat, exploration, rest float64, t Targets) float64 {
	dev := math.Abs(combat-t.Combat) + math.Abs(exploration-t.Exploration) + math.Abs(rest-t.Rest)
	return curve.Clamp01(1 - dev/2)
}

// #endregion session

// #region sanitize
func sanitize(cfg Config, logger *log.Logger) Config {
	def := DefaultConfig()
	fix := func(name string, bad bool, apply func()) {
		if bad {
			logger.Printf("pacing: invalid %s, using default", name)
			apply()
		}
	}
	t := cfg.Targets
	sum := t.Combat + t.Exploration + t.Rest
	fix("targets", !(t.Combat >= 0 && t.Exploration >= 0 && t.Rest >= 0 && math.Abs(sum-1) < 1e-6), func() {
		cfg.Targets = def.Targets
	})
	fix("threshold", !(cfg.Threshold >= 0), func() { cfg.Threshold = def.Threshold })
	fix("check_interval", cfg.CheckInterval <= 0, func() { cfg.CheckInterval = def.CheckInterval })
	fix("rate_step", !(cfg.RateStep >= 0), func() { cfg.RateStep = def.RateStep })
	fix("rate bounds", !(cfg.MinRate > 0 && cfg.MinRate <= 1 && cfg.MaxRate >= 1), func() {
		cfg.MinRate, cfg.MaxRate = def.MinRate, def.MaxRate
	})
	fix("base_chance", !(cfg.BaseChance >= 0 && cfg.BaseChance <= 1), func() { cfg.BaseChance = def.BaseChance })
	fix("tension_rise", !(cfg.TensionRise >= 0), func() { cfg.TensionRise = def.TensionRise })
	fix("tension_decay", !(cfg.TensionDecay >= 0), func() { cfg.TensionDecay = def.TensionDecay })
	fix("tension_damping", !(cfg.TensionDamping >= 0 && cfg.TensionDamping <= 1), func() { cfg.TensionDamping = def.TensionDamping })
	fix("max_time_factor", !(cfg.MaxTimeFactor >= 1), func() { cfg.MaxTimeFactor = def.MaxTimeFactor })
	fix("max_depth", !(cfg.MaxDepth > 0), func() { cfg.MaxDepth = def.MaxDepth })
	fix("spawn_check_interval", cfg.SpawnCheckInterval <= 0, func() { cfg.SpawnCheckInterval = def.SpawnCheckInterval })
	fix("cooldown", cfg.Cooldown < 0, func() { cfg.Cooldown = def.Cooldown })
	return cfg
}

// #endregion sanitize
