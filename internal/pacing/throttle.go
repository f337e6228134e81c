package pacing

import (
	"math"
	"time"

	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/curve"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/rng"
)

// #region throttle
// Throttle is the encounter spawn model. Tension rises quickly in combat and
// decays slowly outside it; spawn rolls are suppressed while in combat and
// during the post-combat cooldown.
type Throttle struct {
	config Config
	rng    *rng.RNG

	tension     float64
	rate        float64
	inCombat    bool
	sinceCombat time.Duration
	sinceRoll   time.Duration
	starts      int
	ends        int
}

func newThrottle(config Config) *Throttle {
	return &Throttle{
		config: config,
		rng:    rng.New(config.Seed),
		rate:   1.0,
	}
}

// Tension returns the current tension in [0,1].
func (t *Throttle) Tension() float64 { return t.tension }

// Rate returns the encounter-rate multiplier.
func (t *Throttle) Rate() float64 { return t.rate }

// InCombat reports whether a combat is open.
func (t *Throttle) InCombat() bool { return t.inCombat }

// SinceCombat returns the time since the last combat ended.
func (t *Throttle) SinceCombat() time.Duration { return t.sinceCombat }

// Counts returns the number of combat starts and ends.
func (t *Throttle) Counts() (starts, ends int) { return t.starts, t.ends }

// Nudge moves the encounter rate by delta inside [MinRate, MaxRate] and
// returns the new rate.
func (t *Throttle) Nudge(delta float64) float64 {
	if math.IsNaN(delta) {
		return t.rate
	}
	t.rate = curve.Clamp(t.rate+delta, t.config.MinRate, t.config.MaxRate)
	return t.rate
}

// StartCombat opens a combat. Repeated calls while in combat are ignored.
func (t *Throttle) StartCombat() bool {
	if t.inCombat {
		return false
	}
	t.inCombat = true
	t.starts++
	return true
}

// EndCombat closes a combat, resets tension to the post-combat level and
// restarts the cooldown.
func (t *Throttle) EndCombat() bool {
	if !t.inCombat {
		return false
	}
	t.inCombat = false
	t.ends++
	t.tension = curve.Clamp01(t.config.PostCombatTension)
	t.sinceCombat = 0
	t.sinceRoll = 0
	return true
}

// SpawnChance returns the probability for a single roll at depth.
func (t *Throttle) SpawnChance(depth float64) float64 {
	if t.inCombat || t.sinceCombat < t.config.Cooldown {
		return 0
	}
	timeFactor := 1.0
	if t.config.TimeRamp > 0 {
		ramp := curve.Clamp01(float64(t.sinceCombat-t.config.Cooldown) / float64(t.config.TimeRamp))
		timeFactor = curve.Lerp(1, t.config.MaxTimeFactor, ramp)
	}
	norm := curve.Clamp01(depth / t.config.MaxDepth)
	depthFactor := 1 + norm*t.config.DepthBonus
	chance := t.config.BaseChance * t.rate * timeFactor * (1 - t.tension*t.config.TensionDamping) * depthFactor
	return curve.Clamp01(chance)
}

// Tick advances tension and cooldown timers and rolls for a spawn once per
// SpawnCheckInterval. It returns true when an encounter should spawn.
func (t *Throttle) Tick(dt time.Duration, depth float64) bool {
	if dt <= 0 {
		return false
	}
	secs := dt.Seconds()
	if t.inCombat {
		t.tension = curve.Clamp01(t.tension + t.config.TensionRise*secs)
		return false
	}
	t.tension = curve.Clamp01(t.tension - t.config.TensionDecay*secs)
	t.sinceCombat += dt
	t.sinceRoll += dt
	for t.sinceRoll >= t.config.SpawnCheckInterval {
		t.sinceRoll -= t.config.SpawnCheckInterval
		if t.rng.Chance(t.SpawnChance(depth)) {
			t.sinceRoll = 0
			return true
		}
	}
	return false
}

// RNGState returns the roll source position for persistence.
func (t *Throttle) RNGState() (seed, position int64) {
	return t.rng.Seed(), t.rng.Position()
}

// RestoreRNG resumes the roll source at a saved position.
func (t *Throttle) RestoreRNG(seed, position int64) {
	t.rng = rng.Restore(seed, position)
}

// #endregion throttle
