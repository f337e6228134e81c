package penalty

import (
	"log"
	"math"
	"time"

	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/curve"
	"github.com/google/uuid"
)

// #region calculator
// Calculator computes death penalties and tracks the active insurance tier.
type Calculator struct {
	config    Config
	logger    *log.Logger
	insurance Insurance
	boughtFor string // dive id the insurance was purchased for
	cleared   string // last dive id whose boundary cleared insurance
	now       func() time.Time
}

// NewCalculator creates a calculator with no insurance.
func NewCalculator(config Config, logger *log.Logger) *Calculator {
	if logger == nil {
		logger = log.Default()
	}
	if !(config.MaxDepth > 0) {
		logger.Printf("penalty: invalid max_depth, using 100")
		config.MaxDepth = 100
	}
	for i, m := range config.InsuranceMultipliers {
		if math.IsNaN(m) || m < 0 || m > 1 {
			logger.Printf("penalty: insurance multiplier %s=%.2f out of [0,1], using default", Insurance(i), m)
			config.InsuranceMultipliers[i] = DefaultConfig().InsuranceMultipliers[i]
		}
	}
	return &Calculator{
		config: config,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Config returns the active configuration.
func (c *Calculator) Config() Config { return c.config }

// SetClock overrides the report timestamp source.
func (c *Calculator) SetClock(now func() time.Time) {
	if now != nil {
		c.now = now
	}
}

// #endregion calculator

// #region apply

// ApplyDeathPenalty computes the loss report for ctx. The report is data only;
// applying it to inventory, credits and equipment is the caller's job.
func (c *Calculator) ApplyDeathPenalty(ctx DeathContext) Report {
	depth := ctx.Depth
	if math.IsNaN(depth) || depth < 0 {
		depth = 0
	}
	tier := c.insurance
	if tier != InsuranceNone && c.boughtFor != "" && ctx.DiveID != "" && c.boughtFor != ctx.DiveID {
		c.logger.Printf("penalty: insurance bought for dive %s does not cover dive %s", c.boughtFor, ctx.DiveID)
		tier = InsuranceNone
	}
	r := Report{
		ID:        uuid.New().String(),
		DiveID:    ctx.DiveID,
		Depth:     depth,
		Cause:     ctx.Cause,
		Insurance: tier,
		CreatedAt: c.now(),
	}
	if !c.config.Enabled {
		return r
	}
	r.SurvivalBonus = c.SurvivalBonus(ctx.SessionDuration)

	mult := curve.Clamp01(depth/c.config.MaxDepth) * c.InsuranceMultiplier(tier)
	r.Applied = true
	r.PenaltyMultiplier = mult
	r.ResourceLossPct = interpolate(c.config.ResourceLoss, mult)
	r.CreditLossPct = interpolate(c.config.CreditLoss, mult)
	r.EquipmentDamagePct = interpolate(c.config.EquipmentDamage, mult)
	if c.config.XPLossEnabled {
		r.XPLossPct = interpolate(c.config.XPLoss, mult)
	}
	lo, hi := c.config.RespawnDelay[0], c.config.RespawnDelay[1]
	r.RespawnDelay = lo + time.Duration(float64(hi-lo)*mult)
	return r
}

// SurvivalBonus returns floor(minutes * BonusPerMinute), capped.
func (c *Calculator) SurvivalBonus(session time.Duration) int {
	if session <= 0 {
		return 0
	}
	bonus := int(math.Floor(session.Minutes() * c.config.BonusPerMinute))
	if bonus > c.config.MaxSurvivalBonus {
		bonus = c.config.MaxSurvivalBonus
	}
	if bonus < 0 {
		bonus = 0
	}
	return bonus
}

// InsuranceMultiplier returns the discount multiplier for a tier.
func (c *Calculator) InsuranceMultiplier(tier Insurance) float64 {
	if tier < InsuranceNone || tier > InsurancePremium {
		return 1
	}
	return c.config.InsuranceMultipliers[tier]
}

// #endregion apply

// #region insurance

// Purchase activates tier for diveID.
func (c *Calculator) Purchase(tier Insurance, diveID string) {
	if tier < InsuranceNone || tier > InsurancePremium {
		c.logger.Printf("penalty: unknown insurance tier %d ignored", tier)
		return
	}
	c.insurance = tier
	c.boughtFor = diveID
}

// Insurance returns the active tier.
func (c *Calculator) Insurance() Insurance { return c.insurance }

// ClearInsurance drops the active tier at the diveID boundary. It clears at
// most once per dive id and reports whether it did. A tier bought for a
// different dive survives.
func (c *Calculator) ClearInsurance(diveID string) bool {
	if diveID != "" && c.cleared == diveID {
		return false
	}
	if c.boughtFor != "" && c.boughtFor != diveID {
		return false
	}
	c.cleared = diveID
	c.insurance = InsuranceNone
	c.boughtFor = ""
	return true
}

// #endregion insurance

// #region helpers
func interpolate(r Range, t float64) float64 {
	return curve.Lerp(r.Base, r.Max, curve.Clamp01(t))
}

// #endregion helpers
