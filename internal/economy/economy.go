package economy

import (
	"log"
	"math"
	"sort"
	"time"

	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/curve"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/difficulty"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/rng"
)

// #region valuator
// Valuator prices loot from depth, rarity, historical risk and a per-resource
// market factor. The market map is owned exclusively by the valuator.
type Valuator struct {
	config Config
	risk   RiskSource
	logger *log.Logger

	rng       *rng.RNG
	market    map[string]float64
	epoch     int
	sinceWalk time.Duration
}

// MarketState is the persisted form of the market.
type MarketState struct {
	Epoch    int                `json:"epoch"`
	Seed     int64              `json:"seed"`
	Position int64              `json:"position"`
	Factors  map[string]float64 `json:"factors"`
}

// NewValuator creates a valuator. risk may be nil.
func NewValuator(config Config, risk RiskSource, logger *log.Logger) *Valuator {
	if logger == nil {
		logger = log.Default()
	}
	def := DefaultConfig()
	if !(config.MaxDepth > 0) {
		logger.Printf("economy: invalid max_depth, using default")
		config.MaxDepth = def.MaxDepth
	}
	if !(config.MarketRange >= 0 && config.MarketRange < 1) {
		logger.Printf("economy: invalid market_range %.3f, using default", config.MarketRange)
		config.MarketRange = def.MarketRange
	}
	if !(config.MarketStep >= 0) {
		config.MarketStep = def.MarketStep
	}
	if config.MarketInterval <= 0 {
		config.MarketInterval = def.MarketInterval
	}
	if !(config.DepthExponent > 0) {
		config.DepthExponent = def.DepthExponent
	}
	return &Valuator{
		config: config,
		risk:   risk,
		logger: logger,
		rng:    rng.New(config.Seed),
		market: make(map[string]float64),
	}
}

// SetRiskSource swaps the telemetry collaborator.
func (v *Valuator) SetRiskSource(risk RiskSource) { v.risk = risk }

// #endregion valuator

// #region value

// Value returns round(base * depthBonus * rarity * risk * market).
func (v *Valuator) Value(resource ResourceProfile, depth float64) int {
	return v.Breakdown(resource, depth).Value
}

// Breakdown returns every factor of a valuation.
func (v *Valuator) Breakdown(resource ResourceProfile, depth float64) Breakdown {
	base := resource.BaseValue
	if math.IsNaN(base) || base < 0 {
		base = 0
	}
	b := Breakdown{
		ResourceID: resource.ID,
		Base:       base,
		DepthBonus: v.DepthBonus(depth),
		Rarity:     v.RarityMultiplier(resource.Rarity),
		Risk:       v.RiskMultiplier(depth),
		Market:     v.MarketFactor(resource.ID),
	}
	b.Value = int(math.Round(b.Base * b.DepthBonus * b.Rarity * b.Risk * b.Market))
	return b
}

// DepthBonus returns 1 + norm^exponent * (maxBonus - 1).
func (v *Valuator) DepthBonus(depth float64) float64 {
	norm := curve.Clamp01(depth / v.config.MaxDepth)
	return 1 + math.Pow(norm, v.config.DepthExponent)*(v.config.MaxDepthBonus-1)
}

// RarityMultiplier returns the table multiplier; unknown rarities price as Common.
func (v *Valuator) RarityMultiplier(r Rarity) float64 {
	if r < Common || r > Legendary {
		return v.config.RarityMultipliers[Common]
	}
	return v.config.RarityMultipliers[r]
}

// RiskMultiplier returns 1 + deathRate(depth) * riskFactor.
func (v *Valuator) RiskMultiplier(depth float64) float64 {
	return 1 + v.DeathRate(depth)*v.config.RiskFactor
}

// DeathRate asks the risk source, falling back to the per-layer table.
func (v *Valuator) DeathRate(depth float64) float64 {
	if v.risk != nil {
		if rate, ok := v.risk.DeathRateAtDepth(depth); ok && !math.IsNaN(rate) {
			return curve.Clamp01(rate)
		}
	}
	layer := difficulty.LayerFor(depth, v.config.LayerBreaks)
	return v.config.FallbackDeathRate[layer]
}

// #endregion value

// #region market

// MarketFactor returns the factor for id, seeding it uniformly inside the
// bounds on first use.
func (v *Valuator) MarketFactor(id string) float64 {
	if f, ok := v.market[id]; ok {
		return f
	}
	lo, hi := v.bounds()
	f := lo
	if hi > lo {
		f = v.rng.Range(lo, hi)
	}
	v.market[id] = f
	return f
}

// Tick advances the market timer and perturbs every seeded factor when the
// interval elapses. Returns true when a walk happened.
func (v *Valuator) Tick(dt time.Duration) bool {
	if dt <= 0 {
		return false
	}
	v.sinceWalk += dt
	if v.sinceWalk < v.config.MarketInterval {
		return false
	}
	v.sinceWalk = 0
	v.Walk()
	return true
}

// Walk applies one bounded random step to every seeded factor.
func (v *Valuator) Walk() {
	lo, hi := v.bounds()
	step := v.config.MarketStep
	for _, id := range v.sortedIDs() {
		f := v.market[id] + v.rng.Range(-step, step)
		v.market[id] = curve.Clamp(f, lo, hi)
	}
}

// NewEpoch discards all market factors and reseeds the walk.
func (v *Valuator) NewEpoch(seed int64) {
	v.epoch++
	v.config.Seed = seed
	v.rng = rng.New(seed)
	v.market = make(map[string]float64)
	v.sinceWalk = 0
}

// MarketState returns a copy of the market for persistence.
func (v *Valuator) MarketState() MarketState {
	factors := make(map[string]float64, len(v.market))
	for k, f := range v.market {
		factors[k] = f
	}
	return MarketState{
		Epoch:    v.epoch,
		Seed:     v.rng.Seed(),
		Position: v.rng.Position(),
		Factors:  factors,
	}
}

// RestoreMarket loads persisted factors, clamping each into bounds.
func (v *Valuator) RestoreMarket(st MarketState) {
	lo, hi := v.bounds()
	v.epoch = st.Epoch
	// a profile that never saved a market keeps the configured stream
	if st.Seed != 0 || st.Position != 0 || len(st.Factors) > 0 {
		v.rng = rng.Restore(st.Seed, st.Position)
	}
	v.market = make(map[string]float64, len(st.Factors))
	for id, f := range st.Factors {
		if math.IsNaN(f) {
			v.logger.Printf("economy: market factor for %s is NaN, reseeding", id)
			continue
		}
		v.market[id] = curve.Clamp(f, lo, hi)
	}
}

// Bounds returns the inclusive market factor bounds.
func (v *Valuator) Bounds() (float64, float64) { return v.bounds() }

func (v *Valuator) bounds() (float64, float64) {
	return 1 - v.config.MarketRange, 1 + v.config.MarketRange
}

func (v *Valuator) sortedIDs() []string {
	ids := make([]string, 0, len(v.market))
	for id := range v.market {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// #endregion market
