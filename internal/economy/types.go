package economy

import (
	"strings"
	"time"
)

// #region rarity
// Rarity orders loot by scarcity.
type Rarity int

const (
	Common Rarity = iota
	Uncommon
	Rare
	Epic
	Legendary
)

var rarityNames = [...]string{"common", "uncommon", "rare", "epic", "legendary"}

func (r Rarity) String() string {
	if r < Common || r > Legendary {
		return "unknown"
	}
	return rarityNames[r]
}

// ParseRarity maps a name to a Rarity. Unknown names return Common and false.
func ParseRarity(name string) (Rarity, bool) {
	for i, n := range rarityNames {
		if strings.EqualFold(n, name) {
			return Rarity(i), true
		}
	}
	return Common, false
}

// #endregion rarity

// #region resource
// ResourceProfile is static pricing data for one resource.
type ResourceProfile struct {
	ID        string  `json:"id"`
	BaseValue float64 `json:"base_value"`
	Rarity    Rarity  `json:"rarity"`
	MinDepth  float64 `json:"min_depth"`
}

// #endregion resource

// #region risk-source
// RiskSource reports the historical death rate observed at a depth. ok=false
// means no data and the static per-layer table is used instead.
type RiskSource interface {
	DeathRateAtDepth(depth float64) (rate float64, ok bool)
}

// #endregion risk-source

// #region breakdown
// Breakdown itemizes one valuation.
type Breakdown struct {
	ResourceID string
	Base       float64
	DepthBonus float64
	Rarity     float64
	Risk       float64
	Market     float64
	Value      int
}

// #endregion breakdown

// #region config
// Config holds pricing parameters.
type Config struct {
	MaxDepth          float64
	DepthExponent     float64       // default 1.0
	MaxDepthBonus     float64       // depth bonus at MaxDepth (default 2.25)
	RarityMultipliers [5]float64    // Common..Legendary (default 1, 1.5, 2.5, 4, 7)
	RiskFactor        float64       // default 0.5
	FallbackDeathRate [4]float64    // per depth layer (default 0.05, 0.10, 0.20, 0.30)
	LayerBreaks       [3]float64    // default 25, 50, 75
	MarketRange       float64       // factor bounds are [1-range, 1+range] (default 0.15)
	MarketStep        float64       // max walk per tick (default 0.02)
	MarketInterval    time.Duration // default 120s
	Seed              int64
}

// DefaultConfig returns the tuned defaults.
func DefaultConfig() Config {
	return Config{
		MaxDepth:          100,
		DepthExponent:     1.0,
		MaxDepthBonus:     2.25,
		RarityMultipliers: [5]float64{1.0, 1.5, 2.5, 4.0, 7.0},
		RiskFactor:        0.5,
		FallbackDeathRate: [4]float64{0.05, 0.10, 0.20, 0.30},
		LayerBreaks:       [3]float64{25, 50, 75},
		MarketRange:       0.15,
		MarketStep:        0.02,
		MarketInterval:    120 * time.Second,
		Seed:              1,
	}
}

// #endregion config
