package penalty

import (
	"strings"
	"time"

	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/difficulty"
)

// #region insurance
// Insurance is the active death-insurance tier.
type Insurance int

const (
	InsuranceNone Insurance = iota
	InsuranceBasic
	InsuranceStandard
	InsurancePremium
)

var insuranceNames = [...]string{"none", "basic", "standard", "premium"}

func (i Insurance) String() string {
	if i < InsuranceNone || i > InsurancePremium {
		return "unknown"
	}
	return insuranceNames[i]
}

// ParseInsurance maps a tier name to Insurance. Unknown names return None and false.
func ParseInsurance(name string) (Insurance, bool) {
	for i, n := range insuranceNames {
		if strings.EqualFold(n, name) {
			return Insurance(i), true
		}
	}
	return InsuranceNone, false
}

// #endregion insurance

// #region death
// DeathContext is the input to one penalty calculation.
type DeathContext struct {
	DiveID          string
	Depth           float64
	Cause           difficulty.DeathCause
	SessionDuration time.Duration
}

// Report is the computed result of one penalty calculation. It is a value
// and never mutated after creation.
type Report struct {
	ID                 string
	DiveID             string
	Depth              float64
	Cause              difficulty.DeathCause
	Insurance          Insurance
	Applied            bool    // false when penalties are disabled
	PenaltyMultiplier  float64 // after the insurance discount
	ResourceLossPct    float64
	CreditLossPct      float64
	EquipmentDamagePct float64
	XPLossPct          float64
	RespawnDelay       time.Duration
	SurvivalBonus      int
	CreatedAt          time.Time
}

// #endregion death

// #region config
// Range is a base/max pair interpolated by the penalty multiplier.
type Range struct {
	Base float64 `json:"base"`
	Max  float64 `json:"max"`
}

// Config holds penalty ranges and insurance discounts.
type Config struct {
	Enabled          bool
	MaxDepth         float64
	ResourceLoss     Range
	CreditLoss       Range
	EquipmentDamage  Range
	XPLossEnabled    bool
	XPLoss           Range
	RespawnDelay     [2]time.Duration // base, max
	BonusPerMinute   float64          // survival bonus credits per minute survived
	MaxSurvivalBonus int
	// InsuranceMultipliers is indexed by Insurance.
	InsuranceMultipliers [4]float64
}

// DefaultConfig returns the tuned defaults.
func DefaultConfig() Config {
	return Config{
		Enabled:              true,
		MaxDepth:             100,
		ResourceLoss:         Range{Base: 0.10, Max: 0.50},
		CreditLoss:           Range{Base: 0.05, Max: 0.30},
		EquipmentDamage:      Range{Base: 0.05, Max: 0.25},
		XPLossEnabled:        false,
		XPLoss:               Range{Base: 0, Max: 0.10},
		RespawnDelay:         [2]time.Duration{3 * time.Second, 15 * time.Second},
		BonusPerMinute:       5,
		MaxSurvivalBonus:     100,
		InsuranceMultipliers: [4]float64{1.0, 0.75, 0.5, 0},
	}
}

// #endregion config
