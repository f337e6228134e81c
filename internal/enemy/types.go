package enemy

import "github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/curve"

// #region profiles
// BaseProfile is immutable static data for one enemy archetype.
type BaseProfile struct {
	ID              string  `json:"id"`
	BaseHealth      float64 `json:"base_health"`
	BaseDamage      float64 `json:"base_damage"`
	BaseSpeed       float64 `json:"base_speed"`
	BaseAttackSpeed float64 `json:"base_attack_speed"`
	BaseXP          float64 `json:"base_xp"`
	BaseCredits     float64 `json:"base_credits"`
	BaseSpawnWeight float64 `json:"base_spawn_weight"`
	MinSpawnDepth   float64 `json:"min_spawn_depth"`
}

// Profile is anything that can report its base stats.
type Profile interface {
	Base() BaseProfile
}

// Base lets a bare BaseProfile satisfy Profile.
func (p BaseProfile) Base() BaseProfile { return p }

// Patroller is implemented by profiles that wander within a radius.
type Patroller interface {
	PatrolRadius() float64
}

// Ranged is implemented by profiles that attack from a distance.
type Ranged interface {
	AttackRange() float64
}

// PatrolProfile is a BaseProfile with a patrol radius.
type PatrolProfile struct {
	BaseProfile
	Radius float64 `json:"patrol_radius"`
}

// PatrolRadius implements Patroller.
func (p PatrolProfile) PatrolRadius() float64 { return p.Radius }

// RangedProfile is a BaseProfile with an attack range.
type RangedProfile struct {
	BaseProfile
	Range float64 `json:"attack_range"`
}

// AttackRange implements Ranged.
func (p RangedProfile) AttackRange() float64 { return p.Range }

// #endregion profiles

// #region scaled-stats
// ScaledStats are derived per spawn request and never persisted.
type ScaledStats struct {
	ProfileID    string
	Depth        float64
	Health       float64
	Damage       float64
	Speed        float64
	AttackSpeed  float64
	XP           float64
	Credits      float64
	SpawnWeight  float64
	PatrolRadius float64 // 0 unless the profile is a Patroller
	AttackRange  float64 // 0 unless the profile is Ranged
	Elite        bool
}

// #endregion scaled-stats

// #region boss-phase
// BossPhase is active while the boss health fraction is at or above Threshold.
type BossPhase struct {
	Name             string  `json:"name"`
	Threshold        float64 `json:"threshold"`
	DamageMultiplier float64 `json:"damage_multiplier"`
	SpeedMultiplier  float64 `json:"speed_multiplier"`
	SpawnsAdds       bool    `json:"spawns_adds"`
}

// #endregion boss-phase

// #region config
// Curves maps normalized depth to a per-stat multiplier.
type Curves struct {
	Health      curve.Curve
	Damage      curve.Curve
	Speed       curve.Curve
	AttackSpeed curve.Curve
	XP          curve.Curve
	Credits     curve.Curve
	SpawnWeight curve.Curve
	Elite       curve.Curve // 0..1 blend between BaseEliteChance and MaxEliteChance
}

// EliteBonus is the fixed multiplicative elite transform.
type EliteBonus struct {
	Health      float64
	Damage      float64
	Speed       float64
	AttackSpeed float64
	Rewards     float64
}

// Config holds stat curves and elite parameters.
type Config struct {
	MaxDepth        float64
	Curves          Curves
	BaseEliteChance float64
	MaxEliteChance  float64
	Elite           EliteBonus
	RadiusGrowth    float64 // patrol radius / attack range multiplier at MaxDepth
}

// DefaultCurves returns gentle growth curves for every stat.
func DefaultCurves() Curves {
	return Curves{
		Health:      curve.Must(curve.Keyframe{T: 0, V: 1}, curve.Keyframe{T: 0.5, V: 1.6}, curve.Keyframe{T: 1, V: 2.5}),
		Damage:      curve.Must(curve.Keyframe{T: 0, V: 1}, curve.Keyframe{T: 0.5, V: 1.4}, curve.Keyframe{T: 1, V: 2.0}),
		Speed:       curve.Linear(1, 1.3),
		AttackSpeed: curve.Linear(1, 1.25),
		XP:          curve.Linear(1, 3),
		Credits:     curve.Linear(1, 2.5),
		SpawnWeight: curve.Linear(1, 1.5),
		Elite:       curve.Identity(),
	}
}

// DefaultConfig returns the tuned defaults.
func DefaultConfig() Config {
	return Config{
		MaxDepth:        100,
		Curves:          DefaultCurves(),
		BaseEliteChance: 0.05,
		MaxEliteChance:  0.30,
		Elite: EliteBonus{
			Health:      2.0,
			Damage:      1.5,
			Speed:       1.2,
			AttackSpeed: 1.3,
			Rewards:     2.0,
		},
		RadiusGrowth: 1.5,
	}
}

// #endregion config
