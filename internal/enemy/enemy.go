package enemy

import (
	"log"
	"math"
	"sort"

	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/curve"
)

// #region source
// DifficultySource supplies the challenge multiplier at a depth.
type DifficultySource interface {
	DifficultyAtDepth(depth float64) float64
}

// #endregion source

// #region scaler
// Scaler turns base enemy profiles into depth- and difficulty-scaled stats.
type Scaler struct {
	config Config
	source DifficultySource
	logger *log.Logger
	bosses map[string][]BossPhase
}

// NewScaler creates a scaler. source may be nil (multiplier degrades to 1).
func NewScaler(config Config, source DifficultySource, logger *log.Logger) *Scaler {
	if logger == nil {
		logger = log.Default()
	}
	if !(config.MaxDepth > 0) {
		logger.Printf("enemy: invalid max_depth %.2f, using 100", config.MaxDepth)
		config.MaxDepth = 100
	}
	if config.MaxEliteChance < config.BaseEliteChance {
		logger.Printf("enemy: max elite chance below base, swapping")
		config.BaseEliteChance, config.MaxEliteChance = config.MaxEliteChance, config.BaseEliteChance
	}
	return &Scaler{
		config: config,
		source: source,
		logger: logger,
		bosses: make(map[string][]BossPhase),
	}
}

// #endregion scaler

// #region scale-stats

// ScaleStats computes final combat stats for profile at depth. Health, damage,
// XP and credits also carry the difficulty multiplier.
func (s *Scaler) ScaleStats(profile Profile, depth float64) ScaledStats {
	base := profile.Base()
	norm := s.normalize(depth)
	mult := s.difficulty(depth)
	c := s.config.Curves

	out := ScaledStats{
		ProfileID:   base.ID,
		Depth:       depth,
		Health:      base.BaseHealth * c.Health.Evaluate(norm) * mult,
		Damage:      base.BaseDamage * c.Damage.Evaluate(norm) * mult,
		Speed:       base.BaseSpeed * c.Speed.Evaluate(norm),
		AttackSpeed: base.BaseAttackSpeed * c.AttackSpeed.Evaluate(norm),
		XP:          base.BaseXP * c.XP.Evaluate(norm) * mult,
		Credits:     base.BaseCredits * c.Credits.Evaluate(norm) * mult,
		SpawnWeight: base.BaseSpawnWeight * c.SpawnWeight.Evaluate(norm),
	}

	growth := curve.Lerp(1, s.config.RadiusGrowth, norm)
	if p, ok := profile.(Patroller); ok {
		out.PatrolRadius = p.PatrolRadius() * growth
	}
	if r, ok := profile.(Ranged); ok {
		out.AttackRange = r.AttackRange() * growth
	}
	return out
}

// CanSpawn reports whether profile is allowed at depth.
func (s *Scaler) CanSpawn(profile Profile, depth float64) bool {
	return depth >= profile.Base().MinSpawnDepth
}

// EliteChance returns the probability that a spawn at depth is elite. The
// caller rolls against it and then calls ApplyElite.
func (s *Scaler) EliteChance(depth float64) float64 {
	blend := curve.Clamp01(s.config.Curves.Elite.Evaluate(s.normalize(depth)))
	return curve.Lerp(s.config.BaseEliteChance, s.config.MaxEliteChance, blend)
}

// ApplyElite returns stats with the fixed elite bonus applied.
func (s *Scaler) ApplyElite(stats ScaledStats) ScaledStats {
	if stats.Elite {
		return stats
	}
	b := s.config.Elite
	stats.Health *= b.Health
	stats.Damage *= b.Damage
	stats.Speed *= b.Speed
	stats.AttackSpeed *= b.AttackSpeed
	stats.XP *= b.Rewards
	stats.Credits *= b.Rewards
	stats.Elite = true
	return stats
}

// #endregion scale-stats

// #region boss-phases

// RegisterBoss stores phases for bossID sorted by descending threshold.
// Duplicate thresholds keep the first entry and a missing threshold-0
// catch-all is appended, cloned from the lowest phase.
func (s *Scaler) RegisterBoss(bossID string, phases []BossPhase) {
	sorted := make([]BossPhase, 0, len(phases))
	for _, p := range phases {
		if math.IsNaN(p.Threshold) {
			s.logger.Printf("enemy: boss %s phase %q has NaN threshold, skipped", bossID, p.Name)
			continue
		}
		p.Threshold = curve.Clamp01(p.Threshold)
		sorted = append(sorted, p)
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Threshold > sorted[j].Threshold })

	deduped := sorted[:0]
	for _, p := range sorted {
		if n := len(deduped); n > 0 && deduped[n-1].Threshold == p.Threshold {
			s.logger.Printf("enemy: boss %s duplicate threshold %.2f, dropping %q", bossID, p.Threshold, p.Name)
			continue
		}
		deduped = append(deduped, p)
	}

	if n := len(deduped); n == 0 || deduped[n-1].Threshold != 0 {
		s.logger.Printf("enemy: boss %s has no catch-all phase, appending one", bossID)
		catchAll := BossPhase{Name: "final", DamageMultiplier: 1, SpeedMultiplier: 1}
		if n > 0 {
			catchAll = deduped[n-1]
			catchAll.Name += "-final"
		}
		catchAll.Threshold = 0
		deduped = append(deduped, catchAll)
	}
	s.bosses[bossID] = deduped
}

// BossPhases returns the normalized phases for bossID.
func (s *Scaler) BossPhases(bossID string) []BossPhase {
	phases := s.bosses[bossID]
	out := make([]BossPhase, len(phases))
	copy(out, phases)
	return out
}

// CurrentBossPhase returns the first phase whose threshold is at or below
// healthFraction, falling back to the last phase. ok is false for unknown bosses.
func (s *Scaler) CurrentBossPhase(bossID string, healthFraction float64) (BossPhase, bool) {
	phases, found := s.bosses[bossID]
	if !found || len(phases) == 0 {
		return BossPhase{}, false
	}
	hf := curve.Clamp01(healthFraction)
	for _, p := range phases {
		if p.Threshold <= hf {
			return p, true
		}
	}
	return phases[len(phases)-1], true
}

// #endregion boss-phases

// #region helpers
func (s *Scaler) normalize(depth float64) float64 {
	return curve.Clamp01(depth / s.config.MaxDepth)
}

func (s *Scaler) difficulty(depth float64) float64 {
	if s.source == nil {
		return 1
	}
	m := s.source.DifficultyAtDepth(depth)
	if math.IsNaN(m) || m <= 0 {
		return 1
	}
	return m
}

// #endregion helpers
