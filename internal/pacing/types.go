package pacing

import (
	"strings"
	"time"
)

// #region activity
// Activity is the externally reported activity flag used to bucket time.
type Activity int

const (
	Exploration Activity = iota
	Combat
	Rest
)

var activityNames = [...]string{"exploration", "combat", "rest"}

func (a Activity) String() string {
	if a < Exploration || a > Rest {
		return "unknown"
	}
	return activityNames[a]
}

// ParseActivity maps a name to an Activity. Unknown names return Exploration and false.
func ParseActivity(name string) (Activity, bool) {
	for i, n := range activityNames {
		if strings.EqualFold(n, name) {
			return Activity(i), true
		}
	}
	return Exploration, false
}

// #endregion activity

// #region record
// SessionRecord accumulates one session's time allocation and counters. It
// is finalized by EndSession and then handed to the caller to log.
type SessionRecord struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`

	CombatTime      time.Duration `json:"combat_time"`
	ExplorationTime time.Duration `json:"exploration_time"`
	RestTime        time.Duration `json:"rest_time"`

	CombatCount        int `json:"combat_count"`
	EnemiesDefeated    int `json:"enemies_defeated"`
	ResourcesCollected int `json:"resources_collected"`
	MissionsCompleted  int `json:"missions_completed"`

	CombatRatio      float64 `json:"combat_ratio"`
	ExplorationRatio float64 `json:"exploration_ratio"`
	RestRatio        float64 `json:"rest_ratio"`
	PaceScore        float64 `json:"pace_score"`
	Finalized        bool    `json:"finalized"`
}

// Total returns the time accumulated across all buckets.
func (r SessionRecord) Total() time.Duration {
	return r.CombatTime + r.ExplorationTime + r.RestTime
}

// #endregion record

// #region config
// Targets is the desired share of session time per activity.
type Targets struct {
	Combat      float64
	Exploration float64
	Rest        float64
}

// Config holds pacing targets and encounter throttle parameters.
type Config struct {
	Targets       Targets
	Threshold     float64       // allowed deviation before nudging (default 0.10)
	CheckInterval time.Duration // accumulated time between checks (default 60s)
	RateStep      float64       // encounter-rate nudge (default 0.10)
	MinRate       float64       // default 0.5
	MaxRate       float64       // default 2.0

	BaseChance         float64       // spawn chance before modifiers (default 0.05)
	TensionRise        float64       // per second in combat (default 0.25)
	TensionDecay       float64       // per second out of combat (default 0.02)
	TensionDamping     float64       // spawn chance scale is 1 - tension*damping (default 0.5)
	PostCombatTension  float64       // tension after EndCombat (default 0.5)
	Cooldown           time.Duration // no spawns this soon after combat (default 15s)
	TimeRamp           time.Duration // time factor ramps 1..MaxTimeFactor over this (default 60s)
	MaxTimeFactor      float64       // default 2.0
	DepthBonus         float64       // depth factor is 1 + norm*DepthBonus (default 0.5)
	MaxDepth           float64       // default 100
	SpawnCheckInterval time.Duration // one roll per interval (default 1s)
	Seed               int64
}

// DefaultConfig returns the tuned defaults.
func DefaultConfig() Config {
	return Config{
		Targets:            Targets{Combat: 0.40, Exploration: 0.45, Rest: 0.15},
		Threshold:          0.10,
		CheckInterval:      60 * time.Second,
		RateStep:           0.10,
		MinRate:            0.5,
		MaxRate:            2.0,
		BaseChance:         0.05,
		TensionRise:        0.25,
		TensionDecay:       0.02,
		TensionDamping:     0.5,
		PostCombatTension:  0.5,
		Cooldown:           15 * time.Second,
		TimeRamp:           60 * time.Second,
		MaxTimeFactor:      2.0,
		DepthBonus:         0.5,
		MaxDepth:           100,
		SpawnCheckInterval: time.Second,
		Seed:               1,
	}
}

// #endregion config
