package reward

import (
	"time"

	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/curve"
)

// #region milestone
// Kind names the progress counter a milestone watches.
type Kind string

const (
	KindDepth              Kind = "depth"
	KindEnemiesDefeated    Kind = "enemies_defeated"
	KindResourcesCollected Kind = "resources_collected"
	KindMissionsCompleted  Kind = "missions_completed"
	KindCreditsEarned      Kind = "credits_earned"
	KindBossesDefeated     Kind = "bosses_defeated"
	KindCombo              Kind = "combo"
)

// Milestone is a one-time reward that fires when its counter reaches Threshold.
type Milestone struct {
	ID        string  `json:"id"`
	Kind      Kind    `json:"kind"`
	Threshold float64 `json:"threshold"`
	Credits   int     `json:"credits"`
	XP        int     `json:"xp"`
	Unlock    string  `json:"unlock,omitempty"`
}

// Progress holds the current value of every watched counter.
type Progress map[Kind]float64

// #endregion milestone

// #region combo
// ComboState is the running combo. A gap longer than the combo window resets
// Count to 1.
type ComboState struct {
	Count         int
	LastEventTime time.Time
}

// #endregion combo

// #region config
// Config holds combo timing and milestone definitions.
type Config struct {
	ComboWindow      time.Duration // default 5s
	ComboCap         int           // count at which the curve saturates (default 10)
	ComboCurve       curve.Curve   // bonus over normalized count (default linear 0..1)
	CelebrationDelay time.Duration // delay before the celebration cue (default 1.5s)
	Milestones       []Milestone
}

// DefaultMilestones returns the stock milestone table.
func DefaultMilestones() []Milestone {
	return []Milestone{
		{ID: "first_blood", Kind: KindEnemiesDefeated, Threshold: 1, Credits: 25, XP: 10},
		{ID: "hunter", Kind: KindEnemiesDefeated, Threshold: 50, Credits: 250, XP: 100, Unlock: "harpoon_mk2"},
		{ID: "collector", Kind: KindResourcesCollected, Threshold: 100, Credits: 200, XP: 50},
		{ID: "contractor", Kind: KindMissionsCompleted, Threshold: 10, Credits: 500, XP: 150, Unlock: "contract_board"},
		{ID: "twilight_zone", Kind: KindDepth, Threshold: 50, Credits: 300, XP: 120},
		{ID: "abyss_walker", Kind: KindDepth, Threshold: 90, Credits: 1000, XP: 400, Unlock: "abyss_suit"},
		{ID: "leviathan_slayer", Kind: KindBossesDefeated, Threshold: 1, Credits: 1500, XP: 600},
		{ID: "combo_master", Kind: KindCombo, Threshold: 10, Credits: 150, XP: 60},
	}
}

// DefaultConfig returns the tuned defaults.
func DefaultConfig() Config {
	return Config{
		ComboWindow:      5 * time.Second,
		ComboCap:         10,
		ComboCurve:       curve.Linear(0, 1),
		CelebrationDelay: 1500 * time.Millisecond,
		Milestones:       DefaultMilestones(),
	}
}

// #endregion config
