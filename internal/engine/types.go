package engine

import (
	"time"

	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/anomaly"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/difficulty"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/economy"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/enemy"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/eval"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/experiment"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/pacing"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/penalty"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/reward"
)

// #region collaborators
// Inventory mutates the player's resources, credits and equipment.
type Inventory interface {
	ApplyPenalty(report penalty.Report)
	GrantCredits(amount int, reason string)
	GrantXP(amount int, reason string)
}

// Notifier shows toasts.
type Notifier interface {
	Toast(message string)
}

// Unlocks receives one-time unlock notifications.
type Unlocks interface {
	Unlock(id string)
}

// Cues triggers audio/visual cues.
type Cues interface {
	Cue(name string, fields map[string]any)
}

// Analytics receives one structured record per event.
type Analytics interface {
	Emit(event string, depth float64, fields map[string]any)
}

// Collaborators are the outbound services. Any may be nil.
type Collaborators struct {
	Inventory Inventory
	Notifier  Notifier
	Unlocks   Unlocks
	Cues      Cues
	Analytics Analytics
}

// sessionTagger is implemented by analytics sinks that tag rows per session.
type sessionTagger interface {
	SetSession(id string)
}

// #endregion collaborators

// #region config
// Config is the full engine configuration, plain data loaded at startup.
type Config struct {
	TickRate time.Duration // loop cadence (default 100ms)

	Difficulty difficulty.Config
	Enemy      enemy.Config
	Economy    economy.Config
	Penalty    penalty.Config
	Pacing     pacing.Config
	Reward     reward.Config
	Anomaly    anomaly.DetectorConfig
	Eval       eval.EvalConfig

	PenaltyStageDelay time.Duration // gap between staged penalty steps (default 1s)
	DeepDepth         float64       // depth that counts as "deep reached" (default 50)
	AbyssClearDepth   float64       // surviving a dive this deep clears the abyss (default 95)

	Experiments []experiment.Test
	Bosses      map[string][]enemy.BossPhase
}

// DefaultConfig returns the tuned defaults of every controller.
func DefaultConfig() Config {
	return Config{
		TickRate:          100 * time.Millisecond,
		Difficulty:        difficulty.DefaultConfig(),
		Enemy:             enemy.DefaultConfig(),
		Economy:           economy.DefaultConfig(),
		Penalty:           penalty.DefaultConfig(),
		Pacing:            pacing.DefaultConfig(),
		Reward:            reward.DefaultConfig(),
		Anomaly:           anomaly.DefaultDetectorConfig(),
		Eval:              eval.DefaultEvalConfig(),
		PenaltyStageDelay: time.Second,
		DeepDepth:         50,
		AbyssClearDepth:   95,
		Bosses:            map[string][]enemy.BossPhase{},
	}
}

// #endregion config

// #region reports
// MissionReport is the inbound summary of a completed mission.
type MissionReport struct {
	MissionID string
	Duration  time.Duration
	Depth     float64
	Credits   int
	XP        int
}

// Kill is the inbound summary of a defeated enemy. Credits and XP are the
// scaled drop before the combo multiplier.
type Kill struct {
	EnemyID string
	Depth   float64
	Credits int
	XP      int
	Boss    bool
}

// RewardResult is returned by the reward-bearing inbound calls.
type RewardResult struct {
	Combo      int
	Multiplier float64
	Bonus      int // combo bonus credits granted
	Milestones []reward.Milestone
}

// TickReport describes one Tick.
type TickReport struct {
	Tick       uint64
	Evaluation *difficulty.Evaluation
	Eval       *eval.EvalResult
	Spawn      bool
	Pacing     *pacing.Adjustment
	Detections []anomaly.Detection
	Ran        []string
	Aborted    []string
}

// Status is a read-only view of the engine for dashboards and RPC.
type Status struct {
	PlayerID        string
	Tick            uint64
	Now             time.Time
	Depth           float64
	Layer           difficulty.Layer
	Difficulty      float64
	Snapshot        difficulty.Snapshot
	EncounterRate   float64
	Tension         float64
	Activity        pacing.Activity
	Combo           int
	ComboMultiplier float64
	Insurance       penalty.Insurance
	DiveID          string
	SessionID       string
	JourneyStage    string
	Milestones      []string
	PendingTasks    int
	LastEval        eval.EvalResult
	LastSession     *pacing.SessionRecord
}

// #endregion reports
