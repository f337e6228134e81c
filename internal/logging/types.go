package logging

import "time"

// #region event
// Event names written to analytics_log.event.
const (
	EventDeath           = "death"
	EventSuccess         = "success"
	EventPenalty         = "penalty"
	EventEvaluation      = "evaluation"
	EventPainPoint       = "pain_point"
	EventMilestone       = "milestone"
	EventJourney         = "journey_stage"
	EventSessionEnd      = "session_end"
	EventDiveStart       = "dive_start"
	EventDiveEnd         = "dive_end"
	EventResource        = "resource_collected"
	EventEnemy           = "enemy_defeated"
	EventMissionComplete = "mission_completed"
	EventMissionFailed   = "mission_failed"
	EventEncounter       = "encounter_spawn"
	EventPacing          = "pacing_adjust"
	EventMarketEpoch     = "market_epoch"
	EventDifficultyReset = "difficulty_reset"
)

// #endregion event

// #region entry
// Entry is a single row in the analytics_log table. Fields is stored as JSON.
type Entry struct {
	ID        int64          `json:"id,omitempty"`
	PlayerID  string         `json:"player_id"`
	SessionID string         `json:"session_id,omitempty"`
	Event     string         `json:"event"`
	Depth     float64        `json:"depth"`
	Fields    map[string]any `json:"fields,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// #endregion entry
