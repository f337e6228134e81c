package state

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a player or version has no stored row.
var ErrNotFound = errors.New("not found")

// #region profile
// Profile is the persisted per-player state that carries across sessions.
type Profile struct {
	PlayerID          string               `json:"player_id"`
	SkillFactor       float64              `json:"skill_factor"`
	DynamicAdjustment float64              `json:"dynamic_adjustment"`
	Milestones        []string             `json:"milestones"`
	Assignments       map[string]string    `json:"assignments"` // test id -> group
	JourneyStage      string               `json:"journey_stage"`
	StageEntries      map[string]time.Time `json:"stage_entries"`
	Market            Market               `json:"market"`
	Spawn             RNG                  `json:"spawn"`    // spawn throttle roll source
	Counters          map[string]float64   `json:"counters"` // milestone progress counters
}

// RNG is a persisted random stream. The zero value means none was saved.
type RNG struct {
	Seed     int64 `json:"seed"`
	Position int64 `json:"position"`
}

// Market is the persisted economy market.
type Market struct {
	Epoch    int                `json:"epoch"`
	Seed     int64              `json:"seed"`
	Position int64              `json:"position"`
	Factors  map[string]float64 `json:"factors"`
}

// NewProfile returns a neutral profile for playerID.
func NewProfile(playerID string) Profile {
	p := Profile{
		PlayerID:          playerID,
		SkillFactor:       1,
		DynamicAdjustment: 1,
		JourneyStage:      "discovery",
	}
	p.normalize()
	return p
}

// normalize replaces nil collections so callers can write without checks.
func (p *Profile) normalize() {
	if p.Milestones == nil {
		p.Milestones = []string{}
	}
	if p.Assignments == nil {
		p.Assignments = map[string]string{}
	}
	if p.StageEntries == nil {
		p.StageEntries = map[string]time.Time{}
	}
	if p.Market.Factors == nil {
		p.Market.Factors = map[string]float64{}
	}
	if p.Counters == nil {
		p.Counters = map[string]float64{}
	}
}

// #endregion profile

// #region version
// Version is one immutable stored snapshot of a player's profile.
type Version struct {
	VersionID string
	ParentID  string
	PlayerID  string
	Profile   Profile
	Reason    string // why it was saved: "session_end", "dive_end", "shutdown", ...
	CreatedAt time.Time
}

// #endregion version
