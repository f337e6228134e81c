package anomaly

import "time"

// #region pain-kind
// Kind enumerates detected frustration patterns.
type Kind string

const (
	KindFrequentDeath Kind = "frequent_death"
	KindMissionStuck  Kind = "mission_stuck"
	KindNoProgress    Kind = "no_progress"
)

// #endregion pain-kind

// #region pain-point
// PainPoint is one detected pattern.
type PainPoint struct {
	Kind      Kind
	At        time.Time
	Count     int    // deaths in window or failed attempts
	MissionID string // set for KindMissionStuck
	Reason    string
}

// Mitigation is the bounded response the engine applies for a pain point.
type Mitigation struct {
	Relief         float64 // difficulty dynamic-adjustment decrease
	EncounterNudge float64 // encounter-rate delta
	Hint           string  // toast text, empty for none
}

// Detection pairs a pain point with its mitigation.
type Detection struct {
	PainPoint  PainPoint
	Mitigation Mitigation
}

// #endregion pain-point

// #region detector-config
// DetectorConfig holds detection thresholds and mitigation sizes.
type DetectorConfig struct {
	DeathThreshold int           // deaths inside DeathWindow that fire (default 3)
	DeathWindow    time.Duration // default 120s
	DeathCooldown  time.Duration // min gap between frequent-death detections (default 300s)
	DeathRelief    float64       // default 0.1

	StuckAttempts int // failed attempts at one mission that fire (default 3)

	NoProgressAfter time.Duration // default 600s
	NoProgressNudge float64       // encounter-rate delta (default 0.1)

	FrequentDeathHint string
	MissionStuckHint  string
	NoProgressHint    string
}

// DefaultDetectorConfig returns the tuned defaults.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		DeathThreshold:    3,
		DeathWindow:       120 * time.Second,
		DeathCooldown:     300 * time.Second,
		DeathRelief:       0.1,
		StuckAttempts:     3,
		NoProgressAfter:   600 * time.Second,
		NoProgressNudge:   0.1,
		FrequentDeathHint: "Rough patch. Upgrading your suit or diving shallower can help.",
		MissionStuckHint:  "Stuck? Check the mission log for an alternate route.",
		NoProgressHint:    "Try a new area. Unexplored currents hide resources.",
	}
}

// #endregion detector-config
