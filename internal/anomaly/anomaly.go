package anomaly

import (
	"fmt"
	"log"
	"time"
)

// #region detector
// Detector watches the death, mission and progress streams for frustration
// patterns. Each detection carries a bounded mitigation; applying it is the
// caller's job.
type Detector struct {
	config DetectorConfig
	logger *log.Logger

	deaths        []time.Time // ascending, pruned to DeathWindow
	lastDeathFire time.Time
	failures      map[string]int
	stuckFired    map[string]bool

	lastProgress    time.Time
	noProgressFired bool
}

// NewDetector creates a detector. Invalid thresholds fall back to defaults.
func NewDetector(config DetectorConfig, logger *log.Logger) *Detector {
	if logger == nil {
		logger = log.Default()
	}
	def := DefaultDetectorConfig()
	if config.DeathThreshold < 1 {
		logger.Printf("anomaly: invalid death_threshold, using %d", def.DeathThreshold)
		config.DeathThreshold = def.DeathThreshold
	}
	if config.DeathWindow <= 0 {
		config.DeathWindow = def.DeathWindow
	}
	if config.DeathCooldown < 0 {
		config.DeathCooldown = def.DeathCooldown
	}
	if config.StuckAttempts < 1 {
		logger.Printf("anomaly: invalid stuck_attempts, using %d", def.StuckAttempts)
		config.StuckAttempts = def.StuckAttempts
	}
	if config.NoProgressAfter <= 0 {
		config.NoProgressAfter = def.NoProgressAfter
	}
	return &Detector{
		config:     config,
		logger:     logger,
		failures:   make(map[string]int),
		stuckFired: make(map[string]bool),
	}
}

// #endregion detector

// #region deaths

// RecordDeath adds a death at now and returns a detection when the count in
// the sliding window reaches the threshold outside the cooldown.
func (d *Detector) RecordDeath(now time.Time) (Detection, bool) {
	d.deaths = append(d.deaths, now)
	d.prune(now)
	if len(d.deaths) < d.config.DeathThreshold {
		return Detection{}, false
	}
	if !d.lastDeathFire.IsZero() && now.Sub(d.lastDeathFire) < d.config.DeathCooldown {
		return Detection{}, false
	}
	d.lastDeathFire = now
	return Detection{
		PainPoint: PainPoint{
			Kind:   KindFrequentDeath,
			At:     now,
			Count:  len(d.deaths),
			Reason: fmt.Sprintf("%d deaths within %s", len(d.deaths), d.config.DeathWindow),
		},
		Mitigation: Mitigation{
			Relief: d.config.DeathRelief,
			Hint:   d.config.FrequentDeathHint,
		},
	}, true
}

// DeathsInWindow returns the number of deaths inside the window ending at now.
func (d *Detector) DeathsInWindow(now time.Time) int {
	d.prune(now)
	return len(d.deaths)
}

func (d *Detector) prune(now time.Time) {
	cut := 0
	for cut < len(d.deaths) && now.Sub(d.deaths[cut]) > d.config.DeathWindow {
		cut++
	}
	if cut > 0 {
		d.deaths = append(d.deaths[:0], d.deaths[cut:]...)
	}
}

// #endregion deaths

// #region missions

// RecordMissionFailure counts a failed attempt at missionID. It fires once
// per mission until that mission succeeds.
func (d *Detector) RecordMissionFailure(missionID string, now time.Time) (Detection, bool) {
	d.failures[missionID]++
	n := d.failures[missionID]
	if n < d.config.StuckAttempts || d.stuckFired[missionID] {
		return Detection{}, false
	}
	d.stuckFired[missionID] = true
	return Detection{
		PainPoint: PainPoint{
			Kind:      KindMissionStuck,
			At:        now,
			Count:     n,
			MissionID: missionID,
			Reason:    fmt.Sprintf("%d failed attempts at %s", n, missionID),
		},
		Mitigation: Mitigation{Hint: d.config.MissionStuckHint},
	}, true
}

// RecordMissionSuccess clears the attempt count for missionID and counts as
// progress.
func (d *Detector) RecordMissionSuccess(missionID string, now time.Time) {
	delete(d.failures, missionID)
	delete(d.stuckFired, missionID)
	d.RecordProgress(now)
}

// Attempts returns the failed attempts recorded for missionID.
func (d *Detector) Attempts(missionID string) int { return d.failures[missionID] }

// #endregion missions

// #region progress

// RecordProgress stamps a progress event and re-arms the no-progress check.
func (d *Detector) RecordProgress(now time.Time) {
	d.lastProgress = now
	d.noProgressFired = false
}

// Tick checks the no-progress timer. The first call arms it.
func (d *Detector) Tick(now time.Time) (Detection, bool) {
	if d.lastProgress.IsZero() {
		d.lastProgress = now
		return Detection{}, false
	}
	idle := now.Sub(d.lastProgress)
	if d.noProgressFired || idle < d.config.NoProgressAfter {
		return Detection{}, false
	}
	d.noProgressFired = true
	return Detection{
		PainPoint: PainPoint{
			Kind:   KindNoProgress,
			At:     now,
			Reason: fmt.Sprintf("no progress for %s", idle.Truncate(time.Second)),
		},
		Mitigation: Mitigation{
			EncounterNudge: d.config.NoProgressNudge,
			Hint:           d.config.NoProgressHint,
		},
	}, true
}

// Reset clears all detector state.
func (d *Detector) Reset() {
	d.deaths = nil
	d.lastDeathFire = time.Time{}
	d.failures = make(map[string]int)
	d.stuckFired = make(map[string]bool)
	d.lastProgress = time.Time{}
	d.noProgressFired = false
}

// #endregion progress
