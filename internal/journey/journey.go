// Package journey tracks the player's progression stage. Stages only move
// forward and each entry time is stamped once.
package journey

import (
	"strings"
	"time"
)

// #region stage
// Stage is an ordered journey stage.
type Stage int

const (
	Discovery Stage = iota
	Onboarding
	Engagement
	Proficiency
	Mastery
	Champion
)

var stageNames = [...]string{"discovery", "onboarding", "engagement", "proficiency", "mastery", "champion"}

func (s Stage) String() string {
	if s < Discovery || s > Champion {
		return "unknown"
	}
	return stageNames[s]
}

// ParseStage maps a name to a Stage.
func ParseStage(name string) (Stage, bool) {
	for i, n := range stageNames {
		if strings.EqualFold(n, name) {
			return Stage(i), true
		}
	}
	return Discovery, false
}

// Event is a milestone event type that can advance the journey.
type Event string

const (
	EventFirstDive        Event = "first_dive"
	EventMissionCompleted Event = "mission_completed"
	EventDeepReached      Event = "deep_reached"
	EventBossDefeated     Event = "boss_defeated"
	EventAbyssCleared     Event = "abyss_cleared"
)

var eventStage = map[Event]Stage{
	EventFirstDive:        Onboarding,
	EventMissionCompleted: Engagement,
	EventDeepReached:      Proficiency,
	EventBossDefeated:     Mastery,
	EventAbyssCleared:     Champion,
}

// StageFor returns the stage an event leads to.
func StageFor(e Event) (Stage, bool) {
	s, ok := eventStage[e]
	return s, ok
}

// #endregion stage

// #region tracker
// Transition records one forward move.
type Transition struct {
	From    Stage
	To      Stage
	Event   Event
	At      time.Time
	Entered []Stage // every stage stamped by this move, in order
}

// Tracker holds the current stage and its entry stamps.
type Tracker struct {
	current Stage
	entered map[Stage]time.Time
}

// NewTracker starts at Discovery, stamped at now.
func NewTracker(now time.Time) *Tracker {
	return &Tracker{
		current: Discovery,
		entered: map[Stage]time.Time{Discovery: now},
	}
}

// Current returns the current stage.
func (t *Tracker) Current() Stage { return t.current }

// EnteredAt returns the entry stamp of s.
func (t *Tracker) EnteredAt(s Stage) (time.Time, bool) {
	at, ok := t.entered[s]
	return at, ok
}

// Entries returns a copy of all entry stamps.
func (t *Tracker) Entries() map[Stage]time.Time {
	out := make(map[Stage]time.Time, len(t.entered))
	for s, at := range t.entered {
		out[s] = at
	}
	return out
}

// Advance applies e at now. Events that lead to the current or an earlier
// stage are ignored. Skipped stages are stamped at now.
func (t *Tracker) Advance(e Event, now time.Time) (Transition, bool) {
	target, ok := eventStage[e]
	if !ok || target <= t.current {
		return Transition{}, false
	}
	tr := Transition{From: t.current, To: target, Event: e, At: now}
	for s := t.current + 1; s <= target; s++ {
		if _, stamped := t.entered[s]; !stamped {
			t.entered[s] = now
			tr.Entered = append(tr.Entered, s)
		}
	}
	t.current = target
	return tr, true
}

// Restore loads a persisted stage and stamps. Stamps for stages beyond the
// current one are dropped; stamps already present are kept.
func (t *Tracker) Restore(current Stage, entries map[Stage]time.Time) {
	if current < Discovery || current > Champion {
		current = Discovery
	}
	t.current = current
	t.entered = make(map[Stage]time.Time, len(entries))
	for s, at := range entries {
		if s >= Discovery && s <= current && !at.IsZero() {
			t.entered[s] = at
		}
	}
}

// #endregion tracker
