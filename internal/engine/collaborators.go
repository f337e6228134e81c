package engine

import (
	"log"

	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/penalty"
)

// #region missing
// missing stands in for an absent collaborator. Every call is a no-op; the
// first one is logged.
type missing struct {
	name   string
	logger *log.Logger
	warned bool
}

func (m *missing) warn(call string) {
	if m.warned {
		return
	}
	m.warned = true
	m.logger.Printf("engine: no %s collaborator, %s ignored", m.name, call)
}

type missingInventory struct{ *missing }

func (m missingInventory) ApplyPenalty(penalty.Report) { m.warn("ApplyPenalty") }
func (m missingInventory) GrantCredits(int, string)    { m.warn("GrantCredits") }
func (m missingInventory) GrantXP(int, string)         { m.warn("GrantXP") }

type missingNotifier struct{ *missing }

func (m missingNotifier) Toast(string) { m.warn("Toast") }

type missingUnlocks struct{ *missing }

func (m missingUnlocks) Unlock(string) { m.warn("Unlock") }

type missingCues struct{ *missing }

func (m missingCues) Cue(string, map[string]any) { m.warn("Cue") }

type missingAnalytics struct{ *missing }

func (m missingAnalytics) Emit(string, float64, map[string]any) { m.warn("Emit") }

// withDefaults replaces nil collaborators with logging no-ops.
func (c Collaborators) withDefaults(logger *log.Logger) Collaborators {
	if c.Inventory == nil {
		c.Inventory = missingInventory{&missing{name: "inventory", logger: logger}}
	}
	if c.Notifier == nil {
		c.Notifier = missingNotifier{&missing{name: "notifier", logger: logger}}
	}
	if c.Unlocks == nil {
		c.Unlocks = missingUnlocks{&missing{name: "unlocks", logger: logger}}
	}
	if c.Cues == nil {
		c.Cues = missingCues{&missing{name: "cues", logger: logger}}
	}
	if c.Analytics == nil {
		c.Analytics = missingAnalytics{&missing{name: "analytics", logger: logger}}
	}
	return c
}

// #endregion missing
