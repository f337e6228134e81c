package reward

import (
	"log"
	"math"
	"sort"
	"time"
)

// #region timer
// Timer tracks combo windows and the achieved-milestone set.
type Timer struct {
	config Config
	logger *log.Logger

	combo      ComboState
	milestones []Milestone
	byID       map[string]Milestone
	achieved   map[string]struct{}
}

// NewTimer creates a timer. Milestones with empty or duplicate ids are dropped.
func NewTimer(config Config, logger *log.Logger) *Timer {
	if logger == nil {
		logger = log.Default()
	}
	def := DefaultConfig()
	if config.ComboWindow <= 0 {
		logger.Printf("reward: invalid combo_window, using %s", def.ComboWindow)
		config.ComboWindow = def.ComboWindow
	}
	if config.ComboCap < 1 {
		logger.Printf("reward: invalid combo_cap, using %d", def.ComboCap)
		config.ComboCap = def.ComboCap
	}
	if config.CelebrationDelay < 0 {
		config.CelebrationDelay = def.CelebrationDelay
	}
	t := &Timer{
		config:   config,
		logger:   logger,
		byID:     make(map[string]Milestone),
		achieved: make(map[string]struct{}),
	}
	for _, m := range config.Milestones {
		t.Define(m)
	}
	return t
}

// Config returns the active configuration.
func (t *Timer) Config() Config { return t.config }

// #endregion timer

// #region combo

// RegisterEvent extends or restarts the combo at now and returns the new state.
func (t *Timer) RegisterEvent(now time.Time) ComboState {
	if t.combo.Count > 0 && !now.Before(t.combo.LastEventTime) && now.Sub(t.combo.LastEventTime) <= t.config.ComboWindow {
		t.combo.Count++
	} else {
		t.combo.Count = 1
	}
	t.combo.LastEventTime = now
	return t.combo
}

// Combo returns the current combo state.
func (t *Timer) Combo() ComboState { return t.combo }

// Multiplier returns 1 + ComboCurve(min(count/cap, 1)).
func (t *Timer) Multiplier() float64 {
	if t.combo.Count <= 0 {
		return 1
	}
	norm := math.Min(float64(t.combo.Count)/float64(t.config.ComboCap), 1)
	return 1 + t.config.ComboCurve.Evaluate(norm)
}

// ResetCombo drops the running combo.
func (t *Timer) ResetCombo() { t.combo = ComboState{} }

// #endregion combo

// #region milestones

// Define registers a milestone definition. Returns false for an empty or
// duplicate id.
func (t *Timer) Define(m Milestone) bool {
	if m.ID == "" {
		t.logger.Printf("reward: milestone without id ignored")
		return false
	}
	if _, dup := t.byID[m.ID]; dup {
		t.logger.Printf("reward: duplicate milestone %s ignored", m.ID)
		return false
	}
	if math.IsNaN(m.Threshold) {
		t.logger.Printf("reward: milestone %s has NaN threshold, ignored", m.ID)
		return false
	}
	t.byID[m.ID] = m
	t.milestones = append(t.milestones, m)
	return true
}

// Milestone looks up a definition.
func (t *Timer) Milestone(id string) (Milestone, bool) {
	m, ok := t.byID[id]
	return m, ok
}

// Check returns every defined milestone whose counter reached its threshold
// and that has not fired before, marking each achieved. Order follows
// definition order.
func (t *Timer) Check(progress Progress) []Milestone {
	var fired []Milestone
	for _, m := range t.milestones {
		v, ok := progress[m.Kind]
		if !ok || math.IsNaN(v) || v < m.Threshold {
			continue
		}
		if granted, ok := t.Achieve(m.ID); ok {
			fired = append(fired, granted)
		}
	}
	return fired
}

// Achieve marks id achieved. The second return is true only the first time,
// so the caller grants the reward exactly once.
func (t *Timer) Achieve(id string) (Milestone, bool) {
	m, defined := t.byID[id]
	if !defined {
		t.logger.Printf("reward: unknown milestone %s", id)
		return Milestone{}, false
	}
	if _, done := t.achieved[id]; done {
		return m, false
	}
	t.achieved[id] = struct{}{}
	return m, true
}

// Achieved reports whether id has fired.
func (t *Timer) Achieved(id string) bool {
	_, ok := t.achieved[id]
	return ok
}

// AchievedIDs returns the achieved set in sorted order.
func (t *Timer) AchievedIDs() []string {
	ids := make([]string, 0, len(t.achieved))
	for id := range t.achieved {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Restore replaces the achieved set. Ids without a definition are kept so a
// later definition does not re-fire.
func (t *Timer) Restore(ids []string) {
	t.achieved = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id != "" {
			t.achieved[id] = struct{}{}
		}
	}
}

// #endregion milestones
