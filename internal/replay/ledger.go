package replay

import "github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/penalty"

// Ledger stands in for every outbound collaborator during a replay and
// tallies what the engine asked for.
type Ledger struct {
	Credits   int
	XP        int
	Penalties []penalty.Report
	Toasts    []string
	Unlocks   []string
	Cues      map[string]int
	Events    map[string]int
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{Cues: map[string]int{}, Events: map[string]int{}}
}

func (l *Ledger) ApplyPenalty(r penalty.Report)                  { l.Penalties = append(l.Penalties, r) }
func (l *Ledger) GrantCredits(amount int, _ string)              { l.Credits += amount }
func (l *Ledger) GrantXP(amount int, _ string)                   { l.XP += amount }
func (l *Ledger) Toast(message string)                           { l.Toasts = append(l.Toasts, message) }
func (l *Ledger) Unlock(id string)                               { l.Unlocks = append(l.Unlocks, id) }
func (l *Ledger) Cue(name string, _ map[string]any)              { l.Cues[name]++ }
func (l *Ledger) Emit(event string, _ float64, _ map[string]any) { l.Events[event]++ }
