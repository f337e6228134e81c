package tui

import (
	"fmt"

	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/logging"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/penalty"
)

// logLine is one unstyled dashboard log entry.
type logLine struct {
	kind string
	text string
}

// Feed is the engine's outbound side for the dashboard: it keeps the
// inventory counters and turns notable calls into log lines.
type Feed struct {
	Credits int
	XP      int
	Deaths  int
	Evals   int

	pending []logLine
}

// NewFeed returns an empty feed.
func NewFeed() *Feed { return &Feed{} }

func (f *Feed) push(kind, format string, args ...any) {
	f.pending = append(f.pending, logLine{kind: kind, text: fmt.Sprintf(format, args...)})
	if len(f.pending) > maxLines {
		f.pending = f.pending[len(f.pending)-maxLines:]
	}
}

// drain returns and clears the lines gathered since the last call.
func (f *Feed) drain() []logLine {
	out := f.pending
	f.pending = nil
	return out
}

func (f *Feed) ApplyPenalty(r penalty.Report) {
	f.push("death", "penalty applied: -%.0f%% cargo, -%.0f%% credits, respawn %s",
		r.ResourceLossPct*100, r.CreditLossPct*100, r.RespawnDelay)
}

func (f *Feed) GrantCredits(amount int, _ string) { f.Credits += amount }

func (f *Feed) GrantXP(amount int, _ string) { f.XP += amount }

func (f *Feed) Toast(message string) { f.push("toast", "» %s", message) }

func (f *Feed) Unlock(id string) { f.push("milestone", "unlocked %s", id) }

func (f *Feed) Cue(name string, fields map[string]any) {
	if name == "milestone_celebration" {
		f.push("milestone", "celebrating %v", fields["milestone_id"])
	}
}

func (f *Feed) Emit(event string, depth float64, fields map[string]any) {
	switch event {
	case logging.EventDeath:
		f.Deaths++
	case logging.EventEvaluation:
		f.Evals++
		f.push("system", "evaluation: skill %.3f -> %.3f, dynamic %.2f -> %.2f (%v)",
			fields["skill_before"], fields["skill_after"], fields["dynamic_before"], fields["dynamic_after"], fields["reason"])
	case logging.EventPainPoint:
		f.push("pain_point", "pain point %v at %.1fm: %v", fields["kind"], depth, fields["reason"])
	case logging.EventMilestone:
		f.push("milestone", "milestone %v (+%v credits)", fields["milestone_id"], fields["credits"])
	case logging.EventJourney:
		f.push("milestone", "journey %v -> %v", fields["from"], fields["to"])
	case logging.EventPacing:
		f.push("system", "encounter rate %.2f -> %.2f", fields["rate_before"], fields["rate_after"])
	}
}
