package tui

import (
	"io"
	"log"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/engine"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/logging"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/sim"
)

var quiet = log.New(io.Discard, "", 0)

func newModel(t *testing.T) (Model, *engine.Engine, *Feed) {
	t.Helper()
	feed := NewFeed()
	eng := engine.New(engine.DefaultConfig(), engine.Options{
		PlayerID: "dash",
		Start:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Logger:   quiet,
		Collaborators: engine.Collaborators{
			Inventory: feed,
			Notifier:  feed,
			Unlocks:   feed,
			Cues:      feed,
			Analytics: feed,
		},
	})
	bot := sim.NewBot(sim.DefaultBotConfig(), quiet)
	m := New(eng, bot, feed, Options{Frame: 100 * time.Millisecond, Speed: 10})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(Model), eng, feed
}

func press(m Model, r rune) Model {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	return next.(Model)
}

func TestFeedCountsAndLogs(t *testing.T) {
	f := NewFeed()
	f.GrantCredits(30, "kill")
	f.GrantXP(5, "kill")
	f.Emit(logging.EventEvaluation, 0, map[string]any{
		"skill_before":   1.0,
		"skill_after":    0.985,
		"dynamic_before": 1.0,
		"dynamic_after":  0.95,
		"reason":         "high death rate",
	})
	f.Emit(logging.EventDeath, 12, nil)
	if f.Credits != 30 || f.XP != 5 || f.Evals != 1 || f.Deaths != 1 {
		t.Fatalf("feed = %+v", f)
	}
	lines := f.drain()
	if len(lines) != 1 || !strings.Contains(lines[0].text, "0.985") {
		t.Fatalf("lines = %+v", lines)
	}
	if len(f.drain()) != 0 {
		t.Fatal("drain did not clear")
	}
}

func TestFrameAdvancesGameTime(t *testing.T) {
	m, eng, _ := newModel(t)
	next, cmd := m.Update(frameMsg(time.Now()))
	m = next.(Model)
	if cmd == nil {
		t.Fatal("no next frame scheduled")
	}
	if eng.Elapsed() != time.Second {
		t.Fatalf("elapsed = %v, want 1s", eng.Elapsed())
	}
	if len(m.lines) == 0 || m.lines[0].kind != "dive" {
		t.Fatalf("lines = %+v", m.lines)
	}
}

func TestPauseStopsTheClock(t *testing.T) {
	m, eng, _ := newModel(t)
	m = press(m, 'p')
	if !m.paused {
		t.Fatal("not paused")
	}
	next, _ := m.Update(frameMsg(time.Now()))
	m = next.(Model)
	if eng.Elapsed() != 0 {
		t.Fatalf("elapsed = %v while paused", eng.Elapsed())
	}
	if !strings.Contains(m.View(), "paused") {
		t.Fatal("view does not show pause")
	}
}

func TestForcedDeathReachesFeed(t *testing.T) {
	m, _, feed := newModel(t)
	m = press(m, 'd')
	if feed.Deaths != 1 {
		t.Fatalf("deaths = %d", feed.Deaths)
	}
	if last := m.lines[len(m.lines)-1]; last.kind != "death" {
		t.Fatalf("last line = %+v", last)
	}
}

func TestSpeedIsCapped(t *testing.T) {
	m, _, _ := newModel(t)
	for range 10 {
		m = press(m, '+')
	}
	if m.speed != maxSpeed {
		t.Fatalf("speed = %v", m.speed)
	}
	for range 20 {
		m = press(m, '-')
	}
	if m.speed != 1 {
		t.Fatalf("speed = %v", m.speed)
	}
}

func TestSkillKeys(t *testing.T) {
	m, _, _ := newModel(t)
	m = press(m, ']')
	if got := m.bot.Config().Skill; got != 1.25 {
		t.Fatalf("skill = %v", got)
	}
	m = press(m, '[')
	if got := m.bot.Config().Skill; got != 1 {
		t.Fatalf("skill = %v", got)
	}
}

func TestViewBeforeResize(t *testing.T) {
	m := New(engine.New(engine.DefaultConfig(), engine.Options{Logger: quiet}), sim.NewBot(sim.DefaultBotConfig(), quiet), nil, Options{})
	if m.View() != "Loading..." {
		t.Fatalf("view = %q", m.View())
	}
	if m.frame != 100*time.Millisecond || m.speed != 10 {
		t.Fatalf("defaults = %v %v", m.frame, m.speed)
	}
}

func TestViewShowsGauges(t *testing.T) {
	m, _, _ := newModel(t)
	v := m.View()
	for _, want := range []string{"Difficulty", "Skill", "Tension", "Combo", "player dash"} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestQuit(t *testing.T) {
	m, _, _ := newModel(t)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil || next.(Model).View() != "" {
		t.Fatal("ctrl+c did not quit")
	}
}

func TestClock(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{0, "0:00:00"},
		{61*time.Second + 900*time.Millisecond, "0:01:01"},
		{2*time.Hour + 3*time.Minute + 4*time.Second, "2:03:04"},
	}
	for _, c := range cases {
		if got := clock(c.d); got != c.want {
			t.Errorf("clock(%v) = %q, want %q", c.d, got, c.want)
		}
	}
}
