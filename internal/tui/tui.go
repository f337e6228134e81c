// Package tui is a live dashboard that plays a synthetic player against an
// engine and shows how the controllers respond.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/difficulty"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/engine"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/sim"
)

const (
	maxLines   = 500
	headerRows = 9 // title, six bars, depth line, blank
	maxSpeed   = 600
)

// Options tunes the dashboard clock.
type Options struct {
	Frame time.Duration // wall time between frames (default 100ms)
	Speed float64       // game seconds per wall second (default 10)
}

// Model is the Bubble Tea model for the simulation dashboard.
type Model struct {
	eng  *engine.Engine
	bot  *sim.Bot
	feed *Feed

	frame  time.Duration
	speed  float64
	paused bool

	bar      progress.Model
	viewport viewport.Model
	lines    []logLine

	width    int
	height   int
	ready    bool
	quitting bool
}

// frameMsg advances the simulation by one frame.
type frameMsg time.Time

// New creates a dashboard. feed must be the engine's collaborator set so
// the log sees what the engine reports.
func New(eng *engine.Engine, bot *sim.Bot, feed *Feed, opts Options) Model {
	if opts.Frame <= 0 {
		opts.Frame = 100 * time.Millisecond
	}
	if opts.Speed <= 0 {
		opts.Speed = 10
	}
	return Model{
		eng:   eng,
		bot:   bot,
		feed:  feed,
		frame: opts.Frame,
		speed: opts.Speed,
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(30), progress.WithoutPercentage()),
	}
}

// Run starts the Bubble Tea program.
func Run(eng *engine.Engine, bot *sim.Bot, feed *Feed, opts Options) error {
	p := tea.NewProgram(New(eng, bot, feed, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init schedules the first frame.
func (m Model) Init() tea.Cmd {
	return m.nextFrame()
}

func (m Model) nextFrame() tea.Cmd {
	return tea.Tick(m.frame, func(t time.Time) tea.Msg { return frameMsg(t) })
}

// Update handles key presses, resizes and frames.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vpHeight := max(m.height-headerRows-2, 1) // status bar + help line
		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.viewport.KeyMap = viewportKeyMap()
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}
		m.refreshViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		case "p":
			m.paused = !m.paused
		case "+", "=":
			m.speed = min(m.speed*2, maxSpeed)
		case "-":
			m.speed = max(m.speed/2, 1)
		case "]":
			m.bot.SetSkill(m.bot.Config().Skill * 1.25)
			m.log("system", "bot skill %.2f", m.bot.Config().Skill)
		case "[":
			m.bot.SetSkill(m.bot.Config().Skill / 1.25)
			m.log("system", "bot skill %.2f", m.bot.Config().Skill)
		case "d":
			depth := m.eng.Depth()
			m.eng.RecordDeath(depth, difficulty.CauseUnknown)
			m.eng.ApplyDeathPenalty(depth, difficulty.CauseUnknown)
			m.log("death", "forced death at %.1fm", depth)
		case "k":
			rr := m.eng.OnEnemyDefeated(engine.Kill{EnemyID: "manual", Depth: m.eng.Depth(), Credits: 10, XP: 5})
			m.log("kill", "manual kill, combo %d", rr.Combo)
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		m.collect()
		m.refreshViewport()

	case frameMsg:
		if !m.paused {
			m.advance(time.Duration(float64(m.frame) * m.speed))
		}
		return m, m.nextFrame()
	}
	return m, nil
}

// advance ticks the engine at its own rate for d of game time with the bot
// playing.
func (m *Model) advance(d time.Duration) {
	sim.Run(m.eng, m.bot, d, func(a sim.Action) {
		m.log(a.Kind, "%s %-7s %5.1fm %s", clock(a.At), a.Kind, a.Depth, a.Detail)
	})
	m.collect()
	m.refreshViewport()
}

func (m *Model) collect() {
	if m.feed == nil {
		return
	}
	for _, l := range m.feed.drain() {
		m.log(l.kind, "%s %s", clock(m.eng.Elapsed()), l.text)
	}
}

func (m *Model) log(kind, format string, args ...any) {
	m.lines = append(m.lines, logLine{kind: kind, text: fmt.Sprintf(format, args...)})
	if len(m.lines) > maxLines {
		m.lines = m.lines[len(m.lines)-maxLines:]
	}
}

func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	styled := make([]string, len(m.lines))
	for i, l := range m.lines {
		styled[i] = renderLogLine(l)
	}
	m.viewport.SetContent(strings.Join(styled, "\n"))
	m.viewport.GotoBottom()
}

// View renders header, log, status bar and help.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}
	return m.renderHeader() + "\n" + m.viewport.View() + "\n" + m.renderStatusBar() + "\n" +
		styleHelp.Render("p pause  +/- speed  [/] bot skill  d death  k kill  pgup/pgdown scroll  q quit")
}

func (m Model) renderHeader() string {
	st := m.eng.Status()
	cfg := m.eng.Config()
	dc := cfg.Difficulty

	title := fmt.Sprintf("Adaptive difficulty | player %s | %s | %gx", st.PlayerID, clock(m.eng.Elapsed()), m.speed)
	if m.paused {
		title += " | paused"
	}
	rows := []string{
		styleTitle.Render(title),
		m.gauge("Difficulty", st.Difficulty, 0.5, (1+dc.MaxBonus)*dc.SkillMax*dc.DynamicMax, "%.3f"),
		m.gauge("Skill", st.Snapshot.SkillFactor, dc.SkillMin, dc.SkillMax, "%.3f"),
		m.gauge("Dynamic", st.Snapshot.DynamicAdjustment, dc.DynamicMin, dc.DynamicMax, "%.3f"),
		m.gauge("Tension", st.Tension, 0, 1, "%.2f"),
		m.gauge("Encounters", st.EncounterRate, cfg.Pacing.MinRate, cfg.Pacing.MaxRate, "%.2fx"),
		m.gauge("Combo", float64(st.Combo), 0, float64(cfg.Reward.ComboCap), "%.0f"),
		fmt.Sprintf("%s %.1fm (%s) | stage %s | insurance %s | pending %d",
			styleLabel.Render("Depth"), st.Depth, st.Layer, st.JourneyStage, st.Insurance, st.PendingTasks),
		"",
	}
	return strings.Join(rows, "\n")
}

func (m Model) gauge(label string, v, lo, hi float64, format string) string {
	pct := 0.0
	if hi > lo {
		pct = (v - lo) / (hi - lo)
	}
	pct = min(max(pct, 0), 1)
	return styleLabel.Render(label) + m.bar.ViewAs(pct) + " " + styleValue.Render(fmt.Sprintf(format, v))
}

// renderStatusBar produces a full-width inverted status line.
func (m Model) renderStatusBar() string {
	st := m.bot.Stats()
	left := fmt.Sprintf(" dives %d | deaths %d | kills %d | missions %d", st.Dives, st.Deaths, st.Kills, st.Missions)
	right := " "
	if m.feed != nil {
		right = fmt.Sprintf("credits %d | xp %d | evals %d ", m.feed.Credits, m.feed.XP, m.feed.Evals)
	}
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	return styleStatusBar.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

func viewportKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		Up:           key.NewBinding(key.WithDisabled()),
		Down:         key.NewBinding(key.WithDisabled()),
	}
}

// clock formats game time as h:mm:ss.
func clock(d time.Duration) string {
	d = d.Truncate(time.Second)
	h := int(d / time.Hour)
	mnt := int(d%time.Hour) / int(time.Minute)
	s := int(d%time.Minute) / int(time.Second)
	return fmt.Sprintf("%d:%02d:%02d", h, mnt, s)
}
