package sim

import (
	"io"
	"log"
	"testing"
	"time"

	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/engine"
)

var quiet = log.New(io.Discard, "", 0)

func newEngine() *engine.Engine {
	return engine.New(engine.DefaultConfig(), engine.Options{
		PlayerID: "bot",
		Start:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Logger:   quiet,
	})
}

func TestFirstStepStartsADive(t *testing.T) {
	eng := newEngine()
	bot := NewBot(DefaultBotConfig(), quiet)
	acts := bot.Step(eng, time.Second)
	if len(acts) != 1 || acts[0].Kind != "dive" {
		t.Fatalf("actions = %+v", acts)
	}
	if eng.DiveID() == "" || eng.DiveID() != acts[0].Detail {
		t.Fatalf("dive id = %q", eng.DiveID())
	}
}

func TestStepCarriesPartialSeconds(t *testing.T) {
	eng := newEngine()
	bot := NewBot(DefaultBotConfig(), quiet)
	if acts := bot.Step(eng, 600*time.Millisecond); len(acts) != 0 {
		t.Fatalf("acted before a full second: %+v", acts)
	}
	if acts := bot.Step(eng, 600*time.Millisecond); len(acts) != 1 {
		t.Fatalf("actions = %+v", acts)
	}
}

func TestBotDescendsToTarget(t *testing.T) {
	eng := newEngine()
	cfg := DefaultBotConfig()
	cfg.DeathBase = 0
	cfg.TargetDepth = 10
	cfg.DescentRate = 2
	bot := NewBot(cfg, quiet)
	Run(eng, bot, 20*time.Second, nil)
	if eng.Depth() != 10 {
		t.Fatalf("depth = %v, want 10", eng.Depth())
	}
	if bot.Stats().Deaths != 0 {
		t.Fatalf("deaths = %d with zero death chance", bot.Stats().Deaths)
	}
}

func TestMissionSurfacesTheBot(t *testing.T) {
	eng := newEngine()
	cfg := DefaultBotConfig()
	cfg.DeathBase = 0
	cfg.MissionEvery = 5 * time.Second
	bot := NewBot(cfg, quiet)
	var kinds []string
	Run(eng, bot, 7*time.Second, func(a Action) { kinds = append(kinds, a.Kind) })

	st := bot.Stats()
	if st.Missions != 1 || st.Dives != 2 {
		t.Fatalf("stats = %+v (actions %v)", st, kinds)
	}
	if eng.Journey().Current().String() != "engagement" {
		t.Fatalf("stage = %s", eng.Journey().Current())
	}
}

func TestWeakPlayerDiesMoreAndGetsRelief(t *testing.T) {
	run := func(skill float64) (Stats, float64) {
		eng := newEngine()
		cfg := DefaultBotConfig()
		cfg.Skill = skill
		cfg.DeathBase = 0.02
		bot := NewBot(cfg, quiet)
		st := Run(eng, bot, 30*time.Minute, nil)
		return st, eng.Difficulty().SkillFactor()
	}
	weak, weakSkill := run(0.4)
	strong, strongSkill := run(50)
	if weak.Deaths <= strong.Deaths {
		t.Fatalf("weak deaths %d <= strong deaths %d", weak.Deaths, strong.Deaths)
	}
	if weakSkill >= strongSkill {
		t.Fatalf("skill factor weak %.3f >= strong %.3f", weakSkill, strongSkill)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	a := Run(newEngine(), NewBot(DefaultBotConfig(), quiet), 10*time.Minute, nil)
	b := Run(newEngine(), NewBot(DefaultBotConfig(), quiet), 10*time.Minute, nil)
	if a != b {
		t.Fatalf("runs differ:\n%+v\n%+v", a, b)
	}
}

func TestInvalidSkillFallsBack(t *testing.T) {
	cfg := DefaultBotConfig()
	cfg.Skill = -1
	if got := NewBot(cfg, quiet).Config().Skill; got != 1 {
		t.Fatalf("skill = %v", got)
	}
}
