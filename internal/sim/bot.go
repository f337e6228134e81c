// Package sim drives an engine with a synthetic player. The bot's death
// chance follows the engine's own difficulty, so a run shows how the
// controller settles for a given player skill.
package sim

import (
	"fmt"
	"log"
	"time"

	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/curve"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/difficulty"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/economy"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/engine"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/pacing"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/rng"
)

// #region config

// BotConfig tunes the synthetic player. Rates are per simulated second.
type BotConfig struct {
	Skill        float64       // 1 is an average player; death chance divides by it
	TargetDepth  float64       // depth the bot dives toward (default 60)
	DescentRate  float64       // depth per second (default 0.5)
	DeathBase    float64       // death chance at difficulty 1 and skill 1 (default 0.004)
	KillRate     float64       // default 0.08
	PickupRate   float64       // default 0.15
	MissionEvery time.Duration // dive time after which the bot completes a contract and surfaces (default 180s)
	Seed         int64
}

// DefaultBotConfig returns an average player.
func DefaultBotConfig() BotConfig {
	return BotConfig{
		Skill:        1,
		TargetDepth:  60,
		DescentRate:  0.5,
		DeathBase:    0.004,
		KillRate:     0.08,
		PickupRate:   0.15,
		MissionEvery: 180 * time.Second,
		Seed:         1,
	}
}

// #endregion config

// #region bot

// Action is one inbound call the bot made.
type Action struct {
	At     time.Duration
	Kind   string
	Depth  float64
	Detail string
}

// Stats counts what the bot did.
type Stats struct {
	Dives     int
	Deaths    int
	Kills     int
	Pickups   int
	Missions  int
	Credits   int // kill and pickup value before engine bonuses
	MaxDepth  float64
	Simulated time.Duration
}

var kelp = economy.ResourceProfile{ID: "kelp", BaseValue: 8, Rarity: economy.Common}

// Bot is a synthetic player. It is not goroutine-safe; drive it from the
// goroutine that owns the engine.
type Bot struct {
	config  BotConfig
	logger  *log.Logger
	rng     *rng.RNG
	carry   time.Duration
	diveFor time.Duration
	depth   float64
	diving  bool
	stats   Stats
}

// NewBot creates a bot. Non-positive skill falls back to 1.
func NewBot(config BotConfig, logger *log.Logger) *Bot {
	if logger == nil {
		logger = log.Default()
	}
	if config.Skill <= 0 {
		logger.Printf("sim: invalid skill %.2f, using 1", config.Skill)
		config.Skill = 1
	}
	def := DefaultBotConfig()
	if config.DescentRate <= 0 {
		config.DescentRate = def.DescentRate
	}
	if config.MissionEvery <= 0 {
		config.MissionEvery = def.MissionEvery
	}
	return &Bot{config: config, logger: logger, rng: rng.New(config.Seed)}
}

// Config returns the bot configuration.
func (b *Bot) Config() BotConfig { return b.config }

// SetSkill changes the player skill for the following steps.
func (b *Bot) SetSkill(skill float64) {
	if skill > 0 {
		b.config.Skill = skill
	}
}

// Stats returns the counters so far.
func (b *Bot) Stats() Stats { return b.stats }

// Step plays dt of game time against eng. The bot acts once per whole
// simulated second; remainders carry into the next call. The engine is not
// ticked here.
func (b *Bot) Step(eng *engine.Engine, dt time.Duration) []Action {
	if dt <= 0 {
		return nil
	}
	b.stats.Simulated += dt
	b.carry += dt
	var out []Action
	for b.carry >= time.Second {
		b.carry -= time.Second
		out = append(out, b.second(eng)...)
	}
	return out
}

func (b *Bot) second(eng *engine.Engine) []Action {
	cfg := b.config
	var out []Action
	act := func(kind, detail string) {
		out = append(out, Action{At: eng.Elapsed(), Kind: kind, Depth: b.depth, Detail: detail})
	}

	if !b.diving {
		id := eng.StartDive("")
		eng.SetActivity(pacing.Exploration)
		b.diving, b.depth, b.diveFor = true, 0, 0
		b.stats.Dives++
		act("dive", id)
		return out
	}

	b.diveFor += time.Second
	b.depth = min(b.depth+cfg.DescentRate, cfg.TargetDepth)
	eng.SetDepth(b.depth)
	b.stats.MaxDepth = max(b.stats.MaxDepth, b.depth)

	diff := eng.DifficultyAtDepth(b.depth)
	if b.rng.Chance(curve.Clamp01(cfg.DeathBase * diff / cfg.Skill)) {
		eng.RecordDeath(b.depth, difficulty.CauseCombat)
		r := eng.ApplyDeathPenalty(b.depth, difficulty.CauseCombat)
		eng.EndDive(false)
		b.diving = false
		b.stats.Deaths++
		act("death", fmt.Sprintf("difficulty %.2f, lost %.0f%% cargo", diff, r.ResourceLossPct*100))
		return out
	}

	if b.rng.Chance(cfg.KillRate) {
		eng.StartCombat()
		credits := int(10 * diff)
		rr := eng.OnEnemyDefeated(engine.Kill{EnemyID: "drifter", Depth: b.depth, Credits: credits, XP: 5})
		eng.EndCombat()
		b.stats.Kills++
		b.stats.Credits += credits
		act("kill", fmt.Sprintf("combo %d", rr.Combo))
	}
	if b.rng.Chance(cfg.PickupRate) {
		v, rr := eng.OnResourceCollected(kelp, b.depth)
		b.stats.Pickups++
		b.stats.Credits += v
		act("pickup", fmt.Sprintf("%s worth %d, combo %d", kelp.ID, v, rr.Combo))
	}

	if b.diveFor >= cfg.MissionEvery {
		b.stats.Missions++
		id := fmt.Sprintf("contract-%d", b.stats.Missions)
		eng.OnMissionCompleted(engine.MissionReport{
			MissionID: id,
			Duration:  b.diveFor,
			Depth:     b.depth,
			Credits:   100,
			XP:        40,
		})
		eng.EndDive(true)
		b.diving = false
		act("mission", id)
	}
	return out
}

// #endregion bot

// #region run

// Run ticks eng at its configured rate for d of game time with the bot
// playing. onAction, when set, sees every bot action.
func Run(eng *engine.Engine, bot *Bot, d time.Duration, onAction func(Action)) Stats {
	step := eng.Config().TickRate
	if step <= 0 {
		step = engine.DefaultConfig().TickRate
	}
	for end := eng.Elapsed() + d; eng.Elapsed() < end; {
		dt := min(step, end-eng.Elapsed())
		eng.Tick(dt)
		for _, a := range bot.Step(eng, dt) {
			if onAction != nil {
				onAction(a)
			}
		}
	}
	return bot.Stats()
}

// #endregion run
