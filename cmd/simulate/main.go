package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/config"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/engine"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/sim"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/tui"
)

// #region main

func main() {
	configPath := flag.String("config", "", "path to a Lua config file")
	skill := flag.Float64("skill", 1, "bot skill, 1 is an average player")
	seed := flag.Int64("seed", 1, "bot random seed")
	speed := flag.Float64("speed", 10, "game seconds per wall second (dashboard)")
	headless := flag.Bool("headless", false, "run without the dashboard and print a summary")
	duration := flag.Duration("duration", time.Hour, "simulated time (headless)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load config: %v\n", err)
			os.Exit(2)
		}
	}
	for _, w := range cfg.Warnings {
		fmt.Fprintf(os.Stderr, "config: %s\n", w)
	}

	bc := sim.DefaultBotConfig()
	bc.Skill = *skill
	bc.Seed = *seed

	if *headless {
		runHeadless(cfg.Engine, bc, *duration)
		return
	}

	// engine and bot warnings would tear the alt screen
	quiet := log.New(io.Discard, "", 0)
	feed := tui.NewFeed()
	eng := engine.New(cfg.Engine, engine.Options{
		PlayerID: "bot",
		Logger:   quiet,
		Collaborators: engine.Collaborators{
			Inventory: feed,
			Notifier:  feed,
			Unlocks:   feed,
			Cues:      feed,
			Analytics: feed,
		},
	})
	if err := tui.Run(eng, sim.NewBot(bc, quiet), feed, tui.Options{Speed: *speed}); err != nil {
		fmt.Fprintf(os.Stderr, "dashboard: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region headless

func runHeadless(ec engine.Config, bc sim.BotConfig, d time.Duration) {
	feed := tui.NewFeed()
	eng := engine.New(ec, engine.Options{
		PlayerID: "bot",
		Collaborators: engine.Collaborators{
			Inventory: feed,
			Notifier:  feed,
			Unlocks:   feed,
			Cues:      feed,
			Analytics: feed,
		},
	})
	bot := sim.NewBot(bc, nil)
	st := sim.Run(eng, bot, d, nil)
	status := eng.Status()

	fmt.Printf("Simulated %s with bot skill %.2f (seed %d)\n\n", st.Simulated, bc.Skill, bc.Seed)
	fmt.Printf("  Dives:      %d\n", st.Dives)
	fmt.Printf("  Deaths:     %d\n", st.Deaths)
	fmt.Printf("  Kills:      %d\n", st.Kills)
	fmt.Printf("  Pickups:    %d\n", st.Pickups)
	fmt.Printf("  Missions:   %d\n", st.Missions)
	fmt.Printf("  Max depth:  %.1fm\n", st.MaxDepth)
	fmt.Printf("  Credits:    %d (granted %d)\n", st.Credits, feed.Credits)
	fmt.Printf("  XP:         %d\n", feed.XP)
	fmt.Printf("  Evals:      %d\n", feed.Evals)
	fmt.Printf("\n  Skill:      %.4f\n", status.Snapshot.SkillFactor)
	fmt.Printf("  Dynamic:    %.4f\n", status.Snapshot.DynamicAdjustment)
	fmt.Printf("  Death rate: %.3f (%d samples)\n", status.Snapshot.DeathRate, status.Snapshot.Samples)
	fmt.Printf("  Stage:      %s\n", status.JourneyStage)
	fmt.Printf("  Milestones: %v\n", status.Milestones)
}

// #endregion headless
