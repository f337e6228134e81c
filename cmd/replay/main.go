package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/replay"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/state"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to adaptive_difficulty.db (session mode)")
	session := flag.String("session", "", "session id to replay (session mode)")
	fixturePath := flag.String("fixture", "", "path to fixture JSON (fixture mode)")
	verbose := flag.Bool("v", false, "show engine log output")
	flag.Parse()

	dbMode := *dbPath != "" && *session != ""
	if dbMode == (*fixturePath != "") {
		fmt.Fprintln(os.Stderr, "usage: replay --db path/to/adaptive_difficulty.db --session id")
		fmt.Fprintln(os.Stderr, "       replay --fixture path/to/fixture.json")
		os.Exit(2)
	}

	logger := log.New(io.Discard, "", 0)
	if *verbose {
		logger = log.New(os.Stderr, "engine: ", log.Lmicroseconds)
	}

	var exitCode int
	if *fixturePath != "" {
		exitCode = runFixtureMode(*fixturePath, logger)
	} else {
		exitCode = runSessionMode(*dbPath, *session, logger)
	}
	os.Exit(exitCode)
}

// #endregion main

// #region modes

func runSessionMode(dbPath, sessionID string, logger *log.Logger) int {
	store, err := state.NewStore(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		return 2
	}
	defer store.Close()

	f, err := replay.SessionFixture(store, sessionID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "extract session: %v\n", err)
		return 2
	}
	if f.Profile == nil {
		fmt.Fprintln(os.Stderr, "no profile saved before this session, replaying from a neutral profile")
	}

	results, summary, err := f.Run(logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		return 2
	}
	printResults(results, nil)
	printSummary(summary)
	return 0
}

func runFixtureMode(path string, logger *log.Logger) int {
	f, err := replay.LoadFixture(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		return 2
	}
	results, summary, err := f.Run(logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		return 2
	}

	diffs := replay.Check(results, f.ExpectedResults)
	printResults(results, diffs)
	printSummary(summary)

	fmt.Printf("\nChecks: %d expected, %d diverge\n", len(f.ExpectedResults), len(diffs))
	for _, d := range diffs {
		fmt.Printf("  %s\n", d)
	}
	if len(diffs) > 0 {
		return 1
	}
	return 0
}

// #endregion modes

// #region output

// printResults outputs one row per replayed event. Rows named in diffs are
// marked.
func printResults(results []replay.Result, diffs []string) {
	fmt.Printf("%-4s| %-17s| %9s| %10s| %7s| %7s| %-12s| %5s| %s\n",
		"#", "Event", "At", "Difficulty", "Skill", "Dynamic", "Stage", "Combo", "Match")
	fmt.Printf("%-4s+%-18s+%10s+%11s+%8s+%8s+%-13s+%6s+%s\n",
		"----", "------------------", "----------", "-----------", "--------", "--------",
		"-------------", "------", "------")

	for _, r := range results {
		match := "OK"
		prefix := fmt.Sprintf("event %d (", r.Index)
		for _, d := range diffs {
			if strings.HasPrefix(d, prefix) {
				match = "DIFF"
				break
			}
		}
		fmt.Printf("%-4d| %-17s| %9s| %10.4f| %7.3f| %7.3f| %-12s| %5d| %s\n",
			r.Index, r.Kind, r.At, r.Difficulty, r.Skill, r.Dynamic, r.Stage, r.Combo, match)
	}
}

func printSummary(s replay.Summary) {
	fmt.Printf("\nSummary: %d events, %d deaths, %d successes, %d evaluations, %d pain points, %d spawns\n",
		s.TotalEvents, s.Deaths, s.Successes, s.Evaluations, s.Detections, s.Spawns)
	fmt.Printf("  Stage: %s | Credits: %d | XP: %d | Toasts: %d\n", s.FinalStage, s.Credits, s.XP, s.Toasts)
	fmt.Printf("  Skill: %.4f | Dynamic: %.4f\n", s.Final.SkillFactor, s.Final.DynamicAdjustment)
	if len(s.Milestones) > 0 {
		fmt.Printf("  Milestones: %s\n", strings.Join(s.Milestones, ", "))
	}
}

// #endregion output
