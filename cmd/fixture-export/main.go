package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/replay"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/state"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to adaptive_difficulty.db")
	session := flag.String("session", "", "session id to export")
	outPath := flag.String("out", "", "output fixture JSON path")
	noExpect := flag.Bool("no-expect", false, "leave expected_results empty instead of recording the current run")
	flag.Parse()

	if *dbPath == "" || *session == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --db path/to/db --session id --out path/to/fixture.json [--no-expect]")
		os.Exit(2)
	}

	if err := run(*dbPath, *session, *outPath, !*noExpect); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region export

func run(dbPath, sessionID, outPath string, expect bool) error {
	store, err := state.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer store.Close()

	f, err := replay.SessionFixture(store, sessionID)
	if err != nil {
		return err
	}
	if len(f.Events) == 0 {
		return fmt.Errorf("session %s has no replayable rows", sessionID)
	}
	fmt.Printf("Found %d events for player %s\n", len(f.Events), f.PlayerID)

	if expect {
		// Seed expectations from the current build so later tuning shows up
		// as divergence.
		results, _, err := f.Run(log.New(io.Discard, "", 0))
		if err != nil {
			return fmt.Errorf("replay session: %w", err)
		}
		f.ExpectedResults = replay.Expect(results)
	}

	if err := replay.WriteFixture(outPath, f); err != nil {
		return err
	}
	fmt.Printf("Wrote fixture to %s (%d events, %d expectations)\n", outPath, len(f.Events), len(f.ExpectedResults))
	return nil
}

// #endregion export
