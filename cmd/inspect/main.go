package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/logging"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/rpc"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/state"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to adaptive_difficulty.db")
	player := flag.String("player", "", "player id (defaults to the only stored player)")
	last := flag.Int("last", 20, "show N most recent versions")
	version := flag.String("version", "", "show single version detail")
	events := flag.Int("events", 0, "also show the player's N most recent analytics rows")
	remote := flag.String("remote", "", "query a running controller at host:port instead of a db")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if (*dbPath == "") == (*remote == "") {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/adaptive_difficulty.db [--player id] [--last N] [--version id] [--events N] [--json]")
		fmt.Fprintln(os.Stderr, "       inspect --remote host:port [--json]")
		os.Exit(2)
	}

	if *remote != "" {
		if err := runRemoteMode(*remote, *jsonOut); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	store, err := state.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if *version != "" {
		err = runDetailMode(store, *version, *jsonOut)
	} else {
		err = runListMode(store, *player, *last, *events, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	VersionID  string  `json:"version_id"`
	Reason     string  `json:"reason,omitempty"`
	Skill      float64 `json:"skill_factor"`
	Dynamic    float64 `json:"dynamic_adjustment"`
	Stage      string  `json:"journey_stage"`
	Milestones int     `json:"milestones"`
	Epoch      int     `json:"market_epoch"`
	CreatedAt  string  `json:"created_at"`
}

type listOutput struct {
	PlayerID string          `json:"player_id"`
	Versions []listRow       `json:"versions"`
	Events   []logging.Entry `json:"events,omitempty"`
}

func runListMode(store *state.Store, player string, last, events int, jsonOut bool) error {
	if player == "" {
		players, err := store.Players()
		if err != nil {
			return err
		}
		switch len(players) {
		case 0:
			fmt.Fprintln(os.Stderr, "no players found")
			return nil
		case 1:
			player = players[0]
		default:
			return fmt.Errorf("several players stored, pick one with --player: %s", strings.Join(players, ", "))
		}
	}

	versions, err := store.ListVersions(player, last)
	if err != nil {
		return err
	}
	out := listOutput{PlayerID: player, Versions: make([]listRow, len(versions))}
	// store returns newest first, reverse for chronological
	for i, v := range versions {
		out.Versions[len(versions)-1-i] = listRow{
			VersionID:  v.VersionID,
			Reason:     v.Reason,
			Skill:      v.Profile.SkillFactor,
			Dynamic:    v.Profile.DynamicAdjustment,
			Stage:      v.Profile.JourneyStage,
			Milestones: len(v.Profile.Milestones),
			Epoch:      v.Profile.Market.Epoch,
			CreatedAt:  v.CreatedAt.Format(time.RFC3339),
		}
	}
	if events > 0 {
		out.Events, err = logging.Recent(store.DB(), player, events)
		if err != nil {
			return err
		}
	}

	if jsonOut {
		return printJSON(out)
	}
	printListTable(out)
	return nil
}

func printListTable(out listOutput) {
	fmt.Printf("Player: %s\n\n", out.PlayerID)
	if len(out.Versions) == 0 {
		fmt.Println("no versions found")
	} else {
		fmt.Printf("%-10s  %-12s  %7s  %7s  %-12s  %4s  %5s  %s\n",
			"Version", "Reason", "Skill", "Dynamic", "Stage", "Mile", "Epoch", "Time")
		fmt.Printf("%-10s+-%-12s+-%7s+-%7s+-%-12s+-%4s+-%5s+-%s\n",
			"----------", "------------", "-------", "-------", "------------", "----", "-----", "--------------------")
		for _, r := range out.Versions {
			fmt.Printf("%-10s  %-12s  %7.4f  %7.4f  %-12s  %4d  %5d  %s\n",
				shortID(r.VersionID), r.Reason, r.Skill, r.Dynamic, r.Stage, r.Milestones, r.Epoch, r.CreatedAt)
		}
	}

	if len(out.Events) > 0 {
		fmt.Printf("\nRecent events (newest first):\n")
		for _, e := range out.Events {
			fmt.Printf("  %s  %-18s %6.1fm  %-10s %s\n",
				e.CreatedAt.Format(time.RFC3339), e.Event, e.Depth, shortID(e.SessionID), formatFields(e.Fields))
		}
	}
}

// #endregion list-mode

// #region detail-mode

func runDetailMode(store *state.Store, versionID string, jsonOut bool) error {
	v, err := store.GetVersion(versionID)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(v)
	}

	p := v.Profile
	fmt.Printf("Version:    %s\n", v.VersionID)
	fmt.Printf("Parent:     %s\n", v.ParentID)
	fmt.Printf("Player:     %s\n", v.PlayerID)
	fmt.Printf("Created:    %s\n", v.CreatedAt.Format(time.RFC3339))
	fmt.Printf("Reason:     %s\n", v.Reason)
	fmt.Printf("Skill:      %.4f\n", p.SkillFactor)
	fmt.Printf("Dynamic:    %.4f\n", p.DynamicAdjustment)
	fmt.Printf("Stage:      %s\n", p.JourneyStage)
	fmt.Printf("Milestones: %s\n", strings.Join(p.Milestones, ", "))

	if len(p.Assignments) > 0 {
		fmt.Printf("\nExperiments:\n")
		for _, id := range sortedKeys(p.Assignments) {
			fmt.Printf("  %-20s %s\n", id, p.Assignments[id])
		}
	}
	if len(p.Counters) > 0 {
		fmt.Printf("\nCounters:\n")
		for _, k := range sortedKeys(p.Counters) {
			fmt.Printf("  %-20s %g\n", k, p.Counters[k])
		}
	}
	fmt.Printf("\nMarket: epoch %d, seed %d, position %d\n", p.Market.Epoch, p.Market.Seed, p.Market.Position)
	for _, k := range sortedKeys(p.Market.Factors) {
		fmt.Printf("  %-20s %.3f\n", k, p.Market.Factors[k])
	}
	return nil
}

// #endregion detail-mode

// #region remote-mode

func runRemoteMode(addr string, jsonOut bool) error {
	client, err := rpc.NewClient(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	st, err := client.Status(ctx)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(st)
	}
	for _, k := range sortedKeys(st) {
		fmt.Printf("%-20s %v\n", k, st[k])
	}
	return nil
}

// #endregion remote-mode

// #region output

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func formatFields(fields map[string]any) string {
	parts := make([]string, 0, len(fields))
	for _, k := range sortedKeys(fields) {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return strings.Join(parts, " ")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion output
