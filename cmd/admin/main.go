// Command admin inspects a game's on-disk artifacts: save archives, the
// sqlite read-model index, and individual save payloads. It never touches a
// live server; everything here reads files the server already wrote.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"emberhall/internal/persistence/indexdb"
	"emberhall/internal/persistence/snapshot"
	"emberhall/internal/sim/tavern"
	"emberhall/internal/sim/tuning"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "saves":
			savesCmd(os.Args[2:])
			return
		case "inspect":
			inspectCmd(os.Args[2:])
			return
		case "reports":
			reportsCmd(os.Args[2:])
			return
		case "weeks":
			weeksCmd(os.Args[2:])
			return
		}
	}
	fmt.Fprintln(os.Stderr, "usage: admin <saves|inspect|reports|weeks> [flags]")
	os.Exit(2)
}

func gameDirFlagSet(name string) (*flag.FlagSet, *string, *string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	gameID := fs.String("game", "emberhall_1", "game id")
	return fs, dataDir, gameID
}

func savesCmd(args []string) {
	fs, dataDir, gameID := gameDirFlagSet("saves")
	_ = fs.Parse(args)

	dir := filepath.Join(*dataDir, "games", *gameID, "saves")
	ents, err := snapshot.List(dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list saves:", err)
		os.Exit(1)
	}
	if len(ents) == 0 {
		fmt.Println("no saves")
		return
	}
	for _, e := range ents {
		fmt.Printf("day=%-6d v%d saved_at=%s %s\n", e.Header.Day, e.Header.Version, e.Header.SavedAt, filepath.Base(e.Path))
	}
}

func inspectCmd(args []string) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	full := fs.Bool("full", false, "dump the whole state as JSON")
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: admin inspect [-full] <save.sav.zst>")
		os.Exit(2)
	}
	path := fs.Arg(0)

	h, payload, err := snapshot.Read(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read save:", err)
		os.Exit(1)
	}
	sim, info, res := tavern.LoadGame(payload, tuning.Defaults())
	if !res.OK {
		fmt.Fprintf(os.Stderr, "load save: %s %s\n", res.Code, res.Err)
		os.Exit(1)
	}
	st := sim.State()

	fmt.Printf("save v%d game=%s day=%d saved_at=%s\n", h.Version, h.Game, h.Day, h.SavedAt)
	if len(info.Migrations) > 0 {
		fmt.Printf("migrations: %v\n", info.Migrations)
	}
	sig, err := sim.StateSignature()
	if err == nil {
		fmt.Printf("signature: %s\n", sig)
	}
	fmt.Printf("gold=%.1f reputation=%.1f condition=%.1f cleanliness=%.1f\n",
		st.Gold, st.Reputation, st.Condition, st.Cleanliness)
	fmt.Printf("phase=%s week=%d day_in_week=%d staff=%d patrons=%d\n",
		st.Manager.Phase, st.Manager.WeekIndex, st.Manager.DayInWeek, len(st.Staff), len(st.Patrons))
	if rep := st.LastReport; rep != nil {
		fmt.Printf("last report: day=%d guests=%d revenue=%.1f net=%.1f\n",
			rep.Day, rep.Guests, rep.Revenue, rep.Net)
	}

	if *full {
		b, err := json.MarshalIndent(st, "", "  ")
		if err != nil {
			fmt.Fprintln(os.Stderr, "marshal:", err)
			os.Exit(1)
		}
		fmt.Println(string(b))
	}
}

func reportsCmd(args []string) {
	fs, dataDir, gameID := gameDirFlagSet("reports")
	limit := fs.Int("n", 14, "number of reports, newest first")
	_ = fs.Parse(args)

	idx := openIndex(*dataDir, *gameID)
	defer idx.Close()

	reports, err := idx.RecentReports(*gameID, *limit)
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	for _, raw := range reports {
		var rep tavern.DayReport
		if err := json.Unmarshal(raw, &rep); err != nil {
			continue
		}
		fmt.Printf("day=%-5d guests=%-4d revenue=%-8.1f net=%-8.1f satisfaction=%.1f gold=%.1f\n",
			rep.Day, rep.Guests, rep.Revenue, rep.Net, rep.Satisfaction, rep.GoldAfter)
	}
}

func weeksCmd(args []string) {
	fs, dataDir, gameID := gameDirFlagSet("weeks")
	limit := fs.Int("n", 12, "number of weeks, oldest first")
	_ = fs.Parse(args)

	idx := openIndex(*dataDir, *gameID)
	defer idx.Close()

	weeks, err := idx.WeekSummaries(*gameID, *limit)
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	for _, w := range weeks {
		fmt.Printf("week=%-4d end_day=%-5d guests=%-5d revenue=%-8.1f net=%.1f\n",
			w.WeekIndex, w.EndDay, w.Guests, w.Revenue, w.Net)
	}
}

func openIndex(dataDir, gameID string) *indexdb.SQLiteIndex {
	dbPath := filepath.Join(dataDir, "games", gameID, "index", "game.sqlite")
	if _, err := os.Stat(dbPath); err != nil {
		fmt.Fprintln(os.Stderr, "no index db at", dbPath)
		os.Exit(1)
	}
	idx, err := indexdb.OpenSQLite(dbPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open index:", err)
		os.Exit(1)
	}
	return idx
}
