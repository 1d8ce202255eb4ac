// Command replay is the determinism regression harness: it runs named
// scenarios twice from the same seed and fails when the paired runs diverge
// or a bounded invariant escapes its range.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"emberhall/internal/sim/tavern"
	"emberhall/internal/sim/tuning"
)

func main() {
	var (
		scenarioFlag = flag.String("scenario", "", "scenario id to run (default: all)")
		days         = flag.Int("days", 0, "override days per run (default: scenario's regression length)")
		seed         = flag.Uint("seed", 0, "override seed (default: scenario's recommended seed)")
		tuningPath   = flag.String("tuning", "", "path to tuning.yaml (default: built-in defaults)")
	)
	flag.Parse()

	tune := tuning.Defaults()
	if strings.TrimSpace(*tuningPath) != "" {
		t, err := tuning.Load(*tuningPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "load tuning:", err)
			os.Exit(2)
		}
		tune = t
	}

	ids := tavern.ScenarioIDs()
	if *scenarioFlag != "" {
		if _, ok := tavern.LookupScenario(*scenarioFlag); !ok {
			fmt.Fprintf(os.Stderr, "unknown scenario %q (have: %s)\n", *scenarioFlag, strings.Join(ids, ", "))
			os.Exit(2)
		}
		ids = []string{*scenarioFlag}
	}

	failed := 0
	for _, id := range ids {
		sc, _ := tavern.LookupScenario(id)
		runDays := sc.RegressionDays
		if *days > 0 {
			runDays = *days
		}
		if err := runScenario(id, uint32(*seed), runDays, tune); err != nil {
			fmt.Printf("FAIL  %-16s %v\n", id, err)
			failed++
			continue
		}
		fmt.Printf("ok    %-16s days=%d\n", id, runDays)
	}
	if failed > 0 {
		fmt.Printf("%d scenario(s) failed\n", failed)
		os.Exit(1)
	}
}

// runScenario plays the same scenario twice and compares state signatures
// after every day. The first run also carries the invariant checks; the
// second exists purely to catch nondeterminism.
func runScenario(id string, seed uint32, days int, tune tuning.Tuning) error {
	a, err := tavern.NewScenario(id, seed, tune)
	if err != nil {
		return err
	}
	b, err := tavern.NewScenario(id, seed, tune)
	if err != nil {
		return err
	}

	for day := 0; day < days; day++ {
		ra := a.AdvanceDay(tavern.AdvanceOptions{Trigger: "regression"})
		rb := b.AdvanceDay(tavern.AdvanceOptions{Trigger: "regression"})
		if !ra.OK {
			return fmt.Errorf("day %d: advance refused: %s %s", a.State().Day, ra.Code, ra.Err)
		}
		if !rb.OK {
			return fmt.Errorf("day %d: paired advance refused: %s %s", b.State().Day, rb.Code, rb.Err)
		}

		sigA, err := a.StateSignature()
		if err != nil {
			return fmt.Errorf("signature: %w", err)
		}
		sigB, err := b.StateSignature()
		if err != nil {
			return fmt.Errorf("signature: %w", err)
		}
		if sigA != sigB {
			return fmt.Errorf("signature mismatch on day %d: %s != %s", a.State().Day, sigA[:12], sigB[:12])
		}

		if err := checkInvariants(a.State()); err != nil {
			return fmt.Errorf("day %d: %w", a.State().Day, err)
		}
	}
	return nil
}

func checkInvariants(st *tavern.State) error {
	for _, v := range []struct {
		name string
		val  float64
	}{
		{"reputation", st.Reputation},
		{"condition", st.Condition},
		{"cleanliness", st.Cleanliness},
	} {
		if v.val < 0 || v.val > 100 {
			return fmt.Errorf("%s out of range: %.2f", v.name, v.val)
		}
	}
	for item, n := range st.Inventory {
		if n < 0 {
			return fmt.Errorf("negative inventory for %s: %d", item, n)
		}
	}
	for _, stf := range st.Staff {
		if stf.Morale < 0 || stf.Morale > 100 {
			return fmt.Errorf("staff %s morale out of range: %.2f", stf.ID, stf.Morale)
		}
		if stf.Fatigue < 0 || stf.Fatigue > 100 {
			return fmt.Errorf("staff %s fatigue out of range: %.2f", stf.ID, stf.Fatigue)
		}
	}
	for _, p := range st.Patrons {
		if p.Loyalty < 0 || p.Loyalty > 100 {
			return fmt.Errorf("patron %s loyalty out of range: %.2f", p.ID, p.Loyalty)
		}
	}
	if got := (st.Day-1)%7 + 1; st.Manager.DayInWeek != got {
		return fmt.Errorf("dayInWeek drifted: have %d want %d", st.Manager.DayInWeek, got)
	}
	return nil
}
