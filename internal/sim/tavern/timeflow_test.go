package tavern

import (
	"strings"
	"testing"

	"emberhall/internal/protocol"
)

func TestBoundaryBlocksGameplayActions(t *testing.T) {
	s := newTestSim(9)
	s.state.Timeflow.InProgress = true
	s.state.Timeflow.CurrentTrigger = TriggerManualSkip

	blocked := []struct {
		name string
		call func() Result
	}{
		{"runMarketing", func() Result { return s.RunMarketing("crier") }},
		{"signLocalBrokerContract", func() Result { return s.SignLocalBrokerContract(5) }},
		{"updateWeeklyPlanDraft", func() Result { return s.UpdateWeeklyPlanDraft("menuFocus", "ale") }},
		{"buySupply", func() Result { return s.BuySupply(ItemGrain, 5) }},
		{"setSpeed", func() Result { return s.SetSpeed(2) }},
	}
	for _, tc := range blocked {
		r := tc.call()
		if r.OK {
			t.Fatalf("%s succeeded during boundary resolution", tc.name)
		}
		if r.Code != protocol.ErrBoundaryLocked {
			t.Fatalf("%s code = %s, want %s", tc.name, r.Code, protocol.ErrBoundaryLocked)
		}
		if !strings.Contains(r.Err, "blocked during boundary resolution") {
			t.Fatalf("%s error = %q, want it to mention the boundary lock", tc.name, r.Err)
		}
	}
}

func TestConcurrentTriggersConflict(t *testing.T) {
	s := newTestSim(9)
	release, r := s.beginTimeflowResolution(TriggerManualSkip)
	if !r.OK {
		t.Fatalf("first trigger refused: %s %s", r.Code, r.Err)
	}
	if _, r2 := s.beginTimeflowResolution(TriggerMidnightRollover); r2.OK {
		t.Fatal("second trigger accepted while the first is open")
	} else if r2.Code != protocol.ErrBoundaryConflict {
		t.Fatalf("conflict code = %s, want %s", r2.Code, protocol.ErrBoundaryConflict)
	}
	release(false)
}

func TestDuplicateBoundaryRefusedAfterSuccess(t *testing.T) {
	s := newTestSim(9)
	release, r := s.beginTimeflowResolution(TriggerManualSkip)
	if !r.OK {
		t.Fatalf("trigger refused: %s %s", r.Code, r.Err)
	}
	release(true)
	if _, r2 := s.beginTimeflowResolution(TriggerManualSkip); r2.OK {
		t.Fatal("same trigger at the same day and minute resolved twice")
	} else if r2.Code != protocol.ErrBoundaryDup {
		t.Fatalf("dup code = %s, want %s", r2.Code, protocol.ErrBoundaryDup)
	}
}

func TestFailedBoundaryIsRetryable(t *testing.T) {
	s := newTestSim(9)
	release, r := s.beginTimeflowResolution(TriggerManualSkip)
	if !r.OK {
		t.Fatalf("trigger refused: %s %s", r.Code, r.Err)
	}
	release(false)
	release2, r2 := s.beginTimeflowResolution(TriggerManualSkip)
	if !r2.OK {
		t.Fatalf("retry after failure refused: %s %s", r2.Code, r2.Err)
	}
	release2(true)
}

func TestFailedAdvanceIsRetryable(t *testing.T) {
	s := newTestSim(13)
	// Week-close phase refuses the advance without consuming the boundary.
	s.state.Manager.Phase = PhaseWeekClose
	if r := s.AdvanceDay(AdvanceOptions{}); r.OK {
		t.Fatal("advance succeeded in week_close phase")
	}
	s.state.Manager.Phase = PhasePlanning
	if r := s.AdvanceDay(AdvanceOptions{}); !r.OK {
		t.Fatalf("retry refused: %s %s", r.Code, r.Err)
	}
	if s.State().Day != 2 {
		t.Fatalf("day = %d, want 2", s.State().Day)
	}
}

func TestActionCadencePerDay(t *testing.T) {
	s := newTestSim(31)
	if r := s.RunMarketing("crier"); !r.OK {
		t.Fatalf("first marketing run refused: %s %s", r.Code, r.Err)
	}
	r := s.RunMarketing("crier")
	if r.OK {
		t.Fatal("second marketing run on the same day succeeded")
	}
	if r.Code != protocol.ErrCadence {
		t.Fatalf("code = %s, want %s", r.Code, protocol.ErrCadence)
	}
	if rr := s.AdvanceDay(AdvanceOptions{}); !rr.OK {
		t.Fatalf("advance failed: %s %s", rr.Code, rr.Err)
	}
	if rr := s.RunMarketing("crier"); !rr.OK {
		t.Fatalf("marketing refused on the next day: %s %s", rr.Code, rr.Err)
	}
}

func TestSetSpeedValidatesMultiplier(t *testing.T) {
	s := newTestSim(31)
	for _, speed := range []int{0, 1, 2, 4} {
		if r := s.SetSpeed(speed); !r.OK {
			t.Fatalf("speed %d refused: %s %s", speed, r.Code, r.Err)
		}
	}
	if r := s.SetSpeed(3); r.OK {
		t.Fatal("speed 3 accepted")
	}
}

func TestMinuteTickWrapMatchesManualSkip(t *testing.T) {
	ticker := newTestSim(888)
	skipper := newTestSim(888)

	// The clock opens at 08:00; 960 minutes reach midnight and roll the day.
	if r := ticker.AdvanceSimulationMinutes(960); !r.OK {
		t.Fatalf("tick run failed: %s %s", r.Code, r.Err)
	}
	if r := skipper.AdvanceDay(AdvanceOptions{}); !r.OK {
		t.Fatalf("skip run failed: %s %s", r.Code, r.Err)
	}

	ta, tb := ticker.State(), skipper.State()
	if ta.Day != tb.Day {
		t.Fatalf("days diverged: %d vs %d", ta.Day, tb.Day)
	}
	if ta.Gold != tb.Gold {
		t.Fatalf("gold diverged: %.4f vs %.4f", ta.Gold, tb.Gold)
	}
	if ta.Reputation != tb.Reputation {
		t.Fatalf("reputation diverged: %.4f vs %.4f", ta.Reputation, tb.Reputation)
	}
	if ta.LastGuests != tb.LastGuests {
		t.Fatalf("guests diverged: %d vs %d", ta.LastGuests, tb.LastGuests)
	}
	for _, item := range supplyItems() {
		if ta.Inventory[item] != tb.Inventory[item] {
			t.Fatalf("inventory %s diverged: %d vs %d", item, ta.Inventory[item], tb.Inventory[item])
		}
	}
	if ticker.RNG().Snapshot() != skipper.RNG().Snapshot() {
		t.Fatal("random streams diverged between trigger paths")
	}
}

func TestMinuteTickChunkingIsEquivalent(t *testing.T) {
	coarse := newTestSim(444)
	fine := newTestSim(444)

	if r := coarse.AdvanceSimulationMinutes(960); !r.OK {
		t.Fatalf("coarse run failed: %s %s", r.Code, r.Err)
	}
	for i := 0; i < 240; i++ {
		if r := fine.AdvanceSimulationMinutes(4); !r.OK {
			t.Fatalf("fine run failed at chunk %d: %s %s", i, r.Code, r.Err)
		}
	}

	sa, err := coarse.StateSignature()
	if err != nil {
		t.Fatalf("signature: %v", err)
	}
	sb, err := fine.StateSignature()
	if err != nil {
		t.Fatalf("signature: %v", err)
	}
	if sa != sb {
		t.Fatal("one 960-minute tick and 240 four-minute ticks diverged")
	}
}
