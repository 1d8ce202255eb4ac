package tavern

import (
	"testing"

	"emberhall/internal/protocol"
)

func TestPhaseCycleIsStrict(t *testing.T) {
	s := newTestSim(5)
	m := &s.state.Manager
	if m.Phase != PhasePlanning {
		t.Fatalf("fresh game phase = %s, want planning", m.Phase)
	}

	// Planning cannot jump straight to week close.
	before := s.state.Timeflow.GuardRecoveries
	if r := s.RequestPhase(PhaseWeekClose); r.OK {
		t.Fatal("planning -> week_close accepted")
	}
	if s.state.Timeflow.GuardRecoveries != before+1 {
		t.Fatalf("guard recoveries = %d, want %d", s.state.Timeflow.GuardRecoveries, before+1)
	}

	// Execution is entered by committing, not by request.
	if r := s.RequestPhase(PhaseExecution); r.OK || r.Code != protocol.ErrPhase {
		t.Fatalf("requesting execution: ok=%v code=%s", r.OK, r.Code)
	}
	if r := s.CommitWeeklyPlan(); !r.OK {
		t.Fatalf("commit refused: %s %s", r.Code, r.Err)
	}
	if m.Phase != PhaseExecution {
		t.Fatalf("phase after commit = %s, want execution", m.Phase)
	}
	if r := s.CommitWeeklyPlan(); r.OK || r.Code != protocol.ErrPhase {
		t.Fatalf("re-commit during execution: ok=%v code=%s", r.OK, r.Code)
	}
}

func TestPlanEnvelopeRejectsOverspend(t *testing.T) {
	s := newTestSim(5)
	s.state.Gold = 50
	if r := s.UpdateWeeklyPlanDraft("reserveGold", "40"); !r.OK {
		t.Fatalf("draft edit refused: %s %s", r.Code, r.Err)
	}
	if r := s.UpdateWeeklyPlanDraft("supplyBudget", "30"); !r.OK {
		t.Fatalf("draft edit refused: %s %s", r.Code, r.Err)
	}
	r := s.CommitWeeklyPlan()
	if r.OK {
		t.Fatal("overspending plan committed")
	}
	if r.Code != protocol.ErrPlanEnvelope {
		t.Fatalf("code = %s, want %s", r.Code, protocol.ErrPlanEnvelope)
	}
}

func TestPlanEnvelopeRequiresComplianceForHighRisk(t *testing.T) {
	s := newTestSim(5)
	s.state.World.Crown.Compliance = 40
	if r := s.UpdateWeeklyPlanDraft("riskTolerance", "high"); !r.OK {
		t.Fatalf("draft edit refused: %s %s", r.Code, r.Err)
	}
	if r := s.CommitWeeklyPlan(); r.OK || r.Code != protocol.ErrPlanEnvelope {
		t.Fatalf("high risk at low compliance: ok=%v code=%s", r.OK, r.Code)
	}
}

func TestExecutionEditsQueueForTheirBoundary(t *testing.T) {
	s := newTestSim(5)
	if r := s.CommitWeeklyPlan(); !r.OK {
		t.Fatalf("commit refused: %s %s", r.Code, r.Err)
	}

	// A note applies instantly even mid-week.
	if r := s.UpdateWeeklyPlanDraft("note", "watch the cask count"); !r.OK {
		t.Fatalf("note edit refused: %s %s", r.Code, r.Err)
	}
	if s.state.Manager.CommittedPlan.Note != "watch the cask count" {
		t.Fatal("note did not apply instantly")
	}

	// Everything else queues.
	if r := s.UpdateWeeklyPlanDraft("menuFocus", "ale"); !r.OK {
		t.Fatalf("menuFocus edit refused: %s %s", r.Code, r.Err)
	}
	if s.state.Manager.CommittedPlan.MenuFocus == "ale" {
		t.Fatal("menuFocus applied before its boundary")
	}
	if len(s.state.Timeflow.IntentQueue) != 1 {
		t.Fatalf("intent queue length = %d, want 1", len(s.state.Timeflow.IntentQueue))
	}

	if r := s.AdvanceDay(AdvanceOptions{}); !r.OK {
		t.Fatalf("advance failed: %s %s", r.Code, r.Err)
	}
	if s.state.Manager.CommittedPlan.MenuFocus != "ale" {
		t.Fatal("menuFocus intent did not apply at day start")
	}
	if len(s.state.Timeflow.IntentQueue) != 0 {
		t.Fatalf("intent queue length = %d after flush, want 0", len(s.state.Timeflow.IntentQueue))
	}
}

func TestIntentFlushOrdersByPriorityThenArrival(t *testing.T) {
	s := newTestSim(5)
	s.queueIntent("menuFocus", "ale", IntentBoundaryDayStart, 1)
	s.queueIntent("pricingStance", "premium", IntentBoundaryDayStart, 2)
	s.queueIntent("trainingFocus", "cook", IntentBoundaryDayStart, 1)

	applied := s.flushIntents(IntentBoundaryDayStart)
	if len(applied) != 3 {
		t.Fatalf("applied %d intents, want 3", len(applied))
	}
	if applied[0].Field != "pricingStance" {
		t.Fatalf("first applied = %s, want pricingStance", applied[0].Field)
	}
	if applied[1].Field != "menuFocus" || applied[2].Field != "trainingFocus" {
		t.Fatalf("ties broke out of arrival order: %s then %s", applied[1].Field, applied[2].Field)
	}
}

func TestQueueIntentDedupesPerFieldAndBoundary(t *testing.T) {
	s := newTestSim(5)
	s.queueIntent("menuFocus", "ale", IntentBoundaryDayStart, 1)
	s.queueIntent("menuFocus", "stew", IntentBoundaryDayStart, 1)
	if n := len(s.state.Timeflow.IntentQueue); n != 1 {
		t.Fatalf("queue length = %d, want 1", n)
	}
	if v := s.state.Timeflow.IntentQueue[0].Value; v != "stew" {
		t.Fatalf("queued value = %q, want the latest edit", v)
	}
}

func TestWeekBoundaryIntentsWaitForWeekClose(t *testing.T) {
	s := newTestSim(5)
	if r := s.CommitWeeklyPlan(); !r.OK {
		t.Fatalf("commit refused: %s %s", r.Code, r.Err)
	}
	if r := s.UpdateWeeklyPlanDraft("marketing", "local"); !r.OK {
		t.Fatalf("marketing edit refused: %s %s", r.Code, r.Err)
	}
	// Day boundaries leave week-start intents queued.
	if r := s.AdvanceDay(AdvanceOptions{}); !r.OK {
		t.Fatalf("advance failed: %s %s", r.Code, r.Err)
	}
	if len(s.state.Timeflow.IntentQueue) != 1 {
		t.Fatalf("week intent flushed early; queue = %d", len(s.state.Timeflow.IntentQueue))
	}
	// Run out the week.
	for s.state.Manager.WeekIndex == 1 {
		if r := s.AdvanceDay(AdvanceOptions{}); !r.OK {
			t.Fatalf("advance failed: %s %s", r.Code, r.Err)
		}
	}
	if len(s.state.Timeflow.IntentQueue) != 0 {
		t.Fatalf("intent queue = %d after week close, want 0", len(s.state.Timeflow.IntentQueue))
	}
	if s.state.Manager.PlanDraft.Marketing != "local" {
		t.Fatalf("marketing = %q after week flush, want local", s.state.Manager.PlanDraft.Marketing)
	}
}

func TestNewSeedsObjectiveBoardFromWorldState(t *testing.T) {
	// The fresh-game objective roll reads crown compliance, so construction
	// must already have the world in place when the board seeds.
	foundCompliance := false
	for seed := uint32(1); seed <= 12; seed++ {
		s := newTestSim(seed)
		st := s.state
		if n := len(st.Manager.Objectives.Active); n != 2 {
			t.Fatalf("seed %d: fresh board has %d objectives, want 2", seed, n)
		}
		for _, o := range st.Manager.Objectives.Active {
			if o.Status != "active" || o.WeekIndex != 1 {
				t.Fatalf("seed %d: objective %s status=%q week=%d", seed, o.ID, o.Status, o.WeekIndex)
			}
			if o.Kind == "compliance" {
				foundCompliance = true
				want := clamp(st.World.Crown.Compliance+4, 40, 92)
				if o.Target != want {
					t.Fatalf("seed %d: compliance target %.1f, want %.1f", seed, o.Target, want)
				}
			}
		}
	}
	if !foundCompliance {
		t.Fatal("no seed in range drew the compliance objective")
	}
}

func TestObjectivesRollAtWeekStart(t *testing.T) {
	s := newTestSim(5)
	if n := len(s.state.Manager.Objectives.Active); n != 2 {
		t.Fatalf("fresh game objectives = %d, want 2", n)
	}
	for s.state.Manager.WeekIndex == 1 {
		if r := s.AdvanceDay(AdvanceOptions{}); !r.OK {
			t.Fatalf("advance failed: %s %s", r.Code, r.Err)
		}
	}
	if n := len(s.state.Manager.Objectives.Active); n != 2 {
		t.Fatalf("week 2 objectives = %d, want 2", n)
	}
	obj := s.state.Manager.Objectives
	if len(obj.Completed)+len(obj.Failed) == 0 {
		t.Fatal("settled objectives missing from the ledgers")
	}
}

func TestClaimObjectivePaysEarly(t *testing.T) {
	s := newTestSim(11)
	obj := &s.state.Manager.Objectives
	obj.Active[0].Progress = obj.Active[0].Target + 1
	id := obj.Active[0].ID
	reward := obj.Active[0].RewardGold
	goldBefore := s.state.Gold

	r := s.ClaimObjective(id)
	if !r.OK {
		t.Fatalf("claim failed: %s %s", r.Code, r.Err)
	}
	if got := s.state.Gold - goldBefore; got != reward {
		t.Fatalf("claim paid %.1f, want %.1f", got, reward)
	}
	if len(obj.Active) != 1 {
		t.Fatalf("active objectives = %d after claim, want 1", len(obj.Active))
	}
	if len(obj.Completed) != 1 || obj.Completed[0].ID != id {
		t.Fatalf("claimed objective missing from completed ledger")
	}
	if r := s.ClaimObjective(id); r.OK || r.Code != protocol.ErrInvalidTarget {
		t.Fatalf("re-claim = %+v, want invalid target", r)
	}
}

func TestClaimObjectiveRequiresCompletion(t *testing.T) {
	s := newTestSim(11)
	obj := &s.state.Manager.Objectives
	obj.Active[0].Progress = 0
	if r := s.ClaimObjective(obj.Active[0].ID); r.OK || r.Code != protocol.ErrInvalidTarget {
		t.Fatalf("claim of incomplete objective = %+v, want invalid target", r)
	}
}

func TestFollowRumorResolvesImmediately(t *testing.T) {
	s := newTestSim(13)
	sc := &s.state.Manager.Scouting
	sc.Rumors = append(sc.Rumors, Rumor{
		ID:         "rumor_test",
		Day:        s.state.Day,
		Text:       "the Gilded Boar is said to be planning a price war",
		Truth:      "unknown",
		ResolveDay: s.state.Day + 3,
	})
	goldBefore := s.state.Gold

	r := s.FollowRumor("rumor_test")
	if !r.OK {
		t.Fatalf("follow failed: %s %s", r.Code, r.Err)
	}
	truth, _ := r.Data["truth"].(string)
	if truth != "true" && truth != "false" {
		t.Fatalf("truth = %q, want settled", truth)
	}
	if got := goldBefore - s.state.Gold; got != 3 {
		t.Fatalf("follow cost %.1f, want 3", got)
	}
	if r := s.FollowRumor("rumor_test"); r.OK {
		t.Fatal("settled rumor should refuse a second follow")
	}
	if r := s.FollowRumor("rumor_none"); r.OK || r.Code != protocol.ErrInvalidTarget {
		t.Fatalf("unknown rumor = %+v, want invalid target", r)
	}
}
