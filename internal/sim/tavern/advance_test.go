package tavern

import (
	"strings"
	"testing"

	"emberhall/internal/sim/rng"
	"emberhall/internal/sim/tuning"
)

func newTestSim(seed uint32) *Sim {
	return New(tuning.Defaults(), rng.NewSeeded(seed))
}

func TestAdvanceDayClosesTheDay(t *testing.T) {
	s := newTestSim(101)
	r := s.AdvanceDay(AdvanceOptions{})
	if !r.OK {
		t.Fatalf("advance failed: %s %s", r.Code, r.Err)
	}
	st := s.State()
	if st.Day != 2 {
		t.Fatalf("day = %d, want 2", st.Day)
	}
	if st.LastGuests < 0 {
		t.Fatalf("lastGuests = %d, want >= 0", st.LastGuests)
	}
	if len(st.Log) == 0 {
		t.Fatal("no log entries after the first day")
	}
	if !strings.Contains(st.Log[0].Message, "Day 2 closed") {
		t.Fatalf("newest log entry = %q, want a Day 2 closed summary", st.Log[0].Message)
	}
	rep := st.LastReport
	if rep == nil {
		t.Fatal("no day report after advancing")
	}
	if rep.Day != 2 {
		t.Fatalf("report day = %d, want 2", rep.Day)
	}
	if rep.GoldAfter != st.Gold {
		t.Fatalf("report goldAfter = %.2f, state gold = %.2f", rep.GoldAfter, st.Gold)
	}
}

func TestAdvanceDayDeterministicAcrossRuns(t *testing.T) {
	a := newTestSim(2024)
	b := newTestSim(2024)
	for day := 0; day < 10; day++ {
		ra := a.AdvanceDay(AdvanceOptions{})
		rb := b.AdvanceDay(AdvanceOptions{})
		if ra.OK != rb.OK {
			t.Fatalf("runs diverged on day %d: %v vs %v", day, ra.OK, rb.OK)
		}
	}
	sa, err := a.StateSignature()
	if err != nil {
		t.Fatalf("signature: %v", err)
	}
	sb, err := b.StateSignature()
	if err != nil {
		t.Fatalf("signature: %v", err)
	}
	if sa != sb {
		t.Fatalf("same seed, different signatures after 10 days:\n%s\n%s", sa, sb)
	}
}

func TestLongRunKeepsStateBounded(t *testing.T) {
	s := newTestSim(77)
	tun := s.Tuning()
	for day := 0; day < 30; day++ {
		if r := s.AdvanceDay(AdvanceOptions{}); !r.OK {
			t.Fatalf("day %d failed: %s %s", day, r.Code, r.Err)
		}
		st := s.State()
		for _, stat := range []float64{st.Reputation, st.Condition, st.Cleanliness} {
			if stat < 0 || stat > 100 {
				t.Fatalf("day %d: stat %.2f out of [0,100]", day, stat)
			}
		}
		for item, n := range st.Inventory {
			if n < 0 {
				t.Fatalf("day %d: inventory %s = %d", day, item, n)
			}
		}
		if len(st.Log) > tun.EventLogCap {
			t.Fatalf("day %d: log grew to %d, cap %d", day, len(st.Log), tun.EventLogCap)
		}
		for _, p := range st.Patrons {
			if p.Loyalty < 0 || p.Loyalty > 100 {
				t.Fatalf("day %d: patron %s loyalty %.2f", day, p.Name, p.Loyalty)
			}
		}
		for _, m := range st.Staff {
			if m.Morale < 0 || m.Morale > 100 || m.Fatigue < 0 || m.Fatigue > 100 {
				t.Fatalf("day %d: staff %s gauges out of range", day, m.Name)
			}
		}
		if st.LastReport == nil {
			t.Fatalf("day %d: missing report", day)
		}
	}
	if s.State().Day != 31 {
		t.Fatalf("day = %d after 30 advances, want 31", s.State().Day)
	}
}

func TestWeekClosesEverySeventhDay(t *testing.T) {
	s := newTestSim(55)
	// The sixth advance lands on weekday 7.
	for day := 0; day < 6; day++ {
		if r := s.AdvanceDay(AdvanceOptions{}); !r.OK {
			t.Fatalf("day %d failed: %s %s", day, r.Code, r.Err)
		}
	}
	st := s.State()
	if st.LastReport == nil || !st.LastReport.WeekClosed {
		t.Fatal("seventh day should close the week")
	}
	m := st.Manager
	if m.Phase != PhasePlanning {
		t.Fatalf("phase after week close = %s, want planning", m.Phase)
	}
	if m.WeekIndex != 2 {
		t.Fatalf("weekIndex = %d, want 2", m.WeekIndex)
	}
	if m.CommittedPlan != nil {
		t.Fatal("committed plan should clear at week close")
	}
	if st.Clock.Speed != 0 {
		t.Fatalf("speed = %d after week close, want 0", st.Clock.Speed)
	}
	order := st.Timeflow.LastBoundaryOrder
	want := []string{BoundaryMinuteTick, BoundaryDayClose, BoundaryWeekClose, BoundaryReportingPublish}
	if len(order) != len(want) {
		t.Fatalf("boundary order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("boundary order = %v, want %v", order, want)
		}
	}
}

func TestEffectivePriceClamps(t *testing.T) {
	if got := effectivePrice(4, 0); got != 4 {
		t.Fatalf("effectivePrice(4, 0) = %.2f", got)
	}
	if got := effectivePrice(1, -0.9); got < 1 {
		t.Fatalf("price floor broken: %.2f", got)
	}
	if got := effectivePrice(40, 0.5); got > 40 {
		t.Fatalf("price ceiling broken: %.2f", got)
	}
}
