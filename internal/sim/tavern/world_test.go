package tavern

import "testing"

func TestCrownCollectsOnCadence(t *testing.T) {
	s := newTestSim(17)
	cadence := s.Tuning().CrownCadenceDays
	var collected bool
	for day := 0; day < cadence+1; day++ {
		if r := s.AdvanceDay(AdvanceOptions{}); !r.OK {
			t.Fatalf("day %d failed: %s %s", day, r.Code, r.Err)
		}
		rep := s.State().LastReport
		if rep.CrownCollected {
			collected = true
		}
	}
	if !collected {
		t.Fatalf("no collection within %d days", cadence+1)
	}
	crown := s.State().World.Crown
	if crown.NextCollectionDay <= s.State().Day-cadence {
		t.Fatalf("next collection day %d not rescheduled", crown.NextCollectionDay)
	}
	if crown.Compliance < 0 || crown.Compliance > 100 {
		t.Fatalf("compliance = %.2f", crown.Compliance)
	}
}

func TestCrownShortfallGrowsArrears(t *testing.T) {
	s := newTestSim(17)
	st := s.state
	st.World.Crown.PendingTax = 500
	st.World.Crown.NextCollectionDay = st.Day
	st.Gold = 0
	// An empty purse would trip the plan envelope before the collection
	// runs; shrink the draft so the auto-commit goes through.
	st.Manager.PlanDraft.ReserveGold = 0
	st.Manager.PlanDraft.SupplyBudget = 0
	// Empty shelves so the day produces no revenue worth speaking of.
	for item := range st.Inventory {
		st.Inventory[item] = 0
	}
	if r := s.AdvanceDay(AdvanceOptions{}); !r.OK {
		t.Fatalf("advance failed: %s %s", r.Code, r.Err)
	}
	crown := st.World.Crown
	if crown.Arrears <= 0 {
		t.Fatal("shortfall left no arrears")
	}
	rep := st.LastReport
	if rep.CrownShortfall <= 0 {
		t.Fatal("report does not carry the shortfall")
	}
}

func TestWorldModifiersStayInBounds(t *testing.T) {
	s := newTestSim(23)
	for day := 0; day < 15; day++ {
		if r := s.AdvanceDay(AdvanceOptions{}); !r.OK {
			t.Fatalf("day %d failed: %s %s", day, r.Code, r.Err)
		}
		mods := s.getWorldRuntimeModifiers()
		if mods.DemandMult < 0.5 || mods.DemandMult > 2 {
			t.Fatalf("day %d: demand mult %.3f", day, mods.DemandMult)
		}
		if mods.RivalPressure < 0 || mods.RivalPressure > 1 {
			t.Fatalf("day %d: rival pressure %.3f", day, mods.RivalPressure)
		}
		for _, a := range s.state.World.Actors {
			if a.Standing < 0 || a.Standing > 100 {
				t.Fatalf("day %d: actor %s standing %.2f", day, a.ID, a.Standing)
			}
		}
	}
}

func TestLoyaltyMultiplierStaysClamped(t *testing.T) {
	s := newTestSim(23)
	for i := range s.state.Patrons {
		s.state.Patrons[i].Loyalty = 100
	}
	if m := s.loyaltyDemandMultiplier(); m != 1.16 {
		t.Fatalf("devoted crowd multiplier = %.4f, want the 1.16 cap", m)
	}
	for i := range s.state.Patrons {
		s.state.Patrons[i].Loyalty = 0
	}
	if m := s.loyaltyDemandMultiplier(); m != 0.88 {
		t.Fatalf("hostile crowd multiplier = %.4f, want the 0.88 floor", m)
	}
}

func TestWorldEffectsDecayDaily(t *testing.T) {
	s := newTestSim(23)
	s.SetWorldEffect(WorldEffect{ID: "test_boost", Label: "Test boost", DaysLeft: 2, DemandMult: 1.5})
	if r := s.AdvanceDay(AdvanceOptions{}); !r.OK {
		t.Fatalf("advance failed: %s %s", r.Code, r.Err)
	}
	alive := false
	for _, e := range s.state.World.Effects {
		if e.ID == "test_boost" {
			alive = true
			if e.DaysLeft != 1 {
				t.Fatalf("daysLeft = %d after one day, want 1", e.DaysLeft)
			}
		}
	}
	if !alive {
		t.Fatal("effect expired a day early")
	}
	if r := s.AdvanceDay(AdvanceOptions{}); !r.OK {
		t.Fatalf("advance failed: %s %s", r.Code, r.Err)
	}
	for _, e := range s.state.World.Effects {
		if e.ID == "test_boost" {
			t.Fatal("effect survived past its duration")
		}
	}
}

func TestSetWorldEffectReplacesById(t *testing.T) {
	s := newTestSim(23)
	s.SetWorldEffect(WorldEffect{ID: "boost", DaysLeft: 2, DemandMult: 1.1})
	s.SetWorldEffect(WorldEffect{ID: "boost", DaysLeft: 5, DemandMult: 1.2})
	count := 0
	for _, e := range s.state.World.Effects {
		if e.ID == "boost" {
			count++
			if e.DaysLeft != 5 {
				t.Fatalf("daysLeft = %d, want the replacement's 5", e.DaysLeft)
			}
		}
	}
	if count != 1 {
		t.Fatalf("effect id appears %d times, want 1", count)
	}
}

func TestRivalPressureReflectsDistrict(t *testing.T) {
	s := newTestSim(23)
	for i := range s.state.World.Rivals {
		r := &s.state.World.Rivals[i]
		r.Pressure = 80
		r.District = s.state.World.Travel.HomeDistrict
	}
	samePressure := s.rivalPressure()
	for i := range s.state.World.Rivals {
		s.state.World.Rivals[i].District = DistrictCastleRise
	}
	farPressure := s.rivalPressure()
	if samePressure <= farPressure {
		t.Fatalf("same-district pressure %.3f should exceed cross-town %.3f", samePressure, farPressure)
	}
}
