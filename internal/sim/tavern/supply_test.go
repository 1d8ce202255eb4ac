package tavern

import "testing"

func TestSpoilageDiscardsStaleStock(t *testing.T) {
	s := newTestSim(7)
	st := s.state
	st.Cleanliness = 30
	st.Inventory[ItemMeat] = 40
	st.SupplyStats[ItemMeat] = SupplyStat{Quality: 55, Freshness: 20}

	losses := s.applySupplySpoilage()
	found := false
	for _, l := range losses {
		if l.Item == ItemMeat {
			found = true
			if l.Units < 1 {
				t.Fatalf("meat loss = %d, want at least 1", l.Units)
			}
		}
	}
	if !found {
		t.Fatal("stale meat did not spoil")
	}
	if st.Inventory[ItemMeat] >= 40 {
		t.Fatal("inventory did not shrink")
	}
}

func TestWoodNeverSpoils(t *testing.T) {
	s := newTestSim(7)
	st := s.state
	st.Inventory[ItemWood] = 50
	st.SupplyStats[ItemWood] = SupplyStat{Quality: 50, Freshness: 0}

	for i := 0; i < 10; i++ {
		for _, l := range s.applySupplySpoilage() {
			if l.Item == ItemWood {
				t.Fatal("wood spoiled")
			}
		}
	}
	if st.Inventory[ItemWood] != 50 {
		t.Fatalf("wood inventory = %d, want 50", st.Inventory[ItemWood])
	}
}

func TestDirtyHouseSpeedsDecay(t *testing.T) {
	clean := newTestSim(7)
	dirty := newTestSim(7)
	clean.state.Cleanliness = 90
	dirty.state.Cleanliness = 20
	clean.state.SupplyStats[ItemVeg] = SupplyStat{Quality: 60, Freshness: 80}
	dirty.state.SupplyStats[ItemVeg] = SupplyStat{Quality: 60, Freshness: 80}

	clean.applySupplySpoilage()
	dirty.applySupplySpoilage()
	if dirty.state.SupplyStats[ItemVeg].Freshness >= clean.state.SupplyStats[ItemVeg].Freshness {
		t.Fatalf("freshness clean=%.2f dirty=%.2f; hygiene penalty missing",
			clean.state.SupplyStats[ItemVeg].Freshness, dirty.state.SupplyStats[ItemVeg].Freshness)
	}
}

func TestBlendMultiplierStaysClamped(t *testing.T) {
	s := newTestSim(7)
	st := s.state
	consumes := recipes[ItemAle].Consumes

	st.SupplyStats[ItemGrain] = SupplyStat{Quality: 100, Freshness: 100}
	st.SupplyStats[ItemHops] = SupplyStat{Quality: 100, Freshness: 100}
	st.SupplyStats[ItemWood] = SupplyStat{Quality: 100, Freshness: 100}
	if _, mult := s.evaluateIngredientBlend(consumes); mult != 1.12 {
		t.Fatalf("perfect blend multiplier = %.4f, want the 1.12 cap", mult)
	}

	st.SupplyStats[ItemGrain] = SupplyStat{}
	st.SupplyStats[ItemHops] = SupplyStat{}
	st.SupplyStats[ItemWood] = SupplyStat{}
	if _, mult := s.evaluateIngredientBlend(consumes); mult != 0.82 {
		t.Fatalf("rotten blend multiplier = %.4f, want the 0.82 floor", mult)
	}
}

func TestBlendSupplyStatWeightsByStock(t *testing.T) {
	s := newTestSim(7)
	st := s.state
	st.Inventory[ItemGrain] = 10
	st.SupplyStats[ItemGrain] = SupplyStat{Quality: 40, Freshness: 40}

	// An equal-size lot of much better grain pulls the stats halfway up.
	s.blendSupplyStat(ItemGrain, 10, 80, 80)
	got := st.SupplyStats[ItemGrain]
	if got.Quality < 55 || got.Quality > 65 {
		t.Fatalf("blended quality = %.2f, want near 60", got.Quality)
	}
	if got.Freshness < 55 || got.Freshness > 65 {
		t.Fatalf("blended freshness = %.2f, want near 60", got.Freshness)
	}
}
