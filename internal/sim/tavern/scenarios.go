package tavern

import (
	"fmt"
	"sort"

	"emberhall/internal/sim/rng"
	"emberhall/internal/sim/tuning"
)

// Scenarios are named starting positions for regression runs and manual
// testing. Each applies a deterministic setup on top of a fresh game, so a
// scenario plus a seed fully determines the run.

type Scenario struct {
	ID              string
	Label           string
	Summary         string
	RecommendedSeed uint32
	RegressionDays  int
	Setup           func(s *Sim)
}

var scenarioTable = map[string]Scenario{
	"baseline": {
		ID:              "baseline",
		Label:           "Baseline",
		Summary:         "A fresh house with default stock and roster.",
		RecommendedSeed: 101,
		RegressionDays:  30,
		Setup:           func(s *Sim) {},
	},
	"cash_crunch": {
		ID:              "cash_crunch",
		Label:           "Cash crunch",
		Summary:         "Nearly broke, tax arrears mounting, upkeep still due.",
		RecommendedSeed: 211,
		RegressionDays:  21,
		Setup: func(s *Sim) {
			st := s.state
			st.Gold = 18
			st.World.Crown.Arrears = 26
			st.World.Crown.Compliance = clampStat(st.World.Crown.Compliance - 18)
			st.Condition = clampStat(st.Condition - 20)
			// The draft has to fit the thin treasury or week one never starts.
			st.Manager.PlanDraft.ReserveGold = 4
			st.Manager.PlanDraft.SupplyBudget = 10
		},
	},
	"festival_surge": {
		ID:              "festival_surge",
		Label:           "Festival surge",
		Summary:         "A city festival floods the ward with thirsty guests.",
		RecommendedSeed: 307,
		RegressionDays:  14,
		Setup: func(s *Sim) {
			s.SetWorldEffect(WorldEffect{ID: "city_festival", Label: "City festival", DaysLeft: 4, DemandMult: 1.3})
			st := s.state
			st.Inventory[ItemAle] += 30
			st.Inventory[ItemStew] += 12
		},
	},
	"burnout_edge": {
		ID:              "burnout_edge",
		Label:           "Burnout edge",
		Summary:         "The whole roster is running on fumes.",
		RecommendedSeed: 419,
		RegressionDays:  21,
		Setup: func(s *Sim) {
			for i := range s.state.Staff {
				m := &s.state.Staff[i]
				m.Fatigue = clampStat(78 + float64(i)*3)
				m.Morale = clampStat(m.Morale - 22)
			}
		},
	},
	"spoilage_alert": {
		ID:              "spoilage_alert",
		Label:           "Spoilage alert",
		Summary:         "A grimy larder stuffed with perishables.",
		RecommendedSeed: 523,
		RegressionDays:  14,
		Setup: func(s *Sim) {
			st := s.state
			st.Cleanliness = 34
			st.Inventory[ItemMeat] += 40
			st.Inventory[ItemVeg] += 36
			st.Inventory[ItemBread] += 24
			for _, item := range []string{ItemMeat, ItemVeg, ItemBread} {
				stat := st.SupplyStats[item]
				stat.Freshness = clampStat(stat.Freshness - 30)
				st.SupplyStats[item] = stat
			}
		},
	},
}

// ScenarioIDs lists the known scenarios in a stable order.
func ScenarioIDs() []string {
	ids := make([]string, 0, len(scenarioTable))
	for id := range scenarioTable {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LookupScenario returns a scenario definition by id.
func LookupScenario(id string) (Scenario, bool) {
	sc, known := scenarioTable[id]
	return sc, known
}

// NewScenario builds a seeded sim with the scenario's setup applied. The seed
// overrides the scenario's recommendation when nonzero.
func NewScenario(id string, seed uint32, tun tuning.Tuning) (*Sim, error) {
	sc, known := scenarioTable[id]
	if !known {
		return nil, fmt.Errorf("unknown scenario %q", id)
	}
	if seed == 0 {
		seed = sc.RecommendedSeed
	}
	s := New(tun, rng.NewSeeded(seed))
	sc.Setup(s)
	s.appendLog(fmt.Sprintf("Scenario: %s", sc.Label), ToneNeutral)
	return s, nil
}
