package tavern

import "fmt"

// Faction standing simulation. Four actors hold standings that drift with
// daily events and policy actions; the spread between support and tension is
// what the rest of the economy feels.

type WorldActor struct {
	ID        ActorID `json:"id"`
	Name      string  `json:"name"`
	Standing  float64 `json:"standing"`  // 0..100
	Influence float64 `json:"influence"` // 5..100
	LastShift float64 `json:"lastShift"` // -20..20
}

// WorldEffect is a timed modifier set by events or policy, decaying daily.
type WorldEffect struct {
	ID              string  `json:"id"`
	Label           string  `json:"label"`
	DaysLeft        int     `json:"daysLeft"`
	DemandMult      float64 `json:"demandMult,omitempty"`
	SupplyCostMult  float64 `json:"supplyCostMult,omitempty"`
	EventChanceMult float64 `json:"eventChanceMult,omitempty"`
	ReputationDrift float64 `json:"reputationDrift,omitempty"`
	TaxRateBonus    float64 `json:"taxRateBonus,omitempty"`
}

// WorldState is the faction/district/crown/supplier/rival sub-state.
type WorldState struct {
	Actors   []WorldActor    `json:"actors"`
	Crown    CrownAuthority  `json:"crown"`
	Supplier SupplierNetwork `json:"supplier"`
	Rivals   []Rival         `json:"rivals"`
	Effects  []WorldEffect   `json:"effects,omitempty"`
	RepModel ReputationModel `json:"repModel"`
	Travel   TravelState     `json:"travel"`

	// Weekly rollup published at week close.
	WeekRevenue float64 `json:"weekRevenue"`
	WeekGuests  int     `json:"weekGuests"`
	WeekNet     float64 `json:"weekNet"`
}

var actorOrder = []ActorID{ActorCrownOffice, ActorCivicCouncil, ActorMerchantHouses, ActorUnderworldNetwork}

// districtActorInfluence weights actor influence by where the house stands.
var districtActorInfluence = map[string]map[ActorID]float64{
	DistrictLowmarket:  {ActorCrownOffice: 42, ActorCivicCouncil: 55, ActorMerchantHouses: 60, ActorUnderworldNetwork: 38},
	DistrictDockside:   {ActorCrownOffice: 30, ActorCivicCouncil: 40, ActorMerchantHouses: 52, ActorUnderworldNetwork: 66},
	DistrictGuildrow:   {ActorCrownOffice: 55, ActorCivicCouncil: 62, ActorMerchantHouses: 70, ActorUnderworldNetwork: 22},
	DistrictCastleRise: {ActorCrownOffice: 78, ActorCivicCouncil: 58, ActorMerchantHouses: 48, ActorUnderworldNetwork: 12},
}

func (s *Sim) initialWorldState() WorldState {
	home := DistrictLowmarket
	ws := WorldState{Travel: TravelState{HomeDistrict: home}}
	influences := districtActorInfluence[home]
	names := map[ActorID]string{
		ActorCrownOffice:       "Crown Office",
		ActorCivicCouncil:      "Civic Council",
		ActorMerchantHouses:    "Merchant Houses",
		ActorUnderworldNetwork: "Underworld Network",
	}
	for _, id := range actorOrder {
		ws.Actors = append(ws.Actors, WorldActor{
			ID:        id,
			Name:      names[id],
			Standing:  clamp(50+s.rng.Range(-6, 6), 0, 100),
			Influence: clamp(influences[id], 5, 100),
		})
	}
	ws.Crown = s.initialCrown()
	ws.Supplier = s.initialSupplierNetwork()
	ws.Rivals = s.initialRivals()
	ws.RepModel = newReputationModel()
	return ws
}

func (s *Sim) findActor(id ActorID) *WorldActor {
	for i := range s.state.World.Actors {
		if s.state.World.Actors[i].ID == id {
			return &s.state.World.Actors[i]
		}
	}
	return nil
}

// actorSupportTension splits the roster into a positive and a negative
// influence-weighted pressure around the neutral standing of 50.
func (s *Sim) actorSupportTension() (support, tension float64) {
	for i := range s.state.World.Actors {
		a := &s.state.World.Actors[i]
		w := a.Influence / 100
		if a.Standing >= 50 {
			support += (a.Standing - 50) / 50 * w
		} else {
			tension += (50 - a.Standing) / 50 * w
		}
	}
	return support, tension
}

// WorldRuntimeModifiers is the derived modifier bundle every subsystem reads
// instead of reaching into actor state directly.
type WorldRuntimeModifiers struct {
	DemandMult            float64
	SupplyCostMult        float64
	SupplyReliabilityMult float64
	EventChanceMult       float64
	TaxRateBonus          float64
	TaxFlatBonus          float64
	ReputationDrift       float64
	RivalPressure         float64
}

func (s *Sim) getWorldRuntimeModifiers() WorldRuntimeModifiers {
	support, tension := s.actorSupportTension()
	rival := s.rivalPressure()
	home := districtTable[s.state.World.Travel.HomeDistrict]

	mods := WorldRuntimeModifiers{
		DemandMult:            clamp(1+support*0.05-tension*0.07-rival*0.05, 0.78, 1.2),
		SupplyCostMult:        clamp(1+tension*0.06-support*0.04, 0.85, 1.25),
		SupplyReliabilityMult: clamp(1+support*0.05-tension*0.09, 0.7, 1.15),
		EventChanceMult:       clamp(home.EventChanceMult*(1+tension*0.1), 0.5, 1.8),
		TaxRateBonus:          clamp(tension*0.012-support*0.008, -0.02, 0.04),
		RivalPressure:         rival,
	}
	for _, eff := range s.state.World.Effects {
		if eff.DemandMult != 0 {
			mods.DemandMult *= eff.DemandMult
		}
		if eff.SupplyCostMult != 0 {
			mods.SupplyCostMult *= eff.SupplyCostMult
		}
		if eff.EventChanceMult != 0 {
			mods.EventChanceMult *= eff.EventChanceMult
		}
		mods.ReputationDrift += eff.ReputationDrift
		mods.TaxRateBonus += eff.TaxRateBonus
	}
	mods.DemandMult = clamp(mods.DemandMult, 0.6, 1.5)
	mods.EventChanceMult = clamp(mods.EventChanceMult, 0.4, 2.2)
	return mods
}

// SetWorldEffect installs (or refreshes) a timed world effect.
func (s *Sim) SetWorldEffect(eff WorldEffect) {
	for i := range s.state.World.Effects {
		if s.state.World.Effects[i].ID == eff.ID {
			s.state.World.Effects[i] = eff
			return
		}
	}
	s.state.World.Effects = append(s.state.World.Effects, eff)
}

// decayWorldEffects ticks effect timers at day close.
func (s *Sim) decayWorldEffects() {
	var kept []WorldEffect
	for _, eff := range s.state.World.Effects {
		eff.DaysLeft--
		if eff.DaysLeft > 0 {
			kept = append(kept, eff)
		} else {
			s.appendLog(fmt.Sprintf("%s has run its course", eff.Label), ToneNeutral)
		}
	}
	s.state.World.Effects = kept
}

type actorEventOutcome struct {
	ActorID  ActorID
	EventID  string
	Success  bool
	Headline string
}

// actorEventDef is one faction development; success/failure branches key off
// the actor's own standing.
type actorEventDef struct {
	ID          string
	SuccessHead string
	FailHead    string
	apply       func(s *Sim, a *WorldActor, success bool)
}

var actorEvents = map[ActorID]actorEventDef{
	ActorCrownOffice: {
		ID:          "crown_decree",
		SuccessHead: "The Crown Office praises orderly trade in the ward",
		FailHead:    "The Crown Office posts new levies at the gates",
		apply: func(s *Sim, a *WorldActor, success bool) {
			if success {
				s.shiftActorStanding(a, s.rng.Range(1, 3))
				s.state.World.Crown.Compliance = clampStat(s.state.World.Crown.Compliance + 1.5)
			} else {
				s.shiftActorStanding(a, -s.rng.Range(1, 3))
				s.SetWorldEffect(WorldEffect{ID: "crown_levy", Label: "Crown levy", DaysLeft: 3, TaxRateBonus: 0.015})
			}
		},
	},
	ActorCivicCouncil: {
		ID:          "council_session",
		SuccessHead: "The Civic Council funds lantern repairs on the square",
		FailHead:    "The Civic Council debates curfews late into the night",
		apply: func(s *Sim, a *WorldActor, success bool) {
			if success {
				s.shiftActorStanding(a, s.rng.Range(1, 2.5))
				s.SetWorldEffect(WorldEffect{ID: "council_works", Label: "Council public works", DaysLeft: 2, DemandMult: 1.05})
			} else {
				s.shiftActorStanding(a, -s.rng.Range(1, 2.5))
				s.SetWorldEffect(WorldEffect{ID: "council_curfew", Label: "Curfew talk", DaysLeft: 2, DemandMult: 0.95})
			}
		},
	},
	ActorMerchantHouses: {
		ID:          "houses_convoy",
		SuccessHead: "The Merchant Houses route a convoy through the district",
		FailHead:    "The Merchant Houses squeeze wholesale margins",
		apply: func(s *Sim, a *WorldActor, success bool) {
			if success {
				s.shiftActorStanding(a, s.rng.Range(1, 3))
				s.SetWorldEffect(WorldEffect{ID: "houses_convoy", Label: "Merchant convoy", DaysLeft: 2, SupplyCostMult: 0.92})
			} else {
				s.shiftActorStanding(a, -s.rng.Range(0.5, 2))
				s.SetWorldEffect(WorldEffect{ID: "houses_squeeze", Label: "Wholesale squeeze", DaysLeft: 3, SupplyCostMult: 1.08})
			}
		},
	},
	ActorUnderworldNetwork: {
		ID:          "network_whisper",
		SuccessHead: "The Underworld Network keeps the alleys quiet",
		FailHead:    "Toughs lean on the doorman for protection coin",
		apply: func(s *Sim, a *WorldActor, success bool) {
			if success {
				s.shiftActorStanding(a, s.rng.Range(0.5, 2))
			} else {
				s.shiftActorStanding(a, -s.rng.Range(1, 3))
				s.state.Gold -= 6
				s.appendLog("Paid 6 gold in protection coin", ToneBad)
			}
		},
	},
}

// rollWorldActorEventHook fires one actor development per day, chosen
// proportional to influence.
func (s *Sim) rollWorldActorEventHook() actorEventOutcome {
	st := s.state
	total := 0.0
	for i := range st.World.Actors {
		total += st.World.Actors[i].Influence
	}
	roll := s.rng.NextFloat() * total
	var chosen *WorldActor
	for i := range st.World.Actors {
		if roll < st.World.Actors[i].Influence {
			chosen = &st.World.Actors[i]
			break
		}
		roll -= st.World.Actors[i].Influence
	}
	if chosen == nil {
		chosen = &st.World.Actors[len(st.World.Actors)-1]
	}
	def := actorEvents[chosen.ID]
	// High standing makes the friendly branch likelier.
	success := s.rng.NextFloat() < 0.3+chosen.Standing/100*0.5
	def.apply(s, chosen, success)
	head := def.FailHead
	tone := ToneBad
	if success {
		head = def.SuccessHead
		tone = ToneGood
	}
	s.appendLog(head, tone)
	return actorEventOutcome{ActorID: chosen.ID, EventID: def.ID, Success: success, Headline: head}
}

// shiftActorStanding applies a bounded daily drift and records it.
func (s *Sim) shiftActorStanding(a *WorldActor, delta float64) {
	delta = clamp(delta, -20, 20)
	a.Standing = clampStat(a.Standing + delta)
	a.LastShift = clamp(a.LastShift*0.5+delta, -20, 20)
}

// applyActorStandingDrift relaxes standings toward neutral at day close so
// shocks fade instead of compounding.
func (s *Sim) applyActorStandingDrift() {
	for i := range s.state.World.Actors {
		a := &s.state.World.Actors[i]
		a.Standing = clampStat(a.Standing + (50-a.Standing)*0.015 + s.rng.Range(-0.4, 0.4))
		a.LastShift *= 0.6
	}
}
