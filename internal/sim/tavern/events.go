package tavern

// Daily random events. Half the days nothing happens; otherwise one weighted
// event fires, biased by the tavern's district.

type eventEffect struct {
	DemandMult       float64
	GuestDelta       int
	QualityBoost     float64
	ReputationDelta  float64
	Expense          float64
	CleanlinessDelta float64
	ConditionDelta   float64
}

type dayEvent struct {
	ID       string
	Weight   float64
	Headline string
	Effect   eventEffect
}

const (
	EventTravelingBard   = "traveling_bard"
	EventInspector       = "inspector"
	EventBarBrawl        = "bar_brawl"
	EventMerchantCaravan = "merchant_caravan"
	EventSpoiledCask     = "spoiled_cask"
	EventNobleVisit      = "noble_visit"
	EventRainstorm       = "rainstorm"
)

var dayEvents = []dayEvent{
	{
		ID: EventTravelingBard, Weight: 0.2, Headline: "A traveling bard packs the common room",
		Effect: eventEffect{DemandMult: 1.22, GuestDelta: 6, ReputationDelta: 1.2},
	},
	{
		// Outcome resolved in rollDailyEvent against cleanliness/condition.
		ID: EventInspector, Weight: 0.12, Headline: "A crown inspector calls unannounced",
	},
	{
		ID: EventBarBrawl, Weight: 0.16, Headline: "A bar brawl breaks furniture and nerves",
		Effect: eventEffect{DemandMult: 0.92, ReputationDelta: -1.6, Expense: 9, ConditionDelta: -7, CleanlinessDelta: -5},
	},
	{
		ID: EventMerchantCaravan, Weight: 0.15, Headline: "A merchant caravan camps outside the walls",
		Effect: eventEffect{DemandMult: 1.12, GuestDelta: 9},
	},
	{
		ID: EventSpoiledCask, Weight: 0.12, Headline: "A cask turns sour in the cellar",
		Effect: eventEffect{QualityBoost: -7, ReputationDelta: -0.8, Expense: 4},
	},
	{
		ID: EventNobleVisit, Weight: 0.1, Headline: "A noble party takes the good table",
		Effect: eventEffect{DemandMult: 1.08, GuestDelta: 3, ReputationDelta: 1.8, QualityBoost: 2},
	},
	{
		ID: EventRainstorm, Weight: 0.15, Headline: "Rain hammers the district all day",
		Effect: eventEffect{DemandMult: 0.84, GuestDelta: -5, CleanlinessDelta: -3},
	},
}

const inspectorStandardsFloor = 45.0

// districtEventWeightBias nudges individual event odds per district.
var districtEventWeightBias = map[string]map[string]float64{
	DistrictDockside:  {EventBarBrawl: 1.5, EventRainstorm: 1.3, EventNobleVisit: 0.4},
	DistrictLowmarket: {EventMerchantCaravan: 1.3, EventTravelingBard: 1.2},
	DistrictGuildrow:  {EventInspector: 1.4, EventNobleVisit: 1.2},
	DistrictCastleRise: {EventNobleVisit: 2.0, EventInspector: 1.3, EventBarBrawl: 0.5},
}

// rollDailyEvent returns the event that fired (if any) and its resolved
// effect. The 50% quiet-day gate rolls first so the stream stays aligned
// across districts.
func (s *Sim) rollDailyEvent(eventChanceMult float64) (string, string, eventEffect) {
	st := s.state
	quiet := 0.5 / eventChanceMult
	if s.rng.NextFloat() < quiet {
		return "", "", eventEffect{}
	}

	district := st.World.Travel.HomeDistrict
	bias := districtEventWeightBias[district]
	total := 0.0
	weights := make([]float64, len(dayEvents))
	for i, ev := range dayEvents {
		w := ev.Weight
		if b, okB := bias[ev.ID]; okB {
			w *= b
		}
		weights[i] = w
		total += w
	}
	roll := s.rng.NextFloat() * total
	chosen := dayEvents[len(dayEvents)-1]
	for i, ev := range dayEvents {
		if roll < weights[i] {
			chosen = ev
			break
		}
		roll -= weights[i]
	}

	effect := chosen.Effect
	headline := chosen.Headline
	if chosen.ID == EventInspector {
		if st.Cleanliness < inspectorStandardsFloor || st.Condition < inspectorStandardsFloor {
			effect = eventEffect{ReputationDelta: -2.4, Expense: 18}
			headline = "The inspector fines the house for poor standards"
		} else {
			effect = eventEffect{ReputationDelta: 1.6}
			headline = "The inspector leaves with a nod of approval"
		}
	}
	return chosen.ID, headline, effect
}

func (effect eventEffect) demandMult() float64 {
	if effect.DemandMult == 0 {
		return 1
	}
	return effect.DemandMult
}
