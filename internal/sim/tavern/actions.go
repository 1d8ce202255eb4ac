package tavern

import (
	"fmt"

	"emberhall/internal/protocol"
)

// Gameplay actions over the house and its stock. Every action validates
// before it mutates: a failed Result means nothing changed.

// SetPrice posts a new price for a menu product. Prices live on a 1..40
// copper scale.
func (s *Sim) SetPrice(item string, price int) Result {
	if r := s.requireActionWindow("setPrice"); !r.OK {
		return r
	}
	if _, isProduct := priceBaselines[item]; !isProduct {
		return fail(protocol.ErrInvalidTarget, fmt.Sprintf("%q is not a menu product", item))
	}
	if price < 1 || price > 40 {
		return fail(protocol.ErrBadRequest, "price must be between 1 and 40")
	}
	s.state.Prices[item] = price
	s.appendLog(fmt.Sprintf("Posted %s at %d copper", item, price), ToneNeutral)
	s.notify()
	return okRes().withTone(ToneNeutral)
}

// BuySupply purchases a lot from the home market. The market holds back a
// lot-availability buffer and the reliability roll decides how much of the
// order actually lands on the dock.
func (s *Sim) BuySupply(item string, units int) Result {
	if r := s.requireActionWindow("buySupply"); !r.OK {
		return r
	}
	meta, isSupply := supplyMeta[item]
	if !isSupply {
		return fail(protocol.ErrInvalidTarget, fmt.Sprintf("%q is not a supply item", item))
	}
	if units <= 0 {
		return fail(protocol.ErrBadRequest, "units must be positive")
	}
	market := s.homeMarket()
	if market == nil {
		return fail(protocol.ErrNoMarket, "no supplier market in the home district")
	}
	avail := marketAvailable(market, item)
	if avail <= 0 {
		return fail(protocol.ErrNoStock, fmt.Sprintf("the market has no %s lots to spare", item))
	}
	if units > avail {
		units = avail
	}
	mods := s.getWorldRuntimeModifiers()
	quote := s.quoteSupply(market, item, units, mods)
	if quote.Total > s.state.Gold {
		return fail(protocol.ErrNoGold, fmt.Sprintf("need %.0f gold for %d %s, have %.0f", quote.Total, quote.Delivered, item, s.state.Gold))
	}

	st := s.state
	st.Gold -= quote.Total
	market.Stock[item] -= quote.Delivered
	q := clampStat(meta.BaseQuality + market.QualityEdge + s.rng.Range(-meta.QualityVariance, meta.QualityVariance))
	f := clampStat(82 + s.rng.Range(-6, 8))
	s.blendSupplyStat(item, quote.Delivered, q, f)
	st.Inventory[item] += quote.Delivered
	st.Manager.SupplyPlanner.SpentThisWeek += quote.Total

	tone := ToneNeutral
	note := fmt.Sprintf("Bought %d %s for %.0f gold", quote.Delivered, item, quote.Total)
	if quote.Delivered < quote.Units {
		tone = ToneBad
		note += fmt.Sprintf(" (%d short on the delivery)", quote.Units-quote.Delivered)
	}
	s.appendLog(note, tone)
	s.notify()
	return okData(map[string]any{
		"delivered": quote.Delivered,
		"cost":      quote.Total,
	}).withTone(tone)
}

// Craft runs batches of a recipe. The gold cost is deducted up front and
// refunded in full if the larder turns out short, so a failed craft is a
// no-op on the treasury.
func (s *Sim) Craft(product string, batches int) Result {
	if r := s.requireActionWindow("craft"); !r.OK {
		return r
	}
	rec, known := recipes[product]
	if !known {
		return fail(protocol.ErrInvalidTarget, fmt.Sprintf("no recipe for %q", product))
	}
	if batches <= 0 {
		return fail(protocol.ErrBadRequest, "batches must be positive")
	}
	st := s.state
	goldCost := rec.GoldCost * float64(batches)
	if goldCost > st.Gold {
		return fail(protocol.ErrNoGold, fmt.Sprintf("crafting needs %.0f gold, have %.0f", goldCost, st.Gold))
	}
	st.Gold -= goldCost

	consumes := map[string]int{}
	for item, per := range rec.Consumes {
		consumes[item] = per * batches
	}
	for _, item := range supplyItems() {
		if st.Inventory[item] < consumes[item] {
			st.Gold += goldCost // refund the speculative deduction
			return fail(protocol.ErrNoStock, fmt.Sprintf("not enough %s to craft %s", item, product))
		}
	}

	score, mult := s.evaluateIngredientBlend(consumes)
	for _, item := range supplyItems() {
		if consumes[item] > 0 {
			st.Inventory[item] -= consumes[item]
		}
	}
	made := int(float64(rec.Batch*batches)*mult + 0.5)
	if made < 1 {
		made = 1
	}
	st.Inventory[product] += made
	s.recordProduction(score, made)

	s.appendLog(fmt.Sprintf("Crafted %d %s (blend %.0f)", made, product, score), ToneGood)
	s.notify()
	return okData(map[string]any{"made": made, "blend": score})
}

// RunMarketing hires short-run promotion; once per day.
func (s *Sim) RunMarketing(kind string) Result {
	if r := s.requireActionWindow("runMarketing"); !r.OK {
		return r
	}
	var cost float64
	var eff WorldEffect
	switch kind {
	case "crier":
		cost = 6
		eff = WorldEffect{ID: "mk_crier", Label: "Street crier", DaysLeft: 2, DemandMult: 1.06}
	case "handbills":
		cost = 10
		eff = WorldEffect{ID: "mk_handbills", Label: "Printed handbills", DaysLeft: 3, DemandMult: 1.09}
	default:
		return fail(protocol.ErrBadRequest, fmt.Sprintf("unknown marketing kind %q", kind))
	}
	if s.state.Gold < cost {
		return fail(protocol.ErrNoGold, fmt.Sprintf("marketing needs %.0f gold", cost))
	}
	if r := s.enforceActionCadence("runMarketing", cadencePerDay); !r.OK {
		return r
	}
	s.state.Gold -= cost
	s.SetWorldEffect(eff)
	s.appendLog(fmt.Sprintf("Marketing: %s for %.0f gold", eff.Label, cost), ToneGood)
	s.notify()
	return okRes()
}

// HostFestival throws a feast night; once per week, and it leaves a mess.
func (s *Sim) HostFestival() Result {
	if r := s.requireActionWindow("hostFestival"); !r.OK {
		return r
	}
	const cost = 35.0
	if s.state.Gold < cost {
		return fail(protocol.ErrNoGold, "a festival needs 35 gold")
	}
	if r := s.enforceActionCadence("hostFestival", cadencePerWeek); !r.OK {
		return r
	}
	s.state.Gold -= cost
	s.SetWorldEffect(WorldEffect{ID: "festival", Label: "Festival night", DaysLeft: 2, DemandMult: 1.2, ReputationDrift: 0.8})
	s.state.Cleanliness = clampStat(s.state.Cleanliness - 6)
	s.appendLog("Festival night announced; the whole ward is talking", ToneGood)
	s.notify()
	return okRes()
}

// DeepClean scrubs the house; once per day.
func (s *Sim) DeepClean() Result {
	if r := s.requireActionWindow("deepClean"); !r.OK {
		return r
	}
	const cost = 8.0
	if s.state.Gold < cost {
		return fail(protocol.ErrNoGold, "a deep clean needs 8 gold")
	}
	if r := s.enforceActionCadence("deepClean", cadencePerDay); !r.OK {
		return r
	}
	s.state.Gold -= cost
	s.state.Cleanliness = clampStat(s.state.Cleanliness + s.rng.Range(9, 15))
	s.appendLog("The house got a proper scrubbing", ToneGood)
	s.notify()
	return okRes()
}

// RepairHouse patches the worst of the wear; once per day.
func (s *Sim) RepairHouse() Result {
	if r := s.requireActionWindow("repairHouse"); !r.OK {
		return r
	}
	const cost = 14.0
	if s.state.Gold < cost {
		return fail(protocol.ErrNoGold, "repairs need 14 gold")
	}
	if r := s.enforceActionCadence("repairHouse", cadencePerDay); !r.OK {
		return r
	}
	s.state.Gold -= cost
	s.state.Condition = clampStat(s.state.Condition + s.rng.Range(8, 14))
	s.appendLog("The carpenter patched the worst of the wear", ToneGood)
	s.notify()
	return okRes()
}

// SetRandomSeed pins the random stream for reproducible runs. Harness-level,
// boundary-exempt.
func (s *Sim) SetRandomSeed(seed float64) Result {
	if !s.rng.SetSeed(seed) {
		return fail(protocol.ErrBadRequest, "seed must be a finite number")
	}
	s.appendLog("Random seed pinned for this run", ToneNeutral)
	return okRes().withTone(ToneNeutral)
}

// ClearRandomSeed reverts to system randomness. Boundary-exempt.
func (s *Sim) ClearRandomSeed() Result {
	s.rng.ClearSeed()
	s.appendLog("Random seed cleared", ToneNeutral)
	return okRes().withTone(ToneNeutral)
}
