package tavern

import (
	"fmt"

	"emberhall/internal/protocol"
)

// Actions that reach beyond the house walls: supplier contracts, stock runs
// to other districts, scouting, courting the city's power blocs, and the
// manager's own board and delegation toggles.

// SignLocalBrokerContract pays for a daily basket of staples delivered to
// the door for the given number of days.
func (s *Sim) SignLocalBrokerContract(days int) Result {
	if r := s.requireActionWindow("signLocalBrokerContract"); !r.OK {
		return r
	}
	if days < 3 || days > 14 {
		return fail(protocol.ErrBadRequest, "broker contracts run 3 to 14 days")
	}
	net := &s.state.World.Supplier
	if net.LocalBrokerDays > 0 {
		return fail(protocol.ErrBadRequest, "a broker contract is already running, "+describeContract(net.LocalBrokerDays))
	}
	cost := brokerBasketCost * float64(days)
	if s.state.Gold < cost {
		return fail(protocol.ErrNoGold, fmt.Sprintf("a %d-day broker contract costs %.0f gold up front", days, cost))
	}
	s.state.Gold -= cost
	net.LocalBrokerDays = days
	s.appendLog(fmt.Sprintf("Signed the local broker for %d days (%.0f gold)", days, cost), ToneGood)
	s.notify()
	return okRes()
}

// SignWholesaleContract locks in discounted market prices for a stretch of
// days. The supplier wants volume certainty and charges a signing fee.
func (s *Sim) SignWholesaleContract(days int) Result {
	if r := s.requireActionWindow("signWholesaleContract"); !r.OK {
		return r
	}
	if days < 5 || days > 21 {
		return fail(protocol.ErrBadRequest, "wholesale contracts run 5 to 21 days")
	}
	net := &s.state.World.Supplier
	if net.WholesaleDays > 0 {
		return fail(protocol.ErrBadRequest, "a wholesale contract is already running, "+describeContract(net.WholesaleDays))
	}
	fee := 4 + float64(days)*1.5
	if s.state.Gold < fee {
		return fail(protocol.ErrNoGold, fmt.Sprintf("the wholesale signing fee is %.0f gold", fee))
	}
	s.state.Gold -= fee
	net.WholesaleDays = days
	s.appendLog(fmt.Sprintf("Signed a %d-day wholesale contract (%.0f gold fee)", days, fee), ToneGood)
	s.notify()
	return okRes()
}

// StartCityStockRun sends a worker with the cart to another district's
// market. One run at a time; the worker is off the floor until they return.
func (s *Sim) StartCityStockRun(staffID, district string, budget float64) Result {
	if r := s.requireActionWindow("startCityStockRun"); !r.OK {
		return r
	}
	st := s.state
	if st.World.Travel.Active != nil {
		return fail(protocol.ErrTravelBusy, "the cart is already out on a run")
	}
	info, known := districtTable[district]
	if !known {
		return fail(protocol.ErrInvalidTarget, fmt.Sprintf("no district %q", district))
	}
	if district == st.World.Travel.HomeDistrict {
		return fail(protocol.ErrBadRequest, "the home market needs no stock run")
	}
	m := s.findStaff(staffID)
	if m == nil {
		return fail(protocol.ErrInvalidTarget, fmt.Sprintf("no worker %q on the roster", staffID))
	}
	if isStaffUnavailable(m) {
		return fail(protocol.ErrInvalidTarget, m.Name+" cannot travel right now")
	}
	availableAfter := 0
	for i := range st.Staff {
		if st.Staff[i].ID != staffID && !isStaffUnavailable(&st.Staff[i]) {
			availableAfter++
		}
	}
	if availableAfter == 0 {
		return fail(protocol.ErrLastStaff, "someone has to mind the house")
	}
	if budget < 5 {
		return fail(protocol.ErrBadRequest, "a stock run needs a budget of at least 5 gold")
	}
	total := budget + info.RouteCost
	if st.Gold < total {
		return fail(protocol.ErrNoGold, fmt.Sprintf("the run needs %.0f gold (%.0f budget plus %.0f route costs)", total, budget, info.RouteCost))
	}
	st.Gold -= total
	st.World.Travel.Active = &StockRun{
		StaffID:   staffID,
		StaffName: m.Name,
		District:  district,
		DepartDay: st.Day,
		ArriveDay: st.Day + info.TravelDays,
		ReturnDay: st.Day + info.TravelDays*2,
		Budget:    budget,
		Bought:    map[string]int{},
	}
	s.appendLog(fmt.Sprintf("%s set out for %s with %.0f gold", m.Name, info.Name, budget), ToneNeutral)
	s.notify()
	return okData(map[string]any{"returnDay": st.World.Travel.Active.ReturnDay})
}

// SendScout pays for a look at another district; once per day.
func (s *Sim) SendScout(district string) Result {
	if r := s.requireActionWindow("sendScout"); !r.OK {
		return r
	}
	info, known := districtTable[district]
	if !known {
		return fail(protocol.ErrInvalidTarget, fmt.Sprintf("no district %q", district))
	}
	const cost = 6.0
	if s.state.Gold < cost {
		return fail(protocol.ErrNoGold, "a scouting run costs 6 gold")
	}
	if r := s.enforceActionCadence("sendScout", cadencePerDay); !r.OK {
		return r
	}
	s.state.Gold -= cost
	detail := s.composeScoutDetail(district, info)
	report := s.addScoutReport(district, detail)
	s.appendLog(fmt.Sprintf("Scout back from %s: %s", info.Name, detail), ToneNeutral)
	s.notify()
	return okData(map[string]any{"reportId": report.ID, "detail": detail}).withTone(ToneNeutral)
}

// composeScoutDetail summarizes what a scout sees: market depth, prices and
// any rival working the same district.
func (s *Sim) composeScoutDetail(district string, info districtInfo) string {
	market := s.state.World.Supplier.Markets[district]
	stockTotal := 0
	if market != nil {
		for _, item := range supplyItems() {
			stockTotal += market.Stock[item]
		}
	}
	detail := fmt.Sprintf("market holds %d lots, prices around x%.2f", stockTotal, info.SupplyCostMult)
	for _, r := range s.state.World.Rivals {
		if r.District == district {
			detail += fmt.Sprintf("; %s is active there (pressure %.0f)", r.Name, r.Pressure)
			break
		}
	}
	return detail
}

// CourtActor spends coin and an evening on one of the city's power blocs to
// shore up standing with them; once per day.
func (s *Sim) CourtActor(id ActorID) Result {
	if r := s.requireActionWindow("courtActor"); !r.OK {
		return r
	}
	actor := s.findActor(id)
	if actor == nil {
		return fail(protocol.ErrInvalidTarget, fmt.Sprintf("no such power bloc %q", id))
	}
	const cost = 12.0
	if s.state.Gold < cost {
		return fail(protocol.ErrNoGold, "an evening of courting costs 12 gold")
	}
	if r := s.enforceActionCadence("courtActor", cadencePerDay); !r.OK {
		return r
	}
	s.state.Gold -= cost
	gain := s.rng.Range(2, 5)
	s.shiftActorStanding(actor, gain)
	s.appendLog(fmt.Sprintf("Courted the %s (+%.1f standing)", actor.Name, gain), ToneGood)
	s.notify()
	return okData(map[string]any{"standing": actor.Standing})
}

// AcknowledgeMessage marks a command-board message as read. Acked routine
// messages are first out when the board overflows.
func (s *Sim) AcknowledgeMessage(id string) Result {
	if r := s.requireActionWindow("acknowledgeMessage"); !r.OK {
		return r
	}
	msg := s.findBoardMessage(id)
	if msg == nil {
		return fail(protocol.ErrInvalidTarget, fmt.Sprintf("no board message %q", id))
	}
	msg.Acked = true
	s.notify()
	return okRes().withTone(ToneNeutral)
}

// SetDelegation flips one of the manager's auto-routines.
func (s *Sim) SetDelegation(task string, enabled bool) Result {
	if r := s.requireActionWindow("setDelegation"); !r.OK {
		return r
	}
	d := &s.state.Manager.Delegation
	switch task {
	case "supply":
		d.AutoSupply = enabled
	case "training":
		d.AutoTraining = enabled
	case "marketing":
		d.AutoMarketing = enabled
	case "cleaning":
		d.AutoCleaning = enabled
	default:
		return fail(protocol.ErrBadRequest, fmt.Sprintf("unknown delegation task %q", task))
	}
	verb := "off"
	if enabled {
		verb = "on"
	}
	s.appendLog(fmt.Sprintf("Delegation: auto-%s switched %s", task, verb), ToneNeutral)
	s.notify()
	return okRes().withTone(ToneNeutral)
}

// ClaimObjective cashes in an active objective that has already met its
// target, instead of waiting for the week close to settle it.
func (s *Sim) ClaimObjective(id string) Result {
	if r := s.requireActionWindow("claimObjective"); !r.OK {
		return r
	}
	obj := &s.state.Manager.Objectives
	for i := range obj.Active {
		o := obj.Active[i]
		if o.ID != id {
			continue
		}
		if o.Progress < o.Target {
			return fail(protocol.ErrInvalidTarget, fmt.Sprintf("objective %q is not complete (%.0f of %.0f)", id, o.Progress, o.Target))
		}
		o.Status = "completed"
		s.state.Gold += o.RewardGold
		s.state.Reputation = clampStat(s.state.Reputation + o.RewardRep)
		if a := s.findActor(o.Sponsor); a != nil {
			s.shiftActorStanding(a, 2)
		}
		obj.Active = append(obj.Active[:i], obj.Active[i+1:]...)
		obj.Completed = append(obj.Completed, o)
		s.appendLog(fmt.Sprintf("Objective met: %s (+%.0f gold)", o.Label, o.RewardGold), ToneGood)
		s.notify()
		return okData(map[string]any{"rewardGold": o.RewardGold})
	}
	return fail(protocol.ErrInvalidTarget, fmt.Sprintf("no active objective %q", id))
}

// FollowRumor pays someone to run a rumor to ground ahead of its resolve
// day; once per day per rumor.
func (s *Sim) FollowRumor(id string) Result {
	if r := s.requireActionWindow("followRumor"); !r.OK {
		return r
	}
	sc := &s.state.Manager.Scouting
	var rumor *Rumor
	for i := range sc.Rumors {
		if sc.Rumors[i].ID == id {
			rumor = &sc.Rumors[i]
			break
		}
	}
	if rumor == nil {
		return fail(protocol.ErrInvalidTarget, fmt.Sprintf("no rumor %q", id))
	}
	if rumor.Truth != "unknown" {
		return fail(protocol.ErrInvalidTarget, fmt.Sprintf("rumor %q is already settled", id))
	}
	const cost = 3.0
	if s.state.Gold < cost {
		return fail(protocol.ErrNoGold, "running a rumor down costs 3 gold")
	}
	if r := s.enforceActionCadence("followRumor:"+id, cadencePerDay); !r.OK {
		return r
	}
	s.state.Gold -= cost
	rumor.ResolveDay = s.state.Day
	text := rumor.Text
	// resolveRumors compacts the slice, so look the rumor up again after.
	s.resolveRumors()
	truth := "unknown"
	for i := range sc.Rumors {
		if sc.Rumors[i].ID == id {
			truth = sc.Rumors[i].Truth
			break
		}
	}
	s.appendLog(fmt.Sprintf("Ran a rumor to ground: %s (%s)", text, truth), ToneNeutral)
	s.notify()
	return okData(map[string]any{"truth": truth}).withTone(ToneNeutral)
}

// RequestPhase asks the manager loop to move to the next planning phase.
// Only the natural next phase is accepted; anything else trips the guard.
func (s *Sim) RequestPhase(to Phase) Result {
	if r := s.requireActionWindow("requestPhase"); !r.OK {
		return r
	}
	if _, known := phaseNext[to]; !known {
		return fail(protocol.ErrBadRequest, fmt.Sprintf("unknown phase %q", to))
	}
	if to == PhaseExecution {
		// Execution is entered by committing a plan, not by request.
		return fail(protocol.ErrPhase, "commit a weekly plan to enter execution")
	}
	if !s.transitionPhase(to, false) {
		return fail(protocol.ErrPhase, fmt.Sprintf("cannot move from %s to %s", s.state.Manager.Phase, to))
	}
	s.notify()
	return okRes().withTone(ToneNeutral)
}
