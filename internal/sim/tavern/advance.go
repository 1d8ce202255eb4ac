package tavern

import (
	"fmt"
	"strings"

	"emberhall/internal/protocol"
	"emberhall/internal/sim/econ"
)

// AdvanceOptions configures one day-boundary resolution.
type AdvanceOptions struct {
	// Trigger defaults to manual_skip.
	Trigger string
}

// productPropensity is the share of guests who want each product before
// price elasticity and menu focus weigh in.
var productPropensity = map[string]float64{
	ItemAle:   0.58,
	ItemStew:  0.34,
	ItemBread: 0.26,
	ItemRoom:  0.16,
}

// AdvanceDay is the deterministic day transition: one call resolves guest
// demand, sales, staffing, logistics, factions, tax and the week cycle, and
// leaves the structured summary in State.LastReport. Everything random flows
// through the sim's controller, so a fixed seed fixes the whole day.
func (s *Sim) AdvanceDay(opts AdvanceOptions) Result {
	trigger := opts.Trigger
	if trigger == "" {
		trigger = TriggerManualSkip
	}
	release, r := s.beginTimeflowResolution(trigger)
	if !r.OK {
		return r
	}
	success := false
	defer func() { release(success) }()

	st := s.state
	m := &st.Manager

	// Execution gate. With auto-prepare on, a clean draft commits itself the
	// way a manager waving the plan through would.
	if m.Phase != PhaseExecution {
		if !s.autoPrepare || m.Phase != PhasePlanning {
			return fail(protocol.ErrPhase, fmt.Sprintf("cannot advance the day in %s phase", m.Phase))
		}
		if reasons := s.planEnvelopeReasons(m.PlanDraft); len(reasons) > 0 {
			return fail(protocol.ErrPlanEnvelope, "cannot auto-commit plan: "+strings.Join(reasons, "; "))
		}
		committed := m.PlanDraft
		m.CommittedPlan = &committed
		s.transitionPhase(PhaseExecution, false)
		s.applyPlanToSupplyPlanner(committed)
		s.appendLog(fmt.Sprintf("Weekly plan committed for week %d", m.WeekIndex), ToneGood)
	}

	order := []string{BoundaryMinuteTick, BoundaryDayClose}

	// Day open.
	s.advanceDistrictTravel()
	st.Day++
	m.DayInWeek = (st.Day-1)%7 + 1
	s.flushIntents(IntentBoundaryDayStart)
	s.refreshSeasonTimeline()
	s.runDelegatedRoutines()

	plan := s.activePlan()
	mods := s.getWorldRuntimeModifiers()

	s.progressSupplierNetwork(mods)
	s.progressRecruitmentMarket()
	s.progressRivals()

	weekday := m.DayInWeek
	weekend := weekday >= 6

	// Weekly staffing policy: a declared training focus keeps that role
	// sharpening even without delegated drills.
	if plan.TrainingFocus != "" {
		for i := range st.Staff {
			w := &st.Staff[i]
			if string(w.Role) == plan.TrainingFocus && !isStaffUnavailable(w) {
				w.Service = clampStat(w.Service + 0.15)
				w.Quality = clampStat(w.Quality + 0.15)
			}
		}
	}

	s.progressStaffAbsences()
	spoilage := s.applySupplySpoilage()
	shiftFit := s.assignDailyShifts(weekend)
	stats := s.computeStaffStats(shiftFit)

	eventID, eventHead, eventEff := s.rollDailyEvent(mods.EventChanceMult)
	actorOutcome := s.rollWorldActorEventHook()

	// Demand.
	planEff := s.planDayEffects(plan)
	base := 24 + st.Reputation*0.5 + st.Cleanliness*0.12 + st.Condition*0.1
	mult := mods.DemandMult *
		districtTable[st.World.Travel.HomeDistrict].DemandMult *
		seasonDemandMult[m.Timeline.Season] *
		s.loyaltyDemandMultiplier() *
		planEff.DemandMult *
		eventEff.demandMult()
	if weekend {
		mult *= 1.25
	}
	if st.World.Travel.Active != nil {
		mult *= 0.97
	}
	guests := int(base*mult) + eventEff.GuestDelta + s.rng.RandomInt(-10, 10)
	capacity := stats.serviceCapacity()
	guests = clampInt(guests, 0, capacity)

	// Production quality for the day: what the cellar produced, what the
	// kitchen staff can hold together, and whatever the day's event did.
	qualityScore := clamp(st.DayQuality.Score()*0.55+stats.qualityContribution()*0.45+eventEff.QualityBoost, 0, 100)

	// Per-product demand and sales.
	demandByItem := map[string]int{}
	soldByItem := map[string]int{}
	totalDemand, totalSold := 0, 0
	revenue := 0.0
	frontHouse := map[string]float64{}
	for _, item := range menuProducts {
		prop := productPropensity[item]
		switch plan.MenuFocus {
		case "ale":
			if item == ItemAle {
				prop += 0.12
			} else if item == ItemStew {
				prop -= 0.04
			}
		case "stew":
			if item == ItemStew {
				prop += 0.12
			} else if item == ItemAle {
				prop -= 0.04
			}
		}
		baseline := float64(priceBaselines[item])
		effPrice := effectivePrice(st.Prices[item], planEff.PriceBiasPct)
		frontHouse[item] = effPrice
		want := int(float64(guests) * prop * econ.DemandByPrice(effPrice, baseline))
		if want < 0 {
			want = 0
		}
		if item == ItemRoom && want > roomCapacity {
			want = roomCapacity
		}
		demandByItem[item] = want
		totalDemand += want

		var sold int
		if item == ItemRoom {
			sold = want // rooms are capacity-backed, not stock-backed
		} else {
			sold = econ.SellFromInventory(st.Inventory, item, want)
		}
		soldByItem[item] = sold
		totalSold += sold
		revenue += float64(sold) * effPrice
	}
	fulfillment := 1.0
	if totalDemand > 0 {
		fulfillment = float64(totalSold) / float64(totalDemand)
	}

	// Finances.
	payroll := stats.Payroll
	upkeep := 4 + float64(guests)*0.06 + (100-st.Condition)*0.05
	expenses := payroll + upkeep + eventEff.Expense + planEff.MarketingCost

	crown := s.runCrownTax(revenue, mods)
	auditOutcome := s.runCrownAuditCheck()
	expenses += crown.Paid

	net := revenue - expenses
	st.Gold += net

	// Satisfaction: quality 60%, fulfillment 32%, shift fit 8%, with a
	// penalty when rooms are priced far over their baseline.
	fitScore := clamp((shiftFit-0.8)/0.32*100, 0, 100)
	satisfaction := qualityScore*0.6 + fulfillment*100*0.32 + fitScore*0.08
	if ratio := frontHouse[ItemRoom] / float64(priceBaselines[ItemRoom]); ratio > 1.6 {
		satisfaction -= (ratio - 1.6) * 12
	}
	satisfaction = clamp(satisfaction, 0, 100)

	s.updatePatronLoyalty(guests, fulfillment, qualityScore)

	busy := ShiftDay
	if weekend {
		busy = ShiftNight
	}
	s.applyStaffEndOfDay(busy, satisfaction)

	// House wear.
	st.Cleanliness = clampStat(st.Cleanliness - (1 + float64(guests)*0.05) + eventEff.CleanlinessDelta)
	st.Condition = clampStat(st.Condition - (0.3 + float64(guests)*0.015) + eventEff.ConditionDelta)

	// Reputation.
	repBefore := st.Reputation
	repSwing := (satisfaction - 56) / 16
	repSwing += eventEff.ReputationDelta
	repSwing -= s.rivalReputationDrag()
	repSwing += mods.ReputationDrift
	if crown.Shortfall > 0 {
		repSwing -= 1.5
	}
	st.Reputation = clampStat(st.Reputation + repSwing)

	s.applyActorStandingDrift()
	s.updateReputationModel()

	// Rollups and the rumor mill.
	st.World.WeekRevenue += revenue
	st.World.WeekGuests += guests
	st.World.WeekNet += net
	s.resolveRumors()
	if s.rng.Chance(0.08) {
		s.spawnRumor()
	}

	report := &DayReport{
		Day:          st.Day,
		Weekday:      weekday,
		Season:       m.Timeline.Season,
		Guests:       guests,
		DemandByItem: demandByItem,
		SoldByItem:   soldByItem,
		Fulfillment:  fulfillment,
		Revenue:      revenue,
		Payroll:      payroll,
		Upkeep:       upkeep,
		Expenses:     expenses,
		TaxPaid:      crown.Paid,
		Net:          net,
		Satisfaction: satisfaction,
		QualityScore: qualityScore,
		ShiftFit:     shiftFit,
		EventID:      eventID,
		EventHead:    eventHead,
		ActorEventID: actorOutcome.EventID,

		CrownCollected: crown.Collected,
		CrownShortfall: crown.Shortfall,
		AuditOutcome:   auditOutcome,

		Spoilage: spoilage,

		RivalPressure: mods.RivalPressure,
		LoyaltyMult:   s.loyaltyDemandMultiplier(),
	}
	s.updateAnalytics(report)
	s.progressObjectives(report)

	s.decayWorldEffects()

	if weekday == 7 {
		s.finalizeExecutionWeek()
		report.WeekClosed = true
		order = append(order, BoundaryWeekClose)
	}

	// Reporting publish closes the boundary.
	order = append(order, BoundaryReportingPublish)
	st.Timeflow.LastBoundaryOrder = order

	st.DayQuality = QualityAccum{}
	st.LastGuests = guests
	report.ReputationDelta = st.Reputation - repBefore
	report.GoldAfter = st.Gold
	st.LastReport = report

	s.appendLog(fmt.Sprintf("Day %d closed: %d guests, %.0f gold revenue, %.0f net", st.Day, guests, revenue, net), ToneNeutral)

	success = true
	s.notify()
	return okData(map[string]any{"day": st.Day, "guests": guests})
}

func effectivePrice(posted int, biasPct float64) float64 {
	p := float64(posted) * (1 + biasPct)
	if p < 1 {
		p = 1
	}
	if p > 40 {
		p = 40
	}
	return p
}
