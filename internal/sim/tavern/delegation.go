package tavern

import "fmt"

// Delegation: routine tasks the manager can hand off. Each enabled routine
// runs once at day start and writes what it did to a bounded audit trail.

type Delegation struct {
	AutoSupply    bool `json:"autoSupply"`
	AutoTraining  bool `json:"autoTraining"`
	AutoMarketing bool `json:"autoMarketing"`
	AutoCleaning  bool `json:"autoCleaning"`

	Audit []DelegationNote `json:"audit,omitempty"`
}

type DelegationNote struct {
	Day    int    `json:"day"`
	Task   string `json:"task"`
	Detail string `json:"detail"`
}

const delegationAuditCap = 30

func (s *Sim) delegationNote(task, detail string) {
	d := &s.state.Manager.Delegation
	d.Audit = append(d.Audit, DelegationNote{Day: s.state.Day, Task: task, Detail: detail})
	if len(d.Audit) > delegationAuditCap {
		d.Audit = d.Audit[len(d.Audit)-delegationAuditCap:]
	}
}

// runDelegatedRoutines executes the enabled automations inside the day
// pipeline, spending against the committed plan's budgets.
func (s *Sim) runDelegatedRoutines() {
	st := s.state
	d := &st.Manager.Delegation
	plan := s.activePlan()

	if d.AutoSupply {
		s.runAutoSupply(plan)
	}
	if d.AutoTraining && plan.TrainingFocus != "" {
		s.runAutoTraining(Role(plan.TrainingFocus))
	}
	if d.AutoMarketing && st.Reputation < 48 && st.Gold > 30 {
		st.Gold -= 4
		s.SetWorldEffect(WorldEffect{ID: "delegated_marketing", Label: "Street crier hired", DaysLeft: 1, DemandMult: 1.05})
		s.delegationNote("marketing", "hired a street crier for 4 gold")
	}
	if d.AutoCleaning && st.Cleanliness < 55 && st.Gold > 12 {
		st.Gold -= 5
		st.Cleanliness = clampStat(st.Cleanliness + s.rng.Range(6, 11))
		s.delegationNote("cleaning", "brought in scrubbers for 5 gold")
	}
}

// runAutoSupply tops up the worst stock gaps from the home market, within
// what remains of the weekly supply budget.
func (s *Sim) runAutoSupply(plan WeeklyPlan) {
	st := s.state
	planner := &st.Manager.SupplyPlanner
	market := s.homeMarket()
	if market == nil {
		return
	}
	remaining := plan.SupplyBudget - planner.SpentThisWeek
	if remaining <= 4 {
		return
	}
	mods := s.getWorldRuntimeModifiers()
	spent := 0.0
	for _, item := range supplyItems() {
		gap := planner.Targets[item] - st.Inventory[item]
		if gap <= 0 {
			continue
		}
		units := gap
		if units > 8 {
			units = 8
		}
		if avail := marketAvailable(market, item); units > avail {
			units = avail
		}
		if units <= 0 {
			continue
		}
		quote := s.quoteSupply(market, item, units, mods)
		if quote.Total > remaining-spent || quote.Total > st.Gold {
			continue
		}
		st.Gold -= quote.Total
		market.Stock[item] -= quote.Delivered
		meta := supplyMeta[item]
		q := clampStat(meta.BaseQuality + market.QualityEdge + s.rng.Range(-meta.QualityVariance, meta.QualityVariance))
		s.blendSupplyStat(item, quote.Delivered, q, clampStat(82+s.rng.Range(-6, 8)))
		st.Inventory[item] += quote.Delivered
		spent += quote.Total
	}
	if spent > 0 {
		planner.SpentThisWeek += spent
		s.delegationNote("supply", fmt.Sprintf("restocked for %.0f gold", spent))
	}
}

// runAutoTraining drills the weakest available worker in the focus role.
func (s *Sim) runAutoTraining(role Role) {
	st := s.state
	if st.Gold < 10 {
		return
	}
	var pick *Staff
	for i := range st.Staff {
		m := &st.Staff[i]
		if m.Role != role || s.staffOut(m) {
			continue
		}
		if pick == nil || m.Service+m.Quality < pick.Service+pick.Quality {
			pick = m
		}
	}
	if pick == nil {
		return
	}
	st.Gold -= 6
	pick.Service = clampStat(pick.Service + s.rng.Range(0.5, 1.5))
	pick.Quality = clampStat(pick.Quality + s.rng.Range(0.5, 1.5))
	pick.Fatigue = clampStat(pick.Fatigue + 2)
	s.delegationNote("training", fmt.Sprintf("drilled %s for 6 gold", pick.Name))
}
