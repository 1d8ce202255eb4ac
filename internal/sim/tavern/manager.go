package tavern

import "fmt"

// Manager phase state machine. The week is a strict cycle:
// planning -> execution -> week_close -> planning. Anything else is a guard
// recovery, never a crash.

type ManagerState struct {
	Phase     Phase `json:"phase"`
	WeekIndex int   `json:"weekIndex"`
	DayInWeek int   `json:"dayInWeek"` // 1..7

	PlanDraft     WeeklyPlan  `json:"planDraft"`
	CommittedPlan *WeeklyPlan `json:"committedPlan,omitempty"`

	SupplyPlanner SupplyPlanner  `json:"supplyPlanner"`
	Recruitment   Recruitment    `json:"recruitment"`
	Objectives    Objectives     `json:"objectives"`
	CommandBoard  []BoardMessage `json:"commandBoard"`
	Delegation    Delegation     `json:"delegation"`
	Analytics     Analytics      `json:"analytics"`
	Scouting      Scouting       `json:"scouting"`
	Timeline      Timeline       `json:"timeline"`
}

type SupplyPlanner struct {
	Targets       map[string]int `json:"targets"`
	SpentThisWeek float64        `json:"spentThisWeek"`
}

func (s *Sim) initialManagerState() ManagerState {
	m := ManagerState{
		Phase:     PhasePlanning,
		WeekIndex: 1,
		DayInWeek: 1,
		PlanDraft: defaultWeeklyPlan(),
	}
	m.SupplyPlanner = s.defaultSupplyPlanner()
	m.Recruitment = s.freshRecruitmentMarket(1)
	m.Objectives = Objectives{}
	m.Timeline = timelineForDay(1)
	s.seedObjectiveBoard(&m)
	return m
}

var phaseNext = map[Phase]Phase{
	PhasePlanning:  PhaseExecution,
	PhaseExecution: PhaseWeekClose,
	PhaseWeekClose: PhasePlanning,
}

// transitionPhase moves along the cycle. Invalid transitions are recorded as
// guard recoveries and refused; forced transitions are internal and always
// follow the cycle anyway.
func (s *Sim) transitionPhase(to Phase, forced bool) bool {
	m := &s.state.Manager
	if phaseNext[m.Phase] == to {
		m.Phase = to
		return true
	}
	if forced {
		// Internal callers may slam back to planning from anywhere after a
		// recovery, but it still counts on the diagnostics.
		s.state.Timeflow.GuardRecoveries++
		m.Phase = to
		return true
	}
	s.state.Timeflow.GuardRecoveries++
	s.appendLog(fmt.Sprintf("Guard: refused phase change %s -> %s", m.Phase, to), ToneNeutral)
	return false
}

func (s *Sim) defaultSupplyPlanner() SupplyPlanner {
	return SupplyPlanner{Targets: map[string]int{
		ItemGrain: 26, ItemHops: 18, ItemMeat: 14, ItemVeg: 16,
		ItemBread: 12, ItemSpice: 6, ItemWood: 30,
	}}
}

// finalizeExecutionWeek runs the week_close boundary: settle objectives,
// refresh the hiring and objective boards, reset the supply planner, and
// force the machine back to planning with the clock paused. Execution never
// silently rolls into an uncommitted week.
func (s *Sim) finalizeExecutionWeek() {
	st := s.state
	m := &st.Manager

	s.transitionPhase(PhaseWeekClose, false)
	s.settleObjectives()

	m.WeekIndex++
	m.DayInWeek = 1
	m.CommittedPlan = nil
	m.SupplyPlanner = s.defaultSupplyPlanner()
	m.Recruitment = s.freshRecruitmentMarket(m.WeekIndex)
	s.refreshObjectiveBoard()

	st.World.WeekRevenue = 0
	st.World.WeekGuests = 0
	st.World.WeekNet = 0

	s.transitionPhase(PhasePlanning, false)
	st.Clock.Speed = 0
	s.flushIntents(IntentBoundaryWeekStart)
	s.appendLog(fmt.Sprintf("Week %d opened for planning", m.WeekIndex), ToneNeutral)
	s.postCommandMessage(2, "New week", fmt.Sprintf("Week %d needs a committed plan before the doors open.", m.WeekIndex), ToneNeutral)
}
