package tavern

import (
	"fmt"
	"strconv"
	"strings"

	"emberhall/internal/protocol"
)

// Weekly plan: the draft is freely editable in planning; the committed plan
// is the frozen intent set execution runs under. Draft edits during execution
// either apply instantly (note) or queue as intents for a later boundary.

type WeeklyPlan struct {
	MenuFocus     string  `json:"menuFocus"`     // balanced | ale | stew
	PricingStance string  `json:"pricingStance"` // discount | standard | premium
	Marketing     string  `json:"marketing"`     // none | local | campaign
	Logistics     string  `json:"logistics"`     // steady | city_push
	RiskTolerance string  `json:"riskTolerance"` // low | medium | high
	ReserveGold   float64 `json:"reserveGold"`
	SupplyBudget  float64 `json:"supplyBudget"`
	TrainingFocus string  `json:"trainingFocus,omitempty"` // role id or empty
	Note          string  `json:"note,omitempty"`
}

func defaultWeeklyPlan() WeeklyPlan {
	return WeeklyPlan{
		MenuFocus:     "balanced",
		PricingStance: "standard",
		Marketing:     "none",
		Logistics:     "steady",
		RiskTolerance: "medium",
		ReserveGold:   40,
		SupplyBudget:  60,
	}
}

var planFieldOptions = map[string][]string{
	"menuFocus":     {"balanced", "ale", "stew"},
	"pricingStance": {"discount", "standard", "premium"},
	"marketing":     {"none", "local", "campaign"},
	"logistics":     {"steady", "city_push"},
	"riskTolerance": {"low", "medium", "high"},
	"trainingFocus": {"", "server", "cook", "barkeep", "guard"},
}

// planFieldBoundary maps each field to the boundary its in-execution change
// waits for. The note is the one instant field.
var planFieldBoundary = map[string]string{
	"menuFocus":     IntentBoundaryDayStart,
	"pricingStance": IntentBoundaryDayStart,
	"trainingFocus": IntentBoundaryDayStart,
	"marketing":     IntentBoundaryWeekStart,
	"logistics":     IntentBoundaryWeekStart,
	"riskTolerance": IntentBoundaryWeekStart,
	"reserveGold":   IntentBoundaryWeekStart,
	"supplyBudget":  IntentBoundaryWeekStart,
}

// planFieldPriority orders intent application within a boundary flush.
var planFieldPriority = map[string]int{
	"riskTolerance": 3,
	"logistics":     2,
	"marketing":     2,
	"pricingStance": 2,
	"menuFocus":     1,
	"trainingFocus": 1,
	"reserveGold":   1,
	"supplyBudget":  1,
}

func validatePlanField(field, value string) error {
	switch field {
	case "note":
		if len(value) > 280 {
			return fmt.Errorf("note too long")
		}
		return nil
	case "reserveGold", "supplyBudget":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil || v < 0 || v > 100000 {
			return fmt.Errorf("%s must be a non-negative amount", field)
		}
		return nil
	}
	opts, known := planFieldOptions[field]
	if !known {
		return fmt.Errorf("unknown plan field %q", field)
	}
	for _, o := range opts {
		if o == value {
			return nil
		}
	}
	return fmt.Errorf("invalid value %q for %s", value, field)
}

// applyPlanField writes the value into the live target: the committed plan
// while one is in force, the draft otherwise.
func (s *Sim) applyPlanField(field, value string) {
	m := &s.state.Manager
	target := &m.PlanDraft
	if m.Phase == PhaseExecution && m.CommittedPlan != nil {
		target = m.CommittedPlan
	}
	setPlanField(target, field, value)
}

func setPlanField(target *WeeklyPlan, field, value string) {
	switch field {
	case "menuFocus":
		target.MenuFocus = value
	case "pricingStance":
		target.PricingStance = value
	case "marketing":
		target.Marketing = value
	case "logistics":
		target.Logistics = value
	case "riskTolerance":
		target.RiskTolerance = value
	case "trainingFocus":
		target.TrainingFocus = value
	case "note":
		target.Note = value
	case "reserveGold":
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			target.ReserveGold = v
		}
	case "supplyBudget":
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			target.SupplyBudget = v
		}
	}
}

// UpdateWeeklyPlanDraft edits one plan field. In planning phase the draft
// changes directly; in execution the change is queued for its boundary,
// except the note which applies instantly.
func (s *Sim) UpdateWeeklyPlanDraft(field, value string) Result {
	if r := s.requireActionWindow("updateWeeklyPlanDraft"); !r.OK {
		return r
	}
	if err := validatePlanField(field, value); err != nil {
		return fail(protocol.ErrBadRequest, err.Error())
	}
	m := &s.state.Manager
	switch m.Phase {
	case PhasePlanning:
		setPlanField(&m.PlanDraft, field, value)
		s.notify()
		return okRes().withTone(ToneNeutral)
	case PhaseExecution:
		if field == "note" {
			s.applyPlanField(field, value)
			s.notify()
			return okRes().withTone(ToneNeutral)
		}
		boundary := planFieldBoundary[field]
		intent := s.queueIntent(field, value, boundary, planFieldPriority[field])
		s.appendLog(fmt.Sprintf("Plan change queued for %s: %s = %s", boundary, field, value), ToneNeutral)
		s.notify()
		return okData(map[string]any{"intentId": intent.ID, "boundary": boundary}).withTone(ToneNeutral)
	default:
		return fail(protocol.ErrPhase, "plan cannot change during week close")
	}
}

// planEnvelopeReasons validates the draft against the treasury and world
// state. An empty slice means the plan is committable.
func (s *Sim) planEnvelopeReasons(plan WeeklyPlan) []string {
	st := s.state
	var reasons []string
	if plan.ReserveGold+plan.SupplyBudget > st.Gold {
		reasons = append(reasons, fmt.Sprintf("reserve and supply budget (%.0f) exceed available gold (%.0f)",
			plan.ReserveGold+plan.SupplyBudget, st.Gold))
	}
	if plan.RiskTolerance == "high" && st.World.Crown.Compliance < 55 {
		reasons = append(reasons, "high risk tolerance requires crown compliance of at least 55")
	}
	if plan.Marketing == "campaign" && st.Gold < 80 {
		reasons = append(reasons, "campaign marketing requires at least 80 gold on hand")
	}
	if plan.Logistics == "city_push" && st.World.Travel.Active != nil {
		reasons = append(reasons, "city-push logistics conflicts with the stock run already on the road")
	}
	return reasons
}

// CommitWeeklyPlan freezes the draft and enters execution.
func (s *Sim) CommitWeeklyPlan() Result {
	if r := s.requireActionWindow("commitWeeklyPlan"); !r.OK {
		return r
	}
	m := &s.state.Manager
	if m.Phase != PhasePlanning {
		return fail(protocol.ErrPhase, "plans commit only during planning")
	}
	if reasons := s.planEnvelopeReasons(m.PlanDraft); len(reasons) > 0 {
		return fail(protocol.ErrPlanEnvelope, "plan rejected: "+strings.Join(reasons, "; "))
	}
	committed := m.PlanDraft
	m.CommittedPlan = &committed
	s.transitionPhase(PhaseExecution, false)
	s.applyPlanToSupplyPlanner(committed)
	s.appendLog(fmt.Sprintf("Weekly plan committed for week %d", m.WeekIndex), ToneGood)
	s.notify()
	return okRes()
}

// activePlan is what execution actually runs under.
func (s *Sim) activePlan() WeeklyPlan {
	m := &s.state.Manager
	if m.CommittedPlan != nil {
		return *m.CommittedPlan
	}
	return m.PlanDraft
}

// applyPlanToSupplyPlanner scales stock targets to the committed intent.
func (s *Sim) applyPlanToSupplyPlanner(plan WeeklyPlan) {
	planner := &s.state.Manager.SupplyPlanner
	base := s.defaultSupplyPlanner().Targets
	scale := 1.0
	switch plan.MenuFocus {
	case "ale":
		base[ItemGrain] = base[ItemGrain] * 3 / 2
		base[ItemHops] = base[ItemHops] * 3 / 2
	case "stew":
		base[ItemMeat] = base[ItemMeat] * 3 / 2
		base[ItemVeg] = base[ItemVeg] * 3 / 2
		base[ItemSpice] += 2
	}
	if plan.Logistics == "city_push" {
		scale = 1.25
	}
	for item, v := range base {
		base[item] = int(float64(v) * scale)
	}
	planner.Targets = base
	planner.SpentThisWeek = 0
}

// planDemandEffects turns the active plan into day-pipeline multipliers.
type planEffects struct {
	DemandMult    float64
	PriceBiasPct  float64 // applied to posted prices in the demand math
	MarketingCost float64
}

func (s *Sim) planDayEffects(plan WeeklyPlan) planEffects {
	eff := planEffects{DemandMult: 1}
	switch plan.Marketing {
	case "local":
		eff.DemandMult *= 1.06
		eff.MarketingCost = 4
	case "campaign":
		eff.DemandMult *= 1.14
		eff.MarketingCost = 11
	}
	switch plan.PricingStance {
	case "discount":
		eff.PriceBiasPct = -0.1
	case "premium":
		eff.PriceBiasPct = 0.12
	}
	return eff
}
