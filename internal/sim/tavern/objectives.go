package tavern

import "fmt"

// Weekly objectives: drawn at week open, scored at week close. Completion
// pays gold and goodwill; failure costs reputation and faction standing.

type Objective struct {
	ID        string  `json:"id"`
	Kind      string  `json:"kind"` // revenue | guests | satisfaction | compliance
	Label     string  `json:"label"`
	Target    float64 `json:"target"`
	Progress  float64 `json:"progress"`
	RewardGold float64 `json:"rewardGold"`
	RewardRep  float64 `json:"rewardRep"`
	PenaltyRep float64 `json:"penaltyRep"`
	Sponsor    ActorID `json:"sponsor"`
	Status     string  `json:"status"` // active | completed | failed
	WeekIndex  int     `json:"weekIndex"`
}

type Objectives struct {
	Active    []Objective `json:"active"`
	Completed []Objective `json:"completed,omitempty"`
	Failed    []Objective `json:"failed,omitempty"`
}

const objectiveKeepHistory = 12

func (s *Sim) seedObjectiveBoard(m *ManagerState) {
	m.Objectives.Active = s.rollObjectives(m.WeekIndex)
}

func (s *Sim) refreshObjectiveBoard() {
	m := &s.state.Manager
	m.Objectives.Active = s.rollObjectives(m.WeekIndex)
}

func (s *Sim) rollObjectives(week int) []Objective {
	st := s.state
	revenueTarget := 180 + float64(week)*14 + s.rng.Range(0, 40)
	guestTarget := 120 + float64(week)*8 + s.rng.Range(0, 30)

	pool := []Objective{
		{
			Kind: "revenue", Label: "Merchant Houses ledger pledge",
			Target: revenueTarget, RewardGold: 26, RewardRep: 1.5, PenaltyRep: 1,
			Sponsor: ActorMerchantHouses,
		},
		{
			Kind: "guests", Label: "Civic Council footfall tally",
			Target: guestTarget, RewardGold: 18, RewardRep: 2, PenaltyRep: 1,
			Sponsor: ActorCivicCouncil,
		},
		{
			Kind: "satisfaction", Label: "Keep the house in good cheer",
			Target: 60, RewardGold: 14, RewardRep: 2.5, PenaltyRep: 1.5,
			Sponsor: ActorCivicCouncil,
		},
		{
			Kind: "compliance", Label: "Crown ledger in good order",
			Target: clamp(st.World.Crown.Compliance+4, 40, 92), RewardGold: 20, RewardRep: 1, PenaltyRep: 2,
			Sponsor: ActorCrownOffice,
		},
	}
	// Two objectives per week, drawn without replacement.
	first := s.rng.PickIndex(len(pool))
	second := s.rng.PickIndex(len(pool) - 1)
	if second >= first {
		second++
	}
	chosen := []Objective{pool[first], pool[second]}
	for i := range chosen {
		chosen[i].ID = fmt.Sprintf("obj_w%d_%d", week, i+1)
		chosen[i].Status = "active"
		chosen[i].WeekIndex = week
	}
	return chosen
}

// progressObjectives accumulates the day's numbers into the active board.
func (s *Sim) progressObjectives(report *DayReport) {
	for i := range s.state.Manager.Objectives.Active {
		o := &s.state.Manager.Objectives.Active[i]
		switch o.Kind {
		case "revenue":
			o.Progress += report.Revenue
		case "guests":
			o.Progress += float64(report.Guests)
		case "satisfaction":
			// Rolling best-so-far; settled against the weekly average at close.
			o.Progress = s.weeklySatisfactionAverage()
		case "compliance":
			o.Progress = s.state.World.Crown.Compliance
		}
	}
}

func (s *Sim) weeklySatisfactionAverage() float64 {
	hist := s.state.Manager.Analytics.History
	days := s.state.Manager.DayInWeek
	if days > len(hist) {
		days = len(hist)
	}
	if days == 0 {
		return 0
	}
	sum := 0.0
	for _, d := range hist[len(hist)-days:] {
		sum += d.Satisfaction
	}
	return sum / float64(days)
}

// settleObjectives pays out or penalizes at week close.
func (s *Sim) settleObjectives() {
	st := s.state
	obj := &st.Manager.Objectives
	for _, o := range obj.Active {
		if o.Progress >= o.Target {
			o.Status = "completed"
			st.Gold += o.RewardGold
			st.Reputation = clampStat(st.Reputation + o.RewardRep)
			if a := s.findActor(o.Sponsor); a != nil {
				s.shiftActorStanding(a, 2)
			}
			obj.Completed = append(obj.Completed, o)
			s.appendLog(fmt.Sprintf("Objective met: %s (+%.0f gold)", o.Label, o.RewardGold), ToneGood)
			s.postCommandMessage(1, "Objective met", o.Label, ToneGood)
		} else {
			o.Status = "failed"
			st.Reputation = clampStat(st.Reputation - o.PenaltyRep)
			if a := s.findActor(o.Sponsor); a != nil {
				s.shiftActorStanding(a, -1.5)
			}
			obj.Failed = append(obj.Failed, o)
			s.appendLog(fmt.Sprintf("Objective failed: %s", o.Label), ToneBad)
		}
	}
	obj.Active = nil
	if len(obj.Completed) > objectiveKeepHistory {
		obj.Completed = obj.Completed[len(obj.Completed)-objectiveKeepHistory:]
	}
	if len(obj.Failed) > objectiveKeepHistory {
		obj.Failed = obj.Failed[len(obj.Failed)-objectiveKeepHistory:]
	}
}
