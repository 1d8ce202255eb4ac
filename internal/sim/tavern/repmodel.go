package tavern

// ReputationModel is the slow-moving external view of the house: per-cohort
// word of mouth and per-faction regard, blended ~74/26 old-to-new each day so
// single bad days fade instead of whipsawing the score.

type ReputationModel struct {
	Cohorts map[Cohort]float64  `json:"cohorts"`
	Groups  map[ActorID]float64 `json:"groups"`
}

const repModelCarry = 0.74

func newReputationModel() ReputationModel {
	m := ReputationModel{Cohorts: map[Cohort]float64{}, Groups: map[ActorID]float64{}}
	for _, c := range cohortOrder {
		m.Cohorts[c] = 50
	}
	for _, a := range actorOrder {
		m.Groups[a] = 50
	}
	return m
}

// updateReputationModel folds today's loyalty averages and actor standings
// into the rolling scores.
func (s *Sim) updateReputationModel() {
	m := &s.state.World.RepModel
	if m.Cohorts == nil || m.Groups == nil {
		*m = newReputationModel()
	}
	loyalty := s.cohortLoyaltyAverages()
	for _, c := range cohortOrder {
		m.Cohorts[c] = clampStat(m.Cohorts[c]*repModelCarry + loyalty[c]*(1-repModelCarry))
	}
	for _, id := range actorOrder {
		standing := 50.0
		if a := s.findActor(id); a != nil {
			standing = a.Standing
		}
		m.Groups[id] = clampStat(m.Groups[id]*repModelCarry + standing*(1-repModelCarry))
	}
}
