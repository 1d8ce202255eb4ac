package tavern

import "fmt"

// Recruitment market: a rotating slate of candidates with visible skills and
// hidden temperament. Scouting a candidate reveals the hidden traits before
// signing.

type Candidate struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Role    Role    `json:"role"`
	WageAsk float64 `json:"wageAsk"`
	Service float64 `json:"service"`
	Quality float64 `json:"quality"`

	HiddenMorale      float64 `json:"hiddenMorale"`
	HiddenReliability float64 `json:"hiddenReliability"` // 0..1, low means fragile
	Revealed          bool    `json:"revealed"`
}

type Recruitment struct {
	Candidates      []Candidate `json:"candidates"`
	LastRefreshWeek int         `json:"lastRefreshWeek"`
}

var candidateNames = []string{
	"Brina", "Caldo", "Duna", "Elric", "Fila", "Gorm", "Hesta", "Ivo",
	"Jutta", "Krell", "Lio", "Mags", "Nino", "Otka", "Piet", "Runa",
}

var recruitRoles = []Role{RoleServer, RoleCook, RoleBarkeep, RoleGuard}

func (s *Sim) rollCandidate(week, n int) Candidate {
	role := recruitRoles[s.rng.PickIndex(len(recruitRoles))]
	service := clamp(38+s.rng.Range(0, 36), 0, 100)
	quality := clamp(38+s.rng.Range(0, 36), 0, 100)
	return Candidate{
		ID:      fmt.Sprintf("cand_w%d_%d", week, n),
		Name:    candidateNames[s.rng.PickIndex(len(candidateNames))],
		Role:    role,
		WageAsk: float64(int(5 + (service+quality)/16 + s.rng.Range(0, 3))),
		Service: service,
		Quality: quality,

		HiddenMorale:      clamp(40+s.rng.Range(0, 35), 0, 100),
		HiddenReliability: clamp(0.5+s.rng.Range(0, 0.45), 0, 1),
	}
}

func (s *Sim) freshRecruitmentMarket(week int) Recruitment {
	count := 3 + s.rng.RandomInt(0, 2)
	rec := Recruitment{LastRefreshWeek: week}
	for i := 0; i < count; i++ {
		rec.Candidates = append(rec.Candidates, s.rollCandidate(week, i+1))
	}
	return rec
}

// progressRecruitmentMarket churns the slate a little every day: candidates
// drift away, newcomers post a notice.
func (s *Sim) progressRecruitmentMarket() {
	m := &s.state.Manager
	rec := &m.Recruitment
	if len(rec.Candidates) > 0 && s.rng.Chance(0.1) {
		gone := s.rng.PickIndex(len(rec.Candidates))
		s.appendLog(fmt.Sprintf("%s took work elsewhere", rec.Candidates[gone].Name), ToneNeutral)
		rec.Candidates = append(rec.Candidates[:gone], rec.Candidates[gone+1:]...)
	}
	if len(rec.Candidates) < 5 && s.rng.Chance(0.14) {
		c := s.rollCandidate(m.WeekIndex, len(rec.Candidates)+10)
		rec.Candidates = append(rec.Candidates, c)
		s.appendLog(fmt.Sprintf("%s posted a notice seeking %s work", c.Name, c.Role), ToneNeutral)
	}
}

func (s *Sim) findCandidate(id string) (int, *Candidate) {
	rec := &s.state.Manager.Recruitment
	for i := range rec.Candidates {
		if rec.Candidates[i].ID == id {
			return i, &rec.Candidates[i]
		}
	}
	return -1, nil
}
