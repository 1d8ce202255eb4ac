package tavern

import "fmt"

// Scouting: paid looks at other districts, and the rumor mill. Rumors carry
// an unknown truth state until their resolve day, when they either firm up
// into fact or dissolve.

type ScoutReport struct {
	ID       string `json:"id"`
	Day      int    `json:"day"`
	District string `json:"district"`
	Detail   string `json:"detail"`
}

type Rumor struct {
	ID         string `json:"id"`
	Day        int    `json:"day"`
	Text       string `json:"text"`
	Subject    string `json:"subject,omitempty"` // rival id, if about one
	Truth      string `json:"truth"`             // unknown | true | false
	ResolveDay int    `json:"resolveDay"`
}

type Scouting struct {
	Reports []ScoutReport `json:"reports,omitempty"`
	Rumors  []Rumor       `json:"rumors,omitempty"`
}

const (
	scoutingReportCap = 14
	rumorCap          = 10
)

func (s *Sim) addScoutReport(district, detail string) ScoutReport {
	sc := &s.state.Manager.Scouting
	report := ScoutReport{
		ID:       fmt.Sprintf("scout_d%d_%s", s.state.Day, s.rng.RandomID(4)),
		Day:      s.state.Day,
		District: district,
		Detail:   detail,
	}
	sc.Reports = append(sc.Reports, report)
	if len(sc.Reports) > scoutingReportCap {
		sc.Reports = sc.Reports[len(sc.Reports)-scoutingReportCap:]
	}
	return report
}

// spawnRumor seeds an unresolved rumor, usually about a rival.
func (s *Sim) spawnRumor() {
	sc := &s.state.Manager.Scouting
	if len(sc.Rumors) >= rumorCap {
		return
	}
	rivals := s.state.World.Rivals
	if len(rivals) == 0 {
		return
	}
	r := rivals[s.rng.PickIndex(len(rivals))]
	texts := []string{
		"%s is said to be planning a price war",
		"%s supposedly lost its cook to a guild kitchen",
		"%s may be hosting a guild feast next week",
	}
	text := fmt.Sprintf(texts[s.rng.PickIndex(len(texts))], r.Name)
	sc.Rumors = append(sc.Rumors, Rumor{
		ID:         fmt.Sprintf("rumor_d%d_%s", s.state.Day, s.rng.RandomID(4)),
		Day:        s.state.Day,
		Text:       text,
		Subject:    r.ID,
		Truth:      "unknown",
		ResolveDay: s.state.Day + s.rng.RandomInt(2, 4),
	})
	s.appendLog("A rumor is making the rounds: "+text, ToneNeutral)
}

// resolveRumors settles any rumor whose day has come. A confirmed rumor about
// a rival nudges that rival's gauges; a dissolved one just clears.
func (s *Sim) resolveRumors() {
	sc := &s.state.Manager.Scouting
	for i := range sc.Rumors {
		r := &sc.Rumors[i]
		if r.Truth != "unknown" || s.state.Day < r.ResolveDay {
			continue
		}
		if s.rng.Chance(0.45) {
			r.Truth = "true"
			for j := range s.state.World.Rivals {
				if s.state.World.Rivals[j].ID == r.Subject {
					s.state.World.Rivals[j].Pressure = clampStat(s.state.World.Rivals[j].Pressure + s.rng.Range(2, 5))
				}
			}
			s.appendLog("Rumor confirmed: "+r.Text, ToneBad)
		} else {
			r.Truth = "false"
			s.appendLog("Rumor dissolved: "+r.Text, ToneNeutral)
		}
	}
	// Resolved rumors age out once they are a few days old.
	kept := sc.Rumors[:0]
	for _, r := range sc.Rumors {
		if r.Truth == "unknown" || s.state.Day-r.ResolveDay < 3 {
			kept = append(kept, r)
		}
	}
	sc.Rumors = kept
}
