package tavern

// Season timeline, derived from the day counter: four 28-day seasons to a
// 112-day year.

type Timeline struct {
	Season string `json:"season"`
	Year   int    `json:"year"`
}

const (
	seasonLengthDays = 28
	seasonsPerYear   = 4
)

var seasonOrder = []string{"spring", "summer", "autumn", "winter"}

// seasonDemandMult captures the foot-traffic swing across the year.
var seasonDemandMult = map[string]float64{
	"spring": 1.0,
	"summer": 1.06,
	"autumn": 1.02,
	"winter": 0.92,
}

func timelineForDay(day int) Timeline {
	idx := (day - 1) / seasonLengthDays
	return Timeline{
		Season: seasonOrder[idx%seasonsPerYear],
		Year:   idx/seasonsPerYear + 1,
	}
}

// refreshSeasonTimeline recomputes the timeline and logs season turns.
func (s *Sim) refreshSeasonTimeline() {
	m := &s.state.Manager
	next := timelineForDay(s.state.Day)
	if next.Season != m.Timeline.Season && m.Timeline.Season != "" {
		s.appendLog("The season turns: "+next.Season, ToneNeutral)
	}
	m.Timeline = next
}
