package tavern

import "fmt"

// Rival taverns drift between aggressive and sloppy via weighted daily moves;
// their aggregate pressure leans on demand, pricing room and reputation.

type Rival struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	District string  `json:"district"`
	Momentum float64 `json:"momentum"` // 0..100, how sharp their operation is
	Pressure float64 `json:"pressure"` // 0..100, how hard they lean on us
	LastMove string  `json:"lastMove,omitempty"`
}

const (
	RivalMoveDiscountBlitz = "discount_blitz"
	RivalMoveShowcase      = "showcase"
	RivalMoveRumorCampaign = "rumor_campaign"
	RivalMoveStumble       = "stumble"
)

type rivalMove struct {
	ID     string
	Weight float64
}

var rivalMoves = []rivalMove{
	{RivalMoveDiscountBlitz, 0.26},
	{RivalMoveShowcase, 0.3},
	{RivalMoveRumorCampaign, 0.18},
	{RivalMoveStumble, 0.26},
}

func (s *Sim) initialRivals() []Rival {
	defs := []struct {
		name, district string
	}{
		{"The Gilded Boar", DistrictLowmarket},
		{"Saltwake Alehouse", DistrictDockside},
		{"The Drowned Anchor", DistrictDockside},
		{"Charter Hall Cellars", DistrictGuildrow},
	}
	rivals := make([]Rival, 0, len(defs))
	for i, d := range defs {
		rivals = append(rivals, Rival{
			ID:       fmt.Sprintf("rival_%d", i+1),
			Name:     d.name,
			District: d.district,
			Momentum: clamp(46+s.rng.Range(-10, 14), 0, 100),
			Pressure: clamp(30+s.rng.Range(-8, 12), 0, 100),
		})
	}
	return rivals
}

// progressRivals rolls one weighted move per rival per day. Momentum makes
// aggressive moves bite harder; a stumble bleeds both gauges.
func (s *Sim) progressRivals() {
	for i := range s.state.World.Rivals {
		r := &s.state.World.Rivals[i]
		roll := s.rng.NextFloat()
		move := rivalMoves[len(rivalMoves)-1].ID
		acc := 0.0
		for _, m := range rivalMoves {
			acc += m.Weight
			if roll < acc {
				move = m.ID
				break
			}
		}
		bite := 0.6 + r.Momentum/100
		switch move {
		case RivalMoveDiscountBlitz:
			r.Pressure = clampStat(r.Pressure + s.rng.Range(2, 5)*bite)
			r.Momentum = clampStat(r.Momentum - s.rng.Range(0, 2)) // blitzes cost them
		case RivalMoveShowcase:
			r.Momentum = clampStat(r.Momentum + s.rng.Range(1.5, 4))
			r.Pressure = clampStat(r.Pressure + s.rng.Range(0.5, 2)*bite)
		case RivalMoveRumorCampaign:
			r.Pressure = clampStat(r.Pressure + s.rng.Range(1, 3)*bite)
		case RivalMoveStumble:
			r.Momentum = clampStat(r.Momentum - s.rng.Range(2, 6))
			r.Pressure = clampStat(r.Pressure - s.rng.Range(2, 6))
		}
		r.LastMove = move
	}
}

// rivalPressure aggregates the field into a 0..1 drag; same-district rivals
// weigh double. The normalizer is the rival count, not the summed weights, so
// a rival moving into our district raises the aggregate instead of washing
// out of the mean.
func (s *Sim) rivalPressure() float64 {
	home := s.state.World.Travel.HomeDistrict
	n := len(s.state.World.Rivals)
	if n == 0 {
		return 0
	}
	var sum float64
	for i := range s.state.World.Rivals {
		r := &s.state.World.Rivals[i]
		w := 1.0
		if r.District == home {
			w = 2.0
		}
		sum += r.Pressure / 100 * w
	}
	return clamp(sum/float64(n), 0, 1)
}

// rivalReputationDrag is the daily reputation cost of rumor pressure.
func (s *Sim) rivalReputationDrag() float64 {
	drag := 0.0
	for i := range s.state.World.Rivals {
		r := &s.state.World.Rivals[i]
		if r.LastMove == RivalMoveRumorCampaign {
			drag += r.Pressure / 100 * 0.5
		}
	}
	return clamp(drag, 0, 1.4)
}
