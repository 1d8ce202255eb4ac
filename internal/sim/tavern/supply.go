package tavern

import "fmt"

// Supply quality/freshness model: daily decay, spoilage discard, and the
// ingredient-blend score that turns raw supply stats into a production
// quality multiplier.

const hygienePenaltyBelow = 52.0

type spoilageLoss struct {
	Item   string `json:"item"`
	Units  int    `json:"units"`
	Reason string `json:"reason"`
}

// applySupplySpoilage decays freshness on every tracked supply and discards a
// slice of any stock that has slipped under its spoil threshold. Wood has a
// negative threshold and never spoils.
func (s *Sim) applySupplySpoilage() []spoilageLoss {
	st := s.state
	var losses []spoilageLoss
	for _, item := range supplyItems() {
		meta := supplyMeta[item]
		stat, ok := st.SupplyStats[item]
		if !ok {
			continue
		}
		decay := s.rng.Range(meta.SpoilLossMin, meta.SpoilLossMax)
		if meta.Perishable && st.Cleanliness < hygienePenaltyBelow {
			decay += (hygienePenaltyBelow - st.Cleanliness) / 26
		}
		stat.Freshness = clampStat(stat.Freshness - decay)

		if meta.SpoilAt >= 0 && stat.Freshness < meta.SpoilAt && st.Inventory[item] > 0 {
			gap := meta.SpoilAt - stat.Freshness
			frac := 0.03 + gap/120
			units := int(float64(st.Inventory[item]) * frac)
			if units < 1 {
				units = 1
			}
			if units > st.Inventory[item] {
				units = st.Inventory[item]
			}
			st.Inventory[item] -= units
			losses = append(losses, spoilageLoss{Item: item, Units: units, Reason: "spoiled"})
			// Discarding the worst of the stock pulls freshness back up a bit.
			stat.Freshness = clampStat(stat.Freshness + gap*0.5)
		}
		st.SupplyStats[item] = stat
	}
	for _, l := range losses {
		s.appendLog(fmtSpoilage(l), ToneBad)
	}
	return losses
}

func fmtSpoilage(l spoilageLoss) string {
	return fmt.Sprintf("Spoilage: discarded %d %s", l.Units, l.Item)
}

// evaluateIngredientBlend scores a craft's consumed supplies. The blend score
// is a quality/freshness weighted average; the returned multiplier is centered
// on a score of 60 and clamped to [0.82, 1.12].
func (s *Sim) evaluateIngredientBlend(consumes map[string]int) (score, multiplier float64) {
	st := s.state
	var wq, wf, weight float64
	for _, item := range supplyItems() {
		units := consumes[item]
		if units <= 0 {
			continue
		}
		stat, ok := st.SupplyStats[item]
		if !ok {
			stat = SupplyStat{Quality: supplyMeta[item].BaseQuality, Freshness: 70}
		}
		w := float64(units)
		wq += stat.Quality * w
		wf += stat.Freshness * w
		weight += w
	}
	if weight == 0 {
		return 58, 1
	}
	score = (wq/weight)*0.62 + (wf/weight)*0.38
	multiplier = clamp(1+(score-60)/200, 0.82, 1.12)
	return score, multiplier
}

// recordProduction tracks crafted quality for the day's satisfaction math.
func (s *Sim) recordProduction(score float64, units int) {
	if units <= 0 {
		return
	}
	s.state.DayQuality.Sum += score * float64(units)
	s.state.DayQuality.Units += units
}

// blendSupplyStat folds bought units into the tracked quality/freshness as a
// stock-weighted average.
func (s *Sim) blendSupplyStat(item string, units int, quality, freshness float64) {
	st := s.state
	have := st.Inventory[item]
	stat, ok := st.SupplyStats[item]
	if !ok || have <= 0 {
		st.SupplyStats[item] = SupplyStat{Quality: clampStat(quality), Freshness: clampStat(freshness)}
		return
	}
	total := float64(have + units)
	stat.Quality = clampStat((stat.Quality*float64(have) + quality*float64(units)) / total)
	stat.Freshness = clampStat((stat.Freshness*float64(have) + freshness*float64(units)) / total)
	st.SupplyStats[item] = stat
}

