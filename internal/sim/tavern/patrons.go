package tavern

import "fmt"

// Patron pool: created once at game start, never destroyed. Each day a
// sampled subset "visits" and has its loyalty nudged by how the house treated
// it; the pool average feeds back into demand.

type cohortParams struct {
	Weight           float64
	PriceSensitivity float64 // scales the price term
	QualityNeed      float64 // quality score this cohort expects
	Preferences      []string
}

var cohortTable = map[Cohort]cohortParams{
	CohortLocals:      {Weight: 0.38, PriceSensitivity: 1.25, QualityNeed: 48, Preferences: []string{ItemAle, ItemBread, ItemStew}},
	CohortAdventurers: {Weight: 0.26, PriceSensitivity: 0.9, QualityNeed: 54, Preferences: []string{ItemStew, ItemAle, ItemRoom}},
	CohortMerchants:   {Weight: 0.22, PriceSensitivity: 1.0, QualityNeed: 60, Preferences: []string{ItemRoom, ItemStew, ItemAle}},
	CohortNobles:      {Weight: 0.14, PriceSensitivity: 0.55, QualityNeed: 72, Preferences: []string{ItemRoom, ItemStew}},
}

// cohortOrder keeps every cohort iteration deterministic.
var cohortOrder = []Cohort{CohortLocals, CohortAdventurers, CohortMerchants, CohortNobles}

var patronNames = []string{
	"Aldric", "Bessa", "Corin", "Dunstan", "Edda", "Fenwick", "Greta", "Hobb",
	"Isolde", "Jory", "Kestrel", "Lamber", "Mira", "Nolan", "Osric", "Petra",
	"Quill", "Rosamund", "Sorley", "Tamsin", "Ulric", "Verena", "Wendel", "Ysolt",
}

func (s *Sim) rollCohort() Cohort {
	roll := s.rng.NextFloat()
	acc := 0.0
	for _, c := range cohortOrder {
		acc += cohortTable[c].Weight
		if roll < acc {
			return c
		}
	}
	return CohortNobles
}

func (s *Sim) initialPatrons() []Patron {
	pool := make([]Patron, 0, s.tun.PatronPoolSize)
	for i := 0; i < s.tun.PatronPoolSize; i++ {
		cohort := s.rollCohort()
		params := cohortTable[cohort]
		pool = append(pool, Patron{
			ID:         fmt.Sprintf("p_%03d", i+1),
			Name:       patronNames[s.rng.PickIndex(len(patronNames))],
			Cohort:     cohort,
			Preference: params.Preferences[s.rng.PickIndex(len(params.Preferences))],
			Loyalty:    clampStat(40 + s.rng.Range(-8, 14)),
		})
	}
	return pool
}

// sampleVisitorIndexes picks the day's visiting subset with a partial
// Fisher–Yates shuffle over patron indexes.
func (s *Sim) sampleVisitorIndexes(guests int) []int {
	st := s.state
	n := len(st.Patrons)
	if n == 0 {
		return nil
	}
	want := int(float64(guests) * 0.44)
	if want < 5 {
		want = 5
	}
	if want > n {
		want = n
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	for i := 0; i < want; i++ {
		j := i + s.rng.PickIndex(n-i)
		idx[i], idx[j] = idx[j], idx[i]
	}
	return idx[:want]
}

const maxLoyaltySwing = 2.8

// updatePatronLoyalty adjusts each visitor's loyalty from fulfillment, the
// price it saw on its preferred product, and production quality.
func (s *Sim) updatePatronLoyalty(guests int, fulfillment, qualityScore float64) {
	st := s.state
	for _, i := range s.sampleVisitorIndexes(guests) {
		p := &st.Patrons[i]
		params := cohortTable[p.Cohort]

		delta := (fulfillment - 0.7) * 2.3

		baseline := float64(priceBaselines[p.Preference])
		if baseline > 0 {
			price := float64(st.Prices[p.Preference])
			ratio := price / baseline
			delta += (1 - ratio) * 1.15 * params.PriceSensitivity
		}

		delta += (qualityScore - params.QualityNeed) / 34
		delta += s.rng.Range(-0.35, 0.35)

		delta = clamp(delta, -maxLoyaltySwing, maxLoyaltySwing)
		p.Loyalty = clampStat(p.Loyalty + delta)
		p.Visits++
	}
}

func (s *Sim) averageLoyalty() float64 {
	st := s.state
	if len(st.Patrons) == 0 {
		return 50
	}
	sum := 0.0
	for i := range st.Patrons {
		sum += st.Patrons[i].Loyalty
	}
	return sum / float64(len(st.Patrons))
}

// loyaltyDemandMultiplier aggregates the pool into a demand factor.
func (s *Sim) loyaltyDemandMultiplier() float64 {
	return clamp(0.86+s.averageLoyalty()/245, 0.88, 1.16)
}

// cohortLoyaltyAverages reports per-cohort loyalty for the reputation model.
func (s *Sim) cohortLoyaltyAverages() map[Cohort]float64 {
	sums := map[Cohort]float64{}
	counts := map[Cohort]int{}
	for i := range s.state.Patrons {
		p := &s.state.Patrons[i]
		sums[p.Cohort] += p.Loyalty
		counts[p.Cohort]++
	}
	out := map[Cohort]float64{}
	for _, c := range cohortOrder {
		if counts[c] == 0 {
			out[c] = 50
			continue
		}
		out[c] = sums[c] / float64(counts[c])
	}
	return out
}
