package tavern

import "fmt"

// Supplier-market simulation: per-district stock pools, contract timers and
// the merchant/caravan visit windows that swing availability and price.

type SupplierNetwork struct {
	Markets map[string]*DistrictMarket `json:"markets"`

	// Contract timers, in days remaining.
	LocalBrokerDays int `json:"localBrokerDays"`
	WholesaleDays   int `json:"wholesaleDays"`

	MerchantVisitFrom  int `json:"merchantVisitFrom"`
	MerchantVisitUntil int `json:"merchantVisitUntil"`
	CaravanFrom        int `json:"caravanFrom"`
	CaravanUntil       int `json:"caravanUntil"`
}

type DistrictMarket struct {
	District    string         `json:"district"`
	Stock       map[string]int `json:"stock"`
	Reliability float64        `json:"reliability"` // 0.4..0.98
	PriceMult   float64        `json:"priceMult"`
	QualityEdge float64        `json:"qualityEdge"`
}

const (
	marketStockCap    = 180
	brokerBasketCost  = 11.0
	wholesaleDiscount = 0.88
)

// marketBaseStock is the level each market restocks toward.
var marketBaseStock = map[string]int{
	ItemGrain: 90, ItemHops: 70, ItemMeat: 55, ItemVeg: 70,
	ItemBread: 60, ItemSpice: 26, ItemWood: 110,
}

func (s *Sim) initialSupplierNetwork() SupplierNetwork {
	net := SupplierNetwork{Markets: map[string]*DistrictMarket{}}
	for _, d := range districtOrder {
		m := &DistrictMarket{
			District:    d,
			Stock:       map[string]int{},
			Reliability: clamp(0.72+s.rng.Range(-0.1, 0.14), 0.4, 0.98),
			PriceMult:   clamp(1+s.rng.Range(-0.08, 0.1), 0.8, 1.3),
			QualityEdge: s.rng.Range(-4, 6),
		}
		for _, item := range supplyItems() {
			base := marketBaseStock[item]
			m.Stock[item] = clampInt(base+s.rng.RandomInt(-base/4, base/4), 0, marketStockCap)
		}
		net.Markets[d] = m
	}
	net.MerchantVisitFrom = 2 + s.rng.RandomInt(0, 3)
	net.MerchantVisitUntil = net.MerchantVisitFrom + s.rng.RandomInt(1, 2)
	net.CaravanFrom = 6 + s.rng.RandomInt(0, 5)
	net.CaravanUntil = net.CaravanFrom + s.rng.RandomInt(1, 2)
	return net
}

func (s *Sim) homeMarket() *DistrictMarket {
	return s.state.World.Supplier.Markets[s.state.World.Travel.HomeDistrict]
}

// marketAvailable applies the lot availability buffer: a slice of the posted
// stock is always held back for other buyers.
func marketAvailable(m *DistrictMarket, item string) int {
	stock := m.Stock[item]
	buffer := 2 + stock/12
	avail := stock - buffer
	if avail < 0 {
		return 0
	}
	return avail
}

func (net *SupplierNetwork) merchantVisitActive(day int) bool {
	return day >= net.MerchantVisitFrom && day <= net.MerchantVisitUntil
}

func (net *SupplierNetwork) caravanActive(day int) bool {
	return day >= net.CaravanFrom && day <= net.CaravanUntil
}

// effectiveMarketPriceMult is the home market price after visit windows and
// the wholesale contract.
func (s *Sim) effectiveMarketPriceMult(m *DistrictMarket) float64 {
	net := &s.state.World.Supplier
	mult := m.PriceMult
	if net.merchantVisitActive(s.state.Day) {
		mult *= 0.93
	}
	if net.caravanActive(s.state.Day) {
		mult *= 0.88
	}
	if net.WholesaleDays > 0 {
		mult *= wholesaleDiscount
	}
	return mult
}

// progressSupplierNetwork restocks markets, drifts reliability, rolls the
// visit windows forward and services the broker contract.
func (s *Sim) progressSupplierNetwork(mods WorldRuntimeModifiers) {
	st := s.state
	net := &st.World.Supplier

	for _, d := range districtOrder {
		m := net.Markets[d]
		if m == nil {
			continue
		}
		for _, item := range supplyItems() {
			base := marketBaseStock[item]
			gap := base - m.Stock[item]
			refill := 0
			if gap > 0 {
				refill = int(float64(gap) * 0.3 * m.Reliability * mods.SupplyReliabilityMult)
				if refill < 1 {
					refill = 1
				}
			}
			drain := s.rng.RandomInt(0, 4)
			m.Stock[item] = clampInt(m.Stock[item]+refill-drain, 0, marketStockCap)
		}
		m.Reliability = clamp(m.Reliability+s.rng.Range(-0.02, 0.02), 0.4, 0.98)
		m.PriceMult = clamp(m.PriceMult+s.rng.Range(-0.015, 0.015), 0.8, 1.3)
	}

	// Visit windows re-randomize after they lapse.
	if st.Day > net.MerchantVisitUntil {
		net.MerchantVisitFrom = st.Day + s.rng.RandomInt(2, 6)
		net.MerchantVisitUntil = net.MerchantVisitFrom + s.rng.RandomInt(1, 3)
	}
	if st.Day > net.CaravanUntil {
		net.CaravanFrom = st.Day + s.rng.RandomInt(5, 12)
		net.CaravanUntil = net.CaravanFrom + s.rng.RandomInt(1, 2)
		if net.caravanActive(st.Day) {
			s.appendLog("A trade caravan is unloading in the district", ToneGood)
		}
	}
	if net.merchantVisitActive(st.Day) {
		// Visiting merchants top up the home market.
		if m := s.homeMarket(); m != nil {
			for _, item := range supplyItems() {
				m.Stock[item] = clampInt(m.Stock[item]+s.rng.RandomInt(2, 6), 0, marketStockCap)
			}
		}
	}

	if net.LocalBrokerDays > 0 {
		net.LocalBrokerDays--
		s.deliverBrokerBasket()
	}
	if net.WholesaleDays > 0 {
		net.WholesaleDays--
		if net.WholesaleDays == 0 {
			s.appendLog("The wholesale contract has lapsed", ToneNeutral)
		}
	}
}

// deliverBrokerBasket is the local broker's daily drop: a small mixed basket
// billed at a flat rate. Skipped, with a note, when the till cannot cover it.
func (s *Sim) deliverBrokerBasket() {
	st := s.state
	if st.Gold < brokerBasketCost {
		s.appendLog("The broker skipped today's delivery: the till could not cover it", ToneBad)
		return
	}
	st.Gold -= brokerBasketCost
	basket := map[string]int{ItemGrain: 3, ItemHops: 2, ItemMeat: 2, ItemVeg: 3, ItemBread: 2}
	for _, item := range supplyItems() {
		units := basket[item]
		if units == 0 {
			continue
		}
		meta := supplyMeta[item]
		q := clampStat(meta.BaseQuality + s.rng.Range(-meta.QualityVariance, meta.QualityVariance))
		s.blendSupplyStat(item, units, q, clampStat(84+s.rng.Range(-4, 6)))
		st.Inventory[item] += units
	}
	if st.World.Supplier.LocalBrokerDays == 0 {
		s.appendLog("The local broker contract has ended", ToneNeutral)
	}
}

// buySupplyQuote prices units of item at the home market for the buy action.
type supplyQuote struct {
	Units     int
	UnitCost  float64
	Total     float64
	Delivered int
}

// quoteSupply computes availability and cost; the reliability roll decides
// how much of the lot actually shows up.
func (s *Sim) quoteSupply(m *DistrictMarket, item string, units int, mods WorldRuntimeModifiers) supplyQuote {
	info := districtTable[s.state.World.Travel.HomeDistrict]
	unitCost := supplyMeta[item].BaseCost * info.SupplyCostMult * s.effectiveMarketPriceMult(m) * mods.SupplyCostMult
	delivered := units
	frac := clamp(m.Reliability*mods.SupplyReliabilityMult+s.rng.Range(-0.05, 0.05), 0.55, 1)
	delivered = int(float64(units)*frac + 0.5)
	if delivered < 1 {
		delivered = 1
	}
	if delivered > units {
		delivered = units
	}
	return supplyQuote{
		Units:     units,
		UnitCost:  unitCost,
		Total:     float64(delivered) * unitCost,
		Delivered: delivered,
	}
}

func describeContract(days int) string {
	if days <= 0 {
		return "inactive"
	}
	return fmt.Sprintf("%d days remaining", days)
}
