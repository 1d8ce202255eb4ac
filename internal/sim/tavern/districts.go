package tavern

import "fmt"

// Districts are static geography: each has its own demand/supply texture,
// event odds and travel cost. The tavern sits in one; stock runs visit the
// others.

const (
	DistrictLowmarket  = "lowmarket"
	DistrictDockside   = "dockside"
	DistrictGuildrow   = "guildrow"
	DistrictCastleRise = "castle_rise"
)

type districtInfo struct {
	Name            string
	EventChanceMult float64
	DemandMult      float64
	SupplyCostMult  float64
	TravelDays      int // one way, from lowmarket
	RouteCost       float64
}

var districtTable = map[string]districtInfo{
	DistrictLowmarket:  {Name: "Lowmarket", EventChanceMult: 1.0, DemandMult: 1.0, SupplyCostMult: 1.0, TravelDays: 0, RouteCost: 0},
	DistrictDockside:   {Name: "Dockside", EventChanceMult: 1.2, DemandMult: 0.95, SupplyCostMult: 0.85, TravelDays: 1, RouteCost: 6},
	DistrictGuildrow:   {Name: "Guildrow", EventChanceMult: 0.9, DemandMult: 1.05, SupplyCostMult: 1.1, TravelDays: 1, RouteCost: 8},
	DistrictCastleRise: {Name: "Castle Rise", EventChanceMult: 0.8, DemandMult: 1.12, SupplyCostMult: 1.25, TravelDays: 2, RouteCost: 14},
}

// districtOrder fixes iteration order for anything that walks the map.
var districtOrder = []string{DistrictLowmarket, DistrictDockside, DistrictGuildrow, DistrictCastleRise}

// TravelState tracks the home district and at most one in-flight stock run.
type TravelState struct {
	HomeDistrict string    `json:"homeDistrict"`
	Active       *StockRun `json:"active,omitempty"`
}

// StockRun is the city-stock-run mini transaction: a worker escorts the cart
// to another district's market, buys against a budget, and hauls it home.
type StockRun struct {
	StaffID   string         `json:"staffId"`
	StaffName string         `json:"staffName"`
	District  string         `json:"district"`
	DepartDay int            `json:"departDay"`
	ArriveDay int            `json:"arriveDay"`
	ReturnDay int            `json:"returnDay"`
	Budget    float64        `json:"budget"`
	Spent     float64        `json:"spent"`
	Bought    map[string]int `json:"bought,omitempty"`
}

// staffOnErrand reports whether the worker is away on a stock run. Errand
// workers are out of capacity and shift draws but stay on payroll, same as
// the injured.
func (s *Sim) staffOnErrand(id string) bool {
	run := s.state.World.Travel.Active
	return run != nil && run.StaffID == id
}

// advanceDistrictTravel moves the in-flight stock run along: buying at the
// market on arrival day, delivering on return day.
func (s *Sim) advanceDistrictTravel() {
	st := s.state
	run := st.World.Travel.Active
	if run == nil {
		return
	}
	if st.Day == run.ArriveDay {
		s.executeStockRunPurchase(run)
	}
	if st.Day >= run.ReturnDay {
		for _, item := range supplyItems() {
			units := run.Bought[item]
			if units <= 0 {
				continue
			}
			market := st.World.Supplier.Markets[run.District]
			q, f := supplyMeta[item].BaseQuality, 78.0
			if market != nil {
				q = clampStat(supplyMeta[item].BaseQuality + market.QualityEdge)
				f = clampStat(78 - float64(districtTable[run.District].TravelDays)*4)
			}
			s.blendSupplyStat(item, units, q, f)
			st.Inventory[item] += units
		}
		s.appendLog(fmt.Sprintf("%s returned from %s with the supply cart (%d gold spent)",
			run.StaffName, districtTable[run.District].Name, int(run.Spent)), ToneGood)
		st.World.Travel.Active = nil
	}
}

// executeStockRunPurchase spends the run's budget at the destination market
// against the supply planner's targets.
func (s *Sim) executeStockRunPurchase(run *StockRun) {
	st := s.state
	market := st.World.Supplier.Markets[run.District]
	if market == nil {
		return
	}
	if run.Bought == nil {
		run.Bought = map[string]int{}
	}
	info := districtTable[run.District]
	for _, item := range supplyItems() {
		target := st.Manager.SupplyPlanner.Targets[item]
		gap := target - st.Inventory[item]
		if gap <= 0 {
			continue
		}
		unitCost := supplyMeta[item].BaseCost * info.SupplyCostMult * market.PriceMult
		if unitCost <= 0 {
			continue
		}
		affordable := int((run.Budget - run.Spent) / unitCost)
		units := gap
		if units > affordable {
			units = affordable
		}
		avail := marketAvailable(market, item)
		if units > avail {
			units = avail
		}
		if units <= 0 {
			continue
		}
		market.Stock[item] -= units
		run.Bought[item] += units
		run.Spent += float64(units) * unitCost
	}
}
