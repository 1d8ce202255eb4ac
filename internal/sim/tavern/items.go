package tavern

// Inventory keys. Products are sold over the bar; supplies are consumed by
// crafting. Bread is both: bought from the market and sold as-is.
const (
	ItemAle   = "ale"
	ItemStew  = "stew"
	ItemBread = "bread"
	ItemRoom  = "room"

	ItemGrain = "grain"
	ItemHops  = "hops"
	ItemMeat  = "meat"
	ItemVeg   = "veg"
	ItemSpice = "spice"
	ItemWood  = "wood"
)

var priceBaselines = map[string]int{
	ItemAle:   4,
	ItemStew:  6,
	ItemBread: 2,
	ItemRoom:  10,
}

// menuProducts is the sellable surface, in stable order for deterministic
// iteration inside the day pipeline.
var menuProducts = []string{ItemAle, ItemStew, ItemBread, ItemRoom}

// roomCapacity bounds lodging sales; rooms are not inventory-backed.
const roomCapacity = 8

type supplyInfo struct {
	BaseQuality     float64
	QualityVariance float64
	SpoilLossMin    float64 // freshness decay per day
	SpoilLossMax    float64
	SpoilAt         float64 // freshness threshold below which stock is discarded
	Perishable      bool    // subject to the hygiene penalty
	BaseCost        float64 // market reference cost per unit
}

var supplyMeta = map[string]supplyInfo{
	ItemGrain: {BaseQuality: 58, QualityVariance: 9, SpoilLossMin: 1.2, SpoilLossMax: 2.6, SpoilAt: 16, BaseCost: 1.2},
	ItemHops:  {BaseQuality: 60, QualityVariance: 10, SpoilLossMin: 1.4, SpoilLossMax: 3.0, SpoilAt: 18, BaseCost: 1.6},
	ItemMeat:  {BaseQuality: 62, QualityVariance: 12, SpoilLossMin: 3.4, SpoilLossMax: 6.2, SpoilAt: 34, Perishable: true, BaseCost: 3.4},
	ItemVeg:   {BaseQuality: 57, QualityVariance: 11, SpoilLossMin: 2.8, SpoilLossMax: 5.2, SpoilAt: 30, Perishable: true, BaseCost: 1.8},
	ItemBread: {BaseQuality: 55, QualityVariance: 8, SpoilLossMin: 3.0, SpoilLossMax: 5.6, SpoilAt: 32, Perishable: true, BaseCost: 1.0},
	ItemSpice: {BaseQuality: 66, QualityVariance: 14, SpoilLossMin: 0.6, SpoilLossMax: 1.4, SpoilAt: 8, BaseCost: 4.2},
	// Wood never spoils.
	ItemWood: {BaseQuality: 50, QualityVariance: 6, SpoilLossMin: 0, SpoilLossMax: 0, SpoilAt: -1, BaseCost: 0.8},
}

// supplyItems returns the supply keys in stable order.
func supplyItems() []string {
	return []string{ItemGrain, ItemHops, ItemMeat, ItemVeg, ItemBread, ItemSpice, ItemWood}
}

type recipe struct {
	Output   string
	Batch    int // units produced per craft
	GoldCost float64
	Consumes map[string]int
}

var recipes = map[string]recipe{
	ItemAle: {
		Output:   ItemAle,
		Batch:    8,
		GoldCost: 2,
		Consumes: map[string]int{ItemGrain: 4, ItemHops: 3, ItemWood: 2},
	},
	ItemStew: {
		Output:   ItemStew,
		Batch:    6,
		GoldCost: 3,
		Consumes: map[string]int{ItemMeat: 3, ItemVeg: 3, ItemSpice: 1, ItemWood: 2},
	},
}
