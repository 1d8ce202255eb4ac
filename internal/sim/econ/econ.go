// Package econ holds the price-elasticity and inventory-sale primitives the
// day pipeline is built on.
package econ

// DemandByPrice maps a posted price against its baseline to a demand
// multiplier. Undercutting the baseline earns at most +15%; overpricing decays
// demand by 25% per baseline step, floored at 60%. At exactly the baseline the
// multiplier is 1.
func DemandByPrice(price, baseline float64) float64 {
	if baseline <= 0 {
		return 1
	}
	ratio := price / baseline
	if ratio <= 1 {
		return 1 + (1-ratio)*0.15
	}
	m := 1 - (ratio-1)*0.25
	if m < 0.6 {
		m = 0.6
	}
	return m
}

// SellFromInventory removes up to wanted units of item from inv and returns
// the amount actually sold. Stock never goes negative.
func SellFromInventory(inv map[string]int, item string, wanted int) int {
	if wanted <= 0 {
		return 0
	}
	have := inv[item]
	if have <= 0 {
		return 0
	}
	sold := wanted
	if sold > have {
		sold = have
	}
	inv[item] = have - sold
	return sold
}
