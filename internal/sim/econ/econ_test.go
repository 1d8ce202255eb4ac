package econ

import "testing"

func TestDemandByPrice(t *testing.T) {
	cases := []struct {
		name            string
		price, baseline float64
		want            float64
	}{
		{"at baseline", 8, 8, 1},
		{"free", 0, 8, 1.15},
		{"half price", 4, 8, 1.075},
		{"double price", 16, 8, 0.75},
		{"extreme price floors", 80, 8, 0.6},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DemandByPrice(tc.price, tc.baseline)
			if diff := got - tc.want; diff > 1e-12 || diff < -1e-12 {
				t.Fatalf("DemandByPrice(%v,%v) = %v, want %v", tc.price, tc.baseline, got, tc.want)
			}
		})
	}
}

func TestDemandByPriceBaselineExact(t *testing.T) {
	// Ratio 1 must hit the discount branch and yield exactly 1, with no
	// floating-point ambiguity between the two branches.
	for _, b := range []float64{1, 3, 7, 8, 11, 40} {
		if got := DemandByPrice(b, b); got != 1 {
			t.Fatalf("DemandByPrice(%v,%v) = %v, want exactly 1", b, b, got)
		}
	}
}

func TestSellFromInventory(t *testing.T) {
	inv := map[string]int{"ale": 5}

	if sold := SellFromInventory(inv, "ale", 3); sold != 3 || inv["ale"] != 2 {
		t.Fatalf("partial sale: sold=%d stock=%d", sold, inv["ale"])
	}
	if sold := SellFromInventory(inv, "ale", 10); sold != 2 || inv["ale"] != 0 {
		t.Fatalf("clamped sale: sold=%d stock=%d", sold, inv["ale"])
	}
	if sold := SellFromInventory(inv, "ale", 1); sold != 0 || inv["ale"] != 0 {
		t.Fatalf("empty sale: sold=%d stock=%d", sold, inv["ale"])
	}
	if sold := SellFromInventory(inv, "stew", -2); sold != 0 {
		t.Fatalf("negative want sold %d", sold)
	}
}
