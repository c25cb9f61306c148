package orderbook

import "math"

// totalLess compares two prices under the IEEE-754 totalOrder predicate:
// -NaN < -Inf < negatives < -0 < +0 < positives < +Inf < +NaN.
// Unlike <, it is defined for every pair of float64 values, so the price
// tree never sees an unordered pair.
func totalLess(a, b float64) bool {
	return totalOrderKey(a) < totalOrderKey(b)
}

func totalOrderKey(f float64) int64 {
	b := int64(math.Float64bits(f))
	if b < 0 {
		b ^= math.MaxInt64
	}
	return b
}
