package auction

import (
	"math/big"

	"liquidityAuction/internal/tickmath"
)

// wad is the 1e18 fixed-point scale shared by the tick accumulator and all
// time and sale fractions.
var wad = big.NewInt(1_000_000_000_000_000_000)

// mulDivWad returns a*b/wad truncated toward zero.
func mulDivWad(a, b *big.Int) *big.Int {
	out := new(big.Int).Mul(a, b)
	return out.Quo(out, wad)
}

// clampAbs saturates x into [-bound, bound]. bound must be non-negative.
func clampAbs(x, bound *big.Int) *big.Int {
	neg := new(big.Int).Neg(bound)
	if x.Cmp(neg) < 0 {
		return neg
	}
	if x.Cmp(bound) > 0 {
		return new(big.Int).Set(bound)
	}
	return x
}

// clampTick64 bounds an int64 tick computation back onto the int32 grid.
func clampTick64(x int64) int32 {
	if x < int64(tickmath.MinTick) {
		return tickmath.MinTick
	}
	if x > int64(tickmath.MaxTick) {
		return tickmath.MaxTick
	}
	return int32(x)
}
