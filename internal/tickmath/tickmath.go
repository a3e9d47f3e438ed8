// Package tickmath implements tick-grid arithmetic and Q96 sqrt-price
// conversions for concentrated liquidity ranges. Prices follow the
// 1.0001^tick convention; sqrt prices are fixed-point integers scaled by
// 2^96.
package tickmath

import (
	"fmt"
	"math"
	"math/big"
)

// MinTick and MaxTick bound the usable tick grid.
const (
	MinTick int32 = -887272
	MaxTick int32 = 887272
)

var (
	q96      = new(big.Int).Lsh(big.NewInt(1), 96)
	q96Float = new(big.Float).SetPrec(192).SetInt(q96)
	lnBase   = math.Log(1.0001)
	one      = big.NewInt(1)
)

// Q96 returns the 2^96 sqrt-price scaling constant.
func Q96() *big.Int { return new(big.Int).Set(q96) }

// ClampTick bounds tick to the usable grid.
func ClampTick(tick int32) int32 {
	if tick < MinTick {
		return MinTick
	}
	if tick > MaxTick {
		return MaxTick
	}
	return tick
}

// SqrtRatioX96 returns sqrt(1.0001^tick) scaled by 2^96. Out-of-range ticks
// are clamped to the grid.
func SqrtRatioX96(tick int32) *big.Int {
	tick = ClampTick(tick)
	f := new(big.Float).SetPrec(192).SetFloat64(math.Pow(1.0001, float64(tick)/2))
	f.Mul(f, q96Float)
	out, _ := f.Int(nil)
	return out
}

// TickAtSqrtRatio returns the largest tick whose sqrt ratio does not exceed
// the given Q96 value. The float-derived estimate is corrected against the
// integer grid so the result is exact with respect to SqrtRatioX96.
func TickAtSqrtRatio(sqrtPriceX96 *big.Int) int32 {
	ratio, _ := new(big.Float).Quo(new(big.Float).SetInt(sqrtPriceX96), q96Float).Float64()
	var tick int32
	if ratio > 0 && !math.IsInf(ratio, 0) {
		tick = ClampTick(int32(math.Floor(2 * math.Log(ratio) / lnBase)))
	}
	for tick < MaxTick && SqrtRatioX96(tick+1).Cmp(sqrtPriceX96) <= 0 {
		tick++
	}
	for tick > MinTick && SqrtRatioX96(tick).Cmp(sqrtPriceX96) > 0 {
		tick--
	}
	return tick
}

// TickForPrice returns the tick holding the price num/den (quote per asset,
// both in base units). Used to locate the average clearing price on the
// grid.
func TickForPrice(num, den *big.Int) (int32, error) {
	if num == nil || num.Sign() <= 0 {
		return 0, fmt.Errorf("price numerator must be positive, got %v", num)
	}
	if den == nil || den.Sign() <= 0 {
		return 0, fmt.Errorf("price denominator must be positive, got %v", den)
	}
	price := new(big.Float).SetPrec(192).Quo(new(big.Float).SetInt(num), new(big.Float).SetInt(den))
	sqrt := new(big.Float).SetPrec(192).Sqrt(price)
	sqrt.Mul(sqrt, q96Float)
	sqrtX96, _ := sqrt.Int(nil)
	if sqrtX96.Sign() <= 0 {
		return 0, fmt.Errorf("price %v/%v underflows the tick grid", num, den)
	}
	return TickAtSqrtRatio(sqrtX96), nil
}

// AlignTick rounds tick to a multiple of spacing, toward negative infinity
// by default or toward positive infinity when roundUp is set. Already
// aligned ticks are returned unchanged. Spacing must be positive.
func AlignTick(tick, spacing int32, roundUp bool) int32 {
	r := tick % spacing
	if r == 0 {
		return tick
	}
	aligned := tick - r
	if r < 0 {
		aligned -= spacing
	}
	if roundUp {
		aligned += spacing
	}
	return aligned
}
