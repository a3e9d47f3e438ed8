package tickmath

import "math/big"

// LiquidityForAmount0 returns the largest liquidity L such that holding L
// over [sqrtA, sqrtB] requires no more than amount0 of the tick-upper-side
// token. The bounds may be passed in either order.
func LiquidityForAmount0(sqrtA, sqrtB, amount0 *big.Int) *big.Int {
	sqrtA, sqrtB = sortSqrt(sqrtA, sqrtB)
	span := new(big.Int).Sub(sqrtB, sqrtA)
	if span.Sign() <= 0 {
		return new(big.Int)
	}
	// L = amount0 * (sqrtA * sqrtB / Q96) / (sqrtB - sqrtA)
	l := new(big.Int).Mul(sqrtA, sqrtB)
	l.Quo(l, q96)
	l.Mul(l, amount0)
	return l.Quo(l, span)
}

// LiquidityForAmount1 returns the largest liquidity L such that holding L
// over [sqrtA, sqrtB] requires no more than amount1 of the tick-lower-side
// token.
func LiquidityForAmount1(sqrtA, sqrtB, amount1 *big.Int) *big.Int {
	sqrtA, sqrtB = sortSqrt(sqrtA, sqrtB)
	span := new(big.Int).Sub(sqrtB, sqrtA)
	if span.Sign() <= 0 {
		return new(big.Int)
	}
	// L = amount1 * Q96 / (sqrtB - sqrtA)
	l := new(big.Int).Mul(amount1, q96)
	return l.Quo(l, span)
}

// Amount0ForLiquidity returns the tick-upper-side token amount owed by
// liquidity over [sqrtA, sqrtB].
func Amount0ForLiquidity(sqrtA, sqrtB, liquidity *big.Int, roundUp bool) *big.Int {
	sqrtA, sqrtB = sortSqrt(sqrtA, sqrtB)
	span := new(big.Int).Sub(sqrtB, sqrtA)
	if span.Sign() <= 0 || liquidity.Sign() <= 0 {
		return new(big.Int)
	}
	// amount0 = L * Q96 * (sqrtB - sqrtA) / (sqrtB * sqrtA)
	num := new(big.Int).Mul(liquidity, q96)
	num.Mul(num, span)
	den := new(big.Int).Mul(sqrtA, sqrtB)
	return div(num, den, roundUp)
}

// Amount1ForLiquidity returns the tick-lower-side token amount owed by
// liquidity over [sqrtA, sqrtB].
func Amount1ForLiquidity(sqrtA, sqrtB, liquidity *big.Int, roundUp bool) *big.Int {
	sqrtA, sqrtB = sortSqrt(sqrtA, sqrtB)
	span := new(big.Int).Sub(sqrtB, sqrtA)
	if span.Sign() <= 0 || liquidity.Sign() <= 0 {
		return new(big.Int)
	}
	// amount1 = L * (sqrtB - sqrtA) / Q96
	num := new(big.Int).Mul(liquidity, span)
	return div(num, q96, roundUp)
}

// NextSqrtPriceFromAmount1In returns the sqrt price after amount1 of the
// lower-side token is added to a range with the given liquidity. The price
// moves up.
func NextSqrtPriceFromAmount1In(sqrtP, liquidity, amount1 *big.Int) *big.Int {
	// sqrtP' = sqrtP + amount1 * Q96 / L
	step := new(big.Int).Mul(amount1, q96)
	step.Quo(step, liquidity)
	return step.Add(step, sqrtP)
}

// NextSqrtPriceFromAmount0In returns the sqrt price after amount0 of the
// upper-side token is added to a range with the given liquidity. The price
// moves down; the result rounds up so the pool never under-charges.
func NextSqrtPriceFromAmount0In(sqrtP, liquidity, amount0 *big.Int) *big.Int {
	// sqrtP' = L * Q96 * sqrtP / (L * Q96 + amount0 * sqrtP)
	lq := new(big.Int).Mul(liquidity, q96)
	num := new(big.Int).Mul(lq, sqrtP)
	den := new(big.Int).Mul(amount0, sqrtP)
	den.Add(den, lq)
	return div(num, den, true)
}

func div(num, den *big.Int, roundUp bool) *big.Int {
	q, r := new(big.Int).QuoRem(num, den, new(big.Int))
	if roundUp && r.Sign() != 0 {
		q.Add(q, one)
	}
	return q
}

func sortSqrt(a, b *big.Int) (*big.Int, *big.Int) {
	if a.Cmp(b) > 0 {
		return b, a
	}
	return a, b
}
