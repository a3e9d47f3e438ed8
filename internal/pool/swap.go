package pool

import (
	"context"
	"fmt"
	"math/big"

	"liquidityAuction/internal/tickmath"
)

// SwapResult reports a swap's realized amounts and the pool price after.
// AmountIn can fall short of the requested input when the book runs out
// of liquidity in the swap direction.
type SwapResult struct {
	AmountIn     *big.Int
	AmountOut    *big.Int
	TickAfter    int32
	SqrtPriceX96 *big.Int
}

// SwapExactIn executes a fee-less exact-input swap. zeroForOne takes the
// upper-side token in and walks the price down; otherwise the lower-side
// token comes in and the price walks up. The walk proceeds range boundary
// to range boundary with constant liquidity in between, skipping gaps
// with no liquidity.
func (p *Pool) SwapExactIn(ctx context.Context, zeroForOne bool, amountIn *big.Int) (SwapResult, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return SwapResult{}, fmt.Errorf("swap amount must be positive")
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	remaining := new(big.Int).Set(amountIn)
	totalIn := new(big.Int)
	totalOut := new(big.Int)
	cur := new(big.Int).Set(p.sqrtPrice)

	for remaining.Sign() > 0 {
		boundary, ok := p.nextBoundary(cur, zeroForOne)
		if !ok {
			break
		}
		liquidity := p.segmentLiquidity(cur, boundary, zeroForOne)
		if liquidity.Sign() == 0 {
			cur.Set(boundary)
			continue
		}
		in, out, next := swapStep(cur, boundary, liquidity, remaining, zeroForOne)
		totalIn.Add(totalIn, in)
		totalOut.Add(totalOut, out)
		remaining.Sub(remaining, in)
		cur = next
	}

	p.sqrtPrice = cur
	p.tick = tickmath.TickAtSqrtRatio(cur)
	return SwapResult{
		AmountIn:     totalIn,
		AmountOut:    totalOut,
		TickAfter:    p.tick,
		SqrtPriceX96: new(big.Int).Set(cur),
	}, nil
}

// swapStep fills as much of remaining as the segment between cur and
// boundary can take, returning the consumed input, the produced output
// and the sqrt price after the step.
func swapStep(cur, boundary, liquidity, remaining *big.Int, zeroForOne bool) (in, out, next *big.Int) {
	if zeroForOne {
		maxIn := tickmath.Amount0ForLiquidity(boundary, cur, liquidity, true)
		if remaining.Cmp(maxIn) >= 0 {
			out = tickmath.Amount1ForLiquidity(boundary, cur, liquidity, false)
			return maxIn, out, new(big.Int).Set(boundary)
		}
		next = tickmath.NextSqrtPriceFromAmount0In(cur, liquidity, remaining)
		out = tickmath.Amount1ForLiquidity(next, cur, liquidity, false)
		return new(big.Int).Set(remaining), out, next
	}
	maxIn := tickmath.Amount1ForLiquidity(cur, boundary, liquidity, true)
	if remaining.Cmp(maxIn) >= 0 {
		out = tickmath.Amount0ForLiquidity(cur, boundary, liquidity, false)
		return maxIn, out, new(big.Int).Set(boundary)
	}
	next = tickmath.NextSqrtPriceFromAmount1In(cur, liquidity, remaining)
	out = tickmath.Amount0ForLiquidity(cur, next, liquidity, false)
	return new(big.Int).Set(remaining), out, next
}

// nextBoundary returns the closest position bound past cur in the swap
// direction.
func (p *Pool) nextBoundary(cur *big.Int, zeroForOne bool) (*big.Int, bool) {
	var best *big.Int
	consider := func(tick int32) {
		s := tickmath.SqrtRatioX96(tick)
		if zeroForOne {
			if s.Cmp(cur) < 0 && (best == nil || s.Cmp(best) > 0) {
				best = s
			}
			return
		}
		if s.Cmp(cur) > 0 && (best == nil || s.Cmp(best) < 0) {
			best = s
		}
	}
	for key := range p.positions {
		consider(key.lower)
		consider(key.upper)
	}
	return best, best != nil
}

// segmentLiquidity sums the positions covering the whole segment between
// cur and the adjacent boundary. Positions only touching an endpoint are
// not active inside it.
func (p *Pool) segmentLiquidity(cur, boundary *big.Int, zeroForOne bool) *big.Int {
	lo, hi := boundary, cur
	if !zeroForOne {
		lo, hi = cur, boundary
	}
	total := new(big.Int)
	for key, lq := range p.positions {
		if tickmath.SqrtRatioX96(key.lower).Cmp(lo) <= 0 && tickmath.SqrtRatioX96(key.upper).Cmp(hi) >= 0 {
			total.Add(total, lq)
		}
	}
	return total
}
