package auction

import (
	"fmt"
	"math/big"

	"liquidityAuction/internal/tickmath"
)

// saleSpace maps pool ticks into a frame where the schedule always decays
// downward and unsold inventory always sits above the current price.
// Descending sales are the identity mapping; ascending sales are mirrored
// by negation, which also swaps the token side of every range.
type saleSpace struct {
	ascending bool
}

func (m saleSpace) toSale(poolTick int32) int32 {
	if m.ascending {
		return -poolTick
	}
	return poolTick
}

func (m saleSpace) toPool(saleTick int32) int32 {
	if m.ascending {
		return -saleTick
	}
	return saleTick
}

// poolRange maps a sale-space range back to an ordered pool-space range.
func (m saleSpace) poolRange(saleLo, saleHi int32) (int32, int32) {
	if m.ascending {
		return -saleHi, -saleLo
	}
	return saleLo, saleHi
}

// mirrorWad converts a 1e18 fixed-point tick value between the two spaces.
func (m saleSpace) mirrorWad(x *big.Int) *big.Int {
	out := new(big.Int).Set(x)
	if m.ascending {
		out.Neg(out)
	}
	return out
}

// positioner derives the three-slug target layout for an epoch.
type positioner struct {
	sched   Schedule
	spacing int32
	space   saleSpace
}

func newPositioner(sched Schedule, spacing int32) positioner {
	return positioner{sched: sched, spacing: spacing, space: saleSpace{ascending: sched.IsAscending}}
}

// epochRange is the sale-space width of the upper slug: one epoch's share
// of gamma, aligned up to the grid and never below one spacing.
func (p positioner) epochRange() int32 {
	raw := int64(p.sched.Gamma) / int64(p.sched.TotalEpochs())
	aligned := tickmath.AlignTick(clampTick64(raw), p.spacing, true)
	if aligned < p.spacing {
		return p.spacing
	}
	return aligned
}

// frame returns the aligned sale-space frame for an accumulator value: the
// floor is the start tick shifted by the accumulator (truncated toward
// zero, then aligned down), the ceiling sits gamma above it.
func (p positioner) frame(accWad *big.Int) (floor, ceiling int32) {
	accTicks := new(big.Int).Quo(p.space.mirrorWad(accWad), wad).Int64()
	start := int64(p.space.toSale(p.sched.StartTick))
	floor = tickmath.AlignTick(clampTick64(start+accTicks), p.spacing, false)
	ceiling = clampTick64(int64(floor) + int64(p.sched.Gamma))
	return floor, ceiling
}

// boundCurrent aligns the observed pool tick and bounds it into the frame.
func (p positioner) boundCurrent(currentTick, floor, ceiling int32) int32 {
	cur := tickmath.AlignTick(p.space.toSale(currentTick), p.spacing, false)
	if cur < floor {
		return floor
	}
	if cur > ceiling {
		return ceiling
	}
	return cur
}

// buildLayout computes the slug layout for entering epoch, given the
// post-decay accumulator, the observed pool tick and the pre-trade totals.
func (p positioner) buildLayout(accWad *big.Int, currentTick int32, sold, proceeds *big.Int, epoch uint64) (Layout, error) {
	remaining := new(big.Int).Sub(p.sched.NumTokensToSell, sold)
	if remaining.Sign() < 0 {
		return Layout{}, fmt.Errorf("%w: sold %s of %s", ErrInsufficientInventory, sold, p.sched.NumTokensToSell)
	}

	floor, ceiling := p.frame(accWad)
	cur := p.boundCurrent(currentTick, floor, ceiling)
	upperHi := clampTick64(int64(cur) + int64(p.epochRange()))

	lower, err := p.lowerSlug(floor, cur, sold, proceeds)
	if err != nil {
		return Layout{}, err
	}

	// Upper slug carries the remainder of this epoch's sale target.
	upperTokens := p.sched.ExpectedAmountSold(p.sched.EpochStart(epoch + 1))
	upperTokens.Sub(upperTokens, sold)
	if upperTokens.Sign() < 0 {
		upperTokens.SetInt64(0)
	}
	upper := p.assetSlug(SlugUpper, cur, upperHi, upperTokens)

	layout := Layout{FloorTick: p.space.toPool(floor), Lower: lower, Upper: upper}

	// The discovery slug stages the rest of the unsold inventory out to
	// the frame edge. It is absent in the final epoch and when the upper
	// slug already reaches or overhangs the edge.
	if !p.sched.IsFinalEpoch(epoch) && upperHi < ceiling {
		pdTokens := new(big.Int).Sub(remaining, upperTokens)
		if pdTokens.Sign() < 0 {
			return Layout{}, fmt.Errorf("%w: epoch target needs %s, %s remaining", ErrInsufficientInventory, upperTokens, remaining)
		}
		pd := p.assetSlug(SlugPriceDiscovery, upperHi, ceiling, pdTokens)
		layout.PriceDiscovery = &pd
	}
	return layout, nil
}

// lowerSlug builds the buy-back range below the current price. With no
// fills or no proceeds it collapses to zero width at the current tick.
// When the frame cannot host enough proceeds to absorb every sold token,
// all proceeds concentrate in a narrow range covering the average clearing
// price instead, kept adjacent to the upper slug.
func (p positioner) lowerSlug(floor, cur int32, sold, proceeds *big.Int) (Slug, error) {
	if sold.Sign() == 0 || proceeds.Sign() == 0 {
		lo, hi := p.space.poolRange(cur, cur)
		return Slug{Kind: SlugLower, TickLower: lo, TickUpper: hi, Liquidity: new(big.Int)}, nil
	}
	if floor < cur {
		required := p.requiredProceeds(floor, cur, sold)
		if required.Cmp(proceeds) <= 0 {
			return p.proceedsSlug(SlugLower, floor, cur, proceeds), nil
		}
	}
	avgTick, err := tickmath.TickForPrice(proceeds, sold)
	if err != nil {
		return Slug{}, fmt.Errorf("average clearing price: %w", err)
	}
	lo := int64(tickmath.AlignTick(avgTick, p.spacing, false))
	if lo > int64(cur)-int64(p.spacing) {
		lo = int64(cur) - int64(p.spacing)
	}
	return p.proceedsSlug(SlugLower, clampTick64(lo), cur, proceeds), nil
}

// requiredProceeds is the quote amount needed to buy back sold tokens
// across the sale-space range from saleHi down to saleLo.
func (p positioner) requiredProceeds(saleLo, saleHi int32, sold *big.Int) *big.Int {
	lo, hi := p.space.poolRange(saleLo, saleHi)
	sa, sb := tickmath.SqrtRatioX96(lo), tickmath.SqrtRatioX96(hi)
	if p.space.ascending {
		l := tickmath.LiquidityForAmount1(sa, sb, sold)
		return tickmath.Amount0ForLiquidity(sa, sb, l, true)
	}
	l := tickmath.LiquidityForAmount0(sa, sb, sold)
	return tickmath.Amount1ForLiquidity(sa, sb, l, true)
}

// assetSlug sizes a sale-space range holding unsold inventory.
func (p positioner) assetSlug(kind SlugKind, saleLo, saleHi int32, amount *big.Int) Slug {
	lo, hi := p.space.poolRange(saleLo, saleHi)
	s := Slug{Kind: kind, TickLower: lo, TickUpper: hi, Liquidity: new(big.Int)}
	if saleHi <= saleLo || amount.Sign() <= 0 {
		return s
	}
	sa, sb := tickmath.SqrtRatioX96(lo), tickmath.SqrtRatioX96(hi)
	if p.space.ascending {
		s.Liquidity = tickmath.LiquidityForAmount1(sa, sb, amount)
	} else {
		s.Liquidity = tickmath.LiquidityForAmount0(sa, sb, amount)
	}
	return s
}

// proceedsSlug sizes a sale-space range funded with quote proceeds.
func (p positioner) proceedsSlug(kind SlugKind, saleLo, saleHi int32, amount *big.Int) Slug {
	lo, hi := p.space.poolRange(saleLo, saleHi)
	s := Slug{Kind: kind, TickLower: lo, TickUpper: hi, Liquidity: new(big.Int)}
	if saleHi <= saleLo || amount.Sign() <= 0 {
		return s
	}
	sa, sb := tickmath.SqrtRatioX96(lo), tickmath.SqrtRatioX96(hi)
	if p.space.ascending {
		s.Liquidity = tickmath.LiquidityForAmount0(sa, sb, amount)
	} else {
		s.Liquidity = tickmath.LiquidityForAmount1(sa, sb, amount)
	}
	return s
}
