// Package pool implements an in-memory concentrated-liquidity book. It
// hosts the auction engine's slug positions during simulations and
// executes fee-less exact-input swaps by walking the positioned ranges.
package pool

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"liquidityAuction/internal/tickmath"
)

type rangeKey struct {
	lower int32
	upper int32
}

// Config describes the pool grid and its starting price.
type Config struct {
	TickSpacing int32
	InitialTick int32
}

// Pool is a single-pair liquidity book with a current sqrt price. All
// methods are safe for concurrent use.
type Pool struct {
	spacing int32

	mu        sync.Mutex
	sqrtPrice *big.Int
	tick      int32
	positions map[rangeKey]*big.Int
}

func New(cfg Config) (*Pool, error) {
	if cfg.TickSpacing <= 0 {
		return nil, fmt.Errorf("tick spacing must be positive, got %d", cfg.TickSpacing)
	}
	tick := tickmath.ClampTick(cfg.InitialTick)
	return &Pool{
		spacing:   cfg.TickSpacing,
		sqrtPrice: tickmath.SqrtRatioX96(tick),
		tick:      tick,
		positions: make(map[rangeKey]*big.Int),
	}, nil
}

// CurrentTick returns the tick of the current pool price.
func (p *Pool) CurrentTick(ctx context.Context) (int32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tick, nil
}

// TickSpacing returns the pool's tick grid.
func (p *Pool) TickSpacing() int32 { return p.spacing }

// AddLiquidity books liquidity over a range, stacking onto any existing
// position with the same bounds.
func (p *Pool) AddLiquidity(ctx context.Context, tickLower, tickUpper int32, liquidity *big.Int) error {
	if err := p.checkRange(tickLower, tickUpper); err != nil {
		return err
	}
	if liquidity == nil || liquidity.Sign() <= 0 {
		return fmt.Errorf("liquidity for [%d, %d] must be positive", tickLower, tickUpper)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	key := rangeKey{lower: tickLower, upper: tickUpper}
	cur, ok := p.positions[key]
	if !ok {
		cur = new(big.Int)
		p.positions[key] = cur
	}
	cur.Add(cur, liquidity)
	return nil
}

// RemoveLiquidity clears the position with the given bounds and returns
// the liquidity that was booked there.
func (p *Pool) RemoveLiquidity(ctx context.Context, tickLower, tickUpper int32) (*big.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := rangeKey{lower: tickLower, upper: tickUpper}
	liquidity, ok := p.positions[key]
	if !ok {
		return nil, fmt.Errorf("no position at [%d, %d]", tickLower, tickUpper)
	}
	delete(p.positions, key)
	return liquidity, nil
}

// SqrtPriceX96 returns a copy of the current sqrt price.
func (p *Pool) SqrtPriceX96() *big.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return new(big.Int).Set(p.sqrtPrice)
}

// Liquidity returns the liquidity active at the current tick.
func (p *Pool) Liquidity() *big.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	total := new(big.Int)
	for key, lq := range p.positions {
		if key.lower <= p.tick && p.tick < key.upper {
			total.Add(total, lq)
		}
	}
	return total
}

func (p *Pool) checkRange(tickLower, tickUpper int32) error {
	if tickLower >= tickUpper {
		return fmt.Errorf("inverted range [%d, %d]", tickLower, tickUpper)
	}
	if tickLower < tickmath.MinTick || tickUpper > tickmath.MaxTick {
		return fmt.Errorf("range [%d, %d] outside the tick grid", tickLower, tickUpper)
	}
	if tickLower%p.spacing != 0 || tickUpper%p.spacing != 0 {
		return fmt.Errorf("range [%d, %d] off the %d-tick grid", tickLower, tickUpper, p.spacing)
	}
	return nil
}
