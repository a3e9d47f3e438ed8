package replay

import (
	"context"
	"fmt"
	"math/big"
	"sync"
)

// shadowBook satisfies the engine's pool adapter during replay. Slug
// placements are bookkeeping only; the price comes from the replayed swap
// events, whose post-swap tick the runner feeds back through setTick.
type shadowBook struct {
	spacing int32

	mu   sync.Mutex
	tick int32
}

func newShadowBook(spacing, startTick int32) *shadowBook {
	return &shadowBook{spacing: spacing, tick: startTick}
}

func (b *shadowBook) CurrentTick(ctx context.Context) (int32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tick, nil
}

func (b *shadowBook) TickSpacing() int32 { return b.spacing }

func (b *shadowBook) AddLiquidity(ctx context.Context, tickLower, tickUpper int32, liquidity *big.Int) error {
	if tickLower >= tickUpper || tickLower%b.spacing != 0 || tickUpper%b.spacing != 0 {
		return fmt.Errorf("range [%d, %d] off grid %d", tickLower, tickUpper, b.spacing)
	}
	if liquidity == nil || liquidity.Sign() <= 0 {
		return fmt.Errorf("empty position [%d, %d]", tickLower, tickUpper)
	}
	return nil
}

func (b *shadowBook) RemoveLiquidity(ctx context.Context, tickLower, tickUpper int32) (*big.Int, error) {
	return new(big.Int), nil
}

func (b *shadowBook) setTick(tick int32) {
	b.mu.Lock()
	b.tick = tick
	b.mu.Unlock()
}
