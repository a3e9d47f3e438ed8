package auction

import (
	"fmt"
	"math/big"

	"liquidityAuction/internal/tickmath"
)

// Schedule fixes the sale window, price path and inventory of one auction.
// Times are unix seconds. Ticks are pool ticks; for a descending sale the
// end tick sits below the start tick and the flag is false, an ascending
// sale mirrors that. Gamma is the width of the discovery frame in ticks and
// caps how far the floor may drift in a single zero-demand epoch.
type Schedule struct {
	StartTime       uint64
	EndTime         uint64
	EpochLength     uint64
	StartTick       int32
	EndTick         int32
	Gamma           int32
	NumTokensToSell *big.Int
	MinimumProceeds *big.Int
	MaximumProceeds *big.Int
	IsAscending     bool
}

// Validate checks internal consistency against the pool's tick spacing.
func (s Schedule) Validate(tickSpacing int32) error {
	if s.NumTokensToSell == nil || s.NumTokensToSell.Sign() <= 0 {
		return fmt.Errorf("num tokens to sell must be positive, got %v", s.NumTokensToSell)
	}
	if s.MinimumProceeds != nil && s.MinimumProceeds.Sign() < 0 {
		return fmt.Errorf("minimum proceeds must not be negative, got %s", s.MinimumProceeds)
	}
	if s.MaximumProceeds != nil && s.MaximumProceeds.Sign() < 0 {
		return fmt.Errorf("maximum proceeds must not be negative, got %s", s.MaximumProceeds)
	}
	if s.MinimumProceeds != nil && s.MaximumProceeds != nil && s.MaximumProceeds.Sign() > 0 &&
		s.MinimumProceeds.Cmp(s.MaximumProceeds) > 0 {
		return fmt.Errorf("minimum proceeds %s exceeds maximum proceeds %s", s.MinimumProceeds, s.MaximumProceeds)
	}
	if s.EndTime <= s.StartTime {
		return fmt.Errorf("sale window is empty: start %d, end %d", s.StartTime, s.EndTime)
	}
	if s.EpochLength == 0 {
		return fmt.Errorf("epoch length must be positive")
	}
	window := s.EndTime - s.StartTime
	if window%s.EpochLength != 0 {
		return fmt.Errorf("sale window %ds is not a whole number of %ds epochs", window, s.EpochLength)
	}
	if s.StartTick == s.EndTick {
		return fmt.Errorf("start and end tick are equal (%d)", s.StartTick)
	}
	if s.IsAscending != (s.EndTick > s.StartTick) {
		return fmt.Errorf("direction flag contradicts tick ordering: ascending=%v, start=%d, end=%d",
			s.IsAscending, s.StartTick, s.EndTick)
	}
	if tickSpacing <= 0 {
		return fmt.Errorf("tick spacing must be positive, got %d", tickSpacing)
	}
	if s.Gamma <= 0 {
		return fmt.Errorf("gamma must be positive, got %d", s.Gamma)
	}
	if s.Gamma%tickSpacing != 0 {
		return fmt.Errorf("gamma %d is not a multiple of tick spacing %d", s.Gamma, tickSpacing)
	}
	total := s.TotalEpochs()
	span := s.tickSpan()
	if span > int64(s.Gamma)*int64(total) {
		return fmt.Errorf("gamma %d cannot cover the %d-tick span across %d epochs", s.Gamma, span, total)
	}
	// The frame can overshoot either end of the path by up to two gamma
	// widths, which must stay on the tick grid.
	margin := 2 * int64(s.Gamma)
	for _, tick := range []int64{int64(s.StartTick), int64(s.EndTick)} {
		if tick-margin < int64(tickmath.MinTick) || tick+margin > int64(tickmath.MaxTick) {
			return fmt.Errorf("tick %d with gamma %d leaves the usable tick grid", tick, s.Gamma)
		}
	}
	return nil
}

// CheckWindow rejects timestamps outside [StartTime, EndTime).
func (s Schedule) CheckWindow(ts uint64) error {
	if ts < s.StartTime {
		return fmt.Errorf("%w: trade at %d, sale opens at %d", ErrTradeBeforeStart, ts, s.StartTime)
	}
	if ts >= s.EndTime {
		return fmt.Errorf("%w: trade at %d, sale closed at %d", ErrTradeAfterEnd, ts, s.EndTime)
	}
	return nil
}

// TotalEpochs returns the number of epochs in the sale window.
func (s Schedule) TotalEpochs() uint64 {
	return (s.EndTime - s.StartTime) / s.EpochLength
}

// EpochIndex maps a timestamp inside the window to its 0-based epoch.
func (s Schedule) EpochIndex(ts uint64) uint64 {
	if ts <= s.StartTime {
		return 0
	}
	return (ts - s.StartTime) / s.EpochLength
}

// EpochStart returns the start time of the given epoch.
func (s Schedule) EpochStart(epoch uint64) uint64 {
	return s.StartTime + epoch*s.EpochLength
}

// IsFinalEpoch reports whether the given epoch is the sale's last.
func (s Schedule) IsFinalEpoch(epoch uint64) bool {
	return epoch+1 >= s.TotalEpochs()
}

// MaxTickDeltaPerEpoch is the signed zero-demand tick drift per epoch in
// 1e18 fixed point: the full start-to-end span spread evenly across the
// epochs, truncated toward zero.
func (s Schedule) MaxTickDeltaPerEpoch() *big.Int {
	delta := big.NewInt(int64(s.EndTick) - int64(s.StartTick))
	delta.Mul(delta, wad)
	return delta.Quo(delta, new(big.Int).SetUint64(s.TotalEpochs()))
}

// ExpectedAmountSold returns how many tokens the schedule expects to have
// sold by ts: linear in elapsed time, clamped to the sale window.
func (s Schedule) ExpectedAmountSold(ts uint64) *big.Int {
	if ts <= s.StartTime {
		return new(big.Int)
	}
	if ts >= s.EndTime {
		return new(big.Int).Set(s.NumTokensToSell)
	}
	out := new(big.Int).SetUint64(ts - s.StartTime)
	out.Mul(out, s.NumTokensToSell)
	return out.Quo(out, new(big.Int).SetUint64(s.EndTime-s.StartTime))
}

// ElapsedGammaWad returns the oversold clamp envelope at the given epoch's
// start: the share of gamma proportional to elapsed epochs, in 1e18 fixed
// point ticks.
func (s Schedule) ElapsedGammaWad(epoch uint64) *big.Int {
	out := big.NewInt(int64(s.Gamma))
	out.Mul(out, wad)
	out.Mul(out, new(big.Int).SetUint64(epoch))
	return out.Quo(out, new(big.Int).SetUint64(s.TotalEpochs()))
}

// Clone returns a copy with independent amounts.
func (s Schedule) Clone() Schedule {
	out := s
	out.NumTokensToSell = cloneBig(s.NumTokensToSell)
	out.MinimumProceeds = cloneBig(s.MinimumProceeds)
	out.MaximumProceeds = cloneBig(s.MaximumProceeds)
	return out
}

func (s Schedule) tickSpan() int64 {
	span := int64(s.EndTick) - int64(s.StartTick)
	if span < 0 {
		span = -span
	}
	return span
}

func cloneBig(x *big.Int) *big.Int {
	if x == nil {
		return nil
	}
	return new(big.Int).Set(x)
}
