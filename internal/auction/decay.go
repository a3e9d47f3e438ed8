package auction

import "math/big"

// Rebalance branches, recorded per epoch.
const (
	BranchInitial   = "initial"
	BranchRestored  = "restored"
	BranchUndersold = "undersold"
	BranchOversold  = "oversold"
	BranchOnTrack   = "on_track"
)

// accumulatorDelta computes the sale-space accumulator move for entering
// epoch. sold is the pre-trade snapshot of tokens sold; saleCurrent and
// saleFloor describe the pre-rebalance frame in sale space (aligned, with
// saleCurrent bounded into the frame). The result is in 1e18 fixed-point
// sale ticks.
func accumulatorDelta(s Schedule, epoch, epochsElapsed uint64, sold *big.Int, saleCurrent, saleFloor int32) (*big.Int, string) {
	expected := s.ExpectedAmountSold(s.EpochStart(epoch))
	switch sold.Cmp(expected) {
	case -1:
		// Undersold: decay toward the end tick. A sale with no fills at
		// all catches up across every quiet epoch at full speed;
		// otherwise one epoch's drift is scaled by the missed fraction
		// of the target.
		maxDelta := saleMaxTickDelta(s)
		if sold.Sign() == 0 {
			return maxDelta.Mul(maxDelta, new(big.Int).SetUint64(epochsElapsed)), BranchUndersold
		}
		frac := new(big.Int).Mul(sold, wad)
		frac.Quo(frac, expected)
		frac.Sub(wad, frac)
		return mulDivWad(maxDelta, frac), BranchUndersold
	case 1:
		// Oversold: snap the floor to the observed price, limited to the
		// gamma share earned by elapsed time.
		delta := big.NewInt(int64(saleCurrent) - int64(saleFloor))
		delta.Mul(delta, wad)
		return clampAbs(delta, s.ElapsedGammaWad(epoch)), BranchOversold
	default:
		return new(big.Int), BranchOnTrack
	}
}

// saleMaxTickDelta is the zero-demand per-epoch drift mapped into sale
// space, where decay is always downward.
func saleMaxTickDelta(s Schedule) *big.Int {
	d := s.MaxTickDeltaPerEpoch()
	if d.Sign() > 0 {
		d.Neg(d)
	}
	return d
}
