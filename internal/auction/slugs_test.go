package auction

import (
	"errors"
	"math/big"
	"testing"
)

func newTestPositioner(t *testing.T, asc bool) positioner {
	t.Helper()
	s := testSchedule()
	if !asc {
		s = descendingSchedule()
	}
	if err := s.Validate(10); err != nil {
		t.Fatalf("fixture schedule invalid: %v", err)
	}
	return newPositioner(s, 10)
}

// assertContiguous checks that the placed ranges share boundaries in frame
// order. In pool space an ascending sale stacks the frame downward.
func assertContiguous(t *testing.T, l Layout, asc bool) {
	t.Helper()
	pd := l.PriceDiscovery
	if asc {
		if l.Lower.TickLower != l.Upper.TickUpper {
			t.Fatalf("lower %d does not touch upper %d", l.Lower.TickLower, l.Upper.TickUpper)
		}
		if pd != nil && l.Upper.TickLower != pd.TickUpper {
			t.Fatalf("upper %d does not touch discovery %d", l.Upper.TickLower, pd.TickUpper)
		}
		return
	}
	if l.Lower.TickUpper != l.Upper.TickLower {
		t.Fatalf("lower %d does not touch upper %d", l.Lower.TickUpper, l.Upper.TickLower)
	}
	if pd != nil && l.Upper.TickUpper != pd.TickLower {
		t.Fatalf("upper %d does not touch discovery %d", l.Upper.TickUpper, pd.TickLower)
	}
}

func TestFrameTruncatesTowardZeroThenAlignsDown(t *testing.T) {
	p := newTestPositioner(t, false)
	acc := new(big.Int).Mul(big.NewInt(-2579), wad)
	acc.Quo(acc, big.NewInt(10)) // -257.9 ticks
	floor, ceiling := p.frame(acc)
	if floor != -260 {
		t.Fatalf("floor = %d, want -260", floor)
	}
	if ceiling != 540 {
		t.Fatalf("ceiling = %d, want 540", ceiling)
	}
}

func TestBuildLayoutContiguity(t *testing.T) {
	p := newTestPositioner(t, false)
	acc := wadTicks(-200)
	sold := big.NewInt(2_000_000_000_000_000_000)
	proceeds := big.NewInt(2_100_000_000_000_000_000)

	layout, err := p.buildLayout(acc, -150, sold, proceeds, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if layout.FloorTick != -200 {
		t.Fatalf("floor tick = %d, want -200", layout.FloorTick)
	}
	if layout.Lower.TickLower != -200 || layout.Lower.TickUpper != -150 {
		t.Fatalf("lower slug = [%d, %d], want [-200, -150]", layout.Lower.TickLower, layout.Lower.TickUpper)
	}
	if layout.Lower.Liquidity.Sign() <= 0 {
		t.Fatalf("lower slug missing liquidity")
	}
	if layout.Upper.TickLower != -150 || layout.Upper.TickUpper != -50 {
		t.Fatalf("upper slug = [%d, %d], want [-150, -50]", layout.Upper.TickLower, layout.Upper.TickUpper)
	}
	// Epoch target already met: the upper slug stays collapsed to its
	// range with no liquidity.
	if layout.Upper.Liquidity.Sign() != 0 {
		t.Fatalf("upper slug unexpectedly has liquidity %s", layout.Upper.Liquidity)
	}
	if layout.PriceDiscovery == nil {
		t.Fatalf("discovery slug missing")
	}
	if layout.PriceDiscovery.TickUpper != 600 {
		t.Fatalf("discovery top = %d, want 600", layout.PriceDiscovery.TickUpper)
	}
	if layout.PriceDiscovery.Liquidity.Sign() <= 0 {
		t.Fatalf("discovery slug missing liquidity")
	}
	assertContiguous(t, layout, false)
}

func TestLowerSlugInsufficientProceedsFallback(t *testing.T) {
	p := newTestPositioner(t, false)
	sold := big.NewInt(2_000_000_000_000_000_000)
	proceeds := big.NewInt(1_000_000_000_000_000_000)

	layout, err := p.buildLayout(wadTicks(-200), -150, sold, proceeds, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// An average clearing price of 0.5 quote per token sits near tick
	// -6932: the fallback range must reach down to cover it while staying
	// glued to the current tick.
	if layout.Lower.TickUpper != -150 {
		t.Fatalf("fallback slug detached: top %d, want -150", layout.Lower.TickUpper)
	}
	if layout.Lower.TickLower != -6940 {
		t.Fatalf("fallback slug bottom = %d, want -6940", layout.Lower.TickLower)
	}
	if layout.Lower.Liquidity.Sign() <= 0 {
		t.Fatalf("fallback slug missing liquidity")
	}
	assertContiguous(t, layout, false)
}

func TestLowerSlugCollapsesWithoutFills(t *testing.T) {
	p := newTestPositioner(t, false)
	layout, err := p.buildLayout(new(big.Int), 0, new(big.Int), new(big.Int), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if layout.Lower.TickLower != 0 || layout.Lower.TickUpper != 0 {
		t.Fatalf("lower slug = [%d, %d], want collapsed at 0", layout.Lower.TickLower, layout.Lower.TickUpper)
	}
	if layout.Lower.Liquidity.Sign() != 0 {
		t.Fatalf("collapsed slug has liquidity %s", layout.Lower.Liquidity)
	}
}

func TestFinalEpochOmitsDiscoverySlug(t *testing.T) {
	p := newTestPositioner(t, false)
	sold := big.NewInt(7_000_000_000_000_000_000)
	proceeds := big.NewInt(7_000_000_000_000_000_000)
	layout, err := p.buildLayout(new(big.Int), 100, sold, proceeds, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if layout.PriceDiscovery != nil {
		t.Fatalf("discovery slug present in final epoch")
	}
	// Everything left goes on the table through the upper slug.
	if layout.Upper.Liquidity.Sign() <= 0 {
		t.Fatalf("upper slug missing final inventory")
	}
}

func TestDiscoveryOmittedWhenUpperReachesFrameEdge(t *testing.T) {
	p := newTestPositioner(t, false)
	layout, err := p.buildLayout(new(big.Int), 750, new(big.Int), new(big.Int), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if layout.PriceDiscovery != nil {
		t.Fatalf("discovery slug present despite upper slug overhang")
	}
	if layout.Upper.TickLower != 750 || layout.Upper.TickUpper != 850 {
		t.Fatalf("upper slug = [%d, %d], want [750, 850]", layout.Upper.TickLower, layout.Upper.TickUpper)
	}
}

func TestInsufficientInventoryRejected(t *testing.T) {
	p := newTestPositioner(t, false)
	sold := big.NewInt(9_000_000_000_000_000_000)
	_, err := p.buildLayout(new(big.Int), 0, sold, new(big.Int), 1)
	if !errors.Is(err, ErrInsufficientInventory) {
		t.Fatalf("err = %v, want ErrInsufficientInventory", err)
	}
}

func TestAscendingMirrorsDescending(t *testing.T) {
	desc := newTestPositioner(t, false)
	asc := newTestPositioner(t, true)
	sold := big.NewInt(2_000_000_000_000_000_000)
	proceeds := big.NewInt(2_100_000_000_000_000_000)

	dl, err := desc.buildLayout(wadTicks(-200), -150, sold, proceeds, 1)
	if err != nil {
		t.Fatalf("descending layout: %v", err)
	}
	al, err := asc.buildLayout(wadTicks(200), 150, sold, proceeds, 1)
	if err != nil {
		t.Fatalf("ascending layout: %v", err)
	}

	if al.FloorTick != -dl.FloorTick {
		t.Fatalf("floor mirror broken: %d vs %d", al.FloorTick, dl.FloorTick)
	}
	pairs := [][2]Slug{{al.Lower, dl.Lower}, {al.Upper, dl.Upper}}
	if al.PriceDiscovery == nil || dl.PriceDiscovery == nil {
		t.Fatalf("discovery slug missing on one side")
	}
	pairs = append(pairs, [2]Slug{*al.PriceDiscovery, *dl.PriceDiscovery})
	for _, pair := range pairs {
		a, d := pair[0], pair[1]
		if a.TickLower != -d.TickUpper || a.TickUpper != -d.TickLower {
			t.Fatalf("%s range mirror broken: [%d, %d] vs [%d, %d]", a.Kind, a.TickLower, a.TickUpper, d.TickLower, d.TickUpper)
		}
		diff := new(big.Int).Sub(a.Liquidity, d.Liquidity)
		if diff.CmpAbs(big.NewInt(2)) > 0 {
			t.Fatalf("%s liquidity mirror broken: %s vs %s", a.Kind, a.Liquidity, d.Liquidity)
		}
	}
	assertContiguous(t, al, true)
}
