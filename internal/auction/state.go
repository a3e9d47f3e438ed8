package auction

import "math/big"

// State is the mutable rebalancing state of one sale. The accumulator is a
// signed 1e18 fixed-point tick offset from the schedule's start tick; all
// token amounts are base units.
type State struct {
	LastEpoch                uint64
	TickAccumulator          *big.Int
	TotalTokensSold          *big.Int
	TotalTokensSoldLastEpoch *big.Int
	TotalProceeds            *big.Int
}

// NewState returns a zeroed sale state.
func NewState() *State {
	return &State{
		TickAccumulator:          new(big.Int),
		TotalTokensSold:          new(big.Int),
		TotalTokensSoldLastEpoch: new(big.Int),
		TotalProceeds:            new(big.Int),
	}
}

// Clone returns an independent copy.
func (st *State) Clone() *State {
	return &State{
		LastEpoch:                st.LastEpoch,
		TickAccumulator:          new(big.Int).Set(st.TickAccumulator),
		TotalTokensSold:          new(big.Int).Set(st.TotalTokensSold),
		TotalTokensSoldLastEpoch: new(big.Int).Set(st.TotalTokensSoldLastEpoch),
		TotalProceeds:            new(big.Int).Set(st.TotalProceeds),
	}
}

// SlugKind names a slug's role in the three-slug layout.
type SlugKind string

const (
	SlugLower          SlugKind = "lower"
	SlugUpper          SlugKind = "upper"
	SlugPriceDiscovery SlugKind = "price_discovery"
)

// Slug is one positioned liquidity range in pool tick space, tick lower
// strictly below tick upper unless the slug is collapsed to zero width.
type Slug struct {
	Kind      SlugKind
	TickLower int32
	TickUpper int32
	Liquidity *big.Int
}

// clone returns a copy with an independent liquidity value.
func (s Slug) clone() Slug {
	s.Liquidity = new(big.Int).Set(s.Liquidity)
	return s
}

// Layout is one epoch's target slug set. FloorTick is the zero-demand
// frame boundary in pool tick space. PriceDiscovery is nil in the final
// epoch and when the upper slug already reaches the frame edge.
type Layout struct {
	FloorTick      int32
	Lower          Slug
	Upper          Slug
	PriceDiscovery *Slug
}

// Slugs lists the layout's slugs in frame order, including collapsed ones.
func (l Layout) Slugs() []Slug {
	out := []Slug{l.Lower, l.Upper}
	if l.PriceDiscovery != nil {
		out = append(out, *l.PriceDiscovery)
	}
	return out
}

// clone returns a deep copy.
func (l Layout) clone() Layout {
	out := Layout{FloorTick: l.FloorTick, Lower: l.Lower.clone(), Upper: l.Upper.clone()}
	if l.PriceDiscovery != nil {
		pd := l.PriceDiscovery.clone()
		out.PriceDiscovery = &pd
	}
	return out
}
