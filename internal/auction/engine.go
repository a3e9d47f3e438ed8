// Package auction implements a scheduled, self-correcting dutch-auction
// engine that sells a fixed token inventory through an AMM pool. Once per
// epoch it compares realized sales against the schedule, moves a tick
// accumulator (decaying the price when undersold, snapping to the observed
// price when ahead) and repositions three contiguous liquidity ranges
// through the pool adapter.
package auction

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"go.uber.org/zap"

	"liquidityAuction/internal/model"
)

// PoolAdapter is the engine's view of the hosting AMM pool. Implementations
// must reject misaligned or inverted ranges.
type PoolAdapter interface {
	CurrentTick(ctx context.Context) (int32, error)
	TickSpacing() int32
	AddLiquidity(ctx context.Context, tickLower, tickUpper int32, liquidity *big.Int) error
	RemoveLiquidity(ctx context.Context, tickLower, tickUpper int32) (*big.Int, error)
}

// RebalanceResult describes one committed slug repositioning.
type RebalanceResult struct {
	Epoch           uint64
	Time            uint64
	Branch          string
	TickAccumulator *big.Int
	CurrentTick     int32
	ExpectedSold    *big.Int
	TotalTokensSold *big.Int
	TotalProceeds   *big.Int
	Layout          Layout
}

// Record converts the result into a storable epoch record.
func (r *RebalanceResult) Record(sale string) model.EpochRecord {
	rec := model.EpochRecord{
		Sale:            sale,
		Epoch:           r.Epoch,
		Time:            r.Time,
		Branch:          r.Branch,
		TickAccumulator: r.TickAccumulator.String(),
		FloorTick:       r.Layout.FloorTick,
		CurrentTick:     r.CurrentTick,
		TotalTokensSold: r.TotalTokensSold.String(),
		TotalProceeds:   r.TotalProceeds.String(),
		ExpectedSold:    r.ExpectedSold.String(),
		RecordedAt:      time.Now().UTC().Format(time.RFC3339),
	}
	for _, s := range r.Layout.Slugs() {
		rec.Slugs = append(rec.Slugs, model.SlugRecord{
			Kind:      string(s.Kind),
			TickLower: s.TickLower,
			TickUpper: s.TickUpper,
			Liquidity: s.Liquidity.String(),
		})
	}
	return rec
}

// Engine drives one sale. A mutex serializes callbacks; state only commits
// after every pool call for an epoch transition has succeeded.
type Engine struct {
	id     string
	sched  Schedule
	pool   PoolAdapter
	pos    positioner
	logger *zap.Logger

	mu          sync.Mutex
	initialized bool
	state       *State
	layout      Layout
	placed      map[SlugKind]Slug
}

// NewEngine validates the schedule against the pool's grid and returns an
// engine ready for Initialize.
func NewEngine(id string, sched Schedule, pool PoolAdapter, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pool == nil {
		return nil, fmt.Errorf("pool adapter is required")
	}
	if err := sched.Validate(pool.TickSpacing()); err != nil {
		return nil, fmt.Errorf("invalid schedule: %w", err)
	}
	cl := sched.Clone()
	return &Engine{
		id:     id,
		sched:  cl,
		pool:   pool,
		pos:    newPositioner(cl, pool.TickSpacing()),
		logger: logger,
		state:  NewState(),
		placed: make(map[SlugKind]Slug, 3),
	}, nil
}

// Initialize places the initial slug layout around the schedule's start
// tick. It must be called exactly once, before any trade is processed.
func (e *Engine) Initialize(ctx context.Context) (*RebalanceResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.initialized {
		return nil, ErrAlreadyInitialized
	}
	current, err := e.pool.CurrentTick(ctx)
	if err != nil {
		return nil, fmt.Errorf("read current tick: %w", err)
	}
	layout, err := e.pos.buildLayout(e.state.TickAccumulator, current, e.state.TotalTokensSold, e.state.TotalProceeds, 0)
	if err != nil {
		return nil, err
	}
	if err := e.reconcile(ctx, layout); err != nil {
		return nil, err
	}
	e.layout = layout
	e.initialized = true
	res := e.result(0, e.sched.StartTime, BranchInitial, current)
	e.logRebalance(res)
	return res, nil
}

// Restore seeds a fresh engine with previously committed sale state and
// places the layout that state implies. It is the resume path for replayed
// sales and takes the place of Initialize.
func (e *Engine) Restore(ctx context.Context, st *State) (*RebalanceResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.initialized {
		return nil, ErrAlreadyInitialized
	}
	if st == nil || st.TickAccumulator == nil || st.TotalTokensSold == nil ||
		st.TotalTokensSoldLastEpoch == nil || st.TotalProceeds == nil {
		return nil, fmt.Errorf("restore state is incomplete")
	}
	if st.TotalTokensSold.Sign() < 0 || st.TotalProceeds.Sign() < 0 {
		return nil, fmt.Errorf("%w: restore with sold %s, proceeds %s",
			ErrNegativeTotals, st.TotalTokensSold, st.TotalProceeds)
	}
	current, err := e.pool.CurrentTick(ctx)
	if err != nil {
		return nil, fmt.Errorf("read current tick: %w", err)
	}
	layout, err := e.pos.buildLayout(st.TickAccumulator, current, st.TotalTokensSold, st.TotalProceeds, st.LastEpoch)
	if err != nil {
		return nil, err
	}
	if err := e.reconcile(ctx, layout); err != nil {
		return nil, err
	}
	e.state = st.Clone()
	e.layout = layout
	e.initialized = true
	res := e.result(st.LastEpoch, e.sched.EpochStart(st.LastEpoch), BranchRestored, current)
	e.logRebalance(res)
	return res, nil
}

// BeforeSwap runs the epoch rebalance due at ts, if any, against the state
// as it stood before the triggering trade. It returns a nil result when
// the trade falls inside the current epoch.
func (e *Engine) BeforeSwap(ctx context.Context, ts uint64) (*RebalanceResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rebalanceLocked(ctx, ts)
}

// AfterSwap folds a completed fill's signed deltas into the running totals:
// positive asset delta means tokens left for traders, positive proceeds
// delta means quote came in.
func (e *Engine) AfterSwap(ctx context.Context, ts uint64, assetDelta, proceedsDelta *big.Int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.applyTotalsLocked(ts, assetDelta, proceedsDelta)
}

// OnTrade processes one fill end to end: the epoch rebalance due at its
// timestamp, then its deltas. This is the entry point for replayed fills;
// live hosts call BeforeSwap and AfterSwap around the swap instead.
func (e *Engine) OnTrade(ctx context.Context, ts uint64, assetDelta, proceedsDelta *big.Int) (*RebalanceResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	res, err := e.rebalanceLocked(ctx, ts)
	if err != nil {
		return nil, err
	}
	if err := e.applyTotalsLocked(ts, assetDelta, proceedsDelta); err != nil {
		return res, err
	}
	return res, nil
}

func (e *Engine) rebalanceLocked(ctx context.Context, ts uint64) (*RebalanceResult, error) {
	if !e.initialized {
		return nil, ErrNotInitialized
	}
	if err := e.sched.CheckWindow(ts); err != nil {
		return nil, err
	}
	epoch := e.sched.EpochIndex(ts)
	if epoch <= e.state.LastEpoch {
		return nil, nil
	}
	current, err := e.pool.CurrentTick(ctx)
	if err != nil {
		return nil, fmt.Errorf("read current tick: %w", err)
	}

	// Decay or snap against the frame of the previous epoch, using the
	// pre-trade sold total.
	oldFloor, oldCeiling := e.pos.frame(e.state.TickAccumulator)
	saleCurrent := e.pos.boundCurrent(current, oldFloor, oldCeiling)
	deltaSale, branch := accumulatorDelta(e.sched, epoch, epoch-e.state.LastEpoch, e.state.TotalTokensSold, saleCurrent, oldFloor)
	acc := new(big.Int).Add(e.state.TickAccumulator, e.pos.space.mirrorWad(deltaSale))

	layout, err := e.pos.buildLayout(acc, current, e.state.TotalTokensSold, e.state.TotalProceeds, epoch)
	if err != nil {
		return nil, err
	}
	if err := e.reconcile(ctx, layout); err != nil {
		return nil, err
	}

	e.state.TotalTokensSoldLastEpoch.Set(e.state.TotalTokensSold)
	e.state.TickAccumulator = acc
	e.state.LastEpoch = epoch
	e.layout = layout

	res := e.result(epoch, ts, branch, current)
	e.logRebalance(res)
	return res, nil
}

func (e *Engine) applyTotalsLocked(ts uint64, assetDelta, proceedsDelta *big.Int) error {
	if !e.initialized {
		return ErrNotInitialized
	}
	if err := e.sched.CheckWindow(ts); err != nil {
		return err
	}
	sold := new(big.Int).Add(e.state.TotalTokensSold, assetDelta)
	if sold.Sign() < 0 {
		return fmt.Errorf("%w: tokens sold %s with delta %s", ErrNegativeTotals, e.state.TotalTokensSold, assetDelta)
	}
	proceeds := new(big.Int).Add(e.state.TotalProceeds, proceedsDelta)
	if proceeds.Sign() < 0 {
		return fmt.Errorf("%w: proceeds %s with delta %s", ErrNegativeTotals, e.state.TotalProceeds, proceedsDelta)
	}
	e.state.TotalTokensSold = sold
	e.state.TotalProceeds = proceeds
	return nil
}

// slugOrder fixes the reconciliation order so pool calls are deterministic.
var slugOrder = []SlugKind{SlugLower, SlugUpper, SlugPriceDiscovery}

// reconcile moves the pool from the previously placed slugs to the target
// layout. Unchanged slugs are left alone; collapsed and empty slugs never
// reach the pool.
func (e *Engine) reconcile(ctx context.Context, next Layout) error {
	target := make(map[SlugKind]Slug, 3)
	for _, s := range next.Slugs() {
		if s.Liquidity.Sign() > 0 && s.TickLower < s.TickUpper {
			target[s.Kind] = s
		}
	}
	for _, kind := range slugOrder {
		prev, ok := e.placed[kind]
		if !ok {
			continue
		}
		if want, ok := target[kind]; ok && want.TickLower == prev.TickLower &&
			want.TickUpper == prev.TickUpper && want.Liquidity.Cmp(prev.Liquidity) == 0 {
			continue
		}
		if _, err := e.pool.RemoveLiquidity(ctx, prev.TickLower, prev.TickUpper); err != nil {
			return fmt.Errorf("remove %s slug [%d, %d]: %w", kind, prev.TickLower, prev.TickUpper, err)
		}
		delete(e.placed, kind)
	}
	for _, kind := range slugOrder {
		want, ok := target[kind]
		if !ok {
			continue
		}
		if _, ok := e.placed[kind]; ok {
			continue
		}
		if err := e.pool.AddLiquidity(ctx, want.TickLower, want.TickUpper, want.Liquidity); err != nil {
			return fmt.Errorf("add %s slug [%d, %d]: %w", kind, want.TickLower, want.TickUpper, err)
		}
		e.placed[kind] = want.clone()
	}
	return nil
}

func (e *Engine) result(epoch, ts uint64, branch string, current int32) *RebalanceResult {
	return &RebalanceResult{
		Epoch:           epoch,
		Time:            ts,
		Branch:          branch,
		TickAccumulator: new(big.Int).Set(e.state.TickAccumulator),
		CurrentTick:     current,
		ExpectedSold:    e.sched.ExpectedAmountSold(e.sched.EpochStart(epoch)),
		TotalTokensSold: new(big.Int).Set(e.state.TotalTokensSold),
		TotalProceeds:   new(big.Int).Set(e.state.TotalProceeds),
		Layout:          e.layout.clone(),
	}
}

func (e *Engine) logRebalance(res *RebalanceResult) {
	e.logger.Info("slug rebalance",
		zap.String("sale", e.id),
		zap.Uint64("epoch", res.Epoch),
		zap.String("branch", res.Branch),
		zap.String("tick_accumulator", res.TickAccumulator.String()),
		zap.Int32("floor_tick", res.Layout.FloorTick),
		zap.Int32("current_tick", res.CurrentTick),
		zap.String("total_sold", res.TotalTokensSold.String()),
		zap.String("total_proceeds", res.TotalProceeds.String()),
	)
}

// ID returns the sale identifier used in logs and records.
func (e *Engine) ID() string { return e.id }

// Schedule returns a copy of the sale schedule.
func (e *Engine) Schedule() Schedule { return e.sched.Clone() }

// State returns a copy of the sale's rebalancing state.
func (e *Engine) State() *State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// Layout returns a copy of the currently targeted slug layout.
func (e *Engine) Layout() Layout {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.layout.clone()
}

// ExpectedAmountSold reports the schedule's cumulative sale target at ts.
func (e *Engine) ExpectedAmountSold(ts uint64) *big.Int {
	return e.sched.ExpectedAmountSold(ts)
}

// SufficientProceeds reports whether accumulated proceeds meet the
// schedule's minimum. A nil minimum always passes.
func (e *Engine) SufficientProceeds() bool {
	if e.sched.MinimumProceeds == nil {
		return true
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.TotalProceeds.Cmp(e.sched.MinimumProceeds) >= 0
}

// MaximumProceedsReached reports whether the proceeds cap is hit. A nil or
// zero maximum means no cap.
func (e *Engine) MaximumProceedsReached() bool {
	if e.sched.MaximumProceeds == nil || e.sched.MaximumProceeds.Sign() == 0 {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.TotalProceeds.Cmp(e.sched.MaximumProceeds) >= 0
}
