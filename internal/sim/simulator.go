// Package sim drives an auction engine against the in-memory pool with a
// synthetic demand profile, producing the per-epoch records a live sale
// would emit.
package sim

import (
	"context"
	"fmt"
	"math/big"
	"math/rand"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"liquidityAuction/internal/auction"
	"liquidityAuction/internal/model"
	"liquidityAuction/internal/pool"
)

// Config shapes one simulation run.
type Config struct {
	// Steps is the number of evenly spaced trade opportunities across the
	// sale window.
	Steps uint64
	// QuoteBudget is the total quote the simulated crowd is willing to
	// spend, split across steps by the demand profile.
	QuoteBudget *big.Int
	// Profile names the demand shape, see ProfileNames.
	Profile string
	// Seed fixes the per-step demand jitter.
	Seed int64
}

// Simulator owns one run of an engine against the in-memory pool.
type Simulator struct {
	engine  *auction.Engine
	book    *pool.Pool
	cfg     Config
	profile Profile
	logger  *zap.Logger
}

// Result collects everything a run produced.
type Result struct {
	Records       []model.EpochRecord
	Trades        uint64
	TotalSold     *big.Int
	TotalProceeds *big.Int
	FinalTick     int32
}

// Summary renders a result against its schedule in human units.
type Summary struct {
	Sold           decimal.Decimal
	Proceeds       decimal.Decimal
	AveragePrice   decimal.Decimal
	ScheduleFilled decimal.Decimal
	Epochs         int
	Trades         uint64
}

func New(engine *auction.Engine, book *pool.Pool, cfg Config, logger *zap.Logger) (*Simulator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if engine == nil || book == nil {
		return nil, fmt.Errorf("engine and pool are required")
	}
	if cfg.Steps == 0 {
		return nil, fmt.Errorf("steps must be positive")
	}
	if cfg.QuoteBudget == nil || cfg.QuoteBudget.Sign() < 0 {
		return nil, fmt.Errorf("quote budget must be non-negative")
	}
	profile, err := ProfileByName(cfg.Profile)
	if err != nil {
		return nil, err
	}
	return &Simulator{engine: engine, book: book, cfg: cfg, profile: profile, logger: logger}, nil
}

// Run initializes the engine and walks the sale window step by step: the
// engine repositions at epoch boundaries, the demand profile's quote goes
// through the pool, and the realized fill feeds back into the totals.
func (s *Simulator) Run(ctx context.Context) (*Result, error) {
	sched := s.engine.Schedule()
	res := &Result{TotalSold: new(big.Int), TotalProceeds: new(big.Int)}

	first, err := s.engine.Initialize(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialize engine: %w", err)
	}
	res.Records = append(res.Records, first.Record(s.engine.ID()))

	quotes := s.splitBudget()
	window := sched.EndTime - sched.StartTime
	// Quote flows toward the asset side: for an ascending sale the asset
	// is the lower-side token, so the quote is the upper-side token.
	zeroForOne := sched.IsAscending

	for i := uint64(0); i < s.cfg.Steps; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ts := sched.StartTime + i*window/s.cfg.Steps

		rebalance, err := s.engine.BeforeSwap(ctx, ts)
		if err != nil {
			return nil, fmt.Errorf("rebalance at %d: %w", ts, err)
		}
		if rebalance != nil {
			res.Records = append(res.Records, rebalance.Record(s.engine.ID()))
		}

		if quotes[i].Sign() == 0 {
			continue
		}
		swap, err := s.book.SwapExactIn(ctx, zeroForOne, quotes[i])
		if err != nil {
			return nil, fmt.Errorf("swap at %d: %w", ts, err)
		}
		if swap.AmountIn.Sign() == 0 {
			continue
		}
		if err := s.engine.AfterSwap(ctx, ts, swap.AmountOut, swap.AmountIn); err != nil {
			return nil, fmt.Errorf("apply fill at %d: %w", ts, err)
		}
		res.Trades++
		s.logger.Debug("simulated fill",
			zap.Uint64("ts", ts),
			zap.String("quote_in", swap.AmountIn.String()),
			zap.String("asset_out", swap.AmountOut.String()),
			zap.Int32("tick_after", swap.TickAfter),
		)
	}

	st := s.engine.State()
	res.TotalSold.Set(st.TotalTokensSold)
	res.TotalProceeds.Set(st.TotalProceeds)
	tick, err := s.book.CurrentTick(ctx)
	if err != nil {
		return nil, err
	}
	res.FinalTick = tick

	s.logger.Info("simulation finished",
		zap.String("sale", s.engine.ID()),
		zap.String("profile", s.cfg.Profile),
		zap.Uint64("trades", res.Trades),
		zap.String("total_sold", res.TotalSold.String()),
		zap.String("total_proceeds", res.TotalProceeds.String()),
		zap.Int32("final_tick", res.FinalTick),
	)
	return res, nil
}

// splitBudget allocates the quote budget across steps by profile weight
// with a deterministic jitter.
func (s *Simulator) splitBudget() []*big.Int {
	rng := rand.New(rand.NewSource(s.cfg.Seed))
	weights := make([]uint64, s.cfg.Steps)
	var total uint64
	for i := range weights {
		frac := float64(i) / float64(s.cfg.Steps)
		w := s.profile(frac) * (0.75 + 0.5*rng.Float64())
		if w < 0 {
			w = 0
		}
		weights[i] = uint64(w * 1e6)
		total += weights[i]
	}
	quotes := make([]*big.Int, s.cfg.Steps)
	if total == 0 {
		for i := range quotes {
			quotes[i] = new(big.Int)
		}
		return quotes
	}
	totalBig := new(big.Int).SetUint64(total)
	for i := range quotes {
		q := new(big.Int).SetUint64(weights[i])
		q.Mul(q, s.cfg.QuoteBudget)
		quotes[i] = q.Quo(q, totalBig)
	}
	return quotes
}

// Summarize renders the result in 18-decimal token units.
func (r *Result) Summarize(sched auction.Schedule) Summary {
	sum := Summary{
		Sold:     decimal.NewFromBigInt(r.TotalSold, -18),
		Proceeds: decimal.NewFromBigInt(r.TotalProceeds, -18),
		Epochs:   len(r.Records),
		Trades:   r.Trades,
	}
	if r.TotalSold.Sign() > 0 {
		sum.AveragePrice = decimal.NewFromBigInt(r.TotalProceeds, 0).
			Div(decimal.NewFromBigInt(r.TotalSold, 0))
	}
	if sched.NumTokensToSell != nil && sched.NumTokensToSell.Sign() > 0 {
		sum.ScheduleFilled = decimal.NewFromBigInt(r.TotalSold, 0).
			Div(decimal.NewFromBigInt(sched.NumTokensToSell, 0))
	}
	return sum
}
