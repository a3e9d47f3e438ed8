// Package replay reconstructs a sale's rebalancing history from its pool's
// Swap events, either straight from the chain or from a JSONL capture. The
// engine runs against a shadow book whose price is pinned to the replayed
// post-swap ticks, so the epoch records come out as the live sale produced
// them.
package replay

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"liquidityAuction/internal/auction"
	"liquidityAuction/internal/model"
	"liquidityAuction/internal/storage"
)

// RunConfig holds runtime settings for a replayed sale.
type RunConfig struct {
	Sale              string
	TickSpacing       int32
	CheckpointPath    string
	CheckpointEnabled bool
}

// Report summarizes one replay run.
type Report struct {
	Trades        uint64
	Skipped       uint64
	Epochs        int
	LastBlock     uint64
	TotalSold     *big.Int
	TotalProceeds *big.Int
	FinalTick     int32
}

// Runner drives the rebalancing engine from a trade source and fans epoch
// records out to the sinks.
type Runner struct {
	cfg        RunConfig
	engine     *auction.Engine
	book       *shadowBook
	source     Source
	sinks      []storage.EpochSink
	sales      storage.SaleSink
	checkpoint *CheckpointStore
	logger     *zap.Logger
}

// NewRunner builds a runner and the shadow engine it replays into. The sale
// sink may be nil.
func NewRunner(cfg RunConfig, sched auction.Schedule, source Source, sinks []storage.EpochSink, sales storage.SaleSink, logger *zap.Logger) (*Runner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Sale == "" {
		return nil, fmt.Errorf("sale id is required")
	}
	if cfg.TickSpacing <= 0 {
		return nil, fmt.Errorf("tick spacing must be positive")
	}
	if source == nil {
		return nil, fmt.Errorf("trade source is nil")
	}
	book := newShadowBook(cfg.TickSpacing, sched.StartTick)
	engine, err := auction.NewEngine(cfg.Sale, sched, book, logger)
	if err != nil {
		return nil, err
	}
	return &Runner{
		cfg:        cfg,
		engine:     engine,
		book:       book,
		source:     source,
		sinks:      sinks,
		sales:      sales,
		checkpoint: NewCheckpointStore(cfg.CheckpointPath, cfg.CheckpointEnabled),
		logger:     logger,
	}, nil
}

// Run replays the sale end to end, resuming from the checkpoint when one
// exists. Out-of-window, unparsable and counter-direction trades are skipped
// with a warning; everything else feeds the engine in order.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	cp, found, err := r.checkpoint.Load()
	if err != nil {
		return nil, err
	}

	rep := &Report{TotalSold: new(big.Int), TotalProceeds: new(big.Int)}

	if found {
		if cp.Sale == nil {
			return nil, fmt.Errorf("checkpoint %s has no sale state", r.cfg.CheckpointPath)
		}
		st, err := cp.Sale.State()
		if err != nil {
			return nil, fmt.Errorf("parse checkpoint: %w", err)
		}
		r.book.setTick(cp.Sale.LastTick)
		if _, err := r.engine.Restore(ctx, st); err != nil {
			return nil, err
		}
		r.logger.Info("resume from checkpoint",
			zap.Uint64("last_block", cp.LastBlock),
			zap.Uint64("events", cp.Events),
			zap.Uint64("last_epoch", st.LastEpoch))
	} else {
		res, err := r.engine.Initialize(ctx)
		if err != nil {
			return nil, err
		}
		if err := r.writeEpoch(ctx, res); err != nil {
			return nil, err
		}
		rep.Epochs++
	}

	sched := r.engine.Schedule()
	lastTS := sched.StartTime

	emit := func(tr model.TradeEvent) error {
		if tr.Timestamp < sched.StartTime || tr.Timestamp >= sched.EndTime {
			rep.Skipped++
			r.logger.Warn("skip out-of-window trade",
				zap.Uint64("timestamp", tr.Timestamp), zap.String("tx_hash", tr.TxHash))
			return nil
		}
		asset, proceeds, err := tr.Deltas()
		if err != nil {
			rep.Skipped++
			r.logger.Warn("skip unparsable trade", zap.String("tx_hash", tr.TxHash), zap.Error(err))
			return nil
		}
		if asset.Sign() < 0 || proceeds.Sign() < 0 {
			rep.Skipped++
			r.logger.Warn("skip counter-direction swap", zap.String("tx_hash", tr.TxHash),
				zap.String("asset_delta", tr.AssetDelta), zap.String("proceeds_delta", tr.ProceedsDelta))
			return nil
		}
		res, err := r.engine.OnTrade(ctx, tr.Timestamp, asset, proceeds)
		if err != nil {
			return fmt.Errorf("trade %s at %d: %w", tr.TxHash, tr.Timestamp, err)
		}
		r.book.setTick(tr.Tick)
		rep.Trades++
		lastTS = tr.Timestamp
		if tr.BlockNumber > rep.LastBlock {
			rep.LastBlock = tr.BlockNumber
		}
		if res != nil {
			if err := r.writeEpoch(ctx, res); err != nil {
				return err
			}
			rep.Epochs++
		}
		return nil
	}

	mark := func(pos Checkpoint) error {
		pos.Sale = NewSaleState(r.engine.State())
		pos.Sale.LastTick, _ = r.book.CurrentTick(ctx)
		if err := r.checkpoint.Save(pos); err != nil {
			return err
		}
		if r.sales != nil {
			if err := r.sales.SaveReplayState(ctx, r.cfg.Sale, pos.LastBlock, pos.Events); err != nil {
				return fmt.Errorf("save replay state: %w", err)
			}
		}
		return nil
	}

	if err := r.source.Stream(ctx, cp, emit, mark); err != nil {
		return nil, err
	}

	st := r.engine.State()
	rep.TotalSold.Set(st.TotalTokensSold)
	rep.TotalProceeds.Set(st.TotalProceeds)
	rep.FinalTick, _ = r.book.CurrentTick(ctx)

	if r.sales != nil {
		rec := model.SaleRecord{
			Sale:          r.cfg.Sale,
			LastEpoch:     st.LastEpoch,
			TotalSold:     st.TotalTokensSold.String(),
			TotalProceeds: st.TotalProceeds.String(),
			ExpectedSold:  r.engine.ExpectedAmountSold(lastTS).String(),
			UpdatedAt:     time.Now().UTC().Format(time.RFC3339),
		}
		if err := r.sales.UpsertSale(ctx, rec); err != nil {
			return nil, fmt.Errorf("upsert sale: %w", err)
		}
	}

	r.logger.Info("replay complete",
		zap.String("sale", r.cfg.Sale),
		zap.Uint64("trades", rep.Trades),
		zap.Uint64("skipped", rep.Skipped),
		zap.Int("epochs", rep.Epochs),
		zap.Uint64("last_block", rep.LastBlock),
		zap.String("total_sold", rep.TotalSold.String()),
		zap.String("total_proceeds", rep.TotalProceeds.String()),
	)
	return rep, nil
}

func (r *Runner) writeEpoch(ctx context.Context, res *auction.RebalanceResult) error {
	rec := res.Record(r.cfg.Sale)
	for _, sink := range r.sinks {
		if err := sink.WriteEpochs(ctx, []model.EpochRecord{rec}); err != nil {
			return fmt.Errorf("write epoch %d: %w", rec.Epoch, err)
		}
	}
	return nil
}
