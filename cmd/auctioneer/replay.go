package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"liquidityAuction/internal/chain"
	"liquidityAuction/internal/config"
	"liquidityAuction/internal/dex"
	"liquidityAuction/internal/replay"
	"liquidityAuction/internal/storage"
	"liquidityAuction/internal/storage/postgres"
)

func runReplay(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadReplay(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.ScheduleFile == "" {
		return fmt.Errorf("schedule file is required")
	}
	if cfg.In == "" && cfg.RPCURL == "" {
		return fmt.Errorf("either an rpc url or an input capture is required")
	}

	sc, err := config.LoadSchedule(cfg.ScheduleFile)
	if err != nil {
		return err
	}
	sched, err := config.BuildSchedule(sc)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	spacing := sc.TickSpacing
	var source replay.Source

	if cfg.In != "" {
		if spacing <= 0 {
			return fmt.Errorf("schedule must carry tick_spacing when replaying from a capture")
		}
		source = replay.NewFileSource(cfg.In, logger)
	} else {
		if !common.IsHexAddress(cfg.Pool) {
			return fmt.Errorf("invalid pool address %q", cfg.Pool)
		}
		poolAddr := common.HexToAddress(cfg.Pool)

		chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
		if err != nil {
			return fmt.Errorf("connect rpc: %w", err)
		}
		defer chainClient.Close()

		meta, err := dex.FetchPoolMeta(ctx, chainClient, poolAddr)
		if err != nil {
			return fmt.Errorf("fetch pool metadata: %w", err)
		}
		if spacing == 0 {
			spacing = meta.TickSpacing
		} else if spacing != meta.TickSpacing {
			return fmt.Errorf("schedule tick_spacing %d contradicts pool tick spacing %d", spacing, meta.TickSpacing)
		}

		asset, quote := meta.Token0, meta.Token1
		if sched.IsAscending {
			asset, quote = quote, asset
		}
		assetMeta, err := dex.FetchTokenMeta(ctx, chainClient, asset, logger)
		if err != nil {
			return fmt.Errorf("fetch asset metadata: %w", err)
		}
		quoteMeta, err := dex.FetchTokenMeta(ctx, chainClient, quote, logger)
		if err != nil {
			return fmt.Errorf("fetch quote metadata: %w", err)
		}
		_, liveTick, err := dex.FetchSlot0(ctx, chainClient, poolAddr, 0)
		if err != nil {
			return fmt.Errorf("fetch slot0: %w", err)
		}
		logger.Info("pool resolved",
			zap.String("pool", poolAddr.Hex()),
			zap.String("asset", assetMeta.Symbol),
			zap.String("quote", quoteMeta.Symbol),
			zap.Uint32("fee", meta.Fee),
			zap.Int32("tick_spacing", meta.TickSpacing),
			zap.Int32("live_tick", liveTick),
		)

		source, err = replay.NewChainSource(replay.ChainConfig{
			Pool:         poolAddr,
			Ascending:    sched.IsAscending,
			FromBlock:    cfg.FromBlock,
			ToBlock:      cfg.ToBlock,
			BatchSize:    cfg.BatchSize,
			MaxRetries:   cfg.MaxRetries,
			RetryBackoff: cfg.RetryBackoff,
		}, chainClient, logger)
		if err != nil {
			return err
		}
	}

	sinks := []storage.EpochSink{storage.NewJsonlSink(cfg.Out)}
	var sales storage.SaleSink
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		sinks = append(sinks, store)
		sales = store

		lastBlock, events, found, err := store.LoadReplayState(ctx, sc.Sale)
		if err != nil {
			return fmt.Errorf("load replay state: %w", err)
		}
		if found {
			logger.Info("previous replay state",
				zap.String("sale", sc.Sale),
				zap.Uint64("last_block", lastBlock),
				zap.Uint64("events", events),
			)
		}
	}

	runner, err := replay.NewRunner(replay.RunConfig{
		Sale:              sc.Sale,
		TickSpacing:       spacing,
		CheckpointPath:    cfg.Checkpoint,
		CheckpointEnabled: cfg.CheckpointEnabled,
	}, sched, source, sinks, sales, logger)
	if err != nil {
		return err
	}

	logger.Info("replay start",
		zap.String("sale", sc.Sale),
		zap.String("schedule", cfg.ScheduleFile),
		zap.String("in", cfg.In),
		zap.String("pool", cfg.Pool),
		zap.Uint64("from", cfg.FromBlock),
		zap.Uint64("to", cfg.ToBlock),
		zap.Uint64("batch_size", cfg.BatchSize),
		zap.String("out", cfg.Out),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
		zap.String("checkpoint", cfg.Checkpoint),
	)

	rep, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	logger.Info("replay report",
		zap.Uint64("trades", rep.Trades),
		zap.Uint64("skipped", rep.Skipped),
		zap.Int("epochs", rep.Epochs),
		zap.Uint64("last_block", rep.LastBlock),
		zap.String("total_sold", rep.TotalSold.String()),
		zap.String("total_proceeds", rep.TotalProceeds.String()),
		zap.Int32("final_tick", rep.FinalTick),
	)

	return nil
}
