package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"liquidityAuction/internal/auction"
	"liquidityAuction/internal/config"
	"liquidityAuction/internal/model"
	"liquidityAuction/internal/pool"
	"liquidityAuction/internal/sim"
	"liquidityAuction/internal/storage"
	"liquidityAuction/internal/storage/postgres"
)

func main() {
	root := &cobra.Command{
		Use:          "auctioneer",
		Short:        "Dutch auction liquidity rebalancer",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a sale against the in-memory pool with synthetic demand",
		RunE:  runSimulate,
	}

	simulateCmd.Flags().String("schedule", "", "schedule file (JSON or YAML)")
	simulateCmd.Flags().Uint64("steps", 200, "trade opportunities across the sale window")
	simulateCmd.Flags().String("quote-budget", "", "total quote the simulated crowd spends (base units)")
	simulateCmd.Flags().String("profile", "flat", "demand profile (flat, front_loaded, back_loaded, pulse, none)")
	simulateCmd.Flags().Int64("seed", 1, "demand jitter seed")
	simulateCmd.Flags().String("out", "./data/epochs.jsonl", "output epoch records JSONL")
	simulateCmd.Flags().String("pg-dsn", "", "Postgres DSN (optional)")
	simulateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(simulateCmd)

	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Rebuild a sale's epoch history from its pool's swap logs",
		RunE:  runReplay,
	}

	replayCmd.Flags().String("schedule", "", "schedule file (JSON or YAML)")
	replayCmd.Flags().String("rpc", "", "EVM RPC URL")
	replayCmd.Flags().String("pool", "", "pool contract address")
	replayCmd.Flags().String("in", "", "trade capture JSONL (replays from file instead of chain)")
	replayCmd.Flags().Uint64("from", 0, "start block (inclusive)")
	replayCmd.Flags().Uint64("to", 0, "end block (inclusive), 0 means latest")
	replayCmd.Flags().Uint64("batch-size", 2000, "blocks per log query")
	replayCmd.Flags().String("out", "./data/epochs.jsonl", "output epoch records JSONL")
	replayCmd.Flags().String("pg-dsn", "", "Postgres DSN (optional)")
	replayCmd.Flags().String("checkpoint", "./data/replay_checkpoint.json", "checkpoint file path")
	replayCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	replayCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	replayCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	replayCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(replayCmd)

	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Print a schedule's per-epoch sale targets",
		RunE:  runSchedule,
	}

	scheduleCmd.Flags().String("schedule", "", "schedule file (JSON or YAML)")

	root.AddCommand(scheduleCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadSimulate(cfgFile, cmd.Flags())
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
	if cfg.QuoteBudget == "" {
		return fmt.Errorf("quote budget is required")
	}
	budget, ok := new(big.Int).SetString(cfg.QuoteBudget, 10)
	if !ok {
		return fmt.Errorf("invalid quote budget %q", cfg.QuoteBudget)
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

	book, err := pool.New(pool.Config{TickSpacing: sc.TickSpacing, InitialTick: sched.StartTick})
	if err != nil {
		return err
	}
	engine, err := auction.NewEngine(sc.Sale, sched, book, logger)
	if err != nil {
		return err
	}
	simulator, err := sim.New(engine, book, sim.Config{
		Steps:       cfg.Steps,
		QuoteBudget: budget,
		Profile:     cfg.Profile,
		Seed:        cfg.Seed,
	}, logger)
	if err != nil {
		return err
	}

	sinks := []storage.EpochSink{storage.NewJsonlSink(cfg.Out)}
	var store *postgres.Store
	if cfg.PGDSN != "" {
		store, err = postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		sinks = append(sinks, store)
	}

	logger.Info("simulate start",
		zap.String("sale", sc.Sale),
		zap.String("schedule", cfg.ScheduleFile),
		zap.Uint64("steps", cfg.Steps),
		zap.String("profile", cfg.Profile),
		zap.String("quote_budget", budget.String()),
		zap.Int64("seed", cfg.Seed),
		zap.String("out", cfg.Out),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
	)

	res, err := simulator.Run(ctx)
	if err != nil {
		return err
	}

	for _, sink := range sinks {
		if err := sink.WriteEpochs(ctx, res.Records); err != nil {
			return fmt.Errorf("write epoch records: %w", err)
		}
	}
	if store != nil {
		rec := model.SaleRecord{
			Sale:          sc.Sale,
			LastEpoch:     engine.State().LastEpoch,
			TotalSold:     res.TotalSold.String(),
			TotalProceeds: res.TotalProceeds.String(),
			ExpectedSold:  sched.ExpectedAmountSold(sched.EndTime).String(),
			UpdatedAt:     time.Now().UTC().Format(time.RFC3339),
		}
		if err := store.UpsertSale(ctx, rec); err != nil {
			return fmt.Errorf("upsert sale: %w", err)
		}
	}

	sum := res.Summarize(sched)
	logger.Info("simulation summary",
		zap.String("sold", sum.Sold.String()),
		zap.String("proceeds", sum.Proceeds.String()),
		zap.String("average_price", sum.AveragePrice.String()),
		zap.String("schedule_filled", sum.ScheduleFilled.String()),
		zap.Int("epochs", sum.Epochs),
		zap.Uint64("trades", sum.Trades),
	)

	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
