package replay

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"liquidityAuction/internal/chain"
	"liquidityAuction/internal/dex"
	"liquidityAuction/internal/model"
)

// Source streams normalized trades in chain order. Stream starts after the
// checkpoint position, calls emit for every trade and mark at positions the
// replay can safely resume from.
type Source interface {
	Stream(ctx context.Context, cp Checkpoint, emit func(model.TradeEvent) error, mark func(Checkpoint) error) error
}

// fileMarkEvery bounds how much of a file replay is repeated after a crash.
const fileMarkEvery = 1000

// FileSource replays trades from a JSONL capture, one trade per line.
// Malformed lines are skipped with a warning.
type FileSource struct {
	path   string
	logger *zap.Logger
}

func NewFileSource(path string, logger *zap.Logger) *FileSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSource{path: path, logger: logger}
}

func (s *FileSource) Stream(ctx context.Context, cp Checkpoint, emit func(model.TradeEvent) error, mark func(Checkpoint) error) error {
	file, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("open trades: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		line      uint64
		seen      uint64
		lastBlock uint64
	)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var tr model.TradeEvent
		if err := json.Unmarshal(raw, &tr); err != nil {
			s.logger.Warn("skip malformed trade line", zap.Uint64("line", line), zap.Error(err))
			continue
		}
		seen++
		if seen <= cp.Events {
			continue
		}
		if err := emit(tr); err != nil {
			return err
		}
		lastBlock = tr.BlockNumber
		if (seen-cp.Events)%fileMarkEvery == 0 {
			if err := mark(Checkpoint{LastBlock: lastBlock, Events: seen}); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read trades: %w", err)
	}
	if seen > cp.Events {
		if err := mark(Checkpoint{LastBlock: lastBlock, Events: seen}); err != nil {
			return err
		}
	}
	return nil
}

// ChainConfig configures a chain-backed trade source.
type ChainConfig struct {
	Pool         common.Address
	Ascending    bool
	FromBlock    uint64
	ToBlock      uint64
	BatchSize    uint64
	MaxRetries   int
	RetryBackoff time.Duration
}

// ChainSource filters Swap logs from the auctioned pool and normalizes them
// into trades.
type ChainSource struct {
	cfg     ChainConfig
	chain   *chain.Client
	decoder *dex.SwapDecoder
	logger  *zap.Logger
	seen    map[string]struct{}
}

func NewChainSource(cfg ChainConfig, chainClient *chain.Client, logger *zap.Logger) (*ChainSource, error) {
	if chainClient == nil {
		return nil, fmt.Errorf("chain client is nil")
	}
	if cfg.BatchSize == 0 {
		return nil, fmt.Errorf("batch size must be greater than zero")
	}
	if cfg.Pool == (common.Address{}) {
		return nil, fmt.Errorf("pool address is required")
	}
	decoder, err := dex.NewSwapDecoder()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChainSource{
		cfg:     cfg,
		chain:   chainClient,
		decoder: decoder,
		logger:  logger,
		seen:    make(map[string]struct{}),
	}, nil
}

func (s *ChainSource) Stream(ctx context.Context, cp Checkpoint, emit func(model.TradeEvent) error, mark func(Checkpoint) error) error {
	chainID, err := s.chain.GetChainID(ctx)
	if err != nil {
		return fmt.Errorf("get chain id: %w", err)
	}
	if !chainID.IsUint64() {
		return fmt.Errorf("chain id does not fit in uint64: %s", chainID)
	}
	chainIDValue := chainID.Uint64()

	from := s.cfg.FromBlock
	if cp.LastBlock >= from && cp.LastBlock > 0 {
		from = cp.LastBlock + 1
	}
	to := s.cfg.ToBlock
	if to == 0 {
		latest, err := s.chain.LatestBlockNumber(ctx)
		if err != nil {
			return fmt.Errorf("get latest block: %w", err)
		}
		to = latest
	}
	if from > to {
		s.logger.Info("nothing to replay", zap.Uint64("from", from), zap.Uint64("to", to))
		return nil
	}

	ranges, err := SplitRange(from, to, s.cfg.BatchSize)
	if err != nil {
		return err
	}

	events := cp.Events
	for _, blockRange := range ranges {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		s.logger.Info("fetch swap logs", zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To))

		logs, err := s.filterLogsWithRetry(ctx, blockRange.From, blockRange.To)
		if err != nil {
			return fmt.Errorf("filter logs: %w", err)
		}

		for _, log := range logs {
			if log.Removed || s.isDuplicate(log) {
				continue
			}
			ev, err := s.decoder.Decode(log)
			if err != nil {
				s.logDecodeError(chainIDValue, log, err)
				continue
			}
			ts, err := s.blockTimestampWithRetry(ctx, log.BlockNumber)
			if err != nil {
				return fmt.Errorf("block timestamp %d: %w", log.BlockNumber, err)
			}
			if err := emit(dex.TradeFromSwap(ev, log, chainIDValue, ts, s.cfg.Ascending)); err != nil {
				return err
			}
			events++
		}

		if err := mark(Checkpoint{LastBlock: blockRange.To, Events: events}); err != nil {
			return err
		}
		s.logger.Info("batch complete", zap.Int("logs", len(logs)), zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To))
	}
	return nil
}

func (s *ChainSource) filterLogsWithRetry(ctx context.Context, fromBlock, toBlock uint64) ([]types.Log, error) {
	var logs []types.Log
	err := withRetry(ctx, s.cfg.MaxRetries, s.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		logs, err = s.chain.FilterLogs(ctx, fromBlock, toBlock,
			[]common.Address{s.cfg.Pool}, []common.Hash{s.decoder.Topic0()})
		if err != nil {
			s.logger.Warn("filter logs failed", zap.Error(err), zap.Uint64("from", fromBlock), zap.Uint64("to", toBlock))
		}
		return err
	})
	return logs, err
}

func (s *ChainSource) blockTimestampWithRetry(ctx context.Context, blockNumber uint64) (uint64, error) {
	var ts uint64
	err := withRetry(ctx, s.cfg.MaxRetries, s.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		ts, err = s.chain.BlockTimestamp(ctx, blockNumber)
		if err != nil {
			s.logger.Warn("block timestamp fetch failed", zap.Error(err), zap.Uint64("block_number", blockNumber))
		}
		return err
	})
	return ts, err
}

func (s *ChainSource) isDuplicate(log types.Log) bool {
	id := fmt.Sprintf("%d:%s:%d", log.BlockNumber, log.TxHash.Hex(), log.Index)
	if _, ok := s.seen[id]; ok {
		return true
	}
	s.seen[id] = struct{}{}
	return false
}

func (s *ChainSource) logDecodeError(chainID uint64, log types.Log, err error) {
	topic0 := ""
	if len(log.Topics) > 0 {
		topic0 = log.Topics[0].Hex()
	}
	s.logger.Warn("skip undecodable swap log", zap.Any("decode_error", model.DecodeError{
		ChainID:     chainID,
		BlockNumber: log.BlockNumber,
		TxHash:      log.TxHash.Hex(),
		LogIndex:    uint64(log.Index),
		Pool:        log.Address.Hex(),
		Topic0:      topic0,
		Reason:      err.Error(),
	}))
}

func withRetry(ctx context.Context, maxRetries int, baseDelay time.Duration, fn func(context.Context) error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}

	delay := baseDelay
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= maxRetries {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
	}
}
