package dex

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"liquidityAuction/internal/model"
)

// SwapEvent is a decoded pool Swap log. Amounts follow the pool convention:
// positive means the pool received that token, negative means it paid it out.
type SwapEvent struct {
	Sender       common.Address
	Recipient    common.Address
	Amount0      *big.Int
	Amount1      *big.Int
	SqrtPriceX96 *big.Int
	Liquidity    *big.Int
	Tick         int32
}

// SwapDecoder decodes V3-style Swap logs fetched straight from the chain.
type SwapDecoder struct {
	event  abi.Event
	topic0 common.Hash
}

// NewSwapDecoder builds a Swap decoder from the embedded pool ABI.
func NewSwapDecoder() (*SwapDecoder, error) {
	poolABI, err := PoolABI()
	if err != nil {
		return nil, err
	}
	event, ok := poolABI.Events["Swap"]
	if !ok {
		return nil, fmt.Errorf("pool abi missing Swap event")
	}
	return &SwapDecoder{event: event, topic0: event.ID}, nil
}

// Topic0 returns the Swap event signature hash used for log filtering.
func (d *SwapDecoder) Topic0() common.Hash {
	return d.topic0
}

// CanDecode checks whether the log carries a Swap topic0.
func (d *SwapDecoder) CanDecode(log types.Log) bool {
	return len(log.Topics) > 0 && log.Topics[0] == d.topic0
}

// Decode unpacks a Swap log into its typed fields.
func (d *SwapDecoder) Decode(log types.Log) (SwapEvent, error) {
	if !d.CanDecode(log) {
		return SwapEvent{}, fmt.Errorf("unsupported topic0 for swap decode")
	}
	indexedCount := len(indexedArguments(d.event.Inputs))
	if len(log.Topics) != indexedCount+1 {
		return SwapEvent{}, fmt.Errorf("expected %d topics, got %d", indexedCount+1, len(log.Topics))
	}

	var indexed struct {
		Sender    common.Address
		Recipient common.Address
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(d.event.Inputs), log.Topics[1:]); err != nil {
		return SwapEvent{}, fmt.Errorf("parse topics: %w", err)
	}

	values, err := d.event.Inputs.NonIndexed().Unpack(log.Data)
	if err != nil {
		return SwapEvent{}, fmt.Errorf("unpack Swap: %w", err)
	}
	if len(values) != 5 {
		return SwapEvent{}, fmt.Errorf("unexpected swap values: %d", len(values))
	}

	amount0, err := asBigInt(values[0])
	if err != nil {
		return SwapEvent{}, err
	}
	amount1, err := asBigInt(values[1])
	if err != nil {
		return SwapEvent{}, err
	}
	sqrtPrice, err := asBigInt(values[2])
	if err != nil {
		return SwapEvent{}, err
	}
	liquidity, err := asBigInt(values[3])
	if err != nil {
		return SwapEvent{}, err
	}
	tickInt, err := asBigInt(values[4])
	if err != nil {
		return SwapEvent{}, err
	}
	tick, err := int24FromBig(tickInt)
	if err != nil {
		return SwapEvent{}, err
	}

	return SwapEvent{
		Sender:       indexed.Sender,
		Recipient:    indexed.Recipient,
		Amount0:      amount0,
		Amount1:      amount1,
		SqrtPriceX96: sqrtPrice,
		Liquidity:    liquidity,
		Tick:         tick,
	}, nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}

// TradeFromSwap converts a decoded Swap into the sale-centric trade record.
// A descending sale sells token0 for token1, so a buy drains token0 from the
// pool: asset delta is -amount0 and proceeds delta is amount1. An ascending
// sale sells token1 and the amounts swap roles. Counter-direction swaps come
// out with negative deltas and are the caller's to reject.
func TradeFromSwap(ev SwapEvent, log types.Log, chainID, timestamp uint64, ascending bool) model.TradeEvent {
	asset, proceeds := ev.Amount0, ev.Amount1
	if ascending {
		asset, proceeds = ev.Amount1, ev.Amount0
	}
	return model.TradeEvent{
		ChainID:       chainID,
		BlockNumber:   log.BlockNumber,
		TxHash:        log.TxHash.Hex(),
		LogIndex:      uint64(log.Index),
		Pool:          log.Address.Hex(),
		Timestamp:     timestamp,
		Tick:          ev.Tick,
		AssetDelta:    new(big.Int).Neg(asset).String(),
		ProceedsDelta: new(big.Int).Set(proceeds).String(),
	}
}
