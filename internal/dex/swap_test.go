package dex

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

func packSwapData(t *testing.T, amount0, amount1, sqrtPrice, liquidity *big.Int, tick int64) []byte {
	t.Helper()
	poolABI, err := PoolABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	data, err := poolABI.Events["Swap"].Inputs.NonIndexed().Pack(
		amount0,
		amount1,
		sqrtPrice,
		liquidity,
		big.NewInt(tick),
	)
	if err != nil {
		t.Fatalf("pack swap: %v", err)
	}
	return data
}

func buildSwapLog(decoder *SwapDecoder, pool, sender, recipient common.Address, data []byte) types.Log {
	return types.Log{
		Address: pool,
		Topics: []common.Hash{
			decoder.Topic0(),
			topicFromAddress(sender),
			topicFromAddress(recipient),
		},
		Data:        data,
		BlockNumber: 12345,
		TxHash:      common.HexToHash("0xdef"),
		Index:       7,
	}
}

func topicFromAddress(addr common.Address) common.Hash {
	return common.BytesToHash(addr.Bytes())
}

func TestSwapDecodeRoundTrip(t *testing.T) {
	decoder, err := NewSwapDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	pool := common.HexToAddress("0x1111111111111111111111111111111111111111")
	sender := common.HexToAddress("0x2222222222222222222222222222222222222222")
	recipient := common.HexToAddress("0x3333333333333333333333333333333333333333")

	data := packSwapData(t, big.NewInt(-1000), big.NewInt(2000), big.NewInt(123456789), big.NewInt(987654321), -15)
	log := buildSwapLog(decoder, pool, sender, recipient, data)

	if !decoder.CanDecode(log) {
		t.Fatalf("expected swap topic0 to be decodable")
	}
	ev, err := decoder.Decode(log)
	if err != nil {
		t.Fatalf("decode swap: %v", err)
	}

	if ev.Amount0.Cmp(big.NewInt(-1000)) != 0 || ev.Amount1.Cmp(big.NewInt(2000)) != 0 {
		t.Fatalf("amounts mismatch: %s %s", ev.Amount0, ev.Amount1)
	}
	if ev.SqrtPriceX96.Cmp(big.NewInt(123456789)) != 0 {
		t.Fatalf("sqrt price mismatch: %s", ev.SqrtPriceX96)
	}
	if ev.Liquidity.Cmp(big.NewInt(987654321)) != 0 {
		t.Fatalf("liquidity mismatch: %s", ev.Liquidity)
	}
	if ev.Tick != -15 {
		t.Fatalf("tick mismatch: %d", ev.Tick)
	}
	if ev.Sender != sender || ev.Recipient != recipient {
		t.Fatalf("address mismatch: %s %s", ev.Sender.Hex(), ev.Recipient.Hex())
	}
}

func TestDecodeRejectsForeignTopics(t *testing.T) {
	decoder, err := NewSwapDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	log := types.Log{Topics: []common.Hash{common.HexToHash("0x01")}}
	if decoder.CanDecode(log) {
		t.Fatalf("expected foreign topic0 to be rejected")
	}
	if _, err := decoder.Decode(log); err == nil {
		t.Fatalf("expected decode error for foreign topic0")
	}
}

func TestDecodeRejectsMissingIndexedTopics(t *testing.T) {
	decoder, err := NewSwapDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	data := packSwapData(t, big.NewInt(-1), big.NewInt(1), big.NewInt(1), big.NewInt(1), 0)
	log := types.Log{Topics: []common.Hash{decoder.Topic0()}, Data: data}
	if _, err := decoder.Decode(log); err == nil {
		t.Fatalf("expected decode error for missing indexed topics")
	}
}

func TestTradeFromSwapDescending(t *testing.T) {
	decoder, err := NewSwapDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	pool := common.HexToAddress("0x1111111111111111111111111111111111111111")
	sender := common.HexToAddress("0x2222222222222222222222222222222222222222")
	recipient := common.HexToAddress("0x3333333333333333333333333333333333333333")

	// Buy against a descending sale: asset (token0) leaves the pool, quote
	// (token1) comes in.
	data := packSwapData(t, big.NewInt(-1000), big.NewInt(2000), big.NewInt(1), big.NewInt(1), -15)
	log := buildSwapLog(decoder, pool, sender, recipient, data)
	ev, err := decoder.Decode(log)
	if err != nil {
		t.Fatalf("decode swap: %v", err)
	}

	trade := TradeFromSwap(ev, log, 8453, 1700000000, false)
	if trade.AssetDelta != "1000" || trade.ProceedsDelta != "2000" {
		t.Fatalf("deltas mismatch: %s %s", trade.AssetDelta, trade.ProceedsDelta)
	}
	if trade.ChainID != 8453 || trade.Timestamp != 1700000000 {
		t.Fatalf("trade envelope mismatch: %+v", trade)
	}
	if trade.BlockNumber != log.BlockNumber || trade.LogIndex != uint64(log.Index) {
		t.Fatalf("log position mismatch: %+v", trade)
	}
	if trade.Pool != pool.Hex() || trade.TxHash != log.TxHash.Hex() {
		t.Fatalf("log identity mismatch: %+v", trade)
	}
	if trade.Tick != -15 {
		t.Fatalf("tick mismatch: %d", trade.Tick)
	}
}

func TestTradeFromSwapAscending(t *testing.T) {
	decoder, err := NewSwapDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	pool := common.HexToAddress("0x1111111111111111111111111111111111111111")
	sender := common.HexToAddress("0x2222222222222222222222222222222222222222")
	recipient := common.HexToAddress("0x3333333333333333333333333333333333333333")

	// Buy against an ascending sale: asset (token1) leaves the pool, quote
	// (token0) comes in.
	data := packSwapData(t, big.NewInt(750), big.NewInt(-500), big.NewInt(1), big.NewInt(1), 42)
	log := buildSwapLog(decoder, pool, sender, recipient, data)
	ev, err := decoder.Decode(log)
	if err != nil {
		t.Fatalf("decode swap: %v", err)
	}

	trade := TradeFromSwap(ev, log, 1, 1700000000, true)
	if trade.AssetDelta != "500" || trade.ProceedsDelta != "750" {
		t.Fatalf("deltas mismatch: %s %s", trade.AssetDelta, trade.ProceedsDelta)
	}
}

func TestTradeFromSwapCounterDirection(t *testing.T) {
	decoder, err := NewSwapDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	pool := common.HexToAddress("0x1111111111111111111111111111111111111111")
	sender := common.HexToAddress("0x2222222222222222222222222222222222222222")
	recipient := common.HexToAddress("0x3333333333333333333333333333333333333333")

	// Asset flowing back into the pool shows up as negative deltas.
	data := packSwapData(t, big.NewInt(300), big.NewInt(-600), big.NewInt(1), big.NewInt(1), 0)
	log := buildSwapLog(decoder, pool, sender, recipient, data)
	ev, err := decoder.Decode(log)
	if err != nil {
		t.Fatalf("decode swap: %v", err)
	}

	trade := TradeFromSwap(ev, log, 1, 1700000000, false)
	asset, proceeds, err := trade.Deltas()
	if err != nil {
		t.Fatalf("parse deltas: %v", err)
	}
	if asset.Sign() >= 0 || proceeds.Sign() >= 0 {
		t.Fatalf("expected negative deltas, got %s %s", asset, proceeds)
	}
}

func TestInt24Bounds(t *testing.T) {
	if _, err := int24FromBig(big.NewInt(1 << 23)); err == nil {
		t.Fatalf("expected overflow above int24 range")
	}
	if _, err := int24FromBig(big.NewInt(-(1 << 23) - 1)); err == nil {
		t.Fatalf("expected overflow below int24 range")
	}
	tick, err := int24FromBig(big.NewInt((1 << 23) - 1))
	if err != nil {
		t.Fatalf("max int24: %v", err)
	}
	if tick != (1<<23)-1 {
		t.Fatalf("max int24 mismatch: %d", tick)
	}
}
