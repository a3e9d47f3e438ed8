package model

import (
	"fmt"
	"math/big"
)

// TradeEvent is one fill against the auctioned pool, normalized for the
// rebalancer: deltas are signed base-unit amounts from the sale's point of
// view (positive asset delta = tokens sold to traders, positive proceeds
// delta = quote received).
type TradeEvent struct {
	ChainID       uint64 `json:"chain_id,omitempty"`
	BlockNumber   uint64 `json:"block_number,omitempty"`
	TxHash        string `json:"tx_hash,omitempty"`
	LogIndex      uint64 `json:"log_index,omitempty"`
	Pool          string `json:"pool,omitempty"`
	Timestamp     uint64 `json:"timestamp"`
	Tick          int32  `json:"tick"`
	AssetDelta    string `json:"asset_delta"`
	ProceedsDelta string `json:"proceeds_delta"`
}

// Deltas parses the signed amounts into big integers.
func (t TradeEvent) Deltas() (asset, proceeds *big.Int, err error) {
	asset, ok := new(big.Int).SetString(t.AssetDelta, 10)
	if !ok {
		return nil, nil, fmt.Errorf("parse asset_delta %q", t.AssetDelta)
	}
	proceeds, ok = new(big.Int).SetString(t.ProceedsDelta, 10)
	if !ok {
		return nil, nil, fmt.Errorf("parse proceeds_delta %q", t.ProceedsDelta)
	}
	return asset, proceeds, nil
}
