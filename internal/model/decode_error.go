package model

// DecodeError records a swap log the replay could not turn into a trade.
// It is attached to the warning log line, never persisted.
type DecodeError struct {
	ChainID     uint64 `json:"chain_id"`
	BlockNumber uint64 `json:"block_number"`
	TxHash      string `json:"tx_hash"`
	LogIndex    uint64 `json:"log_index"`
	Pool        string `json:"pool"`
	Topic0      string `json:"topic0"`
	Reason      string `json:"reason"`
}
