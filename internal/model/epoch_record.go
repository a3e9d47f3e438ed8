package model

import (
	"encoding/json"
)

// SlugRecord is one positioned liquidity range inside an epoch record.
type SlugRecord struct {
	Kind      string `json:"kind"`
	TickLower int32  `json:"tick_lower"`
	TickUpper int32  `json:"tick_upper"`
	Liquidity string `json:"liquidity"`
}

// EpochRecord captures the outcome of one rebalance for storage and audit.
// Amounts are base-unit decimal strings; the accumulator is a signed 1e18
// fixed-point decimal string.
type EpochRecord struct {
	Sale            string       `json:"sale"`
	Epoch           uint64       `json:"epoch"`
	Time            uint64       `json:"time"`
	Branch          string       `json:"branch"`
	TickAccumulator string       `json:"tick_accumulator"`
	FloorTick       int32        `json:"floor_tick"`
	CurrentTick     int32        `json:"current_tick"`
	TotalTokensSold string       `json:"total_tokens_sold"`
	TotalProceeds   string       `json:"total_proceeds"`
	ExpectedSold    string       `json:"expected_sold"`
	Slugs           []SlugRecord `json:"slugs"`
	RecordedAt      string       `json:"recorded_at"`
}

// MarshalJSON ensures EpochRecord is encoded with stable field names.
func (er EpochRecord) MarshalJSON() ([]byte, error) {
	type Alias EpochRecord
	return json.Marshal(Alias(er))
}

// UnmarshalJSON decodes an EpochRecord from JSON.
func (er *EpochRecord) UnmarshalJSON(data []byte) error {
	type Alias EpochRecord
	var a Alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*er = EpochRecord(a)
	return nil
}
