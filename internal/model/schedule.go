package model

// ScheduleConfig is the file form of a sale schedule. Times accept RFC3339
// or unix seconds and the epoch length accepts bare seconds or a Go
// duration string. Token amounts are base-unit integers kept as strings so
// no decoder rounds them through a float.
type ScheduleConfig struct {
	Sale            string `json:"sale"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	EpochLength     string `json:"epoch_length"`
	TickSpacing     int32  `json:"tick_spacing"`
	StartTick       int32  `json:"start_tick"`
	EndTick         int32  `json:"end_tick"`
	Gamma           int32  `json:"gamma"`
	NumTokensToSell string `json:"num_tokens_to_sell"`
	MinimumProceeds string `json:"minimum_proceeds,omitempty"`
	MaximumProceeds string `json:"maximum_proceeds,omitempty"`
	IsAscending     bool   `json:"is_ascending"`
}
