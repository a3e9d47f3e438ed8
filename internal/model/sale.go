package model

// SaleRecord is the running progress row for one sale, refreshed as replay
// or simulation advances. Amounts are base-unit decimal strings.
type SaleRecord struct {
	Sale          string `json:"sale"`
	LastEpoch     uint64 `json:"last_epoch"`
	TotalSold     string `json:"total_sold"`
	TotalProceeds string `json:"total_proceeds"`
	ExpectedSold  string `json:"expected_sold"`
	UpdatedAt     string `json:"updated_at"`
}
