package replay

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"time"

	"liquidityAuction/internal/auction"
)

// SaleState is the serialized engine state carried by a checkpoint. Amounts
// are decimal strings, exact at any magnitude. LastTick is the pool tick
// observed with the last processed swap; it reseeds the shadow book so a
// resumed replay rebuilds the same layout.
type SaleState struct {
	LastEpoch       uint64 `json:"last_epoch"`
	LastTick        int32  `json:"last_tick"`
	TickAccumulator string `json:"tick_accumulator"`
	TotalTokensSold string `json:"total_tokens_sold"`
	SoldLastEpoch   string `json:"sold_last_epoch"`
	TotalProceeds   string `json:"total_proceeds"`
}

// NewSaleState snapshots engine state for persistence.
func NewSaleState(st *auction.State) *SaleState {
	return &SaleState{
		LastEpoch:       st.LastEpoch,
		TickAccumulator: st.TickAccumulator.String(),
		TotalTokensSold: st.TotalTokensSold.String(),
		SoldLastEpoch:   st.TotalTokensSoldLastEpoch.String(),
		TotalProceeds:   st.TotalProceeds.String(),
	}
}

// State parses the snapshot back into engine state.
func (s *SaleState) State() (*auction.State, error) {
	st := auction.NewState()
	st.LastEpoch = s.LastEpoch
	for _, field := range []struct {
		name  string
		value string
		dst   *big.Int
	}{
		{"tick_accumulator", s.TickAccumulator, st.TickAccumulator},
		{"total_tokens_sold", s.TotalTokensSold, st.TotalTokensSold},
		{"sold_last_epoch", s.SoldLastEpoch, st.TotalTokensSoldLastEpoch},
		{"total_proceeds", s.TotalProceeds, st.TotalProceeds},
	} {
		if _, ok := field.dst.SetString(field.value, 10); !ok {
			return nil, fmt.Errorf("parse %s %q", field.name, field.value)
		}
	}
	return st, nil
}

// Checkpoint marks how far a replay has progressed. LastBlock is the last
// fully processed block for chain sources; Events counts emitted trades and
// drives resume for file sources.
type Checkpoint struct {
	LastBlock uint64     `json:"last_block"`
	Events    uint64     `json:"events"`
	Sale      *SaleState `json:"sale,omitempty"`
	UpdatedAt string     `json:"updated_at"`
}

// CheckpointStore persists checkpoints to disk.
type CheckpointStore struct {
	path    string
	enabled bool
}

func NewCheckpointStore(path string, enabled bool) *CheckpointStore {
	return &CheckpointStore{path: path, enabled: enabled}
}

func (c *CheckpointStore) Load() (Checkpoint, bool, error) {
	if !c.enabled {
		return Checkpoint{}, false, nil
	}

	stat, err := os.Stat(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Checkpoint{}, false, nil
		}
		return Checkpoint{}, false, fmt.Errorf("stat checkpoint: %w", err)
	}
	if stat.IsDir() {
		return Checkpoint{}, false, fmt.Errorf("checkpoint path is a directory")
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		return Checkpoint{}, false, fmt.Errorf("read checkpoint: %w", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return Checkpoint{}, false, fmt.Errorf("parse checkpoint: %w", err)
	}

	return cp, true, nil
}

func (c *CheckpointStore) Save(cp Checkpoint) error {
	if !c.enabled {
		return nil
	}

	dir := filepath.Dir(c.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create checkpoint dir: %w", err)
		}
	}

	cp.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	tmpPath := c.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write checkpoint tmp: %w", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		return fmt.Errorf("rename checkpoint: %w", err)
	}

	return nil
}
