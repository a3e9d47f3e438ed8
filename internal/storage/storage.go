// Package storage persists committed epoch records and sale progress.
package storage

import (
	"context"

	"liquidityAuction/internal/model"
)

// EpochSink receives committed epoch records.
type EpochSink interface {
	WriteEpochs(ctx context.Context, records []model.EpochRecord) error
}

// SaleSink receives sale-level progress alongside epoch records.
type SaleSink interface {
	UpsertSale(ctx context.Context, rec model.SaleRecord) error
	SaveReplayState(ctx context.Context, sale string, lastBlock, events uint64) error
}
