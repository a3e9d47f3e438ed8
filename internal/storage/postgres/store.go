package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"liquidityAuction/internal/model"
)

// Store provides Postgres persistence for auction records.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// WriteEpochs inserts or updates epoch records.
func (s *Store) WriteEpochs(ctx context.Context, records []model.EpochRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, rec := range records {
		slugs, err := json.Marshal(rec.Slugs)
		if err != nil {
			return fmt.Errorf("marshal slugs: %w", err)
		}
		batch.Queue(`
			INSERT INTO auction_epochs (
				sale, epoch, epoch_time, branch, tick_accumulator, floor_tick, current_tick,
				total_tokens_sold, total_proceeds, expected_sold, slugs, recorded_at, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,now(),now())
			ON CONFLICT (sale, epoch)
			DO UPDATE SET
				epoch_time = EXCLUDED.epoch_time,
				branch = EXCLUDED.branch,
				tick_accumulator = EXCLUDED.tick_accumulator,
				floor_tick = EXCLUDED.floor_tick,
				current_tick = EXCLUDED.current_tick,
				total_tokens_sold = EXCLUDED.total_tokens_sold,
				total_proceeds = EXCLUDED.total_proceeds,
				expected_sold = EXCLUDED.expected_sold,
				slugs = EXCLUDED.slugs,
				recorded_at = EXCLUDED.recorded_at,
				updated_at = now()
		`,
			rec.Sale,
			int64(rec.Epoch),
			int64(rec.Time),
			rec.Branch,
			rec.TickAccumulator,
			rec.FloorTick,
			rec.CurrentTick,
			rec.TotalTokensSold,
			rec.TotalProceeds,
			rec.ExpectedSold,
			string(slugs),
			rec.RecordedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// UpsertSale inserts or updates the running progress row for a sale.
func (s *Store) UpsertSale(ctx context.Context, rec model.SaleRecord) error {
	if rec.Sale == "" {
		return fmt.Errorf("sale name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO auction_sales (sale, last_epoch, total_sold, total_proceeds, expected_sold, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (sale) DO UPDATE SET
			last_epoch = EXCLUDED.last_epoch,
			total_sold = EXCLUDED.total_sold,
			total_proceeds = EXCLUDED.total_proceeds,
			expected_sold = EXCLUDED.expected_sold,
			updated_at = now()
	`, rec.Sale, int64(rec.LastEpoch), rec.TotalSold, rec.TotalProceeds, rec.ExpectedSold)
	return err
}

// SaveReplayState upserts the replay position for a sale.
func (s *Store) SaveReplayState(ctx context.Context, sale string, lastBlock, events uint64) error {
	if sale == "" {
		return fmt.Errorf("sale name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO replay_state (sale, last_block, events, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (sale) DO UPDATE
		SET last_block = EXCLUDED.last_block, events = EXCLUDED.events, updated_at = now()
	`, sale, int64(lastBlock), int64(events))
	return err
}

// LoadReplayState returns the stored replay position for a sale.
func (s *Store) LoadReplayState(ctx context.Context, sale string) (lastBlock, events uint64, found bool, err error) {
	if sale == "" {
		return 0, 0, false, fmt.Errorf("sale name required")
	}
	var lb, ev int64
	row := s.pool.QueryRow(ctx, `SELECT last_block, events FROM replay_state WHERE sale=$1`, sale)
	if err := row.Scan(&lb, &ev); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, false, nil
		}
		return 0, 0, false, err
	}
	return uint64(lb), uint64(ev), true, nil
}
