package stats

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store provides Postgres persistence for endpoint stats.
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

// UpsertReport inserts or updates the endpoint rows of every pool at the
// given height.
func (s *Store) UpsertReport(ctx context.Context, height uint64, report Report) error {
	if len(report) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	queued := 0
	for poolID, rows := range report {
		for point, row := range rows {
			batch.Queue(`
				INSERT INTO dcl_endpoint_stats (
					pool_id, point, height, liquidity,
					tvl_x_l, tvl_y_l, tvl_x_o, tvl_y_o,
					vol_x_in_l, vol_y_in_l, vol_x_out_l, vol_y_out_l,
					vol_x_in_o, vol_y_in_o, vol_x_out_o, vol_y_out_o,
					fee_x, fee_y, p_fee_x, p_fee_y, price, updated_at
				) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,now())
				ON CONFLICT (pool_id, point)
				DO UPDATE SET
					height = EXCLUDED.height,
					liquidity = EXCLUDED.liquidity,
					tvl_x_l = EXCLUDED.tvl_x_l,
					tvl_y_l = EXCLUDED.tvl_y_l,
					tvl_x_o = EXCLUDED.tvl_x_o,
					tvl_y_o = EXCLUDED.tvl_y_o,
					vol_x_in_l = EXCLUDED.vol_x_in_l,
					vol_y_in_l = EXCLUDED.vol_y_in_l,
					vol_x_out_l = EXCLUDED.vol_x_out_l,
					vol_y_out_l = EXCLUDED.vol_y_out_l,
					vol_x_in_o = EXCLUDED.vol_x_in_o,
					vol_y_in_o = EXCLUDED.vol_y_in_o,
					vol_x_out_o = EXCLUDED.vol_x_out_o,
					vol_y_out_o = EXCLUDED.vol_y_out_o,
					fee_x = EXCLUDED.fee_x,
					fee_y = EXCLUDED.fee_y,
					p_fee_x = EXCLUDED.p_fee_x,
					p_fee_y = EXCLUDED.p_fee_y,
					price = EXCLUDED.price,
					updated_at = now()
			`,
				string(poolID),
				point,
				int64(height),
				row.Liquidity,
				row.TvlXLiquidity,
				row.TvlYLiquidity,
				row.TvlXOrder,
				row.TvlYOrder,
				row.VolXInLiquidity,
				row.VolYInLiquidity,
				row.VolXOutLiquidity,
				row.VolYOutLiquidity,
				row.VolXInOrder,
				row.VolYInOrder,
				row.VolXOutOrder,
				row.VolYOutOrder,
				row.FeeX,
				row.FeeY,
				row.ProtocolFeeX,
				row.ProtocolFeeY,
				row.Price,
			)
			queued++
		}
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < queued; i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
