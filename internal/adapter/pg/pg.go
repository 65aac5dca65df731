package pg

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/olyamironova/order-matcher/internal/domain"
	"github.com/olyamironova/order-matcher/internal/port"
)

var _ port.OrderArchive = (*PgArchive)(nil)

// PgArchive writes terminal orders to Postgres as an audit trail.
// The engine never reads it back.
type PgArchive struct {
	pool *pgxpool.Pool
}

// call Close when finish to work with database.
func NewPgArchive(ctx context.Context, dsn string) (*PgArchive, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pg: create pool: %w", err)
	}
	return &PgArchive{pool: pool}, nil
}

func (p *PgArchive) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS orders_archive (
  id                 BIGINT PRIMARY KEY,
  customer_id        BIGINT NOT NULL,
  instrument         TEXT NOT NULL,
  side               TEXT NOT NULL,
  type               TEXT NOT NULL,
  limit_price        BIGINT NOT NULL,
  volume             BIGINT NOT NULL,
  matched_volume     BIGINT NOT NULL,
  cost               BIGINT NOT NULL,
  mean_matched_price BIGINT NOT NULL,
  status             TEXT NOT NULL,
  finished_at        TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS orders_archive_instrument_finished
  ON orders_archive (instrument, finished_at, id);
`

// EnsureSchema creates the archive table if it does not exist.
func (p *PgArchive) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("pg: ensure schema: %w", err)
	}
	return nil
}

// ArchiveOrders inserts orders in one transaction. Re-archiving an id is a no-op.
func (p *PgArchive) ArchiveOrders(ctx context.Context, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	for _, o := range orders {
		if !o.Status().Terminal() {
			return fmt.Errorf("pg: order %d is not terminal", o.ID)
		}
	}
	batch := archiveBatch(orders)
	return p.withTx(ctx, func(tx pgx.Tx) error {
		br := tx.SendBatch(ctx, batch)
		for _, o := range orders {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				return fmt.Errorf("pg: archive order %d: %w", o.ID, err)
			}
		}
		if err := br.Close(); err != nil {
			return fmt.Errorf("pg: archive batch: %w", err)
		}
		return nil
	})
}

const insertArchived = `
INSERT INTO orders_archive(id, customer_id, instrument, side, type, limit_price, volume, matched_volume, cost, mean_matched_price, status, finished_at)
VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
ON CONFLICT (id) DO NOTHING
`

// archiveBatch queues one insert per order, in order.
func archiveBatch(orders []domain.Order) *pgx.Batch {
	batch := &pgx.Batch{}
	for _, o := range orders {
		batch.Queue(insertArchived,
			int64(o.ID), int64(o.CustomerID), string(o.Instrument), string(o.Side), string(o.Type),
			o.LimitPrice, int64(o.TotalVolume()), int64(o.Filled), o.Cost, o.MeanMatchedPrice(),
			string(o.Status()), o.FinishedAt)
	}
	return batch
}

func (p *PgArchive) withTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("pg: begin: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("pg: commit: %w", err)
	}
	committed = true
	return nil
}
