package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rickgao/skyflip/internal/model"
)

const purchasesSchema = `
CREATE TABLE IF NOT EXISTS purchases (
    id              BIGSERIAL PRIMARY KEY,
    instance_id     TEXT        NOT NULL,
    item_name       TEXT        NOT NULL,
    value_purchased BIGINT      NOT NULL,
    projected_sale  DOUBLE PRECISION NOT NULL,
    purchased_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_purchases_instance_time
    ON purchases (instance_id, purchased_at DESC);
`

// LedgerMirror writes confirmed purchases to Postgres alongside the JSON
// ledger.
type LedgerMirror struct {
	pool       *pgxpool.Pool
	instanceID string
	logger     *slog.Logger
}

// NewLedgerMirror creates a mirror over an established pool.
func NewLedgerMirror(pool *pgxpool.Pool, instanceID string, logger *slog.Logger) *LedgerMirror {
	if logger == nil {
		logger = slog.Default()
	}
	return &LedgerMirror{
		pool:       pool,
		instanceID: instanceID,
		logger:     logger,
	}
}

// EnsureSchema creates the purchases table when absent.
func (m *LedgerMirror) EnsureSchema(ctx context.Context) error {
	if _, err := m.pool.Exec(ctx, purchasesSchema); err != nil {
		return fmt.Errorf("ensure purchases schema: %w", err)
	}
	return nil
}

// Record inserts one purchase row.
func (m *LedgerMirror) Record(ctx context.Context, rec model.PurchaseRecord) error {
	_, err := m.pool.Exec(ctx,
		`INSERT INTO purchases (instance_id, item_name, value_purchased, projected_sale, purchased_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		m.instanceID,
		rec.ItemName,
		rec.ValuePurchased,
		rec.ProjectedSaleValue,
		rec.TimePurchased,
	)
	if err != nil {
		return fmt.Errorf("insert purchase: %w", err)
	}
	return nil
}
