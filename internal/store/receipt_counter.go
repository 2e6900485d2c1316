package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const receiptCounterTableName = "ashram.receipt_counters"

// ReceiptCounterRepository keeps one counter row per receipt year. Each
// reservation bumps the row atomically, so concurrent verifications never see
// the same count.
type ReceiptCounterRepository struct {
	pool *pgxpool.Pool
}

func NewReceiptCounterRepository(pool *pgxpool.Pool) *ReceiptCounterRepository {
	return &ReceiptCounterRepository{pool: pool}
}

// ReserveIssued claims the next receipt of year and returns the number of
// receipts issued in year before it.
func (r *ReceiptCounterRepository) ReserveIssued(ctx context.Context, year int) (int, error) {
	query, args, err := psql().
		Insert(receiptCounterTableName).
		Columns("year", "last_sequence").
		Values(year, 1).
		Suffix("ON CONFLICT (year) DO UPDATE SET last_sequence = " + receiptCounterTableName + ".last_sequence + 1 RETURNING last_sequence - 1").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to generate receipt counter query: %w", err)
	}

	var issued int
	err = conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&issued)
	if err != nil {
		return 0, fmt.Errorf("failed to reserve receipt for %d: %w", year, err)
	}

	return issued, nil
}
