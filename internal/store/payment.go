package store

import (
	"context"
	"fmt"
	"time"

	"vridhashram/internal/utils"
	"vridhashram/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const paymentTableName = "ashram.payments"

var paymentColumns = utils.StructTagValues(types.Payment{})

type PaymentRepository struct {
	pool *pgxpool.Pool
}

func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

func (r *PaymentRepository) Payment(ctx context.Context, id string) (*types.Payment, error) {
	return r.payment(ctx, sq.Eq{"id": id})
}

func (r *PaymentRepository) PaymentByStripeID(ctx context.Context, stripePaymentID string) (*types.Payment, error) {
	return r.payment(ctx, sq.Eq{"stripe_payment_id": stripePaymentID})
}

func (r *PaymentRepository) payment(ctx context.Context, where sq.Eq) (*types.Payment, error) {
	query, args, err := psql().
		Select(paymentColumns...).
		From(paymentTableName).
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate payment query: %w", err)
	}

	var payment = new(types.Payment)
	err = pgxscan.Get(ctx, conn(ctx, r.pool), payment, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to fetch payment: %w", err)
	}

	return payment, nil
}

// Payments lists payments newest first. A zero limit returns everything.
func (r *PaymentRepository) Payments(ctx context.Context, limit uint64) ([]*types.Payment, error) {
	builder := psql().
		Select(paymentColumns...).
		From(paymentTableName).
		OrderBy("transaction_date DESC")
	if limit > 0 {
		builder = builder.Limit(limit)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate payments query: %w", err)
	}

	var payments = make([]*types.Payment, 0)
	err = pgxscan.Select(ctx, conn(ctx, r.pool), &payments, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payments: %w", err)
	}

	return payments, nil
}

func (r *PaymentRepository) CreatePayment(ctx context.Context, payment *types.Payment) error {
	if payment.ID == "" {
		payment.ID = utils.NanoID()
	}
	if payment.TransactionDate.IsZero() {
		payment.TransactionDate = time.Now()
	}

	query, args, err := psql().
		Insert(paymentTableName).
		SetMap(utils.StructToMap(payment)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate payment insert query: %w", err)
	}

	_, err = conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}

	return nil
}

// CompletedTotals sums every completed payment.
func (r *PaymentRepository) CompletedTotals(ctx context.Context) (*types.PaymentTotals, error) {
	query, args, err := psql().
		Select("COUNT(*)", "COALESCE(SUM(amount), 0)").
		From(paymentTableName).
		Where(sq.Eq{"status": types.PaymentStatusCompleted}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate payment totals query: %w", err)
	}

	var totals types.PaymentTotals
	err = conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&totals.TotalDonations, &totals.TotalAmount)
	if err != nil {
		return nil, fmt.Errorf("failed to total payments: %w", err)
	}

	return &totals, nil
}

// MonthlyTotals buckets completed payments by calendar month, newest month
// first, limited to months.
func (r *PaymentRepository) MonthlyTotals(ctx context.Context, months uint64) ([]*types.MonthlyTotal, error) {
	query, args, err := psql().
		Select(
			"EXTRACT(YEAR FROM transaction_date)::int AS year",
			"EXTRACT(MONTH FROM transaction_date)::int AS month",
			"COALESCE(SUM(amount), 0) AS amount",
			"COUNT(*) AS count",
		).
		From(paymentTableName).
		Where(sq.Eq{"status": types.PaymentStatusCompleted}).
		GroupBy("1", "2").
		OrderBy("1 DESC", "2 DESC").
		Limit(months).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate monthly payments query: %w", err)
	}

	var totals = make([]*types.MonthlyTotal, 0)
	err = pgxscan.Select(ctx, conn(ctx, r.pool), &totals, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate monthly payments: %w", err)
	}

	return totals, nil
}

func (r *PaymentRepository) RecentPayments(ctx context.Context, limit uint64) ([]*types.RecentPayment, error) {
	query, args, err := psql().
		Select("id", "donor_name", "amount", "purpose", "transaction_date").
		From(paymentTableName).
		OrderBy("transaction_date DESC").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate recent payments query: %w", err)
	}

	var payments = make([]*types.RecentPayment, 0)
	err = pgxscan.Select(ctx, conn(ctx, r.pool), &payments, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recent payments: %w", err)
	}

	return payments, nil
}
