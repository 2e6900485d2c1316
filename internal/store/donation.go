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

const donationTableName = "ashram.donations"

var donationColumns = utils.StructTagValues(types.Donation{})

type DonationRepository struct {
	pool *pgxpool.Pool
}

func NewDonationRepository(pool *pgxpool.Pool) *DonationRepository {
	return &DonationRepository{pool: pool}
}

func (r *DonationRepository) Donation(ctx context.Context, id string) (*types.Donation, error) {
	query, args, err := psql().
		Select(donationColumns...).
		From(donationTableName).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate donation query: %w", err)
	}

	var donation = new(types.Donation)
	err = pgxscan.Get(ctx, conn(ctx, r.pool), donation, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrDonationNotFound
		}
		return nil, fmt.Errorf("failed to fetch donation: %w", err)
	}

	return donation, nil
}

// Donations lists donations newest first.
func (r *DonationRepository) Donations(ctx context.Context, filter types.DonationFilter) ([]*types.Donation, error) {
	builder := psql().
		Select(donationColumns...).
		From(donationTableName).
		OrderBy("created_at DESC")
	if filter.Status != nil {
		builder = builder.Where(sq.Eq{"status": *filter.Status})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(filter.Limit)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate donations query: %w", err)
	}

	var donations = make([]*types.Donation, 0)
	err = pgxscan.Select(ctx, conn(ctx, r.pool), &donations, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch donations: %w", err)
	}

	return donations, nil
}

func (r *DonationRepository) CreateDonation(ctx context.Context, donation *types.Donation) error {
	now := time.Now()
	if donation.ID == "" {
		donation.ID = utils.NanoID()
	}
	donation.CreatedAt = now
	donation.UpdatedAt = now

	query, args, err := psql().
		Insert(donationTableName).
		SetMap(utils.StructToMap(donation)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate donation insert query: %w", err)
	}

	_, err = conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert donation: %w", err)
	}

	return nil
}

// UpdateDonation writes the mutable lifecycle columns of donation, but only
// while the stored status still equals expected. Losing that race returns
// types.ErrInvalidState. A receipt number already stored is never replaced.
func (r *DonationRepository) UpdateDonation(ctx context.Context, donation *types.Donation, expected types.DonationStatus) error {
	donation.UpdatedAt = time.Now()

	query, args, err := psql().
		Update(donationTableName).
		SetMap(map[string]any{
			"status":           donation.Status,
			"receipt_number":   sq.Expr("COALESCE(receipt_number, ?)", donation.ReceiptNumber),
			"rejection_reason": donation.RejectionReason,
			"verified_by":      donation.VerifiedBy,
			"verified_at":      donation.VerifiedAt,
			"updated_at":       donation.UpdatedAt,
		}).
		Where(sq.Eq{"id": donation.ID, "status": expected}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate donation update query: %w", err)
	}

	tag, err := conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update donation: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return types.ErrInvalidState
	}

	return nil
}

func (r *DonationRepository) CountByStatus(ctx context.Context) (*types.DonationCounts, error) {
	query, args, err := psql().
		Select(
			"COUNT(*) FILTER (WHERE status = 'pending') AS pending",
			"COUNT(*) FILTER (WHERE status = 'verified') AS verified",
			"COUNT(*) FILTER (WHERE status = 'rejected') AS rejected",
			"COUNT(*) FILTER (WHERE status = 'certificate_sent') AS certificate_sent",
			"COALESCE(SUM(amount) FILTER (WHERE status IN ('verified', 'certificate_sent')), 0) AS verified_amount",
		).
		From(donationTableName).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate donation counts query: %w", err)
	}

	var counts types.DonationCounts
	err = conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(
		&counts.Pending,
		&counts.Verified,
		&counts.Rejected,
		&counts.CertificateSent,
		&counts.VerifiedAmount,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count donations: %w", err)
	}

	return &counts, nil
}
