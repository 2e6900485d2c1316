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

const registrationTableName = "ashram.registrations"

var registrationColumns = utils.StructTagValues(types.Registration{})

type RegistrationRepository struct {
	pool *pgxpool.Pool
}

func NewRegistrationRepository(pool *pgxpool.Pool) *RegistrationRepository {
	return &RegistrationRepository{pool: pool}
}

func (r *RegistrationRepository) Registration(ctx context.Context, id string) (*types.Registration, error) {
	query, args, err := psql().
		Select(registrationColumns...).
		From(registrationTableName).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate registration query: %w", err)
	}

	var registration = new(types.Registration)
	err = pgxscan.Get(ctx, conn(ctx, r.pool), registration, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to fetch registration: %w", err)
	}

	return registration, nil
}

func (r *RegistrationRepository) Registrations(ctx context.Context) ([]*types.Registration, error) {
	query, args, err := psql().
		Select(registrationColumns...).
		From(registrationTableName).
		OrderBy("registered_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate registrations query: %w", err)
	}

	var registrations = make([]*types.Registration, 0)
	err = pgxscan.Select(ctx, conn(ctx, r.pool), &registrations, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch registrations: %w", err)
	}

	return registrations, nil
}

func (r *RegistrationRepository) CreateRegistration(ctx context.Context, registration *types.Registration) error {
	registration.ID = utils.NanoID()
	registration.RegisteredAt = time.Now()
	if registration.Interests == nil {
		registration.Interests = []string{}
	}

	query, args, err := psql().
		Insert(registrationTableName).
		SetMap(utils.StructToMap(registration)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate registration insert query: %w", err)
	}

	_, err = conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert registration: %w", err)
	}

	return nil
}

func (r *RegistrationRepository) UpdateRegistrationStatus(ctx context.Context, id string, status types.RegistrationStatus) error {
	query, args, err := psql().
		Update(registrationTableName).
		Set("status", status).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate registration status query: %w", err)
	}

	tag, err := conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update registration status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrRegistrationNotFound
	}

	return nil
}

func (r *RegistrationRepository) CountByStatus(ctx context.Context) (*types.RegistrationCounts, error) {
	query, args, err := psql().
		Select(
			"COUNT(*)",
			"COUNT(*) FILTER (WHERE status = 'pending')",
			"COUNT(*) FILTER (WHERE status = 'approved')",
			"COUNT(*) FILTER (WHERE status = 'rejected')",
		).
		From(registrationTableName).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate registration counts query: %w", err)
	}

	var counts types.RegistrationCounts
	err = conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(
		&counts.Total,
		&counts.Pending,
		&counts.Approved,
		&counts.Rejected,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count registrations: %w", err)
	}

	return &counts, nil
}

func (r *RegistrationRepository) RecentRegistrations(ctx context.Context, limit uint64) ([]*types.RecentRegistration, error) {
	query, args, err := psql().
		Select("id", "name", "email", "status", "registered_at").
		From(registrationTableName).
		OrderBy("registered_at DESC").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate recent registrations query: %w", err)
	}

	var registrations = make([]*types.RecentRegistration, 0)
	err = pgxscan.Select(ctx, conn(ctx, r.pool), &registrations, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recent registrations: %w", err)
	}

	return registrations, nil
}

// MonthlyCounts buckets registrations by calendar month, newest first.
func (r *RegistrationRepository) MonthlyCounts(ctx context.Context, months uint64) ([]*types.MonthlyCount, error) {
	query, args, err := psql().
		Select(
			"EXTRACT(YEAR FROM registered_at)::int AS year",
			"EXTRACT(MONTH FROM registered_at)::int AS month",
			"COUNT(*) AS count",
		).
		From(registrationTableName).
		GroupBy("1", "2").
		OrderBy("1 DESC", "2 DESC").
		Limit(months).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate monthly registrations query: %w", err)
	}

	var counts = make([]*types.MonthlyCount, 0)
	err = pgxscan.Select(ctx, conn(ctx, r.pool), &counts, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate monthly registrations: %w", err)
	}

	return counts, nil
}
