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

const photoTableName = "ashram.photos"

var photoColumns = utils.StructTagValues(types.Photo{})

type PhotoRepository struct {
	pool *pgxpool.Pool
}

func NewPhotoRepository(pool *pgxpool.Pool) *PhotoRepository {
	return &PhotoRepository{pool: pool}
}

func (r *PhotoRepository) Photo(ctx context.Context, id string) (*types.Photo, error) {
	query, args, err := psql().
		Select(photoColumns...).
		From(photoTableName).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate photo query: %w", err)
	}

	var photo = new(types.Photo)
	err = pgxscan.Get(ctx, conn(ctx, r.pool), photo, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrPhotoNotFound
		}
		return nil, fmt.Errorf("failed to fetch photo: %w", err)
	}

	return photo, nil
}

// ActivePhotos lists the public gallery, newest first.
func (r *PhotoRepository) ActivePhotos(ctx context.Context) ([]*types.Photo, error) {
	query, args, err := psql().
		Select(photoColumns...).
		From(photoTableName).
		Where(sq.Eq{"is_active": true}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate photos query: %w", err)
	}

	var photos = make([]*types.Photo, 0)
	err = pgxscan.Select(ctx, conn(ctx, r.pool), &photos, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch photos: %w", err)
	}

	return photos, nil
}

func (r *PhotoRepository) CreatePhoto(ctx context.Context, photo *types.Photo) error {
	now := time.Now()
	photo.ID = utils.NanoID()
	photo.CreatedAt = now
	photo.UpdatedAt = now
	if photo.Tags == nil {
		photo.Tags = []string{}
	}

	query, args, err := psql().
		Insert(photoTableName).
		SetMap(utils.StructToMap(photo)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate photo insert query: %w", err)
	}

	_, err = conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert photo: %w", err)
	}

	return nil
}

func (r *PhotoRepository) UpdatePhoto(ctx context.Context, photo *types.Photo) error {
	photo.UpdatedAt = time.Now()

	query, args, err := psql().
		Update(photoTableName).
		SetMap(map[string]any{
			"title":       photo.Title,
			"description": photo.Description,
			"is_active":   photo.IsActive,
			"updated_at":  photo.UpdatedAt,
		}).
		Where(sq.Eq{"id": photo.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate photo update query: %w", err)
	}

	tag, err := conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update photo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrPhotoNotFound
	}

	return nil
}

func (r *PhotoRepository) DeletePhoto(ctx context.Context, id string) error {
	query, args, err := psql().
		Delete(photoTableName).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate photo delete query: %w", err)
	}

	tag, err := conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete photo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrPhotoNotFound
	}

	return nil
}
