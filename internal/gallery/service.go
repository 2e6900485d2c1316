// Package gallery manages the public photo gallery.
package gallery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"vridhashram/internal/utils"
	"vridhashram/pkg/types"

	"github.com/sirupsen/logrus"
)

const defaultBatchTitle = "Untitled"

var imageContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

type Repository interface {
	Photo(ctx context.Context, id string) (*types.Photo, error)
	ActivePhotos(ctx context.Context) ([]*types.Photo, error)
	CreatePhoto(ctx context.Context, photo *types.Photo) error
	UpdatePhoto(ctx context.Context, photo *types.Photo) error
	DeletePhoto(ctx context.Context, id string) error
}

type ObjectStore interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

type Service struct {
	logger   *logrus.Logger
	repo     Repository
	objects  ObjectStore
	prefix   string
	maxBytes int64
}

func New(logger *logrus.Logger, repo Repository, objects ObjectStore, prefix string, maxBytes int64) *Service {
	return &Service{
		logger:   logger,
		repo:     repo,
		objects:  objects,
		prefix:   prefix,
		maxBytes: maxBytes,
	}
}

// Upload stores a single photo. A title is required.
func (s *Service) Upload(ctx context.Context, form types.PhotoForm, file *types.Upload, uploadedBy string) (*types.Photo, error) {
	form.Normalize("")
	if err := form.Validate(); err != nil {
		return nil, err
	}
	if err := s.validateFile("photo", file); err != nil {
		return nil, err
	}

	return s.store(ctx, form, file, uploadedBy)
}

// UploadMany stores up to types.MaxPhotosPerUpload photos sharing the same
// metadata. Either every photo is stored or none are.
func (s *Service) UploadMany(ctx context.Context, form types.PhotoForm, files []*types.Upload, uploadedBy string) ([]*types.Photo, error) {
	if len(files) == 0 {
		return nil, types.NewValidationError("photos", "at least one photo is required")
	}
	if len(files) > types.MaxPhotosPerUpload {
		return nil, types.NewValidationError("photos", fmt.Sprintf("at most %d photos per upload", types.MaxPhotosPerUpload))
	}

	form.Normalize(defaultBatchTitle)
	if err := form.Validate(); err != nil {
		return nil, err
	}
	for _, file := range files {
		if err := s.validateFile("photos", file); err != nil {
			return nil, err
		}
	}

	photos := make([]*types.Photo, 0, len(files))
	for _, file := range files {
		photo, err := s.store(ctx, form, file, uploadedBy)
		if err != nil {
			s.rollback(ctx, photos)
			return nil, err
		}
		photos = append(photos, photo)
	}

	return photos, nil
}

func (s *Service) Photos(ctx context.Context) ([]*types.Photo, error) {
	photos, err := s.repo.ActivePhotos(ctx)
	if err != nil {
		return nil, types.NewDependencyError(types.DependencyDatabase, err)
	}
	return photos, nil
}

func (s *Service) Update(ctx context.Context, id string, in types.UpdatePhotoInput) (*types.Photo, error) {
	photo, err := s.repo.Photo(ctx, id)
	if err != nil {
		return nil, dbError(err)
	}

	if err := in.Apply(photo); err != nil {
		return nil, err
	}

	if err := s.repo.UpdatePhoto(ctx, photo); err != nil {
		return nil, dbError(err)
	}

	return photo, nil
}

// Delete removes the stored object best effort, then the row.
func (s *Service) Delete(ctx context.Context, id string) error {
	photo, err := s.repo.Photo(ctx, id)
	if err != nil {
		return dbError(err)
	}

	if err := s.objects.Delete(ctx, photo.StorageKey); err != nil {
		s.logger.WithError(err).WithField("key", photo.StorageKey).Error("failed to delete photo object")
	}

	if err := s.repo.DeletePhoto(ctx, id); err != nil {
		return dbError(err)
	}

	return nil
}

func (s *Service) store(ctx context.Context, form types.PhotoForm, file *types.Upload, uploadedBy string) (*types.Photo, error) {
	key := utils.ObjectKey(s.prefix, file.Filename)
	url, err := s.objects.Upload(ctx, key, file.Body, file.ContentType)
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Error("failed to store photo")
		return nil, types.NewDependencyError(types.DependencyStorage, err)
	}

	photo := &types.Photo{
		Title:       form.Title,
		Description: form.Description,
		ImageURL:    url,
		StorageKey:  key,
		UploadedBy:  uploadedBy,
		Category:    types.PhotoCategory(form.Category),
		Tags:        form.Tags,
		IsActive:    true,
	}

	if err := s.repo.CreatePhoto(ctx, photo); err != nil {
		s.discard(ctx, key)
		return nil, types.NewDependencyError(types.DependencyDatabase, err)
	}

	return photo, nil
}

func (s *Service) rollback(ctx context.Context, photos []*types.Photo) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	for _, photo := range photos {
		if err := s.repo.DeletePhoto(ctx, photo.ID); err != nil {
			s.logger.WithError(err).WithField("photo_id", photo.ID).Error("failed to roll back photo row")
		}
		s.discard(ctx, photo.StorageKey)
	}
}

func (s *Service) discard(ctx context.Context, key string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := s.objects.Delete(ctx, key); err != nil {
		s.logger.WithError(err).WithField("key", key).Error("failed to delete orphaned photo object")
	}
}

func (s *Service) validateFile(field string, file *types.Upload) error {
	if file == nil || file.Body == nil {
		return types.NewValidationError(field, "photo file is required")
	}
	if s.maxBytes > 0 && file.Size > s.maxBytes {
		return types.NewValidationError(field, fmt.Sprintf("file must be at most %d MB", s.maxBytes>>20))
	}
	contentType := strings.ToLower(strings.TrimSpace(strings.Split(file.ContentType, ";")[0]))
	if !imageContentTypes[contentType] {
		return types.NewValidationError(field, "only image files are allowed")
	}
	return nil
}

func dbError(err error) error {
	var validation *types.ValidationError
	if errors.Is(err, types.ErrNotFound) || errors.As(err, &validation) {
		return err
	}
	return types.NewDependencyError(types.DependencyDatabase, err)
}
