package gallery

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"vridhashram/pkg/types"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Photo(ctx context.Context, id string) (*types.Photo, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	p := *args.Get(0).(*types.Photo)
	return &p, args.Error(1)
}

func (m *MockRepository) ActivePhotos(ctx context.Context) ([]*types.Photo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.Photo), args.Error(1)
}

func (m *MockRepository) CreatePhoto(ctx context.Context, photo *types.Photo) error {
	args := m.Called(ctx, photo)
	if args.Error(0) == nil {
		photo.ID = "ph_" + photo.StorageKey
	}
	return args.Error(0)
}

func (m *MockRepository) UpdatePhoto(ctx context.Context, photo *types.Photo) error {
	return m.Called(ctx, photo).Error(0)
}

func (m *MockRepository) DeletePhoto(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	args := m.Called(ctx, key, body, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockObjectStore) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func newService() (*Service, *MockRepository, *MockObjectStore) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	repo := new(MockRepository)
	objects := new(MockObjectStore)
	return New(logger, repo, objects, "ngo-photos", 5<<20), repo, objects
}

func jpeg(name string) *types.Upload {
	return &types.Upload{Filename: name, ContentType: "image/jpeg", Size: 2048, Body: strings.NewReader("jpg")}
}

func TestUpload(t *testing.T) {
	svc, repo, objects := newService()
	ctx := context.Background()

	objects.On("Upload", ctx, mock.MatchedBy(func(k string) bool { return strings.HasPrefix(k, "ngo-photos/") }), mock.Anything, "image/jpeg").
		Return("https://cdn.example.com/ngo-photos/x.jpg", nil)
	repo.On("CreatePhoto", ctx, mock.MatchedBy(func(p *types.Photo) bool {
		return p.Title == "Diwali 2024" &&
			p.Category == types.PhotoCategoryEvent &&
			assert.ObjectsAreEqual([]string{"festival", "elders"}, p.Tags) &&
			p.IsActive
	})).Return(nil)

	photo, err := svc.Upload(ctx, types.PhotoForm{
		Title:    " Diwali 2024 ",
		Category: "event",
		Tags:     []string{"festival, elders"},
	}, jpeg("a.jpg"), "admin-1")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/ngo-photos/x.jpg", photo.ImageURL)
	assert.Equal(t, "admin-1", photo.UploadedBy)

	repo.AssertExpectations(t)
	objects.AssertExpectations(t)
}

func TestUpload_Validation(t *testing.T) {
	svc, _, objects := newService()

	_, err := svc.Upload(context.Background(), types.PhotoForm{}, jpeg("a.jpg"), "admin-1")
	var ve *types.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "title", ve.Field)

	pdf := jpeg("a.pdf")
	pdf.ContentType = "application/pdf"
	_, err = svc.Upload(context.Background(), types.PhotoForm{Title: "x"}, pdf, "admin-1")
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "photo", ve.Field)

	_, err = svc.Upload(context.Background(), types.PhotoForm{Title: "x", Category: "party"}, jpeg("a.jpg"), "admin-1")
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "category", ve.Field)

	objects.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpload_DatabaseFailureRemovesObject(t *testing.T) {
	svc, repo, objects := newService()
	ctx := context.Background()

	objects.On("Upload", ctx, mock.Anything, mock.Anything, mock.Anything).Return("https://cdn/x.jpg", nil)
	repo.On("CreatePhoto", ctx, mock.Anything).Return(errors.New("insert failed"))
	objects.On("Delete", mock.Anything, mock.AnythingOfType("string")).Return(nil)

	_, err := svc.Upload(ctx, types.PhotoForm{Title: "x"}, jpeg("a.jpg"), "admin-1")
	assert.True(t, types.IsDependency(err, types.DependencyDatabase))
	objects.AssertExpectations(t)
}

func TestUploadMany(t *testing.T) {
	svc, repo, objects := newService()
	ctx := context.Background()

	objects.On("Upload", ctx, mock.Anything, mock.Anything, mock.Anything).Return("https://cdn/x.jpg", nil)
	repo.On("CreatePhoto", ctx, mock.MatchedBy(func(p *types.Photo) bool {
		return p.Title == "Untitled" && p.Category == types.PhotoCategoryOther
	})).Return(nil)

	photos, err := svc.UploadMany(ctx, types.PhotoForm{}, []*types.Upload{jpeg("a.jpg"), jpeg("b.jpg")}, "admin-1")
	require.NoError(t, err)
	assert.Len(t, photos, 2)
}

func TestUploadMany_Limits(t *testing.T) {
	svc, _, _ := newService()

	_, err := svc.UploadMany(context.Background(), types.PhotoForm{}, nil, "admin-1")
	var ve *types.ValidationError
	require.ErrorAs(t, err, &ve)

	files := make([]*types.Upload, types.MaxPhotosPerUpload+1)
	for i := range files {
		files[i] = jpeg("a.jpg")
	}
	_, err = svc.UploadMany(context.Background(), types.PhotoForm{}, files, "admin-1")
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "photos", ve.Field)
}

func TestUploadMany_RollsBackOnFailure(t *testing.T) {
	svc, repo, objects := newService()
	ctx := context.Background()

	objects.On("Upload", ctx, mock.Anything, mock.Anything, mock.Anything).Return("https://cdn/x.jpg", nil).Once()
	objects.On("Upload", ctx, mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("quota")).Once()
	repo.On("CreatePhoto", ctx, mock.Anything).Return(nil).Once()
	repo.On("DeletePhoto", mock.Anything, mock.AnythingOfType("string")).Return(nil).Once()
	objects.On("Delete", mock.Anything, mock.AnythingOfType("string")).Return(nil).Once()

	_, err := svc.UploadMany(ctx, types.PhotoForm{Title: "Camp"}, []*types.Upload{jpeg("a.jpg"), jpeg("b.jpg")}, "admin-1")
	assert.True(t, types.IsDependency(err, types.DependencyStorage))

	repo.AssertExpectations(t)
	objects.AssertExpectations(t)
}

func TestUpdate(t *testing.T) {
	svc, repo, _ := newService()
	ctx := context.Background()

	repo.On("Photo", ctx, "p1").Return(&types.Photo{ID: "p1", Title: "Old", IsActive: true}, nil)
	repo.On("UpdatePhoto", ctx, mock.MatchedBy(func(p *types.Photo) bool {
		return p.Title == "New" && !p.IsActive
	})).Return(nil)

	title, active := "New", false
	got, err := svc.Update(ctx, "p1", types.UpdatePhotoInput{Title: &title, IsActive: &active})
	require.NoError(t, err)
	assert.Equal(t, "New", got.Title)
	assert.False(t, got.IsActive)
}

func TestDelete_StorageFailureStillDeletesRow(t *testing.T) {
	svc, repo, objects := newService()
	ctx := context.Background()

	repo.On("Photo", ctx, "p1").Return(&types.Photo{ID: "p1", StorageKey: "ngo-photos/p1.jpg"}, nil)
	objects.On("Delete", ctx, "ngo-photos/p1.jpg").Return(errors.New("gone"))
	repo.On("DeletePhoto", ctx, "p1").Return(nil)

	require.NoError(t, svc.Delete(ctx, "p1"))
	repo.AssertExpectations(t)
}

func TestDelete_NotFound(t *testing.T) {
	svc, repo, _ := newService()
	ctx := context.Background()

	repo.On("Photo", ctx, "nope").Return(nil, types.ErrPhotoNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, "nope"), types.ErrNotFound)
}
