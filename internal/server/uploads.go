package server

import (
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"vridhashram/pkg/types"

	"github.com/go-playground/form/v4"
)

// multipart bodies may carry several files plus form fields
const multipartOverhead = 1 << 20

func (s *Service) parseMultipart(w http.ResponseWriter, r *http.Request, files int) error {
	limit := s.config.MaxUploadBytes*int64(files) + multipartOverhead
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(s.config.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return types.NewValidationError("", fmt.Sprintf("file must be at most %d MB", s.config.MaxUploadBytes>>20))
		}
		return types.NewValidationError("", "invalid multipart form")
	}
	return nil
}

// formFile returns nil when the field is absent so the service can report it
// as a validation error.
func formFile(r *http.Request, field string) (*types.Upload, func(), error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, types.NewValidationError(field, "invalid file upload")
	}

	return toUpload(file, header), func() { _ = file.Close() }, nil
}

func formFiles(r *http.Request, field string) ([]*types.Upload, func(), error) {
	if r.MultipartForm == nil {
		return nil, func() {}, nil
	}

	headers := r.MultipartForm.File[field]
	uploads := make([]*types.Upload, 0, len(headers))
	opened := make([]multipart.File, 0, len(headers))
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}

	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, types.NewValidationError(field, "invalid file upload")
		}
		opened = append(opened, file)
		uploads = append(uploads, toUpload(file, header))
	}

	return uploads, closeAll, nil
}

func toUpload(file multipart.File, header *multipart.FileHeader) *types.Upload {
	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		if byExt := mime.TypeByExtension(filepath.Ext(header.Filename)); byExt != "" {
			contentType = byExt
		}
	}

	return &types.Upload{
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Body:        file,
	}
}

// formError names the first field the decoder could not convert.
func formError(err error) error {
	var decodeErrs form.DecodeErrors
	if errors.As(err, &decodeErrs) {
		for field, fieldErr := range decodeErrs {
			return types.NewValidationError(field, fmt.Sprintf("invalid value: %v", fieldErr))
		}
	}
	return types.NewValidationError("", "invalid form")
}
