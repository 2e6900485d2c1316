package storage

import (
	"context"
	"errors"
	"io"
)

var ErrNotConfigured = errors.New("object storage not configured")

// Disabled stands in for S3 when S3_BUCKET_NAME is unset. Every upload fails
// so submissions report a storage error instead of losing the file.
type Disabled struct{}

func (Disabled) Upload(context.Context, string, io.Reader, string) (string, error) {
	return "", ErrNotConfigured
}

func (Disabled) Delete(context.Context, string) error {
	return ErrNotConfigured
}
