package main

import (
	"context"
	"fmt"

	"vridhashram/internal/donation"
	"vridhashram/internal/gallery"
	"vridhashram/internal/mailer"
	"vridhashram/internal/metrics"
	"vridhashram/internal/store"
	"vridhashram/internal/storage"
	"vridhashram/pkg/types"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

type objectStore interface {
	donation.ProofStore
	gallery.ObjectStore
}

// newObjectStore returns the S3 store, or a store that rejects every upload
// when no bucket is configured.
func newObjectStore(ctx context.Context, config *types.Config, logger *logrus.Logger) (objectStore, bool, error) {
	if config.S3BucketName == "" {
		logger.Warn("S3_BUCKET_NAME not set - proof and photo uploads will fail")
		return storage.Disabled{}, false, nil
	}

	awsConfig, err := loadAWSConfig(ctx)
	if err != nil {
		return nil, false, err
	}

	return storage.NewS3Store(s3.NewFromConfig(awsConfig), config.S3BucketName, config.S3PublicBaseURL), true, nil
}

func orgDetails(config *types.Config) mailer.OrgDetails {
	return mailer.OrgDetails{
		Name:    config.OrgName,
		Email:   config.OrgEmail,
		Phone:   config.OrgPhone,
		Address: config.OrgAddress,
		Website: config.OrgWebsite,
	}
}

func newDonationService(
	config *types.Config,
	logger *logrus.Logger,
	pool *pgxpool.Pool,
	proofs donation.ProofStore,
	sender mailer.Sender,
	m *metrics.Metrics,
) (*donation.Service, error) {
	templates, err := mailer.LoadTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to load email templates: %w", err)
	}

	return donation.New(
		donation.Config{
			ProofPrefix:   config.ProofPrefix,
			MaxProofBytes: config.MaxUploadBytes,
			AdminEmail:    config.AdminEmail,
			Org:           orgDetails(config),
		},
		logger,
		store.NewDonationRepository(pool),
		store.NewReceiptCounterRepository(pool),
		store.NewTransactor(pool),
		proofs,
		sender,
		templates,
		m,
	), nil
}
