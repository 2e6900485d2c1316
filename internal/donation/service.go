// Package donation owns the lifecycle of manually submitted donations:
// pending on submission, then verified (and certificate_sent once the 80G
// certificate is mailed) or rejected by an administrator.
package donation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"vridhashram/internal/mailer"
	"vridhashram/internal/metrics"
	"vridhashram/internal/receipt"
	"vridhashram/internal/utils"
	"vridhashram/pkg/types"

	"github.com/sirupsen/logrus"
)

type Repository interface {
	Donation(ctx context.Context, id string) (*types.Donation, error)
	Donations(ctx context.Context, filter types.DonationFilter) ([]*types.Donation, error)
	CreateDonation(ctx context.Context, donation *types.Donation) error
	UpdateDonation(ctx context.Context, donation *types.Donation, expected types.DonationStatus) error
}

// ReceiptAllocator reserves a receipt slot in year and reports how many
// receipts were issued in that year before it. Concurrent callers must never
// observe the same count.
type ReceiptAllocator interface {
	ReserveIssued(ctx context.Context, year int) (int, error)
}

type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type ProofStore interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

var proofContentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/jpg":       true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"application/pdf": true,
}

type Config struct {
	ProofPrefix   string
	MaxProofBytes int64
	AdminEmail    string
	Org           mailer.OrgDetails
}

type Service struct {
	logger    *logrus.Logger
	config    Config
	repo      Repository
	receipts  ReceiptAllocator
	tx        Transactor
	proofs    ProofStore
	sender    mailer.Sender
	templates *mailer.Templates
	metrics   *metrics.Metrics

	now func() time.Time
}

func New(
	config Config,
	logger *logrus.Logger,
	repo Repository,
	receipts ReceiptAllocator,
	tx Transactor,
	proofs ProofStore,
	sender mailer.Sender,
	templates *mailer.Templates,
	metrics *metrics.Metrics,
) *Service {
	return &Service{
		logger:    logger,
		config:    config,
		repo:      repo,
		receipts:  receipts,
		tx:        tx,
		proofs:    proofs,
		sender:    sender,
		templates: templates,
		metrics:   metrics,
		now:       time.Now,
	}
}

// Submit records a new pending donation together with its proof of payment.
func (s *Service) Submit(ctx context.Context, in types.SubmitDonationInput, proof *types.Upload) (*types.SubmitReceipt, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := s.validateProof(proof); err != nil {
		return nil, err
	}

	key := utils.ObjectKey(s.config.ProofPrefix, proof.Filename)
	url, err := s.proofs.Upload(ctx, key, proof.Body, proof.ContentType)
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Error("failed to store payment proof")
		return nil, types.NewDependencyError(types.DependencyStorage, err)
	}

	donation := &types.Donation{
		DonorName:     in.DonorName,
		Email:         in.Email,
		Phone:         utils.StringPtrOrNil(in.Phone),
		Amount:        in.Amount,
		TransactionID: in.TransactionID,
		Message:       utils.StringPtrOrNil(in.Message),
		ProofReference: types.ProofReference{
			URL:        url,
			StorageKey: key,
		},
		Status: types.DonationStatusPending,
	}

	if err := s.repo.CreateDonation(ctx, donation); err != nil {
		s.logger.WithError(err).WithField("transaction_id", donation.TransactionID).Error("failed to save donation")
		s.discardProof(ctx, key)
		return nil, s.dbError(err)
	}
	s.metrics.DonationTransition(string(types.DonationStatusPending))

	s.notifySubmitted(ctx, donation)

	return &types.SubmitReceipt{
		ID:        donation.ID,
		DonorName: donation.DonorName,
		Amount:    donation.Amount,
		Status:    donation.Status,
	}, nil
}

// Verify moves a pending donation to verified, allocating its receipt number,
// then attempts the certificate mail. A failed mail leaves the donation at
// verified and is not reported as an error.
func (s *Service) Verify(ctx context.Context, id, actorID string) (*types.Donation, error) {
	current, err := s.repo.Donation(ctx, id)
	if err != nil {
		return nil, s.dbError(err)
	}
	if current.Status != types.DonationStatusPending {
		return nil, fmt.Errorf("donation %s is %s: %w", id, current.Status, types.ErrInvalidState)
	}

	now := s.now()
	verified := *current
	verified.Status = types.DonationStatusVerified
	verified.VerifiedBy = &actorID
	verified.VerifiedAt = &now

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if verified.ReceiptNumber == nil {
			issued, err := s.receipts.ReserveIssued(ctx, now.Year())
			if err != nil {
				return err
			}
			number := receipt.Next(now.Year(), issued)
			verified.ReceiptNumber = &number
		}
		return s.repo.UpdateDonation(ctx, &verified, types.DonationStatusPending)
	})
	if err != nil {
		return nil, s.dbError(err)
	}
	s.metrics.DonationTransition(string(types.DonationStatusVerified))

	entry := s.logger.WithFields(logrus.Fields{
		"donation_id":    verified.ID,
		"receipt_number": utils.PtrString(verified.ReceiptNumber),
	})
	entry.Info("donation verified")

	if res := s.sendCertificate(ctx, &verified); !res.OK {
		entry.WithError(res.Err).Warn("certificate email failed, donation left at verified")
		return &verified, nil
	}

	sent, err := s.markCertificateSent(ctx, &verified)
	if err != nil {
		entry.WithError(err).Error("certificate emailed but status update failed")
		return &verified, nil
	}

	return sent, nil
}

// Reject is terminal. The reason is stored verbatim.
func (s *Service) Reject(ctx context.Context, id, actorID, reason string) (*types.Donation, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, types.NewValidationError("reason", "reason required")
	}

	current, err := s.repo.Donation(ctx, id)
	if err != nil {
		return nil, s.dbError(err)
	}
	if current.Status != types.DonationStatusPending {
		return nil, fmt.Errorf("donation %s is %s: %w", id, current.Status, types.ErrInvalidState)
	}

	now := s.now()
	rejected := *current
	rejected.Status = types.DonationStatusRejected
	rejected.RejectionReason = &reason
	rejected.VerifiedBy = &actorID
	rejected.VerifiedAt = &now

	if err := s.repo.UpdateDonation(ctx, &rejected, types.DonationStatusPending); err != nil {
		return nil, s.dbError(err)
	}
	s.metrics.DonationTransition(string(types.DonationStatusRejected))

	s.logger.WithField("donation_id", rejected.ID).Info("donation rejected")

	s.notifyRejected(ctx, &rejected)

	return &rejected, nil
}

func (s *Service) Donation(ctx context.Context, id string) (*types.Donation, error) {
	donation, err := s.repo.Donation(ctx, id)
	if err != nil {
		return nil, s.dbError(err)
	}
	return donation, nil
}

// Donations lists donations newest first, optionally filtered by status.
func (s *Service) Donations(ctx context.Context, filter types.DonationFilter) ([]*types.Donation, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, types.NewValidationError("status", "status must be one of pending, verified, rejected, certificate_sent")
	}

	donations, err := s.repo.Donations(ctx, filter)
	if err != nil {
		return nil, s.dbError(err)
	}
	return donations, nil
}

// ResendCertificate retries the certificate mail for a donation stuck at
// verified. Unlike Verify, a failed mail is returned to the caller.
func (s *Service) ResendCertificate(ctx context.Context, id string) (*types.Donation, error) {
	current, err := s.repo.Donation(ctx, id)
	if err != nil {
		return nil, s.dbError(err)
	}
	if current.Status != types.DonationStatusVerified {
		return nil, fmt.Errorf("donation %s is %s: %w", id, current.Status, types.ErrInvalidState)
	}

	if res := s.sendCertificate(ctx, current); !res.OK {
		return nil, types.NewDependencyError(types.DependencyMail, res.Err)
	}

	sent, err := s.markCertificateSent(ctx, current)
	if err != nil {
		return nil, s.dbError(err)
	}

	return sent, nil
}

// ResendPendingCertificates retries the certificate mail for every donation
// at verified.
func (s *Service) ResendPendingCertificates(ctx context.Context) (sent, failed int, err error) {
	status := types.DonationStatusVerified
	donations, err := s.repo.Donations(ctx, types.DonationFilter{Status: &status})
	if err != nil {
		return 0, 0, s.dbError(err)
	}

	for _, d := range donations {
		if ctx.Err() != nil {
			return sent, failed, ctx.Err()
		}

		entry := s.logger.WithField("donation_id", d.ID)
		if res := s.sendCertificate(ctx, d); !res.OK {
			entry.WithError(res.Err).Warn("certificate email failed")
			failed++
			continue
		}

		if _, err := s.markCertificateSent(ctx, d); err != nil {
			entry.WithError(err).Error("certificate emailed but status update failed")
			failed++
			continue
		}
		sent++
	}

	return sent, failed, nil
}

func (s *Service) markCertificateSent(ctx context.Context, donation *types.Donation) (*types.Donation, error) {
	sent := *donation
	sent.Status = types.DonationStatusCertificateSent
	if err := s.repo.UpdateDonation(ctx, &sent, types.DonationStatusVerified); err != nil {
		return nil, err
	}
	s.metrics.DonationTransition(string(types.DonationStatusCertificateSent))
	return &sent, nil
}

func (s *Service) validateProof(proof *types.Upload) error {
	if proof == nil || proof.Body == nil {
		return types.NewValidationError("paymentProof", "payment proof file is required")
	}
	if s.config.MaxProofBytes > 0 && proof.Size > s.config.MaxProofBytes {
		return types.NewValidationError("paymentProof", fmt.Sprintf("file must be at most %d MB", s.config.MaxProofBytes>>20))
	}
	contentType := strings.ToLower(strings.TrimSpace(strings.Split(proof.ContentType, ";")[0]))
	if !proofContentTypes[contentType] {
		return types.NewValidationError("paymentProof", "only image and PDF files are allowed")
	}
	return nil
}

// discardProof removes an uploaded proof whose donation was never saved.
func (s *Service) discardProof(ctx context.Context, key string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := s.proofs.Delete(ctx, key); err != nil {
		s.logger.WithError(err).WithField("key", key).Error("failed to delete orphaned payment proof")
	}
}

// dbError tags persistence failures while letting domain errors through.
func (s *Service) dbError(err error) error {
	var validation *types.ValidationError
	var dependency *types.DependencyError
	switch {
	case errors.Is(err, types.ErrNotFound),
		errors.Is(err, types.ErrInvalidState),
		errors.As(err, &validation),
		errors.As(err, &dependency):
		return err
	}
	return types.NewDependencyError(types.DependencyDatabase, err)
}
