// Package payment records card donations captured through Stripe.
package payment

import (
	"context"
	"errors"
	"strings"

	"vridhashram/pkg/types"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// SummaryMonths is how many monthly buckets the summary returns.
const SummaryMonths = 12

type Repository interface {
	Payment(ctx context.Context, id string) (*types.Payment, error)
	PaymentByStripeID(ctx context.Context, stripePaymentID string) (*types.Payment, error)
	Payments(ctx context.Context, limit uint64) ([]*types.Payment, error)
	CreatePayment(ctx context.Context, payment *types.Payment) error
	CompletedTotals(ctx context.Context) (*types.PaymentTotals, error)
	MonthlyTotals(ctx context.Context, months uint64) ([]*types.MonthlyTotal, error)
}

type Service struct {
	logger          *logrus.Logger
	repo            Repository
	intents         IntentClient
	defaultCurrency string
}

// New builds the service. intents may be nil when Stripe is not configured;
// card endpoints then fail with ErrStripeNotConfigured.
func New(logger *logrus.Logger, repo Repository, intents IntentClient, defaultCurrency string) *Service {
	return &Service{
		logger:          logger,
		repo:            repo,
		intents:         intents,
		defaultCurrency: strings.ToLower(defaultCurrency),
	}
}

var hundred = decimal.NewFromInt(100)

// MinorUnits converts a whole-currency amount to the smallest currency unit.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// CreateIntent opens a Stripe PaymentIntent and returns its client secret.
func (s *Service) CreateIntent(ctx context.Context, in types.CreatePaymentIntentInput) (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}
	if s.intents == nil {
		return "", types.NewDependencyError(types.DependencyStripe, ErrStripeNotConfigured)
	}

	currency := strings.ToLower(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = s.defaultCurrency
	}

	intent, err := s.intents.CreateIntent(ctx, MinorUnits(in.Amount), currency, map[string]string{
		"donorName":  strings.TrimSpace(in.DonorName),
		"donorEmail": strings.ToLower(strings.TrimSpace(in.DonorEmail)),
	})
	if err != nil {
		s.logger.WithError(err).Error("failed to create payment intent")
		return "", types.NewDependencyError(types.DependencyStripe, err)
	}

	return intent.ClientSecret, nil
}

// Confirm records a completed card payment after checking the intent with
// Stripe. Confirming the same intent again returns only the public fields of
// the stored payment since the caller is not authenticated.
func (s *Service) Confirm(ctx context.Context, in types.ConfirmPaymentInput) (*types.Payment, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.repo.PaymentByStripeID(ctx, in.StripePaymentID)
	switch {
	case err == nil:
		return existing.Public(), nil
	case !errors.Is(err, types.ErrNotFound):
		return nil, types.NewDependencyError(types.DependencyDatabase, err)
	}

	if s.intents == nil {
		return nil, types.NewDependencyError(types.DependencyStripe, ErrStripeNotConfigured)
	}

	intent, err := s.intents.RetrieveIntent(ctx, in.StripePaymentID)
	if err != nil {
		s.logger.WithError(err).WithField("stripe_payment_id", in.StripePaymentID).Error("failed to retrieve payment intent")
		return nil, types.NewDependencyError(types.DependencyStripe, err)
	}
	if intent.Status != intentStatusSucceeded {
		return nil, types.NewValidationError("stripePaymentId", "payment has not succeeded")
	}
	if intent.Amount != MinorUnits(in.Amount) {
		return nil, types.NewValidationError("amount", "amount does not match the payment")
	}
	if intent.Currency != "" {
		in.Currency = strings.ToUpper(intent.Currency)
	}

	payment := &types.Payment{
		DonorName:       in.DonorName,
		DonorEmail:      in.DonorEmail,
		Amount:          in.Amount,
		Currency:        in.Currency,
		DonationType:    in.DonationType,
		Purpose:         in.Purpose,
		StripePaymentID: in.StripePaymentID,
		Status:          types.PaymentStatusCompleted,
		IsAnonymous:     in.IsAnonymous,
	}
	if in.DonorPhone != "" {
		payment.DonorPhone = &in.DonorPhone
	}
	if in.Message != "" {
		payment.Message = &in.Message
	}

	if err := s.repo.CreatePayment(ctx, payment); err != nil {
		return nil, types.NewDependencyError(types.DependencyDatabase, err)
	}

	s.logger.WithField("payment_id", payment.ID).Info("card payment recorded")

	return payment, nil
}

func (s *Service) Payment(ctx context.Context, id string) (*types.Payment, error) {
	payment, err := s.repo.Payment(ctx, id)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, err
		}
		return nil, types.NewDependencyError(types.DependencyDatabase, err)
	}
	return payment, nil
}

func (s *Service) Payments(ctx context.Context) ([]*types.Payment, error) {
	payments, err := s.repo.Payments(ctx, 0)
	if err != nil {
		return nil, types.NewDependencyError(types.DependencyDatabase, err)
	}
	return payments, nil
}

func (s *Service) Summary(ctx context.Context) (*types.PaymentSummary, error) {
	totals, err := s.repo.CompletedTotals(ctx)
	if err != nil {
		return nil, types.NewDependencyError(types.DependencyDatabase, err)
	}

	monthly, err := s.repo.MonthlyTotals(ctx, SummaryMonths)
	if err != nil {
		return nil, types.NewDependencyError(types.DependencyDatabase, err)
	}

	return &types.PaymentSummary{
		TotalAmount:    totals.TotalAmount,
		TotalDonations: totals.TotalDonations,
		MonthlyStats:   monthly,
	}, nil
}
