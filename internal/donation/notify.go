package donation

import (
	"context"
	"fmt"

	"vridhashram/internal/mailer"
	"vridhashram/internal/utils"
	"vridhashram/pkg/types"

	"github.com/sirupsen/logrus"
)

const (
	kindAdmin       = "admin"
	kindReceived    = "received"
	kindCertificate = "certificate"
	kindRejected    = "rejected"
)

func (s *Service) notifySubmitted(ctx context.Context, donation *types.Donation) {
	if s.config.AdminEmail != "" {
		subject := fmt.Sprintf("New Donation Received - ₹%s from %s", donation.Amount.StringFixed(2), donation.DonorName)
		s.notify(ctx, kindAdmin, s.config.AdminEmail, subject, mailer.TemplateDonationAdmin, donation, "")
	}

	subject := fmt.Sprintf("Thank you for your donation to %s", s.config.Org.Name)
	s.notify(ctx, kindReceived, donation.Email, subject, mailer.TemplateDonationReceived, donation, "")
}

func (s *Service) notifyRejected(ctx context.Context, donation *types.Donation) {
	subject := fmt.Sprintf("Update on your donation to %s", s.config.Org.Name)
	s.notify(ctx, kindRejected, donation.Email, subject, mailer.TemplateDonationRejected, donation, utils.PtrString(donation.RejectionReason))
}

func (s *Service) sendCertificate(ctx context.Context, donation *types.Donation) mailer.Result {
	subject := fmt.Sprintf("80G Donation Certificate - %s", utils.PtrString(donation.ReceiptNumber))
	return s.notify(ctx, kindCertificate, donation.Email, subject, mailer.TemplateDonationCertificate, donation, "")
}

// notify renders and sends one email. Failures are logged and counted, never
// returned as errors.
func (s *Service) notify(ctx context.Context, kind, to, subject, template string, donation *types.Donation, reason string) mailer.Result {
	entry := s.logger.WithFields(logrus.Fields{
		"kind":        kind,
		"donation_id": donation.ID,
	})

	html, err := s.templates.Render(template, mailer.DonationEmail{
		Org:      s.config.Org,
		Donation: donation,
		Reason:   reason,
	})
	if err != nil {
		entry.WithError(err).Error("failed to render email")
		s.metrics.Notification(kind, false)
		return mailer.Failure(err)
	}

	res := s.sender.Send(ctx, to, subject, html)
	s.metrics.Notification(kind, res.OK)
	if !res.OK {
		entry.WithError(res.Err).Warn("email not sent")
	}

	return res
}
