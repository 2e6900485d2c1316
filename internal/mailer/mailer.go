// Package mailer delivers transactional HTML email. Delivery is best effort:
// Send never returns an error value, it reports the outcome as a Result so
// callers can log and continue.
package mailer

import (
	"context"
	"errors"
	"fmt"

	"vridhashram/pkg/types"

	"github.com/sirupsen/logrus"
)

var ErrNotConfigured = errors.New("mail delivery is not configured")

// Result is the outcome of a single send.
type Result struct {
	OK  bool
	Err error
}

func Success() Result {
	return Result{OK: true}
}

func Failure(err error) Result {
	return Result{OK: false, Err: err}
}

type Sender interface {
	Send(ctx context.Context, to, subject, html string) Result
}

// New picks a sender from cfg. Resend wins over SMTP when both are set; with
// neither, every Send fails fast with ErrNotConfigured.
func New(cfg *types.Config, logger *logrus.Logger) Sender {
	switch {
	case cfg.ResendAPIKey != "":
		from := cfg.MailFrom
		if from == "" {
			from = cfg.OrgEmail
		}
		logger.WithField("from", from).Info("mail delivery via resend")
		return NewResendSender(cfg.ResendAPIKey, formatFrom(cfg.MailFromName, from), cfg.ResendTimeout)
	case cfg.SMTPUser != "" && cfg.SMTPPass != "":
		logger.WithFields(logrus.Fields{
			"host": cfg.SMTPHost,
			"port": cfg.SMTPPort,
			"user": cfg.SMTPUser,
		}).Info("mail delivery via smtp")
		return NewSMTPSender(SMTPConfig{
			Host:        cfg.SMTPHost,
			Port:        cfg.SMTPPort,
			Username:    cfg.SMTPUser,
			Password:    cfg.SMTPPass,
			ImplicitTLS: cfg.SMTPImplicitTLS(),
			Timeout:     cfg.SMTPTimeout,
			FromName:    cfg.MailFromName,
			FromAddress: firstNonEmpty(cfg.MailFrom, cfg.SMTPUser),
		})
	default:
		logger.Warn("EMAIL_USER/EMAIL_PASS and RESEND_API_KEY not set - email functionality will be disabled")
		return Disabled{}
	}
}

// Disabled is the sender used when no credentials are configured.
type Disabled struct{}

func (Disabled) Send(context.Context, string, string, string) Result {
	return Failure(ErrNotConfigured)
}

// Configured reports whether s can actually deliver mail.
func Configured(s Sender) bool {
	_, disabled := s.(Disabled)
	return s != nil && !disabled
}

func guard(fn func() Result) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Failure(fmt.Errorf("mail sender panicked: %v", r))
		}
	}()
	return fn()
}

func formatFrom(name, address string) string {
	if name == "" {
		return address
	}
	return fmt.Sprintf("%s <%s>", name, address)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
