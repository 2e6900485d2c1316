package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// ImplicitTLS dials straight into TLS (port 465). Otherwise STARTTLS is required.
	ImplicitTLS bool
	// Timeout bounds the dial and every read/write on the connection.
	Timeout     time.Duration
	FromName    string
	FromAddress string
}

type SMTPSender struct {
	cfg SMTPConfig
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, html string) Result {
	return guard(func() Result {
		msg := mail.NewMsg()
		if err := msg.FromFormat(s.cfg.FromName, s.cfg.FromAddress); err != nil {
			return Failure(fmt.Errorf("set from address: %w", err))
		}
		if err := msg.To(to); err != nil {
			return Failure(fmt.Errorf("set recipient: %w", err))
		}
		msg.Subject(subject)
		msg.SetBodyString(mail.TypeTextHTML, html)

		client, err := s.client()
		if err != nil {
			return Failure(err)
		}

		ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()

		if err := client.DialAndSendWithContext(ctx, msg); err != nil {
			return Failure(fmt.Errorf("send via %s:%d: %w", s.cfg.Host, s.cfg.Port, err))
		}

		return Success()
	})
}

// Verify dials and authenticates without sending anything.
func (s *SMTPSender) Verify(ctx context.Context) error {
	client, err := s.client()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	if err := client.DialWithContext(ctx); err != nil {
		return fmt.Errorf("dial %s:%d: %w", s.cfg.Host, s.cfg.Port, err)
	}
	return client.Close()
}

func (s *SMTPSender) client() (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.Username),
		mail.WithPassword(s.cfg.Password),
		mail.WithTimeout(s.cfg.Timeout),
	}
	if s.cfg.ImplicitTLS {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}

	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return client, nil
}
