package mailer

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/resend/resend-go/v2"
)

type ResendSender struct {
	client  *resend.Client
	from    string
	timeout time.Duration
}

func NewResendSender(apiKey, from string, timeout time.Duration) *ResendSender {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ResendSender{
		client:  resend.NewCustomClient(&http.Client{Timeout: timeout}, apiKey),
		from:    from,
		timeout: timeout,
	}
}

func (s *ResendSender) Send(ctx context.Context, to, subject, html string) Result {
	return guard(func() Result {
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		_, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
			From:    s.from,
			To:      []string{to},
			Subject: subject,
			Html:    html,
		})
		if err != nil {
			return Failure(fmt.Errorf("send via resend: %w", err))
		}

		return Success()
	})
}
