package mailer

import (
	"context"
	"fmt"
	"log"

	"github.com/resend/resend-go/v2"
)

// ResendSender delivers messages through the Resend HTTP API.
type ResendSender struct {
	client *resend.Client
	sender string
}

// NewResendSender creates a ResendSender.
func NewResendSender(apiKey, sender string) *ResendSender {
	return &ResendSender{
		client: resend.NewClient(apiKey),
		sender: sender,
	}
}

// Send delivers msg.
func (s *ResendSender) Send(ctx context.Context, msg Message) error {
	if err := validate(msg); err != nil {
		return err
	}

	resp, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.sender,
		To:      msg.To,
		Subject: msg.Subject,
		Text:    msg.Body,
	})
	if err != nil {
		return fmt.Errorf("failed to send mail through resend: %w", err)
	}
	log.Printf("Mail %s accepted by resend as %s", msg.ID, resp.Id)
	return nil
}
