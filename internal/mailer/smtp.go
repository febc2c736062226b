package mailer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/textproto"

	"github.com/go-mail/mail/v2"
)

const smtpAttempts = 3

// SMTPSender delivers messages through an SMTP relay.
type SMTPSender struct {
	dialer *mail.Dialer
	sender string
}

// NewSMTPSender creates an SMTPSender.
func NewSMTPSender(host string, port int, username, password, sender string) *SMTPSender {
	return &SMTPSender{
		dialer: mail.NewDialer(host, port, username, password),
		sender: sender,
	}
}

// Send delivers msg, retrying transient failures a few times. A permanent
// (5xx) reply from the relay ends the attempts with ErrUndeliverable.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := validate(msg); err != nil {
		return err
	}

	m := mail.NewMessage()
	m.SetHeader("From", s.sender)
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", msg.Subject)
	if msg.ID != "" {
		m.SetHeader("X-Message-Id", msg.ID)
	}
	m.SetBody("text/plain", msg.Body)

	var err error
	for i := 0; i < smtpAttempts; i++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err = s.dialer.DialAndSend(m); err == nil {
			return nil
		}
		if permanent(err) {
			log.Printf("SMTP relay refused %s: %v", msg.ID, err)
			return fmt.Errorf("%w: %w", ErrUndeliverable, err)
		}
		log.Printf("SMTP delivery of %s failed (attempt %d/%d): %v", msg.ID, i+1, smtpAttempts, err)
	}
	return fmt.Errorf("failed to send mail over SMTP: %w", err)
}

// permanent reports whether err carries a 5xx SMTP reply.
func permanent(err error) bool {
	var sendErr *mail.SendError
	if errors.As(err, &sendErr) {
		err = sendErr.Cause
	}
	var reply *textproto.Error
	return errors.As(err, &reply) && reply.Code >= 500
}
