// Package mailer delivers notification emails over one of several transports.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"todolist/internal/config"

	"github.com/google/uuid"
)

// ErrUndeliverable reports a failure that retrying cannot fix, such as a
// recipient the relay refuses.
var ErrUndeliverable = errors.New("message cannot be delivered")

// Message is a plain-text email.
type Message struct {
	ID      string   `json:"id"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}

// NewMessage builds a Message with a fresh id.
func NewMessage(to []string, subject, body string) Message {
	return Message{
		ID:      uuid.NewString(),
		To:      to,
		Subject: subject,
		Body:    body,
	}
}

// Sender hands a message to a delivery transport.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// New returns the Sender selected by cfg.Transport. The publisher is only
// used by the queue transport and may be nil otherwise.
func New(cfg config.MailConfig, publisher Publisher) (Sender, error) {
	switch cfg.Transport {
	case config.MailTransportLog:
		return NewLogSender(), nil
	case config.MailTransportSMTP:
		return NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.Sender), nil
	case config.MailTransportResend:
		return NewResendSender(cfg.ResendAPIKey, cfg.Sender), nil
	case config.MailTransportQueue:
		if publisher == nil {
			return nil, errors.New("queue mail transport requires a publisher")
		}
		return NewQueueSender(publisher), nil
	default:
		return nil, fmt.Errorf("unknown mail transport %q", cfg.Transport)
	}
}

func validate(msg Message) error {
	if len(msg.To) == 0 {
		return errors.New("message has no recipients")
	}
	for _, to := range msg.To {
		if strings.TrimSpace(to) == "" {
			return errors.New("message has an empty recipient")
		}
	}
	return nil
}

// LogSender writes messages to the process log instead of delivering them.
type LogSender struct{}

// NewLogSender creates a LogSender.
func NewLogSender() *LogSender {
	return &LogSender{}
}

// Send logs the message.
func (s *LogSender) Send(_ context.Context, msg Message) error {
	if err := validate(msg); err != nil {
		return err
	}
	log.Printf("Mail %s to %s: %s\n%s", msg.ID, strings.Join(msg.To, ", "), msg.Subject, msg.Body)
	return nil
}
