package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"todolist/pkg/rabbitmq"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
)

// Publisher puts a JSON document on a message queue.
type Publisher interface {
	PublishJSON(v interface{}) error
}

// QueueSender hands messages to a broker; a consumer delivers them later.
type QueueSender struct {
	publisher Publisher
}

// NewQueueSender creates a QueueSender.
func NewQueueSender(publisher Publisher) *QueueSender {
	return &QueueSender{publisher: publisher}
}

// Send publishes msg. A successful publish means the broker accepted it, not
// that it reached the recipient.
func (s *QueueSender) Send(_ context.Context, msg Message) error {
	if err := validate(msg); err != nil {
		return err
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if err := s.publisher.PublishJSON(msg); err != nil {
		return fmt.Errorf("failed to enqueue mail %s: %w", msg.ID, err)
	}
	return nil
}

// DeliveryHandler returns a queue consumer callback that decodes each
// delivery and sends it with sender. Undecodable deliveries are dropped.
// A failed send is requeued once; a second failure, or one that retrying
// cannot fix, rejects the delivery.
func DeliveryHandler(sender Sender) func(amqp.Delivery) error {
	return func(d amqp.Delivery) error {
		var msg Message
		if err := json.Unmarshal(d.Body, &msg); err != nil {
			log.Printf("Dropping undecodable mail delivery %d: %v", d.DeliveryTag, err)
			return nil
		}
		if err := validate(msg); err != nil {
			log.Printf("Dropping invalid mail delivery %s: %v", msg.ID, err)
			return nil
		}

		err := sender.Send(context.Background(), msg)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, ErrUndeliverable):
			return fmt.Errorf("%w: mail %s: %w", rabbitmq.ErrReject, msg.ID, err)
		case d.Redelivered:
			return fmt.Errorf("%w: mail %s failed again after redelivery: %w", rabbitmq.ErrReject, msg.ID, err)
		default:
			return fmt.Errorf("mail %s: %w", msg.ID, err)
		}
	}
}
