package notify

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/segmentio/kafka-go"

	"github.com/MikeMC777/storefront/internal/events"
)

type Sink interface {
	Publish(key, value []byte, headers ...kafka.Header) bool
}

// Publisher hands confirmations to the order.paid topic; cmd/notifier does the mailing.
type Publisher struct {
	sink    Sink
	service string
}

func NewPublisher(sink Sink, service string) *Publisher {
	return &Publisher{sink: sink, service: service}
}

func (p *Publisher) OrderPaid(ctx context.Context, c Confirmation) error {
	env, err := events.NewEnvelope(events.TypeOrderPaid, p.service, c.Order.Number, c)
	if err != nil {
		return err
	}
	if !p.sink.Publish([]byte(c.Order.Number), events.MustMarshal(env),
		kafka.Header{Key: "event_type", Value: []byte(events.TypeOrderPaid)}) {
		return errors.New("publisher closed")
	}
	return nil
}

// Relay returns the consumer handler that decodes OrderPaid envelopes and passes them to next.
func Relay(next Notifier) events.Handler {
	return func(ctx context.Context, m kafka.Message) error {
		var env events.Envelope
		if err := json.Unmarshal(m.Value, &env); err != nil {
			log.Printf("[notify] drop undecodable message offset=%d: %v", m.Offset, err)
			return nil
		}
		if env.EventType != events.TypeOrderPaid {
			return nil
		}
		c, err := events.UnwrapPayload[Confirmation](env.Payload)
		if err != nil {
			log.Printf("[notify] drop event=%s: %v", env.EventID, err)
			return nil
		}
		return next.OrderPaid(ctx, c)
	}
}
