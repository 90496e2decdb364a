package kafka

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"ms-ordering/internal/realtime"
)

type Producer struct {
	Writer *kafka.Writer

	// Origin is this instance's id, stamped on every outgoing event so
	// consumers can recognize and skip their own messages.
	Origin string
}

func NewProducer(brokers []string, topic, origin string) *Producer {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers: brokers,
		Topic:   topic,
	})
	return &Producer{Writer: writer, Origin: origin}
}

// message builds the wire message for one change event, keyed by order id
// so all events for an order land on the same partition in order.
func (p *Producer) message(ev realtime.ChangeEvent) (kafka.Message, error) {
	ev.Origin = p.Origin
	value, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(ev.OrderID),
		Value: value,
	}, nil
}

// PublishChange streams one row-level change event.
func (p *Producer) PublishChange(ev realtime.ChangeEvent) error {
	msg, err := p.message(ev)
	if err != nil {
		return err
	}
	return p.Writer.WriteMessages(context.Background(), msg)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
