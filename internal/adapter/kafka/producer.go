package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/olyamironova/order-matcher/internal/domain"
	"github.com/olyamironova/order-matcher/internal/port"
	"github.com/segmentio/kafka-go"
)

var _ port.EventPublisher = (*Producer)(nil)

// Producer writes order events to one topic, keyed by instrument so that
// events of one book stay in order within a partition.
type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        false,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

func (p *Producer) Publish(ctx context.Context, events []domain.OrderEvent) error {
	msgs, err := encodeEvents(events)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msgs...)
}

func encodeEvents(events []domain.OrderEvent) ([]kafka.Message, error) {
	msgs := make([]kafka.Message, 0, len(events))
	for _, ev := range events {
		b, err := json.Marshal(ev)
		if err != nil {
			return nil, fmt.Errorf("kafka: encode event %s: %w", ev.ID, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(ev.Instrument),
			Value: b,
			Time:  ev.Timestamp,
			Headers: []kafka.Header{
				{Key: "event-kind", Value: []byte(ev.Kind)},
			},
		})
	}
	return msgs, nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
