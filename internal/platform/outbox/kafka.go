package outbox

import (
	"context"

	"artpriv/internal/platform/kafka/producer"
)

// MessageProducer is the part of the Kafka producer the relay needs.
type MessageProducer interface {
	Publish(ctx context.Context, msgs ...producer.Message) error
}

// KafkaPublisher publishes entries to one topic keyed by aggregate id, so the
// events of one entity keep their commit order.
type KafkaPublisher struct {
	producer MessageProducer
	topic    string
}

func NewKafkaPublisher(p MessageProducer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: p, topic: topic}
}

func (k *KafkaPublisher) Publish(ctx context.Context, entries []Entry) error {
	msgs := make([]producer.Message, 0, len(entries))
	for _, e := range entries {
		msgs = append(msgs, producer.Message{
			Topic: k.topic,
			Key:   []byte(e.AggregateID),
			Value: e.Payload,
			Headers: map[string]string{
				"outbox_id":      e.ID.String(),
				"aggregate_type": e.AggregateType,
				"event_type":     e.EventType,
			},
		})
	}
	return k.producer.Publish(ctx, msgs...)
}
