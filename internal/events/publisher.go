package events

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
)

// Producer publishes message lifecycle events for the notification
// pipeline. The messaging core treats it as optional: delivery failures
// are logged by the caller and never block a send.
type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  brokers,
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	})
	return &Producer{writer: w}
}

func (p *Producer) Publish(ctx context.Context, key string, value []byte) error {
	msg := kafka.Message{Key: []byte(key), Value: value, Time: time.Now()}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *Producer) Close() error { return p.writer.Close() }
