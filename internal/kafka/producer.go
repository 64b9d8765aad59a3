package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/stockcity/txf-bar-service/internal/models"
)

// Producer handles publishing bar status events to Kafka
type Producer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer creates a new Kafka producer
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}

	return &Producer{
		writer: writer,
		topic:  topic,
	}
}

// PublishBarStored publishes an event for a successfully ingested bar
func (p *Producer) PublishBarStored(ctx context.Context, bar *models.Bar) error {
	event := models.BarStatusEvent{
		EventType: models.EventTypeBarStored,
		Code:      bar.Code,
		TS:        bar.TS,
		Timestamp: time.Now(),
	}
	return p.publish(ctx, bar.Code, event)
}

// PublishBarRejected publishes an event for a bar that failed validation
func (p *Producer) PublishBarRejected(ctx context.Context, code string, ts time.Time, reason string) error {
	event := models.BarStatusEvent{
		EventType: models.EventTypeBarRejected,
		Code:      code,
		TS:        ts,
		Reason:    reason,
		Timestamp: time.Now(),
	}
	return p.publish(ctx, code, event)
}

func (p *Producer) publish(ctx context.Context, key string, event models.BarStatusEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	return nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	return p.writer.Close()
}
