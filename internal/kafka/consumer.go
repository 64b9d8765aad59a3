package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/stockcity/txf-bar-service/internal/models"
)

// BarRepository defines the interface for raw bar database operations
type BarRepository interface {
	CreateBar(ctx context.Context, b *models.Bar) error
	BarExists(ctx context.Context, code string, ts time.Time) (bool, error)
}

// StatusPublisher publishes the outcome of each ingested bar. The Producer
// implements it; a nil publisher disables outbound events.
type StatusPublisher interface {
	PublishBarStored(ctx context.Context, bar *models.Bar) error
	PublishBarRejected(ctx context.Context, code string, ts time.Time, reason string) error
}

// Consumer ingests 1-minute bar events from the acquisition collaborators
// (live tick subscriber, backfill scripts) and persists them to the raw bar
// store. Derived timeframes are never ingested: they are computed on read.
type Consumer struct {
	reader    *kafka.Reader
	repo      BarRepository
	publisher StatusPublisher
	log       *zap.Logger
	loc       *time.Location
}

// NewConsumer creates a new Kafka consumer for 1-minute bar events.
// Timestamps without a zone offset are interpreted in loc (market time).
func NewConsumer(brokers []string, topic, groupID string, repo BarRepository, publisher StatusPublisher, loc *time.Location, log *zap.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: time.Second,
	})

	return &Consumer{
		reader:    reader,
		repo:      repo,
		publisher: publisher,
		log:       log,
		loc:       loc,
	}
}

// Start begins consuming messages from Kafka
func (c *Consumer) Start(ctx context.Context) error {
	c.log.Info("starting kafka consumer", zap.String("topic", c.reader.Config().Topic))

	for {
		select {
		case <-ctx.Done():
			c.log.Info("kafka consumer shutting down")
			return c.reader.Close()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil // Context cancelled, normal shutdown
				}
				c.log.Error("error reading message", zap.Error(err))
				continue
			}

			if err := c.processMessage(ctx, msg); err != nil {
				c.log.Error("error processing message",
					zap.String("key", string(msg.Key)), zap.Error(err))
				// Continue processing other messages
			}
		}
	}
}

// processMessage handles a single Kafka message
func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) error {
	var event models.BarEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal bar event: %w", err)
	}

	if event.EventType != models.EventTypeBar1m {
		c.log.Debug("ignoring event type", zap.String("event_type", event.EventType))
		return nil
	}

	bar, err := c.convertEventToBar(event)
	if err != nil {
		return fmt.Errorf("failed to convert bar event: %w", err)
	}

	// Reject malformed bars here so corrupt inputs never reach the store,
	// where they would poison every derived timeframe.
	if err := bar.Validate(); err != nil {
		c.log.Warn("rejecting malformed bar",
			zap.String("code", bar.Code),
			zap.Time("ts", bar.TS),
			zap.Error(err))
		if c.publisher != nil {
			if perr := c.publisher.PublishBarRejected(ctx, bar.Code, bar.TS, err.Error()); perr != nil {
				c.log.Error("failed to publish rejection", zap.Error(perr))
			}
		}
		return nil
	}

	// Live feeds re-emit the forming minute as trades arrive; the upsert in
	// CreateBar keeps the latest version, so an existing bar is not an error.
	exists, err := c.repo.BarExists(ctx, bar.Code, bar.TS)
	if err != nil {
		return fmt.Errorf("failed to check for existing bar: %w", err)
	}
	if exists {
		c.log.Debug("updating existing bar", zap.String("code", bar.Code), zap.Time("ts", bar.TS))
	}

	if err := c.repo.CreateBar(ctx, bar); err != nil {
		return fmt.Errorf("failed to save bar: %w", err)
	}

	if c.publisher != nil {
		if err := c.publisher.PublishBarStored(ctx, bar); err != nil {
			c.log.Error("failed to publish stored event", zap.Error(err))
		}
	}

	c.log.Debug("saved bar",
		zap.String("code", bar.Code),
		zap.Time("ts", bar.TS),
		zap.Int64("volume", bar.Volume))
	return nil
}

// convertEventToBar maps a BarEvent to a Bar model
func (c *Consumer) convertEventToBar(event models.BarEvent) (*models.Bar, error) {
	data := event.Data

	if data.Code == "" {
		return nil, fmt.Errorf("bar event missing contract code")
	}

	ts, err := c.parseTS(data.TS)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp %s: %w", data.TS, err)
	}

	open, err := decimal.NewFromString(data.Open)
	if err != nil {
		return nil, fmt.Errorf("invalid open %s: %w", data.Open, err)
	}
	high, err := decimal.NewFromString(data.High)
	if err != nil {
		return nil, fmt.Errorf("invalid high %s: %w", data.High, err)
	}
	low, err := decimal.NewFromString(data.Low)
	if err != nil {
		return nil, fmt.Errorf("invalid low %s: %w", data.Low, err)
	}
	cls, err := decimal.NewFromString(data.Close)
	if err != nil {
		return nil, fmt.Errorf("invalid close %s: %w", data.Close, err)
	}

	return &models.Bar{
		Code:   data.Code,
		TS:     ts.Truncate(time.Minute),
		Open:   open,
		High:   high,
		Low:    low,
		Close:  cls,
		Volume: data.Volume,
	}, nil
}

// parseTS accepts RFC3339 or a bare local timestamp in market time
func (c *Consumer) parseTS(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts.In(c.loc), nil
	}
	return time.ParseInLocation("2006-01-02T15:04:05", s, c.loc)
}

// Close closes the Kafka consumer
func (c *Consumer) Close() error {
	return c.reader.Close()
}
