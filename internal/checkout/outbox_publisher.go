package checkout

import (
	"context"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

const OrdersTopic = "storefront-orders"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OutboxPublisher relays recorded order events to Kafka.
type OutboxPublisher struct {
	tick   time.Duration
	batch  int
	repo   OutboxRepository
	writer messageWriter
	logger *slog.Logger
}

func NewOutboxPublisher(repo OutboxRepository, logger *slog.Logger, brokers ...string) *OutboxPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  OrdersTopic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OutboxPublisher{
		tick:   time.Second,
		batch:  100,
		repo:   repo,
		writer: w,
		logger: logger,
	}
}

func (p *OutboxPublisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.PublishPending(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// PublishPending sends one batch of unpublished events and reports how many
// were published. Failed events stay in the outbox for the next tick.
func (p *OutboxPublisher) PublishPending(ctx context.Context) int {
	events, err := p.repo.UnpublishedEvents(ctx, p.batch)
	if err != nil {
		p.logger.Error("failed to fetch outbox events", "error", err)
		return 0
	}

	published := 0
	for _, event := range events {
		if err := p.publish(ctx, event); err != nil {
			p.logger.Error("failed to publish event", "event_id", event.ID, "error", err)
			continue
		}
		if err := p.repo.MarkPublished(ctx, event.ID); err != nil {
			p.logger.Error("failed to mark event as published", "event_id", event.ID, "error", err)
			continue
		}
		published++
	}
	return published
}

func (p *OutboxPublisher) publish(ctx context.Context, event *OutboxEvent) error {
	msg := kafka.Message{
		Key:   []byte(event.AggregateID), // order id keeps an order's events on one partition
		Value: event.Payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *OutboxPublisher) Close() error {
	return p.writer.Close()
}
