package catalog

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Invalidator drops the cached catalog whenever an order event arrives, since
// placed orders change upstream stock. Each replica should use its own group id.
type Invalidator struct {
	loader     *Loader
	reader     messageReader
	logger     *slog.Logger
	retryDelay time.Duration // pause after a failed read
}

const defaultRetryDelay = time.Second

func NewInvalidator(loader *Loader, topic, groupID string, logger *slog.Logger, brokers ...string) *Invalidator {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
	if logger == nil {
		logger = slog.Default()
	}
	return &Invalidator{loader: loader, reader: reader, logger: logger, retryDelay: defaultRetryDelay}
}

func (i *Invalidator) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if err := i.handleNext(ctx); err != nil {
			select {
			case <-ctx.Done():
				return
			case <-time.After(i.retryDelay):
			}
		}
	}
}

func (i *Invalidator) handleNext(ctx context.Context) error {
	m, err := i.reader.ReadMessage(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			i.logger.Error("error reading order event", "error", err)
		}
		return err
	}

	i.loader.Invalidate(ctx)
	i.logger.Debug("catalog invalidated by order event", "key", string(m.Key), "offset", m.Offset)
	return nil
}

func (i *Invalidator) Close() error {
	return i.reader.Close()
}
