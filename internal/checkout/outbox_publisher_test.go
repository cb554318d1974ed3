package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
)

func seedOutbox(t *testing.T, repo *SQLiteRepository, ids ...string) {
	t.Helper()
	for _, id := range ids {
		event := &OutboxEvent{
			AggregateID: id,
			EventType:   EventOrderPlaced,
			Payload:     json.RawMessage(fmt.Sprintf(`{"order_id":%q}`, id)),
			CreatedAt:   time.Now().UTC(),
		}
		require.NoError(t, repo.RecordOrder(context.Background(), placedOrder(id, "c1"), event))
	}
}

func newTestPublisher(repo OutboxRepository, w messageWriter) *OutboxPublisher {
	return &OutboxPublisher{
		tick:   10 * time.Millisecond,
		batch:  100,
		repo:   repo,
		writer: w,
		logger: quietLogger(),
	}
}

func TestOutboxPublisher_PublishesAndMarks(t *testing.T) {
	repo := NewSQLiteRepository(newTestDB(t))
	seedOutbox(t, repo, "o1", "o2")
	writer := &MockWriter{}
	p := newTestPublisher(repo, writer)

	n := p.PublishPending(context.Background())
	assert.Equal(t, 2, n)

	require.Len(t, writer.Messages, 2)
	assert.Equal(t, "o1", string(writer.Messages[0].Key))
	assert.JSONEq(t, `{"order_id":"o1"}`, string(writer.Messages[0].Value))
	assert.Equal(t, "event_type", writer.Messages[0].Headers[0].Key)
	assert.Equal(t, EventOrderPlaced, string(writer.Messages[0].Headers[0].Value))

	events, err := repo.UnpublishedEvents(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, events)

	assert.Equal(t, 0, p.PublishPending(context.Background()))
}

func TestOutboxPublisher_FailedEventStaysPending(t *testing.T) {
	repo := NewSQLiteRepository(newTestDB(t))
	seedOutbox(t, repo, "o1", "o2")
	writer := &MockWriter{FailKeys: map[string]error{"o1": errors.New("broker unavailable")}}
	p := newTestPublisher(repo, writer)

	assert.Equal(t, 1, p.PublishPending(context.Background()))

	events, err := repo.UnpublishedEvents(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "o1", events[0].AggregateID)

	delete(writer.FailKeys, "o1")
	assert.Equal(t, 1, p.PublishPending(context.Background()))
}

func TestOutboxPublisher_RunStopsOnCancel(t *testing.T) {
	repo := NewSQLiteRepository(newTestDB(t))
	seedOutbox(t, repo, "o1")
	writer := &MockWriter{}
	p := newTestPublisher(repo, writer)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		writer.mu.Lock()
		defer writer.mu.Unlock()
		return len(writer.Messages) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	require.NoError(t, p.Close())
	assert.True(t, writer.Closed)
}

func TestOutboxPublisher_Kafka(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping kafka integration test in short mode")
	}
	ctx := context.Background()

	kafkaContainer, err := kafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate kafka container: %v", err)
		}
	})

	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)

	repo := NewSQLiteRepository(newTestDB(t))
	seedOutbox(t, repo, "order-123")

	p := NewOutboxPublisher(repo, quietLogger(), brokers...)
	defer p.Close()

	runCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	go p.Run(runCtx)

	reader := kafkaGo.NewReader(kafkaGo.ReaderConfig{
		Brokers:  brokers,
		Topic:    OrdersTopic,
		GroupID:  "test-consumer",
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	msg, err := reader.ReadMessage(runCtx)
	require.NoError(t, err)
	assert.Equal(t, "order-123", string(msg.Key))

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(msg.Value, &payload))
	assert.Equal(t, "order-123", payload["order_id"])
}
