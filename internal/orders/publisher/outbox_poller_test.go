package publisher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pater97/go-shop/internal/domain"
	"github.com/pater97/go-shop/internal/orders/repository"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

type mockOutboxRepo struct {
	m         sync.Mutex
	events    []*repository.OutboxEvent
	processed []int64
	fetchErr  error
}

func (m *mockOutboxRepo) GetUnprocessedEvents(context.Context, int) ([]*repository.OutboxEvent, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return m.events, nil
}

func (m *mockOutboxRepo) MarkEventProcessed(_ context.Context, id int64) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.processed = append(m.processed, id)
	return nil
}

// The poller never touches the order side of the repository.
func (m *mockOutboxRepo) CreateOrder(context.Context, *domain.Order, []byte) error { return nil }

func (m *mockOutboxRepo) GetOrderByID(context.Context, uuid.UUID) (*domain.Order, error) {
	return nil, repository.ErrOrderNotFound
}

func (m *mockOutboxRepo) GetOrderByPlacementKey(context.Context, string) (*domain.Order, error) {
	return nil, repository.ErrOrderNotFound
}

func (m *mockOutboxRepo) ListOrdersByUserID(context.Context, string) ([]*domain.Order, error) {
	return nil, nil
}

func (m *mockOutboxRepo) RunMigrations(*repository.Credentials) error { return nil }

func (m *mockOutboxRepo) Close() error { return nil }

func TestProcessUnpublishedEvents_FetchErrorIsNoOp(t *testing.T) {
	repo := &mockOutboxRepo{fetchErr: errors.New("postgres down")}
	p := &OutboxPoller{tick: time.Second, batchSize: 100, repo: repo}

	p.processUnpublishedEvents(context.Background())

	assert.Empty(t, repo.processed)
}

func TestProcessUnpublishedEvents_EmptyBatchIsNoOp(t *testing.T) {
	repo := &mockOutboxRepo{}
	p := &OutboxPoller{tick: time.Second, batchSize: 100, repo: repo}

	p.processUnpublishedEvents(context.Background())

	assert.Empty(t, repo.processed)
}

func TestProcessUnpublishedEvents_PublishFailureLeavesEventUnprocessed(t *testing.T) {
	repo := &mockOutboxRepo{events: []*repository.OutboxEvent{
		{ID: 1, OrderID: uuid.New(), Payload: []byte(`{}`)},
	}}
	// No broker listens here; the write must fail and the event must stay.
	w := &kafka.Writer{
		Addr:        kafka.TCP("127.0.0.1:1"),
		Topic:       Topic,
		MaxAttempts: 1,
	}
	p := &OutboxPoller{tick: time.Second, batchSize: 100, repo: repo, writer: w}
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p.processUnpublishedEvents(ctx)

	assert.Empty(t, repo.processed, "a failed publish must not mark the event processed")
}

func TestOutboxPoller_PublishesAndMarksProcessed(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()

	kafkaContainer, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate kafka container: %v", err)
		}
	})

	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)

	orderID := uuid.New()
	repo := &mockOutboxRepo{events: []*repository.OutboxEvent{
		{ID: 1, OrderID: orderID, Payload: []byte(`{"order_id":"x","user_id":"1"}`)},
	}}

	p := NewOutboxPoller(repo, brokers...)
	defer p.Close()

	publishCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	p.processUnpublishedEvents(publishCtx)

	require.Equal(t, []int64{1}, repo.processed)

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    Topic,
		GroupID:  "outbox-poller-test",
		MaxBytes: 10e6,
	})
	defer reader.Close()

	readCtx, cancelRead := context.WithTimeout(ctx, 30*time.Second)
	defer cancelRead()
	msg, err := reader.ReadMessage(readCtx)
	require.NoError(t, err)
	assert.Equal(t, orderID.String(), string(msg.Key))
	assert.JSONEq(t, `{"order_id":"x","user_id":"1"}`, string(msg.Value))
}
