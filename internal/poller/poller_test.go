package poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	c "github.com/pater97/go-shop/internal/cache"
	"github.com/pater97/go-shop/internal/orders/publisher"
	r "github.com/pater97/go-shop/internal/repository"
	"github.com/redis/go-redis/v9"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"gotest.tools/v3/assert"
)

func setupTestRedis(t *testing.T) *c.RedisCache {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	return c.NewRedisCache(client, 15*time.Minute)
}

func setupTestDB(t *testing.T) r.CartRepository {
	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := r.ConnectMongoDB(ctx, r.MongoSettings{URI: uri, Database: "testdb"})
	require.NoError(t, err)

	return r.NewMongoCartRepository(db)
}

func setupKafka(t *testing.T) string {
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
	require.NotEmpty(t, brokers, "broker address should not be empty")

	return brokers[0]
}

func createTopic(t *testing.T, brokerAddr, topic string) {
	conn, err := kafkaGo.Dial("tcp", brokerAddr)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	controllerConn, err := kafkaGo.Dial("tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	require.NoError(t, err)
	defer controllerConn.Close()

	topicConfigs := []kafkaGo.TopicConfig{{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}}

	if err := controllerConn.CreateTopics(topicConfigs...); err != nil {
		t.Logf("topic creation error (may already exist): %v", err)
	}
}

func TestPoller_ClearsStaleCartAfterOrderEvent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cache := setupTestRedis(t)
	dbRepo := setupTestDB(t)
	brokers := setupKafka(t)
	createTopic(t, brokers, publisher.Topic)

	poller := NewPoller(dbRepo, cache, publisher.Topic, brokers)
	defer poller.Close()

	// A cart that the synchronous clear missed, still cached too.
	_, err := dbRepo.AddItem(ctx, "123", 1)
	require.NoError(t, err)
	cart, errGetCart := dbRepo.GetCart(ctx, "123")
	require.NoError(t, errGetCart)
	require.NotNil(t, cart)
	assert.Equal(t, 1, len(cart.Items))
	require.NoError(t, cache.Set(ctx, "123", cart))

	w := &kafkaGo.Writer{
		Addr:                   kafkaGo.TCP(brokers),
		Topic:                  publisher.Topic,
		Balancer:               &kafkaGo.LeastBytes{},
		AllowAutoTopicCreation: true,
	}

	payload := map[string]interface{}{
		"order_id":      "ord-1",
		"user_id":       "123",
		"placement_key": "key-1",
		"total_amount":  10.0,
		"placed_at":     time.Time{},
	}

	payloadJSON, err := json.Marshal(payload)
	require.NoError(t, err)
	msg := kafkaGo.Message{
		Key:   []byte("ord-1"),
		Value: payloadJSON,
	}

	require.NoError(t, w.WriteMessages(ctx, msg))
	w.Close()

	go poller.Run(ctx)
	require.Eventually(t, func() bool {
		_, eClearCart := dbRepo.GetCart(ctx, "123")
		return errors.Is(eClearCart, r.ErrCartNotFound)
	}, 15*time.Second, 500*time.Millisecond)

	require.Eventually(t, func() bool {
		_, eGetCache := cache.Get(ctx, "123")
		return errors.Is(eGetCache, c.ErrCacheMiss)
	}, 15*time.Second, 500*time.Millisecond)
}
