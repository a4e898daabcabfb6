package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pater97/go-shop/internal/domain"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	// ErrDuplicatePlacement means an order for this placement key already
	// exists. The unique constraint on placement_key is what makes order
	// creation idempotent under client retries.
	ErrDuplicatePlacement = errors.New("order for this placement key already exists")
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

// OutboxEvent is one pending order-placed notification, written in the same
// transaction as its order.
type OutboxEvent struct {
	ID          int64
	OrderID     uuid.UUID
	Payload     []byte
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

type OrderRepository interface {
	// CreateOrder persists the order and its outbox payload atomically.
	CreateOrder(ctx context.Context, order *domain.Order, outboxPayload []byte) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetOrderByPlacementKey(ctx context.Context, key string) (*domain.Order, error)
	ListOrdersByUserID(ctx context.Context, userID string) ([]*domain.Order, error)
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventProcessed(ctx context.Context, id int64) error
	RunMigrations(cred *Credentials) error
	Close() error
}
