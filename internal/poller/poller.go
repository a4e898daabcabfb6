package poller

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/pater97/go-shop/internal/cache"
	"github.com/pater97/go-shop/internal/repository"
	"github.com/segmentio/kafka-go"
)

// Poller is the cart-clear reconciler. It consumes order-placed events and
// deletes the matching cart. Because the synchronous clear inside order
// placement usually already ran, a missing cart here is the normal case;
// this path exists for the placements where that clear failed, so that
// "cart cleared iff order persisted" eventually holds.
type Poller struct {
	repo   repository.CartRepository
	cache  cache.CartCache
	reader *kafka.Reader
}

func NewPoller(repo repository.CartRepository, cartCache cache.CartCache, topic string, brokers ...string) *Poller {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  "cart-clear-reconciler",
		MaxBytes: 10e6, // 10MB
	})
	return &Poller{repo, cartCache, reader}
}

func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		p.processMessage(ctx)
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		slog.Error("error closing kafka reader", "error", err)
	}
}

func (p *Poller) processMessage(ctx context.Context) {
	m, err := p.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		slog.Error("error reading message", "error", err)
		return
	}

	var payload struct {
		OrderID string `json:"order_id"`
		UserID  string `json:"user_id"`
	}
	if err := json.Unmarshal(m.Value, &payload); err != nil {
		slog.Error("error parsing order event", "error", err)
		return
	}
	if payload.UserID == "" {
		slog.Error("order event missing user_id", "order_id", payload.OrderID)
		return
	}

	errDelete := p.repo.DeleteCart(ctx, payload.UserID)
	if errDelete != nil && !errors.Is(errDelete, repository.ErrCartNotFound) {
		slog.Error("failed to delete cart", "user_id", payload.UserID, "error", errDelete)
		return
	}
	if errDelete == nil {
		slog.Info("reconciled stale cart after order placement",
			"user_id", payload.UserID, "order_id", payload.OrderID)
	}

	if err := p.cache.Delete(ctx, payload.UserID); err != nil {
		slog.Warn("failed to invalidate cart cache", "user_id", payload.UserID, "error", err)
	}
}
