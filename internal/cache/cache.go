package cache

import (
	"context"
	"errors"

	"github.com/pater97/go-shop/internal/domain"
)

// ErrCacheMiss reports that no cart is cached for the user. Callers fall
// through to storage; a miss is never a failure.
var ErrCacheMiss = errors.New("cache miss")

// CartCache shortens browse reads of a user's cart. The Mongo document is
// the source of truth: entries may expire at any time, every cart mutation
// deletes its entry, and checkout never reads through here. Delete on a
// missing entry must succeed.
type CartCache interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	Set(ctx context.Context, userID string, cart *domain.Cart) error
	Delete(ctx context.Context, userID string) error
}
