package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pater97/go-shop/internal/cache"
	"github.com/pater97/go-shop/internal/domain"
	"github.com/pater97/go-shop/internal/repository"
	"golang.org/x/sync/singleflight"
)

// Service mutates a single user's cart. All cross-request safety lives in
// the repository's atomic document updates; the service itself holds no
// locks.
type Service struct {
	repo     repository.CartRepository
	products repository.ProductRepository
	cache    cache.CartCache
	sfg      singleflight.Group // Prevents cache stampede
}

func NewService(repo repository.CartRepository, products repository.ProductRepository, cartCache cache.CartCache) *Service {
	return &Service{
		repo:     repo,
		products: products,
		cache:    cartCache,
	}
}

func (s *Service) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		cached, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			slog.Warn("cart cache get failed", "user_id", userID, "error", err)
		}

		loaded, errGet := s.repo.GetCart(ctx, userID)
		if errors.Is(errGet, repository.ErrCartNotFound) {
			// A user who never added anything still has a cart, it is
			// just empty.
			return emptyCart(userID), nil
		}
		if errGet != nil {
			return nil, errGet
		}

		go func() {
			if errSet := s.cache.Set(context.Background(), userID, loaded); errSet != nil {
				slog.Warn("cart cache set failed", "user_id", userID, "error", errSet)
			}
		}()

		return loaded, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

// CheckoutCart reads the cart straight from storage, never the cache.
// Order placement snapshots from this read: a cache fill started before a
// mutation can land after that mutation's invalidation, so a cached read
// may serve a cart that is missing the latest change. A browse through
// GetCart tolerates that for a TTL; a checkout must not.
func (s *Service) CheckoutCart(ctx context.Context, userID string) (*domain.Cart, error) {
	loaded, err := s.repo.GetCart(ctx, userID)
	if errors.Is(err, repository.ErrCartNotFound) {
		return emptyCart(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart for checkout: %w", err)
	}
	return loaded, nil
}

// AddItem puts one more unit of the product into the user's cart: an
// existing item is incremented, a new one is appended with quantity 1.
// The product must exist; products themselves are never touched.
func (s *Service) AddItem(ctx context.Context, userID string, productID int64) (*domain.Cart, error) {
	if _, err := s.products.GetProduct(ctx, productID); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to resolve product %d: %w", productID, err)
	}

	updated, err := s.repo.AddItem(ctx, userID, productID)
	if err != nil {
		return nil, err
	}

	s.invalidateCache(userID)
	return updated, nil
}

// RemoveItem drops the product from the cart entirely. Removing something
// that is not there is a no-op, never an error.
func (s *Service) RemoveItem(ctx context.Context, userID string, productID int64) (*domain.Cart, error) {
	updated, err := s.repo.RemoveItem(ctx, userID, productID)
	if errors.Is(err, repository.ErrCartNotFound) {
		return emptyCart(userID), nil
	}
	if err != nil {
		return nil, err
	}

	s.invalidateCache(userID)
	return updated, nil
}

// ClearCart empties the cart. Idempotent: clearing a missing cart succeeds.
func (s *Service) ClearCart(ctx context.Context, userID string) error {
	err := s.repo.DeleteCart(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrCartNotFound) {
		return err
	}

	s.invalidateCache(userID)
	return nil
}

func (s *Service) invalidateCache(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		slog.Warn("cart cache invalidate failed", "user_id", userID, "error", err)
	}
}

func emptyCart(userID string) *domain.Cart {
	now := time.Now()
	return &domain.Cart{
		UserID:    userID,
		Items:     nil,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
