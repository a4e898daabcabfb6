package repository

import (
	"context"
	"errors"

	"github.com/pater97/go-shop/internal/domain"
)

var (
	ErrCartNotFound    = errors.New("cart not found")
	ErrProductNotFound = errors.New("product not found")
)

// CartRepository defines the interface for cart data operations.
// Consumers define this interface, not the MongoDB implementation.
// Every mutation is a single atomic update against the user's cart
// document; there is no read-then-write pair at this layer.
type CartRepository interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	AddItem(ctx context.Context, userID string, productID int64) (*domain.Cart, error)
	RemoveItem(ctx context.Context, userID string, productID int64) (*domain.Cart, error)
	DeleteCart(ctx context.Context, userID string) error
}

// ProductRepository is the catalog store boundary. The count and the
// paged slice are independent reads; callers composing them accept the
// read skew that brings.
type ProductRepository interface {
	CountProducts(ctx context.Context) (int64, error)
	ListProducts(ctx context.Context, skip, limit int64) ([]domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
}
