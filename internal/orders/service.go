package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pater97/go-shop/internal/domain"
	"github.com/pater97/go-shop/internal/orders/repository"
)

// CartAccess is the slice of the cart service order placement needs.
// CheckoutCart must be an authoritative storage read, not a cached one:
// the snapshot frozen into the order has to reflect every mutation that
// completed before placement started.
type CartAccess interface {
	CheckoutCart(ctx context.Context, userID string) (*domain.Cart, error)
	ClearCart(ctx context.Context, userID string) error
}

// ProductResolver resolves cart item references to current product records.
type ProductResolver interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
}

type Service struct {
	repo     repository.OrderRepository
	carts    CartAccess
	products ProductResolver
}

func NewService(repo repository.OrderRepository, carts CartAccess, products ProductResolver) *Service {
	return &Service{
		repo:     repo,
		carts:    carts,
		products: products,
	}
}

// PlaceOrder converts the user's cart into an immutable order.
//
// The order insert (with its outbox event) is one transaction and is the
// source of truth. The cart clear afterwards is best-effort: when it fails
// the order stands, PlaceOrder returns it together with ErrCartClearFailed,
// and the outbox consumer clears the cart later. A retry carrying the same
// placement key finds the already-persisted order instead of creating a
// second one, and just retries the clear.
func (s *Service) PlaceOrder(ctx context.Context, user domain.UserContext, placementKey string) (*domain.Order, error) {
	callerKeyed := placementKey != ""
	if !callerKeyed {
		// Without a caller-supplied key a retry cannot be recognized, but
		// the single attempt still needs a key for the unique column.
		placementKey = uuid.NewString()
	}

	userID := user.StorageID()

	cart, err := s.carts.CheckoutCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if len(cart.Items) == 0 {
		// A retry after a fully successful placement finds the cart
		// already cleared. The placement key tells that apart from a
		// genuinely empty cart.
		if callerKeyed {
			existing, lookupErr := s.repo.GetOrderByPlacementKey(ctx, placementKey)
			if lookupErr == nil {
				slog.Info("placement replay on cleared cart, returning existing order",
					"placement_key", placementKey, "order_id", existing.ID)
				return existing, nil
			}
			if !errors.Is(lookupErr, repository.ErrOrderNotFound) {
				return nil, fmt.Errorf("failed to check placement key %q: %w", placementKey, lookupErr)
			}
		}
		return nil, ErrEmptyCart
	}

	lines := make([]domain.OrderLine, 0, len(cart.Items))
	for _, item := range cart.Items {
		product, err := s.products.GetProduct(ctx, item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve cart product %d: %w", item.ProductID, err)
		}
		lines = append(lines, domain.NewOrderLine(*product, item.Quantity))
	}

	order := &domain.Order{
		ID:           uuid.New(),
		UserID:       userID,
		Email:        user.Email,
		PlacementKey: placementKey,
		Lines:        lines,
		CreatedAt:    time.Now().UTC(),
	}
	order.TotalAmount = order.Total()

	payload, err := json.Marshal(map[string]interface{}{
		"order_id":      order.ID.String(),
		"user_id":       order.UserID,
		"placement_key": order.PlacementKey,
		"total_amount":  order.TotalAmount,
		"placed_at":     order.CreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order event: %w", err)
	}

	createErr := s.repo.CreateOrder(ctx, order, payload)
	if errors.Is(createErr, repository.ErrDuplicatePlacement) {
		existing, lookupErr := s.repo.GetOrderByPlacementKey(ctx, placementKey)
		if lookupErr != nil {
			return nil, fmt.Errorf("placement key %q replayed but existing order unreadable: %w", placementKey, lookupErr)
		}
		slog.Info("placement replay detected, returning existing order",
			"placement_key", placementKey, "order_id", existing.ID)
		order = existing
	} else if createErr != nil {
		// Nothing was written; the cart is untouched and the call is safe
		// to retry as-is.
		return nil, fmt.Errorf("failed to persist order: %w", createErr)
	}

	if clearErr := s.carts.ClearCart(ctx, userID); clearErr != nil {
		slog.Error("cart clear failed after order persist",
			"order_id", order.ID, "user_id", userID, "error", clearErr)
		return order, fmt.Errorf("%w: %v", ErrCartClearFailed, clearErr)
	}

	return order, nil
}

// ListOrders returns the user's order history in creation order.
func (s *Service) ListOrders(ctx context.Context, user domain.UserContext) ([]*domain.Order, error) {
	orders, err := s.repo.ListOrdersByUserID(ctx, user.StorageID())
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// GetOrder resolves one order by id, surfacing repository.ErrOrderNotFound
// when it does not exist.
func (s *Service) GetOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	return s.repo.GetOrderByID(ctx, orderID)
}
