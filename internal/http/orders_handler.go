package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/pater97/go-shop/internal/domain"
	"github.com/pater97/go-shop/internal/orders"
)

type OrderService interface {
	PlaceOrder(ctx context.Context, user domain.UserContext, placementKey string) (*domain.Order, error)
	ListOrders(ctx context.Context, user domain.UserContext) ([]*domain.Order, error)
}

type OrdersHandler struct {
	orders  OrderService
	timeout time.Duration
}

func NewOrdersHandler(orders OrderService, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		orders:  orders,
		timeout: timeout,
	}
}

type PlaceOrderRequestDTO struct {
	IdempotencyKey string `json:"idempotency_key"`
}

type OrderLineDTO struct {
	ProductID   int64   `json:"product_id"`
	Title       string  `json:"title"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	ImageURL    string  `json:"image_url"`
	Quantity    int     `json:"quantity"`
}

type OrderResponseDTO struct {
	ID          string         `json:"id"`
	Email       string         `json:"email"`
	TotalAmount float64        `json:"total_amount"`
	Lines       []OrderLineDTO `json:"lines"`
	CreatedAt   string         `json:"created_at"`
	CartCleared *bool          `json:"cart_cleared,omitempty"`
}

// POST /api/v1/orders
func (h *OrdersHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user, ok := getUserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req PlaceOrderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	order, err := h.orders.PlaceOrder(ctx, user, req.IdempotencyKey)
	if err != nil && !errors.Is(err, orders.ErrCartClearFailed) {
		handleDomainError(w, err)
		return
	}

	dto := convertOrder(order)
	// The order stands even when the cart clear lagged behind; tell the
	// caller which case they got.
	cleared := err == nil
	dto.CartCleared = &cleared

	respondJSON(w, http.StatusCreated, dto)
}

// GET /api/v1/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user, ok := getUserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	list, err := h.orders.ListOrders(ctx, user)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	dtos := make([]OrderResponseDTO, 0, len(list))
	for _, o := range list {
		dtos = append(dtos, convertOrder(o))
	}

	respondJSON(w, http.StatusOK, dtos)
}

func convertOrder(o *domain.Order) OrderResponseDTO {
	lines := make([]OrderLineDTO, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, OrderLineDTO{
			ProductID:   l.ProductID,
			Title:       l.Title,
			Price:       l.Price,
			Description: l.Description,
			ImageURL:    l.ImageURL,
			Quantity:    l.Quantity,
		})
	}

	return OrderResponseDTO{
		ID:          o.ID.String(),
		Email:       o.Email,
		TotalAmount: o.TotalAmount,
		Lines:       lines,
		CreatedAt:   o.CreatedAt.Format(timeFormat),
	}
}
