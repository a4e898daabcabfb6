package orders

import "errors"

var (
	// ErrEmptyCart rejects order placement from a cart with no items.
	ErrEmptyCart = errors.New("cart is empty, nothing to order")
	// ErrCartClearFailed is returned together with a non-nil order when the
	// order was durably persisted but the follow-up cart clear did not go
	// through. Callers must treat the order as placed; the outbox consumer
	// retries the clear.
	ErrCartClearFailed = errors.New("order placed but cart clear failed")
)
