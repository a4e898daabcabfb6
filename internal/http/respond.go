package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/pater97/go-shop/internal/invoice"
	"github.com/pater97/go-shop/internal/orders"
	ordersrepo "github.com/pater97/go-shop/internal/orders/repository"
	"github.com/pater97/go-shop/internal/repository"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleDomainError maps the core's typed failures to HTTP status codes.
// Anything unrecognized is a storage or programming failure and answers 500.
func handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrProductNotFound):
		respondError(w, http.StatusNotFound, "not_found", "product not found")
	case errors.Is(err, ordersrepo.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "not_found", "order not found")
	case errors.Is(err, invoice.ErrNotOwner):
		respondError(w, http.StatusForbidden, "forbidden", "order belongs to a different user")
	case errors.Is(err, orders.ErrEmptyCart):
		respondError(w, http.StatusUnprocessableEntity, "empty_cart", "cannot place an order from an empty cart")
	case errors.Is(err, ordersrepo.ErrDuplicatePlacement):
		respondError(w, http.StatusConflict, "conflict", "an order for this idempotency key already exists")
	default:
		slog.Error("internal error", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
