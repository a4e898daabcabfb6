package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pater97/go-shop/internal/domain"
	"github.com/pater97/go-shop/internal/invoice"
)

type InvoiceService interface {
	GetInvoice(ctx context.Context, user domain.UserContext, orderID uuid.UUID) (*invoice.Invoice, error)
}

type InvoiceHandler struct {
	invoices InvoiceService
	timeout  time.Duration
}

func NewInvoiceHandler(invoices InvoiceService, timeout time.Duration) *InvoiceHandler {
	return &InvoiceHandler{
		invoices: invoices,
		timeout:  timeout,
	}
}

// GET /api/v1/orders/{order_id}/invoice
func (h *InvoiceHandler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user, ok := getUserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "order_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order_id must be a UUID")
		return
	}

	inv, err := h.invoices.GetInvoice(ctx, user, orderID)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", inv.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", inv.Name))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(inv.Data); err != nil {
		// The durable copy is already on disk; a broken client connection
		// here is not an invoice failure.
		slog.Warn("failed to stream invoice", "order_id", orderID, "error", err)
	}
}
