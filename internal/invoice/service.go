package invoice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pater97/go-shop/internal/domain"
)

// ErrNotOwner rejects invoice access by anyone but the user the order
// belongs to.
var ErrNotOwner = errors.New("order belongs to a different user")

// Invoice is one rendered document ready to stream.
type Invoice struct {
	Name        string
	ContentType string
	Data        []byte
}

// OrderGetter is the slice of the order service the invoice boundary needs.
type OrderGetter interface {
	GetOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error)
}

// Renderer projects an authorized order and its computed total into a
// printable document. The document's internal format is the renderer's
// business, not the service's.
type Renderer interface {
	Render(order *domain.Order, total float64) ([]byte, error)
}

type Service struct {
	orders   OrderGetter
	renderer Renderer
	dir      string
}

// NewService stores rendered copies under dir (e.g. "data/invoices").
func NewService(orders OrderGetter, renderer Renderer, dir string) *Service {
	return &Service{
		orders:   orders,
		renderer: renderer,
		dir:      dir,
	}
}

// GetInvoice resolves the order, verifies ownership, computes the total
// from the frozen line snapshots (never from live products) and renders
// the document once. The rendered bytes go two independent ways: the
// returned Invoice for the HTTP response, and a best-effort durable copy
// at invoice-{orderID}.pdf. A failed file write never suppresses the
// response; orders are immutable, so a later regeneration produces the
// same bytes and overwriting is safe.
func (s *Service) GetInvoice(ctx context.Context, user domain.UserContext, orderID uuid.UUID) (*Invoice, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.UserID != user.StorageID() {
		return nil, ErrNotOwner
	}

	total := order.Total()

	data, err := s.renderer.Render(order, total)
	if err != nil {
		return nil, fmt.Errorf("failed to render invoice: %w", err)
	}

	name := fmt.Sprintf("invoice-%s.pdf", orderID)
	if err := s.writeCopy(name, data); err != nil {
		slog.Error("failed to store invoice copy", "order_id", orderID, "error", err)
	}

	return &Invoice{
		Name:        name,
		ContentType: "application/pdf",
		Data:        data,
	}, nil
}

func (s *Service) writeCopy(name string, data []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create invoice dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return fmt.Errorf("write invoice file: %w", err)
	}
	return nil
}
