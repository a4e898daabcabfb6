package domain

import (
	"time"

	"github.com/google/uuid"
)

// OrderLine is a frozen copy of one purchased position. Every descriptive
// field is copied from the product at placement time; later product edits
// never reach a stored line.
type OrderLine struct {
	ProductID   int64   `json:"product_id"`
	Title       string  `json:"title"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	ImageURL    string  `json:"image_url"`
	Quantity    int     `json:"quantity"`
}

// NewOrderLine snapshots a product into an order line. The field set is
// enumerated on purpose: a line holds values, not a product reference.
func NewOrderLine(p Product, quantity int) OrderLine {
	return OrderLine{
		ProductID:   p.ID,
		Title:       p.Title,
		Price:       p.Price,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		Quantity:    quantity,
	}
}

func (l OrderLine) Subtotal() float64 {
	return float64(l.Quantity) * l.Price
}

// Order is the immutable record a cart turns into. There is no update or
// delete path for orders anywhere in the system.
type Order struct {
	ID           uuid.UUID
	UserID       string
	Email        string
	PlacementKey string
	TotalAmount  float64
	Lines        []OrderLine
	CreatedAt    time.Time
}

// Total sums quantity times the frozen line price.
func (o *Order) Total() float64 {
	var total float64
	for _, l := range o.Lines {
		total += l.Subtotal()
	}
	return total
}
