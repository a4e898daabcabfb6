package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pater97/go-shop/internal/catalog"
	"github.com/pater97/go-shop/internal/domain"
)

// CatalogService is defined by the handler, not the implementation.
type CatalogService interface {
	ListPage(ctx context.Context, page int) (*catalog.PageResult, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
}

type ProductHandler struct {
	catalog CatalogService
	timeout time.Duration
}

func NewProductHandler(catalog CatalogService, timeout time.Duration) *ProductHandler {
	return &ProductHandler{
		catalog: catalog,
		timeout: timeout,
	}
}

type ProductDTO struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	ImageURL    string  `json:"image_url"`
}

type PageResponseDTO struct {
	Items           []ProductDTO `json:"items"`
	TotalCount      int64        `json:"total_count"`
	CurrentPage     int          `json:"current_page"`
	HasNextPage     bool         `json:"has_next_page"`
	HasPreviousPage bool         `json:"has_previous_page"`
	NextPage        int          `json:"next_page"`
	PreviousPage    int          `json:"previous_page"`
	LastPage        int          `json:"last_page"`
}

// GET /api/v1/products?page=N
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	// Anything that does not parse as a positive page means page 1.
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	result, err := h.catalog.ListPage(ctx, page)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, convertPage(result))
}

// GET /api/v1/products/{product_id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return
	}

	product, err := h.catalog.GetProduct(ctx, productID)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, convertProduct(*product))
}

func convertProduct(p domain.Product) ProductDTO {
	return ProductDTO{
		ID:          p.ID,
		Title:       p.Title,
		Price:       p.Price,
		Description: p.Description,
		ImageURL:    p.ImageURL,
	}
}

func convertPage(result *catalog.PageResult) PageResponseDTO {
	items := make([]ProductDTO, 0, len(result.Items))
	for _, p := range result.Items {
		items = append(items, convertProduct(p))
	}

	return PageResponseDTO{
		Items:           items,
		TotalCount:      result.TotalCount,
		CurrentPage:     result.CurrentPage,
		HasNextPage:     result.HasNextPage,
		HasPreviousPage: result.HasPreviousPage,
		NextPage:        result.NextPage,
		PreviousPage:    result.PreviousPage,
		LastPage:        result.LastPage,
	}
}
