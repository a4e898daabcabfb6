package catalog

import (
	"context"
	"fmt"

	"github.com/pater97/go-shop/internal/domain"
	"github.com/pater97/go-shop/internal/repository"
)

// DefaultPageSize matches the shop's storefront, which shows two products
// per page.
const DefaultPageSize = 2

// PageResult is one bounded slice of the catalog plus the metadata the
// storefront needs to render pagination controls.
type PageResult struct {
	Items           []domain.Product `json:"items"`
	TotalCount      int64            `json:"total_count"`
	CurrentPage     int              `json:"current_page"`
	HasNextPage     bool             `json:"has_next_page"`
	HasPreviousPage bool             `json:"has_previous_page"`
	NextPage        int              `json:"next_page"`
	PreviousPage    int              `json:"previous_page"`
	LastPage        int              `json:"last_page"`
}

type Service struct {
	repo     repository.ProductRepository
	pageSize int
}

func NewService(repo repository.ProductRepository, pageSize int) *Service {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Service{
		repo:     repo,
		pageSize: pageSize,
	}
}

// ListPage returns the requested catalog page. Pages are 1-based; anything
// below 1 is coerced to the first page.
//
// The count and the slice are two independent reads, not one snapshot. A
// product inserted or deleted between them can leave HasNextPage off by one
// element for that response. That skew is accepted; the next page load
// observes the settled state.
func (s *Service) ListPage(ctx context.Context, page int) (*PageResult, error) {
	if page < 1 {
		page = 1
	}

	total, err := s.repo.CountProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	skip := int64(page-1) * int64(s.pageSize)
	items, err := s.repo.ListProducts(ctx, skip, int64(s.pageSize))
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	if items == nil {
		items = []domain.Product{}
	}

	lastPage := int((total + int64(s.pageSize) - 1) / int64(s.pageSize))

	return &PageResult{
		Items:           items,
		TotalCount:      total,
		CurrentPage:     page,
		HasNextPage:     int64(s.pageSize)*int64(page) < total,
		HasPreviousPage: page > 1,
		NextPage:        page + 1,
		PreviousPage:    page - 1,
		LastPage:        lastPage,
	}, nil
}

// GetProduct resolves a single product, surfacing
// repository.ErrProductNotFound when the id does not exist.
func (s *Service) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return s.repo.GetProduct(ctx, id)
}
