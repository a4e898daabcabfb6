package cart

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pater97/go-shop/internal/cache"
	"github.com/pater97/go-shop/internal/domain"
	"github.com/pater97/go-shop/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCartRepo struct {
	m    sync.Mutex
	cart *domain.Cart
	err  error
}

func (m *mockCartRepo) GetCart(context.Context, string) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.cart == nil {
		return nil, repository.ErrCartNotFound
	}
	return m.cart, nil
}

func (m *mockCartRepo) AddItem(_ context.Context, userID string, productID int64) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.cart == nil {
		m.cart = &domain.Cart{UserID: userID}
	}
	if item := m.cart.Item(productID); item != nil {
		item.Quantity++
	} else {
		m.cart.Items = append(m.cart.Items, domain.CartItem{
			ProductID: productID,
			Quantity:  1,
			AddedAt:   time.Now(),
		})
	}
	return m.cart, nil
}

func (m *mockCartRepo) RemoveItem(_ context.Context, _ string, productID int64) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.cart == nil {
		return nil, repository.ErrCartNotFound
	}
	for i, item := range m.cart.Items {
		if item.ProductID == productID {
			m.cart.Items = append(m.cart.Items[:i], m.cart.Items[i+1:]...)
			break
		}
	}
	return m.cart, nil
}

func (m *mockCartRepo) DeleteCart(context.Context, string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.cart == nil {
		return repository.ErrCartNotFound
	}
	m.cart = nil
	return nil
}

type mockCache struct {
	m    sync.Mutex
	cart *domain.Cart
	err  error
}

func (m *mockCache) Get(context.Context, string) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.cart == nil {
		return nil, cache.ErrCacheMiss
	}
	return m.cart, nil
}

func (m *mockCache) Set(_ context.Context, _ string, cart *domain.Cart) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.cart = cart
	return m.err
}

func (m *mockCache) Delete(context.Context, string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.cart = nil
	return m.err
}

type mockProducts struct {
	products map[int64]domain.Product
}

func (m *mockProducts) CountProducts(context.Context) (int64, error) {
	return int64(len(m.products)), nil
}

func (m *mockProducts) ListProducts(context.Context, int64, int64) ([]domain.Product, error) {
	return nil, nil
}

func (m *mockProducts) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return &p, nil
}

func newTestService(repo *mockCartRepo) (*Service, *mockCache) {
	c := &mockCache{}
	products := &mockProducts{products: map[int64]domain.Product{
		1: {ID: 1, Title: "Book", Price: 10},
		2: {ID: 2, Title: "Mug", Price: 5},
	}}
	return NewService(repo, products, c), c
}

func TestAddItem_NewProduct(t *testing.T) {
	repo := &mockCartRepo{}
	svc, _ := newTestService(repo)

	cart, err := svc.AddItem(context.Background(), "user1", 1)
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, int64(1), cart.Items[0].ProductID)
	assert.Equal(t, 1, cart.Items[0].Quantity)
}

func TestAddItem_TwiceIncrementsQuantity(t *testing.T) {
	repo := &mockCartRepo{}
	svc, _ := newTestService(repo)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "user1", 1)
	require.NoError(t, err)
	cart, err := svc.AddItem(ctx, "user1", 1)
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
}

func TestAddItem_UnknownProduct(t *testing.T) {
	repo := &mockCartRepo{}
	svc, _ := newTestService(repo)

	_, err := svc.AddItem(context.Background(), "user1", 99)
	assert.ErrorIs(t, err, repository.ErrProductNotFound)
	assert.Nil(t, repo.cart, "cart must stay untouched when the product does not exist")
}

func TestRemoveItem_AbsentProductIsNoError(t *testing.T) {
	repo := &mockCartRepo{cart: &domain.Cart{
		UserID: "user1",
		Items:  []domain.CartItem{{ProductID: 1, Quantity: 2}},
	}}
	svc, _ := newTestService(repo)

	cart, err := svc.RemoveItem(context.Background(), "user1", 42)
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
}

func TestRemoveItem_NoCartIsNoError(t *testing.T) {
	repo := &mockCartRepo{}
	svc, _ := newTestService(repo)

	cart, err := svc.RemoveItem(context.Background(), "user1", 1)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestRemoveItem_RemovesWholeItem(t *testing.T) {
	repo := &mockCartRepo{cart: &domain.Cart{
		UserID: "user1",
		Items: []domain.CartItem{
			{ProductID: 1, Quantity: 3},
			{ProductID: 2, Quantity: 1},
		},
	}}
	svc, _ := newTestService(repo)

	cart, err := svc.RemoveItem(context.Background(), "user1", 1)
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, int64(2), cart.Items[0].ProductID)
}

func TestClearCart_Idempotent(t *testing.T) {
	repo := &mockCartRepo{cart: &domain.Cart{UserID: "user1"}}
	svc, _ := newTestService(repo)
	ctx := context.Background()

	require.NoError(t, svc.ClearCart(ctx, "user1"))
	require.NoError(t, svc.ClearCart(ctx, "user1"), "clearing an already-empty cart must succeed")
	assert.Nil(t, repo.cart)
}

func TestGetCart_MissingCartIsEmpty(t *testing.T) {
	repo := &mockCartRepo{}
	svc, _ := newTestService(repo)

	cart, err := svc.GetCart(context.Background(), "user1")
	require.NoError(t, err)

	assert.Equal(t, "user1", cart.UserID)
	assert.Empty(t, cart.Items)
}

func TestGetCart_RepoError(t *testing.T) {
	repoErr := errors.New("mongo down")
	repo := &mockCartRepo{err: repoErr}
	svc, _ := newTestService(repo)

	_, err := svc.GetCart(context.Background(), "user1")
	assert.ErrorIs(t, err, repoErr)
}

func TestGetCart_CacheHitSkipsRepo(t *testing.T) {
	repoErr := errors.New("mongo down")
	repo := &mockCartRepo{err: repoErr}
	svc, c := newTestService(repo)

	cached := &domain.Cart{UserID: "user1", Items: []domain.CartItem{{ProductID: 1, Quantity: 1}}}
	c.cart = cached

	cart, err := svc.GetCart(context.Background(), "user1")
	require.NoError(t, err)
	assert.Equal(t, cached.Items, cart.Items)
}

func TestCheckoutCart_BypassesStaleCache(t *testing.T) {
	repo := &mockCartRepo{}
	svc, c := newTestService(repo)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "user1", 1)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "user1", 2)
	require.NoError(t, err)

	// A cache fill from a read that started before the second add lands
	// after that add's invalidation, resurrecting the one-item cart.
	c.cart = &domain.Cart{
		UserID: "user1",
		Items:  []domain.CartItem{{ProductID: 1, Quantity: 1}},
	}

	cached, err := svc.GetCart(ctx, "user1")
	require.NoError(t, err)
	require.Len(t, cached.Items, 1, "the browse read serves the stale cache")

	checkout, err := svc.CheckoutCart(ctx, "user1")
	require.NoError(t, err)
	assert.Len(t, checkout.Items, 2, "the checkout read must see every completed mutation")
}

func TestCheckoutCart_MissingCartIsEmpty(t *testing.T) {
	repo := &mockCartRepo{}
	svc, _ := newTestService(repo)

	cart, err := svc.CheckoutCart(context.Background(), "user1")
	require.NoError(t, err)

	assert.Equal(t, "user1", cart.UserID)
	assert.Empty(t, cart.Items)
}

func TestMutationsInvalidateCache(t *testing.T) {
	repo := &mockCartRepo{}
	svc, c := newTestService(repo)
	ctx := context.Background()

	c.cart = &domain.Cart{UserID: "user1"}
	_, err := svc.AddItem(ctx, "user1", 1)
	require.NoError(t, err)
	assert.Nil(t, c.cart, "add must invalidate the cached cart")

	c.cart = &domain.Cart{UserID: "user1"}
	_, err = svc.RemoveItem(ctx, "user1", 1)
	require.NoError(t, err)
	assert.Nil(t, c.cart, "remove must invalidate the cached cart")
}
