package http

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/brickstemple/storefront/internal/domain"
	"github.com/brickstemple/storefront/internal/repository"
)

// --- Mock Stores ---

type mockProductCatalog struct {
	mock.Mock
}

func (m *mockProductCatalog) GetPrices(ctx context.Context, ids []int64) (map[int64]decimal.Decimal, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]decimal.Decimal), args.Error(1)
}

type mockWishlistStore struct {
	mock.Mock
}

func (m *mockWishlistStore) GetOrCreate(ctx context.Context, userID int64) (*domain.Wishlist, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wishlist), args.Error(1)
}

func (m *mockWishlistStore) GetByUser(ctx context.Context, userID int64) (*domain.Wishlist, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wishlist), args.Error(1)
}

func (m *mockWishlistStore) LockByUser(ctx context.Context, userID int64) (*domain.Wishlist, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wishlist), args.Error(1)
}

func (m *mockWishlistStore) AddOrIncrement(ctx context.Context, wishlistID, productID int64) (*domain.WishlistItem, error) {
	args := m.Called(ctx, wishlistID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WishlistItem), args.Error(1)
}

func (m *mockWishlistStore) GetItem(ctx context.Context, itemID int64) (*domain.WishlistItem, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WishlistItem), args.Error(1)
}

func (m *mockWishlistStore) ListItems(ctx context.Context, wishlistID int64) ([]domain.WishlistItem, error) {
	args := m.Called(ctx, wishlistID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.WishlistItem), args.Error(1)
}

func (m *mockWishlistStore) LockItems(ctx context.Context, wishlistID int64) ([]domain.WishlistItem, error) {
	args := m.Called(ctx, wishlistID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.WishlistItem), args.Error(1)
}

func (m *mockWishlistStore) DecrementOrDelete(ctx context.Context, itemID int64) (bool, error) {
	args := m.Called(ctx, itemID)
	return args.Bool(0), args.Error(1)
}

func (m *mockWishlistStore) UpdateQuantity(ctx context.Context, itemID int64, quantity int) error {
	args := m.Called(ctx, itemID, quantity)
	return args.Error(0)
}

func (m *mockWishlistStore) Clear(ctx context.Context, wishlistID int64) error {
	args := m.Called(ctx, wishlistID)
	return args.Error(0)
}

func (m *mockWishlistStore) RemoveItems(ctx context.Context, wishlistID int64, itemIDs []int64) error {
	args := m.Called(ctx, wishlistID, itemIDs)
	return args.Error(0)
}

type mockOrderLedger struct {
	mock.Mock
}

func (m *mockOrderLedger) Create(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockOrderLedger) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderLedger) List(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Order), args.Int(1), args.Error(2)
}

func (m *mockOrderLedger) UpdateStatus(ctx context.Context, id int64, from, to domain.OrderStatus) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}

// --- Unit of work and publisher ---

type testStores struct {
	products  *mockProductCatalog
	wishlists *mockWishlistStore
	orders    *mockOrderLedger
}

func (s *testStores) Products() repository.ProductCatalog { return s.products }
func (s *testStores) Wishlists() repository.WishlistStore { return s.wishlists }
func (s *testStores) Orders() repository.OrderLedger      { return s.orders }

// testUnitOfWork hands out the same mocks the non-transactional services use.
type testUnitOfWork struct {
	stores *testStores
}

func (u *testUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, s repository.Stores) error) error {
	return fn(ctx, u.stores)
}

type nopPublisher struct{}

func (nopPublisher) PublishOrderCreated(context.Context, *domain.Order, string) error { return nil }

func (nopPublisher) PublishOrderStatusChanged(context.Context, int64, domain.OrderStatus, domain.OrderStatus) error {
	return nil
}
