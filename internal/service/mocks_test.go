package service

import (
	"context"
	"log/slog"
	"os"

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

// --- Mock Publisher ---

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishOrderCreated(ctx context.Context, order *domain.Order, source string) error {
	args := m.Called(ctx, order, source)
	return args.Error(0)
}

func (m *mockPublisher) PublishOrderStatusChanged(ctx context.Context, orderID int64, oldStatus, newStatus domain.OrderStatus) error {
	args := m.Called(ctx, orderID, oldStatus, newStatus)
	return args.Error(0)
}

// --- Fake Unit of Work ---

type fakeStores struct {
	products  *mockProductCatalog
	wishlists *mockWishlistStore
	orders    *mockOrderLedger
}

func (s *fakeStores) Products() repository.ProductCatalog { return s.products }
func (s *fakeStores) Wishlists() repository.WishlistStore { return s.wishlists }
func (s *fakeStores) Orders() repository.OrderLedger      { return s.orders }

// fakeUnitOfWork records whether the transaction committed or rolled back.
type fakeUnitOfWork struct {
	stores     *fakeStores
	calls      int
	committed  bool
	rolledBack bool
}

func newFakeUnitOfWork() *fakeUnitOfWork {
	return &fakeUnitOfWork{stores: &fakeStores{
		products:  new(mockProductCatalog),
		wishlists: new(mockWishlistStore),
		orders:    new(mockOrderLedger),
	}}
}

func (u *fakeUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, s repository.Stores) error) error {
	u.calls++
	if err := fn(ctx, u.stores); err != nil {
		u.rolledBack = true
		return err
	}
	u.committed = true
	return nil
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var (
	customer = domain.Principal{ID: 7, Email: "ann@example.com", Role: domain.RoleCustomer}
	stranger = domain.Principal{ID: 8, Email: "bob@example.com", Role: domain.RoleCustomer}
	admin    = domain.Principal{ID: 1, Email: "root@example.com", Role: domain.RoleAdmin}
)
