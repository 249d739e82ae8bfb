package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/brickstemple/storefront/internal/domain"
)

// ProductCatalog is the read-only price lookup used by checkout.
type ProductCatalog interface {
	// GetPrices returns the current price of each product in ids that exists.
	// Missing products are absent from the map.
	GetPrices(ctx context.Context, ids []int64) (map[int64]decimal.Decimal, error)
}

// WishlistStore defines persistence for wishlists and their items.
type WishlistStore interface {
	// GetOrCreate returns the user's wishlist, creating it on first use.
	GetOrCreate(ctx context.Context, userID int64) (*domain.Wishlist, error)

	// GetByUser returns the user's wishlist or apperrors.ErrNotFound.
	GetByUser(ctx context.Context, userID int64) (*domain.Wishlist, error)

	// LockByUser is GetByUser holding a row lock until the transaction ends.
	// Within a UnitOfWork it serializes checkouts and new additions.
	LockByUser(ctx context.Context, userID int64) (*domain.Wishlist, error)

	// AddOrIncrement adds productID with quantity 1, or increments the
	// quantity of the existing item for that product.
	AddOrIncrement(ctx context.Context, wishlistID, productID int64) (*domain.WishlistItem, error)

	// GetItem returns an item including the id of the owning user.
	GetItem(ctx context.Context, itemID int64) (*domain.WishlistItem, error)

	// ListItems returns every item of a wishlist, oldest first.
	ListItems(ctx context.Context, wishlistID int64) ([]domain.WishlistItem, error)

	// LockItems is ListItems holding row locks on the returned items until
	// the transaction ends.
	LockItems(ctx context.Context, wishlistID int64) ([]domain.WishlistItem, error)

	// DecrementOrDelete lowers the quantity by one, deleting the item when it
	// reaches zero. It reports false when the item does not exist.
	DecrementOrDelete(ctx context.Context, itemID int64) (bool, error)

	// UpdateQuantity sets an item's quantity, which must be positive.
	UpdateQuantity(ctx context.Context, itemID int64, quantity int) error

	// Clear removes every item of a wishlist. Clearing an empty wishlist is
	// not an error.
	Clear(ctx context.Context, wishlistID int64) error

	// RemoveItems deletes only the listed items of a wishlist.
	RemoveItems(ctx context.Context, wishlistID int64, itemIDs []int64) error
}

// OrderFilter defines filter criteria for listing orders.
type OrderFilter struct {
	UserID  *int64
	Status  *domain.OrderStatus
	Page    int
	PerPage int
}

// OrderLedger is the append-only store of orders and their items.
type OrderLedger interface {
	// Create inserts the order and its items, assigning ids and CreatedAt.
	Create(ctx context.Context, order *domain.Order) error

	// GetByID retrieves an order with its items.
	GetByID(ctx context.Context, id int64) (*domain.Order, error)

	// List returns orders matching the filter, newest first, with the total
	// count ignoring pagination.
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, int, error)

	// UpdateStatus moves the order from one status to another. It fails with
	// a conflict when the stored status is no longer from.
	UpdateStatus(ctx context.Context, id int64, from, to domain.OrderStatus) error
}

// Stores gives access to stores bound to one transaction.
type Stores interface {
	Products() ProductCatalog
	Wishlists() WishlistStore
	Orders() OrderLedger
}

// UnitOfWork runs fn with stores that share a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, s Stores) error) error
}
