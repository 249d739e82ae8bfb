package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/brickstemple/storefront/internal/domain"
	"github.com/brickstemple/storefront/pkg/database"
	apperrors "github.com/brickstemple/storefront/pkg/errors"
)

const (
	getOrCreateWishlistSQL = `
		INSERT INTO wishlists (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING id, user_id, created_at`

	getWishlistByUserSQL  = `SELECT id, user_id, created_at FROM wishlists WHERE user_id = $1`
	lockWishlistByUserSQL = getWishlistByUserSQL + ` FOR UPDATE`

	addOrIncrementSQL = `
		INSERT INTO wishlist_items (wishlist_id, product_id, quantity)
		VALUES ($1, $2, 1)
		ON CONFLICT (wishlist_id, product_id)
		DO UPDATE SET quantity = wishlist_items.quantity + 1
		RETURNING id, wishlist_id, product_id, quantity, added_at`

	getWishlistItemSQL = `
		SELECT wi.id, wi.wishlist_id, wi.product_id, wi.quantity, wi.added_at, w.user_id
		FROM wishlist_items wi
		JOIN wishlists w ON w.id = wi.wishlist_id
		WHERE wi.id = $1`

	listWishlistItemsSQL = `
		SELECT id, wishlist_id, product_id, quantity, added_at
		FROM wishlist_items
		WHERE wishlist_id = $1
		ORDER BY added_at, id`

	lockWishlistItemsSQL = listWishlistItemsSQL + ` FOR UPDATE`

	lockWishlistItemSQL   = `SELECT quantity FROM wishlist_items WHERE id = $1 FOR UPDATE`
	decrementItemSQL      = `UPDATE wishlist_items SET quantity = quantity - 1 WHERE id = $1`
	deleteItemSQL         = `DELETE FROM wishlist_items WHERE id = $1`
	updateItemQuantitySQL = `UPDATE wishlist_items SET quantity = $1 WHERE id = $2`
	clearWishlistSQL      = `DELETE FROM wishlist_items WHERE wishlist_id = $1`
	removeItemsSQL        = `DELETE FROM wishlist_items WHERE wishlist_id = $1 AND id = ANY($2)`
)

// WishlistRepository implements repository.WishlistStore using PostgreSQL.
type WishlistRepository struct {
	conn
}

// NewWishlistRepository creates a new PostgreSQL-backed wishlist store.
func NewWishlistRepository(pool database.TxBeginner) *WishlistRepository {
	return &WishlistRepository{conn: poolConn(pool)}
}

func newTxWishlistRepository(tx pgx.Tx) *WishlistRepository {
	return &WishlistRepository{conn: txConn(tx)}
}

// GetOrCreate returns the user's wishlist, creating it in the same statement
// when absent. The no-op update makes RETURNING yield the existing row.
func (r *WishlistRepository) GetOrCreate(ctx context.Context, userID int64) (w *domain.Wishlist, err error) {
	ctx, end := database.TraceQuery(ctx, "GetOrCreateWishlist", getOrCreateWishlistSQL)
	defer func() { end(err) }()

	w = &domain.Wishlist{}
	if err := r.db.QueryRow(ctx, getOrCreateWishlistSQL, userID).Scan(&w.ID, &w.UserID, &w.CreatedAt); err != nil {
		return nil, fmt.Errorf("get or create wishlist: %w", err)
	}
	return w, nil
}

// GetByUser retrieves the user's wishlist.
func (r *WishlistRepository) GetByUser(ctx context.Context, userID int64) (w *domain.Wishlist, err error) {
	ctx, end := database.TraceQuery(ctx, "GetWishlistByUser", getWishlistByUserSQL)
	defer func() { end(err) }()

	return r.scanWishlist(ctx, getWishlistByUserSQL, userID)
}

// LockByUser retrieves the user's wishlist and holds a row lock on it until
// the surrounding transaction ends. Adding a new product references the
// wishlist row, so it waits for that lock.
func (r *WishlistRepository) LockByUser(ctx context.Context, userID int64) (w *domain.Wishlist, err error) {
	ctx, end := database.TraceQuery(ctx, "LockWishlistByUser", lockWishlistByUserSQL)
	defer func() { end(err) }()

	return r.scanWishlist(ctx, lockWishlistByUserSQL, userID)
}

func (r *WishlistRepository) scanWishlist(ctx context.Context, query string, userID int64) (*domain.Wishlist, error) {
	w := &domain.Wishlist{}
	err := r.db.QueryRow(ctx, query, userID).Scan(&w.ID, &w.UserID, &w.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("wishlist of user %d: %w", userID, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("get wishlist by user: %w", err)
	}
	return w, nil
}

// AddOrIncrement inserts the product with quantity 1 or bumps the quantity
// of the existing row. The unique (wishlist_id, product_id) index makes
// concurrent adds of the same product converge on one row.
func (r *WishlistRepository) AddOrIncrement(ctx context.Context, wishlistID, productID int64) (item *domain.WishlistItem, err error) {
	ctx, end := database.TraceQuery(ctx, "AddOrIncrementWishlistItem", addOrIncrementSQL)
	defer func() { end(err) }()

	item = &domain.WishlistItem{}
	err = r.db.QueryRow(ctx, addOrIncrementSQL, wishlistID, productID).Scan(
		&item.ID,
		&item.WishlistID,
		&item.ProductID,
		&item.Quantity,
		&item.AddedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, domain.ErrProductNotFound(productID)
		}
		return nil, fmt.Errorf("add wishlist item: %w", err)
	}
	return item, nil
}

// GetItem retrieves a wishlist item together with the owning user's id.
func (r *WishlistRepository) GetItem(ctx context.Context, itemID int64) (item *domain.WishlistItem, err error) {
	ctx, end := database.TraceQuery(ctx, "GetWishlistItem", getWishlistItemSQL)
	defer func() { end(err) }()

	item = &domain.WishlistItem{}
	err = r.db.QueryRow(ctx, getWishlistItemSQL, itemID).Scan(
		&item.ID,
		&item.WishlistID,
		&item.ProductID,
		&item.Quantity,
		&item.AddedAt,
		&item.OwnerID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("wishlist item", itemID)
		}
		return nil, fmt.Errorf("get wishlist item: %w", err)
	}
	return item, nil
}

// ListItems returns all items of a wishlist, oldest first.
func (r *WishlistRepository) ListItems(ctx context.Context, wishlistID int64) (items []domain.WishlistItem, err error) {
	ctx, end := database.TraceQuery(ctx, "ListWishlistItems", listWishlistItemsSQL)
	defer func() { end(err) }()

	return r.queryItems(ctx, listWishlistItemsSQL, wishlistID)
}

// LockItems returns all items of a wishlist, oldest first, holding row locks
// on them until the surrounding transaction ends.
func (r *WishlistRepository) LockItems(ctx context.Context, wishlistID int64) (items []domain.WishlistItem, err error) {
	ctx, end := database.TraceQuery(ctx, "LockWishlistItems", lockWishlistItemsSQL)
	defer func() { end(err) }()

	return r.queryItems(ctx, lockWishlistItemsSQL, wishlistID)
}

func (r *WishlistRepository) queryItems(ctx context.Context, query string, wishlistID int64) ([]domain.WishlistItem, error) {
	rows, err := r.db.Query(ctx, query, wishlistID)
	if err != nil {
		return nil, fmt.Errorf("list wishlist items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.WishlistItem, 0)
	for rows.Next() {
		var item domain.WishlistItem
		if err := rows.Scan(
			&item.ID,
			&item.WishlistID,
			&item.ProductID,
			&item.Quantity,
			&item.AddedAt,
		); err != nil {
			return nil, fmt.Errorf("scan wishlist item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wishlist item rows: %w", err)
	}

	return items, nil
}

// DecrementOrDelete locks the item row, then either lowers its quantity or
// deletes it when the quantity is 1.
func (r *WishlistRepository) DecrementOrDelete(ctx context.Context, itemID int64) (found bool, err error) {
	ctx, end := database.TraceQuery(ctx, "DecrementOrDeleteWishlistItem", lockWishlistItemSQL)
	defer func() { end(err) }()

	err = r.inTx(ctx, func(db database.DBTX) error {
		var quantity int
		if err := db.QueryRow(ctx, lockWishlistItemSQL, itemID).Scan(&quantity); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return fmt.Errorf("lock wishlist item: %w", err)
		}
		found = true

		stmt := decrementItemSQL
		if quantity <= 1 {
			stmt = deleteItemSQL
		}
		if _, err := db.Exec(ctx, stmt, itemID); err != nil {
			return fmt.Errorf("decrement wishlist item: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// UpdateQuantity sets the quantity of an item.
func (r *WishlistRepository) UpdateQuantity(ctx context.Context, itemID int64, quantity int) (err error) {
	if quantity <= 0 {
		return apperrors.InvalidInput("quantity must be greater than 0")
	}

	ctx, end := database.TraceQuery(ctx, "UpdateWishlistItemQuantity", updateItemQuantitySQL)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, updateItemQuantitySQL, quantity, itemID)
	if err != nil {
		return fmt.Errorf("update wishlist item quantity: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("wishlist item", itemID)
	}
	return nil
}

// Clear deletes every item of the wishlist.
func (r *WishlistRepository) Clear(ctx context.Context, wishlistID int64) (err error) {
	ctx, end := database.TraceQuery(ctx, "ClearWishlist", clearWishlistSQL)
	defer func() { end(err) }()

	if _, err := r.db.Exec(ctx, clearWishlistSQL, wishlistID); err != nil {
		return fmt.Errorf("clear wishlist: %w", err)
	}
	return nil
}

// RemoveItems deletes the given items of the wishlist. Items added after
// the ids were read are left in place.
func (r *WishlistRepository) RemoveItems(ctx context.Context, wishlistID int64, itemIDs []int64) (err error) {
	if len(itemIDs) == 0 {
		return nil
	}

	ctx, end := database.TraceQuery(ctx, "RemoveWishlistItems", removeItemsSQL)
	defer func() { end(err) }()

	if _, err := r.db.Exec(ctx, removeItemsSQL, wishlistID, itemIDs); err != nil {
		return fmt.Errorf("remove wishlist items: %w", err)
	}
	return nil
}
