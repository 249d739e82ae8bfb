package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/brickstemple/storefront/internal/authz"
	"github.com/brickstemple/storefront/internal/domain"
	"github.com/brickstemple/storefront/internal/repository"
	apperrors "github.com/brickstemple/storefront/pkg/errors"
)

// WishlistService implements the wishlist operations of the authenticated
// user.
type WishlistService struct {
	store  repository.WishlistStore
	logger *slog.Logger
}

// NewWishlistService creates a new wishlist service.
func NewWishlistService(store repository.WishlistStore, logger *slog.Logger) *WishlistService {
	return &WishlistService{
		store:  store,
		logger: logger,
	}
}

// Get returns the user's wishlist with its items. A user without a wishlist
// gets a nil Wishlist and no items.
func (s *WishlistService) Get(ctx context.Context, p domain.Principal) (*domain.WishlistView, error) {
	wl, err := s.store.GetByUser(ctx, p.ID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return &domain.WishlistView{Items: []domain.WishlistItem{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get wishlist: %w", err)
	}

	items, err := s.store.ListItems(ctx, wl.ID)
	if err != nil {
		return nil, fmt.Errorf("list wishlist items: %w", err)
	}
	if items == nil {
		items = []domain.WishlistItem{}
	}
	return &domain.WishlistView{Wishlist: wl, Items: items}, nil
}

// Add puts one unit of productID in the user's wishlist, creating the
// wishlist on first use.
func (s *WishlistService) Add(ctx context.Context, p domain.Principal, productID int64) (*domain.WishlistItem, error) {
	if productID <= 0 {
		return nil, apperrors.InvalidInput("productId must be a positive integer")
	}

	wl, err := s.store.GetOrCreate(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("get or create wishlist: %w", err)
	}

	item, err := s.store.AddOrIncrement(ctx, wl.ID, productID)
	if err != nil {
		return nil, fmt.Errorf("add wishlist item: %w", err)
	}

	s.logger.InfoContext(ctx, "wishlist item added",
		slog.Int64("wishlist_id", wl.ID),
		slog.Int64("product_id", productID),
		slog.Int("quantity", item.Quantity),
	)
	return item, nil
}

// Remove takes one unit of an item away, deleting the item at zero.
func (s *WishlistService) Remove(ctx context.Context, p domain.Principal, itemID int64) error {
	if _, err := s.ownedItem(ctx, p, itemID); err != nil {
		return err
	}

	found, err := s.store.DecrementOrDelete(ctx, itemID)
	if err != nil {
		return fmt.Errorf("remove wishlist item: %w", err)
	}
	if !found {
		// Deleted concurrently between the ownership check and the decrement.
		return apperrors.NotFound("wishlist item", itemID)
	}
	return nil
}

// UpdateQuantity sets the quantity of an item owned by the user.
func (s *WishlistService) UpdateQuantity(ctx context.Context, p domain.Principal, itemID int64, quantity int) error {
	if quantity <= 0 || quantity > domain.MaxQuantity {
		return apperrors.InvalidInput(fmt.Sprintf("quantity must be between 1 and %d", domain.MaxQuantity))
	}
	if _, err := s.ownedItem(ctx, p, itemID); err != nil {
		return err
	}

	if err := s.store.UpdateQuantity(ctx, itemID, quantity); err != nil {
		return fmt.Errorf("update wishlist item quantity: %w", err)
	}
	return nil
}

// Clear empties the user's wishlist. It succeeds when there is nothing to
// clear.
func (s *WishlistService) Clear(ctx context.Context, p domain.Principal) error {
	wl, err := s.store.GetByUser(ctx, p.ID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("get wishlist: %w", err)
	}

	if err := s.store.Clear(ctx, wl.ID); err != nil {
		return fmt.Errorf("clear wishlist: %w", err)
	}
	return nil
}

func (s *WishlistService) ownedItem(ctx context.Context, p domain.Principal, itemID int64) (*domain.WishlistItem, error) {
	item, err := s.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("get wishlist item: %w", err)
	}
	if err := authz.ModifyWishlistItem(p, item); err != nil {
		return nil, err
	}
	return item, nil
}
