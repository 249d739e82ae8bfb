// Package authz holds the ownership and role rules applied after a resource
// has been loaded. Callers check existence first, so a missing resource is
// reported as not found before any of these rules run.
package authz

import (
	apperrors "github.com/brickstemple/storefront/pkg/errors"

	"github.com/brickstemple/storefront/internal/domain"
)

// ReadOrder allows admins to read any order and customers only their own.
func ReadOrder(p domain.Principal, o *domain.Order) error {
	if p.IsAdmin() || o.OwnedBy(p.ID) {
		return nil
	}
	return apperrors.Forbidden("you do not have access to this order")
}

// ModifyWishlistItem allows only the owner of the wishlist to change one of
// its items.
func ModifyWishlistItem(p domain.Principal, item *domain.WishlistItem) error {
	if item.OwnerID == p.ID {
		return nil
	}
	return apperrors.Forbidden("you do not have access to this wishlist item")
}

// ChangeOrderStatus allows only admins to move orders between statuses.
func ChangeOrderStatus(p domain.Principal) error {
	if p.IsAdmin() {
		return nil
	}
	return apperrors.Forbidden("only admins can change order status")
}

// Transition validates moving o to the raw status value. It returns the
// parsed target status.
func Transition(o *domain.Order, raw string) (domain.OrderStatus, error) {
	next, err := domain.ParseOrderStatus(raw)
	if err != nil {
		return "", err
	}
	if !o.CanTransitionTo(next) {
		return "", domain.ErrInvalidTransition(o.Status, next)
	}
	return next, nil
}
