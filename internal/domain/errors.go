package domain

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	apperrors "github.com/brickstemple/storefront/pkg/errors"
)

// Error codes returned by checkout and order operations.
const (
	CodeEmptyOrder        = "EMPTY_ORDER"
	CodeProductNotFound   = "PRODUCT_NOT_FOUND"
	CodePriceMismatch     = "PRICE_MISMATCH"
	CodeWishlistNotFound  = "WISHLIST_NOT_FOUND"
	CodeWishlistEmpty     = "WISHLIST_EMPTY"
	CodeInvalidStatus     = "INVALID_STATUS"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeStatusConflict    = "STATUS_CONFLICT"
)

// ErrEmptyOrder is returned when an order is submitted without items.
func ErrEmptyOrder() *apperrors.AppError {
	return apperrors.New(CodeEmptyOrder, http.StatusBadRequest,
		"order must contain at least one item", apperrors.ErrInvalidInput)
}

// ErrProductNotFound reports a product referenced by an order line or
// wishlist that does not exist.
func ErrProductNotFound(productID int64) *apperrors.AppError {
	return apperrors.New(CodeProductNotFound, http.StatusBadRequest,
		fmt.Sprintf("product %d not found", productID), apperrors.ErrInvalidInput)
}

// ErrPriceMismatch reports the server computed total and the total the client
// submitted.
func ErrPriceMismatch(expected, received decimal.Decimal) *apperrors.AppError {
	return apperrors.New(CodePriceMismatch, http.StatusBadRequest,
		fmt.Sprintf("price mismatch: expected %s, received %s", expected.StringFixed(2), received.StringFixed(2)),
		apperrors.ErrInvalidInput)
}

// ErrWishlistNotFound is returned on checkout when the user never created a
// wishlist.
func ErrWishlistNotFound() *apperrors.AppError {
	return apperrors.New(CodeWishlistNotFound, http.StatusBadRequest,
		"wishlist not found", apperrors.ErrInvalidInput)
}

// ErrWishlistEmpty is returned on checkout of a wishlist without items.
func ErrWishlistEmpty() *apperrors.AppError {
	return apperrors.New(CodeWishlistEmpty, http.StatusBadRequest,
		"wishlist is empty", apperrors.ErrInvalidInput)
}

// ErrInvalidStatus reports an unrecognized status string and lists the
// accepted values.
func ErrInvalidStatus(value string) *apperrors.AppError {
	names := make([]string, 0, len(AllowedTransitions))
	for _, s := range ValidStatuses() {
		names = append(names, s.String())
	}
	return apperrors.New(CodeInvalidStatus, http.StatusBadRequest,
		fmt.Sprintf("invalid status %q, must be one of: %s", value, strings.Join(names, ", ")),
		apperrors.ErrInvalidInput)
}

// ErrInvalidTransition is returned when the order cannot move from its
// current status to the requested one.
func ErrInvalidTransition(from, to OrderStatus) *apperrors.AppError {
	return apperrors.New(CodeInvalidTransition, http.StatusBadRequest,
		fmt.Sprintf("cannot transition order from %s to %s", from, to),
		apperrors.ErrInvalidInput)
}

// ErrStatusConflict is returned when another writer changed the order status
// between the read and the update.
func ErrStatusConflict(orderID int64) *apperrors.AppError {
	return apperrors.New(CodeStatusConflict, http.StatusConflict,
		fmt.Sprintf("order %d status was changed concurrently", orderID),
		apperrors.ErrConflict)
}
