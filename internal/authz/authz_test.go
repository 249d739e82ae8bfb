package authz

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/brickstemple/storefront/pkg/errors"

	"github.com/brickstemple/storefront/internal/domain"
)

var (
	customer = domain.Principal{ID: 7, Email: "ann@example.com", Role: domain.RoleCustomer}
	stranger = domain.Principal{ID: 8, Email: "bob@example.com", Role: domain.RoleCustomer}
	admin    = domain.Principal{ID: 1, Email: "root@example.com", Role: "ADMIN"}
)

func assertForbidden(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))
	assert.Equal(t, http.StatusForbidden, apperrors.HTTPStatus(err))
}

func TestReadOrder(t *testing.T) {
	order := &domain.Order{ID: 3, UserID: customer.ID, Status: domain.OrderStatusPending}

	assert.NoError(t, ReadOrder(customer, order))
	assert.NoError(t, ReadOrder(admin, order))
	assertForbidden(t, ReadOrder(stranger, order))
}

func TestModifyWishlistItem(t *testing.T) {
	item := &domain.WishlistItem{ID: 4, WishlistID: 2, ProductID: 9, Quantity: 1, OwnerID: customer.ID}

	assert.NoError(t, ModifyWishlistItem(customer, item))
	assertForbidden(t, ModifyWishlistItem(stranger, item))
	assertForbidden(t, ModifyWishlistItem(admin, item))
}

func TestChangeOrderStatus(t *testing.T) {
	assert.NoError(t, ChangeOrderStatus(admin))
	assertForbidden(t, ChangeOrderStatus(customer))
}

func TestTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    domain.OrderStatus
		raw     string
		want    domain.OrderStatus
		errCode string
	}{
		{name: "pending to confirmed", from: domain.OrderStatusPending, raw: "CONFIRMED", want: domain.OrderStatusConfirmed},
		{name: "lowercase accepted", from: domain.OrderStatusPending, raw: "cancelled", want: domain.OrderStatusCancelled},
		{name: "confirmed to delivered", from: domain.OrderStatusConfirmed, raw: "Delivered", want: domain.OrderStatusDelivered},
		{name: "unknown value", from: domain.OrderStatusPending, raw: "SHIPPED", errCode: domain.CodeInvalidStatus},
		{name: "skip confirmation", from: domain.OrderStatusPending, raw: "DELIVERED", errCode: domain.CodeInvalidTransition},
		{name: "delivered is final", from: domain.OrderStatusDelivered, raw: "CANCELLED", errCode: domain.CodeInvalidTransition},
		{name: "same status", from: domain.OrderStatusConfirmed, raw: "CONFIRMED", errCode: domain.CodeInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Transition(&domain.Order{ID: 1, Status: tt.from}, tt.raw)
			if tt.errCode == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
				return
			}

			var appErr *apperrors.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tt.errCode, appErr.Code)
			assert.Equal(t, http.StatusBadRequest, appErr.Status)
		})
	}
}
