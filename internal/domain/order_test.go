package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/brickstemple/storefront/pkg/errors"
)

// ============================================================================
// OrderItem.LineTotal Tests
// ============================================================================

func TestLineTotal_BasicCalculation(t *testing.T) {
	item := OrderItem{PriceAtPurchase: decimal.RequireFromString("19.99"), Quantity: 3}
	assert.True(t, decimal.RequireFromString("59.97").Equal(item.LineTotal()))
}

func TestLineTotal_ZeroQuantity(t *testing.T) {
	item := OrderItem{PriceAtPurchase: decimal.RequireFromString("19.99"), Quantity: 0}
	assert.True(t, item.LineTotal().IsZero())
}

func TestLineTotal_NoFloatDrift(t *testing.T) {
	item := OrderItem{PriceAtPurchase: decimal.RequireFromString("0.10"), Quantity: 3}
	assert.Equal(t, "0.30", item.LineTotal().StringFixed(2))
}

// ============================================================================
// PriceLines Tests
// ============================================================================

func TestPriceLines_FreezesPricesAndSums(t *testing.T) {
	prices := map[int64]decimal.Decimal{
		1: decimal.RequireFromString("50.00"),
		2: decimal.RequireFromString("5.25"),
	}

	items, total, err := PriceLines([]LineRequest{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 1}}, prices)

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.True(t, decimal.RequireFromString("105.25").Equal(total))
	assert.True(t, decimal.RequireFromString("50.00").Equal(items[0].PriceAtPurchase))
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, int64(2), items[1].ProductID)
}

func TestPriceLines_MissingProduct(t *testing.T) {
	prices := map[int64]decimal.Decimal{1: decimal.NewFromInt(10)}

	items, _, err := PriceLines([]LineRequest{{ProductID: 1, Quantity: 1}, {ProductID: 42, Quantity: 1}}, prices)

	assert.Nil(t, items)
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, CodeProductNotFound, appErr.Code)
	assert.Contains(t, appErr.Message, "42")
}

func TestProductIDs_Deduplicates(t *testing.T) {
	ids := ProductIDs([]LineRequest{{ProductID: 3}, {ProductID: 1}, {ProductID: 3}})
	assert.Equal(t, []int64{3, 1}, ids)
}

// ============================================================================
// Order Status Tests
// ============================================================================

func TestParseOrderStatus_CaseInsensitive(t *testing.T) {
	tests := map[string]OrderStatus{
		"PENDING":    OrderStatusPending,
		"confirmed":  OrderStatusConfirmed,
		"Delivered":  OrderStatusDelivered,
		" cancelled": OrderStatusCancelled,
	}
	for in, want := range tests {
		got, err := ParseOrderStatus(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
}

func TestParseOrderStatus_Unknown(t *testing.T) {
	for _, in := range []string{"", "shipped", "canceled"} {
		_, err := ParseOrderStatus(in)

		var appErr *apperrors.AppError
		require.True(t, errors.As(err, &appErr), in)
		assert.Equal(t, CodeInvalidStatus, appErr.Code)
		assert.Contains(t, appErr.Message, "PENDING, CONFIRMED, DELIVERED, CANCELLED")
	}
}

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderStatusPending, OrderStatusConfirmed, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusConfirmed, OrderStatusDelivered, true},
		{OrderStatusConfirmed, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusDelivered, false},
		{OrderStatusPending, OrderStatusPending, false},
		{OrderStatusDelivered, OrderStatusCancelled, false},
		{OrderStatusCancelled, OrderStatusPending, false},
		{OrderStatusConfirmed, OrderStatusPending, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			o := Order{Status: tt.from}
			assert.Equal(t, tt.want, o.CanTransitionTo(tt.to))
		})
	}
}

func TestOrderStatus_JSONRoundTripUppercase(t *testing.T) {
	b, err := json.Marshal(Order{ID: 7, Status: OrderStatusConfirmed, TotalPrice: decimal.RequireFromString("15.00")})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"status":"CONFIRMED"`)
	assert.Contains(t, string(b), `"totalPrice":"15"`)

	var o Order
	require.NoError(t, json.Unmarshal(b, &o))
	assert.Equal(t, OrderStatusConfirmed, o.Status)
}

func TestPrincipal_IsAdmin(t *testing.T) {
	assert.True(t, Principal{Role: "ADMIN"}.IsAdmin())
	assert.True(t, Principal{Role: RoleAdmin}.IsAdmin())
	assert.False(t, Principal{Role: RoleCustomer}.IsAdmin())
	assert.False(t, Principal{}.IsAdmin())
}
