package domain

import (
	"math"

	"github.com/shopspring/decimal"
)

// MaxQuantity is the largest quantity an order line or wishlist item can
// hold.
const MaxQuantity = math.MaxInt32

// OrderItem is one line of an order. PriceAtPurchase is the product price
// captured when the order was created and is never recomputed.
type OrderItem struct {
	ID              int64           `json:"id"`
	OrderID         int64           `json:"orderId"`
	ProductID       int64           `json:"productId"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"priceAtPurchase"`
}

// LineTotal returns PriceAtPurchase multiplied by Quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.PriceAtPurchase.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// LineRequest is a requested product and quantity, before prices are known.
type LineRequest struct {
	ProductID int64
	Quantity  int
}

// PriceLines freezes prices onto lines and returns the items with their
// summed total. Lines whose product is missing from prices are reported by
// the first missing product id.
func PriceLines(lines []LineRequest, prices map[int64]decimal.Decimal) ([]OrderItem, decimal.Decimal, error) {
	items := make([]OrderItem, 0, len(lines))
	total := decimal.Zero
	for _, l := range lines {
		price, ok := prices[l.ProductID]
		if !ok {
			return nil, decimal.Zero, ErrProductNotFound(l.ProductID)
		}
		item := OrderItem{
			ProductID:       l.ProductID,
			Quantity:        l.Quantity,
			PriceAtPurchase: price,
		}
		total = total.Add(item.LineTotal())
		items = append(items, item)
	}
	return items, total, nil
}

// ProductIDs returns the distinct product ids referenced by lines, in first
// seen order.
func ProductIDs(lines []LineRequest) []int64 {
	seen := make(map[int64]struct{}, len(lines))
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.ProductID]; ok {
			continue
		}
		seen[l.ProductID] = struct{}{}
		ids = append(ids, l.ProductID)
	}
	return ids
}
