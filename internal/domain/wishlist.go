package domain

import "time"

// Wishlist is a user's single mutable selection of products.
type Wishlist struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// WishlistItem is a product saved in a wishlist. A wishlist holds at most one
// item per product; adding the same product again increments Quantity.
type WishlistItem struct {
	ID         int64     `json:"id"`
	WishlistID int64     `json:"wishlistId"`
	ProductID  int64     `json:"productId"`
	Quantity   int       `json:"quantity"`
	AddedAt    time.Time `json:"addedAt"`

	// OwnerID is the user id of the owning wishlist, loaded for ownership
	// checks and never serialized.
	OwnerID int64 `json:"-"`
}

// WishlistView is the wishlist together with its items. Wishlist is nil
// when the user never created one.
type WishlistView struct {
	Wishlist *Wishlist     `json:"wishlist"`
	Items    []WishlistItem `json:"items"`
}

// Lines converts wishlist items into order line requests.
func Lines(items []WishlistItem) []LineRequest {
	lines := make([]LineRequest, len(items))
	for i, it := range items {
		lines[i] = LineRequest{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	return lines
}
