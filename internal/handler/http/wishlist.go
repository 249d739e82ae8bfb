package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/brickstemple/storefront/internal/service"
	"github.com/brickstemple/storefront/pkg/httputil"
)

// WishlistHandler handles HTTP requests for the caller's wishlist.
type WishlistHandler struct {
	wishlists *service.WishlistService
	checkout  *service.CheckoutService
	logger    *slog.Logger
}

// NewWishlistHandler creates a new wishlist HTTP handler.
func NewWishlistHandler(wishlists *service.WishlistService, checkout *service.CheckoutService, logger *slog.Logger) *WishlistHandler {
	return &WishlistHandler{
		wishlists: wishlists,
		checkout:  checkout,
		logger:    logger,
	}
}

// --- Request DTOs ---

// AddItemRequest is the JSON request body for adding a product.
type AddItemRequest struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
}

// UpdateQuantityRequest is the JSON request body for setting an item quantity.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"gte=1,lte=2147483647"`
}

// --- Handlers ---

// Get handles GET /wishlist
func (h *WishlistHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return
	}

	view, err := h.wishlists.Get(r.Context(), p)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, view)
}

// Add handles POST /wishlist/add
func (h *WishlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return
	}

	var req AddItemRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	item, err := h.wishlists.Add(r.Context(), p, req.ProductID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, httputil.Created{Message: "Added to wishlist", ID: item.ID})
}

// Remove handles DELETE /wishlist/remove/{id}
func (h *WishlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := httputil.ParseID(w, "item id", chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.wishlists.Remove(r.Context(), p, id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, httputil.Message{Message: "Quantity decreased or item deleted"})
}

// UpdateQuantity handles PUT /wishlist/item/{id}
func (h *WishlistHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := httputil.ParseID(w, "item id", chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req UpdateQuantityRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	if err := h.wishlists.UpdateQuantity(r.Context(), p, id, req.Quantity); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, httputil.Message{Message: "Quantity updated"})
}

// Clear handles DELETE /wishlist/clear
func (h *WishlistHandler) Clear(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.wishlists.Clear(r.Context(), p); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, httputil.Message{Message: "Wishlist cleared"})
}

// Checkout handles POST /wishlist/checkout
func (h *WishlistHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return
	}

	order, err := h.checkout.CheckoutWishlist(r.Context(), p)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, httputil.Created{Message: "Wishlist converted to order", ID: order.ID})
}
