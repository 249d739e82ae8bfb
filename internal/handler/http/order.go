package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/brickstemple/storefront/internal/domain"
	"github.com/brickstemple/storefront/internal/service"
	apperrors "github.com/brickstemple/storefront/pkg/errors"
	"github.com/brickstemple/storefront/pkg/httputil"
	"github.com/brickstemple/storefront/pkg/pagination"
)

// OrderHandler handles HTTP requests for order endpoints.
type OrderHandler struct {
	orders   *service.OrderService
	checkout *service.CheckoutService
	logger   *slog.Logger
}

// NewOrderHandler creates a new order HTTP handler.
func NewOrderHandler(orders *service.OrderService, checkout *service.CheckoutService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		orders:   orders,
		checkout: checkout,
		logger:   logger,
	}
}

// --- Request DTOs ---

// OrderLineRequest is one requested product of a new order.
type OrderLineRequest struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"gte=1,lte=2147483647"`
}

// CreateOrderRequest is the JSON request body for creating an order. An
// empty items list is rejected by checkout with EMPTY_ORDER. TotalPrice
// accepts a JSON number or string.
type CreateOrderRequest struct {
	Items      []OrderLineRequest `json:"items" validate:"dive"`
	TotalPrice *decimal.Decimal   `json:"totalPrice"`
}

// UpdateStatusRequest is the JSON request body for updating order status.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// --- Handlers ---

// CreateOrder handles POST /orders
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return
	}

	var req CreateOrderRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}
	if req.TotalPrice == nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("totalPrice is required"), h.logger)
		return
	}

	lines := make([]domain.LineRequest, len(req.Items))
	for i, item := range req.Items {
		lines[i] = domain.LineRequest{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	order, err := h.checkout.CreateOrder(r.Context(), p, service.CreateOrderInput{
		Items:      lines,
		TotalPrice: *req.TotalPrice,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, httputil.Created{Message: "Order created", ID: order.ID})
}

// ListOrders handles GET /orders (admin)
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	var status *domain.OrderStatus
	if v := r.URL.Query().Get("status"); v != "" {
		parsed, err := domain.ParseOrderStatus(v)
		if err != nil {
			httputil.WriteError(w, r, err, h.logger)
			return
		}
		status = &parsed
	}

	result, err := h.orders.ListAll(r.Context(), status, pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, result)
}

// ListMyOrders handles GET /orders/me
func (h *OrderHandler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return
	}

	result, err := h.orders.ListMine(r.Context(), p, pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, result)
}

// GetOrder handles GET /orders/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := httputil.ParseID(w, "order id", chi.URLParam(r, "id"))
	if !ok {
		return
	}

	order, err := h.orders.Get(r.Context(), p, id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, order)
}

// UpdateOrderStatus handles PUT /orders/{id}/status (admin)
func (h *OrderHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := httputil.ParseID(w, "order id", chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	if _, err := h.orders.UpdateStatus(r.Context(), p, id, req.Status); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, httputil.Message{Message: "Status updated"})
}
