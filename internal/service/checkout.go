package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/brickstemple/storefront/internal/domain"
	"github.com/brickstemple/storefront/internal/event"
	"github.com/brickstemple/storefront/internal/repository"
	apperrors "github.com/brickstemple/storefront/pkg/errors"
)

// CheckoutMetrics counts checkout attempts by source and outcome.
type CheckoutMetrics struct {
	orders *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout counter with reg.
func NewCheckoutMetrics(reg prometheus.Registerer) (*CheckoutMetrics, error) {
	m := &CheckoutMetrics{
		orders: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "checkout_orders_total",
				Help: "Checkout attempts partitioned by order source and outcome",
			},
			[]string{"source", "outcome"},
		),
	}
	if err := reg.Register(m.orders); err != nil {
		return nil, fmt.Errorf("register checkout metrics: %w", err)
	}
	return m, nil
}

func (m *CheckoutMetrics) observe(source string, err error) {
	if m == nil {
		return
	}
	m.orders.WithLabelValues(source, outcome(err)).Inc()
}

// outcome is "created", "rejected" for client errors and "failed" otherwise.
func outcome(err error) string {
	if err == nil {
		return "created"
	}
	if status := apperrors.HTTPStatus(err); status >= 400 && status < 500 {
		return "rejected"
	}
	return "failed"
}

// CreateOrderInput is a client submitted order.
type CreateOrderInput struct {
	Items      []domain.LineRequest
	TotalPrice decimal.Decimal
}

// CheckoutService turns wishlists and submitted item lists into orders.
type CheckoutService struct {
	uow       repository.UnitOfWork
	publisher EventPublisher
	metrics   *CheckoutMetrics
	logger    *slog.Logger
}

// NewCheckoutService creates a new checkout service. metrics may be nil.
func NewCheckoutService(
	uow repository.UnitOfWork,
	publisher EventPublisher,
	metrics *CheckoutMetrics,
	logger *slog.Logger,
) *CheckoutService {
	return &CheckoutService{
		uow:       uow,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

// CreateOrder prices the submitted lines with current catalog prices and
// creates a pending order when the submitted total matches exactly.
func (s *CheckoutService) CreateOrder(ctx context.Context, p domain.Principal, input CreateOrderInput) (order *domain.Order, err error) {
	defer func() { s.metrics.observe(event.SourceDirect, err) }()

	if len(input.Items) == 0 {
		return nil, domain.ErrEmptyOrder()
	}
	for _, line := range input.Items {
		if line.Quantity < 1 || line.Quantity > domain.MaxQuantity {
			return nil, apperrors.InvalidInput(fmt.Sprintf("quantity of product %d must be between 1 and %d", line.ProductID, domain.MaxQuantity))
		}
	}

	err = s.uow.Do(ctx, func(ctx context.Context, st repository.Stores) error {
		items, total, err := priceLines(ctx, st, input.Items)
		if err != nil {
			return err
		}
		if !total.Equal(input.TotalPrice) {
			return domain.ErrPriceMismatch(total, input.TotalPrice)
		}

		order = newPendingOrder(p.ID, input.TotalPrice, items)
		return st.Orders().Create(ctx, order)
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.committed(ctx, order, event.SourceDirect)
	return order, nil
}

// CheckoutWishlist converts the user's wishlist into a pending order priced
// by the server. The wishlist and its items stay locked while the order is
// built, and only the items that went into the order are removed, in the
// same transaction. Items added concurrently wait for the commit and remain
// in the wishlist.
func (s *CheckoutService) CheckoutWishlist(ctx context.Context, p domain.Principal) (order *domain.Order, err error) {
	defer func() { s.metrics.observe(event.SourceWishlist, err) }()

	err = s.uow.Do(ctx, func(ctx context.Context, st repository.Stores) error {
		wl, err := st.Wishlists().LockByUser(ctx, p.ID)
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.ErrWishlistNotFound()
		}
		if err != nil {
			return err
		}

		saved, err := st.Wishlists().LockItems(ctx, wl.ID)
		if err != nil {
			return err
		}
		if len(saved) == 0 {
			return domain.ErrWishlistEmpty()
		}

		items, total, err := priceLines(ctx, st, domain.Lines(saved))
		if err != nil {
			return err
		}

		order = newPendingOrder(p.ID, total, items)
		if err := st.Orders().Create(ctx, order); err != nil {
			return err
		}
		return st.Wishlists().RemoveItems(ctx, wl.ID, itemIDs(saved))
	})
	if err != nil {
		return nil, fmt.Errorf("checkout wishlist: %w", err)
	}

	s.committed(ctx, order, event.SourceWishlist)
	return order, nil
}

func itemIDs(items []domain.WishlistItem) []int64 {
	ids := make([]int64, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return ids
}

func (s *CheckoutService) committed(ctx context.Context, order *domain.Order, source string) {
	if err := s.publisher.PublishOrderCreated(ctx, order, source); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.created event",
			slog.Int64("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order created",
		slog.Int64("order_id", order.ID),
		slog.Int64("user_id", order.UserID),
		slog.String("source", source),
		slog.String("total_price", order.TotalPrice.StringFixed(2)),
		slog.Int("items", len(order.Items)),
	)
}

func priceLines(ctx context.Context, st repository.Stores, lines []domain.LineRequest) ([]domain.OrderItem, decimal.Decimal, error) {
	prices, err := st.Products().GetPrices(ctx, domain.ProductIDs(lines))
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("get product prices: %w", err)
	}
	return domain.PriceLines(lines, prices)
}

func newPendingOrder(userID int64, total decimal.Decimal, items []domain.OrderItem) *domain.Order {
	return &domain.Order{
		UserID:     userID,
		Status:     domain.OrderStatusPending,
		TotalPrice: total,
		Items:      items,
	}
}
