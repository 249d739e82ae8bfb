package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/brickstemple/storefront/internal/authz"
	"github.com/brickstemple/storefront/internal/domain"
	"github.com/brickstemple/storefront/internal/repository"
	"github.com/brickstemple/storefront/pkg/pagination"
)

// OrderService implements order reads and status transitions.
type OrderService struct {
	ledger    repository.OrderLedger
	publisher EventPublisher
	logger    *slog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(ledger repository.OrderLedger, publisher EventPublisher, logger *slog.Logger) *OrderService {
	return &OrderService{
		ledger:    ledger,
		publisher: publisher,
		logger:    logger,
	}
}

// Get returns an order with its items if p may read it.
func (s *OrderService) Get(ctx context.Context, p domain.Principal, id int64) (*domain.Order, error) {
	order, err := s.ledger.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order by id: %w", err)
	}
	if err := authz.ReadOrder(p, order); err != nil {
		return nil, err
	}
	return order, nil
}

// ListAll returns every order, optionally filtered by status.
func (s *OrderService) ListAll(ctx context.Context, status *domain.OrderStatus, params pagination.Params) (pagination.Result[domain.Order], error) {
	return s.list(ctx, repository.OrderFilter{Status: status}, params)
}

// ListMine returns the orders placed by p.
func (s *OrderService) ListMine(ctx context.Context, p domain.Principal, params pagination.Params) (pagination.Result[domain.Order], error) {
	return s.list(ctx, repository.OrderFilter{UserID: &p.ID}, params)
}

func (s *OrderService) list(ctx context.Context, filter repository.OrderFilter, params pagination.Params) (pagination.Result[domain.Order], error) {
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.PerPage <= 0 {
		params.PerPage = pagination.DefaultPerPage
	}
	if params.PerPage > pagination.MaxPerPage {
		params.PerPage = pagination.MaxPerPage
	}
	filter.Page = params.Page
	filter.PerPage = params.PerPage

	orders, total, err := s.ledger.List(ctx, filter)
	if err != nil {
		return pagination.Result[domain.Order]{}, fmt.Errorf("list orders: %w", err)
	}
	return pagination.NewResult(orders, total, params), nil
}

// UpdateStatus moves an order to the status named by raw. The order must
// exist, p must be an admin and the transition must be allowed, checked in
// that order.
func (s *OrderService) UpdateStatus(ctx context.Context, p domain.Principal, id int64, raw string) (*domain.Order, error) {
	order, err := s.ledger.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order for status update: %w", err)
	}
	if err := authz.ChangeOrderStatus(p); err != nil {
		return nil, err
	}

	next, err := authz.Transition(order, raw)
	if err != nil {
		return nil, err
	}

	old := order.Status
	if err := s.ledger.UpdateStatus(ctx, id, old, next); err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	order.Status = next

	if err := s.publisher.PublishOrderStatusChanged(ctx, id, old, next); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.status_changed event",
			slog.Int64("order_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order status updated",
		slog.Int64("order_id", id),
		slog.String("old_status", old.String()),
		slog.String("new_status", next.String()),
		slog.Int64("admin_id", p.ID),
	)
	return order, nil
}
