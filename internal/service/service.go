package service

import (
	"context"

	"github.com/brickstemple/storefront/internal/domain"
)

// EventPublisher publishes order events after their transaction committed.
// Failures are logged by the caller and never fail the request.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, order *domain.Order, source string) error
	PublishOrderStatusChanged(ctx context.Context, orderID int64, oldStatus, newStatus domain.OrderStatus) error
}
