package event

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/brickstemple/storefront/internal/domain"
	pkgkafka "github.com/brickstemple/storefront/pkg/kafka"
	"github.com/brickstemple/storefront/pkg/logger"
)

// Kafka topics for order events.
var (
	TopicOrderCreated       = pkgkafka.Topic(AggregateTypeOrder, "created")
	TopicOrderStatusChanged = pkgkafka.Topic(AggregateTypeOrder, "status_changed")
)

// AggregateTypeOrder is the aggregate type of every order event.
const AggregateTypeOrder = "order"

// SourceStorefront identifies this service as the event source.
const SourceStorefront = "storefront-api"

// Order sources recorded on order.created.
const (
	SourceDirect   = "direct"
	SourceWishlist = "wishlist"
)

// OrderCreatedData is the payload for an order.created event (full order snapshot).
// Amounts are decimal strings so consumers never see float rounding.
type OrderCreatedData struct {
	ID         int64           `json:"id"`
	UserID     int64           `json:"userId"`
	Status     string          `json:"status"`
	TotalPrice string          `json:"totalPrice"`
	Source     string          `json:"source"`
	Items      []OrderItemData `json:"items"`
}

// OrderItemData is the event payload for an order item.
type OrderItemData struct {
	ID              int64  `json:"id"`
	ProductID       int64  `json:"productId"`
	Quantity        int    `json:"quantity"`
	PriceAtPurchase string `json:"priceAtPurchase"`
}

// OrderStatusChangedData is the payload for an order.status_changed event.
type OrderStatusChangedData struct {
	OrderID   int64  `json:"orderId"`
	OldStatus string `json:"oldStatus"`
	NewStatus string `json:"newStatus"`
}

// Publisher sends an event envelope to a topic. *pkgkafka.Producer
// implements it.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes order domain events.
type Producer struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(publisher Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		publisher: publisher,
		logger:    logger,
	}
}

// NewOrderCreatedData builds the order.created snapshot.
func NewOrderCreatedData(order *domain.Order, source string) OrderCreatedData {
	items := make([]OrderItemData, len(order.Items))
	for i, item := range order.Items {
		items[i] = OrderItemData{
			ID:              item.ID,
			ProductID:       item.ProductID,
			Quantity:        item.Quantity,
			PriceAtPurchase: item.PriceAtPurchase.StringFixed(2),
		}
	}

	return OrderCreatedData{
		ID:         order.ID,
		UserID:     order.UserID,
		Status:     order.Status.String(),
		TotalPrice: order.TotalPrice.StringFixed(2),
		Source:     source,
		Items:      items,
	}
}

// PublishOrderCreated publishes an order.created event.
func (p *Producer) PublishOrderCreated(ctx context.Context, order *domain.Order, source string) error {
	data := NewOrderCreatedData(order, source)
	if err := p.publish(ctx, TopicOrderCreated, order.ID, data); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published order.created event",
		slog.Int64("order_id", order.ID),
		slog.String("source", source),
	)
	return nil
}

// PublishOrderStatusChanged publishes an order.status_changed event.
func (p *Producer) PublishOrderStatusChanged(ctx context.Context, orderID int64, oldStatus, newStatus domain.OrderStatus) error {
	data := OrderStatusChangedData{
		OrderID:   orderID,
		OldStatus: oldStatus.String(),
		NewStatus: newStatus.String(),
	}
	if err := p.publish(ctx, TopicOrderStatusChanged, orderID, data); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published order.status_changed event",
		slog.Int64("order_id", orderID),
		slog.String("old_status", data.OldStatus),
		slog.String("new_status", data.NewStatus),
	)
	return nil
}

func (p *Producer) publish(ctx context.Context, topic string, orderID int64, data any) error {
	evt, err := pkgkafka.NewEvent(topic, strconv.FormatInt(orderID, 10), AggregateTypeOrder, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		evt.WithCorrelationID(id)
	}

	if err := p.publisher.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}
	return nil
}
