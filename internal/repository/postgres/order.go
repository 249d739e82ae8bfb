package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/brickstemple/storefront/internal/domain"
	"github.com/brickstemple/storefront/internal/repository"
	"github.com/brickstemple/storefront/pkg/database"
	apperrors "github.com/brickstemple/storefront/pkg/errors"
	"github.com/brickstemple/storefront/pkg/pagination"
)

const (
	insertOrderSQL = `
		INSERT INTO orders (user_id, status, total_price)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	insertOrderItemSQL = `
		INSERT INTO order_items (order_id, product_id, quantity, price_at_purchase)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	// Order and items in one round trip; items are aggregated as JSON whose
	// keys match domain.OrderItem.
	getOrderSQL = `
		SELECT
			o.id, o.user_id, o.status, o.total_price, o.created_at,
			COALESCE(
				JSONB_AGG(
					JSONB_BUILD_OBJECT(
						'id', oi.id,
						'orderId', oi.order_id,
						'productId', oi.product_id,
						'quantity', oi.quantity,
						'priceAtPurchase', oi.price_at_purchase
					) ORDER BY oi.id
				) FILTER (WHERE oi.id IS NOT NULL),
				'[]'::jsonb
			) AS items
		FROM orders o
		LEFT JOIN order_items oi ON o.id = oi.order_id
		WHERE o.id = $1
		GROUP BY o.id, o.user_id, o.status, o.total_price, o.created_at`

	listOrderItemsSQL = `
		SELECT id, order_id, product_id, quantity, price_at_purchase
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY id`

	updateOrderStatusSQL = `
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3`
)

// OrderRepository implements repository.OrderLedger using PostgreSQL.
type OrderRepository struct {
	conn
}

// NewOrderRepository creates a new PostgreSQL-backed order ledger.
func NewOrderRepository(pool database.TxBeginner) *OrderRepository {
	return &OrderRepository{conn: poolConn(pool)}
}

func newTxOrderRepository(tx pgx.Tx) *OrderRepository {
	return &OrderRepository{conn: txConn(tx)}
}

// Create inserts the order row followed by one row per item. IDs, OrderID
// and CreatedAt are written back into o.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) (err error) {
	ctx, end := database.TraceQuery(ctx, "CreateOrder", insertOrderSQL)
	defer func() { end(err) }()

	return r.inTx(ctx, func(db database.DBTX) error {
		if err := db.QueryRow(ctx, insertOrderSQL, o.UserID, string(o.Status), o.TotalPrice).
			Scan(&o.ID, &o.CreatedAt); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		for i := range o.Items {
			item := &o.Items[i]
			item.OrderID = o.ID
			if err := db.QueryRow(ctx, insertOrderItemSQL,
				item.OrderID,
				item.ProductID,
				item.Quantity,
				item.PriceAtPurchase,
			).Scan(&item.ID); err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
		}
		return nil
	})
}

// GetByID retrieves an order by its ID, eagerly loading its items.
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (o *domain.Order, err error) {
	ctx, end := database.TraceQuery(ctx, "GetOrder", getOrderSQL)
	defer func() { end(err) }()

	var (
		order     domain.Order
		status    string
		itemsJSON []byte
	)
	err = r.db.QueryRow(ctx, getOrderSQL, id).Scan(
		&order.ID,
		&order.UserID,
		&status,
		&order.TotalPrice,
		&order.CreatedAt,
		&itemsJSON,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("order", id)
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}
	order.Status = domain.OrderStatus(status)

	order.Items = []domain.OrderItem{}
	if len(itemsJSON) > 0 && string(itemsJSON) != "null" {
		if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
			return nil, fmt.Errorf("unmarshal order items: %w", err)
		}
	}

	return &order, nil
}

// List returns orders matching the filter, newest first, with the total
// count computed in the same query.
func (r *OrderRepository) List(ctx context.Context, filter repository.OrderFilter) (orders []domain.Order, total int, err error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", argIndex))
		args = append(args, *filter.UserID)
		argIndex++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, string(*filter.Status))
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT id, user_id, status, total_price, created_at,
			   count(*) OVER() AS total_count
		FROM orders
		%s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d`,
		whereClause, argIndex, argIndex+1,
	)

	params := pagination.Params{Page: filter.Page, PerPage: filter.PerPage}
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PerPage <= 0 {
		params.PerPage = pagination.DefaultPerPage
	}
	args = append(args, params.PerPage, params.Offset())

	ctx, end := database.TraceQuery(ctx, "ListOrders", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders = make([]domain.Order, 0)
	for rows.Next() {
		var (
			o      domain.Order
			status string
		)
		if err := rows.Scan(&o.ID, &o.UserID, &status, &o.TotalPrice, &o.CreatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan order row: %w", err)
		}
		o.Status = domain.OrderStatus(status)
		o.Items = []domain.OrderItem{}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate order rows: %w", err)
	}

	if len(orders) == 0 {
		return orders, total, nil
	}

	if err := r.attachItems(ctx, orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// attachItems batch-loads the items of every order in one query.
func (r *OrderRepository) attachItems(ctx context.Context, orders []domain.Order) error {
	ids := make([]int64, len(orders))
	index := make(map[int64]int, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		index[orders[i].ID] = i
	}

	rows, err := r.db.Query(ctx, listOrderItemsSQL, ids)
	if err != nil {
		return fmt.Errorf("batch load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Quantity,
			&item.PriceAtPurchase,
		); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		if i, ok := index[item.OrderID]; ok {
			orders[i].Items = append(orders[i].Items, item)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate batch order item rows: %w", err)
	}
	return nil
}

// UpdateStatus moves the order from one status to another. The status
// predicate turns a concurrent change into a conflict instead of a lost
// update.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id int64, from, to domain.OrderStatus) (err error) {
	ctx, end := database.TraceQuery(ctx, "UpdateOrderStatus", updateOrderStatusSQL)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, updateOrderStatusSQL, string(to), id, string(from))
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrStatusConflict(id)
	}
	return nil
}
