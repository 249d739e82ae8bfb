package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/brickstemple/storefront/pkg/database"
)

const getPricesSQL = `SELECT id, price FROM products WHERE id = ANY($1)`

// ProductRepository implements repository.ProductCatalog using PostgreSQL.
type ProductRepository struct {
	conn
}

// NewProductRepository creates a new PostgreSQL-backed product catalog.
func NewProductRepository(pool database.TxBeginner) *ProductRepository {
	return &ProductRepository{conn: poolConn(pool)}
}

func newTxProductRepository(tx pgx.Tx) *ProductRepository {
	return &ProductRepository{conn: txConn(tx)}
}

// GetPrices returns the current price of every product in ids that exists.
func (r *ProductRepository) GetPrices(ctx context.Context, ids []int64) (prices map[int64]decimal.Decimal, err error) {
	prices = make(map[int64]decimal.Decimal, len(ids))
	if len(ids) == 0 {
		return prices, nil
	}

	ctx, end := database.TraceQuery(ctx, "GetPrices", getPricesSQL)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, getPricesSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("query product prices: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id    int64
			price decimal.Decimal
		)
		if err := rows.Scan(&id, &price); err != nil {
			return nil, fmt.Errorf("scan product price: %w", err)
		}
		prices[id] = price
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product prices: %w", err)
	}

	return prices, nil
}
