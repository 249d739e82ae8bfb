package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/brickstemple/storefront/internal/repository"
	"github.com/brickstemple/storefront/pkg/database"
)

// UnitOfWork implements repository.UnitOfWork on a pgx pool. Every store
// handed to fn runs its statements on the same read committed transaction.
type UnitOfWork struct {
	pool database.TxBeginner
	opts pgx.TxOptions
}

// NewUnitOfWork creates a unit of work over pool.
func NewUnitOfWork(pool database.TxBeginner) *UnitOfWork {
	return &UnitOfWork{
		pool: pool,
		opts: pgx.TxOptions{IsoLevel: pgx.ReadCommitted},
	}
}

// Do runs fn in a transaction, committing on nil and rolling back otherwise.
func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, s repository.Stores) error) error {
	return database.WithTx(ctx, u.pool, u.opts, func(tx pgx.Tx) error {
		return fn(ctx, txStores{tx: tx})
	})
}

type txStores struct {
	tx pgx.Tx
}

func (s txStores) Products() repository.ProductCatalog {
	return newTxProductRepository(s.tx)
}

func (s txStores) Wishlists() repository.WishlistStore {
	return newTxWishlistRepository(s.tx)
}

func (s txStores) Orders() repository.OrderLedger {
	return newTxOrderRepository(s.tx)
}
