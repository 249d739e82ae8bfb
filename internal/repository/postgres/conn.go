package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/brickstemple/storefront/pkg/database"
)

// conn is the query target shared by the repositories. Bound to a pool it
// can open its own transactions; bound to a pgx.Tx every statement joins
// the caller's transaction.
type conn struct {
	db       database.DBTX
	beginner database.TxBeginner
}

func poolConn(pool database.TxBeginner) conn {
	return conn{db: pool, beginner: pool}
}

func txConn(tx pgx.Tx) conn {
	return conn{db: tx}
}

// inTx runs fn atomically: in a new transaction when bound to a pool, or
// directly when already inside one.
func (c conn) inTx(ctx context.Context, fn func(db database.DBTX) error) error {
	if c.beginner == nil {
		return fn(c.db)
	}
	return database.WithTx(ctx, c.beginner, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return fn(tx)
	})
}

const foreignKeyViolation = "23503"

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation
}
