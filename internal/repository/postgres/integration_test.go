//go:build integration

package postgres_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/brickstemple/storefront/internal/domain"
	"github.com/brickstemple/storefront/internal/repository"
	"github.com/brickstemple/storefront/internal/repository/postgres"
	"github.com/brickstemple/storefront/migrations"
	"github.com/brickstemple/storefront/pkg/database"
)

type storeSuite struct {
	suite.Suite

	pool      *pgxpool.Pool
	container *tcpostgres.PostgresContainer
	wishlists *postgres.WishlistRepository
	orders    *postgres.OrderRepository
	uow       *postgres.UnitOfWork
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(storeSuite))
}

func (s *storeSuite) SetupSuite() {
	ctx := s.T().Context()

	container, err := tcpostgres.Run(ctx, "postgres:17.6-alpine3.22", tcpostgres.BasicWaitStrategies())
	s.Require().NoError(err)
	s.container = container

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	s.pool, err = pgxpool.New(ctx, connStr)
	s.Require().NoError(err)

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.Require().NoError(database.RunMigrations(ctx, s.pool, migrations.FS, quiet))

	s.wishlists = postgres.NewWishlistRepository(s.pool)
	s.orders = postgres.NewOrderRepository(s.pool)
	s.uow = postgres.NewUnitOfWork(s.pool)
}

func (s *storeSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if err := testcontainers.TerminateContainer(s.container); err != nil {
		s.T().Logf("terminate postgres container: %v", err)
	}
}

func (s *storeSuite) insertProduct(price decimal.Decimal) int64 {
	var id int64
	err := s.pool.QueryRow(s.T().Context(),
		`INSERT INTO products (name, price) VALUES ($1, $2) RETURNING id`,
		gofakeit.ProductName(), price,
	).Scan(&id)
	s.Require().NoError(err)
	return id
}

func randomPrice() decimal.Decimal {
	return decimal.NewFromFloat(gofakeit.Price(1, 100)).Round(2)
}

func (s *storeSuite) TestGetOrCreate_IsIdempotent() {
	ctx := s.T().Context()
	userID := gofakeit.Int64()

	first, err := s.wishlists.GetOrCreate(ctx, userID)
	s.Require().NoError(err)
	second, err := s.wishlists.GetOrCreate(ctx, userID)
	s.Require().NoError(err)

	s.Equal(first.ID, second.ID)
}

func (s *storeSuite) TestAddOrIncrement_ConcurrentCallsConverge() {
	ctx := s.T().Context()
	w, err := s.wishlists.GetOrCreate(ctx, gofakeit.Int64())
	s.Require().NoError(err)

	p1 := s.insertProduct(randomPrice())
	p2 := s.insertProduct(randomPrice())

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		for _, p := range []int64{p1, p2} {
			wg.Add(1)
			go func(productID int64) {
				defer wg.Done()
				_, err := s.wishlists.AddOrIncrement(ctx, w.ID, productID)
				assert.NoError(s.T(), err)
			}(p)
		}
	}
	wg.Wait()

	items, err := s.wishlists.ListItems(ctx, w.ID)
	s.Require().NoError(err)
	s.Require().Len(items, 2)
	for _, it := range items {
		s.Equal(n, it.Quantity, "product %d", it.ProductID)
	}
}

func (s *storeSuite) TestDecrementOrDelete() {
	ctx := s.T().Context()
	w, err := s.wishlists.GetOrCreate(ctx, gofakeit.Int64())
	s.Require().NoError(err)
	p := s.insertProduct(randomPrice())

	_, err = s.wishlists.AddOrIncrement(ctx, w.ID, p)
	s.Require().NoError(err)
	item, err := s.wishlists.AddOrIncrement(ctx, w.ID, p)
	s.Require().NoError(err)
	s.Require().Equal(2, item.Quantity)

	found, err := s.wishlists.DecrementOrDelete(ctx, item.ID)
	s.Require().NoError(err)
	s.True(found)

	got, err := s.wishlists.GetItem(ctx, item.ID)
	s.Require().NoError(err)
	s.Equal(1, got.Quantity)
	s.Equal(w.UserID, got.OwnerID)

	found, err = s.wishlists.DecrementOrDelete(ctx, item.ID)
	s.Require().NoError(err)
	s.True(found)

	found, err = s.wishlists.DecrementOrDelete(ctx, item.ID)
	s.Require().NoError(err)
	s.False(found)
}

func (s *storeSuite) TestLockedWishlist_NewProductWaitsForCommit() {
	ctx := s.T().Context()
	userID := gofakeit.Int64()
	w, err := s.wishlists.GetOrCreate(ctx, userID)
	s.Require().NoError(err)
	p1 := s.insertProduct(randomPrice())
	p2 := s.insertProduct(randomPrice())
	_, err = s.wishlists.AddOrIncrement(ctx, w.ID, p1)
	s.Require().NoError(err)

	added := make(chan error, 1)
	err = s.uow.Do(ctx, func(ctx context.Context, st repository.Stores) error {
		locked, err := st.Wishlists().LockByUser(ctx, userID)
		if err != nil {
			return err
		}
		items, err := st.Wishlists().LockItems(ctx, locked.ID)
		if err != nil {
			return err
		}
		s.Require().Len(items, 1)

		go func() {
			_, err := s.wishlists.AddOrIncrement(ctx, w.ID, p2)
			added <- err
		}()
		select {
		case <-added:
			s.Fail("add completed while the wishlist was locked")
		case <-time.After(300 * time.Millisecond):
		}

		return st.Wishlists().RemoveItems(ctx, locked.ID, []int64{items[0].ID})
	})
	s.Require().NoError(err)

	select {
	case err := <-added:
		s.Require().NoError(err)
	case <-time.After(5 * time.Second):
		s.FailNow("add did not complete after commit")
	}

	items, err := s.wishlists.ListItems(ctx, w.ID)
	s.Require().NoError(err)
	s.Require().Len(items, 1)
	s.Equal(p2, items[0].ProductID)
}

func (s *storeSuite) TestUnitOfWork_CreatesOrderWithFrozenPrices() {
	ctx := s.T().Context()
	price := decimal.RequireFromString("50.00")
	p := s.insertProduct(price)

	expected := &domain.Order{
		UserID:     gofakeit.Int64(),
		Status:     domain.OrderStatusPending,
		TotalPrice: decimal.RequireFromString("100.00"),
		Items:      []domain.OrderItem{{ProductID: p, Quantity: 2, PriceAtPurchase: price}},
	}

	err := s.uow.Do(ctx, func(ctx context.Context, st repository.Stores) error {
		return st.Orders().Create(ctx, expected)
	})
	s.Require().NoError(err)

	_, err = s.pool.Exec(ctx, `UPDATE products SET price = price * 2 WHERE id = $1`, p)
	s.Require().NoError(err)

	actual, err := s.orders.GetByID(ctx, expected.ID)
	s.Require().NoError(err)

	opts := cmp.Options{
		cmpopts.IgnoreFields(domain.Order{}, "CreatedAt"),
		cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) }),
	}
	s.Empty(cmp.Diff(expected, actual, opts))
}

func (s *storeSuite) TestUnitOfWork_RollbackLeavesNoOrder() {
	ctx := s.T().Context()
	userID := gofakeit.Int64()

	err := s.uow.Do(ctx, func(ctx context.Context, st repository.Stores) error {
		return st.Orders().Create(ctx, &domain.Order{
			UserID:     userID,
			Status:     domain.OrderStatusPending,
			TotalPrice: decimal.NewFromInt(1),
			// quantity 0 violates the order_items check constraint
			Items: []domain.OrderItem{{ProductID: 1, Quantity: 0, PriceAtPurchase: decimal.NewFromInt(1)}},
		})
	})
	s.Require().Error(err)

	orders, total, err := s.orders.List(ctx, repository.OrderFilter{UserID: &userID, Page: 1, PerPage: 10})
	s.Require().NoError(err)
	s.Zero(total)
	s.Empty(orders)
}
