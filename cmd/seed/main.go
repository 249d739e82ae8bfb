// Command seed fills the products table with generated catalog data and
// prints a pair of development access tokens.
//
// Usage:
//
//	go run ./cmd/seed -products 10000
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"

	"github.com/brickstemple/storefront/internal/auth"
	"github.com/brickstemple/storefront/internal/config"
	"github.com/brickstemple/storefront/internal/domain"
	"github.com/brickstemple/storefront/migrations"
	"github.com/brickstemple/storefront/pkg/database"
	"github.com/brickstemple/storefront/pkg/logger"
)

const batchSize = 500

type product struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
}

func main() {
	total := flag.Int("products", 10000, "number of products to insert")
	seed := flag.Uint64("seed", 42, "random seed for generated data")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log := logger.New("storefront-seed", cfg.LogLevel)

	if err := run(cfg, log, *total, *seed); err != nil {
		log.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger, total int, seed uint64) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, database.PostgresConfig{
		URL:      cfg.PostgresDSN(),
		MaxConns: 4,
	}, log)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, migrations.FS, log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	products := generateProducts(gofakeit.New(seed), total)
	log.Info("generated products", slog.Int("count", len(products)))

	for start := 0; start < len(products); start += batchSize {
		end := min(start+batchSize, len(products))
		query, args := insertProductsQuery(products[start:end])
		if _, err := pool.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("insert products batch %d-%d: %w", start, end, err)
		}
		if end%5000 == 0 || end == len(products) {
			log.Info("inserted products", slog.Int("done", end), slog.Int("total", len(products)))
		}
	}

	verifier := auth.NewTokenVerifier(cfg.JWTSecret, cfg.JWTExpiry)
	for _, u := range []struct {
		id    int64
		email string
		role  string
	}{
		{1, "admin@storefront.local", domain.RoleAdmin},
		{2, "customer@storefront.local", domain.RoleCustomer},
	} {
		token, err := verifier.Issue(u.id, u.email, u.role)
		if err != nil {
			return fmt.Errorf("issue %s token: %w", u.role, err)
		}
		fmt.Printf("%s token (user %d): %s\n", u.role, u.id, token)
	}
	return nil
}

func generateProducts(f *gofakeit.Faker, n int) []product {
	products := make([]product, 0, n)
	for i := 0; i < n; i++ {
		products = append(products, product{
			Name:        f.ProductName(),
			Description: f.ProductDescription(),
			Price:       decimal.NewFromFloat(f.Price(1, 500)).Round(2),
			Stock:       f.IntRange(0, 250),
		})
	}
	return products
}

// insertProductsQuery builds one multi-row INSERT for batch.
func insertProductsQuery(batch []product) (string, []any) {
	var sb strings.Builder
	sb.WriteString("INSERT INTO products (name, description, price, stock) VALUES ")

	args := make([]any, 0, len(batch)*4)
	for i, p := range batch {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 4
		fmt.Fprintf(&sb, "($%d, $%d, $%d::numeric, $%d)", base+1, base+2, base+3, base+4)
		args = append(args, p.Name, p.Description, p.Price.StringFixed(2), p.Stock)
	}
	return sb.String(), args
}
