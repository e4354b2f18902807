package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/storage/memory"
	"github.com/xenking/storefront/internal/storage/postgres"
)

func main() {
	var (
		databaseURL  string
		productsFile string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "", "products JSON file, optionally gzipped (.gz); empty seeds the built-in catalog")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	products := postgres.NewProductRepository(pool)

	if err := seedProducts(ctx, products, productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}

	slog.Info("upserting categories")
	for _, c := range memory.SeedCategories() {
		if err := products.UpsertCategory(ctx, c); err != nil {
			return errors.Wrapf(err, "upsert category %s", c.Name)
		}
	}

	slog.Info("upserting coupons")
	coupons := postgres.NewCouponRepository(pool)
	for _, r := range coupon.Defaults() {
		if err := coupons.Upsert(ctx, r); err != nil {
			return errors.Wrapf(err, "upsert coupon %s", r.Code)
		}
		slog.Info("upserted coupon", slog.String("code", r.Code), slog.String("percent", r.Percent.String()))
	}

	return nil
}

func seedProducts(ctx context.Context, repo *postgres.ProductRepository, productsFile string) error {
	products := memory.SeedProducts()
	if productsFile != "" {
		slog.Info("reading products file", slog.String("path", productsFile))

		var err error
		if products, err = readProducts(productsFile); err != nil {
			return err
		}
	}

	slog.Info("upserting products", slog.Int("count", len(products)))

	for _, p := range products {
		if err := repo.Upsert(ctx, p); err != nil {
			return errors.Wrapf(err, "upsert product %d", p.ID)
		}

		slog.Info("upserted product", slog.Int64("id", p.ID), slog.String("name", p.Name))
	}

	return nil
}
