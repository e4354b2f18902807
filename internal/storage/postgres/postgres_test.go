//go:build integration

package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/xenking/storefront/internal/domain/address"
	"github.com/xenking/storefront/internal/domain/checkout"
	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/domain/errkind"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/storage/memory"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("storefront"),
		tcpostgres.WithUsername("storefront"),
		tcpostgres.WithPassword("storefront"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, RunMigrations(ctx, pool))
	// Migrations are idempotent.
	require.NoError(t, RunMigrations(ctx, pool))
	return pool
}

func seed(t *testing.T, products *ProductRepository, coupons *CouponRepository) {
	t.Helper()
	ctx := context.Background()
	for _, p := range memory.SeedProducts() {
		require.NoError(t, products.Upsert(ctx, p))
	}
	for _, c := range memory.SeedCategories() {
		require.NoError(t, products.UpsertCategory(ctx, c))
	}
	for _, r := range coupon.Defaults() {
		require.NoError(t, coupons.Upsert(ctx, r))
	}
}

func TestPostgres(t *testing.T) {
	pool := setupTestDB(t)
	products := NewProductRepository(pool)
	coupons := NewCouponRepository(pool)
	orders := NewOrderRepository(pool)
	seed(t, products, coupons)
	ctx := context.Background()

	t.Run("List", func(t *testing.T) {
		all, err := products.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 8)
		assert.Equal(t, memory.SeedProducts()[0].Name, all[0].Name)
		assert.True(t, decimal.RequireFromString("299.99").Equal(all[0].Price))
	})

	t.Run("ListByCategory", func(t *testing.T) {
		food, err := products.ListByCategory(ctx, "Food")
		require.NoError(t, err)
		require.Len(t, food, 2)
		assert.Equal(t, int64(3), food[0].ID)
		assert.Equal(t, int64(6), food[1].ID)

		none, err := products.ListByCategory(ctx, "food")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("GetByID", func(t *testing.T) {
		p, err := products.GetByID(ctx, 8)
		require.NoError(t, err)
		assert.Equal(t, "Premium Water Bottle", p.Name)

		_, err = products.GetByID(ctx, 1000)
		require.ErrorIs(t, err, product.ErrNotFound)
	})

	t.Run("Categories", func(t *testing.T) {
		cats, err := products.Categories(ctx)
		require.NoError(t, err)
		assert.Equal(t, memory.SeedCategories(), cats)
	})

	t.Run("Featured", func(t *testing.T) {
		featured, err := products.Featured(ctx, 4)
		require.NoError(t, err)
		assert.Len(t, featured, 4)
	})

	t.Run("AdminCRUD", func(t *testing.T) {
		created, err := products.Create(ctx, product.Draft{
			Name:     "Ceramic Mug",
			Price:    decimal.RequireFromString("19.90"),
			Category: "Home",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(9), created.ID)

		name := "Stoneware Mug"
		updated, err := products.Update(ctx, created.ID, product.Patch{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, "Stoneware Mug", updated.Name)
		assert.True(t, decimal.RequireFromString("19.90").Equal(updated.Price))

		negative := decimal.NewFromInt(-5)
		_, err = products.Update(ctx, created.ID, product.Patch{Price: &negative})
		require.ErrorIs(t, err, product.ErrNegativePrice)

		_, err = products.Update(ctx, 4040, product.Patch{Name: &name})
		require.ErrorIs(t, err, product.ErrNotFound)

		ok, err := products.Delete(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = products.Delete(ctx, created.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("ConcurrentCreatesGetDistinctIDs", func(t *testing.T) {
		var (
			wg  sync.WaitGroup
			mu  sync.Mutex
			ids = map[int64]bool{}
		)
		for range 5 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				p, err := products.Create(ctx, product.Draft{Name: "Batch", Price: decimal.NewFromInt(1)})
				if !assert.NoError(t, err) {
					return
				}
				mu.Lock()
				ids[p.ID] = true
				mu.Unlock()
			}()
		}
		wg.Wait()
		assert.Len(t, ids, 5)
	})

	t.Run("Coupons", func(t *testing.T) {
		r, err := coupons.FindByCode(ctx, "welcome10")
		require.NoError(t, err)
		assert.Equal(t, "WELCOME10", r.Code)
		assert.True(t, decimal.NewFromInt(10).Equal(r.Percent))

		_, err = coupons.FindByCode(ctx, "NOPE")
		require.ErrorIs(t, err, coupon.ErrInvalidCoupon)
	})

	t.Run("Orders", func(t *testing.T) {
		totals := order.ComputeTotals(decimal.RequireFromString("179.98"), decimal.NewFromInt(20))
		o := &order.Order{
			Items: []order.Item{
				{ProductID: 3, Name: "Gourmet Coffee Set", Price: decimal.RequireFromString("89.99"), Quantity: 2},
			},
			Address: address.Address{
				PostalCode: "01310-100",
				Street:     "Avenida Paulista",
				Number:     "1578",
				City:       "São Paulo",
				State:      "SP",
			},
			Shipping:        checkout.ShippingExpress,
			Payment:         checkout.PaymentPix,
			CouponCode:      "SAVE20",
			DiscountPercent: decimal.NewFromInt(20),
			Totals:          totals,
			Status:          order.StatusPending,
		}
		require.NoError(t, orders.Create(ctx, o))
		require.NotEmpty(t, o.ID)
		assert.False(t, o.CreatedAt.IsZero())

		got, err := orders.GetByID(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, o.ID, got.ID)
		assert.Equal(t, o.Address, got.Address)
		assert.Equal(t, checkout.ShippingExpress, got.Shipping)
		assert.Equal(t, checkout.PaymentPix, got.Payment)
		assert.Equal(t, order.StatusPending, got.Status)
		require.Len(t, got.Items, 1)
		assert.Equal(t, 2, got.Items[0].Quantity)
		assert.True(t, o.Totals.Total.Equal(got.Totals.Total))
		assert.True(t, o.Totals.Tax.Equal(got.Totals.Tax))

		// Creating the same id again keeps the first row.
		again := *o
		again.Items = []order.Item{
			{ProductID: 3, Name: "Gourmet Coffee Set", Price: decimal.RequireFromString("89.99"), Quantity: 9},
		}
		require.NoError(t, orders.Create(ctx, &again))
		assert.Equal(t, o.ID, again.ID)
		assert.True(t, o.CreatedAt.Equal(again.CreatedAt))
		got, err = orders.GetByID(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, got.Items[0].Quantity)

		var count int
		require.NoError(t, pool.QueryRow(ctx, "SELECT count(*) FROM orders WHERE id = $1", o.ID).Scan(&count))
		assert.Equal(t, 1, count)

		bad := *o
		bad.ID = "not-a-uuid"
		require.ErrorIs(t, orders.Create(ctx, &bad), errkind.ErrValidation)

		_, err = orders.GetByID(ctx, "not-a-uuid")
		require.ErrorIs(t, err, order.ErrNotFound)
		_, err = orders.GetByID(ctx, "6f1c7c7e-8d8b-4a5e-9a59-1b6a6d1f0c11")
		require.ErrorIs(t, err, order.ErrNotFound)
	})
}
