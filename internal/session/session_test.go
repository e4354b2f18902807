package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/xenking/storefront/internal/domain/address"
	"github.com/xenking/storefront/internal/domain/checkout"
	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/storage/memory"
)

// --- Helpers ---

func newRegistry(ttl time.Duration) (*Registry, *memory.Catalog) {
	catalog := memory.NewSeeded()
	validator := coupon.NewRepoValidator(catalog)
	return NewRegistry(func() *checkout.Flow { return checkout.NewFlow(validator, nil) }, ttl), catalog
}

func newOrderService(t *testing.T, repo order.Repository) *order.Service {
	t.Helper()
	svc, err := order.NewService(repo, order.RetryConfig{MaxAttempts: 1},
		tracenoop.NewTracerProvider(), metricnoop.NewMeterProvider())
	require.NoError(t, err)
	return svc
}

var mat = product.Product{ID: 5, Name: "Premium Yoga Mat", Price: decimal.RequireFromString("79.99")}

func toReview(t *testing.T, f *checkout.Flow) {
	t.Helper()
	require.NoError(t, f.SetAddress(address.Address{
		PostalCode: "20040-002",
		Street:     "Avenida Rio Branco",
		Number:     "156",
		City:       "Rio de Janeiro",
		State:      "RJ",
	}))
	require.NoError(t, f.ConfirmAddress())
	require.NoError(t, f.SelectShipping(checkout.ShippingStandard))
	require.NoError(t, f.SelectPayment(checkout.PaymentCash))
}

// --- Tests ---

func TestRegistry_GetOrCreate(t *testing.T) {
	r, _ := newRegistry(time.Hour)

	s, created := r.GetOrCreate("")
	require.True(t, created)
	require.NotEmpty(t, s.ID)

	same, created := r.GetOrCreate(s.ID)
	assert.False(t, created)
	assert.Same(t, s, same)

	other, created := r.GetOrCreate("forged-id")
	assert.True(t, created)
	assert.NotEqual(t, "forged-id", other.ID)
	assert.Equal(t, 2, r.Len())

	got, ok := r.Get(s.ID)
	require.True(t, ok)
	assert.Same(t, s, got)
	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRegistry_SessionsAreIsolated(t *testing.T) {
	r, _ := newRegistry(0)
	a, _ := r.GetOrCreate("")
	b, _ := r.GetOrCreate("")

	require.NoError(t, a.Do(func(st State) error { return st.Cart().Add(mat, 2) }))

	require.NoError(t, b.Do(func(st State) error {
		assert.True(t, st.Cart().Empty())
		return nil
	}))
}

func TestRegistry_Expiry(t *testing.T) {
	r, _ := newRegistry(30 * time.Minute)
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	s, _ := r.GetOrCreate("")
	now = now.Add(20 * time.Minute)
	_, ok := r.Get(s.ID)
	require.True(t, ok, "access refreshes the session")

	now = now.Add(29 * time.Minute)
	assert.Equal(t, 0, r.Sweep())

	now = now.Add(2 * time.Minute)
	_, ok = r.Get(s.ID)
	assert.False(t, ok)

	fresh, created := r.GetOrCreate(s.ID)
	assert.True(t, created)
	assert.NotEqual(t, s.ID, fresh.ID)

	assert.Equal(t, 1, r.Sweep())
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_StartCleanup(t *testing.T) {
	r, _ := newRegistry(time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r.GetOrCreate("")
	r.StartCleanup(ctx, 5*time.Millisecond)

	assert.Eventually(t, func() bool { return r.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestState_BeginCheckout(t *testing.T) {
	r, _ := newRegistry(0)
	s, _ := r.GetOrCreate("")

	require.NoError(t, s.Do(func(st State) error {
		_, err := st.Checkout()
		require.ErrorIs(t, err, ErrNoCheckout)

		_, err = st.BeginCheckout()
		require.ErrorIs(t, err, order.ErrEmptyCart)

		require.NoError(t, st.Cart().Add(mat, 1))
		f, err := st.BeginCheckout()
		require.NoError(t, err)
		require.NoError(t, f.SetAddress(address.Address{Street: "Rua A"}))

		again, err := st.BeginCheckout()
		require.NoError(t, err)
		assert.Same(t, f, again, "an ongoing checkout is resumed")

		st.DiscardCheckout()
		_, err = st.Checkout()
		require.ErrorIs(t, err, ErrNoCheckout)
		return nil
	}))
}

func TestState_PlaceOrder(t *testing.T) {
	r, catalog := newRegistry(0)
	svc := newOrderService(t, catalog.Orders())
	s, _ := r.GetOrCreate("")
	ctx := context.Background()

	var placed *order.Order
	require.NoError(t, s.Do(func(st State) error {
		require.NoError(t, st.Cart().Add(mat, 1))
		f, err := st.BeginCheckout()
		require.NoError(t, err)
		toReview(t, f)

		placed, err = st.PlaceOrder(ctx, svc)
		return err
	}))

	require.NotNil(t, placed)
	// 79.99 is below the free shipping threshold.
	assert.True(t, decimal.RequireFromString("96.39").Equal(placed.Totals.Total))

	require.NoError(t, s.Do(func(st State) error {
		assert.True(t, st.Cart().Empty())
		_, err := st.Checkout()
		assert.ErrorIs(t, err, ErrNoCheckout, "the checkout is discarded after submission")
		return nil
	}))

	stored, err := svc.Get(ctx, placed.ID)
	require.NoError(t, err)
	assert.Equal(t, placed.ID, stored.ID)
}

func TestState_DoubleSubmitPlacesOneOrder(t *testing.T) {
	r, catalog := newRegistry(0)
	svc := newOrderService(t, catalog.Orders())
	s, _ := r.GetOrCreate("")
	ctx := context.Background()

	require.NoError(t, s.Do(func(st State) error {
		require.NoError(t, st.Cart().Add(mat, 3))
		f, err := st.BeginCheckout()
		require.NoError(t, err)
		toReview(t, f)
		return nil
	}))

	var (
		wg   sync.WaitGroup
		errs = make([]error, 2)
	)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = s.Do(func(st State) error {
				_, err := st.PlaceOrder(ctx, svc)
				return err
			})
		}()
	}
	wg.Wait()

	var ok, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, ErrNoCheckout):
			rejected++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, rejected)
}
