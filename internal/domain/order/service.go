package order

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/checkout"
	"github.com/xenking/storefront/internal/domain/errkind"
)

// ErrEmptyCart is returned when submitting a checkout with nothing in the cart.
var ErrEmptyCart = errkind.Validation(errors.New("cart is empty"))

// RetryConfig bounds the retries of a failed order submission.
type RetryConfig struct {
	MaxAttempts     uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// Service submits checkouts as orders.
type Service struct {
	orders Repository
	retry  RetryConfig
	tracer trace.Tracer
	placed metric.Int64Counter
	failed metric.Int64Counter
}

// NewService creates an order Service persisting through orders.
func NewService(
	orders Repository,
	retry RetryConfig,
	tp trace.TracerProvider,
	mp metric.MeterProvider,
) (*Service, error) {
	meter := mp.Meter("storefront/order")
	placed, err := meter.Int64Counter("storefront.orders.placed",
		metric.WithDescription("Orders accepted by the order store"))
	if err != nil {
		return nil, errors.Wrap(err, "orders placed counter")
	}
	failed, err := meter.Int64Counter("storefront.orders.failed",
		metric.WithDescription("Order submissions that failed after retries"))
	if err != nil {
		return nil, errors.Wrap(err, "orders failed counter")
	}

	if retry.MaxAttempts == 0 {
		retry.MaxAttempts = 1
	}
	return &Service{
		orders: orders,
		retry:  retry,
		tracer: tp.Tracer("storefront/order"),
		placed: placed,
		failed: failed,
	}, nil
}

// Submit snapshots the cart and the checkout selection into an order, stores
// it, and clears the cart. On failure neither the cart nor the flow is
// touched, so the submission can be retried.
func (s *Service) Submit(ctx context.Context, c *cart.Store, f *checkout.Flow) (*Order, error) {
	ctx, span := s.tracer.Start(ctx, "order.Submit")
	defer span.End()

	sel, err := f.Selection()
	if err != nil {
		return nil, err
	}
	if c.Empty() {
		return nil, ErrEmptyCart
	}

	lines := c.Lines()
	items := make([]Item, len(lines))
	for i, l := range lines {
		items[i] = Item{
			ProductID: l.Product.ID,
			Name:      l.Product.Name,
			Price:     l.Product.Price,
			Quantity:  l.Quantity,
		}
	}

	draft := Order{
		ID:              uuid.NewString(),
		Items:           items,
		Address:         sel.Address,
		Shipping:        sel.Shipping,
		Payment:         sel.Payment,
		CouponCode:      sel.CouponCode,
		DiscountPercent: sel.DiscountPercent,
		Totals:          ComputeTotals(c.Subtotal(), sel.DiscountPercent),
		Status:          StatusPending,
	}

	o, err := s.create(ctx, draft)
	if err != nil {
		s.failed.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "create order")
		if !errkind.Classified(err) {
			err = errkind.Transient(err)
		}
		return nil, errors.Wrap(err, "create order")
	}

	c.Clear()
	s.placed.Add(ctx, 1)
	span.SetAttributes(attribute.String("order.id", o.ID))
	zctx.From(ctx).Info("Order placed",
		zap.String("order_id", o.ID),
		zap.Int("items", len(o.Items)),
		zap.Stringer("total", o.Totals.Total),
	)
	return o, nil
}

// create stores the draft, retrying transient failures with exponential
// backoff. The id is fixed before the first attempt, so an attempt that was
// committed but reported as failed is not stored twice.
func (s *Service) create(ctx context.Context, draft Order) (*Order, error) {
	b := backoff.NewExponentialBackOff()
	if s.retry.InitialInterval > 0 {
		b.InitialInterval = s.retry.InitialInterval
	}
	if s.retry.MaxInterval > 0 {
		b.MaxInterval = s.retry.MaxInterval
	}

	return backoff.Retry(ctx, func() (*Order, error) {
		o := draft
		if err := s.orders.Create(ctx, &o); err != nil {
			if !retryable(err) {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		return &o, nil
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(s.retry.MaxAttempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			zctx.From(ctx).Warn("Order submission failed, retrying",
				zap.Error(err),
				zap.Duration("backoff", next),
			)
		}),
	)
}

func retryable(err error) bool {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, errkind.ErrValidation), errors.Is(err, errkind.ErrNotFound):
		return false
	default:
		return true
	}
}

// Get returns a submitted order for the confirmation page.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get order %s", id)
	}
	return o, nil
}
