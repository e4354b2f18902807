// Package memory implements the catalog data provider in process memory,
// with artificial latency so the storefront behaves like it talks to a
// remote backend.
package memory

import (
	"context"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/product"
)

// Base delays of each operation before scaling.
const (
	DelayList       = 500 * time.Millisecond
	DelayCategories = 400 * time.Millisecond
	DelayGet        = 300 * time.Millisecond
	DelayOrder      = 800 * time.Millisecond
	DelayAdminWrite = 700 * time.Millisecond
)

var (
	_ product.AdminRepository = (*Catalog)(nil)
	_ order.Repository        = (*Orders)(nil)
	_ coupon.Repository       = (*Catalog)(nil)
)

// Option configures a Catalog.
type Option func(*Catalog)

// WithLatency multiplies every base delay by scale. A scale of zero or less
// disables the simulated latency.
func WithLatency(scale float64) Option {
	return func(c *Catalog) { c.scale = scale }
}

// WithClock replaces the clock used for order timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Catalog) { c.now = now }
}

// WithCoupons replaces the default coupon rules.
func WithCoupons(rules []coupon.Rule) Option {
	return func(c *Catalog) {
		c.coupons = make(map[string]coupon.Rule, len(rules))
		for _, r := range rules {
			c.coupons[coupon.NormalizeCode(r.Code)] = r
		}
	}
}

// Catalog holds products, categories, coupons and submitted orders. It is
// safe for concurrent use.
type Catalog struct {
	mu         sync.RWMutex
	products   []product.Product
	categories []product.Category
	coupons    map[string]coupon.Rule
	orders     map[string]order.Order

	scale float64
	now   func() time.Time
}

// New creates a Catalog holding the given products and categories. Latency
// is off unless WithLatency is passed.
func New(products []product.Product, categories []product.Category, opts ...Option) *Catalog {
	c := &Catalog{
		products:   slices.Clone(products),
		categories: slices.Clone(categories),
		orders:     make(map[string]order.Order),
		now:        time.Now,
	}
	WithCoupons(coupon.Defaults())(c)
	for _, o := range opts {
		o(c)
	}
	return c
}

// NewSeeded creates a Catalog holding the launch catalog.
func NewSeeded(opts ...Option) *Catalog {
	return New(SeedProducts(), SeedCategories(), opts...)
}

// wait sleeps for the scaled delay or until ctx is done.
func (c *Catalog) wait(ctx context.Context, base time.Duration) error {
	if c.scale <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(time.Duration(float64(base) * c.scale))
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// List returns every product in catalog order.
func (c *Catalog) List(ctx context.Context) ([]product.Product, error) {
	if err := c.wait(ctx, DelayList); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.products), nil
}

// ListByCategory returns the products whose category equals category
// exactly.
func (c *Catalog) ListByCategory(ctx context.Context, category string) ([]product.Product, error) {
	if err := c.wait(ctx, DelayList); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]product.Product, 0, len(c.products))
	for _, p := range c.products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out, nil
}

// GetByID returns the product with the given id.
func (c *Catalog) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	if err := c.wait(ctx, DelayGet); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	i := c.index(id)
	if i < 0 {
		return nil, &product.NotFoundError{ID: id}
	}
	p := c.products[i]
	return &p, nil
}

// Categories returns every category.
func (c *Catalog) Categories(ctx context.Context) ([]product.Category, error) {
	if err := c.wait(ctx, DelayCategories); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.categories), nil
}

// Featured returns up to n products picked at random.
func (c *Catalog) Featured(ctx context.Context, n int) ([]product.Product, error) {
	if err := c.wait(ctx, DelayList); err != nil {
		return nil, err
	}
	c.mu.RLock()
	shuffled := slices.Clone(c.products)
	c.mu.RUnlock()

	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:min(max(n, 0), len(shuffled))], nil
}

// Create adds a product with the next free id.
func (c *Catalog) Create(ctx context.Context, d product.Draft) (*product.Product, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if err := c.wait(ctx, DelayAdminWrite); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	var maxID int64
	for _, p := range c.products {
		maxID = max(maxID, p.ID)
	}
	p := product.Product{
		ID:          maxID + 1,
		Name:        d.Name,
		Description: d.Description,
		Price:       d.Price,
		Image:       d.Image,
		Category:    d.Category,
	}
	c.products = append(c.products, p)
	return &p, nil
}

// Update merges the patch into the product with the given id.
func (c *Catalog) Update(ctx context.Context, id int64, patch product.Patch) (*product.Product, error) {
	if err := c.wait(ctx, DelayAdminWrite); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.index(id)
	if i < 0 {
		return nil, &product.NotFoundError{ID: id}
	}
	p, err := patch.Apply(c.products[i])
	if err != nil {
		return nil, err
	}
	c.products[i] = p
	return &p, nil
}

// Delete removes the product with the given id and reports whether it
// existed.
func (c *Catalog) Delete(ctx context.Context, id int64) (bool, error) {
	if err := c.wait(ctx, DelayAdminWrite); err != nil {
		return false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.index(id)
	if i < 0 {
		return false, nil
	}
	c.products = slices.Delete(c.products, i, i+1)
	return true, nil
}

// index returns the position of id in c.products or -1. Callers hold c.mu.
func (c *Catalog) index(id int64) int {
	return slices.IndexFunc(c.products, func(p product.Product) bool { return p.ID == id })
}

// FindByCode returns the coupon rule for the case-insensitive code.
func (c *Catalog) FindByCode(_ context.Context, code string) (*coupon.Rule, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.coupons[coupon.NormalizeCode(code)]
	if !ok {
		return nil, coupon.ErrInvalidCoupon
	}
	return &r, nil
}

// Orders is the order store of a Catalog.
type Orders struct {
	c *Catalog
}

// Orders returns the order store sharing the catalog's state and latency.
func (c *Catalog) Orders() *Orders {
	return &Orders{c: c}
}

// Create stores a copy of o under its id, generating one when it is empty.
// An id that is already stored keeps its first write.
func (s *Orders) Create(ctx context.Context, o *order.Order) error {
	c := s.c
	if err := c.wait(ctx, DelayOrder); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if prev, ok := c.orders[o.ID]; ok {
		o.CreatedAt = prev.CreatedAt
		return nil
	}
	o.CreatedAt = c.now().UTC()
	stored := *o
	stored.Items = slices.Clone(o.Items)
	c.orders[o.ID] = stored
	return nil
}

// GetByID returns a copy of the stored order.
func (s *Orders) GetByID(_ context.Context, id string) (*order.Order, error) {
	c := s.c
	c.mu.RLock()
	defer c.mu.RUnlock()
	o, ok := c.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	o.Items = slices.Clone(o.Items)
	return &o, nil
}
