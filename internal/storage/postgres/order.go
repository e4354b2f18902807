package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/domain/address"
	"github.com/xenking/storefront/internal/domain/checkout"
	"github.com/xenking/storefront/internal/domain/errkind"
	"github.com/xenking/storefront/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders (
			id, items, address, shipping_method, payment_method, coupon_code, discount_percent,
			subtotal, discount, discounted_subtotal, shipping, tax, total, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO NOTHING
		RETURNING created_at`

	getOrderCreatedAtSQL = `SELECT created_at FROM orders WHERE id = $1`

	getOrderByIDSQL = `SELECT id, items, address, shipping_method, payment_method, coupon_code,
			discount_percent, subtotal, discount, discounted_subtotal, shipping, tax, total,
			status, created_at
		FROM orders WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// addressJSON is the JSONB shape of an order's delivery address.
type addressJSON struct {
	PostalCode   string `json:"postal_code"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
}

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists the order under o.ID, generating a UUID when it is empty.
// The order items and the address are serialized to JSON for storage in
// JSONB columns. An id that is already stored is left untouched and its
// creation time is reported.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	id := uuid.New()
	if o.ID != "" {
		var err error
		if id, err = uuid.Parse(o.ID); err != nil {
			return errkind.Validation(fmt.Errorf("order id %q: %w", o.ID, err))
		}
	}

	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshaling order items: %w", err)
	}
	addrJSON, err := json.Marshal(addressJSON(o.Address))
	if err != nil {
		return fmt.Errorf("marshaling order address: %w", err)
	}

	var createdAt time.Time
	err = r.pool.QueryRow(ctx, createOrderSQL,
		id, itemsJSON, addrJSON, string(o.Shipping), string(o.Payment), o.CouponCode, o.DiscountPercent,
		o.Totals.Subtotal, o.Totals.Discount, o.Totals.DiscountedSubtotal,
		o.Totals.Shipping, o.Totals.Tax, o.Totals.Total, string(o.Status),
	).Scan(&createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// Conflict on id: a previous attempt already committed.
		err = r.pool.QueryRow(ctx, getOrderCreatedAtSQL, id).Scan(&createdAt)
	}
	if err != nil {
		return unavailable(err, "creating order %s", id)
	}

	o.ID = id.String()
	o.CreatedAt = createdAt.UTC()
	return nil
}

// GetByID loads an order. Ids that are not UUIDs are reported as not found.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, order.ErrNotFound
	}

	var (
		o                  order.Order
		rowID              uuid.UUID
		itemsJSON, addrRaw []byte
		shipping, payment  string
		status             string
	)
	err = r.pool.QueryRow(ctx, getOrderByIDSQL, uid).Scan(
		&rowID, &itemsJSON, &addrRaw, &shipping, &payment, &o.CouponCode,
		&o.DiscountPercent, &o.Totals.Subtotal, &o.Totals.Discount, &o.Totals.DiscountedSubtotal,
		&o.Totals.Shipping, &o.Totals.Tax, &o.Totals.Total,
		&status, &o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, unavailable(err, "getting order %s", id)
	}

	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return nil, fmt.Errorf("unmarshaling order items: %w", err)
	}
	var addr addressJSON
	if err := json.Unmarshal(addrRaw, &addr); err != nil {
		return nil, fmt.Errorf("unmarshaling order address: %w", err)
	}

	o.ID = rowID.String()
	o.Address = address.Address(addr)
	o.Shipping = checkout.ShippingMethod(shipping)
	o.Payment = checkout.PaymentMethod(payment)
	o.Status = order.Status(status)
	o.CreatedAt = o.CreatedAt.UTC()
	return &o, nil
}
