package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/address"
	"github.com/xenking/storefront/internal/domain/checkout"
	"github.com/xenking/storefront/internal/domain/errkind"
)

// ErrNotFound is returned when an order id is unknown.
var ErrNotFound = errkind.NotFound(errors.New("order not found"))

// Status is the processing state of an order.
type Status string

// StatusPending is the state of every freshly submitted order.
const StatusPending Status = "pending"

// Order is an immutable snapshot of a submitted checkout.
type Order struct {
	ID              string
	Items           []Item
	Address         address.Address
	Shipping        checkout.ShippingMethod
	Payment         checkout.PaymentMethod
	CouponCode      string
	DiscountPercent decimal.Decimal
	Totals          Totals
	Status          Status
	CreatedAt       time.Time
}

// Item is a cart line copied by value at submission time.
type Item struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Total returns price × quantity.
func (i Item) Total() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Repository is the order store of the catalog data provider.
type Repository interface {
	// Create persists the order under o.ID and sets its creation time.
	// Creating an id that is already stored keeps the first write and
	// reports its creation time.
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
}
