package checkout

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/errkind"
)

var (
	// ErrUnknownShippingMethod is returned for a shipping method outside the
	// fixed set.
	ErrUnknownShippingMethod = errkind.Validation(errors.New("unknown shipping method"))
	// ErrUnknownPaymentMethod is returned for a payment method outside the
	// fixed set.
	ErrUnknownPaymentMethod = errkind.Validation(errors.New("unknown payment method"))
)

// ShippingMethod is a delivery option.
type ShippingMethod string

const (
	ShippingStandard ShippingMethod = "standard"
	ShippingExpress  ShippingMethod = "express"
	ShippingSameDay  ShippingMethod = "same-day"
)

// ShippingOption describes a shipping method as presented to the shopper.
// ListPrice is informational: order totals charge shipping by the subtotal
// threshold rule of the order package.
type ShippingOption struct {
	Method    ShippingMethod
	Label     string
	Estimate  string
	ListPrice decimal.Decimal
}

var shippingOptions = []ShippingOption{
	{Method: ShippingStandard, Label: "Standard Delivery", Estimate: "3-5 business days", ListPrice: decimal.RequireFromString("4.99")},
	{Method: ShippingExpress, Label: "Express Delivery", Estimate: "1-2 business days", ListPrice: decimal.RequireFromString("9.99")},
	{Method: ShippingSameDay, Label: "Same Day Delivery", Estimate: "Today (order before 2PM)", ListPrice: decimal.RequireFromString("14.99")},
}

// ShippingOptions returns the supported shipping methods in display order.
func ShippingOptions() []ShippingOption {
	out := make([]ShippingOption, len(shippingOptions))
	copy(out, shippingOptions)
	return out
}

// Option returns the option for m.
func (m ShippingMethod) Option() (ShippingOption, bool) {
	for _, o := range shippingOptions {
		if o.Method == m {
			return o, true
		}
	}
	return ShippingOption{}, false
}

// Valid reports whether m is one of the supported methods.
func (m ShippingMethod) Valid() bool {
	_, ok := m.Option()
	return ok
}

// PaymentMethod is how the shopper pays on delivery or checkout.
type PaymentMethod string

const (
	PaymentCreditCard PaymentMethod = "credit-card"
	PaymentPix        PaymentMethod = "pix"
	PaymentCash       PaymentMethod = "cash"
)

// Valid reports whether m is one of the supported methods.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCreditCard, PaymentPix, PaymentCash:
		return true
	default:
		return false
	}
}

// Label is the human readable name of m.
func (m PaymentMethod) Label() string {
	switch m {
	case PaymentCreditCard:
		return "Credit Card"
	case PaymentPix:
		return "PIX"
	case PaymentCash:
		return "Cash on Delivery"
	default:
		return string(m)
	}
}
