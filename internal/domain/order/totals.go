package order

import "github.com/shopspring/decimal"

var (
	hundred = decimal.NewFromInt(100)

	// FreeShippingThreshold is the discounted subtotal from which shipping is free.
	FreeShippingThreshold = decimal.NewFromInt(100)
	// FlatShipping is charged below the free shipping threshold.
	FlatShipping = decimal.NewFromInt(10)
	// TaxRate is applied to the discounted subtotal.
	TaxRate = decimal.RequireFromString("0.08")
)

// Totals is the price breakdown of an order. Every amount is rounded to
// cents.
type Totals struct {
	Subtotal           decimal.Decimal
	Discount           decimal.Decimal
	DiscountedSubtotal decimal.Decimal
	Shipping           decimal.Decimal
	Tax                decimal.Decimal
	Total              decimal.Decimal
}

// ComputeTotals prices a cart subtotal with a discount percentage.
// Shipping is free for an empty order or from FreeShippingThreshold on, and
// FlatShipping otherwise, whatever shipping method was chosen. Shipping and
// tax derive from the rounded discounted subtotal.
func ComputeTotals(subtotal, discountPercent decimal.Decimal) Totals {
	subtotal = floorAtZero(subtotal).Round(2)
	pct := decimal.Min(floorAtZero(discountPercent), hundred)

	discounted := subtotal.Mul(hundred.Sub(pct)).Div(hundred).Round(2)

	shipping := FlatShipping
	if discounted.IsZero() || discounted.GreaterThanOrEqual(FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	tax := discounted.Mul(TaxRate).Round(2)

	return Totals{
		Subtotal:           subtotal,
		Discount:           subtotal.Sub(discounted),
		DiscountedSubtotal: discounted,
		Shipping:           shipping,
		Tax:                tax,
		Total:              discounted.Add(shipping).Add(tax),
	}
}

func floorAtZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
