package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestComputeTotals(t *testing.T) {
	tests := []struct {
		name           string
		subtotal       string
		discount       string
		wantDiscounted string
		wantShipping   string
		wantTax        string
		wantTotal      string
	}{
		{
			name:           "SAVE20 on 120 drops below free shipping",
			subtotal:       "120",
			discount:       "20",
			wantDiscounted: "96",
			wantShipping:   "10",
			wantTax:        "7.68",
			wantTotal:      "113.68",
		},
		{
			name:           "50 without discount pays flat shipping",
			subtotal:       "50",
			discount:       "0",
			wantDiscounted: "50",
			wantShipping:   "10",
			wantTax:        "4.00",
			wantTotal:      "64.00",
		},
		{
			name:           "150 without discount ships free",
			subtotal:       "150",
			discount:       "0",
			wantDiscounted: "150",
			wantShipping:   "0",
			wantTax:        "12.00",
			wantTotal:      "162.00",
		},
		{
			name:           "exactly 100 ships free",
			subtotal:       "100",
			discount:       "0",
			wantDiscounted: "100",
			wantShipping:   "0",
			wantTax:        "8",
			wantTotal:      "108",
		},
		{
			name:           "empty cart is free",
			subtotal:       "0",
			discount:       "10",
			wantDiscounted: "0",
			wantShipping:   "0",
			wantTax:        "0",
			wantTotal:      "0",
		},
		{
			name:           "100 percent discount charges nothing",
			subtotal:       "80",
			discount:       "100",
			wantDiscounted: "0",
			wantShipping:   "0",
			wantTax:        "0",
			wantTotal:      "0",
		},
		{
			name:           "rounding to cents",
			subtotal:       "124.99",
			discount:       "20",
			wantDiscounted: "99.99",
			wantShipping:   "10",
			wantTax:        "8.00",
			wantTotal:      "117.99",
		},
		{
			name:           "WELCOME10 on headphones",
			subtotal:       "299.99",
			discount:       "10",
			wantDiscounted: "269.99",
			wantShipping:   "0",
			wantTax:        "21.60",
			wantTotal:      "291.59",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTotals(d(tt.subtotal), d(tt.discount))

			assert.True(t, d(tt.wantDiscounted).Equal(got.DiscountedSubtotal), "discounted: got %s", got.DiscountedSubtotal)
			assert.True(t, d(tt.wantShipping).Equal(got.Shipping), "shipping: got %s", got.Shipping)
			assert.True(t, d(tt.wantTax).Equal(got.Tax), "tax: got %s", got.Tax)
			assert.True(t, d(tt.wantTotal).Equal(got.Total), "total: got %s", got.Total)
			assert.True(t, got.Subtotal.Sub(got.Discount).Equal(got.DiscountedSubtotal))
		})
	}
}

func TestComputeTotals_ClampsDiscount(t *testing.T) {
	over := ComputeTotals(d("50"), d("150"))
	assert.True(t, over.DiscountedSubtotal.IsZero())

	under := ComputeTotals(d("50"), d("-10"))
	assert.True(t, d("50").Equal(under.DiscountedSubtotal))
}
