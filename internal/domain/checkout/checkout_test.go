package checkout

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/address"
	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/domain/errkind"
)

// --- Mock implementations ---

type staticCoupons map[string]coupon.Rule

func (s staticCoupons) FindByCode(_ context.Context, code string) (*coupon.Rule, error) {
	r, ok := s[code]
	if !ok {
		return nil, coupon.ErrInvalidCoupon
	}
	return &r, nil
}

func defaultValidator() coupon.Validator {
	rules := staticCoupons{}
	for _, r := range coupon.Defaults() {
		rules[r.Code] = r
	}
	return coupon.NewRepoValidator(rules)
}

type mockLookup struct {
	fields *address.Fields
	err    error
	calls  []string
}

func (m *mockLookup) LookupAddress(_ context.Context, code string) (*address.Fields, error) {
	m.calls = append(m.calls, code)
	return m.fields, m.err
}

// --- Helpers ---

func completeAddress() address.Address {
	return address.Address{
		PostalCode: "01310100",
		Street:     "Avenida Paulista",
		Number:     "1578",
		City:       "São Paulo",
		State:      "SP",
	}
}

func flowAtReview(t *testing.T) *Flow {
	t.Helper()
	f := NewFlow(defaultValidator(), nil)
	require.NoError(t, f.SetAddress(completeAddress()))
	require.NoError(t, f.ConfirmAddress())
	require.NoError(t, f.SelectShipping(ShippingExpress))
	require.NoError(t, f.SelectPayment(PaymentPix))
	require.Equal(t, StepReview, f.Step())
	return f
}

// --- Tests ---

func TestFlow_HappyPath(t *testing.T) {
	f := flowAtReview(t)

	require.NoError(t, f.ApplyCoupon(context.Background(), "save20"))

	sel, err := f.Selection()
	require.NoError(t, err)
	assert.Equal(t, "01310-100", sel.Address.PostalCode)
	assert.Equal(t, ShippingExpress, sel.Shipping)
	assert.Equal(t, PaymentPix, sel.Payment)
	assert.Equal(t, "SAVE20", sel.CouponCode)
	assert.True(t, decimal.NewFromInt(20).Equal(sel.DiscountPercent))
}

func TestFlow_StartsAtAddress(t *testing.T) {
	f := NewFlow(defaultValidator(), nil)

	assert.Equal(t, StepAddress, f.Step())
	code, discount := f.Coupon()
	assert.Empty(t, code)
	assert.True(t, discount.IsZero())

	_, err := f.Selection()
	require.ErrorIs(t, err, ErrNotAtReview)
}

func TestFlow_ConfirmAddressRequiresCompleteAddress(t *testing.T) {
	for _, field := range []string{"postal code", "street", "number", "city", "state"} {
		t.Run(field, func(t *testing.T) {
			a := completeAddress()
			switch field {
			case "postal code":
				a.PostalCode = ""
			case "street":
				a.Street = ""
			case "number":
				a.Number = ""
			case "city":
				a.City = ""
			case "state":
				a.State = ""
			}

			f := NewFlow(defaultValidator(), nil)
			require.NoError(t, f.SetAddress(a))

			err := f.ConfirmAddress()
			require.ErrorIs(t, err, ErrIncompleteAddress)
			assert.ErrorIs(t, err, errkind.ErrValidation)
			assert.Equal(t, StepAddress, f.Step())
		})
	}
}

func TestFlow_NoSkippingAhead(t *testing.T) {
	f := NewFlow(defaultValidator(), nil)

	var stepErr *StepError
	require.ErrorAs(t, f.SelectShipping(ShippingStandard), &stepErr)
	assert.Equal(t, StepAddress, stepErr.Current)
	require.ErrorIs(t, f.SelectPayment(PaymentCash), errkind.ErrValidation)
	require.ErrorIs(t, f.ApplyCoupon(context.Background(), "SAVE20"), errkind.ErrValidation)
	assert.Equal(t, StepAddress, f.Step())
}

func TestFlow_UnknownMethodsRejected(t *testing.T) {
	f := NewFlow(defaultValidator(), nil)
	require.NoError(t, f.SetAddress(completeAddress()))
	require.NoError(t, f.ConfirmAddress())

	require.ErrorIs(t, f.SelectShipping("teleport"), ErrUnknownShippingMethod)
	assert.Equal(t, StepShipping, f.Step())

	require.NoError(t, f.SelectShipping(ShippingSameDay))
	require.ErrorIs(t, f.SelectPayment("barter"), ErrUnknownPaymentMethod)
	assert.Equal(t, StepPayment, f.Step())
}

func TestFlow_BackPreservesData(t *testing.T) {
	f := flowAtReview(t)
	require.NoError(t, f.ApplyCoupon(context.Background(), "WELCOME10"))

	require.NoError(t, f.Back(StepAddress))
	assert.Equal(t, StepAddress, f.Step())
	assert.Equal(t, "Avenida Paulista", f.Address().Street)
	assert.Equal(t, ShippingExpress, f.Shipping())
	assert.Equal(t, PaymentPix, f.Payment())

	a := f.Address()
	a.Number = "10"
	require.NoError(t, f.SetAddress(a))
	require.NoError(t, f.ConfirmAddress())
	require.NoError(t, f.SelectShipping(ShippingStandard))
	require.NoError(t, f.SelectPayment(PaymentCash))

	sel, err := f.Selection()
	require.NoError(t, err)
	assert.Equal(t, "10", sel.Address.Number)
	assert.Equal(t, ShippingStandard, sel.Shipping)
	assert.Equal(t, "WELCOME10", sel.CouponCode)
}

func TestFlow_BackOnlyToEarlierSteps(t *testing.T) {
	f := NewFlow(defaultValidator(), nil)
	require.NoError(t, f.SetAddress(completeAddress()))
	require.NoError(t, f.ConfirmAddress())

	require.ErrorIs(t, f.Back(StepShipping), errkind.ErrValidation)
	require.ErrorIs(t, f.Back(StepReview), errkind.ErrValidation)
	require.ErrorIs(t, f.Back(Step(0)), errkind.ErrValidation)
	assert.Equal(t, StepShipping, f.Step())
}

func TestFlow_SetAddressOnlyAtAddressStep(t *testing.T) {
	f := flowAtReview(t)
	err := f.SetAddress(address.Address{})
	require.ErrorIs(t, err, errkind.ErrValidation)
	assert.Equal(t, "Avenida Paulista", f.Address().Street)
}

func TestFlow_ApplyCoupon(t *testing.T) {
	f := flowAtReview(t)
	ctx := context.Background()

	require.NoError(t, f.ApplyCoupon(ctx, "WELCOME10"))
	code, pct := f.Coupon()
	assert.Equal(t, "WELCOME10", code)
	assert.True(t, decimal.NewFromInt(10).Equal(pct))

	err := f.ApplyCoupon(ctx, "NOPE")
	require.ErrorIs(t, err, coupon.ErrInvalidCoupon)
	code, pct = f.Coupon()
	assert.Empty(t, code)
	assert.True(t, pct.IsZero(), "invalid coupon resets the discount")

	_, err = f.Selection()
	require.NoError(t, err, "an invalid coupon does not block submission")

	require.NoError(t, f.ApplyCoupon(ctx, "SAVE20"))
	require.NoError(t, f.ApplyCoupon(ctx, ""))
	code, pct = f.Coupon()
	assert.Empty(t, code)
	assert.True(t, pct.IsZero())
}

func TestFlow_LookupPostalCode(t *testing.T) {
	lookup := &mockLookup{fields: &address.Fields{
		PostalCode:   "01310-100",
		Street:       "Avenida Paulista",
		Complement:   "de 1047 a 1865 - lado par",
		Neighborhood: "Bela Vista",
		City:         "São Paulo",
		State:        "SP",
	}}
	f := NewFlow(defaultValidator(), lookup)
	require.NoError(t, f.SetAddress(address.Address{Number: "1578"}))

	require.NoError(t, f.LookupPostalCode(context.Background(), "01310-100"))

	assert.Equal(t, []string{"01310100"}, lookup.calls)
	a := f.Address()
	assert.Equal(t, "01310-100", a.PostalCode)
	assert.Equal(t, "Avenida Paulista", a.Street)
	assert.Equal(t, "1578", a.Number)
	assert.Equal(t, "Bela Vista", a.Neighborhood)
	assert.NoError(t, f.LookupError())
	assert.True(t, f.AddressComplete())
}

func TestFlow_LookupFailureKeepsFields(t *testing.T) {
	manual := address.Address{
		Street: "Rua Manual",
		Number: "7",
		City:   "Recife",
		State:  "PE",
	}

	tests := []struct {
		name    string
		code    string
		lookup  *mockLookup
		wantErr error
	}{
		{
			name:    "not found",
			code:    "99999999",
			lookup:  &mockLookup{err: address.ErrNotFound},
			wantErr: errkind.ErrNotFound,
		},
		{
			name:    "transport error",
			code:    "50000000",
			lookup:  &mockLookup{err: errkind.Transient(errors.New("connection refused"))},
			wantErr: errkind.ErrTransient,
		},
		{
			name:    "malformed code",
			code:    "123",
			lookup:  &mockLookup{},
			wantErr: address.ErrMalformedPostalCode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFlow(defaultValidator(), tt.lookup)
			require.NoError(t, f.SetAddress(manual))

			err := f.LookupPostalCode(context.Background(), tt.code)
			require.ErrorIs(t, err, tt.wantErr)
			require.ErrorIs(t, f.LookupError(), tt.wantErr)

			a := f.Address()
			assert.Equal(t, "Rua Manual", a.Street)
			assert.Equal(t, "Recife", a.City)
			assert.Equal(t, address.FormatPostalCode(tt.code), a.PostalCode)

			require.NoError(t, f.ConfirmAddress(), "manual entry still works")
		})
	}
}

func TestFlow_LookupWithoutService(t *testing.T) {
	f := NewFlow(defaultValidator(), nil)
	err := f.LookupPostalCode(context.Background(), "01310100")
	require.ErrorIs(t, err, errkind.ErrTransient)
	assert.Equal(t, "01310-100", f.Address().PostalCode)
}

func TestParseStep(t *testing.T) {
	for st := StepAddress; st <= StepReview; st++ {
		got, err := ParseStep(st.String())
		require.NoError(t, err)
		assert.Equal(t, st, got)
	}
	_, err := ParseStep("confirmation")
	require.ErrorIs(t, err, errkind.ErrValidation)
}

func TestShippingOptions(t *testing.T) {
	opts := ShippingOptions()
	require.Len(t, opts, 3)
	assert.Equal(t, ShippingStandard, opts[0].Method)
	assert.True(t, decimal.RequireFromString("4.99").Equal(opts[0].ListPrice))
	assert.True(t, decimal.RequireFromString("14.99").Equal(opts[2].ListPrice))

	o, ok := ShippingExpress.Option()
	require.True(t, ok)
	assert.Equal(t, "Express Delivery", o.Label)
	assert.False(t, ShippingMethod("drone").Valid())
	assert.Equal(t, "PIX", PaymentPix.Label())
}
