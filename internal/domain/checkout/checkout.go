// Package checkout drives the address, shipping, payment and review steps of
// a single checkout attempt.
package checkout

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/address"
	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/domain/errkind"
)

// Step is a stage of the linear checkout flow.
type Step int

const (
	StepAddress Step = iota + 1
	StepShipping
	StepPayment
	StepReview
)

func (s Step) String() string {
	switch s {
	case StepAddress:
		return "address"
	case StepShipping:
		return "shipping"
	case StepPayment:
		return "payment"
	case StepReview:
		return "review"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// ParseStep is the inverse of Step.String.
func ParseStep(s string) (Step, error) {
	for st := StepAddress; st <= StepReview; st++ {
		if st.String() == s {
			return st, nil
		}
	}
	return 0, errkind.Validation(errors.Errorf("unknown checkout step %q", s))
}

var (
	// ErrIncompleteAddress blocks leaving the address step.
	ErrIncompleteAddress = errkind.Validation(errors.New("address is incomplete"))
	// ErrNotAtReview is returned when the accumulated selection is requested
	// before the review step.
	ErrNotAtReview = errkind.Validation(errors.New("checkout has not reached review"))
)

// StepError reports an operation attempted at the wrong step.
type StepError struct {
	Op      string
	Current Step
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s is not allowed at the %s step", e.Op, e.Current)
}

// Is makes a StepError a validation error.
func (e *StepError) Is(target error) bool {
	return target == errkind.ErrValidation
}

// Selection is everything the shopper chose during checkout.
type Selection struct {
	Address         address.Address
	Shipping        ShippingMethod
	Payment         PaymentMethod
	CouponCode      string
	DiscountPercent decimal.Decimal
}

// Flow is the state of one checkout attempt. Moving forward requires the
// current step to be satisfied; moving back to any earlier step is always
// allowed and keeps what was entered. Flow is not safe for concurrent use.
type Flow struct {
	coupons coupon.Validator
	lookup  address.Lookup

	step      Step
	address   address.Address
	shipping  ShippingMethod
	payment   PaymentMethod
	coupon    string
	discount  decimal.Decimal
	lookupErr error
}

// NewFlow starts a checkout attempt at the address step. lookup may be nil,
// in which case postal code lookups fail and manual entry is required.
func NewFlow(coupons coupon.Validator, lookup address.Lookup) *Flow {
	return &Flow{
		coupons:  coupons,
		lookup:   lookup,
		step:     StepAddress,
		discount: decimal.Zero,
	}
}

// Step returns the current step.
func (f *Flow) Step() Step { return f.step }

// Address returns the address entered so far.
func (f *Flow) Address() address.Address { return f.address }

// Shipping returns the selected shipping method, if any.
func (f *Flow) Shipping() ShippingMethod { return f.shipping }

// Payment returns the selected payment method, if any.
func (f *Flow) Payment() PaymentMethod { return f.payment }

// Coupon returns the applied coupon code and its discount percentage.
func (f *Flow) Coupon() (string, decimal.Decimal) { return f.coupon, f.discount }

// LookupError returns the error of the last failed postal code lookup, or
// nil if the last lookup succeeded or none was made.
func (f *Flow) LookupError() error { return f.lookupErr }

// AddressComplete reports whether the address can be confirmed.
func (f *Flow) AddressComplete() bool { return f.address.Complete() }

// SetAddress replaces the address with manually entered values.
func (f *Flow) SetAddress(a address.Address) error {
	if f.step != StepAddress {
		return &StepError{Op: "editing the address", Current: f.step}
	}
	a.PostalCode = address.FormatPostalCode(a.PostalCode)
	f.address = a
	return nil
}

// LookupPostalCode records the postal code and fills the rest of the address
// from the lookup service. When the lookup fails the other fields stay as
// they were, the failure is kept as LookupError and returned so the shopper
// can fall back to manual entry.
func (f *Flow) LookupPostalCode(ctx context.Context, code string) error {
	if f.step != StepAddress {
		return &StepError{Op: "looking up a postal code", Current: f.step}
	}
	f.address.PostalCode = address.FormatPostalCode(code)
	f.lookupErr = nil

	normalized, err := address.NormalizePostalCode(code)
	if err != nil {
		f.lookupErr = err
		return err
	}
	if f.lookup == nil {
		f.lookupErr = errkind.Transient(errors.New("address lookup is not configured"))
		return f.lookupErr
	}

	fields, err := f.lookup.LookupAddress(ctx, normalized)
	if err != nil {
		f.lookupErr = err
		return errors.Wrap(err, "lookup postal code")
	}
	f.address = f.address.Fill(*fields)
	return nil
}

// ConfirmAddress advances to the shipping step once the address is complete.
func (f *Flow) ConfirmAddress() error {
	if f.step != StepAddress {
		return &StepError{Op: "confirming the address", Current: f.step}
	}
	if !f.address.Complete() {
		return ErrIncompleteAddress
	}
	f.step = StepShipping
	return nil
}

// SelectShipping records the shipping method and advances to payment.
func (f *Flow) SelectShipping(m ShippingMethod) error {
	if f.step != StepShipping {
		return &StepError{Op: "selecting shipping", Current: f.step}
	}
	if !m.Valid() {
		return ErrUnknownShippingMethod
	}
	f.shipping = m
	f.step = StepPayment
	return nil
}

// SelectPayment records the payment method and advances to review.
func (f *Flow) SelectPayment(m PaymentMethod) error {
	if f.step != StepPayment {
		return &StepError{Op: "selecting payment", Current: f.step}
	}
	if !m.Valid() {
		return ErrUnknownPaymentMethod
	}
	f.payment = m
	f.step = StepReview
	return nil
}

// Back returns to an earlier step without discarding entered data.
func (f *Flow) Back(to Step) error {
	if to < StepAddress || to >= f.step {
		return &StepError{Op: "going back to " + to.String(), Current: f.step}
	}
	f.step = to
	return nil
}

// ApplyCoupon validates code and stores its discount. An empty code removes
// an applied coupon. A rejected code resets the discount to zero and returns
// the validation error; submission is still possible without a coupon.
func (f *Flow) ApplyCoupon(ctx context.Context, code string) error {
	if f.step != StepReview {
		return &StepError{Op: "applying a coupon", Current: f.step}
	}
	f.coupon = ""
	f.discount = decimal.Zero

	if coupon.NormalizeCode(code) == "" {
		return nil
	}

	d, err := f.coupons.Validate(ctx, code)
	if err != nil {
		return err
	}
	f.coupon = d.Code
	f.discount = d.Percent
	return nil
}

// Selection returns the accumulated choices. It is only available at the
// review step.
func (f *Flow) Selection() (Selection, error) {
	if f.step != StepReview {
		return Selection{}, ErrNotAtReview
	}
	return Selection{
		Address:         f.address,
		Shipping:        f.shipping,
		Payment:         f.payment,
		CouponCode:      f.coupon,
		DiscountPercent: f.discount,
	}, nil
}
