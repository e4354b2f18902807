package coupon

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/errkind"
)

var (
	// ErrInvalidCoupon is returned when a coupon code is unknown.
	ErrInvalidCoupon = errkind.Validation(errors.New("invalid coupon code"))
	// ErrCouponExpired is returned when a coupon is outside its valid time window.
	ErrCouponExpired = errkind.Validation(errors.New("coupon expired"))
)

var hundred = decimal.NewFromInt(100)

// Rule defines a percentage discount unlocked by a coupon code.
type Rule struct {
	Code        string
	Percent     decimal.Decimal
	Description string
	ValidFrom   *time.Time
	ValidUntil  *time.Time
}

// Validate checks that the percentage lies within 0–100.
func (r Rule) Validate() error {
	if r.Percent.IsNegative() || r.Percent.GreaterThan(hundred) {
		return errors.Errorf("coupon %s: percent %s out of range 0-100", r.Code, r.Percent)
	}
	return nil
}

// Discount is the outcome of a successfully validated coupon.
type Discount struct {
	Code        string
	Percent     decimal.Decimal
	Description string
}

// Repository provides lookup of coupon rules by normalized code.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Rule, error)
}

// NormalizeCode upper-cases and trims a user supplied code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Defaults are the storefront's built-in coupons.
func Defaults() []Rule {
	return []Rule{
		{Code: "SAVE20", Percent: decimal.NewFromInt(20), Description: "20% off your order"},
		{Code: "WELCOME10", Percent: decimal.NewFromInt(10), Description: "Welcome: 10% off"},
	}
}
