package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Validator validates a coupon code and returns the discount it unlocks.
type Validator interface {
	Validate(ctx context.Context, code string) (*Discount, error)
}

// RepoValidator implements Validator by looking up coupon rules from a
// Repository.
type RepoValidator struct {
	repo Repository
	now  func() time.Time
}

// NewRepoValidator creates a RepoValidator backed by the given Repository.
func NewRepoValidator(repo Repository) *RepoValidator {
	return &RepoValidator{repo: repo, now: time.Now}
}

// Validate looks up the rule for the case-insensitive code and checks its
// validity window.
func (v *RepoValidator) Validate(ctx context.Context, code string) (*Discount, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, ErrInvalidCoupon
	}

	rule, err := v.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrInvalidCoupon) {
			return nil, ErrInvalidCoupon
		}
		return nil, errors.Wrap(err, "lookup coupon")
	}

	now := v.now()
	if rule.ValidFrom != nil && now.Before(*rule.ValidFrom) {
		return nil, ErrCouponExpired
	}
	if rule.ValidUntil != nil && now.After(*rule.ValidUntil) {
		return nil, ErrCouponExpired
	}
	if err := rule.Validate(); err != nil {
		return nil, err
	}

	return &Discount{
		Code:        rule.Code,
		Percent:     rule.Percent,
		Description: rule.Description,
	}, nil
}
