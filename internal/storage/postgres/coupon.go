package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/domain/coupon"
)

const (
	getCouponByCodeSQL = `SELECT code, percent, description, valid_from, valid_until
		FROM coupons WHERE code = UPPER($1) AND active`

	upsertCouponSQL = `INSERT INTO coupons (code, percent, description, valid_from, valid_until, active)
		VALUES (UPPER($1), $2, $3, $4, $5, TRUE)
		ON CONFLICT (code) DO UPDATE SET
			percent = EXCLUDED.percent,
			description = EXCLUDED.description,
			valid_from = EXCLUDED.valid_from,
			valid_until = EXCLUDED.valid_until,
			active = TRUE`
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// FindByCode looks up an active coupon by its code. The SQL query applies
// UPPER() on the parameter, so the code is passed as-is.
// Returns coupon.ErrInvalidCoupon when no matching active coupon exists.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Rule, error) {
	var rule coupon.Rule
	err := r.pool.QueryRow(ctx, getCouponByCodeSQL, code).Scan(
		&rule.Code, &rule.Percent, &rule.Description, &rule.ValidFrom, &rule.ValidUntil,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrInvalidCoupon
		}
		return nil, unavailable(err, "finding coupon by code %q", code)
	}
	return &rule, nil
}

// Upsert stores or reactivates a coupon rule.
func (r *CouponRepository) Upsert(ctx context.Context, rule coupon.Rule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	if _, err := r.pool.Exec(ctx, upsertCouponSQL,
		rule.Code, rule.Percent, rule.Description, rule.ValidFrom, rule.ValidUntil,
	); err != nil {
		return unavailable(err, "upserting coupon %q", rule.Code)
	}
	return nil
}
