package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/domain"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/database"
)

// CouponRepository implements repository.CouponRepository.
type CouponRepository struct {
	db database.DBTX
}

func NewCouponRepository(db database.DBTX) *CouponRepository {
	return &CouponRepository{db: db}
}

// GetByCode looks a coupon up by its normalised code.
func (r *CouponRepository) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	var c domain.Coupon
	err := r.db.QueryRow(ctx, `
		SELECT id, code, description, type, value, min_order_amount, max_discount, usage_limit,
		       usage_count, per_user_limit, starts_at, ends_at, is_active, created_at, updated_at
		FROM coupons
		WHERE code = $1`, code,
	).Scan(
		&c.ID, &c.Code, &c.Description, &c.Type, &c.Value, &c.MinOrderAmount, &c.MaxDiscount,
		&c.UsageLimit, &c.UsageCount, &c.PerUserLimit, &c.StartsAt, &c.EndsAt, &c.IsActive,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, notFoundOr(err, "coupon", code, "get")
	}
	return &c, nil
}

// CountRedemptions returns how many paid orders a user placed with a coupon.
func (r *CouponRepository) CountRedemptions(ctx context.Context, couponID uuid.UUID, userID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM coupon_redemptions WHERE coupon_id = $1 AND user_id = $2`,
		couponID, userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count coupon redemptions: %w", err)
	}
	return n, nil
}

// CurrencyRepository implements repository.CurrencyRepository.
type CurrencyRepository struct {
	db database.DBTX
}

func NewCurrencyRepository(db database.DBTX) *CurrencyRepository {
	return &CurrencyRepository{db: db}
}

// ListActive returns the active rate table ordered by code.
func (r *CurrencyRepository) ListActive(ctx context.Context) ([]domain.CurrencyRate, error) {
	rows, err := r.db.Query(ctx, `
		SELECT code, rate, symbol, locale, is_active, updated_at
		FROM currency_rates
		WHERE is_active
		ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list currency rates: %w", err)
	}
	defer rows.Close()

	rates := []domain.CurrencyRate{}
	for rows.Next() {
		var cr domain.CurrencyRate
		if err := rows.Scan(&cr.Code, &cr.Rate, &cr.Symbol, &cr.Locale, &cr.IsActive, &cr.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan currency rate: %w", err)
		}
		rates = append(rates, cr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate currency rates: %w", err)
	}
	return rates, nil
}
