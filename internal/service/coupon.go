package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/domain"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/repository"
	apperrors "github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/errors"
)

// ValidateCouponInput is the body of a coupon check.
type ValidateCouponInput struct {
	Code        string `json:"code" validate:"required,min=1,max=50"`
	OrderAmount int64  `json:"order_amount" validate:"gte=0,lte=100000000000000"`
}

// CouponService answers whether a code applies to an order.
type CouponService struct {
	coupons repository.CouponRepository
	logger  *slog.Logger
	now     func() time.Time
}

func NewCouponService(coupons repository.CouponRepository, logger *slog.Logger) *CouponService {
	return &CouponService{coupons: coupons, logger: logger, now: time.Now}
}

// Validate checks a code against an order amount. userID is optional;
// per-user limits are only enforced when it is set. A code that does not
// apply yields Valid=false with a message, never an error.
func (s *CouponService) Validate(ctx context.Context, code string, orderAmount int64, userID string) (*domain.CouponValidation, error) {
	normalized := domain.NormalizeCouponCode(code)
	result, _, err := s.validate(ctx, normalized, orderAmount, userID)
	if err != nil {
		couponValidations.WithLabelValues("error").Inc()
		return nil, err
	}
	if result.Valid {
		couponValidations.WithLabelValues("valid").Inc()
	} else {
		couponValidations.WithLabelValues("invalid").Inc()
	}
	return result, nil
}

func (s *CouponService) validate(ctx context.Context, code string, orderAmount int64, userID string) (*domain.CouponValidation, *domain.Coupon, error) {
	invalid := func(msg string) (*domain.CouponValidation, *domain.Coupon, error) {
		return &domain.CouponValidation{Valid: false, Code: code, FinalAmount: orderAmount, Message: msg}, nil, nil
	}
	if code == "" {
		return invalid("coupon code is required")
	}
	if orderAmount < 0 {
		return nil, nil, apperrors.InvalidInput("order amount must not be negative")
	}

	coupon, err := s.coupons.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return invalid("coupon not found")
		}
		return nil, nil, fmt.Errorf("get coupon: %w", err)
	}

	now := s.now().UTC()
	switch {
	case !coupon.IsActive:
		return invalid("coupon is not active")
	case now.Before(coupon.StartsAt):
		return invalid("coupon is not valid yet")
	case coupon.EndsAt != nil && now.After(*coupon.EndsAt):
		return invalid("coupon has expired")
	case coupon.UsageLimit != nil && coupon.UsageCount >= *coupon.UsageLimit:
		return invalid("coupon usage limit reached")
	case orderAmount < coupon.MinOrderAmount:
		return invalid(fmt.Sprintf("minimum order amount is %d", coupon.MinOrderAmount))
	}

	if coupon.PerUserLimit != nil && userID != "" {
		used, err := s.coupons.CountRedemptions(ctx, coupon.ID, userID)
		if err != nil {
			return nil, nil, fmt.Errorf("count coupon redemptions: %w", err)
		}
		if used >= *coupon.PerUserLimit {
			return invalid("you have already used this coupon")
		}
	}

	discount := coupon.Discount(orderAmount)
	return &domain.CouponValidation{
		Valid:          true,
		Code:           coupon.Code,
		DiscountAmount: discount,
		FinalAmount:    orderAmount - discount,
		Message:        "coupon applied",
	}, coupon, nil
}
