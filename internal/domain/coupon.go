package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// CouponType selects how Value is interpreted.
type CouponType string

const (
	// CouponPercentage values are basis points: 1000 means 10%.
	CouponPercentage  CouponType = "percentage"
	CouponFixedAmount CouponType = "fixed_amount"
)

// Coupon is a redeemable discount code. Amounts are minor units.
type Coupon struct {
	ID             uuid.UUID  `json:"id"`
	Code           string     `json:"code"`
	Description    string     `json:"description,omitempty"`
	Type           CouponType `json:"type"`
	Value          int64      `json:"value"`
	MinOrderAmount int64      `json:"min_order_amount"`
	MaxDiscount    *int64     `json:"max_discount,omitempty"`
	UsageLimit     *int       `json:"usage_limit,omitempty"`
	UsageCount     int        `json:"usage_count"`
	PerUserLimit   *int       `json:"per_user_limit,omitempty"`
	StartsAt       time.Time  `json:"starts_at"`
	EndsAt         *time.Time `json:"ends_at,omitempty"`
	IsActive       bool       `json:"is_active"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// NormalizeCouponCode canonicalises user input before lookup.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Discount computes the amount taken off orderAmount, never more than
// the order itself.
func (c *Coupon) Discount(orderAmount int64) int64 {
	var discount int64
	switch c.Type {
	case CouponPercentage:
		// Split by whole units first so large amounts cannot overflow.
		discount = orderAmount/10000*c.Value + orderAmount%10000*c.Value/10000
		if c.MaxDiscount != nil && discount > *c.MaxDiscount {
			discount = *c.MaxDiscount
		}
	case CouponFixedAmount:
		discount = c.Value
	}
	if discount > orderAmount {
		discount = orderAmount
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}

// CouponValidation is the answer to "can I use this code on this order".
// Invalid codes are a normal result, not an error.
type CouponValidation struct {
	Valid          bool   `json:"valid"`
	Code           string `json:"code"`
	DiscountAmount int64  `json:"discount_amount"`
	FinalAmount    int64  `json:"final_amount"`
	Message        string `json:"message,omitempty"`
}
