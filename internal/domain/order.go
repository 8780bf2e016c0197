package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	OrderPending       OrderStatus = "pending"
	OrderPaid          OrderStatus = "paid"
	OrderPaymentFailed OrderStatus = "payment_failed"
	OrderProcessing    OrderStatus = "processing"
	OrderShipped       OrderStatus = "shipped"
	OrderDelivered     OrderStatus = "delivered"
	OrderCancelled     OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:       {OrderPaid, OrderPaymentFailed, OrderCancelled},
	OrderPaymentFailed: {OrderCancelled},
	OrderPaid:          {OrderProcessing, OrderCancelled},
	OrderProcessing:    {OrderShipped},
	OrderShipped:       {OrderDelivered},
}

// CanTransition reports whether an order may move from s to next.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	return slices.Contains(orderTransitions[s], next)
}

// Terminal reports whether no further transitions exist.
func (s OrderStatus) Terminal() bool { return len(orderTransitions[s]) == 0 }

// ShippingAddress is captured at checkout.
type ShippingAddress struct {
	FullName   string `json:"full_name" validate:"required,max=120"`
	Phone      string `json:"phone" validate:"required,max=20"`
	Line1      string `json:"line1" validate:"required,max=200"`
	Line2      string `json:"line2,omitempty" validate:"max=200"`
	City       string `json:"city" validate:"required,max=100"`
	State      string `json:"state" validate:"required,max=100"`
	PostalCode string `json:"postal_code" validate:"required,max=20"`
	Country    string `json:"country" validate:"required,iso3166_1_alpha2"`
}

// OrderItem is a priced snapshot of a cart line at checkout time.
type OrderItem struct {
	ID              uuid.UUID      `json:"id"`
	OrderID         uuid.UUID      `json:"order_id"`
	ProductID       uuid.UUID      `json:"product_id"`
	ProductName     string         `json:"product_name"`
	UnitPrice       int64          `json:"unit_price"`
	Quantity        int            `json:"quantity"`
	Customization   *string        `json:"customization,omitempty"`
	SelectedOptions map[string]any `json:"selected_options,omitempty"`
}

// Order is a placed purchase owned by a user.
type Order struct {
	ID              uuid.UUID       `json:"id"`
	UserID          string          `json:"user_id"`
	Email           string          `json:"email"`
	Status          OrderStatus     `json:"status"`
	Items           []OrderItem     `json:"items"`
	Subtotal        int64           `json:"subtotal"`
	DiscountAmount  int64           `json:"discount_amount"`
	Total           int64           `json:"total"`
	Currency        string          `json:"currency"`
	CouponCode      *string         `json:"coupon_code,omitempty"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	PaymentProvider string          `json:"payment_provider"`
	PaymentRef      string          `json:"payment_ref,omitempty"`
	PaymentID       string          `json:"payment_id,omitempty"`
	TrackingNumber  *string         `json:"tracking_number,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// OrderStatusChange is the message pushed to order status subscribers.
type OrderStatusChange struct {
	OrderID        uuid.UUID   `json:"order_id"`
	UserID         string      `json:"user_id"`
	From           OrderStatus `json:"from"`
	To             OrderStatus `json:"to"`
	TrackingNumber *string     `json:"tracking_number,omitempty"`
	ChangedAt      time.Time   `json:"changed_at"`
}
