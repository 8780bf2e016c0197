package domain

import "github.com/google/uuid"

// PaymentProvider names a configured payment integration.
type PaymentProvider string

const (
	// ProviderHosted redirects the buyer to the provider's checkout page.
	ProviderHosted PaymentProvider = "hosted"
	// ProviderWidget opens an in-page widget and returns a signed result.
	ProviderWidget PaymentProvider = "widget"
)

// PaymentSession is what the client needs to start paying for an order.
// Hosted providers fill RedirectURL; widget providers fill the widget fields.
type PaymentSession struct {
	OrderID     uuid.UUID       `json:"order_id"`
	Provider    PaymentProvider `json:"provider"`
	Reference   string          `json:"reference"`
	Amount      int64           `json:"amount"`
	Currency    string          `json:"currency"`
	RedirectURL string          `json:"redirect_url,omitempty"`
	WidgetKey   string          `json:"widget_key,omitempty"`
	WidgetOrder string          `json:"widget_order_id,omitempty"`
}

// PaymentVerification is the signed result a widget hands back to the
// client, forwarded to the server for checking.
type PaymentVerification struct {
	OrderID   uuid.UUID `json:"order_id" validate:"required"`
	Reference string    `json:"reference" validate:"required"`
	PaymentID string    `json:"payment_id" validate:"required"`
	Signature string    `json:"signature" validate:"required"`
}

// PaymentOutcome is a provider's final word on a payment.
type PaymentOutcome struct {
	Reference string `json:"reference"`
	PaymentID string `json:"payment_id"`
	Succeeded bool   `json:"succeeded"`
	Reason    string `json:"reason,omitempty"`
}
