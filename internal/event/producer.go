// Package event publishes storefront domain events and consumes the order
// status feed.
package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/domain"
	pkgkafka "github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/kafka"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/logger"
)

// Topics produced by the storefront.
var (
	TopicCartMerged            = pkgkafka.Topic("cart", "merged")
	TopicOrderCreated          = pkgkafka.Topic("order", "created")
	TopicPaymentSucceeded      = pkgkafka.Topic("payment", "succeeded")
	TopicPaymentFailed         = pkgkafka.Topic("payment", "failed")
	TopicSupportMessageCreated = pkgkafka.Topic("support", "message_created")
	TopicCustomOrderRequested  = pkgkafka.Topic("custom_order", "requested")
)

// Source identifies this service in event envelopes.
const Source = "storefront"

// Publisher is satisfied by *pkgkafka.Producer.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// CartMergedData is the payload of cart.merged.
type CartMergedData struct {
	SessionID           string `json:"session_id"`
	UserID              string `json:"user_id"`
	CartSummed          int    `json:"cart_summed"`
	CartTransferred     int    `json:"cart_transferred"`
	WishlistDropped     int    `json:"wishlist_dropped"`
	WishlistTransferred int    `json:"wishlist_transferred"`
	Failed              int    `json:"failed"`
}

// OrderData is the payload of order and payment events.
type OrderData struct {
	OrderID   string `json:"order_id"`
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Status    string `json:"status"`
	Total     int64  `json:"total"`
	Currency  string `json:"currency"`
	Provider  string `json:"provider"`
	PaymentID string `json:"payment_id,omitempty"`
	Reason    string `json:"reason,omitempty"`
	ItemCount int    `json:"item_count"`
}

func orderData(o *domain.Order, reason string) OrderData {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return OrderData{
		OrderID:   o.ID.String(),
		UserID:    o.UserID,
		Email:     o.Email,
		Status:    string(o.Status),
		Total:     o.Total,
		Currency:  o.Currency,
		Provider:  o.PaymentProvider,
		PaymentID: o.PaymentID,
		Reason:    reason,
		ItemCount: n,
	}
}

// Producer publishes typed storefront events.
type Producer struct {
	pub    Publisher
	logger *slog.Logger
}

// NewProducer wraps a publisher. A nil publisher turns every publish into
// a no-op, which is how the service runs without Kafka configured.
func NewProducer(pub Publisher, logger *slog.Logger) *Producer {
	return &Producer{pub: pub, logger: logger}
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	if p == nil || p.pub == nil {
		return nil
	}
	evt, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, Source, data)
	if err != nil {
		return err
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		evt.WithCorrelationID(id)
	}
	if err := p.pub.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	p.logger.DebugContext(ctx, "event published",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}

func (p *Producer) PublishCartMerged(ctx context.Context, data CartMergedData) error {
	return p.publish(ctx, TopicCartMerged, data.UserID, "cart", data)
}

func (p *Producer) PublishOrderCreated(ctx context.Context, o *domain.Order) error {
	return p.publish(ctx, TopicOrderCreated, o.ID.String(), "order", orderData(o, ""))
}

func (p *Producer) PublishPaymentSucceeded(ctx context.Context, o *domain.Order) error {
	return p.publish(ctx, TopicPaymentSucceeded, o.ID.String(), "order", orderData(o, ""))
}

func (p *Producer) PublishPaymentFailed(ctx context.Context, o *domain.Order, reason string) error {
	return p.publish(ctx, TopicPaymentFailed, o.ID.String(), "order", orderData(o, reason))
}

func (p *Producer) PublishSupportMessageCreated(ctx context.Context, m *domain.SupportMessage) error {
	return p.publish(ctx, TopicSupportMessageCreated, m.ID.String(), "support_message", m)
}

func (p *Producer) PublishCustomOrderRequested(ctx context.Context, co *domain.CustomOrder) error {
	return p.publish(ctx, TopicCustomOrderRequested, co.ID.String(), "custom_order", co)
}
