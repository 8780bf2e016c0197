package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/domain"
	pkgkafka "github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/kafka"
)

// TopicOrderStatusChanged carries fulfilment updates from the back office.
var TopicOrderStatusChanged = pkgkafka.Topic("order", "status_changed")

// ConsumerGroupID is the storefront's consumer group.
const ConsumerGroupID = "storefront"

// StatusChangedData is the payload of order.status_changed.
type StatusChangedData struct {
	OrderID        string  `json:"order_id"`
	Status         string  `json:"status"`
	TrackingNumber *string `json:"tracking_number,omitempty"`
}

// StatusApplier moves an order to a new status and notifies subscribers.
type StatusApplier interface {
	ApplyStatusChange(ctx context.Context, orderID uuid.UUID, to domain.OrderStatus, tracking *string) error
}

// ConsumerHandler routes consumed events.
type ConsumerHandler struct {
	orders StatusApplier
	logger *slog.Logger
}

func NewConsumerHandler(orders StatusApplier, logger *slog.Logger) *ConsumerHandler {
	return &ConsumerHandler{orders: orders, logger: logger}
}

// Handle dispatches on event type. Unknown types are logged and skipped.
func (h *ConsumerHandler) Handle(ctx context.Context, evt *pkgkafka.Event) error {
	switch evt.EventType {
	case TopicOrderStatusChanged:
		return h.handleStatusChanged(ctx, evt)
	default:
		h.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", evt.EventType),
			slog.String("event_id", evt.EventID),
		)
		return nil
	}
}

func (h *ConsumerHandler) handleStatusChanged(ctx context.Context, evt *pkgkafka.Event) error {
	var data StatusChangedData
	if err := evt.UnmarshalData(&data); err != nil {
		return fmt.Errorf("decode status change: %w", err)
	}
	id, err := uuid.Parse(data.OrderID)
	if err != nil {
		return fmt.Errorf("decode status change order id: %w", err)
	}

	h.logger.InfoContext(ctx, "applying order status change",
		slog.String("order_id", data.OrderID),
		slog.String("status", data.Status),
	)
	return h.orders.ApplyStatusChange(ctx, id, domain.OrderStatus(data.Status), data.TrackingNumber)
}

// NewStatusConsumer builds the order.status_changed consumer with
// duplicate suppression and dead-lettering.
func NewStatusConsumer(brokers []string, handler *ConsumerHandler, store pkgkafka.IdempotencyStore, dlq *pkgkafka.DLQProducer, logger *slog.Logger) *pkgkafka.Consumer {
	h := handler.Handle
	if store != nil {
		h = pkgkafka.IdempotentHandler(store, TopicOrderStatusChanged, ConsumerGroupID, h, logger)
	}
	return pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
		Brokers:  brokers,
		GroupID:  ConsumerGroupID,
		Topic:    TopicOrderStatusChanged,
		MinBytes: 1,
		MaxBytes: 10e6,
	}, h, dlq, logger)
}
