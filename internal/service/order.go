package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/domain"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/repository"
	apperrors "github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/errors"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/logger"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/pagination"
)

// OrderService reads orders and drives their status after payment.
type OrderService struct {
	orders repository.OrderRepository
	broker repository.OrderStatusBroker
	logger *slog.Logger
}

// NewOrderService creates an order service. broker may be nil, in which
// case status changes are stored but not pushed to subscribers.
func NewOrderService(orders repository.OrderRepository, broker repository.OrderStatusBroker, logger *slog.Logger) *OrderService {
	return &OrderService{orders: orders, broker: broker, logger: logger}
}

func (s *OrderService) List(ctx context.Context, userID string, p pagination.Params) (pagination.Result[domain.Order], error) {
	if userID == "" {
		return pagination.Result[domain.Order]{}, apperrors.Unauthorized("authentication required")
	}
	p = normalizePage(p.Page, p.PerPage)
	orders, total, err := s.orders.ListByUser(ctx, userID, p.Page, p.PerPage)
	if err != nil {
		return pagination.Result[domain.Order]{}, fmt.Errorf("list orders: %w", err)
	}
	return pagination.NewResult(orders, total, p), nil
}

// Get returns an order the user owns.
func (s *OrderService) Get(ctx context.Context, userID string, id uuid.UUID) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, apperrors.Forbidden("order belongs to another account")
	}
	return order, nil
}

// Subscribe returns the order as it is now plus a feed of later changes.
// The feed is opened before the order is read so no change is missed in
// between.
func (s *OrderService) Subscribe(ctx context.Context, userID string, id uuid.UUID) (*domain.Order, <-chan domain.OrderStatusChange, func(), error) {
	if s.broker == nil {
		return nil, nil, nil, apperrors.Unavailable("order status feed", fmt.Errorf("no broker configured"))
	}
	changes, cancel, err := s.broker.Subscribe(ctx, id)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("subscribe order status: %w", err)
	}
	order, err := s.Get(ctx, userID, id)
	if err != nil {
		cancel()
		return nil, nil, nil, err
	}
	return order, changes, cancel, nil
}

// Cancel lets the buyer abandon an order that has not been paid.
func (s *OrderService) Cancel(ctx context.Context, userID string, id uuid.UUID) (*domain.Order, error) {
	order, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if order.Status != domain.OrderPending && order.Status != domain.OrderPaymentFailed {
		return nil, apperrors.Conflict(fmt.Sprintf("an order that is %s cannot be cancelled", order.Status))
	}
	if err := s.transition(ctx, order, domain.OrderCancelled, nil); err != nil {
		return nil, err
	}
	return s.orders.GetByID(ctx, id)
}

// ApplyStatusChange moves an order to status as reported by fulfilment.
// Repeating a change the order already reflects is a no-op.
func (s *OrderService) ApplyStatusChange(ctx context.Context, id uuid.UUID, status domain.OrderStatus, tracking *string) error {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if order.Status == status {
		return nil
	}
	if !order.Status.CanTransition(status) {
		return apperrors.InvalidInput(fmt.Sprintf("order cannot move from %s to %s", order.Status, status))
	}
	return s.transition(ctx, order, status, tracking)
}

func (s *OrderService) transition(ctx context.Context, order *domain.Order, to domain.OrderStatus, tracking *string) error {
	from := order.Status
	if err := s.orders.UpdateStatus(ctx, order.ID, from, to, tracking); err != nil {
		return err
	}
	logger.WithContext(ctx, s.logger).InfoContext(ctx, "order status changed",
		slog.String("order_id", order.ID.String()),
		slog.String("from", string(from)),
		slog.String("to", string(to)),
	)
	notifyStatus(ctx, s.broker, s.logger, domain.OrderStatusChange{
		OrderID:        order.ID,
		UserID:         order.UserID,
		From:           from,
		To:             to,
		TrackingNumber: tracking,
		ChangedAt:      time.Now().UTC(),
	})
	return nil
}

// notifyStatus pushes a change to live subscribers. Delivery is best
// effort; the stored status is authoritative.
func notifyStatus(ctx context.Context, broker repository.OrderStatusBroker, l *slog.Logger, change domain.OrderStatusChange) {
	if broker == nil {
		return
	}
	if err := broker.Publish(ctx, change); err != nil {
		logger.WithContext(ctx, l).WarnContext(ctx, "failed to publish order status",
			slog.String("order_id", change.OrderID.String()),
			slog.String("error", err.Error()),
		)
	}
}
