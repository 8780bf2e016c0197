package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/domain"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/event"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/payment"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/repository"
	apperrors "github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/errors"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/logger"
)

// CheckoutInput is the body of a checkout request.
type CheckoutInput struct {
	Provider        domain.PaymentProvider `json:"provider" validate:"required,oneof=hosted widget"`
	Email           string                 `json:"email" validate:"omitempty,email"`
	CouponCode      string                 `json:"coupon_code" validate:"omitempty,max=50"`
	ShippingAddress domain.ShippingAddress `json:"shipping_address" validate:"required"`
}

// CheckoutResult is the placed order and how to pay for it.
type CheckoutResult struct {
	Order   *domain.Order          `json:"order"`
	Payment *domain.PaymentSession `json:"payment"`
}

// CheckoutService turns a user's cart into an order and settles payment.
type CheckoutService struct {
	carts    repository.CartRepository
	orders   repository.OrderRepository
	coupons  *CouponService
	payments *payment.Registry
	broker   repository.OrderStatusBroker
	producer *event.Producer
	currency string
	logger   *slog.Logger
}

func NewCheckoutService(
	carts repository.CartRepository,
	orders repository.OrderRepository,
	coupons *CouponService,
	payments *payment.Registry,
	broker repository.OrderStatusBroker,
	producer *event.Producer,
	currency string,
	logger *slog.Logger,
) *CheckoutService {
	return &CheckoutService{
		carts:    carts,
		orders:   orders,
		coupons:  coupons,
		payments: payments,
		broker:   broker,
		producer: producer,
		currency: currency,
		logger:   logger,
	}
}

// Checkout snapshots the user's cart into a pending order, reserving stock,
// and opens a payment with the chosen provider. The cart is left intact
// until the payment succeeds.
func (s *CheckoutService) Checkout(ctx context.Context, userID, email string, in CheckoutInput) (*CheckoutResult, error) {
	if userID == "" {
		return nil, apperrors.Unauthorized("sign in to check out")
	}
	if in.Email != "" {
		email = in.Email
	}
	if email == "" {
		return nil, apperrors.InvalidInput("an email address is required for the receipt")
	}
	provider, err := s.payments.Get(in.Provider)
	if err != nil {
		return nil, err
	}

	lines, err := s.carts.ListByOwner(ctx, domain.UserOwner(userID))
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if len(lines) == 0 {
		return nil, apperrors.InvalidInput("cart is empty")
	}

	order := &domain.Order{
		ID:              uuid.New(),
		UserID:          userID,
		Email:           email,
		Status:          domain.OrderPending,
		Currency:        s.currency,
		ShippingAddress: in.ShippingAddress,
		PaymentProvider: string(provider.Name()),
	}
	for _, line := range lines {
		if !line.InStock {
			return nil, apperrors.Conflict(fmt.Sprintf("%s is out of stock", line.ProductName))
		}
		order.Items = append(order.Items, domain.OrderItem{
			ID:              uuid.New(),
			OrderID:         order.ID,
			ProductID:       line.ProductID,
			ProductName:     line.ProductName,
			UnitPrice:       line.UnitPrice,
			Quantity:        line.Quantity,
			Customization:   line.Customization,
			SelectedOptions: line.SelectedOptions,
		})
		order.Subtotal += line.LineTotal()
	}

	if code := strings.TrimSpace(in.CouponCode); code != "" {
		validation, _, err := s.coupons.validate(ctx, domain.NormalizeCouponCode(code), order.Subtotal, userID)
		if err != nil {
			return nil, err
		}
		if !validation.Valid {
			return nil, apperrors.InvalidInput(validation.Message)
		}
		order.CouponCode = &validation.Code
		order.DiscountAmount = validation.DiscountAmount
	}
	order.Total = order.Subtotal - order.DiscountAmount

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}
	log := logger.WithContext(ctx, s.logger).With(slog.String("order_id", order.ID.String()))
	log.InfoContext(ctx, "order placed",
		slog.Int64("total", order.Total),
		slog.Int("items", len(order.Items)),
		slog.String("provider", order.PaymentProvider),
	)
	if err := s.producer.PublishOrderCreated(ctx, order); err != nil {
		log.ErrorContext(ctx, "failed to publish order created event", slog.String("error", err.Error()))
	}

	session, err := provider.CreatePayment(ctx, payment.CreateInput{
		OrderID:     order.ID,
		Amount:      order.Total,
		Currency:    order.Currency,
		Email:       order.Email,
		Description: fmt.Sprintf("Order %s", order.ID.String()[:8]),
		Metadata:    map[string]string{"order_id": order.ID.String(), "user_id": userID},
	})
	if err != nil {
		log.ErrorContext(ctx, "failed to open payment", slog.String("error", err.Error()))
		if ferr := s.fail(ctx, order, "could not start payment"); ferr != nil {
			log.ErrorContext(ctx, "failed to mark order payment_failed", slog.String("error", ferr.Error()))
		}
		return nil, err
	}
	if err := s.orders.SetPaymentRef(ctx, order.ID, session.Reference); err != nil {
		log.ErrorContext(ctx, "failed to record payment reference",
			slog.String("reference", session.Reference),
			slog.String("error", err.Error()),
		)
		if ferr := s.fail(ctx, order, "could not record payment reference"); ferr != nil {
			log.ErrorContext(ctx, "failed to mark order payment_failed", slog.String("error", ferr.Error()))
		}
		return nil, err
	}
	order.PaymentRef = session.Reference

	return &CheckoutResult{Order: order, Payment: session}, nil
}

// VerifyWidget settles a widget payment from the signed result the client
// relays. A bad signature fails the order.
func (s *CheckoutService) VerifyWidget(ctx context.Context, userID string, v domain.PaymentVerification) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, v.OrderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, apperrors.Forbidden("order belongs to another account")
	}
	provider, err := s.payments.Get(domain.PaymentProvider(order.PaymentProvider))
	if err != nil {
		return nil, err
	}
	verifier, ok := provider.(payment.CallbackVerifier)
	if !ok {
		return nil, apperrors.InvalidInput(fmt.Sprintf("%s payments are confirmed by webhook", order.PaymentProvider))
	}

	if order.Status == domain.OrderPaid && order.PaymentID == v.PaymentID {
		return order, nil
	}
	if err := verifier.VerifyCallback(v, order.PaymentRef); err != nil {
		if ferr := s.fail(ctx, order, err.Error()); ferr != nil {
			logger.WithContext(ctx, s.logger).ErrorContext(ctx, "failed to mark order payment_failed",
				slog.String("order_id", order.ID.String()),
				slog.String("error", ferr.Error()),
			)
		}
		return nil, err
	}
	return s.complete(ctx, order, v.PaymentID)
}

// HandleWebhook applies a provider webhook. Events that do not concern an
// order we know are acknowledged and dropped.
func (s *CheckoutService) HandleWebhook(ctx context.Context, providerName domain.PaymentProvider, header http.Header, body []byte) error {
	provider, err := s.payments.Get(providerName)
	if err != nil {
		return err
	}
	parser, ok := provider.(payment.WebhookParser)
	if !ok {
		return apperrors.InvalidInput(fmt.Sprintf("%s does not send webhooks", providerName))
	}
	outcome, err := parser.ParseWebhook(header, body)
	if err != nil || outcome == nil {
		return err
	}

	log := logger.WithContext(ctx, s.logger).With(slog.String("reference", outcome.Reference))
	order, err := s.orders.GetByPaymentRef(ctx, outcome.Reference)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			log.WarnContext(ctx, "webhook for unknown payment reference")
			return nil
		}
		return err
	}

	if outcome.Succeeded {
		_, err = s.complete(ctx, order, outcome.PaymentID)
		return err
	}
	return s.fail(ctx, order, outcome.Reason)
}

func (s *CheckoutService) complete(ctx context.Context, order *domain.Order, paymentID string) (*domain.Order, error) {
	if order.Status == domain.OrderPaid {
		return order, nil
	}
	if order.Status != domain.OrderPending {
		return nil, apperrors.Conflict(fmt.Sprintf("order is %s and cannot be paid", order.Status))
	}

	paid, err := s.orders.CompletePayment(ctx, order.ID, paymentID)
	if err != nil {
		return nil, err
	}
	paymentOutcomes.WithLabelValues(paid.PaymentProvider, "succeeded").Inc()

	log := logger.WithContext(ctx, s.logger).With(slog.String("order_id", paid.ID.String()))
	log.InfoContext(ctx, "payment succeeded", slog.String("payment_id", paymentID))

	notifyStatus(ctx, s.broker, s.logger, domain.OrderStatusChange{
		OrderID:   paid.ID,
		UserID:    paid.UserID,
		From:      domain.OrderPending,
		To:        domain.OrderPaid,
		ChangedAt: time.Now().UTC(),
	})
	if err := s.producer.PublishPaymentSucceeded(ctx, paid); err != nil {
		log.ErrorContext(ctx, "failed to publish payment succeeded event", slog.String("error", err.Error()))
	}
	return paid, nil
}

// fail moves a pending order to payment_failed and releases its stock.
// Orders that already left pending are left alone.
func (s *CheckoutService) fail(ctx context.Context, order *domain.Order, reason string) error {
	if order.Status != domain.OrderPending {
		return nil
	}
	if err := s.orders.UpdateStatus(ctx, order.ID, domain.OrderPending, domain.OrderPaymentFailed, nil); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil
		}
		return err
	}
	order.Status = domain.OrderPaymentFailed
	paymentOutcomes.WithLabelValues(order.PaymentProvider, "failed").Inc()

	log := logger.WithContext(ctx, s.logger).With(slog.String("order_id", order.ID.String()))
	log.WarnContext(ctx, "payment failed", slog.String("reason", reason))

	notifyStatus(ctx, s.broker, s.logger, domain.OrderStatusChange{
		OrderID:   order.ID,
		UserID:    order.UserID,
		From:      domain.OrderPending,
		To:        domain.OrderPaymentFailed,
		ChangedAt: time.Now().UTC(),
	})
	if err := s.producer.PublishPaymentFailed(ctx, order, reason); err != nil {
		log.ErrorContext(ctx, "failed to publish payment failed event", slog.String("error", err.Error()))
	}
	return nil
}
