package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/domain"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/event"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/payment"
	apperrors "github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/errors"
)

// --- Fake gateways ---

type fakeWidget struct {
	createErr error
	verifyErr error
	created   []payment.CreateInput
}

func (f *fakeWidget) Name() domain.PaymentProvider { return domain.ProviderWidget }

func (f *fakeWidget) CreatePayment(_ context.Context, in payment.CreateInput) (*domain.PaymentSession, error) {
	f.created = append(f.created, in)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &domain.PaymentSession{OrderID: in.OrderID, Provider: domain.ProviderWidget, Reference: "order_abc", Amount: in.Amount, Currency: in.Currency, WidgetOrder: "order_abc", WidgetKey: "key"}, nil
}

func (f *fakeWidget) VerifyCallback(domain.PaymentVerification, string) error { return f.verifyErr }

type fakeHosted struct {
	outcome *domain.PaymentOutcome
	err     error
}

func (f *fakeHosted) Name() domain.PaymentProvider { return domain.ProviderHosted }

func (f *fakeHosted) CreatePayment(_ context.Context, in payment.CreateInput) (*domain.PaymentSession, error) {
	return &domain.PaymentSession{OrderID: in.OrderID, Provider: domain.ProviderHosted, Reference: "cs_1", RedirectURL: "https://pay.test/cs_1"}, nil
}

func (f *fakeHosted) ParseWebhook(http.Header, []byte) (*domain.PaymentOutcome, error) {
	return f.outcome, f.err
}

type checkoutFixture struct {
	svc     *CheckoutService
	carts   *mockCartRepository
	orders  *mockOrderRepository
	coupons *mockCouponRepository
	widget  *fakeWidget
	hosted  *fakeHosted
	pub     *recordingPublisher
}

func newCheckoutFixture() *checkoutFixture {
	f := &checkoutFixture{
		carts:   new(mockCartRepository),
		orders:  new(mockOrderRepository),
		coupons: new(mockCouponRepository),
		widget:  &fakeWidget{},
		hosted:  &fakeHosted{},
		pub:     &recordingPublisher{},
	}
	logger := newTestLogger()
	couponSvc := NewCouponService(f.coupons, logger)
	couponSvc.now = func() time.Time { return couponNow }
	f.svc = NewCheckoutService(
		f.carts, f.orders, couponSvc,
		payment.NewRegistry(f.widget, f.hosted),
		nil, event.NewProducer(f.pub, logger), "INR", logger,
	)
	return f
}

var testAddress = domain.ShippingAddress{
	FullName: "Asha Rao", Phone: "9999999999", Line1: "12 MG Road",
	City: "Bengaluru", State: "KA", PostalCode: "560001", Country: "IN",
}

func userCart() []domain.CartLine {
	return []domain.CartLine{
		{ID: uuid.New(), ProductID: productA, Owner: domain.UserOwner("user-1"), Quantity: 2, UnitPrice: 50000, ProductName: "Hamper", InStock: true},
		{ID: uuid.New(), ProductID: productB, Owner: domain.UserOwner("user-1"), Quantity: 1, UnitPrice: 25000, ProductName: "Card", InStock: true},
	}
}

// --- Checkout ---

func TestCheckout_Widget(t *testing.T) {
	f := newCheckoutFixture()
	f.carts.On("ListByOwner", mock.Anything, domain.UserOwner("user-1")).Return(userCart(), nil)
	f.orders.On("Create", mock.Anything, mock.MatchedBy(func(o *domain.Order) bool {
		return o.Subtotal == 125000 && o.Total == 125000 && len(o.Items) == 2 && o.Status == domain.OrderPending && o.Email == "asha@example.com"
	})).Return(nil)
	f.orders.On("SetPaymentRef", mock.Anything, mock.Anything, "order_abc").Return(nil)

	res, err := f.svc.Checkout(context.Background(), "user-1", "asha@example.com", CheckoutInput{
		Provider: domain.ProviderWidget, ShippingAddress: testAddress,
	})
	require.NoError(t, err)
	assert.Equal(t, "order_abc", res.Payment.WidgetOrder)
	assert.Equal(t, "order_abc", res.Order.PaymentRef)
	require.Len(t, f.widget.created, 1)
	assert.Equal(t, int64(125000), f.widget.created[0].Amount)
	assert.Equal(t, []string{event.TopicOrderCreated}, f.pub.topics)
	f.orders.AssertExpectations(t)
}

func TestCheckout_WithCoupon(t *testing.T) {
	f := newCheckoutFixture()
	c := validCoupon()
	f.carts.On("ListByOwner", mock.Anything, domain.UserOwner("user-1")).Return(userCart(), nil)
	f.coupons.On("GetByCode", mock.Anything, "LOVE10").Return(c, nil)
	f.orders.On("Create", mock.Anything, mock.MatchedBy(func(o *domain.Order) bool {
		return o.DiscountAmount == 12500 && o.Total == 112500 && o.CouponCode != nil && *o.CouponCode == "LOVE10"
	})).Return(nil)
	f.orders.On("SetPaymentRef", mock.Anything, mock.Anything, "cs_1").Return(nil)

	res, err := f.svc.Checkout(context.Background(), "user-1", "asha@example.com", CheckoutInput{
		Provider: domain.ProviderHosted, CouponCode: "love10", ShippingAddress: testAddress,
	})
	require.NoError(t, err)
	assert.Equal(t, "https://pay.test/cs_1", res.Payment.RedirectURL)
}

func TestCheckout_InvalidCoupon(t *testing.T) {
	f := newCheckoutFixture()
	f.carts.On("ListByOwner", mock.Anything, domain.UserOwner("user-1")).Return(userCart(), nil)
	f.coupons.On("GetByCode", mock.Anything, "BOGUS").Return(nil, apperrors.NotFound("coupon", "BOGUS"))

	_, err := f.svc.Checkout(context.Background(), "user-1", "asha@example.com", CheckoutInput{
		Provider: domain.ProviderWidget, CouponCode: "BOGUS", ShippingAddress: testAddress,
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCheckout_Rejects(t *testing.T) {
	t.Run("empty cart", func(t *testing.T) {
		f := newCheckoutFixture()
		f.carts.On("ListByOwner", mock.Anything, domain.UserOwner("user-1")).Return(nil, nil)
		_, err := f.svc.Checkout(context.Background(), "user-1", "a@b.co", CheckoutInput{Provider: domain.ProviderWidget})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})
	t.Run("out of stock line", func(t *testing.T) {
		f := newCheckoutFixture()
		lines := userCart()
		lines[1].InStock = false
		f.carts.On("ListByOwner", mock.Anything, domain.UserOwner("user-1")).Return(lines, nil)
		_, err := f.svc.Checkout(context.Background(), "user-1", "a@b.co", CheckoutInput{Provider: domain.ProviderWidget})
		assert.ErrorIs(t, err, apperrors.ErrConflict)
	})
	t.Run("unknown provider", func(t *testing.T) {
		f := newCheckoutFixture()
		_, err := f.svc.Checkout(context.Background(), "user-1", "a@b.co", CheckoutInput{Provider: "barter"})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})
	t.Run("anonymous", func(t *testing.T) {
		f := newCheckoutFixture()
		_, err := f.svc.Checkout(context.Background(), "", "a@b.co", CheckoutInput{Provider: domain.ProviderWidget})
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})
	t.Run("no email", func(t *testing.T) {
		f := newCheckoutFixture()
		_, err := f.svc.Checkout(context.Background(), "user-1", "", CheckoutInput{Provider: domain.ProviderWidget})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})
}

func TestCheckout_GatewayDownFailsOrder(t *testing.T) {
	f := newCheckoutFixture()
	f.widget.createErr = apperrors.Unavailable("payment-widget", errors.New("status 503"))
	f.carts.On("ListByOwner", mock.Anything, domain.UserOwner("user-1")).Return(userCart(), nil)
	f.orders.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.orders.On("UpdateStatus", mock.Anything, mock.Anything, domain.OrderPending, domain.OrderPaymentFailed, (*string)(nil)).Return(nil)

	_, err := f.svc.Checkout(context.Background(), "user-1", "a@b.co", CheckoutInput{Provider: domain.ProviderWidget, ShippingAddress: testAddress})
	assert.ErrorIs(t, err, apperrors.ErrServiceUnavail)
	assert.Equal(t, []string{event.TopicOrderCreated, event.TopicPaymentFailed}, f.pub.topics)
	f.orders.AssertExpectations(t)
}

func TestCheckout_PaymentRefNotStoredFailsOrder(t *testing.T) {
	f := newCheckoutFixture()
	storeErr := errors.New("connection reset")
	f.carts.On("ListByOwner", mock.Anything, domain.UserOwner("user-1")).Return(userCart(), nil)
	f.orders.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.orders.On("SetPaymentRef", mock.Anything, mock.Anything, "order_abc").Return(storeErr)
	f.orders.On("UpdateStatus", mock.Anything, mock.Anything, domain.OrderPending, domain.OrderPaymentFailed, (*string)(nil)).Return(nil)

	_, err := f.svc.Checkout(context.Background(), "user-1", "a@b.co", CheckoutInput{Provider: domain.ProviderWidget, ShippingAddress: testAddress})
	assert.ErrorIs(t, err, storeErr)
	assert.Equal(t, []string{event.TopicOrderCreated, event.TopicPaymentFailed}, f.pub.topics)
	f.orders.AssertExpectations(t)
}

// --- Widget verification ---

func TestVerifyWidget_Success(t *testing.T) {
	f := newCheckoutFixture()
	o := testOrder(domain.OrderPending)
	paid := *o
	paid.Status = domain.OrderPaid
	paid.PaymentID = "pay_1"
	f.orders.On("GetByID", mock.Anything, o.ID).Return(o, nil)
	f.orders.On("CompletePayment", mock.Anything, o.ID, "pay_1").Return(&paid, nil)

	got, err := f.svc.VerifyWidget(context.Background(), "user-1", domain.PaymentVerification{
		OrderID: o.ID, Reference: "order_abc", PaymentID: "pay_1", Signature: "sig",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPaid, got.Status)
	assert.Equal(t, []string{event.TopicPaymentSucceeded}, f.pub.topics)
}

func TestVerifyWidget_BadSignatureFailsOrder(t *testing.T) {
	f := newCheckoutFixture()
	f.widget.verifyErr = apperrors.PaymentFailed("invalid payment signature")
	o := testOrder(domain.OrderPending)
	f.orders.On("GetByID", mock.Anything, o.ID).Return(o, nil)
	f.orders.On("UpdateStatus", mock.Anything, o.ID, domain.OrderPending, domain.OrderPaymentFailed, (*string)(nil)).Return(nil)

	_, err := f.svc.VerifyWidget(context.Background(), "user-1", domain.PaymentVerification{OrderID: o.ID, Reference: "order_abc", PaymentID: "pay_1", Signature: "forged"})
	assert.ErrorIs(t, err, apperrors.ErrPaymentFailed)
	f.orders.AssertNotCalled(t, "CompletePayment", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, []string{event.TopicPaymentFailed}, f.pub.topics)
}

func TestVerifyWidget_AlreadyPaidIsIdempotent(t *testing.T) {
	f := newCheckoutFixture()
	o := testOrder(domain.OrderPaid)
	o.PaymentID = "pay_1"
	f.orders.On("GetByID", mock.Anything, o.ID).Return(o, nil)

	got, err := f.svc.VerifyWidget(context.Background(), "user-1", domain.PaymentVerification{OrderID: o.ID, Reference: "order_abc", PaymentID: "pay_1", Signature: "sig"})
	require.NoError(t, err)
	assert.Equal(t, o, got)
	assert.Empty(t, f.pub.topics)
}

func TestVerifyWidget_OtherUsersOrder(t *testing.T) {
	f := newCheckoutFixture()
	o := testOrder(domain.OrderPending)
	f.orders.On("GetByID", mock.Anything, o.ID).Return(o, nil)

	_, err := f.svc.VerifyWidget(context.Background(), "user-2", domain.PaymentVerification{OrderID: o.ID})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

// --- Webhooks ---

func TestHandleWebhook_Completed(t *testing.T) {
	f := newCheckoutFixture()
	f.hosted.outcome = &domain.PaymentOutcome{Reference: "cs_1", PaymentID: "pi_1", Succeeded: true}
	o := testOrder(domain.OrderPending)
	o.PaymentProvider = string(domain.ProviderHosted)
	paid := *o
	paid.Status = domain.OrderPaid
	f.orders.On("GetByPaymentRef", mock.Anything, "cs_1").Return(o, nil)
	f.orders.On("CompletePayment", mock.Anything, o.ID, "pi_1").Return(&paid, nil)

	require.NoError(t, f.svc.HandleWebhook(context.Background(), domain.ProviderHosted, http.Header{}, []byte("{}")))
	f.orders.AssertExpectations(t)
}

func TestHandleWebhook_Failed(t *testing.T) {
	f := newCheckoutFixture()
	f.hosted.outcome = &domain.PaymentOutcome{Reference: "cs_1", Reason: "card declined"}
	o := testOrder(domain.OrderPending)
	f.orders.On("GetByPaymentRef", mock.Anything, "cs_1").Return(o, nil)
	f.orders.On("UpdateStatus", mock.Anything, o.ID, domain.OrderPending, domain.OrderPaymentFailed, (*string)(nil)).Return(nil)

	require.NoError(t, f.svc.HandleWebhook(context.Background(), domain.ProviderHosted, http.Header{}, []byte("{}")))
	assert.Equal(t, []string{event.TopicPaymentFailed}, f.pub.topics)
}

func TestHandleWebhook_ReplayAfterPaid(t *testing.T) {
	f := newCheckoutFixture()
	f.hosted.outcome = &domain.PaymentOutcome{Reference: "cs_1", PaymentID: "pi_1", Succeeded: true}
	o := testOrder(domain.OrderPaid)
	f.orders.On("GetByPaymentRef", mock.Anything, "cs_1").Return(o, nil)

	require.NoError(t, f.svc.HandleWebhook(context.Background(), domain.ProviderHosted, http.Header{}, []byte("{}")))
	f.orders.AssertNotCalled(t, "CompletePayment", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleWebhook_UnknownReferenceAcknowledged(t *testing.T) {
	f := newCheckoutFixture()
	f.hosted.outcome = &domain.PaymentOutcome{Reference: "cs_unknown", Succeeded: true}
	f.orders.On("GetByPaymentRef", mock.Anything, "cs_unknown").Return(nil, apperrors.NotFound("order", "cs_unknown"))

	assert.NoError(t, f.svc.HandleWebhook(context.Background(), domain.ProviderHosted, http.Header{}, nil))
}

func TestHandleWebhook_BadSignature(t *testing.T) {
	f := newCheckoutFixture()
	f.hosted.err = apperrors.Unauthorized("invalid webhook signature")

	err := f.svc.HandleWebhook(context.Background(), domain.ProviderHosted, http.Header{}, nil)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestHandleWebhook_WidgetHasNoWebhook(t *testing.T) {
	f := newCheckoutFixture()
	err := f.svc.HandleWebhook(context.Background(), domain.ProviderWidget, http.Header{}, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
