package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/domain"
	pkgkafka "github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/kafka"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// --- Cart ---

type mockCartRepository struct {
	mock.Mock
}

func (m *mockCartRepository) ListByOwner(ctx context.Context, owner domain.Owner) ([]domain.CartLine, error) {
	args := m.Called(ctx, owner)
	lines, _ := args.Get(0).([]domain.CartLine)
	return lines, args.Error(1)
}

func (m *mockCartRepository) Add(ctx context.Context, line *domain.CartLine) (*domain.CartLine, error) {
	args := m.Called(ctx, line)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CartLine), args.Error(1)
}

func (m *mockCartRepository) SetQuantity(ctx context.Context, owner domain.Owner, id uuid.UUID, quantity int) error {
	return m.Called(ctx, owner, id, quantity).Error(0)
}

func (m *mockCartRepository) Delete(ctx context.Context, owner domain.Owner, id uuid.UUID) error {
	return m.Called(ctx, owner, id).Error(0)
}

func (m *mockCartRepository) Clear(ctx context.Context, owner domain.Owner) error {
	return m.Called(ctx, owner).Error(0)
}

func (m *mockCartRepository) Reassign(ctx context.Context, id uuid.UUID, from, to domain.Owner) error {
	return m.Called(ctx, id, from, to).Error(0)
}

func (m *mockCartRepository) Absorb(ctx context.Context, from domain.Owner, lineID uuid.UUID, into domain.Owner, targetID uuid.UUID) (int, error) {
	args := m.Called(ctx, from, lineID, into, targetID)
	return args.Int(0), args.Error(1)
}

// --- Wishlist ---

type mockWishlistRepository struct {
	mock.Mock
}

func (m *mockWishlistRepository) ListByOwner(ctx context.Context, owner domain.Owner) ([]domain.WishlistEntry, error) {
	args := m.Called(ctx, owner)
	entries, _ := args.Get(0).([]domain.WishlistEntry)
	return entries, args.Error(1)
}

func (m *mockWishlistRepository) Add(ctx context.Context, owner domain.Owner, productID uuid.UUID) (*domain.WishlistEntry, error) {
	args := m.Called(ctx, owner, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WishlistEntry), args.Error(1)
}

func (m *mockWishlistRepository) Remove(ctx context.Context, owner domain.Owner, productID uuid.UUID) error {
	return m.Called(ctx, owner, productID).Error(0)
}

func (m *mockWishlistRepository) DeleteByID(ctx context.Context, owner domain.Owner, id uuid.UUID) error {
	return m.Called(ctx, owner, id).Error(0)
}

func (m *mockWishlistRepository) Contains(ctx context.Context, owner domain.Owner, productID uuid.UUID) (bool, error) {
	args := m.Called(ctx, owner, productID)
	return args.Bool(0), args.Error(1)
}

func (m *mockWishlistRepository) Reassign(ctx context.Context, id uuid.UUID, from, to domain.Owner) error {
	return m.Called(ctx, id, from, to).Error(0)
}

// --- Catalog ---

type mockProductRepository struct {
	mock.Mock
}

func (m *mockProductRepository) List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int, error) {
	args := m.Called(ctx, filter)
	products, _ := args.Get(0).([]domain.Product)
	return products, args.Int(1), args.Error(2)
}

func (m *mockProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepository) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

type mockCategoryRepository struct {
	mock.Mock
}

func (m *mockCategoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	categories, _ := args.Get(0).([]domain.Category)
	return categories, args.Error(1)
}

type mockReviewRepository struct {
	mock.Mock
}

func (m *mockReviewRepository) ListApproved(ctx context.Context, productID uuid.UUID, page, perPage int) ([]domain.Review, int, error) {
	args := m.Called(ctx, productID, page, perPage)
	reviews, _ := args.Get(0).([]domain.Review)
	return reviews, args.Int(1), args.Error(2)
}

func (m *mockReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	return m.Called(ctx, review).Error(0)
}

// --- Coupons and currency ---

type mockCouponRepository struct {
	mock.Mock
}

func (m *mockCouponRepository) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Coupon), args.Error(1)
}

func (m *mockCouponRepository) CountRedemptions(ctx context.Context, couponID uuid.UUID, userID string) (int, error) {
	args := m.Called(ctx, couponID, userID)
	return args.Int(0), args.Error(1)
}

type mockCurrencyRepository struct {
	mock.Mock
}

func (m *mockCurrencyRepository) ListActive(ctx context.Context) ([]domain.CurrencyRate, error) {
	args := m.Called(ctx)
	rates, _ := args.Get(0).([]domain.CurrencyRate)
	return rates, args.Error(1)
}

type mockRateCache struct {
	mock.Mock
}

func (m *mockRateCache) Get(ctx context.Context) ([]domain.CurrencyRate, error) {
	args := m.Called(ctx)
	rates, _ := args.Get(0).([]domain.CurrencyRate)
	return rates, args.Error(1)
}

func (m *mockRateCache) Set(ctx context.Context, rates []domain.CurrencyRate) error {
	return m.Called(ctx, rates).Error(0)
}

// --- Orders ---

type mockOrderRepository struct {
	mock.Mock
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	return m.Called(ctx, order).Error(0)
}

func (m *mockOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) GetByPaymentRef(ctx context.Context, ref string) (*domain.Order, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) ListByUser(ctx context.Context, userID string, page, perPage int) ([]domain.Order, int, error) {
	args := m.Called(ctx, userID, page, perPage)
	orders, _ := args.Get(0).([]domain.Order)
	return orders, args.Int(1), args.Error(2)
}

func (m *mockOrderRepository) SetPaymentRef(ctx context.Context, id uuid.UUID, ref string) error {
	return m.Called(ctx, id, ref).Error(0)
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.OrderStatus, tracking *string) error {
	return m.Called(ctx, id, from, to, tracking).Error(0)
}

func (m *mockOrderRepository) CompletePayment(ctx context.Context, id uuid.UUID, paymentID string) (*domain.Order, error) {
	args := m.Called(ctx, id, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

type mockStatusBroker struct {
	mock.Mock
}

func (m *mockStatusBroker) Publish(ctx context.Context, change domain.OrderStatusChange) error {
	return m.Called(ctx, change).Error(0)
}

func (m *mockStatusBroker) Subscribe(ctx context.Context, orderID uuid.UUID) (<-chan domain.OrderStatusChange, func(), error) {
	args := m.Called(ctx, orderID)
	ch, _ := args.Get(0).(<-chan domain.OrderStatusChange)
	cancel, _ := args.Get(1).(func())
	return ch, cancel, args.Error(2)
}

// --- Merge lock ---

type mockMergeLock struct {
	mock.Mock
}

func (m *mockMergeLock) Acquire(ctx context.Context, sessionID, userID string, ttl time.Duration) (func(context.Context) error, error) {
	args := m.Called(ctx, sessionID, userID, ttl)
	release, _ := args.Get(0).(func(context.Context) error)
	return release, args.Error(1)
}

// --- Content ---

type mockBlogRepository struct {
	mock.Mock
}

func (m *mockBlogRepository) ListPublished(ctx context.Context, tag string, page, perPage int) ([]domain.BlogPost, int, error) {
	args := m.Called(ctx, tag, page, perPage)
	posts, _ := args.Get(0).([]domain.BlogPost)
	return posts, args.Int(1), args.Error(2)
}

func (m *mockBlogRepository) GetBySlug(ctx context.Context, slug string) (*domain.BlogPost, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BlogPost), args.Error(1)
}

type mockSupportRepository struct {
	mock.Mock
}

func (m *mockSupportRepository) Create(ctx context.Context, msg *domain.SupportMessage) error {
	return m.Called(ctx, msg).Error(0)
}

type mockCustomOrderRepository struct {
	mock.Mock
}

func (m *mockCustomOrderRepository) Create(ctx context.Context, co *domain.CustomOrder) error {
	return m.Called(ctx, co).Error(0)
}

func (m *mockCustomOrderRepository) ListByUser(ctx context.Context, userID string) ([]domain.CustomOrder, error) {
	args := m.Called(ctx, userID)
	orders, _ := args.Get(0).([]domain.CustomOrder)
	return orders, args.Error(1)
}

// --- Events ---

// recordingPublisher captures events instead of sending them to Kafka.
type recordingPublisher struct {
	topics []string
	events []*pkgkafka.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, evt *pkgkafka.Event) error {
	p.topics = append(p.topics, topic)
	p.events = append(p.events, evt)
	return p.err
}
