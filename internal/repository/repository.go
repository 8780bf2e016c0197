// Package repository declares the persistence ports the services depend on.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/domain"
)

// CartRepository persists cart lines keyed by owner.
type CartRepository interface {
	// ListByOwner returns the owner's lines joined with product details,
	// oldest first.
	ListByOwner(ctx context.Context, owner domain.Owner) ([]domain.CartLine, error)

	// Add inserts a line, or increments the quantity of the owner's
	// existing line for the same product. Returns the stored line.
	Add(ctx context.Context, line *domain.CartLine) (*domain.CartLine, error)

	// SetQuantity overwrites the quantity of one of the owner's lines.
	SetQuantity(ctx context.Context, owner domain.Owner, id uuid.UUID, quantity int) error

	// Delete removes one of the owner's lines.
	Delete(ctx context.Context, owner domain.Owner, id uuid.UUID) error

	// Clear removes all of the owner's lines.
	Clear(ctx context.Context, owner domain.Owner) error

	// Reassign moves a line from one owner to another in place.
	Reassign(ctx context.Context, id uuid.UUID, from, to domain.Owner) error

	// Absorb deletes one of from's lines and adds its quantity to one of
	// into's lines in a single transaction. Returns the new quantity.
	Absorb(ctx context.Context, from domain.Owner, lineID uuid.UUID, into domain.Owner, targetID uuid.UUID) (int, error)
}

// WishlistRepository persists presence-only wishlist entries.
type WishlistRepository interface {
	ListByOwner(ctx context.Context, owner domain.Owner) ([]domain.WishlistEntry, error)

	// Add is idempotent: adding an existing product returns the stored entry.
	Add(ctx context.Context, owner domain.Owner, productID uuid.UUID) (*domain.WishlistEntry, error)

	// Remove deletes the owner's entry for a product.
	Remove(ctx context.Context, owner domain.Owner, productID uuid.UUID) error

	// DeleteByID deletes one of the owner's entries by row id.
	DeleteByID(ctx context.Context, owner domain.Owner, id uuid.UUID) error

	Contains(ctx context.Context, owner domain.Owner, productID uuid.UUID) (bool, error)

	Reassign(ctx context.Context, id uuid.UUID, from, to domain.Owner) error
}

// ProductRepository reads the catalog.
type ProductRepository interface {
	List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Product, error)
}

// CategoryRepository reads product categories.
type CategoryRepository interface {
	List(ctx context.Context) ([]domain.Category, error)
}

// ReviewRepository persists product reviews.
type ReviewRepository interface {
	ListApproved(ctx context.Context, productID uuid.UUID, page, perPage int) ([]domain.Review, int, error)

	// Create stores the review and refreshes the product's rating summary.
	Create(ctx context.Context, review *domain.Review) error
}

// CouponRepository reads coupons and their per-user redemption counts.
type CouponRepository interface {
	GetByCode(ctx context.Context, code string) (*domain.Coupon, error)
	CountRedemptions(ctx context.Context, couponID uuid.UUID, userID string) (int, error)
}

// CurrencyRepository reads exchange rates.
type CurrencyRepository interface {
	ListActive(ctx context.Context) ([]domain.CurrencyRate, error)
}

// RateCache caches the active rate table.
type RateCache interface {
	Get(ctx context.Context) ([]domain.CurrencyRate, error)
	Set(ctx context.Context, rates []domain.CurrencyRate) error
}

// OrderRepository persists orders and drives their status.
type OrderRepository interface {
	// Create stores the order with its items and reserves stock, all in one
	// transaction.
	Create(ctx context.Context, order *domain.Order) error

	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetByPaymentRef(ctx context.Context, ref string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string, page, perPage int) ([]domain.Order, int, error)
	SetPaymentRef(ctx context.Context, id uuid.UUID, ref string) error

	// UpdateStatus moves an order from one status to another. It fails with
	// a conflict when the order is no longer in from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.OrderStatus, tracking *string) error

	// CompletePayment marks a pending order paid, clears the buyer's cart and
	// records the coupon redemption, atomically.
	CompletePayment(ctx context.Context, id uuid.UUID, paymentID string) (*domain.Order, error)
}

// OrderStatusBroker fans out order status changes to live subscribers.
type OrderStatusBroker interface {
	Publish(ctx context.Context, change domain.OrderStatusChange) error

	// Subscribe delivers changes for one order until the returned cancel
	// func is called or ctx ends.
	Subscribe(ctx context.Context, orderID uuid.UUID) (<-chan domain.OrderStatusChange, func(), error)
}

// MergeLock serialises merges for one (session, user) pair.
type MergeLock interface {
	Acquire(ctx context.Context, sessionID, userID string, ttl time.Duration) (release func(context.Context) error, err error)
}

// BlogRepository reads published posts.
type BlogRepository interface {
	ListPublished(ctx context.Context, tag string, page, perPage int) ([]domain.BlogPost, int, error)
	GetBySlug(ctx context.Context, slug string) (*domain.BlogPost, error)
}

// SupportRepository stores contact-form submissions.
type SupportRepository interface {
	Create(ctx context.Context, msg *domain.SupportMessage) error
}

// CustomOrderRepository stores bespoke order requests.
type CustomOrderRepository interface {
	Create(ctx context.Context, co *domain.CustomOrder) error
	ListByUser(ctx context.Context, userID string) ([]domain.CustomOrder, error)
}
