package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/domain"
	apperrors "github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/errors"
)

// --- helpers ---

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
func int64Ptr(n int64) *int64 { return &n }

var (
	now       = time.Date(2026, 2, 14, 10, 0, 0, 0, time.UTC)
	productA  = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	productB  = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	lineID    = uuid.MustParse("33333333-3333-3333-3333-333333333333")
	userOwner = domain.UserOwner("user-1")
	anonOwner = domain.SessionOwner("sess-abcdef12")
)

func pgErr(code string) error { return &pgconn.PgError{Code: code} }

var cartColumns = []string{
	"id", "product_id", "session_id", "user_id", "quantity", "customization",
	"selected_options", "created_at", "updated_at",
	"name", "slug", "image", "price", "in_stock",
}

// --- ownerClause ---

func TestOwnerClause(t *testing.T) {
	where, arg := ownerClause("c.", anonOwner, 2)
	assert.Equal(t, "c.session_id = $2 AND c.user_id IS NULL", where)
	assert.Equal(t, "sess-abcdef12", arg)

	where, arg = ownerClause("", userOwner, 1)
	assert.Equal(t, "user_id = $1", where)
	assert.Equal(t, "user-1", arg)
}

// --- CartRepository ---

func TestCartRepository_ListByOwner(t *testing.T) {
	mock := newMock(t)
	repo := NewCartRepository(mock)

	opts, _ := json.Marshal(map[string]any{"size": "M"})
	mock.ExpectQuery("FROM cart_items c").
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows(cartColumns).
			AddRow(lineID, productA, (*string)(nil), strPtr("user-1"), 2, strPtr("For Mom"),
				opts, now, now, "Mug", "mug", "https://cdn/mug.jpg", int64(49900), true).
			AddRow(uuid.New(), productB, (*string)(nil), strPtr("user-1"), 1, (*string)(nil),
				[]byte(nil), now, now, "Card", "card", "", int64(9900), false))

	lines, err := repo.ListByOwner(context.Background(), userOwner)
	require.NoError(t, err)
	require.Len(t, lines, 2)

	assert.Equal(t, userOwner, lines[0].Owner)
	assert.Equal(t, "M", lines[0].SelectedOptions["size"])
	assert.Equal(t, "For Mom", *lines[0].Customization)
	assert.Equal(t, int64(99800), lines[0].LineTotal())
	assert.Nil(t, lines[1].SelectedOptions)
	assert.False(t, lines[1].InStock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartRepository_ListByOwner_Empty(t *testing.T) {
	mock := newMock(t)
	repo := NewCartRepository(mock)

	mock.ExpectQuery("FROM cart_items c").
		WithArgs("sess-abcdef12").
		WillReturnRows(pgxmock.NewRows(cartColumns))

	lines, err := repo.ListByOwner(context.Background(), anonOwner)
	require.NoError(t, err)
	assert.NotNil(t, lines)
	assert.Empty(t, lines)
}

func TestCartRepository_Add_Upserts(t *testing.T) {
	mock := newMock(t)
	repo := NewCartRepository(mock)

	line := &domain.CartLine{ID: lineID, ProductID: productA, Owner: anonOwner, Quantity: 1}
	mock.ExpectQuery(`ON CONFLICT \(session_id, product_id\)`).
		WithArgs(lineID, productA, pgxmock.AnyArg(), pgxmock.AnyArg(), 1, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "quantity", "customization", "selected_options", "created_at", "updated_at"}).
			AddRow(lineID, 3, (*string)(nil), []byte(nil), now, now))

	got, err := repo.Add(context.Background(), line)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Quantity)
	assert.Equal(t, anonOwner, got.Owner)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartRepository_Add_UnknownProduct(t *testing.T) {
	mock := newMock(t)
	repo := NewCartRepository(mock)

	mock.ExpectQuery(`ON CONFLICT \(user_id, product_id\)`).
		WillReturnError(pgErr("23503"))

	_, err := repo.Add(context.Background(), &domain.CartLine{ProductID: productA, Owner: userOwner, Quantity: 1})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCartRepository_SetQuantity_NotOwned(t *testing.T) {
	mock := newMock(t)
	repo := NewCartRepository(mock)

	mock.ExpectExec("UPDATE cart_items SET quantity").
		WithArgs(5, lineID, "user-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.SetQuantity(context.Background(), userOwner, lineID, 5)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCartRepository_Delete(t *testing.T) {
	mock := newMock(t)
	repo := NewCartRepository(mock)

	mock.ExpectExec("DELETE FROM cart_items WHERE id").
		WithArgs(lineID, "sess-abcdef12").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, repo.Delete(context.Background(), anonOwner, lineID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartRepository_Reassign(t *testing.T) {
	mock := newMock(t)
	repo := NewCartRepository(mock)

	mock.ExpectExec("UPDATE cart_items SET session_id").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), lineID, "sess-abcdef12").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.Reassign(context.Background(), lineID, anonOwner, userOwner))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartRepository_Reassign_Collision(t *testing.T) {
	mock := newMock(t)
	repo := NewCartRepository(mock)

	mock.ExpectExec("UPDATE cart_items SET session_id").
		WillReturnError(pgErr("23505"))

	err := repo.Reassign(context.Background(), lineID, anonOwner, userOwner)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

// --- WishlistRepository ---

func TestWishlistRepository_Add_Idempotent(t *testing.T) {
	mock := newMock(t)
	repo := NewWishlistRepository(mock)

	mock.ExpectQuery("INSERT INTO wishlists").
		WithArgs(pgxmock.AnyArg(), productA, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(lineID, now))

	e, err := repo.Add(context.Background(), userOwner, productA)
	require.NoError(t, err)
	assert.Equal(t, lineID, e.ID)
	assert.Equal(t, userOwner, e.Owner)
}

func TestWishlistRepository_Contains(t *testing.T) {
	mock := newMock(t)
	repo := NewWishlistRepository(mock)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(productA, "user-1").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.Contains(context.Background(), userOwner, productA)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWishlistRepository_Remove_Missing(t *testing.T) {
	mock := newMock(t)
	repo := NewWishlistRepository(mock)

	mock.ExpectExec("DELETE FROM wishlists WHERE product_id").
		WithArgs(productB, "sess-abcdef12").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.Remove(context.Background(), anonOwner, productB)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

// --- ProductRepository ---

func TestBuildProductWhere(t *testing.T) {
	where, args := buildProductWhere(domain.ProductFilter{
		CategoryIDs: []uuid.UUID{productA},
		MinPrice:    int64Ptr(1000),
		MaxPrice:    int64Ptr(5000),
		InStock:     boolPtr(true),
		OnSale:      boolPtr(true),
		Featured:    boolPtr(false),
		Search:      "  candle ",
	})

	assert.Contains(t, where, "is_active")
	assert.Contains(t, where, "category_id = ANY($1)")
	assert.Contains(t, where, "price >= $2")
	assert.Contains(t, where, "price <= $3")
	assert.Contains(t, where, "stock > 0")
	assert.Contains(t, where, "compare_at_price > price")
	assert.Contains(t, where, "is_featured = $4")
	assert.Contains(t, where, "plainto_tsquery('simple', $5)")
	require.Len(t, args, 5)
	assert.Equal(t, "candle", args[4])
}

func TestBuildProductWhere_Empty(t *testing.T) {
	where, args := buildProductWhere(domain.ProductFilter{})
	assert.Equal(t, "WHERE is_active", where)
	assert.Empty(t, args)
}

var productCols = []string{
	"id", "category_id", "name", "slug", "description", "price", "compare_at_price", "images", "stock",
	"is_featured", "is_customizable", "is_active", "average_rating", "review_count", "created_at", "updated_at",
}

func TestProductRepository_List_SortAndPage(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	cols := append(append([]string{}, productCols...), "total_count")
	mock.ExpectQuery(`ORDER BY price ASC, id\s+LIMIT \$2 OFFSET \$3`).
		WithArgs(int64(100), 10, 10).
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow(productA, (*uuid.UUID)(nil), "Candle", "candle", "", int64(1200), int64Ptr(1500),
				[]string{"a.jpg"}, 4, false, true, true, 4.5, 2, now, now, 11))

	products, total, err := repo.List(context.Background(), domain.ProductFilter{
		MinPrice: int64Ptr(100), Sort: domain.SortPriceAsc, Page: 2, PerPage: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, 11, total)
	require.Len(t, products, 1)
	assert.True(t, products[0].OnSale())
}

func TestProductRepository_GetBySlug_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	mock.ExpectQuery("FROM products WHERE slug").
		WithArgs("nope").
		WillReturnRows(pgxmock.NewRows(productCols))

	_, err := repo.GetBySlug(context.Background(), "nope")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

// --- ReviewRepository ---

func TestReviewRepository_Create_RefreshesRating(t *testing.T) {
	mock := newMock(t)
	repo := NewReviewRepository(mock)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO product_reviews").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(now))
	mock.ExpectExec("UPDATE products p").
		WithArgs(productA).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	rv := &domain.Review{ProductID: productA, UserID: "user-1", AuthorName: "Asha", Rating: 5, Body: "Lovely", IsApproved: true}
	require.NoError(t, repo.Create(context.Background(), rv))
	assert.NotEqual(t, uuid.Nil, rv.ID)
	assert.Equal(t, now, rv.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_Create_Duplicate(t *testing.T) {
	mock := newMock(t)
	repo := NewReviewRepository(mock)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO product_reviews").WillReturnError(pgErr("23505"))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &domain.Review{ProductID: productA, UserID: "user-1", Rating: 4})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// --- CouponRepository ---

func TestCouponRepository_GetByCode_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewCouponRepository(mock)

	mock.ExpectQuery("FROM coupons").
		WithArgs("NOPE").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	_, err := repo.GetByCode(context.Background(), "NOPE")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

// --- OrderRepository ---

func sampleOrder() *domain.Order {
	return &domain.Order{
		ID:       uuid.New(),
		UserID:   "user-1",
		Email:    "asha@example.com",
		Status:   domain.OrderPending,
		Subtotal: 2000,
		Total:    2000,
		Currency: "INR",
		Items: []domain.OrderItem{
			{ProductID: productA, ProductName: "Candle", UnitPrice: 1000, Quantity: 2},
		},
		PaymentProvider: string(domain.ProviderHosted),
	}
}

func TestOrderRepository_Create_ReservesStock(t *testing.T) {
	mock := newMock(t)
	repo := NewOrderRepository(mock)
	o := sampleOrder()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO orders").
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectExec("INSERT INTO order_items").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("UPDATE products SET stock = stock -").
		WithArgs(2, productA).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Create(context.Background(), o))
	assert.Equal(t, o.ID, o.Items[0].OrderID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_Create_OutOfStockRollsBack(t *testing.T) {
	mock := newMock(t)
	repo := NewOrderRepository(mock)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO orders").
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectExec("INSERT INTO order_items").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("UPDATE products SET stock = stock -").WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), sampleOrder())
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_UpdateStatus_CancelReleasesStock(t *testing.T) {
	mock := newMock(t)
	repo := NewOrderRepository(mock)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE orders").
		WithArgs(domain.OrderCancelled, pgxmock.AnyArg(), id, domain.OrderPending).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("SET stock = p.stock \\+ oi.quantity").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	require.NoError(t, repo.UpdateStatus(context.Background(), id, domain.OrderPending, domain.OrderCancelled, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_UpdateStatus_StaleFrom(t *testing.T) {
	mock := newMock(t)
	repo := NewOrderRepository(mock)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE orders").WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	err := repo.UpdateStatus(context.Background(), uuid.New(), domain.OrderPaid, domain.OrderProcessing, nil)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestOrderRepository_CompletePayment_NotPending(t *testing.T) {
	mock := newMock(t)
	repo := NewOrderRepository(mock)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE orders").
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "coupon_code"}))
	mock.ExpectRollback()

	_, err := repo.CompletePayment(context.Background(), uuid.New(), "pay_1")
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleasesStock(t *testing.T) {
	assert.True(t, releasesStock(domain.OrderPending, domain.OrderPaymentFailed))
	assert.True(t, releasesStock(domain.OrderPaid, domain.OrderCancelled))
	assert.False(t, releasesStock(domain.OrderPaymentFailed, domain.OrderCancelled))
	assert.False(t, releasesStock(domain.OrderPaid, domain.OrderProcessing))
}

func TestCartRepository_Absorb(t *testing.T) {
	mock := newMock(t)
	repo := NewCartRepository(mock)
	target := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("DELETE FROM cart_items WHERE id").
		WithArgs(lineID, "sess-abcdef12").
		WillReturnRows(pgxmock.NewRows([]string{"quantity"}).AddRow(2))
	mock.ExpectQuery("UPDATE cart_items SET quantity = quantity \\+").
		WithArgs(2, target, "user-1").
		WillReturnRows(pgxmock.NewRows([]string{"quantity"}).AddRow(3))
	mock.ExpectCommit()

	qty, err := repo.Absorb(context.Background(), anonOwner, lineID, userOwner, target)
	require.NoError(t, err)
	assert.Equal(t, 3, qty)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartRepository_Absorb_TargetGoneRollsBack(t *testing.T) {
	mock := newMock(t)
	repo := NewCartRepository(mock)

	mock.ExpectBegin()
	mock.ExpectQuery("DELETE FROM cart_items WHERE id").
		WillReturnRows(pgxmock.NewRows([]string{"quantity"}).AddRow(2))
	mock.ExpectQuery("UPDATE cart_items SET quantity = quantity \\+").
		WillReturnRows(pgxmock.NewRows([]string{"quantity"}))
	mock.ExpectRollback()

	_, err := repo.Absorb(context.Background(), anonOwner, lineID, userOwner, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
