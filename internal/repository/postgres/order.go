package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/domain"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/database"
	apperrors "github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/errors"
)

const orderColumns = `o.id, o.user_id, o.email, o.status, o.subtotal, o.discount_amount, o.total, o.currency,
	       o.coupon_code, o.shipping_address, o.payment_provider, o.payment_ref, o.payment_id,
	       o.tracking_number, o.created_at, o.updated_at,
	       COALESCE(
	           JSONB_AGG(
	               JSONB_BUILD_OBJECT(
	                   'id', oi.id,
	                   'order_id', oi.order_id,
	                   'product_id', oi.product_id,
	                   'product_name', oi.product_name,
	                   'unit_price', oi.unit_price,
	                   'quantity', oi.quantity,
	                   'customization', oi.customization,
	                   'selected_options', oi.selected_options
	               ) ORDER BY oi.product_name
	           ) FILTER (WHERE oi.id IS NOT NULL),
	           '[]'::jsonb
	       ) AS items`

const orderFrom = `FROM orders o LEFT JOIN order_items oi ON oi.order_id = o.id`

// OrderRepository implements repository.OrderRepository.
type OrderRepository struct {
	db database.DBTX
}

// NewOrderRepository creates a PostgreSQL-backed order repository.
func NewOrderRepository(db database.DBTX) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts the order and its items and takes the ordered quantities
// out of stock. Any item short of stock aborts the whole order.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) (err error) {
	shippingJSON, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return fmt.Errorf("marshal shipping address: %w", err)
	}

	ctx, end := database.TraceQuery(ctx, "order.Create", "INSERT INTO orders")
	defer func() { end(err) }()

	return database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO orders (id, user_id, email, status, subtotal, discount_amount, total, currency,
			                    coupon_code, shipping_address, payment_provider)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING created_at, updated_at`,
			o.ID, o.UserID, o.Email, o.Status, o.Subtotal, o.DiscountAmount, o.Total, o.Currency,
			o.CouponCode, shippingJSON, o.PaymentProvider,
		).Scan(&o.CreatedAt, &o.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		for i := range o.Items {
			item := &o.Items[i]
			if item.ID == uuid.Nil {
				item.ID = uuid.New()
			}
			item.OrderID = o.ID

			optionsJSON, err := marshalOptions(item.SelectedOptions)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `
				INSERT INTO order_items (id, order_id, product_id, product_name, unit_price, quantity, customization, selected_options)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				item.ID, item.OrderID, item.ProductID, item.ProductName, item.UnitPrice, item.Quantity,
				item.Customization, optionsJSON,
			); err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}

			ct, err := tx.Exec(ctx,
				`UPDATE products SET stock = stock - $1, updated_at = NOW() WHERE id = $2 AND is_active AND stock >= $1`,
				item.Quantity, item.ProductID)
			if err != nil {
				return fmt.Errorf("reserve stock: %w", err)
			}
			if ct.RowsAffected() == 0 {
				return apperrors.Conflict(fmt.Sprintf("%s is out of stock", item.ProductName))
			}
		}
		return nil
	})
}

func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return r.getOne(ctx, "o.id = $1", id, id.String())
}

func (r *OrderRepository) GetByPaymentRef(ctx context.Context, ref string) (*domain.Order, error) {
	return r.getOne(ctx, "o.payment_ref = $1", ref, ref)
}

func (r *OrderRepository) getOne(ctx context.Context, where string, arg any, label string) (*domain.Order, error) {
	rows, err := r.db.Query(ctx, `SELECT `+orderColumns+` `+orderFrom+` WHERE `+where+` GROUP BY o.id`, arg)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	orders, _, err := scanOrders(rows, false)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, apperrors.NotFound("order", label)
	}
	return &orders[0], nil
}

// ListByUser returns a user's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string, page, perPage int) ([]domain.Order, int, error) {
	limit, offset := limitOffset(page, perPage)
	query := `
		WITH page AS (
			SELECT id, count(*) OVER() AS total_count
			FROM orders
			WHERE user_id = $1
			ORDER BY created_at DESC, id
			LIMIT $2 OFFSET $3
		)
		SELECT ` + orderColumns + `, page.total_count
		` + orderFrom + `
		JOIN page ON page.id = o.id
		GROUP BY o.id, page.total_count
		ORDER BY o.created_at DESC, o.id`

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	return scanOrders(rows, true)
}

func scanOrders(rows pgx.Rows, withTotal bool) ([]domain.Order, int, error) {
	defer rows.Close()

	var (
		orders = []domain.Order{}
		total  int
	)
	for rows.Next() {
		var (
			o            domain.Order
			shippingJSON []byte
			itemsJSON    []byte
		)
		dest := []any{
			&o.ID, &o.UserID, &o.Email, &o.Status, &o.Subtotal, &o.DiscountAmount, &o.Total, &o.Currency,
			&o.CouponCode, &shippingJSON, &o.PaymentProvider, &o.PaymentRef, &o.PaymentID,
			&o.TrackingNumber, &o.CreatedAt, &o.UpdatedAt, &itemsJSON,
		}
		if withTotal {
			dest = append(dest, &total)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		if err := json.Unmarshal(shippingJSON, &o.ShippingAddress); err != nil {
			return nil, 0, fmt.Errorf("unmarshal shipping address: %w", err)
		}
		if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
			return nil, 0, fmt.Errorf("unmarshal order items: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, total, nil
}

func (r *OrderRepository) SetPaymentRef(ctx context.Context, id uuid.UUID, ref string) error {
	ct, err := r.db.Exec(ctx, `UPDATE orders SET payment_ref = $1, updated_at = NOW() WHERE id = $2`, ref, id)
	if err != nil {
		return fmt.Errorf("set payment ref: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("order", id.String())
	}
	return nil
}

// releasesStock reports whether moving from -> to hands reserved stock back.
func releasesStock(from, to domain.OrderStatus) bool {
	reserved := from == domain.OrderPending || from == domain.OrderPaid
	return reserved && (to == domain.OrderCancelled || to == domain.OrderPaymentFailed)
}

// UpdateStatus is a compare-and-set on the order's status.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.OrderStatus, tracking *string) (err error) {
	ctx, end := database.TraceQuery(ctx, "order.UpdateStatus", "UPDATE orders SET status")
	defer func() { end(err) }()

	return database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, `
			UPDATE orders
			SET status = $1, tracking_number = COALESCE($2, tracking_number), updated_at = NOW()
			WHERE id = $3 AND status = $4`,
			to, tracking, id, from)
		if err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return apperrors.Conflict(fmt.Sprintf("order %s is no longer %s", id, from))
		}

		if releasesStock(from, to) {
			if _, err := tx.Exec(ctx, `
				UPDATE products p
				SET stock = p.stock + oi.quantity, updated_at = NOW()
				FROM order_items oi
				WHERE oi.order_id = $1 AND p.id = oi.product_id`, id); err != nil {
				return fmt.Errorf("release stock: %w", err)
			}
		}
		return nil
	})
}

// CompletePayment marks a pending order paid, removes the ordered products
// from the buyer's cart and counts the coupon redemption.
func (r *OrderRepository) CompletePayment(ctx context.Context, id uuid.UUID, paymentID string) (_ *domain.Order, err error) {
	ctx, end := database.TraceQuery(ctx, "order.CompletePayment", "UPDATE orders SET status = 'paid'")
	defer func() { end(err) }()

	err = database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		var (
			userID     string
			couponCode *string
		)
		err := tx.QueryRow(ctx, `
			UPDATE orders
			SET status = $1, payment_id = $2, updated_at = NOW()
			WHERE id = $3 AND status = $4
			RETURNING user_id, coupon_code`,
			domain.OrderPaid, paymentID, id, domain.OrderPending,
		).Scan(&userID, &couponCode)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.Conflict(fmt.Sprintf("order %s is not awaiting payment", id))
			}
			return fmt.Errorf("mark order paid: %w", err)
		}

		if _, err := tx.Exec(ctx, `
			DELETE FROM cart_items
			WHERE user_id = $1
			  AND product_id IN (SELECT product_id FROM order_items WHERE order_id = $2)`,
			userID, id); err != nil {
			return fmt.Errorf("clear purchased cart lines: %w", err)
		}

		if couponCode == nil {
			return nil
		}
		if _, err := tx.Exec(ctx, `
			WITH c AS (
				UPDATE coupons SET usage_count = usage_count + 1, updated_at = NOW()
				WHERE code = $1
				RETURNING id
			)
			INSERT INTO coupon_redemptions (coupon_id, user_id, order_id)
			SELECT id, $2, $3 FROM c
			ON CONFLICT (order_id) DO NOTHING`,
			*couponCode, userID, id); err != nil {
			return fmt.Errorf("redeem coupon: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}
