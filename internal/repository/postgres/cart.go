package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/domain"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/database"
	apperrors "github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/errors"
)

// CartRepository implements repository.CartRepository on the cart_items table.
type CartRepository struct {
	db database.DBTX
}

// NewCartRepository creates a PostgreSQL-backed cart repository.
func NewCartRepository(db database.DBTX) *CartRepository {
	return &CartRepository{db: db}
}

// ListByOwner returns the owner's lines with product details, oldest first.
func (r *CartRepository) ListByOwner(ctx context.Context, owner domain.Owner) (_ []domain.CartLine, err error) {
	where, arg := ownerClause("c.", owner, 1)
	query := `
		SELECT c.id, c.product_id, c.session_id, c.user_id, c.quantity, c.customization,
		       c.selected_options, c.created_at, c.updated_at,
		       p.name, p.slug, COALESCE(p.images[1], ''), p.price, p.stock > 0
		FROM cart_items c
		JOIN products p ON p.id = c.product_id
		WHERE ` + where + `
		ORDER BY c.created_at, c.id`

	ctx, end := database.TraceQuery(ctx, "cart.ListByOwner", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list cart lines: %w", err)
	}
	defer rows.Close()

	lines := []domain.CartLine{}
	for rows.Next() {
		var (
			l                 domain.CartLine
			sessionID, userID *string
			optionsJSON       []byte
		)
		if err := rows.Scan(
			&l.ID, &l.ProductID, &sessionID, &userID, &l.Quantity, &l.Customization,
			&optionsJSON, &l.CreatedAt, &l.UpdatedAt,
			&l.ProductName, &l.ProductSlug, &l.ImageURL, &l.UnitPrice, &l.InStock,
		); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		l.Owner = ownerFromColumns(sessionID, userID)
		if l.SelectedOptions, err = unmarshalOptions(optionsJSON); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart lines: %w", err)
	}
	return lines, nil
}

// Add inserts a line or increments the owner's existing line for the product.
func (r *CartRepository) Add(ctx context.Context, line *domain.CartLine) (_ *domain.CartLine, err error) {
	optionsJSON, err := marshalOptions(line.SelectedOptions)
	if err != nil {
		return nil, err
	}

	target := "(user_id, product_id) WHERE user_id IS NOT NULL"
	if line.IsAnonymous() {
		target = "(session_id, product_id) WHERE session_id IS NOT NULL"
	}
	query := `
		INSERT INTO cart_items (id, product_id, session_id, user_id, quantity, customization, selected_options)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT ` + target + ` DO UPDATE
		SET quantity = cart_items.quantity + EXCLUDED.quantity,
		    customization = COALESCE(EXCLUDED.customization, cart_items.customization),
		    selected_options = COALESCE(EXCLUDED.selected_options, cart_items.selected_options),
		    updated_at = NOW()
		RETURNING id, quantity, customization, selected_options, created_at, updated_at`

	ctx, end := database.TraceQuery(ctx, "cart.Add", query)
	defer func() { end(err) }()

	if line.ID == uuid.Nil {
		line.ID = uuid.New()
	}
	sessionID, userID := ownerColumns(line.Owner)

	out := *line
	var storedOptions []byte
	err = r.db.QueryRow(ctx, query,
		line.ID, line.ProductID, sessionID, userID, line.Quantity, line.Customization, optionsJSON,
	).Scan(&out.ID, &out.Quantity, &out.Customization, &storedOptions, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, apperrors.NotFound("product", line.ProductID.String())
		}
		return nil, fmt.Errorf("upsert cart line: %w", err)
	}
	if out.SelectedOptions, err = unmarshalOptions(storedOptions); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetQuantity overwrites the quantity of one of the owner's lines.
func (r *CartRepository) SetQuantity(ctx context.Context, owner domain.Owner, id uuid.UUID, quantity int) (err error) {
	where, arg := ownerClause("", owner, 3)
	query := `UPDATE cart_items SET quantity = $1, updated_at = NOW() WHERE id = $2 AND ` + where

	ctx, end := database.TraceQuery(ctx, "cart.SetQuantity", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, quantity, id, arg)
	if err != nil {
		if database.IsCheckViolation(err) {
			return apperrors.InvalidInput("quantity must be positive")
		}
		return fmt.Errorf("update cart line quantity: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("cart line", id.String())
	}
	return nil
}

// Delete removes one of the owner's lines.
func (r *CartRepository) Delete(ctx context.Context, owner domain.Owner, id uuid.UUID) (err error) {
	where, arg := ownerClause("", owner, 2)
	query := `DELETE FROM cart_items WHERE id = $1 AND ` + where

	ctx, end := database.TraceQuery(ctx, "cart.Delete", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, id, arg)
	if err != nil {
		return fmt.Errorf("delete cart line: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("cart line", id.String())
	}
	return nil
}

// Clear removes every line the owner has.
func (r *CartRepository) Clear(ctx context.Context, owner domain.Owner) error {
	where, arg := ownerClause("", owner, 1)
	if _, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE `+where, arg); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// Reassign switches a line's owner without touching any other column.
func (r *CartRepository) Reassign(ctx context.Context, id uuid.UUID, from, to domain.Owner) (err error) {
	where, arg := ownerClause("", from, 4)
	query := `UPDATE cart_items SET session_id = $1, user_id = $2, updated_at = NOW() WHERE id = $3 AND ` + where

	ctx, end := database.TraceQuery(ctx, "cart.Reassign", query)
	defer func() { end(err) }()

	sessionID, userID := ownerColumns(to)
	ct, err := r.db.Exec(ctx, query, sessionID, userID, id, arg)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.Conflict("owner already has a line for this product")
		}
		return fmt.Errorf("reassign cart line: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("cart line", id.String())
	}
	return nil
}

// notFoundOr maps pgx.ErrNoRows to a NotFound and wraps anything else.
func notFoundOr(err error, resource, id, verb string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NotFound(resource, id)
	}
	return fmt.Errorf("%s %s: %w", verb, resource, err)
}

// Absorb folds one line into another owner's line for the same product.
// The deleted row's stored quantity is what gets added, so a retry after a
// partial failure can never count it twice.
func (r *CartRepository) Absorb(ctx context.Context, from domain.Owner, lineID uuid.UUID, into domain.Owner, targetID uuid.UUID) (quantity int, err error) {
	ctx, end := database.TraceQuery(ctx, "cart.Absorb", "DELETE FROM cart_items ... UPDATE cart_items")
	defer func() { end(err) }()

	err = database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		fromWhere, fromArg := ownerClause("", from, 2)
		var moved int
		if err := tx.QueryRow(ctx,
			`DELETE FROM cart_items WHERE id = $1 AND `+fromWhere+` RETURNING quantity`,
			lineID, fromArg,
		).Scan(&moved); err != nil {
			return notFoundOr(err, "cart line", lineID.String(), "delete")
		}

		intoWhere, intoArg := ownerClause("", into, 3)
		if err := tx.QueryRow(ctx,
			`UPDATE cart_items SET quantity = quantity + $1, updated_at = NOW() WHERE id = $2 AND `+intoWhere+` RETURNING quantity`,
			moved, targetID, intoArg,
		).Scan(&quantity); err != nil {
			return notFoundOr(err, "cart line", targetID.String(), "update")
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return quantity, nil
}
