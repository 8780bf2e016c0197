package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/domain"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/database"
	apperrors "github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/errors"
)

// WishlistRepository implements repository.WishlistRepository.
type WishlistRepository struct {
	db database.DBTX
}

// NewWishlistRepository creates a PostgreSQL-backed wishlist repository.
func NewWishlistRepository(db database.DBTX) *WishlistRepository {
	return &WishlistRepository{db: db}
}

// ListByOwner returns the owner's entries with product details, newest first.
func (r *WishlistRepository) ListByOwner(ctx context.Context, owner domain.Owner) (_ []domain.WishlistEntry, err error) {
	where, arg := ownerClause("w.", owner, 1)
	query := `
		SELECT w.id, w.product_id, w.session_id, w.user_id, w.created_at,
		       p.name, p.slug, COALESCE(p.images[1], ''), p.price
		FROM wishlists w
		JOIN products p ON p.id = w.product_id
		WHERE ` + where + `
		ORDER BY w.created_at DESC, w.id`

	ctx, end := database.TraceQuery(ctx, "wishlist.ListByOwner", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list wishlist: %w", err)
	}
	defer rows.Close()

	entries := []domain.WishlistEntry{}
	for rows.Next() {
		var (
			e                 domain.WishlistEntry
			sessionID, userID *string
		)
		if err := rows.Scan(&e.ID, &e.ProductID, &sessionID, &userID, &e.CreatedAt,
			&e.ProductName, &e.ProductSlug, &e.ImageURL, &e.Price); err != nil {
			return nil, fmt.Errorf("scan wishlist entry: %w", err)
		}
		e.Owner = ownerFromColumns(sessionID, userID)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wishlist: %w", err)
	}
	return entries, nil
}

// Add inserts the entry unless the owner already has the product, in which
// case the existing row is returned unchanged.
func (r *WishlistRepository) Add(ctx context.Context, owner domain.Owner, productID uuid.UUID) (*domain.WishlistEntry, error) {
	target := "(user_id, product_id) WHERE user_id IS NOT NULL"
	if owner.IsAnonymous() {
		target = "(session_id, product_id) WHERE session_id IS NOT NULL"
	}
	// The no-op update makes RETURNING yield the existing row on conflict.
	query := `
		INSERT INTO wishlists (id, product_id, session_id, user_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT ` + target + ` DO UPDATE SET product_id = EXCLUDED.product_id
		RETURNING id, created_at`

	sessionID, userID := ownerColumns(owner)
	e := domain.WishlistEntry{ProductID: productID, Owner: owner}
	err := r.db.QueryRow(ctx, query, uuid.New(), productID, sessionID, userID).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, apperrors.NotFound("product", productID.String())
		}
		return nil, fmt.Errorf("insert wishlist entry: %w", err)
	}
	return &e, nil
}

// Remove deletes the owner's entry for a product.
func (r *WishlistRepository) Remove(ctx context.Context, owner domain.Owner, productID uuid.UUID) error {
	where, arg := ownerClause("", owner, 2)
	ct, err := r.db.Exec(ctx, `DELETE FROM wishlists WHERE product_id = $1 AND `+where, productID, arg)
	if err != nil {
		return fmt.Errorf("delete wishlist entry: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("wishlist entry", productID.String())
	}
	return nil
}

// DeleteByID deletes one of the owner's entries by row id.
func (r *WishlistRepository) DeleteByID(ctx context.Context, owner domain.Owner, id uuid.UUID) (err error) {
	where, arg := ownerClause("", owner, 2)
	query := `DELETE FROM wishlists WHERE id = $1 AND ` + where

	ctx, end := database.TraceQuery(ctx, "wishlist.DeleteByID", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, id, arg)
	if err != nil {
		return fmt.Errorf("delete wishlist entry: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("wishlist entry", id.String())
	}
	return nil
}

// Contains reports whether the owner has saved the product.
func (r *WishlistRepository) Contains(ctx context.Context, owner domain.Owner, productID uuid.UUID) (bool, error) {
	where, arg := ownerClause("", owner, 2)
	var ok bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM wishlists WHERE product_id = $1 AND `+where+`)`,
		productID, arg,
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check wishlist entry: %w", err)
	}
	return ok, nil
}

// Reassign switches an entry's owner in place, keeping its id and created_at.
func (r *WishlistRepository) Reassign(ctx context.Context, id uuid.UUID, from, to domain.Owner) (err error) {
	where, arg := ownerClause("", from, 4)
	query := `UPDATE wishlists SET session_id = $1, user_id = $2 WHERE id = $3 AND ` + where

	ctx, end := database.TraceQuery(ctx, "wishlist.Reassign", query)
	defer func() { end(err) }()

	sessionID, userID := ownerColumns(to)
	ct, err := r.db.Exec(ctx, query, sessionID, userID, id, arg)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.Conflict("owner already has this product wishlisted")
		}
		return fmt.Errorf("reassign wishlist entry: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("wishlist entry", id.String())
	}
	return nil
}
