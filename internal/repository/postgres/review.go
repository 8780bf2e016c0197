package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/domain"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/database"
	apperrors "github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/errors"
)

// ReviewRepository implements repository.ReviewRepository.
type ReviewRepository struct {
	db database.DBTX
}

func NewReviewRepository(db database.DBTX) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// ListApproved returns approved reviews for a product, newest first.
func (r *ReviewRepository) ListApproved(ctx context.Context, productID uuid.UUID, page, perPage int) ([]domain.Review, int, error) {
	limit, offset := limitOffset(page, perPage)
	rows, err := r.db.Query(ctx, `
		SELECT id, product_id, user_id, author_name, rating, title, body, is_approved, created_at,
		       count(*) OVER() AS total_count
		FROM product_reviews
		WHERE product_id = $1 AND is_approved
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`, productID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var (
		reviews = []domain.Review{}
		total   int
	)
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(&rv.ID, &rv.ProductID, &rv.UserID, &rv.AuthorName, &rv.Rating,
			&rv.Title, &rv.Body, &rv.IsApproved, &rv.CreatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate reviews: %w", err)
	}
	return reviews, total, nil
}

// Create inserts the review and recomputes the product's rating summary in
// the same transaction.
func (r *ReviewRepository) Create(ctx context.Context, rv *domain.Review) error {
	if rv.ID == uuid.Nil {
		rv.ID = uuid.New()
	}
	return database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO product_reviews (id, product_id, user_id, author_name, rating, title, body, is_approved)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING created_at`,
			rv.ID, rv.ProductID, rv.UserID, rv.AuthorName, rv.Rating, rv.Title, rv.Body, rv.IsApproved,
		).Scan(&rv.CreatedAt)
		if err != nil {
			switch {
			case database.IsUniqueViolation(err):
				return apperrors.AlreadyExists("review", "product_id", rv.ProductID.String())
			case database.IsForeignKeyViolation(err):
				return apperrors.NotFound("product", rv.ProductID.String())
			}
			return fmt.Errorf("insert review: %w", err)
		}

		if _, err := tx.Exec(ctx, `
			UPDATE products p
			SET average_rating = s.avg, review_count = s.cnt, updated_at = NOW()
			FROM (
				SELECT COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS cnt
				FROM product_reviews
				WHERE product_id = $1 AND is_approved
			) s
			WHERE p.id = $1`, rv.ProductID); err != nil {
			return fmt.Errorf("refresh product rating: %w", err)
		}
		return nil
	})
}
