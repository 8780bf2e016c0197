package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/domain"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/database"
)

// BlogRepository implements repository.BlogRepository.
type BlogRepository struct {
	db database.DBTX
}

func NewBlogRepository(db database.DBTX) *BlogRepository {
	return &BlogRepository{db: db}
}

// ListPublished returns published posts, newest first, without bodies.
// An empty tag matches every post.
func (r *BlogRepository) ListPublished(ctx context.Context, tag string, page, perPage int) ([]domain.BlogPost, int, error) {
	limit, offset := limitOffset(page, perPage)
	rows, err := r.db.Query(ctx, `
		SELECT id, title, slug, excerpt, cover_image, author, tags, published_at,
		       count(*) OVER() AS total_count
		FROM blog_posts
		WHERE published_at IS NOT NULL AND published_at <= NOW()
		  AND ($1 = '' OR $1 = ANY(tags))
		ORDER BY published_at DESC, id
		LIMIT $2 OFFSET $3`, tag, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list blog posts: %w", err)
	}
	defer rows.Close()

	var (
		posts = []domain.BlogPost{}
		total int
	)
	for rows.Next() {
		var p domain.BlogPost
		if err := rows.Scan(&p.ID, &p.Title, &p.Slug, &p.Excerpt, &p.CoverImage, &p.Author,
			&p.Tags, &p.PublishedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan blog post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate blog posts: %w", err)
	}
	return posts, total, nil
}

func (r *BlogRepository) GetBySlug(ctx context.Context, slug string) (*domain.BlogPost, error) {
	var p domain.BlogPost
	err := r.db.QueryRow(ctx, `
		SELECT id, title, slug, excerpt, body, cover_image, author, tags, published_at
		FROM blog_posts
		WHERE slug = $1 AND published_at IS NOT NULL AND published_at <= NOW()`, slug,
	).Scan(&p.ID, &p.Title, &p.Slug, &p.Excerpt, &p.Body, &p.CoverImage, &p.Author, &p.Tags, &p.PublishedAt)
	if err != nil {
		return nil, notFoundOr(err, "blog post", slug, "get")
	}
	return &p, nil
}

// SupportRepository implements repository.SupportRepository.
type SupportRepository struct {
	db database.DBTX
}

func NewSupportRepository(db database.DBTX) *SupportRepository {
	return &SupportRepository{db: db}
}

func (r *SupportRepository) Create(ctx context.Context, m *domain.SupportMessage) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO support_messages (id, user_id, name, email, subject, message)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING status, created_at`,
		m.ID, m.UserID, m.Name, m.Email, m.Subject, m.Message,
	).Scan(&m.Status, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert support message: %w", err)
	}
	return nil
}

// CustomOrderRepository implements repository.CustomOrderRepository.
type CustomOrderRepository struct {
	db database.DBTX
}

func NewCustomOrderRepository(db database.DBTX) *CustomOrderRepository {
	return &CustomOrderRepository{db: db}
}

func (r *CustomOrderRepository) Create(ctx context.Context, co *domain.CustomOrder) error {
	if co.ID == uuid.Nil {
		co.ID = uuid.New()
	}
	if co.ReferenceImages == nil {
		co.ReferenceImages = []string{}
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO custom_orders (id, user_id, name, email, phone, description, occasion, budget, reference_images)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING status, created_at`,
		co.ID, co.UserID, co.Name, co.Email, co.Phone, co.Description, co.Occasion, co.Budget, co.ReferenceImages,
	).Scan(&co.Status, &co.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert custom order: %w", err)
	}
	return nil
}

// ListByUser returns a user's requests, newest first.
func (r *CustomOrderRepository) ListByUser(ctx context.Context, userID string) ([]domain.CustomOrder, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, name, email, phone, description, occasion, budget, reference_images, status, created_at
		FROM custom_orders
		WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list custom orders: %w", err)
	}
	defer rows.Close()

	orders := []domain.CustomOrder{}
	for rows.Next() {
		var co domain.CustomOrder
		if err := rows.Scan(&co.ID, &co.UserID, &co.Name, &co.Email, &co.Phone, &co.Description,
			&co.Occasion, &co.Budget, &co.ReferenceImages, &co.Status, &co.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan custom order: %w", err)
		}
		orders = append(orders, co)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate custom orders: %w", err)
	}
	return orders, nil
}
