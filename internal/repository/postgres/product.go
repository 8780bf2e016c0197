package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/domain"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/database"
)

const productColumns = `id, category_id, name, slug, description, price, compare_at_price, images, stock,
	is_featured, is_customizable, is_active, average_rating, review_count, created_at, updated_at`

var productOrder = map[domain.ProductSort]string{
	domain.SortNewest:    "created_at DESC, id",
	domain.SortPriceAsc:  "price ASC, id",
	domain.SortPriceDesc: "price DESC, id",
	domain.SortRating:    "average_rating DESC, review_count DESC, id",
	domain.SortName:      "name ASC, id",
	domain.SortFeatured:  "is_featured DESC, created_at DESC, id",
}

// ProductRepository implements repository.ProductRepository.
type ProductRepository struct {
	db database.DBTX
}

// NewProductRepository creates a PostgreSQL-backed product repository.
func NewProductRepository(db database.DBTX) *ProductRepository {
	return &ProductRepository{db: db}
}

// buildProductWhere turns a filter into a WHERE clause over active products.
func buildProductWhere(f domain.ProductFilter) (string, []any) {
	conditions := []string{"is_active"}
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(f.CategoryIDs) > 0 {
		conditions = append(conditions, "category_id = ANY("+arg(f.CategoryIDs)+")")
	}
	if len(f.CategorySlugs) > 0 {
		conditions = append(conditions,
			"category_id IN (SELECT id FROM categories WHERE slug = ANY("+arg(f.CategorySlugs)+"))")
	}
	if f.MinPrice != nil {
		conditions = append(conditions, "price >= "+arg(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		conditions = append(conditions, "price <= "+arg(*f.MaxPrice))
	}
	if f.InStock != nil {
		if *f.InStock {
			conditions = append(conditions, "stock > 0")
		} else {
			conditions = append(conditions, "stock = 0")
		}
	}
	if f.Featured != nil {
		conditions = append(conditions, "is_featured = "+arg(*f.Featured))
	}
	if f.Customizable != nil {
		conditions = append(conditions, "is_customizable = "+arg(*f.Customizable))
	}
	if f.OnSale != nil {
		if *f.OnSale {
			conditions = append(conditions, "compare_at_price > price")
		} else {
			conditions = append(conditions, "(compare_at_price IS NULL OR compare_at_price <= price)")
		}
	}
	if f.MinRating != nil {
		conditions = append(conditions, "average_rating >= "+arg(*f.MinRating))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		q := arg(s)
		conditions = append(conditions,
			fmt.Sprintf("(search_vector @@ plainto_tsquery('simple', %s) OR name ILIKE '%%' || %s || '%%')", q, q))
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

// List returns one page of products matching the filter and the total count.
func (r *ProductRepository) List(ctx context.Context, f domain.ProductFilter) (_ []domain.Product, _ int, err error) {
	where, args := buildProductWhere(f)
	order, ok := productOrder[f.Sort]
	if !ok {
		order = productOrder[domain.SortNewest]
	}
	limit, offset := limitOffset(f.Page, f.PerPage)
	args = append(args, limit, offset)

	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM products
		%s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`,
		productColumns, where, order, len(args)-1, len(args))

	ctx, end := database.TraceQuery(ctx, "product.List", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var (
		products = []domain.Product{}
		total    int
	)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ID, &p.CategoryID, &p.Name, &p.Slug, &p.Description, &p.Price, &p.CompareAtPrice,
			&p.Images, &p.Stock, &p.IsFeatured, &p.IsCustomizable, &p.IsActive,
			&p.AverageRating, &p.ReviewCount, &p.CreatedAt, &p.UpdatedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate product rows: %w", err)
	}
	return products, total, nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return r.getOne(ctx, "id = $1", id, id.String())
}

func (r *ProductRepository) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	return r.getOne(ctx, "slug = $1 AND is_active", slug, slug)
}

func (r *ProductRepository) getOne(ctx context.Context, where string, arg any, label string) (*domain.Product, error) {
	var p domain.Product
	err := r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE `+where, arg).Scan(
		&p.ID, &p.CategoryID, &p.Name, &p.Slug, &p.Description, &p.Price, &p.CompareAtPrice,
		&p.Images, &p.Stock, &p.IsFeatured, &p.IsCustomizable, &p.IsActive,
		&p.AverageRating, &p.ReviewCount, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, notFoundOr(err, "product", label, "get")
	}
	return &p, nil
}

// CategoryRepository implements repository.CategoryRepository.
type CategoryRepository struct {
	db database.DBTX
}

func NewCategoryRepository(db database.DBTX) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// List returns all categories in display order.
func (r *CategoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, parent_id, name, slug, description, image_url, sort_order
		FROM categories
		ORDER BY sort_order, name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := []domain.Category{}
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.ParentID, &c.Name, &c.Slug, &c.Description, &c.ImageURL, &c.SortOrder); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}
