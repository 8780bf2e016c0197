package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/domain"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/repository"
	apperrors "github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/errors"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/logger"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/pagination"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/slug"
)

// CreateReviewInput is the body of a review submission.
type CreateReviewInput struct {
	AuthorName string `json:"author_name" validate:"required,min=1,max=100"`
	Rating     int    `json:"rating" validate:"required,min=1,max=5"`
	Title      string `json:"title" validate:"omitempty,max=200"`
	Body       string `json:"body" validate:"required,min=1,max=5000"`
}

// CatalogService serves products, categories and reviews.
type CatalogService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	reviews    repository.ReviewRepository
	logger     *slog.Logger
}

func NewCatalogService(
	products repository.ProductRepository,
	categories repository.CategoryRepository,
	reviews repository.ReviewRepository,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{products: products, categories: categories, reviews: reviews, logger: logger}
}

// ListProducts applies the filter and returns one page.
func (s *CatalogService) ListProducts(ctx context.Context, filter domain.ProductFilter) (pagination.Result[domain.Product], error) {
	if filter.Sort == "" {
		filter.Sort = domain.SortNewest
	}
	if !slices.Contains(domain.ValidProductSorts, filter.Sort) {
		return pagination.Result[domain.Product]{}, apperrors.InvalidInput(fmt.Sprintf("unknown sort %q", filter.Sort))
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return pagination.Result[domain.Product]{}, apperrors.InvalidInput("min_price must not exceed max_price")
	}
	if filter.MinRating != nil && (*filter.MinRating < 0 || *filter.MinRating > 5) {
		return pagination.Result[domain.Product]{}, apperrors.InvalidInput("min_rating must be between 0 and 5")
	}
	filter.Search = strings.TrimSpace(filter.Search)

	p := normalizePage(filter.Page, filter.PerPage)
	filter.Page, filter.PerPage = p.Page, p.PerPage

	products, total, err := s.products.List(ctx, filter)
	if err != nil {
		return pagination.Result[domain.Product]{}, fmt.Errorf("list products: %w", err)
	}
	return pagination.NewResult(products, total, p), nil
}

// GetProduct resolves a slug, hiding inactive products.
func (s *CatalogService) GetProduct(ctx context.Context, raw string) (*domain.Product, error) {
	key := slug.Normalize(raw)
	if key == "" {
		return nil, apperrors.NotFound("product", raw)
	}
	product, err := s.products.GetBySlug(ctx, key)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, apperrors.NotFound("product", key)
	}
	return product, nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (s *CatalogService) ListReviews(ctx context.Context, productID uuid.UUID, p pagination.Params) (pagination.Result[domain.Review], error) {
	p = normalizePage(p.Page, p.PerPage)
	reviews, total, err := s.reviews.ListApproved(ctx, productID, p.Page, p.PerPage)
	if err != nil {
		return pagination.Result[domain.Review]{}, fmt.Errorf("list reviews: %w", err)
	}
	return pagination.NewResult(reviews, total, p), nil
}

// CreateReview stores a review from an authenticated user. Reviews are
// published immediately; there is no moderation queue.
func (s *CatalogService) CreateReview(ctx context.Context, productID uuid.UUID, userID string, in CreateReviewInput) (*domain.Review, error) {
	if userID == "" {
		return nil, apperrors.Unauthorized("sign in to leave a review")
	}
	if in.Rating < 1 || in.Rating > 5 {
		return nil, apperrors.InvalidInput("rating must be between 1 and 5")
	}
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}

	review := &domain.Review{
		ProductID:  productID,
		UserID:     userID,
		AuthorName: strings.TrimSpace(in.AuthorName),
		Rating:     in.Rating,
		Title:      strings.TrimSpace(in.Title),
		Body:       strings.TrimSpace(in.Body),
		IsApproved: true,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, err
	}

	logger.WithContext(ctx, s.logger).InfoContext(ctx, "review created",
		slog.String("review_id", review.ID.String()),
		slog.String("product_id", productID.String()),
		slog.Int("rating", review.Rating),
	)
	return review, nil
}

func normalizePage(page, perPage int) pagination.Params {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = pagination.DefaultPerPage
	}
	return pagination.Params{Page: page, PerPage: min(perPage, pagination.MaxPerPage)}
}
