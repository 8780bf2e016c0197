package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/domain"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/service"
	apperrors "github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/errors"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/httputil"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/middleware"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/pagination"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/slug"
)

// CatalogHandler serves products, categories and reviews.
type CatalogHandler struct {
	service *service.CatalogService
	logger  *slog.Logger
}

func NewCatalogHandler(svc *service.CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{service: svc, logger: logger}
}

// ListProducts handles GET /api/v1/products
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	filter, err := parseProductFilter(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	result, err := h.service.ListProducts(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, result)
}

// GetProduct handles GET /api/v1/products/{product}
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "product"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, product)
}

// ListCategories handles GET /api/v1/categories
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if categories == nil {
		categories = []domain.Category{}
	}
	httputil.WriteData(w, http.StatusOK, categories)
}

// ListReviews handles GET /api/v1/products/{product}/reviews
func (h *CatalogHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseUUID(w, chi.URLParam(r, "product"))
	if !ok {
		return
	}
	result, err := h.service.ListReviews(r.Context(), productID, pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, result)
}

// CreateReview handles POST /api/v1/products/{product}/reviews
func (h *CatalogHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseUUID(w, chi.URLParam(r, "product"))
	if !ok {
		return
	}
	var req service.CreateReviewInput
	if err := httputil.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	review, err := h.service.CreateReview(r.Context(), productID, middleware.UserIDFromContext(r.Context()), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, review)
}

// parseProductFilter reads the catalog query string:
//
//	category=<uuid|slug>[,...]  min_price, max_price  in_stock, featured,
//	customizable, on_sale  min_rating  q  sort  page, per_page
func parseProductFilter(r *http.Request) (domain.ProductFilter, error) {
	q := r.URL.Query()
	p := pagination.FromRequest(r)
	f := domain.ProductFilter{
		Search:  q.Get("q"),
		Sort:    domain.ProductSort(q.Get("sort")),
		Page:    p.Page,
		PerPage: p.PerPage,
	}

	for _, raw := range q["category"] {
		for _, c := range strings.Split(raw, ",") {
			c = strings.TrimSpace(c)
			if c == "" {
				continue
			}
			if id, err := uuid.Parse(c); err == nil {
				f.CategoryIDs = append(f.CategoryIDs, id)
			} else {
				f.CategorySlugs = append(f.CategorySlugs, slug.Normalize(c))
			}
		}
	}

	var err error
	if f.MinPrice, err = int64Param(q.Get("min_price"), "min_price"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = int64Param(q.Get("max_price"), "max_price"); err != nil {
		return f, err
	}
	for name, dst := range map[string]**bool{
		"in_stock":     &f.InStock,
		"featured":     &f.Featured,
		"customizable": &f.Customizable,
		"on_sale":      &f.OnSale,
	} {
		if *dst, err = boolParam(q.Get(name), name); err != nil {
			return f, err
		}
	}
	if v := q.Get("min_rating"); v != "" {
		rating, perr := strconv.ParseFloat(v, 64)
		if perr != nil {
			return f, apperrors.InvalidInput("min_rating must be a number")
		}
		f.MinRating = &rating
	}
	return f, nil
}

func int64Param(v, name string) (*int64, error) {
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return nil, apperrors.InvalidInput(name + " must be a non-negative integer")
	}
	return &n, nil
}

func boolParam(v, name string) (*bool, error) {
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, apperrors.InvalidInput(name + " must be true or false")
	}
	return &b, nil
}
