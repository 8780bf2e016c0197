package domain

import (
	"time"

	"github.com/google/uuid"
)

// Product is a catalog item. Prices are minor units of the store currency.
type Product struct {
	ID             uuid.UUID  `json:"id"`
	CategoryID     *uuid.UUID `json:"category_id,omitempty"`
	Name           string     `json:"name"`
	Slug           string     `json:"slug"`
	Description    string     `json:"description"`
	Price          int64      `json:"price"`
	CompareAtPrice *int64     `json:"compare_at_price,omitempty"`
	Images         []string   `json:"images"`
	Stock          int        `json:"stock"`
	IsFeatured     bool       `json:"is_featured"`
	IsCustomizable bool       `json:"is_customizable"`
	IsActive       bool       `json:"is_active"`
	AverageRating  float64    `json:"average_rating"`
	ReviewCount    int        `json:"review_count"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// InStock reports whether at least one unit is available.
func (p Product) InStock() bool { return p.Stock > 0 }

// OnSale reports whether the product is discounted from its list price.
func (p Product) OnSale() bool { return p.CompareAtPrice != nil && *p.CompareAtPrice > p.Price }

// ProductSort is the ordering requested by the storefront.
type ProductSort string

const (
	SortNewest    ProductSort = "newest"
	SortPriceAsc  ProductSort = "price_asc"
	SortPriceDesc ProductSort = "price_desc"
	SortRating    ProductSort = "rating"
	SortName      ProductSort = "name"
	SortFeatured  ProductSort = "featured"
)

// ValidProductSorts lists accepted sort keys.
var ValidProductSorts = []ProductSort{SortNewest, SortPriceAsc, SortPriceDesc, SortRating, SortName, SortFeatured}

// ProductFilter carries catalog query constraints verbatim from the UI.
// Nil pointers and empty slices mean "no constraint".
type ProductFilter struct {
	CategoryIDs   []uuid.UUID
	CategorySlugs []string
	MinPrice      *int64
	MaxPrice      *int64
	InStock       *bool
	Featured      *bool
	Customizable  *bool
	OnSale        *bool
	MinRating     *float64
	Search        string
	Sort          ProductSort
	Page          int
	PerPage       int
}

// Category groups products for navigation.
type Category struct {
	ID          uuid.UUID  `json:"id"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description string     `json:"description,omitempty"`
	ImageURL    string     `json:"image_url,omitempty"`
	SortOrder   int        `json:"sort_order"`
}
