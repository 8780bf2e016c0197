package domain

import (
	"time"

	"github.com/google/uuid"
)

// WishlistEntry marks a product as saved by an owner. Presence only.
type WishlistEntry struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	Owner
	CreatedAt time.Time `json:"created_at"`

	ProductName string `json:"product_name,omitempty"`
	ProductSlug string `json:"product_slug,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	Price       int64  `json:"price"`
}
