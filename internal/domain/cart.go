package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	MaxQuantityPerLine = 99
	MaxLinesPerCart    = 50
)

// CartLine is one product in a cart. Customization is free text the buyer
// wants printed or engraved; SelectedOptions is an opaque bag of variant
// choices (size, colour, uploaded image URL) interpreted only when the
// order is fulfilled.
type CartLine struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	Owner
	Quantity        int            `json:"quantity"`
	Customization   *string        `json:"customization,omitempty"`
	SelectedOptions map[string]any `json:"selected_options,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`

	// Read-only product snapshot joined in when listing a cart.
	ProductName string `json:"product_name,omitempty"`
	ProductSlug string `json:"product_slug,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	UnitPrice   int64  `json:"unit_price"`
	InStock     bool   `json:"in_stock"`
}

// LineTotal is quantity × unit price in minor units.
func (l CartLine) LineTotal() int64 { return int64(l.Quantity) * l.UnitPrice }

// Cart is the read model returned to clients.
type Cart struct {
	Owner     Owner      `json:"owner"`
	Lines     []CartLine `json:"lines"`
	ItemCount int        `json:"item_count"`
	Subtotal  int64      `json:"subtotal"`
	Currency  string     `json:"currency"`
}

// NewCart totals lines into a Cart.
func NewCart(owner Owner, lines []CartLine, currency string) *Cart {
	if lines == nil {
		lines = []CartLine{}
	}
	c := &Cart{Owner: owner, Lines: lines, Currency: currency}
	for _, l := range lines {
		c.ItemCount += l.Quantity
		c.Subtotal += l.LineTotal()
	}
	return c
}

// CartLineByProduct indexes lines by product.
func CartLineByProduct(lines []CartLine) map[uuid.UUID]CartLine {
	idx := make(map[uuid.UUID]CartLine, len(lines))
	for _, l := range lines {
		idx[l.ProductID] = l
	}
	return idx
}
