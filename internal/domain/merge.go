package domain

import "github.com/google/uuid"

// MergeFailure records one row the merge could not move.
type MergeFailure struct {
	LineID    uuid.UUID `json:"line_id"`
	ProductID uuid.UUID `json:"product_id"`
	Step      string    `json:"step"`
	Error     string    `json:"error"`
}

// MergeReport summarises one reconciliation pass over a cart or wishlist.
// Summed counts rows folded into an existing user row (cart quantities
// added, or duplicate wishlist entries dropped); Transferred counts rows
// whose owner was switched in place.
type MergeReport struct {
	Scanned     int            `json:"scanned"`
	Summed      int            `json:"summed"`
	Transferred int            `json:"transferred"`
	Failures    []MergeFailure `json:"failures,omitempty"`
}

// Partial reports whether some anonymous rows were left behind.
func (r MergeReport) Partial() bool { return len(r.Failures) > 0 }

// SessionMergeResult is what a login hands back to the client.
type SessionMergeResult struct {
	Cart           *Cart           `json:"cart"`
	Wishlist       []WishlistEntry `json:"wishlist"`
	CartReport     MergeReport     `json:"cart_report"`
	WishlistReport MergeReport     `json:"wishlist_report"`
}
