package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/domain"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/service"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/httputil"
)

// CartHandler serves the cart and wishlist of whoever is calling: the
// signed-in user, or the anonymous session otherwise.
type CartHandler struct {
	carts     *service.CartService
	wishlists *service.WishlistService
	logger    *slog.Logger
}

func NewCartHandler(carts *service.CartService, wishlists *service.WishlistService, logger *slog.Logger) *CartHandler {
	return &CartHandler{carts: carts, wishlists: wishlists, logger: logger}
}

// AddToWishlistRequest is the body of POST /api/v1/wishlist.
type AddToWishlistRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
}

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFromRequest(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	cart, err := h.carts.GetCart(r.Context(), owner)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, cart)
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFromRequest(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	var req service.AddItemInput
	if err := httputil.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	cart, err := h.carts.AddItem(r.Context(), owner, req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, cart)
}

// UpdateItem handles PATCH /api/v1/cart/items/{id}
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFromRequest(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	lineID, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	var req service.UpdateQuantityInput
	if err := httputil.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	cart, err := h.carts.UpdateQuantity(r.Context(), owner, lineID, req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, cart)
}

// RemoveItem handles DELETE /api/v1/cart/items/{id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFromRequest(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	lineID, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	cart, err := h.carts.RemoveItem(r.Context(), owner, lineID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, cart)
}

// ClearCart handles DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFromRequest(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if err := h.carts.Clear(r.Context(), owner); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListWishlist handles GET /api/v1/wishlist
func (h *CartHandler) ListWishlist(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFromRequest(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	entries, err := h.wishlists.List(r.Context(), owner)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if entries == nil {
		entries = []domain.WishlistEntry{}
	}
	httputil.WriteData(w, http.StatusOK, entries)
}

// AddToWishlist handles POST /api/v1/wishlist
func (h *CartHandler) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFromRequest(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	var req AddToWishlistRequest
	if err := httputil.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	entry, err := h.wishlists.Add(r.Context(), owner, req.ProductID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, entry)
}

// WishlistContains handles GET /api/v1/wishlist/{productID}
func (h *CartHandler) WishlistContains(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFromRequest(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	productID, ok := httputil.ParseUUID(w, chi.URLParam(r, "productID"))
	if !ok {
		return
	}
	found, err := h.wishlists.Contains(r.Context(), owner, productID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, map[string]bool{"wishlisted": found})
}

// RemoveFromWishlist handles DELETE /api/v1/wishlist/{productID}
func (h *CartHandler) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFromRequest(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	productID, ok := httputil.ParseUUID(w, chi.URLParam(r, "productID"))
	if !ok {
		return
	}
	if err := h.wishlists.Remove(r.Context(), owner, productID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
