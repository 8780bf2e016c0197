package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/domain"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/repository"
)

// WishlistService owns presence-only saved products.
type WishlistService struct {
	wishlists repository.WishlistRepository
	logger    *slog.Logger
}

func NewWishlistService(wishlists repository.WishlistRepository, logger *slog.Logger) *WishlistService {
	return &WishlistService{wishlists: wishlists, logger: logger}
}

func (s *WishlistService) List(ctx context.Context, owner domain.Owner) ([]domain.WishlistEntry, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	entries, err := s.wishlists.ListByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list wishlist: %w", err)
	}
	return entries, nil
}

// Add saves a product. Saving it twice is not an error.
func (s *WishlistService) Add(ctx context.Context, owner domain.Owner, productID uuid.UUID) (*domain.WishlistEntry, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	return s.wishlists.Add(ctx, owner, productID)
}

func (s *WishlistService) Remove(ctx context.Context, owner domain.Owner, productID uuid.UUID) error {
	if err := owner.Validate(); err != nil {
		return err
	}
	return s.wishlists.Remove(ctx, owner, productID)
}

func (s *WishlistService) Contains(ctx context.Context, owner domain.Owner, productID uuid.UUID) (bool, error) {
	if err := owner.Validate(); err != nil {
		return false, err
	}
	return s.wishlists.Contains(ctx, owner, productID)
}
