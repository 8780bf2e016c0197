package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/domain"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/repository"
	apperrors "github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/errors"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/logger"
)

// AddItemInput is the body of an add-to-cart request.
type AddItemInput struct {
	ProductID       uuid.UUID      `json:"product_id" validate:"required"`
	Quantity        int            `json:"quantity" validate:"required,min=1,max=99"`
	Customization   *string        `json:"customization,omitempty" validate:"omitempty,max=500"`
	SelectedOptions map[string]any `json:"selected_options,omitempty" validate:"omitempty,max=20"`
}

// UpdateQuantityInput sets a line's quantity; zero removes the line.
type UpdateQuantityInput struct {
	Quantity int `json:"quantity" validate:"min=0,max=99"`
}

// CartService owns cart reads and writes for either kind of owner.
type CartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	currency string
	logger   *slog.Logger
}

// NewCartService creates a cart service pricing carts in currency.
func NewCartService(carts repository.CartRepository, products repository.ProductRepository, currency string, logger *slog.Logger) *CartService {
	return &CartService{carts: carts, products: products, currency: currency, logger: logger}
}

// GetCart returns the owner's cart. An owner with no lines gets an empty cart.
func (s *CartService) GetCart(ctx context.Context, owner domain.Owner) (*domain.Cart, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	lines, err := s.carts.ListByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return domain.NewCart(owner, lines, s.currency), nil
}

// AddItem adds a product or bumps the quantity of the existing line.
func (s *CartService) AddItem(ctx context.Context, owner domain.Owner, in AddItemInput) (*domain.Cart, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}

	product, err := s.products.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, apperrors.NotFound("product", in.ProductID.String())
	}
	if !product.InStock() {
		return nil, apperrors.Conflict(fmt.Sprintf("%s is out of stock", product.Name))
	}
	if in.Customization != nil && !product.IsCustomizable {
		return nil, apperrors.InvalidInput(fmt.Sprintf("%s cannot be customized", product.Name))
	}

	lines, err := s.carts.ListByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if existing, ok := domain.CartLineByProduct(lines)[in.ProductID]; ok {
		if existing.Quantity+in.Quantity > domain.MaxQuantityPerLine {
			return nil, apperrors.InvalidInput(fmt.Sprintf("at most %d of one product per order", domain.MaxQuantityPerLine))
		}
	} else if len(lines) >= domain.MaxLinesPerCart {
		return nil, apperrors.InvalidInput(fmt.Sprintf("cart cannot hold more than %d products", domain.MaxLinesPerCart))
	}

	line := &domain.CartLine{
		ProductID:       in.ProductID,
		Owner:           owner,
		Quantity:        in.Quantity,
		Customization:   in.Customization,
		SelectedOptions: in.SelectedOptions,
	}
	if _, err := s.carts.Add(ctx, line); err != nil {
		return nil, err
	}

	logger.WithContext(ctx, s.logger).InfoContext(ctx, "cart item added",
		slog.String("owner", owner.Key()),
		slog.String("product_id", in.ProductID.String()),
		slog.Int("quantity", in.Quantity),
	)
	return s.GetCart(ctx, owner)
}

// UpdateQuantity sets a line's quantity, removing the line at zero.
func (s *CartService) UpdateQuantity(ctx context.Context, owner domain.Owner, lineID uuid.UUID, quantity int) (*domain.Cart, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	if quantity < 0 || quantity > domain.MaxQuantityPerLine {
		return nil, apperrors.InvalidInput(fmt.Sprintf("quantity must be between 0 and %d", domain.MaxQuantityPerLine))
	}

	var err error
	if quantity == 0 {
		err = s.carts.Delete(ctx, owner, lineID)
	} else {
		err = s.carts.SetQuantity(ctx, owner, lineID, quantity)
	}
	if err != nil {
		return nil, err
	}
	return s.GetCart(ctx, owner)
}

// RemoveItem deletes one line.
func (s *CartService) RemoveItem(ctx context.Context, owner domain.Owner, lineID uuid.UUID) (*domain.Cart, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	if err := s.carts.Delete(ctx, owner, lineID); err != nil {
		return nil, err
	}
	return s.GetCart(ctx, owner)
}

// Clear empties the owner's cart.
func (s *CartService) Clear(ctx context.Context, owner domain.Owner) error {
	if err := owner.Validate(); err != nil {
		return err
	}
	return s.carts.Clear(ctx, owner)
}
