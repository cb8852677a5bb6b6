package services

import (
	"context"
	"errors"
	"fmt"

	"fashionhub/internal/models"
	"fashionhub/internal/repositories"
)

// AddCartItemInput is a request to put a product variant in the cart. A nil
// Quantity means one unit.
type AddCartItemInput struct {
	ProductID string `json:"productId" validate:"required"`
	Size      string `json:"size" validate:"required"`
	Color     string `json:"color" validate:"required"`
	Quantity  *int   `json:"quantity"`
}

// CartService manages the single cart of each user.
type CartService struct {
	carts    repositories.CartRepository
	products repositories.ProductRepository
}

// NewCartService creates a new CartService.
func NewCartService(carts repositories.CartRepository, products repositories.ProductRepository) *CartService {
	return &CartService{carts: carts, products: products}
}

// GetCart returns the user's cart, creating an empty one on first use.
func (s *CartService) GetCart(ctx context.Context, userID string) (*models.Cart, error) {
	cart, err := s.carts.GetByUserID(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	cart = models.NewCart(userID)
	if createErr := s.carts.Create(ctx, cart); createErr != nil {
		// A concurrent request may have created the cart first.
		if existing, getErr := s.carts.GetByUserID(ctx, userID); getErr == nil {
			return existing, nil
		}
		return nil, createErr
	}
	return cart, nil
}

// AddItem adds a product variant to the user's cart. The product is read
// from the store so the stock check sees the current quantities.
func (s *CartService) AddItem(ctx context.Context, userID string, in AddCartItemInput) (*models.Cart, error) {
	quantity := models.MinLineQuantity
	if in.Quantity != nil {
		quantity = *in.Quantity
	}
	if quantity < models.MinLineQuantity || quantity > models.MaxLineQuantity {
		return nil, &models.CartError{
			Err:     models.ErrQuantityOutOfRange,
			Message: fmt.Sprintf("Quantity must be between %d and %d", models.MinLineQuantity, models.MaxLineQuantity),
		}
	}

	product, err := s.products.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, notFound(err, ErrProductNotFound, "failed to get product")
	}

	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := cart.AddItem(product, in.Size, in.Color, quantity); err != nil {
		return nil, err
	}
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// UpdateItem sets the quantity of a cart line; zero removes it.
func (s *CartService) UpdateItem(ctx context.Context, userID, itemID string, quantity int) (*models.Cart, error) {
	if quantity < 0 || quantity > models.MaxLineQuantity {
		return nil, &models.CartError{
			Err:     models.ErrQuantityOutOfRange,
			Message: fmt.Sprintf("Quantity must be between 0 and %d", models.MaxLineQuantity),
		}
	}

	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := cart.UpdateItemQuantity(itemID, quantity); err != nil {
		return nil, err
	}
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// RemoveItem drops a cart line. Unknown lines are ignored.
func (s *CartService) RemoveItem(ctx context.Context, userID, itemID string) (*models.Cart, error) {
	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	cart.RemoveItem(itemID)
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// ClearCart removes every line of the user's cart.
func (s *CartService) ClearCart(ctx context.Context, userID string) (*models.Cart, error) {
	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	cart.Clear()
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// CountItems returns the number of lines in the user's cart without creating
// one.
func (s *CartService) CountItems(ctx context.Context, userID string) (int, error) {
	cart, err := s.carts.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return len(cart.Items), nil
}
