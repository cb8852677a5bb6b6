package repositories

import (
	"context"
	"errors"

	"fashionhub/internal/models"
)

var (
	// ErrNotFound is wrapped by every lookup that matches no record.
	ErrNotFound = errors.New("record not found")
	// ErrStaleProduct reports a stock write that lost a concurrent update.
	ErrStaleProduct = errors.New("product was modified concurrently")
)

// ProductFilter narrows and orders a product listing.
type ProductFilter struct {
	Category     string
	Gender       string
	Brand        string
	Size         string
	Color        string
	Search       string
	MinPrice     *float64
	MaxPrice     *float64
	InStockOnly  bool
	FeaturedOnly bool
	SortBy       string // price, rating, name, newest, oldest
	SortOrder    string // asc, desc
	Offset       int
	Limit        int
}

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	List(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	// Update persists product with the same version check as UpdateStock.
	Update(ctx context.Context, product *models.Product) error
	// UpdateStock persists the size stock of product only if nobody else
	// wrote the product since it was read.
	UpdateStock(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
	Distinct(ctx context.Context, column string) ([]string, error)
}
