package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fashionhub/internal/cache"
	"fashionhub/internal/models"
	"fashionhub/internal/repositories"
)

const (
	DefaultProductPageSize = 12
	featuredLimit          = 8
	updateAttempts         = 3
)

// Page describes one page of a paginated listing.
type Page struct {
	Number     int
	Limit      int
	Total      int64
	TotalPages int
}

// NewPage normalizes the requested page and limit and derives the page count.
func NewPage(number, limit int, total int64) Page {
	if number < 1 {
		number = 1
	}
	if limit < 1 {
		limit = 1
	}
	return Page{
		Number:     number,
		Limit:      limit,
		Total:      total,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	}
}

// Offset is the number of records before the page.
func (p Page) Offset() int { return (p.Number - 1) * p.Limit }

func (p Page) HasNext() bool { return p.Number < p.TotalPages }

func (p Page) HasPrev() bool { return p.Number > 1 }

// ProductPatch holds the fields of a partial product update. Nil fields are
// left untouched.
type ProductPatch struct {
	Name          *string             `json:"name" validate:"omitempty,max=50"`
	Description   *string             `json:"description" validate:"omitempty,max=1000"`
	Price         *float64            `json:"price" validate:"omitempty,gte=0"`
	OriginalPrice *float64            `json:"originalPrice" validate:"omitempty,gte=0"`
	Category      *string             `json:"category" validate:"omitempty,oneof=Shirts T-Shirts Pants Jeans Dresses Skirts Jackets Sweaters Shoes Accessories Bags Underwear"`
	Subcategory   *string             `json:"subcategory"`
	Brand         *string             `json:"brand"`
	Sizes         *[]models.SizeStock `json:"sizes" validate:"omitempty,dive"`
	Colors        *[]string           `json:"colors"`
	Material      *string             `json:"material"`
	Images        *[]models.Image     `json:"images" validate:"omitempty,dive"`
	Featured      *bool               `json:"featured"`
	InStock       *bool               `json:"inStock"`
	Tags          *[]string           `json:"tags"`
	Gender        *string             `json:"gender" validate:"omitempty,oneof=Men Women Unisex Kids"`
}

func (p ProductPatch) apply(product *models.Product) {
	if p.Name != nil {
		product.Name = *p.Name
	}
	if p.Description != nil {
		product.Description = *p.Description
	}
	if p.Price != nil {
		product.Price = *p.Price
	}
	if p.OriginalPrice != nil {
		product.OriginalPrice = p.OriginalPrice
	}
	if p.Category != nil {
		product.Category = *p.Category
	}
	if p.Subcategory != nil {
		product.Subcategory = *p.Subcategory
	}
	if p.Brand != nil {
		product.Brand = *p.Brand
	}
	if p.Sizes != nil {
		product.Sizes = *p.Sizes
	}
	if p.Colors != nil {
		product.Colors = *p.Colors
	}
	if p.Material != nil {
		product.Material = *p.Material
	}
	if p.Images != nil {
		product.Images = *p.Images
	}
	if p.Featured != nil {
		product.Featured = *p.Featured
	}
	if p.InStock != nil {
		product.InStock = *p.InStock
	}
	if p.Tags != nil {
		product.Tags = *p.Tags
	}
	if p.Gender != nil {
		product.Gender = *p.Gender
	}
}

// CatalogFacets are the distinct values clients can filter the catalog by.
type CatalogFacets struct {
	Categories []string `json:"categories"`
	Genders    []string `json:"genders"`
	Brands     []string `json:"brands"`
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo  repositories.ProductRepository
	cache cache.ProductCache
}

// NewProductService creates a new ProductService. productCache may be nil.
func NewProductService(repo repositories.ProductRepository, productCache cache.ProductCache) *ProductService {
	return &ProductService{
		repo:  repo,
		cache: productCache,
	}
}

// ListProducts returns the requested page of products matching filter.
func (s *ProductService) ListProducts(ctx context.Context, filter repositories.ProductFilter, page, limit int) ([]models.Product, Page, error) {
	p := NewPage(page, limit, 0)
	filter.Offset = p.Offset()
	filter.Limit = p.Limit

	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, Page{}, fmt.Errorf("failed to list products: %w", err)
	}
	return products, NewPage(p.Number, p.Limit, total), nil
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	if s.cache != nil {
		if product, ok := s.cache.Get(ctx, id); ok {
			return product, nil
		}
	}

	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrProductNotFound, "failed to get product")
	}
	if s.cache != nil {
		s.cache.Set(ctx, product)
	}
	return product, nil
}

// CreateProduct creates a new product. Products without images get the
// default picture.
func (s *ProductService) CreateProduct(ctx context.Context, product *models.Product) error {
	if len(product.Images) == 0 {
		product.Images = []models.Image{{URL: models.DefaultImageURL, Alt: product.Name}}
	}
	if product.Sizes == nil {
		product.Sizes = []models.SizeStock{}
	}
	if product.Colors == nil {
		product.Colors = []string{}
	}
	if product.Tags == nil {
		product.Tags = []string{}
	}
	return s.repo.Create(ctx, product)
}

// UpdateProduct applies patch to the product with the given ID. The patch is
// re-applied to a fresh read when a checkout changes the product in between.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, patch ProductPatch) (*models.Product, error) {
	for attempt := 0; attempt < updateAttempts; attempt++ {
		product, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, notFound(err, ErrProductNotFound, "failed to get product")
		}

		patch.apply(product)
		err = s.repo.Update(ctx, product)
		if errors.Is(err, repositories.ErrStaleProduct) {
			slog.Debug("product changed during update, retrying", "product_id", id, "attempt", attempt+1)
			continue
		}
		if err != nil {
			return nil, notFound(err, ErrProductNotFound, "failed to update product")
		}
		s.invalidate(ctx, id)
		return product, nil
	}
	return nil, ErrProductModified
}

// DeleteProduct deletes a product by its ID.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFound(err, ErrProductNotFound, "failed to delete product")
	}
	s.invalidate(ctx, id)
	return nil
}

// FeaturedProducts returns the best rated featured products still in stock.
func (s *ProductService) FeaturedProducts(ctx context.Context) ([]models.Product, error) {
	products, _, err := s.repo.List(ctx, repositories.ProductFilter{
		FeaturedOnly: true,
		InStockOnly:  true,
		SortBy:       "rating",
		SortOrder:    "desc",
		Limit:        featuredLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list featured products: %w", err)
	}
	return products, nil
}

// ProductsByCategory returns the in-stock products of category, best rated
// first.
func (s *ProductService) ProductsByCategory(ctx context.Context, category string, page, limit int) ([]models.Product, Page, error) {
	return s.ListProducts(ctx, repositories.ProductFilter{
		Category:    category,
		InStockOnly: true,
		SortBy:      "rating",
		SortOrder:   "desc",
	}, page, limit)
}

// Facets returns the distinct categories, genders and brands of the catalog.
func (s *ProductService) Facets(ctx context.Context) (*CatalogFacets, error) {
	var facets CatalogFacets
	for column, dst := range map[string]*[]string{
		"category": &facets.Categories,
		"gender":   &facets.Genders,
		"brand":    &facets.Brands,
	} {
		values, err := s.repo.Distinct(ctx, column)
		if err != nil {
			return nil, err
		}
		*dst = values
	}
	return &facets, nil
}

func (s *ProductService) invalidate(ctx context.Context, ids ...string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, ids...)
	}
}
