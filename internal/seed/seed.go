// Package seed loads a starter catalog into an empty store.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"fashionhub/internal/models"
	"fashionhub/internal/repositories"
)

// CatalogEntry is a product in the flat import format: one stock figure for
// the whole product, spread evenly over its sizes.
type CatalogEntry struct {
	Name          string
	Description   string
	Price         float64
	OriginalPrice float64
	Category      string
	Gender        string
	Sizes         []string
	Colors        []string
	ImageURLs     []string
	Stock         int
	Rating        float64
	Featured      bool
}

var genderNames = map[string]string{"men": "Men", "women": "Women", "kids": "Kids", "unisex": "Unisex"}

var categoryNames = map[string]string{
	"T-shirts":    "T-Shirts",
	"Tops":        "T-Shirts",
	"Denim":       "Jeans",
	"Hoodies":     "Sweaters",
	"Formal Wear": "Shirts",
	"Heels":       "Shoes",
	"Footwear":    "Shoes",
	"Handbags":    "Bags",
	"Kurti":       "Dresses",
	"Ethnic Wear": "Dresses",
	"Winter wear": "Jackets",
}

// ToProduct maps an entry onto the catalog model. The first sizes receive
// the remainder when the stock does not divide evenly.
func (e CatalogEntry) ToProduct() *models.Product {
	sizes := make([]models.SizeStock, len(e.Sizes))
	if n := len(e.Sizes); n > 0 {
		per, rem := e.Stock/n, e.Stock%n
		for i, size := range e.Sizes {
			stock := per
			if i < rem {
				stock++
			}
			sizes[i] = models.SizeStock{Size: size, Stock: stock}
		}
	}

	images := make([]models.Image, len(e.ImageURLs))
	for i, url := range e.ImageURLs {
		images[i] = models.Image{URL: url, Alt: fmt.Sprintf("%s - Image %d", e.Name, i+1)}
	}

	category := e.Category
	if mapped, ok := categoryNames[category]; ok {
		category = mapped
	}
	gender, ok := genderNames[e.Gender]
	if !ok {
		gender = "Unisex"
	}

	var originalPrice *float64
	if e.OriginalPrice > 0 {
		op := e.OriginalPrice
		originalPrice = &op
	}

	return &models.Product{
		Name:          e.Name,
		Description:   e.Description,
		Price:         e.Price,
		OriginalPrice: originalPrice,
		Category:      category,
		Gender:        gender,
		Sizes:         sizes,
		Colors:        e.Colors,
		Images:        images,
		Featured:      e.Featured,
		InStock:       e.Stock > 0,
		Tags:          []string{},
		Rating:        e.Rating,
		NumReviews:    int(math.Floor(e.Rating * 10)),
	}
}

// Products inserts entries when the catalog is empty. It reports how many
// products were created.
func Products(ctx context.Context, repo repositories.ProductRepository, entries []CatalogEntry) (int, error) {
	_, total, err := repo.List(ctx, repositories.ProductFilter{Limit: 1})
	if err != nil {
		return 0, err
	}
	if total > 0 {
		slog.Info("catalog already populated, skipping seed", "products", total)
		return 0, nil
	}

	created := 0
	for _, entry := range entries {
		if err := repo.Create(ctx, entry.ToProduct()); err != nil {
			return created, fmt.Errorf("failed to seed %q: %w", entry.Name, err)
		}
		created++
	}
	slog.Info("catalog seeded", "products", created)
	return created, nil
}

// DefaultCatalog is the starter catalog used by SEED_PRODUCTS.
var DefaultCatalog = []CatalogEntry{
	{
		Name:          "Classic Oxford Shirt",
		Description:   "Crisp cotton oxford shirt with a button-down collar.",
		Price:         39.99,
		OriginalPrice: 49.99,
		Category:      "Formal Wear",
		Gender:        "men",
		Sizes:         []string{"S", "M", "L", "XL"},
		Colors:        []string{"White", "Light Blue"},
		ImageURLs:     []string{"/uploads/oxford-shirt.jpg"},
		Stock:         42,
		Rating:        4.5,
		Featured:      true,
	},
	{
		Name:        "Everyday Crew Tee",
		Description: "Soft jersey t-shirt for daily wear.",
		Price:       14.5,
		Category:    "T-shirts",
		Gender:      "unisex",
		Sizes:       []string{"XS", "S", "M", "L", "XL", "XXL"},
		Colors:      []string{"Black", "White", "Olive"},
		ImageURLs:   []string{"/uploads/crew-tee.jpg"},
		Stock:       120,
		Rating:      4.2,
		Featured:    true,
	},
	{
		Name:          "Slim Fit Jeans",
		Description:   "Stretch denim jeans with a tapered leg.",
		Price:         59,
		OriginalPrice: 79,
		Category:      "Denim",
		Gender:        "women",
		Sizes:         []string{"XS", "S", "M", "L"},
		Colors:        []string{"Indigo", "Black"},
		ImageURLs:     []string{"/uploads/slim-jeans.jpg", "/uploads/slim-jeans-back.jpg"},
		Stock:         30,
		Rating:        4.7,
	},
	{
		Name:        "Leather Ankle Boots",
		Description: "Full-grain leather boots with a low block heel.",
		Price:       129,
		Category:    "Footwear",
		Gender:      "women",
		Sizes:       []string{"EU37", "EU38", "EU39", "EU40"},
		Colors:      []string{"Brown", "Black"},
		ImageURLs:   []string{"/uploads/ankle-boots.jpg"},
		Stock:       18,
		Rating:      4.8,
		Featured:    true,
	},
	{
		Name:        "Kids Puffer Jacket",
		Description: "Warm, water-resistant puffer jacket for winter days.",
		Price:       45,
		Category:    "Winter wear",
		Gender:      "kids",
		Sizes:       []string{"XS", "S", "M"},
		Colors:      []string{"Red", "Navy"},
		ImageURLs:   []string{"/uploads/kids-puffer.jpg"},
		Stock:       0,
		Rating:      4.1,
	},
}
