package models

import (
	"math"
	"time"

	"gorm.io/gorm"
)

// Categories lists every category a product may belong to.
var Categories = []string{
	"Shirts", "T-Shirts", "Pants", "Jeans", "Dresses", "Skirts",
	"Jackets", "Sweaters", "Shoes", "Accessories", "Bags", "Underwear",
}

// Genders lists the audiences a product can target.
var Genders = []string{"Men", "Women", "Unisex", "Kids"}

// DefaultImageURL is attached to products created without images.
const DefaultImageURL = "/uploads/default-product.jpg"

// SizeStock is the stock held for one size label of a product.
type SizeStock struct {
	Size  string `json:"size" validate:"required,oneof=XS S M L XL XXL XXXL EU35 EU36 EU37 EU38 EU39 EU40 EU41 EU42 EU43 EU44 EU45"`
	Stock int    `json:"stock" validate:"gte=0"`
}

// Image is a product picture.
type Image struct {
	URL string `json:"url" validate:"required"`
	Alt string `json:"alt"`
}

// Product represents a clothing item in the catalog.
type Product struct {
	ID            string      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name          string      `json:"name" gorm:"type:varchar(50);not null"`
	Description   string      `json:"description" gorm:"type:text;not null"`
	Price         float64     `json:"price" gorm:"not null;index:idx_products_category_price,priority:2"`
	OriginalPrice *float64    `json:"originalPrice"`
	Category      string      `json:"category" gorm:"type:varchar(20);not null;index:idx_products_category_price,priority:1"`
	Subcategory   string      `json:"subcategory,omitempty"`
	Brand         string      `json:"brand,omitempty"`
	Sizes         []SizeStock `json:"sizes" gorm:"type:text;serializer:json"`
	Colors        []string    `json:"colors" gorm:"type:text;serializer:json"`
	Material      string      `json:"material,omitempty"`
	Images        []Image     `json:"images" gorm:"type:text;serializer:json"`
	Featured      bool        `json:"featured"`
	InStock       bool        `json:"inStock"`
	Tags          []string    `json:"tags" gorm:"type:text;serializer:json"`
	Gender        string      `json:"gender" gorm:"type:varchar(10)"`
	Rating        float64     `json:"rating"`
	NumReviews    int         `json:"numReviews"`
	Version       int         `json:"-" gorm:"not null;default:0"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// BeforeSave keeps the rating on one decimal place.
func (p *Product) BeforeSave(tx *gorm.DB) error {
	p.Rating = math.Round(p.Rating*10) / 10
	if p.Gender == "" {
		p.Gender = "Unisex"
	}
	return nil
}

// FindSize returns the stock entry for the given size label.
func (p *Product) FindSize(size string) (*SizeStock, bool) {
	for i := range p.Sizes {
		if p.Sizes[i].Size == size {
			return &p.Sizes[i], true
		}
	}
	return nil, false
}

// HasColor reports whether color is one of the product's colors.
func (p *Product) HasColor(color string) bool {
	for _, c := range p.Colors {
		if c == color {
			return true
		}
	}
	return false
}

// AdjustSizeStock adds delta to the stock of size. The result never drops
// below zero. Unknown sizes are ignored.
func (p *Product) AdjustSizeStock(size string, delta int) {
	entry, ok := p.FindSize(size)
	if !ok {
		return
	}
	entry.Stock += delta
	if entry.Stock < 0 {
		entry.Stock = 0
	}
}

// TotalStock sums the stock over all sizes.
func (p *Product) TotalStock() int {
	total := 0
	for _, s := range p.Sizes {
		total += s.Stock
	}
	return total
}

// FirstImageURL is the image snapshotted into cart lines.
func (p *Product) FirstImageURL() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0].URL
}
