package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"fashionhub/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var distinctColumns = map[string]bool{"category": true, "gender": true, "brand": true}

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// List returns one page of products matching filter and the total match count.
func (r *GORMProductRepository) List(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Product{})

	if filter.Category != "" && filter.Category != "all" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.Gender != "" {
		q = q.Where("gender = ?", filter.Gender)
	}
	if filter.Brand != "" {
		q = q.Where("brand = ?", filter.Brand)
	}
	if filter.MinPrice != nil {
		q = q.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		q = q.Where("price <= ?", *filter.MaxPrice)
	}
	if filter.InStockOnly {
		q = q.Where("in_stock = ?", true)
	}
	if filter.FeaturedOnly {
		q = q.Where("featured = ?", true)
	}
	// Sizes and colors are stored as JSON text, so match the encoded form.
	if filter.Size != "" {
		q = q.Where("sizes LIKE ?", "%\"size\":"+jsonString(filter.Size)+"%")
	}
	if filter.Color != "" {
		q = q.Where("colors LIKE ?", "%"+jsonString(filter.Color)+"%")
	}
	if filter.Search != "" {
		term := "%" + strings.ToLower(filter.Search) + "%"
		q = q.Where("(LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(tags) LIKE ?)", term, term, term)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	page := q.Order(sortClause(filter.SortBy, filter.SortOrder))
	switch filter.SortBy {
	case "price", "rating", "name":
		page = page.Order("created_at DESC")
	}
	if filter.Limit > 0 {
		page = page.Limit(filter.Limit).Offset(filter.Offset)
	}

	products := []models.Product{}
	if err := page.Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

func sortClause(sortBy, sortOrder string) string {
	dir := "DESC"
	if sortOrder == "asc" {
		dir = "ASC"
	}
	switch sortBy {
	case "price":
		return "price " + dir
	case "rating":
		return "rating " + dir
	case "name":
		return "name " + dir
	case "oldest":
		return "created_at ASC"
	default:
		return "created_at DESC"
	}
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// GetByID retrieves a single product by its ID from the database.
func (r *GORMProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update writes every field of product if its version is still the one that
// was read, and bumps the version. A lost race returns ErrStaleProduct.
func (r *GORMProductRepository) Update(ctx context.Context, product *models.Product) error {
	expected := product.Version
	product.Version = expected + 1

	res := r.db.WithContext(ctx).Model(product).
		Where("version = ?", expected).
		Select("*").Omit("CreatedAt").
		Updates(product)
	if res.Error != nil {
		product.Version = expected
		return fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		product.Version = expected
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", product.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check product %s: %w", product.ID, err)
		}
		if count == 0 {
			return fmt.Errorf("product with ID %s: %w", product.ID, ErrNotFound)
		}
		return fmt.Errorf("product with ID %s: %w", product.ID, ErrStaleProduct)
	}
	return nil
}

// UpdateStock is a compare-and-swap on the product version.
func (r *GORMProductRepository) UpdateStock(ctx context.Context, product *models.Product) error {
	expected := product.Version
	product.Version = expected + 1

	res := r.db.WithContext(ctx).Model(product).
		Where("version = ?", expected).
		Select("Sizes", "InStock", "Version", "UpdatedAt").
		Updates(product)
	if res.Error != nil {
		product.Version = expected
		return fmt.Errorf("failed to update stock of product %s: %w", product.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		product.Version = expected
		return fmt.Errorf("product with ID %s: %w", product.ID, ErrStaleProduct)
	}
	return nil
}

// Delete deletes a product by its ID from the database.
func (r *GORMProductRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
	}
	return nil
}

// Distinct returns the sorted non-empty values of category, gender or brand.
func (r *GORMProductRepository) Distinct(ctx context.Context, column string) ([]string, error) {
	if !distinctColumns[column] {
		return nil, fmt.Errorf("distinct on column %q is not supported", column)
	}
	values := []string{}
	err := r.db.WithContext(ctx).Model(&models.Product{}).
		Where(column+" <> ?", "").
		Distinct(column).
		Order(column).
		Pluck(column, &values).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list distinct %s: %w", column, err)
	}
	return values, nil
}
