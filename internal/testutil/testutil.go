// Package testutil provides fixtures shared by the package tests.
package testutil

import (
	"fmt"
	"testing"

	"fashionhub/internal/database"
	"fashionhub/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB opens a private, migrated in-memory SQLite database for one test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.Open(database.DriverSQLite, dsn)
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// NewProduct returns an in-stock product in black and white with the given
// size stock.
func NewProduct(name string, price float64, sizes ...models.SizeStock) *models.Product {
	return &models.Product{
		Name:        name,
		Description: name + " for testing",
		Price:       price,
		Category:    "Shirts",
		Gender:      "Unisex",
		Sizes:       sizes,
		Colors:      []string{"Black", "White"},
		Images:      []models.Image{{URL: "/uploads/" + uuid.NewString() + ".jpg", Alt: name}},
		InStock:     true,
		Tags:        []string{},
	}
}

// Size is shorthand for a SizeStock entry.
func Size(size string, stock int) models.SizeStock {
	return models.SizeStock{Size: size, Stock: stock}
}
