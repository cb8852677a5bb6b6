package repositories

import (
	"context"

	"fashionhub/internal/models"
)

// OrderRepository defines the interface for order data access.
// Orders are never deleted; they only move to terminal statuses.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	Save(ctx context.Context, order *models.Order) error
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]models.Order, int64, error)
	// List returns orders of every user; an empty status matches all.
	List(ctx context.Context, status string, offset, limit int) ([]models.Order, int64, error)
	StatsByStatus(ctx context.Context) (map[string]models.StatusStats, error)
}
