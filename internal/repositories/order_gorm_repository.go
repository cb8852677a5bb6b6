package repositories

import (
	"context"
	"errors"
	"fmt"

	"fashionhub/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{db: db}
}

// Create inserts a new order. The order number and total are filled by the
// model's create hook.
func (r *GORMOrderRepository) Create(ctx context.Context, order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// GetByID retrieves a single order by its ID.
func (r *GORMOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// Save writes every field of an existing order.
func (r *GORMOrderRepository) Save(ctx context.Context, order *models.Order) error {
	res := r.db.WithContext(ctx).Model(order).Select("*").Omit("CreatedAt", "OrderNumber").Updates(order)
	if res.Error != nil {
		return fmt.Errorf("failed to save order %s: %w", order.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order with ID %s: %w", order.ID, ErrNotFound)
	}
	return nil
}

// ListByUser returns the user's orders, newest first.
func (r *GORMOrderRepository) ListByUser(ctx context.Context, userID string, offset, limit int) ([]models.Order, int64, error) {
	return r.page(r.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID), offset, limit)
}

// List returns orders across users, newest first.
func (r *GORMOrderRepository) List(ctx context.Context, status string, offset, limit int) ([]models.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{})
	if status != "" {
		q = q.Where("order_status = ?", status)
	}
	return r.page(q, offset, limit)
}

func (r *GORMOrderRepository) page(q *gorm.DB, offset, limit int) ([]models.Order, int64, error) {
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	orders := []models.Order{}
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, total, nil
}

// StatsByStatus groups orders by status with their count and summed total.
func (r *GORMOrderRepository) StatsByStatus(ctx context.Context) (map[string]models.StatusStats, error) {
	var rows []struct {
		OrderStatus string
		Count       int64
		TotalAmount float64
	}
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Select("order_status, COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS total_amount").
		Group("order_status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate orders: %w", err)
	}

	stats := make(map[string]models.StatusStats, len(rows))
	for _, row := range rows {
		stats[row.OrderStatus] = models.StatusStats{Count: row.Count, TotalAmount: row.TotalAmount}
	}
	return stats, nil
}
