package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"fashionhub/internal/cache"
	"fashionhub/internal/models"
	"fashionhub/internal/pricing"
	"fashionhub/internal/repositories"
)

const DefaultOrderPageSize = 10

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// PaymentInput selects how a new order is paid.
type PaymentInput struct {
	Method string `json:"method" validate:"required,oneof=credit_card debit_card paypal cash_on_delivery bank_transfer"`
}

// CheckoutInput is the data a customer supplies when placing an order.
type CheckoutInput struct {
	ShippingAddress *models.ShippingAddress `json:"shippingAddress" validate:"required"`
	PaymentInfo     *PaymentInput           `json:"paymentInfo" validate:"required"`
	Notes           string                  `json:"notes" validate:"max=500"`
}

// StatusUpdateInput is an admin request to move an order to a new status.
type StatusUpdateInput struct {
	Status            string     `json:"status" validate:"required"`
	TrackingNumber    string     `json:"trackingNumber"`
	EstimatedDelivery *time.Time `json:"estimatedDelivery"`
	Reason            string     `json:"reason"`
}

// OrderService handles checkout and the order lifecycle.
type OrderService struct {
	store     repositories.Store
	publisher EventPublisher
	cache     cache.ProductCache
	now       func() time.Time
}

// NewOrderService creates a new OrderService. publisher and productCache may
// be nil.
func NewOrderService(store repositories.Store, publisher EventPublisher, productCache cache.ProductCache) *OrderService {
	return &OrderService{
		store:     store,
		publisher: publisher,
		cache:     productCache,
		now:       time.Now,
	}
}

// CreateOrder turns the user's cart into an order. Stock validation, the
// stock decrement, the order insert and clearing the cart commit together or
// not at all.
func (s *OrderService) CreateOrder(ctx context.Context, userID string, in CheckoutInput) (*models.Order, error) {
	now := s.now()
	var (
		order   *models.Order
		touched []string
	)

	err := s.store.WithinTx(ctx, func(tx repositories.Store) error {
		cart, err := tx.Carts().GetByUserID(ctx, userID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrCartEmpty
			}
			return err
		}
		if cart.IsEmpty() {
			return ErrCartEmpty
		}

		products := make(map[string]*models.Product)
		var (
			issues   []string
			items    = make([]models.OrderItem, 0, len(cart.Items))
			subtotal float64
		)
		for _, line := range cart.Items {
			product, seen := products[line.ProductID]
			if !seen {
				product, err = tx.Products().GetByID(ctx, line.ProductID)
				if err != nil && !errors.Is(err, repositories.ErrNotFound) {
					return err
				}
				products[line.ProductID] = product
				if product != nil {
					touched = append(touched, product.ID)
				}
			}

			if product == nil || !product.InStock {
				issues = append(issues, fmt.Sprintf("%s is out of stock", line.Name))
				continue
			}
			available := 0
			if size, ok := product.FindSize(line.Size); ok {
				available = size.Stock
			}
			if available < line.Quantity {
				issues = append(issues, fmt.Sprintf("Only %d %s size available for %s", available, line.Size, line.Name))
				continue
			}

			product.AdjustSizeStock(line.Size, -line.Quantity)
			items = append(items, models.OrderItem{
				ProductID:  line.ProductID,
				Name:       line.Name,
				Image:      line.Image,
				Price:      line.Price,
				Size:       line.Size,
				Color:      line.Color,
				Quantity:   line.Quantity,
				TotalPrice: line.TotalPrice,
			})
			subtotal += line.TotalPrice
		}
		if len(issues) > 0 {
			return &StockConflictError{Issues: issues}
		}

		for _, id := range touched {
			product := products[id]
			if err := tx.Products().UpdateStock(ctx, product); err != nil {
				if errors.Is(err, repositories.ErrStaleProduct) {
					return &StockConflictError{Issues: []string{
						fmt.Sprintf("%s was updated by another checkout, please retry", product.Name),
					}}
				}
				return err
			}
		}

		charges := pricing.Compute(subtotal)
		order = &models.Order{
			UserID:          userID,
			ShippingAddress: *in.ShippingAddress,
			PaymentInfo: models.PaymentInfo{
				Method:        in.PaymentInfo.Method,
				TransactionID: newTransactionID(now),
				Status:        models.PaymentStatusPending,
			},
			TaxAmount:      charges.Tax,
			ShippingAmount: charges.Shipping,
			DiscountAmount: charges.Discount,
			Notes:          in.Notes,
		}
		order.SetItems(items)
		if err := tx.Orders().Create(ctx, order); err != nil {
			return err
		}

		cart.Clear()
		return tx.Carts().Save(ctx, cart)
	})
	if err != nil {
		var conflict *StockConflictError
		if errors.As(err, &conflict) {
			slog.Info("checkout rejected", "user_id", userID, "issues", conflict.Issues)
		}
		return nil, err
	}

	s.invalidate(ctx, touched)
	publish(s.publisher, EventOrderCreated, order, now)
	slog.Info("order created", "order_id", order.ID, "order_number", order.OrderNumber, "total", order.TotalAmount)
	return order, nil
}

// newTransactionID builds a TXN-<millis>-<9 base36 chars> identifier.
func newTransactionID(now time.Time) string {
	suffix := make([]byte, 9)
	for i := range suffix {
		suffix[i] = base36[rand.Intn(len(base36))]
	}
	return fmt.Sprintf("TXN-%d-%s", now.UnixMilli(), suffix)
}

// ListUserOrders returns the user's orders, newest first.
func (s *OrderService) ListUserOrders(ctx context.Context, userID string, page, limit int) ([]models.Order, Page, error) {
	p := NewPage(page, limit, 0)
	orders, total, err := s.store.Orders().ListByUser(ctx, userID, p.Offset(), p.Limit)
	if err != nil {
		return nil, Page{}, err
	}
	return orders, NewPage(p.Number, p.Limit, total), nil
}

// ListAllOrders returns orders of every user. An empty status or "all"
// matches every status.
func (s *OrderService) ListAllOrders(ctx context.Context, status string, page, limit int) ([]models.Order, Page, error) {
	if status == "all" {
		status = ""
	}
	p := NewPage(page, limit, 0)
	orders, total, err := s.store.Orders().List(ctx, status, p.Offset(), p.Limit)
	if err != nil {
		return nil, Page{}, err
	}
	return orders, NewPage(p.Number, p.Limit, total), nil
}

// GetOrder returns an order visible to the caller: its owner or an admin.
func (s *OrderService) GetOrder(ctx context.Context, orderID, userID string, isAdmin bool) (*models.Order, error) {
	order, err := s.store.Orders().GetByID(ctx, orderID)
	if err != nil {
		return nil, notFound(err, ErrOrderNotFound, "failed to get order")
	}
	if order.UserID != userID && !isAdmin {
		return nil, ErrForbidden
	}
	return order, nil
}

// UpdateStatus moves an order to a new status. Inventory is not touched.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, in StatusUpdateInput) (*models.Order, error) {
	next := models.OrderStatus(in.Status)
	if !next.Valid() {
		return nil, models.ErrInvalidOrderStatus
	}

	order, err := s.store.Orders().GetByID(ctx, orderID)
	if err != nil {
		return nil, notFound(err, ErrOrderNotFound, "failed to get order")
	}

	now := s.now()
	info := models.StatusInfo{
		TrackingNumber:    in.TrackingNumber,
		EstimatedDelivery: in.EstimatedDelivery,
		Reason:            in.Reason,
	}
	if err := order.ApplyStatus(next, info, now); err != nil {
		return nil, err
	}
	if err := s.store.Orders().Save(ctx, order); err != nil {
		return nil, err
	}

	publish(s.publisher, EventOrderStatusUpdated, order, now)
	return order, nil
}

// CancelOrder cancels the caller's own order and returns its items to stock.
// Items whose product no longer exists are skipped.
func (s *OrderService) CancelOrder(ctx context.Context, orderID, userID, reason string) (*models.Order, error) {
	now := s.now()
	var (
		order    *models.Order
		restored []string
	)

	err := s.store.WithinTx(ctx, func(tx repositories.Store) error {
		var err error
		order, err = tx.Orders().GetByID(ctx, orderID)
		if err != nil {
			return notFound(err, ErrOrderNotFound, "failed to get order")
		}
		if order.UserID != userID {
			return ErrForbidden
		}
		if !order.OrderStatus.Cancellable() {
			return ErrNotCancellable
		}

		products := make(map[string]*models.Product)
		for _, item := range order.OrderItems {
			product, seen := products[item.ProductID]
			if !seen {
				product, err = tx.Products().GetByID(ctx, item.ProductID)
				if err != nil {
					if !errors.Is(err, repositories.ErrNotFound) {
						return err
					}
					slog.Warn("skipping stock restore for missing product", "order_id", orderID, "product_id", item.ProductID)
				}
				products[item.ProductID] = product
				if product != nil {
					restored = append(restored, product.ID)
				}
			}
			if product != nil {
				product.AdjustSizeStock(item.Size, item.Quantity)
			}
		}
		for _, id := range restored {
			if err := tx.Products().UpdateStock(ctx, products[id]); err != nil {
				return err
			}
		}

		if err := order.ApplyStatus(models.OrderStatusCancelled, models.StatusInfo{Reason: reason}, now); err != nil {
			return err
		}
		return tx.Orders().Save(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, restored)
	publish(s.publisher, EventOrderCancelled, order, now)
	return order, nil
}

// UpdateTracking records a new delivery status for an order.
func (s *OrderService) UpdateTracking(ctx context.Context, orderID, deliveryStatus string) (*models.Order, error) {
	status := models.DeliveryStatus(deliveryStatus)
	if !status.Valid() {
		return nil, models.ErrInvalidDeliveryStatus
	}

	order, err := s.store.Orders().GetByID(ctx, orderID)
	if err != nil {
		return nil, notFound(err, ErrOrderNotFound, "failed to get order")
	}

	now := s.now()
	if err := order.UpdateDelivery(status, now); err != nil {
		return nil, err
	}
	if err := s.store.Orders().Save(ctx, order); err != nil {
		return nil, err
	}

	publish(s.publisher, EventOrderTrackingUpdated, order, now)
	return order, nil
}

// Stats aggregates orders per status.
func (s *OrderService) Stats(ctx context.Context) (map[string]models.StatusStats, error) {
	return s.store.Orders().StatsByStatus(ctx)
}

func (s *OrderService) invalidate(ctx context.Context, ids []string) {
	if s.cache != nil && len(ids) > 0 {
		s.cache.Invalidate(ctx, ids...)
	}
}
