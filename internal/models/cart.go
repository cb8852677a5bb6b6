package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MinLineQuantity = 1
	MaxLineQuantity = 10
)

var (
	ErrProductOutOfStock  = errors.New("product out of stock")
	ErrSizeUnavailable    = errors.New("size unavailable")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrColorUnavailable   = errors.New("color unavailable")
	ErrQuantityOutOfRange = errors.New("quantity out of range")
	ErrCartItemNotFound   = errors.New("cart item not found")
)

// CartError is returned by cart mutations that break a precondition. The
// message is safe to show to the client; Err classifies it.
type CartError struct {
	Err     error
	Message string
}

func (e *CartError) Error() string { return e.Message }

func (e *CartError) Unwrap() error { return e.Err }

func cartErr(err error, format string, args ...interface{}) error {
	return &CartError{Err: err, Message: fmt.Sprintf(format, args...)}
}

// CartItem is a cart line. Name, Image and Price are copied from the product
// when the line is created and never refreshed.
type CartItem struct {
	ID         string  `json:"id"`
	ProductID  string  `json:"product"`
	Name       string  `json:"name"`
	Image      string  `json:"image"`
	Price      float64 `json:"price"`
	Size       string  `json:"size"`
	Color      string  `json:"color"`
	Quantity   int     `json:"quantity"`
	TotalPrice float64 `json:"totalPrice"`
}

// Cart is the single shopping cart of a user.
type Cart struct {
	ID          string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID      string     `json:"user" gorm:"type:varchar(36);uniqueIndex;not null"`
	Items       []CartItem `json:"items" gorm:"type:text;serializer:json"`
	TotalItems  int        `json:"totalItems"`
	TotalAmount float64    `json:"totalAmount"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// CartSummary is the read-only view returned to clients.
type CartSummary struct {
	Items       []CartItem `json:"items"`
	TotalItems  int        `json:"totalItems"`
	TotalAmount float64    `json:"totalAmount"`
	ItemCount   int        `json:"itemCount"`
}

// NewCart returns an empty cart for userID.
func NewCart(userID string) *Cart {
	return &Cart{ID: uuid.NewString(), UserID: userID, Items: []CartItem{}}
}

// BeforeSave recomputes the derived totals on every persist.
func (c *Cart) BeforeSave(tx *gorm.DB) error {
	c.Recalculate()
	return nil
}

// Recalculate refreshes TotalItems and TotalAmount from the lines.
func (c *Cart) Recalculate() {
	if c.Items == nil {
		c.Items = []CartItem{}
	}
	c.TotalItems = len(c.Items)
	total := 0.0
	for _, item := range c.Items {
		total += item.TotalPrice
	}
	c.TotalAmount = total
}

// AddItem adds quantity units of product in the given size and color. A line
// with the same product, size and color has its quantity increased instead of
// a second line being appended.
func (c *Cart) AddItem(product *Product, size, color string, quantity int) error {
	if quantity < MinLineQuantity || quantity > MaxLineQuantity {
		return cartErr(ErrQuantityOutOfRange, "Quantity must be between %d and %d", MinLineQuantity, MaxLineQuantity)
	}
	if !product.InStock {
		return cartErr(ErrProductOutOfStock, "Product is out of stock")
	}
	sizeOption, ok := product.FindSize(size)
	if !ok {
		return cartErr(ErrSizeUnavailable, "Size %s not available for this product", size)
	}
	if sizeOption.Stock < quantity {
		return cartErr(ErrInsufficientStock, "Only %d items available for size %s", sizeOption.Stock, size)
	}
	if !product.HasColor(color) {
		return cartErr(ErrColorUnavailable, "Color %s not available for this product", color)
	}

	for i := range c.Items {
		item := &c.Items[i]
		if item.ProductID == product.ID && item.Size == size && item.Color == color {
			if item.Quantity+quantity > MaxLineQuantity {
				return cartErr(ErrQuantityOutOfRange, "Quantity cannot exceed %d", MaxLineQuantity)
			}
			item.Quantity += quantity
			item.TotalPrice = item.Price * float64(item.Quantity)
			c.Recalculate()
			return nil
		}
	}

	c.Items = append(c.Items, CartItem{
		ID:         uuid.NewString(),
		ProductID:  product.ID,
		Name:       product.Name,
		Image:      product.FirstImageURL(),
		Price:      product.Price,
		Size:       size,
		Color:      color,
		Quantity:   quantity,
		TotalPrice: product.Price * float64(quantity),
	})
	c.Recalculate()
	return nil
}

// UpdateItemQuantity sets the quantity of a line. Zero removes the line.
func (c *Cart) UpdateItemQuantity(itemID string, quantity int) error {
	if quantity < 0 || quantity > MaxLineQuantity {
		return cartErr(ErrQuantityOutOfRange, "Quantity must be between 0 and %d", MaxLineQuantity)
	}
	idx := c.indexOf(itemID)
	if idx < 0 {
		return ErrCartItemNotFound
	}
	if quantity == 0 {
		c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
	} else {
		c.Items[idx].Quantity = quantity
		c.Items[idx].TotalPrice = c.Items[idx].Price * float64(quantity)
	}
	c.Recalculate()
	return nil
}

// RemoveItem drops the line with itemID. Absent ids are a no-op.
func (c *Cart) RemoveItem(itemID string) {
	if idx := c.indexOf(itemID); idx >= 0 {
		c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
	}
	c.Recalculate()
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.Items = []CartItem{}
	c.TotalItems = 0
	c.TotalAmount = 0
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Summary returns the client view of the cart.
func (c *Cart) Summary() CartSummary {
	items := c.Items
	if items == nil {
		items = []CartItem{}
	}
	return CartSummary{
		Items:       items,
		TotalItems:  c.TotalItems,
		TotalAmount: c.TotalAmount,
		ItemCount:   len(items),
	}
}

func (c *Cart) indexOf(itemID string) int {
	for i, item := range c.Items {
		if item.ID == itemID {
			return i
		}
	}
	return -1
}
