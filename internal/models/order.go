package models

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"gorm.io/gorm"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusReturned   OrderStatus = "returned"
	OrderStatusRefunded   OrderStatus = "refunded"
)

// OrderStatuses lists every order status in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderStatusPending, OrderStatusProcessing, OrderStatusConfirmed, OrderStatusShipped,
	OrderStatusDelivered, OrderStatusCancelled, OrderStatusReturned, OrderStatusRefunded,
}

// orderTransitions holds the legal next states of each status.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusConfirmed, OrderStatusShipped, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered, OrderStatusReturned},
	OrderStatusDelivered:  {OrderStatusReturned, OrderStatusRefunded},
	OrderStatusCancelled:  {OrderStatusRefunded},
	OrderStatusReturned:   {OrderStatusRefunded},
	OrderStatusRefunded:   {},
}

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// CanTransitionTo reports whether the order may move from s to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Cancellable reports whether a customer may still cancel the order.
func (s OrderStatus) Cancellable() bool {
	return s == OrderStatusPending || s == OrderStatusProcessing
}

// DeliveryStatus is the shipment tracking state, independent of OrderStatus.
type DeliveryStatus string

const (
	DeliveryPending        DeliveryStatus = "Pending"
	DeliveryProcessing     DeliveryStatus = "Processing"
	DeliveryShipped        DeliveryStatus = "Shipped"
	DeliveryOutForDelivery DeliveryStatus = "Out for Delivery"
	DeliveryDelivered      DeliveryStatus = "Delivered"
)

// DeliveryStatuses is the canonical ordering of the delivery stages.
var DeliveryStatuses = []DeliveryStatus{
	DeliveryPending, DeliveryProcessing, DeliveryShipped, DeliveryOutForDelivery, DeliveryDelivered,
}

func (s DeliveryStatus) rank() int {
	for i, d := range DeliveryStatuses {
		if d == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is one of the allowed delivery statuses.
func (s DeliveryStatus) Valid() bool {
	return s.rank() >= 0
}

// PaymentMethods lists the accepted payment methods.
var PaymentMethods = []string{"credit_card", "debit_card", "paypal", "cash_on_delivery", "bank_transfer"}

const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

// DefaultCancellationReason is recorded when none is supplied.
const DefaultCancellationReason = "Order cancelled by user"

var (
	ErrInvalidOrderStatus    = errors.New("invalid order status")
	ErrInvalidDeliveryStatus = errors.New("invalid delivery status")
)

// InvalidTransitionError rejects a status change not allowed by the
// transition table.
type InvalidTransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid order status transition %s -> %s", e.From, e.To)
}

// Message is the client-facing description of the rejected change.
func (e *InvalidTransitionError) Message() string {
	return fmt.Sprintf("Order status cannot change from %s to %s", e.From, e.To)
}

// InvalidDeliveryStatusMessage is the client message for unknown delivery statuses.
func InvalidDeliveryStatusMessage() string {
	names := make([]string, len(DeliveryStatuses))
	for i, s := range DeliveryStatuses {
		names[i] = string(s)
	}
	return "Invalid deliveryStatus. Must be one of: " + strings.Join(names, ", ")
}

// InvalidOrderStatusMessage is the client message for unknown order statuses.
func InvalidOrderStatusMessage() string {
	names := make([]string, len(OrderStatuses))
	for i, s := range OrderStatuses {
		names[i] = string(s)
	}
	return "Invalid status. Must be one of: " + strings.Join(names, ", ")
}

// OrderItem is a snapshot of a cart line taken at checkout.
type OrderItem struct {
	ProductID  string  `json:"product"`
	Name       string  `json:"name"`
	Image      string  `json:"image"`
	Price      float64 `json:"price"`
	Size       string  `json:"size"`
	Color      string  `json:"color"`
	Quantity   int     `json:"quantity"`
	TotalPrice float64 `json:"totalPrice"`
}

// ShippingAddress is where the order is delivered.
type ShippingAddress struct {
	Street  string `json:"street" validate:"required"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state" validate:"required"`
	ZipCode string `json:"zipCode" validate:"required"`
	Country string `json:"country" validate:"required"`
}

// PaymentInfo describes how the order is paid.
type PaymentInfo struct {
	Method        string     `json:"method"`
	TransactionID string     `json:"transactionId"`
	Status        string     `json:"status"`
	PaidAt        *time.Time `json:"paidAt,omitempty"`
}

// DeliveryUpdate is one entry of the append-only delivery log.
type DeliveryUpdate struct {
	Status    DeliveryStatus `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
}

// Order is an immutable snapshot of a checked-out cart plus its status.
type Order struct {
	ID                 string           `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID             string           `json:"user" gorm:"type:varchar(36);index:idx_orders_user_created,priority:1;not null"`
	OrderItems         []OrderItem      `json:"orderItems" gorm:"type:text;serializer:json"`
	ShippingAddress    ShippingAddress  `json:"shippingAddress" gorm:"type:text;serializer:json"`
	PaymentInfo        PaymentInfo      `json:"paymentInfo" gorm:"type:text;serializer:json"`
	TaxAmount          float64          `json:"taxAmount"`
	ShippingAmount     float64          `json:"shippingAmount"`
	DiscountAmount     float64          `json:"discountAmount"`
	TotalAmount        float64          `json:"totalAmount"`
	OrderStatus        OrderStatus      `json:"orderStatus" gorm:"type:varchar(20);index;not null"`
	OrderNumber        string           `json:"orderNumber" gorm:"type:varchar(32);uniqueIndex"`
	Notes              string           `json:"notes,omitempty" gorm:"type:varchar(500)"`
	TrackingNumber     string           `json:"trackingNumber,omitempty"`
	EstimatedDelivery  *time.Time       `json:"estimatedDelivery,omitempty"`
	DeliveredAt        *time.Time       `json:"deliveredAt,omitempty"`
	CancelledAt        *time.Time       `json:"cancelledAt,omitempty"`
	CancellationReason string           `json:"cancellationReason,omitempty"`
	DeliveryStatus     DeliveryStatus   `json:"deliveryStatus" gorm:"type:varchar(20)"`
	DeliveryUpdates    []DeliveryUpdate `json:"deliveryUpdates" gorm:"type:text;serializer:json"`
	CreatedAt          time.Time        `json:"createdAt" gorm:"index:idx_orders_user_created,priority:2"`
	UpdatedAt          time.Time        `json:"updatedAt"`

	itemsChanged bool
}

// SetItems replaces the order lines; the total is recomputed on the next save.
func (o *Order) SetItems(items []OrderItem) {
	o.OrderItems = items
	o.itemsChanged = true
}

// ItemsTotal sums the line totals.
func (o *Order) ItemsTotal() float64 {
	total := 0.0
	for _, item := range o.OrderItems {
		total += item.TotalPrice
	}
	return total
}

// RecalculateTotal sets TotalAmount from the lines and charges.
func (o *Order) RecalculateTotal() {
	o.TotalAmount = o.ItemsTotal() + o.TaxAmount + o.ShippingAmount - o.DiscountAmount
}

// BeforeCreate assigns the order number once and fills the initial state.
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.OrderNumber == "" {
		o.OrderNumber = GenerateOrderNumber(time.Now())
	}
	if o.OrderStatus == "" {
		o.OrderStatus = OrderStatusPending
	}
	if o.DeliveryStatus == "" {
		o.DeliveryStatus = DeliveryPending
	}
	if o.DeliveryUpdates == nil {
		o.DeliveryUpdates = []DeliveryUpdate{}
	}
	if o.PaymentInfo.Status == "" {
		o.PaymentInfo.Status = PaymentStatusPending
	}
	o.RecalculateTotal()
	o.itemsChanged = false
	return nil
}

// BeforeUpdate recomputes the total only when the lines were replaced.
func (o *Order) BeforeUpdate(tx *gorm.DB) error {
	if o.itemsChanged {
		o.RecalculateTotal()
		o.itemsChanged = false
	}
	return nil
}

// GenerateOrderNumber builds an ORD-<millis>-<3 digits> identifier.
func GenerateOrderNumber(now time.Time) string {
	return fmt.Sprintf("ORD-%d-%03d", now.UnixMilli(), rand.Intn(1000))
}

// StatusInfo carries the optional data of a status change.
type StatusInfo struct {
	TrackingNumber    string
	EstimatedDelivery *time.Time
	Reason            string
}

// ApplyStatus moves the order to next and applies the side effects of the
// new status. Unknown statuses and transitions outside the table are
// rejected without touching the order.
func (o *Order) ApplyStatus(next OrderStatus, info StatusInfo, now time.Time) error {
	if !next.Valid() {
		return ErrInvalidOrderStatus
	}
	if !o.OrderStatus.CanTransitionTo(next) {
		return &InvalidTransitionError{From: o.OrderStatus, To: next}
	}

	o.OrderStatus = next
	switch next {
	case OrderStatusDelivered:
		o.DeliveredAt = &now
		o.PaymentInfo.Status = PaymentStatusCompleted
		if o.PaymentInfo.PaidAt == nil {
			o.PaymentInfo.PaidAt = &now
		}
	case OrderStatusCancelled:
		o.CancelledAt = &now
		o.CancellationReason = info.Reason
		if o.CancellationReason == "" {
			o.CancellationReason = DefaultCancellationReason
		}
	case OrderStatusShipped:
		o.TrackingNumber = info.TrackingNumber
		o.EstimatedDelivery = info.EstimatedDelivery
	}
	return nil
}

// UpdateDelivery sets the delivery status and appends it to the log.
func (o *Order) UpdateDelivery(status DeliveryStatus, now time.Time) error {
	if !status.Valid() {
		return ErrInvalidDeliveryStatus
	}
	o.DeliveryStatus = status
	o.DeliveryUpdates = append(o.DeliveryUpdates, DeliveryUpdate{Status: status, Timestamp: now})
	return nil
}

// TimelineStage is one step of a tracking timeline.
type TimelineStage struct {
	Status            string     `json:"status"`
	Message           string     `json:"message,omitempty"`
	Timestamp         *time.Time `json:"timestamp"`
	Completed         bool       `json:"completed"`
	TrackingNumber    string     `json:"trackingNumber,omitempty"`
	EstimatedDelivery *time.Time `json:"estimatedDelivery,omitempty"`
}

// DeliveryTimeline marks each canonical delivery stage completed when the
// current delivery status is at or past it. Timestamps come from the most
// recent log entry for the stage.
func (o *Order) DeliveryTimeline() []TimelineStage {
	current := o.DeliveryStatus.rank()
	stages := make([]TimelineStage, 0, len(DeliveryStatuses))
	for i, status := range DeliveryStatuses {
		stage := TimelineStage{Status: string(status), Completed: current >= i}
		for j := len(o.DeliveryUpdates) - 1; j >= 0; j-- {
			if o.DeliveryUpdates[j].Status == status {
				ts := o.DeliveryUpdates[j].Timestamp
				stage.Timestamp = &ts
				break
			}
		}
		stages = append(stages, stage)
	}
	return stages
}

// StatusTimeline describes the forward order lifecycle for the tracking page.
func (o *Order) StatusTimeline() []TimelineStage {
	reached := func(statuses ...OrderStatus) bool {
		for _, s := range statuses {
			if o.OrderStatus == s {
				return true
			}
		}
		return false
	}
	created := o.CreatedAt
	return []TimelineStage{
		{Status: string(OrderStatusPending), Message: "Order placed", Timestamp: &created, Completed: true},
		{
			Status:    string(OrderStatusProcessing),
			Message:   "Order is being processed",
			Completed: reached(OrderStatusProcessing, OrderStatusConfirmed, OrderStatusShipped, OrderStatusDelivered),
		},
		{
			Status:    string(OrderStatusConfirmed),
			Message:   "Order confirmed",
			Completed: reached(OrderStatusConfirmed, OrderStatusShipped, OrderStatusDelivered),
		},
		{
			Status:            string(OrderStatusShipped),
			Message:           "Order shipped",
			Completed:         reached(OrderStatusShipped, OrderStatusDelivered),
			TrackingNumber:    o.TrackingNumber,
			EstimatedDelivery: o.EstimatedDelivery,
		},
		{
			Status:    string(OrderStatusDelivered),
			Message:   "Order delivered",
			Timestamp: o.DeliveredAt,
			Completed: reached(OrderStatusDelivered),
		},
	}
}

// OrderSummary is the compact view returned after status changes.
type OrderSummary struct {
	OrderID           string      `json:"orderId"`
	OrderNumber       string      `json:"orderNumber"`
	OrderStatus       OrderStatus `json:"orderStatus"`
	TotalItems        int         `json:"totalItems"`
	TotalAmount       float64     `json:"totalAmount"`
	CreatedAt         time.Time   `json:"createdAt"`
	EstimatedDelivery *time.Time  `json:"estimatedDelivery,omitempty"`
	TrackingNumber    string      `json:"trackingNumber,omitempty"`
}

// Summary returns the compact view of the order.
func (o *Order) Summary() OrderSummary {
	return OrderSummary{
		OrderID:           o.ID,
		OrderNumber:       o.OrderNumber,
		OrderStatus:       o.OrderStatus,
		TotalItems:        len(o.OrderItems),
		TotalAmount:       o.TotalAmount,
		CreatedAt:         o.CreatedAt,
		EstimatedDelivery: o.EstimatedDelivery,
		TrackingNumber:    o.TrackingNumber,
	}
}

// OrderConfirmation is returned by checkout.
type OrderConfirmation struct {
	ID          string      `json:"id"`
	OrderNumber string      `json:"orderNumber"`
	OrderStatus OrderStatus `json:"orderStatus"`
	TotalAmount float64     `json:"totalAmount"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// Confirmation returns the minimal checkout response.
func (o *Order) Confirmation() OrderConfirmation {
	return OrderConfirmation{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		OrderStatus: o.OrderStatus,
		TotalAmount: o.TotalAmount,
		CreatedAt:   o.CreatedAt,
	}
}

// StatusStats aggregates orders sharing a status.
type StatusStats struct {
	Count       int64   `json:"count"`
	TotalAmount float64 `json:"totalAmount"`
}
