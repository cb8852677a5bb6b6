package services

import (
	"log/slog"
	"time"

	"fashionhub/internal/models"
)

// Routing keys of the order events.
const (
	EventOrderCreated         = "order.created"
	EventOrderStatusUpdated   = "order.status_updated"
	EventOrderCancelled       = "order.cancelled"
	EventOrderTrackingUpdated = "order.tracking_updated"
)

// EventPublisher publishes a JSON payload under a routing key.
type EventPublisher interface {
	Publish(routingKey string, payload interface{}) error
}

// OrderEvent is the payload of every order event.
type OrderEvent struct {
	OrderID        string                `json:"orderId"`
	OrderNumber    string                `json:"orderNumber"`
	UserID         string                `json:"userId"`
	OrderStatus    models.OrderStatus    `json:"orderStatus"`
	DeliveryStatus models.DeliveryStatus `json:"deliveryStatus"`
	TotalAmount    float64               `json:"totalAmount"`
	OccurredAt     time.Time             `json:"occurredAt"`
}

func newOrderEvent(o *models.Order, now time.Time) OrderEvent {
	return OrderEvent{
		OrderID:        o.ID,
		OrderNumber:    o.OrderNumber,
		UserID:         o.UserID,
		OrderStatus:    o.OrderStatus,
		DeliveryStatus: o.DeliveryStatus,
		TotalAmount:    o.TotalAmount,
		OccurredAt:     now,
	}
}

// publish sends the event when a publisher is configured. Failures are only
// logged; the order has already been committed.
func publish(p EventPublisher, routingKey string, o *models.Order, now time.Time) {
	if p == nil {
		return
	}
	if err := p.Publish(routingKey, newOrderEvent(o, now)); err != nil {
		slog.Warn("failed to publish order event", "routing_key", routingKey, "order_id", o.ID, "error", err)
		return
	}
	slog.Debug("order event published", "routing_key", routingKey, "order_id", o.ID)
}
