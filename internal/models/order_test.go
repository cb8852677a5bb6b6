package models_test

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"fashionhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrder(status models.OrderStatus) *models.Order {
	return &models.Order{
		ID:          "order-1",
		UserID:      "user-1",
		OrderStatus: status,
		OrderItems: []models.OrderItem{
			{ProductID: "prod-1", Name: "Oxford Shirt", Price: 25, Size: "M", Quantity: 2, TotalPrice: 50},
		},
		DeliveryStatus:  models.DeliveryPending,
		DeliveryUpdates: []models.DeliveryUpdate{},
	}
}

func TestOrderStatus_TransitionTable(t *testing.T) {
	allowed := map[models.OrderStatus][]models.OrderStatus{
		models.OrderStatusPending:    {models.OrderStatusProcessing, models.OrderStatusConfirmed, models.OrderStatusCancelled},
		models.OrderStatusProcessing: {models.OrderStatusConfirmed, models.OrderStatusShipped, models.OrderStatusCancelled},
		models.OrderStatusConfirmed:  {models.OrderStatusShipped, models.OrderStatusCancelled},
		models.OrderStatusShipped:    {models.OrderStatusDelivered, models.OrderStatusReturned},
		models.OrderStatusDelivered:  {models.OrderStatusReturned, models.OrderStatusRefunded},
		models.OrderStatusCancelled:  {models.OrderStatusRefunded},
		models.OrderStatusReturned:   {models.OrderStatusRefunded},
		models.OrderStatusRefunded:   {},
	}

	for _, from := range models.OrderStatuses {
		for _, to := range models.OrderStatuses {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestOrder_ApplyStatusDelivered(t *testing.T) {
	order := newOrder(models.OrderStatusShipped)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, order.ApplyStatus(models.OrderStatusDelivered, models.StatusInfo{}, now))

	assert.Equal(t, models.OrderStatusDelivered, order.OrderStatus)
	require.NotNil(t, order.DeliveredAt)
	assert.Equal(t, now, *order.DeliveredAt)
	assert.Equal(t, models.PaymentStatusCompleted, order.PaymentInfo.Status)
	require.NotNil(t, order.PaymentInfo.PaidAt)
	assert.Equal(t, now, *order.PaymentInfo.PaidAt)
	assert.Equal(t, models.DeliveryPending, order.DeliveryStatus, "delivery status is tracked separately")
}

func TestOrder_ApplyStatusKeepsExistingPaidAt(t *testing.T) {
	order := newOrder(models.OrderStatusShipped)
	paid := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	order.PaymentInfo.PaidAt = &paid

	require.NoError(t, order.ApplyStatus(models.OrderStatusDelivered, models.StatusInfo{}, time.Now()))
	assert.Equal(t, paid, *order.PaymentInfo.PaidAt)
}

func TestOrder_ApplyStatusCancelledAndShipped(t *testing.T) {
	now := time.Now()

	cancelled := newOrder(models.OrderStatusPending)
	require.NoError(t, cancelled.ApplyStatus(models.OrderStatusCancelled, models.StatusInfo{}, now))
	assert.Equal(t, models.DefaultCancellationReason, cancelled.CancellationReason)
	require.NotNil(t, cancelled.CancelledAt)

	withReason := newOrder(models.OrderStatusProcessing)
	require.NoError(t, withReason.ApplyStatus(models.OrderStatusCancelled, models.StatusInfo{Reason: "Changed my mind"}, now))
	assert.Equal(t, "Changed my mind", withReason.CancellationReason)

	eta := now.Add(72 * time.Hour)
	shipped := newOrder(models.OrderStatusConfirmed)
	require.NoError(t, shipped.ApplyStatus(models.OrderStatusShipped, models.StatusInfo{TrackingNumber: "TRK123", EstimatedDelivery: &eta}, now))
	assert.Equal(t, "TRK123", shipped.TrackingNumber)
	assert.Equal(t, &eta, shipped.EstimatedDelivery)
}

func TestOrder_ApplyStatusRejectsIllegalMoves(t *testing.T) {
	order := newOrder(models.OrderStatusDelivered)

	err := order.ApplyStatus(models.OrderStatusPending, models.StatusInfo{}, time.Now())
	var transition *models.InvalidTransitionError
	require.True(t, errors.As(err, &transition))
	assert.Equal(t, "Order status cannot change from delivered to pending", transition.Message())
	assert.Equal(t, models.OrderStatusDelivered, order.OrderStatus)

	err = order.ApplyStatus("lost", models.StatusInfo{}, time.Now())
	assert.ErrorIs(t, err, models.ErrInvalidOrderStatus)

	terminal := newOrder(models.OrderStatusRefunded)
	assert.Error(t, terminal.ApplyStatus(models.OrderStatusRefunded, models.StatusInfo{}, time.Now()))
}

func TestOrder_UpdateDeliveryAppendsToLog(t *testing.T) {
	order := newOrder(models.OrderStatusProcessing)
	t1 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	require.NoError(t, order.UpdateDelivery(models.DeliveryShipped, t1))
	require.NoError(t, order.UpdateDelivery(models.DeliveryShipped, t2))

	assert.Equal(t, models.DeliveryShipped, order.DeliveryStatus)
	assert.Len(t, order.DeliveryUpdates, 2)
	assert.Equal(t, models.OrderStatusProcessing, order.OrderStatus, "order status is tracked separately")

	assert.ErrorIs(t, order.UpdateDelivery("Lost", t2), models.ErrInvalidDeliveryStatus)
	assert.Len(t, order.DeliveryUpdates, 2)
	assert.Equal(t,
		"Invalid deliveryStatus. Must be one of: Pending, Processing, Shipped, Out for Delivery, Delivered",
		models.InvalidDeliveryStatusMessage())
}

func TestOrder_DeliveryTimeline(t *testing.T) {
	order := newOrder(models.OrderStatusProcessing)
	t1 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	require.NoError(t, order.UpdateDelivery(models.DeliveryShipped, t1))
	require.NoError(t, order.UpdateDelivery(models.DeliveryShipped, t2))

	timeline := order.DeliveryTimeline()
	require.Len(t, timeline, 5)

	completed := make([]bool, len(timeline))
	for i, stage := range timeline {
		completed[i] = stage.Completed
	}
	assert.Equal(t, []bool{true, true, true, false, false}, completed)
	assert.Equal(t, "Out for Delivery", timeline[3].Status)
	require.NotNil(t, timeline[2].Timestamp)
	assert.Equal(t, t2, *timeline[2].Timestamp)
	assert.Nil(t, timeline[0].Timestamp)
}

func TestOrder_StatusTimeline(t *testing.T) {
	order := newOrder(models.OrderStatusShipped)
	order.TrackingNumber = "TRK123"

	timeline := order.StatusTimeline()
	require.Len(t, timeline, 5)
	assert.True(t, timeline[0].Completed)
	assert.True(t, timeline[1].Completed)
	assert.True(t, timeline[2].Completed)
	assert.True(t, timeline[3].Completed)
	assert.Equal(t, "TRK123", timeline[3].TrackingNumber)
	assert.False(t, timeline[4].Completed)
}

func TestOrder_TotalsAndNumber(t *testing.T) {
	order := newOrder("")
	order.TaxAmount = 5
	order.ShippingAmount = 10
	order.DiscountAmount = 2

	require.NoError(t, order.BeforeCreate(nil))
	assert.Equal(t, 63.0, order.TotalAmount)
	assert.Equal(t, models.OrderStatusPending, order.OrderStatus)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentInfo.Status)
	assert.Regexp(t, regexp.MustCompile(`^ORD-\d+-\d{3}$`), order.OrderNumber)

	number := order.OrderNumber
	require.NoError(t, order.BeforeCreate(nil))
	assert.Equal(t, number, order.OrderNumber)

	order.TaxAmount = 0
	require.NoError(t, order.BeforeUpdate(nil))
	assert.Equal(t, 63.0, order.TotalAmount, "total only changes when items change")

	order.SetItems(append(order.OrderItems, models.OrderItem{TotalPrice: 20}))
	require.NoError(t, order.BeforeUpdate(nil))
	assert.Equal(t, 78.0, order.TotalAmount)
}
