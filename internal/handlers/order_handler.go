package handlers

import (
	"errors"
	"fmt"
	"log/slog"

	"fashionhub/internal/middleware"
	"fashionhub/internal/models"
	"fashionhub/internal/services"
	"fashionhub/pkg/metrics"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CancelOrderRequest is the optional body of a cancellation.
type CancelOrderRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// UpdateTrackingRequest is the body of a delivery tracking update.
type UpdateTrackingRequest struct {
	DeliveryStatus string `json:"deliveryStatus"`
}

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service  *services.OrderService
	validate *validator.Validate
	metrics  *metrics.ServerMetrics
}

// NewOrderHandler creates a new OrderHandler. m may be nil.
func NewOrderHandler(service *services.OrderService, m *metrics.ServerMetrics) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: validator.New(),
		metrics:  m,
	}
}

// RegisterRoutes registers the order routes. Every route requires auth;
// admin additionally guards the back-office endpoints.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, auth, admin fiber.Handler) {
	orderRoutes := router.Group("/orders", auth)
	orderRoutes.Post("/", h.HandleCreateOrder)
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Get("/admin/all", admin, h.HandleGetAllOrders)
	orderRoutes.Get("/admin/stats", admin, h.HandleGetStats)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Put("/:id/cancel", h.HandleCancelOrder)
	orderRoutes.Get("/:id/track", h.HandleTrackOrder)
	orderRoutes.Get("/:id/tracking", h.HandleGetTracking)
	orderRoutes.Put("/:id/status", admin, h.HandleUpdateOrderStatus)
	orderRoutes.Patch("/:id/tracking", admin, h.HandleUpdateTracking)
}

func orderPagination(p services.Page) fiber.Map {
	return fiber.Map{
		"currentPage": p.Number,
		"totalPages":  p.TotalPages,
		"totalOrders": p.Total,
	}
}

func (h *OrderHandler) observeCheckout(err error) {
	if h.metrics == nil {
		return
	}
	outcome := "success"
	var conflict *services.StockConflictError
	switch {
	case err == nil:
	case errors.As(err, &conflict):
		outcome = "stock_conflict"
	case errors.Is(err, services.ErrCartEmpty):
		outcome = "empty_cart"
	default:
		outcome = "error"
	}
	h.metrics.Checkouts.WithLabelValues(outcome).Inc()
}

// HandleCreateOrder checks out the caller's cart.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var req services.CheckoutInput
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.ShippingAddress == nil || req.PaymentInfo == nil {
		return fail(c, fiber.StatusBadRequest, "Shipping address and payment info are required")
	}
	if err := h.validate.Struct(req); err != nil {
		return respondError(c, bindValidation(err))
	}

	user := middleware.CurrentUser(c)
	order, err := h.service.CreateOrder(c.UserContext(), user.UserID, req)
	h.observeCheckout(err)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Order created successfully",
		"order":   order.Confirmation(),
	})
}

// HandleGetOrders lists the caller's orders.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	page, limit := pageParams(c, services.DefaultOrderPageSize)
	orders, p, err := h.service.ListUserOrders(c.UserContext(), middleware.CurrentUser(c).UserID, page, limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":    true,
		"orders":     orders,
		"pagination": orderPagination(p),
	})
}

// HandleGetAllOrders lists orders of every user, optionally by status.
func (h *OrderHandler) HandleGetAllOrders(c *fiber.Ctx) error {
	page, limit := pageParams(c, services.DefaultOrderPageSize)
	orders, p, err := h.service.ListAllOrders(c.UserContext(), c.Query("status"), page, limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":    true,
		"orders":     orders,
		"pagination": orderPagination(p),
	})
}

// HandleGetStats returns the count and revenue per order status.
func (h *OrderHandler) HandleGetStats(c *fiber.Ctx) error {
	stats, err := h.service.Stats(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "stats": stats})
}

// HandleGetOrderByID returns one order to its owner or an admin.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	order, err := h.service.GetOrder(c.UserContext(), c.Params("id"), user.UserID, user.IsAdmin())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "order": order})
}

// HandleUpdateOrderStatus moves an order through its lifecycle.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	var req services.StatusUpdateInput
	if err := bind(c, h.validate, &req); err != nil {
		return respondError(c, err)
	}

	order, err := h.service.UpdateStatus(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return respondError(c, err)
	}
	slog.Info("order status updated", "order_id", order.ID, "status", order.OrderStatus)
	return c.JSON(fiber.Map{
		"success": true,
		"message": fmt.Sprintf("Order status updated to %s", order.OrderStatus),
		"order":   order.Summary(),
	})
}

// HandleCancelOrder cancels the caller's order and restocks its items.
func (h *OrderHandler) HandleCancelOrder(c *fiber.Ctx) error {
	var req CancelOrderRequest
	if len(c.Body()) > 0 {
		if err := bind(c, h.validate, &req); err != nil {
			return respondError(c, err)
		}
	}

	order, err := h.service.CancelOrder(c.UserContext(), c.Params("id"), middleware.CurrentUser(c).UserID, req.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Order cancelled successfully",
		"order":   order.Summary(),
	})
}

// HandleTrackOrder returns the order status timeline.
func (h *OrderHandler) HandleTrackOrder(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	order, err := h.service.GetOrder(c.UserContext(), c.Params("id"), user.UserID, user.IsAdmin())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"order": fiber.Map{
			"orderNumber":       order.OrderNumber,
			"currentStatus":     order.OrderStatus,
			"trackingNumber":    order.TrackingNumber,
			"estimatedDelivery": order.EstimatedDelivery,
			"deliveredAt":       order.DeliveredAt,
		},
		"timeline": order.StatusTimeline(),
	})
}

func trackingView(order *models.Order) fiber.Map {
	return fiber.Map{
		"orderNumber":     order.OrderNumber,
		"deliveryStatus":  order.DeliveryStatus,
		"deliveryUpdates": order.DeliveryUpdates,
		"timeline":        order.DeliveryTimeline(),
	}
}

// HandleGetTracking returns the delivery status, its log and timeline.
func (h *OrderHandler) HandleGetTracking(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	order, err := h.service.GetOrder(c.UserContext(), c.Params("id"), user.UserID, user.IsAdmin())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "order": trackingView(order)})
}

// HandleUpdateTracking records a delivery status change.
func (h *OrderHandler) HandleUpdateTracking(c *fiber.Ctx) error {
	var req UpdateTrackingRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.DeliveryStatus == "" {
		return fail(c, fiber.StatusBadRequest, "deliveryStatus is required")
	}

	order, err := h.service.UpdateTracking(c.UserContext(), c.Params("id"), req.DeliveryStatus)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Delivery status updated successfully",
		"order":   trackingView(order),
	})
}
