package handlers

import (
	"fashionhub/internal/middleware"
	"fashionhub/internal/models"
	"fashionhub/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// UpdateCartItemRequest is the body of a quantity change.
type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

// CartHandler handles HTTP requests for the shopping cart.
type CartHandler struct {
	service  *services.CartService
	validate *validator.Validate
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service *services.CartService) *CartHandler {
	return &CartHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the cart routes behind auth.
func (h *CartHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	cartRoutes := router.Group("/cart", auth)
	cartRoutes.Get("/", h.HandleGetCart)
	cartRoutes.Post("/", h.HandleAddItem)
	cartRoutes.Delete("/", h.HandleClearCart)
	cartRoutes.Get("/count", h.HandleCount)
	cartRoutes.Put("/:itemId", h.HandleUpdateItem)
	cartRoutes.Delete("/:itemId", h.HandleRemoveItem)
}

func cartResponse(c *fiber.Ctx, message string, cart *models.Cart) error {
	body := fiber.Map{"success": true, "cart": cart.Summary()}
	if message != "" {
		body["message"] = message
	}
	return c.JSON(body)
}

// HandleGetCart returns the caller's cart, creating it if needed.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	cart, err := h.service.GetCart(c.UserContext(), middleware.CurrentUser(c).UserID)
	if err != nil {
		return respondError(c, err)
	}
	return cartResponse(c, "", cart)
}

// HandleAddItem puts a product variant in the cart.
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	var req services.AddCartItemInput
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Please provide productId, size, and color")
	}

	cart, err := h.service.AddItem(c.UserContext(), middleware.CurrentUser(c).UserID, req)
	if err != nil {
		return respondError(c, err)
	}
	return cartResponse(c, "Item added to cart successfully", cart)
}

// HandleUpdateItem changes the quantity of a cart line.
func (h *CartHandler) HandleUpdateItem(c *fiber.Ctx) error {
	var req UpdateCartItemRequest
	if err := bind(c, h.validate, &req); err != nil {
		return respondError(c, err)
	}

	cart, err := h.service.UpdateItem(c.UserContext(), middleware.CurrentUser(c).UserID, c.Params("itemId"), *req.Quantity)
	if err != nil {
		return respondError(c, err)
	}
	return cartResponse(c, "Cart item updated successfully", cart)
}

// HandleRemoveItem removes a cart line.
func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	cart, err := h.service.RemoveItem(c.UserContext(), middleware.CurrentUser(c).UserID, c.Params("itemId"))
	if err != nil {
		return respondError(c, err)
	}
	return cartResponse(c, "Item removed from cart successfully", cart)
}

// HandleClearCart empties the cart.
func (h *CartHandler) HandleClearCart(c *fiber.Ctx) error {
	cart, err := h.service.ClearCart(c.UserContext(), middleware.CurrentUser(c).UserID)
	if err != nil {
		return respondError(c, err)
	}
	return cartResponse(c, "Cart cleared successfully", cart)
}

// HandleCount returns the number of lines in the cart.
func (h *CartHandler) HandleCount(c *fiber.Ctx) error {
	count, err := h.service.CountItems(c.UserContext(), middleware.CurrentUser(c).UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "count": count})
}
