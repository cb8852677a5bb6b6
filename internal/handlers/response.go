package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"fashionhub/internal/models"
	"fashionhub/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// requestError is a malformed or invalid request body.
type requestError struct {
	message string
	fields  map[string]string
}

func (e *requestError) Error() string { return e.message }

// bind parses the JSON body into dst and validates it.
func bind(c *fiber.Ctx, validate *validator.Validate, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		slog.Debug("invalid request body", "path", c.Path(), "error", err)
		return &requestError{message: "Invalid request body"}
	}
	if err := validate.Struct(dst); err != nil {
		return bindValidation(err)
	}
	return nil
}

// bindValidation converts a validator error into a requestError listing the
// failed fields.
func bindValidation(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return &requestError{message: "Validation failed"}
	}
	errorMessages := make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return &requestError{message: "Validation failed", fields: errorMessages}
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}

// clientErrors pairs domain errors with their status code and the message
// shown to the client.
var clientErrors = []struct {
	err     error
	status  int
	message string
}{
	{services.ErrCartEmpty, fiber.StatusBadRequest, "Cart is empty"},
	{services.ErrNotCancellable, fiber.StatusBadRequest, "Order cannot be cancelled at this stage"},
	{services.ErrInvalidCredentials, fiber.StatusUnauthorized, "Invalid credentials"},
	{services.ErrForbidden, fiber.StatusForbidden, "Access denied"},
	{services.ErrProductNotFound, fiber.StatusNotFound, "Product not found"},
	{services.ErrOrderNotFound, fiber.StatusNotFound, "Order not found"},
	{services.ErrUserNotFound, fiber.StatusNotFound, "User not found"},
	{models.ErrCartItemNotFound, fiber.StatusNotFound, "Cart item not found"},
	{services.ErrEmailTaken, fiber.StatusConflict, "User already exists with this email"},
	{services.ErrProductModified, fiber.StatusConflict, "Product was modified by another request, please retry"},
}

// respondError maps domain errors to their HTTP response. Anything it does
// not recognize goes to the application error handler.
func respondError(c *fiber.Ctx, err error) error {
	var (
		reqErr     *requestError
		cartErr    *models.CartError
		conflict   *services.StockConflictError
		transition *models.InvalidTransitionError
	)
	switch {
	case errors.As(err, &reqErr):
		body := fiber.Map{"success": false, "message": reqErr.message}
		if len(reqErr.fields) > 0 {
			body["errors"] = reqErr.fields
		}
		return c.Status(fiber.StatusBadRequest).JSON(body)
	case errors.As(err, &conflict):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Some items are no longer available",
			"issues":  conflict.Issues,
		})
	case errors.As(err, &cartErr):
		return fail(c, fiber.StatusBadRequest, cartErr.Message)
	case errors.As(err, &transition):
		return fail(c, fiber.StatusBadRequest, transition.Message())
	case errors.Is(err, models.ErrInvalidOrderStatus):
		return fail(c, fiber.StatusBadRequest, models.InvalidOrderStatusMessage())
	case errors.Is(err, models.ErrInvalidDeliveryStatus):
		return fail(c, fiber.StatusBadRequest, models.InvalidDeliveryStatusMessage())
	}
	for _, ce := range clientErrors {
		if errors.Is(err, ce.err) {
			return fail(c, ce.status, ce.message)
		}
	}
	return err
}

// ErrorHandler is the application error handler. Internal details are logged
// and never returned to the client.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fail(c, fe.Code, fe.Message)
	}
	slog.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	return fail(c, fiber.StatusInternalServerError, "Server error")
}

// pageParams reads the page and limit query parameters.
func pageParams(c *fiber.Ctx, defaultLimit int) (int, int) {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", defaultLimit)
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	return page, limit
}

// queryFloat returns nil when the parameter is absent or not a number.
func queryFloat(c *fiber.Ctx, key string) *float64 {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

// chain returns guards followed by handler in a fresh slice.
func chain(guards []fiber.Handler, handler fiber.Handler) []fiber.Handler {
	handlers := make([]fiber.Handler, 0, len(guards)+1)
	handlers = append(handlers, guards...)
	return append(handlers, handler)
}
