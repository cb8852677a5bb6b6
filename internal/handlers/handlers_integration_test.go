package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"fashionhub/internal/models"
	"fashionhub/internal/repositories"
	"fashionhub/internal/server"
	"fashionhub/internal/services"
	"fashionhub/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "adminpass"
)

type testApp struct {
	app  *fiber.App
	auth *services.AuthService
}

// setupApp sets up the Fiber app with every route on a private in-memory
// SQLite database.
func setupApp(t *testing.T) *testApp {
	t.Helper()
	db := testutil.NewDB(t)
	store := repositories.NewGORMStore(db)

	authService := services.NewAuthService(repositories.NewGORMUserRepository(db), "test_jwt_secret", time.Hour)
	require.NoError(t, authService.EnsureAdmin(context.Background(), adminEmail, adminPassword))

	registry := prometheus.NewRegistry()
	app := server.New(server.Services{
		Auth:     authService,
		Products: services.NewProductService(store.Products(), nil),
		Carts:    services.NewCartService(store.Carts(), store.Products()),
		Orders:   services.NewOrderService(store, nil, nil),
	}, server.Options{CORSOrigins: "*"}, registry, registry)

	return &testApp{app: app, auth: authService}
}

// TestMain runs setup and teardown for all tests
func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	os.Exit(m.Run())
}

// do sends a JSON request and decodes the JSON response.
func (a *testApp) do(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.app.Test(req, -1) // -1 for no timeout
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

func (a *testApp) login(t *testing.T, email, password string) string {
	t.Helper()
	status, resp := a.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, status)
	token, _ := resp["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func (a *testApp) register(t *testing.T, name, email string) string {
	t.Helper()
	status, resp := a.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     name,
		"email":    email,
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, status)
	token, _ := resp["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func (a *testApp) createProduct(t *testing.T, adminToken string) string {
	t.Helper()
	status, resp := a.do(t, http.MethodPost, "/api/products", adminToken, map[string]interface{}{
		"name":        "Oxford Shirt",
		"description": "Classic cotton oxford shirt",
		"price":       40,
		"category":    "Shirts",
		"gender":      "Men",
		"sizes":       []map[string]interface{}{{"size": "M", "stock": 3}, {"size": "L", "stock": 1}},
		"colors":      []string{"Blue", "White"},
	})
	require.Equal(t, http.StatusCreated, status)
	product := resp["product"].(map[string]interface{})
	return product["id"].(string)
}

func TestAuthRegisterAndLogin(t *testing.T) {
	a := setupApp(t)

	// Test Registration
	user := map[string]string{"name": "Test User", "email": "test@example.com", "password": "password123"}
	status, resp := a.do(t, http.MethodPost, "/api/auth/register", "", user)
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "User registered successfully", resp["message"])
	assert.NotEmpty(t, resp["token"])
	registered := resp["user"].(map[string]interface{})
	assert.Equal(t, "test@example.com", registered["email"])
	assert.NotContains(t, registered, "password")

	// Test Duplicate Registration
	status, resp = a.do(t, http.MethodPost, "/api/auth/register", "", user)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "User already exists with this email", resp["message"])

	// Test Validation
	status, resp = a.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Validation failed", resp["message"])
	assert.Contains(t, resp["errors"], "Email")

	// Test Login
	token := a.login(t, "test@example.com", "password123")
	claims, err := a.auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "test@example.com", claims.Email)
	assert.Equal(t, models.RoleUser, claims.Role)

	status, resp = a.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "test@example.com",
		"password": "wrongpassword",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid credentials", resp["message"])

	// Test profile
	status, resp = a.do(t, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Test User", resp["user"].(map[string]interface{})["name"])
}

func TestAuthRequired(t *testing.T) {
	a := setupApp(t)

	status, resp := a.do(t, http.MethodGet, "/api/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Not authorized, no token", resp["message"])

	status, resp = a.do(t, http.MethodGet, "/api/orders", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Not authorized, token failed", resp["message"])
}

func TestProductEndpoints(t *testing.T) {
	a := setupApp(t)
	adminToken := a.login(t, adminEmail, adminPassword)
	userToken := a.register(t, "Shopper", "shopper@example.com")

	newProduct := map[string]interface{}{
		"name":        "Denim Jacket",
		"description": "Stonewashed denim jacket",
		"price":       89.99,
		"category":    "Jackets",
	}

	// Writes need an admin token
	status, _ := a.do(t, http.MethodPost, "/api/products", "", newProduct)
	assert.Equal(t, http.StatusUnauthorized, status)
	status, resp := a.do(t, http.MethodPost, "/api/products", userToken, newProduct)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Not authorized as an admin", resp["message"])

	status, resp = a.do(t, http.MethodPost, "/api/products", adminToken, map[string]interface{}{"name": "No category"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Validation failed", resp["message"])

	status, resp = a.do(t, http.MethodPost, "/api/products", adminToken, newProduct)
	require.Equal(t, http.StatusCreated, status)
	created := resp["product"].(map[string]interface{})
	id := created["id"].(string)
	assert.Equal(t, true, created["inStock"])
	images := created["images"].([]interface{})
	require.Len(t, images, 1)
	assert.Equal(t, models.DefaultImageURL, images[0].(map[string]interface{})["url"])

	// Reads are public
	status, resp = a.do(t, http.MethodGet, "/api/products?category=Jackets", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, resp["products"], 1)
	pagination := resp["pagination"].(map[string]interface{})
	assert.Equal(t, float64(1), pagination["totalProducts"])
	assert.Equal(t, float64(1), pagination["currentPage"])
	assert.Equal(t, false, pagination["hasNext"])

	status, resp = a.do(t, http.MethodGet, "/api/products/categories", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, []interface{}{"Jackets"}, resp["data"].(map[string]interface{})["categories"])

	// Partial update keeps the other fields
	status, resp = a.do(t, http.MethodPut, "/api/products/"+id, adminToken, map[string]interface{}{"price": 79.5})
	assert.Equal(t, http.StatusOK, status)
	updated := resp["product"].(map[string]interface{})
	assert.Equal(t, 79.5, updated["price"])
	assert.Equal(t, "Denim Jacket", updated["name"])

	status, resp = a.do(t, http.MethodDelete, "/api/products/"+id, adminToken, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Product deleted successfully", resp["message"])

	// Verify deletion
	status, resp = a.do(t, http.MethodGet, "/api/products/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Product not found", resp["message"])
}

func TestCartEndpoints(t *testing.T) {
	a := setupApp(t)
	productID := a.createProduct(t, a.login(t, adminEmail, adminPassword))
	token := a.register(t, "Shopper", "shopper@example.com")

	status, resp := a.do(t, http.MethodPost, "/api/cart", token, map[string]interface{}{"productId": productID, "size": "M"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Please provide productId, size, and color", resp["message"])

	status, resp = a.do(t, http.MethodPost, "/api/cart", token, map[string]interface{}{
		"productId": productID, "size": "M", "color": "Blue", "quantity": 0,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Quantity must be between 1 and 10", resp["message"])

	status, resp = a.do(t, http.MethodPost, "/api/cart", token, map[string]interface{}{
		"productId": productID, "size": "L", "color": "Blue", "quantity": 2,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Only 1 items available for size L", resp["message"])

	status, resp = a.do(t, http.MethodPost, "/api/cart", token, map[string]interface{}{
		"productId": productID, "size": "M", "color": "Blue", "quantity": 2,
	})
	require.Equal(t, http.StatusOK, status)
	cart := resp["cart"].(map[string]interface{})
	assert.Equal(t, float64(80), cart["totalAmount"])
	items := cart["items"].([]interface{})
	require.Len(t, items, 1)
	itemID := items[0].(map[string]interface{})["id"].(string)

	status, resp = a.do(t, http.MethodGet, "/api/cart/count", token, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), resp["count"])

	status, resp = a.do(t, http.MethodPut, "/api/cart/"+itemID, token, map[string]interface{}{"quantity": 3})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(120), resp["cart"].(map[string]interface{})["totalAmount"])

	status, resp = a.do(t, http.MethodPut, "/api/cart/unknown", token, map[string]interface{}{"quantity": 1})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Cart item not found", resp["message"])

	status, resp = a.do(t, http.MethodPut, "/api/cart/"+itemID, token, map[string]interface{}{"quantity": 11})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Quantity must be between 0 and 10", resp["message"])

	status, resp = a.do(t, http.MethodDelete, "/api/cart/"+itemID, token, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, resp["cart"].(map[string]interface{})["items"])
}

func TestCheckoutAndOrderLifecycle(t *testing.T) {
	a := setupApp(t)
	adminToken := a.login(t, adminEmail, adminPassword)
	productID := a.createProduct(t, adminToken)
	token := a.register(t, "Shopper", "shopper@example.com")
	otherToken := a.register(t, "Other", "other@example.com")

	checkout := map[string]interface{}{
		"shippingAddress": map[string]string{
			"street": "1 Main St", "city": "Springfield", "state": "IL", "zipCode": "62701", "country": "US",
		},
		"paymentInfo": map[string]string{"method": "credit_card"},
	}

	// Empty cart
	status, resp := a.do(t, http.MethodPost, "/api/orders", token, checkout)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Cart is empty", resp["message"])

	status, resp = a.do(t, http.MethodPost, "/api/orders", token, map[string]interface{}{"notes": "hi"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Shipping address and payment info are required", resp["message"])

	status, _ = a.do(t, http.MethodPost, "/api/cart", token, map[string]interface{}{
		"productId": productID, "size": "M", "color": "White", "quantity": 3,
	})
	require.Equal(t, http.StatusOK, status)

	status, resp = a.do(t, http.MethodPost, "/api/orders", token, checkout)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "Order created successfully", resp["message"])
	order := resp["order"].(map[string]interface{})
	orderID := order["id"].(string)
	orderNumber := order["orderNumber"].(string)
	assert.Equal(t, "pending", order["orderStatus"])
	assert.Equal(t, float64(132), order["totalAmount"])

	// Stock was taken
	status, resp = a.do(t, http.MethodGet, "/api/products/"+productID, "", nil)
	require.Equal(t, http.StatusOK, status)
	sizes := resp["product"].(map[string]interface{})["sizes"].([]interface{})
	assert.Equal(t, float64(0), sizes[0].(map[string]interface{})["stock"])

	// Visibility
	status, _ = a.do(t, http.MethodGet, "/api/orders/"+orderID, token, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = a.do(t, http.MethodGet, "/api/orders/"+orderID, adminToken, nil)
	assert.Equal(t, http.StatusOK, status)
	status, resp = a.do(t, http.MethodGet, "/api/orders/"+orderID, otherToken, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Access denied", resp["message"])
	status, resp = a.do(t, http.MethodGet, "/api/orders/missing", token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Order not found", resp["message"])

	status, resp = a.do(t, http.MethodGet, "/api/orders", token, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, resp["orders"], 1)
	assert.Equal(t, float64(1), resp["pagination"].(map[string]interface{})["totalOrders"])

	// Status changes are admin only and follow the transition table
	status, _ = a.do(t, http.MethodPut, "/api/orders/"+orderID+"/status", token, map[string]string{"status": "confirmed"})
	assert.Equal(t, http.StatusForbidden, status)

	status, resp = a.do(t, http.MethodPut, "/api/orders/"+orderID+"/status", adminToken, map[string]string{"status": "lost"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, models.InvalidOrderStatusMessage(), resp["message"])

	status, resp = a.do(t, http.MethodPut, "/api/orders/"+orderID+"/status", adminToken, map[string]string{"status": "delivered"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Order status cannot change from pending to delivered", resp["message"])

	status, resp = a.do(t, http.MethodPut, "/api/orders/"+orderID+"/status", adminToken, map[string]string{"status": "processing"})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Order status updated to processing", resp["message"])
	assert.Equal(t, orderNumber, resp["order"].(map[string]interface{})["orderNumber"])

	// Delivery tracking
	status, resp = a.do(t, http.MethodPatch, "/api/orders/"+orderID+"/tracking", adminToken, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "deliveryStatus is required", resp["message"])

	status, resp = a.do(t, http.MethodPatch, "/api/orders/"+orderID+"/tracking", adminToken, map[string]string{"deliveryStatus": "Lost"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, models.InvalidDeliveryStatusMessage(), resp["message"])

	status, resp = a.do(t, http.MethodPatch, "/api/orders/"+orderID+"/tracking", adminToken, map[string]string{"deliveryStatus": "Processing"})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Delivery status updated successfully", resp["message"])

	status, resp = a.do(t, http.MethodGet, "/api/orders/"+orderID+"/tracking", token, nil)
	assert.Equal(t, http.StatusOK, status)
	tracking := resp["order"].(map[string]interface{})
	assert.Equal(t, "Processing", tracking["deliveryStatus"])
	assert.Len(t, tracking["deliveryUpdates"], 1)
	assert.Len(t, tracking["timeline"], 5)

	status, resp = a.do(t, http.MethodGet, "/api/orders/"+orderID+"/track", token, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "processing", resp["order"].(map[string]interface{})["currentStatus"])

	// Cancellation restores stock
	status, resp = a.do(t, http.MethodPut, "/api/orders/"+orderID+"/cancel", otherToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, resp = a.do(t, http.MethodPut, "/api/orders/"+orderID+"/cancel", token, map[string]string{"reason": "Ordered by mistake"})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Order cancelled successfully", resp["message"])

	status, resp = a.do(t, http.MethodPut, "/api/orders/"+orderID+"/cancel", token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Order cannot be cancelled at this stage", resp["message"])

	status, resp = a.do(t, http.MethodGet, "/api/products/"+productID, "", nil)
	require.Equal(t, http.StatusOK, status)
	sizes = resp["product"].(map[string]interface{})["sizes"].([]interface{})
	assert.Equal(t, float64(3), sizes[0].(map[string]interface{})["stock"])

	// Back office
	status, resp = a.do(t, http.MethodGet, "/api/orders/admin/stats", adminToken, nil)
	assert.Equal(t, http.StatusOK, status)
	stats := resp["stats"].(map[string]interface{})
	assert.Equal(t, float64(1), stats["cancelled"].(map[string]interface{})["count"])

	status, resp = a.do(t, http.MethodGet, "/api/orders/admin/all?status=cancelled", adminToken, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, resp["orders"], 1)

	status, _ = a.do(t, http.MethodGet, "/api/orders/admin/all", token, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestCheckoutStockConflict(t *testing.T) {
	a := setupApp(t)
	adminToken := a.login(t, adminEmail, adminPassword)
	productID := a.createProduct(t, adminToken)
	first := a.register(t, "First", "first@example.com")
	second := a.register(t, "Second", "second@example.com")

	add := map[string]interface{}{"productId": productID, "size": "L", "color": "Blue", "quantity": 1}
	for _, token := range []string{first, second} {
		status, _ := a.do(t, http.MethodPost, "/api/cart", token, add)
		require.Equal(t, http.StatusOK, status)
	}

	checkout := map[string]interface{}{
		"shippingAddress": map[string]string{
			"street": "1 Main St", "city": "Springfield", "state": "IL", "zipCode": "62701", "country": "US",
		},
		"paymentInfo": map[string]string{"method": "paypal"},
	}
	status, _ := a.do(t, http.MethodPost, "/api/orders", first, checkout)
	require.Equal(t, http.StatusCreated, status)

	status, resp := a.do(t, http.MethodPost, "/api/orders", second, checkout)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Some items are no longer available", resp["message"])
	assert.Equal(t, []interface{}{"Only 0 L size available for Oxford Shirt"}, resp["issues"])
}
