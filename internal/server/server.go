// Package server assembles the Fiber application.
package server

import (
	"time"

	"fashionhub/internal/handlers"
	"fashionhub/internal/middleware"
	"fashionhub/internal/services"
	"fashionhub/pkg/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
)

// Options tune the HTTP middleware.
type Options struct {
	CORSOrigins     string
	RateLimitMax    int
	RateLimitWindow time.Duration
	UploadsDir      string
	// RequestLog disables the access log when false.
	RequestLog bool
}

// Services are the collaborators the routes are served by.
type Services struct {
	Auth     *services.AuthService
	Products *services.ProductService
	Carts    *services.CartService
	Orders   *services.OrderService
	Health   map[string]handlers.Checker
}

// New builds the application with every route registered. Metrics are
// registered on reg and served from gatherer at /metrics.
func New(svc Services, opts Options, reg prometheus.Registerer, gatherer prometheus.Gatherer) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
		BodyLimit:    10 * 1024 * 1024,
	})

	serverMetrics := metrics.NewServerMetrics(reg)

	app.Use(recover.New())
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: opts.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	if opts.RequestLog {
		app.Use(logger.New())
	}
	app.Use(middleware.Metrics(serverMetrics))

	if opts.UploadsDir != "" {
		app.Static("/uploads", opts.UploadsDir)
	}
	handlers.NewHealthHandler(svc.Health).RegisterRoutes(app)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler(gatherer)))

	api := app.Group("/api")
	if opts.RateLimitMax > 0 {
		api.Use(limiter.New(limiter.Config{
			Max:        opts.RateLimitMax,
			Expiration: opts.RateLimitWindow,
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"success": false,
					"message": "Too many requests from this IP, please try again later.",
				})
			},
		}))
	}

	auth := middleware.AuthRequired(svc.Auth)
	admin := middleware.AdminOnly()

	handlers.NewAuthHandler(svc.Auth).RegisterRoutes(api, auth)
	handlers.NewProductHandler(svc.Products).RegisterRoutes(api, auth, admin)
	handlers.NewCartHandler(svc.Carts).RegisterRoutes(api, auth)
	handlers.NewOrderHandler(svc.Orders, serverMetrics).RegisterRoutes(api, auth, admin)

	return app
}
